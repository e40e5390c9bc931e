// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, provider, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeAuthExchangeFailed  = "AUTH_EXCHANGE_FAILED"
	ErrCodeStoreUnavailable    = "STORE_UNAVAILABLE"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeActivityFetchFailed = "ACTIVITY_FETCH_FAILED"
)

// NewAuthExchangeFailedError は認可コード交換失敗エラーを生成する。
// 認可コードは使い捨てのため、同じコードでの再試行では解決しない。
func NewAuthExchangeFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthExchangeFailed,
		Message:  "Stravaの認可コードの交換に失敗しました。",
		Category: "auth",
		Action:   "Stravaの認可からやり直して、新しいコードでログインしてください。",
	}
}

// NewStoreUnavailableError はデータベース利用不可エラーを生成する。
func NewStoreUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeStoreUnavailable,
		Message:  "データベースに接続できませんでした。",
		Category: "system",
		Action:   "しばらく待ってから、ログインを最初からやり直してください。",
	}
}

// NewUnauthorizedError は認証失敗エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "セッションが無効です。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewInvalidRequestError はリクエスト不正エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "リクエストの内容を確認してください。",
	}
}

// NewActivityFetchFailedError はアクティビティ取得失敗エラーを生成する。
func NewActivityFetchFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeActivityFetchFailed,
		Message:  "Stravaからのアクティビティ取得に失敗しました。",
		Category: "provider",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hitoshi/runsum/internal/model"
)

// SessionCookieName はセッショントークンを保持するCookieの名前。
const SessionCookieName = "runsum_session"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// athleteContextKey はリクエストコンテキストに認証済みアスリートを格納するためのキー。
var athleteContextKey = contextKey("athlete")

// Authenticator はセッショントークンの検証と認証情報の解決に必要なインターフェース。
// auth.Serviceの部分集合として定義する。
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Athlete, error)
}

// NewSessionMiddleware はHTTP Only Cookieからセッショントークンを読み取り、
// 検証して保存済みアスリートを解決するミドルウェアを返す。
// 解決したアスリート（最新のプロバイダ認証情報を含む）をリクエストコンテキストに注入する。
// 未認証リクエストには統一フォーマットの401を返す。
func NewSessionMiddleware(authenticator Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Cookieからセッショントークンを取得
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 2. トークンを検証し、アスリートを解決
			athlete, err := authenticator.Authenticate(r.Context(), cookie.Value)
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 3. 認証済みアスリートをコンテキストに注入
			ctx := context.WithValue(r.Context(), athleteContextKey, athlete)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AthleteFromContext はリクエストコンテキストから認証済みアスリートを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func AthleteFromContext(ctx context.Context) (*model.Athlete, error) {
	athlete, ok := ctx.Value(athleteContextKey).(*model.Athlete)
	if !ok || athlete == nil {
		return nil, fmt.Errorf("athlete not found in context")
	}
	return athlete, nil
}

// ContextWithAthlete はコンテキストにアスリートを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithAthlete(ctx context.Context, athlete *model.Athlete) context.Context {
	return context.WithValue(ctx, athleteContextKey, athlete)
}

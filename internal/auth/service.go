// Package auth はログインオーケストレーションとリクエスト認証を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/runsum/internal/model"
	"github.com/hitoshi/runsum/internal/repository"
	"github.com/hitoshi/runsum/internal/session"
	"github.com/hitoshi/runsum/internal/strava"
)

// エラー種別。HTTP層はerrors.Isでステータスコードにマッピングする。
var (
	// ErrExchangeFailed は認可コードの交換またはアスリート識別情報の取得失敗。
	// コードは使い捨てのため再試行では解決せず、新しい認可からやり直す必要がある。
	ErrExchangeFailed = errors.New("auth exchange failed")

	// ErrStoreUnavailable はアスリートストアへの読み書き失敗。
	// ログイン全体のやり直しで解決する可能性がある。
	ErrStoreUnavailable = errors.New("athlete store unavailable")

	// ErrUnauthorized はセッション credential の欠落・不正・期限切れ、
	// またはアスリート行の不在。再ログインが必要。
	ErrUnauthorized = errors.New("unauthorized")
)

// TokenExchanger はプロバイダとのトークン交換と識別情報取得のインターフェース。
type TokenExchanger interface {
	// ExchangeCode は認可コードをトークン3点セットに交換する。
	ExchangeCode(ctx context.Context, code string) (*strava.Credential, error)
	// FetchAthlete はアクセストークンでアスリートの識別情報を取得する。
	FetchAthlete(ctx context.Context, accessToken string) (*strava.AthleteProfile, error)
}

// SessionManager はセッショントークンの発行と検証のインターフェース。
type SessionManager interface {
	Issue(athleteID int64, firstname string) (string, error)
	Verify(token string) (*session.Claims, error)
}

// MetricsRecorder はログイン結果のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordLoginSuccess()
	RecordLoginFailure(reason string)
}

// noopMetrics はメトリクス未設定時の何もしない実装。
type noopMetrics struct{}

func (noopMetrics) RecordLoginSuccess()              {}
func (noopMetrics) RecordLoginFailure(reason string) {}

// LoginResult はログイン成功時にHTTP層へ返す値の組。
// SessionTokenはCookie等の帯域外チャネルでクライアントに渡す。
type LoginResult struct {
	SessionToken string
	AthleteID    int64
	Firstname    string
}

// Service は認証に関するビジネスロジックを提供する。
// ログイン（交換→識別→Upsert→セッション発行）と
// リクエストごとの認証（検証→認証情報の解決）をオーケストレーションする。
type Service struct {
	exchanger   TokenExchanger
	athleteRepo repository.AthleteRepository
	sessions    SessionManager
	metrics     MetricsRecorder
}

// NewService はServiceを生成する。metricsはnil可。
func NewService(
	exchanger TokenExchanger,
	athleteRepo repository.AthleteRepository,
	sessions SessionManager,
	metrics MetricsRecorder,
) *Service {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Service{
		exchanger:   exchanger,
		athleteRepo: athleteRepo,
		sessions:    sessions,
		metrics:     metrics,
	}
}

// Login は認可コードからセッショントークンを発行する。
// いずれかのステップが失敗した時点で中断し、そのステップのエラー種別を返す。
// 失敗時にセッションは発行されない（Upsert済みの行はロールバックしない）。
func (s *Service) Login(ctx context.Context, code string) (*LoginResult, error) {
	// 1. 認可コードをトークン3点セットに交換
	cred, err := s.exchanger.ExchangeCode(ctx, code)
	if err != nil {
		s.metrics.RecordLoginFailure("exchange")
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	// 2. アスリートの識別情報を取得
	profile, err := s.exchanger.FetchAthlete(ctx, cred.AccessToken)
	if err != nil {
		s.metrics.RecordLoginFailure("identity")
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	// 3. アスリート行を原子的にUpsert
	athlete, err := s.athleteRepo.Upsert(ctx, repository.UpsertAthleteParams{
		ID:             profile.ID,
		Firstname:      profile.Firstname,
		Lastname:       profile.Lastname,
		AccessToken:    cred.AccessToken,
		RefreshToken:   cred.RefreshToken,
		TokenExpiresAt: cred.ExpiresAt,
	})
	if err != nil {
		s.metrics.RecordLoginFailure("store")
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// 4. セッショントークンを発行
	token, err := s.sessions.Issue(athlete.ID, athlete.Firstname)
	if err != nil {
		s.metrics.RecordLoginFailure("session")
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	s.metrics.RecordLoginSuccess()
	slog.Info("athlete logged in",
		slog.Int64("athlete_id", athlete.ID),
		slog.Time("first_login_at", athlete.FirstLoginAt),
	)

	return &LoginResult{
		SessionToken: token,
		AthleteID:    athlete.ID,
		Firstname:    athlete.Firstname,
	}, nil
}

// Authenticate はセッショントークンを検証し、保存済みのアスリート
// （最新のプロバイダ認証情報を含む）を解決する。
// トークン不正・期限切れ・アスリート行の不在はすべてErrUnauthorized。
func (s *Service) Authenticate(ctx context.Context, token string) (*model.Athlete, error) {
	claims, err := s.sessions.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	athlete, err := s.athleteRepo.Get(ctx, claims.AthleteID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if athlete == nil {
		// セッションは有効だがストアに行がない（リセット等）。クラッシュさせない。
		return nil, fmt.Errorf("%w: athlete %d not found", ErrUnauthorized, claims.AthleteID)
	}

	return athlete, nil
}

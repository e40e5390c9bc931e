// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/runsum/internal/auth"
	"github.com/hitoshi/runsum/internal/middleware"
	"github.com/hitoshi/runsum/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, code string) (*auth.LoginResult, error)
	Authenticate(ctx context.Context, token string) (*model.Athlete, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はStrava認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// loginRequest はログインエンドポイントのリクエストボディ。
type loginRequest struct {
	Code string `json:"code"`
}

// loginResponse はログイン成功時のレスポンスボディ。
// セッショントークン自体はHTTP Only Cookieで返し、ボディには含めない。
type loginResponse struct {
	Success   bool   `json:"success"`
	AthleteID int64  `json:"athlete_id"`
	Firstname string `json:"firstname"`
}

// Login は認可コードを受け取りログインフローを実行する。
// POST /auth/login {"code": "..."}
// 成功時はセッションCookieを設定する。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("code is required"))
		return
	}

	result, err := h.service.Login(r.Context(), req.Code)
	if err != nil {
		h.writeLoginError(w, err)
		return
	}

	// セッションCookieを設定（HTTP Only）
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    result.SessionToken,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loginResponse{
		Success:   true,
		AthleteID: result.AthleteID,
		Firstname: result.Firstname,
	})
}

// writeLoginError はログイン失敗のエラー種別をHTTPステータスにマッピングする。
// 交換失敗はクライアント側で解決可能（新しいコードの取得）、
// ストア障害はサーバー側の問題としてログイン全体の再試行を促す。
func (h *AuthHandler) writeLoginError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrExchangeFailed):
		slog.Warn("login failed: code exchange rejected", slog.String("error", err.Error()))
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewAuthExchangeFailedError())
	case errors.Is(err, auth.ErrStoreUnavailable):
		slog.Error("login failed: athlete store unavailable", slog.String("error", err.Error()))
		middleware.WriteErrorResponse(w, http.StatusServiceUnavailable, model.NewStoreUnavailableError())
	default:
		slog.Error("login failed", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
	}
}

// whoamiResponse は現在のログインアスリート情報のレスポンスボディ。
type whoamiResponse struct {
	Success   bool   `json:"success"`
	AthleteID int64  `json:"athlete_id"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

// Whoami は現在のログインアスリート情報を返す。
// GET /auth/whoami
func (h *AuthHandler) Whoami(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil || cookie.Value == "" {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	athlete, err := h.service.Authenticate(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, auth.ErrStoreUnavailable) {
			slog.Error("whoami failed: athlete store unavailable", slog.String("error", err.Error()))
			middleware.WriteErrorResponse(w, http.StatusServiceUnavailable, model.NewStoreUnavailableError())
			return
		}
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(whoamiResponse{
		Success:   true,
		AthleteID: athlete.ID,
		Firstname: athlete.Firstname,
		Lastname:  athlete.Lastname,
	})
}

// Logout はセッションCookieをクリアする。
// POST /auth/logout
// セッショントークンはサーバー側で失効できないため、
// クライアントにcredentialの破棄を指示するだけのステートレスな操作。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

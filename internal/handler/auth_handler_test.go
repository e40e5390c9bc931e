package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/runsum/internal/auth"
	"github.com/hitoshi/runsum/internal/middleware"
	"github.com/hitoshi/runsum/internal/model"
)

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	loginFunc        func(ctx context.Context, code string) (*auth.LoginResult, error)
	authenticateFunc func(ctx context.Context, token string) (*model.Athlete, error)
}

func (m *mockAuthService) Login(ctx context.Context, code string) (*auth.LoginResult, error) {
	return m.loginFunc(ctx, code)
}

func (m *mockAuthService) Authenticate(ctx context.Context, token string) (*model.Athlete, error) {
	return m.authenticateFunc(ctx, token)
}

// compile-time interface check
var _ AuthServiceInterface = (*mockAuthService)(nil)

func findSessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestLogin_Success_SetsCookieAndBody(t *testing.T) {
	service := &mockAuthService{
		loginFunc: func(ctx context.Context, code string) (*auth.LoginResult, error) {
			if code != "abc123" {
				t.Errorf("code = %q, want %q", code, "abc123")
			}
			return &auth.LoginResult{
				SessionToken: "session-token",
				AthleteID:    42,
				Firstname:    "Jane",
			}, nil
		},
	}
	h := NewAuthHandler(service, AuthHandlerConfig{
		CookieSecure:  true,
		SessionMaxAge: 86400,
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"code":"abc123"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	// セッションCookieの属性を検証
	cookie := findSessionCookie(t, rec)
	if cookie == nil {
		t.Fatal("session cookie should be set")
	}
	if cookie.Value != "session-token" {
		t.Errorf("cookie value = %q, want %q", cookie.Value, "session-token")
	}
	if !cookie.HttpOnly {
		t.Error("cookie should be HttpOnly")
	}
	if !cookie.Secure {
		t.Error("cookie should be Secure")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie SameSite = %v, want Lax", cookie.SameSite)
	}
	if cookie.MaxAge != 86400 {
		t.Errorf("cookie MaxAge = %d, want %d", cookie.MaxAge, 86400)
	}

	// レスポンスボディにトークンが含まれないこと
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["success"] != true {
		t.Error("success should be true")
	}
	if body["athlete_id"] != float64(42) {
		t.Errorf("athlete_id = %v, want 42", body["athlete_id"])
	}
	if body["firstname"] != "Jane" {
		t.Errorf("firstname = %v, want %q", body["firstname"], "Jane")
	}
	if _, ok := body["session_token"]; ok {
		t.Error("response body should not contain the session token")
	}
}

func TestLogin_MissingCode_Returns400(t *testing.T) {
	service := &mockAuthService{
		loginFunc: func(ctx context.Context, code string) (*auth.LoginResult, error) {
			t.Error("Login should not be called for invalid request")
			return nil, nil
		},
	}
	h := NewAuthHandler(service, AuthHandlerConfig{})

	for _, body := range []string{`{}`, `{"code":""}`, `not-json`} {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.Login(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want %d", body, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestLogin_ExchangeFailed_Returns401(t *testing.T) {
	service := &mockAuthService{
		loginFunc: func(ctx context.Context, code string) (*auth.LoginResult, error) {
			return nil, auth.ErrExchangeFailed
		},
	}
	h := NewAuthHandler(service, AuthHandlerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"code":"already-used"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if body.Code != "AUTH_EXCHANGE_FAILED" {
		t.Errorf("code = %q, want %q", body.Code, "AUTH_EXCHANGE_FAILED")
	}

	// 失敗時にCookieが設定されないこと
	if cookie := findSessionCookie(t, rec); cookie != nil {
		t.Error("session cookie should not be set on failure")
	}
}

func TestLogin_StoreUnavailable_Returns503(t *testing.T) {
	service := &mockAuthService{
		loginFunc: func(ctx context.Context, code string) (*auth.LoginResult, error) {
			return nil, auth.ErrStoreUnavailable
		},
	}
	h := NewAuthHandler(service, AuthHandlerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"code":"abc123"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestWhoami_NoCookie_Returns401(t *testing.T) {
	service := &mockAuthService{
		authenticateFunc: func(ctx context.Context, token string) (*model.Athlete, error) {
			t.Error("Authenticate should not be called without a cookie")
			return nil, nil
		},
	}
	h := NewAuthHandler(service, AuthHandlerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/auth/whoami", nil)
	rec := httptest.NewRecorder()
	h.Whoami(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestWhoami_ValidSession_ReturnsAthlete(t *testing.T) {
	service := &mockAuthService{
		authenticateFunc: func(ctx context.Context, token string) (*model.Athlete, error) {
			if token != "valid-token" {
				t.Errorf("token = %q, want %q", token, "valid-token")
			}
			return &model.Athlete{ID: 42, Firstname: "Jane", Lastname: "Doe"}, nil
		},
	}
	h := NewAuthHandler(service, AuthHandlerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/auth/whoami", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "valid-token"})
	rec := httptest.NewRecorder()
	h.Whoami(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["athlete_id"] != float64(42) {
		t.Errorf("athlete_id = %v, want 42", body["athlete_id"])
	}
	if body["lastname"] != "Doe" {
		t.Errorf("lastname = %v, want %q", body["lastname"], "Doe")
	}
}

func TestWhoami_InvalidSession_Returns401(t *testing.T) {
	service := &mockAuthService{
		authenticateFunc: func(ctx context.Context, token string) (*model.Athlete, error) {
			return nil, auth.ErrUnauthorized
		},
	}
	h := NewAuthHandler(service, AuthHandlerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/auth/whoami", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "garbage"})
	rec := httptest.NewRecorder()
	h.Whoami(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestWhoami_StoreUnavailable_Returns503(t *testing.T) {
	service := &mockAuthService{
		authenticateFunc: func(ctx context.Context, token string) (*model.Athlete, error) {
			return nil, auth.ErrStoreUnavailable
		},
	}
	h := NewAuthHandler(service, AuthHandlerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/auth/whoami", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "valid-token"})
	rec := httptest.NewRecorder()
	h.Whoami(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

// LogoutがCookieを失効させることを検証する。
func TestLogout_ClearsCookie(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, AuthHandlerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	cookie := findSessionCookie(t, rec)
	if cookie == nil {
		t.Fatal("expired session cookie should be set")
	}
	if cookie.Value != "" {
		t.Errorf("cookie value = %q, want empty", cookie.Value)
	}
	if cookie.MaxAge >= 0 {
		t.Errorf("cookie MaxAge = %d, want negative", cookie.MaxAge)
	}
}

// Package strava はStrava APIとのOAuthトークン交換とデータ取得を提供する。
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTokenURL      = "https://www.strava.com/oauth/token"
	defaultAthleteURL    = "https://www.strava.com/api/v3/athlete"
	defaultActivitiesURL = "https://www.strava.com/api/v3/athlete/activities"
)

// ClientConfig はStravaクライアントの設定。
type ClientConfig struct {
	ClientID     string
	ClientSecret string

	// テスト用にオーバーライド可能なURL
	TokenURL      string
	AthleteURL    string
	ActivitiesURL string

	// 外部呼び出しのタイムアウト。0の場合は10秒。
	Timeout time.Duration
}

// Client はStravaのトークンエンドポイントとREST APIを呼び出すクライアント。
type Client struct {
	config     ClientConfig
	httpClient *http.Client
}

// NewClient はClientを生成する。
func NewClient(config ClientConfig) *Client {
	if config.TokenURL == "" {
		config.TokenURL = defaultTokenURL
	}
	if config.AthleteURL == "" {
		config.AthleteURL = defaultAthleteURL
	}
	if config.ActivitiesURL == "" {
		config.ActivitiesURL = defaultActivitiesURL
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// Credential はStravaが発行したトークン3点セットを表す。
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// AthleteProfile はStravaのアスリートエンドポイントが返す識別情報。
type AthleteProfile struct {
	ID        int64
	Firstname string
	Lastname  string
}

// TokenRefresher はリフレッシュトークンによる認証情報の再取得能力を表す。
// 自動リフレッシュフローは現時点では組み込まない。将来拡張用の分離点。
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*Credential, error)
}

// stravaTokenResponse はStravaのトークンエンドポイントのレスポンス。
// expires_atはunix秒。
type stravaTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	ExpiresIn    int64  `json:"expires_in"`
}

// stravaAthlete はStravaのアスリートエンドポイントのレスポンス。
type stravaAthlete struct {
	ID        int64  `json:"id"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

// ExchangeCode は認可コードをトークン3点セットに交換する。
// 認可コードは使い捨てのため、失敗しても再試行しない。
func (c *Client) ExchangeCode(ctx context.Context, code string) (*Credential, error) {
	data := url.Values{
		"client_id":     {c.config.ClientID},
		"client_secret": {c.config.ClientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
	}
	return c.requestToken(ctx, data)
}

// Refresh はリフレッシュトークンで新しいトークン3点セットを取得する。
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Credential, error) {
	data := url.Values{
		"client_id":     {c.config.ClientID},
		"client_secret": {c.config.ClientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	}
	return c.requestToken(ctx, data)
}

// requestToken はトークンエンドポイントを呼び出し、レスポンスを検証する。
func (c *Client) requestToken(ctx context.Context, data url.Values) (*Credential, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp stravaTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if tokenResp.AccessToken == "" || tokenResp.RefreshToken == "" {
		return nil, fmt.Errorf("token response missing tokens")
	}

	expiresAt := time.Unix(tokenResp.ExpiresAt, 0)
	if tokenResp.ExpiresAt == 0 {
		// expires_atを返さない実装へのフォールバック
		expiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	}

	return &Credential{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

// FetchAthlete はアクセストークンで認証中アスリートの識別情報を取得する。
// 交換直後にアスリートIDと表示名を知るために使用する。
func (c *Client) FetchAthlete(ctx context.Context, accessToken string) (*AthleteProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.AthleteURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create athlete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("athlete request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read athlete response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("athlete fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var athlete stravaAthlete
	if err := json.Unmarshal(body, &athlete); err != nil {
		return nil, fmt.Errorf("failed to parse athlete response: %w", err)
	}

	if athlete.ID == 0 {
		return nil, fmt.Errorf("empty athlete id in response")
	}

	return &AthleteProfile{
		ID:        athlete.ID,
		Firstname: athlete.Firstname,
		Lastname:  athlete.Lastname,
	}, nil
}

// compile-time interface check
var _ TokenRefresher = (*Client)(nil)

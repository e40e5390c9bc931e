// Package session は署名付きセッショントークンの発行と検証を提供する。
//
// セッショントークンのペイロードはathlete_idとfirstnameのみで、
// プロバイダのaccess_token/refresh_tokenは意図的に含めない。
// トークンが漏洩してもStrava APIへの直接アクセスには使えない。
package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken は署名不正・形式不正・期限切れのトークンを表す。
// 種別を問わず検証失敗はこのエラーに正規化する。
var ErrInvalidToken = errors.New("invalid session token")

// Claims はセッショントークンのペイロード。
type Claims struct {
	AthleteID int64  `json:"athlete_id"`
	Firstname string `json:"firstname"`
	jwt.RegisteredClaims
}

// Manager はセッショントークンの発行と検証を行う。
// 署名鍵は構築時に注入する。鍵をローテーションすると
// 発行済みの全セッションが無効になる（許容済みの挙動）。
type Manager struct {
	secret []byte
	ttl    time.Duration

	// テスト用に差し替え可能な現在時刻関数
	now func() time.Time
}

// NewManager はManagerを生成する。
// ttlはトークンの有効期間。
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue はathleteIDとfirstnameのみを含む署名付きトークンを発行する。
func (m *Manager) Issue(athleteID int64, firstname string) (string, error) {
	now := m.now()
	claims := &Claims{
		AthleteID: athleteID,
		Firstname: firstname,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(athleteID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, nil
}

// Verify はトークンの署名と有効期限を検証し、ペイロードを返す。
// 署名不正・形式不正・期限切れ・HMAC以外の署名方式はすべてErrInvalidToken。
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		// 署名方式のすり替え（alg=none等）を拒否する
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.AthleteID == 0 {
		return nil, fmt.Errorf("%w: missing athlete_id claim", ErrInvalidToken)
	}

	return claims, nil
}

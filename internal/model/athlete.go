// Package model はドメインモデルを定義する。
package model

import "time"

// Athlete はStravaアスリートと、そのアスリートに紐づく
// 最新のプロバイダ認証情報を表す。
// IDはStravaが割り当てるアスリートIDで、作成後は不変。
// トークン3点セット（access/refresh/expiry）はログインのたびに上書きされ、
// 履歴は保持しない。
type Athlete struct {
	ID             int64
	Firstname      string
	Lastname       string
	FirstLoginAt   time.Time
	LastLoginAt    time.Time
	AccessToken    string
	RefreshToken   string
	TokenExpiresAt time.Time
}

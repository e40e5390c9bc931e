// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/runsum/internal/model"
)

// UpsertAthleteParams はログイン成功時にアスリートへ反映する値の組。
type UpsertAthleteParams struct {
	ID             int64
	Firstname      string
	Lastname       string
	AccessToken    string
	RefreshToken   string
	TokenExpiresAt time.Time
}

// AthleteRepository はアスリートデータの永続化インターフェース。
// アスリート行の作成・更新はログインフローのUpsertのみが行う。
// 削除パスは現行スコープでは定義しない。
type AthleteRepository interface {
	// Get は指定IDのアスリートを取得する。見つからない場合はnilを返す。
	Get(ctx context.Context, id int64) (*model.Athlete, error)

	// Upsert はアスリート行を原子的に作成または更新する。
	// 行が存在しない場合はfirst_login_at = last_login_at = now()で作成し、
	// 存在する場合は名前とトークン3点セットを上書きしてlast_login_atのみ更新する。
	// first_login_atは作成後に変更されない。
	// 同一IDへの並行Upsertは単一文の実行として直列化され、部分更新は発生しない。
	Upsert(ctx context.Context, params UpsertAthleteParams) (*model.Athlete, error)
}

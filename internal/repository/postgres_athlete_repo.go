package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/runsum/internal/model"
)

// PostgresAthleteRepo はPostgreSQLを使用したアスリートリポジトリ。
type PostgresAthleteRepo struct {
	db *sql.DB
}

// NewPostgresAthleteRepo はPostgresAthleteRepoを生成する。
func NewPostgresAthleteRepo(db *sql.DB) *PostgresAthleteRepo {
	return &PostgresAthleteRepo{db: db}
}

// Get は指定IDのアスリートを取得する。見つからない場合はnilを返す。
func (r *PostgresAthleteRepo) Get(ctx context.Context, id int64) (*model.Athlete, error) {
	athlete := &model.Athlete{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, firstname, lastname, first_login_at, last_login_at,
		        access_token, refresh_token, token_expires_at
		 FROM athletes WHERE id = $1`,
		id,
	).Scan(
		&athlete.ID, &athlete.Firstname, &athlete.Lastname,
		&athlete.FirstLoginAt, &athlete.LastLoginAt,
		&athlete.AccessToken, &athlete.RefreshToken, &athlete.TokenExpiresAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get athlete: %w", err)
	}

	return athlete, nil
}

// Upsert はアスリート行を原子的に作成または更新する。
// 読み取り後書き込みの競合を避けるため、単一のINSERT ... ON CONFLICT文で行う。
// 同一IDへの並行呼び出しは行ロックで直列化され、
// 格納される行は必ずどちらか一方の呼び出しの値で構成される。
func (r *PostgresAthleteRepo) Upsert(ctx context.Context, params UpsertAthleteParams) (*model.Athlete, error) {
	athlete := &model.Athlete{}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO athletes (
		    id, firstname, lastname, first_login_at, last_login_at,
		    access_token, refresh_token, token_expires_at
		 )
		 VALUES ($1, $2, $3, now(), now(), $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
		    firstname        = EXCLUDED.firstname,
		    lastname         = EXCLUDED.lastname,
		    access_token     = EXCLUDED.access_token,
		    refresh_token    = EXCLUDED.refresh_token,
		    token_expires_at = EXCLUDED.token_expires_at,
		    last_login_at    = now()
		 RETURNING id, firstname, lastname, first_login_at, last_login_at,
		           access_token, refresh_token, token_expires_at`,
		params.ID, params.Firstname, params.Lastname,
		params.AccessToken, params.RefreshToken, params.TokenExpiresAt,
	).Scan(
		&athlete.ID, &athlete.Firstname, &athlete.Lastname,
		&athlete.FirstLoginAt, &athlete.LastLoginAt,
		&athlete.AccessToken, &athlete.RefreshToken, &athlete.TokenExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert athlete: %w", err)
	}

	return athlete, nil
}

// compile-time interface check
var _ AthleteRepository = (*PostgresAthleteRepo)(nil)

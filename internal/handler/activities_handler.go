package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/runsum/internal/middleware"
	"github.com/hitoshi/runsum/internal/model"
	"github.com/hitoshi/runsum/internal/strava"
)

// ActivityLister はアクティビティ一覧取得のインターフェース。
// strava.Clientの部分集合として定義する。
type ActivityLister interface {
	ListActivities(ctx context.Context, accessToken string, after, before time.Time) ([]strava.Activity, error)
}

// ActivitiesHandler はアクティビティ取得のHTTPハンドラー。
// セッションミドルウェアが解決したプロバイダ認証情報を使って
// Strava APIを呼び出す。
type ActivitiesHandler struct {
	lister ActivityLister
}

// NewActivitiesHandler はActivitiesHandlerを生成する。
func NewActivitiesHandler(lister ActivityLister) *ActivitiesHandler {
	return &ActivitiesHandler{lister: lister}
}

// activitiesResponse はアクティビティ一覧のレスポンスボディ。
type activitiesResponse struct {
	Success    bool              `json:"success"`
	Count      int               `json:"count"`
	Activities []strava.Activity `json:"activities"`
}

// ListActivities は認証済みアスリートのアクティビティ一覧を返す。
// GET /activities?after=...&before=...
// after/beforeはunix秒またはRFC 3339。省略可。
func (h *ActivitiesHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	athlete, err := middleware.AthleteFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	after, err := parseTimeParam(r.URL.Query().Get("after"))
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("after must be unix seconds or RFC 3339"))
		return
	}
	before, err := parseTimeParam(r.URL.Query().Get("before"))
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("before must be unix seconds or RFC 3339"))
		return
	}

	activities, err := h.lister.ListActivities(r.Context(), athlete.AccessToken, after, before)
	if err != nil {
		slog.Error("failed to list activities",
			slog.Int64("athlete_id", athlete.ID),
			slog.String("error", err.Error()),
		)
		middleware.WriteErrorResponse(w, http.StatusBadGateway, model.NewActivityFetchFailedError())
		return
	}

	if activities == nil {
		activities = []strava.Activity{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(activitiesResponse{
		Success:    true,
		Count:      len(activities),
		Activities: activities,
	})
}

// parseTimeParam はunix秒またはRFC 3339の時刻パラメータを解析する。
// 空文字列はゼロ値を返す。
func parseTimeParam(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if unix, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Unix(unix, 0), nil
	}
	return time.Parse(time.RFC3339, v)
}

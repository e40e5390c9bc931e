package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// activitiesPerPage はアクティビティ一覧の1ページあたりの最大取得件数。
// Strava APIの上限は200。
const activitiesPerPage = 200

// Activity はStravaのアクティビティ一覧エンドポイントが返す1件分のサマリー。
type Activity struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	Distance       float64   `json:"distance"`
	MovingTime     int64     `json:"moving_time"`
	ElapsedTime    int64     `json:"elapsed_time"`
	StartDateLocal time.Time `json:"start_date_local"`
}

// ListActivities は認証中アスリートのアクティビティ一覧を取得する。
// after/beforeはゼロ値の場合にクエリから省略する。
// トークン解決後のプロバイダデータ呼び出しであり、結果の加工は行わない。
func (c *Client) ListActivities(ctx context.Context, accessToken string, after, before time.Time) ([]Activity, error) {
	params := url.Values{
		"per_page": {strconv.Itoa(activitiesPerPage)},
	}
	if !after.IsZero() {
		params.Set("after", strconv.FormatInt(after.Unix(), 10))
	}
	if !before.IsZero() {
		params.Set("before", strconv.FormatInt(before.Unix(), 10))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.ActivitiesURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create activities request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("activities request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read activities response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("activities fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var activities []Activity
	if err := json.Unmarshal(body, &activities); err != nil {
		return nil, fmt.Errorf("failed to parse activities response: %w", err)
	}

	return activities, nil
}

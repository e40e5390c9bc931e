package strava

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestListActivities_Success(t *testing.T) {
	after := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	activitiesServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok1" {
			t.Errorf("unexpected Authorization header: %q", got)
		}

		q := r.URL.Query()
		if got := q.Get("after"); got != "1751328000" {
			t.Errorf("after = %q, want %q", got, "1751328000")
		}
		if got := q.Get("before"); got != "1754006400" {
			t.Errorf("before = %q, want %q", got, "1754006400")
		}
		if got := q.Get("per_page"); got != "200" {
			t.Errorf("per_page = %q, want %q", got, "200")
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{
				"id":               1001,
				"name":             "Morning Run",
				"type":             "Run",
				"distance":         5012.3,
				"moving_time":      1800,
				"elapsed_time":     1900,
				"start_date_local": "2025-07-15T06:30:00Z",
			},
			{
				"id":               1002,
				"name":             "Evening Ride",
				"type":             "Ride",
				"distance":         20345.0,
				"moving_time":      3600,
				"elapsed_time":     3700,
				"start_date_local": "2025-07-16T18:00:00Z",
			},
		})
	}))
	defer activitiesServer.Close()

	client := NewClient(ClientConfig{ActivitiesURL: activitiesServer.URL})

	activities, err := client.ListActivities(context.Background(), "tok1", after, before)
	if err != nil {
		t.Fatalf("ListActivities returned error: %v", err)
	}

	if len(activities) != 2 {
		t.Fatalf("len(activities) = %d, want %d", len(activities), 2)
	}
	if activities[0].Name != "Morning Run" {
		t.Errorf("activities[0].Name = %q, want %q", activities[0].Name, "Morning Run")
	}
	if activities[0].Distance != 5012.3 {
		t.Errorf("activities[0].Distance = %f, want %f", activities[0].Distance, 5012.3)
	}
	if activities[1].Type != "Ride" {
		t.Errorf("activities[1].Type = %q, want %q", activities[1].Type, "Ride")
	}
}

// after/beforeがゼロ値の場合はクエリパラメータに含めないことを検証する。
func TestListActivities_OmitsZeroTimeParams(t *testing.T) {
	activitiesServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Has("after") {
			t.Error("after should be omitted for zero time")
		}
		if q.Has("before") {
			t.Error("before should be omitted for zero time")
		}
		json.NewEncoder(w).Encode([]map[string]interface{}{})
	}))
	defer activitiesServer.Close()

	client := NewClient(ClientConfig{ActivitiesURL: activitiesServer.URL})

	activities, err := client.ListActivities(context.Background(), "tok1", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("ListActivities returned error: %v", err)
	}
	if len(activities) != 0 {
		t.Errorf("len(activities) = %d, want 0", len(activities))
	}
}

func TestListActivities_ProviderError_ReturnsError(t *testing.T) {
	activitiesServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "Authorization Error"})
	}))
	defer activitiesServer.Close()

	client := NewClient(ClientConfig{ActivitiesURL: activitiesServer.URL})

	if _, err := client.ListActivities(context.Background(), "expired-token", time.Time{}, time.Time{}); err == nil {
		t.Fatal("expected error for provider rejection")
	}
}

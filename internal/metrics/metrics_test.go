package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_LoginCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(registry)

	c.RecordLoginSuccess()
	c.RecordLoginSuccess()
	c.RecordLoginFailure("exchange")
	c.RecordLoginFailure("exchange")
	c.RecordLoginFailure("store")

	if got := testutil.ToFloat64(c.loginSuccess); got != 2 {
		t.Errorf("login success = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.loginFail.WithLabelValues("exchange")); got != 2 {
		t.Errorf("login fail (exchange) = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.loginFail.WithLabelValues("store")); got != 1 {
		t.Errorf("login fail (store) = %v, want 1", got)
	}
}

func TestCollector_HTTPStatus(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(registry)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(401)

	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("200")); got != 2 {
		t.Errorf("http status 200 = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("401")); got != 1 {
		t.Errorf("http status 401 = %v, want 1", got)
	}
}

func TestHandler_ExposesMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(registry)

	c.RecordLoginSuccess()
	c.RecordRequestLatency(150 * time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler(registry).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	body := rec.Body.String()
	for _, name := range []string{
		"runsum_login_success_total",
		"runsum_request_latency_seconds",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output should contain %q", name)
		}
	}
}

// 同一レジストリへの二重登録はpanicするため、Collectorは1プロセスに1つ。
func TestNewCollector_DuplicateRegistrationPanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewCollector(registry)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewCollector(registry)
}

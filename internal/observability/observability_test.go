package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.IncBarterCreated("seed")
	m.IncMessageSent(true)
	m.IncTokenRefresh("ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("nil handler: want=%d got=%d", http.StatusServiceUnavailable, rec.Code)
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.ObserveAPI("POST", "/barters/create", "201", 20*time.Millisecond)
	m.IncBarterCreated("seed")
	m.IncTokenRefresh("expired")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`gb_api_requests_total{method="POST",route="/barters/create",status="201"} 1`,
		`gb_barters_created_total{barter_type="seed"} 1`,
		`gb_token_refresh_total{outcome="expired"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("exposition missing %q", want)
		}
	}
}

func TestParseHeaders(t *testing.T) {
	h := ParseHeaders(" a=1, bad ,b = 2,=x")
	if len(h) != 2 || h["a"] != "1" || h["b"] != "2" {
		t.Fatalf("ParseHeaders: got=%v", h)
	}
	if ParseHeaders("") != nil {
		t.Fatalf("ParseHeaders(empty): want nil")
	}
}

package observability_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"travel_booking/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record samples so the vectors show up in the output
	observability.ObserveHTTP("/api/hotels", "GET", 200, 12*time.Millisecond)
	observability.ObserveStore("hotels", "list", nil)
	observability.ObserveStore("rent_cars", "create", errors.New("boom"))
	observability.ObserveImageUpload("hotels", "ok")

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, want := range []string{
		"booking_http_requests_total",
		`booking_store_operations_total{collection="rent_cars",op="create",outcome="error"}`,
		`booking_image_uploads_total{collection="hotels",outcome="ok"}`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in output", want)
		}
	}
}

func TestNewLogger_Level(t *testing.T) {
	if got := observability.NewLogger("prod", "warn").GetLevel(); got != zerolog.WarnLevel {
		t.Fatalf("level: got %s", got)
	}
	// unknown level falls back to info
	if got := observability.NewLogger("dev", "loud").GetLevel(); got != zerolog.InfoLevel {
		t.Fatalf("fallback level: got %s", got)
	}
}

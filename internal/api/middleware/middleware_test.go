package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRequestID_Generated(t *testing.T) {
	var seen string
	handler := RequestID(slog.Default())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images", nil))

	if seen == "" {
		t.Fatal("request id не попал в контекст")
	}
	if got := rec.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("%s = %q, ожидалось %q", RequestIDHeader, got, seen)
	}
}

func TestRequestID_FromHeader(t *testing.T) {
	var seen string
	handler := RequestID(slog.Default())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/images", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "req-42" {
		t.Errorf("request id = %q, ожидалось req-42", seen)
	}
}

func TestRequestLogger_LevelByStatus(t *testing.T) {
	tests := []struct {
		status    int
		wantLevel string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusNotFound, "level=WARN"},
		{http.StatusInternalServerError, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			handler := RequestID(logger)(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body"))
			})))

			req := httptest.NewRequest(http.MethodPost, "/upload", nil)
			req.Header.Set(RequestIDHeader, "abc")
			handler.ServeHTTP(httptest.NewRecorder(), req)

			out := buf.String()
			if !strings.Contains(out, tt.wantLevel) {
				t.Errorf("ожидался %s в логе: %s", tt.wantLevel, out)
			}
			if !strings.Contains(out, "request_id=abc") {
				t.Errorf("нет request_id в логе: %s", out)
			}
			if !strings.Contains(out, "bytes=4") {
				t.Errorf("нет размера ответа в логе: %s", out)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/upload":       "/upload",
		"/images":       "/images",
		"/health/live":  "/health/live",
		"/health/ready": "/health/ready",
		"/metrics":      "/metrics",
		"/":             "other",
		"/wp-login.php": "other",
		"/images/extra": "other",
	}
	for in, want := range tests {
		if got := normalizePath(in); got != want {
			t.Errorf("normalizePath(%q) = %q, ожидалось %q", in, got, want)
		}
	}
}

func TestMetricsMiddleware_CountsRequests(t *testing.T) {
	handler := MetricsMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	counter := httpRequestsTotal.WithLabelValues(http.MethodDelete, "other", "418")
	before := testutil.ToFloat64(counter)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/random/path", nil))

	if after := testutil.ToFloat64(counter); after != before+1 {
		t.Errorf("счётчик = %v, ожидалось %v", after, before+1)
	}
}

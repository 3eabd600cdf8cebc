// metrics.go — Prometheus метрики pin-catalog.
// HTTP: pc_http_requests_total, pc_http_request_duration_seconds.
// Бизнес-метрики экспортируются для обновления из сервисного слоя.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pc_http_requests_total",
			Help: "Общее количество HTTP-запросов к pin-catalog",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pc_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к pin-catalog в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Бизнес-метрики
var (
	// UploadsTotal — результаты загрузок (success, input_error, pin_failed, persist_failed).
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pc_uploads_total",
			Help: "Количество загрузок по результату",
		},
		[]string{"result"},
	)

	// PinDuration — длительность вызова сервиса закрепления.
	PinDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pc_pin_duration_seconds",
			Help:    "Длительность закрепления контента в секундах",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"backend", "result"},
	)

	// CatalogRecords — число записей в последнем построенном каталоге.
	CatalogRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pc_catalog_records",
			Help: "Количество записей в последнем ответе каталога",
		},
	)

	// CatalogSkippedTotal — пропущенные при чтении каталога записи (missing, corrupt, error).
	CatalogSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pc_catalog_skipped_total",
			Help: "Количество записей, пропущенных при построении каталога",
		},
		[]string{"reason"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath сводит путь к одному из известных маршрутов.
// Все прочие пути отвечают 404 и схлопываются в "other",
// иначе сканеры раздули бы кардинальность метрик.
func normalizePath(path string) string {
	switch path {
	case "/upload", "/images", "/health/live", "/health/ready", "/metrics":
		return path
	}
	return "other"
}

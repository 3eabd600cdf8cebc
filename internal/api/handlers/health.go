// health.go — обработчики health endpoints для Kubernetes probes.
// /health/live — процесс жив
// /health/ready — хранилище метаданных отвечает, состояние внешних зависимостей
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/bigkaa/goartstore/pin-catalog/internal/config"
)

// statusFail — строковая константа для статуса "fail" в health checks.
const statusFail = "fail"

// readyTimeout — предел проверки хранилища в readiness probe.
const readyTimeout = 2 * time.Second

// StorePinger — проверка доступности хранилища метаданных.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// DependencyHealth — состояние внешних зависимостей (topologymetrics).
type DependencyHealth interface {
	Health() map[string]bool
}

// HealthHandler реализует /health/live и /health/ready.
type HealthHandler struct {
	version string
	store   StorePinger
	deps    DependencyHealth
}

// NewHealthHandler создаёт обработчик health endpoints.
// store и deps могут быть nil: бэкенд без Ping считается доступным,
// без deps зависимости не проверяются.
func NewHealthHandler(store StorePinger, deps DependencyHealth) *HealthHandler {
	return &HealthHandler{
		version: config.Version,
		store:   store,
		deps:    deps,
	}
}

// HealthLive обрабатывает GET /health/live. Зависимости не проверяются.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"service":   "pin-catalog",
	})
}

// HealthReady обрабатывает GET /health/ready.
// Недоступное хранилище — fail (503). Недоступная внешняя зависимость —
// degraded (200): каталог остаётся читаемым без сервиса закрепления.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	overallStatus := "ok"
	httpStatus := http.StatusOK

	storeCheck := h.checkStore(r.Context())
	if storeCheck["status"] != "ok" {
		overallStatus = statusFail
		httpStatus = http.StatusServiceUnavailable
	}

	checks := map[string]any{
		"store": storeCheck,
	}

	if h.deps != nil {
		depsCheck := map[string]any{}
		for name, ok := range h.deps.Health() {
			if ok {
				depsCheck[name] = "ok"
				continue
			}
			depsCheck[name] = statusFail
			if overallStatus != statusFail {
				overallStatus = "degraded"
			}
		}
		checks["dependencies"] = depsCheck
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"service":   "pin-catalog",
		"checks":    checks,
	})
}

// checkStore пингует хранилище метаданных.
func (h *HealthHandler) checkStore(ctx context.Context) map[string]any {
	if h.store == nil {
		return map[string]any{
			"status":  "ok",
			"message": "Проверка не поддерживается бэкендом",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		return map[string]any{
			"status":  statusFail,
			"message": "Хранилище метаданных недоступно: " + err.Error(),
		}
	}
	return map[string]any{
		"status": "ok",
	}
}

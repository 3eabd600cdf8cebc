// handler.go — APIHandler собирает доменные handlers в один объект,
// маршруты к которому раздаёт server.Routes.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// APIHandler — единая реализация server.API.
type APIHandler struct {
	upload      *UploadHandler
	catalog     *CatalogHandler
	health      *HealthHandler
	promHandler http.Handler
}

// NewAPIHandler создаёт единый handler для всех endpoints.
func NewAPIHandler(upload *UploadHandler, catalog *CatalogHandler, health *HealthHandler) *APIHandler {
	return &APIHandler{
		upload:      upload,
		catalog:     catalog,
		health:      health,
		promHandler: promhttp.Handler(),
	}
}

// --- Catalog ---

func (h *APIHandler) Upload(w http.ResponseWriter, r *http.Request) {
	h.upload.Upload(w, r)
}

func (h *APIHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	h.catalog.ListImages(w, r)
}

// --- Health ---

func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики.
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}

// writeJSON записывает JSON-ответ.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// images.go — GET /images: каталог целиком, новые записи сверху.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/goartstore/pin-catalog/internal/api/errors"
	"github.com/bigkaa/goartstore/pin-catalog/internal/domain/model"
)

// CatalogLister — источник каталога.
type CatalogLister interface {
	ListAll(ctx context.Context) ([]model.CatalogRecord, error)
}

// CatalogHandler — обработчик каталога.
type CatalogHandler struct {
	lister CatalogLister
	logger *slog.Logger
}

// NewCatalogHandler создаёт обработчик каталога.
func NewCatalogHandler(lister CatalogLister, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		lister: lister,
		logger: logger.With(slog.String("component", "catalog_handler")),
	}
}

// ListImages обрабатывает GET /images. Пустой каталог — [].
func (h *CatalogHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	records, err := h.lister.ListAll(r.Context())
	if err != nil {
		h.logger.Error("Ошибка чтения каталога", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Не удалось прочитать каталог")
		return
	}
	if records == nil {
		records = []model.CatalogRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// upload.go — POST /upload: multipart-поле file → UploadService.Submit.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/goartstore/pin-catalog/internal/api/errors"
	"github.com/bigkaa/goartstore/pin-catalog/internal/domain/model"
	"github.com/bigkaa/goartstore/pin-catalog/internal/service"
)

const (
	// formField — имя поля multipart с файлом
	formField = "file"
	// multipartMemory — часть формы, удерживаемая в памяти; остальное во временных файлах
	multipartMemory = 32 << 20
	// multipartOverhead — запас на заголовки частей и boundary сверх лимита файла
	multipartOverhead = 1 << 20
)

// Uploader — конвейер загрузки.
type Uploader interface {
	Submit(ctx context.Context, params service.UploadParams) (*model.CatalogRecord, *service.UploadError)
}

// UploadHandler — обработчик загрузки.
type UploadHandler struct {
	uploader    Uploader
	maxFileSize int64
	logger      *slog.Logger
}

// NewUploadHandler создаёт обработчик загрузки.
func NewUploadHandler(uploader Uploader, maxFileSize int64, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		uploader:    uploader,
		maxFileSize: maxFileSize,
		logger:      logger.With(slog.String("component", "upload_handler")),
	}
}

// uploadResponse — тело успешного ответа POST /upload.
type uploadResponse struct {
	Success     bool   `json:"success"`
	CID         string `json:"cid"`
	ResourceURL string `json:"resourceUrl"`
	FileName    string `json:"fileName"`
}

// Upload обрабатывает POST /upload.
// Отсутствие поля file передаётся в конвейер как пустая загрузка:
// проверку входа выполняет UploadService.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	limit := h.maxFileSize + multipartOverhead
	if r.ContentLength > limit {
		apierrors.FileTooLarge(w, fmt.Sprintf("Размер запроса превышает максимум %d байт", h.maxFileSize))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apierrors.FileTooLarge(w, fmt.Sprintf("Размер запроса превышает максимум %d байт", h.maxFileSize))
			return
		}
		apierrors.ValidationError(w, "Ожидается multipart/form-data с полем file: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	params := service.UploadParams{Size: -1}

	file, header, err := r.FormFile(formField)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		// пустая загрузка, ответ сформирует конвейер
	case err != nil:
		apierrors.ValidationError(w, "Ошибка чтения поля file: "+err.Error())
		return
	default:
		defer file.Close()
		params.Payload, err = io.ReadAll(file)
		if err != nil {
			h.logger.Warn("Ошибка чтения загружаемого файла", slog.String("error", err.Error()))
			apierrors.ValidationError(w, "Ошибка чтения файла: "+err.Error())
			return
		}
		params.FileName = header.Filename
		params.MimeType = header.Header.Get("Content-Type")
		params.Size = header.Size
	}

	record, uerr := h.uploader.Submit(r.Context(), params)
	if uerr != nil {
		writeUploadError(w, uerr)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Success:     true,
		CID:         record.ContentID,
		ResourceURL: record.ResourceURL,
		FileName:    record.FileName,
	})
}

// writeUploadError переводит ошибку конвейера в HTTP-ответ.
func writeUploadError(w http.ResponseWriter, uerr *service.UploadError) {
	switch uerr.Kind {
	case service.KindPin:
		apierrors.PinFailed(w, uerr.Message)
	case service.KindPersist:
		apierrors.PersistFailed(w, uerr.Message, uerr.CID)
	default:
		apierrors.WriteError(w, uerr.StatusCode, uerr.Code, uerr.Message)
	}
}

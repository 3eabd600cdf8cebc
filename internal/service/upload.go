// Пакет service — бизнес-логика pin-catalog.
// upload.go — конвейер загрузки: закрепление → сборка записи → сохранение.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	apierrors "github.com/bigkaa/goartstore/pin-catalog/internal/api/errors"
	"github.com/bigkaa/goartstore/pin-catalog/internal/api/middleware"
	"github.com/bigkaa/goartstore/pin-catalog/internal/config"
	"github.com/bigkaa/goartstore/pin-catalog/internal/domain/model"
	"github.com/bigkaa/goartstore/pin-catalog/internal/pinning"
	"github.com/bigkaa/goartstore/pin-catalog/internal/storage/metastore"
)

// Kind — категория ошибки загрузки.
type Kind string

const (
	// KindInput — некорректный запрос клиента (нет файла, слишком большой)
	KindInput Kind = "input"
	// KindPin — сервис закрепления не вернул CID
	KindPin Kind = "pin"
	// KindPersist — контент закреплён, но запись не сохранена
	KindPersist Kind = "persist"
)

// UploadParams — параметры загрузки.
type UploadParams struct {
	// Payload — содержимое файла целиком
	Payload []byte
	// FileName — имя файла от клиента (не проверяется)
	FileName string
	// MimeType — заявленный Content-Type части multipart
	MimeType string
	// Size — заявленный размер; <= 0 заменяется фактической длиной Payload
	Size int64
}

// UploadError — ошибка загрузки с HTTP-кодом.
// Для KindPersist поле CID заполнено: контент уже доступен в сети.
type UploadError struct {
	Kind       Kind
	StatusCode int
	Code       string
	Message    string
	CID        string
	Err        error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// UploadService — конвейер загрузки.
type UploadService struct {
	pinner        pinning.Client
	store         metastore.Store
	gatewayDomain string
	maxFileSize   int64
	pinBackend    string
	clock         func() time.Time
	logger        *slog.Logger
}

// NewUploadService создаёт сервис загрузки.
func NewUploadService(
	cfg *config.Config,
	pinner pinning.Client,
	store metastore.Store,
	logger *slog.Logger,
) *UploadService {
	return &UploadService{
		pinner:        pinner,
		store:         store,
		gatewayDomain: cfg.GatewayDomain,
		maxFileSize:   cfg.MaxFileSize,
		pinBackend:    cfg.PinBackend,
		clock:         time.Now,
		logger:        logger.With(slog.String("component", "upload_service")),
	}
}

// Submit загружает файл.
//
// Поток:
//  1. Проверка входа (файл передан, размер в пределах лимита)
//  2. Pin — CID выдаёт сервис закрепления
//  3. Сборка записи каталога (время — момент начала сохранения)
//  4. Put по ключу CID
//
// Повторов нет. При ошибке сохранения закрепление не отменяется.
func (s *UploadService) Submit(ctx context.Context, params UploadParams) (*model.CatalogRecord, *UploadError) {
	logger := requestLogger(ctx, s.logger)

	// 1. Проверка входа
	if len(params.Payload) == 0 {
		middleware.UploadsTotal.WithLabelValues("input_error").Inc()
		return nil, &UploadError{
			Kind:       KindInput,
			StatusCode: http.StatusBadRequest,
			Code:       apierrors.CodeValidationError,
			Message:    "Файл не передан или пуст",
		}
	}
	if int64(len(params.Payload)) > s.maxFileSize {
		middleware.UploadsTotal.WithLabelValues("input_error").Inc()
		return nil, &UploadError{
			Kind:       KindInput,
			StatusCode: http.StatusRequestEntityTooLarge,
			Code:       apierrors.CodeFileTooLarge,
			Message:    fmt.Sprintf("Размер файла %d байт превышает максимум %d байт", len(params.Payload), s.maxFileSize),
		}
	}

	size := params.Size
	if size <= 0 {
		size = int64(len(params.Payload))
	}
	// имя и тип сохраняются как заявлены клиентом
	fileName := params.FileName
	mimeType := params.MimeType

	// 2. Закрепление
	start := time.Now()
	contentID, err := s.pinner.Pin(ctx, params.Payload, model.PinContentType(mimeType))
	pinResult := "success"
	if err != nil {
		pinResult = string(pinning.KindOf(err))
		if pinResult == "" {
			pinResult = "error"
		}
	}
	middleware.PinDuration.WithLabelValues(s.pinBackend, pinResult).Observe(time.Since(start).Seconds())

	if err != nil {
		middleware.UploadsTotal.WithLabelValues("pin_failed").Inc()
		message := err.Error()
		var pinErr *pinning.Error
		if errors.As(err, &pinErr) && pinErr.Message != "" {
			message = pinErr.Message
		}
		logger.Warn("Ошибка закрепления контента",
			slog.String("filename", fileName),
			slog.Int("size", len(params.Payload)),
			slog.String("error", err.Error()),
		)
		return nil, &UploadError{
			Kind:       KindPin,
			StatusCode: http.StatusInternalServerError,
			Code:       apierrors.CodePinFailed,
			Message:    message,
			Err:        err,
		}
	}

	// 3. Сборка записи
	record := model.NewRecord(contentID, fileName, mimeType, size, s.clock(), s.gatewayDomain)

	// 4. Сохранение
	data, err := record.Encode()
	if err == nil {
		err = s.store.Put(ctx, contentID, data)
	}
	if err != nil {
		middleware.UploadsTotal.WithLabelValues("persist_failed").Inc()
		logger.Error("Контент закреплён, но запись каталога не сохранена",
			slog.String("cid", contentID),
			slog.String("filename", fileName),
			slog.String("error", err.Error()),
		)
		return nil, &UploadError{
			Kind:       KindPersist,
			StatusCode: http.StatusInternalServerError,
			Code:       apierrors.CodePersistFailed,
			Message:    fmt.Sprintf("Контент закреплён (cid %s), но запись каталога не сохранена", contentID),
			CID:        contentID,
			Err:        err,
		}
	}

	middleware.UploadsTotal.WithLabelValues("success").Inc()
	logger.Info("Файл загружен",
		slog.String("cid", contentID),
		slog.String("filename", fileName),
		slog.Int64("size", size),
		slog.String("mime_type", mimeType),
		slog.Time("uploaded_at", record.UploadedAt()),
	)

	return record, nil
}

// requestLogger добавляет request_id запроса к логгеру компонента.
func requestLogger(ctx context.Context, base *slog.Logger) *slog.Logger {
	if id := middleware.GetRequestID(ctx); id != "" {
		return base.With(slog.String("request_id", id))
	}
	return base
}

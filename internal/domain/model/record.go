// Пакет model — доменные модели pin-catalog.
// CatalogRecord — единая структура записи каталога: используется как
// формат значения в хранилище метаданных и как элемент ответа GET /images.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrCorruptRecord — значение в хранилище не удалось разобрать как запись каталога.
var ErrCorruptRecord = errors.New("повреждённая запись каталога")

// DefaultMimeType — Content-Type запроса к сервису закрепления, если клиент его не указал.
const DefaultMimeType = "application/octet-stream"

// CatalogRecord — метаданные одного закреплённого (pinned) файла.
// Ключ в хранилище всегда равен ContentID. Записи неизменяемы:
// повторная загрузка тех же байтов перезаписывает запись целиком.
type CatalogRecord struct {
	// ContentID — CID, выданный сервисом закрепления
	ContentID string `json:"cid"`

	// FileName — исходное имя файла (недоверенное, хранится как есть)
	FileName string `json:"fileName"`

	// UploadedAtMillis — момент начала сохранения, Unix-время в миллисекундах
	UploadedAtMillis int64 `json:"uploadedAt"`

	// SizeBytes — размер загрузки, заявленный клиентом
	SizeBytes int64 `json:"size"`

	// MimeType — заявленный клиентом тип содержимого (не проверяется)
	MimeType string `json:"mimeType"`

	// ResourceURL — производный URL шлюза, вычисляется из ContentID
	ResourceURL string `json:"resourceUrl"`
}

// ResourceURL строит URL ресурса по фиксированному шаблону
// https://{cid}.{gatewayDomain}.
func ResourceURL(gatewayDomain, contentID string) string {
	return fmt.Sprintf("https://%s.%s", contentID, strings.Trim(gatewayDomain, "./"))
}

// NewRecord собирает запись каталога после успешного закрепления.
func NewRecord(contentID, fileName, mimeType string, size int64, now time.Time, gatewayDomain string) *CatalogRecord {
	return &CatalogRecord{
		ContentID:        contentID,
		FileName:         fileName,
		UploadedAtMillis: now.UnixMilli(),
		SizeBytes:        size,
		MimeType:         mimeType,
		ResourceURL:      ResourceURL(gatewayDomain, contentID),
	}
}

// UploadedAt возвращает время загрузки в UTC.
func (r *CatalogRecord) UploadedAt() time.Time {
	return time.UnixMilli(r.UploadedAtMillis).UTC()
}

// Encode сериализует запись для хранилища метаданных.
func (r *CatalogRecord) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("сериализация записи %s: %w", r.ContentID, err)
	}
	return data, nil
}

// DecodeRecord разбирает значение из хранилища.
// key — ключ, под которым значение лежит в хранилище; он обязан совпадать с cid.
// ResourceURL пересчитывается из cid: сохранённое значение не является источником истины.
// Любая ошибка оборачивает ErrCorruptRecord.
func DecodeRecord(key string, data []byte, gatewayDomain string) (*CatalogRecord, error) {
	var rec CatalogRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: ключ %s: %v", ErrCorruptRecord, key, err)
	}
	if rec.ContentID == "" {
		return nil, fmt.Errorf("%w: ключ %s: пустой cid", ErrCorruptRecord, key)
	}
	if rec.ContentID != key {
		return nil, fmt.Errorf("%w: ключ %s не совпадает с cid %s", ErrCorruptRecord, key, rec.ContentID)
	}
	if rec.SizeBytes < 0 {
		return nil, fmt.Errorf("%w: ключ %s: отрицательный размер %d", ErrCorruptRecord, key, rec.SizeBytes)
	}

	rec.ResourceURL = ResourceURL(gatewayDomain, rec.ContentID)
	return &rec, nil
}

// PinContentType возвращает Content-Type для запроса к сервису закрепления.
// Пустой заявленный тип заменяется на application/octet-stream.
// В запись каталога попадает заявленное значение без изменений.
func PinContentType(declared string) string {
	if strings.TrimSpace(declared) == "" {
		return DefaultMimeType
	}
	return declared
}

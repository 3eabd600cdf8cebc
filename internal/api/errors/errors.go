// Пакет errors — ответы с ошибками pin-catalog.
// Единый формат: {"error": "...", "code": "..."} и дополнительные поля
// (например, cid при ошибке сохранения записи).
// Все HTTP-ответы с ошибками должны использовать WriteError.
package errors //nolint:revive // конфликт имени со stdlib, импортируется как apierrors

import (
	"encoding/json"
	"net/http"
)

// Машиночитаемые коды ошибок.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeFileTooLarge    = "FILE_TOO_LARGE"
	CodePinFailed       = "PIN_FAILED"
	CodePersistFailed   = "PERSIST_FAILED"
	CodeInternalError   = "INTERNAL_ERROR"
)

// WriteError записывает ответ ошибки.
// extra — дополнительные поля тела; ключи error и code не перезаписываются.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, extra ...map[string]string) {
	body := map[string]string{}
	for _, m := range extra {
		for k, v := range m {
			body[k] = v
		}
	}
	body["error"] = message
	body["code"] = code

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// NotFound — 404 маршрут или ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// FileTooLarge — 413 файл превышает лимит.
func FileTooLarge(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusRequestEntityTooLarge, CodeFileTooLarge, message)
}

// PinFailed — 500 сервис закрепления не вернул CID.
func PinFailed(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodePinFailed, message)
}

// PersistFailed — 500 контент закреплён, но запись каталога не сохранена.
// cid возвращается клиенту: контент доступен в сети, но не попал в каталог.
func PersistFailed(w http.ResponseWriter, message, cid string) {
	WriteError(w, http.StatusInternalServerError, CodePersistFailed, message, map[string]string{"cid": cid})
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}

// Пакет pinning — клиенты сервисов закрепления (pinning) контента в IPFS.
//
// Client принимает байты и возвращает CID либо *Error одного из трёх видов:
// транспортная ошибка, отказ удалённого сервиса с сообщением,
// некорректный ответ (нет ожидаемого поля или CID не разбирается).
package pinning

import (
	"context"
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
)

// Kind — вид ошибки закрепления.
type Kind string

const (
	// KindTransport — сеть/транспорт: запрос не дошёл или ответ не прочитан
	KindTransport Kind = "transport"
	// KindRejected — сервис ответил ошибкой (non-2xx или ok=false)
	KindRejected Kind = "rejected"
	// KindMalformed — успешный ответ неожиданной формы
	KindMalformed Kind = "malformed"
)

// Error — типизированная ошибка закрепления.
// Message — текст для клиента (сообщение сервиса, если оно было).
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("pinning %s (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("pinning %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Client — сервис закрепления контента.
type Client interface {
	// Pin закрепляет payload и возвращает его CID.
	Pin(ctx context.Context, payload []byte, mimeType string) (string, error)
}

// KindOf возвращает вид ошибки закрепления или "" для прочих ошибок.
func KindOf(err error) Kind {
	var pinErr *Error
	if errors.As(err, &pinErr) {
		return pinErr.Kind
	}
	return ""
}

// validateCID проверяет, что строка — корректный CID (v0 или v1).
// Возвращает исходную строку без нормализации: CIDv0 остаётся в base58.
func validateCID(raw string) (string, *Error) {
	if raw == "" {
		return "", &Error{Kind: KindMalformed, Message: "в ответе сервиса закрепления нет CID"}
	}
	if _, err := cid.Decode(raw); err != nil {
		return "", &Error{
			Kind:    KindMalformed,
			Message: fmt.Sprintf("сервис закрепления вернул некорректный CID %q", raw),
			Err:     err,
		}
	}
	return raw, nil
}

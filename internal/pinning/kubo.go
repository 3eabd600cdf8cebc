package pinning

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	shell "github.com/ipfs/go-ipfs-api"
)

// KuboClient закрепляет контент через HTTP API собственного узла Kubo
// (/api/v0/add с pin=true).
type KuboClient struct {
	sh     *shell.Shell
	logger *slog.Logger
}

// NewKuboClient создаёт клиент узла Kubo.
// apiURL — адрес API узла, например http://127.0.0.1:5001.
func NewKuboClient(apiURL string, timeout time.Duration, logger *slog.Logger) *KuboClient {
	sh := shell.NewShell(apiURL)
	sh.SetTimeout(timeout)

	return &KuboClient{
		sh:     sh,
		logger: logger.With(slog.String("component", "pinning_kubo")),
	}
}

// Pin добавляет payload в узел с закреплением и возвращает CIDv1.
// go-ipfs-api не принимает context в Add: отмена проверяется до отправки,
// время запроса ограничено таймаутом shell.
func (c *KuboClient) Pin(ctx context.Context, payload []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &Error{Kind: KindTransport, Message: "запрос отменён", Err: err}
	}

	hash, err := c.sh.Add(bytes.NewReader(payload),
		shell.Pin(true),
		shell.CidVersion(1),
	)
	if err != nil {
		var shErr *shell.Error
		if errors.As(err, &shErr) {
			c.logger.Warn("Узел Kubo отклонил запрос",
				slog.String("command", shErr.Command),
				slog.String("message", shErr.Message),
			)
			return "", &Error{Kind: KindRejected, Message: shErr.Message, Err: err}
		}
		return "", &Error{
			Kind:    KindTransport,
			Message: fmt.Sprintf("узел Kubo недоступен: %v", err),
			Err:     err,
		}
	}

	contentID, pinErr := validateCID(hash)
	if pinErr != nil {
		return "", pinErr
	}

	c.logger.Debug("Контент закреплён в Kubo",
		slog.String("cid", contentID),
		slog.Int("size", len(payload)),
	)
	return contentID, nil
}

var _ Client = (*KuboClient)(nil)

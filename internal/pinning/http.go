package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// maxResponseBody — предел чтения тела ответа сервиса закрепления.
const maxResponseBody = 1 << 20

// maxRawMessage — сколько сырого тела ответа попадает в сообщение об ошибке.
const maxRawMessage = 512

// HTTPClient — клиент HTTP-сервиса закрепления в стиле nft.storage / web3.storage:
// POST {endpoint} с сырым телом и Bearer-токеном.
//
// Формы успешного ответа:
//
//	{"ok":true,"value":{"cid":"bafy..."}}
//	{"cid":"bafy..."}
//
// Формы ошибки: {"ok":false,"error":{"name":"...","message":"..."}},
// {"error":"..."}, {"message":"..."} или произвольный текст.
type HTTPClient struct {
	httpClient *http.Client
	endpoint   string
	token      string
	logger     *slog.Logger
}

// NewHTTPClient создаёт клиент HTTP-сервиса закрепления.
// timeout — таймаут HTTP-клиента (PC_PIN_TIMEOUT).
func NewHTTPClient(endpoint, token string, timeout time.Duration, logger *slog.Logger) *HTTPClient {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: 10,
	}

	return &HTTPClient{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		endpoint: endpoint,
		token:    token,
		logger:   logger.With(slog.String("component", "pinning_http")),
	}
}

// pinResponse — объединение известных форм ответа.
type pinResponse struct {
	OK    *bool  `json:"ok"`
	CID   string `json:"cid"`
	Value *struct {
		CID string `json:"cid"`
	} `json:"value"`
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

// Pin отправляет payload в сервис закрепления.
func (c *HTTPClient) Pin(ctx context.Context, payload []byte, mimeType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &Error{Kind: KindTransport, Message: "ошибка создания запроса к сервису закрепления", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if mimeType != "" {
		req.Header.Set("Content-Type", mimeType)
	}
	req.ContentLength = int64(len(payload))

	resp, err := c.httpClient.Do(req) //nolint:gosec // URL из конфигурации
	if err != nil {
		return "", &Error{
			Kind:    KindTransport,
			Message: fmt.Sprintf("сервис закрепления недоступен: %v", err),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", &Error{
			Kind:       KindTransport,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("ошибка чтения ответа сервиса закрепления: %v", err),
			Err:        err,
		}
	}

	var parsed pinResponse
	parseErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(&parsed, parseErr, body, resp.StatusCode)
		c.logger.Warn("Сервис закрепления отклонил запрос",
			slog.Int("status", resp.StatusCode),
			slog.String("message", msg),
		)
		return "", &Error{Kind: KindRejected, StatusCode: resp.StatusCode, Message: msg}
	}

	if parseErr != nil {
		return "", &Error{
			Kind:       KindMalformed,
			StatusCode: resp.StatusCode,
			Message:    "сервис закрепления вернул не-JSON ответ",
			Err:        parseErr,
		}
	}

	if parsed.OK != nil && !*parsed.OK {
		msg := errorMessage(&parsed, nil, body, resp.StatusCode)
		return "", &Error{Kind: KindRejected, StatusCode: resp.StatusCode, Message: msg}
	}

	raw := parsed.CID
	if parsed.Value != nil && parsed.Value.CID != "" {
		raw = parsed.Value.CID
	}
	contentID, pinErr := validateCID(raw)
	if pinErr != nil {
		pinErr.StatusCode = resp.StatusCode
		return "", pinErr
	}

	c.logger.Debug("Контент закреплён",
		slog.String("cid", contentID),
		slog.Int("size", len(payload)),
	)
	return contentID, nil
}

// errorMessage извлекает человекочитаемое сообщение из ответа с ошибкой.
func errorMessage(parsed *pinResponse, parseErr error, body []byte, status int) string {
	if parseErr == nil {
		if len(parsed.Error) > 0 {
			var obj struct {
				Name    string `json:"name"`
				Message string `json:"message"`
			}
			if err := json.Unmarshal(parsed.Error, &obj); err == nil && obj.Message != "" {
				return obj.Message
			}
			var str string
			if err := json.Unmarshal(parsed.Error, &str); err == nil && str != "" {
				return str
			}
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}

	raw := strings.TrimSpace(string(body))
	if raw != "" {
		if len(raw) > maxRawMessage {
			raw = raw[:maxRawMessage]
		}
		return raw
	}
	return http.StatusText(status)
}

var _ Client = (*HTTPClient)(nil)

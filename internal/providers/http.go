package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"bif_backend/internal/logger"
	"bif_backend/pkg/apperrors"
)

// maxResponseBody - ответы процессоров маленькие, больше читать незачем
const maxResponseBody = 1 << 20

// NewHTTPClient создает клиент с таймаутом на весь запрос
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

type requester struct {
	provider string
	client   *http.Client
}

// doJSON выполняет запрос и декодирует 2xx-ответ в out.
// Сетевые ошибки и не-2xx дают NetworkError, неразбираемое 2xx-тело дает InvalidResponse.
func (r *requester) doJSON(ctx context.Context, operation, method, url string, headers map[string]string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return apperrors.InternalError(fmt.Errorf("marshal %s payload: %w", r.provider, err))
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return apperrors.ErrNetwork(err, r.provider)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		logger.ProviderLog(r.provider, operation, url, 0, time.Since(start), err)
		return apperrors.ErrNetwork(err, r.provider)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		logger.ProviderLog(r.provider, operation, url, resp.StatusCode, time.Since(start), err)
		return apperrors.ErrNetwork(err, r.provider)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := fmt.Errorf("unexpected status %d", resp.StatusCode)
		logger.ProviderLog(r.provider, operation, url, resp.StatusCode, time.Since(start), statusErr)
		return apperrors.ErrNetwork(statusErr, r.provider).WithDetails(map[string]any{"status": resp.StatusCode})
	}

	if err := json.Unmarshal(raw, out); err != nil {
		logger.ProviderLog(r.provider, operation, url, resp.StatusCode, time.Since(start), err)
		return apperrors.ErrInvalidResponse(err, r.provider)
	}

	logger.ProviderLog(r.provider, operation, url, resp.StatusCode, time.Since(start), nil)
	return nil
}

// firstSuccessful пробует urls по порядку; attempt возвращает nil на первом корректном ответе.
// При одном пути отдается его ошибка, при нескольких - AllEndpointsFailed поверх последней.
func firstSuccessful(provider string, urls []string, attempt func(url string) error) error {
	var lastErr error
	for _, url := range urls {
		lastErr = attempt(url)
		if lastErr == nil {
			return nil
		}
	}
	if len(urls) <= 1 {
		return lastErr
	}
	return apperrors.ErrAllEndpointsFailed(lastErr, provider)
}

// webhookPayload - общая форма вебхука Coinsnap/BTCPay; лишние поля игнорируются
type webhookPayload struct {
	InvoiceID string `json:"invoiceId"`
	Type      string `json:"type"`
}

// paidEventTypes - только эти типы событий считаются доказательством оплаты
var paidEventTypes = map[string]bool{
	"InvoiceSettled":  true,
	"PaymentReceived": true,
	"InvoicePaid":     true,
	"Settled":         true,
}

func parseWebhook(provider string, raw []byte) (*WebhookResult, error) {
	var payload webhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, apperrors.ErrInvalidResponse(err, provider)
	}
	if payload.InvoiceID == "" {
		return nil, apperrors.ErrInvalidResponse(fmt.Errorf("webhook without invoiceId"), provider)
	}
	return &WebhookResult{
		InvoiceID: payload.InvoiceID,
		EventType: payload.Type,
		Paid:      paidEventTypes[payload.Type],
	}, nil
}

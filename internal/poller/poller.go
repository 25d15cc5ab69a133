// Package poller - клиентская сторона протокола ожидания оплаты:
// опрос /status раз в секунду и ручная проверка /verify-payment после 30-й попытки.
package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bif_backend/internal/logger"
	"bif_backend/internal/services/dto"
)

type Config struct {
	BaseURL     string
	Interval    time.Duration
	ErrorDelay  time.Duration
	MaxAttempts int
	VerifyAfter int
	MaxVerifies int
	HTTPClient  *http.Client
}

// DefaultConfig - те же значения, что у формы на сайте
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:     baseURL,
		Interval:    time.Second,
		ErrorDelay:  1500 * time.Millisecond,
		MaxAttempts: 60,
		VerifyAfter: 30,
		MaxVerifies: 3,
		HTTPClient:  &http.Client{Timeout: 20 * time.Second},
	}
}

// Result - итог ожидания. Paid=false без ошибки означает тихую остановку по лимиту попыток.
type Result struct {
	Paid       bool
	Status     string
	Attempts   int
	Verifies   int
	Errors     int
	VerifiedBy string // status или verify
}

type Watcher struct {
	cfg Config
}

func New(cfg Config) *Watcher {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 20 * time.Second}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Watcher{cfg: cfg}
}

type envelope struct {
	Success bool                      `json:"success"`
	Data    dto.PaymentStatusResponse `json:"data"`
	Message string                    `json:"message"`
}

// Watch опрашивает статус инвойса до оплаты, исчерпания попыток или отмены ctx
func (w *Watcher) Watch(ctx context.Context, invoiceID string) (*Result, error) {
	res := &Result{}
	escaped := url.PathEscape(invoiceID)

	for res.Attempts < w.cfg.MaxAttempts {
		res.Attempts++

		status, err := w.call(ctx, http.MethodGet, "/status/"+escaped)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Errors++
			logger.Debug("Status check failed", "invoice_id", invoiceID, "attempt", res.Attempts, "error", err)
			if res.Attempts >= w.cfg.MaxAttempts {
				break
			}
			if err := sleep(ctx, w.cfg.ErrorDelay); err != nil {
				return res, err
			}
			continue
		}

		res.Status = status.Status
		if status.Paid {
			res.Paid = true
			res.VerifiedBy = "status"
			return res, nil
		}

		if res.Attempts > w.cfg.VerifyAfter && res.Verifies < w.cfg.MaxVerifies {
			res.Verifies++
			verified, err := w.call(ctx, http.MethodPost, "/verify-payment/"+escaped)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return res, ctx.Err()
				}
				res.Errors++
				logger.Debug("Manual verification failed", "invoice_id", invoiceID, "attempt", res.Verifies, "error", err)
			case verified.Paid:
				res.Paid = true
				res.Status = verified.Status
				res.VerifiedBy = "verify"
				return res, nil
			}
		}

		if res.Attempts >= w.cfg.MaxAttempts {
			break
		}
		if err := sleep(ctx, w.cfg.Interval); err != nil {
			return res, err
		}
	}

	logger.Debug("Max polling attempts reached", "invoice_id", invoiceID, "attempts", res.Attempts)
	return res, nil
}

func (w *Watcher) call(ctx context.Context, method, path string) (*dto.PaymentStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, w.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := w.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body envelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !body.Success {
		return nil, fmt.Errorf("request failed: %s", body.Message)
	}
	return &body.Data, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

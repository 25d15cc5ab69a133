// Package providers реализует клиентов внешних платежных процессоров (Coinsnap, BTCPay)
// с единым контрактом: создание инвойса, проверка статуса, разбор и подпись вебхука.
package providers

import (
	"context"
	"net/http"
	"time"

	"bif_backend/internal/models"
)

// DefaultTimeout - ограничение на любой исходящий вызов к процессору
const DefaultTimeout = 20 * time.Second

// Client - контракт одного процессора
type Client interface {
	Name() models.ProviderName

	// SupportsCurrency проверяется до любого сетевого вызова
	SupportsCurrency(currency models.Currency) bool

	// CreateInvoice делает ровно один логический вызов создания (с фолбэками путей, если они есть).
	// Ошибки: MissingCredentials, UnsupportedCurrency, NetworkError, InvalidResponse.
	CreateInvoice(ctx context.Context, req InvoiceRequest) (*CreatedInvoice, error)

	// CheckStatus пробует основной путь, затем запасные, и возвращает первый корректный ответ.
	// Ошибки: MissingCredentials, NetworkError, InvalidResponse, AllEndpointsFailed.
	CheckStatus(ctx context.Context, invoiceID string) (*InvoiceStatus, error)

	// ParseWebhook не доверяет телу больше, чем нужно: только invoiceId и type.
	ParseWebhook(raw []byte) (*WebhookResult, error)

	// VerifySignature - HMAC-SHA256 по сырому телу; без секрета всегда false.
	VerifySignature(raw []byte, headers http.Header) bool
}

// Customer - метаданные покупателя, уходящие в процессор
type Customer struct {
	Name          string
	Email         string
	Company       string
	InvoiceNumber string
	Description   string
}

// InvoiceRequest - запрос на создание инвойса; сумма во внутренних minor units
type InvoiceRequest struct {
	FormID        uint64
	TransactionID string
	AmountMinor   int64
	Currency      models.Currency
	Customer      Customer
	RedirectURL   string
}

// CreatedInvoice - идентификатор процессора и ссылка на оплату
type CreatedInvoice struct {
	InvoiceID  string
	PaymentURL string
}

// InvoiceStatus - статус в терминах процессора
type InvoiceStatus struct {
	InvoiceID string
	Paid      bool
	RawStatus string
}

// WebhookResult - то, что ядро берет из тела вебхука
type WebhookResult struct {
	InvoiceID string
	EventType string
	Paid      bool
}

// paidStatuses - статусы инвойса, означающие оплату (одинаковы для обоих процессоров)
var paidStatuses = map[string]bool{
	"Settled":  true,
	"Paid":     true,
	"Complete": true,
}

// IsPaidStatus - общий для обоих процессоров набор статусов оплаты
func IsPaidStatus(status string) bool {
	return paidStatuses[status]
}

package dto

import "time"

type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AdminLoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type TransactionResponse struct {
	ID               string     `json:"id"`
	FormID           uint64     `json:"form_id"`
	TransactionID    string     `json:"transaction_id"`
	InvoiceNumber    string     `json:"invoice_number"`
	CustomerName     string     `json:"customer_name"`
	CustomerEmail    string     `json:"customer_email"`
	CustomerCompany  string     `json:"customer_company,omitempty"`
	Amount           string     `json:"amount"`
	AmountMinor      int64      `json:"amount_minor"`
	Currency         string     `json:"currency"`
	Description      string     `json:"description,omitempty"`
	PaymentProvider  string     `json:"payment_provider"`
	PaymentInvoiceID string     `json:"payment_invoice_id"`
	PaymentStatus    string     `json:"payment_status"`
	PaymentURL       string     `json:"payment_url"`
	IP               string     `json:"ip,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
}

type TransactionListResponse struct {
	Items      []TransactionResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

type TransactionStatsResponse struct {
	ByStatus map[string]int64 `json:"by_status"`
	Total    int64            `json:"total"`
}

type ExportResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Rows      int       `json:"rows"`
	CreatedAt time.Time `json:"created_at"`
}

// WebhookEventCriteria - фильтр журнала вебхуков
type WebhookEventCriteria struct {
	Provider string `form:"provider" validate:"omitempty,is-provider"`
	Limit    int    `form:"limit" validate:"omitempty,min=1,max=500"`
}

type WebhookEventResponse struct {
	ID               uint64    `json:"id"`
	Provider         string    `json:"provider"`
	EventType        string    `json:"event_type"`
	PaymentInvoiceID string    `json:"payment_invoice_id"`
	SignatureValid   bool      `json:"signature_valid"`
	Outcome          string    `json:"outcome"`
	ProcessingError  string    `json:"processing_error,omitempty"`
	ReceivedAt       time.Time `json:"received_at"`
}

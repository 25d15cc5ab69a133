package dto

// CreateInvoiceRequest - тело POST /payment/create.
// Amount и Currency опциональны: при пустых значениях берутся из формы и глобальных настроек.
type CreateInvoiceRequest struct {
	FormID        uint64 `json:"form_id" form:"form_id" validate:"required,min=1"`
	Amount        string `json:"amount" form:"amount" validate:"omitempty,is-amount"`
	Currency      string `json:"currency" form:"currency" validate:"omitempty,is-currency"`
	Name          string `json:"name" form:"name" validate:"required,max=190"`
	Email         string `json:"email" form:"email" validate:"required,email,max=190"`
	Company       string `json:"company" form:"company" validate:"max=190"`
	InvoiceNumber string `json:"invoice_number" form:"invoice_number" validate:"max=190"`
	Description   string `json:"description" form:"description" validate:"max=2000"`
}

// ClientMeta - данные запроса, которые сохраняются вместе с инвойсом
type ClientMeta struct {
	IP        string
	UserAgent string
}

type CreateInvoiceResponse struct {
	TransactionID   string `json:"transaction_id"`
	InvoiceID       string `json:"invoice_id"`
	PaymentURL      string `json:"payment_url"`
	Amount          string `json:"amount"`
	AmountMinor     int64  `json:"amount_minor"`
	Currency        string `json:"currency"`
	Description     string `json:"description"`
	Provider        string `json:"provider"`
	SuccessPage     string `json:"success_page"`
	ThankYouMessage string `json:"thank_you_message"`
}

// PaymentStatusResponse - общий ответ status и verify-payment
type PaymentStatusResponse struct {
	InvoiceID string `json:"invoice_id"`
	Paid      bool   `json:"paid"`
	Status    string `json:"status"`
}

// WebhookResponse - ответ процессору; HTTP-код всегда 200
type WebhookResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

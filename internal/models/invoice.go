package models

import "time"

// Invoice - одна попытка оплаты, связана 1:1 с инвойсом процессора через PaymentInvoiceID
type Invoice struct {
	BaseModel
	FormID           uint64        `gorm:"not null;index" json:"form_id"`
	TransactionID    string        `gorm:"type:varchar(190);not null;uniqueIndex" json:"transaction_id"`
	InvoiceNumber    string        `gorm:"type:varchar(190);index" json:"invoice_number"`
	CustomerName     string        `gorm:"type:varchar(190);not null" json:"customer_name"`
	CustomerEmail    string        `gorm:"type:varchar(190);not null;index" json:"customer_email"`
	CustomerCompany  string        `gorm:"type:varchar(190)" json:"customer_company"`
	Amount           int64         `gorm:"not null" json:"amount"`
	Currency         Currency      `gorm:"type:varchar(10);not null" json:"currency"`
	Description      string        `gorm:"type:text" json:"description"`
	PaymentProvider  ProviderName  `gorm:"type:varchar(50);not null;index" json:"payment_provider"`
	PaymentInvoiceID string        `gorm:"type:varchar(190);not null;uniqueIndex" json:"payment_invoice_id"`
	PaymentStatus    PaymentStatus `gorm:"type:varchar(20);not null;default:unpaid;index" json:"payment_status"`
	PaymentURL       string        `gorm:"type:text" json:"payment_url"`
	IP               string        `gorm:"type:varchar(64)" json:"ip"`
	UserAgent        string        `gorm:"type:text" json:"user_agent"`
	PaidAt           *time.Time    `json:"paid_at,omitempty"`
}

func (Invoice) TableName() string {
	return "bif_invoices"
}

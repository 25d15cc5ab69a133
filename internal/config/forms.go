package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// FormConfig - описание формы инвойса (в исходной системе хранилось в CMS)
type FormConfig struct {
	ID               uint64 `yaml:"id"`
	Title            string `yaml:"title"`
	Type             string `yaml:"type"`
	ProviderOverride string `yaml:"provider_override"`
	Amount           string `yaml:"amount"`
	Currency         string `yaml:"currency"`
	Description      string `yaml:"description"`

	Discount struct {
		Enabled bool   `yaml:"enabled"`
		Type    string `yaml:"type"` // fixed | percent
		Value   string `yaml:"value"`
		Notice  string `yaml:"notice"`
	} `yaml:"discount"`

	Redirect struct {
		SuccessPage     string `yaml:"success_page"`
		ErrorPage       string `yaml:"error_page"`
		ThankYouMessage string `yaml:"thank_you_message"`
	} `yaml:"redirect"`

	Email struct {
		AdminEmail string `yaml:"admin_email"`
		Subject    string `yaml:"subject"`
		Template   string `yaml:"template"`
	} `yaml:"email"`

	CustomerEmail struct {
		Enabled  bool   `yaml:"enabled"`
		Subject  string `yaml:"subject"`
		Template string `yaml:"template"`
	} `yaml:"customer_email"`
}

const (
	FormTypeInvoice       = "bif_invoice_form"
	FormTypeLegacyInvoice = "coinsnap_invoice_form"
)

// DefaultAdminSubject и DefaultAdminTemplate - письмо администратору, если форма его не задает
const DefaultAdminSubject = "New Invoice Payment Received"

const DefaultAdminTemplate = `A new invoice payment has been received:

Invoice Number: {invoice_number}
Customer: {customer_name}
Email: {customer_email}
Amount: {amount} {currency}
Payment Status: {payment_status}

Payment Details:
Transaction ID: {transaction_id}
Payment Provider: {payment_provider}

Description: {description}`

const defaultCustomerTemplate = `Hello {customer_name},

Thank you for your payment. Here are the details of your receipt:

Invoice Number: {invoice_number}
Amount Paid: {amount} {currency}
Payment Status: {payment_status}

Description: {description}

Transaction ID: {transaction_id}
Payment Provider: {payment_provider}

If you have any questions, reply to this email.

Best regards,
{site_name}`

func (f *FormConfig) applyDefaults() {
	if f.Type == "" {
		f.Type = FormTypeInvoice
	}
	if f.Currency == "" {
		f.Currency = "USD"
	}
	if f.Discount.Type == "" {
		f.Discount.Type = "fixed"
	}
	if f.Redirect.ThankYouMessage == "" {
		f.Redirect.ThankYouMessage = "Thank you! Your payment has been processed successfully."
	}
	if f.Email.Subject == "" {
		f.Email.Subject = DefaultAdminSubject
	}
	if f.Email.Template == "" {
		f.Email.Template = DefaultAdminTemplate
	}
	if f.CustomerEmail.Subject == "" {
		f.CustomerEmail.Subject = "Your payment receipt for invoice {invoice_number}"
	}
	if f.CustomerEmail.Template == "" {
		f.CustomerEmail.Template = defaultCustomerTemplate
	}
}

// LoadForms читает отдельный YAML со списком форм (для режима env)
func LoadForms(path string) ([]FormConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var wrapper struct {
		Forms []FormConfig `yaml:"forms"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to parse forms: %w", err)
	}
	for i := range wrapper.Forms {
		wrapper.Forms[i].applyDefaults()
	}
	return wrapper.Forms, nil
}

package notify

import (
	"context"
	"fmt"
	"strings"

	"bif_backend/internal/config"
	"bif_backend/internal/email"
	"bif_backend/internal/logger"
	"bif_backend/internal/services/pricing"
)

const (
	templateAdminSubject = "admin_subject"
	templateAdminBody    = "admin_body"
)

// EmailNotifier шлет письмо администратору и, если включено в форме, чек покупателю
type EmailNotifier struct {
	provider   email.Provider
	templates  email.TemplateRenderer
	adminEmail string
	siteName   string
}

func NewEmailNotifier(provider email.Provider, adminEmail, siteName string) *EmailNotifier {
	templates := email.NewTemplateManager()
	for name, tpl := range map[string]string{
		templateAdminSubject: config.DefaultAdminSubject,
		templateAdminBody:    config.DefaultAdminTemplate,
	} {
		if err := templates.AddTemplate(name, tpl); err != nil {
			logger.Warn("Failed to register email template", "template", name, "error", err)
		}
	}
	return &EmailNotifier{provider: provider, templates: templates, adminEmail: adminEmail, siteName: siteName}
}

func (n *EmailNotifier) Name() string { return "email" }

func (n *EmailNotifier) InvoicePaid(ctx context.Context, event PaidEvent) error {
	data := TemplateData(event, n.siteName)

	adminTo := n.adminEmail
	if event.Form != nil && event.Form.Email.AdminEmail != "" {
		adminTo = event.Form.Email.AdminEmail
	}

	var errs []string
	if adminTo != "" {
		subject, body, err := n.adminMessage(event.Form, data)
		if err == nil {
			err = n.provider.Send(&email.Email{
				To:      []string{adminTo},
				ReplyTo: event.Invoice.CustomerEmail,
				Subject: subject,
				Body:    body,
			})
		}
		if err != nil {
			errs = append(errs, "admin: "+err.Error())
		}
	}

	if event.Form != nil && event.Form.CustomerEmail.Enabled && event.Invoice.CustomerEmail != "" {
		err := n.provider.Send(&email.Email{
			To:      []string{event.Invoice.CustomerEmail},
			Subject: email.RenderString(event.Form.CustomerEmail.Subject, data),
			Body:    email.RenderString(event.Form.CustomerEmail.Template, data),
		})
		if err != nil {
			errs = append(errs, "customer: "+err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("email notification: %s", strings.Join(errs, "; "))
	}
	return nil
}

// adminMessage берет шаблон формы, а для удаленной из конфигурации формы - шаблон по умолчанию
func (n *EmailNotifier) adminMessage(form *config.FormConfig, data email.TemplateData) (string, string, error) {
	if form != nil && form.Email.Template != "" {
		subject := form.Email.Subject
		if subject == "" {
			subject = config.DefaultAdminSubject
		}
		return email.RenderString(subject, data), email.RenderString(form.Email.Template, data), nil
	}

	subject, err := n.templates.Render(templateAdminSubject, data)
	if err != nil {
		return "", "", err
	}
	body, err := n.templates.Render(templateAdminBody, data)
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}

// TemplateData - значения плейсхолдеров писем
func TemplateData(event PaidEvent, siteName string) email.TemplateData {
	inv := event.Invoice
	return email.TemplateData{
		"invoice_number":     inv.InvoiceNumber,
		"customer_name":      inv.CustomerName,
		"customer_email":     inv.CustomerEmail,
		"customer_company":   inv.CustomerCompany,
		"amount":             pricing.FormatMinor(inv.Amount, inv.Currency),
		"currency":           inv.Currency.String(),
		"payment_status":     string(inv.PaymentStatus),
		"transaction_id":     inv.TransactionID,
		"payment_provider":   string(inv.PaymentProvider),
		"payment_invoice_id": inv.PaymentInvoiceID,
		"description":        inv.Description,
		"site_name":          siteName,
	}
}

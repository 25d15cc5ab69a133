package handlers

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	PaymentHandler *PaymentHandler
	WebhookHandler *WebhookHandler
	FormHandler    *FormHandler
	AdminHandler   *AdminHandler
	HealthHandler  *HealthHandler
}

package email

// Provider определяет интерфейс для отправки email
type Provider interface {
	// Send отправляет сообщение; From по умолчанию берется из конфигурации провайдера
	Send(email *Email) error

	// Validate проверяет конфигурацию провайдера
	Validate() error
}

// TemplateRenderer подставляет данные в именованные шаблоны
type TemplateRenderer interface {
	Render(templateName string, data TemplateData) (string, error)
	AddTemplate(name string, template string) error
}

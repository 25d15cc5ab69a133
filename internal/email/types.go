package email

// Email - одно сообщение; Body - plain text, HTMLBody опционален
type Email struct {
	From     string
	FromName string
	To       []string
	Cc       []string
	ReplyTo  string
	Subject  string
	Body     string
	HTMLBody string
}

// TemplateData - значения для плейсхолдеров вида {invoice_number}
type TemplateData map[string]string

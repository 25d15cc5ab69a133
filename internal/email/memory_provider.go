package email

import (
	"sync"

	"bif_backend/internal/logger"
)

// MemoryProvider копит письма в памяти; используется когда SMTP выключен и в тестах
type MemoryProvider struct {
	mu   sync.Mutex
	sent []Email
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{}
}

func (p *MemoryProvider) Send(email *Email) error {
	p.mu.Lock()
	p.sent = append(p.sent, *email)
	p.mu.Unlock()
	logger.Debug("Email captured", "to", email.To, "subject", email.Subject)
	return nil
}

func (p *MemoryProvider) Validate() error { return nil }

// Sent возвращает копию отправленных писем
func (p *MemoryProvider) Sent() []Email {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Email, len(p.sent))
	copy(out, p.sent)
	return out
}

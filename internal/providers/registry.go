package providers

import (
	"fmt"
	"strings"

	"bif_backend/internal/config"
	"bif_backend/internal/models"
	"bif_backend/pkg/apperrors"
)

// Registry выбирает клиента по имени; без I/O
type Registry struct {
	clients  map[models.ProviderName]Client
	fallback models.ProviderName
}

// NewRegistry собирает оба процессора на общем http-клиенте
func NewRegistry(cfg config.ProvidersConfig) *Registry {
	httpClient := NewHTTPClient(cfg.Timeout)
	return NewRegistryWith(cfg.Default,
		NewCoinsnapClient(cfg.Coinsnap, httpClient),
		NewBTCPayClient(cfg.BTCPay, httpClient),
	)
}

// NewRegistryWith - для тестов и внешних клиентов
func NewRegistryWith(defaultName string, clients ...Client) *Registry {
	r := &Registry{clients: make(map[models.ProviderName]Client, len(clients))}
	var first models.ProviderName
	for _, c := range clients {
		if c == nil {
			continue
		}
		if first == "" {
			first = c.Name()
		}
		r.clients[c.Name()] = c
	}

	// по умолчанию: настроенный процессор, затем coinsnap, затем первый подключенный
	for _, name := range []models.ProviderName{normalize(defaultName), models.ProviderCoinsnap, first} {
		if _, ok := r.clients[name]; ok {
			r.fallback = name
			break
		}
	}
	return r
}

func normalize(name string) models.ProviderName {
	return models.ProviderName(strings.ToLower(strings.TrimSpace(name)))
}

// Resolve: непустой известный override формы важнее настройки по умолчанию.
// Неизвестные имена откатываются к процессору по умолчанию; nil только для пустого реестра.
func (r *Registry) Resolve(override string) Client {
	if c, ok := r.clients[normalize(override)]; ok {
		return c
	}
	return r.clients[r.fallback]
}

// ByName - строгий поиск; используется для вебхуков и сохраненных инвойсов
func (r *Registry) ByName(name string) (Client, error) {
	if c, ok := r.clients[normalize(name)]; ok {
		return c, nil
	}
	return nil, apperrors.NewBadRequestError(fmt.Sprintf("unknown payment provider %q", name))
}

// Names - список подключенных процессоров
func (r *Registry) Names() []models.ProviderName {
	names := make([]models.ProviderName, 0, len(r.clients))
	for _, p := range []models.ProviderName{models.ProviderCoinsnap, models.ProviderBTCPay} {
		if _, ok := r.clients[p]; ok {
			names = append(names, p)
		}
	}
	return names
}

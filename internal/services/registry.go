package services

import (
	"bif_backend/internal/cache"
	"bif_backend/internal/config"
	"bif_backend/internal/notify"
	"bif_backend/internal/providers"
	"bif_backend/internal/repositories"
	"bif_backend/internal/storage"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	FormService        FormService
	PaymentService     PaymentService
	TransactionService TransactionService
	AuthService        AuthService
	Registry           *providers.Registry
}

// Dependencies - внешние ресурсы, которые собирает app и передает в контейнер
type Dependencies struct {
	Registry    *providers.Registry
	Dispatcher  *notify.Dispatcher
	StatusCache cache.StatusCache
	Storage     storage.Storage
}

func NewServiceContainer(cfg *config.Config, deps Dependencies) *ServiceContainer {
	invoiceRepo := repositories.NewInvoiceRepository()
	eventRepo := repositories.NewWebhookEventRepository()

	registry := deps.Registry
	if registry == nil {
		registry = providers.NewRegistry(cfg.Providers)
	}

	formService := NewFormService(cfg, registry)
	paymentService := NewPaymentService(
		invoiceRepo,
		eventRepo,
		formService,
		registry,
		deps.Dispatcher,
		deps.StatusCache,
		PaymentSettingsFromConfig(cfg),
	)

	return &ServiceContainer{
		FormService:        formService,
		PaymentService:     paymentService,
		TransactionService: NewTransactionService(invoiceRepo, eventRepo, deps.Storage),
		AuthService:        NewAuthService(AuthSettingsFromConfig(cfg), formService),
		Registry:           registry,
	}
}

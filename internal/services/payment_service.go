package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bif_backend/internal/cache"
	"bif_backend/internal/config"
	"bif_backend/internal/logger"
	"bif_backend/internal/models"
	"bif_backend/internal/notify"
	"bif_backend/internal/providers"
	"bif_backend/internal/repositories"
	"bif_backend/internal/services/dto"
	"bif_backend/internal/services/pricing"
	"bif_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PaymentSettings - глобальные настройки, которые сервис читает на каждом запросе
type PaymentSettings struct {
	DefaultAmount              string
	DefaultCurrency            string
	DisableWebhookVerification bool
}

// PaymentSettingsFromConfig собирает настройки из конфигурации приложения
func PaymentSettingsFromConfig(cfg *config.Config) PaymentSettings {
	return PaymentSettings{
		DefaultAmount:              cfg.Payment.DefaultAmount,
		DefaultCurrency:            cfg.Payment.DefaultCurrency,
		DisableWebhookVerification: cfg.Providers.DisableWebhookVerification,
	}
}

// ApplyOutcome - результат применения ответа процессора к записи
type ApplyOutcome struct {
	Invoice      *models.Invoice
	Transitioned bool
	Status       models.PaymentStatus
}

// WebhookOutcome - итог обработки одной доставки вебхука
type WebhookOutcome struct {
	Outcome      models.WebhookOutcome
	InvoiceID    string
	EventType    string
	Paid         bool
	Transitioned bool
}

// ReconcileReport - сводка одного прохода сверки неоплаченных инвойсов
type ReconcileReport struct {
	Checked int
	Paid    int
	Failed  int
}

type PaymentService interface {
	CreateInvoice(ctx context.Context, db *gorm.DB, req *dto.CreateInvoiceRequest, meta dto.ClientMeta) (*dto.CreateInvoiceResponse, error)

	// ApplyPaymentResult - единственное место, где меняется payment_status
	ApplyPaymentResult(ctx context.Context, db *gorm.DB, paymentInvoiceID string, paid bool, source models.PaymentSource) (*ApplyOutcome, error)

	// CheckStatus принимает id процессора или transaction_id
	CheckStatus(ctx context.Context, db *gorm.DB, ref string, source models.PaymentSource) (*dto.PaymentStatusResponse, error)
	VerifyPayment(ctx context.Context, db *gorm.DB, ref string) (*dto.PaymentStatusResponse, error)

	HandleWebhook(ctx context.Context, db *gorm.DB, provider string, raw []byte, headers http.Header) (*WebhookOutcome, error)

	ReconcileUnpaid(ctx context.Context, db *gorm.DB, maxAge time.Duration, limit int) (*ReconcileReport, error)
}

type paymentService struct {
	invoiceRepo repositories.InvoiceRepository
	eventRepo   repositories.WebhookEventRepository
	forms       FormService
	registry    *providers.Registry
	dispatcher  *notify.Dispatcher
	statusCache cache.StatusCache
	settings    PaymentSettings
}

func NewPaymentService(
	invoiceRepo repositories.InvoiceRepository,
	eventRepo repositories.WebhookEventRepository,
	forms FormService,
	registry *providers.Registry,
	dispatcher *notify.Dispatcher,
	statusCache cache.StatusCache,
	settings PaymentSettings,
) PaymentService {
	if dispatcher == nil {
		dispatcher = notify.NewDispatcher()
	}
	if statusCache == nil {
		statusCache = cache.NewNoopStatusCache()
	}
	return &paymentService{
		invoiceRepo: invoiceRepo,
		eventRepo:   eventRepo,
		forms:       forms,
		registry:    registry,
		dispatcher:  dispatcher,
		statusCache: statusCache,
		settings:    settings,
	}
}

// ---------------- Invoice creation ----------------

func (s *paymentService) CreateInvoice(ctx context.Context, db *gorm.DB, req *dto.CreateInvoiceRequest, meta dto.ClientMeta) (*dto.CreateInvoiceResponse, error) {
	form, err := s.forms.GetForm(req.FormID)
	if err != nil {
		return nil, err
	}

	base, ok := pricing.ParseAmount(firstNonEmpty(
		strings.TrimSpace(req.Amount),
		strings.TrimSpace(form.Amount),
		strings.TrimSpace(s.settings.DefaultAmount),
	))
	if !ok || !base.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}

	rawCurrency := firstNonEmpty(
		strings.TrimSpace(req.Currency),
		strings.TrimSpace(form.Currency),
		strings.TrimSpace(s.settings.DefaultCurrency),
		string(models.CurrencyUSD),
	)
	currency, ok := models.ParseCurrency(rawCurrency)
	if !ok {
		return nil, apperrors.ErrUnsupportedCurrency(rawCurrency, "")
	}

	final := applyFormDiscount(base, form)
	amountMinor, ok := pricing.ToMinorUnits(final, currency)
	if !ok || amountMinor <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}

	client := s.registry.Resolve(form.ProviderOverride)
	if client == nil {
		return nil, apperrors.ErrMissingCredentials(firstNonEmpty(form.ProviderOverride, "default"))
	}
	transactionID := newTransactionID(time.Now())
	description := firstNonEmpty(strings.TrimSpace(req.Description), form.Description)

	ctx = logger.WithProvider(ctx, string(client.Name()))
	created, err := client.CreateInvoice(ctx, providers.InvoiceRequest{
		FormID:        form.ID,
		TransactionID: transactionID,
		AmountMinor:   amountMinor,
		Currency:      currency,
		Customer: providers.Customer{
			Name:          req.Name,
			Email:         req.Email,
			Company:       req.Company,
			InvoiceNumber: req.InvoiceNumber,
			Description:   description,
		},
		RedirectURL: form.Redirect.SuccessPage,
	})
	if err != nil {
		logger.CtxWithError(ctx, "Invoice creation failed at provider", err,
			"form_id", form.ID,
			"transaction_id", transactionID,
			"amount_minor", amountMinor,
			"currency", currency,
		)
		return nil, err
	}

	invoice := &models.Invoice{
		FormID:           form.ID,
		TransactionID:    transactionID,
		InvoiceNumber:    req.InvoiceNumber,
		CustomerName:     req.Name,
		CustomerEmail:    req.Email,
		CustomerCompany:  req.Company,
		Amount:           amountMinor,
		Currency:         currency,
		Description:      description,
		PaymentProvider:  client.Name(),
		PaymentInvoiceID: created.InvoiceID,
		PaymentStatus:    models.PaymentStatusUnpaid,
		PaymentURL:       created.PaymentURL,
		IP:               meta.IP,
		UserAgent:        meta.UserAgent,
	}

	if err := s.invoiceRepo.Create(db, invoice); err != nil {
		// Инвойс у процессора уже существует, без записи его можно найти только по логам
		logger.CtxError(ctx, "Failed to persist invoice after provider accepted it",
			"invoice_id", created.InvoiceID,
			"form_id", form.ID,
			"transaction_id", transactionID,
			"amount_minor", amountMinor,
			"currency", currency,
			"error", err,
		)
		return nil, apperrors.ErrPersistence(err)
	}

	logger.CtxInfo(ctx, "Invoice created",
		"invoice_id", created.InvoiceID,
		"transaction_id", transactionID,
		"form_id", form.ID,
	)

	return &dto.CreateInvoiceResponse{
		TransactionID:   transactionID,
		InvoiceID:       created.InvoiceID,
		PaymentURL:      created.PaymentURL,
		Amount:          pricing.FormatMinor(amountMinor, currency),
		AmountMinor:     amountMinor,
		Currency:        currency.String(),
		Description:     description,
		Provider:        string(client.Name()),
		SuccessPage:     form.Redirect.SuccessPage,
		ThankYouMessage: form.Redirect.ThankYouMessage,
	}, nil
}

// newTransactionID - bif_<unix>_<8 символов>
func newTransactionID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("bif_%d_%s", now.Unix(), suffix)
}

// ---------------- Status transitions ----------------

func (s *paymentService) ApplyPaymentResult(ctx context.Context, db *gorm.DB, paymentInvoiceID string, paid bool, source models.PaymentSource) (*ApplyOutcome, error) {
	current, err := s.findByPaymentInvoiceID(db, paymentInvoiceID)
	if err != nil {
		return nil, err
	}

	target := models.PaymentStatusFailed
	if paid {
		target = models.PaymentStatusPaid
	}

	// Недопустимый переход не пишем вовсе; гонку между допустимыми решает CAS в репозитории
	if !current.PaymentStatus.CanTransitionTo(target) {
		return &ApplyOutcome{Invoice: current, Status: current.PaymentStatus}, nil
	}

	var rows int64
	if paid {
		rows, err = s.invoiceRepo.MarkPaid(db, paymentInvoiceID, time.Now())
	} else {
		rows, err = s.invoiceRepo.MarkFailed(db, paymentInvoiceID)
	}
	if err != nil {
		return nil, apperrors.ErrDatabase(err)
	}

	invoice, err := s.findByPaymentInvoiceID(db, paymentInvoiceID)
	if err != nil {
		return nil, err
	}

	outcome := &ApplyOutcome{
		Invoice:      invoice,
		Transitioned: rows == 1,
		Status:       invoice.PaymentStatus,
	}

	if outcome.Transitioned {
		logger.CtxInfo(ctx, "Payment status changed",
			"invoice_id", paymentInvoiceID,
			"status", invoice.PaymentStatus,
			"source", source,
		)
	}

	// Уведомление только победителю гонки webhook/poll
	if paid && outcome.Transitioned {
		if err := s.statusCache.Delete(ctx, paymentInvoiceID); err != nil {
			logger.CtxWarn(ctx, "Failed to drop cached status", "invoice_id", paymentInvoiceID, "error", err)
		}
		s.notifyPaid(ctx, *invoice, source)
	}

	return outcome, nil
}

func (s *paymentService) notifyPaid(ctx context.Context, invoice models.Invoice, source models.PaymentSource) {
	event := notify.PaidEvent{Invoice: invoice, Source: source}
	// Форму могли убрать из конфигурации после создания инвойса
	if form, err := s.forms.GetForm(invoice.FormID); err == nil {
		event.Form = form
	}
	if failed := s.dispatcher.InvoicePaid(ctx, event); failed > 0 {
		logger.CtxWarn(ctx, "Some paid notifications failed",
			"invoice_id", invoice.PaymentInvoiceID,
			"failed", failed,
		)
	}
}

func (s *paymentService) findByPaymentInvoiceID(db *gorm.DB, paymentInvoiceID string) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByPaymentInvoiceID(db, paymentInvoiceID)
	if err != nil {
		if errors.Is(err, repositories.ErrInvoiceNotFound) {
			return nil, apperrors.ErrInvoiceNotFound(paymentInvoiceID)
		}
		return nil, apperrors.ErrDatabase(err)
	}
	return invoice, nil
}

// ---------------- Polling ----------------

func (s *paymentService) CheckStatus(ctx context.Context, db *gorm.DB, ref string, source models.PaymentSource) (*dto.PaymentStatusResponse, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, apperrors.ErrInvoiceNotFound(ref)
	}

	invoice, err := s.invoiceRepo.FindByReference(db, ref)
	if err != nil {
		if errors.Is(err, repositories.ErrInvoiceNotFound) {
			return nil, apperrors.ErrInvoiceNotFound(ref)
		}
		return nil, apperrors.ErrDatabase(err)
	}

	invoiceID := invoice.PaymentInvoiceID
	// окончательный статус отвечаем локально, без процессора
	if invoice.PaymentStatus.IsTerminal() {
		return &dto.PaymentStatusResponse{InvoiceID: invoiceID, Paid: true, Status: string(invoice.PaymentStatus)}, nil
	}

	if source != models.SourceManualVerify {
		if cached, ok := s.statusCache.Get(ctx, invoiceID); ok && !cached.Paid {
			return &dto.PaymentStatusResponse{InvoiceID: invoiceID, Paid: false, Status: cached.RawStatus}, nil
		}
	}

	client, err := s.registry.ByName(string(invoice.PaymentProvider))
	if err != nil {
		return nil, err
	}

	ctx = logger.WithProvider(logger.WithInvoiceID(ctx, invoiceID), string(client.Name()))
	status, err := client.CheckStatus(ctx, invoiceID)
	if err != nil {
		logger.CtxWithError(ctx, "Status check failed", err, "source", source)
		return nil, err
	}

	if status.Paid {
		if _, err := s.ApplyPaymentResult(ctx, db, invoiceID, true, source); err != nil {
			return nil, err
		}
		return &dto.PaymentStatusResponse{InvoiceID: invoiceID, Paid: true, Status: status.RawStatus}, nil
	}

	if err := s.statusCache.Set(ctx, cache.CachedStatus{
		InvoiceID: invoiceID,
		Paid:      false,
		RawStatus: status.RawStatus,
		CheckedAt: time.Now(),
	}); err != nil {
		logger.CtxDebug(ctx, "Status cache write skipped", "error", err)
	}

	return &dto.PaymentStatusResponse{InvoiceID: invoiceID, Paid: false, Status: status.RawStatus}, nil
}

func (s *paymentService) VerifyPayment(ctx context.Context, db *gorm.DB, ref string) (*dto.PaymentStatusResponse, error) {
	return s.CheckStatus(ctx, db, ref, models.SourceManualVerify)
}

// ---------------- Webhooks ----------------

func (s *paymentService) HandleWebhook(ctx context.Context, db *gorm.DB, provider string, raw []byte, headers http.Header) (*WebhookOutcome, error) {
	client, err := s.registry.ByName(provider)
	if err != nil {
		logger.WebhookLog(provider, "", string(models.WebhookOutcomeRejected), err)
		return nil, err
	}
	ctx = logger.WithProvider(ctx, string(client.Name()))

	event := &models.WebhookEvent{
		Provider: client.Name(),
		Payload:  webhookPayload(raw),
	}
	outcome := &WebhookOutcome{}

	result, err := s.processWebhook(ctx, db, client, raw, headers, event, outcome)

	event.Outcome = outcome.Outcome
	if err != nil {
		event.ProcessingError = err.Error()
	}
	if recErr := s.eventRepo.Create(db, event); recErr != nil {
		logger.CtxWithError(ctx, "Failed to record webhook event", recErr, "invoice_id", outcome.InvoiceID)
	}
	logger.WebhookLog(string(client.Name()), outcome.InvoiceID, string(outcome.Outcome), err)

	return result, err
}

func (s *paymentService) processWebhook(
	ctx context.Context,
	db *gorm.DB,
	client providers.Client,
	raw []byte,
	headers http.Header,
	event *models.WebhookEvent,
	outcome *WebhookOutcome,
) (*WebhookOutcome, error) {
	event.SignatureValid = client.VerifySignature(raw, headers)
	if !event.SignatureValid {
		if !s.settings.DisableWebhookVerification {
			outcome.Outcome = models.WebhookOutcomeRejected
			return outcome, apperrors.ErrSignatureInvalid(string(client.Name()))
		}
		logger.CtxWarn(ctx, "Webhook signature not verified, verification is disabled by configuration")
	}

	parsed, err := client.ParseWebhook(raw)
	if err != nil {
		outcome.Outcome = models.WebhookOutcomeInvalidPayload
		return outcome, err
	}
	event.EventType = parsed.EventType
	event.PaymentInvoiceID = parsed.InvoiceID
	outcome.InvoiceID = parsed.InvoiceID
	outcome.EventType = parsed.EventType

	applied, err := s.ApplyPaymentResult(logger.WithInvoiceID(ctx, parsed.InvoiceID), db, parsed.InvoiceID, parsed.Paid, models.SourceWebhook)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			outcome.Outcome = models.WebhookOutcomeNotFound
		} else {
			outcome.Outcome = models.WebhookOutcomeError
		}
		return outcome, err
	}

	outcome.Paid = applied.Status == models.PaymentStatusPaid
	outcome.Transitioned = applied.Transitioned
	if applied.Transitioned {
		outcome.Outcome = models.WebhookOutcomeApplied
	} else {
		outcome.Outcome = models.WebhookOutcomeDuplicate
	}
	return outcome, nil
}

// webhookPayload сохраняет тело как есть, а не-JSON заворачивает в {"raw": "..."}
func webhookPayload(raw []byte) datatypes.JSON {
	if len(raw) > 0 && json.Valid(raw) {
		return datatypes.JSON(raw)
	}
	wrapped, _ := json.Marshal(map[string]string{"raw": string(raw)})
	return datatypes.JSON(wrapped)
}

// ---------------- Reconciliation ----------------

// ReconcileUnpaid перепроверяет свежие неоплаченные инвойсы у процессора.
// Ошибки отдельных инвойсов не прерывают проход.
func (s *paymentService) ReconcileUnpaid(ctx context.Context, db *gorm.DB, maxAge time.Duration, limit int) (*ReconcileReport, error) {
	invoices, err := s.invoiceRepo.FindUnpaidSince(db, time.Now().Add(-maxAge), limit)
	if err != nil {
		return nil, apperrors.ErrDatabase(err)
	}

	report := &ReconcileReport{}
	for _, invoice := range invoices {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++

		status, err := s.CheckStatus(ctx, db, invoice.PaymentInvoiceID, models.SourceWorker)
		if err != nil {
			report.Failed++
			continue
		}
		if status.Paid {
			report.Paid++
		}
	}
	return report, nil
}

package services

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bif_backend/internal/models"
	"bif_backend/internal/notify"
	"bif_backend/internal/providers"
	"bif_backend/internal/repositories"
	"bif_backend/internal/services/dto"
	"bif_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createRequest(formID uint64) *dto.CreateInvoiceRequest {
	return &dto.CreateInvoiceRequest{
		FormID:        formID,
		Name:          "Jane Doe",
		Email:         "jane@example.com",
		InvoiceNumber: "INV-42",
	}
}

func TestCreateInvoice_FormDiscountAndPersistence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.payments.CreateInvoice(ctx, env.db, createRequest(1), dto.ClientMeta{IP: "203.0.113.7", UserAgent: "test-agent"})
	require.NoError(t, err)

	assert.Equal(t, "inv_1", resp.InvoiceID)
	assert.Equal(t, "https://pay.example/inv_1", resp.PaymentURL)
	assert.Equal(t, int64(9000), resp.AmountMinor)
	assert.Equal(t, "90.00", resp.Amount)
	assert.Equal(t, "USD", resp.Currency)
	assert.Equal(t, "coinsnap", resp.Provider)
	assert.Equal(t, "https://shop.example/thanks", resp.SuccessPage)
	assert.Regexp(t, regexp.MustCompile(`^bif_\d+_[0-9a-f]{8}$`), resp.TransactionID)
	assert.Equal(t, "90", env.processor.amount("inv_1"))

	stored, err := env.invoices.FindByPaymentInvoiceID(env.db, "inv_1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusUnpaid, stored.PaymentStatus)
	assert.Equal(t, int64(9000), stored.Amount)
	assert.Equal(t, resp.TransactionID, stored.TransactionID)
	assert.Equal(t, "203.0.113.7", stored.IP)
	assert.Equal(t, "test-agent", stored.UserAgent)
	assert.Equal(t, "INV-42", stored.InvoiceNumber)
}

func TestCreateInvoice_SubmittedAmountWinsButDiscountComesFromForm(t *testing.T) {
	env := newTestEnv(t)

	req := createRequest(1)
	req.Amount = "50"
	resp, err := env.payments.CreateInvoice(context.Background(), env.db, req, dto.ClientMeta{})
	require.NoError(t, err)
	assert.Equal(t, int64(4500), resp.AmountMinor)
}

func TestCreateInvoice_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.payments.CreateInvoice(ctx, env.db, createRequest(99), dto.ClientMeta{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidForm), "unknown form")

	_, err = env.payments.CreateInvoice(ctx, env.db, createRequest(3), dto.ClientMeta{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidForm), "wrong form type")

	_, err = env.payments.CreateInvoice(ctx, env.db, createRequest(2), dto.ClientMeta{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidAmount), "no amount anywhere")

	req := createRequest(1)
	req.Amount = "-5"
	_, err = env.payments.CreateInvoice(ctx, env.db, req, dto.ClientMeta{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidAmount), "negative amount")

	req = createRequest(1)
	req.Currency = "XYZ"
	_, err = env.payments.CreateInvoice(ctx, env.db, req, dto.ClientMeta{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnsupportedCurrency))

	// RUB есть в перечислении, но Coinsnap его не принимает
	req = createRequest(1)
	req.Currency = "RUB"
	_, err = env.payments.CreateInvoice(ctx, env.db, req, dto.ClientMeta{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnsupportedCurrency))

	_, total, err := env.invoices.List(env.db, repositories.InvoiceCriteria{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCreateInvoice_SatsForm(t *testing.T) {
	env := newTestEnv(t)

	req := createRequest(2)
	req.Amount = "50"
	resp, err := env.payments.CreateInvoice(context.Background(), env.db, req, dto.ClientMeta{})
	require.NoError(t, err)
	assert.Equal(t, "SATS", resp.Currency)
	assert.Equal(t, int64(5000), resp.AmountMinor)
	assert.Equal(t, "50", env.processor.amount(resp.InvoiceID))
}

func TestCreateInvoice_ProviderErrorLeavesNoRow(t *testing.T) {
	env := newTestEnv(t)
	env.processor.failCreate = true

	_, err := env.payments.CreateInvoice(context.Background(), env.db, createRequest(1), dto.ClientMeta{})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNetworkError))

	_, total, err := env.invoices.List(env.db, repositories.InvoiceCriteria{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCreateInvoice_AmountOverflowRejected(t *testing.T) {
	env := newTestEnv(t)

	// 204963823041218352 * 100 не помещается в int64
	req := createRequest(1)
	req.Amount = "204963823041218352"
	_, err := env.payments.CreateInvoice(context.Background(), env.db, req, dto.ClientMeta{})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidAmount))
	assert.Zero(t, env.processor.created())

	_, total, err := env.invoices.List(env.db, repositories.InvoiceCriteria{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

// failingInvoiceRepo отказывает в записи, остальное делегирует настоящему репозиторию
type failingInvoiceRepo struct {
	repositories.InvoiceRepository
}

func (r failingInvoiceRepo) Create(_ *gorm.DB, _ *models.Invoice) error {
	return errors.New("disk full")
}

func TestCreateInvoice_PersistenceErrorAfterProviderAccepted(t *testing.T) {
	env := newTestEnv(t)
	registry := providers.NewRegistryWith(env.cfg.Providers.Default,
		providers.NewCoinsnapClient(env.cfg.Providers.Coinsnap, env.processor.srv.Client()),
	)
	payments := NewPaymentService(failingInvoiceRepo{env.invoices}, env.events, env.forms, registry,
		notify.NewDispatcher(env.notifier), nil, PaymentSettingsFromConfig(env.cfg))

	resp, err := payments.CreateInvoice(context.Background(), env.db, createRequest(1), dto.ClientMeta{})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, apperrors.HasCode(err, apperrors.CodePersistenceError))

	// у процессора инвойс уже есть
	assert.Equal(t, 1, env.processor.created())
	assert.Equal(t, "90", env.processor.amount("inv_1"))

	_, total, err := env.invoices.List(env.db, repositories.InvoiceCriteria{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestApplyPaymentResult_ConcurrentWebhookAndPoll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resp, err := env.payments.CreateInvoice(ctx, env.db, createRequest(1), dto.ClientMeta{})
	require.NoError(t, err)

	const workers = 40
	var (
		wg           sync.WaitGroup
		transitioned int32
		failures     int32
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		source := models.SourceWebhook
		if i%2 == 1 {
			source = models.SourcePoll
		}
		wg.Add(1)
		go func(source models.PaymentSource) {
			defer wg.Done()
			<-start
			out, err := env.payments.ApplyPaymentResult(ctx, env.db, resp.InvoiceID, true, source)
			if err != nil {
				atomic.AddInt32(&failures, 1)
				return
			}
			if out.Transitioned {
				atomic.AddInt32(&transitioned, 1)
			}
		}(source)
	}
	close(start)
	wg.Wait()

	assert.Zero(t, atomic.LoadInt32(&failures))
	assert.Equal(t, int32(1), atomic.LoadInt32(&transitioned))
	assert.Equal(t, 1, env.notifier.count())

	counts, err := env.invoices.CountByStatus(env.db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[models.PaymentStatusPaid])
	assert.Zero(t, counts[models.PaymentStatusUnpaid])
}

func TestApplyPaymentResult_IdempotentSingleNotification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resp, err := env.payments.CreateInvoice(ctx, env.db, createRequest(1), dto.ClientMeta{})
	require.NoError(t, err)

	first, err := env.payments.ApplyPaymentResult(ctx, env.db, resp.InvoiceID, true, models.SourceWebhook)
	require.NoError(t, err)
	assert.True(t, first.Transitioned)
	assert.Equal(t, models.PaymentStatusPaid, first.Status)
	require.NotNil(t, first.Invoice.PaidAt)

	second, err := env.payments.ApplyPaymentResult(ctx, env.db, resp.InvoiceID, true, models.SourcePoll)
	require.NoError(t, err)
	assert.False(t, second.Transitioned)
	assert.Equal(t, models.PaymentStatusPaid, second.Status)

	require.Equal(t, 1, env.notifier.count())
	event := env.notifier.events[0]
	assert.Equal(t, models.SourceWebhook, event.Source)
	require.NotNil(t, event.Form)
	assert.Equal(t, uint64(1), event.Form.ID)
}

func TestApplyPaymentResult_PaidIsMonotonic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resp, err := env.payments.CreateInvoice(ctx, env.db, createRequest(1), dto.ClientMeta{})
	require.NoError(t, err)

	_, err = env.payments.ApplyPaymentResult(ctx, env.db, resp.InvoiceID, true, models.SourceWebhook)
	require.NoError(t, err)

	out, err := env.payments.ApplyPaymentResult(ctx, env.db, resp.InvoiceID, false, models.SourceWebhook)
	require.NoError(t, err)
	assert.False(t, out.Transitioned)
	assert.Equal(t, models.PaymentStatusPaid, out.Status)
}

func TestApplyPaymentResult_FailedCanStillBecomePaid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resp, err := env.payments.CreateInvoice(ctx, env.db, createRequest(1), dto.ClientMeta{})
	require.NoError(t, err)

	failed, err := env.payments.ApplyPaymentResult(ctx, env.db, resp.InvoiceID, false, models.SourceWebhook)
	require.NoError(t, err)
	assert.True(t, failed.Transitioned)
	assert.Equal(t, models.PaymentStatusFailed, failed.Status)
	assert.Zero(t, env.notifier.count())

	paid, err := env.payments.ApplyPaymentResult(ctx, env.db, resp.InvoiceID, true, models.SourceWebhook)
	require.NoError(t, err)
	assert.True(t, paid.Transitioned)
	assert.Equal(t, 1, env.notifier.count())
}

func TestApplyPaymentResult_UnknownInvoice(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.payments.ApplyPaymentResult(context.Background(), env.db, "nope", true, models.SourceWebhook)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	assert.Zero(t, env.notifier.count())
}

func TestCheckStatus_PollsProviderAndApplies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resp, err := env.payments.CreateInvoice(ctx, env.db, createRequest(1), dto.ClientMeta{})
	require.NoError(t, err)

	status, err := env.payments.CheckStatus(ctx, env.db, resp.InvoiceID, models.SourcePoll)
	require.NoError(t, err)
	assert.False(t, status.Paid)
	assert.Equal(t, "New", status.Status)

	env.processor.setStatus(resp.InvoiceID, "Settled")

	// по transaction_id тоже находится
	status, err = env.payments.CheckStatus(ctx, env.db, resp.TransactionID, models.SourcePoll)
	require.NoError(t, err)
	assert.True(t, status.Paid)
	assert.Equal(t, resp.InvoiceID, status.InvoiceID)
	assert.Equal(t, 1, env.notifier.count())

	stored, err := env.invoices.FindByPaymentInvoiceID(env.db, resp.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, stored.PaymentStatus)
}

func TestCheckStatus_LocalPaidShortCircuits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resp, err := env.payments.CreateInvoice(ctx, env.db, createRequest(1), dto.ClientMeta{})
	require.NoError(t, err)
	_, err = env.payments.ApplyPaymentResult(ctx, env.db, resp.InvoiceID, true, models.SourceWebhook)
	require.NoError(t, err)

	before := env.processor.calls()
	status, err := env.payments.VerifyPayment(ctx, env.db, resp.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, dto.PaymentStatusResponse{InvoiceID: resp.InvoiceID, Paid: true, Status: "paid"}, *status)
	assert.Equal(t, before, env.processor.calls())
}

func TestCheckStatus_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.payments.CheckStatus(context.Background(), env.db, "missing", models.SourcePoll)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = env.payments.CheckStatus(context.Background(), env.db, "  ", models.SourcePoll)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestHandleWebhook_EndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.payments.CreateInvoice(ctx, env.db, createRequest(1), dto.ClientMeta{})
	require.NoError(t, err)
	assert.Equal(t, int64(9000), resp.AmountMinor)

	body := []byte(`{"type":"InvoiceSettled","invoiceId":"` + resp.InvoiceID + `"}`)

	out, err := env.payments.HandleWebhook(ctx, env.db, "coinsnap", body, signedHeaders(body))
	require.NoError(t, err)
	assert.Equal(t, models.WebhookOutcomeApplied, out.Outcome)
	assert.True(t, out.Paid)
	assert.True(t, out.Transitioned)

	replay, err := env.payments.HandleWebhook(ctx, env.db, "coinsnap", body, signedHeaders(body))
	require.NoError(t, err)
	assert.Equal(t, models.WebhookOutcomeDuplicate, replay.Outcome)
	assert.True(t, replay.Paid)

	stored, err := env.invoices.FindByPaymentInvoiceID(env.db, resp.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, stored.PaymentStatus)
	assert.Equal(t, 1, env.notifier.count())

	logged, err := env.events.FindByPaymentInvoiceID(env.db, resp.InvoiceID)
	require.NoError(t, err)
	require.Len(t, logged, 2)
	for _, e := range logged {
		assert.True(t, e.SignatureValid)
		assert.Equal(t, "InvoiceSettled", e.EventType)
	}
}

func TestHandleWebhook_NonPaidEventMarksUnpaidAsFailed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resp, err := env.payments.CreateInvoice(ctx, env.db, createRequest(1), dto.ClientMeta{})
	require.NoError(t, err)

	body := []byte(`{"type":"InvoiceExpired","invoiceId":"` + resp.InvoiceID + `"}`)
	out, err := env.payments.HandleWebhook(ctx, env.db, "coinsnap", body, signedHeaders(body))
	require.NoError(t, err)
	assert.False(t, out.Paid)

	stored, err := env.invoices.FindByPaymentInvoiceID(env.db, resp.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, stored.PaymentStatus)
	assert.Zero(t, env.notifier.count())
}

func TestHandleWebhook_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resp, err := env.payments.CreateInvoice(ctx, env.db, createRequest(1), dto.ClientMeta{})
	require.NoError(t, err)

	body := []byte(`{"type":"InvoiceSettled","invoiceId":"` + resp.InvoiceID + `"}`)

	out, err := env.payments.HandleWebhook(ctx, env.db, "coinsnap", body, http.Header{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeSignatureInvalid))
	assert.Equal(t, models.WebhookOutcomeRejected, out.Outcome)

	garbage := []byte(`not json`)
	out, err = env.payments.HandleWebhook(ctx, env.db, "coinsnap", garbage, signedHeaders(garbage))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidResponse))
	assert.Equal(t, models.WebhookOutcomeInvalidPayload, out.Outcome)

	unknown := []byte(`{"type":"InvoiceSettled","invoiceId":"inv_404"}`)
	out, err = env.payments.HandleWebhook(ctx, env.db, "coinsnap", unknown, signedHeaders(unknown))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	assert.Equal(t, models.WebhookOutcomeNotFound, out.Outcome)

	_, err = env.payments.HandleWebhook(ctx, env.db, "stripe", body, signedHeaders(body))
	assert.Error(t, err)

	stored, err := env.invoices.FindByPaymentInvoiceID(env.db, resp.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusUnpaid, stored.PaymentStatus)
	assert.Zero(t, env.notifier.count())

	recent, err := env.events.FindRecent(env.db, models.ProviderCoinsnap, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
}

func TestHandleWebhook_VerificationOverride(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resp, err := env.payments.CreateInvoice(ctx, env.db, createRequest(1), dto.ClientMeta{})
	require.NoError(t, err)

	settings := PaymentSettingsFromConfig(env.cfg)
	settings.DisableWebhookVerification = true
	registry := env.forms.(*formService).registry
	payments := NewPaymentService(env.invoices, env.events, env.forms, registry, nil, nil, settings)

	body := []byte(`{"type":"InvoiceSettled","invoiceId":"` + resp.InvoiceID + `"}`)
	out, err := payments.HandleWebhook(ctx, env.db, "coinsnap", body, http.Header{})
	require.NoError(t, err)
	assert.Equal(t, models.WebhookOutcomeApplied, out.Outcome)

	logged, err := env.events.FindByPaymentInvoiceID(env.db, resp.InvoiceID)
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.False(t, logged[0].SignatureValid)
}

func TestReconcileUnpaid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.payments.CreateInvoice(ctx, env.db, createRequest(1), dto.ClientMeta{})
	require.NoError(t, err)
	_, err = env.payments.CreateInvoice(ctx, env.db, createRequest(1), dto.ClientMeta{})
	require.NoError(t, err)

	env.processor.setStatus(first.InvoiceID, "Complete")

	report, err := env.payments.ReconcileUnpaid(ctx, env.db, time.Hour, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 1, report.Paid)
	assert.Zero(t, report.Failed)
	assert.Equal(t, 1, env.notifier.count())
	assert.Equal(t, models.SourceWorker, env.notifier.events[0].Source)
}

func TestNewTransactionID(t *testing.T) {
	now := time.Unix(1700000000, 0)
	a := newTransactionID(now)
	b := newTransactionID(now)

	assert.Regexp(t, `^bif_1700000000_[0-9a-f]{8}$`, a)
	assert.NotEqual(t, a, b)
}

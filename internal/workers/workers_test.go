package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"bif_backend/database"
	"bif_backend/internal/models"
	"bif_backend/internal/repositories"
	"bif_backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubPayments реализует только сверку, остальное не вызывается
type stubPayments struct {
	services.PaymentService
	calls atomic.Int32
}

func (s *stubPayments) ReconcileUnpaid(_ context.Context, _ *gorm.DB, maxAge time.Duration, limit int) (*services.ReconcileReport, error) {
	s.calls.Add(1)
	return &services.ReconcileReport{Checked: limit, Paid: 1}, nil
}

func TestReconcileWorker_RunOnce(t *testing.T) {
	stub := &stubPayments{}
	w := NewReconcileWorker(nil, stub, time.Minute, time.Hour, 5)

	report := w.RunOnce(context.Background())
	require.NotNil(t, report)
	assert.Equal(t, 5, report.Checked)
	assert.Equal(t, int32(1), stub.calls.Load())
}

func TestReconcileWorker_TicksUntilCancelled(t *testing.T) {
	stub := &stubPayments{}
	w := NewReconcileWorker(nil, stub, 10*time.Millisecond, time.Hour, 1)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	assert.Eventually(t, func() bool { return stub.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
}

func TestRetentionWorker_RunOnce(t *testing.T) {
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	events := repositories.NewWebhookEventRepository()

	require.NoError(t, events.Create(db, &models.WebhookEvent{
		Provider:   models.ProviderCoinsnap,
		Outcome:    models.WebhookOutcomeApplied,
		ReceivedAt: time.Now().Add(-48 * time.Hour),
	}))
	require.NoError(t, events.Create(db, &models.WebhookEvent{
		Provider: models.ProviderCoinsnap,
		Outcome:  models.WebhookOutcomeApplied,
	}))

	w := NewRetentionWorker(db, events, 24*time.Hour)
	assert.Equal(t, int64(1), w.RunOnce())

	left, err := events.FindRecent(db, models.ProviderCoinsnap, 10)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

package workers

import (
	"context"
	"time"

	"bif_backend/internal/logger"
	"bif_backend/internal/services"

	"gorm.io/gorm"
)

const reconcileWorkerName = "reconcile"

// ReconcileWorker периодически перепроверяет неоплаченные инвойсы у процессора,
// на случай если вебхук потерялся, а покупатель закрыл страницу до конца поллинга.
type ReconcileWorker struct {
	db       *gorm.DB
	payments services.PaymentService
	interval time.Duration
	maxAge   time.Duration
	batch    int
}

func NewReconcileWorker(db *gorm.DB, payments services.PaymentService, interval, maxAge time.Duration, batch int) *ReconcileWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ReconcileWorker{
		db:       db,
		payments: payments,
		interval: interval,
		maxAge:   maxAge,
		batch:    batch,
	}
}

// Start запускает фоновую сверку
func (w *ReconcileWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *ReconcileWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Reconcile worker started", "interval", w.interval, "max_age", w.maxAge)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Reconcile worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce - один проход; используется тикером и командой CLI
func (w *ReconcileWorker) RunOnce(ctx context.Context) *services.ReconcileReport {
	report, err := w.payments.ReconcileUnpaid(ctx, w.db, w.maxAge, w.batch)
	logger.WorkerLog(reconcileWorkerName, "reconcile_unpaid", err)
	if report != nil && report.Checked > 0 {
		logger.Info("Reconcile pass finished",
			"checked", report.Checked,
			"paid", report.Paid,
			"failed", report.Failed,
		)
	}
	return report
}

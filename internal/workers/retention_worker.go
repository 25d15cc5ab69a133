package workers

import (
	"context"
	"time"

	"bif_backend/internal/logger"
	"bif_backend/internal/repositories"

	"gorm.io/gorm"
)

// RetentionWorker удаляет старые записи журнала вебхуков раз в сутки
type RetentionWorker struct {
	db        *gorm.DB
	events    repositories.WebhookEventRepository
	retention time.Duration
}

func NewRetentionWorker(db *gorm.DB, events repositories.WebhookEventRepository, retention time.Duration) *RetentionWorker {
	return &RetentionWorker{db: db, events: events, retention: retention}
}

func (w *RetentionWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *RetentionWorker) run(ctx context.Context) {
	for {
		// до следующей полуночи
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("Retention worker stopped")
			return
		case <-timer.C:
			w.RunOnce()
		}
	}
}

func (w *RetentionWorker) RunOnce() int64 {
	deleted, err := w.events.DeleteOlderThan(w.db, time.Now().Add(-w.retention))
	logger.WorkerLog("retention", "delete_webhook_events", err)
	if err == nil && deleted > 0 {
		logger.Info("Old webhook events deleted", "count", deleted)
	}
	return deleted
}

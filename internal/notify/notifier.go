// Package notify рассылает уведомления о переходе инвойса в paid.
// Ошибки уведомлений логируются и никогда не откатывают переход статуса.
package notify

import (
	"context"

	"bif_backend/internal/config"
	"bif_backend/internal/logger"
	"bif_backend/internal/models"
)

// PaidEvent - все, что нужно получателям уведомления
type PaidEvent struct {
	Invoice models.Invoice
	Form    *config.FormConfig
	Source  models.PaymentSource
}

type Notifier interface {
	Name() string
	InvoicePaid(ctx context.Context, event PaidEvent) error
}

// Dispatcher вызывается ровно один раз на выигранный переход в paid
type Dispatcher struct {
	notifiers []Notifier
}

func NewDispatcher(notifiers ...Notifier) *Dispatcher {
	d := &Dispatcher{}
	for _, n := range notifiers {
		if n != nil {
			d.notifiers = append(d.notifiers, n)
		}
	}
	return d
}

// InvoicePaid вызывает всех получателей по очереди; возвращает число неудачных
func (d *Dispatcher) InvoicePaid(ctx context.Context, event PaidEvent) int {
	failed := 0
	for _, n := range d.notifiers {
		if err := n.InvoicePaid(ctx, event); err != nil {
			failed++
			logger.CtxError(ctx, "Paid notification failed",
				"notifier", n.Name(),
				"transaction_id", event.Invoice.TransactionID,
				"invoice_id", event.Invoice.PaymentInvoiceID,
				"error", err,
			)
			continue
		}
		logger.CtxInfo(ctx, "Paid notification sent",
			"notifier", n.Name(),
			"transaction_id", event.Invoice.TransactionID,
		)
	}
	return failed
}

func (d *Dispatcher) Len() int {
	return len(d.notifiers)
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bif_backend/internal/logger"
	"bif_backend/internal/services/pricing"

	"github.com/IBM/sarama"
)

// InvoicePaidMessage - тело события в топике
type InvoicePaidMessage struct {
	TransactionID    string    `json:"transaction_id"`
	PaymentInvoiceID string    `json:"payment_invoice_id"`
	FormID           uint64    `json:"form_id"`
	Provider         string    `json:"provider"`
	Amount           string    `json:"amount"`
	AmountMinor      int64     `json:"amount_minor"`
	Currency         string    `json:"currency"`
	CustomerEmail    string    `json:"customer_email"`
	Source           string    `json:"source"`
	PaidAt           time.Time `json:"paid_at"`
}

// KafkaNotifier публикует событие оплаты; ключ сообщения - transaction_id
type KafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaProducer подключается к брокерам с несколькими попытками
func NewKafkaProducer(brokers []string, attempts int, wait time.Duration) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3

	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 1; i <= attempts; i++ {
		var producer sarama.SyncProducer
		producer, err = sarama.NewSyncProducer(brokers, cfg)
		if err == nil {
			logger.Info("Kafka producer initialized", "brokers", brokers)
			return producer, nil
		}
		logger.Warn("Waiting for Kafka", "attempt", i, "max_attempts", attempts, "error", err)
		if i < attempts {
			time.Sleep(wait)
		}
	}
	return nil, fmt.Errorf("kafka producer after %d attempts: %w", attempts, err)
}

func NewKafkaNotifier(producer sarama.SyncProducer, topic string) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic}
}

func (n *KafkaNotifier) Name() string { return "kafka" }

func (n *KafkaNotifier) InvoicePaid(ctx context.Context, event PaidEvent) error {
	inv := event.Invoice
	paidAt := time.Now().UTC()
	if inv.PaidAt != nil {
		paidAt = inv.PaidAt.UTC()
	}

	data, err := json.Marshal(InvoicePaidMessage{
		TransactionID:    inv.TransactionID,
		PaymentInvoiceID: inv.PaymentInvoiceID,
		FormID:           inv.FormID,
		Provider:         string(inv.PaymentProvider),
		Amount:           pricing.FormatMinor(inv.Amount, inv.Currency),
		AmountMinor:      inv.Amount,
		Currency:         inv.Currency.String(),
		CustomerEmail:    inv.CustomerEmail,
		Source:           string(event.Source),
		PaidAt:           paidAt,
	})
	if err != nil {
		return fmt.Errorf("marshal paid event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     n.topic,
		Key:       sarama.StringEncoder(inv.TransactionID),
		Value:     sarama.ByteEncoder(data),
		Timestamp: time.Now(),
	}
	partition, offset, err := n.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("kafka send to %s: %w", n.topic, err)
	}

	logger.CtxDebug(ctx, "Published paid event", "topic", n.topic, "partition", partition, "offset", offset)
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}

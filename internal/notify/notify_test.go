package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"bif_backend/internal/config"
	"bif_backend/internal/email"
	"bif_backend/internal/models"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paidEvent() PaidEvent {
	form := &config.FormConfig{ID: 1}
	form.Email.Subject = "Paid {invoice_number}"
	form.Email.Template = "{customer_name} paid {amount} {currency}"
	form.CustomerEmail.Enabled = true
	form.CustomerEmail.Subject = "Receipt {invoice_number}"
	form.CustomerEmail.Template = "Thanks {customer_name}, {site_name}"

	return PaidEvent{
		Invoice: models.Invoice{
			FormID:           1,
			TransactionID:    "bif_1700000000_abcdefgh",
			InvoiceNumber:    "INV-7",
			CustomerName:     "Jane",
			CustomerEmail:    "jane@example.com",
			Amount:           9000,
			Currency:         models.CurrencyUSD,
			PaymentProvider:  models.ProviderCoinsnap,
			PaymentInvoiceID: "inv_1",
			PaymentStatus:    models.PaymentStatusPaid,
		},
		Form:   form,
		Source: models.SourceWebhook,
	}
}

type failingNotifier struct{}

func (failingNotifier) Name() string { return "failing" }
func (failingNotifier) InvoicePaid(context.Context, PaidEvent) error {
	return errors.New("boom")
}

func TestEmailNotifier_AdminAndCustomer(t *testing.T) {
	provider := email.NewMemoryProvider()
	n := NewEmailNotifier(provider, "admin@example.com", "Shop")

	require.NoError(t, n.InvoicePaid(context.Background(), paidEvent()))

	sent := provider.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, []string{"admin@example.com"}, sent[0].To)
	assert.Equal(t, "Paid INV-7", sent[0].Subject)
	assert.Equal(t, "Jane paid 90.00 USD", sent[0].Body)
	assert.Equal(t, []string{"jane@example.com"}, sent[1].To)
	assert.Equal(t, "Thanks Jane, Shop", sent[1].Body)
}

func TestEmailNotifier_FormRemovedFallsBackToDefaultTemplate(t *testing.T) {
	provider := email.NewMemoryProvider()
	n := NewEmailNotifier(provider, "admin@example.com", "Shop")

	event := paidEvent()
	event.Form = nil
	require.NoError(t, n.InvoicePaid(context.Background(), event))

	sent := provider.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"admin@example.com"}, sent[0].To)
	assert.Equal(t, config.DefaultAdminSubject, sent[0].Subject)
	assert.Contains(t, sent[0].Body, "Invoice Number: INV-7")
	assert.Contains(t, sent[0].Body, "Amount: 90.00 USD")
	assert.Contains(t, sent[0].Body, "Transaction ID: bif_1700000000_abcdefgh")
}

func TestDispatcher_ContinuesAfterFailure(t *testing.T) {
	provider := email.NewMemoryProvider()
	d := NewDispatcher(failingNotifier{}, nil, NewEmailNotifier(provider, "admin@example.com", "Shop"))

	assert.Equal(t, 2, d.Len())
	assert.Equal(t, 1, d.InvoicePaid(context.Background(), paidEvent()))
	assert.Len(t, provider.Sent(), 2)
}

func TestKafkaNotifier_PublishesKeyedEvent(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var msg InvoicePaidMessage
		if err := json.Unmarshal(val, &msg); err != nil {
			return err
		}
		if msg.TransactionID != "bif_1700000000_abcdefgh" || msg.Amount != "90.00" || msg.Source != "webhook" {
			return errors.New("unexpected payload")
		}
		return nil
	})

	n := NewKafkaNotifier(producer, "bif.invoice.paid")
	require.NoError(t, n.InvoicePaid(context.Background(), paidEvent()))
	require.NoError(t, n.Close())
}

func TestKafkaNotifier_SendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	n := NewKafkaNotifier(producer, "bif.invoice.paid")
	assert.Error(t, n.InvoicePaid(context.Background(), paidEvent()))
	require.NoError(t, n.Close())
}

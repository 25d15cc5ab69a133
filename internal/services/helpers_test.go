package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"bif_backend/database"
	"bif_backend/internal/config"
	"bif_backend/internal/notify"
	"bif_backend/internal/providers"
	"bif_backend/internal/repositories"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testWebhookSecret = "whsec"

// fakeProcessor имитирует API Coinsnap: создание инвойса и опрос статуса
type fakeProcessor struct {
	mu          sync.Mutex
	srv         *httptest.Server
	nextID      int
	statuses    map[string]string
	amounts     map[string]string
	failCreate  bool
	statusCalls int
}

func newFakeProcessor(t *testing.T) *fakeProcessor {
	t.Helper()
	p := &fakeProcessor{statuses: map[string]string{}, amounts: map[string]string{}}
	p.srv = httptest.NewServer(http.HandlerFunc(p.handle))
	t.Cleanup(p.srv.Close)
	return p
}

func (p *fakeProcessor) handle(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/invoices") {
		if p.failCreate {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		var body struct {
			Amount json.Number `json:"amount"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		p.nextID++
		id := fmt.Sprintf("inv_%d", p.nextID)
		p.statuses[id] = "New"
		p.amounts[id] = body.Amount.String()
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":           id,
			"checkoutLink": "https://pay.example/" + id,
		})
		return
	}

	if r.Method == http.MethodGet {
		p.statusCalls++
		id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		status, ok := p.statuses[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": id, "status": status})
		return
	}

	http.NotFound(w, r)
}

func (p *fakeProcessor) setStatus(id, status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses[id] = status
}

func (p *fakeProcessor) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statusCalls
}

func (p *fakeProcessor) created() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nextID
}

func (p *fakeProcessor) amount(id string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.amounts[id]
}

// countingNotifier считает уведомления об оплате
type countingNotifier struct {
	mu     sync.Mutex
	events []notify.PaidEvent
}

func (n *countingNotifier) Name() string { return "counting" }

func (n *countingNotifier) InvoicePaid(_ context.Context, event notify.PaidEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

type testEnv struct {
	db        *gorm.DB
	cfg       *config.Config
	processor *fakeProcessor
	notifier  *countingNotifier
	payments  PaymentService
	forms     FormService
	invoices  repositories.InvoiceRepository
	events    repositories.WebhookEventRepository
}

func testConfig(apiBase string) *config.Config {
	cfg := &config.Config{}
	cfg.Providers.Default = "coinsnap"
	cfg.Providers.Coinsnap = config.CoinsnapConfig{
		APIKey:        "key",
		StoreID:       "store",
		APIBase:       apiBase,
		WebhookSecret: testWebhookSecret,
	}

	form := config.FormConfig{ID: 1, Title: "Consulting", Type: config.FormTypeInvoice, Amount: "100", Currency: "USD"}
	form.Discount.Enabled = true
	form.Discount.Type = "percent"
	form.Discount.Value = "10"
	form.Redirect.SuccessPage = "https://shop.example/thanks"
	form.Redirect.ThankYouMessage = "Thanks!"

	legacy := config.FormConfig{ID: 2, Type: config.FormTypeLegacyInvoice, Currency: "SATS"}
	page := config.FormConfig{ID: 3, Type: "page"}

	cfg.Forms = []config.FormConfig{form, legacy, page}
	cfg.ApplyDefaults()
	return cfg
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	processor := newFakeProcessor(t)
	cfg := testConfig(processor.srv.URL)
	registry := providers.NewRegistryWith(cfg.Providers.Default,
		providers.NewCoinsnapClient(cfg.Providers.Coinsnap, processor.srv.Client()),
	)

	notifier := &countingNotifier{}
	forms := NewFormService(cfg, registry)
	invoices := repositories.NewInvoiceRepository()
	events := repositories.NewWebhookEventRepository()

	return &testEnv{
		db:        db,
		cfg:       cfg,
		processor: processor,
		notifier:  notifier,
		forms:     forms,
		invoices:  invoices,
		events:    events,
		payments: NewPaymentService(invoices, events, forms, registry,
			notify.NewDispatcher(notifier), nil, PaymentSettingsFromConfig(cfg)),
	}
}

func signedHeaders(body []byte) http.Header {
	h := http.Header{}
	h.Set("BTCPay-Sig", "sha256="+providers.ComputeSignature(testWebhookSecret, body))
	return h
}

package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"bif_backend/internal/providers"
)

// FakeProcessor имитирует Coinsnap: POST .../invoices создает инвойс, GET .../invoices/{id} отдает статус
type FakeProcessor struct {
	mu          sync.Mutex
	srv         *httptest.Server
	nextID      int
	statuses    map[string]string
	amounts     map[string]string
	statusCalls int
}

func NewFakeProcessor() *FakeProcessor {
	p := &FakeProcessor{statuses: map[string]string{}, amounts: map[string]string{}}
	p.srv = httptest.NewServer(http.HandlerFunc(p.handle))
	return p
}

func (p *FakeProcessor) URL() string { return p.srv.URL }

func (p *FakeProcessor) Close() { p.srv.Close() }

func (p *FakeProcessor) handle(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/invoices"):
		var body struct {
			Amount json.Number `json:"amount"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		p.nextID++
		id := fmt.Sprintf("inv_it_%d", p.nextID)
		p.statuses[id] = "New"
		p.amounts[id] = body.Amount.String()
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":           id,
			"checkoutLink": "https://pay.example/i/" + id,
		})
	case r.Method == http.MethodGet:
		p.statusCalls++
		id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		status, ok := p.statuses[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": id, "status": status})
	default:
		http.NotFound(w, r)
	}
}

func (p *FakeProcessor) SetStatus(id, status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses[id] = status
}

func (p *FakeProcessor) Amount(id string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.amounts[id]
}

func (p *FakeProcessor) StatusCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statusCalls
}

// SignedWebhook возвращает заголовки с подписью тела, как их отправляет Coinsnap
func SignedWebhook(body []byte) func(http.Header) {
	return func(h http.Header) {
		h.Set("Content-Type", "application/json")
		h.Set("BTCPay-Sig", "sha256="+providers.ComputeSignature(WebhookSecret, body))
	}
}

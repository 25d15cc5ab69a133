package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"bif_backend/internal/config"
	"bif_backend/internal/logger"
	"bif_backend/internal/models"
	"bif_backend/internal/services/pricing"
	"bif_backend/pkg/apperrors"
)

const DefaultCoinsnapAPIBase = "https://app.coinsnap.io"

var (
	coinsnapInvoicePaths = []string{"/api/v1/stores/%s/invoices", "/api/stores/%s/invoices"}
	coinsnapStatusPaths  = []string{"/api/v1/stores/%s/invoices/%s", "/api/stores/%s/invoices/%s"}

	coinsnapSignatureHeaders = []string{"BTCPay-Sig", "X-Coinsnap-Signature", "X-Signature"}

	coinsnapCurrencies = map[models.Currency]bool{
		models.CurrencyUSD:  true,
		models.CurrencyEUR:  true,
		models.CurrencyCAD:  true,
		models.CurrencyJPY:  true,
		models.CurrencyGBP:  true,
		models.CurrencyCHF:  true,
		models.CurrencyBTC:  true,
		models.CurrencySATS: true,
	}
)

type coinsnapClient struct {
	cfg config.CoinsnapConfig
	req requester
}

// NewCoinsnapClient - клиент Coinsnap; httpClient может быть общим для всех процессоров
func NewCoinsnapClient(cfg config.CoinsnapConfig, httpClient *http.Client) Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(DefaultTimeout)
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultCoinsnapAPIBase
	}
	return &coinsnapClient{
		cfg: cfg,
		req: requester{provider: string(models.ProviderCoinsnap), client: httpClient},
	}
}

func (c *coinsnapClient) Name() models.ProviderName {
	return models.ProviderCoinsnap
}

func (c *coinsnapClient) SupportsCurrency(currency models.Currency) bool {
	return coinsnapCurrencies[currency]
}

type coinsnapInvoicePayload struct {
	Amount      json.Number       `json:"amount"`
	Currency    string            `json:"currency"`
	BuyerEmail  string            `json:"buyerEmail"`
	RedirectURL string            `json:"redirectUrl,omitempty"`
	Metadata    map[string]any    `json:"metadata"`
	Checkout    map[string]string `json:"checkout"`
}

type coinsnapInvoiceResponse struct {
	ID           string `json:"id"`
	CheckoutLink string `json:"checkoutLink"`
	Status       string `json:"status"`
}

func (c *coinsnapClient) headers() map[string]string {
	return map[string]string{
		"X-Api-Key":     c.cfg.APIKey,
		"Authorization": "token " + c.cfg.APIKey,
	}
}

func (c *coinsnapClient) configured() bool {
	return c.cfg.APIKey != "" && c.cfg.StoreID != ""
}

func (c *coinsnapClient) CreateInvoice(ctx context.Context, in InvoiceRequest) (*CreatedInvoice, error) {
	if !c.configured() {
		logger.Error("Coinsnap invoice creation failed: missing API key or store ID",
			"has_api_key", c.cfg.APIKey != "",
			"has_store_id", c.cfg.StoreID != "",
			"form_id", in.FormID,
		)
		return nil, apperrors.ErrMissingCredentials(string(models.ProviderCoinsnap))
	}
	if !c.SupportsCurrency(in.Currency) {
		logger.Error("Unsupported currency for Coinsnap", "currency", in.Currency, "form_id", in.FormID)
		return nil, apperrors.ErrUnsupportedCurrency(in.Currency.String(), string(models.ProviderCoinsnap))
	}

	// Процессор ждет основные единицы, внутренний масштаб всегда x100
	payload := coinsnapInvoicePayload{
		Amount:      json.Number(pricing.FromMinorUnits(in.AmountMinor).String()),
		Currency:    in.Currency.String(),
		BuyerEmail:  in.Customer.Email,
		RedirectURL: in.RedirectURL,
		Metadata: map[string]any{
			"form_id":        in.FormID,
			"email":          in.Customer.Email,
			"transaction_id": in.TransactionID,
			"invoice_number": in.Customer.InvoiceNumber,
		},
		Checkout: map[string]string{"defaultPaymentMethod": "LightningNetwork"},
	}

	storeID := url.PathEscape(c.cfg.StoreID)
	var created *CreatedInvoice
	var lastErr error
	for _, path := range coinsnapInvoicePaths {
		endpoint := c.cfg.APIBase + fmt.Sprintf(path, storeID)

		var resp coinsnapInvoiceResponse
		if err := c.req.doJSON(ctx, "create_invoice", http.MethodPost, endpoint, c.headers(), payload, &resp); err != nil {
			lastErr = err
			continue
		}
		if resp.ID == "" || resp.CheckoutLink == "" {
			lastErr = apperrors.ErrInvalidResponse(fmt.Errorf("missing id or checkoutLink"), string(models.ProviderCoinsnap))
			logger.Warn("Coinsnap invoice creation: incomplete response", "url", endpoint, "form_id", in.FormID)
			continue
		}
		created = &CreatedInvoice{InvoiceID: resp.ID, PaymentURL: resp.CheckoutLink}
		break
	}

	if created == nil {
		logger.Error("Coinsnap invoice creation failed: all endpoints failed",
			"form_id", in.FormID,
			"amount", in.AmountMinor,
			"currency", in.Currency,
			"error", lastErr,
		)
		return nil, lastErr
	}

	logger.Info("Coinsnap invoice created",
		"invoice_id", created.InvoiceID,
		"form_id", in.FormID,
		"amount", in.AmountMinor,
		"currency", in.Currency,
	)
	return created, nil
}

func (c *coinsnapClient) CheckStatus(ctx context.Context, invoiceID string) (*InvoiceStatus, error) {
	if !c.configured() {
		return nil, apperrors.ErrMissingCredentials(string(models.ProviderCoinsnap))
	}

	urls := make([]string, 0, len(coinsnapStatusPaths))
	for _, path := range coinsnapStatusPaths {
		urls = append(urls, c.cfg.APIBase+fmt.Sprintf(path, url.PathEscape(c.cfg.StoreID), url.PathEscape(invoiceID)))
	}

	var status *InvoiceStatus
	err := firstSuccessful(string(models.ProviderCoinsnap), urls, func(endpoint string) error {
		var resp coinsnapInvoiceResponse
		if err := c.req.doJSON(ctx, "check_status", http.MethodGet, endpoint, c.headers(), nil, &resp); err != nil {
			return err
		}
		raw := resp.Status
		if raw == "" {
			raw = "unknown"
		}
		status = &InvoiceStatus{InvoiceID: invoiceID, Paid: IsPaidStatus(raw), RawStatus: raw}
		return nil
	})
	if err != nil {
		logger.Error("Coinsnap invoice status check failed", "invoice_id", invoiceID, "error", err)
		return nil, err
	}
	return status, nil
}

func (c *coinsnapClient) ParseWebhook(raw []byte) (*WebhookResult, error) {
	return parseWebhook(string(models.ProviderCoinsnap), raw)
}

func (c *coinsnapClient) VerifySignature(raw []byte, headers http.Header) bool {
	return VerifyHMAC(c.cfg.WebhookSecret, raw, headers, coinsnapSignatureHeaders...)
}

package providers

import (
	"context"
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

var btcpaySignatureHeaders = []string{"BTCPay-Sig", "BTCPay-Signature"}

type btcpayClient struct {
	cfg config.BTCPayConfig
	req requester
}

// NewBTCPayClient - клиент Greenfield API сервера BTCPay
func NewBTCPayClient(cfg config.BTCPayConfig, httpClient *http.Client) Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(DefaultTimeout)
	}
	cfg.Host = strings.TrimRight(cfg.Host, "/")
	return &btcpayClient{
		cfg: cfg,
		req: requester{provider: string(models.ProviderBTCPay), client: httpClient},
	}
}

func (c *btcpayClient) Name() models.ProviderName {
	return models.ProviderBTCPay
}

// SupportsCurrency: сервер сам конвертирует фиат, ограничиваемся перечислением
func (c *btcpayClient) SupportsCurrency(currency models.Currency) bool {
	return currency.Valid()
}

type btcpayInvoicePayload struct {
	Amount   string         `json:"amount"`
	Currency string         `json:"currency"`
	Metadata map[string]any `json:"metadata"`
	Checkout map[string]any `json:"checkout,omitempty"`
}

type btcpayInvoiceResponse struct {
	ID           string `json:"id"`
	CheckoutLink string `json:"checkoutLink"`
	Status       string `json:"status"`
}

func (c *btcpayClient) configured() bool {
	return c.cfg.Host != "" && c.cfg.APIKey != "" && c.cfg.StoreID != ""
}

func (c *btcpayClient) headers() map[string]string {
	return map[string]string{"Authorization": "token " + c.cfg.APIKey}
}

func (c *btcpayClient) invoicesURL() string {
	return c.cfg.Host + fmt.Sprintf("/api/v1/stores/%s/invoices", url.PathEscape(c.cfg.StoreID))
}

func (c *btcpayClient) CreateInvoice(ctx context.Context, in InvoiceRequest) (*CreatedInvoice, error) {
	if !c.configured() {
		logger.Error("BTCPay invoice creation failed: missing host, API key or store ID", "form_id", in.FormID)
		return nil, apperrors.ErrMissingCredentials(string(models.ProviderBTCPay))
	}
	if !c.SupportsCurrency(in.Currency) {
		return nil, apperrors.ErrUnsupportedCurrency(in.Currency.String(), string(models.ProviderBTCPay))
	}

	// Для SATS деление на 100 дает целые сатоши, для фиата - основные единицы
	payload := btcpayInvoicePayload{
		Amount:   pricing.FromMinorUnits(in.AmountMinor).String(),
		Currency: in.Currency.String(),
		Metadata: map[string]any{
			"form_id":        in.FormID,
			"email":          in.Customer.Email,
			"buyerEmail":     in.Customer.Email,
			"buyerName":      in.Customer.Name,
			"transaction_id": in.TransactionID,
			"invoice_number": in.Customer.InvoiceNumber,
		},
	}
	if in.RedirectURL != "" {
		payload.Checkout = map[string]any{"redirectURL": in.RedirectURL}
	}

	var resp btcpayInvoiceResponse
	if err := c.req.doJSON(ctx, "create_invoice", http.MethodPost, c.invoicesURL(), c.headers(), payload, &resp); err != nil {
		logger.Error("BTCPay invoice creation failed", "form_id", in.FormID, "error", err)
		return nil, err
	}
	if resp.ID == "" || resp.CheckoutLink == "" {
		return nil, apperrors.ErrInvalidResponse(fmt.Errorf("missing id or checkoutLink"), string(models.ProviderBTCPay))
	}

	logger.Info("BTCPay invoice created",
		"invoice_id", resp.ID,
		"form_id", in.FormID,
		"amount", in.AmountMinor,
		"currency", in.Currency,
	)
	return &CreatedInvoice{InvoiceID: resp.ID, PaymentURL: resp.CheckoutLink}, nil
}

func (c *btcpayClient) CheckStatus(ctx context.Context, invoiceID string) (*InvoiceStatus, error) {
	if !c.configured() {
		return nil, apperrors.ErrMissingCredentials(string(models.ProviderBTCPay))
	}

	endpoint := c.invoicesURL() + "/" + url.PathEscape(invoiceID)
	var status *InvoiceStatus
	err := firstSuccessful(string(models.ProviderBTCPay), []string{endpoint}, func(endpoint string) error {
		var resp btcpayInvoiceResponse
		if err := c.req.doJSON(ctx, "check_status", http.MethodGet, endpoint, c.headers(), nil, &resp); err != nil {
			return err
		}
		status = &InvoiceStatus{InvoiceID: invoiceID, Paid: IsPaidStatus(resp.Status), RawStatus: resp.Status}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

func (c *btcpayClient) ParseWebhook(raw []byte) (*WebhookResult, error) {
	return parseWebhook(string(models.ProviderBTCPay), raw)
}

func (c *btcpayClient) VerifySignature(raw []byte, headers http.Header) bool {
	return VerifyHMAC(c.cfg.WebhookSecret, raw, headers, btcpaySignatureHeaders...)
}

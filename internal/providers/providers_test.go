package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bif_backend/internal/config"
	"bif_backend/internal/models"
	"bif_backend/pkg/apperrors"
)

func coinsnapFor(srv *httptest.Server) Client {
	return NewCoinsnapClient(config.CoinsnapConfig{
		APIKey:        "key",
		StoreID:       "store",
		APIBase:       srv.URL + "/",
		WebhookSecret: "secret",
	}, srv.Client())
}

func btcpayFor(srv *httptest.Server) Client {
	return NewBTCPayClient(config.BTCPayConfig{
		Host:          srv.URL,
		APIKey:        "key",
		StoreID:       "store",
		WebhookSecret: "secret",
	}, srv.Client())
}

func sampleRequest(amount int64, currency models.Currency) InvoiceRequest {
	return InvoiceRequest{
		FormID:        7,
		TransactionID: "bif_1700000000_abcdefgh",
		AmountMinor:   amount,
		Currency:      currency,
		Customer:      Customer{Name: "Jane", Email: "jane@example.com"},
	}
}

func TestCoinsnap_CreateInvoice_SendsMajorUnitsAndHeaders(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/stores/store/invoices", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "token key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"id":"inv_1","checkoutLink":"https://pay/inv_1"}`))
	}))
	defer srv.Close()

	created, err := coinsnapFor(srv).CreateInvoice(context.Background(), sampleRequest(5000, models.CurrencySATS))
	require.NoError(t, err)
	assert.Equal(t, "inv_1", created.InvoiceID)
	assert.Equal(t, "https://pay/inv_1", created.PaymentURL)

	assert.Equal(t, float64(50), got["amount"])
	assert.Equal(t, "SATS", got["currency"])
	assert.Equal(t, "jane@example.com", got["buyerEmail"])
	checkout := got["checkout"].(map[string]any)
	assert.Equal(t, "LightningNetwork", checkout["defaultPaymentMethod"])
}

func TestCoinsnap_CreateInvoice_FallsBackToAlternatePath(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path == "/api/v1/stores/store/invoices" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		assert.Equal(t, "/api/stores/store/invoices", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"inv_2","checkoutLink":"https://pay/inv_2"}`))
	}))
	defer srv.Close()

	created, err := coinsnapFor(srv).CreateInvoice(context.Background(), sampleRequest(9000, models.CurrencyUSD))
	require.NoError(t, err)
	assert.Equal(t, "inv_2", created.InvoiceID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCoinsnap_CreateInvoice_IncompleteResponseIsInvalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"inv_3"}`))
	}))
	defer srv.Close()

	_, err := coinsnapFor(srv).CreateInvoice(context.Background(), sampleRequest(9000, models.CurrencyUSD))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidResponse))
}

func TestCoinsnap_CreateInvoice_FailsFastWithoutNetwork(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	_, err := coinsnapFor(srv).CreateInvoice(context.Background(), sampleRequest(9000, models.CurrencyRUB))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnsupportedCurrency))

	noCreds := NewCoinsnapClient(config.CoinsnapConfig{APIBase: srv.URL}, srv.Client())
	_, err = noCreds.CreateInvoice(context.Background(), sampleRequest(9000, models.CurrencyUSD))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeMissingCredentials))

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestCoinsnap_CheckStatus(t *testing.T) {
	t.Run("first path wins", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/stores/store/invoices/inv_1", r.URL.Path)
			_, _ = w.Write([]byte(`{"id":"inv_1","status":"Settled"}`))
		}))
		defer srv.Close()

		status, err := coinsnapFor(srv).CheckStatus(context.Background(), "inv_1")
		require.NoError(t, err)
		assert.True(t, status.Paid)
		assert.Equal(t, "Settled", status.RawStatus)
	})

	t.Run("fallback path", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/v1/stores/store/invoices/inv_1" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(`{"id":"inv_1","status":"New"}`))
		}))
		defer srv.Close()

		status, err := coinsnapFor(srv).CheckStatus(context.Background(), "inv_1")
		require.NoError(t, err)
		assert.False(t, status.Paid)
		assert.Equal(t, "New", status.RawStatus)
	})

	t.Run("all endpoints failed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := coinsnapFor(srv).CheckStatus(context.Background(), "inv_1")
		assert.True(t, apperrors.HasCode(err, apperrors.CodeAllEndpointsFailed))
	})
}

func TestBTCPay_CreateInvoice_SatsDividedBy100(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/stores/store/invoices", r.URL.Path)
		assert.Equal(t, "token key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"id":"bp_1","checkoutLink":"https://btcpay/i/bp_1"}`))
	}))
	defer srv.Close()

	created, err := btcpayFor(srv).CreateInvoice(context.Background(), sampleRequest(5000, models.CurrencySATS))
	require.NoError(t, err)
	assert.Equal(t, "bp_1", created.InvoiceID)
	assert.Equal(t, "50", got["amount"])

	_, err = btcpayFor(srv).CreateInvoice(context.Background(), sampleRequest(1699, models.CurrencyEUR))
	require.NoError(t, err)
	assert.Equal(t, "16.99", got["amount"])
}

func TestBTCPay_ErrorsAreClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte(`not json`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := btcpayFor(srv)
	_, err := client.CreateInvoice(context.Background(), sampleRequest(100, models.CurrencyUSD))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidResponse))

	_, err = client.CheckStatus(context.Background(), "bp_1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNetworkError))

	noHost := NewBTCPayClient(config.BTCPayConfig{APIKey: "k", StoreID: "s"}, nil)
	_, err = noHost.CheckStatus(context.Background(), "bp_1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeMissingCredentials))
}

func TestParseWebhook(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		paid    bool
		wantErr bool
	}{
		{"settled", `{"invoiceId":"i1","type":"InvoiceSettled"}`, true, false},
		{"payment received", `{"invoiceId":"i1","type":"PaymentReceived","extra":1}`, true, false},
		{"invoice paid", `{"invoiceId":"i1","type":"InvoicePaid"}`, true, false},
		{"expired", `{"invoiceId":"i1","type":"InvoiceExpired"}`, false, false},
		{"missing id", `{"type":"InvoiceSettled"}`, false, true},
		{"garbage", `{{`, false, true},
	}

	client := NewCoinsnapClient(config.CoinsnapConfig{}, nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := client.ParseWebhook([]byte(tc.body))
			if tc.wantErr {
				assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidResponse))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "i1", res.InvoiceID)
			assert.Equal(t, tc.paid, res.Paid)
		})
	}
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"invoiceId":"i1","type":"InvoiceSettled"}`)
	sig := ComputeSignature("secret", body)
	client := NewCoinsnapClient(config.CoinsnapConfig{WebhookSecret: "secret"}, nil)

	t.Run("prefixed header", func(t *testing.T) {
		h := http.Header{}
		h.Set("BTCPay-Sig", "sha256="+sig)
		assert.True(t, client.VerifySignature(body, h))
	})

	t.Run("bare hex in alternate header", func(t *testing.T) {
		h := http.Header{}
		h.Set("X-Coinsnap-Signature", sig)
		assert.True(t, client.VerifySignature(body, h))
	})

	t.Run("mutated body", func(t *testing.T) {
		h := http.Header{}
		h.Set("BTCPay-Sig", "sha256="+sig)
		mutated := append([]byte{}, body...)
		mutated[len(mutated)-2] = 'X'
		assert.False(t, client.VerifySignature(mutated, h))
	})

	t.Run("no header", func(t *testing.T) {
		assert.False(t, client.VerifySignature(body, http.Header{}))
	})

	t.Run("empty secret", func(t *testing.T) {
		h := http.Header{}
		h.Set("BTCPay-Sig", "sha256="+ComputeSignature("", body))
		noSecret := NewCoinsnapClient(config.CoinsnapConfig{}, nil)
		assert.False(t, noSecret.VerifySignature(body, h))
	})
}

func TestRegistry_Resolve(t *testing.T) {
	reg := NewRegistry(config.ProvidersConfig{Default: "btcpay"})

	assert.Equal(t, models.ProviderBTCPay, reg.Resolve("").Name())
	assert.Equal(t, models.ProviderCoinsnap, reg.Resolve(" Coinsnap ").Name())
	assert.Equal(t, models.ProviderBTCPay, reg.Resolve("stripe").Name())

	fallback := NewRegistry(config.ProvidersConfig{Default: "unknown"})
	assert.Equal(t, models.ProviderCoinsnap, fallback.Resolve("").Name())

	btcpayOnly := NewRegistryWith("", NewBTCPayClient(config.BTCPayConfig{}, nil))
	require.NotNil(t, btcpayOnly.Resolve(""))
	assert.Equal(t, models.ProviderBTCPay, btcpayOnly.Resolve("").Name())
	assert.Equal(t, models.ProviderBTCPay, btcpayOnly.Resolve("coinsnap").Name())

	assert.Nil(t, NewRegistryWith("coinsnap").Resolve(""))

	_, err := reg.ByName("stripe")
	assert.Error(t, err)
	c, err := reg.ByName("btcpay")
	require.NoError(t, err)
	assert.Equal(t, models.ProviderBTCPay, c.Name())
}

package integration_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"bif_backend/internal/models"
	"bif_backend/internal/services/dto"
	"bif_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestHealth(t *testing.T) {
	ts := GetTestServer(t)

	res, body := ts.SendRequest(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, `"database":"ok"`)
	assert.Contains(t, body, "coinsnap")
}

func TestPublicForm(t *testing.T) {
	ts := GetTestServer(t)

	res, body := ts.SendRequest(t, http.MethodGet, "/forms/1", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var form dto.FormResponse
	helpers.ParseResponse(t, body, &form)
	assert.Equal(t, "Consulting", form.Title)
	assert.Equal(t, "90.00", form.PreviewAmount)

	res, _ = ts.SendRequest(t, http.MethodGet, "/forms/99", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestCreateInvoice_PersistsWithDiscount(t *testing.T) {
	ts := GetTestServer(t)

	created := createInvoice(t, ts, customer(1))
	assert.Equal(t, int64(9000), created.AmountMinor)
	assert.Equal(t, "USD", created.Currency)
	assert.Equal(t, "coinsnap", created.Provider)
	assert.Equal(t, "https://shop.example/thanks", created.SuccessPage)
	assert.Regexp(t, `^bif_\d+_[0-9a-f]{8}$`, created.TransactionID)
	assert.Equal(t, "90", ts.Processor.Amount(created.InvoiceID))

	var stored models.Invoice
	require.NoError(t, ts.DB.Where("payment_invoice_id = ?", created.InvoiceID).First(&stored).Error)
	assert.Equal(t, models.PaymentStatusUnpaid, stored.PaymentStatus)
	assert.Equal(t, "203.0.113.7", stored.IP)
	assert.Equal(t, "integration-test", stored.UserAgent)
}

func TestCreateInvoice_Rejections(t *testing.T) {
	ts := GetTestServer(t)
	token := formToken(t, ts, "1")

	t.Run("missing form token", func(t *testing.T) {
		res, _ := ts.SendRequest(t, http.MethodPost, "/payment/create", "", customer(1))
		assert.Equal(t, http.StatusForbidden, res.StatusCode)
	})

	t.Run("token of another form", func(t *testing.T) {
		body := mustJSON(t, customer(2))
		res, _ := ts.Do(t, http.MethodPost, "/payment/create", body, func(h http.Header) {
			h.Set("X-Form-Token", token)
		})
		assert.Equal(t, http.StatusForbidden, res.StatusCode)
	})

	t.Run("negative amount", func(t *testing.T) {
		payload := customer(1)
		payload["amount"] = "-5"
		res, resBody := ts.Do(t, http.MethodPost, "/payment/create", mustJSON(t, payload), func(h http.Header) {
			h.Set("X-Form-Token", token)
		})
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		resp := helpers.ParseResponse(t, resBody, nil)
		assert.False(t, resp.Success)
	})

	var count int64
	ts.DB.Model(&models.Invoice{}).Count(&count)
	assert.Zero(t, count)
}

func TestStatusPolling_ThenWebhook(t *testing.T) {
	ts := GetTestServer(t)
	created := createInvoice(t, ts, customer(1))

	res, body := ts.SendRequest(t, http.MethodGet, "/status/"+created.InvoiceID, "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var status dto.PaymentStatusResponse
	helpers.ParseResponse(t, body, &status)
	assert.False(t, status.Paid)
	assert.Equal(t, "New", status.Status)

	payload := mustJSON(t, map[string]string{"type": "InvoiceSettled", "invoiceId": created.InvoiceID})
	res, body = ts.Do(t, http.MethodPost, "/webhook/coinsnap", payload, helpers.SignedWebhook(payload))
	require.Equal(t, http.StatusOK, res.StatusCode)
	var hook dto.WebhookResponse
	require.NoError(t, json.Unmarshal([]byte(body), &hook))
	assert.True(t, hook.Success)
	assert.Equal(t, "Webhook processed successfully.", hook.Message)

	calls := ts.Processor.StatusCalls()
	res, body = ts.SendRequest(t, http.MethodGet, "/bif/v1/status/"+created.TransactionID, "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	helpers.ParseResponse(t, body, &status)
	assert.True(t, status.Paid)
	assert.Equal(t, "paid", status.Status)
	assert.Equal(t, calls, ts.Processor.StatusCalls(), "paid row must not call the processor")
}

func TestVerifyPayment_MarksPaid(t *testing.T) {
	ts := GetTestServer(t)
	created := createInvoice(t, ts, customer(1))

	ts.Processor.SetStatus(created.InvoiceID, "Settled")

	res, body := ts.SendRequest(t, http.MethodPost, "/verify-payment/"+created.InvoiceID, "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var status dto.PaymentStatusResponse
	helpers.ParseResponse(t, body, &status)
	assert.True(t, status.Paid)

	var stored models.Invoice
	require.NoError(t, ts.DB.Where("payment_invoice_id = ?", created.InvoiceID).First(&stored).Error)
	assert.Equal(t, models.PaymentStatusPaid, stored.PaymentStatus)
	assert.NotNil(t, stored.PaidAt)
}

func TestStatus_UnknownInvoice(t *testing.T) {
	ts := GetTestServer(t)

	res, body := ts.SendRequest(t, http.MethodGet, "/status/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	resp := helpers.ParseResponse(t, body, nil)
	assert.Equal(t, "Transaction not found.", resp.Message)
}

func TestWebhook_AlwaysOK(t *testing.T) {
	ts := GetTestServer(t)
	created := createInvoice(t, ts, customer(1))

	t.Run("bad signature", func(t *testing.T) {
		payload := mustJSON(t, map[string]string{"type": "InvoiceSettled", "invoiceId": created.InvoiceID})
		res, body := ts.Do(t, http.MethodPost, "/webhook/coinsnap", payload, func(h http.Header) {
			h.Set("BTCPay-Sig", "sha256=deadbeef")
		})
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, `"success":false`)
	})

	t.Run("garbage body", func(t *testing.T) {
		payload := []byte("not json")
		res, body := ts.Do(t, http.MethodPost, "/webhook/coinsnap", payload, helpers.SignedWebhook(payload))
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, "Invalid webhook data.")
	})

	var stored models.Invoice
	require.NoError(t, ts.DB.Where("payment_invoice_id = ?", created.InvoiceID).First(&stored).Error)
	assert.Equal(t, models.PaymentStatusUnpaid, stored.PaymentStatus)

	var events int64
	ts.DB.Model(&models.WebhookEvent{}).Count(&events)
	assert.Equal(t, int64(2), events)
}

package integration_test

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bif_backend/internal/services/dto"
	"bif_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminToken(t *testing.T, ts *helpers.TestServer) string {
	t.Helper()
	res, body := ts.SendRequest(t, http.MethodPost, "/admin/login", "", map[string]string{
		"email":    helpers.AdminEmail,
		"password": helpers.AdminPassword,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var login dto.AdminLoginResponse
	helpers.ParseResponse(t, body, &login)
	require.NotEmpty(t, login.AccessToken)
	return login.AccessToken
}

func TestAdminLogin_WrongPassword(t *testing.T) {
	ts := GetTestServer(t)

	res, _ := ts.SendRequest(t, http.MethodPost, "/admin/login", "", map[string]string{
		"email":    helpers.AdminEmail,
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestAdminTransactions_RequireToken(t *testing.T) {
	ts := GetTestServer(t)

	res, _ := ts.SendRequest(t, http.MethodGet, "/admin/transactions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestAdminTransactions_ListStatsExport(t *testing.T) {
	ts := GetTestServer(t)
	token := adminToken(t, ts)

	first := createInvoice(t, ts, customer(1))
	createInvoice(t, ts, customer(1))

	payload := mustJSON(t, map[string]string{"type": "InvoiceSettled", "invoiceId": first.InvoiceID})
	res, _ := ts.Do(t, http.MethodPost, "/webhook/coinsnap", payload, helpers.SignedWebhook(payload))
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, body := ts.SendRequest(t, http.MethodGet, "/admin/transactions?payment_status=paid", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var list dto.TransactionListResponse
	helpers.ParseResponse(t, body, &list)
	require.Equal(t, int64(1), list.Total)
	assert.Equal(t, first.TransactionID, list.Items[0].TransactionID)

	res, body = ts.SendRequest(t, http.MethodGet, "/admin/transactions/"+first.TransactionID, token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var one dto.TransactionResponse
	helpers.ParseResponse(t, body, &one)
	assert.Equal(t, "paid", one.PaymentStatus)

	res, body = ts.SendRequest(t, http.MethodGet, "/admin/transactions/stats", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var stats dto.TransactionStatsResponse
	helpers.ParseResponse(t, body, &stats)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.ByStatus["paid"])
	assert.Equal(t, int64(1), stats.ByStatus["unpaid"])

	res, body = ts.SendRequest(t, http.MethodPost, "/admin/transactions/export", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var export dto.ExportResponse
	helpers.ParseResponse(t, body, &export)
	assert.Equal(t, 2, export.Rows)

	content, err := os.ReadFile(filepath.Join(ts.Config.Storage.BasePath, filepath.FromSlash(export.Key)))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	assert.Len(t, lines, 3)
}

func TestAdminWebhookEvents_List(t *testing.T) {
	ts := GetTestServer(t)
	token := adminToken(t, ts)

	inv := createInvoice(t, ts, customer(1))
	payload := mustJSON(t, map[string]string{"type": "InvoiceSettled", "invoiceId": inv.InvoiceID})
	res, _ := ts.Do(t, http.MethodPost, "/webhook/coinsnap", payload, helpers.SignedWebhook(payload))
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, body := ts.SendRequest(t, http.MethodGet, "/admin/webhook-events?provider=coinsnap&limit=500", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var events []dto.WebhookEventResponse
	helpers.ParseResponse(t, body, &events)

	found := false
	for _, e := range events {
		assert.Equal(t, "coinsnap", e.Provider)
		if e.PaymentInvoiceID == inv.InvoiceID {
			found = true
			assert.True(t, e.SignatureValid)
		}
	}
	assert.True(t, found)

	res, _ = ts.SendRequest(t, http.MethodGet, "/admin/webhook-events?limit=1000", token, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

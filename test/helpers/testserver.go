package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"bif_backend/database"
	"bif_backend/internal/app"
	"bif_backend/internal/auth"
	"bif_backend/internal/config"
	"bif_backend/internal/logger"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	AdminEmail      = "admin@example.com"
	AdminPassword   = "integration-secret"
	WebhookSecret   = "whsec_integration"
	FormTokenSecret = "form-token-secret"
)

// TestServer - приложение целиком поверх sqlite в памяти и фейкового процессора
type TestServer struct {
	Server    *httptest.Server
	DB        *gorm.DB
	App       *app.App
	Processor *FakeProcessor
	Config    *config.Config
}

// Response - конверт ответов API
type Response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

// TestConfig - конфигурация с двумя формами: обычной со скидкой и SATS
func TestConfig(t *testing.T, processorURL string) *config.Config {
	t.Helper()

	hash, err := auth.HashPassword(AdminPassword)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.Env = "test"
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = ":memory:"
	cfg.Providers.Default = "coinsnap"
	cfg.Providers.Coinsnap = config.CoinsnapConfig{
		APIKey:        "test-key",
		StoreID:       "store-1",
		APIBase:       processorURL,
		WebhookSecret: WebhookSecret,
	}
	cfg.Storage.Type = "local"
	cfg.Storage.BaseURL = "/exports"
	cfg.Auth.JWTSecret = "integration-jwt-secret"
	cfg.Auth.AdminEmail = AdminEmail
	cfg.Auth.AdminPasswordHash = hash
	cfg.Auth.FormTokenSecret = FormTokenSecret

	invoiceForm := config.FormConfig{ID: 1, Title: "Consulting", Type: config.FormTypeInvoice, Amount: "100", Currency: "USD"}
	invoiceForm.Discount.Enabled = true
	invoiceForm.Discount.Type = "percent"
	invoiceForm.Discount.Value = "10"
	invoiceForm.Redirect.SuccessPage = "https://shop.example/thanks"
	invoiceForm.Redirect.ThankYouMessage = "Thank you!"

	satsForm := config.FormConfig{ID: 2, Title: "Tip jar", Type: config.FormTypeLegacyInvoice, Currency: "SATS"}

	cfg.Forms = []config.FormConfig{invoiceForm, satsForm}
	cfg.ApplyDefaults()
	return cfg
}

// NewTestServer поднимает фейковый процессор, БД в памяти и HTTP сервер приложения
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	logger.Init("test", "error")

	processor := NewFakeProcessor()
	cfg := TestConfig(t, processor.URL())

	// сервер общий для всех тестов пакета, поэтому не t.TempDir()
	exportDir, err := os.MkdirTemp("", "bif-exports-*")
	require.NoError(t, err)
	cfg.Storage.BasePath = exportDir

	db, err := database.OpenInMemory()
	require.NoError(t, err, "Не удалось открыть тестовую БД")

	application, err := app.New(context.Background(), cfg, db)
	require.NoError(t, err, "Не удалось собрать приложение")

	return &TestServer{
		Server:    httptest.NewServer(application.Router),
		DB:        db,
		App:       application,
		Processor: processor,
		Config:    cfg,
	}
}

func (ts *TestServer) Close() {
	ts.Server.Close()
	ts.Processor.Close()
	ts.App.Close()
	if sqlDB, err := ts.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = os.RemoveAll(ts.Config.Storage.BasePath)
}

// ClearTables очищает таблицы между тестами
func (ts *TestServer) ClearTables(t *testing.T) {
	t.Helper()
	for _, table := range []string{"bif_webhook_events", "bif_invoices"} {
		require.NoError(t, ts.DB.Exec("DELETE FROM "+table).Error)
	}
}

// SendRequest отправляет JSON запрос; token - bearer токен администратора
func (ts *TestServer) SendRequest(t *testing.T, method, path, token string, body interface{}) (*http.Response, string) {
	t.Helper()

	var reqBody []byte
	if body != nil {
		var err error
		if raw, ok := body.([]byte); ok {
			reqBody = raw
		} else {
			reqBody, err = json.Marshal(body)
			require.NoError(t, err, "Ошибка кодирования JSON для запроса")
		}
	}
	return ts.Do(t, method, path, reqBody, func(h http.Header) {
		if token != "" {
			h.Set("Authorization", "Bearer "+token)
		}
	})
}

// Do - низкоуровневый запрос с произвольными заголовками
func (ts *TestServer) Do(t *testing.T, method, path string, body []byte, headers func(http.Header)) (*http.Response, string) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.Server.URL+path, reader)
	require.NoError(t, err, "Ошибка создания HTTP-запроса")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if headers != nil {
		headers(req.Header)
	}

	res, err := ts.Server.Client().Do(req)
	require.NoError(t, err, "Ошибка отправки HTTP-запроса")
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	require.NoError(t, err, "Ошибка чтения тела ответа")
	return res, string(resBody)
}

// ParseResponse разбирает конверт и, если передан data, его содержимое
func ParseResponse(t *testing.T, body string, data interface{}) Response {
	t.Helper()

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(body), &resp), "Некорректный JSON ответа: %s", body)
	if data != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp
}

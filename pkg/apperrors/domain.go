package apperrors

import (
	"fmt"
	"net/http"
)

/*
Фабрики и предопределенные ошибки платежного домена.
Сообщения здесь безопасны для клиента; причина лежит в Err и попадает только в логи.
*/

// --- Создание инвойса ---

var ErrInvalidForm = New(
	CodeInvalidForm,
	"payment",
	"Invalid form ID",
	http.StatusBadRequest,
)

var ErrInvalidAmount = New(
	CodeInvalidAmount,
	"payment",
	"Invalid amount",
	http.StatusBadRequest,
)

// ErrUnsupportedCurrency - валюта вне перечисления или не поддерживается процессором
func ErrUnsupportedCurrency(currency, provider string) *AppError {
	return New(CodeUnsupportedCurrency, "payment", "Unsupported currency", http.StatusBadRequest).
		WithDetails(map[string]string{"currency": currency, "provider": provider})
}

// ErrPersistence - запись в БД не удалась (в т.ч. после успешного вызова процессора)
func ErrPersistence(err error) *AppError {
	return Wrap(err, CodePersistenceError, "payment", "Failed to save transaction", http.StatusInternalServerError)
}

// --- Провайдеры ---

func ErrMissingCredentials(provider string) *AppError {
	return New(CodeMissingCredentials, "provider", fmt.Sprintf("%s is not configured", provider), http.StatusServiceUnavailable)
}

func ErrNetwork(err error, provider string) *AppError {
	return Wrap(err, CodeNetworkError, "provider", fmt.Sprintf("%s request failed", provider), http.StatusBadGateway)
}

func ErrInvalidResponse(err error, provider string) *AppError {
	return Wrap(err, CodeInvalidResponse, "provider", fmt.Sprintf("%s returned an invalid response", provider), http.StatusBadGateway)
}

func ErrAllEndpointsFailed(err error, provider string) *AppError {
	return Wrap(err, CodeAllEndpointsFailed, "provider", fmt.Sprintf("all %s endpoints failed", provider), http.StatusBadGateway)
}

// --- Вебхуки и сверка ---

func ErrSignatureInvalid(provider string) *AppError {
	return New(CodeSignatureInvalid, "webhook", fmt.Sprintf("invalid %s webhook signature", provider), http.StatusUnauthorized)
}

func ErrInvoiceNotFound(invoiceID string) *AppError {
	return New(CodeNotFound, "payment", "Transaction not found", http.StatusNotFound).
		WithDetails(map[string]string{"invoice_id": invoiceID})
}

// ErrNotFound - общая фабрика для gorm.ErrRecordNotFound и сентинелов репозиториев
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

func ErrDatabase(err error) *AppError {
	return Wrap(err, CodeDatabaseError, "database", "Database error", http.StatusInternalServerError)
}

var ErrInvalidAdminCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

package apperrors

// ErrorCode - тип для кодов ошибок
type ErrorCode string

// Общие коды
const (
	CodeInternalError        ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"

	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeInvalidStatus    ErrorCode = "INVALID_STATUS"

	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeInvalidToken       ErrorCode = "INVALID_TOKEN"
)

// Коды платежного ядра (создание инвойса, провайдеры, вебхуки)
const (
	CodeInvalidForm         ErrorCode = "INVALID_FORM"
	CodeInvalidAmount       ErrorCode = "INVALID_AMOUNT"
	CodeUnsupportedCurrency ErrorCode = "UNSUPPORTED_CURRENCY"
	CodeMissingCredentials  ErrorCode = "MISSING_CREDENTIALS"
	CodeNetworkError        ErrorCode = "NETWORK_ERROR"
	CodeInvalidResponse     ErrorCode = "INVALID_RESPONSE"
	CodeAllEndpointsFailed  ErrorCode = "ALL_ENDPOINTS_FAILED"
	CodeSignatureInvalid    ErrorCode = "SIGNATURE_INVALID"
	CodePersistenceError    ErrorCode = "PERSISTENCE_ERROR"
)

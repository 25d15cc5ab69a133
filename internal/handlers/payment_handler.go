package handlers

import (
	"net/http"

	"bif_backend/internal/middleware"
	"bif_backend/internal/models"
	"bif_backend/internal/services"
	"bif_backend/internal/services/dto"
	"bif_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

const (
	msgCreateFailed   = "An error occurred while creating the invoice."
	msgProviderFailed = "Failed to create payment invoice."
	msgSaveFailed     = "Failed to save transaction."
	msgStatusFailed   = "An error occurred while checking payment status."
	msgNotFound       = "Transaction not found."
)

type PaymentHandler struct {
	*BaseHandler
	paymentService services.PaymentService
	authService    services.AuthService
}

func NewPaymentHandler(base *BaseHandler, paymentService services.PaymentService, authService services.AuthService) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:    base,
		paymentService: paymentService,
		authService:    authService,
	}
}

func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/payment/create", middleware.FormTokenMiddleware(h.authService), h.CreatePayment)
	r.GET("/status/:invoiceId", h.GetStatus)
	r.POST("/verify-payment/:invoiceId", h.VerifyPayment)
}

// CreatePayment godoc
// @Summary Создать инвойс для формы
// @Description Считает сумму формы (скидка только из настроек формы), создает инвойс у процессора и сохраняет транзакцию
// @Tags payment
// @Accept json
// @Produce json
// @Param X-Form-Token header string false "Токен формы (если включен)"
// @Param request body dto.CreateInvoiceRequest true "Данные формы"
// @Success 200 {object} Response{data=dto.CreateInvoiceResponse}
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Failure 502 {object} apperrors.ErrorResponse
// @Router /payment/create [post]
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !h.BindAndValidate(c, &req) {
		return
	}

	meta := dto.ClientMeta{IP: ClientIP(c), UserAgent: c.Request.UserAgent()}
	resp, err := h.paymentService.CreateInvoice(c.Request.Context(), h.GetDB(c), &req, meta)
	if err != nil {
		h.RespondWithMessage(c, err, creationMessage(err))
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: resp})
}

// creationMessage - текст для покупателя; причина остается в логах
func creationMessage(err error) string {
	switch apperrors.CodeOf(err) {
	case apperrors.CodeInvalidForm:
		return "Invalid form ID."
	case apperrors.CodeInvalidAmount:
		return "Invalid amount."
	case apperrors.CodeUnsupportedCurrency:
		return "Unsupported currency."
	case apperrors.CodeMissingCredentials,
		apperrors.CodeNetworkError,
		apperrors.CodeInvalidResponse,
		apperrors.CodeAllEndpointsFailed:
		return msgProviderFailed
	case apperrors.CodePersistenceError:
		return msgSaveFailed
	default:
		return msgCreateFailed
	}
}

// GetStatus godoc
// @Summary Статус оплаты инвойса
// @Description Локально оплаченный инвойс отвечает сразу, иначе статус запрашивается у процессора
// @Tags payment
// @Produce json
// @Param invoiceId path string true "ID инвойса процессора или transaction_id"
// @Success 200 {object} Response{data=dto.PaymentStatusResponse}
// @Failure 404 {object} apperrors.ErrorResponse
// @Failure 502 {object} apperrors.ErrorResponse
// @Router /status/{invoiceId} [get]
func (h *PaymentHandler) GetStatus(c *gin.Context) {
	h.respondStatus(c, models.SourcePoll)
}

// VerifyPayment godoc
// @Summary Принудительная сверка оплаты
// @Description То же, что status, но всегда спрашивает процессор (кэш не используется)
// @Tags payment
// @Produce json
// @Param invoiceId path string true "ID инвойса процессора или transaction_id"
// @Success 200 {object} Response{data=dto.PaymentStatusResponse}
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /verify-payment/{invoiceId} [post]
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	h.respondStatus(c, models.SourceManualVerify)
}

func (h *PaymentHandler) respondStatus(c *gin.Context, source models.PaymentSource) {
	ref := c.Param("invoiceId")

	var (
		status *dto.PaymentStatusResponse
		err    error
	)
	if source == models.SourceManualVerify {
		status, err = h.paymentService.VerifyPayment(c.Request.Context(), h.GetDB(c), ref)
	} else {
		status, err = h.paymentService.CheckStatus(c.Request.Context(), h.GetDB(c), ref, source)
	}
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			h.RespondWithMessage(c, err, msgNotFound)
			return
		}
		h.RespondWithMessage(c, err, msgStatusFailed)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: status})
}

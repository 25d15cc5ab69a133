package handlers

import (
	"io"
	"net/http"

	"bif_backend/internal/logger"
	"bif_backend/internal/services"
	"bif_backend/internal/services/dto"
	"bif_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// maxWebhookBody - процессоры шлют небольшие JSON, больше не читаем
const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	*BaseHandler
	paymentService services.PaymentService
}

func NewWebhookHandler(base *BaseHandler, paymentService services.PaymentService) *WebhookHandler {
	return &WebhookHandler{BaseHandler: base, paymentService: paymentService}
}

func (h *WebhookHandler) RegisterRoutes(r *gin.RouterGroup) {
	webhooks := r.Group("/webhook")
	{
		webhooks.POST("/coinsnap", h.Coinsnap)
		webhooks.POST("/btcpay", h.BTCPay)
	}
}

// Coinsnap godoc
// @Summary Вебхук Coinsnap
// @Description Подпись HMAC-SHA256 по сырому телу. Всегда отвечает 200, результат в поле success
// @Tags webhook
// @Accept json
// @Produce json
// @Success 200 {object} dto.WebhookResponse
// @Router /webhook/coinsnap [post]
func (h *WebhookHandler) Coinsnap(c *gin.Context) {
	h.handle(c, "coinsnap")
}

// BTCPay godoc
// @Summary Вебхук BTCPay Server
// @Tags webhook
// @Accept json
// @Produce json
// @Success 200 {object} dto.WebhookResponse
// @Router /webhook/btcpay [post]
func (h *WebhookHandler) BTCPay(c *gin.Context) {
	h.handle(c, "btcpay")
}

// handle отвечает 200 на любой исход, чтобы процессор не повторял доставку бесконечно
func (h *WebhookHandler) handle(c *gin.Context, provider string) {
	ctx := c.Request.Context()

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		logger.CtxWithError(ctx, "Failed to read webhook body", err, "provider", provider)
		c.JSON(http.StatusOK, dto.WebhookResponse{Success: false, Message: "Invalid webhook data."})
		return
	}

	_, err = h.paymentService.HandleWebhook(ctx, h.GetDB(c), provider, raw, c.Request.Header)
	if err != nil {
		c.JSON(http.StatusOK, dto.WebhookResponse{Success: false, Message: webhookMessage(err)})
		return
	}

	c.JSON(http.StatusOK, dto.WebhookResponse{Success: true, Message: "Webhook processed successfully."})
}

func webhookMessage(err error) string {
	switch apperrors.CodeOf(err) {
	case apperrors.CodeSignatureInvalid:
		return "Invalid webhook signature."
	case apperrors.CodeInvalidResponse:
		return "Invalid webhook data."
	case apperrors.CodeNotFound:
		return "Transaction not found."
	default:
		return "An error occurred while processing the webhook."
	}
}

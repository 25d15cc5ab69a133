package handlers

import (
	"net/http"

	"bif_backend/internal/logger"
	"bif_backend/internal/middleware"
	"bif_backend/internal/repositories"
	"bif_backend/internal/services"
	"bif_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	*BaseHandler
	authService        services.AuthService
	transactionService services.TransactionService
}

func NewAdminHandler(base *BaseHandler, authService services.AuthService, transactionService services.TransactionService) *AdminHandler {
	return &AdminHandler{
		BaseHandler:        base,
		authService:        authService,
		transactionService: transactionService,
	}
}

func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/admin/login", h.Login)

	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(h.authService))
	{
		admin.GET("/transactions", h.ListTransactions)
		admin.GET("/transactions/stats", h.GetStats)
		admin.GET("/transactions/:id", h.GetTransaction)
		admin.POST("/transactions/export", h.ExportTransactions)
		admin.GET("/webhook-events", h.ListWebhookEvents)
	}
}

// Login godoc
// @Summary Вход администратора
// @Tags admin
// @Accept json
// @Produce json
// @Param request body dto.AdminLoginRequest true "Email и пароль"
// @Success 200 {object} Response{data=dto.AdminLoginResponse}
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /admin/login [post]
func (h *AdminHandler) Login(c *gin.Context) {
	var req dto.AdminLoginRequest
	if !h.BindAndValidate(c, &req) {
		return
	}

	resp, err := h.authService.AdminLogin(&req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: resp})
}

// ListTransactions godoc
// @Summary Список транзакций
// @Description Фильтр по статусу, форме, процессору, email и датам; сортировка по created_at desc
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param payment_status query string false "unpaid, paid, failed, refunded"
// @Param form_id query int false "ID формы"
// @Param provider query string false "coinsnap или btcpay"
// @Param email query string false "Email покупателя"
// @Param date_from query string false "YYYY-MM-DD"
// @Param date_to query string false "YYYY-MM-DD"
// @Param page query int false "Страница"
// @Param page_size query int false "Размер страницы"
// @Success 200 {object} Response{data=dto.TransactionListResponse}
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /admin/transactions [get]
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	var criteria repositories.InvoiceCriteria
	if !h.BindAndValidateQuery(c, &criteria) {
		return
	}

	list, err := h.transactionService.List(h.GetDB(c), criteria)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: list})
}

// GetTransaction godoc
// @Summary Одна транзакция
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Внутренний id, id инвойса процессора или transaction_id"
// @Success 200 {object} Response{data=dto.TransactionResponse}
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /admin/transactions/{id} [get]
func (h *AdminHandler) GetTransaction(c *gin.Context) {
	tx, err := h.transactionService.Get(h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: tx})
}

// GetStats godoc
// @Summary Количество транзакций по статусам
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=dto.TransactionStatsResponse}
// @Router /admin/transactions/stats [get]
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.transactionService.Stats(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: stats})
}

// ExportTransactions godoc
// @Summary Выгрузка транзакций в CSV
// @Description Файл сохраняется в настроенное хранилище (локально, S3 или R2), в ответе ключ и ссылка
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param payment_status query string false "Фильтр статуса"
// @Param form_id query int false "ID формы"
// @Success 200 {object} Response{data=dto.ExportResponse}
// @Router /admin/transactions/export [post]
func (h *AdminHandler) ExportTransactions(c *gin.Context) {
	var criteria repositories.InvoiceCriteria
	if !h.BindAndValidateQuery(c, &criteria) {
		return
	}

	export, err := h.transactionService.ExportCSV(c.Request.Context(), h.GetDB(c), criteria)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	logger.CtxInfo(c.Request.Context(), "Admin export requested",
		"admin", middleware.GetAdminEmail(c),
		"rows", export.Rows,
	)
	c.JSON(http.StatusOK, Response{Success: true, Data: export})
}

// ListWebhookEvents godoc
// @Summary Журнал входящих вебхуков
// @Description Последние доставки с результатом обработки и проверкой подписи
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param provider query string false "coinsnap или btcpay"
// @Param limit query int false "Сколько записей (по умолчанию 50)"
// @Success 200 {object} Response{data=[]dto.WebhookEventResponse}
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /admin/webhook-events [get]
func (h *AdminHandler) ListWebhookEvents(c *gin.Context) {
	var criteria dto.WebhookEventCriteria
	if !h.BindAndValidateQuery(c, &criteria) {
		return
	}

	events, err := h.transactionService.WebhookEvents(h.GetDB(c), criteria)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: events})
}

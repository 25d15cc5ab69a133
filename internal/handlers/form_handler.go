package handlers

import (
	"net/http"
	"strconv"

	"bif_backend/internal/services"
	"bif_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type FormHandler struct {
	*BaseHandler
	formService services.FormService
	authService services.AuthService
}

func NewFormHandler(base *BaseHandler, formService services.FormService, authService services.AuthService) *FormHandler {
	return &FormHandler{BaseHandler: base, formService: formService, authService: authService}
}

func (h *FormHandler) RegisterRoutes(r *gin.RouterGroup) {
	forms := r.Group("/forms")
	{
		forms.GET("/:formId", h.GetForm)
		forms.GET("/:formId/token", h.IssueToken)
	}
}

func parseFormID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("formId"), 10, 64)
	if err != nil || id == 0 {
		apperrors.HandleError(c, apperrors.ErrInvalidForm)
		return 0, false
	}
	return id, true
}

// GetForm godoc
// @Summary Публичная конфигурация формы
// @Description Сумма, валюта, скидка и предпросмотр итоговой суммы, посчитанный сервером
// @Tags forms
// @Produce json
// @Param formId path int true "ID формы"
// @Success 200 {object} Response{data=dto.FormResponse}
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /forms/{formId} [get]
func (h *FormHandler) GetForm(c *gin.Context) {
	formID, ok := parseFormID(c)
	if !ok {
		return
	}

	form, err := h.formService.GetPublicForm(formID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: form})
}

// IssueToken godoc
// @Summary Выдать токен формы
// @Description Короткоживущий токен для заголовка X-Form-Token при создании инвойса
// @Tags forms
// @Produce json
// @Param formId path int true "ID формы"
// @Success 200 {object} Response{data=dto.FormTokenResponse}
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /forms/{formId}/token [get]
func (h *FormHandler) IssueToken(c *gin.Context) {
	formID, ok := parseFormID(c)
	if !ok {
		return
	}

	token, err := h.authService.IssueFormToken(formID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, Response{Success: true, Data: token})
}

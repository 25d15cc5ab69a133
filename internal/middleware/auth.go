package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	"bif_backend/internal/auth"
	"bif_backend/internal/logger"
	"bif_backend/pkg/apperrors"
	"bif_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// FormTokenHeader - заголовок с токеном формы
const FormTokenHeader = "X-Form-Token"

const maxPeekBody = 64 << 10

// AdminTokenValidator - часть AuthService, нужная middleware
type AdminTokenValidator interface {
	ValidateAdminToken(token string) (*auth.Claims, error)
}

type FormTokenValidator interface {
	FormTokenRequired() bool
	ValidateFormToken(token string, formID uint64) error
}

// AuthMiddleware - проверка admin JWT из заголовка Authorization
func AuthMiddleware(validator AdminTokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authorization header missing or invalid"))
			c.Abort()
			return
		}

		claims, err := validator.ValidateAdminToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			logger.CtxWarn(c.Request.Context(), "Admin token rejected", "ip", c.ClientIP(), "error", err)
			apperrors.HandleError(c, err)
			c.Abort()
			return
		}

		c.Set(string(contextkeys.AdminEmailKey), claims.Email)
		c.Next()
	}
}

// FormTokenMiddleware проверяет токен формы до разбора тела хендлером.
// Тело читается и возвращается обратно, чтобы ShouldBind увидел его целиком.
func FormTokenMiddleware(validator FormTokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !validator.FormTokenRequired() {
			c.Next()
			return
		}

		formID, err := peekFormID(c)
		if err != nil {
			apperrors.HandleError(c, apperrors.ErrInvalidForm)
			c.Abort()
			return
		}

		if err := validator.ValidateFormToken(c.GetHeader(FormTokenHeader), formID); err != nil {
			logger.CtxWarn(c.Request.Context(), "Form token rejected", "form_id", formID, "ip", c.ClientIP())
			apperrors.HandleError(c, err)
			c.Abort()
			return
		}

		c.Set(string(contextkeys.FormIDKey), formID)
		c.Next()
	}
}

func peekFormID(c *gin.Context) (uint64, error) {
	if c.ContentType() != binding.MIMEJSON {
		return parseFormID(c.PostForm("form_id"))
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPeekBody))
	if err != nil {
		return 0, err
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	var probe struct {
		FormID json.Number `json:"form_id"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return 0, err
	}
	return parseFormID(probe.FormID.String())
}

func parseFormID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, errors.New("form_id must be positive")
	}
	return id, nil
}

// GetAdminEmail извлекает email администратора из контекста
func GetAdminEmail(c *gin.Context) string {
	email, exists := c.Get(string(contextkeys.AdminEmailKey))
	if !exists {
		return ""
	}
	s, _ := email.(string)
	return s
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"bif_backend/internal/models"

	"github.com/gin-gonic/gin"
)

// HealthCheck - необязательная проверка внешней зависимости (redis, kafka)
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	*BaseHandler
	providers []models.ProviderName
	checks    map[string]HealthCheck
}

func NewHealthHandler(base *BaseHandler, providers []models.ProviderName, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{BaseHandler: base, providers: providers, checks: checks}
}

func (h *HealthHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/health", h.Health)
}

// Health godoc
// @Summary Проверка состояния сервиса
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	components := gin.H{}

	sqlDB, err := h.GetDB(c).DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		status = http.StatusServiceUnavailable
		components["database"] = err.Error()
	} else {
		components["database"] = "ok"
	}

	// внешние зависимости не делают сервис недоступным, только отображаются
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			components[name] = err.Error()
			continue
		}
		components[name] = "ok"
	}

	c.JSON(status, gin.H{
		"status":     http.StatusText(status),
		"providers":  h.providers,
		"components": components,
		"time":       time.Now().UTC(),
	})
}

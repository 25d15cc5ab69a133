package routes

import (
	"bif_backend/internal/handlers"
	"bif_backend/internal/logger"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// APIPrefix - исходное пространство имен REST; те же маршруты доступны и от корня
const APIPrefix = "/bif/v1"

// RegisterRoutes регистрирует все HTTP маршруты.
func RegisterRoutes(ginRouter *gin.Engine, appHandlers *handlers.AppHandlers) {
	appHandlers.HealthHandler.RegisterRoutes(ginRouter)
	ginRouter.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	for _, prefix := range []string{"", APIPrefix} {
		api := ginRouter.Group(prefix)
		{
			appHandlers.PaymentHandler.RegisterRoutes(api)
			appHandlers.WebhookHandler.RegisterRoutes(api)
			appHandlers.FormHandler.RegisterRoutes(api)
			appHandlers.AdminHandler.RegisterRoutes(api)
		}
	}
	logger.Info("HTTP routes registered", "prefixes", []string{"/", APIPrefix})
}

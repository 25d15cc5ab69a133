package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "bif_backend/docs"

	"bif_backend/database"
	"bif_backend/internal/cache"
	"bif_backend/internal/config"
	"bif_backend/internal/email"
	"bif_backend/internal/handlers"
	"bif_backend/internal/logger"
	"bif_backend/internal/middleware"
	"bif_backend/internal/notify"
	"bif_backend/internal/providers"
	"bif_backend/internal/repositories"
	"bif_backend/internal/routes"
	"bif_backend/internal/services"
	"bif_backend/internal/storage"
	"bif_backend/internal/validator"
	"bif_backend/internal/workers"
	"bif_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// App - собранное приложение: сервисы, роутер и ресурсы, которые нужно закрыть
type App struct {
	Config   *config.Config
	DB       *gorm.DB
	Services *services.ServiceContainer
	Router   *gin.Engine

	healthChecks map[string]handlers.HealthCheck
	closers      []func() error
}

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig

	logger.Init(cfg.Server.Env, cfg.Log.Level)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := Bootstrap(ctx, cfg, true)
	if err != nil {
		logger.Fatal("Failed to start application", "error", err)
	}
	defer application.Close()

	application.StartWorkers(ctx)

	if err := application.Serve(ctx); err != nil {
		logger.Fatal("Server error", "error", err)
	}
}

// Bootstrap подключает БД и собирает приложение; используется и сервером, и CLI
func Bootstrap(ctx context.Context, cfg *config.Config, migrate bool) (*App, error) {
	apperrors.DebugErrors = cfg.Server.Env == "development"

	logger.Info("Connecting to database...", "driver", cfg.Database.Driver)
	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database unavailable: %w", err)
	}
	logger.Info("Database connected")

	if migrate {
		if err := database.AutoMigrate(db); err != nil {
			return nil, err
		}
	}

	application, err := New(ctx, cfg, db)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	application.closers = append(application.closers, sqlDB.Close)
	return application, nil
}

// New собирает зависимости вокруг уже открытой БД
func New(ctx context.Context, cfg *config.Config, db *gorm.DB) (*App, error) {
	a := &App{
		Config:       cfg,
		DB:           db,
		healthChecks: map[string]handlers.HealthCheck{},
	}

	storageInstance, err := storage.NewStorage(storage.FromAppConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	a.Services = services.NewServiceContainer(cfg, services.Dependencies{
		Registry:    providers.NewRegistry(cfg.Providers),
		Dispatcher:  a.initNotifiers(cfg),
		StatusCache: a.initStatusCache(ctx, cfg),
		Storage:     storageInstance,
	})

	a.Router = SetupRouter(cfg, db, a.Services, a.healthChecks)
	return a, nil
}

func (a *App) initNotifiers(cfg *config.Config) *notify.Dispatcher {
	var notifiers []notify.Notifier

	if cfg.Email.Enabled {
		provider := email.NewGomailProvider(email.FromAppConfig(cfg))
		if err := provider.Validate(); err != nil {
			logger.Warn("Email notifications disabled: invalid SMTP config", "error", err)
		} else {
			notifiers = append(notifiers, notify.NewEmailNotifier(provider, cfg.Email.AdminEmail, cfg.Server.SiteName))
			logger.Info("Email notifications enabled", "smtp_host", cfg.Email.SMTPHost)
		}
	}

	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) > 0 {
		producer, err := notify.NewKafkaProducer(cfg.Kafka.Brokers, 5, 2*time.Second)
		if err != nil {
			logger.Warn("Kafka notifications disabled", "error", err)
		} else {
			kafkaNotifier := notify.NewKafkaNotifier(producer, cfg.Kafka.Topic)
			notifiers = append(notifiers, kafkaNotifier)
			a.closers = append(a.closers, kafkaNotifier.Close)
		}
	}

	return notify.NewDispatcher(notifiers...)
}

// initStatusCache: без Redis поллинг просто всегда идет в процессор
func (a *App) initStatusCache(ctx context.Context, cfg *config.Config) cache.StatusCache {
	if cfg.Redis.Addr == "" {
		return cache.NewNoopStatusCache()
	}

	client, err := cache.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn("Redis unavailable, status cache disabled", "addr", cfg.Redis.Addr, "error", err)
		return cache.NewNoopStatusCache()
	}
	a.closers = append(a.closers, client.Close)
	a.healthChecks["redis"] = func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
	logger.Info("Redis status cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.StatusTTL)
	return cache.NewRedisStatusCache(client, cfg.Redis.StatusTTL)
}

func SetupRouter(cfg *config.Config, db *gorm.DB, container *services.ServiceContainer, checks map[string]handlers.HealthCheck) *gin.Engine {
	if cfg.Server.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	appHandlers := initializeHandlers(container, checks)

	ginRouter := initializeGinRouter(db)
	routes.RegisterRoutes(ginRouter, appHandlers)
	return ginRouter
}

func initializeHandlers(container *services.ServiceContainer, checks map[string]handlers.HealthCheck) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	return &handlers.AppHandlers{
		PaymentHandler: handlers.NewPaymentHandler(baseHandler, container.PaymentService, container.AuthService),
		WebhookHandler: handlers.NewWebhookHandler(baseHandler, container.PaymentService),
		FormHandler:    handlers.NewFormHandler(baseHandler, container.FormService, container.AuthService),
		AdminHandler:   handlers.NewAdminHandler(baseHandler, container.AuthService, container.TransactionService),
		HealthHandler:  handlers.NewHealthHandler(baseHandler, container.Registry.Names(), checks),
	}
}

func initializeGinRouter(db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DBMiddleware(db))
	return router
}

// StartWorkers запускает фоновые задачи, включенные в конфигурации
func (a *App) StartWorkers(ctx context.Context) {
	w := a.Config.Workers
	if w.ReconcileEnabled {
		workers.NewReconcileWorker(a.DB, a.Services.PaymentService, w.ReconcileInterval, w.ReconcileMaxAge, w.ReconcileBatch).Start(ctx)
	}
	workers.NewRetentionWorker(a.DB, repositories.NewWebhookEventRepository(), w.EventRetention).Start(ctx)
}

// Serve слушает до отмены ctx, затем дожидается активных запросов
func (a *App) Serve(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port)
	srv := &http.Server{
		Addr:              address,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "address", address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close освобождает Kafka, Redis и соединения БД в обратном порядке
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("Failed to close resource", "error", err)
		}
	}
	a.closers = nil
}

package logger

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

var log *slog.Logger

// Init инициализирует глобальный логгер
// env: "development" или "production"; level: debug|info|warn|error (пусто = по env)
func Init(env string, level ...string) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
	}

	if env == "development" {
		opts.Level = slog.LevelDebug
	}
	if len(level) > 0 && level[0] != "" {
		opts.Level = ParseLevel(level[0])
	}

	if env == "development" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log = slog.New(handler)
	slog.SetDefault(log)
}

// ParseLevel переводит уровни из настроек (включая PSR-стиль critical/alert/emergency/notice) в slog
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info", "notice":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "critical", "alert", "emergency":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetLogger возвращает глобальный логгер
func GetLogger() *slog.Logger {
	if log == nil {
		Init("development")
	}
	return log
}

func Debug(msg string, args ...any) {
	GetLogger().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	GetLogger().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	GetLogger().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	GetLogger().Error(msg, args...)
}

// Fatal логирует ошибку и завершает программу
func Fatal(msg string, args ...any) {
	GetLogger().Error(msg, args...)
	os.Exit(1)
}

// With создает новый логгер с дополнительными полями
func With(args ...any) *slog.Logger {
	return GetLogger().With(args...)
}

// WithError создает логгер с полем error
func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}

// ============================================
// Специализированные логгеры
// ============================================

// ProviderLog логирует исходящий вызов к платежному процессору
func ProviderLog(provider, operation, url string, status int, duration time.Duration, err error) {
	fields := []any{
		"provider", provider,
		"operation", operation,
		"url", url,
		"status", status,
		"duration_ms", duration.Milliseconds(),
	}

	if err != nil {
		fields = append(fields, "error", err.Error())
		GetLogger().Warn("provider call failed", fields...)
		return
	}
	GetLogger().Debug("provider call", fields...)
}

// WebhookLog логирует итог обработки вебхука
func WebhookLog(provider, invoiceID, outcome string, err error) {
	fields := []any{
		"provider", provider,
		"invoice_id", invoiceID,
		"outcome", outcome,
	}

	if err != nil {
		fields = append(fields, "error", err.Error())
		GetLogger().Error("webhook rejected", fields...)
		return
	}
	GetLogger().Info("webhook processed", fields...)
}

// WorkerLog логирует фоновую операцию
func WorkerLog(worker, operation string, err error) {
	fields := []any{
		"worker", worker,
		"operation", operation,
	}

	if err != nil {
		fields = append(fields, "error", err.Error())
		GetLogger().Error("worker operation failed", fields...)
	} else {
		GetLogger().Debug("worker operation completed", fields...)
	}
}

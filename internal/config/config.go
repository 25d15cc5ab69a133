package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Env      string `yaml:"env"`
		SiteName string `yaml:"site_name"`
	} `yaml:"server"`

	Database struct {
		Driver string `yaml:"driver"` // postgres, mysql, sqlite
		DSN    string `yaml:"url"`
	} `yaml:"database"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Providers ProvidersConfig `yaml:"providers"`

	Payment struct {
		DefaultAmount   string `yaml:"default_amount"`
		DefaultCurrency string `yaml:"default_currency"`
	} `yaml:"payment"`

	Forms []FormConfig `yaml:"forms"`

	Email struct {
		Enabled      bool   `yaml:"enabled"`
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
		AdminEmail   string `yaml:"admin_email"`
	} `yaml:"email"`

	Kafka struct {
		Enabled bool     `yaml:"enabled"`
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`

	Redis struct {
		Addr      string        `yaml:"addr"`
		Password  string        `yaml:"password"`
		DB        int           `yaml:"db"`
		StatusTTL time.Duration `yaml:"status_ttl"`
	} `yaml:"redis"`

	Storage struct {
		Type       string `yaml:"type"` // local, s3, cloudflare_r2
		BasePath   string `yaml:"base_path"`
		BaseURL    string `yaml:"base_url"`
		Bucket     string `yaml:"bucket"`
		Region     string `yaml:"region"`
		AccessKey  string `yaml:"access_key"`
		SecretKey  string `yaml:"secret_key"`
		Endpoint   string `yaml:"endpoint"`
		PublicRead bool   `yaml:"public_read"`
	} `yaml:"storage"`

	Auth struct {
		JWTSecret         string        `yaml:"jwt_secret"`
		JWTTTL            time.Duration `yaml:"jwt_ttl"`
		AdminEmail        string        `yaml:"admin_email"`
		AdminPasswordHash string        `yaml:"admin_password_hash"`
		FormTokenSecret   string        `yaml:"form_token_secret"`
		FormTokenTTL      time.Duration `yaml:"form_token_ttl"`
	} `yaml:"auth"`

	Workers struct {
		ReconcileEnabled  bool          `yaml:"reconcile_enabled"`
		ReconcileInterval time.Duration `yaml:"reconcile_interval"`
		ReconcileMaxAge   time.Duration `yaml:"reconcile_max_age"`
		ReconcileBatch    int           `yaml:"reconcile_batch"`
		EventRetention    time.Duration `yaml:"event_retention"`
	} `yaml:"workers"`
}

// ProvidersConfig - явный объект настроек процессоров вместо глобального "get_settings"
type ProvidersConfig struct {
	Default                    string         `yaml:"default"`
	Timeout                    time.Duration  `yaml:"timeout"`
	DisableWebhookVerification bool           `yaml:"disable_webhook_verification"`
	Coinsnap                   CoinsnapConfig `yaml:"coinsnap"`
	BTCPay                     BTCPayConfig   `yaml:"btcpay"`
}

type CoinsnapConfig struct {
	APIKey        string `yaml:"api_key"`
	StoreID       string `yaml:"store_id"`
	APIBase       string `yaml:"api_base"`
	WebhookSecret string `yaml:"webhook_secret"`
}

type BTCPayConfig struct {
	Host          string `yaml:"host"`
	APIKey        string `yaml:"api_key"`
	StoreID       string `yaml:"store_id"`
	WebhookSecret string `yaml:"webhook_secret"`
}

var AppConfig *Config

// LoadConfig читает config.yaml или, если задан DATABASE_URL, переменные окружения
func LoadConfig() {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env")
	}

	var cfg Config

	if os.Getenv("DATABASE_URL") == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		loaded, err := LoadFile(configPath)
		if err != nil {
			log.Fatalf("Failed to load config file at %s: %v", configPath, err)
		}
		AppConfig = loaded
		return
	}

	log.Println("Loading configuration from environment variables")
	fromEnv(&cfg)
	cfg.ApplyDefaults()
	AppConfig = &cfg
}

// LoadFile разбирает YAML и проставляет значения по умолчанию
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

func fromEnv(cfg *Config) {
	cfg.Database.DSN = os.Getenv("DATABASE_URL")
	cfg.Database.Driver = os.Getenv("DATABASE_DRIVER")
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.Log.Level = os.Getenv("LOG_LEVEL")

	cfg.Providers.Default = os.Getenv("PAYMENT_PROVIDER")
	cfg.Providers.DisableWebhookVerification = os.Getenv("DISABLE_WEBHOOK_VERIFICATION") == "true"
	cfg.Providers.Coinsnap.APIKey = os.Getenv("COINSNAP_API_KEY")
	cfg.Providers.Coinsnap.StoreID = os.Getenv("COINSNAP_STORE_ID")
	cfg.Providers.Coinsnap.APIBase = os.Getenv("COINSNAP_API_BASE")
	cfg.Providers.Coinsnap.WebhookSecret = os.Getenv("COINSNAP_WEBHOOK_SECRET")
	cfg.Providers.BTCPay.Host = os.Getenv("BTCPAY_HOST")
	cfg.Providers.BTCPay.APIKey = os.Getenv("BTCPAY_API_KEY")
	cfg.Providers.BTCPay.StoreID = os.Getenv("BTCPAY_STORE_ID")
	cfg.Providers.BTCPay.WebhookSecret = os.Getenv("BTCPAY_WEBHOOK_SECRET")

	cfg.Payment.DefaultAmount = os.Getenv("DEFAULT_AMOUNT")
	cfg.Payment.DefaultCurrency = os.Getenv("DEFAULT_CURRENCY")

	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.Auth.AdminEmail = os.Getenv("ADMIN_EMAIL")
	cfg.Auth.AdminPasswordHash = os.Getenv("ADMIN_PASSWORD_HASH")
	cfg.Auth.FormTokenSecret = os.Getenv("FORM_TOKEN_SECRET")

	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Enabled = true
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}

	cfg.Storage.Type = "local"
	cfg.Storage.BasePath = "./exports"

	if formsPath := os.Getenv("FORMS_PATH"); formsPath != "" {
		forms, err := LoadForms(formsPath)
		if err != nil {
			log.Fatalf("Failed to load forms from %s: %v", formsPath, err)
		}
		cfg.Forms = forms
	}
}

// ApplyDefaults заполняет пустые поля значениями по умолчанию исходного плагина
func (c *Config) ApplyDefaults() {
	if c.Server.Env == "" {
		c.Server.Env = "production"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.SiteName == "" {
		c.Server.SiteName = "Bitcoin Invoice Form"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Log.Level == "" {
		c.Log.Level = "error"
	}
	if c.Providers.Default == "" {
		c.Providers.Default = "coinsnap"
	}
	if c.Providers.Timeout == 0 {
		c.Providers.Timeout = 20 * time.Second
	}
	if c.Providers.Coinsnap.APIBase == "" {
		c.Providers.Coinsnap.APIBase = "https://app.coinsnap.io"
	}
	if c.Payment.DefaultAmount == "" {
		c.Payment.DefaultAmount = "0"
	}
	if c.Payment.DefaultCurrency == "" {
		c.Payment.DefaultCurrency = "USD"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "bif.invoice.paid"
	}
	if c.Redis.StatusTTL == 0 {
		c.Redis.StatusTTL = 5 * time.Second
	}
	if c.Storage.Type == "" {
		c.Storage.Type = "local"
	}
	if c.Storage.BasePath == "" {
		c.Storage.BasePath = "./exports"
	}
	if c.Auth.JWTTTL == 0 {
		c.Auth.JWTTTL = 12 * time.Hour
	}
	if c.Auth.FormTokenTTL == 0 {
		c.Auth.FormTokenTTL = 2 * time.Hour
	}
	if c.Workers.ReconcileInterval == 0 {
		c.Workers.ReconcileInterval = time.Minute
	}
	if c.Workers.ReconcileMaxAge == 0 {
		c.Workers.ReconcileMaxAge = 24 * time.Hour
	}
	if c.Workers.ReconcileBatch == 0 {
		c.Workers.ReconcileBatch = 50
	}
	if c.Workers.EventRetention == 0 {
		c.Workers.EventRetention = 30 * 24 * time.Hour
	}
	for i := range c.Forms {
		c.Forms[i].applyDefaults()
	}
}

// Validate проверяет только то, без чего сервер стартовать не должен
func (c *Config) Validate() error {
	var errs []error
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.url is required"))
	}
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported database.driver %q", c.Database.Driver))
	}
	switch c.Providers.Default {
	case "coinsnap", "btcpay":
	default:
		errs = append(errs, fmt.Errorf("unknown providers.default %q", c.Providers.Default))
	}
	seen := make(map[uint64]bool, len(c.Forms))
	for _, f := range c.Forms {
		if f.ID == 0 {
			errs = append(errs, errors.New("forms: id must be positive"))
			continue
		}
		if seen[f.ID] {
			errs = append(errs, fmt.Errorf("forms: duplicate id %d", f.ID))
		}
		seen[f.ID] = true
	}
	return errors.Join(errs...)
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}

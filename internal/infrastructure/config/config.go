package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Checkout  CheckoutConfig
	Import    ImportConfig
	Storage   StorageConfig
	Payment   PaymentConfig
	Event     EventConfig
	Telemetry TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	Path            string // sqlite file path
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns the host:port pair for the Redis client
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                string
	AccessTokenExpiration time.Duration
	Issuer                string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxUploadSize    int64
	CORSAllowOrigins []string
	TrustedProxies   []string
	SwaggerEnabled   bool // serve /swagger; default: on outside production
}

// CheckoutConfig holds pricing and transaction settings for order placement
type CheckoutConfig struct {
	VATRate               decimal.Decimal
	FreeShippingThreshold int64 // subtotal strictly above this ships free
	ShippingFee           int64
	Currency              string
	Timeout               time.Duration // whole unit of work
	LockTimeout           time.Duration // per lock wait, postgres only
	MaxRetries            int           // serialization/deadlock retries
	OrderNumberAttempts   int
	IdempotencyTTL        time.Duration
}

// ImportConfig holds catalog import settings
type ImportConfig struct {
	DefaultStock  int
	MaxErrors     int
	PriceExponent int32 // minor-unit scale applied to CSV prices; defaults to the checkout currency's
	UploadDir     string
	Storage       string // local or s3
}

// StorageConfig holds S3-compatible object storage settings
type StorageConfig struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	Prefix          string
}

// PaymentConfig holds gateway selection and credentials
type PaymentConfig struct {
	Provider    string // flutterwave, stripe or sandbox
	CallbackURL string
	Flutterwave FlutterwaveConfig
	Stripe      StripeConfig
}

// FlutterwaveConfig holds the hosted-checkout API credentials
type FlutterwaveConfig struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// StripeConfig holds Stripe Checkout credentials
type StripeConfig struct {
	SecretKey  string
	SuccessURL string
	CancelURL  string
}

// EventConfig holds event forwarding configuration
type EventConfig struct {
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
	WriteTimeout time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
	DBLogFullSQL      bool          // dev only
	DBSlowQueryThresh time.Duration // default: 200ms

	MetricsEnabled        bool
	MetricsExportInterval time.Duration // default: 60s
	DBPoolStatsInterval   time.Duration // default: 15s
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with MARKET_ prefix (e.g., MARKET_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("MARKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			Path:            v.GetString("database.path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                v.GetString("jwt.secret"),
			AccessTokenExpiration: v.GetDuration("jwt.access_token_expiration"),
			Issuer:                v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxUploadSize:    v.GetInt64("http.max_upload_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
			SwaggerEnabled:   v.GetBool("http.swagger_enabled"),
		},
		Checkout: CheckoutConfig{
			FreeShippingThreshold: v.GetInt64("checkout.free_shipping_threshold"),
			ShippingFee:           v.GetInt64("checkout.shipping_fee"),
			Currency:              strings.ToUpper(v.GetString("checkout.currency")),
			Timeout:               v.GetDuration("checkout.timeout"),
			LockTimeout:           v.GetDuration("checkout.lock_timeout"),
			MaxRetries:            v.GetInt("checkout.max_retries"),
			OrderNumberAttempts:   v.GetInt("checkout.order_number_attempts"),
			IdempotencyTTL:        v.GetDuration("checkout.idempotency_ttl"),
		},
		Import: ImportConfig{
			DefaultStock:  v.GetInt("import.default_stock"),
			MaxErrors:     v.GetInt("import.max_errors"),
			PriceExponent: v.GetInt32("import.price_exponent"),
			UploadDir:     v.GetString("import.upload_dir"),
			Storage:       v.GetString("import.storage"),
		},
		Storage: StorageConfig{
			Endpoint:        v.GetString("storage.endpoint"),
			Region:          v.GetString("storage.region"),
			Bucket:          v.GetString("storage.bucket"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
			Prefix:          v.GetString("storage.prefix"),
		},
		Payment: PaymentConfig{
			Provider:    v.GetString("payment.provider"),
			CallbackURL: v.GetString("payment.callback_url"),
			Flutterwave: FlutterwaveConfig{
				BaseURL:   v.GetString("payment.flutterwave.base_url"),
				SecretKey: v.GetString("payment.flutterwave.secret_key"),
				Timeout:   v.GetDuration("payment.flutterwave.timeout"),
			},
			Stripe: StripeConfig{
				SecretKey:  v.GetString("payment.stripe.secret_key"),
				SuccessURL: v.GetString("payment.stripe.success_url"),
				CancelURL:  v.GetString("payment.stripe.cancel_url"),
			},
		},
		Event: EventConfig{
			KafkaEnabled: v.GetBool("event.kafka_enabled"),
			KafkaBrokers: v.GetStringSlice("event.kafka_brokers"),
			KafkaTopic:   v.GetString("event.kafka_topic"),
			WriteTimeout: v.GetDuration("event.write_timeout"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),

			MetricsEnabled:        v.GetBool("telemetry.metrics_enabled"),
			MetricsExportInterval: v.GetDuration("telemetry.metrics_export_interval"),
			DBPoolStatsInterval:   v.GetDuration("telemetry.db_pool_stats_interval"),
		},
	}

	if raw := strings.TrimSpace(v.GetString("checkout.vat_rate")); raw != "" {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("checkout.vat_rate: %w", err)
		}
		cfg.Checkout.VATRate = rate
	}

	applyDefaults(cfg)
	if !v.IsSet("import.price_exponent") {
		cfg.Import.PriceExponent = shared.MinorUnitExponent(cfg.Checkout.Currency)
	}
	if !v.IsSet("http.swagger_enabled") {
		cfg.HTTP.SwaggerEnabled = cfg.App.Env != "production"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "marketplace-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "marketplace"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "marketplace.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 24 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "marketplace-backend"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxUploadSize == 0 {
		cfg.HTTP.MaxUploadSize = 10 << 20 // 10MB
	}
	if cfg.Checkout.VATRate.IsZero() {
		cfg.Checkout.VATRate = decimal.NewFromFloat(0.18)
	}
	if cfg.Checkout.FreeShippingThreshold == 0 {
		cfg.Checkout.FreeShippingThreshold = 50000
	}
	if cfg.Checkout.ShippingFee == 0 {
		cfg.Checkout.ShippingFee = 5000
	}
	if cfg.Checkout.Currency == "" {
		cfg.Checkout.Currency = "RWF"
	}
	if cfg.Checkout.Timeout == 0 {
		cfg.Checkout.Timeout = 10 * time.Second
	}
	if cfg.Checkout.LockTimeout == 0 {
		cfg.Checkout.LockTimeout = 5 * time.Second
	}
	if cfg.Checkout.MaxRetries == 0 {
		cfg.Checkout.MaxRetries = 2
	}
	if cfg.Checkout.OrderNumberAttempts == 0 {
		cfg.Checkout.OrderNumberAttempts = 5
	}
	if cfg.Checkout.IdempotencyTTL == 0 {
		cfg.Checkout.IdempotencyTTL = 24 * time.Hour
	}
	if cfg.Import.DefaultStock == 0 {
		cfg.Import.DefaultStock = 100
	}
	if cfg.Import.MaxErrors == 0 {
		cfg.Import.MaxErrors = 10
	}
	if cfg.Import.UploadDir == "" {
		cfg.Import.UploadDir = "uploads/imports"
	}
	if cfg.Import.Storage == "" {
		cfg.Import.Storage = "local"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Prefix == "" {
		cfg.Storage.Prefix = "imports/"
	}
	if cfg.Payment.Provider == "" {
		cfg.Payment.Provider = "sandbox"
	}
	if cfg.Payment.Flutterwave.BaseURL == "" {
		cfg.Payment.Flutterwave.BaseURL = "https://api.flutterwave.com/v3"
	}
	if cfg.Payment.Flutterwave.Timeout == 0 {
		cfg.Payment.Flutterwave.Timeout = 30 * time.Second
	}
	if cfg.Event.KafkaTopic == "" {
		cfg.Event.KafkaTopic = "marketplace.events"
	}
	if cfg.Event.WriteTimeout == 0 {
		cfg.Event.WriteTimeout = 5 * time.Second
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "marketplace-backend"
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Telemetry.MetricsExportInterval == 0 {
		cfg.Telemetry.MetricsExportInterval = 60 * time.Second
	}
	if cfg.Telemetry.DBPoolStatsInterval == 0 {
		cfg.Telemetry.DBPoolStatsInterval = 15 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Checkout.VATRate.IsNegative() || c.Checkout.VATRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("checkout.vat_rate must be between 0 and 1, got %s", c.Checkout.VATRate)
	}
	if c.Checkout.FreeShippingThreshold < 0 || c.Checkout.ShippingFee < 0 {
		return fmt.Errorf("checkout.free_shipping_threshold and checkout.shipping_fee cannot be negative")
	}
	if len(c.Checkout.Currency) != 3 {
		return fmt.Errorf("checkout.currency must be a 3-letter code, got %q", c.Checkout.Currency)
	}
	if c.Checkout.MaxRetries < 0 {
		return fmt.Errorf("checkout.max_retries cannot be negative")
	}

	if c.Import.DefaultStock < 0 {
		return fmt.Errorf("import.default_stock cannot be negative")
	}
	if exp := shared.MinorUnitExponent(c.Checkout.Currency); c.Import.PriceExponent != exp {
		return fmt.Errorf("import.price_exponent (%d) must match the %d minor-unit digits of %s",
			c.Import.PriceExponent, exp, c.Checkout.Currency)
	}
	switch c.Import.Storage {
	case "local":
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required when import.storage is s3")
		}
	default:
		return fmt.Errorf("import.storage must be local or s3, got %q", c.Import.Storage)
	}

	switch c.Payment.Provider {
	case "sandbox":
	case "flutterwave":
		if c.Payment.Flutterwave.SecretKey == "" {
			return fmt.Errorf("payment.flutterwave.secret_key is required for the flutterwave provider")
		}
	case "stripe":
		if c.Payment.Stripe.SecretKey == "" {
			return fmt.Errorf("payment.stripe.secret_key is required for the stripe provider")
		}
	default:
		return fmt.Errorf("payment.provider must be flutterwave, stripe or sandbox, got %q", c.Payment.Provider)
	}

	if c.Event.KafkaEnabled && len(c.Event.KafkaBrokers) == 0 {
		return fmt.Errorf("event.kafka_brokers is required when event.kafka_enabled is true")
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Driver != "postgres" {
			return fmt.Errorf("database.driver must be postgres in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Payment.Provider == "sandbox" {
			return fmt.Errorf("payment.provider cannot be sandbox in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production to prevent sensitive data exposure in traces")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

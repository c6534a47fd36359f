package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const DefaultPath = "config/local.yaml"

type HTTPServer struct {
	Addr            string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// App holds storefront wide settings. BaseURL is the public origin used to
// build links in emails and the payment callback.
type App struct {
	Name    string `yaml:"name" env:"APP_NAME" env-default:"storefront"`
	Version string `yaml:"version" env:"APP_VERSION" env-default:"1.0.0"`
	BaseURL string `yaml:"base_url" env:"APP_BASE_URL" env-default:"http://localhost:3000"`
}

type Database struct {
	Host            string        `yaml:"PG_HOST" env:"PG_HOST" env-default:"localhost"`
	Port            string        `yaml:"PG_PORT" env:"PG_PORT" env-default:"5432"`
	User            string        `yaml:"PG_USER" env:"PG_USER" env-required:"true"`
	Password        string        `yaml:"PG_PASSWORD" env:"PG_PASSWORD" env-required:"true"`
	Name            string        `yaml:"PG_DBNAME" env:"PG_DBNAME" env-required:"true"`
	SSLMode         string        `yaml:"PG_SSLMODE" env:"PG_SSLMODE" env-default:"require"`
	MaxOpenConns    int           `yaml:"MAX_OPEN_CONNS" env:"PG_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int           `yaml:"MAX_IDLE_CONNS" env:"PG_MAX_IDLE_CONNS" env-default:"25"`
	ConnMaxLifetime time.Duration `yaml:"CONN_MAX_LIFETIME" env:"PG_CONN_MAX_LIFETIME" env-default:"5m"`
	ConnMaxIdleTime time.Duration `yaml:"CONN_MAX_IDLE_TIME" env:"PG_CONN_MAX_IDLE_TIME" env-default:"1m"`
}

type RedisConnect struct {
	Host     string `yaml:"REDIS_HOST" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"REDIS_PORT" env:"REDIS_PORT" env-default:"6379"`
	Username string `yaml:"REDIS_USER" env:"REDIS_USER"`
	Password string `yaml:"REDIS_PASSWORD" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"REDIS_DB" env:"REDIS_DB" env-default:"0"`
}

type RateConfig struct {
	MaxAttempts int64         `yaml:"MAX_ATTEMPTS" env:"MAX_ATTEMPTS" env-default:"5"`
	WindowSize  time.Duration `yaml:"WINDOW_SIZE" env:"WINDOW_SIZE" env-default:"15m"`
}

// APIRateLimit bounds requests per client IP across the whole API.
type APIRateLimit struct {
	Enabled bool    `yaml:"enabled" env:"API_RATE_LIMIT_ENABLED" env-default:"true"`
	RPS     float64 `yaml:"rps" env:"API_RATE_LIMIT_RPS" env-default:"20"`
	Burst   int     `yaml:"burst" env:"API_RATE_LIMIT_BURST" env-default:"40"`

	// CIDRs or addresses whose X-Forwarded-For header is believed.
	TrustedProxies []string `yaml:"trusted_proxies" env:"API_TRUSTED_PROXIES" env-separator:","`
}

type CacheConfig struct {
	DefaultTTL time.Duration `yaml:"default_ttl" env:"CACHE_DEFAULT_TTL" env-default:"5m"`
}

type Security struct {
	JWTKey         string `yaml:"JWT_KEY" env:"JWT_KEY" env-required:"true"`
	JWTExpiryHours int    `yaml:"JWT_EXPIRY_HOURS" env:"JWT_EXPIRY_HOURS" env-default:"24"`
}

// Payment selects the gateway used at checkout.
type Payment struct {
	Provider string `yaml:"provider" env:"PAYMENT_PROVIDER" env-default:"paystack"`
	Currency string `yaml:"currency" env:"PAYMENT_CURRENCY" env-default:"NGN"`
}

type Paystack struct {
	SecretKey string `yaml:"PAYSTACK_SECRET_KEY" env:"PAYSTACK_SECRET_KEY"`
	BaseURL   string `yaml:"PAYSTACK_BASE_URL" env:"PAYSTACK_BASE_URL" env-default:"https://api.paystack.co"`
}

type Stripe struct {
	APIKey string `yaml:"STRIPE_API_KEY" env:"STRIPE_API_KEY" env-default:""`
}

type SendGrid struct {
	APIKey    string `yaml:"API_KEY" env:"SENDGRID_API_KEY"`
	FromEmail string `yaml:"FROM_EMAIL" env:"SENDGRID_FROM_EMAIL" env-default:"no-reply@storefront.local"`
	FromName  string `yaml:"FROM_NAME" env:"SENDGRID_FROM_NAME" env-default:"Storefront"`
	ReplyTo   string `yaml:"REPLY_TO" env:"SENDGRID_REPLY_TO"`
	Sandbox   bool   `yaml:"SANDBOX" env:"SENDGRID_SANDBOX" env-default:"false"`
}

// Kafka publishing is disabled when no brokers are configured.
type Kafka struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"storefront.orders"`
}

type Otel struct {
	Enabled          bool    `yaml:"ENABLED" env:"OTEL_ENABLED" env-default:"false"`
	ServiceName      string  `yaml:"SERVICE_NAME" env:"OTEL_SERVICE_NAME" env-default:"storefront"`
	ExporterEndpoint string  `yaml:"EXPORTER_ENDPOINT" env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"localhost:4318"`
	Insecure         bool    `yaml:"INSECURE" env:"OTEL_EXPORTER_INSECURE" env-default:"true"`
	SamplerRatio     float64 `yaml:"SAMPLER_RATIO" env:"OTEL_SAMPLER_RATIO" env-default:"1.0"`
}

type Config struct {
	Env          string       `yaml:"env" env:"ENV" env-required:"true"`
	HTTPServer   HTTPServer   `yaml:"http_server"`
	App          App          `yaml:"app"`
	Database     Database     `yaml:"database"`
	RedisConnect RedisConnect `yaml:"redis"`
	RateConfig   RateConfig   `yaml:"rateConfig"`
	APIRateLimit APIRateLimit `yaml:"apiRateLimit"`
	Cache        CacheConfig  `yaml:"cache"`
	Security     Security     `yaml:"security"`
	Payment      Payment      `yaml:"payment"`
	Paystack     Paystack     `yaml:"paystack"`
	Stripe       Stripe       `yaml:"stripe"`
	SendGrid     SendGrid     `yaml:"sendgrid"`
	Kafka        Kafka        `yaml:"kafka"`
	Otel         Otel         `yaml:"otel"`
}

// MustLoad resolves the config path from CONFIG_PATH, the -config flag or
// DefaultPath, in that order, and exits when it cannot be loaded.
func MustLoad() *Config {

	// a missing .env is normal outside local development
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "path to the config file")
		flag.Parse()

		configPath = *flags
	}

	if configPath == "" {
		configPath = DefaultPath
	}

	cfg, err := LoadConfigFromPath(configPath)
	if err != nil {
		log.Fatalf("can not load config: %s", err.Error())
	}

	return cfg
}

func LoadConfigFromPath(configPath string) (*Config, error) {

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("can not read config file: %w", err)
	}

	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (d *Database) GetDSN() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

func (r *RedisConnect) GetDSN() string {
	if r.Username == "" && r.Password == "" {
		return fmt.Sprintf("redis://%s:%s", r.Host, r.Port)
	}

	return fmt.Sprintf("redis://%s:%s@%s:%s", r.Username, r.Password, r.Host, r.Port)
}

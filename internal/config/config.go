package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

type Config struct {
	HTTPPort        string        `yaml:"http_port"`
	APIBaseURL      string        `yaml:"api_base_url"`
	AssetBaseURL    string        `yaml:"asset_base_url"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	SessionIdleTTL  time.Duration `yaml:"session_idle_ttl"`
	PollInterval    time.Duration `yaml:"tracking_poll_interval"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`

	StoreBackend  string `yaml:"store_backend"`
	SQLitePath    string `yaml:"sqlite_path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDBName   string `yaml:"mongo_db_name"`

	KafkaBrokers []string `yaml:"kafka_brokers"`

	APIRateLimit    float64 `yaml:"api_rate_limit"`
	APIRateBurst    int     `yaml:"api_rate_burst"`
	BreakerFailures uint32  `yaml:"breaker_failures"`

	FreeShippingThreshold decimal.Decimal `yaml:"free_shipping_threshold"`
	ShippingFee           decimal.Decimal `yaml:"shipping_fee"`

	// SimulatePayments enables POST /checkout/pay, which settles ONLINE
	// checkouts against an in-process gateway. Development only.
	SimulatePayments bool   `yaml:"simulate_payments"`
	PaymentSecret    string `yaml:"payment_secret"`

	LogLevel string `yaml:"log_level"`
}

// Load reads the environment, then overlays the YAML file named by
// STOREFRONT_CONFIG when it is set. File values win over the environment.
func Load() (*Config, error) {
	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}
	if path := os.Getenv("STOREFRONT_CONFIG"); path != "" {
		if err := cfg.overlay(path); err != nil {
			return nil, err
		}
	}
	if cfg.AssetBaseURL == "" {
		cfg.AssetBaseURL = cfg.APIBaseURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() (*Config, error) {
	var errs []string
	dur := func(key, def string) time.Duration {
		d, err := time.ParseDuration(getEnv(key, def))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
		return d
	}
	num := func(key, def string) float64 {
		f, err := strconv.ParseFloat(getEnv(key, def), 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
		return f
	}
	money := func(key, def string) decimal.Decimal {
		d, err := decimal.NewFromString(getEnv(key, def))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
		return d
	}

	flag := func(key string) bool {
		v := os.Getenv(key)
		if v == "" {
			return false
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
		return b
	}

	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		APIBaseURL:      strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:5001"), "/"),
		AssetBaseURL:    strings.TrimRight(os.Getenv("ASSET_BASE_URL"), "/"),
		RequestTimeout:  dur("REQUEST_TIMEOUT", "10s"),
		ShutdownTimeout: dur("SHUTDOWN_TIMEOUT", "10s"),
		SessionIdleTTL:  dur("SESSION_IDLE_TTL", "30m"),
		PollInterval:    dur("TRACKING_POLL_INTERVAL", "8s"),
		MaxBodyBytes:    1 << 20, // 1MB

		StoreBackend:  getEnv("STORE_BACKEND", BackendMemory),
		SQLitePath:    getEnv("SQLITE_PATH", "storefront.db"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:   getEnv("MONGO_DB_NAME", "storefront"),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),

		APIRateLimit:    num("API_RATE_LIMIT", "20"),
		APIRateBurst:    int(num("API_RATE_BURST", "10")),
		BreakerFailures: uint32(num("BREAKER_FAILURES", "5")),

		FreeShippingThreshold: money("FREE_SHIPPING_THRESHOLD", "999"),
		ShippingFee:           money("SHIPPING_FEE", "49"),

		SimulatePayments: flag("SIMULATE_PAYMENTS"),
		PaymentSecret:    os.Getenv("PAYMENT_SECRET"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func (c *Config) overlay(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendSQLite, BackendRedis, BackendMongo:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("tracking poll interval must be positive")
	}
	if c.SimulatePayments && c.PaymentSecret == "" {
		return fmt.Errorf("PAYMENT_SECRET is required when SIMULATE_PAYMENTS is set")
	}
	if c.ShippingFee.IsNegative() || c.FreeShippingThreshold.IsNegative() {
		return fmt.Errorf("shipping amounts must not be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable this service reads.
const EnvPrefix = "CHECKOUT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App      AppConfig
	Redis    RedisConfig
	Vendors  VendorServiceConfig
	Orders   OrderServiceConfig
	Checkout CheckoutConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Vendors.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Orders.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CHECKOUT_APP_ENV" required:"true"`
	Port         string `envconfig:"CHECKOUT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CHECKOUT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CHECKOUT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type RedisConfig struct {
	URL          string        `envconfig:"CHECKOUT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CHECKOUT_REDIS_ADDR"`
	Password     string        `envconfig:"CHECKOUT_REDIS_PASSWORD"`
	DB           int           `envconfig:"CHECKOUT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CHECKOUT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CHECKOUT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CHECKOUT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CHECKOUT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CHECKOUT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// VendorServiceConfig points at the vendor payment configuration service.
type VendorServiceConfig struct {
	BaseURL string        `envconfig:"CHECKOUT_VENDOR_SERVICE_URL"`
	Timeout time.Duration `envconfig:"CHECKOUT_VENDOR_SERVICE_TIMEOUT" default:"10s"`
}

func (v VendorServiceConfig) validate() error {
	if strings.TrimSpace(v.BaseURL) == "" {
		return fmt.Errorf("%s_VENDOR_SERVICE_URL is required", EnvPrefix)
	}
	return nil
}

// OrderServiceConfig points at the guest order creation service.
type OrderServiceConfig struct {
	BaseURL string        `envconfig:"CHECKOUT_ORDER_SERVICE_URL"`
	Timeout time.Duration `envconfig:"CHECKOUT_ORDER_SERVICE_TIMEOUT" default:"15s"`
}

func (o OrderServiceConfig) validate() error {
	if strings.TrimSpace(o.BaseURL) == "" {
		return fmt.Errorf("%s_ORDER_SERVICE_URL is required", EnvPrefix)
	}
	return nil
}

type CheckoutConfig struct {
	SessionTTL    time.Duration `envconfig:"CHECKOUT_SESSION_TTL" default:"72h"`
	EnvelopeTTL   time.Duration `envconfig:"CHECKOUT_ENVELOPE_TTL" default:"24h"`
	SubmitLockTTL time.Duration `envconfig:"CHECKOUT_SUBMIT_LOCK_TTL" default:"30s"`
}

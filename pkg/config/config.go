package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/lucasferrin/directory-backend/pkg/enums"
)

const (
	EnvPrefix = "DIRECTORY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Stripe       StripeConfig
	Content      ContentWebhookConfig
	Sendgrid     SendgridConfig
	Admin        AdminConfig
	Eventing     EventingConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DIRECTORY_APP_ENV" required:"true"`
	Port         string `envconfig:"DIRECTORY_APP_PORT" default:"8080"`
	BaseURL      string `envconfig:"DIRECTORY_APP_BASE_URL" default:"http://localhost:3000"`
	LogLevel     string `envconfig:"DIRECTORY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DIRECTORY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DIRECTORY_DB_DSN" required:"true"`
	Driver string `envconfig:"DIRECTORY_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"DIRECTORY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DIRECTORY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DIRECTORY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DIRECTORY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DIRECTORY_REDIS_URL"`
	Address      string        `envconfig:"DIRECTORY_REDIS_ADDR"`
	Password     string        `envconfig:"DIRECTORY_REDIS_PASSWORD"`
	DB           int           `envconfig:"DIRECTORY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DIRECTORY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DIRECTORY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DIRECTORY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DIRECTORY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DIRECTORY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type StripeConfig struct {
	APIKey string `envconfig:"DIRECTORY_STRIPE_API_KEY"`
	Secret string `envconfig:"DIRECTORY_STRIPE_WEBHOOK_SECRET"`
	Env    string `envconfig:"DIRECTORY_STRIPE_ENV" default:"test"`

	ProfessionalMonthlyPriceID string `envconfig:"DIRECTORY_STRIPE_PROFESSIONAL_MONTHLY_PRICE_ID"`
	ProfessionalYearlyPriceID  string `envconfig:"DIRECTORY_STRIPE_PROFESSIONAL_YEARLY_PRICE_ID"`
	EnterpriseMonthlyPriceID   string `envconfig:"DIRECTORY_STRIPE_ENTERPRISE_MONTHLY_PRICE_ID"`
	EnterpriseYearlyPriceID    string `envconfig:"DIRECTORY_STRIPE_ENTERPRISE_YEARLY_PRICE_ID"`
}

func (s StripeConfig) Environment() string {
	return s.Env
}

// PriceID maps a paid plan and billing cycle to the configured Stripe price.
func (s StripeConfig) PriceID(plan enums.PlanType, cycle enums.BillingCycle) (string, error) {
	var id string
	switch plan {
	case enums.PlanTypeProfessional:
		if cycle == enums.BillingCycleYearly {
			id = s.ProfessionalYearlyPriceID
		} else {
			id = s.ProfessionalMonthlyPriceID
		}
	case enums.PlanTypeEnterprise:
		if cycle == enums.BillingCycleYearly {
			id = s.EnterpriseYearlyPriceID
		} else {
			id = s.EnterpriseMonthlyPriceID
		}
	default:
		return "", fmt.Errorf("plan %q has no price", plan)
	}
	if id == "" {
		return "", fmt.Errorf("price id not configured for %s plan with %s billing cycle", plan, cycle)
	}
	return id, nil
}

// ContentWebhookConfig authenticates the document store's status-change webhook.
type ContentWebhookConfig struct {
	Secret string `envconfig:"DIRECTORY_CONTENT_WEBHOOK_SECRET"`
}

type SendgridConfig struct {
	APIKey    string `envconfig:"DIRECTORY_SENDGRID_API_KEY"`
	FromEmail string `envconfig:"DIRECTORY_EMAIL_FROM" default:"noreply@example.com"`
	FromName  string `envconfig:"DIRECTORY_EMAIL_FROM_NAME" default:"The Business Directory Team"`
}

// AdminConfig guards the operator-facing endpoints.
type AdminConfig struct {
	Token string `envconfig:"DIRECTORY_ADMIN_TOKEN"`
}

type EventingConfig struct {
	WebhookIdempotencyTTL time.Duration `envconfig:"DIRECTORY_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DIRECTORY_AUTO_MIGRATE" default:"false"`
}

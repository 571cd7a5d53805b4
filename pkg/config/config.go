package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Stripe       StripeConfig
	Checkout     CheckoutConfig
	Pricing      PricingConfig
	Reconcile    ReconcileConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CRATEFUL_APP_ENV" required:"true"`
	Port         string `envconfig:"CRATEFUL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CRATEFUL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CRATEFUL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CRATEFUL_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CRATEFUL_DB_DSN"`
	Driver string `envconfig:"CRATEFUL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CRATEFUL_DB_HOST"`
	LegacyPort     int    `envconfig:"CRATEFUL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CRATEFUL_DB_USER"`
	LegacyPassword string `envconfig:"CRATEFUL_DB_PASSWORD"`
	LegacyName     string `envconfig:"CRATEFUL_DB_NAME"`
	LegacySSLMode  string `envconfig:"CRATEFUL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CRATEFUL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CRATEFUL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CRATEFUL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CRATEFUL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CRATEFUL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CRATEFUL_REDIS_ADDR"`
	Password     string        `envconfig:"CRATEFUL_REDIS_PASSWORD"`
	DB           int           `envconfig:"CRATEFUL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CRATEFUL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CRATEFUL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CRATEFUL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CRATEFUL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CRATEFUL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CRATEFUL_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CRATEFUL_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CRATEFUL_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CRATEFUL_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	// WebhookIdempotencyTTL bounds the redis fast-path dedupe window for
	// provider events; the durable guard lives in processed_events.
	WebhookIdempotencyTTL time.Duration `envconfig:"CRATEFUL_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"CRATEFUL_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"CRATEFUL_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	EntitlementTopic string `envconfig:"CRATEFUL_PUBSUB_ENTITLEMENT_TOPIC" default:"crateful-entitlement-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"CRATEFUL_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"CRATEFUL_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"CRATEFUL_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type StripeConfig struct {
	APIKey string `envconfig:"CRATEFUL_STRIPE_API_KEY"`
	Secret string `envconfig:"CRATEFUL_STRIPE_SECRET"`
	Env    string `envconfig:"CRATEFUL_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CheckoutConfig struct {
	SuccessURL string `envconfig:"CRATEFUL_CHECKOUT_SUCCESS_URL" required:"true"`
	CancelURL  string `envconfig:"CRATEFUL_CHECKOUT_CANCEL_URL" required:"true"`
}

type PricingConfig struct {
	// PlatformFeeBps is the platform's cut in basis points. The fee charged
	// for a sale is floor(amount * bps / 10000).
	PlatformFeeBps int64 `envconfig:"CRATEFUL_PLATFORM_FEE_BPS" default:"2500"`
}

type ReconcileConfig struct {
	Interval time.Duration `envconfig:"CRATEFUL_RECONCILE_INTERVAL" default:"1h"`
	Lookback time.Duration `envconfig:"CRATEFUL_RECONCILE_LOOKBACK" default:"72h"`
	PageSize int64         `envconfig:"CRATEFUL_RECONCILE_PAGE_SIZE" default:"100"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}

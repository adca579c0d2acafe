package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "CAREMESH"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "CAREMESH_APP_ENV"
	EnvDBDSN  = "CAREMESH_DB_DSN"
	EnvDBHost = "CAREMESH_DB_HOST"
	EnvDBUser = "CAREMESH_DB_USER"
	EnvDBName = "CAREMESH_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Stripe       StripeConfig
	Fees         FeesConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"CAREMESH_APP_ENV" required:"true"`
	Port         string `envconfig:"CAREMESH_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CAREMESH_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CAREMESH_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CAREMESH_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CAREMESH_DB_DSN"`
	Driver string `envconfig:"CAREMESH_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CAREMESH_DB_HOST"`
	LegacyPort     int    `envconfig:"CAREMESH_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CAREMESH_DB_USER"`
	LegacyPassword string `envconfig:"CAREMESH_DB_PASSWORD"`
	LegacyName     string `envconfig:"CAREMESH_DB_NAME"`
	LegacySSLMode  string `envconfig:"CAREMESH_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CAREMESH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CAREMESH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CAREMESH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CAREMESH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type StripeConfig struct {
	APIKey            string `envconfig:"CAREMESH_STRIPE_API_KEY"`
	Secret            string `envconfig:"CAREMESH_STRIPE_SECRET"`
	Env               string `envconfig:"CAREMESH_STRIPE_ENV" default:"test"`
	PlatformAccountID string `envconfig:"CAREMESH_STRIPE_PLATFORM_ACCOUNT_ID"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// FeesConfig holds the global fee defaults applied when a clinic has no
// tier configuration of its own. Percent values are whole percentages
// ("10" means 10%), amounts are decimal major units.
type FeesConfig struct {
	PlatformFeePercent  string `envconfig:"CAREMESH_FEES_PLATFORM_PERCENT" default:"10"`
	ProcessorFeePercent string `envconfig:"CAREMESH_FEES_PROCESSOR_PERCENT" default:"3"`
	ClinicianFlatFee    string `envconfig:"CAREMESH_FEES_CLINICIAN_FLAT" default:"15"`
	Currency            string `envconfig:"CAREMESH_FEES_CURRENCY" default:"usd"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CAREMESH_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CAREMESH_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"CAREMESH_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CAREMESH_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic  string `envconfig:"CAREMESH_PUBSUB_ORDERS_TOPIC" default:"cm-order-events"`
	RefundsTopic string `envconfig:"CAREMESH_PUBSUB_REFUNDS_TOPIC" default:"cm-refund-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"CAREMESH_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"CAREMESH_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"CAREMESH_OUTBOX_MAX_ATTEMPTS" default:"10"`
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

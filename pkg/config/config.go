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
	Repricer     RepricerConfig
	Marketplace  MarketplaceConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Repricer.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"REPRICER_APP_ENV" required:"true"`
	Port         string   `envconfig:"REPRICER_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"REPRICER_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"REPRICER_LOG_WARN_STACK" default:"false"`
	AdminToken   string   `envconfig:"REPRICER_ADMIN_TOKEN"`
	CORSOrigins  []string `envconfig:"REPRICER_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"REPRICER_SERVICE_KIND" default:"worker"`
}

type DBConfig struct {
	DSN    string `envconfig:"REPRICER_DB_DSN"`
	Driver string `envconfig:"REPRICER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"REPRICER_DB_HOST"`
	LegacyPort     int    `envconfig:"REPRICER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"REPRICER_DB_USER"`
	LegacyPassword string `envconfig:"REPRICER_DB_PASSWORD"`
	LegacyName     string `envconfig:"REPRICER_DB_NAME"`
	LegacySSLMode  string `envconfig:"REPRICER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"REPRICER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"REPRICER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"REPRICER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"REPRICER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"REPRICER_REDIS_URL"`
	Address      string        `envconfig:"REPRICER_REDIS_ADDR"`
	Password     string        `envconfig:"REPRICER_REDIS_PASSWORD"`
	DB           int           `envconfig:"REPRICER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REPRICER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REPRICER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REPRICER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REPRICER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"REPRICER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// RepricerConfig drives the execution harness and the decision engines.
type RepricerConfig struct {
	Engine             string        `envconfig:"REPRICER_ENGINE" default:"V1"`
	Interval           time.Duration `envconfig:"REPRICER_INTERVAL" default:"30m"`
	ChunkSize          int           `envconfig:"REPRICER_CHUNK_SIZE" default:"10"`
	BatchSize          int           `envconfig:"REPRICER_BATCH_SIZE" default:"5"`
	UnchunkedThreshold int           `envconfig:"REPRICER_UNCHUNKED_THRESHOLD" default:"50"`
	OverlapStaleAfter  time.Duration `envconfig:"REPRICER_OVERLAP_STALE_AFTER" default:"2h"`
	OverlapMarkerTTL   time.Duration `envconfig:"REPRICER_OVERLAP_MARKER_TTL" default:"3h"`
	PromoWindow        time.Duration `envconfig:"REPRICER_PROMO_WINDOW" default:"24h"`
	DisableTie         bool          `envconfig:"REPRICER_DISABLE_TIE" default:"false"`
	MaxOwnedIdentities int           `envconfig:"REPRICER_MAX_OWNED_IDENTITIES" default:"8"`
	PolicyCacheSize    int           `envconfig:"REPRICER_POLICY_CACHE_SIZE" default:"5000"`
	PolicyCacheTTL     time.Duration `envconfig:"REPRICER_POLICY_CACHE_TTL" default:"10m"`
	DecisionRetention  time.Duration `envconfig:"REPRICER_DECISION_RETENTION" default:"720h"`
	DisabledJobs       []string      `envconfig:"REPRICER_DISABLED_JOBS"`
}

func (r RepricerConfig) validate() error {
	if r.ChunkSize <= 0 {
		return fmt.Errorf("%s must be positive", EnvChunkSize)
	}
	if r.BatchSize <= 0 {
		return fmt.Errorf("%s must be positive", EnvBatchSize)
	}
	switch strings.ToUpper(strings.TrimSpace(r.Engine)) {
	case EngineV1, EngineV2:
	default:
		return fmt.Errorf("%s must be %s or %s, got %q", EnvEngine, EngineV1, EngineV2, r.Engine)
	}
	return nil
}

// UsesSolver reports whether the V2 buy-box solver drives price decisions.
func (r RepricerConfig) UsesSolver() bool {
	return strings.EqualFold(strings.TrimSpace(r.Engine), EngineV2)
}

type MarketplaceConfig struct {
	BaseURL string        `envconfig:"REPRICER_MARKETPLACE_BASE_URL" required:"true"`
	APIKey  string        `envconfig:"REPRICER_MARKETPLACE_API_KEY"`
	Timeout time.Duration `envconfig:"REPRICER_MARKETPLACE_TIMEOUT" default:"20s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate    bool `envconfig:"REPRICER_AUTO_MIGRATE" default:"false"`
	PublishUpdates bool `envconfig:"REPRICER_PUBLISH_UPDATES" default:"true"`
	AuditDecisions bool `envconfig:"REPRICER_AUDIT_DECISIONS" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"REPRICER_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"REPRICER_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"REPRICER_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	PriceUpdateTopic string `envconfig:"REPRICER_PUBSUB_PRICE_UPDATE_TOPIC" default:"repricer-price-updates"`
}

type BigQueryConfig struct {
	Dataset        string `envconfig:"REPRICER_BIGQUERY_DATASET" default:"repricer"`
	DecisionsTable string `envconfig:"REPRICER_BIGQUERY_DECISIONS_TABLE" default:"reprice_decisions"`
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

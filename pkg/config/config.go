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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Ledger       LedgerConfig
	Scorer       ScorerConfig
	Admission    AdmissionConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if cfg.Admission.BlockThreshold <= 0 {
		return nil, fmt.Errorf("%s must be positive", EnvAdmissionBlockThreshold)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env             string        `envconfig:"TRUSTCHAIN_APP_ENV" required:"true"`
	Port            string        `envconfig:"TRUSTCHAIN_APP_PORT" required:"true"`
	LogLevel        string        `envconfig:"TRUSTCHAIN_LOG_LEVEL" default:"info"`
	LogWarnStack    bool          `envconfig:"TRUSTCHAIN_LOG_WARN_STACK" default:"false"`
	ShutdownTimeout time.Duration `envconfig:"TRUSTCHAIN_SHUTDOWN_TIMEOUT" default:"15s"`
	CORSOrigins     []string      `envconfig:"TRUSTCHAIN_CORS_ORIGINS" default:"http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TRUSTCHAIN_DB_DSN"`
	Driver string `envconfig:"TRUSTCHAIN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TRUSTCHAIN_DB_HOST"`
	LegacyPort     int    `envconfig:"TRUSTCHAIN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TRUSTCHAIN_DB_USER"`
	LegacyPassword string `envconfig:"TRUSTCHAIN_DB_PASSWORD"`
	LegacyName     string `envconfig:"TRUSTCHAIN_DB_NAME"`
	LegacySSLMode  string `envconfig:"TRUSTCHAIN_DB_SSLMODE" default:"disable"`

	MaxOpenConns     int           `envconfig:"TRUSTCHAIN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns     int           `envconfig:"TRUSTCHAIN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime  time.Duration `envconfig:"TRUSTCHAIN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime  time.Duration `envconfig:"TRUSTCHAIN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	StatementTimeout time.Duration `envconfig:"TRUSTCHAIN_DB_STATEMENT_TIMEOUT" default:"5s"`
}

// IsSQLite reports whether the sqlite driver was selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"TRUSTCHAIN_REDIS_URL"`
	Address      string        `envconfig:"TRUSTCHAIN_REDIS_ADDR"`
	Password     string        `envconfig:"TRUSTCHAIN_REDIS_PASSWORD"`
	DB           int           `envconfig:"TRUSTCHAIN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TRUSTCHAIN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TRUSTCHAIN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TRUSTCHAIN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TRUSTCHAIN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TRUSTCHAIN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"TRUSTCHAIN_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TRUSTCHAIN_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TRUSTCHAIN_JWT_EXPIRATION_MINUTES" default:"60"`
}

// LedgerConfig points at the MultiChain node used for the audit trail.
type LedgerConfig struct {
	Enabled        bool          `envconfig:"TRUSTCHAIN_LEDGER_ENABLED" default:"true"`
	Host           string        `envconfig:"TRUSTCHAIN_MULTICHAIN_HOST" default:"localhost"`
	Port           int           `envconfig:"TRUSTCHAIN_MULTICHAIN_PORT" default:"7189"`
	User           string        `envconfig:"TRUSTCHAIN_MULTICHAIN_USER" default:"multichainrpc"`
	Password       string        `envconfig:"TRUSTCHAIN_MULTICHAIN_PASS"`
	ChainName      string        `envconfig:"TRUSTCHAIN_MULTICHAIN_CHAIN" default:"cosmeticsChain"`
	RequestTimeout time.Duration `envconfig:"TRUSTCHAIN_LEDGER_TIMEOUT" default:"10s"`
	ProductStream  string        `envconfig:"TRUSTCHAIN_LEDGER_PRODUCT_STREAM" default:"products"`
	OrderStream    string        `envconfig:"TRUSTCHAIN_LEDGER_ORDER_STREAM" default:"orders"`
}

// URL returns the node's RPC endpoint.
func (l LedgerConfig) URL() string {
	u := &url.URL{
		Scheme: "http",
		Host:   fmt.Sprintf("%s:%d", l.Host, l.Port),
	}
	return u.String()
}

type ScorerConfig struct {
	ArtifactPath string `envconfig:"TRUSTCHAIN_SCORER_ARTIFACT" default:"ml_models/counterfeit_artifacts.json"`
}

type AdmissionConfig struct {
	BlockThreshold int `envconfig:"TRUSTCHAIN_ADMISSION_BLOCK_THRESHOLD" default:"3"`
}

type RateLimitConfig struct {
	WriteWindow time.Duration `envconfig:"TRUSTCHAIN_RATE_LIMIT_WRITE_WINDOW" default:"1m"`
	WriteLimit  int           `envconfig:"TRUSTCHAIN_RATE_LIMIT_WRITE_LIMIT" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TRUSTCHAIN_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
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

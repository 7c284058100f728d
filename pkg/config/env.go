package config

// EnvPrefix is handed to envconfig; every field carries its full variable name.
const EnvPrefix = "TRUSTCHAIN"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "TRUSTCHAIN_APP_ENV"
	EnvPort     = "TRUSTCHAIN_APP_PORT"
	EnvLogLevel = "TRUSTCHAIN_LOG_LEVEL"

	EnvDBDSN    = "TRUSTCHAIN_DB_DSN"
	EnvDBDriver = "TRUSTCHAIN_DB_DRIVER"
	EnvDBHost   = "TRUSTCHAIN_DB_HOST"
	EnvDBUser   = "TRUSTCHAIN_DB_USER"
	EnvDBName   = "TRUSTCHAIN_DB_NAME"

	EnvRedisURL = "TRUSTCHAIN_REDIS_URL"

	EnvJWTSecret  = "TRUSTCHAIN_JWT_SECRET"
	EnvJWTIssuer  = "TRUSTCHAIN_JWT_ISSUER"
	EnvJWTExpMins = "TRUSTCHAIN_JWT_EXPIRATION_MINUTES"

	EnvLedgerEnabled = "TRUSTCHAIN_LEDGER_ENABLED"
	EnvLedgerHost    = "TRUSTCHAIN_MULTICHAIN_HOST"
	EnvLedgerPort    = "TRUSTCHAIN_MULTICHAIN_PORT"
	EnvLedgerTimeout = "TRUSTCHAIN_LEDGER_TIMEOUT"

	EnvScorerArtifact = "TRUSTCHAIN_SCORER_ARTIFACT"

	EnvAdmissionBlockThreshold = "TRUSTCHAIN_ADMISSION_BLOCK_THRESHOLD"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

package config

// EnvPrefix is passed to envconfig; individual fields carry explicit
// AUTOPARTS_ tags so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "AUTOPARTS_APP_ENV"
	EnvPort       = "AUTOPARTS_APP_PORT"
	EnvDBDSN      = "AUTOPARTS_DB_DSN"
	EnvDBHost     = "AUTOPARTS_DB_HOST"
	EnvDBUser     = "AUTOPARTS_DB_USER"
	EnvDBName     = "AUTOPARTS_DB_NAME"
	EnvRedisURL   = "AUTOPARTS_REDIS_URL"
	EnvIdentity   = "AUTOPARTS_IDENTITY_BASE_URL"
	EnvOwnerEmail = "AUTOPARTS_PRIMARY_OWNER_EMAIL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

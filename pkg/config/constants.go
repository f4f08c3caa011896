package config

const (
	// EnvPrefix is passed to envconfig; individual fields carry the full
	// STREAMVAULT_ names so the prefix stays empty here.
	EnvPrefix = ""

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "STREAMVAULT_APP_ENV"
	EnvDBDSN  = "STREAMVAULT_DB_DSN"
	EnvDBHost = "STREAMVAULT_DB_HOST"
	EnvDBUser = "STREAMVAULT_DB_USER"
	EnvDBName = "STREAMVAULT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

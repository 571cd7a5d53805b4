package config

const (
	// EnvPrefix namespaces every environment variable consumed by the service.
	EnvPrefix = "crateful"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "CRATEFUL_DB_DSN"
	EnvDBHost = "CRATEFUL_DB_HOST"
	EnvDBUser = "CRATEFUL_DB_USER"
	EnvDBName = "CRATEFUL_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

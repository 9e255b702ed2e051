package config

const (
	// EnvPrefix is handed to envconfig; every field carries an explicit envconfig tag.
	EnvPrefix = "BAZARY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StoreBackendDB     = "db"
	StoreBackendRedis  = "redis"
	StoreBackendMemory = "memory"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	DefaultSQLiteDSN = "file:bazary.db?_busy_timeout=5000"
)

const (
	EnvAppEnv       = "BAZARY_APP_ENV"
	EnvPort         = "BAZARY_APP_PORT"
	EnvStoreBackend = "BAZARY_STORE_BACKEND"
	EnvDBDSN        = "BAZARY_DB_DSN"
	EnvDBDriver     = "BAZARY_DB_DRIVER"
	EnvDBHost       = "BAZARY_DB_HOST"
	EnvDBUser       = "BAZARY_DB_USER"
	EnvDBName       = "BAZARY_DB_NAME"
	EnvRedisURL     = "BAZARY_REDIS_URL"
	EnvRedisAddr    = "BAZARY_REDIS_ADDR"
	EnvAIAPIKey     = "BAZARY_AI_API_KEY"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvVideoEnabled = "BAZARY_AI_VIDEO_ENABLED"
)

var postgresDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

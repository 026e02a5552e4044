package config

const (
	EnvPrefix = "DISTRIWEB"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	StorageBackendSQLite = "sqlite"
	StorageBackendRedis  = "redis"

	EnvAppEnv            = "DISTRIWEB_APP_ENV"
	EnvPort              = "DISTRIWEB_APP_PORT"
	EnvUpstreamBaseURL   = "DISTRIWEB_UPSTREAM_BASE_URL"
	EnvStorageBackend    = "DISTRIWEB_STORAGE_BACKEND"
	EnvStorageSQLitePath = "DISTRIWEB_STORAGE_SQLITE_PATH"
	EnvRedisURL          = "DISTRIWEB_REDIS_URL"
	EnvRedisAddr         = "DISTRIWEB_REDIS_ADDR"
)

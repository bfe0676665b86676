package config

const (
	EnvPrefix = "REPRICER"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EngineV1 = "V1"
	EngineV2 = "V2"

	EnvAppEnv             = "REPRICER_APP_ENV"
	EnvDBDSN              = "REPRICER_DB_DSN"
	EnvDBHost             = "REPRICER_DB_HOST"
	EnvDBUser             = "REPRICER_DB_USER"
	EnvDBName             = "REPRICER_DB_NAME"
	EnvRedisURL           = "REPRICER_REDIS_URL"
	EnvEngine             = "REPRICER_ENGINE"
	EnvChunkSize          = "REPRICER_CHUNK_SIZE"
	EnvBatchSize          = "REPRICER_BATCH_SIZE"
	EnvMarketplaceURL     = "REPRICER_MARKETPLACE_BASE_URL"
	EnvGCPProjectID       = "REPRICER_GCP_PROJECT_ID"
	EnvPriceUpdateTopic   = "REPRICER_PUBSUB_PRICE_UPDATE_TOPIC"
	EnvUnchunkedThreshold = "REPRICER_UNCHUNKED_THRESHOLD"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

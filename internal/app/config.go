package app

import (
	"github.com/yungbote/neurobridge-backend/internal/platform/envutil"
)

// Config is every environment-driven knob the pipeline recognizes (§6 of
// the design: EXECUTION_MODE, object-store/search-index/extraction
// endpoints, optional Temporal/Redis/metrics surfaces).
type Config struct {
	ExecutionMode string

	FilesEndpoint        string
	MaxGazetteFileSizeMB int
	GazetteQueryPageSize int
	WorkerLimit          int

	ObjectStoreBucket    string
	ObjectStoreEndpoint  string
	ObjectStoreAccessKey string
	ObjectStoreSecretKey string
	ObjectStoreRegion    string
	ObjectStoreUseSSL    bool

	SearchIndexURL  string
	SearchIndexName string

	TikaURL string

	ThemesConfigPath string

	EmbeddingServiceURL string
	EmbeddingModel      string
	MaxRuntimeMemoryMB  int

	TemporalAddress string
	RedisAddr       string
	MetricsAddr     string

	Debug bool
}

func LoadConfig() Config {
	return Config{
		ExecutionMode: envutil.String("EXECUTION_MODE", "DAILY"),

		FilesEndpoint:        envutil.String("QUERIDO_DIARIO_FILES_ENDPOINT", ""),
		MaxGazetteFileSizeMB: envutil.Int("MAX_GAZETTE_FILE_SIZE_MB", 500),
		GazetteQueryPageSize: envutil.Int("GAZETTE_QUERY_PAGE_SIZE", 1000),
		WorkerLimit:          envutil.Int("PIPELINE_WORKER_LIMIT", 1),

		ObjectStoreBucket:    envutil.String("OBJECT_STORE_BUCKET", ""),
		ObjectStoreEndpoint:  envutil.String("OBJECT_STORE_ENDPOINT", ""),
		ObjectStoreAccessKey: envutil.String("OBJECT_STORE_ACCESS_KEY", ""),
		ObjectStoreSecretKey: envutil.String("OBJECT_STORE_SECRET_KEY", ""),
		ObjectStoreRegion:    envutil.String("OBJECT_STORE_REGION", "us-east-1"),
		ObjectStoreUseSSL:    envutil.Bool("OBJECT_STORE_USE_SSL", true),

		SearchIndexURL:  envutil.String("SEARCH_INDEX_URL", "http://localhost:9200"),
		SearchIndexName: envutil.String("SEARCH_INDEX_NAME", "gazettes"),

		TikaURL: envutil.String("TIKA_URL", "http://localhost:9998"),

		ThemesConfigPath: envutil.String("THEMES_CONFIG_PATH", ""),

		EmbeddingServiceURL: envutil.String("EMBEDDING_SERVICE_URL", ""),
		EmbeddingModel:      envutil.String("EMBEDDING_MODEL", "neuralmind/bert-base-portuguese-cased"),
		MaxRuntimeMemoryMB:  envutil.Int("MAX_RUNTIME_MEMORY_MB", 0),

		TemporalAddress: envutil.String("TEMPORAL_ADDRESS", ""),
		RedisAddr:       envutil.String("REDIS_ADDR", ""),
		MetricsAddr:     envutil.String("METRICS_ADDR", ":8080"),

		Debug: envutil.Bool("DEBUG", false),
	}
}

package app

import (
	"time"

	"github.com/yungbote/studypath-backend/internal/clients/redis"
	"github.com/yungbote/studypath-backend/internal/jobs/worker"
	"github.com/yungbote/studypath-backend/internal/observability"
	"github.com/yungbote/studypath-backend/internal/platform/envutil"
	"github.com/yungbote/studypath-backend/internal/platform/llm"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
)

type Config struct {
	Port           string
	MaxUploadBytes int64
	AllowOrigins   []string

	JWTSecretKey   string
	JWTIssuer      string
	AccessTokenTTL time.Duration

	LLM   llm.Config
	Redis redis.Config
	// LockTTL bounds how long a crashed holder keeps a generation lock.
	LockTTL time.Duration

	ObjectStorageMode   string
	StorageEmulatorHost string
	BucketName          string
	CDNDomain           string
	GCPCredentials      string

	Worker worker.Config
	Otel   observability.OtelConfig

	MetricsEnabled bool
	// MetricsAddr serves /metrics on its own listener; empty mounts it on the
	// API router.
	MetricsAddr string
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := envutil.String(log, "JWT_SECRET_KEY", "defaultsecret")
	if jwtSecretKey == "defaultsecret" {
		log.Warn("JWT_SECRET_KEY not set; tokens are signed with the development secret")
	}
	return Config{
		Port:           envutil.String(log, "PORT", "8080"),
		MaxUploadBytes: int64(envutil.Int(log, "MAX_UPLOAD_BYTES", 10<<20)),
		AllowOrigins:   envutil.CSV("CORS_ALLOW_ORIGINS", nil),

		JWTSecretKey:   jwtSecretKey,
		JWTIssuer:      envutil.String(log, "JWT_ISSUER", "studypath"),
		AccessTokenTTL: time.Duration(envutil.Int(log, "ACCESS_TOKEN_TTL", 86400)) * time.Second,

		LLM: llm.Config{
			Provider:        envutil.String(log, "LLM_PROVIDER", llm.ProviderGemini),
			GeminiAPIKey:    envutil.String(log, "GEMINI_API_KEY", ""),
			GeminiModel:     envutil.String(log, "GEMINI_MODEL", "gemini-1.5-flash"),
			OpenAIAPIKey:    envutil.String(log, "OPENAI_API_KEY", ""),
			OpenAIModel:     envutil.String(log, "OPENAI_MODEL", "gpt-4o-mini"),
			AnthropicAPIKey: envutil.String(log, "ANTHROPIC_API_KEY", ""),
			AnthropicModel:  envutil.String(log, "ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
			Timeout:         time.Duration(envutil.Int(log, "LLM_TIMEOUT_SECONDS", 120)) * time.Second,
			Temperature:     envutil.Float(log, "LLM_TEMPERATURE", 0.7),
		},
		Redis: redis.Config{
			Addr:     envutil.String(log, "REDIS_ADDR", ""),
			Password: envutil.String(log, "REDIS_PASSWORD", ""),
			DB:       envutil.Int(log, "REDIS_DB", 0),
			Channel:  envutil.String(log, "REDIS_CHANNEL", "studypath:sse"),
		},
		LockTTL: envutil.Duration(log, "GENERATION_LOCK_TTL", 10*time.Minute),

		ObjectStorageMode:   envutil.String(log, "OBJECT_STORAGE_MODE", ""),
		StorageEmulatorHost: envutil.String(log, "STORAGE_EMULATOR_HOST", ""),
		BucketName:          envutil.String(log, "GCS_BUCKET_NAME", ""),
		CDNDomain:           envutil.String(log, "GCS_CDN_DOMAIN", ""),
		GCPCredentials:      gcpCredentials(log),

		Worker: worker.ConfigFromEnv(log),
		Otel: observability.OtelConfig{
			Enabled:      envutil.Bool(log, "OTEL_ENABLED", false),
			ServiceName:  envutil.String(log, "OTEL_SERVICE_NAME", "studypath-backend"),
			Environment:  envutil.String(log, "APP_ENV", "development"),
			Version:      envutil.String(log, "APP_VERSION", "dev"),
			Endpoint:     envutil.String(log, "OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:      observability.ParseHeaders(envutil.String(log, "OTEL_EXPORTER_OTLP_HEADERS", "")),
			Insecure:     envutil.Bool(log, "OTEL_EXPORTER_OTLP_INSECURE", false),
			SamplerRatio: envutil.Float(log, "OTEL_SAMPLER_RATIO", 1.0),
		},

		MetricsEnabled: envutil.Bool(log, "METRICS_ENABLED", false),
		MetricsAddr:    envutil.String(log, "METRICS_ADDR", ":9090"),
	}
}

// gcpCredentials accepts inline JSON or a key file path.
func gcpCredentials(log *logger.Logger) string {
	if v := envutil.String(log, "GOOGLE_APPLICATION_CREDENTIALS_JSON", ""); v != "" {
		return v
	}
	return envutil.String(log, "GOOGLE_APPLICATION_CREDENTIALS", "")
}

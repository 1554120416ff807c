package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	ServerPort string
	GinMode    string

	LogLevel      string
	LogFormat     string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	UploadDir      string
	MaxUploadBytes int64
	// AllowedOrigins controls HTTP CORS.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	ParserModel   string

	CacheDriver        string
	RedisURL           string
	AIResponseTTL      time.Duration
	ParseCacheTTL      time.Duration
	CacheSweepInterval time.Duration

	// AIRateLimit is the number of /api/ai requests allowed per minute per IP.
	// Zero disables the limiter.
	AIRateLimit int

	MaxPDFPages      int
	ParserTextBudget int
	ParserTimeout    time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load()

	openAIModel := getEnv("OPENAI_MODEL", "gpt-3.5-turbo-16k")

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "9000"),
		GinMode:    getEnv("GIN_MODE", "debug"),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "pretty"),
		LogFile:       getEnv("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 50),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 14),

		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_SIZE_MB", 10)) * 1024 * 1024,
		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "")),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:   openAIModel,
		ParserModel:   getEnv("OPENAI_PARSER_MODEL", openAIModel),

		CacheDriver:        strings.ToLower(getEnv("CACHE_DRIVER", "memory")),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379/0"),
		AIResponseTTL:      time.Duration(getEnvInt("AI_CACHE_TTL_MINUTES", 120)) * time.Minute,
		ParseCacheTTL:      time.Duration(getEnvInt("PARSE_CACHE_TTL_HOURS", 24)) * time.Hour,
		CacheSweepInterval: time.Duration(getEnvInt("CACHE_SWEEP_INTERVAL_SECONDS", 300)) * time.Second,

		AIRateLimit: getEnvInt("AI_RATE_LIMIT_PER_MINUTE", 60),

		MaxPDFPages:      getEnvInt("MAX_PDF_PAGES", 10),
		ParserTextBudget: getEnvInt("PARSER_TEXT_BUDGET", 6000),
		ParserTimeout:    time.Duration(getEnvInt("PARSER_TIMEOUT_SECONDS", 25)) * time.Second,
	}
}

// UseRedisCache reports whether the response cache should live in Redis.
func (c *Config) UseRedisCache() bool {
	return c.CacheDriver == "redis"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

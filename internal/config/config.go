package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	ListenAddr string
	PublicURL  string
	DBPath     string

	KVBackend     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PostgresDSN   string

	OracleBackend     string
	GeminiAPIKey      string
	GeminiModel       string
	GeminiSearchModel string
	ClaudeAPIKey      string
	ClaudeModel       string
	OllamaHost        string
	OllamaModel       string
	IdentifyBackend   string
	AWSRegion         string

	PhotoBackend string
	PhotoPath    string
	S3Bucket     string
	S3Endpoint   string
	S3AccessKey  string
	S3SecretKey  string

	KafkaBroker string
	KafkaTopic  string

	JWTSecret   string
	JWTTTL      time.Duration
	CORSOrigins string

	SessionIdleTTL time.Duration

	LeadPrice  decimal.Decimal
	DefaultLat float64
	DefaultLng float64

	LogLevel  string
	LogFile   string
	LogFormat string
}

// Load reads the configuration from the environment. Variables found in the
// file named by ENV_FILE (default .env) are loaded first; they never
// override variables already set.
func Load() *Config {
	_ = godotenv.Load(getEnv("ENV_FILE", ".env"))

	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
		PublicURL:  getEnv("PUBLIC_URL", "http://localhost:8080"),
		DBPath:     getEnv("DB_PATH", "/data/dishout.db"),

		KVBackend:     getEnv("KV_BACKEND", "sqlite"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		PostgresDSN:   getEnv("POSTGRES_DSN", ""),

		OracleBackend:     getEnv("ORACLE_BACKEND", "gemini"),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiSearchModel: getEnv("GEMINI_SEARCH_MODEL", "gemini-2.5-flash"),
		ClaudeAPIKey:      getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:       getEnv("CLAUDE_MODEL", "claude-opus-4-6"),
		OllamaHost:        getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:       getEnv("OLLAMA_MODEL", "llava"),
		IdentifyBackend:   getEnv("IDENTIFY_BACKEND", ""),
		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),

		PhotoBackend: getEnv("PHOTO_BACKEND", "local"),
		PhotoPath:    getEnv("PHOTO_LOCAL_PATH", "/data/photos"),
		S3Bucket:     getEnv("S3_BUCKET", ""),
		S3Endpoint:   getEnv("S3_ENDPOINT", ""),
		S3AccessKey:  getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:  getEnv("S3_SECRET_KEY", ""),

		KafkaBroker: getEnv("KAFKA_BROKER", ""),
		KafkaTopic:  getEnv("KAFKA_TOPIC", "dishout.events"),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTTTL:      getEnvDuration("JWT_TTL", 30*24*time.Hour),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		SessionIdleTTL: getEnvDuration("SESSION_IDLE_TTL", 30*time.Minute),

		LeadPrice:  getEnvDecimal("LEAD_PRICE", decimal.NewFromInt(3)),
		DefaultLat: getEnvFloat("DEFAULT_LAT", 25.2048),
		DefaultLng: getEnvFloat("DEFAULT_LNG", 55.2708),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFile:   getEnv("LOG_FILE", ""),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

// The typed getters fall back to the default when the value does not parse.

func getEnvInt(key string, defaultVal int) int {
	if n, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return n
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if f, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return f
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return d
	}
	return defaultVal
}

func getEnvDecimal(key string, defaultVal decimal.Decimal) decimal.Decimal {
	if d, err := decimal.NewFromString(getEnv(key, "")); err == nil {
		return d
	}
	return defaultVal
}

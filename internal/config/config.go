package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// placeholderAPIKey is the value shipped in the example .env file.
const placeholderAPIKey = "your_openai_api_key_here"

const (
	BackendOpenAI = "openai"
	BackendClaude = "claude"
	BackendOllama = "ollama"

	PhotoBackendLocal = "local"
	PhotoBackendS3    = "s3"
)

type Config struct {
	ListenAddr string
	DBPath     string

	ModelBackend   string
	AIAPIKey       string
	OpenAIBaseURL  string
	OpenAIModel    string
	ClaudeModel    string
	OllamaHost     string
	OllamaModel    string
	AITimeout      time.Duration
	BreakerEnabled bool

	PhotoBackend      string
	PhotoPath         string
	S3Endpoint        string
	S3Region          string
	S3Bucket          string
	S3AccessKeyID     string
	S3SecretAccessKey string

	RateLimitRPS   float64
	RateLimitBurst int

	LogLevel string
	LogFile  string
}

// Load reads configuration from the environment. Values in a .env file in
// the working directory are applied first but never override variables that
// are already set.
func Load() *Config {
	if err := loadDotEnv(".env"); err != nil {
		slog.Warn("failed to load .env file", "error", err)
	}

	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
		DBPath:     getEnv("DB_PATH", "/data/platewise.db"),

		ModelBackend:   strings.ToLower(getEnv("MODEL_BACKEND", BackendOpenAI)),
		AIAPIKey:       strings.TrimSpace(getEnv("AI_API_KEY", "")),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o"),
		ClaudeModel:    getEnv("CLAUDE_MODEL", "claude-3-5-sonnet-latest"),
		OllamaHost:     getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:    getEnv("OLLAMA_MODEL", "llava"),
		AITimeout:      time.Duration(getEnvInt("AI_TIMEOUT_SECONDS", 60)) * time.Second,
		BreakerEnabled: getEnvBool("AI_BREAKER_ENABLED", true),

		PhotoBackend:      strings.ToLower(getEnv("PHOTO_BACKEND", PhotoBackendLocal)),
		PhotoPath:         getEnv("PHOTO_LOCAL_PATH", "/data/photos"),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3Region:          getEnv("S3_REGION", "us-east-1"),
		S3Bucket:          getEnv("S3_BUCKET", ""),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 5),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}
}

// HasCredential reports whether the configured backend can be called. The
// ollama backend runs locally and needs no key.
func (c *Config) HasCredential() bool {
	if c.ModelBackend == BackendOllama {
		return true
	}
	if c.AIAPIKey == "" {
		return false
	}
	return !strings.EqualFold(c.AIAPIKey, placeholderAPIKey)
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil || n <= 0 {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", val)
		return defaultVal
	}
	return n
}

func getEnvFloat(key string, defaultVal float64) float64 {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil || f <= 0 {
		slog.Warn("invalid number in environment, using default", "key", key, "value", val)
		return defaultVal
	}
	return f
}

func getEnvBool(key string, defaultVal bool) bool {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	b, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		slog.Warn("invalid boolean in environment, using default", "key", key, "value", val)
		return defaultVal
	}
	return b
}

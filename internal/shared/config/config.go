package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	CORSAllowOrigin []string
	SpoolDir        string
	MaxUploadMB     int64
	RulesFile       string

	AIFixesEnabled bool
	LLMProvider    string
	OllamaURL      string
	OllamaModel    string
	OllamaTimeout  int
	LLMRatePerSec  float64
	LLMBurst       int
	FixConcurrency int

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	OpenAITimeout int

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience. Existing variables win.
	if files := existing(".env", "cmd/.env"); len(files) > 0 {
		_ = godotenv.Load(files...)
	}

	return Config{
		Port:            getEnv("PORT", "8000"),
		Env:             normalizeEnv(getEnv("ENV", "dev")),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		SpoolDir:        getEnv("SPOOL_DIR", os.TempDir()),
		MaxUploadMB:     int64(getInt("MAX_UPLOAD_MB", 25)),
		RulesFile:       getEnv("RULES_FILE", ""),

		AIFixesEnabled: getBool("AI_FIXES_ENABLED", true),
		LLMProvider:    normalizeProvider(getEnv("LLM_PROVIDER", "none")),
		OllamaURL:      getEnv("OLLAMA_URL", "http://127.0.0.1:11434"),
		OllamaModel:    getEnv("OLLAMA_MODEL", "llama3.2"),
		OllamaTimeout:  getInt("OLLAMA_TIMEOUT_SECONDS", 60),
		LLMRatePerSec:  getFloat("LLM_RATE_PER_SEC", 2),
		LLMBurst:       getInt("LLM_BURST", 4),
		FixConcurrency: getInt("FIX_CONCURRENCY", 4),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		OpenAITimeout: getInt("OPENAI_TIMEOUT_SECONDS", 120),

		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 10),
	}
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func existing(paths ...string) []string {
	var out []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return def
	}
	return f
}

func getBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ollama":
		return "ollama"
	case "openai":
		return "openai"
	default:
		return "none"
	}
}

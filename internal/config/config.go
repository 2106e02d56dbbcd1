package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort  string
	LogLevel string

	PublicDir   string
	CatalogPath string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	LLMTimeout    time.Duration

	AnalysisTemperature float64
	AnalysisMaxTokens   int
	ChatTemperature     float64
	ChatMaxTokens       int

	BreakerEnabled      bool
	BreakerMinRequests  int
	BreakerFailureRatio float64
	BreakerOpenTimeout  time.Duration

	SessionTTL          time.Duration
	TrackerPollInterval time.Duration
	TrackerLoadDelay    time.Duration

	NATSURL           string
	NATSSubjectPrefix string

	ChromeDebuggerURL string
	ChromeHeadless    bool
}

// Load reads the environment. A .env file in the working directory is applied
// first and never overrides variables that are already set.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		PublicDir:   mustEnv("PUBLIC_DIR", "./public"),
		CatalogPath: mustEnv("CATALOG_PATH", ""),

		OpenAIAPIKey:  mustEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: mustEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:   mustEnv("OPENAI_MODEL", "gpt-4o"),
		LLMTimeout:    mustEnvDuration("LLM_TIMEOUT", 120*time.Second),

		AnalysisTemperature: mustEnvFloat("ANALYSIS_TEMPERATURE", 0.3),
		AnalysisMaxTokens:   mustEnvInt("ANALYSIS_MAX_TOKENS", 4000),
		ChatTemperature:     mustEnvFloat("CHAT_TEMPERATURE", 0.7),
		ChatMaxTokens:       mustEnvInt("CHAT_MAX_TOKENS", 800),

		BreakerEnabled:      mustEnvBool("BREAKER_ENABLED", true),
		BreakerMinRequests:  mustEnvInt("BREAKER_MIN_REQUESTS", 10),
		BreakerFailureRatio: mustEnvFloat("BREAKER_FAILURE_RATIO", 0.5),
		BreakerOpenTimeout:  mustEnvDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second),

		SessionTTL:          mustEnvDuration("SESSION_TTL", 30*time.Minute),
		TrackerPollInterval: mustEnvDuration("TRACKER_POLL_INTERVAL", 2*time.Second),
		TrackerLoadDelay:    mustEnvDuration("TRACKER_LOAD_DELAY", time.Second),

		NATSURL:           mustEnv("NATS_URL", ""),
		NATSSubjectPrefix: mustEnv("NATS_SUBJECT_PREFIX", "lesson_portal"),

		ChromeDebuggerURL: mustEnv("CHROME_DEBUGGER_URL", ""),
		ChromeHeadless:    mustEnvBool("CHROME_HEADLESS", true),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
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

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

// mustEnvDuration accepts Go duration strings ("90s") or a bare number of seconds.
func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// MaxNumberedKeys is how many GROQ_API_KEY_<n> variables are scanned.
const MaxNumberedKeys = 10

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	APIToken        string

	DBDriver    string
	DatabaseURL string
	SQLitePath  string

	OutputStoreType string
	OutputDir       string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	LLMBaseURL     string
	LLMModel       string
	LLMProbeModel  string
	LLMMaxTokens   int
	LLMTemperature float32
	LLMTimeout     time.Duration
	LLMBackoff     time.Duration
	APIKeys        []string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	defaultDriver := "sqlite"
	if dbURL != "" {
		defaultDriver = "postgres"
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             normalizeEnv(getEnv("ENV", "dev")),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		APIToken:        strings.TrimSpace(os.Getenv("API_TOKEN")),

		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", defaultDriver)),
		DatabaseURL: dbURL,
		SQLitePath:  getEnv("SQLITE_PATH", "resumes.db"),

		OutputStoreType: normalizeStoreType(getEnv("OUTPUT_STORE", "local")),
		OutputDir:       getEnv("OUTPUT_DIR", "processed_resumes"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),

		LLMBaseURL:     getEnv("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
		LLMModel:       getEnv("LLM_MODEL", "llama3-8b-8192"),
		LLMProbeModel:  getEnv("LLM_PROBE_MODEL", "llama3-8b-8192"),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 1024),
		LLMTemperature: getEnvFloat32("LLM_TEMPERATURE", 0.9),
		LLMTimeout:     time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 120)) * time.Second,
		LLMBackoff:     getEnvDuration("LLM_RETRY_BACKOFF", time.Second),
		APIKeys:        DiscoverAPIKeys(os.Getenv),
	}
}

// DSN returns the connection string for the configured driver.
func (c Config) DSN() string {
	if c.DBDriver == "sqlite" || c.DBDriver == "sqlite3" {
		return c.SQLitePath
	}
	return c.DatabaseURL
}

// DiscoverAPIKeys collects credentials from GROQ_API_KEY_1..GROQ_API_KEY_10,
// then GROQ_API_KEY, then the comma-separated GROQ_API_KEYS. Blank entries
// are dropped and the first occurrence of a key wins.
func DiscoverAPIKeys(lookup func(string) string) []string {
	var raw []string
	for i := 1; i <= MaxNumberedKeys; i++ {
		raw = append(raw, lookup(fmt.Sprintf("GROQ_API_KEY_%d", i)))
	}
	raw = append(raw, lookup("GROQ_API_KEY"))
	raw = append(raw, strings.Split(lookup("GROQ_API_KEYS"), ",")...)

	seen := make(map[string]struct{}, len(raw))
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config env %s invalid int: %v", key, err)
		return def
	}
	return val
}

func getEnvFloat32(key string, def float32) float32 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		log.Printf("config env %s invalid float: %v", key, err)
		return def
	}
	return float32(val)
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config env %s invalid duration: %v", key, err)
		return def
	}
	return val
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

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

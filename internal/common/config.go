package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Gateway GatewayConfig
	OCR     OCRConfig
	LLM     LLMConfig
	Persist PersistConfig
}

// ServerConfig holds HTTP-server-related configuration
type ServerConfig struct {
	Addr        string
	UploadDir   string
	OntologyDir string
}

// GatewayConfig addresses the Guará REST gateway and the triple store behind it.
type GatewayConfig struct {
	BaseURL        string
	Email          string
	Password       string
	TripleStoreURL string // base URL datasets are addressed under, e.g. http://localhost:3030
	Timeout        time.Duration
}

// OCRConfig holds text-recovery configuration.
type OCRConfig struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"
	Lang      string // tesseract language, default "por"
	DPI       int    // rasterization DPI for scanned PDFs, default 300
}

// LLMConfig holds extraction-provider configuration. An empty APIKey is a
// valid state: extraction then runs on heuristics only.
type LLMConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// PersistConfig holds persistence-worker configuration.
type PersistConfig struct {
	ItemDelay    time.Duration // pacing between outbound repository calls
	HistoryLimit int           // max retained terminal tasks, 0 = unbounded
	SQLitePath   string        // when set, task history survives restarts
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        getEnv("HTTP_ADDR", ":5080"),
			UploadDir:   getEnv("UPLOAD_DIR", "./uploads"),
			OntologyDir: getEnv("ONTOLOGY_DIR", "./ontologies"),
		},
		Gateway: GatewayConfig{
			BaseURL:        getEnv("GUARA_API_URL", ""),
			Email:          getEnv("GUARA_API_EMAIL", ""),
			Password:       getEnv("GUARA_API_PASSWORD", ""),
			TripleStoreURL: getEnv("TRIPLE_STORE_URL", "http://localhost:3030"),
			Timeout:        getEnvAsDuration("GUARA_API_TIMEOUT", 30*time.Second),
		},
		OCR: OCRConfig{
			Tesseract: getEnv("TESSERACT_BIN", "tesseract"),
			Lang:      getEnv("TESSERACT_LANG", "por"),
			DPI:       getEnvAsInt("OCR_DPI", 300),
		},
		LLM: LLMConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Model:   getEnv("GEMINI_MODEL", "gemini-1.5-flash-latest"),
			Timeout: getEnvAsDuration("GEMINI_TIMEOUT", 90*time.Second),
		},
		Persist: PersistConfig{
			ItemDelay:    getEnvAsDuration("PERSIST_ITEM_DELAY", 500*time.Millisecond),
			HistoryLimit: getEnvAsInt("PERSIST_HISTORY_LIMIT", 1000),
			SQLitePath:   getEnv("PERSIST_SQLITE_PATH", ""),
		},
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Gateway.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "GUARA_API_URL is required", ErrInvalidInput)
	}
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

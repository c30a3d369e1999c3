package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	TabgestAPIKey string

	// Gemini extraction
	GeminiAPIKey          string
	GeminiModel           string
	GeminiMaxOutputTokens int
	GeminiTimeout         time.Duration

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Validation and repair
	EnableValidation bool
	EnableMerge      bool
	MinConfidence    float64

	// Job state
	JobTTL       time.Duration
	JobDBPath    string
	JobRetention time.Duration

	// Pathstore result store; empty URL disables it.
	PathstoreURL    string
	PathstoreAPIKey string

	// OCR
	OCRLanguage        string
	OCRMinWidth        int
	OCRContrastEnhance bool

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		TabgestAPIKey: os.Getenv("TABGEST_API_KEY"),

		GeminiAPIKey:          os.Getenv("GEMINI_API_KEY"),
		GeminiModel:           envOr("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiMaxOutputTokens: envInt("GEMINI_MAX_OUTPUT_TOKENS", 40000),
		GeminiTimeout:         envDuration("GEMINI_TIMEOUT", 10*time.Minute),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 100<<20), // 100MB

		EnableValidation: envBool("ENABLE_VALIDATION", true),
		EnableMerge:      envBool("ENABLE_MERGE", true),
		MinConfidence:    envFloat("MIN_CONFIDENCE", 60),

		JobTTL:       envDuration("JOB_TTL", 1*time.Hour),
		JobDBPath:    os.Getenv("JOB_DB_PATH"),
		JobRetention: envDuration("JOB_RETENTION", 7*24*time.Hour),

		PathstoreURL:    os.Getenv("PATHSTORE_URL"),
		PathstoreAPIKey: os.Getenv("PATHSTORE_API_KEY"),

		OCRLanguage:        envOr("OCR_LANGUAGE", "eng"),
		OCRMinWidth:        envInt("OCR_MIN_WIDTH", 1600),
		OCRContrastEnhance: envBool("OCR_CONTRAST_ENHANCE", true),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 100 << 20
	}
	if cfg.GeminiMaxOutputTokens <= 0 {
		cfg.GeminiMaxOutputTokens = 40000
	}
	if cfg.GeminiTimeout <= 0 {
		cfg.GeminiTimeout = 10 * time.Minute
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.OCRMinWidth < 0 {
		cfg.OCRMinWidth = 0
	}

	return cfg
}

func (c Config) Validate() error {
	if c.TabgestAPIKey == "" {
		return fmt.Errorf("TABGEST_API_KEY is required")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.MinConfidence < 0 || c.MinConfidence > 100 {
		return fmt.Errorf("MIN_CONFIDENCE must be between 0 and 100, got %g", c.MinConfidence)
	}
	if c.PathstoreURL != "" && c.PathstoreAPIKey == "" {
		return fmt.Errorf("PATHSTORE_API_KEY is required when PATHSTORE_URL is set")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

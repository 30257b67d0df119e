package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/option"

	"cmrdocs/internal/analysis"
	"cmrdocs/internal/cache"
	"cmrdocs/internal/documentai"
	"cmrdocs/internal/llm"
	"cmrdocs/internal/logger"
)

// Provider names accepted in PROVIDER.
const (
	ProviderVision     = "vision"
	ProviderDocumentAI = "documentai"
	ProviderOpenAI     = "openai"
	ProviderTesseract  = "tesseract"
)

type Config struct {
	// Provider selects the upstream engine
	Provider string

	// OpenAI Configuration
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAITemperature float32
	OpenAIMaxRetries  int

	// Google Cloud Configuration
	GoogleCloudProject           string
	GoogleCloudLocation          string
	DocumentAIProcessorID        string
	DocumentAIProcessorVersion   string
	GoogleCredentials            string // inline JSON
	GoogleApplicationCredentials string // path to JSON file

	// Local OCR
	TesseractLanguages string

	// Result cache
	CacheBackend    string
	CacheDir        string
	CacheTTL        time.Duration
	CacheMaxEntries int64

	// Upstream guards
	UpstreamRPM     int
	UpstreamBurst   int
	BreakerFailures int
	BreakerTimeout  time.Duration

	// Google Sheets Configuration
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	BatchWorkers int

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		Provider:                     strings.ToLower(getEnv("PROVIDER", ProviderVision)),
		OpenAIAPIKey:                 getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:                  getEnv("OPENAI_MODEL", llm.DefaultConfig().Model),
		OpenAITemperature:            getEnvFloat("OPENAI_TEMPERATURE", 0),
		OpenAIMaxRetries:             getEnvInt("OPENAI_MAX_RETRIES", 3),
		GoogleCloudProject:           getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:          getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID:        getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		DocumentAIProcessorVersion:   getEnv("DOCUMENT_AI_PROCESSOR_VERSION", ""),
		GoogleCredentials:            getEnv("GOOGLE_CREDENTIALS", ""),
		GoogleApplicationCredentials: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		TesseractLanguages:           getEnv("TESSERACT_LANGUAGES", "eng"),
		CacheBackend:                 strings.ToLower(getEnv("CACHE_BACKEND", cache.BackendMemory)),
		CacheDir:                     getEnv("CACHE_DIR", ".cache/cmrdocs"),
		CacheTTL:                     getEnvDuration("CACHE_TTL", 24*time.Hour),
		CacheMaxEntries:              int64(getEnvInt("CACHE_MAX_ENTRIES", 10000)),
		UpstreamRPM:                  getEnvInt("UPSTREAM_RPM", 0),
		UpstreamBurst:                getEnvInt("UPSTREAM_BURST", 1),
		BreakerFailures:              getEnvInt("BREAKER_FAILURES", 5),
		BreakerTimeout:               getEnvDuration("BREAKER_TIMEOUT", 30*time.Second),
		GoogleSheetURL:               getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet:         getEnv("GOOGLE_SHEET_WORKSHEET", "CMR_Analysis"),
		BatchWorkers:                 getEnvInt("BATCH_WORKERS", 4),
		LogLevel:                     getEnv("LOG_LEVEL", "info"),
		LogFormat:                    getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:                getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:                    getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// validate checks only what the selected provider needs.
func (c *Config) validate() error {
	switch c.Provider {
	case ProviderVision, ProviderTesseract:
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required")
		}
	case ProviderDocumentAI:
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required")
		}
		if c.DocumentAIProcessorID == "" {
			return fmt.Errorf("DOCUMENT_AI_PROCESSOR_ID is required")
		}
	default:
		return fmt.Errorf("unknown PROVIDER %q (want vision, documentai, openai or tesseract)", c.Provider)
	}

	switch c.CacheBackend {
	case cache.BackendMemory, cache.BackendBadger, cache.BackendNone:
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q (want memory, badger or none)", c.CacheBackend)
	}
	if c.CacheBackend == cache.BackendBadger && c.CacheDir == "" {
		return fmt.Errorf("CACHE_DIR is required for the badger cache")
	}
	if c.BatchWorkers <= 0 {
		return fmt.Errorf("BATCH_WORKERS must be positive")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// GoogleClientOptions returns the credential options for Google API clients.
// Inline GOOGLE_CREDENTIALS wins over a GOOGLE_APPLICATION_CREDENTIALS file;
// no options means application default credentials.
func (c *Config) GoogleClientOptions() []option.ClientOption {
	switch {
	case c.GoogleCredentials != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(c.GoogleCredentials))}
	case c.GoogleApplicationCredentials != "":
		return []option.ClientOption{option.WithCredentialsFile(c.GoogleApplicationCredentials)}
	}
	return nil
}

// GoogleCredentialsJSON returns the raw service account key.
func (c *Config) GoogleCredentialsJSON() ([]byte, error) {
	if c.GoogleCredentials != "" {
		return []byte(c.GoogleCredentials), nil
	}
	if c.GoogleApplicationCredentials != "" {
		creds, err := os.ReadFile(c.GoogleApplicationCredentials)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		return creds, nil
	}
	return nil, fmt.Errorf("neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set")
}

func (c *Config) DocumentAI() documentai.Config {
	cfg := documentai.DefaultConfig()
	cfg.ProjectID = c.GoogleCloudProject
	cfg.Location = c.GoogleCloudLocation
	cfg.ProcessorID = c.DocumentAIProcessorID
	cfg.ProcessorVersion = c.DocumentAIProcessorVersion
	return cfg
}

func (c *Config) LLM() llm.Config {
	return llm.Config{
		Model:       c.OpenAIModel,
		Temperature: c.OpenAITemperature,
		MaxRetries:  c.OpenAIMaxRetries,
	}
}

func (c *Config) Cache() cache.Options {
	return cache.Options{
		Backend:    c.CacheBackend,
		Dir:        c.CacheDir,
		TTL:        c.CacheTTL,
		MaxEntries: c.CacheMaxEntries,
	}
}

func (c *Config) Analysis() analysis.Options {
	failures := c.BreakerFailures
	if failures < 0 {
		failures = 0
	}
	return analysis.Options{
		RPM:             c.UpstreamRPM,
		Burst:           c.UpstreamBurst,
		BreakerFailures: uint32(failures),
		BreakerTimeout:  c.BreakerTimeout,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(parsed)
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PROVIDER", "OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_TEMPERATURE", "OPENAI_MAX_RETRIES",
	"GOOGLE_CLOUD_PROJECT", "GOOGLE_CLOUD_LOCATION", "DOCUMENT_AI_PROCESSOR_ID",
	"DOCUMENT_AI_PROCESSOR_VERSION", "GOOGLE_CREDENTIALS", "GOOGLE_APPLICATION_CREDENTIALS",
	"TESSERACT_LANGUAGES", "CACHE_BACKEND", "CACHE_DIR", "CACHE_TTL", "CACHE_MAX_ENTRIES",
	"UPSTREAM_RPM", "UPSTREAM_BURST", "BREAKER_FAILURES", "BREAKER_TIMEOUT",
	"GOOGLE_SHEET_URL", "GOOGLE_SHEET_WORKSHEET", "BATCH_WORKERS",
	"LOG_LEVEL", "LOG_FORMAT", "LOG_TIME_FORMAT", "LOG_OUTPUT",
}

// clearEnv blanks every variable Load reads; getEnv treats "" as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderVision, cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, 3, cfg.OpenAIMaxRetries)
	assert.Equal(t, "us", cfg.GoogleCloudLocation)
	assert.Equal(t, "eng", cfg.TesseractLanguages)
	assert.Equal(t, "memory", cfg.CacheBackend)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.EqualValues(t, 10000, cfg.CacheMaxEntries)
	assert.Equal(t, 0, cfg.UpstreamRPM)
	assert.Equal(t, 5, cfg.BreakerFailures)
	assert.Equal(t, 30*time.Second, cfg.BreakerTimeout)
	assert.Equal(t, "CMR_Analysis", cfg.GoogleSheetWorksheet)
	assert.Equal(t, 4, cfg.BatchWorkers)
	assert.Equal(t, "stderr", cfg.LogOutput)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_TEMPERATURE", "0.2")
	t.Setenv("CACHE_BACKEND", "badger")
	t.Setenv("CACHE_DIR", "/tmp/cmr")
	t.Setenv("CACHE_TTL", "90m")
	t.Setenv("UPSTREAM_RPM", "120")
	t.Setenv("UPSTREAM_BURST", "not-a-number")
	t.Setenv("BATCH_WORKERS", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.InDelta(t, 0.2, cfg.OpenAITemperature, 1e-6)
	assert.Equal(t, "badger", cfg.CacheBackend)
	assert.Equal(t, 90*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 120, cfg.UpstreamRPM)
	assert.Equal(t, 1, cfg.UpstreamBurst, "unparsable values keep the default")
	assert.Equal(t, 8, cfg.BatchWorkers)

	llmCfg := cfg.LLM()
	assert.Equal(t, "gpt-4o-mini", llmCfg.Model)
	assert.Equal(t, 3, llmCfg.MaxRetries)

	cacheOpts := cfg.Cache()
	assert.Equal(t, "/tmp/cmr", cacheOpts.Dir)
	assert.Equal(t, 90*time.Minute, cacheOpts.TTL)

	analysisOpts := cfg.Analysis()
	assert.Equal(t, 120, analysisOpts.RPM)
	assert.EqualValues(t, 5, analysisOpts.BreakerFailures)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown provider",
			env:     map[string]string{"PROVIDER": "textract"},
			wantErr: "unknown PROVIDER",
		},
		{
			name:    "openai without key",
			env:     map[string]string{"PROVIDER": "openai"},
			wantErr: "OPENAI_API_KEY is required",
		},
		{
			name:    "document ai without project",
			env:     map[string]string{"PROVIDER": "documentai", "DOCUMENT_AI_PROCESSOR_ID": "abc"},
			wantErr: "GOOGLE_CLOUD_PROJECT is required",
		},
		{
			name:    "document ai without processor",
			env:     map[string]string{"PROVIDER": "documentai", "GOOGLE_CLOUD_PROJECT": "p"},
			wantErr: "DOCUMENT_AI_PROCESSOR_ID is required",
		},
		{
			name:    "unknown cache backend",
			env:     map[string]string{"CACHE_BACKEND": "redis"},
			wantErr: "unknown CACHE_BACKEND",
		},
		{
			name:    "negative workers",
			env:     map[string]string{"BATCH_WORKERS": "-1"},
			wantErr: "BATCH_WORKERS must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDocumentAIConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROVIDER", "documentai")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "my-project")
	t.Setenv("GOOGLE_CLOUD_LOCATION", "eu")
	t.Setenv("DOCUMENT_AI_PROCESSOR_ID", "proc-1")

	cfg, err := Load()
	require.NoError(t, err)

	da := cfg.DocumentAI()
	assert.Equal(t, "my-project", da.ProjectID)
	assert.Equal(t, "eu", da.Location)
	assert.Equal(t, "proc-1", da.ProcessorID)
	assert.Equal(t, "projects/my-project/locations/eu/processors/proc-1", da.ProcessorName())
}

func TestGoogleCredentials(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		cfg := &Config{}
		assert.Empty(t, cfg.GoogleClientOptions())
		_, err := cfg.GoogleCredentialsJSON()
		assert.Error(t, err)
	})

	t.Run("inline wins", func(t *testing.T) {
		cfg := &Config{GoogleCredentials: `{"type":"service_account"}`, GoogleApplicationCredentials: "/missing.json"}
		assert.Len(t, cfg.GoogleClientOptions(), 1)
		creds, err := cfg.GoogleCredentialsJSON()
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"service_account"}`, string(creds))
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "key.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"type":"service_account"}`), 0o600))

		cfg := &Config{GoogleApplicationCredentials: path}
		assert.Len(t, cfg.GoogleClientOptions(), 1)
		creds, err := cfg.GoogleCredentialsJSON()
		require.NoError(t, err)
		assert.Contains(t, string(creds), "service_account")
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := &Config{GoogleApplicationCredentials: filepath.Join(t.TempDir(), "nope.json")}
		_, err := cfg.GoogleCredentialsJSON()
		assert.Error(t, err)
	})
}

func TestGetLoggerConfig(t *testing.T) {
	cfg := &Config{LogLevel: "debug", LogFormat: "json", LogTimeFormat: time.RFC3339, LogOutput: "stdout"}
	lc := cfg.GetLoggerConfig()
	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, "json", lc.Format)
	assert.Equal(t, "stdout", lc.Output)
}

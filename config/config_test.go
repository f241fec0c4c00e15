package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(env(nil))
	require.NoError(t, err)
	assert.Equal(t, DefaultRelayURL, cfg.RelayURL)
	assert.Equal(t, DefaultExtractURL, cfg.ExtractURL)
	assert.Equal(t, 15*time.Second, cfg.RelayTimeout)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, 15, cfg.MaxPerCategory)
	assert.Equal(t, 6000, cfg.PromptMaxChars)
	assert.Equal(t, "closet.db", cfg.DBPath)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Empty(t, cfg.GeminiAPIKey)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(env(map[string]string{
		"CLOSET_RELAY_URL":        "http://relay:8080/api/generate-outfit",
		"CLOSET_RELAY_TIMEOUT":    "5s",
		"CLOSET_CACHE_TTL":        "10m",
		"CLOSET_MAX_PER_CATEGORY": "8",
		"CLOSET_DB_PATH":          "/var/lib/closet/closet.db",
		"PORT":                    "8080",
		"GEMINI_API_KEY":          "key",
		"GEMINI_MODEL":            "gemini-2.5-flash",
		"LOG_LEVEL":               "debug",
	}))
	require.NoError(t, err)
	assert.Equal(t, "http://relay:8080/api/generate-outfit", cfg.RelayURL)
	assert.Equal(t, 5*time.Second, cfg.RelayTimeout)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 8, cfg.MaxPerCategory)
	assert.Equal(t, "/var/lib/closet/closet.db", cfg.DBPath)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "key", cfg.GeminiAPIKey)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"CLOSET_RELAY_TIMEOUT":    "soon",
		"CLOSET_CACHE_TTL":        "-1m",
		"CLOSET_MAX_PER_CATEGORY": "many",
		"CLOSET_PROMPT_MAX_CHARS": "0",
		"PORT":                    "http",
		"LOG_LEVEL":               "loud",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			_, err := load(env(map[string]string{key: value}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	AppName     = "virtual-closet"
	EnvFileName = "config.env"
)

const (
	DefaultRelayURL       = "http://localhost:3000/api/generate-outfit"
	DefaultExtractURL     = "http://localhost:3000/api/extract-product"
	DefaultRelayTimeout   = 15 * time.Second
	DefaultCacheTTL       = time.Hour
	DefaultMaxPerCategory = 15
	DefaultPromptMaxChars = 6000
	DefaultDBPath         = "closet.db"
	DefaultPort           = 3000
)

// Config is the runtime configuration shared by the relay server and the
// closet CLI.
type Config struct {
	RelayURL       string
	ExtractURL     string
	RelayTimeout   time.Duration
	CacheTTL       time.Duration
	MaxPerCategory int
	PromptMaxChars int
	DBPath         string
	Port           int
	GeminiAPIKey   string
	GeminiModel    string
	LogLevel       zerolog.Level
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory. Errors are ignored since the file may not exist.
// Variables already set in the environment win.
func LoadEnvFile() {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return
	}
	configPath := filepath.Join(configBase, AppName, EnvFileName)
	_ = godotenv.Load(configPath)
}

// Load reads the configuration from the environment, applying defaults
// for unset variables. Set but unparsable values are errors.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	cfg := Config{
		RelayURL:     stringOr(getenv("CLOSET_RELAY_URL"), DefaultRelayURL),
		ExtractURL:   stringOr(getenv("CLOSET_EXTRACT_URL"), DefaultExtractURL),
		DBPath:       stringOr(getenv("CLOSET_DB_PATH"), DefaultDBPath),
		GeminiAPIKey: getenv("GEMINI_API_KEY"),
		GeminiModel:  getenv("GEMINI_MODEL"),
		LogLevel:     zerolog.InfoLevel,
	}

	var err error
	if cfg.RelayTimeout, err = durationOr(getenv, "CLOSET_RELAY_TIMEOUT", DefaultRelayTimeout); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTL, err = durationOr(getenv, "CLOSET_CACHE_TTL", DefaultCacheTTL); err != nil {
		return Config{}, err
	}
	if cfg.MaxPerCategory, err = intOr(getenv, "CLOSET_MAX_PER_CATEGORY", DefaultMaxPerCategory); err != nil {
		return Config{}, err
	}
	if cfg.PromptMaxChars, err = intOr(getenv, "CLOSET_PROMPT_MAX_CHARS", DefaultPromptMaxChars); err != nil {
		return Config{}, err
	}
	if cfg.Port, err = intOr(getenv, "PORT", DefaultPort); err != nil {
		return Config{}, err
	}
	if level := getenv("LOG_LEVEL"); level != "" {
		if cfg.LogLevel, err = zerolog.ParseLevel(level); err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
		}
	}

	return cfg, nil
}

func stringOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func durationOr(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, v)
	}
	return d, nil
}

func intOr(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, v)
	}
	return n, nil
}

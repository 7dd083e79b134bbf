package conf

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration
type Config struct {
	// Telegram configuration
	Telegram TelegramConfig

	// Settings store configuration
	Store StoreConfig

	// Status API configuration
	API APIConfig

	// Operator IDs seeded from the environment, merged into the stored
	// settings document on load
	SeedOperators []int64

	// Debug mode
	Debug bool
}

// TelegramConfig contains Telegram configuration
type TelegramConfig struct {
	Token       string
	PollTimeout time.Duration
}

// StoreConfig contains settings store configuration
type StoreConfig struct {
	DBPath string
}

// APIConfig contains status API configuration
type APIConfig struct {
	Port int // 0 disables the status API
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Settings DB path
	dbPath := os.Getenv("SETTINGS_DB_PATH")
	if dbPath == "" {
		homeDir, _ := os.UserHomeDir()
		dbPath = filepath.Join(homeDir, ".groupwarden", "settings.db")
	}

	// Long-poll timeout
	pollTimeout := 10 * time.Second
	if val := os.Getenv("POLL_TIMEOUT_SECONDS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			pollTimeout = time.Duration(parsed) * time.Second
		}
	}

	// Status API port
	apiPort := 0
	if val := os.Getenv("API_PORT"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			apiPort = parsed
		}
	}

	return &Config{
		Telegram: TelegramConfig{
			Token:       os.Getenv("TELEGRAM_BOT_TOKEN"),
			PollTimeout: pollTimeout,
		},
		Store: StoreConfig{
			DBPath: dbPath,
		},
		API: APIConfig{
			Port: apiPort,
		},
		SeedOperators: parseIDList(os.Getenv("SUPERADMINS")),
		Debug:         os.Getenv("DEBUG") == "true",
	}
}

// parseIDList parses a comma/whitespace separated list of user IDs,
// silently dropping anything non-numeric.
func parseIDList(raw string) []int64 {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	var ids []int64
	for _, f := range fields {
		if id, err := strconv.ParseInt(f, 10, 64); err == nil && id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return &ConfigError{Field: "TELEGRAM_BOT_TOKEN", Message: "required"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

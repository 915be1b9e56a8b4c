package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "SUTRADHAAR_"

// Config holds process-wide settings read from the environment.
type Config struct {
	Port               string
	DBPath             string
	LogLevel           string
	JWTSecret          string
	GuestDir           string
	SessionTTL         time.Duration
	MaxAttachmentBytes int64
	ExportRateLimit    int
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:               "8080",
		DBPath:             "sutradhaar.db",
		LogLevel:           "info",
		GuestDir:           "guest-data",
		SessionTTL:         30 * time.Minute,
		MaxAttachmentBytes: 5 << 20,
		ExportRateLimit:    20,
	}
}

// Load reads an optional .env file and then SUTRADHAAR_* variables.
func Load() (Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, starting from Default.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()
	get := func(key string) string {
		return strings.TrimSpace(getenv(envPrefix + key))
	}

	if v := get("PORT"); v != "" {
		cfg.Port = v
	}
	if v := get("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := get("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	cfg.JWTSecret = get("JWT_SECRET")
	if v := get("GUEST_DIR"); v != "" {
		cfg.GuestDir = v
	}
	if v := get("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid %sSESSION_TTL %q", envPrefix, v)
		}
		cfg.SessionTTL = d
	}
	if v := get("MAX_ATTACHMENT_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid %sMAX_ATTACHMENT_BYTES %q", envPrefix, v)
		}
		cfg.MaxAttachmentBytes = n
	}
	if v := get("EXPORT_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid %sEXPORT_RATE_LIMIT %q", envPrefix, v)
		}
		cfg.ExportRateLimit = n
	}
	return cfg, nil
}

// AuthEnabled reports whether bearer tokens can be verified.
func (c Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

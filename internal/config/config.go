package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the tab tracker daemon.
type Config struct {
	// CDP connection settings
	CDPAddress string
	CDPPort    int

	// Optional browser launch when no CDP endpoint is listening
	LaunchBrowser bool
	ProfileDir    string
	StartURL      string

	// Persistence settings. Persist false runs the cache memory-only.
	Persist   bool
	StatePath string

	// API settings
	BindAddr      string
	BindFallbacks []string

	// EagerCleanup registers tab removal/replacement hooks. Disabled it
	// trades eager cleanup of closed tabs for fewer wakeups; the next
	// startup reconciliation sweeps the leftovers.
	EagerCleanup bool

	// URL schemes eligible for tracking and notification
	SupportedSchemes []string

	// Optional NTFY-style endpoint pinged on every URL change. Empty disables it.
	NotifyURL string
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		CDPAddress:       getEnvOrDefault("CHROMIUM_CDP_ADDRESS", "127.0.0.1"),
		CDPPort:          getEnvIntOrDefault("CHROMIUM_CDP_PORT", 9222),
		LaunchBrowser:    getEnvBoolOrDefault("TABTRACKER_LAUNCH_BROWSER", false),
		ProfileDir:       getEnvOrDefault("TABTRACKER_PROFILE_DIR", "./data/profile"),
		StartURL:         getEnvOrDefault("TABTRACKER_START_URL", "about:blank"),
		Persist:          getEnvBoolOrDefault("TABTRACKER_PERSIST", true),
		StatePath:        getEnvOrDefault("TABTRACKER_STATE_DB", "./data/tabstate.db"),
		BindAddr:         getEnvOrDefault("TABTRACKER_BIND_ADDR", "127.0.0.1:8790"),
		BindFallbacks:    splitList(getEnvOrDefault("TABTRACKER_BIND_FALLBACKS", "127.0.0.1:8791,127.0.0.1:8792")),
		EagerCleanup:     getEnvBoolOrDefault("TABTRACKER_EAGER_CLEANUP", true),
		SupportedSchemes: splitList(getEnvOrDefault("TABTRACKER_SUPPORTED_SCHEMES", "http,https,file")),
		NotifyURL:        getEnvOrDefault("TABTRACKER_NOTIFY_URL", ""),
	}

	return cfg, nil
}

// GetCDPURL returns the full CDP HTTP endpoint used by chromedp remote allocator.
func (c *Config) GetCDPURL() string {
	return fmt.Sprintf("http://%s:%d", c.CDPAddress, c.CDPPort)
}

// SupportedURL reports whether a URL's scheme is eligible for tracking. This
// is the URL-support predicate: unsupported URLs are still cached on
// navigation, they just never produce notifications and are dropped at
// reconciliation.
func (c *Config) SupportedURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	for _, scheme := range c.SupportedSchemes {
		if strings.EqualFold(parsed.Scheme, scheme) {
			return true
		}
	}
	return false
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// ABOUTME: Configuration loader for the course-author client and upload relay
// ABOUTME: Loads settings from environment variables (and an optional .env) with defaults

package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// JournalDisabled turns the ingest journal off when used as UPLOAD_JOURNAL_PATH.
const JournalDisabled = "off"

// DefaultAllowedHosts is the relay allow-list when UPLOAD_PROXY_ALLOWED_HOSTS is unset.
var DefaultAllowedHosts = []string{"localhost", "127.0.0.1", "minio"}

type Config struct {
	// Backend
	APIURL   string
	OrgID    string
	Email    string
	Password string

	// Upload transport
	RelayURL       string
	DirectDisabled bool
	RequestTimeout time.Duration
	UploadTimeout  time.Duration

	// Authoring
	CatalogCacheTTL time.Duration
	JournalPath     string // empty when the journal is disabled

	// Relay server
	Port              string
	AllowedHosts      []string
	RelayMaxUploadMB  int
	RelayAllProxy     string // ssh+socks5://user@jumphost:22?private-key=/path
	RateLimitEnabled  bool
	RateLimitRelay    int // requests per minute per client (default: 60)
	ShutdownGraceTime time.Duration

	relayExplicit bool
}

// JournalEnabled reports whether ingest stages should be recorded
func (c *Config) JournalEnabled() bool {
	return c.JournalPath != ""
}

// Credentials reports whether a login can be performed without prompting
func (c *Config) Credentials() bool {
	return c.Email != "" && c.Password != ""
}

// RelayMaxUploadBytes is the relay body cap in bytes.
func (c *Config) RelayMaxUploadBytes() int64 {
	return int64(c.RelayMaxUploadMB) << 20
}

func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		OrgID:    os.Getenv("LMS_ORG_ID"),
		Email:    os.Getenv("LMS_EMAIL"),
		Password: os.Getenv("LMS_PASSWORD"),

		RelayURL:       os.Getenv("UPLOAD_RELAY_URL"),
		DirectDisabled: getEnvBool("UPLOAD_DIRECT_DISABLED", false),
		RequestTimeout: getEnvSeconds("REQUEST_TIMEOUT", 30),
		UploadTimeout:  getEnvSeconds("UPLOAD_TIMEOUT", 600),

		CatalogCacheTTL: getEnvSeconds("CATALOG_CACHE_TTL", 60),
		JournalPath:     journalPath(os.Getenv("UPLOAD_JOURNAL_PATH")),

		Port:              getEnv("PORT", "8080"),
		AllowedHosts:      getEnvStringList("UPLOAD_PROXY_ALLOWED_HOSTS"),
		RelayMaxUploadMB:  getEnvInt("RELAY_MAX_UPLOAD_MB", 512),
		RelayAllProxy:     os.Getenv("RELAY_ALL_PROXY"),
		RateLimitEnabled:  getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitRelay:    getEnvInt("RATE_LIMIT_RELAY", 60),
		ShutdownGraceTime: getEnvSeconds("SHUTDOWN_GRACE", 10),
	}

	if len(cfg.AllowedHosts) == 0 {
		cfg.AllowedHosts = append([]string(nil), DefaultAllowedHosts...)
	}

	cfg.relayExplicit = cfg.RelayURL != ""
	if err := cfg.SetAPIURL(getEnv("LMS_API_URL", "http://localhost:3000/api")); err != nil {
		return nil, err
	}

	if cfg.RelayMaxUploadMB < 1 {
		return nil, fmt.Errorf("RELAY_MAX_UPLOAD_MB must be at least 1, got %d", cfg.RelayMaxUploadMB)
	}
	if cfg.RateLimitRelay < 1 || cfg.RateLimitRelay > 10000 {
		return nil, fmt.Errorf("RATE_LIMIT_RELAY must be between 1 and 10000, got %d", cfg.RateLimitRelay)
	}
	if cfg.RequestTimeout <= 0 || cfg.UploadTimeout <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT and UPLOAD_TIMEOUT must be positive")
	}

	return cfg, nil
}

// SetAPIURL sets the backend base URL. Unless UPLOAD_RELAY_URL was given,
// the relay URL follows the API origin.
func (c *Config) SetAPIURL(raw string) error {
	raw = strings.TrimRight(ensureScheme(strings.TrimSpace(raw)), "/")
	api, err := url.Parse(raw)
	if err != nil || api.Host == "" {
		return fmt.Errorf("LMS_API_URL is not a valid URL: %q", raw)
	}
	c.APIURL = raw
	if !c.relayExplicit {
		c.RelayURL = (&url.URL{Scheme: api.Scheme, Host: api.Host, Path: "/internal/upload-proxy"}).String()
	}
	return nil
}

// loadDotEnv reads .env from the working directory outside production.
// A missing file is not an error.
func loadDotEnv() {
	if strings.EqualFold(os.Getenv("APP_ENV"), "production") {
		return
	}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Debug("Could not load .env file", "error", err)
	}
}

func journalPath(value string) string {
	switch strings.TrimSpace(value) {
	case JournalDisabled:
		return ""
	case "":
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		return filepath.Join(home, ".course-author", "journal.db")
	default:
		return value
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
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvInt(key, defaultValue)) * time.Second
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvStringList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// ensureScheme adds https:// prefix if the URL has no scheme
func ensureScheme(url string) string {
	if url == "" {
		return url
	}
	if !strings.Contains(url, "://") {
		return "https://" + url
	}
	return url
}

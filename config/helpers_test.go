// ABOUTME: Test helpers for config tests
// ABOUTME: Blanks every variable Load reads so host settings cannot leak into assertions

package config

import "testing"

// configVars lists every environment variable Load consults.
var configVars = []string{
	"LMS_API_URL", "LMS_ORG_ID", "LMS_EMAIL", "LMS_PASSWORD",
	"UPLOAD_RELAY_URL", "UPLOAD_DIRECT_DISABLED", "REQUEST_TIMEOUT", "UPLOAD_TIMEOUT",
	"CATALOG_CACHE_TTL", "UPLOAD_JOURNAL_PATH", "PORT", "UPLOAD_PROXY_ALLOWED_HOSTS",
	"RELAY_MAX_UPLOAD_MB", "RELAY_ALL_PROXY", "RATE_LIMIT_ENABLED", "RATE_LIMIT_RELAY",
	"SHUTDOWN_GRACE", "LOG_LEVEL", "LOG_FORMAT",
}

// setCleanEnv blanks configVars for the test, pins APP_ENV to production so
// no .env file is read, points HOME at a temp dir, then applies extra.
// t.Setenv restores everything when the test ends.
func setCleanEnv(t *testing.T, extra map[string]string) {
	t.Helper()

	for _, key := range configVars {
		t.Setenv(key, "")
	}
	t.Setenv("APP_ENV", "production")
	t.Setenv("HOME", t.TempDir())

	for key, value := range extra {
		t.Setenv(key, value)
	}
}

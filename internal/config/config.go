// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBDriver      string `env:"CQ_DB_DRIVER" envDefault:"sqlite"` // sqlite or mysql
	DBPath        string `env:"CQ_DB_PATH" envDefault:"./data/chainquest.db"`
	DBDSN         string `env:"CQ_DB_DSN"` // MySQL DSN, required when DBDriver is mysql
	SessionSecret string `env:"CQ_SESSION_SECRET,required"`
	ServerHost    string `env:"CQ_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"CQ_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"CQ_ENV" envDefault:"development"`
	LogLevel      string `env:"CQ_LOG_LEVEL" envDefault:"info"`
	UploadsDir    string `env:"CQ_UPLOADS_DIR" envDefault:"./uploads"`

	// Cache configuration
	RedisURL     string `env:"CQ_REDIS_URL"`                               // Optional Redis URL for distributed caching
	CachePrefix  string `env:"CQ_CACHE_PREFIX" envDefault:"chainquest:"`   // Redis key prefix
	CacheTTL     int    `env:"CQ_CACHE_TTL" envDefault:"300"`              // Default cache TTL in seconds
	CacheMaxSize int    `env:"CQ_CACHE_MAX_SIZE" envDefault:"1000"`        // Max memory cache entries

	// GeoIP configuration
	GeoIPDBPath string `env:"CQ_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	// Panel session synchronization
	SyncInterval int `env:"CQ_SYNC_INTERVAL" envDefault:"10"` // Poll interval in seconds

	// Identity header trust. When true, X-User-ID is honored as the
	// request identity. Spoofing prevention is delegated to whatever
	// transport-level protection (reverse proxy, mTLS) fronts the server;
	// the application does not enforce it itself.
	TrustIdentityHeader bool `env:"CQ_TRUST_IDENTITY_HEADER" envDefault:"false"`

	// Seeding configuration
	DoSeed bool `env:"CQ_DO_SEED" envDefault:"false"` // Enable database seeding
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// SyncPollInterval returns the panel sync poll interval as a duration.
func (c Config) SyncPollInterval() time.Duration {
	if c.SyncInterval <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.SyncInterval) * time.Second
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "mysql" {
		return nil, fmt.Errorf("CQ_DB_DRIVER must be sqlite or mysql, got %q", cfg.DBDriver)
	}
	if cfg.DBDriver == "mysql" && cfg.DBDSN == "" {
		return nil, fmt.Errorf("CQ_DB_DSN is required when CQ_DB_DRIVER is mysql")
	}

	// Validate session secret length
	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("CQ_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	// Reject known weak/default secrets
	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("CQ_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("CQ_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}

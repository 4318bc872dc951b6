// Package config provides environment-based application configuration.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the configuration for the sync service and its remote systems.
type Config struct {
	// PortalURL is the HR portal base URL
	PortalURL string

	// PortalCompany is the company code sent with the portal login form
	PortalCompany string

	// ExchangeURL is the calendar service endpoint (must end with .asmx)
	ExchangeURL string

	// ExchangeDomain is the NT domain prefixed to calendar-service usernames
	ExchangeDomain string

	// Timeout applies to every remote call on both systems
	Timeout time.Duration

	// SessionTTL is how long an authenticated portal session is reused
	SessionTTL time.Duration

	// LookaheadMonths is how many months ahead each pull cycle covers
	LookaheadMonths int

	// SyncIntervalMin is how often the scheduler runs a full cycle
	SyncIntervalMin int

	// AdminToken gates the batch sync endpoints; empty disables the gate
	AdminToken string
}

// DefaultConfig returns the default configuration, reading from environment variables.
func DefaultConfig() Config {
	return Config{
		PortalURL:       getEnv("PORTAL_URL", "https://www.cascadehrponline.net/"),
		PortalCompany:   getEnv("PORTAL_COMPANY", ""),
		ExchangeURL:     getEnv("EXCHANGE_URL", ""),
		ExchangeDomain:  getEnv("EXCHANGE_DOMAIN", ""),
		Timeout:         30 * time.Second,
		SessionTTL:      60 * time.Second,
		LookaheadMonths: getEnvInt("SYNC_LOOKAHEAD_MONTHS", 6),
		SyncIntervalMin: getEnvInt("SYNC_INTERVAL_MIN", 60),
		AdminToken:      getEnv("ADMIN_TOKEN", ""),
	}
}

// getEnv returns an environment variable value or a default if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable value or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application-wide settings. It is read once from the
// environment at startup and treated as immutable afterwards.
type Config struct {
	// Database
	DatabaseURL string

	// Shelters is the fixed roster of shelter sites.
	Shelters []string

	// Session
	SessionMaxAge         int
	ResidentSessionMaxAge int
	SessionSweepInterval  time.Duration

	// Rate Limit (requests per minute)
	RateLimitGeneral int
	RateLimitLogin   int

	// Twilio. All three empty means SMS sending is disabled.
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// Admin bootstrap. Used by the migrate subcommand to create the
	// first admin account when none exists.
	AdminUsername string
	AdminPassword string

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// DefaultShelters is the roster used when SHELTERS is not set.
const DefaultShelters = "Abba,Haven,Gratitude"

// Load reads the Config from environment variables. It returns an error
// listing every required variable that is missing.
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.Shelters = parseShelters(getEnvString("SHELTERS", DefaultShelters))
	if len(cfg.Shelters) == 0 {
		return nil, fmt.Errorf("SHELTERS must name at least one shelter")
	}

	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.ResidentSessionMaxAge = getEnvInt("RESIDENT_SESSION_MAX_AGE", 43200)
	cfg.SessionSweepInterval = getEnvDuration("SESSION_SWEEP_INTERVAL", 1*time.Hour)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitLogin = getEnvInt("RATE_LIMIT_LOGIN", 10)
	cfg.TwilioAccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	cfg.TwilioAuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	cfg.TwilioFromNumber = os.Getenv("TWILIO_FROM_NUMBER")
	cfg.AdminUsername = os.Getenv("ADMIN_USERNAME")
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

// parseShelters splits a comma-separated roster, trimming whitespace and
// dropping empty entries.
func parseShelters(s string) []string {
	var shelters []string
	for _, part := range strings.Split(s, ",") {
		name := strings.TrimSpace(part)
		if name != "" {
			shelters = append(shelters, name)
		}
	}
	return shelters
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

package config

import (
	"os"
	"path/filepath"
	"strconv"
)

const (
	// Default Anthropic API URL
	defaultAnthropicAPIURL = "https://api.anthropic.com/v1/messages"
	// Default Google Calendar API base URL
	defaultCalendarAPIURL = "https://www.googleapis.com/calendar/v3"
	// Default model for roadmap generation and chat classification
	defaultModel = "claude-sonnet-4-20250514"
	// Timezone used to resolve relative dates in chat ("tomorrow", "next week")
	defaultTimezone = "Asia/Jakarta"
)

// Config holds application configuration
type Config struct {
	ListenAddr      string
	DBPath          string
	AnthropicAPIURL string
	AnthropicAPIKey string
	Model           string
	MaxTokens       int

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	CalendarAPIURL     string

	Timezone string
}

// globalConfig holds the application configuration instance
var globalConfig *Config

// Initialize sets up the configuration from environment variables
func Initialize() {
	globalConfig = &Config{
		ListenAddr:      envOr("WAYPOINT_ADDR", ":8000"),
		DBPath:          envOr("WAYPOINT_DB", defaultDBPath()),
		AnthropicAPIURL: getAnthropicAPIURL(),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		Model:           envOr("WAYPOINT_MODEL", defaultModel),
		MaxTokens:       envInt("WAYPOINT_MAX_TOKENS", 4096),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  envOr("GOOGLE_REDIRECT_URL", "http://localhost:8000/auth/google/callback"),
		CalendarAPIURL:     envOr("CALENDAR_API_URL", defaultCalendarAPIURL),

		Timezone: envOr("WAYPOINT_TZ", defaultTimezone),
	}
}

// Get returns the global configuration instance
func Get() *Config {
	if globalConfig == nil {
		Initialize()
	}
	return globalConfig
}

// CalendarConfigured reports whether Google OAuth credentials are present
func (c *Config) CalendarConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func defaultDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "waypoint.db"
	}
	return filepath.Join(homeDir, ".local", "share", "waypoint", "waypoint.db")
}

// getAnthropicAPIURL returns the API URL from environment or default
func getAnthropicAPIURL() string {
	// MSG_PROXY routes requests through a local proxy when set
	if proxyURL := os.Getenv("MSG_PROXY"); proxyURL != "" {
		return proxyURL + "/v1/messages"
	}
	return defaultAnthropicAPIURL
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

const (
	DriverSheets   = "sheets"
	DriverPostgres = "postgres"
)

type Config struct {
	// Discord Bot
	DiscordToken string

	// Operator: receives fault reports and may edit parameters
	AdminUserID string

	// Store backend
	StoreDriver     string
	SpreadsheetID   string
	CredentialsFile string
	Worksheet       string
	DatabaseURL     string

	// Web Server
	WebBind string

	// Operator API auth
	JWTSecret     string
	OperatorToken string
}

func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:    os.Getenv("DISCORD_TOKEN"),
		AdminUserID:     os.Getenv("ADMIN_USER_ID"),
		StoreDriver:     getEnvDefault("STORE_DRIVER", DriverSheets),
		SpreadsheetID:   os.Getenv("SPREADSHEET_ID"),
		CredentialsFile: getEnvDefault("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
		Worksheet:       getEnvDefault("WORKSHEET", "Sheet1"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		WebBind:         getEnvDefault("WEB_BIND", "0.0.0.0:3000"),
		JWTSecret:       getEnvDefault("JWT_SECRET", "dev-only-change-me"),
		OperatorToken:   os.Getenv("OPERATOR_TOKEN"),
	}

	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required")
	}

	switch cfg.StoreDriver {
	case DriverSheets:
		if cfg.SpreadsheetID == "" {
			return nil, fmt.Errorf("SPREADSHEET_ID is required for the sheets store")
		}
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	return cfg, nil
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

// Store backends.
const (
	BackendMemory  = "memory"
	BackendMongoDB = "mongodb"
)

// Config represents the full application configuration surface.
type Config struct {
	Server      ServerConfig
	Log         LogConfig
	Store       StoreConfig
	MongoDB     MongoDBConfig
	Consumption ConsumptionConfig
	Sheets      SheetsConfig
	WhatsApp    WhatsAppConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port            string        `envconfig:"APP_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
}

type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEVELOPMENT" default:"false"`
}

// StoreConfig selects where lots, weighings, diets and inventory live.
type StoreConfig struct {
	Backend string `envconfig:"STORE_BACKEND" default:"memory"`
	// SnapshotPath is only used by the memory backend. Empty disables snapshots.
	SnapshotPath string `envconfig:"STORE_SNAPSHOT_PATH"`
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string `envconfig:"MONGODB_URI"`
	DBName string `envconfig:"MONGODB_DB_NAME" default:"herdbook"`
}

// ConsumptionConfig schedules the daily diet deduction.
type ConsumptionConfig struct {
	CronSchedule string `envconfig:"CONSUMPTION_CRON_SCHEDULE" default:"0 6 * * *"`
	Timezone     string `envconfig:"TIMEZONE" default:"America/Sao_Paulo"`
}

// SheetsConfig contains configuration required to interact with Google Sheets.
// Export is disabled when SpreadsheetID is empty.
type SheetsConfig struct {
	CredentialsPath string `envconfig:"GOOGLE_SHEETS_CREDENTIALS_PATH"`
	SpreadsheetID   string `envconfig:"GOOGLE_SHEET_DATABASE_ID"`
	WeighingsRange  string `envconfig:"GOOGLE_SHEET_WEIGHINGS_RANGE" default:"Pesagens!A:J"`
}

// Enabled reports whether weighings should be exported.
func (s SheetsConfig) Enabled() bool {
	return s.SpreadsheetID != ""
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
// Notifications are disabled when AccessToken is empty.
type WhatsAppConfig struct {
	AccessToken   string `envconfig:"WHATSAPP_TOKEN"`
	PhoneNumberID string `envconfig:"WHATSAPP_PHONE_NUMBER_ID"`
	BaseURL       string `envconfig:"WHATSAPP_BASE_URL" default:"https://graph.facebook.com"`
	APIVersion    string `envconfig:"WHATSAPP_API_VERSION" default:"v20.0"`
	Recipient     string `envconfig:"WHATSAPP_RECIPIENT"`
}

// Enabled reports whether notifications should be sent.
func (w WhatsAppConfig) Enabled() bool {
	return w.AccessToken != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// A missing .env is fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate ensures that required configuration fields are populated and
// consistent with each other.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	switch c.Store.Backend {
	case BackendMemory:
	case BackendMongoDB:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided when STORE_BACKEND is mongodb")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must not be empty")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendMemory, BackendMongoDB, c.Store.Backend)
	}

	if _, err := cron.ParseStandard(c.Consumption.CronSchedule); err != nil {
		return fmt.Errorf("CONSUMPTION_CRON_SCHEDULE is invalid: %w", err)
	}
	if _, err := c.Consumption.Location(); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}

	if c.Sheets.Enabled() {
		if c.Sheets.CredentialsPath == "" {
			return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided with GOOGLE_SHEET_DATABASE_ID")
		}
		if c.Sheets.WeighingsRange == "" {
			return errors.New("GOOGLE_SHEET_WEIGHINGS_RANGE must not be empty")
		}
	}

	if c.WhatsApp.Enabled() {
		switch {
		case c.WhatsApp.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided with WHATSAPP_TOKEN")
		case c.WhatsApp.Recipient == "":
			return errors.New("WHATSAPP_RECIPIENT must be provided with WHATSAPP_TOKEN")
		case c.WhatsApp.BaseURL == "":
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		case c.WhatsApp.APIVersion == "":
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	return nil
}

// Location resolves the configured timezone.
func (c ConsumptionConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

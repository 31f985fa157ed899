package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
	AI        AIConfig
	MongoDB   MongoDBConfig
	Postgres  PostgresConfig
	Engine    EngineConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LoggerConfig selects the zap level and encoding.
type LoggerConfig struct {
	Level    string
	Encoding string
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
// The channel is optional; an empty AccessToken disables it.
type WhatsAppConfig struct {
	AccessToken      string
	PhoneNumberID    string
	VerifyToken      string
	BaseURL          string
	APIVersion       string
	DigestRecipients []string
}

// Enabled reports whether chat queries and digests are configured.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != ""
}

// SheetsConfig points at the planning workbook: input tabs the ledger is built
// from and output tabs it is mirrored to.
type SheetsConfig struct {
	CredentialsPath     string
	SpreadsheetID       string
	DemandRange         string
	ShipmentsRange      string
	PurchaseOrdersRange string
	InventoryRange      string
	CountRange          string
	LedgerRange         string
	SummaryRange        string
	ATPRange            string
	ViolationsRange     string
}

// Enabled reports whether the workbook is configured.
func (c SheetsConfig) Enabled() bool {
	return c.SpreadsheetID != ""
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	RebuildSchedule string
	DigestSchedule  string
	Timezone        string
}

// AIConfig holds settings for LLM providers.
type AIConfig struct {
	AnthropicKey string
	Model        string
}

// MongoDBConfig holds settings for the run history store.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// PostgresConfig holds the analytical store connection.
type PostgresConfig struct {
	DSN string
}

// EngineConfig locates the business policy file and overrides its numbers.
type EngineConfig struct {
	PolicyPath           string
	HorizonDays          string
	ShipmentTransitDays  string
	ReconcileMinAbsDelta string
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
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Logger: LoggerConfig{
			Level:    getenvWithDefault("LOG_LEVEL", "info"),
			Encoding: getenvWithDefault("LOG_ENCODING", "json"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:      os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID:    os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			VerifyToken:      os.Getenv("META_VERIFY_TOKEN"),
			BaseURL:          getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:       getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			DigestRecipients: splitList(os.Getenv("WHATSAPP_DIGEST_RECIPIENTS")),
		},
		Sheets: SheetsConfig{
			CredentialsPath:     os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:       os.Getenv("GOOGLE_SHEET_ID"),
			DemandRange:         getenvWithDefault("SHEET_DEMAND_RANGE", "Open Sales Orders!A:Z"),
			ShipmentsRange:      getenvWithDefault("SHEET_SHIPMENTS_RANGE", "Shipping Schedule!A:Z"),
			PurchaseOrdersRange: getenvWithDefault("SHEET_PURCHASE_ORDERS_RANGE", "Open Purchase Orders!A:Z"),
			InventoryRange:      getenvWithDefault("SHEET_INVENTORY_RANGE", "Inventory Status!A:Z"),
			CountRange:          os.Getenv("SHEET_COUNT_RANGE"),
			LedgerRange:         getenvWithDefault("SHEET_LEDGER_RANGE", "Ledger!A1"),
			SummaryRange:        getenvWithDefault("SHEET_SUMMARY_RANGE", "Item Summary!A1"),
			ATPRange:            getenvWithDefault("SHEET_ATP_RANGE", "ATP!A1"),
			ViolationsRange:     getenvWithDefault("SHEET_VIOLATIONS_RANGE", "Violations!A1"),
		},
		Reporting: ReportingConfig{
			RebuildSchedule: getenvWithDefault("REBUILD_CRON_SCHEDULE", "0 5 * * *"),
			DigestSchedule:  getenvWithDefault("DIGEST_CRON_SCHEDULE", "30 7 * * 1-5"),
			Timezone:        getenvWithDefault("TIMEZONE", "America/Los_Angeles"),
		},
		AI: AIConfig{
			AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
			Model:        getenvWithDefault("ANTHROPIC_MODEL", "claude-3-haiku-20240307"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "stockledger"),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("POSTGRES_DSN"),
		},
		Engine: EngineConfig{
			PolicyPath:           os.Getenv("ENGINE_POLICY_PATH"),
			HorizonDays:          os.Getenv("ENGINE_HORIZON_DAYS"),
			ShipmentTransitDays:  os.Getenv("ENGINE_SHIPMENT_TRANSIT_DAYS"),
			ReconcileMinAbsDelta: os.Getenv("ENGINE_RECONCILE_MIN_ABS_DELTA"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.WhatsApp.Enabled() {
		switch {
		case c.WhatsApp.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided")
		case c.WhatsApp.VerifyToken == "":
			return errors.New("META_VERIFY_TOKEN must be provided")
		case c.WhatsApp.BaseURL == "":
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		case c.WhatsApp.APIVersion == "":
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	if c.Sheets.Enabled() {
		if c.Sheets.CredentialsPath == "" {
			return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided")
		}
		if c.Sheets.DemandRange == "" || c.Sheets.ShipmentsRange == "" || c.Sheets.InventoryRange == "" {
			return errors.New("SHEET_DEMAND_RANGE, SHEET_SHIPMENTS_RANGE and SHEET_INVENTORY_RANGE must not be empty")
		}
	}

	if c.Reporting.RebuildSchedule == "" {
		return errors.New("REBUILD_CRON_SCHEDULE must be provided")
	}

	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Reporting.Timezone, err)
	}

	if c.MongoDB.URI != "" && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided")
	}

	return nil
}

// Location resolves the reporting timezone.
func (c ReportingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

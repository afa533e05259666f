package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	// HTTP Server
	Port               string   `toml:"port"`
	RateLimitPerMinute int      `toml:"rate_limit_per_minute"`
	LogLevel           string   `toml:"log_level"`
	TrustedProxies     []string `toml:"trusted_proxies"`

	// Backend selection
	DataBackend string `toml:"data_backend"`

	// Database
	SQLiteDBPath string `toml:"sqlite_db_path"`
	DatabaseURL  string `toml:"database_url"`
	SupabaseURL  string `toml:"supabase_url"`
	SupabaseKey  string `toml:"supabase_key"`

	// AMQP
	AMQPURL      string `toml:"amqp_url"`
	AMQPExchange string `toml:"amqp_exchange"`
	AMQPQueue    string `toml:"amqp_queue"`

	// Google Sheets export
	GoogleSpreadsheetID   string `toml:"google_spreadsheet_id"`
	GoogleSheetName       string `toml:"google_sheet_name"`
	GoogleCredentialsFile string `toml:"google_credentials_file"`
	GoogleCredentialsJSON string `toml:"-"`

	// Financial assistant
	LLMBaseURL string `toml:"llm_base_url"`
	LLMAPIKey  string `toml:"-"`
	LLMModel   string `toml:"llm_model"`

	// Dashboard summary cache
	CacheTTL  time.Duration `toml:"-"`
	CacheSize int           `toml:"cache_size"`
}

// fileConfig mirrors Config for the TOML overlay. Durations are strings.
type fileConfig struct {
	Config
	CacheTTL string `toml:"cache_ttl"`
}

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendSupabase = "supabase"
)

var validBackends = []string{BackendMemory, BackendSQLite, BackendPostgres, BackendSupabase}

func defaults() Config {
	return Config{
		Port:               "8081",
		RateLimitPerMinute: 60,
		LogLevel:           "info",
		DataBackend:        BackendMemory,
		SQLiteDBPath:       "./data/budget.db",
		AMQPExchange:       "budget",
		AMQPQueue:          "ledger_events",
		GoogleSheetName:    "Transactions",
		LLMBaseURL:         "https://api.openai.com/v1",
		LLMModel:           "gpt-4o-mini",
		CacheTTL:           5 * time.Minute,
		CacheSize:          64,
	}
}

// Load builds the configuration from defaults, the optional TOML file named by
// BUDGET_CONFIG_FILE, and environment variables, in increasing precedence.
func Load() (*Config, error) {
	cfg := defaults()
	if path := os.Getenv("BUDGET_CONFIG_FILE"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.TrustedProxies = getEnvList("TRUSTED_PROXIES", cfg.TrustedProxies)
	cfg.DataBackend = getEnv("DATA_BACKEND", cfg.DataBackend)

	cfg.SQLiteDBPath = getEnv("SQLITE_DB_PATH", cfg.SQLiteDBPath)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.SupabaseURL = getEnv("SUPABASE_URL", cfg.SupabaseURL)
	cfg.SupabaseKey = getEnv("SUPABASE_KEY", cfg.SupabaseKey)

	cfg.AMQPURL = getEnv("AMQP_URL", cfg.AMQPURL)
	cfg.AMQPExchange = getEnv("AMQP_EXCHANGE", cfg.AMQPExchange)
	cfg.AMQPQueue = getEnv("AMQP_QUEUE", cfg.AMQPQueue)

	cfg.GoogleSpreadsheetID = getEnv("GOOGLE_SPREADSHEET_ID", cfg.GoogleSpreadsheetID)
	cfg.GoogleSheetName = getEnv("GOOGLE_SHEET_NAME", cfg.GoogleSheetName)
	cfg.GoogleCredentialsFile = getEnv("GOOGLE_CREDENTIALS_FILE", cfg.GoogleCredentialsFile)
	cfg.GoogleCredentialsJSON = getEnv("GOOGLE_CREDENTIALS_JSON", cfg.GoogleCredentialsJSON)

	cfg.LLMBaseURL = getEnv("LLM_BASE_URL", cfg.LLMBaseURL)
	cfg.LLMAPIKey = getEnv("LLM_API_KEY", cfg.LLMAPIKey)
	cfg.LLMModel = getEnv("LLM_MODEL", cfg.LLMModel)

	cfg.CacheTTL = getEnvDuration("CACHE_TTL", cfg.CacheTTL)
	cfg.CacheSize = getEnvInt("CACHE_SIZE", cfg.CacheSize)

	return &cfg, nil
}

func (c *Config) overlayFile(path string) error {
	fc := fileConfig{Config: *c}
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	*c = fc.Config
	if fc.CacheTTL != "" {
		d, err := time.ParseDuration(fc.CacheTTL)
		if err != nil {
			return fmt.Errorf("config file %s: invalid cache_ttl %q: %w", path, fc.CacheTTL, err)
		}
		c.CacheTTL = d
	}
	return nil
}

// AMQPEnabled reports whether ledger events should be published.
func (c *Config) AMQPEnabled() bool { return c.AMQPURL != "" }

// SheetsEnabled reports whether the worker should export to Google Sheets.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != "" && (c.GoogleCredentialsFile != "" || c.GoogleCredentialsJSON != "")
}

// AssistantEnabled reports whether an LLM endpoint is configured.
func (c *Config) AssistantEnabled() bool { return strings.TrimSpace(c.LLMAPIKey) != "" }

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR such as 10.0.0.0/8", cidr))
		}
	}

	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.DatabaseURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errors = append(errors, fmt.Sprintf("invalid DATABASE_URL '%s': scheme must be 'postgres' or 'postgresql'", redact(c.DatabaseURL)))
		}
	case BackendSupabase:
		if c.SupabaseURL == "" {
			errors = append(errors, "SUPABASE_URL is required when using supabase backend")
		}
		if c.SupabaseKey == "" {
			errors = append(errors, "SUPABASE_KEY is required when using supabase backend")
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", redact(c.AMQPURL), err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleCredentialsFile != "" {
		if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
		}
	}
	if c.GoogleSpreadsheetID != "" && c.GoogleSheetName == "" {
		errors = append(errors, "Google sheet name cannot be empty when a spreadsheet ID is provided")
	}

	if c.LLMAPIKey != "" {
		if u, err := url.Parse(c.LLMBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid LLM base URL '%s': must be http or https", c.LLMBaseURL))
		}
		if c.LLMModel == "" {
			errors = append(errors, "LLM model cannot be empty when an LLM API key is provided")
		}
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}
	if c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	} else if c.CacheTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at most 24 hours", c.CacheTTL))
	}
	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// redact hides the password component of a connection URL.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping blank entries.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

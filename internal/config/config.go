package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Provider       string   `yaml:"provider"` // "yahoo" or "polygon"
		BaseURL        string   `yaml:"base_url"`
		APIKey         string   `yaml:"api_key"`
		Range          string   `yaml:"range"`
		Interval       string   `yaml:"interval"`
		Symbols        []string `yaml:"symbols"`
		SymbolsFile    string   `yaml:"symbols_file"`
		DropInProgress bool     `yaml:"drop_in_progress"`
	} `yaml:"data_source"`
	Database struct {
		Driver      string `yaml:"driver"` // "sqlite", "postgres" or "none"
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresURL string `yaml:"postgres_url"`
	} `yaml:"database"`
	Schedule struct {
		IngestCron string `yaml:"ingest_cron"`
		StateFile  string `yaml:"state_file"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Proxy string `yaml:"proxy"`
}

// LoadEnvFile loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("DATA_RANGE"); v != "" {
		cfg.DataSource.Range = v
	}
	if v := os.Getenv("DATA_INTERVAL"); v != "" {
		cfg.DataSource.Interval = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		cfg.DataSource.Symbols = splitList(v)
	}
	if v := os.Getenv("DROP_IN_PROGRESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.DataSource.DropInProgress = b
		}
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.PostgresURL = v
	}
	if v := os.Getenv("CRON_INGEST"); v != "" {
		cfg.Schedule.IngestCron = v
	}
	if v := os.Getenv("STATE_FILE"); v != "" {
		cfg.Schedule.StateFile = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("ADMIN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	cfg.DataSource.Provider = strings.ToLower(cfg.DataSource.Provider)
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
	}
	if cfg.DataSource.Range == "" {
		cfg.DataSource.Range = "3mo"
	}
	if cfg.DataSource.Interval == "" {
		cfg.DataSource.Interval = "1d"
	}
	if len(cfg.DataSource.Symbols) == 0 && cfg.DataSource.SymbolsFile == "" {
		cfg.DataSource.Symbols = []string{"SPX500"}
	}
	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/candlekeeper.db"
	}
	if cfg.Schedule.IngestCron == "" {
		cfg.Schedule.IngestCron = "0 30 22 * * 1-5"
	}
	if cfg.Schedule.StateFile == "" {
		cfg.Schedule.StateFile = "data/state.json"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":9090"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo":
	case "polygon":
		if c.DataSource.APIKey == "" {
			return fmt.Errorf("data_source.api_key is required for polygon")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("database.sqlite_path is required")
		}
	case "postgres":
		if c.Database.PostgresURL == "" {
			return fmt.Errorf("database.postgres_url is required")
		}
	case "none":
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}

	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether run reports should be sent to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}

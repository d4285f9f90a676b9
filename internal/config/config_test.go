package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// clearEnv blanks every override so the host environment cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATA_PROVIDER", "POLYGON_API_KEY", "DATA_RANGE", "DATA_INTERVAL", "SYMBOLS", "DROP_IN_PROGRESS",
		"DB_DRIVER", "SQLITE_PATH", "DATABASE_URL", "CRON_INGEST", "STATE_FILE",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "ADMIN_ADDR", "HTTPS_PROXY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "yahoo", cfg.DataSource.Provider)
	assert.Equal(t, "3mo", cfg.DataSource.Range)
	assert.Equal(t, "1d", cfg.DataSource.Interval)
	assert.Equal(t, []string{"SPX500"}, cfg.DataSource.Symbols)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "data/candlekeeper.db", cfg.Database.SQLitePath)
	assert.Equal(t, "0 30 22 * * 1-5", cfg.Schedule.IngestCron)
	assert.Equal(t, "data/state.json", cfg.Schedule.StateFile)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
data_source:
  provider: Polygon
  api_key: key-from-file
  range: 1y
  interval: 1wk
  symbols: [AAPL, MSFT]
  drop_in_progress: true
database:
  driver: postgres
  postgres_url: postgres://localhost/candles
schedule:
  ingest_cron: "0 0 23 * * *"
telegram:
  bot_token: token
  chat_id: "42"
server:
  addr: 127.0.0.1:8081
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "polygon", cfg.DataSource.Provider)
	assert.Equal(t, "key-from-file", cfg.DataSource.APIKey)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.DataSource.Symbols)
	assert.True(t, cfg.DataSource.DropInProgress)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "0 0 23 * * *", cfg.Schedule.IngestCron)
	assert.Equal(t, "127.0.0.1:8081", cfg.Server.Addr)
	assert.True(t, cfg.TelegramEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "data_source:\n  symbols: [AAPL]\n")
	t.Setenv("DATA_PROVIDER", "polygon")
	t.Setenv("POLYGON_API_KEY", "env-key")
	t.Setenv("SYMBOLS", "nvda, tsla ,,")
	t.Setenv("DATA_RANGE", "6mo")
	t.Setenv("DB_DRIVER", "none")
	t.Setenv("CRON_INGEST", "0 */5 * * * *")
	t.Setenv("ADMIN_ADDR", ":7000")
	t.Setenv("DROP_IN_PROGRESS", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "polygon", cfg.DataSource.Provider)
	assert.Equal(t, "env-key", cfg.DataSource.APIKey)
	assert.Equal(t, []string{"NVDA", "TSLA"}, cfg.DataSource.Symbols)
	assert.Equal(t, "6mo", cfg.DataSource.Range)
	assert.Equal(t, "none", cfg.Database.Driver)
	assert.Equal(t, "0 */5 * * * *", cfg.Schedule.IngestCron)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.True(t, cfg.DataSource.DropInProgress)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "data_source: [unterminated")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "bloomberg" }, "not supported"},
		{"polygon without key", func(c *Config) { c.DataSource.Provider = "polygon" }, "api_key is required"},
		{"postgres without url", func(c *Config) { c.Database.Driver = "postgres" }, "postgres_url is required"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "not supported"},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "token" }, "must be set together"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	t.Setenv("CANDLEKEEPER_TEST_KEEP", "from-env")
	path := writeFile(t, ".env", "CANDLEKEEPER_TEST_NEW=from-file\nCANDLEKEEPER_TEST_KEEP=from-file\n")
	require.NoError(t, LoadEnvFile(path))
	t.Cleanup(func() { os.Unsetenv("CANDLEKEEPER_TEST_NEW") })

	assert.Equal(t, "from-file", os.Getenv("CANDLEKEEPER_TEST_NEW"))
	assert.Equal(t, "from-env", os.Getenv("CANDLEKEEPER_TEST_KEEP"))
}

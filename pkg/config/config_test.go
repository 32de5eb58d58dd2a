package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	require.Equal(t, "pos", cfg.ServiceName)
	require.Equal(t, 8080, cfg.HTTP.Port)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 5, cfg.Sale.LowStockThreshold)
	require.Equal(t, 10, cfg.Sale.TopSellersLimit)
	require.False(t, cfg.Redis.Enabled)
	require.False(t, cfg.RateLimit.Enabled)
	require.Equal(t, "PKR", cfg.Shop.Currency)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
service_name = "register"

[http]
port = 9090

[sale]
low_stock_threshold = 2
timezone = "Asia/Karachi"
`)
	t.Setenv("APP_HTTP_PORT", "9191")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "register", cfg.ServiceName)
	require.Equal(t, 9191, cfg.HTTP.Port)
	require.Equal(t, 2, cfg.Sale.LowStockThreshold)

	loc, err := cfg.Sale.Location()
	require.NoError(t, err)
	require.Equal(t, "Asia/Karachi", loc.String())
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"driver":     "[database]\ndriver = \"oracle\"\n",
		"dsn":        "[database]\ndriver = \"mysql\"\ndsn = \"\"\n",
		"kafka":      "[kafka]\nenabled = true\nbrokers = []\n",
		"timezone":   "[sale]\ntimezone = \"Mars/Olympus\"\n",
		"node":       "[sale]\ninvoice_node = 4096\n",
		"threshold":  "[sale]\nlow_stock_threshold = -1\n",
		"rate_limit": "[rate_limit]\nenabled = true\nqps = 0\n",
		"port":       "[http]\nport = 70000\n",
		"syntax":     "service_name = \n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("POS_TEST_VALUE", "set")
	require.Equal(t, "set", GetEnv("POS_TEST_VALUE", "fallback"))
	require.Equal(t, "fallback", GetEnv("POS_TEST_UNSET_VALUE", "fallback"))
}

package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"maisync/internal/scrapers/dxnet"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	_ "time/tzdata"
)

const testConfigFile = `{
	site: {
		sid: "from-file",
		password: "file-password",
		cookie_path: "data/cookies.json",
		fetch_delay: "2s",
		retry_count: 3,
	},
	database: { file: "data/maisync.db" },
	interval: "5m",
	maintenance: { start_hour: 3, end_hour: 8 },
}`

func writeConfig(t testing.TB, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, testConfigFile)
	t.Setenv("MAISYNC_PASSWORD", "env-password")
	t.Setenv("MAISYNC_DB_AUTH_TOKEN", "token")

	cfg, err := loadConfig(path, true)
	require.NoError(t, err)
	require.Equal(t, defaultLocation, cfg.Location)
	require.Equal(t, "token", cfg.Database.AuthToken)

	site, err := cfg.dxnetConfig()
	require.NoError(t, err)
	diff := cmp.Diff(dxnet.Config{
		Sid:           "from-file",
		Password:      "env-password",
		CookiePath:    "data/cookies.json",
		SessionCookie: dxnet.DefaultSessionCookie,
		FetchDelay:    2 * time.Second,
		RetryCount:    3,
	}, site)
	if diff != "" {
		t.Fatal(diff)
	}

	interval, err := cfg.interval()
	require.NoError(t, err)
	require.Equal(t, 5*time.Minute, interval)

	tokyo, err := time.LoadLocation(defaultLocation)
	require.NoError(t, err)
	window, err := cfg.maintenanceWindow(tokyo)
	require.NoError(t, err)
	require.Equal(t, 3, window.StartHour)
	require.Equal(t, 8, window.EndHour)
}

func TestLoadConfigDotenv(t *testing.T) {
	path := writeConfig(t, `{ site: { sid: "from-file" } }`)
	dotenv := filepath.Join(filepath.Dir(path), ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("MAISYNC_PASSWORD=dotenv-password\n"), 0600))
	t.Setenv("MAISYNC_PASSWORD", "")
	os.Unsetenv("MAISYNC_PASSWORD")

	cfg, err := loadConfig(path, true)
	require.NoError(t, err)
	require.Equal(t, "dotenv-password", cfg.Site.Password)
}

func TestConfigValidation(t *testing.T) {
	cfg := Config{}
	_, err := cfg.dxnetConfig()
	require.ErrorContains(t, err, "site.sid")

	cfg.Site = SiteConfig{Sid: "a", Password: "b", Timeout: "soon"}
	_, err = cfg.dxnetConfig()
	require.ErrorContains(t, err, "site.timeout")

	window, err := cfg.maintenanceWindow(time.UTC)
	require.NoError(t, err)
	require.Nil(t, window)

	cfg.Maintenance = &MaintenanceConfig{StartHour: 4, EndHour: 24}
	_, err = cfg.maintenanceWindow(time.UTC)
	require.Error(t, err)
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "config.json5"), true)
	require.ErrorIs(t, err, os.ErrNotExist)
}

package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"maisync/internal/components/configutil"
	"maisync/internal/components/telemetry"
	"maisync/internal/db"
	"maisync/internal/recordsync"
	"maisync/internal/scrapers/dxnet"
)

const (
	envPrefix       = "MAISYNC"
	defaultLocation = "Asia/Tokyo"
)

type SiteConfig struct {
	BaseUrl       string `json:"base_url"`
	Sid           string `json:"sid"`
	Password      string `json:"password"`
	CookiePath    string `json:"cookie_path"`
	SessionCookie string `json:"session_cookie"`
	// FetchDelay, Timeout, RetryWait are go durations ("1s", "30s").
	FetchDelay       string `json:"fetch_delay"`
	Timeout          string `json:"timeout"`
	RetryCount       int    `json:"retry_count"`
	RetryWait        string `json:"retry_wait"`
	CloudflareBypass bool   `json:"cloudflare_bypass"`
	// DumpDir keeps a redacted copy of every http exchange for debugging.
	DumpDir string `json:"dump_dir"`
}

type MaintenanceConfig struct {
	StartHour int `json:"start_hour"`
	EndHour   int `json:"end_hour"`
}

type Config struct {
	Site     SiteConfig `json:"site"`
	Database db.Config  `json:"database"`
	// Location is the IANA zone the site shows times in.
	Location string `json:"location"`
	// Interval is how often `serve` runs a cycle.
	Interval    string               `json:"interval"`
	Maintenance *MaintenanceConfig   `json:"maintenance"`
	Otlp        telemetry.OtlpConfig `json:"otlp"`
}

// Secrets are read from the environment (MAISYNC_SID, ...) and win over the
// config file.
type Secrets struct {
	Sid         string `envconfig:"SID"`
	Password    string `envconfig:"PASSWORD"`
	DbAuthToken string `envconfig:"DB_AUTH_TOKEN"`
}

// loadConfig reads the config file (searching parent directories unless the
// path was given explicitly) and overlays the secrets found in the
// environment and a .env file next to it.
func loadConfig(path string, explicit bool) (Config, error) {
	var cfg Config
	var err error
	if explicit {
		cfg, err = configutil.ReadConfig[Config](path)
	} else {
		cfg, err = configutil.ReadRecursively[Config](path)
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var secrets Secrets
	err = configutil.ReadEnv(envPrefix, &secrets, filepath.Join(filepath.Dir(path), ".env"))
	if err != nil {
		return Config{}, err
	}
	if secrets.Sid != "" {
		cfg.Site.Sid = secrets.Sid
	}
	if secrets.Password != "" {
		cfg.Site.Password = secrets.Password
	}
	if secrets.DbAuthToken != "" {
		cfg.Database.AuthToken = secrets.DbAuthToken
	}

	if cfg.Location == "" {
		cfg.Location = defaultLocation
	}
	if cfg.Site.SessionCookie == "" {
		cfg.Site.SessionCookie = dxnet.DefaultSessionCookie
	}
	return cfg, nil
}

func parseDuration(name, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", name, err)
	}
	return d, nil
}

func (c Config) dxnetConfig() (dxnet.Config, error) {
	if c.Site.Sid == "" || c.Site.Password == "" {
		return dxnet.Config{}, fmt.Errorf("config: site.sid and site.password (or %s_SID and %s_PASSWORD) are required", envPrefix, envPrefix)
	}
	fetchDelay, err := parseDuration("site.fetch_delay", c.Site.FetchDelay)
	if err != nil {
		return dxnet.Config{}, err
	}
	timeout, err := parseDuration("site.timeout", c.Site.Timeout)
	if err != nil {
		return dxnet.Config{}, err
	}
	retryWait, err := parseDuration("site.retry_wait", c.Site.RetryWait)
	if err != nil {
		return dxnet.Config{}, err
	}
	return dxnet.Config{
		BaseUrl:          c.Site.BaseUrl,
		Sid:              c.Site.Sid,
		Password:         c.Site.Password,
		CookiePath:       c.Site.CookiePath,
		SessionCookie:    c.Site.SessionCookie,
		FetchDelay:       fetchDelay,
		Timeout:          timeout,
		RetryCount:       c.Site.RetryCount,
		RetryWait:        retryWait,
		CloudflareBypass: c.Site.CloudflareBypass,
		DumpDir:          c.Site.DumpDir,
	}, nil
}

func (c Config) interval() (time.Duration, error) {
	return parseDuration("interval", c.Interval)
}

// maintenanceWindow returns nil when the default window should be used.
func (c Config) maintenanceWindow(location *time.Location) (*recordsync.MaintenanceWindow, error) {
	if c.Maintenance == nil {
		return nil, nil
	}
	m := *c.Maintenance
	if m.StartHour < 0 || m.StartHour > 23 || m.EndHour < 0 || m.EndHour > 23 {
		return nil, fmt.Errorf("config: maintenance hours must be within 0..23, got %d..%d", m.StartHour, m.EndHour)
	}
	return &recordsync.MaintenanceWindow{
		StartHour: m.StartHour,
		EndHour:   m.EndHour,
		Location:  location,
	}, nil
}

package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// GoogleConfig holds paths and ids for the Google API adapters.
type GoogleConfig struct {
	// CredentialsFile is the OAuth client secret JSON downloaded from the
	// Google Cloud console.
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`
	// TokenFile stores the user's OAuth token; refreshed tokens are
	// written back to it.
	TokenFile string `yaml:"token_file" json:"token_file"`

	SpreadsheetID   string `yaml:"spreadsheet_id" json:"spreadsheet_id"`
	ChoresSheetName string `yaml:"chores_sheet_name" json:"chores_sheet_name"`
	TodosSheetName  string `yaml:"todos_sheet_name" json:"todos_sheet_name"`

	// IconsFolderID is the Drive folder mirrored into IconsDir after a
	// chore sync.
	IconsFolderID string `yaml:"icons_folder_id" json:"icons_folder_id"`
	IconsDir      string `yaml:"icons_dir" json:"icons_dir"`
}

// WeatherConfig holds the weather provider settings.
type WeatherConfig struct {
	APIKey  string  `yaml:"api_key" json:"api_key"`
	BaseURL string  `yaml:"base_url" json:"base_url"`
	Lat     float64 `yaml:"lat" json:"lat"`
	Lon     float64 `yaml:"lon" json:"lon"`
	Units   string  `yaml:"units" json:"units"`
	// CacheSeconds is the TTL for serving a cached snapshot when the
	// upstream is unreachable.
	CacheSeconds int `yaml:"cache_seconds" json:"cache_seconds"`
}

// TelegramConfig enables the optional weather-alert notifier.
type TelegramConfig struct {
	Token  string `yaml:"token" json:"token"`
	ChatID int64  `yaml:"chat_id" json:"chat_id"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the display API.
	Listen string `yaml:"listen" json:"listen"`

	// DatabasePath is the SQLite file backing the local cache.
	DatabasePath string `yaml:"database" json:"database"`

	// Timezone is the IANA timezone used for day boundaries (chore
	// resets, today's high/low).
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is the cron schedule for background refresh of
	// calendar, tasks and weather.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	Google   GoogleConfig    `yaml:"google" json:"google"`
	Weather  WeatherConfig   `yaml:"weather" json:"weather"`
	Telegram *TelegramConfig `yaml:"telegram,omitempty" json:"telegram,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       "127.0.0.1:8080",
		DatabasePath: "homeview.db",
		Timezone:     "Local",
		RefreshCron:  "*/15 * * * *",
		Google: GoogleConfig{
			CredentialsFile: "credentials/google_credentials.json",
			TokenFile:       "credentials/token.json",
			ChoresSheetName: "Chores",
			TodosSheetName:  "Todos",
			IconsDir:        "static/icons/chores",
		},
		Weather: WeatherConfig{
			BaseURL:      "https://api.openweathermap.org/data/2.5",
			Units:        "imperial",
			CacheSeconds: 600,
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.DatabasePath == "" {
		c.DatabasePath = def.DatabasePath
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.Google.CredentialsFile == "" {
		c.Google.CredentialsFile = def.Google.CredentialsFile
	}
	if c.Google.TokenFile == "" {
		c.Google.TokenFile = def.Google.TokenFile
	}
	if c.Google.ChoresSheetName == "" {
		c.Google.ChoresSheetName = def.Google.ChoresSheetName
	}
	if c.Google.TodosSheetName == "" {
		c.Google.TodosSheetName = def.Google.TodosSheetName
	}
	if c.Google.IconsDir == "" {
		c.Google.IconsDir = def.Google.IconsDir
	}
	if c.Weather.BaseURL == "" {
		c.Weather.BaseURL = def.Weather.BaseURL
	}
	if c.Weather.Units == "" {
		c.Weather.Units = def.Weather.Units
	}
	if c.Weather.CacheSeconds <= 0 {
		c.Weather.CacheSeconds = def.Weather.CacheSeconds
	}
}

// WeatherTTL returns the weather cache TTL as a duration.
func (c *Config) WeatherTTL() time.Duration {
	return time.Duration(c.Weather.CacheSeconds) * time.Second
}

// Location resolves the configured timezone, falling back to the
// system's local zone on failure.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Load loads configuration from the given YAML path. On first run the
// file does not exist yet; a default config is written with 0600 perms
// and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically via a temp file + rename,
// with final permissions 0600 (the file carries API keys).
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".homeview-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

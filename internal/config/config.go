package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when no config path is given.
const DefaultPath = "configs/config.yaml"

type Config struct {
	HTTP struct {
		Port int `yaml:"port"`
	} `yaml:"http"`

	Storage struct {
		SQLitePath string `yaml:"sqlite_path"`
		Redis      struct {
			Address  string `yaml:"address"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
		Backup BackupConfig `yaml:"backup"`
	} `yaml:"storage"`

	Reminders struct {
		CheckIntervalSeconds int `yaml:"check_interval_seconds"`
		SnoozeMinutes        int `yaml:"snooze_minutes"`
	} `yaml:"reminders"`

	Notifications struct {
		Backend string `yaml:"backend"` // dbus | log | none
		AppName string `yaml:"app_name"`
	} `yaml:"notifications"`

	Audio struct {
		Output     string `yaml:"output"` // none | command | wav
		Command    string `yaml:"command"`
		WAVDir     string `yaml:"wav_dir"`
		SampleRate int    `yaml:"sample_rate"`
	} `yaml:"audio"`

	Assistant struct {
		APIKey            string `yaml:"api_key"`
		BaseURL           string `yaml:"base_url"`
		Model             string `yaml:"model"`
		TimeoutSeconds    int    `yaml:"timeout_seconds"`
		RequestsPerMinute int    `yaml:"requests_per_minute"`
	} `yaml:"assistant"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Logging struct {
		Level  string `yaml:"level"`
		Pretty *bool  `yaml:"pretty"`
	} `yaml:"logging"`
}

// BackupConfig controls periodic copies of the sqlite file.
type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	StoragePath   string `yaml:"storage_path"`
	RetentionDays int    `yaml:"retention_days"`
	IntervalHours int    `yaml:"interval_hours"`
}

// Interval defaults to one day.
func (b BackupConfig) Interval() time.Duration {
	if b.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(b.IntervalHours) * time.Hour
}

// LoadEnv loads variables from a .env file if one exists. Existing
// environment variables are never overridden.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML config data. ${ENV_VAR} placeholders are expanded first.
func Parse(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "data/acadease.db"
	}
	if cfg.Storage.Backup.StoragePath == "" {
		cfg.Storage.Backup.StoragePath = filepath.Join(filepath.Dir(cfg.Storage.SQLitePath), "backups")
	}

	return &cfg, nil
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Notifications.Backend) {
	case "", "dbus", "log", "none":
	default:
		return fmt.Errorf("notifications.backend: unknown backend %q", c.Notifications.Backend)
	}

	switch strings.ToLower(c.Audio.Output) {
	case "", "none", "command", "wav":
	default:
		return fmt.Errorf("audio.output: unknown output %q", c.Audio.Output)
	}

	if c.Reminders.CheckIntervalSeconds < 0 {
		return fmt.Errorf("reminders.check_interval_seconds cannot be negative")
	}
	if c.Reminders.SnoozeMinutes < 0 {
		return fmt.Errorf("reminders.snooze_minutes cannot be negative")
	}
	return nil
}

// EnsureDataDir creates the directory holding the sqlite file.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(filepath.Dir(c.Storage.SQLitePath), 0o755)
}

func (c *Config) HTTPPort() int {
	if c.HTTP.Port <= 0 {
		return 8080
	}
	return c.HTTP.Port
}

func (c *Config) CheckInterval() time.Duration {
	if c.Reminders.CheckIntervalSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Reminders.CheckIntervalSeconds) * time.Second
}

func (c *Config) SnoozeDuration() time.Duration {
	if c.Reminders.SnoozeMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.Reminders.SnoozeMinutes) * time.Minute
}

func (c *Config) NotificationBackend() string {
	if c.Notifications.Backend == "" {
		return "dbus"
	}
	return strings.ToLower(c.Notifications.Backend)
}

func (c *Config) AppName() string {
	if c.Notifications.AppName == "" {
		return "AcadEase"
	}
	return c.Notifications.AppName
}

func (c *Config) AudioOutput() string {
	if c.Audio.Output == "" {
		return "none"
	}
	return strings.ToLower(c.Audio.Output)
}

func (c *Config) AudioCommand() string {
	if c.Audio.Command == "" {
		return "aplay"
	}
	return c.Audio.Command
}

func (c *Config) SampleRate() int {
	if c.Audio.SampleRate <= 0 {
		return 44100
	}
	return c.Audio.SampleRate
}

func (c *Config) AssistantModel() string {
	if c.Assistant.Model == "" {
		return "gemini-2.5-flash"
	}
	return c.Assistant.Model
}

func (c *Config) AssistantBaseURL() string {
	if c.Assistant.BaseURL == "" {
		return "https://generativelanguage.googleapis.com"
	}
	return strings.TrimRight(c.Assistant.BaseURL, "/")
}

func (c *Config) AssistantTimeout() time.Duration {
	if c.Assistant.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Assistant.TimeoutSeconds) * time.Second
}

func (c *Config) AssistantRequestsPerMinute() int {
	if c.Assistant.RequestsPerMinute <= 0 {
		return 15
	}
	return c.Assistant.RequestsPerMinute
}

func (c *Config) HealthCheckPort() int {
	if c.Monitoring.HealthCheckPort <= 0 {
		return 8090
	}
	return c.Monitoring.HealthCheckPort
}

func (c *Config) PrometheusPort() int {
	if c.Monitoring.PrometheusPort <= 0 {
		return 9090
	}
	return c.Monitoring.PrometheusPort
}

func (c *Config) LogLevel() string {
	if c.Logging.Level == "" {
		return "info"
	}
	return strings.ToLower(c.Logging.Level)
}

func (c *Config) PrettyLogs() bool {
	if c.Logging.Pretty == nil {
		return true
	}
	return *c.Logging.Pretty
}

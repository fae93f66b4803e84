package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Analytics  AnalyticsConfig  `toml:"analytics"`
	SoundCloud SoundCloudConfig `toml:"soundcloud"`
	Server     ServerConfig     `toml:"server"`
	Log        LogConfig        `toml:"log"`
}

// AnalyticsConfig describes which tracker globals are present in the environment.
//
// Each non-empty section makes one tracker shape available to detection; only the first one
// found (gtag, then ga, then _gaq) is ever used.
type AnalyticsConfig struct {
	Debug       bool              `toml:"debug"`
	ClientID    string            `toml:"client_id"`
	RateLimit   float64           `toml:"rate_limit"`
	BufferSize  int               `toml:"buffer_size"`
	TimeoutMS   int               `toml:"timeout_ms"`
	Gtag        GtagConfig        `toml:"gtag"`
	GA          GAConfig          `toml:"ga"`
	LegacyQueue LegacyQueueConfig `toml:"legacy_queue"`
}

// GtagConfig contains GA4 Measurement Protocol settings backing the gtag shape.
type GtagConfig struct {
	MeasurementID string `toml:"measurement_id"`
	APISecret     string `toml:"api_secret"`
	Endpoint      string `toml:"endpoint"`
}

// GAConfig contains Universal Analytics collect settings backing the ga shape.
type GAConfig struct {
	TrackingID string `toml:"tracking_id"`
	Endpoint   string `toml:"endpoint"`
}

// LegacyQueueConfig enables the _gaq queue shape, which writes hits to a file or stdout.
type LegacyQueueConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// SoundCloudConfig contains widget SDK and embed discovery settings.
type SoundCloudConfig struct {
	APIURL         string `toml:"api_url"`
	EmbedFragment  string `toml:"embed_fragment"`
	Category       string `toml:"category"`
	PollIntervalMS int    `toml:"poll_interval_ms"`
	AlwaysLoadSDK  bool   `toml:"always_load_sdk"`
	FetchSDK       bool   `toml:"fetch_sdk"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host      string  `toml:"host"`
	Port      int     `toml:"port"`
	EventRate float64 `toml:"event_rate"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// PollInterval returns the current-sound polling interval as a [time.Duration].
func (c SoundCloudConfig) PollInterval() time.Duration {
	if c.PollIntervalMS <= 0 {
		return 2500 * time.Millisecond
	}
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// Timeout returns the per-hit HTTP timeout as a [time.Duration].
func (c AnalyticsConfig) Timeout() time.Duration {
	if c.TimeoutMS <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Addr returns the listen address for the HTTP server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate reports configuration values that cannot work at runtime.
func (c *Config) Validate() error {
	if c.SoundCloud.EmbedFragment == "" {
		return fmt.Errorf("%w: soundcloud.embed_fragment is empty", ErrInvalidConfig)
	}
	if c.SoundCloud.APIURL == "" {
		return fmt.Errorf("%w: soundcloud.api_url is empty", ErrInvalidConfig)
	}
	if c.Analytics.Gtag.MeasurementID != "" && c.Analytics.Gtag.APISecret == "" {
		return fmt.Errorf("%w: analytics.gtag.api_secret is required with a measurement_id", ErrInvalidConfig)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the defaults from the embedded example config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

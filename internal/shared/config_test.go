package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.SoundCloud.APIURL != "https://w.soundcloud.com/player/api.js" {
			t.Errorf("expected SDK URL https://w.soundcloud.com/player/api.js, got %s", config.SoundCloud.APIURL)
		}

		if config.SoundCloud.EmbedFragment != "soundcloud.com" {
			t.Errorf("expected embed fragment soundcloud.com, got %s", config.SoundCloud.EmbedFragment)
		}

		if config.SoundCloud.Category != "SoundCloud" {
			t.Errorf("expected category SoundCloud, got %s", config.SoundCloud.Category)
		}

		if config.SoundCloud.PollInterval() != 2500*time.Millisecond {
			t.Errorf("expected poll interval 2.5s, got %s", config.SoundCloud.PollInterval())
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Analytics.Gtag.MeasurementID != "" || config.Analytics.GA.TrackingID != "" || config.Analytics.LegacyQueue.Enabled {
			t.Error("expected no tracker to be configured by default")
		}

		if err := config.Validate(); err != nil {
			t.Errorf("expected default config to be valid, got %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.SoundCloud.APIURL != defaultConfig.SoundCloud.APIURL {
			t.Errorf("created config SDK URL doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[analytics]
debug = true
client_id = "555.1234"

[analytics.gtag]
measurement_id = "G-TEST"
api_secret = "secret"

[soundcloud]
category = "Podcast"
poll_interval_ms = 1000

[server]
host = "0.0.0.0"
port = 8080

[log]
level = "debug"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Analytics.Gtag.MeasurementID != "G-TEST" {
			t.Errorf("expected measurement id G-TEST, got %s", config.Analytics.Gtag.MeasurementID)
		}

		if config.Analytics.Gtag.Endpoint != "https://www.google-analytics.com/mp/collect" {
			t.Errorf("expected default gtag endpoint to be kept, got %s", config.Analytics.Gtag.Endpoint)
		}

		if config.SoundCloud.Category != "Podcast" {
			t.Errorf("expected category Podcast, got %s", config.SoundCloud.Category)
		}

		if config.SoundCloud.EmbedFragment != "soundcloud.com" {
			t.Errorf("expected default embed fragment to be kept, got %s", config.SoundCloud.EmbedFragment)
		}

		if config.SoundCloud.PollInterval() != time.Second {
			t.Errorf("expected poll interval 1s, got %s", config.SoundCloud.PollInterval())
		}

		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("LoadConfig Invalid", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		body := "[analytics.gtag]\nmeasurement_id = \"G-TEST\"\n"
		if err := os.WriteFile(configPath, []byte(body), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadConfig Malformed TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[server\nport = "), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected parse error")
		}
	})
}

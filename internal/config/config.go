// Package config provides YAML-based configuration loading for tapedeck.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level tapedeck configuration, loaded from tapedeck.yaml.
type Config struct {
	Listen    string           `yaml:"listen"`
	DataDir   string           `yaml:"data_dir"`
	Recorder  RecorderConfig   `yaml:"recorder"`
	Remote    RemoteConfig     `yaml:"remote"`
	Notify    NotifyConfig     `yaml:"notify"`
	Schedules []ScheduleConfig `yaml:"schedules"`
}

// RecorderConfig controls the local capture engine.
type RecorderConfig struct {
	OutputDir           string `yaml:"output_dir"`
	Format              string `yaml:"format"`
	MicDevice           string `yaml:"mic_device"`
	SystemDevice        string `yaml:"system_device"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
}

// RemoteConfig points the daemon at another machine's recorder. When
// CaptureURL is set, this daemon coordinates that engine over its RPC
// surface instead of running ffmpeg locally.
type RemoteConfig struct {
	CaptureURL string `yaml:"capture_url"`
}

// NotifyConfig enables chat notifications. A destination is active when
// its channel is set.
type NotifyConfig struct {
	OnStart bool          `yaml:"on_start"`
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
}

// SlackConfig holds Slack notifier settings. Token falls back to the
// SLACK_BOT_TOKEN environment variable.
type SlackConfig struct {
	Token   string `yaml:"token"`
	Channel string `yaml:"channel"`
}

// DiscordConfig holds Discord notifier settings. Token falls back to the
// DISCORD_BOT_TOKEN environment variable.
type DiscordConfig struct {
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channel_id"`
}

// ScheduleConfig is one cron-scheduled recording.
type ScheduleConfig struct {
	Name     string `yaml:"name"`
	Cron     string `yaml:"cron"`
	Duration string `yaml:"duration"`
	Output   string `yaml:"output"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// PollInterval is how often the coordinator probes the backend while a
// recording runs.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Recorder.PollIntervalSeconds) * time.Second
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8313"
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		c.DataDir = filepath.Join(home, ".tapedeck")
	}
	if c.Recorder.OutputDir == "" {
		c.Recorder.OutputDir = "recordings"
	}
	if c.Recorder.Format == "" {
		c.Recorder.Format = "wav"
	}
	if c.Recorder.PollIntervalSeconds == 0 {
		c.Recorder.PollIntervalSeconds = 2
	}
	if c.Notify.Slack.Token == "" {
		c.Notify.Slack.Token = os.Getenv("SLACK_BOT_TOKEN")
	}
	if c.Notify.Discord.Token == "" {
		c.Notify.Discord.Token = os.Getenv("DISCORD_BOT_TOKEN")
	}
	for i := range c.Schedules {
		if c.Schedules[i].Name == "" {
			c.Schedules[i].Name = fmt.Sprintf("schedule-%d", i+1)
		}
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Recorder.Format != "wav" && c.Recorder.Format != "mp3" {
		errs = append(errs, fmt.Sprintf("recorder.format must be wav or mp3, got %q", c.Recorder.Format))
	}
	if c.Recorder.PollIntervalSeconds < 0 {
		errs = append(errs, "recorder.poll_interval_seconds must not be negative")
	}
	if c.Notify.Slack.Channel != "" && c.Notify.Slack.Token == "" {
		errs = append(errs, "notify.slack.token is required (or set SLACK_BOT_TOKEN)")
	}
	if c.Notify.Discord.ChannelID != "" && c.Notify.Discord.Token == "" {
		errs = append(errs, "notify.discord.token is required (or set DISCORD_BOT_TOKEN)")
	}
	for i, s := range c.Schedules {
		if s.Cron == "" {
			errs = append(errs, fmt.Sprintf("schedules[%d].cron is required", i))
		}
		if s.Duration == "" {
			errs = append(errs, fmt.Sprintf("schedules[%d].duration is required", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

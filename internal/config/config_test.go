package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const fullYAML = `
listen: 0.0.0.0:9100
data_dir: /var/lib/tapedeck

recorder:
  output_dir: /srv/recordings
  format: mp3
  mic_device: usb_mic
  system_device: game_sink.monitor
  poll_interval_seconds: 5

remote:
  capture_url: http://10.0.0.5:8313

notify:
  on_start: true
  slack:
    token: xoxb-123
    channel: "#recordings"
  discord:
    token: discord-abc
    channel_id: "987654"

schedules:
  - name: standup
    cron: "0 10 * * 1-5"
    duration: 30m
    output: /srv/recordings/standup.wav
`

const minimalYAML = `
listen: 127.0.0.1:9000
`

func TestParse_FullConfig(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Listen != "0.0.0.0:9100" {
		t.Errorf("Listen = %q, want %q", cfg.Listen, "0.0.0.0:9100")
	}
	if cfg.DataDir != "/var/lib/tapedeck" {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, "/var/lib/tapedeck")
	}
	if cfg.Recorder.OutputDir != "/srv/recordings" {
		t.Errorf("Recorder.OutputDir = %q, want %q", cfg.Recorder.OutputDir, "/srv/recordings")
	}
	if cfg.Recorder.Format != "mp3" {
		t.Errorf("Recorder.Format = %q, want %q", cfg.Recorder.Format, "mp3")
	}
	if cfg.Recorder.MicDevice != "usb_mic" {
		t.Errorf("Recorder.MicDevice = %q, want %q", cfg.Recorder.MicDevice, "usb_mic")
	}
	if cfg.Recorder.SystemDevice != "game_sink.monitor" {
		t.Errorf("Recorder.SystemDevice = %q, want %q", cfg.Recorder.SystemDevice, "game_sink.monitor")
	}
	if cfg.PollInterval() != 5*time.Second {
		t.Errorf("PollInterval() = %v, want 5s", cfg.PollInterval())
	}
	if cfg.Remote.CaptureURL != "http://10.0.0.5:8313" {
		t.Errorf("Remote.CaptureURL = %q, want %q", cfg.Remote.CaptureURL, "http://10.0.0.5:8313")
	}
	if !cfg.Notify.OnStart {
		t.Error("Notify.OnStart = false, want true")
	}
	if cfg.Notify.Slack.Token != "xoxb-123" {
		t.Errorf("Notify.Slack.Token = %q, want %q", cfg.Notify.Slack.Token, "xoxb-123")
	}
	if cfg.Notify.Slack.Channel != "#recordings" {
		t.Errorf("Notify.Slack.Channel = %q, want %q", cfg.Notify.Slack.Channel, "#recordings")
	}
	if cfg.Notify.Discord.ChannelID != "987654" {
		t.Errorf("Notify.Discord.ChannelID = %q, want %q", cfg.Notify.Discord.ChannelID, "987654")
	}
	if len(cfg.Schedules) != 1 {
		t.Fatalf("len(Schedules) = %d, want 1", len(cfg.Schedules))
	}

	s := cfg.Schedules[0]
	if s.Name != "standup" {
		t.Errorf("Schedules[0].Name = %q, want %q", s.Name, "standup")
	}
	if s.Cron != "0 10 * * 1-5" {
		t.Errorf("Schedules[0].Cron = %q, want %q", s.Cron, "0 10 * * 1-5")
	}
	if s.Duration != "30m" {
		t.Errorf("Schedules[0].Duration = %q, want %q", s.Duration, "30m")
	}
	if s.Output != "/srv/recordings/standup.wav" {
		t.Errorf("Schedules[0].Output = %q, want %q", s.Output, "/srv/recordings/standup.wav")
	}
}

func TestParse_MinimalConfig_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Listen != "127.0.0.1:9000" {
		t.Errorf("Listen = %q, want the explicit value kept", cfg.Listen)
	}
	if filepath.Base(cfg.DataDir) != ".tapedeck" {
		t.Errorf("DataDir = %q, want a .tapedeck dir under home (default)", cfg.DataDir)
	}
	if cfg.Recorder.OutputDir != "recordings" {
		t.Errorf("Recorder.OutputDir = %q, want %q (default)", cfg.Recorder.OutputDir, "recordings")
	}
	if cfg.Recorder.Format != "wav" {
		t.Errorf("Recorder.Format = %q, want %q (default)", cfg.Recorder.Format, "wav")
	}
	if cfg.PollInterval() != 2*time.Second {
		t.Errorf("PollInterval() = %v, want 2s (default)", cfg.PollInterval())
	}
}

func TestParse_ExplicitFormat_NotOverridden(t *testing.T) {
	cfg, err := Parse([]byte("recorder:\n  format: mp3\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Recorder.Format != "mp3" {
		t.Errorf("Recorder.Format = %q, want %q (should not be overridden)", cfg.Recorder.Format, "mp3")
	}
}

func TestParse_SlackTokenFromEnv(t *testing.T) {
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-from-env")

	cfg, err := Parse([]byte("notify:\n  slack:\n    channel: \"#recordings\"\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Notify.Slack.Token != "xoxb-from-env" {
		t.Errorf("Notify.Slack.Token = %q, want the env fallback", cfg.Notify.Slack.Token)
	}
}

func TestParse_DiscordTokenFromEnv(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "discord-from-env")

	cfg, err := Parse([]byte("notify:\n  discord:\n    channel_id: \"987654\"\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Notify.Discord.Token != "discord-from-env" {
		t.Errorf("Notify.Discord.Token = %q, want the env fallback", cfg.Notify.Discord.Token)
	}
}

func TestParse_BadFormat(t *testing.T) {
	_, err := Parse([]byte("recorder:\n  format: ogg\n"))
	if err == nil {
		t.Fatal("expected error for an unsupported format")
	}
	if !strings.Contains(err.Error(), "recorder.format must be wav or mp3") {
		t.Errorf("error = %q, want the format complaint", err.Error())
	}
}

func TestParse_NegativePollInterval(t *testing.T) {
	_, err := Parse([]byte("recorder:\n  poll_interval_seconds: -1\n"))
	if err == nil {
		t.Fatal("expected error for a negative poll interval")
	}
	if !strings.Contains(err.Error(), "poll_interval_seconds must not be negative") {
		t.Errorf("error = %q, want the interval complaint", err.Error())
	}
}

func TestParse_ZeroPollInterval_Defaulted(t *testing.T) {
	cfg, err := Parse([]byte("recorder:\n  poll_interval_seconds: 0\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.PollInterval() != 2*time.Second {
		t.Errorf("PollInterval() = %v, want the 2s default", cfg.PollInterval())
	}
}

func TestParse_SlackChannelWithoutToken(t *testing.T) {
	t.Setenv("SLACK_BOT_TOKEN", "")

	_, err := Parse([]byte("notify:\n  slack:\n    channel: \"#recordings\"\n"))
	if err == nil {
		t.Fatal("expected error for a slack channel without a token")
	}
	if !strings.Contains(err.Error(), "notify.slack.token is required") {
		t.Errorf("error = %q, want the token complaint", err.Error())
	}
}

func TestParse_DiscordChannelWithoutToken(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "")

	_, err := Parse([]byte("notify:\n  discord:\n    channel_id: \"987654\"\n"))
	if err == nil {
		t.Fatal("expected error for a discord channel without a token")
	}
	if !strings.Contains(err.Error(), "notify.discord.token is required") {
		t.Errorf("error = %q, want the token complaint", err.Error())
	}
}

func TestParse_ScheduleMissingCron(t *testing.T) {
	_, err := Parse([]byte("schedules:\n  - name: standup\n    duration: 30m\n"))
	if err == nil {
		t.Fatal("expected error for a schedule without a cron expression")
	}
	if !strings.Contains(err.Error(), "schedules[0].cron is required") {
		t.Errorf("error = %q, want the cron complaint", err.Error())
	}
}

func TestParse_ScheduleMissingDuration(t *testing.T) {
	_, err := Parse([]byte("schedules:\n  - name: standup\n    cron: \"0 10 * * *\"\n"))
	if err == nil {
		t.Fatal("expected error for a schedule without a duration")
	}
	if !strings.Contains(err.Error(), "schedules[0].duration is required") {
		t.Errorf("error = %q, want the duration complaint", err.Error())
	}
}

func TestParse_ScheduleDefaultNames(t *testing.T) {
	yaml := `
schedules:
  - cron: "0 10 * * *"
    duration: 30m
  - cron: "30 16 * * 5"
    duration: "3600"
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Schedules[0].Name != "schedule-1" {
		t.Errorf("Schedules[0].Name = %q, want %q", cfg.Schedules[0].Name, "schedule-1")
	}
	if cfg.Schedules[1].Name != "schedule-2" {
		t.Errorf("Schedules[1].Name = %q, want %q", cfg.Schedules[1].Name, "schedule-2")
	}
}

func TestParse_MultipleValidationErrors(t *testing.T) {
	yaml := `
recorder:
  format: ogg
schedules:
  - name: standup
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "recorder.format must be wav or mp3") {
		t.Errorf("error missing the format complaint: %s", msg)
	}
	if !strings.Contains(msg, "schedules[0].cron is required") {
		t.Errorf("error missing the cron complaint: %s", msg)
	}
	if !strings.Contains(msg, "schedules[0].duration is required") {
		t.Errorf("error missing the duration complaint: %s", msg)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte(":::invalid"))
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "config: parse:") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "config: parse:")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Listen != "127.0.0.1:8313" {
		t.Errorf("Listen = %q, want %q", cfg.Listen, "127.0.0.1:8313")
	}
	if cfg.Recorder.Format != "wav" {
		t.Errorf("Recorder.Format = %q, want %q", cfg.Recorder.Format, "wav")
	}
	if cfg.PollInterval() != 2*time.Second {
		t.Errorf("PollInterval() = %v, want 2s", cfg.PollInterval())
	}
}

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tapedeck.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Listen != "127.0.0.1:9000" {
		t.Errorf("Listen = %q, want %q", cfg.Listen, "127.0.0.1:9000")
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/tapedeck.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "config: read") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "config: read")
	}
	// Callers fall back to defaults on a missing default-path config, so
	// the sentinel must survive the wrap.
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want os.ErrNotExist to be detectable", err)
	}
}

// --- Fixture-based tests using testdata/ files ---

func TestLoad_FullFixture(t *testing.T) {
	cfg, err := Load("testdata/valid_full.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Listen != "0.0.0.0:9100" {
		t.Errorf("Listen = %q, want %q", cfg.Listen, "0.0.0.0:9100")
	}
	if cfg.Remote.CaptureURL != "http://10.0.0.5:8313" {
		t.Errorf("Remote.CaptureURL = %q", cfg.Remote.CaptureURL)
	}
	if len(cfg.Schedules) != 2 {
		t.Fatalf("len(Schedules) = %d, want 2", len(cfg.Schedules))
	}
	if cfg.Schedules[1].Name != "schedule-2" {
		t.Errorf("Schedules[1].Name = %q, want the generated name", cfg.Schedules[1].Name)
	}
}

func TestLoad_MinimalFixture(t *testing.T) {
	cfg, err := Load("testdata/valid_minimal.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Listen != "127.0.0.1:9000" {
		t.Errorf("Listen = %q, want %q", cfg.Listen, "127.0.0.1:9000")
	}
	if cfg.Recorder.Format != "wav" {
		t.Errorf("Recorder.Format = %q, want default %q", cfg.Recorder.Format, "wav")
	}
}

func TestLoad_BadFormatFixture(t *testing.T) {
	_, err := Load("testdata/bad_format.yaml")
	if err == nil {
		t.Fatal("expected error for an unsupported format")
	}
	if !strings.Contains(err.Error(), "recorder.format must be wav or mp3") {
		t.Errorf("error = %q, want the format complaint", err.Error())
	}
}

func TestLoad_InvalidYAMLFixture(t *testing.T) {
	_, err := Load("testdata/invalid.yaml")
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "config: parse:") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "config: parse:")
	}
}

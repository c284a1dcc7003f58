package capture

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// Format is the output container.
type Format string

const (
	FormatWav Format = "wav"
	FormatMp3 Format = "mp3"
)

// Config controls the local engine.
type Config struct {
	// OutputDir receives generated recordings. Defaults to "recordings".
	OutputDir string
	// DataDir holds the live-capture state file.
	DataDir string
	// Format picks the container: wav (default) or mp3.
	Format Format
	// MicDevice and SystemDevice override the platform defaults. The
	// strings are platform specific: pulse source names on Linux,
	// AVFoundation indexes on macOS, dshow "audio=..." specs on Windows.
	MicDevice    string
	SystemDevice string
}

// nextFilename returns a timestamped path under dir, e.g.
// recordings/recording_2026-08-21_14-03-59.wav.
func nextFilename(dir string, format Format, now time.Time) string {
	ts := now.Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("recording_%s.%s", ts, format))
}

// buildFFmpegArgs assembles the capture invocation: system audio as input
// 0, microphone as input 1, mixed down with amix so either side dropping
// out doesn't kill the take. duration is forwarded to -t untouched.
func buildFFmpegArgs(goos string, cfg Config, outfile, duration string) ([]string, error) {
	in, err := platformInputs(goos, cfg)
	if err != nil {
		return nil, err
	}

	args := []string{"-hide_banner", "-y"}
	if duration != "" {
		args = append(args, "-t", duration)
	}

	args = append(args, in.systemPrelude...)
	args = append(args, "-i", in.system)
	args = append(args, in.micPrelude...)
	args = append(args, "-i", in.mic)

	args = append(args, "-filter_complex", "amix=inputs=2:duration=longest:dropout_transition=2")

	switch cfg.Format {
	case FormatMp3:
		args = append(args, "-c:a", "libmp3lame", "-b:a", "192k")
	default:
		args = append(args, "-c:a", "pcm_s16le")
	}

	return append(args, outfile), nil
}

type platformInput struct {
	mic           string
	system        string
	micPrelude    []string
	systemPrelude []string
}

// platformInputs picks the ffmpeg input format and device strings for the
// platform. Linux captures via pulse with the default source and the
// default sink's monitor; macOS has no built-in loopback, so system audio
// requires an explicit device; Windows goes through DirectShow.
func platformInputs(goos string, cfg Config) (platformInput, error) {
	switch goos {
	case "linux":
		in := platformInput{
			mic:           "@DEFAULT_SOURCE@",
			system:        "@DEFAULT_SINK@.monitor",
			micPrelude:    []string{"-f", "pulse", "-thread_queue_size", "1024"},
			systemPrelude: []string{"-f", "pulse", "-thread_queue_size", "1024"},
		}
		if cfg.MicDevice != "" {
			in.mic = cfg.MicDevice
		}
		if cfg.SystemDevice != "" {
			in.system = cfg.SystemDevice
		}
		return in, nil

	case "darwin":
		if cfg.SystemDevice == "" {
			return platformInput{}, errors.New(`capture: system audio on macOS needs a loopback device (e.g. "BlackHole 2ch"); set recorder.system_device`)
		}
		in := platformInput{
			mic:           ":0",
			system:        cfg.SystemDevice,
			micPrelude:    []string{"-f", "avfoundation"},
			systemPrelude: []string{"-f", "avfoundation"},
		}
		if cfg.MicDevice != "" {
			in.mic = cfg.MicDevice
		}
		return in, nil

	case "windows":
		in := platformInput{
			mic:           "audio=Microphone (default)",
			system:        "audio=virtual-audio-capturer",
			micPrelude:    []string{"-f", "dshow"},
			systemPrelude: []string{"-f", "dshow"},
		}
		if cfg.MicDevice != "" {
			in.mic = cfg.MicDevice
		}
		if cfg.SystemDevice != "" {
			in.system = cfg.SystemDevice
		}
		return in, nil
	}

	return platformInput{}, fmt.Errorf("capture: unsupported platform %q", goos)
}

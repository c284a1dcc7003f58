package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

type runnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCombined(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Engine records mic + system audio by driving an out-of-process ffmpeg.
// Background captures are tracked through a state file under the data dir,
// so Stop and Status keep working even across a daemon restart.
type Engine struct {
	cfg    Config
	goos   string
	ffmpeg string
	run    runnerFunc
	now    func() time.Time
	mu     sync.Mutex
}

// NewEngine checks that ffmpeg is reachable and returns a local engine.
func NewEngine(cfg Config) (*Engine, error) {
	path, err := CheckFFmpeg()
	if err != nil {
		return nil, err
	}
	if cfg.Format == "" {
		cfg.Format = FormatWav
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "recordings"
	}
	return &Engine{
		cfg:    cfg,
		goos:   runtime.GOOS,
		ffmpeg: path,
		run:    runCombined,
		now:    time.Now,
	}, nil
}

// CheckFFmpeg reports where ffmpeg lives, or an error when it is missing
// from PATH.
func CheckFFmpeg() (string, error) {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("capture: ffmpeg is required but not found in PATH: %w", err)
	}
	return path, nil
}

// Start begins a capture run. Background runs detach ffmpeg, write the
// state marker, and answer "started" with the pid; foreground runs block
// until ffmpeg exits and answer "done". A live tracked recording rejects
// the start with ErrBusy; a tracked recording whose process died is swept
// up silently.
func (e *Engine) Start(ctx context.Context, opts StartOptions) (StartResult, error) {
	e.mu.Lock()
	if st, err := readState(e.cfg.DataDir); err == nil {
		if pidAlive(e.goos, st.PID) {
			e.mu.Unlock()
			return StartResult{}, ErrBusy
		}
		clearState(e.cfg.DataDir)
	}

	outfile := opts.OutputPath
	if outfile == "" {
		outfile = nextFilename(e.cfg.OutputDir, e.cfg.Format, e.now())
	}
	if dir := filepath.Dir(outfile); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			e.mu.Unlock()
			return StartResult{}, fmt.Errorf("capture: create output dir: %w", err)
		}
	}
	args, err := buildFFmpegArgs(e.goos, e.cfg, outfile, opts.Duration)
	if err != nil {
		e.mu.Unlock()
		return StartResult{}, err
	}

	if opts.Background {
		pid, err := spawnDetached(e.ffmpeg, args)
		if err != nil {
			e.mu.Unlock()
			return StartResult{}, err
		}
		if err := writeState(e.cfg.DataDir, captureState{PID: pid, File: outfile, StartedAt: e.now()}); err != nil {
			stopPID(e.goos, pid)
			e.mu.Unlock()
			return StartResult{}, err
		}
		e.mu.Unlock()
		return StartResult{Status: StartStarted, File: outfile, PID: pid}, nil
	}
	e.mu.Unlock()

	// Foreground: the caller owns the whole run, so no state marker is
	// written and cancelling ctx kills the recorder.
	if out, err := e.run(ctx, e.ffmpeg, args...); err != nil {
		return StartResult{}, fmt.Errorf("capture: ffmpeg: %w: %s", err, lastLine(out))
	}
	return StartResult{Status: StartDone, File: outfile}, nil
}

// Stop terminates the tracked background recording and clears the marker.
// A marker whose process already exited still counts as a clean stop, so
// the recorded file is reported either way.
func (e *Engine) Stop(ctx context.Context) (StopResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, err := readState(e.cfg.DataDir)
	if err != nil {
		return StopResult{}, ErrNoSession
	}
	if err := stopPID(e.goos, st.PID); err != nil {
		if pidAlive(e.goos, st.PID) {
			return StopResult{}, err
		}
	}
	clearState(e.cfg.DataDir)
	return StopResult{Status: "stopped", File: st.File, PID: st.PID}, nil
}

// Status probes the tracked recording. No marker means no session; with a
// marker, the pid decides between running and not_running. The marker is
// left alone either way, so Status stays a pure probe.
func (e *Engine) Status(ctx context.Context) (StatusResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, err := readState(e.cfg.DataDir)
	if err != nil {
		return StatusResult{State: StateNoSession}, nil
	}
	res := StatusResult{PID: st.PID, File: st.File, StartedAt: st.StartedAt}
	if pidAlive(e.goos, st.PID) {
		res.State = StateRunning
	} else {
		res.State = StateNotRunning
	}
	return res, nil
}

// ListDevices reports the platform's capture devices: pactl sources on
// Linux (with a pw-cli fallback for PipeWire hosts without the pulse
// shim), ffmpeg's device listing elsewhere. ffmpeg prints listings to
// stderr and exits nonzero, so the output matters more than the exit code.
func (e *Engine) ListDevices(ctx context.Context) ([]Device, error) {
	switch e.goos {
	case "linux":
		out, err := e.run(ctx, "pactl", "list", "short", "sources")
		if err != nil {
			if devs, pwErr := e.pipewireDevices(ctx); pwErr == nil {
				return devs, nil
			}
			return nil, fmt.Errorf("capture: pactl list sources: %w", err)
		}
		def, _ := e.run(ctx, "pactl", "get-default-source")
		return parsePactlSources(out, strings.TrimSpace(string(def))), nil

	case "darwin":
		out, err := e.run(ctx, e.ffmpeg, "-hide_banner", "-f", "avfoundation", "-list_devices", "true", "-i", "")
		devs := parseAVFoundation(out)
		if len(devs) == 0 && err != nil {
			return nil, fmt.Errorf("capture: list devices: %w", err)
		}
		return devs, nil

	case "windows":
		out, err := e.run(ctx, e.ffmpeg, "-hide_banner", "-list_devices", "true", "-f", "dshow", "-i", "dummy")
		devs := parseDirectShow(out)
		if len(devs) == 0 && err != nil {
			return nil, fmt.Errorf("capture: list devices: %w", err)
		}
		return devs, nil
	}

	return nil, errors.New("capture: device listing is not supported on this platform")
}

// pipewireDevices lists Audio/Source nodes via pw-cli. An empty node list
// counts as a failure so the caller can surface the pactl error instead.
func (e *Engine) pipewireDevices(ctx context.Context) ([]Device, error) {
	out, err := e.run(ctx, "pw-cli", "ls", "Node")
	if err != nil {
		return nil, fmt.Errorf("capture: pw-cli ls Node: %w", err)
	}
	devs := parsePipewireNodes(out)
	if len(devs) == 0 {
		return nil, errors.New("capture: no pipewire audio sources")
	}
	return devs, nil
}

// lastLine trims command output to its final non-empty line; ffmpeg
// buries the actual failure at the bottom of a long banner.
func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

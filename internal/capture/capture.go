// Package capture defines the recording backend boundary and the local
// ffmpeg engine behind it.
package capture

import (
	"context"
	"errors"
	"time"
)

// Start statuses. "started" and "running" mean capture is in progress;
// "done" means the backend already finished, which is how a foreground
// (blocking) run answers.
const (
	StartStarted = "started"
	StartRunning = "running"
	StartDone    = "done"
)

// States reported by Status.
const (
	StateRunning    = "running"
	StateNotRunning = "not_running"
	StateNoSession  = "no_session"
)

var (
	// ErrBusy means the engine is already capturing.
	ErrBusy = errors.New("capture: a recording is already in progress")
	// ErrNoSession means there is nothing to stop.
	ErrNoSession = errors.New("capture: no recording in progress")
)

// StartOptions controls one capture run. All fields are optional hints;
// the backend is the authority on their legality.
type StartOptions struct {
	// OutputPath overrides the generated output file path.
	OutputPath string `json:"output,omitempty"`
	// Background detaches the recorder and returns immediately; otherwise
	// Start blocks until capture ends.
	Background bool `json:"background"`
	// Duration caps the recording length. Passed to ffmpeg verbatim, as
	// seconds or HH:MM:SS; ffmpeg decides whether it is valid.
	Duration string `json:"duration,omitempty"`
}

// StartResult is the backend's answer to Start.
type StartResult struct {
	Status string `json:"status"`
	File   string `json:"file,omitempty"`
	PID    int    `json:"pid,omitempty"`
}

// Terminal reports whether the start already completed the whole session.
func (r StartResult) Terminal() bool { return r.Status == StartDone }

// StopResult is the backend's answer to Stop.
type StopResult struct {
	Status string `json:"status"`
	File   string `json:"file,omitempty"`
	PID    int    `json:"pid,omitempty"`
}

// StatusResult describes the backend-side session, if any.
type StatusResult struct {
	State     string    `json:"state"`
	PID       int       `json:"pid,omitempty"`
	File      string    `json:"file,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// Active reports whether a backend-side session is still running.
func (r StatusResult) Active() bool { return r.State == StateRunning }

// Device is one audio capture device.
type Device struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Default bool   `json:"default,omitempty"`
}

// Backend is the recorder boundary the session coordinator drives. Engine
// implements it over a local ffmpeg; remote.Client implements it against
// another daemon's RPC surface.
type Backend interface {
	Start(ctx context.Context, opts StartOptions) (StartResult, error)
	Stop(ctx context.Context) (StopResult, error)
	Status(ctx context.Context) (StatusResult, error)
	ListDevices(ctx context.Context) ([]Device, error)
}

package capture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const stateFileName = "capture.json"

// captureState is what the engine remembers about a live background
// recording. It lives on disk under the data dir so a restarted daemon can
// still find, report, and stop the recorder it left behind.
type captureState struct {
	PID       int       `json:"pid"`
	File      string    `json:"file"`
	StartedAt time.Time `json:"started_at"`
}

func statePath(dataDir string) string {
	return filepath.Join(dataDir, stateFileName)
}

// writeState persists the live-recording marker.
func writeState(dataDir string, st captureState) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("capture: create data dir: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("capture: encode state: %w", err)
	}
	if err := os.WriteFile(statePath(dataDir), data, 0o644); err != nil {
		return fmt.Errorf("capture: write state: %w", err)
	}
	return nil
}

// readState loads the live-recording marker; the error wraps
// os.ErrNotExist when no capture is tracked.
func readState(dataDir string) (captureState, error) {
	data, err := os.ReadFile(statePath(dataDir))
	if err != nil {
		return captureState{}, err
	}
	var st captureState
	if err := json.Unmarshal(data, &st); err != nil {
		return captureState{}, fmt.Errorf("capture: parse state file: %w", err)
	}
	return st, nil
}

// clearState removes the marker. Removing an absent marker is fine.
func clearState(dataDir string) {
	_ = os.Remove(statePath(dataDir))
}

package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/tapedeck/tapedeck/internal/capture"
)

// Phase is the coordinator's protocol state.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseStarting  Phase = "starting"
	PhaseRecording Phase = "recording"
	PhaseStopping  Phase = "stopping"
)

const defaultPollInterval = 2 * time.Second

var (
	// ErrNotIdle rejects a start while a session is active in any form.
	ErrNotIdle = errors.New("session: a recording is already in progress")
	// ErrNotRecording rejects a stop when nothing is being recorded.
	ErrNotRecording = errors.New("session: no recording in progress")
	// ErrClosed rejects requests after Close.
	ErrClosed = errors.New("session: coordinator is closed")
)

// Summary is the coordinator state exposed to the presentation layer.
type Summary struct {
	Phase     Phase  `json:"phase"`
	ActiveID  string `json:"active_id,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// CoordinatorOpts configures a Coordinator.
type CoordinatorOpts struct {
	// PollInterval is how often the backend status is checked while a
	// recording is in flight. Defaults to 2s.
	PollInterval time.Duration
}

// Coordinator enforces the one-recording-at-a-time rule and reconciles the
// ledger's optimistic state against the backend's responses. Every phase
// transition and ledger mutation happens under its lock; the backend calls
// themselves run outside it, so a slow recorder never blocks readers.
type Coordinator struct {
	ledger  *Ledger
	backend capture.Backend
	poll    time.Duration

	mu       sync.Mutex
	phase    Phase
	activeID string
	lastErr  error
	gen      int
	cancel   context.CancelFunc
	closed   bool
	wg       sync.WaitGroup
}

// NewCoordinator returns an idle coordinator over the given ledger and
// backend.
func NewCoordinator(ledger *Ledger, backend capture.Backend, opts CoordinatorOpts) *Coordinator {
	poll := opts.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	return &Coordinator{
		ledger:  ledger,
		backend: backend,
		poll:    poll,
		phase:   PhaseIdle,
	}
}

// RequestStart begins a new recording session. Only legal while idle: any
// other phase returns ErrNotIdle without touching the backend or the
// ledger. The ledger record is created before the backend call so the
// history shows the attempt immediately, then reconciled once the backend
// answers: a terminal response finalizes it on the spot, an in-progress
// response leaves it open and arms status polling, and an error aborts it.
// The abort clears any output path hint along with marking the record done,
// so a failed attempt stays visible in the history but never reads as a
// finished take.
func (c *Coordinator) RequestStart(ctx context.Context, opts capture.StartOptions) (Record, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Record{}, ErrClosed
	}
	if c.phase != PhaseIdle {
		c.mu.Unlock()
		return Record{}, ErrNotIdle
	}
	c.phase = PhaseStarting
	rec := c.ledger.Create(CreateOpts{File: opts.OutputPath})
	c.activeID = rec.ID
	c.mu.Unlock()

	res, err := c.backend.Start(ctx, opts)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.lastErr = err
		rec, _ = c.ledger.Abort(rec.ID)
		c.phase = PhaseIdle
		c.activeID = ""
		return rec, fmt.Errorf("session: start recording: %w", err)
	}
	c.lastErr = nil
	if res.Terminal() {
		rec, _ = c.ledger.Finalize(rec.ID, FinalizeOpts{File: res.File, PID: res.PID})
		c.phase = PhaseIdle
		c.activeID = ""
		return rec, nil
	}
	c.phase = PhaseRecording
	if !c.closed {
		c.beginPollingLocked(rec.ID)
	}
	return rec, nil
}

// RequestStop ends the active recording. Only legal while recording:
// idle, starting, and an already in-flight stop all return ErrNotRecording
// without a backend call or ledger mutation. On success the active record
// is finalized with whatever file the backend reported. On failure the
// record stays open and the phase returns to recording with polling
// re-armed, because a failed stop call does not prove the backend kept
// running; the caller may retry, or the next poll resolves it.
func (c *Coordinator) RequestStop(ctx context.Context) (Record, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Record{}, ErrClosed
	}
	if c.phase != PhaseRecording {
		c.mu.Unlock()
		return Record{}, ErrNotRecording
	}
	c.phase = PhaseStopping
	c.stopPollingLocked()
	id := c.activeID
	c.mu.Unlock()

	res, err := c.backend.Stop(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.lastErr = err
		c.phase = PhaseRecording
		if !c.closed {
			c.beginPollingLocked(id)
		}
		return Record{}, fmt.Errorf("session: stop recording: %w", err)
	}
	c.lastErr = nil
	rec, ok := c.ledger.Finalize(id, FinalizeOpts{File: res.File, PID: res.PID})
	if !ok {
		if latest, found := c.ledger.Latest(); found {
			rec, _ = c.ledger.Finalize(latest.ID, FinalizeOpts{File: res.File, PID: res.PID})
		}
	}
	c.phase = PhaseIdle
	c.activeID = ""
	return rec, nil
}

// Phase returns the current protocol phase.
func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Snapshot returns the phase, the active record id, and the last backend
// error, for display.
func (c *Coordinator) Snapshot() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Summary{Phase: c.phase, ActiveID: c.activeID}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	return s
}

// Close tears the coordinator down: polling stops immediately and all
// subsequent requests fail with ErrClosed. It waits for the poll loop to
// exit, so no timer outlives the owner.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopPollingLocked()
	c.mu.Unlock()
	c.wg.Wait()
}

// beginPollingLocked starts a status poll loop for the given record. The
// generation counter fences the loop: a result carrying an older generation
// is discarded instead of applied. Caller holds c.mu.
func (c *Coordinator) beginPollingLocked(recID string) {
	c.gen++
	gen := c.gen
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(1)
	go c.pollLoop(ctx, gen, recID)
}

// stopPollingLocked cancels the running poll loop, if any, and bumps the
// generation so an in-flight status response cannot land afterwards.
// Caller holds c.mu.
func (c *Coordinator) stopPollingLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
}

// pollLoop queries the backend on a fixed interval while a recording is in
// flight. Poll errors are logged and skipped. The loop exits when its
// generation is cancelled or when the backend reports the session over,
// which finalizes the record exactly like a successful stop.
func (c *Coordinator) pollLoop(ctx context.Context, gen int, recID string) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		st, err := c.backend.Status(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("session: status poll: %v", err)
			continue
		}
		if st.Active() {
			continue
		}
		c.finishFromPoll(gen, recID, st)
		return
	}
}

// finishFromPoll applies a poll result that says the backend-side session
// ended, e.g. a duration cap expiring. A stale result, one whose
// generation was cancelled while the status call was in flight, is
// discarded so it cannot touch a record some newer transition owns.
func (c *Coordinator) finishFromPoll(gen int, recID string, st capture.StatusResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.phase != PhaseRecording || c.activeID != recID {
		return
	}
	c.ledger.Finalize(recID, FinalizeOpts{File: st.File, PID: st.PID})
	c.phase = PhaseIdle
	c.activeID = ""
	c.stopPollingLocked()
}

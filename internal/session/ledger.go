// Package session holds the recording session ledger and the coordinator
// that drives the capture backend's start/stop/status protocol.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a session record.
type Status string

const (
	StatusRecording Status = "recording"
	StatusDone      Status = "done"
)

// Record is one recording attempt. ID and StartedAt are fixed at creation.
// Status moves recording -> done exactly once, and File, once set, is only
// ever replaced by a non-empty value. Abort is the one exception to the
// File rule: it clears a create hint the backend never confirmed.
type Record struct {
	ID        string    `json:"id"`
	File      string    `json:"file,omitempty"`
	StartedAt time.Time `json:"started_at"`
	PID       int       `json:"pid,omitempty"`
	Status    Status    `json:"status"`
}

// CreateOpts seeds optional fields on a new record.
type CreateOpts struct {
	File string
}

// FinalizeOpts carries the terminal details reported by the backend. A zero
// value finalizes the record as a failed attempt with no file.
type FinalizeOpts struct {
	File string
	PID  int
}

// Ledger is the in-memory history of session records, most recent first.
// Records are never deleted and nothing is persisted; the history lives as
// long as the process. The coordinator is the only mutator; any number of
// observers may read it or subscribe to changes.
type Ledger struct {
	mu      sync.Mutex
	records []Record
	subs    map[int]func(Record)
	nextSub int
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{subs: make(map[int]func(Record))}
}

// Create prepends a new record with status recording and returns a copy of
// it. Observers are notified once the record is in place. The caller keeps
// the returned ID to finalize the record later.
func (l *Ledger) Create(opts CreateOpts) Record {
	l.mu.Lock()
	rec := Record{
		ID:        uuid.NewString(),
		File:      opts.File,
		StartedAt: time.Now(),
		Status:    StatusRecording,
	}
	l.records = append([]Record{rec}, l.records...)
	subs := l.subscribersLocked()
	l.mu.Unlock()

	for _, fn := range subs {
		fn(rec)
	}
	return rec
}

// Finalize marks the record with the given id done. A non-empty File in upd
// replaces the stored path; a zero PID leaves the stored handle alone.
// Finalizing an unknown id is a no-op, not an error: it returns false and
// notifies nobody.
func (l *Ledger) Finalize(id string, upd FinalizeOpts) (Record, bool) {
	l.mu.Lock()
	idx := l.indexLocked(id)
	if idx < 0 {
		l.mu.Unlock()
		return Record{}, false
	}
	l.records[idx].Status = StatusDone
	if upd.File != "" {
		l.records[idx].File = upd.File
	}
	if upd.PID != 0 {
		l.records[idx].PID = upd.PID
	}
	rec := l.records[idx]
	subs := l.subscribersLocked()
	l.mu.Unlock()

	for _, fn := range subs {
		fn(rec)
	}
	return rec, true
}

// Abort rolls an optimistic record back to a failed attempt: Status done,
// File cleared. A create hint is only a guess at where the backend would
// write; keeping it on a start that never happened would dress the failure
// up as a finished take. Aborting an unknown id is a no-op: it returns
// false and notifies nobody.
func (l *Ledger) Abort(id string) (Record, bool) {
	l.mu.Lock()
	idx := l.indexLocked(id)
	if idx < 0 {
		l.mu.Unlock()
		return Record{}, false
	}
	l.records[idx].Status = StatusDone
	l.records[idx].File = ""
	rec := l.records[idx]
	subs := l.subscribersLocked()
	l.mu.Unlock()

	for _, fn := range subs {
		fn(rec)
	}
	return rec, true
}

// List returns a copy of the history, most recent first. Callers may hold
// or mutate the returned slice freely.
func (l *Ledger) List() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Latest returns the most recently created record, or false when the
// history is empty.
func (l *Ledger) Latest() (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.records) == 0 {
		return Record{}, false
	}
	return l.records[0], true
}

// Subscribe registers fn to run after every mutation with a copy of the
// mutated record. The callback runs on the mutating goroutine once the
// change is visible, so it may read the ledger but must not block and must
// not call back into the coordinator. The returned func removes the
// subscription; other subscribers are unaffected.
func (l *Ledger) Subscribe(fn func(Record)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs, id)
	}
}

// indexLocked finds the record with the given id, or -1. Caller holds l.mu.
func (l *Ledger) indexLocked(id string) int {
	for i := range l.records {
		if l.records[i].ID == id {
			return i
		}
	}
	return -1
}

// subscribersLocked copies the current callbacks so they can be invoked
// after the lock is released. Caller holds l.mu.
func (l *Ledger) subscribersLocked() []func(Record) {
	out := make([]func(Record), 0, len(l.subs))
	for _, fn := range l.subs {
		out = append(out, fn)
	}
	return out
}

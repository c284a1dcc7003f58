// Package notify pushes session lifecycle events to chat. Notifiers are
// fed from a ledger subscription through a queue, so a slow chat API never
// stalls the recorder.
package notify

import (
	"context"
	"log"

	"github.com/tapedeck/tapedeck/internal/session"
)

// Kind labels what happened to a session.
type Kind string

const (
	KindStarted   Kind = "started"
	KindCompleted Kind = "completed"
	KindFailed    Kind = "failed"
)

// Event is one session lifecycle change worth telling a human about.
type Event struct {
	Kind   Kind
	Record session.Record
}

// Notifier delivers an event to one destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, ev Event) error
}

// DispatcherOpts configures event selection.
type DispatcherOpts struct {
	// OnStart also announces session starts, not just terminal outcomes.
	OnStart bool
}

// Dispatcher fans ledger events out to the configured notifiers.
type Dispatcher struct {
	notifiers []Notifier
	events    chan Event
	onStart   bool
}

// NewDispatcher returns a dispatcher over the given notifiers.
func NewDispatcher(opts DispatcherOpts, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{
		notifiers: notifiers,
		events:    make(chan Event, 64),
		onStart:   opts.OnStart,
	}
}

// Watch subscribes the dispatcher to ledger mutations. The returned func
// removes the subscription.
func (d *Dispatcher) Watch(ledger *session.Ledger) func() {
	return ledger.Subscribe(func(rec session.Record) {
		ev := Event{Kind: classify(rec), Record: rec}
		if ev.Kind == KindStarted && !d.onStart {
			return
		}
		// Ledger callbacks must not block; drop when the queue is full.
		select {
		case d.events <- ev:
		default:
		}
	})
}

// Run delivers queued events until ctx is cancelled. Delivery errors are
// logged per notifier; one failing destination doesn't gag the others.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.events:
			for _, n := range d.notifiers {
				if err := n.Send(ctx, ev); err != nil {
					log.Printf("notify: %s: %v", n.Name(), err)
				}
			}
		}
	}
}

// classify maps a ledger mutation to a notification kind: an open record
// just started, a finalized record with a file completed, and a finalized
// record without one was a failed attempt.
func classify(rec session.Record) Kind {
	switch {
	case rec.Status == session.StatusRecording:
		return KindStarted
	case rec.File != "":
		return KindCompleted
	default:
		return KindFailed
	}
}

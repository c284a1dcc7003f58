// Package schedule auto-starts recordings on cron expressions, e.g. a
// standing meeting captured every weekday at 10:00.
package schedule

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tapedeck/tapedeck/internal/capture"
	"github.com/tapedeck/tapedeck/internal/session"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// starter is the slice of the coordinator the scheduler drives.
type starter interface {
	RequestStart(ctx context.Context, opts capture.StartOptions) (session.Record, error)
}

// Entry is one scheduled recording.
type Entry struct {
	Name     string
	Cron     string
	Duration string
	Output   string
}

type scheduledEntry struct {
	Entry
	sched cron.Schedule
	next  time.Time
}

// Scheduler fires RequestStart on each entry's cron schedule. Entries are
// background recordings; the duration cap is what ends them.
type Scheduler struct {
	coord   starter
	entries []scheduledEntry
	out     io.Writer
	now     func() time.Time
}

// New parses the entries and returns a scheduler. Every entry needs a cron
// expression and a duration, otherwise a scheduled recording would never
// stop on its own.
func New(coord starter, entries []Entry, out io.Writer) (*Scheduler, error) {
	if out == nil {
		out = io.Discard
	}
	s := &Scheduler{coord: coord, out: out, now: time.Now}
	for _, e := range entries {
		if e.Duration == "" {
			return nil, fmt.Errorf("schedule: entry %q needs a duration", e.Name)
		}
		sched, err := cronParser.Parse(e.Cron)
		if err != nil {
			return nil, fmt.Errorf("schedule: entry %q: parse cron %q: %w", e.Name, e.Cron, err)
		}
		s.entries = append(s.entries, scheduledEntry{Entry: e, sched: sched})
	}
	return s, nil
}

// Run fires entries as they come due until ctx is cancelled. A tick that
// lands while another session is active is skipped and logged; only one
// recording runs at a time.
func (s *Scheduler) Run(ctx context.Context) {
	if len(s.entries) == 0 {
		return
	}

	now := s.now()
	for i := range s.entries {
		s.entries[i].next = s.entries[i].sched.Next(now)
	}

	for {
		idx := s.soonest()
		wait := s.entries[idx].next.Sub(s.now())
		if wait < 0 {
			wait = 0
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		s.fire(ctx, &s.entries[idx])
		s.entries[idx].next = s.entries[idx].sched.Next(s.now())
	}
}

// soonest returns the index of the entry that fires next.
func (s *Scheduler) soonest() int {
	idx := 0
	for i := range s.entries {
		if s.entries[i].next.Before(s.entries[idx].next) {
			idx = i
		}
	}
	return idx
}

// fire starts one scheduled recording.
func (s *Scheduler) fire(ctx context.Context, e *scheduledEntry) {
	rec, err := s.coord.RequestStart(ctx, capture.StartOptions{
		OutputPath: e.Output,
		Background: true,
		Duration:   e.Duration,
	})
	if err != nil {
		log.Printf("schedule: %s: %v", e.Name, err)
		return
	}
	fmt.Fprintf(s.out, "Scheduled recording %s started (session %s, %s)\n", e.Name, rec.ID, e.Duration)
}

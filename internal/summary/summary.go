// Package summary defines the transcript-summarization boundary. The
// feature is planned but not built; the daemon ships the Unimplemented
// provider so the surface exists and answers honestly.
package summary

import (
	"context"
	"errors"

	"github.com/tapedeck/tapedeck/internal/session"
)

// ErrNotImplemented is returned until a real summarizer exists.
var ErrNotImplemented = errors.New("summary: summarization is not implemented yet")

// Summarizer produces a text summary for a finished recording.
type Summarizer interface {
	Summarize(ctx context.Context, rec session.Record) (string, error)
}

// Unimplemented rejects every request with ErrNotImplemented.
type Unimplemented struct{}

// Summarize always fails with ErrNotImplemented.
func (Unimplemented) Summarize(ctx context.Context, rec session.Record) (string, error) {
	return "", ErrNotImplemented
}

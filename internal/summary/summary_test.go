package summary

import (
	"context"
	"errors"
	"testing"

	"github.com/tapedeck/tapedeck/internal/session"
)

func TestUnimplemented(t *testing.T) {
	text, err := Unimplemented{}.Summarize(context.Background(), session.Record{ID: "abc"})
	if !errors.Is(err, ErrNotImplemented) {
		t.Errorf("error = %v, want ErrNotImplemented", err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty", text)
	}
}

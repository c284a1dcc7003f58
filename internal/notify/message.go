package notify

import (
	"fmt"
	"strings"
	"time"
)

// title renders the event headline.
func title(ev Event) string {
	switch ev.Kind {
	case KindStarted:
		return "Recording started"
	case KindCompleted:
		return "Recording finished"
	default:
		return "Recording failed"
	}
}

// body renders the event details.
func body(ev Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s", shortID(ev.Record.ID))
	if ev.Record.File != "" {
		fmt.Fprintf(&b, "\nFile: %s", ev.Record.File)
	}
	if ev.Kind != KindStarted && !ev.Record.StartedAt.IsZero() {
		fmt.Fprintf(&b, "\nLength: %s", time.Since(ev.Record.StartedAt).Round(time.Second))
	}
	return b.String()
}

// shortID trims a UUID down to something a chat message can carry.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func slackColor(k Kind) string {
	switch k {
	case KindCompleted:
		return "good"
	case KindFailed:
		return "danger"
	default:
		return "#439fe0"
	}
}

func discordColor(k Kind) int {
	switch k {
	case KindCompleted:
		return 0x2ecc71
	case KindFailed:
		return 0xe74c3c
	default:
		return 0x3498db
	}
}

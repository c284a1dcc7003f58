package api

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tapedeck/tapedeck/internal/session"
)

// handleEvents streams ledger mutations as SSE. Each create or finalize
// lands as one "session" event; a heartbeat keeps proxies from reaping the
// connection.
func (s *Server) handleEvents(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ch := make(chan session.Record, 16)
	unsubscribe := s.ledger.Subscribe(func(rec session.Record) {
		// Never block the mutating goroutine on a slow client.
		select {
		case ch <- rec:
		default:
		}
	})
	defer unsubscribe()

	writeSSE(c.Writer, "connected", s.coord.Snapshot())
	c.Writer.Flush()

	ctx := c.Request.Context()
	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case rec := <-ch:
			writeSSE(c.Writer, "session", rec)
			c.Writer.Flush()
		case <-heartbeat.C:
			writeSSE(c.Writer, "heartbeat", map[string]string{
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			c.Writer.Flush()
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}

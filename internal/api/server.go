// Package api exposes the daemon's HTTP surface: the presentation API the
// CLI talks to, and the raw capture RPC routes remote daemons drive.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tapedeck/tapedeck/internal/capture"
	"github.com/tapedeck/tapedeck/internal/session"
	"github.com/tapedeck/tapedeck/internal/summary"
)

// Opts holds configuration for the API server.
type Opts struct {
	Addr        string
	Ledger      *session.Ledger
	Coordinator *session.Coordinator
	Backend     capture.Backend
	Summarizer  summary.Summarizer
	// MountRPC exposes the backend's raw start/stop/status/devices routes.
	// Only set when the backend is the local engine; a daemon that is
	// itself a remote-capture client must not re-export someone else's
	// recorder.
	MountRPC bool
	Out      io.Writer
}

// Server is the daemon's HTTP front.
type Server struct {
	ledger     *session.Ledger
	coord      *session.Coordinator
	backend    capture.Backend
	summarizer summary.Summarizer
}

// Run launches the server on opts.Addr. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Run(ctx context.Context, opts Opts) error {
	if opts.Ledger == nil || opts.Coordinator == nil || opts.Backend == nil {
		return fmt.Errorf("api: ledger, coordinator, and backend are required")
	}
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:8313"
	}
	if opts.Summarizer == nil {
		opts.Summarizer = summary.Unimplemented{}
	}

	s := &Server{
		ledger:     opts.Ledger,
		coord:      opts.Coordinator,
		backend:    opts.Backend,
		summarizer: opts.Summarizer,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	s.registerRoutes(router, opts.MountRPC)

	srv := &http.Server{
		Addr:    opts.Addr,
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "API listening on http://%s\n", opts.Addr)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

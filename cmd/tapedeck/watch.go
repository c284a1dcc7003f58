package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/tapedeck/tapedeck/internal/session"
)

func newWatchCmd() *cobra.Command {
	var host string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream session events in real-time",
		Long:  "Follows the daemon's event stream and prints a line whenever a session starts or ends.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, host)
		},
	}

	cmd.Flags().StringVar(&host, "host", defaultHost, "daemon base URL")
	return cmd
}

func runWatch(cmd *cobra.Command, host string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Watching session events... (Ctrl+C to stop)")

	client := newAPIClient(host)
	return client.events(ctx, func(event string, data []byte) {
		switch event {
		case "connected":
			var s session.Summary
			if err := json.Unmarshal(data, &s); err == nil {
				fmt.Fprintf(out, "[%s] connected, daemon phase %s\n", time.Now().Format("15:04:05"), s.Phase)
			}
		case "session":
			var rec session.Record
			if err := json.Unmarshal(data, &rec); err != nil {
				fmt.Fprintf(out, "bad event payload: %v\n", err)
				return
			}
			printWatchEvent(out, rec)
		}
	})
}

func printWatchEvent(out io.Writer, rec session.Record) {
	ts := time.Now().Format("15:04:05")
	switch {
	case rec.Status == session.StatusRecording:
		fmt.Fprintf(out, "[%s] %s started\n", ts, shortID(rec.ID))
	case rec.File != "":
		fmt.Fprintf(out, "[%s] %s done: %s\n", ts, shortID(rec.ID), rec.File)
	default:
		fmt.Fprintf(out, "[%s] %s ended without a file\n", ts, shortID(rec.ID))
	}
}

package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tapedeck/tapedeck/internal/session"
)

func newSessionsCmd() *cobra.Command {
	var (
		host   string
		latest bool
	)

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recording sessions",
		Long:  "Lists the daemon's session history, newest first. The history lives in memory and resets when the daemon restarts.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessions(cmd, host, latest)
		},
	}

	cmd.Flags().StringVar(&host, "host", defaultHost, "daemon base URL")
	cmd.Flags().BoolVar(&latest, "latest", false, "show only the most recent session")
	return cmd
}

func runSessions(cmd *cobra.Command, host string, latest bool) error {
	client := newAPIClient(host)
	out := cmd.OutOrStdout()

	if latest {
		rec, err := client.latest(context.Background())
		if err != nil {
			return err
		}
		printSession(out, rec)
		return nil
	}

	recs, err := client.sessions(context.Background())
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(out, "No sessions yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tSTARTED\tPID\tFILE")
	for _, r := range recs {
		pid := "-"
		if r.PID != 0 {
			pid = strconv.Itoa(r.PID)
		}
		file := r.File
		if file == "" {
			file = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s ago\t%s\t%s\n",
			shortID(r.ID), r.Status, formatAgo(time.Since(r.StartedAt)), pid, truncate(file, 48))
	}
	w.Flush()
	return nil
}

func printSession(out io.Writer, r session.Record) {
	fmt.Fprintf(out, "Session: %s\n", r.ID)
	fmt.Fprintf(out, "  Status:  %s\n", r.Status)
	fmt.Fprintf(out, "  Started: %s (%s ago)\n", r.StartedAt.Format(time.RFC3339), formatAgo(time.Since(r.StartedAt)))
	if r.PID != 0 {
		fmt.Fprintf(out, "  PID:     %d\n", r.PID)
	}
	if r.File != "" {
		fmt.Fprintf(out, "  File:    %s\n", r.File)
	}
}

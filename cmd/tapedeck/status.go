package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tapedeck/tapedeck/internal/capture"
)

func newStatusCmd() *cobra.Command {
	var (
		host  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and recorder status",
		Long:  "Displays the daemon's session phase and a live probe of the recorder process. Use --watch for auto-refresh.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, host, watch)
		},
	}

	cmd.Flags().StringVar(&host, "host", defaultHost, "daemon base URL")
	cmd.Flags().BoolVar(&watch, "watch", false, "auto-refresh every 2 seconds")
	return cmd
}

func runStatus(cmd *cobra.Command, host string, watch bool) error {
	if watch && !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("status: --watch needs a terminal")
	}

	client := newAPIClient(host)
	out := cmd.OutOrStdout()

	for {
		info, err := client.status(context.Background())
		if err != nil {
			return err
		}

		if watch {
			// Clear screen.
			fmt.Fprint(out, "\033[2J\033[H")
		}

		printStatus(out, info)

		if !watch {
			return nil
		}
		time.Sleep(2 * time.Second)
	}
}

func printStatus(out io.Writer, info statusInfo) {
	fmt.Fprintf(out, "Phase: %s\n", info.Phase)
	if info.ActiveID != "" {
		fmt.Fprintf(out, "Session: %s\n", shortID(info.ActiveID))
	}
	if info.LastError != "" {
		fmt.Fprintf(out, "Last error: %s\n", info.LastError)
	}

	if info.BackendError != "" {
		fmt.Fprintf(out, "Recorder: unreachable (%s)\n", info.BackendError)
		return
	}
	if info.Backend == nil {
		return
	}

	fmt.Fprintf(out, "Recorder: %s\n", info.Backend.State)
	if info.Backend.State == capture.StateRunning {
		if info.Backend.PID != 0 {
			fmt.Fprintf(out, "  PID:  %d\n", info.Backend.PID)
		}
		if info.Backend.File != "" {
			fmt.Fprintf(out, "  File: %s\n", info.Backend.File)
		}
		if !info.Backend.StartedAt.IsZero() {
			fmt.Fprintf(out, "  Running for %s\n", formatAgo(time.Since(info.Backend.StartedAt)))
		}
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/tapedeck/tapedeck/internal/capture"
	"github.com/tapedeck/tapedeck/internal/session"
)

func newStartCmd() *cobra.Command {
	var (
		host       string
		output     string
		duration   string
		background bool
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a recording",
		Long:  "Asks the daemon to start capturing system audio and the microphone. Recordings run in the background by default; pass --background=false to hold the command open until the recording finishes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd, host, output, duration, background)
		},
	}

	cmd.Flags().StringVar(&host, "host", defaultHost, "daemon base URL")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path (default: timestamped name in the recordings dir)")
	cmd.Flags().StringVarP(&duration, "duration", "d", "", "stop automatically after this long (ffmpeg duration, e.g. 90 or 00:01:30)")
	cmd.Flags().BoolVar(&background, "background", true, "detach the recording and return immediately")
	return cmd
}

func runStart(cmd *cobra.Command, host, output, duration string, background bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := newAPIClient(host)
	rec, err := client.startRecording(ctx, capture.StartOptions{
		OutputPath: output,
		Background: background,
		Duration:   duration,
	})
	out := cmd.OutOrStdout()
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(out, "\nCanceled.")
			return nil
		}
		return err
	}

	if rec.Status == session.StatusDone {
		fmt.Fprintf(out, "Recording finished (session %s)\n", shortID(rec.ID))
		if rec.File != "" {
			fmt.Fprintf(out, "  File: %s\n", rec.File)
		}
		return nil
	}

	fmt.Fprintf(out, "Recording started (session %s)\n", shortID(rec.ID))
	if rec.File != "" {
		fmt.Fprintf(out, "  File: %s\n", rec.File)
	}
	if rec.PID != 0 {
		fmt.Fprintf(out, "  PID:  %d\n", rec.PID)
	}
	fmt.Fprintf(out, "\nStop with: tapedeck stop\n")
	return nil
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newStopCmd() *cobra.Command {
	var host string

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the active recording",
		Long:  "Asks the daemon to end the recording in progress and finalize its session entry.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop(cmd, host)
		},
	}

	cmd.Flags().StringVar(&host, "host", defaultHost, "daemon base URL")
	return cmd
}

func runStop(cmd *cobra.Command, host string) error {
	client := newAPIClient(host)
	rec, err := client.stopRecording(context.Background())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Recording stopped (session %s)\n", shortID(rec.ID))
	if rec.File != "" {
		fmt.Fprintf(out, "  File: %s\n", rec.File)
	}
	return nil
}

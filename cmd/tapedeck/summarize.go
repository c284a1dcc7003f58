package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func newSummarizeCmd() *cobra.Command {
	var host string

	cmd := &cobra.Command{
		Use:   "summarize <session-id>",
		Short: "Summarize a recorded session",
		Long:  "Asks the daemon for a summary of a finished session. Summarization is not wired to a transcription provider yet, so this currently reports what the daemon says back.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummarize(cmd, host, args[0])
		},
	}

	cmd.Flags().StringVar(&host, "host", defaultHost, "daemon base URL")
	return cmd
}

func runSummarize(cmd *cobra.Command, host, id string) error {
	client := newAPIClient(host)
	text, err := client.summarize(context.Background(), id)

	var ae *apiError
	if errors.As(err, &ae) && ae.code == http.StatusNotImplemented {
		fmt.Fprintln(cmd.OutOrStdout(), ae.msg)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

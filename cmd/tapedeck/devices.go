package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newDevicesCmd() *cobra.Command {
	var host string

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List audio input devices",
		Long:  "Lists the audio devices the recorder can capture from, as reported by the platform's audio stack. The default device is marked with an asterisk.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevices(cmd, host)
		},
	}

	cmd.Flags().StringVar(&host, "host", defaultHost, "daemon base URL")
	return cmd
}

func runDevices(cmd *cobra.Command, host string) error {
	client := newAPIClient(host)
	devs, err := client.devices(context.Background())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(devs) == 0 {
		fmt.Fprintln(out, "No audio devices found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDEFAULT")
	for _, d := range devs {
		def := ""
		if d.Default {
			def = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, truncate(d.Name, 60), def)
	}
	w.Flush()
	return nil
}

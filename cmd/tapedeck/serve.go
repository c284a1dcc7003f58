package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tapedeck/tapedeck/internal/api"
	"github.com/tapedeck/tapedeck/internal/capture"
	"github.com/tapedeck/tapedeck/internal/capture/remote"
	"github.com/tapedeck/tapedeck/internal/config"
	"github.com/tapedeck/tapedeck/internal/notify"
	"github.com/tapedeck/tapedeck/internal/schedule"
	"github.com/tapedeck/tapedeck/internal/session"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the recording daemon",
		Long:  "Starts the daemon that owns the recorder, keeps the session history, and serves the local API the other commands talk to. Runs until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "tapedeck.yaml", "path to tapedeck config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("serve: load .env: %v", err)
	}

	cfg, err := loadServeConfig(cmd, configPath)
	if err != nil {
		return err
	}

	ledger := session.NewLedger()

	var backend capture.Backend
	mountRPC := false
	if cfg.Remote.CaptureURL != "" {
		backend = remote.New(cfg.Remote.CaptureURL)
	} else {
		eng, err := capture.NewEngine(capture.Config{
			OutputDir:    cfg.Recorder.OutputDir,
			DataDir:      cfg.DataDir,
			Format:       capture.Format(cfg.Recorder.Format),
			MicDevice:    cfg.Recorder.MicDevice,
			SystemDevice: cfg.Recorder.SystemDevice,
		})
		if err != nil {
			return err
		}
		backend = eng
		mountRPC = true
	}

	coord := session.NewCoordinator(ledger, backend, session.CoordinatorOpts{
		PollInterval: cfg.PollInterval(),
	})
	defer coord.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()

	notifiers, err := buildNotifiers(cfg)
	if err != nil {
		return err
	}
	if len(notifiers) > 0 {
		disp := notify.NewDispatcher(notify.DispatcherOpts{OnStart: cfg.Notify.OnStart}, notifiers...)
		unsub := disp.Watch(ledger)
		defer unsub()
		go disp.Run(ctx)
	}

	if len(cfg.Schedules) > 0 {
		entries := make([]schedule.Entry, 0, len(cfg.Schedules))
		for _, sc := range cfg.Schedules {
			entries = append(entries, schedule.Entry{
				Name:     sc.Name,
				Cron:     sc.Cron,
				Duration: sc.Duration,
				Output:   sc.Output,
			})
		}
		sched, err := schedule.New(coord, entries, out)
		if err != nil {
			return err
		}
		go sched.Run(ctx)
	}

	return api.Run(ctx, api.Opts{
		Addr:        cfg.Listen,
		Ledger:      ledger,
		Coordinator: coord,
		Backend:     backend,
		MountRPC:    mountRPC,
		Out:         out,
	})
}

// loadServeConfig reads the config file. A missing file is only an error
// when the user pointed at one explicitly; the default path falls back to
// built-in defaults so serve works out of the box.
func loadServeConfig(cmd *cobra.Command, configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("config") {
			return config.Default(), nil
		}
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func buildNotifiers(cfg *config.Config) ([]notify.Notifier, error) {
	var notifiers []notify.Notifier

	if cfg.Notify.Slack.Channel != "" {
		n, err := notify.NewSlack(notify.SlackOpts{
			Token:   cfg.Notify.Slack.Token,
			Channel: cfg.Notify.Slack.Channel,
		})
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
	}

	if cfg.Notify.Discord.ChannelID != "" {
		n, err := notify.NewDiscord(notify.DiscordOpts{
			Token:     cfg.Notify.Discord.Token,
			ChannelID: cfg.Notify.Discord.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
	}

	return notifiers, nil
}

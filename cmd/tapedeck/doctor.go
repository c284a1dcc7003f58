package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tapedeck/tapedeck/internal/capture"
	"github.com/tapedeck/tapedeck/internal/config"
)

func newDoctorCmd() *cobra.Command {
	var (
		configPath string
		host       string
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check recording prerequisites and configuration",
		Long:  "Runs diagnostic checks on tapedeck prerequisites: config, ffmpeg, the platform audio stack, directories, and the daemon.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, configPath, host)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "tapedeck.yaml", "path to tapedeck config file")
	cmd.Flags().StringVar(&host, "host", defaultHost, "daemon base URL")
	return cmd
}

type checkResult struct {
	name   string
	status string // "PASS", "FAIL", "WARN"
	detail string
}

func runDoctor(cmd *cobra.Command, configPath, host string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Tapedeck Doctor")
	fmt.Fprintln(out, "===============")

	var results []checkResult

	// 1. Config
	cfg, cfgResult := checkConfig(configPath)
	results = append(results, cfgResult)

	// 2. ffmpeg
	results = append(results, checkFFmpegBinary())

	// 3. Platform audio stack
	if runtime.GOOS == "linux" {
		results = append(results, checkPactl())
	}

	// 4. Directories
	if cfg != nil {
		results = append(results, checkDir("Output dir", cfg.Recorder.OutputDir))
		results = append(results, checkDir("Data dir", cfg.DataDir))
	} else {
		results = append(results, checkResult{"Output dir", "FAIL", "skipped (no config)"})
		results = append(results, checkResult{"Data dir", "FAIL", "skipped (no config)"})
	}

	// 5. Daemon
	results = append(results, checkDaemon(host))

	// Print results.
	passed, failed, warned := 0, 0, 0
	for _, r := range results {
		printCheckResult(out, r)
		switch r.status {
		case "PASS":
			passed++
		case "FAIL":
			failed++
		case "WARN":
			warned++
		}
	}

	fmt.Fprintf(out, "\n%d passed, %d failed, %d warning\n", passed, failed, warned)

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func printCheckResult(out io.Writer, r checkResult) {
	fmt.Fprintf(out, "[%s] %s: %s\n", r.status, r.name, r.detail)
}

func checkConfig(path string) (*config.Config, checkResult) {
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.Default(), checkResult{"Config file", "WARN", fmt.Sprintf("%s not found, using defaults", path)}
		}
		return nil, checkResult{"Config file", "FAIL", fmt.Sprintf("%s: %v", path, err)}
	}
	return cfg, checkResult{"Config file", "PASS", path}
}

func checkFFmpegBinary() checkResult {
	path, err := capture.CheckFFmpeg()
	if err != nil {
		return checkResult{"ffmpeg", "FAIL", "not found in PATH"}
	}

	out, err := exec.Command(path, "-version").Output()
	if err != nil {
		return checkResult{"ffmpeg", "PASS", "found (version unknown)"}
	}
	version := strings.TrimSpace(strings.Split(string(out), "\n")[0])
	return checkResult{"ffmpeg", "PASS", version}
}

func checkPactl() checkResult {
	if _, err := exec.LookPath("pactl"); err != nil {
		return checkResult{"PulseAudio", "WARN", "pactl not found (device listing and source defaults need it)"}
	}
	return checkResult{"PulseAudio", "PASS", "pactl found"}
}

func checkDir(name, dir string) checkResult {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return checkResult{name, "FAIL", fmt.Sprintf("%s: %v", dir, err)}
	}
	probe := filepath.Join(dir, ".tapedeck-doctor")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		return checkResult{name, "FAIL", fmt.Sprintf("%s not writable: %v", dir, err)}
	}
	os.Remove(probe)
	return checkResult{name, "PASS", dir}
}

func checkDaemon(host string) checkResult {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	client := newAPIClient(host)
	info, err := client.status(ctx)
	if err != nil {
		return checkResult{"Daemon", "WARN", fmt.Sprintf("%s unreachable (is tapedeck serve running?)", host)}
	}
	return checkResult{"Daemon", "PASS", fmt.Sprintf("%s reachable, phase %s", host, info.Phase)}
}

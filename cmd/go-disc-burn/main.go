// Package main provides the go-disc-burn CLI entry point.
//
// go-disc-burn masters DVD folders into ISO images, records images to disc
// and inspects existing images, driving mkisofs, cdrecord and isoinfo and
// reporting their progress.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/go-disc-burn/internal/config"
	"github.com/randomizedcoder/go-disc-burn/internal/logging"
	"github.com/randomizedcoder/go-disc-burn/internal/media"
	"github.com/randomizedcoder/go-disc-burn/internal/orchestrator"
	"github.com/randomizedcoder/go-disc-burn/internal/tui"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/go-disc-burn
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// Handle version flag early (before flag parsing)
	if len(os.Args) > 1 {
		arg := os.Args[1]
		if arg == "-version" || arg == "--version" || arg == "version" {
			fmt.Printf("go-disc-burn %s\n", version)
			return 0
		}
	}

	cfg, err := config.ParseFlags()
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return 1
	}

	// When TUI is enabled, suppress logs to avoid interfering with TUI rendering
	var logger *slog.Logger
	if cfg.TUIEnabled {
		logger = logging.NewDiscardLogger()
	} else {
		logger = logging.NewLogger(cfg.LogFormat, "info", cfg.Verbose)
	}
	logging.SetDefault(logger)

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error:\n%v\n", err)
		return 1
	}

	if cfg.PrintCmd {
		if err := printCommands(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	logger.Info("starting",
		"version", version,
		"command", cfg.Command,
		"target", cfg.Target,
		"device", cfg.Device,
		"media", cfg.Media,
		"simulation", cfg.Simulation,
		"metrics_addr", cfg.MetricsAddr,
	)

	if cfg.TUIEnabled {
		return runTUI(cfg, logger)
	}

	printBanner(cfg)

	sess := orchestrator.NewSession(cfg, logger, orchestrator.WithVersion(version))
	err = sess.Run(context.Background())
	fmt.Print(sess.Summary())
	if err != nil {
		logger.Error("session_failed", "error", err)
		return 1
	}
	return 0
}

// runTUI runs the session behind the live dashboard. Quitting the dashboard
// abandons the running tool without signalling it.
func runTUI(cfg *config.Config, logger *slog.Logger) int {
	model := tui.New(tui.Config{
		Command:     cfg.Command,
		Target:      cfg.Target,
		Device:      cfg.Device,
		Simulation:  cfg.Simulation,
		MetricsAddr: cfg.MetricsAddr,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	adapter := tui.NewAdapter(program)

	sess := orchestrator.NewSession(cfg, logger,
		orchestrator.WithVersion(version),
		orchestrator.WithDisplay(adapter),
		orchestrator.WithNotifier(adapter),
		orchestrator.WithOutput(io.Discard),
		// the program owns the terminal and turns ctrl+c into a key press
		orchestrator.WithoutSignals(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessErr := make(chan error, 1)
	go func() {
		err := sess.Run(ctx)
		sessErr <- err
		adapter.Done(err)
	}()

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
	}
	cancel()
	err := <-sessErr

	fmt.Print(sess.Summary())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// printBanner prints the startup banner.
func printBanner(cfg *config.Config) {
	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                          go-disc-burn                             ║")
	fmt.Println("║         DVD mastering and disc recording with live progress       ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Command:     %s %s\n", cfg.Command, cfg.Target)
	if cfg.Command == config.CommandBurn || cfg.Command == config.CommandDVD {
		fmt.Printf("  Device:      %s (%s)\n", cfg.Device, cfg.Media)
		if cfg.Simulation {
			fmt.Println("  Mode:        SIMULATION (laser off)")
		}
	}
	if cfg.MetricsAddr != "" {
		fmt.Printf("  Metrics:     http://%s/metrics\n", cfg.MetricsAddr)
	}
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop watching (the tool keeps running).")
	fmt.Println()
}

// printCommands prints the tool commands the session would run.
func printCommands(cfg *config.Config) error {
	fmt.Println("# Commands that would be run:")
	fmt.Println()

	image := cfg.Target
	if cfg.Command == config.CommandBuild || cfg.Command == config.CommandDVD {
		root, mode, err := media.ReadDVDMode(cfg.Target)
		if err != nil {
			return fmt.Errorf("source folder %s: %w", cfg.Target, err)
		}
		label := cfg.Label
		if label == "" {
			label = filepath.Base(root)
		}
		fmt.Println(orchestrator.MasteringConfig(cfg, label, mode, root).CommandString())
		image = cfg.ImagePath()
	}

	switch cfg.Command {
	case config.CommandBurn, config.CommandDVD:
		fmt.Println(orchestrator.RecordingConfig(cfg, image).CommandString())
	case config.CommandInspect:
		fmt.Println(orchestrator.InspectionConfig(cfg, image).CommandString())
	}
	return nil
}

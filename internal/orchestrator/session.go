package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/randomizedcoder/go-disc-burn/internal/config"
	"github.com/randomizedcoder/go-disc-burn/internal/logging"
	"github.com/randomizedcoder/go-disc-burn/internal/media"
	"github.com/randomizedcoder/go-disc-burn/internal/metrics"
	"github.com/randomizedcoder/go-disc-burn/internal/preflight"
	"github.com/randomizedcoder/go-disc-burn/internal/process"
	"github.com/randomizedcoder/go-disc-burn/internal/stats"
)

// ErrPreflight is returned when a required preflight check fails.
var ErrPreflight = errors.New("preflight checks failed (use -skip-preflight to override)")

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithDisplay routes display updates to d instead of the log.
func WithDisplay(d Display) SessionOption {
	return func(s *Session) { s.display = d }
}

// WithNotifier routes notifications to n instead of the log.
func WithNotifier(n Notifier) SessionOption {
	return func(s *Session) { s.notifier = n }
}

// WithOutput sets where preflight results are printed (default stdout).
func WithOutput(w io.Writer) SessionOption {
	return func(s *Session) { s.out = w }
}

// WithRegistry uses registry instead of a fresh one.
func WithRegistry(registry *prometheus.Registry) SessionOption {
	return func(s *Session) { s.registry = registry }
}

// WithVersion sets the version reported by the info metric.
func WithVersion(version string) SessionOption {
	return func(s *Session) { s.version = version }
}

// WithoutSignals disables SIGINT/SIGTERM handling.
func WithoutSignals() SessionOption {
	return func(s *Session) { s.handleSignals = false }
}

// Session runs one CLI command: a build, a burn, a build followed by a burn,
// or an inspection.
type Session struct {
	config  *config.Config
	logger  *slog.Logger
	out     io.Writer
	version string

	registry      *prometheus.Registry
	metrics       *metrics.Collector
	metricsServer *metrics.Server
	output        *logging.OutputHandler
	speed         *stats.SpeedTracker

	display       Display
	notifier      Notifier
	handleSignals bool

	slot     *Slot
	outcomes chan Outcome

	startTime  time.Time
	runs       []Outcome
	imagePath  string
	imageBytes int64
}

// NewSession creates a session for cfg.
func NewSession(cfg *config.Config, logger *slog.Logger, opts ...SessionOption) *Session {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	s := &Session{
		config:        cfg,
		logger:        logger,
		out:           os.Stdout,
		version:       "dev",
		handleSignals: true,
		speed:         stats.NewSpeedTracker(),
		output:        logging.NewOutputHandler("", logger, cfg.Verbose),
		outcomes:      make(chan Outcome, 4),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	s.metrics = metrics.NewCollectorWithRegistry(metrics.CollectorConfig{
		Version: s.version,
		Device:  cfg.Device,
		Media:   cfg.Media,
	}, s.registry)

	if cfg.MetricsAddr != "" {
		s.metricsServer = metrics.NewServer(cfg.MetricsAddr, s.registry, logger)
	}

	s.slot = NewSlot(SlotConfig{
		Logger:   logger,
		Display:  s.display,
		Notifier: s.notifier,
		Metrics:  s.metrics,
		Output:   s.output,
		Speed:    s.speed,
		OnFinish: s.onFinish,
	})
	return s
}

// Run executes the configured command and blocks until it finishes, fails
// or is interrupted. An interrupt abandons the running tool without
// signalling it.
func (s *Session) Run(ctx context.Context) error {
	s.startTime = time.Now()

	if !s.config.SkipPreflight {
		if err := s.preflight(ctx); err != nil {
			return err
		}
	}

	if s.metricsServer != nil {
		if err := s.metricsServer.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.handleSignals {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		defer signal.Stop(sigCh)
		go func() {
			select {
			case sig := <-sigCh:
				s.logger.Info("received_signal", "signal", sig.String())
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	slotDone := make(chan struct{})
	go func() {
		defer close(slotDone)
		_ = s.slot.Run(ctx)
	}()

	err := s.workflow(ctx)

	s.slot.Close()
	<-slotDone

	s.shutdown()
	return err
}

func (s *Session) workflow(ctx context.Context) error {
	cfg := s.config
	s.logger.Info("session_starting", "command", cfg.Command, "target", cfg.Target)

	switch cfg.Command {
	case config.CommandBuild:
		_, err := s.build(ctx, cfg.Target)
		return err
	case config.CommandBurn:
		return s.burn(ctx, cfg.Target)
	case config.CommandDVD:
		image, err := s.build(ctx, cfg.Target)
		if err != nil {
			return err
		}
		return s.burn(ctx, image)
	case config.CommandInspect:
		return s.inspect(ctx, cfg.Target)
	default:
		return fmt.Errorf("unknown command %q", cfg.Command)
	}
}

// build masters dir into the cache image and returns the image path.
func (s *Session) build(ctx context.Context, dir string) (string, error) {
	root, mode, err := media.DetectDVDMode(dir)
	if err != nil {
		return "", fmt.Errorf("source folder %s: %w", dir, err)
	}

	label := s.config.Label
	if label == "" {
		label = filepath.Base(root)
	}

	if err := os.MkdirAll(s.config.CacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache directory: %w", err)
	}

	mastering := MasteringConfig(s.config, label, mode, root)
	s.imagePath = mastering.ImagePath

	outcome, err := s.execute(ctx, Job{
		Action:  ActionBuilding,
		Title:   "Building " + label,
		Runner:  mastering.Runner,
	})
	if err != nil {
		return "", err
	}
	if !outcome.Succeeded() {
		return "", runError(outcome)
	}

	if info, err := os.Stat(mastering.ImagePath); err == nil {
		s.imageBytes = info.Size()
	}
	return mastering.ImagePath, nil
}

func (s *Session) burn(ctx context.Context, image string) error {
	recording := RecordingConfig(s.config, image)
	s.imagePath = image
	if info, err := os.Stat(image); err == nil {
		s.imageBytes = info.Size()
	}

	title := "Burning " + filepath.Base(image)
	if s.config.Simulation {
		title += " (simulation)"
	}
	outcome, err := s.execute(ctx, Job{
		Action:  ActionBurning,
		Title:   title,
		Runner:  recording.Runner,
	})
	if err != nil {
		return err
	}
	if !outcome.Succeeded() {
		return runError(outcome)
	}
	return nil
}

func (s *Session) inspect(ctx context.Context, image string) error {
	inspection := InspectionConfig(s.config, image)
	s.imagePath = image

	outcome, err := s.execute(ctx, Job{
		Action:  ActionInspecting,
		Title:   "Inspecting " + filepath.Base(image),
		Runner:  inspection.Runner,
	})
	if err != nil {
		return err
	}
	if !outcome.Succeeded() {
		return runError(outcome)
	}
	fmt.Fprint(s.out, outcome.Output)
	return nil
}

// execute starts job and waits for its outcome.
func (s *Session) execute(ctx context.Context, job Job) (Outcome, error) {
	gen, err := s.slot.Start(job)
	if err != nil {
		return Outcome{}, err
	}
	for {
		select {
		case o := <-s.outcomes:
			if o.Generation == gen {
				return o, nil
			}
		case <-ctx.Done():
			s.logger.Warn("run_abandoned", "action", job.Action.String(), "generation", gen)
			return Outcome{}, ctx.Err()
		}
	}
}

// onFinish runs on the slot loop.
func (s *Session) onFinish(o Outcome) {
	s.runs = append(s.runs, o)
	select {
	case s.outcomes <- o:
	default:
		s.logger.Warn("outcome_dropped", "run_id", o.RunID, "generation", o.Generation)
	}
}

func (s *Session) preflight(ctx context.Context) error {
	cfg := s.config
	opts := preflight.Options{}
	for _, name := range cfg.NeedsTools() {
		opts.Tools = append(opts.Tools, preflight.Tool{Name: name, Path: cfg.ToolPath(name)})
	}

	if cfg.Command == config.CommandBuild || cfg.Command == config.CommandDVD {
		opts.CacheDir = cfg.CacheDir
		if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
			s.logger.Warn("cache_dir_create_failed", "path", cfg.CacheDir, "error", err)
		}
		size, err := media.FolderSize(ctx, cfg.Target)
		if err != nil {
			s.logger.Warn("folder_size_failed", "path", cfg.Target, "error", err)
		}
		opts.SourceSize = size
		if t, err := media.ParseType(cfg.Media); err == nil {
			opts.Media = t
		}
	}

	result := preflight.RunAll(opts)
	preflight.PrintResults(s.out, result)
	if !result.Passed {
		return ErrPreflight
	}
	return nil
}

// shutdown stops the metrics server and writes the optional files.
func (s *Session) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("metrics_server_shutdown_error", "error", err)
		}
	}

	if path := s.config.MetricsTextfile; path != "" {
		if err := metrics.WriteTextfile(path, s.registry); err != nil {
			s.logger.Warn("metrics_textfile_failed", "path", path, "error", err)
		} else {
			s.logger.Info("metrics_textfile_written", "path", path)
		}
	}

	if path := s.config.SaveConfig; path != "" {
		if err := config.SaveFile(path, s.config); err != nil {
			s.logger.Warn("save_config_failed", "path", path, "error", err)
		} else {
			s.logger.Info("config_saved", "path", path)
		}
	}
}

// Summary formats the exit summary of the session.
func (s *Session) Summary() string {
	ms := s.metrics.GenerateSummary()

	cfg := stats.SummaryConfig{
		Duration:   time.Since(s.startTime),
		Device:     s.config.Device,
		Media:      s.config.Media,
		ImagePath:  s.imagePath,
		ImageBytes: s.imageBytes,
		ExitCodes:  ms.ExitCodes,
		Speed:      s.speed.Snapshot(),
	}
	if s.metricsServer != nil {
		cfg.MetricsAddr = s.metricsServer.Addr()
	}

	for _, o := range s.runs {
		cfg.Runs = append(cfg.Runs, stats.RunRecord{
			Action:   o.Action.String(),
			Outcome:  o.Kind.String(),
			ExitCode: o.ExitCode,
			Duration: o.Duration,
			Message:  o.Message(),
		})
	}

	if n := len(s.runs); n > 0 && !s.runs[n-1].Succeeded() {
		cfg.ErrorCounts = s.output.CountErrors()
		cfg.RecentOutput = s.output.RecentLines(10)
	}

	return stats.FormatExitSummary(cfg)
}

// Outcomes returns the outcomes of the finished runs in order.
func (s *Session) Outcomes() []Outcome {
	return append([]Outcome(nil), s.runs...)
}

// Metrics returns the metrics collector for external access.
func (s *Session) Metrics() *metrics.Collector {
	return s.metrics
}

// Registry returns the registry the session's metrics live in.
func (s *Session) Registry() *prometheus.Registry {
	return s.registry
}

func runError(o Outcome) error {
	return fmt.Errorf("%s %s: %s", o.Action.Tool(), o.Kind.String(), o.Message())
}

// MasteringConfig returns the mastering command inputs for a source tree.
func MasteringConfig(cfg *config.Config, label string, mode media.DVDMode, root string) *process.MasteringConfig {
	return &process.MasteringConfig{
		BinaryPath: cfg.MkisofsPath,
		Label:      label,
		Mode:       mode.String(),
		ImagePath:  cfg.ImagePath(),
		SourceDir:  root,
	}
}

// RecordingConfig returns the recording command inputs for an image.
func RecordingConfig(cfg *config.Config, image string) *process.RecordingConfig {
	return &process.RecordingConfig{
		BinaryPath: cfg.CdrecordPath,
		Simulation: cfg.Simulation,
		Eject:      cfg.Eject,
		Speed:      cfg.SpeedToken(),
		Mode:       cfg.WriteMode,
		Device:     cfg.Device,
		ImagePath:  image,
	}
}

// InspectionConfig returns the inspection command inputs for an image.
func InspectionConfig(cfg *config.Config, image string) *process.InspectionConfig {
	return &process.InspectionConfig{
		BinaryPath: cfg.IsoinfoPath,
		ImagePath:  image,
	}
}

// Package metrics provides Prometheus metrics for go-disc-burn.
//
// All series describe the single orchestrator slot: the run in flight
// (progress, ETA, write speed) and totals across the session (lines seen per
// dialect and result, finished runs per action and outcome, exit codes).
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "disc_burn"

// CollectorConfig holds configuration for the collector.
type CollectorConfig struct {
	Version string
	Device  string
	Media   string
}

// Collector owns every series exported by the tool.
type Collector struct {
	info          *prometheus.GaugeVec
	activeRun     *prometheus.GaugeVec
	progressRatio prometheus.Gauge
	etaSeconds    prometheus.Gauge
	writeSpeed    prometheus.Gauge
	linesTotal    *prometheus.CounterVec
	runsTotal     *prometheus.CounterVec
	exitsTotal    *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	spawnFailures prometheus.Counter
	readErrors    prometheus.Counter

	mu        sync.Mutex
	startTime time.Time
	runs      int64
	outcomes  map[string]int64
	exitCodes map[int]int64
	lastRun   time.Duration
}

// NewCollector creates a collector registered on the default registry.
func NewCollector(cfg CollectorConfig) *Collector {
	return NewCollectorWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewCollectorWithRegistry creates a collector with a custom registry.
// Useful for testing.
func NewCollectorWithRegistry(cfg CollectorConfig, registry prometheus.Registerer) *Collector {
	c := &Collector{
		info: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "info",
				Help:      "Information about the session (value always 1)",
			},
			[]string{"version", "device", "media"},
		),
		activeRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_run",
				Help:      "1 while a run of the given action is in flight",
			},
			[]string{"action"},
		),
		progressRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "progress_ratio",
			Help:      "Fraction complete of the current run (0.0 to 1.0)",
		}),
		etaSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "eta_seconds",
			Help:      "Estimated seconds remaining for the current run (-1 = unknown)",
		}),
		writeSpeed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "write_speed_ratio",
			Help:      "Last write speed multiplier reported by the recorder",
		}),
		linesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "output_lines_total",
				Help:      "Tool output lines by dialect and classification result",
			},
			[]string{"dialect", "result"},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Finished runs by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		exitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exits_total",
				Help:      "Tool exits by category (success, error, signal, spawn)",
			},
			[]string{"category"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall time of finished runs",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800, 3600},
			},
			[]string{"action"},
		),
		spawnFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spawn_failures_total",
			Help:      "Runs whose tool could not be started",
		}),
		readErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_errors_total",
			Help:      "Runs whose output stream failed mid-run",
		}),
		startTime: time.Now(),
		outcomes:  make(map[string]int64),
		exitCodes: make(map[int]int64),
	}

	registry.MustRegister(
		c.info,
		c.activeRun,
		c.progressRatio,
		c.etaSeconds,
		c.writeSpeed,
		c.linesTotal,
		c.runsTotal,
		c.exitsTotal,
		c.runDuration,
		c.spawnFailures,
		c.readErrors,
	)

	c.info.WithLabelValues(cfg.Version, cfg.Device, cfg.Media).Set(1)
	c.etaSeconds.Set(-1)

	return c
}

// =============================================================================
// Run lifecycle
// =============================================================================

// RunStarted marks a run of action as in flight and zeroes the progress series.
func (c *Collector) RunStarted(action string) {
	c.activeRun.WithLabelValues(action).Set(1)
	c.progressRatio.Set(0)
	c.etaSeconds.Set(-1)
	c.writeSpeed.Set(0)

	c.mu.Lock()
	c.runs++
	c.mu.Unlock()
}

// RecordLine counts one classified output line.
func (c *Collector) RecordLine(dialect, result string) {
	c.linesTotal.WithLabelValues(dialect, result).Inc()
}

// SetProgress publishes the current fraction and ETA. eta is ignored unless
// known is set.
func (c *Collector) SetProgress(fraction float64, eta time.Duration, known bool) {
	c.progressRatio.Set(fraction)
	if known {
		c.etaSeconds.Set(eta.Seconds())
	} else {
		c.etaSeconds.Set(-1)
	}
}

// SetWriteSpeed publishes the recorder speed multiplier.
func (c *Collector) SetWriteSpeed(speed float64) {
	c.writeSpeed.Set(speed)
}

// RunFinished records the end of a run.
func (c *Collector) RunFinished(action, outcome string, exitCode int, d time.Duration, readErr bool) {
	c.activeRun.WithLabelValues(action).Set(0)
	c.runsTotal.WithLabelValues(action, outcome).Inc()
	c.exitsTotal.WithLabelValues(exitCategory(exitCode)).Inc()
	c.runDuration.WithLabelValues(action).Observe(d.Seconds())
	if exitCode < 0 {
		c.spawnFailures.Inc()
	}
	if readErr {
		c.readErrors.Inc()
	}

	c.mu.Lock()
	c.outcomes[outcome]++
	c.exitCodes[exitCode]++
	c.lastRun = d
	c.mu.Unlock()
}

// exitCategory buckets an exit code the way the exit summary reports it.
func exitCategory(code int) string {
	switch {
	case code < 0:
		return "spawn"
	case code == 0:
		return "success"
	case code > 128:
		return "signal"
	default:
		return "error"
	}
}

// =============================================================================
// Summary Generation
// =============================================================================

// Summary holds the data for the exit summary.
type Summary struct {
	Duration  time.Duration
	Runs      int64
	LastRun   time.Duration
	Outcomes  map[string]int64
	ExitCodes map[int]int64
}

// GenerateSummary snapshots the session totals.
func (c *Collector) GenerateSummary() *Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &Summary{
		Duration:  time.Since(c.startTime),
		Runs:      c.runs,
		LastRun:   c.lastRun,
		Outcomes:  make(map[string]int64, len(c.outcomes)),
		ExitCodes: make(map[int]int64, len(c.exitCodes)),
	}
	for k, v := range c.outcomes {
		s.Outcomes[k] = v
	}
	for k, v := range c.exitCodes {
		s.ExitCodes[k] = v
	}
	return s
}

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/randomizedcoder/go-disc-burn/internal/logging"
	"github.com/randomizedcoder/go-disc-burn/internal/metrics"
	"github.com/randomizedcoder/go-disc-burn/internal/parser"
	"github.com/randomizedcoder/go-disc-burn/internal/process"
	"github.com/randomizedcoder/go-disc-burn/internal/stats"
)

// ErrSlotClosed is returned by Start once the slot is closed or its loop has
// returned.
var ErrSlotClosed = errors.New("slot closed")

const defaultInboxSize = 256

// Generation numbers the runs of one slot. Every inbox message carries the
// generation it belongs to.
type Generation uint64

// Job describes one tool run.
type Job struct {
	Action Action

	// Title labels notifications; defaults to the action's status line.
	Title string

	// Runner builds the unstarted runner. It is called on the slot loop
	// with the slot's logger.
	Runner func(logger *slog.Logger) *process.Runner
}

// SlotConfig holds the collaborators of a slot. All fields are optional.
type SlotConfig struct {
	Logger   *slog.Logger
	Display  Display
	Notifier Notifier
	Metrics  *metrics.Collector
	Output   *logging.OutputHandler
	Speed    *stats.SpeedTracker

	// OnFinish is called on the slot loop with every outcome. It must not
	// call Start synchronously.
	OnFinish func(Outcome)

	// InboxSize is the inbox capacity (default 256).
	InboxSize int

	// Now replaces time.Now in tests.
	Now func() time.Time
}

type messageKind int

const (
	messageStart messageKind = iota
	messageEvent
)

type message struct {
	kind  messageKind
	gen   Generation
	job   Job
	event process.Event
}

// Slot runs one tool at a time and turns its output into display updates
// and a final Outcome.
//
// Run is the only consumer of the inbox and the only goroutine that touches
// the classifier, the progress state and the transcript. Starting a new job
// retires the current runner first; events of retired generations are
// dropped on arrival.
type Slot struct {
	cfg    SlotConfig
	logger *slog.Logger
	now    func() time.Time

	inbox  chan message
	closed chan struct{}
	done   chan struct{}

	closeOnce sync.Once
	lastGen   atomic.Uint64
	running   atomic.Bool

	// loop-owned state
	gen        Generation
	job        Job
	runner     *process.Runner
	runID      string
	started    time.Time
	progress   *parser.ProgressState
	classifier *parser.Classifier
	transcript parser.Transcript
	abort      parser.Result
	lastSpeed  float64
}

// NewSlot creates a slot. Call Run to start its loop.
func NewSlot(cfg SlotConfig) *Slot {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	if cfg.Display == nil {
		cfg.Display = LogDisplay{Logger: logger}
	}
	if cfg.Notifier == nil {
		cfg.Notifier = LogNotifier{Logger: logger}
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = defaultInboxSize
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	progress := parser.NewProgressState()
	return &Slot{
		cfg:        cfg,
		logger:     logger,
		now:        now,
		inbox:      make(chan message, cfg.InboxSize),
		closed:     make(chan struct{}),
		done:       make(chan struct{}),
		progress:   progress,
		classifier: parser.NewClassifier(progress, parser.WithClock(now)),
	}
}

// Start posts a job. The current run, if any, is retired when the loop picks
// the job up. The returned generation identifies the job's Outcome.
func (s *Slot) Start(job Job) (Generation, error) {
	if job.Runner == nil {
		return 0, process.ErrEmptyCommand
	}
	gen := Generation(s.lastGen.Add(1))
	msg := message{kind: messageStart, gen: gen, job: job}

	select {
	case <-s.closed:
		return 0, ErrSlotClosed
	case <-s.done:
		return 0, ErrSlotClosed
	default:
	}

	select {
	case s.inbox <- msg:
		return gen, nil
	case <-s.closed:
		return 0, ErrSlotClosed
	case <-s.done:
		return 0, ErrSlotClosed
	}
}

// Running reports whether a run is in flight.
func (s *Slot) Running() bool {
	return s.running.Load()
}

// Close stops the loop. The current child is not signalled; its events are
// no longer delivered.
func (s *Slot) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
}

// Run is the slot loop. It returns when ctx is cancelled or Close is called.
func (s *Slot) Run(ctx context.Context) error {
	defer close(s.done)
	defer s.retire()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.closed:
			return nil
		case msg := <-s.inbox:
			s.handle(msg)
		}
	}
}

func (s *Slot) handle(msg message) {
	switch msg.kind {
	case messageStart:
		if msg.gen < s.gen {
			s.logger.Debug("slot_start_superseded", "generation", msg.gen, "current", s.gen)
			return
		}
		s.start(msg.gen, msg.job)
	case messageEvent:
		if msg.gen != s.gen || s.runner == nil {
			// retired run
			return
		}
		switch msg.event.Kind {
		case process.EventLine:
			s.line(msg.event.Line)
		case process.EventExit:
			s.exit(msg.event)
		}
	}
}

// retire stops event delivery from the current runner.
func (s *Slot) retire() {
	if s.runner == nil {
		return
	}
	if s.running.Load() {
		s.logger.Info("slot_run_retired",
			"run_id", s.runID,
			"generation", s.gen,
			"action", s.job.Action.String(),
		)
	}
	s.runner.Close()
	s.runner = nil
	s.running.Store(false)
}

func (s *Slot) start(gen Generation, job Job) {
	s.retire()

	s.gen = gen
	s.job = job
	s.runID = uuid.NewString()
	s.started = s.now()
	s.transcript.Reset()
	s.abort = parser.NoChange
	s.lastSpeed = 0
	s.classifier.Reset()

	if s.cfg.Output != nil {
		s.cfg.Output.SetTool(job.Action.Tool())
		s.cfg.Output.Reset()
	}
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.RunStarted(job.Action.String())
	}

	s.cfg.Display.SetStatus(job.Action.status())
	s.cfg.Display.SetOutput("")
	s.cfg.Display.SetProgress(*s.progress)

	runner := job.Runner(s.logger)
	if runner == nil {
		runner = process.NewRunner("", s.logger)
	}
	s.runner = runner
	s.running.Store(true)

	s.logger.Info("slot_run_starting",
		"run_id", s.runID,
		"generation", gen,
		"action", job.Action.String(),
		"command", runner.Command().String(),
	)

	if err := runner.Run(); err != nil {
		// misuse, e.g. an empty command: report it as a run that never started
		s.exit(process.Event{
			Kind:     process.EventExit,
			ExitCode: process.ExitCodeSpawnFailure,
			Err:      errors.Join(process.ErrSpawn, err),
		})
		return
	}

	go s.forward(gen, runner)
}

// forward posts the runner's events to the inbox until the runner closes
// its channel or the slot stops.
func (s *Slot) forward(gen Generation, runner *process.Runner) {
	for ev := range runner.Events() {
		select {
		case s.inbox <- message{kind: messageEvent, gen: gen, event: ev}:
		case <-s.closed:
			return
		case <-s.done:
			return
		}
	}
}

func (s *Slot) line(line string) {
	d := s.job.Action.Dialect()

	result, edit := s.classifier.ClassifyInto(d, &s.transcript, line)

	if s.cfg.Output != nil {
		s.cfg.Output.HandleLine(line)
	}
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.RecordLine(d.String(), result.String())
	}

	if ld, ok := s.cfg.Display.(LineDisplay); ok {
		if edit == parser.EditReplace {
			ld.ReplaceOutput(line)
		} else {
			ld.AppendOutput(line)
		}
	} else {
		s.cfg.Display.SetOutput(s.transcript.String())
	}

	switch {
	case result == parser.Percent:
		s.progressed()
	case result.IsFatal():
		// keep the first fatal code; the child is left to exit on its own
		if !s.abort.IsFatal() {
			s.abort = result
			s.logger.Warn("slot_fatal_output",
				"run_id", s.runID,
				"action", s.job.Action.String(),
				"result", result.String(),
				"line", line,
			)
		}
	}
}

func (s *Slot) progressed() {
	p := *s.progress
	s.cfg.Display.SetProgress(p)

	s.cfg.Notifier.Notify(Notification{
		ID:       s.runID,
		Kind:     NotifyProgress,
		Title:    s.title(),
		Content:  progressContent(p),
		Progress: p.Fraction,
	})

	if s.cfg.Metrics != nil {
		remaining, known := parser.EstimateRemaining(s.now().Sub(s.started), p.Fraction)
		s.cfg.Metrics.SetProgress(p.Fraction, remaining, known)
	}

	if p.Speed > 0 && p.Speed != s.lastSpeed {
		s.lastSpeed = p.Speed
		if s.cfg.Speed != nil {
			s.cfg.Speed.Add(p.Speed)
		}
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.SetWriteSpeed(p.Speed)
		}
	}
}

func (s *Slot) exit(ev process.Event) {
	d := s.job.Action.Dialect()
	text := s.transcript.String()
	kind, sig := decideOutcome(ev, d, s.abort, text)

	duration := ev.Duration
	if duration == 0 {
		duration = s.now().Sub(s.started)
	}

	outcome := Outcome{
		RunID:      s.runID,
		Generation: s.gen,
		Action:     s.job.Action,
		ExitCode:   ev.ExitCode,
		Kind:       kind,
		Signature:  sig,
		Output:     text,
		Lines:      s.classifier.Stats(),
		Duration:   duration,
		Err:        ev.Err,
		ReadErr:    ev.ReadErr,
	}

	pid := 0
	if s.runner != nil {
		outcome.OutputBytes, _, pid = s.runner.Stats()
		s.runner.Close()
		s.runner = nil
	}
	s.running.Store(false)

	logArgs := []any{
		"run_id", outcome.RunID,
		"generation", outcome.Generation,
		"action", outcome.Action.String(),
		"outcome", kind.String(),
		"exit_code", outcome.ExitCode,
		"pid", pid,
		"duration", duration.String(),
		"lines", outcome.Lines.Lines,
		"progress_lines", outcome.Lines.PercentLines,
		"fatal_lines", outcome.Lines.FatalLines,
		"output_bytes", outcome.OutputBytes,
	}
	if ev.ReadErr != nil {
		logArgs = append(logArgs, "read_error", ev.ReadErr)
	}
	if kind == OutcomeSucceeded {
		s.logger.Info("slot_run_finished", logArgs...)
	} else {
		s.logger.Warn("slot_run_finished", logArgs...)
	}

	if s.cfg.Metrics != nil {
		s.cfg.Metrics.RunFinished(outcome.Action.String(), kind.String(), outcome.ExitCode, duration, ev.ReadErr != nil)
	}

	summary := outcome.Message()
	s.cfg.Display.SetStatus(summary)

	note := Notification{
		ID:      outcome.RunID,
		Kind:    NotifyInformation,
		Title:   s.title(),
		Content: summary,
	}
	if kind == OutcomeSucceeded {
		note.Progress = 1
	} else {
		note.Kind = NotifyImportant
	}
	s.cfg.Notifier.Notify(note)

	if s.cfg.OnFinish != nil {
		s.cfg.OnFinish(outcome)
	}
}

func (s *Slot) title() string {
	if s.job.Title != "" {
		return s.job.Title
	}
	return s.job.Action.status()
}

func progressContent(p parser.ProgressState) string {
	content := fmt.Sprintf("%.1f%%", p.Percent())
	if p.HasETA() {
		content += ", " + p.ETA + " remaining"
	}
	return content
}

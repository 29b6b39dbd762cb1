package process

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// initialLineBuffer is the scanner's starting buffer size.
	initialLineBuffer = 64 * 1024

	// MaxLineSize is the longest line delivered whole. Longer lines are cut
	// and the run reports ErrLineTooLong as its read error.
	MaxLineSize = 1024 * 1024

	// exitGrace is how long the pipe may stay idle after the child exits.
	exitGrace = 500 * time.Millisecond

	// eventBuffer is the capacity of the events channel.
	eventBuffer = 64
)

var (
	// ErrSpawn wraps every failure to locate or start the executable.
	ErrSpawn = errors.New("spawn failed")

	// ErrAlreadyStarted is returned by a second call to Run.
	ErrAlreadyStarted = errors.New("runner already started")

	// ErrClosed is returned by Run after Close.
	ErrClosed = errors.New("runner closed")

	// ErrEmptyCommand is returned when the command has no executable token.
	ErrEmptyCommand = errors.New("empty command")
)

// EventKind distinguishes line events from the terminal exit event.
type EventKind int

const (
	// EventLine carries one output line.
	EventLine EventKind = iota

	// EventExit is the last event of a run.
	EventExit
)

// String returns a human-readable name for the kind.
func (k EventKind) String() string {
	switch k {
	case EventLine:
		return "line"
	case EventExit:
		return "exit"
	default:
		return "unknown"
	}
}

// Event is a single message from the reader goroutine.
type Event struct {
	Kind EventKind

	// Seq numbers line events 1, 2, 3... in read order.
	// The exit event carries the number of lines delivered before it.
	Seq int64

	// Line is the decoded output line without its terminator.
	Line string

	// ExitCode is the child's exit status (EventExit only).
	// ExitCodeSpawnFailure when the child never started.
	ExitCode int

	// Err is set when the child could not be started (wraps ErrSpawn)
	// or could not be waited for.
	Err error

	// ReadErr is set when reading the output stream failed mid-run.
	ReadErr error

	// Duration is the wall time from spawn to exit (EventExit only).
	Duration time.Duration
}

// Runner spawns one external process and streams its combined output.
//
// Lifecycle:
//
//  1. r := NewRunner("cdrecord", logger).AddArgument(...).AddArgument(...)
//  2. r.Run()                  // returns once the child is spawned
//  3. for ev := range r.Events() { ... }
//  4. r.Close()                // optional, safe at any point
//
// Line events arrive in read order; exactly one exit event follows the last
// line, after which the channel is closed. Close stops delivery but does not
// signal the child.
type Runner struct {
	cmd    *CommandSpec
	logger *slog.Logger

	mu      sync.Mutex
	started bool
	closed  bool
	reader  *os.File

	events chan Event
	done   chan struct{}

	// sendMu serializes sends against Close so nothing is delivered after it.
	sendMu       sync.Mutex
	disposed     bool
	eventsClosed bool

	linesRead atomic.Int64
	bytesRead atomic.Int64
	pid       atomic.Int64
}

// NewRunner creates a runner for the given executable name.
func NewRunner(name string, logger *slog.Logger) *Runner {
	return NewRunnerFromSpec(NewCommand(name), logger)
}

// NewRunnerFromSpec creates a runner for an already assembled command.
func NewRunnerFromSpec(spec *CommandSpec, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{
		cmd:    spec,
		logger: logger,
		events: make(chan Event, eventBuffer),
		done:   make(chan struct{}),
	}
}

// AddArgument appends one token to the command and returns the runner for
// chaining. Tokens added after Run are ignored.
func (r *Runner) AddArgument(token string) *Runner {
	if r.cmd.Frozen() {
		r.logger.Warn("argument_ignored",
			"command", r.cmd.Name(),
			"token", token,
			"reason", "command already started",
		)
		return r
	}
	r.cmd.AddArgument(token)
	return r
}

// Command returns the command spec.
func (r *Runner) Command() *CommandSpec {
	return r.cmd
}

// Events returns the channel on which line and exit events are delivered.
// The channel is closed after the exit event, or by Close.
func (r *Runner) Events() <-chan Event {
	return r.events
}

// Run freezes the command and spawns the child.
//
// It never blocks on the child's output. A missing or non-executable binary
// is not returned here; it is reported as an exit event whose Err wraps
// ErrSpawn. The returned error is reserved for misuse of the runner.
func (r *Runner) Run() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if r.started {
		return ErrAlreadyStarted
	}

	args := r.cmd.freeze()
	if len(args) == 0 {
		return ErrEmptyCommand
	}
	r.started = true

	path, err := exec.LookPath(args[0])
	if err != nil {
		r.spawnFailed(args, err)
		return nil
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		r.spawnFailed(args, fmt.Errorf("output pipe: %w", err))
		return nil
	}

	cmd := exec.Command(path, args[1:]...)
	cmd.Args[0] = args[0]
	cmd.Stdout = pw
	cmd.Stderr = pw

	startTime := time.Now()
	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		r.spawnFailed(args, err)
		return nil
	}

	// The child holds its own copy; closing ours makes EOF arrive on exit.
	pw.Close()
	r.reader = pr
	r.pid.Store(int64(cmd.Process.Pid))

	r.logger.Info("run_started",
		"command", args[0],
		"pid", cmd.Process.Pid,
		"args", args[1:],
	)

	go r.read(cmd, pr, startTime)
	return nil
}

// spawnFailed delivers the abnormal exit event for a child that never ran.
func (r *Runner) spawnFailed(args []string, cause error) {
	err := fmt.Errorf("%w: %s: %w", ErrSpawn, args[0], cause)
	r.logger.Error("run_spawn_failed",
		"command", args[0],
		"error", cause,
	)
	go func() {
		r.send(Event{Kind: EventExit, ExitCode: ExitCodeSpawnFailure, Err: err})
		r.finish()
	}()
}

// read is the reader goroutine: lines first, then exactly one exit event.
//
// The child is waited for alongside the read. Once it has exited, the read
// end is closed as soon as a full exitGrace passes with no output read and
// no line waiting on the consumer, so a descendant still holding the write
// end cannot delay the exit event.
func (r *Runner) read(cmd *exec.Cmd, pr *os.File, startTime time.Time) {
	var (
		waitErr  error
		duration time.Duration
	)
	exited := make(chan struct{})
	go func() {
		waitErr = cmd.Wait()
		duration = time.Since(startTime)
		close(exited)
	}()

	var (
		abandoned atomic.Bool
		sending   atomic.Bool
	)
	stopGrace := make(chan struct{})
	go func() {
		select {
		case <-exited:
		case <-stopGrace:
			return
		}
		ticker := time.NewTicker(exitGrace)
		defer ticker.Stop()
		last := r.bytesRead.Load()
		for {
			select {
			case <-ticker.C:
				now := r.bytesRead.Load()
				if now == last && !sending.Load() {
					abandoned.Store(true)
					pr.Close()
					return
				}
				last = now
			case <-stopGrace:
				return
			}
		}
	}()

	splitter := newLineSplitter(MaxLineSize)
	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, initialLineBuffer), MaxLineSize+1)
	scanner.Split(splitter.Split)

	delivering := true
	for scanner.Scan() {
		line := scanner.Text()
		seq := r.linesRead.Add(1)
		r.bytesRead.Add(int64(len(line) + 1))
		sending.Store(true)
		ok := r.send(Event{Kind: EventLine, Seq: seq, Line: line})
		sending.Store(false)
		if !ok {
			delivering = false
			break
		}
	}

	var readErr error
	if delivering {
		if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
			readErr = err
			r.logger.Warn("run_read_error",
				"command", r.cmd.Name(),
				"pid", cmd.Process.Pid,
				"error", err,
			)
			// Keep the pipe flowing so the child cannot block on a full buffer.
			io.Copy(io.Discard, pr)
		} else if n := splitter.Truncated(); n > 0 {
			readErr = fmt.Errorf("%w: %d line(s) cut at %d bytes", ErrLineTooLong, n, MaxLineSize)
			r.logger.Warn("run_read_error",
				"command", r.cmd.Name(),
				"pid", cmd.Process.Pid,
				"error", readErr,
			)
		}
	}
	close(stopGrace)
	pr.Close()
	<-exited

	if abandoned.Load() {
		r.logger.Warn("run_output_abandoned",
			"command", r.cmd.Name(),
			"pid", cmd.Process.Pid,
			"grace", exitGrace.String(),
		)
	}

	exitCode := ExitCode(waitErr)

	var exitErr *exec.ExitError
	if waitErr != nil && errors.As(waitErr, &exitErr) {
		waitErr = nil
	}

	r.logger.Info("run_exited",
		"command", r.cmd.Name(),
		"pid", cmd.Process.Pid,
		"exit_code", exitCode,
		"lines", r.linesRead.Load(),
		"bytes", r.bytesRead.Load(),
		"duration", duration.String(),
		"disposed", !delivering,
	)

	r.send(Event{
		Kind:     EventExit,
		Seq:      r.linesRead.Load(),
		ExitCode: exitCode,
		Err:      waitErr,
		ReadErr:  readErr,
		Duration: duration,
	})
	r.finish()
}

// send delivers one event unless the runner has been disposed.
func (r *Runner) send(ev Event) bool {
	r.sendMu.Lock()
	defer r.sendMu.Unlock()

	if r.disposed {
		return false
	}
	select {
	case r.events <- ev:
		return true
	case <-r.done:
		return false
	}
}

// finish closes the events channel exactly once.
func (r *Runner) finish() {
	r.sendMu.Lock()
	defer r.sendMu.Unlock()
	if !r.eventsClosed {
		r.eventsClosed = true
		close(r.events)
	}
}

// Close retires the runner. Safe to call multiple times and at any point.
//
// No event is delivered after Close returns; events still buffered are
// discarded. The read end of the output pipe is closed, which unblocks the
// reader goroutine. The child itself is not signalled, but it is still
// reaped once it exits.
func (r *Runner) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.done)
	reader := r.reader
	r.mu.Unlock()

	r.sendMu.Lock()
	r.disposed = true
	if !r.eventsClosed {
	drain:
		for {
			select {
			case <-r.events:
			default:
				break drain
			}
		}
		r.eventsClosed = true
		close(r.events)
	}
	r.sendMu.Unlock()

	if reader != nil {
		reader.Close()
	}
	return nil
}

// Stats returns (bytesRead, linesRead, pid). pid is 0 until the child starts.
func (r *Runner) Stats() (bytesRead int64, linesRead int64, pid int) {
	return r.bytesRead.Load(), r.linesRead.Load(), int(r.pid.Load())
}

package harness

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"termharness/internal/buffer"
	"termharness/internal/logging"
	"termharness/internal/terminal"
)

var (
	ErrAlreadyRunning = errors.New("harness already running")
	ErrDisposed       = errors.New("harness disposed")
	ErrNotStarted     = errors.New("harness not started")
)

// Snapshot is the visible screen, one entry per non-blank row.
type Snapshot = terminal.Snapshot

type State uint32

const (
	StateCreated State = iota
	StateRunning
	StateExited
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateDisposed:
		return "disposed"
	default:
		return "created"
	}
}

var errNotMatched = errors.New("matcher not satisfied")

// outputDrainGrace bounds how long exit waits for trailing output. A
// background grandchild holding the terminal open keeps the stream alive.
const outputDrainGrace = 200 * time.Millisecond

// Harness drives one interactive program on a pseudo-terminal: it renders
// the program's output into a screen grid and types scripted input.
type Harness struct {
	options   Options
	logger    *logging.Logger
	screen    *terminal.Screen
	scripter  *terminal.Scripter
	snapshots *broadcaster
	exited    chan struct{}

	mu         sync.Mutex
	session    *terminal.Session
	transcript *terminal.Transcript
	disposed   bool

	disposeOnce sync.Once
}

// New prepares a harness. Nothing is spawned until Run.
func New(options Options) *Harness {
	options = options.withDefaults()
	h := &Harness{
		options:   options,
		screen:    terminal.NewScreen(options.Cols, options.Rows),
		snapshots: newBroadcaster(),
		exited:    make(chan struct{}),
	}
	h.logger = options.Logger.With(map[string]string{
		"termharness.category": "harness",
		"command":              options.Command,
	})
	h.scripter = terminal.NewScripter(inputSink{harness: h}, terminal.ScripterOptions{
		SettleDelay: options.SettleDelay,
		Logger:      h.logger,
	})
	return h
}

// Run spawns the program and starts rendering its output. It may succeed at
// most once per harness.
func (h *Harness) Run() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.disposed {
		return ErrDisposed
	}
	if h.session != nil {
		return ErrAlreadyRunning
	}

	spec := h.options.startSpec()
	var transcript *terminal.Transcript
	if h.options.TranscriptPath != "" {
		var err error
		transcript, err = terminal.CreateTranscript(h.options.TranscriptPath, spec)
		if err != nil {
			return err
		}
	}

	session, err := terminal.Spawn(spec, terminal.SessionOptions{
		PtyFactory: h.options.PtyFactory,
		Logger:     h.options.Logger,
		KillGrace:  h.options.KillGrace,
	})
	if err != nil {
		h.logger.Warn("run failed", map[string]string{
			"error": err.Error(),
		})
		_ = transcript.Close()
		return err
	}

	h.transcript = transcript
	h.screen.SetResponder(func(reply []byte) {
		if err := session.Write(reply); err != nil {
			h.logger.Debug("terminal reply failed", map[string]string{
				"error": err.Error(),
			})
			return
		}
		transcript.RecordInput(reply)
	})
	if err := session.OnOutput(h.consume); err != nil {
		_ = session.Close()
		_ = transcript.Close()
		h.transcript = nil
		return fmt.Errorf("attach output: %w", err)
	}
	h.session = session

	go func() {
		<-session.Exit().Done()
		timer := time.NewTimer(outputDrainGrace)
		select {
		case <-session.Drained():
		case <-timer.C:
		}
		timer.Stop()
		close(h.exited)
		h.snapshots.Broadcast(h.screen.RenderVisible())
	}()

	h.logger.Info("harness running", map[string]string{
		"pid": strconv.Itoa(session.Pid()),
	})
	return nil
}

func (h *Harness) consume(chunk []byte) {
	h.transcript.RecordOutput(chunk)
	_, _ = h.screen.Write(chunk)
	if h.snapshots.HasSubscribers() {
		h.snapshots.Broadcast(h.screen.RenderVisible())
	}
}

// Screen returns the visible rows. It is empty before Run and after
// Dispose.
func (h *Harness) Screen() Snapshot {
	return h.screen.RenderVisible()
}

// Lines returns every row of the grid, blank rows included.
func (h *Harness) Lines() []string {
	return h.screen.Lines()
}

// Cursor returns the zero-based cursor position.
func (h *Harness) Cursor() (row, col int) {
	return h.screen.Cursor()
}

// Subscribe delivers a snapshot after each applied output chunk and once
// more when the program exits. Slow subscribers skip intermediate
// snapshots. The channel closes on Dispose or cancel.
func (h *Harness) Subscribe() (<-chan Snapshot, func()) {
	return h.snapshots.Subscribe()
}

// SendText types text and waits for the settle delay (or wait, if given).
// Before Run and after Dispose it writes nothing and returns nil.
func (h *Harness) SendText(text string, wait ...time.Duration) error {
	return h.scripter.SendText(text, wait...)
}

func (h *Harness) SendKey(key terminal.Key, wait ...time.Duration) error {
	return h.scripter.SendKey(key, wait...)
}

func (h *Harness) SendUp(wait ...time.Duration) error {
	return h.scripter.SendUp(wait...)
}

func (h *Harness) SendDown(wait ...time.Duration) error {
	return h.scripter.SendDown(wait...)
}

func (h *Harness) SendEnter(wait ...time.Duration) error {
	return h.scripter.SendEnter(wait...)
}

// ExitCode blocks until the program exits and returns its exit code; -1
// when it was killed by a signal.
func (h *Harness) ExitCode() (int, error) {
	return h.ExitCodeContext(context.Background())
}

func (h *Harness) ExitCodeContext(ctx context.Context) (int, error) {
	session := h.boundSession()
	if session == nil {
		return -1, ErrNotStarted
	}
	return session.Exit().CodeContext(ctx)
}

// Exited is closed once the program has exited and its remaining output
// has been rendered.
func (h *Harness) Exited() <-chan struct{} {
	return h.exited
}

func (h *Harness) Pid() int {
	return h.boundSession().Pid()
}

func (h *Harness) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch {
	case h.disposed:
		return StateDisposed
	case h.session == nil:
		return StateCreated
	case h.session.Exit().Exited():
		return StateExited
	default:
		return StateRunning
	}
}

// WaitFor polls the screen until m matches, waking early whenever new
// output is rendered. On timeout the error is a *TimeoutError carrying the
// last few distinct screens.
func (h *Harness) WaitFor(ctx context.Context, m Matcher, opts ...WaitOption) (Snapshot, error) {
	wo := resolveWaitOptions(h.options.PollTimeout, h.options.PollInterval, opts)
	updates, cancel := h.snapshots.Subscribe()
	defer cancel()

	recent := buffer.NewRing[Snapshot](failureCaptureHistory)
	var matched Snapshot
	description := "matcher condition"
	last, stopped := poll(ctx, wo, updates, func() error {
		snapshot := h.Screen()
		if previous, ok := recent.Last(); !ok || previous.String() != snapshot.String() {
			recent.Add(snapshot)
		}
		ok, desc := m(snapshot)
		description = desc
		if ok {
			matched = snapshot
			return nil
		}
		return errNotMatched
	})
	if stopped == nil {
		return matched, nil
	}
	if !errors.Is(stopped, context.DeadlineExceeded) {
		return nil, fmt.Errorf("wait-for: %w", stopped)
	}
	return nil, &TimeoutError{
		Op:      "wait-for",
		Timeout: wo.timeout,
		Waiting: description,
		Exit:    h.exitSummary(),
		Last:    last,
		Recent:  recent.List(),
	}
}

// WaitExit waits for the program to exit and returns its exit code. The
// screen holds the program's final output once it returns.
func (h *Harness) WaitExit(ctx context.Context, opts ...WaitOption) (int, error) {
	session := h.boundSession()
	if session == nil {
		return -1, ErrNotStarted
	}
	wo := resolveWaitOptions(h.options.PollTimeout, h.options.PollInterval, opts)
	if ctx == nil {
		ctx = context.Background()
	}
	waitCtx, cancel := context.WithTimeout(ctx, wo.timeout)
	defer cancel()

	code, err := session.Exit().CodeContext(waitCtx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return -1, &TimeoutError{
			Op:      "wait-exit",
			Timeout: wo.timeout,
			Waiting: "process to exit",
			Exit:    "process still running",
			Recent:  []Snapshot{h.Screen()},
		}
	}
	if err == nil {
		<-h.exited
	}
	return code, err
}

// Dispose kills the program if it is still alive and releases the
// pseudo-terminal and the screen. It is safe to call more than once.
// Cleanup failures are logged, never returned.
func (h *Harness) Dispose() {
	h.disposeOnce.Do(func() {
		h.mu.Lock()
		h.disposed = true
		session := h.session
		transcript := h.transcript
		h.mu.Unlock()

		if session != nil {
			if err := session.Close(); err != nil {
				h.logger.Warn("dispose: close session failed", map[string]string{
					"error": err.Error(),
				})
			}
			<-session.Drained()
		}
		if err := transcript.Close(); err != nil {
			h.logger.Warn("dispose: close transcript failed", map[string]string{
				"path":  transcript.Path(),
				"error": err.Error(),
			})
		}
		h.screen.Release()
		h.snapshots.Close()
		h.logger.Debug("harness disposed", nil)
	})
}

func (h *Harness) boundSession() *terminal.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.session
}

// liveSession is the session input may be written to, or nil.
func (h *Harness) liveSession() *terminal.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.disposed {
		return nil
	}
	return h.session
}

func (h *Harness) exitSummary() string {
	select {
	case <-h.exited:
	default:
		return ""
	}
	code, err := h.ExitCode()
	if err != nil {
		return fmt.Sprintf("process exited: %v", err)
	}
	return fmt.Sprintf("process exited with code %d", code)
}

type inputSink struct {
	harness *Harness
}

func (s inputSink) Write(data []byte) error {
	session := s.harness.liveSession()
	if session == nil {
		return nil
	}
	if err := session.Write(data); err != nil {
		return err
	}
	s.harness.transcript.RecordInput(data)
	return nil
}

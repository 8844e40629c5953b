package terminal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"termharness/internal/logging"
)

const (
	readBufferSize       = 4096
	outputQueueSize      = 64
	DefaultKillGrace     = 500 * time.Millisecond
	sessionCategoryField = "termharness.category"
)

type SessionState uint32

const (
	sessionStateRunning SessionState = iota
	sessionStateClosing
	sessionStateClosed
)

func (s SessionState) String() string {
	switch s {
	case sessionStateClosing:
		return "closing"
	case sessionStateClosed:
		return "closed"
	default:
		return "running"
	}
}

// OutputHandler receives output chunks in arrival order. Invocations never
// overlap.
type OutputHandler func(chunk []byte)

type SessionOptions struct {
	PtyFactory PtyFactory
	Logger     *logging.Logger
	KillGrace  time.Duration
}

// Session is a child process attached to a pseudo-terminal.
type Session struct {
	spec      StartSpec
	pty       Pty
	proc      Process
	exit      *ExitObserver
	logger    *logging.Logger
	killGrace time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	output   chan []byte
	handler  chan OutputHandler
	attached atomic.Bool
	drained  chan struct{}

	writeMu  sync.Mutex
	closing  sync.Once
	closeErr error
	state    uint32
}

// Spawn starts spec.Command on a new pseudo-terminal. Failures are returned
// as *SpawnError.
func Spawn(spec StartSpec, options SessionOptions) (*Session, error) {
	spec = spec.normalized()
	if spec.Command == "" {
		return nil, &SpawnError{Err: ErrEmptyCommand}
	}

	factory := options.PtyFactory
	if factory == nil {
		factory = DefaultPtyFactory()
	}
	killGrace := options.KillGrace
	if killGrace <= 0 {
		killGrace = DefaultKillGrace
	}
	logger := options.Logger.With(map[string]string{
		sessionCategoryField: "session",
		"command":            spec.Command,
	})

	pty, proc, err := factory.Start(spec)
	if err != nil {
		logger.Warn("spawn failed", map[string]string{
			"error": err.Error(),
		})
		return nil, &SpawnError{Command: spec.Command, Err: err}
	}

	session := newSession(spec, pty, proc, logger, killGrace)
	logger.Debug("session started", map[string]string{
		"pid":  strconv.Itoa(proc.Pid()),
		"cols": strconv.Itoa(int(spec.Cols)),
		"rows": strconv.Itoa(int(spec.Rows)),
	})
	return session, nil
}

func newSession(spec StartSpec, pty Pty, proc Process, logger *logging.Logger, killGrace time.Duration) *Session {
	// readLoop -> output -> deliverLoop -> handler. Close cancels the context
	// and closes the pty so both loops exit.
	ctx, cancel := context.WithCancel(context.Background())
	session := &Session{
		spec:      spec,
		pty:       pty,
		proc:      proc,
		exit:      ObserveExit(proc.Wait),
		logger:    logger,
		killGrace: killGrace,
		ctx:       ctx,
		cancel:    cancel,
		output:    make(chan []byte, outputQueueSize),
		handler:   make(chan OutputHandler, 1),
		drained:   make(chan struct{}),
		state:     uint32(sessionStateRunning),
	}

	go session.readLoop()
	go session.deliverLoop()
	go session.logExit()

	return session
}

func (s *Session) Spec() StartSpec {
	return s.spec
}

func (s *Session) Pid() int {
	if s == nil || s.proc == nil {
		return 0
	}
	return s.proc.Pid()
}

// Exit returns the memoized exit observer for the child.
func (s *Session) Exit() *ExitObserver {
	return s.exit
}

// Drained is closed once the output stream has ended and every chunk has
// been handed to the output handler, or the session was closed.
func (s *Session) Drained() <-chan struct{} {
	return s.drained
}

// OnOutput attaches the single output consumer. Output read before the
// handler is attached is queued and delivered first.
func (s *Session) OnOutput(handler OutputHandler) error {
	if handler == nil {
		return errors.New("output handler is nil")
	}
	if s.State() != sessionStateRunning {
		return ErrSessionClosed
	}
	if !s.attached.CompareAndSwap(false, true) {
		return ErrOutputAttached
	}
	s.handler <- handler
	return nil
}

// Write injects input bytes. Writing to a closed session or one whose child
// has exited is a silent no-op.
func (s *Session) Write(data []byte) error {
	if s == nil || len(data) == 0 {
		return nil
	}
	if s.dropsInput() {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.dropsInput() {
		return nil
	}
	if _, err := s.pty.Write(data); err != nil {
		if s.dropsInput() || errors.Is(err, os.ErrClosed) {
			return nil
		}
		return fmt.Errorf("write pty: %w", err)
	}
	return nil
}

func (s *Session) dropsInput() bool {
	return s.State() != sessionStateRunning || s.exit.Exited()
}

// Close terminates the child and releases the pseudo-terminal. It is safe
// to call more than once; later calls return the first result.
func (s *Session) Close() error {
	s.closing.Do(func() {
		s.setState(sessionStateClosing)
		s.cancel()
		s.closeErr = s.closeResources()
		s.setState(sessionStateClosed)
	})

	return s.closeErr
}

// Kill is an alias for Close.
func (s *Session) Kill() error {
	return s.Close()
}

func (s *Session) State() SessionState {
	return SessionState(atomic.LoadUint32(&s.state))
}

func (s *Session) setState(state SessionState) {
	atomic.StoreUint32(&s.state, uint32(state))
}

func (s *Session) closeResources() error {
	var errs []error
	if s.proc != nil && !s.exit.Exited() {
		if err := s.proc.Terminate(s.killGrace); err != nil {
			errs = append(errs, fmt.Errorf("terminate process: %w", err))
		}
	}
	if s.pty != nil {
		if err := s.pty.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, fmt.Errorf("close pty: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (s *Session) readLoop() {
	defer close(s.output)

	buf := make([]byte, readBufferSize)
	for {
		n, err := s.pty.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case s.output <- chunk:
			case <-s.ctx.Done():
				return
			}
		}
		if err != nil {
			// EIO once the child side is gone, or a closed file after Close.
			return
		}
	}
}

func (s *Session) deliverLoop() {
	defer close(s.drained)
	var handler OutputHandler
	select {
	case handler = <-s.handler:
	case <-s.ctx.Done():
		return
	}
	for {
		select {
		case chunk, ok := <-s.output:
			if !ok || s.State() != sessionStateRunning {
				return
			}
			handler(chunk)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Session) logExit() {
	select {
	case <-s.exit.Done():
	case <-s.ctx.Done():
		return
	}
	code, err := s.exit.Code()
	fields := map[string]string{
		"pid":       strconv.Itoa(s.Pid()),
		"exit_code": strconv.Itoa(code),
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	s.logger.Debug("process exited", fields)
}

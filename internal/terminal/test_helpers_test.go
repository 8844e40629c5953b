package terminal

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

// scriptedPty is an in-memory Pty. Emit queues output for Read; writes are
// recorded.
type scriptedPty struct {
	mu     sync.Mutex
	reader *io.PipeReader
	writer *io.PipeWriter
	writes [][]byte
	closed bool
	closes int
}

func newScriptedPty() *scriptedPty {
	reader, writer := io.Pipe()
	return &scriptedPty{reader: reader, writer: writer}
}

func (p *scriptedPty) Emit(data string) {
	_, _ = p.writer.Write([]byte(data))
}

// Hangup ends the output stream the way a pty reports EIO after the child
// side has closed.
func (p *scriptedPty) Hangup() {
	_ = p.writer.CloseWithError(errors.New("input/output error"))
}

func (p *scriptedPty) Read(data []byte) (int, error) {
	return p.reader.Read(data)
}

func (p *scriptedPty) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	p.writes = append(p.writes, append([]byte(nil), data...))
	return len(data), nil
}

func (p *scriptedPty) Close() error {
	p.mu.Lock()
	p.closed = true
	p.closes++
	p.mu.Unlock()
	_ = p.reader.Close()
	return nil
}

func (p *scriptedPty) Writes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.writes))
	for _, write := range p.writes {
		out = append(out, string(write))
	}
	return out
}

// scriptedProcess exits when Exit or Terminate is called.
type scriptedProcess struct {
	pid        int
	done       chan struct{}
	once       sync.Once
	code       int
	mu         sync.Mutex
	terminates int
}

func newScriptedProcess(pid int) *scriptedProcess {
	return &scriptedProcess{pid: pid, done: make(chan struct{})}
}

func (p *scriptedProcess) Pid() int {
	return p.pid
}

func (p *scriptedProcess) Exit(code int) {
	p.once.Do(func() {
		p.code = code
		close(p.done)
	})
}

func (p *scriptedProcess) Wait() (int, error) {
	<-p.done
	return p.code, nil
}

func (p *scriptedProcess) Terminate(time.Duration) error {
	p.mu.Lock()
	p.terminates++
	p.mu.Unlock()
	p.Exit(-1)
	return nil
}

func (p *scriptedProcess) Terminates() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminates
}

type scriptedFactory struct {
	pty  *scriptedPty
	proc *scriptedProcess
	err  error
	spec StartSpec
}

func (f *scriptedFactory) Start(spec StartSpec) (Pty, Process, error) {
	f.spec = spec
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.pty, f.proc, nil
}

func waitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return condition()
}

package harness

import (
	"io"
	"sync"
	"time"

	"termharness/internal/terminal"
)

type fakePty struct {
	mu     sync.Mutex
	reader *io.PipeReader
	writer *io.PipeWriter
	writes []string
	closes int
}

func newFakePty() *fakePty {
	reader, writer := io.Pipe()
	return &fakePty{reader: reader, writer: writer}
}

func (p *fakePty) Emit(data string) {
	_, _ = p.writer.Write([]byte(data))
}

func (p *fakePty) Read(data []byte) (int, error) {
	return p.reader.Read(data)
}

func (p *fakePty) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writes = append(p.writes, string(data))
	return len(data), nil
}

func (p *fakePty) Close() error {
	p.mu.Lock()
	p.closes++
	p.mu.Unlock()
	return p.reader.Close()
}

func (p *fakePty) Writes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.writes...)
}

func (p *fakePty) Closes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes
}

type fakeProcess struct {
	done       chan struct{}
	once       sync.Once
	code       int
	mu         sync.Mutex
	terminates int
}

func newFakeProcess() *fakeProcess {
	return &fakeProcess{done: make(chan struct{})}
}

func (p *fakeProcess) Pid() int {
	return 4242
}

func (p *fakeProcess) Exit(code int) {
	p.once.Do(func() {
		p.code = code
		close(p.done)
	})
}

func (p *fakeProcess) Wait() (int, error) {
	<-p.done
	return p.code, nil
}

func (p *fakeProcess) Terminate(time.Duration) error {
	p.mu.Lock()
	p.terminates++
	p.mu.Unlock()
	p.Exit(-1)
	return nil
}

func (p *fakeProcess) Terminates() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminates
}

type fakeFactory struct {
	mu     sync.Mutex
	pty    *fakePty
	proc   *fakeProcess
	starts int
	spec   terminal.StartSpec
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{pty: newFakePty(), proc: newFakeProcess()}
}

func (f *fakeFactory) Start(spec terminal.StartSpec) (terminal.Pty, terminal.Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	f.spec = spec
	return f.pty, f.proc, nil
}

func (f *fakeFactory) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

func newFakeHarness(factory *fakeFactory) *Harness {
	return New(Options{
		Command:      "fixture",
		Cols:         40,
		Rows:         6,
		SettleDelay:  time.Millisecond,
		PollTimeout:  time.Second,
		PollInterval: 10 * time.Millisecond,
		PtyFactory:   factory,
	})
}

package terminal

import "time"

const (
	DefaultCols = 80
	DefaultRows = 20
	DefaultTerm = "xterm-256color"
)

// Pty is the controlling side of a pseudo-terminal pair.
type Pty interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// Process is the child attached to the slave side of a Pty.
type Process interface {
	Pid() int
	// Wait blocks until the child exits and reports its exit code. It is
	// safe to call from several goroutines; the child is reaped once.
	Wait() (int, error)
	// Terminate asks the child's process group to stop and escalates to a
	// hard kill after grace.
	Terminate(grace time.Duration) error
}

// StartSpec describes the child to spawn.
type StartSpec struct {
	Command string
	Args    []string
	Cols    uint16
	Rows    uint16
	Dir     string
	Env     []string
	Term    string
}

func (s StartSpec) normalized() StartSpec {
	if s.Cols == 0 {
		s.Cols = DefaultCols
	}
	if s.Rows == 0 {
		s.Rows = DefaultRows
	}
	if s.Term == "" {
		s.Term = DefaultTerm
	}
	return s
}

type PtyFactory interface {
	Start(spec StartSpec) (Pty, Process, error)
}

type defaultPtyFactory struct{}

func (defaultPtyFactory) Start(spec StartSpec) (Pty, Process, error) {
	return startPty(spec)
}

func DefaultPtyFactory() PtyFactory {
	return defaultPtyFactory{}
}

//go:build !windows

package terminal

import (
	"errors"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
)

func startPty(spec StartSpec) (Pty, Process, error) {
	spec = spec.normalized()
	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = append(append(os.Environ(), "TERM="+spec.Term), spec.Env...)
	// pty.StartWithSize adds Setsid and Setctty, which also makes the child
	// the leader of its own process group.
	cmd.SysProcAttr = &syscall.SysProcAttr{}
	setPtyDeathSignal(cmd.SysProcAttr)
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: spec.Cols, Rows: spec.Rows})
	if err != nil {
		return nil, nil, err
	}

	return ptmx, newExecProcess(cmd), nil
}

type execProcess struct {
	cmd      *exec.Cmd
	waitOnce sync.Once
	done     chan struct{}
	code     int
	err      error
}

func newExecProcess(cmd *exec.Cmd) *execProcess {
	return &execProcess{
		cmd:  cmd,
		done: make(chan struct{}),
	}
}

func (p *execProcess) Pid() int {
	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *execProcess) Wait() (int, error) {
	p.waitOnce.Do(func() {
		p.code, p.err = exitStatus(p.cmd.Wait())
		close(p.done)
	})
	<-p.done
	return p.code, p.err
}

func (p *execProcess) Terminate(grace time.Duration) error {
	if p.cmd == nil || p.cmd.Process == nil {
		return nil
	}
	select {
	case <-p.done:
		return nil
	default:
	}
	go func() {
		_, _ = p.Wait()
	}()
	pid := p.Pid()
	return terminateProcessGroup(pid, processGroupID(pid), p.done, grace)
}

func exitStatus(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// ExitCode is -1 when the child was killed by a signal.
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

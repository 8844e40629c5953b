//go:build !windows

package terminal

import (
	"errors"
	"fmt"
	"syscall"
	"time"
)

const hardKillWait = 2 * time.Second

func processGroupID(pid int) int {
	if pid <= 0 {
		return 0
	}
	pgid, err := syscall.Getpgid(pid)
	if err != nil {
		return 0
	}
	return pgid
}

// terminateProcessGroup sends SIGTERM to the group, waits up to grace for
// done, then sends SIGKILL. An already-gone group is not an error.
func terminateProcessGroup(pid, pgid int, done <-chan struct{}, grace time.Duration) error {
	if pid <= 0 {
		return nil
	}

	var errs []error
	if err := signalProcessGroup(pid, pgid, syscall.SIGTERM); err != nil && !isProcessGone(err) {
		errs = append(errs, fmt.Errorf("signal group: %w", err))
	}

	if waitDone(done, grace) {
		return errors.Join(errs...)
	}

	if err := signalProcessGroup(pid, pgid, syscall.SIGKILL); err != nil && !isProcessGone(err) {
		errs = append(errs, fmt.Errorf("kill group: %w", err))
	}
	if !waitDone(done, hardKillWait) {
		errs = append(errs, fmt.Errorf("process %d did not exit after SIGKILL", pid))
	}
	return errors.Join(errs...)
}

func signalProcessGroup(pid, pgid int, sig syscall.Signal) error {
	if pgid > 0 {
		return syscall.Kill(-pgid, sig)
	}
	return syscall.Kill(pid, sig)
}

func waitDone(done <-chan struct{}, timeout time.Duration) bool {
	if done == nil {
		return true
	}
	if timeout <= 0 {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

func isProcessGone(err error) bool {
	return errors.Is(err, syscall.ESRCH)
}

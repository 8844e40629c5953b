package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"termharness/internal/config"
)

const (
	failureCaptureHistory = 3
	minPollInterval       = 10 * time.Millisecond
)

var ErrPollTimeout = errors.New("poll timed out")

// WaitOption configures a single WaitFor or WaitExit call.
type WaitOption func(*waitOptions)

type waitOptions struct {
	timeout      time.Duration
	pollInterval time.Duration
}

// WithinTimeout overrides the harness poll timeout for one call.
func WithinTimeout(d time.Duration) WaitOption {
	return func(o *waitOptions) {
		o.timeout = d
	}
}

// WithPollInterval overrides the harness poll interval for one call.
func WithPollInterval(d time.Duration) WaitOption {
	return func(o *waitOptions) {
		o.pollInterval = d
	}
}

func resolveWaitOptions(timeout, interval time.Duration, opts []WaitOption) waitOptions {
	resolved := waitOptions{timeout: timeout, pollInterval: interval}
	for _, opt := range opts {
		if opt != nil {
			opt(&resolved)
		}
	}
	if resolved.timeout <= 0 {
		resolved.timeout = config.DefaultPollTimeout
	}
	if resolved.pollInterval <= 0 {
		resolved.pollInterval = config.DefaultPollInterval
	}
	if resolved.pollInterval < minPollInterval {
		resolved.pollInterval = minPollInterval
	}
	return resolved
}

// TimeoutError reports a condition that did not hold in time. It matches
// ErrPollTimeout and the last check error under errors.Is.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
	Waiting string
	Exit    string
	Last    error
	Recent  []Snapshot
}

func (e *TimeoutError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: timed out after %v", e.Op, e.Timeout)
	if e.Waiting != "" {
		fmt.Fprintf(&b, "\n    waiting for: %s", e.Waiting)
	}
	if e.Exit != "" {
		fmt.Fprintf(&b, "\n    %s", e.Exit)
	}
	if len(e.Recent) > 0 {
		b.WriteString("\n    recent screens (oldest to newest):\n")
		b.WriteString(formatRecentScreens(e.Recent))
	}
	return b.String()
}

func (e *TimeoutError) Unwrap() []error {
	if e.Last == nil {
		return []error{ErrPollTimeout}
	}
	return []error{ErrPollTimeout, e.Last}
}

// LastScreen returns the most recent snapshot captured while waiting.
func (e *TimeoutError) LastScreen() Snapshot {
	if len(e.Recent) == 0 {
		return Snapshot{}
	}
	return e.Recent[len(e.Recent)-1]
}

// Eventually calls check until it returns nil, every interval, for at most
// timeout. Non-positive durations use the suite defaults (30s, 2s).
func Eventually(ctx context.Context, timeout, interval time.Duration, check func() error) error {
	wo := resolveWaitOptions(timeout, interval, nil)
	last, stopped := poll(ctx, wo, nil, check)
	if stopped == nil {
		return nil
	}
	if !errors.Is(stopped, context.DeadlineExceeded) {
		return fmt.Errorf("eventually: %w", stopped)
	}
	waiting := ""
	if last != nil {
		waiting = last.Error()
	}
	return &TimeoutError{Op: "eventually", Timeout: wo.timeout, Waiting: waiting, Last: last}
}

// poll runs check immediately, then on every tick or wake, until it
// succeeds or ctx ends. It returns the last check error and the context
// error that stopped it.
func poll(ctx context.Context, wo waitOptions, wake <-chan Snapshot, check func() error) (last error, stopped error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, wo.timeout)
	defer cancel()
	ticker := time.NewTicker(wo.pollInterval)
	defer ticker.Stop()

	for {
		last = check()
		if last == nil {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			// One last look: the condition may have become true while waiting.
			if last = check(); last == nil {
				return nil, nil
			}
			return last, ctx.Err()
		case <-ticker.C:
		case _, ok := <-wake:
			if !ok {
				wake = nil
			}
		}
	}
}

func formatRecentScreens(screens []Snapshot) string {
	var b strings.Builder
	for i, screen := range screens {
		fmt.Fprintf(&b, "    capture %d/%d:\n", i+1, len(screens))
		if len(screen) == 0 {
			b.WriteString("    | (empty)")
		}
		for j, row := range screen {
			if j > 0 {
				b.WriteByte('\n')
			}
			b.WriteString("    | ")
			b.WriteString(row)
		}
		if i < len(screens)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

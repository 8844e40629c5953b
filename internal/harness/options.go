package harness

import (
	"time"

	"termharness/internal/config"
	"termharness/internal/logging"
	"termharness/internal/terminal"
)

// Options configures one Harness. Zero values fall back to the suite
// defaults: 80x20, 500ms settle delay, 30s/2s polling.
type Options struct {
	Command string
	Args    []string
	Cols    int
	Rows    int
	Dir     string
	Env     []string
	Term    string

	// TranscriptPath, when set, receives an asciicast recording of the
	// program's output and the input sent to it.
	TranscriptPath string

	SettleDelay  time.Duration
	KillGrace    time.Duration
	PollTimeout  time.Duration
	PollInterval time.Duration

	PtyFactory terminal.PtyFactory
	Logger     *logging.Logger
}

// FromSuite builds Options for suite.Command with its base args followed by
// args.
func FromSuite(suite config.Suite, args ...string) Options {
	command, fullArgs := suite.CommandLine(args...)
	return Options{
		Command:      command,
		Args:         fullArgs,
		Cols:         suite.Cols,
		Rows:         suite.Rows,
		Dir:          suite.Dir,
		Env:          append([]string(nil), suite.Env...),
		SettleDelay:  suite.SettleDelay.Std(),
		KillGrace:    suite.KillGrace.Std(),
		PollTimeout:  suite.PollTimeout.Std(),
		PollInterval: suite.PollInterval.Std(),
	}
}

func (o Options) withDefaults() Options {
	if o.Cols <= 0 {
		o.Cols = config.DefaultCols
	}
	if o.Rows <= 0 {
		o.Rows = config.DefaultRows
	}
	if o.SettleDelay <= 0 {
		o.SettleDelay = config.DefaultSettleDelay
	}
	if o.KillGrace <= 0 {
		o.KillGrace = config.DefaultKillGrace
	}
	if o.PollTimeout <= 0 {
		o.PollTimeout = config.DefaultPollTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = config.DefaultPollInterval
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	return o
}

func (o Options) startSpec() terminal.StartSpec {
	return terminal.StartSpec{
		Command: o.Command,
		Args:    append([]string(nil), o.Args...),
		Cols:    uint16(o.Cols),
		Rows:    uint16(o.Rows),
		Dir:     o.Dir,
		Env:     append([]string(nil), o.Env...),
		Term:    o.Term,
	}
}

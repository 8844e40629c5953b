package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"termharness/internal/config"
	"termharness/internal/harness"
	"termharness/internal/logging"
)

func runScreen(ctx context.Context, suite config.Suite, cfg ScreenConfig, logger *logging.Logger, out io.Writer, errOut io.Writer) int {
	options := harness.FromSuite(config.Suite{
		Command:      cfg.Command,
		Dir:          suite.Dir,
		Env:          suite.Env,
		Cols:         suite.Cols,
		Rows:         suite.Rows,
		SettleDelay:  suite.SettleDelay,
		PollTimeout:  suite.PollTimeout,
		PollInterval: suite.PollInterval,
		KillGrace:    suite.KillGrace,
	}, cfg.Args...)
	if cols, _, ok := terminalSize(out); ok && cfg.Cols == 0 {
		options.Cols = cols
	}
	if cfg.Cols > 0 {
		options.Cols = cfg.Cols
	}
	if cfg.Rows > 0 {
		options.Rows = cfg.Rows
	}
	options.Logger = logger

	h := harness.New(options)
	defer h.Dispose()
	if err := h.Run(); err != nil {
		fmt.Fprintln(errOut, err)
		return exitCodeSetup
	}

	var waitOpts []harness.WaitOption
	if cfg.Timeout > 0 {
		waitOpts = append(waitOpts, harness.WithinTimeout(cfg.Timeout))
	}
	code, err := h.WaitExit(ctx, waitOpts...)
	printScreen(out, h.Screen())
	if err != nil {
		fmt.Fprintln(errOut, err)
		var timeoutErr *harness.TimeoutError
		if errors.As(err, &timeoutErr) {
			return exitCodeFailed
		}
		return exitCodeSetup
	}
	if code < 0 {
		fmt.Fprintln(errOut, "program was killed by a signal")
		return exitCodeFailed
	}
	return code
}

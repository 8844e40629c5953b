package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"termharness/internal/config"
	"termharness/internal/logging"
	"termharness/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	cfg, err := parseArgs(args, errOut)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitCodeSuccess
		}
		fmt.Fprintln(errOut, err)
		return exitCodeUsage
	}
	if cfg.ShowVersion {
		if err := version.GetVersionInfo().Write(out); err != nil {
			return exitCodeSetup
		}
		return exitCodeSuccess
	}

	suite, err := config.Load(cfg.ConfigPath)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return exitCodeSetup
	}
	level, ok := logging.ParseLevel(suite.LogLevel)
	if !ok {
		level = logging.LevelWarning
	}
	if cfg.LogLevel.IsSet() {
		level = cfg.LogLevel.Level
	}
	logger := logging.NewLoggerWithOutput(logging.NewLogBuffer(logging.DefaultBufferSize), level, errOut).With(map[string]string{
		"termharness.category": "cli",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signalCh := make(chan os.Signal, 2)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalCh)
	stopSignals := watchShutdownSignals(logger, cancel, signalCh)
	defer stopSignals()

	switch cfg.Command {
	case commandRun:
		return runScripts(ctx, suite, cfg.Run, logger, out, errOut)
	case commandScreen:
		return runScreen(ctx, suite, cfg.Screen, logger, out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown command %q\n", cfg.Command)
		return exitCodeUsage
	}
}

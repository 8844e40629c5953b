package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"termharness/internal/cli"
	"termharness/internal/logging"
)

const (
	commandRun    = "run"
	commandScreen = "screen"
)

type Config struct {
	ConfigPath  string
	LogLevel    *cli.LevelFlag
	ShowVersion bool
	Command     string
	Run         RunConfig
	Screen      ScreenConfig
}

type RunConfig struct {
	Scripts       []string
	WatchAddr     string
	Token         string
	Scratch       string
	TranscriptDir string
}

type ScreenConfig struct {
	Command string
	Args    []string
	Cols    int
	Rows    int
	Timeout time.Duration
}

func parseArgs(args []string, errOut io.Writer) (Config, error) {
	fs := flag.NewFlagSet("termharness", flag.ContinueOnError)
	fs.SetOutput(errOut)
	configFlag := fs.String("config", "", "Suite config file (YAML)")
	levelFlag := cli.AddLogLevelFlag(fs, logging.LevelWarning)
	helpVersion := cli.AddHelpVersionFlags(fs, "Show this help message", "Print version and exit")
	fs.Usage = func() {
		printHelp(fs.Output())
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if helpVersion.Help {
		fs.Usage()
		return Config{}, flag.ErrHelp
	}
	if helpVersion.Version {
		return Config{ShowVersion: true}, nil
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return Config{}, errors.New("command is required")
	}

	cfg := Config{
		ConfigPath: strings.TrimSpace(*configFlag),
		LogLevel:   levelFlag,
		Command:    fs.Arg(0),
	}
	rest := fs.Args()[1:]
	switch cfg.Command {
	case commandRun:
		runCfg, err := parseRunArgs(rest, errOut)
		if err != nil {
			return Config{}, err
		}
		cfg.Run = runCfg
	case commandScreen:
		screenCfg, err := parseScreenArgs(rest, errOut)
		if err != nil {
			return Config{}, err
		}
		cfg.Screen = screenCfg
	default:
		fs.Usage()
		return Config{}, fmt.Errorf("unknown command %q", cfg.Command)
	}
	return cfg, nil
}

func parseRunArgs(args []string, errOut io.Writer) (RunConfig, error) {
	fs := flag.NewFlagSet("termharness run", flag.ContinueOnError)
	fs.SetOutput(errOut)
	watchFlag := fs.String("watch-addr", "", "Serve the live screen on this address (e.g. 127.0.0.1:7070)")
	tokenFlag := fs.String("token", "", "Token required by the screen endpoint")
	scratchFlag := fs.String("scratch", "", "Scratch directory exposed as ${SCRATCH}")
	transcriptFlag := fs.String("transcript-dir", "", "Write an asciicast recording of each script here")
	fs.Usage = func() {
		printHelp(fs.Output())
	}
	if err := fs.Parse(args); err != nil {
		return RunConfig{}, err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return RunConfig{}, errors.New("script path is required")
	}
	return RunConfig{
		Scripts:       fs.Args(),
		WatchAddr:     strings.TrimSpace(*watchFlag),
		Token:         strings.TrimSpace(*tokenFlag),
		Scratch:       strings.TrimSpace(*scratchFlag),
		TranscriptDir: strings.TrimSpace(*transcriptFlag),
	}, nil
}

func parseScreenArgs(args []string, errOut io.Writer) (ScreenConfig, error) {
	fs := flag.NewFlagSet("termharness screen", flag.ContinueOnError)
	fs.SetOutput(errOut)
	colsFlag := fs.Int("cols", 0, "Grid columns (default: terminal width or suite cols)")
	rowsFlag := fs.Int("rows", 0, "Grid rows (default: suite rows)")
	timeoutFlag := fs.Duration("timeout", 0, "Wait at most this long for the program to exit")
	fs.Usage = func() {
		printHelp(fs.Output())
	}
	if err := fs.Parse(args); err != nil {
		return ScreenConfig{}, err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return ScreenConfig{}, errors.New("program is required")
	}
	if *colsFlag < 0 || *rowsFlag < 0 {
		return ScreenConfig{}, errors.New("cols and rows must not be negative")
	}
	return ScreenConfig{
		Command: fs.Arg(0),
		Args:    fs.Args()[1:],
		Cols:    *colsFlag,
		Rows:    *rowsFlag,
		Timeout: *timeoutFlag,
	}, nil
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Usage: termharness [options] <command> [args]")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Drive interactive terminal programs through a pseudo-terminal")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Options:")
	writeOption(out, "--config FILE", "Suite config file (YAML, env: TERMHARNESS_*)")
	writeOption(out, "--log-level LEVEL", "debug, info, warning or error (default: warning)")
	writeOption(out, "--help", "Show this help message")
	writeOption(out, "--version", "Print version and exit")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  run [--watch-addr ADDR] [--token TOKEN] [--scratch DIR] [--transcript-dir DIR] <script.yaml>...")
	fmt.Fprintln(out, "  screen [--cols N] [--rows N] [--timeout DURATION] -- <program> [args]")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Exit codes:")
	fmt.Fprintln(out, "  0  Success")
	fmt.Fprintln(out, "  1  Usage error")
	fmt.Fprintln(out, "  2  Script step failed")
	fmt.Fprintln(out, "  3  Setup error (config, spawn, scratch)")
	fmt.Fprintln(out, "  screen exits with the program's own exit code once it finishes")
}

func writeOption(out io.Writer, name, desc string) {
	fmt.Fprintf(out, "  %-18s %s\n", name, desc)
}

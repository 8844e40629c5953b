package cli

import (
	"flag"
	"fmt"

	"termharness/internal/logging"
)

const (
	defaultHelpDesc    = "Show help"
	defaultVersionDesc = "Print version and exit"
	defaultLevelDesc   = "Log level (debug, info, warning, error)"
)

type HelpVersionFlags struct {
	Help    bool
	Version bool
}

func AddHelpVersionFlags(fs *flag.FlagSet, helpDesc, versionDesc string) *HelpVersionFlags {
	if fs == nil {
		return &HelpVersionFlags{}
	}
	if helpDesc == "" {
		helpDesc = defaultHelpDesc
	}
	if versionDesc == "" {
		versionDesc = defaultVersionDesc
	}
	flags := &HelpVersionFlags{}
	fs.BoolVar(&flags.Help, "help", false, helpDesc)
	fs.BoolVar(&flags.Help, "h", false, helpDesc)
	fs.BoolVar(&flags.Version, "version", false, versionDesc)
	fs.BoolVar(&flags.Version, "v", false, versionDesc)
	return flags
}

// LevelFlag is a flag.Value accepting logging level names.
type LevelFlag struct {
	Level logging.Level
	set   bool
}

func (f *LevelFlag) String() string {
	if f == nil {
		return ""
	}
	return string(f.Level)
}

func (f *LevelFlag) Set(value string) error {
	level, ok := logging.ParseLevel(value)
	if !ok {
		return fmt.Errorf("unknown log level %q", value)
	}
	f.Level = level
	f.set = true
	return nil
}

// IsSet reports whether the flag appeared on the command line.
func (f *LevelFlag) IsSet() bool {
	return f != nil && f.set
}

func AddLogLevelFlag(fs *flag.FlagSet, fallback logging.Level) *LevelFlag {
	level := &LevelFlag{Level: fallback}
	if fs != nil {
		fs.Var(level, "log-level", defaultLevelDesc)
	}
	return level
}

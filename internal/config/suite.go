package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const EnvPrefix = "TERMHARNESS_"

const (
	DefaultCols         = 80
	DefaultRows         = 20
	DefaultSettleDelay  = 500 * time.Millisecond
	DefaultPollTimeout  = 30 * time.Second
	DefaultPollInterval = 2 * time.Second
	DefaultKillGrace    = 500 * time.Millisecond
	DefaultLogLevel     = "warning"
)

// Suite holds the values shared by every harness in a test suite: which
// binary to drive, how large its terminal is and how long to wait.
type Suite struct {
	Command      string   `yaml:"command"`
	BaseArgs     []string `yaml:"base_args"`
	Dir          string   `yaml:"dir"`
	Env          []string `yaml:"env"`
	Cols         int      `yaml:"cols"`
	Rows         int      `yaml:"rows"`
	SettleDelay  Duration `yaml:"settle_delay"`
	PollTimeout  Duration `yaml:"poll_timeout"`
	PollInterval Duration `yaml:"poll_interval"`
	KillGrace    Duration `yaml:"kill_grace"`
	ScratchRoot  string   `yaml:"scratch_root"`
	LogLevel     string   `yaml:"log_level"`
}

// Duration accepts Go duration strings ("750ms") or integer milliseconds.
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}
	parsed, err := parseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

func parseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	if millis, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(millis) * time.Millisecond, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	return parsed, nil
}

func Default() Suite {
	return Suite{
		Cols:         DefaultCols,
		Rows:         DefaultRows,
		SettleDelay:  Duration(DefaultSettleDelay),
		PollTimeout:  Duration(DefaultPollTimeout),
		PollInterval: Duration(DefaultPollInterval),
		KillGrace:    Duration(DefaultKillGrace),
		ScratchRoot:  os.TempDir(),
		LogLevel:     DefaultLogLevel,
	}
}

// Decode reads a suite document. Unknown keys are rejected; missing keys
// keep their defaults.
func Decode(reader io.Reader) (Suite, error) {
	suite := Default()
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)
	if err := decoder.Decode(&suite); err != nil && !errors.Is(err, io.EOF) {
		return Suite{}, fmt.Errorf("decode suite: %w", err)
	}
	return suite.normalized(), nil
}

// Load layers defaults, the file at path (when it exists) and TERMHARNESS_*
// environment overrides.
func Load(path string) (Suite, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

func LoadWithEnv(path string, lookup func(string) (string, bool)) (Suite, error) {
	suite := Default()
	if strings.TrimSpace(path) != "" {
		payload, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Suite{}, fmt.Errorf("read suite %s: %w", path, err)
			}
		} else {
			suite, err = Decode(bytes.NewReader(payload))
			if err != nil {
				return Suite{}, fmt.Errorf("%s: %w", path, err)
			}
		}
	}
	if lookup != nil {
		if err := suite.applyEnv(lookup); err != nil {
			return Suite{}, err
		}
	}
	return suite.normalized(), nil
}

func (s *Suite) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, target *string) {
		if value, ok := lookup(EnvPrefix + key); ok {
			*target = strings.TrimSpace(value)
		}
	}
	num := func(key string, target *int) {
		value, ok := lookup(EnvPrefix + key)
		if !ok {
			return
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: invalid integer %q", EnvPrefix, key, value))
			return
		}
		*target = parsed
	}
	dur := func(key string, target *Duration) {
		value, ok := lookup(EnvPrefix + key)
		if !ok {
			return
		}
		parsed, err := parseDuration(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			return
		}
		*target = Duration(parsed)
	}

	str("COMMAND", &s.Command)
	if value, ok := lookup(EnvPrefix + "BASE_ARGS"); ok {
		s.BaseArgs = strings.Fields(value)
	}
	str("DIR", &s.Dir)
	num("COLS", &s.Cols)
	num("ROWS", &s.Rows)
	dur("SETTLE_DELAY", &s.SettleDelay)
	dur("POLL_TIMEOUT", &s.PollTimeout)
	dur("POLL_INTERVAL", &s.PollInterval)
	dur("KILL_GRACE", &s.KillGrace)
	str("SCRATCH_ROOT", &s.ScratchRoot)
	str("LOG_LEVEL", &s.LogLevel)
	return errors.Join(errs...)
}

func (s Suite) normalized() Suite {
	defaults := Default()
	s.Command = strings.TrimSpace(s.Command)
	if s.Cols <= 0 {
		s.Cols = defaults.Cols
	}
	if s.Rows <= 0 {
		s.Rows = defaults.Rows
	}
	if s.SettleDelay <= 0 {
		s.SettleDelay = defaults.SettleDelay
	}
	if s.PollTimeout <= 0 {
		s.PollTimeout = defaults.PollTimeout
	}
	if s.PollInterval <= 0 {
		s.PollInterval = defaults.PollInterval
	}
	if s.KillGrace <= 0 {
		s.KillGrace = defaults.KillGrace
	}
	if strings.TrimSpace(s.ScratchRoot) == "" {
		s.ScratchRoot = defaults.ScratchRoot
	}
	if strings.TrimSpace(s.LogLevel) == "" {
		s.LogLevel = defaults.LogLevel
	}
	return s
}

// CommandLine returns the command followed by the base args and extra.
func (s Suite) CommandLine(extra ...string) (string, []string) {
	args := make([]string, 0, len(s.BaseArgs)+len(extra))
	args = append(args, s.BaseArgs...)
	args = append(args, extra...)
	return s.Command, args
}

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func TestDecodeAppliesDefaults(t *testing.T) {
	suite, err := Decode(strings.NewReader("command: /usr/bin/springup\n"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if suite.Command != "/usr/bin/springup" {
		t.Fatalf("expected command, got %q", suite.Command)
	}
	if suite.Cols != 80 || suite.Rows != 20 {
		t.Fatalf("expected 80x20, got %dx%d", suite.Cols, suite.Rows)
	}
	if suite.SettleDelay.Std() != 500*time.Millisecond {
		t.Fatalf("expected 500ms settle delay, got %v", suite.SettleDelay)
	}
	if suite.PollTimeout.Std() != 30*time.Second || suite.PollInterval.Std() != 2*time.Second {
		t.Fatalf("expected 30s/2s polling, got %v/%v", suite.PollTimeout, suite.PollInterval)
	}
}

func TestDecodeEmptyDocument(t *testing.T) {
	suite, err := Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(suite, Default().normalized()) {
		t.Fatalf("expected defaults, got %+v", suite)
	}
}

func TestDecodeDurations(t *testing.T) {
	payload := "settle_delay: 250ms\npoll_timeout: 1500\nkill_grace: 1s\n"
	suite, err := Decode(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if suite.SettleDelay.Std() != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %v", suite.SettleDelay)
	}
	if suite.PollTimeout.Std() != 1500*time.Millisecond {
		t.Fatalf("expected integer milliseconds, got %v", suite.PollTimeout)
	}
	if suite.KillGrace.Std() != time.Second {
		t.Fatalf("expected 1s, got %v", suite.KillGrace)
	}
}

func TestDecodeRejectsUnknownKeysAndBadDurations(t *testing.T) {
	cases := []string{
		"colums: 100\n",
		"settle_delay: soon\n",
		"settle_delay: [1, 2]\n",
	}
	for _, payload := range cases {
		if _, err := Decode(strings.NewReader(payload)); err == nil {
			t.Fatalf("expected error for %q", payload)
		}
	}
}

func TestLoadWithEnvLayersFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suite.yaml")
	payload := "command: java\nbase_args: [-jar, app.jar]\ncols: 100\nrows: 30\n"
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write suite: %v", err)
	}

	suite, err := LoadWithEnv(path, envMap(map[string]string{
		"TERMHARNESS_ROWS":         "40",
		"TERMHARNESS_SETTLE_DELAY": "100ms",
		"TERMHARNESS_LOG_LEVEL":    "debug",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if suite.Cols != 100 {
		t.Fatalf("expected file cols 100, got %d", suite.Cols)
	}
	if suite.Rows != 40 {
		t.Fatalf("expected env rows 40, got %d", suite.Rows)
	}
	if suite.SettleDelay.Std() != 100*time.Millisecond {
		t.Fatalf("expected env settle delay, got %v", suite.SettleDelay)
	}
	if suite.LogLevel != "debug" {
		t.Fatalf("expected env log level, got %q", suite.LogLevel)
	}

	command, args := suite.CommandLine("version")
	if command != "java" || !reflect.DeepEqual(args, []string{"-jar", "app.jar", "version"}) {
		t.Fatalf("unexpected command line %q %q", command, args)
	}
}

func TestLoadWithEnvMissingFileUsesDefaults(t *testing.T) {
	suite, err := LoadWithEnv(filepath.Join(t.TempDir(), "missing.yaml"), envMap(map[string]string{
		"TERMHARNESS_COMMAND":   " ./springup ",
		"TERMHARNESS_BASE_ARGS": "-jar  target/app.jar",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if suite.Command != "./springup" {
		t.Fatalf("expected trimmed env command, got %q", suite.Command)
	}
	if !reflect.DeepEqual(suite.BaseArgs, []string{"-jar", "target/app.jar"}) {
		t.Fatalf("expected split base args, got %q", suite.BaseArgs)
	}
}

func TestLoadWithEnvRejectsBadValues(t *testing.T) {
	_, err := LoadWithEnv("", envMap(map[string]string{
		"TERMHARNESS_COLS":         "wide",
		"TERMHARNESS_POLL_TIMEOUT": "later",
	}))
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, key := range []string{"TERMHARNESS_COLS", "TERMHARNESS_POLL_TIMEOUT"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected %s in error, got %v", key, err)
		}
	}
}

func TestNormalizedReplacesNonPositiveValues(t *testing.T) {
	suite := Suite{Cols: -1, SettleDelay: Duration(-time.Second)}.normalized()
	if suite.Cols != DefaultCols || suite.SettleDelay.Std() != DefaultSettleDelay {
		t.Fatalf("expected defaults, got %+v", suite)
	}
}

package e2e

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"termharness/internal/config"
	"termharness/internal/harness"
	"termharness/internal/logging"
	"termharness/internal/watcher"
)

const scenarioSettle = 150 * time.Millisecond

// newCli returns a harness for the fixture with args and registers its
// disposal. Scenario args follow the fixture's convention of whole
// command phrases such as "initializr new".
func newCli(t *testing.T, args ...string) *harness.Harness {
	t.Helper()
	if skipReason != "" {
		t.Skip(skipReason)
	}
	options := harness.FromSuite(suite, args...)
	if _, ok := os.LookupEnv(config.EnvPrefix + "SETTLE_DELAY"); !ok {
		options.SettleDelay = scenarioSettle
	}
	options.Logger = testLogger(t)
	cli := harness.New(options)
	t.Cleanup(cli.Dispose)
	return cli
}

func testLogger(t *testing.T) *logging.Logger {
	buffer := logging.NewLogBuffer(logging.DefaultBufferSize)
	t.Cleanup(func() {
		if !t.Failed() {
			return
		}
		for _, line := range buffer.Messages(logging.LevelDebug) {
			t.Log(line)
		}
	})
	return logging.NewLogger(buffer, logging.LevelDebug)
}

// scratch gives each test a fresh directory under the suite scratch root.
func scratch(t *testing.T) *harness.ScratchDir {
	t.Helper()
	root := suite.ScratchRoot
	if root == "" {
		root = t.TempDir()
	}
	dir, err := harness.NewScratchDir(root, t.Name(), testLogger(t))
	if err != nil {
		t.Fatalf("scratch dir: %v", err)
	}
	t.Cleanup(dir.Cleanup)
	return dir
}

func waitForScreen(t *testing.T, cli *harness.Harness, m harness.Matcher) harness.Snapshot {
	t.Helper()
	screen, err := cli.WaitFor(context.Background(), m)
	if err != nil {
		t.Fatalf("wait for screen: %v", err)
	}
	return screen
}

func waitForFile(t *testing.T, path, content string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), suite.PollTimeout.Std())
	defer cancel()
	if err := watcher.WaitForFile(ctx, path, watcher.Options{}); err != nil {
		t.Fatalf("wait for %s: %v", path, err)
	}
	if content == "" {
		return
	}
	if err := watcher.WaitForContent(ctx, path, content, watcher.Options{}); err != nil {
		data, _ := os.ReadFile(path)
		t.Fatalf("expected %q in %s: %v\n%s", content, path, err, strings.TrimSpace(string(data)))
	}
}

func mustSend(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("send: %v", err)
	}
}

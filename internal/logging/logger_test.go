package logging

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
)

func TestLoggerWritesToBuffer(t *testing.T) {
	buffer := NewLogBuffer(10)
	logger := NewLoggerWithOutput(buffer, LevelInfo, io.Discard)

	logger.Info("started", map[string]string{"session_id": "1"})

	entries := buffer.List()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Level != LevelInfo {
		t.Fatalf("expected info level, got %q", entry.Level)
	}
	if entry.Message != "started" {
		t.Fatalf("expected message started, got %q", entry.Message)
	}
	if entry.Context["session_id"] != "1" {
		t.Fatalf("expected context session_id=1, got %v", entry.Context)
	}
}

func TestLoggerFiltersByLevel(t *testing.T) {
	buffer := NewLogBuffer(10)
	logger := NewLoggerWithOutput(buffer, LevelWarning, io.Discard)

	logger.Info("info", nil)
	logger.Warn("warn", nil)

	entries := buffer.List()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Level != LevelWarning {
		t.Fatalf("expected warning level, got %q", entries[0].Level)
	}
}

func TestLoggerWithMergesBaseContext(t *testing.T) {
	buffer := NewLogBuffer(10)
	logger := NewLoggerWithOutput(buffer, LevelDebug, io.Discard).With(map[string]string{
		"component": "harness",
	})

	logger.Debug("spawned", map[string]string{"pid": "42"})

	entries := buffer.List()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Context["component"] != "harness" || entries[0].Context["pid"] != "42" {
		t.Fatalf("expected merged context, got %v", entries[0].Context)
	}
}

func TestLoggerFormatsSortedFields(t *testing.T) {
	var out bytes.Buffer
	logger := NewLoggerWithOutput(nil, LevelInfo, &out)

	logger.Error("dispose failed", map[string]string{"error": "boom", "command": "/bin/x"})

	line := out.String()
	if !strings.Contains(line, `level=error msg="dispose failed" command="/bin/x" error="boom"`) {
		t.Fatalf("unexpected formatted line %q", line)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.Info("ignored", nil)
	if logger.Enabled(LevelError) {
		t.Fatalf("expected nil logger to be disabled")
	}
	if logger.With(map[string]string{"a": "b"}) != nil {
		t.Fatalf("expected With on nil logger to stay nil")
	}
}

func TestLoggerConcurrentWrites(t *testing.T) {
	var out bytes.Buffer
	logger := NewLoggerWithOutput(NewLogBuffer(500), LevelInfo, &out)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				logger.Info("message", nil)
			}
		}()
	}
	wg.Wait()

	if got := len(logger.Buffer().List()); got != 200 {
		t.Fatalf("expected 200 entries, got %d", got)
	}
	if got := strings.Count(out.String(), "\n"); got != 200 {
		t.Fatalf("expected 200 output lines, got %d", got)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]Level{
		"debug":   LevelDebug,
		" INFO ":  LevelInfo,
		"warn":    LevelWarning,
		"warning": LevelWarning,
		"error":   LevelError,
	}
	for raw, want := range cases {
		got, ok := ParseLevel(raw)
		if !ok || got != want {
			t.Fatalf("ParseLevel(%q) = %q, %v; expected %q", raw, got, ok, want)
		}
	}
	if _, ok := ParseLevel("verbose"); ok {
		t.Fatalf("expected verbose to be rejected")
	}
}

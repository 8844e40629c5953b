package terminal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTranscriptWritesHeaderAndRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.cast")
	transcript, err := CreateTranscript(path, StartSpec{Command: "fixture", Cols: 40, Rows: 6})
	if err != nil {
		t.Fatalf("create transcript: %v", err)
	}

	transcript.RecordOutput([]byte("Path? "))
	transcript.RecordInput([]byte("demo\r"))
	transcript.RecordOutput(nil)
	if err := transcript.Close(); err != nil {
		t.Fatalf("close transcript: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 records, got %d lines: %q", len(lines), data)
	}

	var header transcriptHeader
	if err := json.Unmarshal([]byte(lines[0]), &header); err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if header.Version != 2 || header.Width != 40 || header.Height != 6 {
		t.Fatalf("unexpected header: %+v", header)
	}
	if header.Env["TERM"] != DefaultTerm {
		t.Fatalf("expected TERM %q, got %q", DefaultTerm, header.Env["TERM"])
	}

	var event []any
	if err := json.Unmarshal([]byte(lines[2]), &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if len(event) != 3 || event[1] != "i" || event[2] != "demo\r" {
		t.Fatalf("unexpected input event: %v", event)
	}
}

func TestTranscriptIgnoresRecordsAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.cast")
	transcript, err := CreateTranscript(path, StartSpec{Command: "fixture"})
	if err != nil {
		t.Fatalf("create transcript: %v", err)
	}
	if err := transcript.Close(); err != nil {
		t.Fatalf("close transcript: %v", err)
	}
	transcript.RecordOutput([]byte("late"))
	if err := transcript.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if strings.Contains(string(data), "late") {
		t.Fatalf("expected late record to be dropped, got %q", data)
	}
}

func TestTranscriptNilIsSafe(t *testing.T) {
	var transcript *Transcript
	transcript.RecordOutput([]byte("x"))
	if transcript.Path() != "" || transcript.Blocked() != 0 {
		t.Fatalf("expected zero values from nil transcript")
	}
	if err := transcript.Close(); err != nil {
		t.Fatalf("expected nil close error, got %v", err)
	}
}

func TestCreateTranscriptFailsForMissingDir(t *testing.T) {
	_, err := CreateTranscript(filepath.Join(t.TempDir(), "missing", "x.cast"), StartSpec{Command: "fixture"})
	if err == nil {
		t.Fatalf("expected error")
	}
}

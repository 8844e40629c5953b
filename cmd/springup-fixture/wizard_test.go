package main

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestWizardTextUsesTypedValue(t *testing.T) {
	var out bytes.Buffer
	w := newWizard(strings.NewReader("demoo\x7f\r"), &out)
	answer, err := w.Text("Path", "")
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	if answer != "demo" {
		t.Fatalf("expected demo, got %q", answer)
	}
	if !strings.Contains(out.String(), "? Path demo\r\n") {
		t.Fatalf("expected answered prompt, got %q", out.String())
	}
}

func TestWizardTextFallsBackToDefault(t *testing.T) {
	var out bytes.Buffer
	w := newWizard(strings.NewReader("\r"), &out)
	answer, err := w.Text("Group", "com.example")
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	if answer != "com.example" {
		t.Fatalf("expected default, got %q", answer)
	}
	if !strings.HasPrefix(out.String(), "? Group [com.example] ") {
		t.Fatalf("expected default shown in prompt, got %q", out.String())
	}
}

func TestWizardSelectArrowKeys(t *testing.T) {
	cases := []struct {
		name  string
		input string
		start int
		want  string
	}{
		{name: "enter keeps default", input: "\r", start: 1, want: "11"},
		{name: "application mode up", input: "\x1bOA\r", start: 1, want: "17"},
		{name: "normal mode down", input: "\x1b[B\r", start: 1, want: "1.8"},
		{name: "clamped at top", input: "\x1b[A\x1b[A\x1b[A\r", start: 1, want: "17"},
		{name: "clamped at bottom", input: "\x1bOB\x1bOB\x1bOB\r", start: 0, want: "1.8"},
		{name: "ignores letters", input: "x\x1b[C\r", start: 0, want: "17"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := newWizard(strings.NewReader(tc.input), io.Discard)
			answer, err := w.Select("Java", javaVersions, tc.start)
			if err != nil {
				t.Fatalf("select: %v", err)
			}
			if answer != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, answer)
			}
		})
	}
}

func TestWizardSelectDrawsMarker(t *testing.T) {
	var out bytes.Buffer
	w := newWizard(strings.NewReader("\x1bOB\r"), &out)
	if _, err := w.Select("Project", projectTypes, 0); err != nil {
		t.Fatalf("select: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "> gradle-project") || !strings.Contains(text, "> maven-project") {
		t.Fatalf("expected both selections drawn, got %q", text)
	}
	if !strings.HasSuffix(text, "? Project maven-project\r\n") {
		t.Fatalf("expected collapsed answer, got %q", text)
	}
}

func TestWizardAbort(t *testing.T) {
	w := newWizard(strings.NewReader("\x03"), io.Discard)
	if _, err := w.Text("Path", ""); !errors.Is(err, errAborted) {
		t.Fatalf("expected errAborted, got %v", err)
	}
}

func TestWizardEOF(t *testing.T) {
	w := newWizard(strings.NewReader("abc"), io.Discard)
	if _, err := w.Text("Path", ""); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

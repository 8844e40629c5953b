package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"version"}, strings.NewReader(""), &stdout, &stderr)
	if code != exitCodeSuccess {
		t.Fatalf("expected success, got %d", code)
	}
	for _, want := range []string{"Build Version", "Git Short Commit Id"} {
		if !strings.Contains(stdout.String(), want) {
			t.Fatalf("expected %q in %q", want, stdout.String())
		}
	}
}

func TestRunConfigList(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"config list"}, strings.NewReader(""), &stdout, &stderr)
	if code != exitCodeSuccess {
		t.Fatalf("expected success, got %d", code)
	}
	if !strings.Contains(stdout.String(), "initializr.java-version") {
		t.Fatalf("expected config rows, got %q", stdout.String())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"frobnicate"}, strings.NewReader(""), &stdout, &stderr)
	if code != exitCodeNotFound {
		t.Fatalf("expected code %d, got %d", exitCodeNotFound, code)
	}
	if !strings.Contains(stderr.String(), "Command 'frobnicate' not found") {
		t.Fatalf("expected not found message, got %q", stderr.String())
	}
}

func TestRunNoArgsPrintsHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(nil, strings.NewReader(""), &stdout, &stderr); code != exitCodeSuccess {
		t.Fatalf("expected success, got %d", code)
	}
	if !strings.Contains(stdout.String(), "initializr new") {
		t.Fatalf("expected command list, got %q", stdout.String())
	}
}

func TestMatchCommandPrefersLongestName(t *testing.T) {
	cmd, rest := matchCommand([]string{"initializr", "new", "--path", "x"})
	if cmd == nil || cmd.name != "initializr new" {
		t.Fatalf("expected initializr new, got %+v", cmd)
	}
	if len(rest) != 2 || rest[1] != "x" {
		t.Fatalf("expected remaining flags, got %v", rest)
	}
	if cmd, _ := matchCommand([]string{"initializr"}); cmd != nil {
		t.Fatalf("expected no match for partial name, got %q", cmd.name)
	}
}

func nonInteractiveArgs(path, project string) []string {
	return []string{
		"initializr new",
		"--path " + path,
		"--project " + project,
		"--language java",
		"--boot-version 2.6.4",
		"--version 0.0.1-SNAPSHOT",
		"--group com.example",
		"--artifact demo",
		"--name demo",
		"--description Demo",
		"--package-name com.example.demo",
		"--dependencies camel,derby",
		"--packaging jar",
		"--java-version 11",
	}
}

func TestRunInitializrNonInteractive(t *testing.T) {
	cases := []struct {
		project string
		file    string
		want    string
	}{
		{project: "maven-project", file: "pom.xml", want: "<java.version>11</java.version>"},
		{project: "gradle-project", file: "build.gradle", want: "sourceCompatibility = '11'"},
	}
	for _, tc := range cases {
		t.Run(tc.project, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "demo")
			var stdout, stderr bytes.Buffer
			code := run(nonInteractiveArgs(dir, tc.project), strings.NewReader(""), &stdout, &stderr)
			if code != exitCodeSuccess {
				t.Fatalf("expected success, got %d: %s", code, stderr.String())
			}
			content, err := os.ReadFile(filepath.Join(dir, tc.file))
			if err != nil {
				t.Fatalf("read build file: %v", err)
			}
			if !strings.Contains(string(content), tc.want) {
				t.Fatalf("expected %q in %s", tc.want, content)
			}
			if !strings.Contains(string(content), "camel") {
				t.Fatalf("expected dependencies in %s", content)
			}
			source := filepath.Join(dir, "src", "main", "java", "com", "example", "demo", "DemoApplication.java")
			if _, err := os.Stat(source); err != nil {
				t.Fatalf("expected application class: %v", err)
			}
		})
	}
}

func TestRunInitializrInteractive(t *testing.T) {
	const up, down, enter = "\x1bOA", "\x1bOB", "\r"
	dir := filepath.Join(t.TempDir(), "demo")
	keys := dir + enter + // path
		down + enter + // project: maven
		down + enter + // language: kotlin
		strings.Repeat(enter, 9) + // boot .. packaging defaults
		up + enter // java 17

	var stdout, stderr bytes.Buffer
	code := run([]string{"initializr", "new"}, strings.NewReader(keys), &stdout, &stderr)
	if code != exitCodeSuccess {
		t.Fatalf("expected success, got %d: %s", code, stderr.String())
	}
	content, err := os.ReadFile(filepath.Join(dir, "pom.xml"))
	if err != nil {
		t.Fatalf("read pom: %v", err)
	}
	if !strings.Contains(string(content), "<java.version>17</java.version>") {
		t.Fatalf("expected java 17, got %s", content)
	}
	if _, err := os.Stat(filepath.Join(dir, "src", "main", "kotlin", "com", "example", "demo", "DemoApplication.kt")); err != nil {
		t.Fatalf("expected kotlin source: %v", err)
	}
}

func TestRunInitializrRejectsUnknownProject(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "demo")
	var stdout, stderr bytes.Buffer
	code := run(nonInteractiveArgs(dir, "ant-project"), strings.NewReader(""), &stdout, &stderr)
	if code != exitCodeFailure {
		t.Fatalf("expected failure, got %d", code)
	}
	if !strings.Contains(stderr.String(), "unknown project type") {
		t.Fatalf("expected validation error, got %q", stderr.String())
	}
}

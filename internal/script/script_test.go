package script

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const wizardScript = `
name: maven wizard
command: ./springup-fixture
args: [initializr, new]
settle_delay: 200ms
steps:
  - wait_for: "Path:"
  - text: ${SCRATCH}/demo
  - key: enter
  - key: down
  - key: enter
    wait: 1s
  - key: enter
    repeat: 9
  - wait_for_regex: 'java\.version'
    timeout: 5s
  - wait_file: ${SCRATCH}/demo/pom.xml
  - file_contains:
      path: ${SCRATCH}/demo/pom.xml
      text: <java.version>17</java.version>
  - expect_exit: 0
  - sleep: 10ms
`

func TestDecodeScript(t *testing.T) {
	script, err := Decode(strings.NewReader(wizardScript))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if script.Name != "maven wizard" || script.Command != "./springup-fixture" {
		t.Fatalf("unexpected header %+v", script)
	}
	if script.SettleDelay.Std() != 200*time.Millisecond {
		t.Fatalf("expected 200ms settle delay, got %v", script.SettleDelay)
	}

	kinds := make([]string, 0, len(script.Steps))
	for _, step := range script.Steps {
		kinds = append(kinds, step.Kind())
	}
	want := "wait_for,text,key,key,key,key,wait_for_regex,wait_file,file_contains,expect_exit,sleep"
	if got := strings.Join(kinds, ","); got != want {
		t.Fatalf("expected kinds %s, got %s", want, got)
	}
	if script.Steps[4].Wait.Std() != time.Second || script.Steps[5].Repeat != 9 {
		t.Fatalf("unexpected step options %+v %+v", script.Steps[4], script.Steps[5])
	}
	if *script.Steps[9].ExpectExit != 0 {
		t.Fatalf("expected exit 0, got %d", *script.Steps[9].ExpectExit)
	}
}

func TestDecodeRejectsInvalidScripts(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"no steps":       "command: sh\n",
		"unknown key":    "steps:\n  - txt: hi\n",
		"no action":      "steps:\n  - wait: 1s\n",
		"two actions":    "steps:\n  - text: hi\n    key: enter\n",
		"bad key":        "steps:\n  - key: hyper\n",
		"bad regexp":     "steps:\n  - wait_for_regex: '('\n",
		"repeat on wait": "steps:\n  - wait_for: x\n    repeat: 2\n",
		"empty path":     "steps:\n  - file_contains: {text: x}\n",
		"bad duration":   "steps:\n  - sleep: later\n",
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(payload)); err == nil {
				t.Fatalf("expected error for %q", payload)
			}
		})
	}
}

func TestValidateReportsStepNumbers(t *testing.T) {
	script := Script{Steps: []Step{{Text: "ok"}, {}, {Key: "up", Text: "x"}}}
	err := script.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, want := range []string{"step 2: no action", "step 3: multiple actions: text, key"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestLoadDefaultsNameToPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "version.yaml")
	if err := os.WriteFile(path, []byte("steps:\n  - expect_exit: 0\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	script, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if script.Name != path {
		t.Fatalf("expected name %q, got %q", path, script.Name)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

// Package script runs YAML-described interactive scenarios against a
// harness.
package script

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"termharness/internal/config"
	"termharness/internal/terminal"

	"gopkg.in/yaml.v3"
)

// Script is one scenario: the program to start and the steps to drive it.
// Empty fields inherit from the suite configuration.
type Script struct {
	Name        string          `yaml:"name"`
	Command     string          `yaml:"command"`
	Args        []string        `yaml:"args"`
	Dir         string          `yaml:"dir"`
	Env         []string        `yaml:"env"`
	Cols        int             `yaml:"cols"`
	Rows        int             `yaml:"rows"`
	SettleDelay config.Duration `yaml:"settle_delay"`
	Timeout     config.Duration `yaml:"timeout"`
	Steps       []Step          `yaml:"steps"`
}

// Step holds exactly one action. Wait overrides the settle delay for input
// actions; Timeout bounds waiting actions.
type Step struct {
	Text         string          `yaml:"text,omitempty"`
	Key          string          `yaml:"key,omitempty"`
	Repeat       int             `yaml:"repeat,omitempty"`
	WaitFor      string          `yaml:"wait_for,omitempty"`
	WaitForRegex string          `yaml:"wait_for_regex,omitempty"`
	WaitFile     string          `yaml:"wait_file,omitempty"`
	FileContains *FileContains   `yaml:"file_contains,omitempty"`
	ExpectExit   *int            `yaml:"expect_exit,omitempty"`
	Sleep        config.Duration `yaml:"sleep,omitempty"`
	Wait         config.Duration `yaml:"wait,omitempty"`
	Timeout      config.Duration `yaml:"timeout,omitempty"`
}

type FileContains struct {
	Path string `yaml:"path"`
	Text string `yaml:"text"`
}

const (
	kindText         = "text"
	kindKey          = "key"
	kindWaitFor      = "wait_for"
	kindWaitForRegex = "wait_for_regex"
	kindWaitFile     = "wait_file"
	kindFileContains = "file_contains"
	kindExpectExit   = "expect_exit"
	kindSleep        = "sleep"
)

// Kind names the step's action, or "" when the step has none.
func (s Step) Kind() string {
	kinds := s.kinds()
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

func (s Step) kinds() []string {
	var kinds []string
	if s.Text != "" {
		kinds = append(kinds, kindText)
	}
	if s.Key != "" {
		kinds = append(kinds, kindKey)
	}
	if s.WaitFor != "" {
		kinds = append(kinds, kindWaitFor)
	}
	if s.WaitForRegex != "" {
		kinds = append(kinds, kindWaitForRegex)
	}
	if s.WaitFile != "" {
		kinds = append(kinds, kindWaitFile)
	}
	if s.FileContains != nil {
		kinds = append(kinds, kindFileContains)
	}
	if s.ExpectExit != nil {
		kinds = append(kinds, kindExpectExit)
	}
	if s.Sleep > 0 {
		kinds = append(kinds, kindSleep)
	}
	return kinds
}

func (s Step) validate() error {
	kinds := s.kinds()
	switch len(kinds) {
	case 0:
		return errors.New("no action")
	case 1:
	default:
		return fmt.Errorf("multiple actions: %s", strings.Join(kinds, ", "))
	}
	if s.Repeat < 0 {
		return fmt.Errorf("repeat must not be negative")
	}
	if s.Repeat > 0 && kinds[0] != kindKey && kinds[0] != kindText {
		return fmt.Errorf("repeat only applies to text and key")
	}
	switch kinds[0] {
	case kindKey:
		if _, err := terminal.ParseKey(s.Key); err != nil {
			return err
		}
	case kindWaitForRegex:
		if _, err := regexp.Compile(s.WaitForRegex); err != nil {
			return fmt.Errorf("invalid regexp: %w", err)
		}
	case kindFileContains:
		if strings.TrimSpace(s.FileContains.Path) == "" {
			return errors.New("file_contains needs a path")
		}
	}
	return nil
}

func (s Script) Validate() error {
	if len(s.Steps) == 0 {
		return errors.New("script has no steps")
	}
	if s.Cols < 0 || s.Rows < 0 {
		return errors.New("cols and rows must not be negative")
	}
	var errs []error
	for i, step := range s.Steps {
		if err := step.validate(); err != nil {
			errs = append(errs, fmt.Errorf("step %d: %w", i+1, err))
		}
	}
	return errors.Join(errs...)
}

// Decode reads and validates a script. Unknown keys are rejected.
func Decode(reader io.Reader) (Script, error) {
	var script Script
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)
	if err := decoder.Decode(&script); err != nil {
		if errors.Is(err, io.EOF) {
			return Script{}, errors.New("decode script: empty document")
		}
		return Script{}, fmt.Errorf("decode script: %w", err)
	}
	if err := script.Validate(); err != nil {
		return Script{}, err
	}
	return script, nil
}

func Load(path string) (Script, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("read script: %w", err)
	}
	script, err := Decode(bytes.NewReader(payload))
	if err != nil {
		return Script{}, fmt.Errorf("%s: %w", path, err)
	}
	if script.Name == "" {
		script.Name = path
	}
	return script, nil
}

package main

import (
	"fmt"
	"io"
	"strings"

	"termharness/internal/version"
)

type command struct {
	name string
	help string
	run  func(args []string, in io.Reader, out io.Writer) error
}

func commands() []command {
	return []command{
		{name: "help", help: "Display help about available commands", run: runHelp},
		{name: "version", help: "Show version info", run: runVersion},
		{name: "config list", help: "List configuration values", run: runConfigList},
		{name: "initializr new", help: "Create a new project from start.spring.io", run: runInitializrNew},
	}
}

// matchCommand picks the longest command name that prefixes fields.
func matchCommand(fields []string) (*command, []string) {
	var best *command
	bestWords := 0
	all := commands()
	for i := range all {
		words := strings.Fields(all[i].name)
		if len(words) > len(fields) || len(words) <= bestWords {
			continue
		}
		matched := true
		for j, word := range words {
			if fields[j] != word {
				matched = false
				break
			}
		}
		if matched {
			best = &all[i]
			bestWords = len(words)
		}
	}
	if best == nil {
		return nil, nil
	}
	return best, fields[bestWords:]
}

func runHelp(_ []string, _ io.Reader, out io.Writer) error {
	printHelp(out)
	return nil
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "AVAILABLE COMMANDS")
	fmt.Fprintln(out, "")
	for _, cmd := range commands() {
		fmt.Fprintf(out, "       %-16s %s\n", cmd.name+":", cmd.help)
	}
}

func runVersion(_ []string, _ io.Reader, out io.Writer) error {
	return version.GetVersionInfo().Write(out)
}

func runConfigList(_ []string, _ io.Reader, out io.Writer) error {
	defaults := defaultProject()
	rows := [][2]string{
		{"initializr.base-url", "https://start.spring.io"},
		{"initializr.project", defaults.Project},
		{"initializr.language", defaults.Language},
		{"initializr.boot-version", defaults.BootVersion},
		{"initializr.java-version", defaults.JavaVersion},
		{"initializr.packaging", defaults.Packaging},
	}
	fmt.Fprintf(out, "%-26s %s\n", "Key", "Value")
	for _, row := range rows {
		fmt.Fprintf(out, "%-26s %s\n", row[0], row[1])
	}
	return nil
}

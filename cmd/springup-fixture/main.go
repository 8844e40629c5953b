// Command springup-fixture is a small interactive project generator used as
// the program under test by the end-to-end suite. Arguments are joined and
// re-split on whitespace, so "initializr new" may arrive as one argument.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"termharness/internal/logging"
)

const (
	exitCodeSuccess  = 0
	exitCodeFailure  = 1
	exitCodeNotFound = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	fields := strings.Fields(strings.Join(args, " "))
	logger := logging.NewLoggerWithOutput(nil, logging.LevelError, errOut).With(map[string]string{
		"termharness.category": "fixture",
	})

	if len(fields) == 0 {
		printHelp(out)
		return exitCodeSuccess
	}

	command, rest := matchCommand(fields)
	if command == nil {
		fmt.Fprintf(errOut, "Command '%s' not found\n", strings.Join(fields, " "))
		return exitCodeNotFound
	}
	if err := command.run(rest, in, out); err != nil {
		logger.Error("command failed", map[string]string{
			"command": command.name,
			"error":   err.Error(),
		})
		fmt.Fprintln(errOut, err)
		return exitCodeFailure
	}
	return exitCodeSuccess
}

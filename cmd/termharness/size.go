package main

import (
	"io"
	"os"

	"golang.org/x/term"
)

// terminalSize reports the dimensions of out when it is a terminal.
func terminalSize(out io.Writer) (cols, rows int, ok bool) {
	file, isFile := out.(*os.File)
	if !isFile {
		return 0, 0, false
	}
	fd := int(file.Fd())
	if !term.IsTerminal(fd) {
		return 0, 0, false
	}
	cols, rows, err := term.GetSize(fd)
	if err != nil || cols <= 0 || rows <= 0 {
		return 0, 0, false
	}
	return cols, rows, true
}

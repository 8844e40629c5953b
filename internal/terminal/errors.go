package terminal

import (
	"errors"
	"fmt"
)

var (
	ErrSessionClosed  = errors.New("terminal session closed")
	ErrOutputAttached = errors.New("output handler already attached")
	ErrEmptyCommand   = errors.New("command is required")
)

// SpawnError reports that a child could not be started on a pseudo-terminal.
// The underlying cause is available through errors.Is / errors.As, e.g.
// exec.ErrNotFound or fs.ErrPermission.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Command == "" {
		return fmt.Sprintf("spawn: %v", e.Err)
	}
	return fmt.Sprintf("spawn %s: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

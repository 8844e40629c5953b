//go:build windows

package terminal

import "errors"

var errConPTYUnavailable = errors.New("windows PTY unavailable; ConPTY support is not implemented")

func startPty(spec StartSpec) (Pty, Process, error) {
	return nil, nil, errConPTYUnavailable
}

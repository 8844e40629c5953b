package terminal

import (
	"fmt"
	"strings"
)

// Key is the byte sequence a terminal sends for a key press. Cursor keys use
// the application-mode encodings (ESC O x) that full-screen prompts enable.
type Key string

const (
	KeyUp        Key = "\x1bOA"
	KeyDown      Key = "\x1bOB"
	KeyRight     Key = "\x1bOC"
	KeyLeft      Key = "\x1bOD"
	KeyEnter     Key = "\r"
	KeyTab       Key = "\t"
	KeyBackspace Key = "\x7f"
	KeyEscape    Key = "\x1b"
	KeySpace     Key = " "
)

var namedKeys = map[string]Key{
	"up":        KeyUp,
	"down":      KeyDown,
	"left":      KeyLeft,
	"right":     KeyRight,
	"enter":     KeyEnter,
	"return":    KeyEnter,
	"tab":       KeyTab,
	"backspace": KeyBackspace,
	"escape":    KeyEscape,
	"esc":       KeyEscape,
	"space":     KeySpace,
}

// Ctrl returns the control character for Ctrl+c, e.g. Ctrl('c') is ETX.
func Ctrl(c byte) Key {
	if c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
	}
	return Key([]byte{c & 0x1f})
}

// ParseKey resolves a key name such as "enter", "up" or "ctrl+c".
func ParseKey(name string) (Key, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if key, ok := namedKeys[normalized]; ok {
		return key, nil
	}
	for _, prefix := range []string{"ctrl+", "ctrl-", "c-"} {
		rest, ok := strings.CutPrefix(normalized, prefix)
		if !ok {
			continue
		}
		if len(rest) == 1 && rest[0] >= 'a' && rest[0] <= 'z' {
			return Ctrl(rest[0]), nil
		}
	}
	return "", fmt.Errorf("unknown key %q", name)
}

func (k Key) Bytes() []byte {
	return []byte(k)
}

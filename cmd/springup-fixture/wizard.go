package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

var errAborted = errors.New("aborted")

const (
	keyEnter     = '\r'
	keyNewline   = '\n'
	keyEscape    = 0x1b
	keyBackspace = 0x7f
	keyCtrlH     = 0x08
	keyCtrlC     = 0x03
)

type keyPress int

const (
	pressRune keyPress = iota
	pressEnter
	pressUp
	pressDown
	pressBackspace
	pressAbort
	pressOther
)

// wizard renders prompts on a raw terminal. Output always uses "\r\n"
// since raw mode disables newline translation.
type wizard struct {
	in  *bufio.Reader
	out io.Writer
}

func newWizard(in io.Reader, out io.Writer) *wizard {
	return &wizard{in: bufio.NewReader(in), out: out}
}

// Text asks for a free-form value. An empty answer selects fallback.
func (w *wizard) Text(label, fallback string) (string, error) {
	prompt := "? " + label + " "
	if fallback != "" {
		prompt += "[" + fallback + "] "
	}
	fmt.Fprint(w.out, prompt)

	var value []rune
	for {
		press, r, err := w.readKey()
		if err != nil {
			return "", err
		}
		switch press {
		case pressAbort:
			fmt.Fprint(w.out, "\r\n")
			return "", errAborted
		case pressEnter:
			answer := strings.TrimSpace(string(value))
			if answer == "" {
				answer = fallback
			}
			fmt.Fprintf(w.out, "\r\x1b[K? %s %s\r\n", label, answer)
			return answer, nil
		case pressBackspace:
			if len(value) > 0 {
				value = value[:len(value)-1]
				fmt.Fprint(w.out, "\b \b")
			}
		case pressRune:
			value = append(value, r)
			fmt.Fprint(w.out, string(r))
		}
	}
}

// Select asks for one of options, starting at the selected index. The
// list is redrawn in place as the selection moves.
func (w *wizard) Select(label string, options []string, selected int) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("%s: no options", label)
	}
	if selected < 0 || selected >= len(options) {
		selected = 0
	}
	fmt.Fprintf(w.out, "? %s [Use arrows to move]\r\n", label)
	w.drawOptions(options, selected)

	for {
		press, _, err := w.readKey()
		if err != nil {
			return "", err
		}
		switch press {
		case pressAbort:
			return "", errAborted
		case pressUp:
			if selected > 0 {
				selected--
			}
		case pressDown:
			if selected < len(options)-1 {
				selected++
			}
		case pressEnter:
			// Collapse the header and list into the answered prompt.
			fmt.Fprintf(w.out, "\x1b[%dA\r\x1b[J? %s %s\r\n", len(options)+1, label, options[selected])
			return options[selected], nil
		default:
			continue
		}
		fmt.Fprintf(w.out, "\x1b[%dA", len(options))
		w.drawOptions(options, selected)
	}
}

func (w *wizard) drawOptions(options []string, selected int) {
	for i, option := range options {
		marker := "  "
		if i == selected {
			marker = "> "
		}
		fmt.Fprintf(w.out, "\r\x1b[K%s%s\r\n", marker, option)
	}
}

func (w *wizard) readKey() (keyPress, rune, error) {
	r, _, err := w.in.ReadRune()
	if err != nil {
		return pressOther, 0, err
	}
	switch r {
	case keyEnter, keyNewline:
		return pressEnter, 0, nil
	case keyBackspace, keyCtrlH:
		return pressBackspace, 0, nil
	case keyCtrlC:
		return pressAbort, 0, nil
	case keyEscape:
		return w.readEscape()
	}
	if r < 0x20 {
		return pressOther, 0, nil
	}
	return pressRune, r, nil
}

// readEscape decodes ESC [ A/B and the application-mode ESC O A/B.
func (w *wizard) readEscape() (keyPress, rune, error) {
	intro, err := w.in.ReadByte()
	if err != nil {
		return pressOther, 0, err
	}
	if intro != '[' && intro != 'O' {
		return pressOther, 0, nil
	}
	for {
		final, err := w.in.ReadByte()
		if err != nil {
			return pressOther, 0, err
		}
		if final >= 0x40 && final <= 0x7e {
			switch final {
			case 'A':
				return pressUp, 0, nil
			case 'B':
				return pressDown, 0, nil
			}
			return pressOther, 0, nil
		}
	}
}

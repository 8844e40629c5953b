package terminal

import (
	"strconv"
	"sync"
	"time"

	"termharness/internal/logging"
)

const DefaultSettleDelay = 500 * time.Millisecond

// InputSink receives scripted input. Writes to a sink that is not running
// must be silent no-ops.
type InputSink interface {
	Write(data []byte) error
}

// Scripter issues keystrokes one at a time, each followed by a settle delay
// that gives the child time to consume input and repaint. A pending delay
// always runs to completion.
type Scripter struct {
	mu     sync.Mutex
	sink   InputSink
	settle time.Duration
	sleep  func(time.Duration)
	logger *logging.Logger
}

type ScripterOptions struct {
	SettleDelay time.Duration
	Logger      *logging.Logger
	// Sleep replaces time.Sleep, mainly for tests.
	Sleep func(time.Duration)
}

func NewScripter(sink InputSink, options ScripterOptions) *Scripter {
	settle := options.SettleDelay
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	sleep := options.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Scripter{
		sink:   sink,
		settle: settle,
		sleep:  sleep,
		logger: options.Logger,
	}
}

func (s *Scripter) SettleDelay() time.Duration {
	return s.settle
}

// SendText writes text literally. An optional wait overrides the settle
// delay; non-positive values fall back to it.
func (s *Scripter) SendText(text string, wait ...time.Duration) error {
	return s.send("text", []byte(text), wait)
}

func (s *Scripter) SendKey(key Key, wait ...time.Duration) error {
	return s.send("key", key.Bytes(), wait)
}

func (s *Scripter) SendUp(wait ...time.Duration) error {
	return s.SendKey(KeyUp, wait...)
}

func (s *Scripter) SendDown(wait ...time.Duration) error {
	return s.SendKey(KeyDown, wait...)
}

func (s *Scripter) SendEnter(wait ...time.Duration) error {
	return s.SendKey(KeyEnter, wait...)
}

func (s *Scripter) send(kind string, data []byte, wait []time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delay := s.settle
	if len(wait) > 0 && wait[0] > 0 {
		delay = wait[0]
	}
	if s.sink != nil {
		if err := s.sink.Write(data); err != nil {
			return err
		}
	}
	s.logger.Debug("scripted input", map[string]string{
		"kind":   kind,
		"bytes":  strconv.Quote(string(data)),
		"settle": delay.String(),
	})
	s.sleep(delay)
	return nil
}

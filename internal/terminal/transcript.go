package terminal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

const (
	transcriptQueueSize      = 256
	transcriptFlushInterval  = 100 * time.Millisecond
	transcriptFlushThreshold = 32 * 1024
)

// Transcript records a session in asciicast v2 form: a JSON header line,
// then one [elapsed, "o"|"i", data] line per output chunk or input write.
// Records are encoded on a background goroutine; Record blocks only when
// the queue is full so nothing is lost.
type Transcript struct {
	path    string
	file    *os.File
	writer  *bufio.Writer
	started time.Time

	records   chan transcriptRecord
	closeCh   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	blocked   atomic.Uint64
	closeErr  error
}

type transcriptRecord struct {
	at    time.Time
	input bool
	data  []byte
}

type transcriptHeader struct {
	Version   int               `json:"version"`
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Timestamp int64             `json:"timestamp"`
	Command   string            `json:"command,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
}

// CreateTranscript truncates path and writes the header for spec.
func CreateTranscript(path string, spec StartSpec) (*Transcript, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create transcript: %w", err)
	}
	spec = spec.normalized()
	now := time.Now()
	t := &Transcript{
		path:    path,
		file:    file,
		writer:  bufio.NewWriterSize(file, transcriptFlushThreshold),
		started: now,
		records: make(chan transcriptRecord, transcriptQueueSize),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	header, err := json.Marshal(transcriptHeader{
		Version:   2,
		Width:     int(spec.Cols),
		Height:    int(spec.Rows),
		Timestamp: now.Unix(),
		Command:   spec.Command,
		Env:       map[string]string{"TERM": spec.Term},
	})
	if err == nil {
		_, err = t.writer.Write(append(header, '\n'))
	}
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("write transcript header: %w", err)
	}
	go t.run()
	return t, nil
}

func (t *Transcript) Path() string {
	if t == nil {
		return ""
	}
	return t.path
}

// RecordOutput queues a chunk read from the program.
func (t *Transcript) RecordOutput(data []byte) {
	t.record(false, data)
}

// RecordInput queues bytes written to the program.
func (t *Transcript) RecordInput(data []byte) {
	t.record(true, data)
}

// Blocked counts records that had to wait for queue space.
func (t *Transcript) Blocked() uint64 {
	if t == nil {
		return 0
	}
	return t.blocked.Load()
}

func (t *Transcript) record(input bool, data []byte) {
	if t == nil || len(data) == 0 || t.closed.Load() {
		return
	}
	rec := transcriptRecord{at: time.Now(), input: input, data: append([]byte(nil), data...)}
	select {
	case t.records <- rec:
		return
	default:
	}
	t.blocked.Add(1)
	select {
	case t.records <- rec:
	case <-t.closeCh:
	}
}

// Close drains queued records, flushes and closes the file.
func (t *Transcript) Close() error {
	if t == nil {
		return nil
	}
	t.closeOnce.Do(func() {
		t.closed.Store(true)
		close(t.closeCh)
		<-t.done
	})
	return t.closeErr
}

func (t *Transcript) run() {
	defer close(t.done)

	ticker := time.NewTicker(transcriptFlushInterval)
	defer ticker.Stop()

	pending := 0
	flush := func(force bool) {
		if pending == 0 && !force {
			return
		}
		if err := t.writer.Flush(); err != nil && t.closeErr == nil {
			t.closeErr = err
		}
		pending = 0
	}
	write := func(rec transcriptRecord) {
		kind := "o"
		if rec.input {
			kind = "i"
		}
		elapsed := rec.at.Sub(t.started).Seconds()
		line, err := json.Marshal([]any{elapsed, kind, string(rec.data)})
		if err != nil {
			if t.closeErr == nil {
				t.closeErr = err
			}
			return
		}
		n, err := t.writer.Write(append(line, '\n'))
		if err != nil && t.closeErr == nil {
			t.closeErr = err
		}
		pending += n
		if pending >= transcriptFlushThreshold {
			flush(false)
		}
	}

	for {
		select {
		case rec := <-t.records:
			write(rec)
		case <-ticker.C:
			flush(false)
		case <-t.closeCh:
			for {
				select {
				case rec := <-t.records:
					write(rec)
				default:
					flush(true)
					if err := t.file.Close(); err != nil && t.closeErr == nil {
						t.closeErr = err
					}
					return
				}
			}
		}
	}
}

package logging

import (
	"sync"

	"termharness/internal/buffer"
)

type LogBuffer struct {
	mu      sync.Mutex
	entries *buffer.Ring[LogEntry]
}

func NewLogBuffer(size int) *LogBuffer {
	return &LogBuffer{
		entries: buffer.NewRing[LogEntry](size),
	}
}

func (b *LogBuffer) Add(entry LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.entries == nil {
		return
	}

	b.entries.Add(entry)
}

func (b *LogBuffer) List() []LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.entries.List()
}

// Messages returns entry messages at or above minLevel, oldest first.
func (b *LogBuffer) Messages(minLevel Level) []string {
	entries := b.List()
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if LevelAtLeast(entry.Level, minLevel) {
			out = append(out, entry.Message)
		}
	}
	return out
}

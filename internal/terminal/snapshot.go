package terminal

import (
	"regexp"
	"strings"
)

// Snapshot is the visible screen: one entry per row with content, top to
// bottom, trailing blanks trimmed.
type Snapshot []string

func (s Snapshot) String() string {
	return strings.Join(s, "\n")
}

// Contains reports whether any row contains substr.
func (s Snapshot) Contains(substr string) bool {
	for _, row := range s {
		if strings.Contains(row, substr) {
			return true
		}
	}
	return false
}

// Match reports whether any row matches re.
func (s Snapshot) Match(re *regexp.Regexp) bool {
	for _, row := range s {
		if re.MatchString(row) {
			return true
		}
	}
	return false
}

func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}

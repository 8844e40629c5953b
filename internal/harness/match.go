package harness

import (
	"fmt"
	"regexp"
	"strings"
)

// A Matcher reports whether a snapshot satisfies a condition. The string is
// a human-readable description for timeout errors.
type Matcher func(s Snapshot) (ok bool, description string)

// Text matches if any visible row contains s.
func Text(s string) Matcher {
	return func(snapshot Snapshot) (bool, string) {
		return snapshot.Contains(s), fmt.Sprintf("screen to contain %q", s)
	}
}

// Regexp matches if any visible row matches pattern. An invalid pattern
// panics.
func Regexp(pattern string) Matcher {
	re := regexp.MustCompile(pattern)
	return func(snapshot Snapshot) (bool, string) {
		return snapshot.Match(re), fmt.Sprintf("screen to match regexp %q", pattern)
	}
}

// Line matches if visible row n (0-indexed, blank rows skipped) equals s.
func Line(n int, s string) Matcher {
	return func(snapshot Snapshot) (bool, string) {
		desc := fmt.Sprintf("visible row %d to equal %q", n, s)
		if n < 0 || n >= len(snapshot) {
			return false, desc
		}
		return snapshot[n] == s, desc
	}
}

// LineContains matches if visible row n contains substr.
func LineContains(n int, substr string) Matcher {
	return func(snapshot Snapshot) (bool, string) {
		desc := fmt.Sprintf("visible row %d to contain %q", n, substr)
		if n < 0 || n >= len(snapshot) {
			return false, desc
		}
		return strings.Contains(snapshot[n], substr), desc
	}
}

func Empty() Matcher {
	return func(snapshot Snapshot) (bool, string) {
		return len(snapshot) == 0, "screen to be empty"
	}
}

func Not(m Matcher) Matcher {
	return func(snapshot Snapshot) (bool, string) {
		ok, desc := m(snapshot)
		return !ok, "NOT(" + desc + ")"
	}
}

// All matches when every matcher matches. It stops at the first miss.
func All(matchers ...Matcher) Matcher {
	return func(snapshot Snapshot) (bool, string) {
		descs := make([]string, 0, len(matchers))
		for _, m := range matchers {
			ok, desc := m(snapshot)
			descs = append(descs, desc)
			if !ok {
				return false, "all of: " + strings.Join(descs, ", ")
			}
		}
		return true, "all of: " + strings.Join(descs, ", ")
	}
}

// Any matches when at least one matcher matches.
func Any(matchers ...Matcher) Matcher {
	return func(snapshot Snapshot) (bool, string) {
		descs := make([]string, 0, len(matchers))
		for _, m := range matchers {
			ok, desc := m(snapshot)
			descs = append(descs, desc)
			if ok {
				return true, "any of: " + strings.Join(descs, ", ")
			}
		}
		return false, "any of: " + strings.Join(descs, ", ")
	}
}

package harness

import (
	"strings"
	"testing"
)

func TestMatchers(t *testing.T) {
	t.Parallel()

	screen := Snapshot{"Build Version: 1.2.3", "Git Short Commit Id: abc1234"}
	cases := []struct {
		name    string
		matcher Matcher
		want    bool
	}{
		{"text", Text("Build Version"), true},
		{"text miss", Text("Error"), false},
		{"regexp", Regexp(`Commit Id: [0-9a-f]{7}$`), true},
		{"line", Line(0, "Build Version: 1.2.3"), true},
		{"line out of range", Line(5, ""), false},
		{"line negative", Line(-1, ""), false},
		{"line contains", LineContains(1, "abc"), true},
		{"not", Not(Text("Error")), true},
		{"all", All(Text("Build"), Text("Git")), true},
		{"all miss", All(Text("Build"), Text("Error")), false},
		{"any", Any(Text("Error"), Text("Git")), true},
		{"any miss", Any(Text("Error"), Text("Panic")), false},
		{"empty", Empty(), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, desc := tc.matcher(screen)
			if ok != tc.want {
				t.Fatalf("expected %v for %s", tc.want, desc)
			}
			if desc == "" {
				t.Fatalf("expected a description")
			}
		})
	}
}

func TestMatcherDescriptions(t *testing.T) {
	t.Parallel()

	_, desc := All(Text("a"), Not(Text("b")))(Snapshot{"a"})
	if desc != `all of: screen to contain "a", NOT(screen to contain "b")` {
		t.Fatalf("unexpected description %q", desc)
	}
	_, desc = Any(Text("x"), Line(0, "y"))(Snapshot{})
	if !strings.HasPrefix(desc, "any of: ") || !strings.Contains(desc, `visible row 0 to equal "y"`) {
		t.Fatalf("unexpected description %q", desc)
	}
}

func TestEmptyMatchesBlankScreen(t *testing.T) {
	t.Parallel()

	if ok, _ := Empty()(Snapshot{}); !ok {
		t.Fatalf("expected empty screen to match")
	}
}

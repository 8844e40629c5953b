package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"termharness/internal/logging"
)

// ScratchDir is a per-test working directory under a suite root.
type ScratchDir struct {
	Path   string
	logger *logging.Logger
}

// NewScratchDir removes any leftover root/name and creates it empty. name
// may be a test name; path separators are flattened.
func NewScratchDir(root, name string, logger *logging.Logger) (*ScratchDir, error) {
	if strings.TrimSpace(root) == "" {
		root = os.TempDir()
	}
	cleaned := scratchName(name)
	if cleaned == "" {
		return nil, fmt.Errorf("invalid scratch dir name %q", name)
	}
	path := filepath.Join(root, cleaned)
	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("reset scratch dir: %w", err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &ScratchDir{
		Path: path,
		logger: logger.With(map[string]string{
			"termharness.category": "scratch",
			"path":                 path,
		}),
	}, nil
}

func (d *ScratchDir) Join(elem ...string) string {
	return filepath.Join(append([]string{d.Path}, elem...)...)
}

// Cleanup removes the directory. Failures are logged and otherwise ignored.
func (d *ScratchDir) Cleanup() {
	if d == nil || d.Path == "" {
		return
	}
	if err := os.RemoveAll(d.Path); err != nil {
		d.logger.Warn("scratch cleanup failed", map[string]string{
			"error": err.Error(),
		})
	}
}

func scratchName(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", " ", "_", ":", "_")
	cleaned := strings.Trim(replacer.Replace(strings.TrimSpace(name)), "._")
	if strings.Contains(cleaned, "..") {
		return ""
	}
	return cleaned
}

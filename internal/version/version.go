package version

import (
	"fmt"
	"io"
	"strconv"
)

// Version values are set at build time using -ldflags.
var Version = "dev"
var Major = "0"
var Minor = "0"
var Patch = "0"
var Built = ""
var GitCommit = ""

const shortCommitLength = 7

type VersionInfo struct {
	Version   string `json:"version"`
	Major     int    `json:"major"`
	Minor     int    `json:"minor"`
	Patch     int    `json:"patch"`
	Built     string `json:"built"`
	GitCommit string `json:"git_commit,omitempty"`
}

func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		Major:     parseInt(Major),
		Minor:     parseInt(Minor),
		Patch:     parseInt(Patch),
		Built:     Built,
		GitCommit: GitCommit,
	}
}

// ShortCommit is the abbreviated commit id, or "unknown".
func (info VersionInfo) ShortCommit() string {
	if info.GitCommit == "" {
		return "unknown"
	}
	if len(info.GitCommit) <= shortCommitLength {
		return info.GitCommit
	}
	return info.GitCommit[:shortCommitLength]
}

// Write prints the build report shown by the version commands.
func (info VersionInfo) Write(w io.Writer) error {
	built := info.Built
	if built == "" {
		built = "unknown"
	}
	_, err := fmt.Fprintf(w, "Build Version: %s\nGit Short Commit Id: %s\nBuild Time: %s\n", info.Version, info.ShortCommit(), built)
	return err
}

func parseInt(value string) int {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return parsed
}

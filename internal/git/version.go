package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Minimum git version: --update-refs was added in 2.38.
const (
	minGitMajor = 2
	minGitMinor = 38
)

// ErrGitNotFound indicates git is not installed or not in PATH.
var ErrGitNotFound = errors.New("git not found: please install git (https://git-scm.com)")

// CheckGit verifies that git is available in PATH.
func CheckGit() error {
	if _, err := exec.LookPath("git"); err != nil {
		return ErrGitNotFound
	}
	return nil
}

// CheckVersion verifies the installed git meets the minimum version.
func CheckVersion(ctx context.Context) error {
	out, err := outputGit(ctx, "", "--version")
	if err != nil {
		return ErrGitNotFound
	}
	raw := strings.TrimSpace(string(out))

	major, minor, ok := parseGitVersion(raw)
	if !ok {
		return fmt.Errorf("could not parse git version from %q", raw)
	}

	if major < minGitMajor || (major == minGitMajor && minor < minGitMinor) {
		return &VersionTooOldError{Major: major, Minor: minor, Raw: raw}
	}
	return nil
}

// parseGitVersion parses "git version X.Y.Z..." into (X, Y).
func parseGitVersion(s string) (major, minor int, ok bool) {
	rest, found := strings.CutPrefix(strings.TrimSpace(s), "git version ")
	if !found {
		return 0, 0, false
	}
	parts := strings.Split(rest, ".")
	if len(parts) < 2 {
		return 0, 0, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return major, minor, true
}

package git

import (
	"errors"
	"fmt"
)

// Sentinel errors for repository preconditions.
var (
	ErrNotARepo     = errors.New("not a git repository")
	ErrBareRepo     = errors.New("bare repository: git-loom needs a working tree")
	ErrDetachedHead = errors.New("HEAD is detached: switch to an integration branch")

	// ErrNotOnIntegration marks commands that only make sense on an
	// integration branch.
	ErrNotOnIntegration = errors.New("must be on an integration branch\nUse plain git directly on feature branches")

	// ErrWorkingTreePreservation reports that restoring the user's
	// uncommitted changes after a rewrite failed; the operation was rolled
	// back.
	ErrWorkingTreePreservation = errors.New("failed to restore working tree changes, operation rolled back")

	ErrNothingToCommit         = errors.New("nothing to commit")
	ErrNothingToAbsorb         = errors.New("nothing to absorb: make some changes to tracked files first")
	ErrMergeNotSplittable      = errors.New("cannot split a merge commit")
	ErrSingleFileNotSplittable = errors.New("cannot split a commit with only one file")
)

// NoUpstreamError indicates the current branch has no upstream tracking ref.
type NoUpstreamError struct {
	Branch string
}

func (e *NoUpstreamError) Error() string {
	return fmt.Sprintf("branch %q has no upstream tracking branch\nSet one with: git branch --set-upstream-to=origin/main %s", e.Branch, e.Branch)
}

// VersionTooOldError indicates the installed git predates --update-refs.
type VersionTooOldError struct {
	Major, Minor int
	Raw          string
}

func (e *VersionTooOldError) Error() string {
	return fmt.Sprintf("git %d.%d is too old: git-loom requires git %d.%d or later (for --update-refs)\nCurrent version: %s",
		e.Major, e.Minor, minGitMajor, minGitMinor, e.Raw)
}

// UnresolvedTargetError indicates a token matched no branch, revision, short
// ID or file.
type UnresolvedTargetError struct {
	Token string
}

func (e *UnresolvedTargetError) Error() string {
	return fmt.Sprintf("cannot resolve %q to a branch, commit, file or short ID\nRun `git-loom status` to see available IDs", e.Token)
}

// AmbiguousTargetError indicates a token matched more than one entity.
type AmbiguousTargetError struct {
	Token string
}

func (e *AmbiguousTargetError) Error() string {
	return fmt.Sprintf("%q is ambiguous", e.Token)
}

// InvalidNameError indicates a branch name git would reject.
type InvalidNameError struct {
	Name   string
	Reason string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid branch name %q: %s", e.Name, e.Reason)
}

// DuplicateBranchError indicates a branch that already exists.
type DuplicateBranchError struct {
	Name string
}

func (e *DuplicateBranchError) Error() string {
	return fmt.Sprintf("branch %q already exists", e.Name)
}

// NotInIntegrationRangeError indicates a branch outside merge-base..HEAD.
type NotInIntegrationRangeError struct {
	Name string
}

func (e *NotInIntegrationRangeError) Error() string {
	return fmt.Sprintf("branch %q is not in the integration range\nUse `git branch -d %s` to delete it directly", e.Name, e.Name)
}

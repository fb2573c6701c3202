// Package git provides the repository model for git-loom.
//
// Reads go through go-git: refs, commit walks, merge-base, status, blame and
// revision parsing never spawn a process. Mutations (every rebase, commit,
// reset and ref update) shell out to the git CLI instead, so user
// configuration (hooks, signing, credential helpers) keeps working exactly as
// it does from the terminal.
package git

import (
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Repo is an opened repository with a working tree.
type Repo struct {
	gg      *gogit.Repository
	workdir string
}

// Open discovers and opens the repository containing path.
// Bare repositories are rejected.
func Open(path string) (*Repo, error) {
	gg, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, ErrNotARepo
		}
		return nil, err
	}

	wt, err := gg.Worktree()
	if err != nil {
		if errors.Is(err, gogit.ErrIsBareRepository) {
			return nil, ErrBareRepo
		}
		return nil, err
	}

	return &Repo{gg: gg, workdir: wt.Filesystem.Root()}, nil
}

// Wrap adapts an already-opened go-git repository (used by tests that build
// repositories in memory).
func Wrap(gg *gogit.Repository, workdir string) *Repo {
	return &Repo{gg: gg, workdir: workdir}
}

// Workdir returns the working tree root.
func (r *Repo) Workdir() string { return r.workdir }

// Underlying exposes the go-git repository for read-side operations.
func (r *Repo) Underlying() *gogit.Repository { return r.gg }

// Head returns the current branch name and its tip.
// Returns ErrDetachedHead when HEAD is not on a branch.
func (r *Repo) Head() (branch string, tip plumbing.Hash, err error) {
	ref, err := r.gg.Head()
	if err != nil {
		return "", plumbing.ZeroHash, fmt.Errorf("resolve HEAD: %w", err)
	}
	if !ref.Name().IsBranch() {
		return "", plumbing.ZeroHash, ErrDetachedHead
	}
	return ref.Name().Short(), ref.Hash(), nil
}

// HeadOID returns the tip of the current branch.
func (r *Repo) HeadOID() (plumbing.Hash, error) {
	_, tip, err := r.Head()
	return tip, err
}

// Upstream returns the tracking ref label (e.g. "origin/main") and tip for
// the given local branch. Returns a NoUpstreamError when none is configured
// or the tracking ref does not exist.
func (r *Repo) Upstream(branch string) (label string, tip plumbing.Hash, err error) {
	cfg, err := r.gg.Config()
	if err != nil {
		return "", plumbing.ZeroHash, err
	}

	b, ok := cfg.Branches[branch]
	if !ok || b.Remote == "" || b.Merge == "" {
		return "", plumbing.ZeroHash, &NoUpstreamError{Branch: branch}
	}

	short := b.Merge.Short()
	ref, err := r.gg.Reference(plumbing.NewRemoteReferenceName(b.Remote, short), true)
	if err != nil {
		return "", plumbing.ZeroHash, &NoUpstreamError{Branch: branch}
	}

	return b.Remote + "/" + short, ref.Hash(), nil
}

// MergeBase returns the youngest common ancestor of two commits.
func (r *Repo) MergeBase(a, b plumbing.Hash) (plumbing.Hash, error) {
	ca, err := r.gg.CommitObject(a)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	cb, err := r.gg.CommitObject(b)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	bases, err := ca.MergeBase(cb)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("merge-base: %w", err)
	}
	if len(bases) == 0 {
		return plumbing.ZeroHash, fmt.Errorf("no common ancestor between %s and %s", a, b)
	}
	return bases[0].Hash, nil
}

// Commit loads a commit object.
func (r *Repo) Commit(h plumbing.Hash) (*object.Commit, error) {
	return r.gg.CommitObject(h)
}

// ResolveRevision parses a revision the way git does (hashes, short hashes,
// refs, HEAD~2, ...).
func (r *Repo) ResolveRevision(rev string) (plumbing.Hash, error) {
	h, err := r.gg.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return *h, nil
}

// BranchTip returns the tip of a local branch, or an error if it doesn't
// exist.
func (r *Repo) BranchTip(name string) (plumbing.Hash, error) {
	ref, err := r.gg.Reference(plumbing.NewBranchReferenceName(name), true)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return ref.Hash(), nil
}

// BranchExists reports whether a local branch exists.
func (r *Repo) BranchExists(name string) bool {
	_, err := r.BranchTip(name)
	return err == nil
}

// IsDescendant reports whether child is a descendant of ancestor.
func (r *Repo) IsDescendant(child, ancestor plumbing.Hash) (bool, error) {
	if child == ancestor {
		return false, nil
	}
	cc, err := r.gg.CommitObject(child)
	if err != nil {
		return false, err
	}
	ca, err := r.gg.CommitObject(ancestor)
	if err != nil {
		return false, err
	}
	return ca.IsAncestor(cc)
}

// IsOnFirstParentLine reports whether target sits on the first-parent line
// between head (inclusive) and stop (exclusive).
func (r *Repo) IsOnFirstParentLine(head, stop, target plumbing.Hash) (bool, error) {
	current := head
	for current != stop {
		if current == target {
			return true, nil
		}
		c, err := r.gg.CommitObject(current)
		if err != nil {
			return false, err
		}
		if c.NumParents() == 0 {
			break
		}
		current = c.ParentHashes[0]
	}
	return false, nil
}

// ShortHash truncates a full hash string to 7 characters for display.
func ShortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}

package git

import (
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/loomkit/git-loom/internal/shortid"
)

// Target is the resolved form of a user token: commit, branch, file, the
// unstaged working tree, or one file within a commit.
type Target interface {
	targetKind() string
}

// CommitTarget is a resolved commit.
type CommitTarget struct {
	OID plumbing.Hash
}

// BranchTarget is a resolved local branch.
type BranchTarget struct {
	Name string
}

// FileTarget is a file with working tree changes.
type FileTarget struct {
	Path string
}

// UnstagedTarget is the unstaged working tree (the reserved token "zz").
type UnstagedTarget struct{}

// CommitFileTarget is the index-th changed file of a commit.
type CommitFileTarget struct {
	OID   plumbing.Hash
	Index int
	Path  string
}

func (CommitTarget) targetKind() string     { return "commit" }
func (BranchTarget) targetKind() string     { return "branch" }
func (FileTarget) targetKind() string       { return "file" }
func (UnstagedTarget) targetKind() string   { return "unstaged" }
func (CommitFileTarget) targetKind() string { return "commit file" }

// Resolver translates user tokens into targets. Precedence: exact branch
// name, then git revision, then short ID. Tokens containing ":" are only
// resolved as "<commit>:<index>" commit files.
type Resolver struct {
	repo *Repo
	info *RepoInfo
	ids  *shortid.Allocator
}

// NewResolver builds a resolver (and its short-ID allocation) for one
// command invocation.
func NewResolver(repo *Repo, info *RepoInfo) *Resolver {
	return &Resolver{repo: repo, info: info, ids: NewAllocator(info)}
}

// NewAllocator allocates short IDs for everything visible in the status:
// the unstaged tree, changed files, branches in range and range commits.
func NewAllocator(info *RepoInfo) *shortid.Allocator {
	entities := []shortid.Entity{shortid.Unstaged()}
	for _, f := range info.WorkingChanges {
		entities = append(entities, shortid.File(f.Path))
	}
	for _, b := range info.Branches {
		entities = append(entities, shortid.Branch(b.Name))
	}
	for _, c := range info.Commits {
		entities = append(entities, shortid.Commit(c.OID))
	}
	return shortid.New(entities)
}

// Allocator exposes the short-ID assignment for rendering.
func (r *Resolver) Allocator() *shortid.Allocator { return r.ids }

// Resolve maps a token to a target, or fails with UnresolvedTargetError.
func (r *Resolver) Resolve(token string) (Target, error) {
	if r.repo.BranchExists(token) {
		return BranchTarget{Name: token}, nil
	}

	// go-git ignores a ":<path>" suffix when resolving a revision, so these
	// tokens never reach the revision step.
	if strings.Contains(token, ":") {
		if target, ok := r.resolveCommitFile(token); ok {
			return target, nil
		}
		return nil, &UnresolvedTargetError{Token: token}
	}

	if h, err := r.repo.ResolveRevision(token); err == nil {
		// Revisions can name non-commit objects; only commits are targets.
		if _, cerr := r.repo.Commit(h); cerr == nil {
			return CommitTarget{OID: h}, nil
		}
	} else if strings.Contains(err.Error(), "ambiguous") {
		return nil, &AmbiguousTargetError{Token: token}
	}

	if e, ok := r.ids.Lookup(token); ok {
		switch e.Kind {
		case shortid.KindUnstaged:
			return UnstagedTarget{}, nil
		case shortid.KindBranch:
			return BranchTarget{Name: e.Name}, nil
		case shortid.KindCommit:
			return CommitTarget{OID: e.Hash}, nil
		case shortid.KindFile:
			return FileTarget{Path: e.Name}, nil
		}
	}

	return nil, &UnresolvedTargetError{Token: token}
}

// resolveCommitFile handles "<commit>:<index>" tokens. The prefix may be a
// commit short ID or any revision; the index must address an existing
// changed file of that commit.
func (r *Resolver) resolveCommitFile(token string) (Target, bool) {
	prefix, idxStr, found := strings.Cut(token, ":")
	if !found || prefix == "" {
		return nil, false
	}
	index, err := strconv.Atoi(idxStr)
	if err != nil || index < 0 {
		return nil, false
	}

	var oid plumbing.Hash
	if e, ok := r.ids.Lookup(prefix); ok && e.Kind == shortid.KindCommit {
		oid = e.Hash
	} else if h, err := r.repo.ResolveRevision(prefix); err == nil {
		oid = h
	} else {
		return nil, false
	}

	files, err := r.repo.CommitFiles(oid)
	if err != nil || index >= len(files) {
		return nil, false
	}

	return CommitFileTarget{OID: oid, Index: index, Path: files[index].Path}, true
}

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/loomkit/git-loom/internal/git"
	"github.com/loomkit/git-loom/internal/ui/prompt"
	"github.com/loomkit/git-loom/internal/weave"
)

// runReword renames a branch or rewrites a commit message.
func runReword(ctx context.Context, target string, message string, hasMessage bool) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}

	resolved, err := resolveAnywhere(repo, target)
	if err != nil {
		return err
	}

	switch t := resolved.(type) {
	case git.BranchTarget:
		newName := message
		if !hasMessage {
			result, err := prompt.TextInput("New branch name", t.Name)
			if err != nil {
				return err
			}
			if result.Cancelled {
				return fmt.Errorf("cancelled")
			}
			newName = result.Value
		}
		newName = strings.TrimSpace(newName)
		if err := git.ValidateBranchName(ctx, newName); err != nil {
			return err
		}
		if err := git.RenameBranch(ctx, repo.Workdir(), t.Name, newName); err != nil {
			return err
		}
		success(ctx, "Renamed branch `%s` to `%s`", t.Name, newName)
		return nil

	case git.CommitTarget:
		var msg *string
		if hasMessage {
			msg = &message
		}
		return rewordCommit(ctx, repo, t.OID, msg)

	case git.FileTarget:
		return fmt.Errorf("cannot reword a file; use `git add` to stage file changes")
	case git.UnstagedTarget:
		return fmt.Errorf("cannot reword unstaged changes")
	default:
		return fmt.Errorf("cannot reword a %s", targetKindName(resolved))
	}
}

// resolveAnywhere resolves a token with the full resolver when an upstream
// exists, falling back to branch/revision matching for plain repositories.
// Reword is the one command family that works without an integration branch.
func resolveAnywhere(repo *git.Repo, token string) (git.Target, error) {
	info, err := repo.GatherInfo(git.GatherOptions{})
	if err == nil {
		return git.NewResolver(repo, info).Resolve(token)
	}
	var noUp *git.NoUpstreamError
	if !errors.As(err, &noUp) && !errors.Is(err, git.ErrDetachedHead) {
		return nil, err
	}

	if repo.BranchExists(token) {
		return git.BranchTarget{Name: token}, nil
	}
	if h, rerr := repo.ResolveRevision(token); rerr == nil {
		return git.CommitTarget{OID: h}, nil
	}
	return nil, &git.UnresolvedTargetError{Token: token}
}

// rewordCommit pauses an interactive rebase at the commit, amends its
// message and continues.
func rewordCommit(ctx context.Context, repo *git.Repo, oid plumbing.Hash, message *string) error {
	workdir := repo.Workdir()

	if err := startEditRebase(ctx, repo, oid); err != nil {
		return err
	}

	if err := git.Amend(ctx, workdir, message); err != nil {
		_ = git.RebaseAbort(ctx, workdir)
		return err
	}

	if err := weave.Continue(ctx, workdir); err != nil {
		return err
	}

	newHead, err := repo.HeadOID()
	if err != nil {
		return err
	}
	success(ctx, "Updated commit message for `%s` (now `%s`)",
		git.ShortHash(oid.String()), git.ShortHash(newHead.String()))
	return nil
}

// startEditRebase runs a rebase that stops at the given commit.
//
// The full weave is used on integration branches; repositories without an
// upstream get a degenerate linear program over the first-parent line.
func startEditRebase(ctx context.Context, repo *git.Repo, oid plumbing.Hash) error {
	graph, err := weave.Build(repo)
	if err != nil {
		graph, err = linearEditWeave(repo, oid)
		if err != nil {
			return err
		}
	}

	if err := graph.EditCommit(oid); err != nil {
		return err
	}
	todo, err := graph.Serialize()
	if err != nil {
		return err
	}

	var from *plumbing.Hash
	if graph.BaseOID != plumbing.ZeroHash {
		base := graph.BaseOID
		from = &base
	}
	return weave.RunRebase(ctx, repo.Workdir(), from, todo)
}

// linearEditWeave builds the fallback program: picks from the target's
// parent (or the root) up to HEAD.
func linearEditWeave(repo *git.Repo, oid plumbing.Hash) (*weave.Weave, error) {
	commit, err := repo.Commit(oid)
	if err != nil {
		return nil, err
	}
	var from *plumbing.Hash
	if commit.NumParents() > 0 {
		parent := commit.ParentHashes[0]
		from = &parent
	}
	return weave.BuildLinear(repo, from)
}

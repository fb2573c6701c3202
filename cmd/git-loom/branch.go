package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/loomkit/git-loom/internal/git"
	"github.com/loomkit/git-loom/internal/ui/prompt"
	"github.com/loomkit/git-loom/internal/weave"
)

// runBranch creates a feature branch at a target commit. When the target
// lies strictly between the merge-base and HEAD on the first-parent line,
// the new branch is woven: its commits move onto a side branch joined by a
// merge commit.
func runBranch(ctx context.Context, name, target string) error {
	repo, info, err := openRepoInfo(git.GatherOptions{})
	if err != nil {
		return err
	}

	if name == "" {
		result, err := prompt.TextInput("Branch name", "")
		if err != nil {
			return err
		}
		if result.Cancelled {
			return fmt.Errorf("cancelled")
		}
		name = result.Value
	}
	name = strings.TrimSpace(name)

	if err := git.ValidateBranchName(ctx, name); err != nil {
		return err
	}
	if repo.BranchExists(name) {
		return &git.DuplicateBranchError{Name: name}
	}

	targetOID, err := resolveBranchPoint(repo, info, target)
	if err != nil {
		return err
	}

	if err := git.CreateBranch(ctx, repo.Workdir(), name, targetOID.String()); err != nil {
		return err
	}

	head, err := repo.HeadOID()
	if err != nil {
		return err
	}
	base := info.Upstream.MergeBaseOID

	// Weave only when the target sits strictly inside the first-parent
	// range. At HEAD or the base there is nothing to restructure, and a
	// commit already on a side branch stays where it is.
	if targetOID != head && targetOID != base {
		onLine, err := repo.IsOnFirstParentLine(head, base, targetOID)
		if err != nil {
			return err
		}
		if onLine {
			if err := weaveNewBranch(ctx, repo, name); err != nil {
				return err
			}
		}
	}

	success(ctx, "Created branch `%s` at `%s`", name, git.ShortHash(targetOID.String()))
	return nil
}

// weaveNewBranch rebuilds the topology so the just-created branch becomes a
// woven side branch.
func weaveNewBranch(ctx context.Context, repo *git.Repo, name string) error {
	graph, err := weave.Build(repo)
	if err != nil {
		return err
	}
	if err := graph.WeaveBranch(name); err != nil {
		return err
	}
	todo, err := graph.Serialize()
	if err != nil {
		return err
	}
	if err := weave.RunRebase(ctx, repo.Workdir(), &graph.BaseOID, todo); err != nil {
		// The rebase was aborted; remove the ref we just created.
		_ = git.DeleteBranch(ctx, repo.Workdir(), name)
		return err
	}
	return nil
}

// resolveBranchPoint maps the -t argument to a commit; the default is the
// merge-base.
func resolveBranchPoint(repo *git.Repo, info *git.RepoInfo, target string) (plumbing.Hash, error) {
	if target == "" {
		return info.Upstream.MergeBaseOID, nil
	}

	resolver := git.NewResolver(repo, info)
	resolved, err := resolver.Resolve(target)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	switch t := resolved.(type) {
	case git.CommitTarget:
		return t.OID, nil
	case git.BranchTarget:
		return repo.BranchTip(t.Name)
	default:
		return plumbing.ZeroHash, fmt.Errorf("target must be a commit or branch, not a %s", targetKindName(resolved))
	}
}

func targetKindName(t git.Target) string {
	switch t.(type) {
	case git.CommitTarget:
		return "commit"
	case git.BranchTarget:
		return "branch"
	case git.FileTarget:
		return "file"
	case git.UnstagedTarget:
		return "working tree"
	case git.CommitFileTarget:
		return "commit file"
	}
	return "target"
}

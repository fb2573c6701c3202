package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/loomkit/git-loom/internal/git"
	"github.com/loomkit/git-loom/internal/ui/prompt"
	"github.com/loomkit/git-loom/internal/weave"
)

// runCommit creates a commit on a feature branch without leaving the
// integration branch: stage, commit at HEAD, then relocate the commit onto
// the target branch through one rebase.
func runCommit(ctx context.Context, branch string, message *string, files []string) error {
	repo, info, err := openRepoInfo(git.GatherOptions{})
	if err != nil {
		var noUp *git.NoUpstreamError
		if errors.As(err, &noUp) {
			return git.ErrNotOnIntegration
		}
		return err
	}
	workdir := repo.Workdir()

	if err := resolveStaging(ctx, repo, info, files); err != nil {
		return err
	}

	staged, err := repo.HasStagedChanges()
	if err != nil {
		return err
	}
	if !staged {
		return git.ErrNothingToCommit
	}

	head, err := repo.HeadOID()
	if err != nil {
		return err
	}

	// Loose commit: no target branch requested and the local branch matches
	// the remote. Commit directly on integration.
	if branch == "" && head == info.Upstream.MergeBaseOID {
		if err := commitIndex(ctx, workdir, message); err != nil {
			return err
		}
		newHead, err := repo.HeadOID()
		if err != nil {
			return err
		}
		success(ctx, "Created commit `%s`", git.ShortHash(newHead.String()))
		return nil
	}

	savedHead := head

	branchName, created, err := resolveCommitBranch(ctx, repo, info, branch)
	if err != nil {
		return err
	}

	// Empty branches (tip at the merge-base) need a fresh section and merge
	// entry before the commit can move there.
	tip, err := repo.BranchTip(branchName)
	if err != nil {
		return err
	}
	branchIsEmpty := tip == info.Upstream.MergeBaseOID

	if err := commitIndex(ctx, workdir, message); err != nil {
		if created {
			_ = git.DeleteBranch(ctx, workdir, branchName)
		}
		return err
	}

	newHead, err := repo.HeadOID()
	if err != nil {
		return err
	}

	graph, err := weave.BuildFromInfo(repo, info)
	if err != nil {
		return err
	}
	if branchIsEmpty {
		graph.AddBranchSection(branchName, []string{branchName}, nil, "onto")
		graph.AddMerge(branchName, nil, -1)
	}
	if err := graph.MoveCommit(newHead, branchName); err != nil {
		return err
	}

	todo, err := graph.Serialize()
	if err != nil {
		return err
	}
	if err := weave.RunRebase(ctx, workdir, &graph.BaseOID, todo); err != nil {
		// Mixed reset keeps the committed content in the working tree.
		_ = git.ResetMixed(ctx, workdir, savedHead.String())
		if created || branchIsEmpty {
			_ = git.DeleteBranch(ctx, workdir, branchName)
		}
		return err
	}

	success(ctx, "Created commit `%s` on branch `%s`", git.ShortHash(newHead.String()), branchName)
	return nil
}

func commitIndex(ctx context.Context, workdir string, message *string) error {
	if message != nil {
		return git.CommitMsg(ctx, workdir, *message)
	}
	return git.CommitEditor(ctx, workdir)
}

// resolveStaging stages the requested files: nothing keeps the index as-is,
// "zz" stages everything, anything else resolves as a short ID or path.
func resolveStaging(ctx context.Context, repo *git.Repo, info *git.RepoInfo, files []string) error {
	if len(files) == 0 {
		return nil
	}
	for _, f := range files {
		if f == "zz" {
			return git.StageAll(ctx, repo.Workdir())
		}
	}

	resolver := git.NewResolver(repo, info)
	var paths []string
	for _, arg := range files {
		path, err := resolveFileArg(repo, resolver, arg)
		if err != nil {
			return err
		}
		paths = append(paths, path)
	}
	return git.StageFiles(ctx, repo.Workdir(), paths)
}

// resolveFileArg maps an argument to a file path: short ID first, then a
// literal path.
func resolveFileArg(repo *git.Repo, resolver *git.Resolver, arg string) (string, error) {
	if resolved, err := resolver.Resolve(arg); err == nil {
		if f, ok := resolved.(git.FileTarget); ok {
			return f.Path, nil
		}
		return "", fmt.Errorf("target %q is not a file", arg)
	}
	if _, err := os.Stat(filepath.Join(repo.Workdir(), arg)); err == nil {
		return arg, nil
	}
	return "", fmt.Errorf("file %q not found", arg)
}

// resolveCommitBranch picks the target feature branch: an explicit name or
// short ID, or an interactive picker. Unknown names become new branches at
// the merge-base. Reports whether a branch was created.
func resolveCommitBranch(ctx context.Context, repo *git.Repo, info *git.RepoInfo, branch string) (string, bool, error) {
	woven := make(map[string]bool, len(info.Branches))
	var names []string
	for _, b := range info.Branches {
		woven[b.Name] = true
		names = append(names, b.Name)
	}

	if branch == "" {
		return pickCommitBranch(ctx, repo, info, names, woven)
	}

	resolver := git.NewResolver(repo, info)
	resolved, err := resolver.Resolve(branch)
	if err != nil {
		// Treat as a new branch name.
		name := strings.TrimSpace(branch)
		if err := git.ValidateBranchName(ctx, name); err != nil {
			return "", false, err
		}
		if repo.BranchExists(name) {
			return "", false, fmt.Errorf("branch %q exists but is not woven into the integration branch", name)
		}
		if err := createBranchAtBase(ctx, repo, info, name); err != nil {
			return "", false, err
		}
		return name, true, nil
	}

	switch t := resolved.(type) {
	case git.BranchTarget:
		if !woven[t.Name] {
			return "", false, &weave.BranchNotWovenError{Name: t.Name}
		}
		return t.Name, false, nil
	default:
		return "", false, fmt.Errorf("target must be a branch, not a %s", targetKindName(resolved))
	}
}

// pickCommitBranch shows the interactive picker: an existing woven branch or
// a typed new name.
func pickCommitBranch(ctx context.Context, repo *git.Repo, info *git.RepoInfo, names []string, woven map[string]bool) (string, bool, error) {
	var name string
	if len(names) == 0 {
		result, err := prompt.TextInput("Branch name", "")
		if err != nil {
			return "", false, err
		}
		if result.Cancelled {
			return "", false, fmt.Errorf("cancelled")
		}
		name = result.Value
	} else {
		result, err := prompt.SelectOrInput("Select target branch", names, "Branch name")
		if err != nil {
			return "", false, err
		}
		if result.Cancelled {
			return "", false, fmt.Errorf("cancelled")
		}
		name = result.Value
	}

	name = strings.TrimSpace(name)
	if woven[name] {
		return name, false, nil
	}

	if err := git.ValidateBranchName(ctx, name); err != nil {
		return "", false, err
	}
	if repo.BranchExists(name) {
		return "", false, fmt.Errorf("branch %q exists but is not woven into the integration branch", name)
	}
	if err := createBranchAtBase(ctx, repo, info, name); err != nil {
		return "", false, err
	}
	return name, true, nil
}

func createBranchAtBase(ctx context.Context, repo *git.Repo, info *git.RepoInfo, name string) error {
	base := info.Upstream.MergeBaseOID.String()
	if err := git.CreateBranch(ctx, repo.Workdir(), name, base); err != nil {
		return err
	}
	success(ctx, "Created branch `%s` at `%s`", name, git.ShortHash(base))
	return nil
}

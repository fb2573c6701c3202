package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/loomkit/git-loom/internal/git"
	"github.com/loomkit/git-loom/internal/weave"
)

// runFold folds source(s) into a target, dispatching on the resolved types:
//
//	file(s) → commit   amend the files into the commit
//	commit  → commit   fixup (the source disappears into the target)
//	commit  → branch   move the commit onto the branch
//	commit  → zz       uncommit into the working tree
//	commit:N → commit  move one file between commits
//	commit:N → zz      uncommit one file
func runFold(ctx context.Context, args []string) error {
	repo, info, err := openRepoInfo(git.GatherOptions{})
	if err != nil {
		return err
	}
	resolver := git.NewResolver(repo, info)

	sourceArgs, targetArg := args[:len(args)-1], args[len(args)-1]

	sources := make([]git.Target, 0, len(sourceArgs))
	for _, arg := range sourceArgs {
		t, err := resolveFoldArg(repo, resolver, arg)
		if err != nil {
			return err
		}
		sources = append(sources, t)
	}
	target, err := resolveFoldArg(repo, resolver, targetArg)
	if err != nil {
		return err
	}

	op, err := classifyFold(sources, target)
	if err != nil {
		return err
	}

	switch op := op.(type) {
	case foldFilesIntoCommit:
		return doFoldFilesIntoCommit(ctx, repo, op.files, op.commit)
	case foldCommitIntoCommit:
		return doFoldCommitIntoCommit(ctx, repo, op.source, op.target)
	case foldCommitToBranch:
		if err := moveCommitToBranch(ctx, repo, op.commit, op.branch); err != nil {
			return err
		}
		success(ctx, "Moved `%s` to branch `%s`", git.ShortHash(op.commit.String()), op.branch)
		return nil
	case foldCommitToUnstaged:
		return doFoldCommitToUnstaged(ctx, repo, op.commit)
	case foldCommitFileToUnstaged:
		return doFoldCommitFileToUnstaged(ctx, repo, op.commit, op.path)
	case foldCommitFileToCommit:
		return doFoldCommitFileToCommit(ctx, repo, op.source, op.path, op.target)
	}
	return fmt.Errorf("unsupported fold")
}

// ── Classification ──────────────────────────────────────────────────────

type foldFilesIntoCommit struct {
	files  []string
	commit plumbing.Hash
}

type foldCommitIntoCommit struct {
	source, target plumbing.Hash
}

type foldCommitToBranch struct {
	commit plumbing.Hash
	branch string
}

type foldCommitToUnstaged struct {
	commit plumbing.Hash
}

type foldCommitFileToUnstaged struct {
	commit plumbing.Hash
	path   string
}

type foldCommitFileToCommit struct {
	source plumbing.Hash
	path   string
	target plumbing.Hash
}

// classifyFold maps resolved sources and target onto a fold operation.
func classifyFold(sources []git.Target, target git.Target) (any, error) {
	for _, s := range sources {
		switch s.(type) {
		case git.BranchTarget:
			return nil, fmt.Errorf("cannot fold a branch\nUse `git-loom branch` for branch operations")
		case git.UnstagedTarget:
			return nil, fmt.Errorf("cannot fold unstaged changes\nStage files first, or use `git-loom fold <file> <commit>` to amend specific files")
		}
	}
	if _, ok := target.(git.CommitFileTarget); ok {
		return nil, fmt.Errorf("target must be a commit, branch, or unstaged (zz), not a commit file")
	}

	var hasFiles, hasCommits, hasCommitFiles bool
	for _, s := range sources {
		switch s.(type) {
		case git.FileTarget:
			hasFiles = true
		case git.CommitTarget:
			hasCommits = true
		case git.CommitFileTarget:
			hasCommitFiles = true
		}
	}
	kinds := 0
	for _, b := range []bool{hasFiles, hasCommits, hasCommitFiles} {
		if b {
			kinds++
		}
	}
	if kinds > 1 {
		return nil, fmt.Errorf("cannot mix different source types (files, commits, commit files)")
	}

	if hasCommitFiles {
		if len(sources) > 1 {
			return nil, fmt.Errorf("only one commit file source is allowed")
		}
		src := sources[0].(git.CommitFileTarget)
		switch t := target.(type) {
		case git.UnstagedTarget:
			return foldCommitFileToUnstaged{commit: src.OID, path: src.Path}, nil
		case git.CommitTarget:
			return foldCommitFileToCommit{source: src.OID, path: src.Path, target: t.OID}, nil
		case git.BranchTarget:
			return nil, fmt.Errorf("cannot fold a commit file into a branch\nTarget a specific commit or use `zz` to uncommit")
		default:
			return nil, fmt.Errorf("target must be a commit or unstaged (zz), not a file")
		}
	}

	if _, ok := target.(git.UnstagedTarget); ok {
		if hasFiles {
			return nil, fmt.Errorf("cannot fold files into unstaged: files are already in the working directory")
		}
		if len(sources) > 1 {
			return nil, fmt.Errorf("only one commit source is allowed")
		}
		return foldCommitToUnstaged{commit: sources[0].(git.CommitTarget).OID}, nil
	}

	if hasFiles {
		files := make([]string, len(sources))
		for i, s := range sources {
			files[i] = s.(git.FileTarget).Path
		}
		switch t := target.(type) {
		case git.CommitTarget:
			return foldFilesIntoCommit{files: files, commit: t.OID}, nil
		case git.BranchTarget:
			return nil, fmt.Errorf("cannot fold files into a branch\nTarget a specific commit")
		default:
			return nil, fmt.Errorf("target must be a commit or branch, not a file")
		}
	}

	if len(sources) > 1 {
		return nil, fmt.Errorf("only one commit source is allowed")
	}
	src := sources[0].(git.CommitTarget).OID
	switch t := target.(type) {
	case git.CommitTarget:
		return foldCommitIntoCommit{source: src, target: t.OID}, nil
	case git.BranchTarget:
		return foldCommitToBranch{commit: src, branch: t.Name}, nil
	default:
		return nil, fmt.Errorf("target must be a commit or branch, not a file")
	}
}

// resolveFoldArg resolves branches, revisions and short IDs first, then
// falls back to a filesystem path with changes.
func resolveFoldArg(repo *git.Repo, resolver *git.Resolver, arg string) (git.Target, error) {
	target, resolveErr := resolver.Resolve(arg)
	if resolveErr == nil {
		return target, nil
	}
	if _, err := os.Stat(filepath.Join(repo.Workdir(), arg)); err == nil {
		changed, err := repo.FileHasChanges(arg)
		if err != nil {
			return nil, err
		}
		if changed {
			return git.FileTarget{Path: arg}, nil
		}
	}
	return nil, resolveErr
}

// ── Operations ──────────────────────────────────────────────────────────

// doFoldFilesIntoCommit amends file changes into a commit. HEAD is a plain
// amend; other commits use the edit+continue pattern with the staged diff
// carried across the rebase as a patch.
func doFoldFilesIntoCommit(ctx context.Context, repo *git.Repo, files []string, commit plumbing.Hash) error {
	workdir := repo.Workdir()

	for _, f := range files {
		changed, err := repo.FileHasChanges(f)
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("file %q has no changes to fold", f)
		}
	}

	head, err := repo.HeadOID()
	if err != nil {
		return err
	}

	if head == commit {
		if err := git.StageFiles(ctx, workdir, files); err != nil {
			return err
		}
		if err := git.AmendNoEdit(ctx, workdir); err != nil {
			_ = git.UnstageFiles(ctx, workdir, files)
			return err
		}
	} else {
		// Capture the change as a patch, clean those files from the working
		// tree, pause the rebase at the target and amend the patch in.
		// Leaving the files dirty would make --autostash reapply them onto
		// rewritten history and conflict.
		if err := git.StageFiles(ctx, workdir, files); err != nil {
			return err
		}
		patch, err := git.DiffCached(ctx, workdir)
		if err != nil {
			return err
		}
		if err := git.UnstageFiles(ctx, workdir, files); err != nil {
			return err
		}
		if err := git.RestoreFilesToHead(ctx, workdir, files); err != nil {
			return err
		}

		graph, err := weave.Build(repo)
		if err != nil {
			return err
		}
		if err := graph.EditCommit(commit); err != nil {
			return err
		}
		todo, err := graph.Serialize()
		if err != nil {
			return err
		}
		if err := weave.RunRebase(ctx, workdir, &graph.BaseOID, todo); err != nil {
			_ = git.ApplyPatch(ctx, workdir, patch)
			return err
		}

		// Paused at the target commit.
		if err := applyStageAmend(ctx, workdir, patch, files); err != nil {
			_ = git.RebaseAbort(ctx, workdir)
			_ = git.ApplyPatch(ctx, workdir, patch)
			return err
		}
		if err := weave.Continue(ctx, workdir); err != nil {
			_ = git.ApplyPatch(ctx, workdir, patch)
			return err
		}
	}

	success(ctx, "Folded %d file(s) into `%s`", len(files), git.ShortHash(commit.String()))
	return nil
}

func applyStageAmend(ctx context.Context, workdir, patch string, files []string) error {
	if err := git.ApplyPatch(ctx, workdir, patch); err != nil {
		return err
	}
	if err := git.StageFiles(ctx, workdir, files); err != nil {
		return err
	}
	return git.AmendNoEdit(ctx, workdir)
}

// doFoldCommitIntoCommit squashes the source commit into the target,
// keeping the target's message.
func doFoldCommitIntoCommit(ctx context.Context, repo *git.Repo, source, target plumbing.Hash) error {
	if source == target {
		return fmt.Errorf("source and target are the same commit")
	}
	newer, err := repo.IsDescendant(source, target)
	if err != nil {
		return err
	}
	if !newer {
		return fmt.Errorf("source commit must be newer than target commit")
	}

	graph, err := weave.Build(repo)
	if err != nil {
		return err
	}
	if err := graph.FixupCommit(source, target); err != nil {
		return err
	}
	todo, err := graph.Serialize()
	if err != nil {
		return err
	}
	if err := weave.RunRebase(ctx, repo.Workdir(), &graph.BaseOID, todo); err != nil {
		return err
	}

	success(ctx, "Folded `%s` into `%s`", git.ShortHash(source.String()), git.ShortHash(target.String()))
	return nil
}

// moveCommitToBranch relocates a commit to the tip of a woven branch.
// Used by fold (commit → branch).
func moveCommitToBranch(ctx context.Context, repo *git.Repo, commit plumbing.Hash, branch string) error {
	graph, err := weave.Build(repo)
	if err != nil {
		return err
	}
	if err := graph.MoveCommit(commit, branch); err != nil {
		return err
	}
	todo, err := graph.Serialize()
	if err != nil {
		return err
	}
	return weave.RunRebase(ctx, repo.Workdir(), &graph.BaseOID, todo)
}

// doFoldCommitToUnstaged removes a commit from history and leaves its
// changes in the working tree.
func doFoldCommitToUnstaged(ctx context.Context, repo *git.Repo, commit plumbing.Hash) error {
	workdir := repo.Workdir()
	head, err := repo.HeadOID()
	if err != nil {
		return err
	}

	if head == commit {
		if err := git.ResetMixed(ctx, workdir, "HEAD~1"); err != nil {
			return err
		}
	} else {
		diff, err := git.DiffCommit(ctx, workdir, commit.String())
		if err != nil {
			return err
		}

		graph, err := weave.Build(repo)
		if err != nil {
			return err
		}
		if err := graph.DropCommit(commit); err != nil {
			return err
		}
		todo, err := graph.Serialize()
		if err != nil {
			return err
		}
		if err := weave.RunRebase(ctx, workdir, &graph.BaseOID, todo); err != nil {
			return err
		}

		if strings.TrimSpace(diff) != "" {
			if err := git.ApplyPatch(ctx, workdir, diff); err != nil {
				_ = git.ResetHard(ctx, workdir, head.String())
				return fmt.Errorf("%w: %v", git.ErrWorkingTreePreservation, err)
			}
		}
	}

	success(ctx, "Uncommitted `%s` to working directory", git.ShortHash(commit.String()))
	return nil
}

// doFoldCommitFileToUnstaged removes one file's changes from a commit and
// places them in the working tree.
func doFoldCommitFileToUnstaged(ctx context.Context, repo *git.Repo, commit plumbing.Hash, path string) error {
	workdir := repo.Workdir()

	fileDiff, err := git.DiffCommitFile(ctx, workdir, commit.String(), path)
	if err != nil {
		return err
	}
	if strings.TrimSpace(fileDiff) == "" {
		return fmt.Errorf("file %q has no changes in commit %s", path, git.ShortHash(commit.String()))
	}

	head, err := repo.HeadOID()
	if err != nil {
		return err
	}

	if head == commit {
		if err := reverseStageAmend(ctx, workdir, fileDiff, path); err != nil {
			return err
		}
		if err := git.ApplyPatch(ctx, workdir, fileDiff); err != nil {
			_ = git.ResetHard(ctx, workdir, head.String())
			return fmt.Errorf("%w: %v", git.ErrWorkingTreePreservation, err)
		}
	} else {
		graph, err := weave.Build(repo)
		if err != nil {
			return err
		}
		if err := graph.EditCommit(commit); err != nil {
			return err
		}
		todo, err := graph.Serialize()
		if err != nil {
			return err
		}
		if err := weave.RunRebase(ctx, workdir, &graph.BaseOID, todo); err != nil {
			return err
		}

		if err := reverseStageAmend(ctx, workdir, fileDiff, path); err != nil {
			_ = git.RebaseAbort(ctx, workdir)
			return err
		}
		if err := weave.Continue(ctx, workdir); err != nil {
			return err
		}
		if err := git.ApplyPatch(ctx, workdir, fileDiff); err != nil {
			_ = git.ResetHard(ctx, workdir, head.String())
			return fmt.Errorf("%w: %v", git.ErrWorkingTreePreservation, err)
		}
	}

	success(ctx, "Uncommitted `%s` from `%s` to working directory", path, git.ShortHash(commit.String()))
	return nil
}

func reverseStageAmend(ctx context.Context, workdir, fileDiff, path string) error {
	if err := git.ApplyPatchReverse(ctx, workdir, fileDiff); err != nil {
		return err
	}
	if err := git.StageFiles(ctx, workdir, []string{path}); err != nil {
		return err
	}
	return git.AmendNoEdit(ctx, workdir)
}

// doFoldCommitFileToCommit moves one file's changes between two commits,
// rewriting both.
func doFoldCommitFileToCommit(ctx context.Context, repo *git.Repo, source plumbing.Hash, path string, target plumbing.Hash) error {
	workdir := repo.Workdir()

	if source == target {
		return fmt.Errorf("source and target are the same commit")
	}

	fileDiff, err := git.DiffCommitFile(ctx, workdir, source.String(), path)
	if err != nil {
		return err
	}
	if strings.TrimSpace(fileDiff) == "" {
		return fmt.Errorf("file %q has no changes in commit %s", path, git.ShortHash(source.String()))
	}

	sourceIsNewer, err := repo.IsDescendant(source, target)
	if err != nil {
		return err
	}

	if sourceIsNewer {
		if err := foldFileNewerToOlder(ctx, repo, source, target, path, fileDiff); err != nil {
			return err
		}
	} else {
		if err := foldFileOlderToNewer(ctx, repo, source, target, path, fileDiff); err != nil {
			return err
		}
	}

	success(ctx, "Moved `%s` from `%s` to `%s`", path,
		git.ShortHash(source.String()), git.ShortHash(target.String()))
	return nil
}

// foldFileNewerToOlder handles the source-newer-than-target direction.
//
// A single rebase cannot do both edits: the target is replayed first, and
// adding the file there would conflict when the source (still carrying the
// file) is picked later. Two phases instead, with a temp branch riding
// --update-refs so the target's rewritten OID can be found for phase 2, and
// a full rollback to the pre-phase-1 state if phase 2 fails.
func foldFileNewerToOlder(ctx context.Context, repo *git.Repo, source, target plumbing.Hash, path, fileDiff string) error {
	workdir := repo.Workdir()
	const tmpBranch = "_loom-fold-target"

	savedHead, err := repo.HeadOID()
	if err != nil {
		return err
	}
	savedRefs, err := repo.SnapshotBranchRefs()
	if err != nil {
		return err
	}

	// Phase 1: remove the file from the source.
	graph, err := weave.Build(repo)
	if err != nil {
		return err
	}
	if err := graph.EditCommit(source); err != nil {
		return err
	}
	todo, err := graph.Serialize()
	if err != nil {
		return err
	}

	// Created after Build so the temp branch stays out of the graph.
	if err := git.ForceBranch(ctx, workdir, tmpBranch, target.String()); err != nil {
		return err
	}
	dropTmp := func() { _ = git.DeleteBranch(ctx, workdir, tmpBranch) }

	if err := weave.RunRebase(ctx, workdir, &graph.BaseOID, todo); err != nil {
		dropTmp()
		return err
	}
	if err := reverseStageAmend(ctx, workdir, fileDiff, path); err != nil {
		_ = git.RebaseAbort(ctx, workdir)
		dropTmp()
		return err
	}
	if err := weave.Continue(ctx, workdir); err != nil {
		dropTmp()
		return err
	}

	// Phase 2: the temp branch now points at the rewritten target.
	newTarget, err := repo.BranchTip(tmpBranch)
	dropTmp()
	if err != nil {
		return err
	}

	rollback := func() {
		_ = git.ResetHard(ctx, workdir, savedHead.String())
		_ = git.RestoreBranchRefs(ctx, workdir, savedRefs)
	}

	graph, err = weave.Build(repo)
	if err != nil {
		rollback()
		return err
	}
	if err := graph.EditCommit(newTarget); err != nil {
		rollback()
		return err
	}
	todo, err = graph.Serialize()
	if err != nil {
		rollback()
		return err
	}
	if err := weave.RunRebase(ctx, workdir, &graph.BaseOID, todo); err != nil {
		rollback()
		return err
	}
	if err := applyStageAmend(ctx, workdir, fileDiff, []string{path}); err != nil {
		_ = git.RebaseAbort(ctx, workdir)
		rollback()
		return err
	}
	if err := weave.Continue(ctx, workdir); err != nil {
		rollback()
		return err
	}
	return nil
}

// foldFileOlderToNewer handles the source-older-than-target direction with a
// single rebase pausing twice: remove the file at the source stop, add it at
// the target stop.
func foldFileOlderToNewer(ctx context.Context, repo *git.Repo, source, target plumbing.Hash, path, fileDiff string) error {
	workdir := repo.Workdir()

	graph, err := weave.Build(repo)
	if err != nil {
		return err
	}
	if err := graph.EditCommit(source); err != nil {
		return err
	}
	if err := graph.EditCommit(target); err != nil {
		return err
	}
	todo, err := graph.Serialize()
	if err != nil {
		return err
	}
	if err := weave.RunRebase(ctx, workdir, &graph.BaseOID, todo); err != nil {
		return err
	}

	// First pause: at the source.
	if err := reverseStageAmend(ctx, workdir, fileDiff, path); err != nil {
		_ = git.RebaseAbort(ctx, workdir)
		return err
	}
	if err := weave.Continue(ctx, workdir); err != nil {
		return err
	}

	// Second pause: at the target.
	if err := applyStageAmend(ctx, workdir, fileDiff, []string{path}); err != nil {
		_ = git.RebaseAbort(ctx, workdir)
		return err
	}
	return weave.Continue(ctx, workdir)
}

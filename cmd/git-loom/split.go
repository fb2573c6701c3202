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

// runSplit splits a commit into two sequential commits: the selected files
// become a new first commit with the given message, the rest keeps the
// original message.
func runSplit(ctx context.Context, target string, message string, hasMessage bool) error {
	repo, info, err := openRepoInfo(git.GatherOptions{})
	if err != nil {
		return err
	}
	resolver := git.NewResolver(repo, info)

	resolved, err := resolver.Resolve(target)
	if err != nil {
		return err
	}
	commitTarget, ok := resolved.(git.CommitTarget)
	if !ok {
		return fmt.Errorf("cannot split a %s", targetKindName(resolved))
	}
	oid := commitTarget.OID

	commit, err := repo.Commit(oid)
	if err != nil {
		return err
	}
	if commit.NumParents() > 1 {
		return git.ErrMergeNotSplittable
	}

	files, err := repo.CommitFiles(oid)
	if err != nil {
		return err
	}
	if len(files) < 2 {
		return git.ErrSingleFileNotSplittable
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}

	selected, err := pickSplitFiles(paths)
	if err != nil {
		return err
	}

	msg1 := message
	if !hasMessage {
		result, err := prompt.TextInput("Message for the first commit", "")
		if err != nil {
			return err
		}
		if result.Cancelled || strings.TrimSpace(result.Value) == "" {
			return fmt.Errorf("cancelled")
		}
		msg1 = result.Value
	}

	originalMsg := strings.TrimSpace(commit.Message)

	selectedSet := map[string]bool{}
	for _, s := range selected {
		selectedSet[s] = true
	}
	var remaining []string
	for _, p := range paths {
		if !selectedSet[p] {
			remaining = append(remaining, p)
		}
	}

	return performSplit(ctx, repo, oid, selected, remaining, msg1, originalMsg)
}

// pickSplitFiles shows the multi-select file picker; at least one file must
// be selected and at least one left over.
func pickSplitFiles(paths []string) ([]string, error) {
	result, err := prompt.MultiSelect("Select files for the first commit:", paths)
	if err != nil {
		return nil, err
	}
	if result.Cancelled {
		return nil, fmt.Errorf("cancelled")
	}
	if len(result.Selected) == 0 {
		return nil, fmt.Errorf("must select at least one file for the first commit")
	}
	if len(result.Selected) == len(paths) {
		return nil, fmt.Errorf("must leave at least one file for the second commit")
	}
	return result.Selected, nil
}

// performSplit dispatches on HEAD vs non-HEAD.
func performSplit(ctx context.Context, repo *git.Repo, oid plumbing.Hash, selected, remaining []string, msg1, msg2 string) error {
	head, err := repo.HeadOID()
	if err != nil {
		return err
	}

	if head == oid {
		if err := splitAtHead(ctx, repo.Workdir(), selected, remaining, msg1, msg2); err != nil {
			return err
		}
	} else {
		if err := splitNonHead(ctx, repo, oid, selected, remaining, msg1, msg2); err != nil {
			return err
		}
	}

	success(ctx, "Split `%s` into 2 commits", git.ShortHash(oid.String()))
	return nil
}

// splitAtHead splits the HEAD commit without a rebase: mixed-reset by one,
// commit the selection, commit the remainder.
func splitAtHead(ctx context.Context, workdir string, selected, remaining []string, msg1, msg2 string) error {
	if err := git.ResetMixed(ctx, workdir, "HEAD~1"); err != nil {
		return err
	}
	if err := git.StageFiles(ctx, workdir, selected); err != nil {
		return err
	}
	if err := git.CommitMsg(ctx, workdir, msg1); err != nil {
		return err
	}
	if err := git.StageFiles(ctx, workdir, remaining); err != nil {
		return err
	}
	return git.CommitMsg(ctx, workdir, msg2)
}

// splitNonHead pauses a rebase at the commit, performs the HEAD split there
// and continues.
func splitNonHead(ctx context.Context, repo *git.Repo, oid plumbing.Hash, selected, remaining []string, msg1, msg2 string) error {
	workdir := repo.Workdir()

	if err := startEditRebase(ctx, repo, oid); err != nil {
		return err
	}

	if err := splitAtHead(ctx, workdir, selected, remaining, msg1, msg2); err != nil {
		_ = git.RebaseAbort(ctx, workdir)
		return err
	}

	return weave.Continue(ctx, workdir)
}

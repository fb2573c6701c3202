package main

import (
	"context"

	"github.com/loomkit/git-loom/internal/git"
	"github.com/loomkit/git-loom/internal/graph"
	"github.com/loomkit/git-loom/internal/output"
)

type statusOptions struct {
	// withFiles lists the changed files of every commit.
	withFiles bool
	// contextN shows that many dimmed commits before the base.
	contextN int
}

// runStatus renders the branch-aware status graph. Read-only.
func runStatus(ctx context.Context, opts statusOptions) error {
	_, info, err := openRepoInfo(git.GatherOptions{
		WithFiles: opts.withFiles,
		Context:   opts.contextN,
	})
	if err != nil {
		return err
	}

	ids := git.NewAllocator(info)
	output.FromContext(ctx).Print(graph.Render(info, ids))
	return nil
}

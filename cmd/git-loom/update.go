package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/loomkit/git-loom/internal/git"
	"github.com/loomkit/git-loom/internal/log"
)

// runUpdate fetches from the remotes and rebases the integration branch
// onto its upstream, updating submodules when configured.
func runUpdate(ctx context.Context) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	workdir := repo.Workdir()
	logger := log.FromContext(ctx)

	branch, _, err := repo.Head()
	if err != nil {
		return err
	}
	label, _, err := repo.Upstream(branch)
	if err != nil {
		return fmt.Errorf("branch %q has no upstream tracking branch\nRun `git-loom init` to set up an integration branch", branch)
	}

	logger.Println("Fetching latest changes...")
	if err := git.FetchAll(ctx, workdir); err != nil {
		return err
	}

	logger.Println("Rebasing onto upstream...")
	if err := git.RebaseOnto(ctx, workdir, label); err != nil {
		_ = git.RebaseAbort(ctx, workdir)
		return err
	}

	if _, err := os.Stat(filepath.Join(workdir, ".gitmodules")); err == nil {
		logger.Println("Updating submodules...")
		if err := git.SubmoduleUpdate(ctx, workdir); err != nil {
			return err
		}
	}

	tipNote := ""
	if _, tip, err := repo.Upstream(branch); err == nil {
		if c, err := repo.Commit(tip); err == nil {
			first := c.Message
			for i := 0; i < len(first); i++ {
				if first[i] == '\n' {
					first = first[:i]
					break
				}
			}
			tipNote = fmt.Sprintf(" (%s %s)", git.ShortHash(tip.String()), first)
		}
	}

	success(ctx, "Updated branch `%s` with `%s`%s", branch, label, tipNote)
	return nil
}

package main

import (
	"fmt"
	"os"

	"github.com/loomkit/git-loom/internal/git"
)

// openRepo opens the repository containing the current working directory.
func openRepo() (*git.Repo, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	return git.Open(cwd)
}

// openRepoInfo opens the repository and gathers the integration state.
func openRepoInfo(opts git.GatherOptions) (*git.Repo, *git.RepoInfo, error) {
	repo, err := openRepo()
	if err != nil {
		return nil, nil, err
	}
	info, err := repo.GatherInfo(opts)
	if err != nil {
		return nil, nil, err
	}
	return repo, info, nil
}

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/loomkit/git-loom/internal/git"
	"github.com/loomkit/git-loom/internal/ui/prompt"
)

// runInit creates an integration branch at the upstream tip, tracking it,
// and switches to it. One atomic git operation.
func runInit(ctx context.Context, name string) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}

	if name == "" {
		name = cfg.IntegrationBranch
	}
	name = strings.TrimSpace(name)
	if err := git.ValidateBranchName(ctx, name); err != nil {
		return err
	}
	if repo.BranchExists(name) {
		return &git.DuplicateBranchError{Name: name}
	}

	upstream, err := detectUpstream(ctx, repo)
	if err != nil {
		return err
	}

	if err := git.SwitchCreateTracking(ctx, repo.Workdir(), name, upstream); err != nil {
		return err
	}

	success(ctx, "Initialized integration branch `%s` tracking `%s`", name, upstream)
	return nil
}

// detectUpstream picks the tracking ref for the new integration branch.
//
// Strategy:
//  1. GitHub repos with an "upstream" remote (fork workflow): use it.
//  2. The current branch's upstream, if any.
//  3. Each remote's HEAD symref.
//  4. Scan for common branch names (main, master, develop).
//
// A single candidate wins; multiple candidates prompt the user.
func detectUpstream(ctx context.Context, repo *git.Repo) (string, error) {
	if up, ok := githubForkUpstream(repo); ok {
		return up, nil
	}

	if branch, _, err := repo.Head(); err == nil {
		if label, _, err := repo.Upstream(branch); err == nil {
			return label, nil
		}
	}

	candidates := remoteCandidates(repo)
	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("no remote tracking branches found\nSet up a remote with: `git remote add origin <url>`")
	case 1:
		return candidates[0], nil
	}

	result, err := prompt.Select("Which remote branch should this integration track?", candidates)
	if err != nil {
		return "", err
	}
	if result.Cancelled {
		return "", fmt.Errorf("cancelled")
	}
	return result.Value, nil
}

// githubForkUpstream finds the default branch of the "upstream" remote in a
// GitHub fork workflow, where "origin" is the fork and "upstream" the
// original repository.
func githubForkUpstream(repo *git.Repo) (string, bool) {
	remotes, err := repo.Underlying().Remotes()
	if err != nil {
		return "", false
	}
	isGitHub := false
	hasUpstream := false
	for _, remote := range remotes {
		rc := remote.Config()
		for _, url := range rc.URLs {
			if strings.Contains(url, "github.com") {
				isGitHub = true
			}
		}
		if rc.Name == "upstream" {
			hasUpstream = true
		}
	}
	if !isGitHub || !hasUpstream {
		return "", false
	}

	if label, ok := remoteHeadLabel(repo, "upstream"); ok {
		return label, true
	}
	for _, name := range []string{"main", "master", "develop"} {
		if _, err := repo.Underlying().Reference(plumbing.NewRemoteReferenceName("upstream", name), true); err == nil {
			return "upstream/" + name, true
		}
	}
	return "", false
}

// remoteHeadLabel resolves refs/remotes/<remote>/HEAD to its shorthand.
func remoteHeadLabel(repo *git.Repo, remote string) (string, bool) {
	ref, err := repo.Underlying().Reference(
		plumbing.ReferenceName("refs/remotes/"+remote+"/HEAD"), true)
	if err != nil {
		return "", false
	}
	return ref.Name().Short(), true
}

// remoteCandidates gathers one default-branch candidate per remote.
func remoteCandidates(repo *git.Repo) []string {
	remotes, err := repo.Underlying().Remotes()
	if err != nil {
		return nil
	}

	var candidates []string
	for _, remote := range remotes {
		name := remote.Config().Name
		if label, ok := remoteHeadLabel(repo, name); ok {
			candidates = append(candidates, label)
			continue
		}
		for _, branch := range []string{"main", "master", "develop"} {
			if _, err := repo.Underlying().Reference(plumbing.NewRemoteReferenceName(name, branch), true); err == nil {
				candidates = append(candidates, name+"/"+branch)
				break
			}
		}
	}
	return candidates
}

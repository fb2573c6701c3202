package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/loomkit/git-loom/internal/git"
	"github.com/loomkit/git-loom/internal/output"
	"github.com/loomkit/git-loom/internal/ui/prompt"
)

// remoteKind is the detected push strategy.
type remoteKind int

const (
	remotePlain remoteKind = iota
	remoteGitHub
	remoteGerrit
)

// runPush pushes a woven feature branch, picking the strategy from the
// remote type: plain force-with-lease, GitHub (with a PR link), or Gerrit
// refs/for.
func runPush(ctx context.Context, branchArg string) error {
	repo, info, err := openRepoInfo(git.GatherOptions{})
	if err != nil {
		return err
	}
	workdir := repo.Workdir()

	if len(info.Branches) == 0 {
		return fmt.Errorf("no woven branches to push\nCreate a branch with `git-loom branch` first")
	}

	branch, err := resolvePushBranch(repo, info, branchArg)
	if err != nil {
		return err
	}

	kind := detectRemoteType(ctx, repo, workdir)
	remote := pushRemote(repo, info.Upstream.Label, kind)

	switch kind {
	case remoteGitHub:
		return pushGitHub(ctx, repo, workdir, remote, branch)
	case remoteGerrit:
		targetBranch := "main"
		if _, after, ok := strings.Cut(info.Upstream.Label, "/"); ok {
			targetBranch = after
		}
		return pushGerrit(ctx, workdir, remote, branch, targetBranch)
	default:
		return pushPlain(ctx, workdir, remote, branch)
	}
}

// resolvePushBranch maps the argument to a woven branch, or prompts.
func resolvePushBranch(repo *git.Repo, info *git.RepoInfo, arg string) (string, error) {
	names := make([]string, len(info.Branches))
	woven := map[string]bool{}
	for i, b := range info.Branches {
		names[i] = b.Name
		woven[b.Name] = true
	}

	if arg == "" {
		result, err := prompt.Select("Select branch to push", names)
		if err != nil {
			return "", err
		}
		if result.Cancelled {
			return "", fmt.Errorf("cancelled")
		}
		return result.Value, nil
	}

	resolver := git.NewResolver(repo, info)
	resolved, err := resolver.Resolve(arg)
	if err != nil {
		return "", err
	}
	t, ok := resolved.(git.BranchTarget)
	if !ok {
		return "", fmt.Errorf("target must be a branch, not a %s", targetKindName(resolved))
	}
	if !woven[t.Name] {
		return "", fmt.Errorf("branch %q is not woven into the integration branch", t.Name)
	}
	return t.Name, nil
}

// detectRemoteType picks the push strategy: git config `loom.remote-type`
// first, then a github.com remote URL, then a Gerrit commit-msg hook, then
// plain. The config file's remote_type sits between the git config and the
// heuristics.
func detectRemoteType(ctx context.Context, repo *git.Repo, workdir string) remoteKind {
	if out, err := git.OutputGit(ctx, workdir, "config", "--get", "loom.remote-type"); err == nil {
		switch strings.ToLower(strings.TrimSpace(string(out))) {
		case "github":
			return remoteGitHub
		case "gerrit":
			return remoteGerrit
		}
	}

	if cfg != nil {
		switch cfg.RemoteType {
		case "github":
			return remoteGitHub
		case "gerrit":
			return remoteGerrit
		}
	}

	if url, ok := remoteURL(repo, "origin"); ok && strings.Contains(url, "github.com") {
		return remoteGitHub
	}

	hook := filepath.Join(workdir, ".git", "hooks", "commit-msg")
	if content, err := os.ReadFile(hook); err == nil &&
		strings.Contains(strings.ToLower(string(content)), "gerrit") {
		return remoteGerrit
	}

	return remotePlain
}

// pushRemote picks the remote to push to. In the GitHub fork workflow the
// integration tracks upstream/..., but feature branches go to origin (the
// fork) so a PR can be opened from it.
func pushRemote(repo *git.Repo, upstreamLabel string, kind remoteKind) string {
	remote, _, _ := strings.Cut(upstreamLabel, "/")
	if remote == "" {
		remote = "origin"
	}
	if kind == remoteGitHub && remote == "upstream" {
		if _, ok := remoteURL(repo, "origin"); ok {
			return "origin"
		}
	}
	return remote
}

func remoteURL(repo *git.Repo, name string) (string, bool) {
	remote, err := repo.Underlying().Remote(name)
	if err != nil || len(remote.Config().URLs) == 0 {
		return "", false
	}
	return remote.Config().URLs[0], true
}

// pushPlain force-pushes with lease protection and sets the upstream.
func pushPlain(ctx context.Context, workdir, remote, branch string) error {
	if err := git.RunGit(ctx, workdir, "push", "--force-with-lease", "--force-if-includes", "-u", remote, branch); err != nil {
		return err
	}
	success(ctx, "Pushed `%s` to %s", branch, remote)
	return nil
}

// pushGitHub pushes the branch and hands the user the pull-request URL
// (also placed on the clipboard, best effort).
func pushGitHub(ctx context.Context, repo *git.Repo, workdir, remote, branch string) error {
	if err := git.RunGit(ctx, workdir, "push", "--force-with-lease", "-u", remote, branch); err != nil {
		return err
	}
	success(ctx, "Pushed `%s` to %s", branch, remote)

	if url, ok := remoteURL(repo, remote); ok {
		if prURL := githubNewPRURL(url, branch); prURL != "" {
			output.FromContext(ctx).Printf("Create a pull request: %s\n", prURL)
			if err := clipboard.WriteAll(prURL); err == nil {
				output.FromContext(ctx).Println("(copied to clipboard)")
			}
		}
	}
	return nil
}

var githubRemoteRe = regexp.MustCompile(`github\.com[:/]([^/]+)/([^/]+?)(?:\.git)?$`)

// githubNewPRURL builds the compare/new-PR URL from a remote URL.
func githubNewPRURL(remoteURL, branch string) string {
	m := githubRemoteRe.FindStringSubmatch(remoteURL)
	if m == nil {
		return ""
	}
	return fmt.Sprintf("https://github.com/%s/%s/pull/new/%s", m[1], m[2], branch)
}

// pushGerrit pushes to refs/for/<target> with the branch name as topic.
func pushGerrit(ctx context.Context, workdir, remote, branch, targetBranch string) error {
	refspec := fmt.Sprintf("%s:refs/for/%s", branch, targetBranch)
	topic := fmt.Sprintf("topic=%s", branch)
	if err := git.RunGit(ctx, workdir, "push", "-o", topic, remote, refspec); err != nil {
		return err
	}
	success(ctx, "Pushed `%s` to %s (Gerrit: refs/for/%s)", branch, remote, targetBranch)
	return nil
}

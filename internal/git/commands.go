package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/loomkit/git-loom/internal/cmd"
	"github.com/loomkit/git-loom/internal/log"
)

// ── Staging ─────────────────────────────────────────────────────────────

// StageFiles stages the given paths.
func StageFiles(ctx context.Context, dir string, files []string) error {
	return runGit(ctx, dir, append([]string{"add", "--"}, files...)...)
}

// StageAll stages every change, untracked files included.
func StageAll(ctx context.Context, dir string) error {
	return runGit(ctx, dir, "add", "--all")
}

// UnstageFiles removes the given paths from the index, keeping the working
// tree untouched.
func UnstageFiles(ctx context.Context, dir string, files []string) error {
	return runGit(ctx, dir, append([]string{"restore", "--staged", "--"}, files...)...)
}

// RestoreFilesToHead discards working tree and index changes for the paths.
func RestoreFilesToHead(ctx context.Context, dir string, files []string) error {
	return runGit(ctx, dir, append([]string{"checkout", "HEAD", "--"}, files...)...)
}

// ── Commits ─────────────────────────────────────────────────────────────

// CommitMsg creates a commit from the index with the given message.
func CommitMsg(ctx context.Context, dir, message string) error {
	return runGit(ctx, dir, "commit", "-m", message)
}

// CommitEditor creates a commit from the index, opening the user's editor
// for the message. Stdio is inherited so terminal editors work.
func CommitEditor(ctx context.Context, dir string) error {
	log.FromContext(ctx).Command("git", "commit")
	c := exec.CommandContext(ctx, "git", "-C", dir, "commit")
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}

// AmendNoEdit amends HEAD with the index, keeping the message.
func AmendNoEdit(ctx context.Context, dir string) error {
	return runGit(ctx, dir, "commit", "--amend", "--no-edit")
}

// Amend amends HEAD's message. Uses --only so staged changes are not
// accidentally included; a nil message opens the editor.
func Amend(ctx context.Context, dir string, message *string) error {
	args := []string{"commit", "--allow-empty", "--amend", "--only"}
	if message != nil {
		return runGit(ctx, dir, append(args, "-m", *message)...)
	}
	log.FromContext(ctx).Command("git", args...)
	c := exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}

// ResetMixed resets HEAD to rev, keeping changes in the working tree.
func ResetMixed(ctx context.Context, dir, rev string) error {
	return runGit(ctx, dir, "reset", "--mixed", rev)
}

// ResetHard resets HEAD, index and working tree to rev.
func ResetHard(ctx context.Context, dir, rev string) error {
	return runGit(ctx, dir, "reset", "--hard", rev)
}

// ── Diffs and patches ───────────────────────────────────────────────────

// DiffCached returns the staged diff.
func DiffCached(ctx context.Context, dir string) (string, error) {
	out, err := outputGit(ctx, dir, "diff", "--cached")
	return string(out), err
}

// DiffCommit returns the full diff a commit introduced.
func DiffCommit(ctx context.Context, dir, rev string) (string, error) {
	out, err := outputGit(ctx, dir, "show", "--format=", "--patch", rev)
	return string(out), err
}

// DiffCommitFile returns the diff one file received in a commit.
func DiffCommitFile(ctx context.Context, dir, rev, path string) (string, error) {
	out, err := outputGit(ctx, dir, "show", "--format=", "--patch", rev, "--", path)
	return string(out), err
}

// DiffHead returns the full uncommitted diff, staged and unstaged.
func DiffHead(ctx context.Context, dir string) (string, error) {
	out, err := outputGit(ctx, dir, "diff", "HEAD")
	return string(out), err
}

// DiffHeadFile returns the uncommitted diff of one file.
func DiffHeadFile(ctx context.Context, dir, path string) (string, error) {
	out, err := outputGit(ctx, dir, "diff", "HEAD", "--", path)
	return string(out), err
}

// DiffHeadNameOnly lists tracked files with uncommitted changes.
func DiffHeadNameOnly(ctx context.Context, dir string) ([]string, error) {
	out, err := outputGit(ctx, dir, "diff", "HEAD", "--name-only")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(string(out), "\n") {
		if line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// ApplyPatch applies a patch to the working tree.
func ApplyPatch(ctx context.Context, dir, patch string) error {
	return applyPatch(ctx, dir, patch, false)
}

// ApplyPatchReverse applies a patch in reverse.
func ApplyPatchReverse(ctx context.Context, dir, patch string) error {
	return applyPatch(ctx, dir, patch, true)
}

func applyPatch(ctx context.Context, dir, patch string, reverse bool) error {
	args := []string{"-C", dir, "apply", "--whitespace=nowarn"}
	if reverse {
		args = append(args, "--reverse")
	}
	args = append(args, "-")
	log.FromContext(ctx).Command("git", args...)
	c := exec.CommandContext(ctx, "git", args...)
	c.Stdin = strings.NewReader(patch)
	return cmd.Run(c)
}

// ── Branches ────────────────────────────────────────────────────────────

// CreateBranch creates a branch at rev.
func CreateBranch(ctx context.Context, dir, name, rev string) error {
	return runGit(ctx, dir, "branch", name, rev)
}

// ForceBranch moves (or creates) a branch to rev.
func ForceBranch(ctx context.Context, dir, name, rev string) error {
	return runGit(ctx, dir, "branch", "-f", name, rev)
}

// DeleteBranch force-deletes a branch ref.
func DeleteBranch(ctx context.Context, dir, name string) error {
	return runGit(ctx, dir, "branch", "-D", name)
}

// RenameBranch renames a branch.
func RenameBranch(ctx context.Context, dir, oldName, newName string) error {
	if err := runGit(ctx, dir, "branch", "-m", oldName, newName); err != nil {
		return fmt.Errorf("failed to rename branch: %w", err)
	}
	return nil
}

// SwitchCreateTracking creates a branch at the upstream tip, sets it to
// track the upstream, and switches to it.
func SwitchCreateTracking(ctx context.Context, dir, name, upstream string) error {
	return runGit(ctx, dir, "switch", "--create", name, "--track", upstream)
}

// ValidateBranchName checks a branch name the way git does.
func ValidateBranchName(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return &InvalidNameError{Name: name, Reason: "name is empty"}
	}
	if err := runGit(ctx, "", "check-ref-format", "--branch", name); err != nil {
		return &InvalidNameError{Name: name, Reason: "not a valid ref name"}
	}
	return nil
}

// ── Remote operations ───────────────────────────────────────────────────

// FetchAll fetches all refs and tags, force-updating and pruning.
func FetchAll(ctx context.Context, dir string) error {
	return runGit(ctx, dir, "fetch", "--tags", "--force", "--prune")
}

// RebaseOnto rebases the current branch onto upstream with autostash.
func RebaseOnto(ctx context.Context, dir, upstream string) error {
	return runGit(ctx, dir, "rebase", "--autostash", upstream)
}

// RebaseAbort aborts an in-progress rebase.
func RebaseAbort(ctx context.Context, dir string) error {
	return runGit(ctx, dir, "rebase", "--abort")
}

// SubmoduleUpdate updates submodules recursively.
func SubmoduleUpdate(ctx context.Context, dir string) error {
	return runGit(ctx, dir, "submodule", "update", "--init", "--recursive")
}

package weave

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/loomkit/git-loom/internal/git"
	"github.com/loomkit/git-loom/internal/log"
)

// RebaseConflictError reports a rebase that stopped on conflicts. The rebase
// has already been aborted; the diagnostic is the cleaned git output.
type RebaseConflictError struct {
	Stderr string
}

func (e *RebaseConflictError) Error() string {
	return fmt.Sprintf("rebase failed with conflicts and was aborted:\n%s", e.Stderr)
}

// RebaseFailedError reports a rebase that failed for any other reason. The
// rebase has already been aborted.
type RebaseFailedError struct {
	Stderr string
}

func (e *RebaseFailedError) Error() string {
	return fmt.Sprintf("rebase failed and was aborted:\n%s", e.Stderr)
}

// RunRebase replays a pre-generated todo program through one interactive
// rebase.
//
// The program is written to a temp file and delivered verbatim by the hidden
// `internal-write-todo` subcommand acting as GIT_SEQUENCE_EDITOR. A file
// copy is immune to shell quoting, platform shell differences and
// command-line length limits. GIT_EDITOR is a no-op so synthesized merge
// messages keep git's default without human interaction.
//
// `from` is passed directly as the rebase upstream (commits after it are
// replayed); nil means --root. On any failure the in-progress rebase is
// aborted before the error is returned, so refs and working tree are back to
// their pre-call state (the working tree itself rides on --autostash).
func RunRebase(ctx context.Context, workdir string, from *plumbing.Hash, todo string) error {
	self, err := selfExePath()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp("", "git-loom-todo-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(todo); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Git runs the sequence editor through its bundled POSIX shell even on
	// Windows, so POSIX quoting applies on every platform.
	seqEditor := fmt.Sprintf("%s internal-write-todo --source %s",
		posixQuote(filepath.ToSlash(self)),
		posixQuote(filepath.ToSlash(tmp.Name())))

	args := []string{
		"rebase",
		"--interactive",
		"--autostash",
		"--keep-empty",
		"--no-autosquash",
		"--rebase-merges",
		"--update-refs",
	}
	if from != nil {
		args = append(args, from.String())
	} else {
		args = append(args, "--root")
	}

	log.FromContext(ctx).Command("git", args...)
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = workdir
	cmd.Env = append(os.Environ(),
		"GIT_SEQUENCE_EDITOR="+seqEditor,
		"GIT_EDITOR=true",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr == nil {
		return nil
	}

	// Leave nothing half-rebased behind, even when interrupted mid-wait.
	_ = git.RebaseAbort(context.WithoutCancel(ctx), workdir)

	diag := CleanRebaseOutput(stderr.String())
	if isConflict(diag) {
		return &RebaseConflictError{Stderr: diag}
	}
	if diag == "" {
		diag = runErr.Error()
	}
	return &RebaseFailedError{Stderr: diag}
}

// Continue resumes a paused rebase (after an edit stop was amended).
// A failed continue aborts the rebase.
func Continue(ctx context.Context, workdir string) error {
	log.FromContext(ctx).Command("git", "rebase", "--continue")
	cmd := exec.CommandContext(ctx, "git", "rebase", "--continue")
	cmd.Dir = workdir
	cmd.Env = append(os.Environ(), "GIT_EDITOR=true")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		_ = git.RebaseAbort(context.WithoutCancel(ctx), workdir)
		diag := CleanRebaseOutput(stderr.String())
		if diag == "" {
			diag = err.Error()
		}
		return &RebaseFailedError{Stderr: diag}
	}
	return nil
}

// WriteTodo implements the internal-write-todo subcommand: copy the
// pre-generated program over the file git hands to its sequence editor.
func WriteTodo(source, todoFile string) error {
	content, err := os.ReadFile(source)
	if err != nil {
		return fmt.Errorf("read todo source %q: %w", source, err)
	}
	if err := os.WriteFile(todoFile, content, 0o644); err != nil {
		return fmt.Errorf("write todo file %q: %w", todoFile, err)
	}
	return nil
}

// selfExePath resolves the git-loom binary. Under `go test` the running
// process lives in the build cache or a deps/ directory; when the parent
// directory is named deps, the real binary sits one level up.
func selfExePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	parent := filepath.Dir(exe)
	if filepath.Base(parent) == "deps" {
		name := "git-loom"
		if runtime.GOOS == "windows" {
			name += ".exe"
		}
		candidate := filepath.Join(filepath.Dir(parent), name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return exe, nil
}

// posixQuote single-quotes a string for a POSIX shell.
func posixQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r == '/' || r == '.' || r == '-' || r == '_' ||
			r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// CleanRebaseOutput strips git's "use git commands to continue" coaching from
// captured rebase output; conflict diagnostics stay verbatim.
func CleanRebaseOutput(out string) string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(trimmed, "hint:"):
			continue
		case strings.Contains(trimmed, "git rebase --continue"),
			strings.Contains(trimmed, "git rebase --skip"),
			strings.Contains(trimmed, "git rebase --abort"),
			strings.Contains(trimmed, "Resolve all conflicts manually"),
			strings.Contains(trimmed, "git add/rm <conflicted_files>"):
			continue
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func isConflict(out string) bool {
	return strings.Contains(out, "CONFLICT") ||
		strings.Contains(out, "could not apply") ||
		strings.Contains(out, "Merge conflict")
}

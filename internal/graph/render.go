package graph

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/loomkit/git-loom/internal/git"
	"github.com/loomkit/git-loom/internal/shortid"
	"github.com/loomkit/git-loom/internal/ui/styles"
)

// Render builds sections from the repo info and renders them as a UTF-8
// graph. Stacked branches are connected with `││` and `│├─`; independent
// branches close with `├╯` and open with `│╭─`.
func Render(info *git.RepoInfo, ids *shortid.Allocator) string {
	sections := BuildSections(info)

	var b strings.Builder
	lastIdx := len(sections) - 1
	dotIdx := 0

	for idx, section := range sections {
		switch s := section.(type) {
		case WorkingChanges:
			renderWorkingChanges(&b, s.Changes, ids)
		case BranchSection:
			dot := styles.BranchDots[dotIdx%len(styles.BranchDots)]
			dotIdx++
			prevStacked := idx > 0 && stackedWithNext(sections, idx-1)
			nextStacked := stackedWithNext(sections, idx)
			renderBranch(&b, s, dot, prevStacked, nextStacked, idx < lastIdx, ids)
		case Loose:
			renderLoose(&b, s.Commits, idx < lastIdx, ids)
		case Upstream:
			renderUpstream(&b, s.Info)
		case Context:
			renderContext(&b, s.Commits)
		}
	}

	return b.String()
}

func renderWorkingChanges(b *strings.Builder, changes []git.FileChange, ids *shortid.Allocator) {
	fmt.Fprintf(b, "%s %s %s%s%s\n",
		styles.Render(styles.Graph, "╭─"),
		styles.Render(styles.ShortID, ids.UnstagedID()),
		styles.Render(styles.Dim, "["),
		styles.Render(styles.Label, "local changes"),
		styles.Render(styles.Dim, "]"))

	if len(changes) == 0 {
		fmt.Fprintf(b, "%s   %s\n",
			styles.Render(styles.Graph, "│"),
			styles.Render(styles.Dim, "no changes"))
	} else {
		for _, change := range changes {
			fmt.Fprintf(b, "%s   %s %s%s %s\n",
				styles.Render(styles.Graph, "│"),
				styles.Render(styles.ShortID, ids.FileID(change.Path)),
				styles.Render(styles.Staged, statusByte(change.Index)),
				styles.Render(styles.Unstaged, statusByte(change.Worktree)),
				styles.Render(styles.Message, change.Path))
		}
	}
	fmt.Fprintln(b, styles.Render(styles.Graph, "│"))
}

func renderBranch(b *strings.Builder, s BranchSection, dotStyle lipgloss.Style, prevStacked, nextStacked, moreSections bool, ids *shortid.Allocator) {
	for i, name := range s.Names {
		connector := "│├─"
		if i == 0 && !prevStacked {
			connector = "│╭─"
		}
		fmt.Fprintf(b, "%s %s %s%s%s\n",
			styles.Render(styles.Graph, connector),
			styles.Render(styles.ShortID, ids.BranchID(name)),
			styles.Render(styles.Dim, "["),
			styles.Render(styles.Branch, name),
			styles.Render(styles.Dim, "]"))
	}

	for _, commit := range s.Commits {
		sid := ids.CommitID(commit.OID)
		rest := strings.TrimPrefix(commit.Short, sid)
		fmt.Fprintf(b, "%s%s    %s%s %s\n",
			styles.Render(styles.Graph, "│"),
			styles.Render(dotStyle, "●"),
			styles.Render(styles.ShortID, sid),
			styles.Render(styles.Dim, rest),
			styles.Render(styles.Message, commit.Message))
		renderCommitFiles(b, "│", "┊", commit, sid)
	}

	if nextStacked {
		fmt.Fprintln(b, styles.Render(styles.Graph, "││"))
	} else {
		fmt.Fprintln(b, styles.Render(styles.Graph, "├╯"))
		if moreSections {
			fmt.Fprintln(b, styles.Render(styles.Graph, "│"))
		}
	}
}

func renderLoose(b *strings.Builder, commits []git.CommitInfo, moreSections bool, ids *shortid.Allocator) {
	for _, commit := range commits {
		sid := ids.CommitID(commit.OID)
		rest := strings.TrimPrefix(commit.Short, sid)
		fmt.Fprintf(b, "%s    %s%s %s\n",
			styles.Render(styles.Graph, "●"),
			styles.Render(styles.ShortID, sid),
			styles.Render(styles.Dim, rest),
			styles.Render(styles.Message, commit.Message))
		renderCommitFiles(b, "", "┊", commit, sid)
	}
	if moreSections {
		fmt.Fprintln(b, styles.Render(styles.Graph, "│"))
	}
}

// renderCommitFiles emits the per-file lines of a commit (only present when
// status ran with --files).
func renderCommitFiles(b *strings.Builder, bar, tick string, commit git.CommitInfo, sid string) {
	for i, file := range commit.Files {
		fileSID := fmt.Sprintf("%s:%d", sid, i)
		fmt.Fprintf(b, "%s%s      %s %s %s\n",
			styles.Render(styles.Graph, bar),
			styles.Render(styles.Graph, tick),
			styles.Render(styles.ShortID, fileSID),
			styles.Render(styles.Staged, string(file.Status)),
			styles.Render(styles.Message, file.Path))
	}
}

func renderUpstream(b *strings.Builder, info git.UpstreamInfo) {
	if info.CommitsAhead > 0 {
		plural := "s"
		if info.CommitsAhead == 1 {
			plural = ""
		}
		fmt.Fprintf(b, "%s%s  %s%s%s %s\n",
			styles.Render(styles.Graph, "│"),
			styles.Render(styles.Graph, "●"),
			styles.Render(styles.Dim, "["),
			styles.Render(styles.Branch, info.Label),
			styles.Render(styles.Dim, "]"),
			styles.Render(styles.Message, fmt.Sprintf("⏫ %d new commit%s", info.CommitsAhead, plural)))
		fmt.Fprintf(b, "%s %s %s %s %s\n",
			styles.Render(styles.Graph, "├╯"),
			styles.Render(styles.Dim, info.BaseShort),
			styles.Render(styles.Label, "(common base)"),
			styles.Render(styles.Dim, info.BaseDate),
			styles.Render(styles.Dim, info.BaseMessage))
	} else {
		fmt.Fprintf(b, "%s %s %s %s%s%s %s\n",
			styles.Render(styles.Graph, "●"),
			styles.Render(styles.Dim, info.BaseShort),
			styles.Render(styles.Label, "(upstream)"),
			styles.Render(styles.Dim, "["),
			styles.Render(styles.Branch, info.Label),
			styles.Render(styles.Dim, "]"),
			styles.Render(styles.Dim, info.BaseMessage))
	}
}

func renderContext(b *strings.Builder, commits []git.ContextCommit) {
	for _, commit := range commits {
		fmt.Fprintf(b, "%s %s %s %s\n",
			styles.Render(styles.Dim, "·"),
			styles.Render(styles.Dim, commit.Short),
			styles.Render(styles.Dim, commit.Date),
			styles.Render(styles.Dim, commit.Message))
	}
}

func statusByte(c byte) string {
	if c == 0 || c == ' ' {
		return " "
	}
	return string(c)
}

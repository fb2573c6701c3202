package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/loomkit/git-loom/internal/git"
	"github.com/loomkit/git-loom/internal/output"
	"github.com/loomkit/git-loom/internal/weave"
)

// fileAnalysis is the per-file outcome: a target commit or a skip reason.
type fileAnalysis struct {
	target  plumbing.Hash
	skipped string
}

// runAbsorb sends working tree changes back into the commits that last
// touched the affected lines, one fixup per target commit, replayed in a
// single rebase.
func runAbsorb(ctx context.Context, dryRun bool, userFiles []string) error {
	repo, info, err := openRepoInfo(git.GatherOptions{})
	if err != nil {
		return err
	}
	workdir := repo.Workdir()
	printer := output.FromContext(ctx)

	inScope := map[plumbing.Hash]*git.CommitInfo{}
	for i := range info.Commits {
		inScope[info.Commits[i].OID] = &info.Commits[i]
	}
	if len(inScope) == 0 {
		return fmt.Errorf("no commits in scope: nothing to absorb into")
	}

	changed, err := absorbFileList(ctx, repo, info, userFiles)
	if err != nil {
		return err
	}
	if len(changed) == 0 {
		return git.ErrNothingToAbsorb
	}

	graph, err := weave.BuildFromInfo(repo, info)
	if err != nil {
		return err
	}

	type assignment struct {
		file   string
		target plumbing.Hash
	}
	var assigned []assignment
	var skipped []struct{ file, reason string }

	for _, file := range changed {
		analysis, err := analyzeFile(ctx, repo, workdir, file, inScope)
		if err != nil {
			return err
		}
		if analysis.skipped != "" {
			skipped = append(skipped, struct{ file, reason string }{file, analysis.skipped})
		} else {
			assigned = append(assigned, assignment{file: file, target: analysis.target})
		}
	}

	for _, a := range assigned {
		message := ""
		if c, ok := inScope[a.target]; ok {
			message = c.Message
		}
		branchNote := ""
		if section := graph.SectionOfCommit(a.target); section != nil {
			branchNote = fmt.Sprintf(" (%s)", section.Label)
		}
		printer.Printf("  %s -> %s %q%s\n", a.file, git.ShortHash(a.target.String()), message, branchNote)
	}
	for _, s := range skipped {
		printer.Printf("  %s -- skipped (%s)\n", s.file, s.reason)
	}

	if len(assigned) == 0 {
		return fmt.Errorf("no files could be absorbed")
	}

	groups := map[plumbing.Hash][]string{}
	var groupOrder []plumbing.Hash
	for _, a := range assigned {
		if _, ok := groups[a.target]; !ok {
			groupOrder = append(groupOrder, a.target)
		}
		groups[a.target] = append(groups[a.target], a.file)
	}

	if dryRun {
		printer.Printf("\nDry run: would absorb %d file(s) into %d commit(s)\n", len(assigned), len(groups))
		return nil
	}

	savedHead, err := repo.HeadOID()
	if err != nil {
		return err
	}
	savedRefs, err := repo.SnapshotBranchRefs()
	if err != nil {
		return err
	}
	rollback := func() {
		_ = git.ResetHard(ctx, workdir, savedHead.String())
		_ = git.RestoreBranchRefs(ctx, workdir, savedRefs)
	}

	// One fixup commit per target commit.
	type fixupPair struct{ fixup, target plumbing.Hash }
	var pairs []fixupPair
	for _, target := range groupOrder {
		files := groups[target]
		if err := git.StageFiles(ctx, workdir, files); err != nil {
			rollback()
			return err
		}
		if err := git.CommitMsg(ctx, workdir, fmt.Sprintf("fixup! absorb into %s", target)); err != nil {
			rollback()
			return err
		}
		fixup, err := repo.HeadOID()
		if err != nil {
			rollback()
			return err
		}
		pairs = append(pairs, fixupPair{fixup: fixup, target: target})
	}

	// Skipped files stay dirty; stash their diff aside so --autostash does
	// not replay it onto rewritten history mid-rebase.
	var skippedPatch string
	if len(skipped) > 0 {
		stillDirty, err := git.DiffHeadNameOnly(ctx, workdir)
		if err != nil {
			rollback()
			return err
		}
		if len(stillDirty) > 0 {
			skippedPatch, err = git.DiffHead(ctx, workdir)
			if err != nil {
				rollback()
				return err
			}
			if err := git.RestoreFilesToHead(ctx, workdir, stillDirty); err != nil {
				rollback()
				return err
			}
		}
	}

	restoreSkipped := func() {
		if skippedPatch != "" {
			_ = git.ApplyPatch(ctx, workdir, skippedPatch)
		}
	}

	// One weave replay absorbs every fixup.
	graph, err = weave.Build(repo)
	if err != nil {
		rollback()
		restoreSkipped()
		return err
	}
	for _, p := range pairs {
		if err := graph.FixupCommit(p.fixup, p.target); err != nil {
			rollback()
			restoreSkipped()
			return err
		}
	}
	todo, err := graph.Serialize()
	if err != nil {
		rollback()
		restoreSkipped()
		return err
	}
	if err := weave.RunRebase(ctx, workdir, &graph.BaseOID, todo); err != nil {
		rollback()
		restoreSkipped()
		return err
	}

	restoreSkipped()

	success(ctx, "Absorbed %d file(s) into %d commit(s)", len(assigned), len(groups))
	return nil
}

// absorbFileList determines the files to analyze: every tracked file with
// uncommitted changes, or the user's paths/short IDs.
func absorbFileList(ctx context.Context, repo *git.Repo, info *git.RepoInfo, userFiles []string) ([]string, error) {
	if len(userFiles) == 0 {
		return git.DiffHeadNameOnly(ctx, repo.Workdir())
	}

	resolver := git.NewResolver(repo, info)
	var out []string
	for _, arg := range userFiles {
		// Literal path first (including deletions still visible in the diff).
		if _, err := os.Stat(filepath.Join(repo.Workdir(), arg)); err == nil {
			out = append(out, arg)
			continue
		}
		if diff, err := git.DiffHeadFile(ctx, repo.Workdir(), arg); err == nil && strings.TrimSpace(diff) != "" {
			out = append(out, arg)
			continue
		}

		resolved, err := resolver.Resolve(arg)
		if err != nil {
			return nil, fmt.Errorf("%q is not a file path or file short ID\nRun `git-loom status` to see available IDs", arg)
		}
		f, ok := resolved.(git.FileTarget)
		if !ok {
			return nil, fmt.Errorf("%q is not a file path or file short ID\nRun `git-loom status` to see available IDs", arg)
		}
		out = append(out, f.Path)
	}
	return out, nil
}

// analyzeFile decides which commit a file's changes should be absorbed
// into: every touched original line must trace (via blame at HEAD) to the
// same in-scope commit.
func analyzeFile(ctx context.Context, repo *git.Repo, workdir, path string, inScope map[plumbing.Hash]*git.CommitInfo) (fileAnalysis, error) {
	diff, err := git.DiffHeadFile(ctx, workdir, path)
	if err != nil {
		return fileAnalysis{}, err
	}

	if strings.TrimSpace(diff) == "" {
		return fileAnalysis{skipped: "no changes"}, nil
	}
	if strings.Contains(diff, "Binary files") {
		return fileAnalysis{skipped: "binary file"}, nil
	}

	modified := parseModifiedLines(diff)
	if len(modified) == 0 {
		return fileAnalysis{skipped: "pure addition"}, nil
	}

	blame, err := repo.BlameHead(path)
	if err != nil {
		return fileAnalysis{skipped: "new file"}, nil
	}

	sources := map[plumbing.Hash]bool{}
	for _, lineNo := range modified {
		if lineNo >= 1 && lineNo <= len(blame) {
			sources[blame[lineNo-1]] = true
		}
	}

	if len(sources) > 1 {
		return fileAnalysis{skipped: "lines from multiple commits"}, nil
	}
	if len(sources) == 0 {
		return fileAnalysis{skipped: "no blame data"}, nil
	}

	var target plumbing.Hash
	for oid := range sources {
		target = oid
	}
	if _, ok := inScope[target]; !ok {
		return fileAnalysis{skipped: "out of scope"}, nil
	}

	return fileAnalysis{target: target}, nil
}

// parseModifiedLines extracts the original line numbers of modified or
// deleted lines from a unified diff, using the hunk headers to track the
// original side.
func parseModifiedLines(diff string) []int {
	var result []int
	origLine := 0

	for _, line := range strings.Split(diff, "\n") {
		if start, ok := parseHunkHeader(line); ok {
			origLine = start
			continue
		}
		switch {
		case strings.HasPrefix(line, "-"):
			// A removed line, unless it is the "--- a/file" header.
			if !strings.HasPrefix(line, "--- ") {
				result = append(result, origLine)
				origLine++
			}
		case strings.HasPrefix(line, "+"):
			// Added lines don't consume an original line number.
		case strings.HasPrefix(line, `\`):
			// "\ No newline at end of file"
		default:
			origLine++
		}
	}

	return result
}

// parseHunkHeader extracts the original-side start line from a hunk header
// of the form `@@ -start,count +newStart,newCount @@`.
func parseHunkHeader(line string) (int, bool) {
	rest, ok := strings.CutPrefix(line, "@@ -")
	if !ok {
		return 0, false
	}
	end := strings.IndexAny(rest, ", ")
	if end < 0 {
		return 0, false
	}
	start, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0, false
	}
	return start, true
}

// Package graph builds and renders the branch-aware status: working tree
// changes on top, then feature branch and loose commit sections down the
// first-parent line, then the upstream marker.
package graph

import (
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/loomkit/git-loom/internal/git"
)

// Section is one logical block of the rendered status.
type Section interface {
	section()
}

// WorkingChanges is the working tree status, always the first section.
type WorkingChanges struct {
	Changes []git.FileChange
}

// BranchSection is a feature branch with the commits it owns. Multiple names
// occur when several branches point at the same tip.
type BranchSection struct {
	Names   []string
	Commits []git.CommitInfo
}

// Loose holds integration-line commits that belong to no feature branch.
type Loose struct {
	Commits []git.CommitInfo
}

// Upstream is the tracking branch / common base marker at the bottom.
type Upstream struct {
	Info git.UpstreamInfo
}

// Context holds dimmed commits before the base.
type Context struct {
	Commits []git.ContextCommit
}

func (WorkingChanges) section() {}
func (BranchSection) section()  {}
func (Loose) section()          {}
func (Upstream) section()       {}
func (Context) section()        {}

// BuildSections groups the gathered commits into render sections. A commit
// belongs to a branch when it is reachable from the branch tip along parent
// links without crossing another branch's tip (the stacked-branch boundary).
func BuildSections(info *git.RepoInfo) []Section {
	tipSet := map[plumbing.Hash]bool{}
	tipNames := map[plumbing.Hash][]string{}
	for _, b := range info.Branches {
		tipSet[b.Tip] = true
		tipNames[b.Tip] = append(tipNames[b.Tip], b.Name)
	}

	parent := map[plumbing.Hash]*plumbing.Hash{}
	for _, c := range info.Commits {
		parent[c.OID] = c.ParentOID
	}

	// Assign commits to the canonical (alphabetically first) branch name of
	// each unique tip.
	commitBranch := map[plumbing.Hash]string{}
	seenTips := map[plumbing.Hash]bool{}
	for _, b := range info.Branches {
		if seenTips[b.Tip] {
			continue
		}
		seenTips[b.Tip] = true
		canonical := tipNames[b.Tip][0]

		current := &b.Tip
		isTip := true
		for current != nil {
			oid := *current
			if _, inRange := parent[oid]; !inRange {
				break
			}
			if !isTip && tipSet[oid] {
				break
			}
			isTip = false
			commitBranch[oid] = canonical
			current = parent[oid]
		}
	}

	// Display names per canonical name, reversed so the alphabetically last
	// (usually newest) branch shows on top.
	displayNames := map[string][]string{}
	for _, names := range tipNames {
		reversed := make([]string, len(names))
		for i, n := range names {
			reversed[len(names)-1-i] = n
		}
		displayNames[names[0]] = reversed
	}

	sections := []Section{WorkingChanges{Changes: info.WorkingChanges}}

	var loose []git.CommitInfo
	var branchSections []Section

	commits := info.Commits
	for i := 0; i < len(commits); {
		c := commits[i]
		if name, ok := commitBranch[c.OID]; ok {
			group := []git.CommitInfo{c}
			for i++; i < len(commits); i++ {
				if commitBranch[commits[i].OID] != name {
					break
				}
				group = append(group, commits[i])
			}
			names := displayNames[name]
			if len(names) == 0 {
				names = []string{name}
			}
			branchSections = append(branchSections, BranchSection{Names: names, Commits: group})
		} else {
			loose = append(loose, c)
			for i++; i < len(commits); i++ {
				if _, owned := commitBranch[commits[i].OID]; owned {
					break
				}
				loose = append(loose, commits[i])
			}
		}
	}

	// Branches sitting at the merge-base own no commits in range; still show
	// them as empty sections.
	represented := map[string]bool{}
	for _, name := range commitBranch {
		represented[name] = true
	}
	for canonical, names := range displayNames {
		if !represented[canonical] {
			branchSections = append(branchSections, BranchSection{Names: names})
		}
	}

	if len(loose) > 0 {
		sections = append(sections, Loose{Commits: loose})
	}
	sections = append(sections, branchSections...)
	sections = append(sections, Upstream{Info: info.Upstream})

	if len(info.ContextCommits) > 0 {
		sections = append(sections, Context{Commits: info.ContextCommits})
	}

	return sections
}

// stackedWithNext reports whether the section after idx is stacked on it:
// the last commit of this branch is the parent of the first commit of the
// next one.
func stackedWithNext(sections []Section, idx int) bool {
	cur, ok := sections[idx].(BranchSection)
	if !ok || len(cur.Commits) == 0 {
		return false
	}
	if idx+1 >= len(sections) {
		return false
	}
	next, ok := sections[idx+1].(BranchSection)
	if !ok || len(next.Commits) == 0 {
		return false
	}
	last := cur.Commits[len(cur.Commits)-1]
	return last.ParentOID != nil && *last.ParentOID == next.Commits[0].OID
}

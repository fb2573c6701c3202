package weave

import (
	"fmt"
	"slices"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/loomkit/git-loom/internal/git"
)

// Build constructs the weave from the current repository state: the
// first-parent line from HEAD down to the merge-base, with each merge's side
// branch collected into a section.
func Build(repo *git.Repo) (*Weave, error) {
	branch, head, err := repo.Head()
	if err != nil {
		return nil, err
	}
	_, upstreamTip, err := repo.Upstream(branch)
	if err != nil {
		return nil, err
	}
	base, err := repo.MergeBase(head, upstreamTip)
	if err != nil {
		return nil, err
	}
	return build(repo, branch, head, base)
}

// BuildFromInfo constructs the weave reusing already-gathered repo info.
func BuildFromInfo(repo *git.Repo, info *git.RepoInfo) (*Weave, error) {
	_, head, err := repo.Head()
	if err != nil {
		return nil, err
	}
	return build(repo, info.Branch, head, info.Upstream.MergeBaseOID)
}

func build(repo *git.Repo, branch string, head, base plumbing.Hash) (*Weave, error) {
	tips, err := repo.BranchTips(branch)
	if err != nil {
		return nil, err
	}
	// Branches at the merge-base own nothing in range and are not woven.
	delete(tips, base)

	line, err := firstParentLine(repo, head, base)
	if err != nil {
		return nil, err
	}

	w := &Weave{BaseOID: base}

	// claimed maps side-branch commits to their section label, so a later
	// section whose walk runs into one knows it is stacked on it.
	claimed := map[plumbing.Hash]string{}
	// picked tracks commits already emitted on the integration line.
	picked := map[plumbing.Hash]bool{}
	assigned := map[string]bool{}

	for _, entry := range line {
		if entry.mergeParent == nil {
			updateRefs := unassignedNames(tips[entry.oid], assigned)
			for _, n := range updateRefs {
				assigned[n] = true
			}
			picked[entry.oid] = true
			w.Line = append(w.Line, PickEntry{Commit: CommitEntry{
				OID:        entry.oid,
				Short:      git.ShortHash(entry.oid.String()),
				Message:    entry.message,
				Command:    Pick,
				UpdateRefs: updateRefs,
			}})
			continue
		}

		tip := *entry.mergeParent
		names := unassignedNames(tips[tip], assigned)

		resetTarget := "onto"
		var sideCommits []*object.Commit
		current := tip
		for current != base {
			if label, ok := claimed[current]; ok {
				resetTarget = label
				break
			}
			if picked[current] {
				break
			}
			c, err := repo.Commit(current)
			if err != nil {
				return nil, err
			}
			if c.NumParents() <= 1 {
				sideCommits = append(sideCommits, c)
			}
			if c.NumParents() == 0 {
				break
			}
			current = c.ParentHashes[0]
		}

		// Empty side branches (tip at the base) are not represented.
		if len(sideCommits) == 0 && len(names) == 0 {
			continue
		}

		label := fmt.Sprintf("section-%s", git.ShortHash(tip.String()))
		if len(names) > 0 {
			label = names[0]
		}

		slices.Reverse(sideCommits)
		commits := make([]CommitEntry, 0, len(sideCommits))
		for _, n := range names {
			assigned[n] = true
		}
		for _, c := range sideCommits {
			claimed[c.Hash] = label
			updateRefs := unassignedNames(tips[c.Hash], assigned)
			for _, n := range updateRefs {
				assigned[n] = true
			}
			commits = append(commits, CommitEntry{
				OID:        c.Hash,
				Short:      git.ShortHash(c.Hash.String()),
				Message:    firstLine(c),
				Command:    Pick,
				UpdateRefs: updateRefs,
			})
		}

		w.Sections = append(w.Sections, BranchSection{
			ResetTarget: resetTarget,
			Commits:     commits,
			Label:       label,
			BranchNames: names,
		})

		mergeOID := entry.oid
		w.Line = append(w.Line, MergeEntry{OriginalOID: &mergeOID, Label: label})
	}

	return w, nil
}

// BuildLinear constructs a degenerate weave for repositories without an
// upstream: no sections, just picks from `from` (exclusive, nil for the
// root) up to HEAD. Used by commands that must work outside an integration
// branch.
func BuildLinear(repo *git.Repo, from *plumbing.Hash) (*Weave, error) {
	head, err := repo.HeadOID()
	if err != nil {
		return nil, err
	}

	stop := plumbing.ZeroHash
	if from != nil {
		stop = *from
	}

	w := &Weave{BaseOID: stop}
	var entries []CommitEntry
	current := head
	for current != stop {
		c, err := repo.Commit(current)
		if err != nil {
			return nil, err
		}
		entries = append(entries, CommitEntry{
			OID:     c.Hash,
			Short:   git.ShortHash(c.Hash.String()),
			Message: firstLine(c),
			Command: Pick,
		})
		if c.NumParents() == 0 {
			break
		}
		current = c.ParentHashes[0]
	}

	slices.Reverse(entries)
	for _, e := range entries {
		w.Line = append(w.Line, PickEntry{Commit: e})
	}
	return w, nil
}

// lineEntry is one commit from the first-parent walk, merges included.
type lineEntry struct {
	oid     plumbing.Hash
	message string
	// mergeParent is the second parent for merge commits.
	mergeParent *plumbing.Hash
}

// firstParentLine walks head down to stop (exclusive), returning entries
// oldest first.
func firstParentLine(repo *git.Repo, head, stop plumbing.Hash) ([]lineEntry, error) {
	var entries []lineEntry
	current := head
	for current != stop {
		c, err := repo.Commit(current)
		if err != nil {
			return nil, err
		}
		entry := lineEntry{oid: current, message: firstLine(c)}
		if c.NumParents() > 1 {
			mp := c.ParentHashes[1]
			entry.mergeParent = &mp
		}
		entries = append(entries, entry)
		if c.NumParents() == 0 {
			break
		}
		current = c.ParentHashes[0]
	}
	slices.Reverse(entries)
	return entries, nil
}

func unassignedNames(names []string, assigned map[string]bool) []string {
	var out []string
	for _, n := range names {
		if !assigned[n] {
			out = append(out, n)
		}
	}
	return out
}

func firstLine(c *object.Commit) string {
	msg := c.Message
	for i := 0; i < len(msg); i++ {
		if msg[i] == '\n' {
			return msg[:i]
		}
	}
	return msg
}

// Package weave models the topology of an integration branch as a value
// graph: woven branch sections joined to a first-parent line by merge
// entries. Mutations are pure and in-memory; nothing here touches the
// repository. The graph serializes to a rebase-merges todo program which the
// rebase driver replays in a single atomic interactive rebase.
package weave

import (
	"fmt"
	"slices"

	"github.com/go-git/go-git/v5/plumbing"
)

// Command is the todo instruction for a commit.
type Command int

const (
	Pick Command = iota
	Edit
	Fixup
)

func (c Command) String() string {
	switch c {
	case Edit:
		return "edit"
	case Fixup:
		return "fixup"
	default:
		return "pick"
	}
}

// CommitEntry is a commit in the todo program.
type CommitEntry struct {
	OID     plumbing.Hash
	Short   string
	Message string
	Command Command
	// UpdateRefs holds non-woven branch names pointing at this commit,
	// serialized as update-ref lines.
	UpdateRefs []string
}

// BranchSection is a woven branch in the todo program.
type BranchSection struct {
	// ResetTarget is "onto" or the label of an earlier section (stacked).
	ResetTarget string
	// Commits oldest first.
	Commits []CommitEntry
	// Label names the section in label/merge directives. Unique.
	Label string
	// BranchNames are all branch refs at the section tip (co-located).
	BranchNames []string
}

// IntegrationEntry is one entry on the first-parent line: either a PickEntry
// or a MergeEntry.
type IntegrationEntry interface {
	integrationEntry()
}

// PickEntry is a regular commit on the integration line.
type PickEntry struct {
	Commit CommitEntry
}

// MergeEntry joins a branch section into the integration line.
type MergeEntry struct {
	// OriginalOID preserves the original merge commit's message when set;
	// nil lets git synthesize the default message.
	OriginalOID *plumbing.Hash
	// Label of the branch section being merged.
	Label string
}

func (PickEntry) integrationEntry()  {}
func (MergeEntry) integrationEntry() {}

// Weave is the integration branch topology.
type Weave struct {
	// BaseOID is the merge-base, the "onto" anchor of the rebase.
	BaseOID plumbing.Hash
	// Sections in dependency order: a stacked section follows its base.
	Sections []BranchSection
	// Line is the first-parent line, oldest first.
	Line []IntegrationEntry
}

// CommitNotFoundError reports a mutation target missing from the graph.
type CommitNotFoundError struct {
	OID plumbing.Hash
}

func (e *CommitNotFoundError) Error() string {
	return fmt.Sprintf("commit %s is not in the integration range", shortHash(e.OID.String()))
}

// BranchNotWovenError reports a branch that has no section in the graph.
type BranchNotWovenError struct {
	Name string
}

func (e *BranchNotWovenError) Error() string {
	return fmt.Sprintf("branch %q is not woven into the integration branch", e.Name)
}

// ── Mutations ───────────────────────────────────────────────────────────

// DropCommit removes the commit from wherever it lives. Removing the last
// commit of a section also removes the section and its merge entry.
func (w *Weave) DropCommit(oid plumbing.Hash) error {
	for i := range w.Sections {
		s := &w.Sections[i]
		if pos := slices.IndexFunc(s.Commits, func(c CommitEntry) bool { return c.OID == oid }); pos >= 0 {
			s.Commits = slices.Delete(s.Commits, pos, pos+1)
			if len(s.Commits) == 0 {
				w.removeSection(i)
			}
			return nil
		}
	}

	for i, e := range w.Line {
		if p, ok := e.(PickEntry); ok && p.Commit.OID == oid {
			w.Line = slices.Delete(w.Line, i, i+1)
			return nil
		}
	}

	return &CommitNotFoundError{OID: oid}
}

// DropBranch removes the section owning the branch plus its merge entry.
func (w *Weave) DropBranch(name string) error {
	idx := w.sectionIndex(name)
	if idx < 0 {
		return &BranchNotWovenError{Name: name}
	}
	w.removeSection(idx)
	return nil
}

// MoveCommit removes the commit from its current location and appends it to
// the section owning the target branch.
//
// When the target branch is co-located with others, the section is split:
// the original commits stay with the remaining branches and a new stacked
// section is created for the target, containing only the moved commit.
func (w *Weave) MoveCommit(oid plumbing.Hash, toBranch string) error {
	idx := w.sectionIndex(toBranch)
	if idx < 0 {
		return &BranchNotWovenError{Name: toBranch}
	}

	commit, ok := w.removeCommit(oid)
	if !ok {
		return &CommitNotFoundError{OID: oid}
	}
	commit.Command = Pick

	section := &w.Sections[idx]
	if len(section.BranchNames) > 1 && slices.Contains(section.BranchNames, toBranch) {
		oldLabel := section.Label

		section.BranchNames = slices.DeleteFunc(section.BranchNames, func(n string) bool { return n == toBranch })
		if section.Label == toBranch && len(section.BranchNames) > 0 {
			section.Label = section.BranchNames[0]
		}

		stacked := BranchSection{
			ResetTarget: section.Label,
			Commits:     []CommitEntry{commit},
			Label:       toBranch,
			BranchNames: []string{toBranch},
		}
		w.Sections = slices.Insert(w.Sections, idx+1, stacked)

		// The merge entry now references the outermost (stacked) section.
		w.relabelMerges(oldLabel, toBranch)
		return nil
	}

	section.Commits = append(section.Commits, commit)
	return nil
}

// FixupCommit turns the source commit into a fixup of the target, placing it
// immediately after the target's pick/edit entry. The source must be
// topologically after the target and the target must not be a merge.
func (w *Weave) FixupCommit(source, target plumbing.Hash) error {
	if source == target {
		return fmt.Errorf("cannot fold commit %s into itself", shortHash(source.String()))
	}
	if !w.containsCommit(target) {
		return &CommitNotFoundError{OID: target}
	}

	commit, ok := w.removeCommit(source)
	if !ok {
		return &CommitNotFoundError{OID: source}
	}
	commit.Command = Fixup

	for i := range w.Sections {
		s := &w.Sections[i]
		if pos := slices.IndexFunc(s.Commits, func(c CommitEntry) bool { return c.OID == target }); pos >= 0 {
			s.Commits = slices.Insert(s.Commits, pos+1, commit)
			return nil
		}
	}

	for i, e := range w.Line {
		if p, ok := e.(PickEntry); ok && p.Commit.OID == target {
			w.Line = slices.Insert(w.Line, i+1, IntegrationEntry(PickEntry{Commit: commit}))
			return nil
		}
	}

	return &CommitNotFoundError{OID: target}
}

// EditCommit switches the commit's command to Edit. Idempotent.
func (w *Weave) EditCommit(oid plumbing.Hash) error {
	for i := range w.Sections {
		for j := range w.Sections[i].Commits {
			if w.Sections[i].Commits[j].OID == oid {
				w.Sections[i].Commits[j].Command = Edit
				return nil
			}
		}
	}
	for i, e := range w.Line {
		if p, ok := e.(PickEntry); ok && p.Commit.OID == oid {
			p.Commit.Command = Edit
			w.Line[i] = p
			return nil
		}
	}
	return &CommitNotFoundError{OID: oid}
}

// WeaveBranch converts a non-woven branch into a woven one: every pick on the
// integration line up to and including the branch tip moves into a new
// section, and a merge entry referencing it is appended.
func (w *Weave) WeaveBranch(name string) error {
	branchIdx := -1
	for i, e := range w.Line {
		if p, ok := e.(PickEntry); ok && slices.Contains(p.Commit.UpdateRefs, name) {
			branchIdx = i
			break
		}
	}
	if branchIdx < 0 {
		return &BranchNotWovenError{Name: name}
	}

	var commits []CommitEntry
	var rest []IntegrationEntry
	for i, e := range w.Line {
		p, isPick := e.(PickEntry)
		if i <= branchIdx && isPick {
			c := p.Commit
			c.UpdateRefs = slices.DeleteFunc(slices.Clone(c.UpdateRefs), func(r string) bool { return r == name })
			commits = append(commits, c)
			continue
		}
		rest = append(rest, e)
	}
	w.Line = rest

	w.Sections = append(w.Sections, BranchSection{
		ResetTarget: "onto",
		Commits:     commits,
		Label:       name,
		BranchNames: []string{name},
	})
	w.Line = append(w.Line, MergeEntry{Label: name})
	return nil
}

// ReassignBranch moves a section's identity from one co-located branch to
// another: the dropped branch leaves BranchNames, the label and merge entry
// follow the kept branch.
func (w *Weave) ReassignBranch(drop, keep string) error {
	idx := w.sectionIndex(drop)
	if idx < 0 {
		return &BranchNotWovenError{Name: drop}
	}
	section := &w.Sections[idx]

	oldLabel := section.Label
	if section.Label == drop {
		section.Label = keep
	}
	section.BranchNames = slices.DeleteFunc(section.BranchNames, func(n string) bool { return n == drop })
	if !slices.Contains(section.BranchNames, keep) {
		section.BranchNames = append(section.BranchNames, keep)
	}

	w.relabelMerges(oldLabel, section.Label)
	return nil
}

// AddBranchSection appends a new section. Sections must stay in dependency
// order; the caller appends stacked sections after their base.
func (w *Weave) AddBranchSection(label string, branchNames []string, commits []CommitEntry, resetTarget string) {
	w.Sections = append(w.Sections, BranchSection{
		ResetTarget: resetTarget,
		Commits:     commits,
		Label:       label,
		BranchNames: branchNames,
	})
}

// AddMerge inserts a merge entry on the integration line. A negative
// position appends at the end.
func (w *Weave) AddMerge(label string, originalOID *plumbing.Hash, position int) {
	entry := MergeEntry{OriginalOID: originalOID, Label: label}
	if position < 0 || position >= len(w.Line) {
		w.Line = append(w.Line, entry)
		return
	}
	w.Line = slices.Insert(w.Line, position, IntegrationEntry(entry))
}

// ── Helpers ─────────────────────────────────────────────────────────────

// sectionIndex finds the section whose label or branch names match.
func (w *Weave) sectionIndex(name string) int {
	return slices.IndexFunc(w.Sections, func(s BranchSection) bool {
		return s.Label == name || slices.Contains(s.BranchNames, name)
	})
}

// SectionFor returns the section owning a branch, or nil.
func (w *Weave) SectionFor(name string) *BranchSection {
	if idx := w.sectionIndex(name); idx >= 0 {
		return &w.Sections[idx]
	}
	return nil
}

// SectionOfCommit returns the section containing a commit, or nil.
func (w *Weave) SectionOfCommit(oid plumbing.Hash) *BranchSection {
	for i := range w.Sections {
		for _, c := range w.Sections[i].Commits {
			if c.OID == oid {
				return &w.Sections[i]
			}
		}
	}
	return nil
}

func (w *Weave) removeSection(idx int) {
	label := w.Sections[idx].Label
	w.Sections = slices.Delete(w.Sections, idx, idx+1)
	w.Line = slices.DeleteFunc(w.Line, func(e IntegrationEntry) bool {
		m, ok := e.(MergeEntry)
		return ok && m.Label == label
	})
}

func (w *Weave) relabelMerges(oldLabel, newLabel string) {
	for i, e := range w.Line {
		if m, ok := e.(MergeEntry); ok && m.Label == oldLabel {
			m.Label = newLabel
			w.Line[i] = m
		}
	}
}

// removeCommit extracts a commit from wherever it is in the graph.
func (w *Weave) removeCommit(oid plumbing.Hash) (CommitEntry, bool) {
	for i := range w.Sections {
		s := &w.Sections[i]
		if pos := slices.IndexFunc(s.Commits, func(c CommitEntry) bool { return c.OID == oid }); pos >= 0 {
			commit := s.Commits[pos]
			s.Commits = slices.Delete(s.Commits, pos, pos+1)
			return commit, true
		}
	}
	for i, e := range w.Line {
		if p, ok := e.(PickEntry); ok && p.Commit.OID == oid {
			w.Line = slices.Delete(w.Line, i, i+1)
			return p.Commit, true
		}
	}
	return CommitEntry{}, false
}

func (w *Weave) containsCommit(oid plumbing.Hash) bool {
	for i := range w.Sections {
		for _, c := range w.Sections[i].Commits {
			if c.OID == oid {
				return true
			}
		}
	}
	for _, e := range w.Line {
		if p, ok := e.(PickEntry); ok && p.Commit.OID == oid {
			return true
		}
	}
	return false
}

// shortHash truncates a full hash to a 7 character display form.
func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}

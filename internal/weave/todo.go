package weave

import (
	"fmt"
	"strings"
)

// InvariantError reports a malformed graph detected before serialization.
// Seeing one means a bug in a mutation or in the topology builder.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("weave invariant violated: %s", e.Reason)
}

// Serialize emits the todo program for a merge-preserving interactive rebase.
//
// Sections whose commit list became empty during mutation are dropped along
// with the merge entries referencing them. The graph is validated first; a
// malformed graph fails here instead of mid-rebase.
func (w *Weave) Serialize() (string, error) {
	pruned := w.pruneEmptySections()

	if err := pruned.validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("label onto\n")

	for _, section := range pruned.Sections {
		b.WriteString("\n")
		fmt.Fprintf(&b, "reset %s\n", section.ResetTarget)
		writeCommits(&b, section.Commits)
		fmt.Fprintf(&b, "label %s\n", section.Label)
		for _, name := range section.BranchNames {
			fmt.Fprintf(&b, "update-ref refs/heads/%s\n", name)
		}
	}

	b.WriteString("\nreset onto\n")
	var pending []string
	for _, entry := range pruned.Line {
		switch e := entry.(type) {
		case PickEntry:
			pending = flushRefs(&b, pending, e.Commit.Command)
			writeCommit(&b, e.Commit)
			pending = append(pending, e.Commit.UpdateRefs...)
		case MergeEntry:
			pending = flushRefs(&b, pending, Pick)
			if e.OriginalOID != nil {
				fmt.Fprintf(&b, "merge -C %s %s # Merge branch '%s'\n",
					shortHash(e.OriginalOID.String()), e.Label, e.Label)
			} else {
				fmt.Fprintf(&b, "merge %s # Merge branch '%s'\n", e.Label, e.Label)
			}
		}
	}
	for _, r := range pending {
		fmt.Fprintf(&b, "update-ref refs/heads/%s\n", r)
	}

	return b.String(), nil
}

// writeCommits emits a section's commit lines. Update-ref lines are deferred
// past any trailing fixups so the ref points at the combined result, not the
// pre-fixup hash.
func writeCommits(b *strings.Builder, commits []CommitEntry) {
	var pending []string
	for _, commit := range commits {
		pending = flushRefs(b, pending, commit.Command)
		writeCommit(b, commit)
		pending = append(pending, commit.UpdateRefs...)
	}
	for _, r := range pending {
		fmt.Fprintf(b, "update-ref refs/heads/%s\n", r)
	}
}

// flushRefs emits pending update-refs unless the upcoming command is a fixup
// (which still amends the commit the refs should land on).
func flushRefs(b *strings.Builder, pending []string, next Command) []string {
	if next == Fixup {
		return pending
	}
	for _, r := range pending {
		fmt.Fprintf(b, "update-ref refs/heads/%s\n", r)
	}
	return pending[:0]
}

func writeCommit(b *strings.Builder, c CommitEntry) {
	fmt.Fprintf(b, "%s %s %s\n", c.Command, c.Short, c.Message)
}

// pruneEmptySections returns a copy without empty sections and without merge
// entries referencing them.
func (w *Weave) pruneEmptySections() *Weave {
	dropped := make(map[string]bool)
	out := &Weave{BaseOID: w.BaseOID}
	for _, s := range w.Sections {
		if len(s.Commits) == 0 {
			dropped[s.Label] = true
			continue
		}
		out.Sections = append(out.Sections, s)
	}
	for _, e := range w.Line {
		if m, ok := e.(MergeEntry); ok && dropped[m.Label] {
			continue
		}
		out.Line = append(out.Line, e)
	}
	return out
}

// validate checks the structural invariants the engine must preserve.
func (w *Weave) validate() error {
	labels := make(map[string]int)
	for _, s := range w.Sections {
		if s.Label == "" {
			return &InvariantError{Reason: "section with empty label"}
		}
		if s.Label == "onto" {
			return &InvariantError{Reason: "section label \"onto\" is reserved"}
		}
		if _, dup := labels[s.Label]; dup {
			return &InvariantError{Reason: fmt.Sprintf("duplicate section label %q", s.Label)}
		}
		labels[s.Label] = 0
		if len(s.BranchNames) == 0 {
			return &InvariantError{Reason: fmt.Sprintf("section %q has no branch names", s.Label)}
		}
	}

	// Reset targets: onto or an earlier section's label.
	seen := make(map[string]bool)
	for _, s := range w.Sections {
		if s.ResetTarget != "onto" && !seen[s.ResetTarget] {
			return &InvariantError{Reason: fmt.Sprintf(
				"section %q resets to %q, which is not \"onto\" or an earlier section", s.Label, s.ResetTarget)}
		}
		seen[s.Label] = true
	}

	// Every merge resolves to exactly one section, and no section is merged
	// twice. A section without a merge of its own is still legal when a
	// later section stacks on it: its commits flow in through that
	// section's reset, then merge.
	for _, e := range w.Line {
		if m, ok := e.(MergeEntry); ok {
			count, known := labels[m.Label]
			if !known {
				return &InvariantError{Reason: fmt.Sprintf("merge references unknown section %q", m.Label)}
			}
			if count > 0 {
				return &InvariantError{Reason: fmt.Sprintf("section %q is merged more than once", m.Label)}
			}
			labels[m.Label] = count + 1
		}
	}
	resetTargets := make(map[string]bool)
	for _, s := range w.Sections {
		if s.ResetTarget != "onto" {
			resetTargets[s.ResetTarget] = true
		}
	}
	for label, count := range labels {
		if count == 0 && !resetTargets[label] {
			return &InvariantError{Reason: fmt.Sprintf("section %q is never merged or stacked on", label)}
		}
	}

	// No commit appears twice; fixups follow a pick or edit.
	seenOID := make(map[string]bool)
	check := func(commits []CommitEntry) error {
		for i, c := range commits {
			if seenOID[c.OID.String()] {
				return &InvariantError{Reason: fmt.Sprintf("commit %s appears twice", c.Short)}
			}
			seenOID[c.OID.String()] = true
			if c.Command == Fixup && i == 0 {
				return &InvariantError{Reason: fmt.Sprintf("fixup %s has no preceding pick", c.Short)}
			}
		}
		return nil
	}
	for _, s := range w.Sections {
		if err := check(s.Commits); err != nil {
			return err
		}
	}
	var lineCommits []CommitEntry
	for _, e := range w.Line {
		if p, ok := e.(PickEntry); ok {
			lineCommits = append(lineCommits, p.Commit)
		} else if len(lineCommits) > 0 {
			// A merge interrupts the pick run; a fixup directly after a
			// merge would have nothing to amend.
			if err := check(lineCommits); err != nil {
				return err
			}
			lineCommits = lineCommits[:0]
		}
	}
	return check(lineCommits)
}

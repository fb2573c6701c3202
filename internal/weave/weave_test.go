package weave

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func h(s string) plumbing.Hash {
	return plumbing.NewHash(strings.Repeat(s, 40)[:40])
}

func entry(id, msg string) CommitEntry {
	oid := h(id)
	return CommitEntry{
		OID:     oid,
		Short:   oid.String()[:7],
		Message: msg,
		Command: Pick,
	}
}

// twoBranchWeave models the result of weaving two independent branches:
//
//	sections: fa [a1], fb [a2]
//	line:     merge fa, merge fb, pick a3
func twoBranchWeave() *Weave {
	m1, m2 := h("e1"), h("e2")
	return &Weave{
		BaseOID: h("00"),
		Sections: []BranchSection{
			{ResetTarget: "onto", Commits: []CommitEntry{entry("a1", "one")}, Label: "fa", BranchNames: []string{"fa"}},
			{ResetTarget: "onto", Commits: []CommitEntry{entry("a2", "two")}, Label: "fb", BranchNames: []string{"fb"}},
		},
		Line: []IntegrationEntry{
			MergeEntry{OriginalOID: &m1, Label: "fa"},
			MergeEntry{OriginalOID: &m2, Label: "fb"},
			PickEntry{Commit: entry("a3", "three")},
		},
	}
}

func linearWeave(ids ...string) *Weave {
	w := &Weave{BaseOID: h("00")}
	for _, id := range ids {
		w.Line = append(w.Line, PickEntry{Commit: entry(id, "commit "+id)})
	}
	return w
}

func TestDropCommit(t *testing.T) {
	t.Parallel()

	t.Run("from integration line", func(t *testing.T) {
		t.Parallel()
		w := linearWeave("a1", "a2", "a3")
		require.NoError(t, w.DropCommit(h("a2")))
		assert.Len(t, w.Line, 2)
	})

	t.Run("last commit removes section and merge", func(t *testing.T) {
		t.Parallel()
		w := twoBranchWeave()
		require.NoError(t, w.DropCommit(h("a1")))
		assert.Len(t, w.Sections, 1)
		assert.Equal(t, "fb", w.Sections[0].Label)
		// The fa merge entry is gone too.
		for _, e := range w.Line {
			if m, ok := e.(MergeEntry); ok {
				assert.NotEqual(t, "fa", m.Label)
			}
		}
	})

	t.Run("unknown commit fails", func(t *testing.T) {
		t.Parallel()
		w := linearWeave("a1")
		var notFound *CommitNotFoundError
		err := w.DropCommit(h("ff"))
		require.Error(t, err)
		assert.True(t, errors.As(err, &notFound))
	})
}

func TestDropBranch(t *testing.T) {
	t.Parallel()

	w := twoBranchWeave()
	require.NoError(t, w.DropBranch("fa"))
	assert.Len(t, w.Sections, 1)
	assert.Len(t, w.Line, 2)

	err := w.DropBranch("nope")
	var notWoven *BranchNotWovenError
	assert.True(t, errors.As(err, &notWoven))
}

func TestMoveCommit(t *testing.T) {
	t.Parallel()

	t.Run("line commit onto branch", func(t *testing.T) {
		t.Parallel()
		w := twoBranchWeave()
		require.NoError(t, w.MoveCommit(h("a3"), "fa"))

		section := w.SectionFor("fa")
		require.NotNil(t, section)
		require.Len(t, section.Commits, 2)
		assert.Equal(t, h("a3"), section.Commits[1].OID)
		assert.Len(t, w.Line, 2) // a3 pick is gone
	})

	t.Run("co-located target splits the section", func(t *testing.T) {
		t.Parallel()
		m := h("e1")
		w := &Weave{
			BaseOID: h("00"),
			Sections: []BranchSection{{
				ResetTarget: "onto",
				Commits:     []CommitEntry{entry("a1", "one")},
				Label:       "fa",
				BranchNames: []string{"fa", "fb"},
			}},
			Line: []IntegrationEntry{
				MergeEntry{OriginalOID: &m, Label: "fa"},
				PickEntry{Commit: entry("a2", "two")},
			},
		}

		require.NoError(t, w.MoveCommit(h("a2"), "fb"))

		require.Len(t, w.Sections, 2)
		base, stacked := w.Sections[0], w.Sections[1]
		assert.Equal(t, "fa", base.Label)
		assert.Equal(t, []string{"fa"}, base.BranchNames)
		assert.Equal(t, "fb", stacked.Label)
		assert.Equal(t, "fa", stacked.ResetTarget)
		require.Len(t, stacked.Commits, 1)
		assert.Equal(t, h("a2"), stacked.Commits[0].OID)

		// The merge entry follows the outermost section.
		merge := w.Line[0].(MergeEntry)
		assert.Equal(t, "fb", merge.Label)

		// The base section has no merge of its own now; it is joined
		// through fb's reset. The split shape must still serialize.
		todo, err := w.Serialize()
		require.NoError(t, err)
		assert.Contains(t, todo, "reset fa")
		assert.Equal(t, 1, strings.Count(todo, "merge "))
	})

	t.Run("unknown branch fails without mutating", func(t *testing.T) {
		t.Parallel()
		w := twoBranchWeave()
		err := w.MoveCommit(h("a3"), "nope")
		require.Error(t, err)
		assert.Len(t, w.Line, 3)
	})
}

func TestFixupCommit(t *testing.T) {
	t.Parallel()

	t.Run("line commit into section commit", func(t *testing.T) {
		t.Parallel()
		w := twoBranchWeave()
		require.NoError(t, w.FixupCommit(h("a3"), h("a1")))

		section := w.SectionFor("fa")
		require.Len(t, section.Commits, 2)
		assert.Equal(t, Fixup, section.Commits[1].Command)
		assert.Equal(t, h("a3"), section.Commits[1].OID)
		assert.Len(t, w.Line, 2)
	})

	t.Run("source equals target fails", func(t *testing.T) {
		t.Parallel()
		w := linearWeave("a1", "a2")
		assert.Error(t, w.FixupCommit(h("a1"), h("a1")))
	})

	t.Run("missing target leaves graph intact", func(t *testing.T) {
		t.Parallel()
		w := linearWeave("a1", "a2")
		require.Error(t, w.FixupCommit(h("a2"), h("ff")))
		assert.Len(t, w.Line, 2)
	})
}

func TestEditCommit(t *testing.T) {
	t.Parallel()

	w := twoBranchWeave()
	require.NoError(t, w.EditCommit(h("a1")))
	assert.Equal(t, Edit, w.SectionFor("fa").Commits[0].Command)

	// Idempotent.
	require.NoError(t, w.EditCommit(h("a1")))
	assert.Equal(t, Edit, w.SectionFor("fa").Commits[0].Command)

	assert.Error(t, w.EditCommit(h("ff")))
}

func TestWeaveBranch(t *testing.T) {
	t.Parallel()

	w := linearWeave("a1", "a2", "a3")
	pick := w.Line[1].(PickEntry)
	pick.Commit.UpdateRefs = []string{"fx"}
	w.Line[1] = pick

	require.NoError(t, w.WeaveBranch("fx"))

	// a1 and a2 moved into the section, a3 stays, merge appended.
	require.Len(t, w.Sections, 1)
	section := w.Sections[0]
	assert.Equal(t, "fx", section.Label)
	assert.Equal(t, "onto", section.ResetTarget)
	require.Len(t, section.Commits, 2)
	assert.Equal(t, h("a1"), section.Commits[0].OID)
	assert.Equal(t, h("a2"), section.Commits[1].OID)
	assert.Empty(t, section.Commits[1].UpdateRefs)

	require.Len(t, w.Line, 2)
	assert.Equal(t, h("a3"), w.Line[0].(PickEntry).Commit.OID)
	merge := w.Line[1].(MergeEntry)
	assert.Equal(t, "fx", merge.Label)
	assert.Nil(t, merge.OriginalOID)

	assert.Error(t, w.WeaveBranch("missing"))
}

func TestReassignBranch(t *testing.T) {
	t.Parallel()

	m := h("e1")
	w := &Weave{
		BaseOID: h("00"),
		Sections: []BranchSection{{
			ResetTarget: "onto",
			Commits:     []CommitEntry{entry("a1", "one")},
			Label:       "fa",
			BranchNames: []string{"fa", "fb"},
		}},
		Line: []IntegrationEntry{MergeEntry{OriginalOID: &m, Label: "fa"}},
	}

	require.NoError(t, w.ReassignBranch("fa", "fb"))

	section := w.Sections[0]
	assert.Equal(t, "fb", section.Label)
	assert.Equal(t, []string{"fb"}, section.BranchNames)
	assert.Equal(t, "fb", w.Line[0].(MergeEntry).Label)
}

func TestAddMerge(t *testing.T) {
	t.Parallel()

	w := linearWeave("a1")
	w.AddBranchSection("fx", []string{"fx"}, nil, "onto")
	w.AddMerge("fx", nil, -1)

	require.Len(t, w.Line, 2)
	assert.Equal(t, "fx", w.Line[1].(MergeEntry).Label)

	w.AddMerge("fx", nil, 0)
	assert.Equal(t, "fx", w.Line[0].(MergeEntry).Label)
}

func TestMutationsPreserveInvariants(t *testing.T) {
	t.Parallel()

	// A burst of mutations on the two-branch weave must keep the graph
	// serializable at every step.
	w := twoBranchWeave()

	steps := []func() error{
		func() error { return w.MoveCommit(h("a3"), "fa") },
		func() error { return w.EditCommit(h("a2")) },
		func() error { return w.FixupCommit(h("a3"), h("a1")) },
		func() error { return w.DropCommit(h("a2")) },
	}
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		_, err := w.Serialize()
		require.NoError(t, err, "serialize after step %d", i)
	}
}

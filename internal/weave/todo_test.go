package weave

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeTwoBranches(t *testing.T) {
	t.Parallel()

	w := twoBranchWeave()
	todo, err := w.Serialize()
	require.NoError(t, err)

	a1 := entry("a1", "")
	a2 := entry("a2", "")
	a3 := entry("a3", "")
	m1 := h("e1").String()[:7]
	m2 := h("e2").String()[:7]

	want := fmt.Sprintf(`label onto

reset onto
pick %s one
label fa
update-ref refs/heads/fa

reset onto
pick %s two
label fb
update-ref refs/heads/fb

reset onto
merge -C %s fa # Merge branch 'fa'
merge -C %s fb # Merge branch 'fb'
pick %s three
`, a1.Short, a2.Short, m1, m2, a3.Short)

	assert.Equal(t, want, todo)
}

func TestSerializeSyntheticMerge(t *testing.T) {
	t.Parallel()

	w := linearWeave("a1")
	w.AddBranchSection("fx", []string{"fx"}, []CommitEntry{entry("b1", "side")}, "onto")
	w.AddMerge("fx", nil, -1)

	todo, err := w.Serialize()
	require.NoError(t, err)
	assert.Contains(t, todo, "merge fx # Merge branch 'fx'")
	assert.NotContains(t, todo, "merge -C")
}

func TestSerializeDefersUpdateRefsPastFixups(t *testing.T) {
	t.Parallel()

	pick := entry("a1", "base work")
	pick.UpdateRefs = []string{"side-note"}
	fixup := entry("a2", "fixup work")
	fixup.Command = Fixup

	w := &Weave{
		BaseOID: h("00"),
		Sections: []BranchSection{{
			ResetTarget: "onto",
			Commits:     []CommitEntry{pick, fixup},
			Label:       "fa",
			BranchNames: []string{"fa"},
		}},
		Line: []IntegrationEntry{MergeEntry{Label: "fa"}},
	}

	todo, err := w.Serialize()
	require.NoError(t, err)

	// The update-ref for the pick must come after the trailing fixup, so the
	// ref points at the combined commit.
	fixupIdx := strings.Index(todo, "fixup ")
	refIdx := strings.Index(todo, "update-ref refs/heads/side-note")
	require.GreaterOrEqual(t, fixupIdx, 0)
	require.GreaterOrEqual(t, refIdx, 0)
	assert.Greater(t, refIdx, fixupIdx)
}

func TestSerializeStackedSectionsJoinedByOneMerge(t *testing.T) {
	t.Parallel()

	// The co-located split shape: the base section is only a reset target;
	// a single merge joins the outermost stacked section.
	w := &Weave{
		BaseOID: h("00"),
		Sections: []BranchSection{
			{ResetTarget: "onto", Commits: []CommitEntry{entry("a1", "shared")}, Label: "fa", BranchNames: []string{"fa"}},
			{ResetTarget: "fa", Commits: []CommitEntry{entry("a2", "moved")}, Label: "fb", BranchNames: []string{"fb"}},
		},
		Line: []IntegrationEntry{MergeEntry{Label: "fb"}},
	}

	todo, err := w.Serialize()
	require.NoError(t, err)

	assert.Contains(t, todo, "reset fa\n")
	assert.Contains(t, todo, "merge fb # Merge branch 'fb'")
	assert.NotContains(t, todo, "merge fa")
	// Dependency order: fa's block comes before fb's reset onto it.
	assert.Less(t, strings.Index(todo, "label fa"), strings.Index(todo, "reset fa"))
}

func TestSerializeDropsEmptySections(t *testing.T) {
	t.Parallel()

	w := twoBranchWeave()
	// Empty fa by hand: legal transiently, serialization prunes it.
	w.Sections[0].Commits = nil

	todo, err := w.Serialize()
	require.NoError(t, err)
	assert.NotContains(t, todo, "label fa")
	assert.NotContains(t, todo, "merge -C "+h("e1").String()[:7])
	assert.Contains(t, todo, "label fb")
}

func TestSerializeRejectsMalformedGraphs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		weave func() *Weave
	}{
		{
			name: "merge references unknown section",
			weave: func() *Weave {
				w := linearWeave("a1")
				w.AddMerge("ghost", nil, -1)
				return w
			},
		},
		{
			name: "duplicate section labels",
			weave: func() *Weave {
				w := linearWeave("a1")
				w.AddBranchSection("fx", []string{"fx"}, []CommitEntry{entry("b1", "x")}, "onto")
				w.AddBranchSection("fx", []string{"fy"}, []CommitEntry{entry("b2", "y")}, "onto")
				w.AddMerge("fx", nil, -1)
				return w
			},
		},
		{
			name: "reserved onto label",
			weave: func() *Weave {
				w := linearWeave("a1")
				w.AddBranchSection("onto", []string{"x"}, []CommitEntry{entry("b1", "x")}, "onto")
				w.AddMerge("onto", nil, -1)
				return w
			},
		},
		{
			name: "section never merged",
			weave: func() *Weave {
				w := linearWeave("a1")
				w.AddBranchSection("fx", []string{"fx"}, []CommitEntry{entry("b1", "x")}, "onto")
				return w
			},
		},
		{
			name: "reset target of a later section",
			weave: func() *Weave {
				w := linearWeave("a1")
				w.AddBranchSection("fx", []string{"fx"}, []CommitEntry{entry("b1", "x")}, "fy")
				w.AddBranchSection("fy", []string{"fy"}, []CommitEntry{entry("b2", "y")}, "onto")
				w.AddMerge("fx", nil, -1)
				w.AddMerge("fy", nil, -1)
				return w
			},
		},
		{
			name: "commit in section and line",
			weave: func() *Weave {
				w := linearWeave("a1")
				w.AddBranchSection("fx", []string{"fx"}, []CommitEntry{entry("a1", "dup")}, "onto")
				w.AddMerge("fx", nil, -1)
				return w
			},
		},
		{
			name: "fixup first in section",
			weave: func() *Weave {
				fixup := entry("b1", "f")
				fixup.Command = Fixup
				w := linearWeave("a1")
				w.AddBranchSection("fx", []string{"fx"}, []CommitEntry{fixup}, "onto")
				w.AddMerge("fx", nil, -1)
				return w
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := tt.weave().Serialize()
			var invariant *InvariantError
			require.Error(t, err)
			assert.ErrorAs(t, err, &invariant)
		})
	}
}

func TestSerializeReferencesEverySectionOnce(t *testing.T) {
	t.Parallel()

	w := twoBranchWeave()
	todo, err := w.Serialize()
	require.NoError(t, err)

	for _, section := range w.Sections {
		assert.Equal(t, 1, strings.Count(todo, "label "+section.Label+"\n"))
		assert.Equal(t, 1, strings.Count(todo, " "+section.Label+" # Merge branch"))
	}
}

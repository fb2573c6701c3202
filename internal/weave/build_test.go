package weave

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomkit/git-loom/internal/git"
)

// testRepo builds integration topologies in memory. Commits are empty (the
// builder only looks at shape and messages); parents are set explicitly so
// merges and side branches can be laid out directly.
type testRepo struct {
	t    *testing.T
	repo *gogit.Repository
	wt   *gogit.Worktree
	now  time.Time
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	repo, err := gogit.Init(memory.NewStorage(), memfs.New())
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	return &testRepo{
		t:    t,
		repo: repo,
		wt:   wt,
		now:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (r *testRepo) sig() *object.Signature {
	r.now = r.now.Add(time.Minute)
	return &object.Signature{Name: "dev", Email: "dev@example.com", When: r.now}
}

// commit creates an empty commit with explicit parents (none = current HEAD).
func (r *testRepo) commit(msg string, parents ...plumbing.Hash) plumbing.Hash {
	r.t.Helper()
	h, err := r.wt.Commit(msg, &gogit.CommitOptions{
		Author:            r.sig(),
		Committer:         r.sig(),
		AllowEmptyCommits: true,
		Parents:           parents,
	})
	require.NoError(r.t, err)
	return h
}

func (r *testRepo) setBranch(name string, h plumbing.Hash) {
	r.t.Helper()
	err := r.repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), h))
	require.NoError(r.t, err)
}

// checkout moves HEAD to the named branch (which must exist).
func (r *testRepo) checkout(name string) {
	r.t.Helper()
	err := r.repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(name)))
	require.NoError(r.t, err)
}

// track configures branch.<name> to track origin/main and points the remote
// ref at the given commit.
func (r *testRepo) track(name string, upstreamTip plumbing.Hash) {
	r.t.Helper()
	cfg, err := r.repo.Config()
	require.NoError(r.t, err)
	cfg.Remotes["origin"] = &gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{"https://example.com/repo.git"},
	}
	cfg.Branches[name] = &gitconfig.Branch{
		Name:   name,
		Remote: "origin",
		Merge:  plumbing.NewBranchReferenceName("main"),
	}
	require.NoError(r.t, r.repo.SetConfig(cfg))
	require.NoError(r.t, r.repo.Storer.SetReference(
		plumbing.NewHashReference(plumbing.NewRemoteReferenceName("origin", "main"), upstreamTip)))
}

func (r *testRepo) open() *git.Repo {
	return git.Wrap(r.repo, "/")
}

// integrationBase sets up: base commit on `integration`, tracked by
// origin/main at the base. Returns the base.
func (r *testRepo) integrationBase() plumbing.Hash {
	r.t.Helper()
	base := r.commit("base")
	r.setBranch("integration", base)
	r.checkout("integration")
	r.track("integration", base)
	return base
}

func TestBuildLinearLine(t *testing.T) {
	t.Parallel()

	tr := newTestRepo(t)
	base := tr.integrationBase()
	a1 := tr.commit("one", base)
	a2 := tr.commit("two", a1)
	tr.setBranch("integration", a2)

	w, err := Build(tr.open())
	require.NoError(t, err)

	assert.Equal(t, base, w.BaseOID)
	assert.Empty(t, w.Sections)
	require.Len(t, w.Line, 2)
	assert.Equal(t, a1, w.Line[0].(PickEntry).Commit.OID)
	assert.Equal(t, "one", w.Line[0].(PickEntry).Commit.Message)
	assert.Equal(t, a2, w.Line[1].(PickEntry).Commit.OID)
}

func TestBuildWovenBranches(t *testing.T) {
	t.Parallel()

	tr := newTestRepo(t)
	base := tr.integrationBase()

	// fa woven behind m1, fb woven behind m2, then a loose commit.
	b1 := tr.commit("side one", base)
	tr.setBranch("fa", b1)
	m1 := tr.commit("Merge branch 'fa'", base, b1)

	b2 := tr.commit("side two", base)
	tr.setBranch("fb", b2)
	m2 := tr.commit("Merge branch 'fb'", m1, b2)

	tail := tr.commit("loose", m2)
	tr.setBranch("integration", tail)

	w, err := Build(tr.open())
	require.NoError(t, err)

	require.Len(t, w.Sections, 2)
	assert.Equal(t, "fa", w.Sections[0].Label)
	assert.Equal(t, "onto", w.Sections[0].ResetTarget)
	require.Len(t, w.Sections[0].Commits, 1)
	assert.Equal(t, b1, w.Sections[0].Commits[0].OID)
	assert.Equal(t, "fb", w.Sections[1].Label)

	require.Len(t, w.Line, 3)
	merge1 := w.Line[0].(MergeEntry)
	assert.Equal(t, "fa", merge1.Label)
	require.NotNil(t, merge1.OriginalOID)
	assert.Equal(t, m1, *merge1.OriginalOID)
	assert.Equal(t, "fb", w.Line[1].(MergeEntry).Label)
	assert.Equal(t, tail, w.Line[2].(PickEntry).Commit.OID)

	// Round trip through the serializer.
	_, err = w.Serialize()
	require.NoError(t, err)
}

func TestBuildCoLocatedBranches(t *testing.T) {
	t.Parallel()

	tr := newTestRepo(t)
	base := tr.integrationBase()

	b1 := tr.commit("shared", base)
	tr.setBranch("fb", b1)
	tr.setBranch("fa", b1)
	m := tr.commit("Merge branch 'fa'", base, b1)
	tr.setBranch("integration", m)

	w, err := Build(tr.open())
	require.NoError(t, err)

	require.Len(t, w.Sections, 1)
	section := w.Sections[0]
	// Alphabetical tie-break: fa is the canonical label.
	assert.Equal(t, "fa", section.Label)
	assert.Equal(t, []string{"fa", "fb"}, section.BranchNames)
}

func TestBuildStackedSections(t *testing.T) {
	t.Parallel()

	tr := newTestRepo(t)
	base := tr.integrationBase()

	// fa at b1; fb stacked on fa at b2. Both woven.
	b1 := tr.commit("bottom", base)
	tr.setBranch("fa", b1)
	m1 := tr.commit("Merge branch 'fa'", base, b1)

	b2 := tr.commit("top", b1)
	tr.setBranch("fb", b2)
	m2 := tr.commit("Merge branch 'fb'", m1, b2)
	tr.setBranch("integration", m2)

	w, err := Build(tr.open())
	require.NoError(t, err)

	require.Len(t, w.Sections, 2)
	assert.Equal(t, "fa", w.Sections[0].Label)
	assert.Equal(t, "onto", w.Sections[0].ResetTarget)

	stacked := w.Sections[1]
	assert.Equal(t, "fb", stacked.Label)
	assert.Equal(t, "fa", stacked.ResetTarget)
	require.Len(t, stacked.Commits, 1)
	assert.Equal(t, b2, stacked.Commits[0].OID)

	_, err = w.Serialize()
	require.NoError(t, err)
}

func TestBuildNonWovenBranchBecomesUpdateRef(t *testing.T) {
	t.Parallel()

	tr := newTestRepo(t)
	base := tr.integrationBase()

	a1 := tr.commit("inline", base)
	tr.setBranch("fx", a1)
	a2 := tr.commit("after", a1)
	tr.setBranch("integration", a2)

	w, err := Build(tr.open())
	require.NoError(t, err)

	assert.Empty(t, w.Sections)
	require.Len(t, w.Line, 2)
	assert.Equal(t, []string{"fx"}, w.Line[0].(PickEntry).Commit.UpdateRefs)
}

func TestBuildEmptySideBranchSkipped(t *testing.T) {
	t.Parallel()

	tr := newTestRepo(t)
	base := tr.integrationBase()

	// A merge whose second parent is the base itself: nothing to weave.
	m := tr.commit("Merge nothing", base, base)
	tr.setBranch("integration", m)

	w, err := Build(tr.open())
	require.NoError(t, err)
	assert.Empty(t, w.Sections)
	assert.Empty(t, w.Line)
}

func TestBuildNoUpstreamFails(t *testing.T) {
	t.Parallel()

	tr := newTestRepo(t)
	base := tr.commit("base")
	tr.setBranch("feature", base)
	tr.checkout("feature")

	_, err := Build(tr.open())
	var noUp *git.NoUpstreamError
	require.Error(t, err)
	assert.ErrorAs(t, err, &noUp)
}

func TestBuildLinearFallback(t *testing.T) {
	t.Parallel()

	tr := newTestRepo(t)
	root := tr.commit("root")
	next := tr.commit("next", root)
	tr.setBranch("main", next)
	tr.checkout("main")

	w, err := BuildLinear(tr.open(), nil)
	require.NoError(t, err)
	assert.Empty(t, w.Sections)
	require.Len(t, w.Line, 2)
	assert.Equal(t, root, w.Line[0].(PickEntry).Commit.OID)

	w, err = BuildLinear(tr.open(), &root)
	require.NoError(t, err)
	require.Len(t, w.Line, 1)
	assert.Equal(t, next, w.Line[0].(PickEntry).Commit.OID)
}

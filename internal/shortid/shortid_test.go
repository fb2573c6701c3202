package shortid

import (
	"strings"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
)

func hash(s string) plumbing.Hash {
	return plumbing.NewHash(strings.Repeat(s, 40)[:40])
}

func TestUnstagedReservedID(t *testing.T) {
	t.Parallel()

	a := New([]Entity{Unstaged()})
	if got := a.UnstagedID(); got != "zz" {
		t.Errorf("UnstagedID() = %q, want %q", got, "zz")
	}
}

func TestZZNeverAssignedToOthers(t *testing.T) {
	t.Parallel()

	// A branch whose natural candidates would include "zz".
	a := New([]Entity{Branch("zz-tmp"), Unstaged()})
	if got := a.BranchID("zz-tmp"); got == "zz" {
		t.Errorf("BranchID(zz-tmp) = %q, the reserved unstaged token", got)
	}
	if got := a.UnstagedID(); got != "zz" {
		t.Errorf("UnstagedID() = %q, want %q", got, "zz")
	}
}

func TestBranchInitials(t *testing.T) {
	t.Parallel()

	a := New([]Entity{Branch("feature-auth")})
	if got := a.BranchID("feature-auth"); got != "fa" {
		t.Errorf("BranchID(feature-auth) = %q, want %q", got, "fa")
	}
}

func TestCommitHexPrefix(t *testing.T) {
	t.Parallel()

	h := plumbing.NewHash("abc1234567890abc1234567890abc12345678901")
	a := New([]Entity{Commit(h)})
	if got := a.CommitID(h); got != "ab" {
		t.Errorf("CommitID = %q, want %q", got, "ab")
	}
}

func TestCommitPrefixExtendsOnCollision(t *testing.T) {
	t.Parallel()

	h1 := plumbing.NewHash("abc1234567890abc1234567890abc12345678901")
	h2 := plumbing.NewHash("abd9874567890abc1234567890abc12345678901")
	a := New([]Entity{Commit(h1), Commit(h2)})

	id1, id2 := a.CommitID(h1), a.CommitID(h2)
	if id1 == id2 {
		t.Fatalf("colliding commits got the same id %q", id1)
	}
	if id1 != "ab" {
		t.Errorf("first commit id = %q, want %q", id1, "ab")
	}
	// The second commit shares the "ab" prefix; it must extend.
	if !strings.HasPrefix(id2, "ab") || len(id2) < 3 {
		t.Errorf("second commit id = %q, want an extended abd... prefix", id2)
	}
}

func TestFileStemStripped(t *testing.T) {
	t.Parallel()

	a := New([]Entity{File("internal/weave/rebase_driver.go")})
	if got := a.FileID("internal/weave/rebase_driver.go"); got != "rd" {
		t.Errorf("FileID = %q, want %q (initials of rebase_driver)", got, "rd")
	}
}

func TestBijection(t *testing.T) {
	t.Parallel()

	entities := []Entity{
		Unstaged(),
		Branch("feature-auth"),
		Branch("feature-api"),
		Branch("fix"),
		File("main.go"),
		File("main_test.go"),
		Commit(hash("1a")),
		Commit(hash("2b")),
	}
	a := New(entities)

	seen := map[string]Entity{}
	for _, e := range entities {
		id := a.ID(e)
		if id == "" {
			t.Fatalf("entity %+v got no id", e)
		}
		if prev, dup := seen[id]; dup {
			t.Fatalf("id %q assigned to both %+v and %+v", id, prev, e)
		}
		seen[id] = e

		got, ok := a.Lookup(id)
		if !ok || got != e {
			t.Errorf("Lookup(%q) = %+v, %v; want %+v", id, got, ok, e)
		}
	}
}

func TestDeterministic(t *testing.T) {
	t.Parallel()

	entities := []Entity{
		Unstaged(),
		Branch("feature-one"),
		Branch("feature-two"),
		File("x.txt"),
	}
	a1 := New(entities)
	a2 := New(entities)
	for _, e := range entities {
		if a1.ID(e) != a2.ID(e) {
			t.Errorf("non-deterministic id for %+v: %q vs %q", e, a1.ID(e), a2.ID(e))
		}
	}
}

func TestIdenticalSourcesGetDistinctIDs(t *testing.T) {
	t.Parallel()

	a := New([]Entity{File("dir1/same.txt"), File("dir2/same.txt")})
	id1, id2 := a.FileID("dir1/same.txt"), a.FileID("dir2/same.txt")
	if id1 == id2 {
		t.Fatalf("identical stems share id %q", id1)
	}
	if id1 == "" || id2 == "" {
		t.Fatalf("missing ids: %q, %q", id1, id2)
	}
}

func TestCommitFileID(t *testing.T) {
	t.Parallel()

	h := hash("3c")
	a := New([]Entity{Commit(h)})
	want := a.CommitID(h) + ":2"
	if got := a.CommitFileID(h, 2); got != want {
		t.Errorf("CommitFileID = %q, want %q", got, want)
	}
}

func TestFirstCharPreference(t *testing.T) {
	t.Parallel()

	// Both branches start with f; the second should prefer a candidate
	// opening with a fresh character when one exists.
	a := New([]Entity{Branch("feature-auth"), Branch("fix-bug")})
	id1, id2 := a.BranchID("feature-auth"), a.BranchID("fix-bug")
	if id1 == id2 {
		t.Fatalf("duplicate ids %q", id1)
	}
	if id1 != "fa" {
		t.Errorf("first branch id = %q, want %q", id1, "fa")
	}
	if id2[0] == 'f' {
		t.Errorf("second branch id = %q, want a non-'f' first character", id2)
	}
}

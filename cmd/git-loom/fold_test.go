package main

import (
	"strings"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/loomkit/git-loom/internal/git"
)

func fh(s string) plumbing.Hash {
	return plumbing.NewHash(strings.Repeat(s, 40)[:40])
}

func TestClassifyFold(t *testing.T) {
	t.Parallel()

	commitA := git.CommitTarget{OID: fh("a1")}
	commitB := git.CommitTarget{OID: fh("b2")}
	file := git.FileTarget{Path: "x.go"}
	branch := git.BranchTarget{Name: "fx"}
	commitFile := git.CommitFileTarget{OID: fh("a1"), Index: 0, Path: "x.go"}

	t.Run("files into commit", func(t *testing.T) {
		t.Parallel()
		op, err := classifyFold([]git.Target{file, git.FileTarget{Path: "y.go"}}, commitA)
		if err != nil {
			t.Fatal(err)
		}
		got, ok := op.(foldFilesIntoCommit)
		if !ok {
			t.Fatalf("classified as %T", op)
		}
		if len(got.files) != 2 || got.commit != fh("a1") {
			t.Errorf("op = %+v", got)
		}
	})

	t.Run("commit into commit", func(t *testing.T) {
		t.Parallel()
		op, err := classifyFold([]git.Target{commitA}, commitB)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := op.(foldCommitIntoCommit); !ok {
			t.Fatalf("classified as %T", op)
		}
	})

	t.Run("commit to branch", func(t *testing.T) {
		t.Parallel()
		op, err := classifyFold([]git.Target{commitA}, branch)
		if err != nil {
			t.Fatal(err)
		}
		got, ok := op.(foldCommitToBranch)
		if !ok {
			t.Fatalf("classified as %T", op)
		}
		if got.branch != "fx" {
			t.Errorf("branch = %q", got.branch)
		}
	})

	t.Run("commit to unstaged", func(t *testing.T) {
		t.Parallel()
		op, err := classifyFold([]git.Target{commitA}, git.UnstagedTarget{})
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := op.(foldCommitToUnstaged); !ok {
			t.Fatalf("classified as %T", op)
		}
	})

	t.Run("commit file to commit", func(t *testing.T) {
		t.Parallel()
		op, err := classifyFold([]git.Target{commitFile}, commitB)
		if err != nil {
			t.Fatal(err)
		}
		got, ok := op.(foldCommitFileToCommit)
		if !ok {
			t.Fatalf("classified as %T", op)
		}
		if got.path != "x.go" || got.target != fh("b2") {
			t.Errorf("op = %+v", got)
		}
	})

	t.Run("commit file to unstaged", func(t *testing.T) {
		t.Parallel()
		op, err := classifyFold([]git.Target{commitFile}, git.UnstagedTarget{})
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := op.(foldCommitFileToUnstaged); !ok {
			t.Fatalf("classified as %T", op)
		}
	})

	t.Run("rejections", func(t *testing.T) {
		t.Parallel()
		cases := []struct {
			name    string
			sources []git.Target
			target  git.Target
		}{
			{"branch source", []git.Target{branch}, commitA},
			{"unstaged source", []git.Target{git.UnstagedTarget{}}, commitA},
			{"commit file target", []git.Target{commitA}, commitFile},
			{"mixed sources", []git.Target{file, commitA}, commitB},
			{"files into unstaged", []git.Target{file}, git.UnstagedTarget{}},
			{"files into branch", []git.Target{file}, branch},
			{"two commit sources", []git.Target{commitA, commitB}, branch},
			{"commit file into branch", []git.Target{commitFile}, branch},
			{"file target", []git.Target{commitA}, file},
		}
		for _, tc := range cases {
			if _, err := classifyFold(tc.sources, tc.target); err == nil {
				t.Errorf("%s: classifyFold = nil error, want rejection", tc.name)
			}
		}
	})
}

package main

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/loomkit/git-loom/internal/git"
	"github.com/loomkit/git-loom/internal/ui/prompt"
	"github.com/loomkit/git-loom/internal/weave"
)

// runDrop removes a commit or a whole branch from history.
func runDrop(ctx context.Context, target string, yes bool) error {
	repo, info, err := openRepoInfo(git.GatherOptions{})
	if err != nil {
		return err
	}
	resolver := git.NewResolver(repo, info)

	resolved, err := resolver.Resolve(target)
	if err != nil {
		return err
	}

	switch t := resolved.(type) {
	case git.CommitTarget:
		if err := confirmDrop(yes, fmt.Sprintf("Drop commit %s?", git.ShortHash(t.OID.String()))); err != nil {
			return err
		}
		return dropCommit(ctx, repo, info, t.OID)
	case git.BranchTarget:
		if err := confirmDrop(yes, fmt.Sprintf("Drop branch %q?", t.Name)); err != nil {
			return err
		}
		return dropBranch(ctx, repo, info, t.Name)
	case git.FileTarget:
		return fmt.Errorf("cannot drop a file; use `git restore` to discard file changes")
	case git.UnstagedTarget:
		return fmt.Errorf("cannot drop unstaged changes; use `git restore` to discard changes")
	default:
		return fmt.Errorf("cannot drop a %s", targetKindName(resolved))
	}
}

func confirmDrop(yes bool, question string) error {
	if yes {
		return nil
	}
	result, err := prompt.Confirm(question)
	if err != nil {
		return err
	}
	if !result.Confirmed {
		return fmt.Errorf("cancelled")
	}
	return nil
}

// dropCommit removes one commit. When it is the only commit of a branch,
// the whole branch section goes instead, keeping the topology clean.
func dropCommit(ctx context.Context, repo *git.Repo, info *git.RepoInfo, oid plumbing.Hash) error {
	if name, ok := branchOwningCommit(info, oid); ok {
		if branch := findBranch(info, name); branch != nil {
			owned, err := ownedCommits(repo, info, branch.Tip, name)
			if err != nil {
				return err
			}
			if len(owned) == 1 {
				return dropBranch(ctx, repo, info, name)
			}
		}
	}

	graph, err := weave.BuildFromInfo(repo, info)
	if err != nil {
		return err
	}
	if err := graph.DropCommit(oid); err != nil {
		return err
	}
	todo, err := graph.Serialize()
	if err != nil {
		return err
	}
	if err := weave.RunRebase(ctx, repo.Workdir(), &graph.BaseOID, todo); err != nil {
		return err
	}

	success(ctx, "Dropped commit `%s`", git.ShortHash(oid.String()))
	return nil
}

// dropBranch removes a branch and unweaves its merge topology. The required
// rewrite depends on where the branch sits:
//
//	at the merge-base          delete the ref, nothing to rewrite
//	woven, co-located          hand the section to the sibling, delete ref
//	woven, alone               remove the section and its merge
//	non-woven, alone           drop each commit the branch owns
//	non-woven, co-located      delete the ref, commits stay with the sibling
func dropBranch(ctx context.Context, repo *git.Repo, info *git.RepoInfo, name string) error {
	workdir := repo.Workdir()

	branch := findBranch(info, name)
	if branch == nil {
		// Branches at the merge-base own no range commits.
		atBase, err := repo.BranchesAt(info.Upstream.MergeBaseOID, info.Branch)
		if err != nil {
			return err
		}
		for _, b := range atBase {
			if b == name {
				if err := git.DeleteBranch(ctx, workdir, name); err != nil {
					return err
				}
				success(ctx, "Dropped branch `%s`", name)
				return nil
			}
		}
		return &git.NotInIntegrationRangeError{Name: name}
	}

	head, err := repo.HeadOID()
	if err != nil {
		return err
	}
	base := info.Upstream.MergeBaseOID

	if branch.Tip == base {
		if err := git.DeleteBranch(ctx, workdir, name); err != nil {
			return err
		}
		success(ctx, "Dropped branch `%s`", name)
		return nil
	}

	var colocated string
	for _, b := range info.Branches {
		if b.Name != name && b.Tip == branch.Tip {
			colocated = b.Name
			break
		}
	}

	onLine, err := repo.IsOnFirstParentLine(head, base, branch.Tip)
	if err != nil {
		return err
	}
	isWoven := branch.Tip != head && !onLine

	graph, err := weave.BuildFromInfo(repo, info)
	if err != nil {
		return err
	}

	needsRebase := true
	switch {
	case isWoven && colocated != "":
		if err := graph.ReassignBranch(name, colocated); err != nil {
			return err
		}
	case isWoven:
		if err := graph.DropBranch(name); err != nil {
			return err
		}
	case colocated != "":
		// The sibling keeps the commits; only the ref goes.
		needsRebase = false
	default:
		owned, err := ownedCommits(repo, info, branch.Tip, name)
		if err != nil {
			return err
		}
		for _, oid := range owned {
			if err := graph.DropCommit(oid); err != nil {
				return err
			}
		}
	}

	if needsRebase {
		todo, err := graph.Serialize()
		if err != nil {
			return err
		}
		if err := weave.RunRebase(ctx, workdir, &graph.BaseOID, todo); err != nil {
			return err
		}
	}

	if err := git.DeleteBranch(ctx, workdir, name); err != nil {
		return err
	}
	success(ctx, "Dropped branch `%s`", name)
	return nil
}

func findBranch(info *git.RepoInfo, name string) *git.BranchInfo {
	for i := range info.Branches {
		if info.Branches[i].Name == name {
			return &info.Branches[i]
		}
	}
	return nil
}

// branchOwningCommit walks each branch tip along parent links (stopping at
// another branch's tip) to find which branch owns the commit.
func branchOwningCommit(info *git.RepoInfo, target plumbing.Hash) (string, bool) {
	parent := map[plumbing.Hash]*plumbing.Hash{}
	for _, c := range info.Commits {
		parent[c.OID] = c.ParentOID
	}
	tipSet := map[plumbing.Hash]bool{}
	for _, b := range info.Branches {
		tipSet[b.Tip] = true
	}

	for _, b := range info.Branches {
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
			if oid == target {
				return b.Name, true
			}
			current = parent[oid]
		}
	}
	return "", false
}

// ownedCommits lists the non-merge commits only this branch owns: reachable
// from its tip, stopping at the merge-base and at any other branch's tip.
// Other branches sharing the same tip still shadow their commits, so a
// co-located sibling's history is never counted as owned.
func ownedCommits(repo *git.Repo, info *git.RepoInfo, tip plumbing.Hash, dropping string) ([]plumbing.Hash, error) {
	stop := map[plumbing.Hash]bool{info.Upstream.MergeBaseOID: true}
	for _, other := range info.Branches {
		if other.Name == dropping {
			continue
		}
		if other.Tip == tip {
			stop[other.Tip] = true
			continue
		}
		desc, err := repo.IsDescendant(tip, other.Tip)
		if err != nil {
			return nil, err
		}
		if desc {
			stop[other.Tip] = true
		}
	}

	var owned []plumbing.Hash
	visited := map[plumbing.Hash]bool{}
	queue := []plumbing.Hash{tip}
	for len(queue) > 0 {
		oid := queue[0]
		queue = queue[1:]
		if visited[oid] || stop[oid] {
			continue
		}
		visited[oid] = true

		c, err := repo.Commit(oid)
		if err != nil {
			return nil, err
		}
		if c.NumParents() <= 1 {
			owned = append(owned, oid)
		}
		queue = append(queue, c.ParentHashes...)
	}
	return owned, nil
}

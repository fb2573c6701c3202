package git

import (
	"context"

	"github.com/go-git/go-git/v5/plumbing"
)

// BranchSnapshot records every local branch tip so a failed multi-phase
// rewrite can be rolled back.
type BranchSnapshot map[string]plumbing.Hash

// SnapshotBranchRefs captures all local branch tips.
func (r *Repo) SnapshotBranchRefs() (BranchSnapshot, error) {
	iter, err := r.gg.Branches()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	snap := BranchSnapshot{}
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		snap[ref.Name().Short()] = ref.Hash()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// RestoreBranchRefs force-moves every snapshotted branch back to its saved
// tip. Branches created after the snapshot are left alone. A branch that
// cannot be moved does not stop the others; the first error is returned.
func RestoreBranchRefs(ctx context.Context, dir string, snap BranchSnapshot) error {
	var firstErr error
	for name, tip := range snap {
		if err := ForceBranch(ctx, dir, name, tip.String()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

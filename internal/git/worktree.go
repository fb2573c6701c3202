package git

import (
	gogit "github.com/go-git/go-git/v5"
)

// HasStagedChanges reports whether the index differs from HEAD.
func (r *Repo) HasStagedChanges() (bool, error) {
	wt, err := r.gg.Worktree()
	if err != nil {
		return false, err
	}
	status, err := wt.Status()
	if err != nil {
		return false, err
	}
	for _, st := range status {
		switch st.Staging {
		case gogit.Added, gogit.Modified, gogit.Deleted, gogit.Renamed, gogit.Copied:
			return true, nil
		}
	}
	return false, nil
}

// FileHasChanges reports whether a path has staged or unstaged changes
// (untracked files included).
func (r *Repo) FileHasChanges(path string) (bool, error) {
	wt, err := r.gg.Worktree()
	if err != nil {
		return false, err
	}
	status, err := wt.Status()
	if err != nil {
		return false, err
	}
	st, ok := status[path]
	if !ok {
		return false, nil
	}
	return st.Staging != gogit.Unmodified || st.Worktree != gogit.Unmodified, nil
}

package git

import (
	"sort"

	"github.com/go-git/go-git/v5/plumbing"
)

// BranchTips maps commit hashes to the names of local branches pointing at
// them, the current branch excluded. Names are sorted so co-located branches
// resolve deterministically.
func (r *Repo) BranchTips(current string) (map[plumbing.Hash][]string, error) {
	iter, err := r.gg.Branches()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	tips := map[plumbing.Hash][]string{}
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if name := ref.Name().Short(); name != current {
			tips[ref.Hash()] = append(tips[ref.Hash()], name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, names := range tips {
		sort.Strings(names)
	}
	return tips, nil
}

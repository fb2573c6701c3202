package git

import (
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// BlameHead blames a file at HEAD and returns, per line (0-based), the
// commit that introduced it.
func (r *Repo) BlameHead(path string) ([]plumbing.Hash, error) {
	head, err := r.HeadOID()
	if err != nil {
		return nil, err
	}
	c, err := r.Commit(head)
	if err != nil {
		return nil, err
	}
	result, err := gogit.Blame(c, path)
	if err != nil {
		return nil, err
	}

	lines := make([]plumbing.Hash, len(result.Lines))
	for i, line := range result.Lines {
		lines[i] = line.Hash
	}
	return lines, nil
}

package git

import (
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

// FileChange is a staged or unstaged change in the working tree.
type FileChange struct {
	Path string
	// Index and Worktree are the porcelain status letters for the staging
	// area and the working tree ('M', 'A', 'D', 'R', '?', ' ').
	Index    byte
	Worktree byte
}

// CommitFileChange is one changed file within a commit.
type CommitFileChange struct {
	Path string
	// Status is 'A', 'M' or 'D'.
	Status byte
}

// CommitInfo is a single non-merge commit in the range merge-base..HEAD.
type CommitInfo struct {
	OID     plumbing.Hash
	Short   string
	Message string
	// ParentOID is nil for root commits.
	ParentOID *plumbing.Hash
	// Files is populated only when gathered with WithFiles.
	Files []CommitFileChange
}

// BranchInfo is a local branch whose tip falls inside the range.
type BranchInfo struct {
	Name string
	Tip  plumbing.Hash
}

// UpstreamInfo describes the tracking branch and the common base.
type UpstreamInfo struct {
	// Label is the tracking ref shorthand, e.g. "origin/main".
	Label  string
	TipOID plumbing.Hash
	// MergeBaseOID anchors every rebase the engine emits.
	MergeBaseOID plumbing.Hash
	BaseShort    string
	BaseMessage  string
	BaseDate     string
	// CommitsAhead counts upstream commits not yet in the integration branch.
	CommitsAhead int
}

// ContextCommit is a commit before the base, shown dimmed for orientation.
type ContextCommit struct {
	Short   string
	Date    string
	Message string
}

// RepoInfo is everything the status graph, the resolver and the topology
// builder need: the commit range, detected feature branches, working tree
// changes and the upstream marker.
type RepoInfo struct {
	// Branch is the current (integration) branch.
	Branch   string
	Upstream UpstreamInfo
	// Commits in the range, newest first, merge commits excluded. Commits
	// of a woven branch directly follow the position of their merge.
	Commits []CommitInfo
	// Branches whose tip is inside the range, current branch excluded,
	// sorted by name.
	Branches       []BranchInfo
	WorkingChanges []FileChange
	ContextCommits []ContextCommit
}

// GatherOptions control how much GatherInfo loads.
//
// The working tree status is always gathered: short-ID assignment depends on
// the full entity list, so every command must see the same entities the
// status display allocated from.
type GatherOptions struct {
	// WithFiles loads the changed-file list of every commit in range.
	WithFiles bool
	// Context loads that many commits before the base for display.
	Context int
}

// GatherInfo collects the repository state for one command invocation.
func (r *Repo) GatherInfo(opts GatherOptions) (*RepoInfo, error) {
	branch, head, err := r.Head()
	if err != nil {
		return nil, err
	}

	label, upstreamTip, err := r.Upstream(branch)
	if err != nil {
		return nil, err
	}

	base, err := r.MergeBase(head, upstreamTip)
	if err != nil {
		return nil, err
	}

	commits, err := r.walkRange(head, base, opts.WithFiles)
	if err != nil {
		return nil, err
	}

	branches, err := r.branchesInRange(commits, branch, upstreamTip)
	if err != nil {
		return nil, err
	}

	working, err := r.workingChanges()
	if err != nil {
		return nil, err
	}

	baseCommit, err := r.Commit(base)
	if err != nil {
		return nil, err
	}

	ahead, err := r.countFirstParent(upstreamTip, base)
	if err != nil {
		return nil, err
	}

	info := &RepoInfo{
		Branch: branch,
		Upstream: UpstreamInfo{
			Label:        label,
			TipOID:       upstreamTip,
			MergeBaseOID: base,
			BaseShort:    ShortHash(base.String()),
			BaseMessage:  summary(baseCommit),
			BaseDate:     baseCommit.Author.When.Format("2006-01-02"),
			CommitsAhead: ahead,
		},
		Commits:        commits,
		Branches:       branches,
		WorkingChanges: working,
	}

	if opts.Context > 0 {
		info.ContextCommits, err = r.contextCommits(base, opts.Context)
		if err != nil {
			return nil, err
		}
	}

	return info, nil
}

// walkRange walks the first-parent line from head down to base (exclusive),
// collecting non-merge commits newest first. At each merge the side branch's
// commits are emitted right after their merge point, so a woven branch's
// commits stay contiguous.
func (r *Repo) walkRange(head, base plumbing.Hash, withFiles bool) ([]CommitInfo, error) {
	var out []CommitInfo
	seen := map[plumbing.Hash]bool{}

	appendCommit := func(c *object.Commit) error {
		if seen[c.Hash] {
			return nil
		}
		seen[c.Hash] = true
		info := CommitInfo{
			OID:     c.Hash,
			Short:   ShortHash(c.Hash.String()),
			Message: summary(c),
		}
		if c.NumParents() > 0 {
			p := c.ParentHashes[0]
			info.ParentOID = &p
		}
		if withFiles {
			files, err := r.CommitFiles(c.Hash)
			if err != nil {
				return err
			}
			info.Files = files
		}
		out = append(out, info)
		return nil
	}

	current := head
	for current != base {
		c, err := r.Commit(current)
		if err != nil {
			return nil, err
		}

		if c.NumParents() > 1 {
			// Side branch of the merge: collect its non-merge commits.
			side := c.ParentHashes[1]
			for side != base && !seen[side] {
				sc, err := r.Commit(side)
				if err != nil {
					return nil, err
				}
				if sc.NumParents() <= 1 {
					if err := appendCommit(sc); err != nil {
						return nil, err
					}
				}
				if sc.NumParents() == 0 {
					break
				}
				side = sc.ParentHashes[0]
			}
		} else {
			if err := appendCommit(c); err != nil {
				return nil, err
			}
		}

		if c.NumParents() == 0 {
			break
		}
		current = c.ParentHashes[0]
	}

	return out, nil
}

// branchesInRange finds local branches whose tip is one of the range
// commits, excluding the current branch, sorted by name.
func (r *Repo) branchesInRange(commits []CommitInfo, current string, upstreamTip plumbing.Hash) ([]BranchInfo, error) {
	inRange := make(map[plumbing.Hash]bool, len(commits))
	for _, c := range commits {
		inRange[c.OID] = true
	}

	iter, err := r.gg.Branches()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []BranchInfo
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		if name == current {
			return nil
		}
		tip := ref.Hash()
		if tip != upstreamTip && inRange[tip] {
			out = append(out, BranchInfo{Name: name, Tip: tip})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// BranchesAt returns local branches (other than the current one) pointing
// exactly at the given commit, sorted by name. Used to find branches sitting
// at the merge-base, which own no range commits.
func (r *Repo) BranchesAt(tip plumbing.Hash, current string) ([]string, error) {
	iter, err := r.gg.Branches()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if name := ref.Name().Short(); name != current && ref.Hash() == tip {
			out = append(out, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// workingChanges lists staged and unstaged changes, untracked included,
// sorted by path.
func (r *Repo) workingChanges() ([]FileChange, error) {
	wt, err := r.gg.Worktree()
	if err != nil {
		return nil, err
	}
	status, err := wt.Status()
	if err != nil {
		return nil, err
	}

	var out []FileChange
	for path, st := range status {
		if st.Staging == gogit.Unmodified && st.Worktree == gogit.Unmodified {
			continue
		}
		out = append(out, FileChange{
			Path:     path,
			Index:    byte(st.Staging),
			Worktree: byte(st.Worktree),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// CommitFiles returns the files changed by a commit, diffed against its
// first parent (or the empty tree for roots).
func (r *Repo) CommitFiles(h plumbing.Hash) ([]CommitFileChange, error) {
	c, err := r.Commit(h)
	if err != nil {
		return nil, err
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}

	var parentTree *object.Tree
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, err
		}
		parentTree, err = parent.Tree()
		if err != nil {
			return nil, err
		}
	}

	changes, err := object.DiffTree(parentTree, tree)
	if err != nil {
		return nil, err
	}

	var out []CommitFileChange
	for _, ch := range changes {
		action, err := ch.Action()
		if err != nil {
			return nil, err
		}
		var status byte
		var path string
		switch action {
		case merkletrie.Insert:
			status, path = 'A', ch.To.Name
		case merkletrie.Delete:
			status, path = 'D', ch.From.Name
		default:
			status, path = 'M', ch.To.Name
		}
		out = append(out, CommitFileChange{Path: path, Status: status})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// countFirstParent counts commits on the first-parent line from tip down to
// stop (exclusive).
func (r *Repo) countFirstParent(tip, stop plumbing.Hash) (int, error) {
	count := 0
	current := tip
	for current != stop {
		c, err := r.Commit(current)
		if err != nil {
			return 0, err
		}
		count++
		if c.NumParents() == 0 {
			break
		}
		current = c.ParentHashes[0]
	}
	return count, nil
}

// contextCommits returns up to n first-parent commits before the base.
func (r *Repo) contextCommits(base plumbing.Hash, n int) ([]ContextCommit, error) {
	var out []ContextCommit
	c, err := r.Commit(base)
	if err != nil {
		return nil, err
	}
	for len(out) < n && c.NumParents() > 0 {
		c, err = c.Parent(0)
		if err != nil {
			return nil, err
		}
		out = append(out, ContextCommit{
			Short:   ShortHash(c.Hash.String()),
			Date:    c.Author.When.Format("2006-01-02"),
			Message: summary(c),
		})
	}
	return out, nil
}

func summary(c *object.Commit) string {
	msg := c.Message
	if idx := strings.IndexByte(msg, '\n'); idx >= 0 {
		msg = msg[:idx]
	}
	return strings.TrimSpace(msg)
}

// Package shortid assigns compact display identifiers to the entities shown
// by git-loom: branches, commits, changed files and the unstaged working tree.
//
// IDs are at least two characters from [a-z0-9-]. Assignment is deterministic:
// the same entities in the same order always produce the same IDs. The token
// "zz" is reserved for the unstaged working tree and never assigned to
// anything else.
package shortid

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

// Kind discriminates entity variants.
type Kind int

const (
	KindUnstaged Kind = iota
	KindBranch
	KindCommit
	KindFile
)

// Entity is something that can receive a short ID.
type Entity struct {
	Kind Kind
	// Name holds the branch name or file path.
	Name string
	// Hash holds the commit OID for KindCommit.
	Hash plumbing.Hash
}

// Unstaged returns the entity for the unstaged working tree.
func Unstaged() Entity { return Entity{Kind: KindUnstaged} }

// Branch returns the entity for a branch name.
func Branch(name string) Entity { return Entity{Kind: KindBranch, Name: name} }

// Commit returns the entity for a commit.
func Commit(hash plumbing.Hash) Entity { return Entity{Kind: KindCommit, Hash: hash} }

// File returns the entity for a changed file path.
func File(path string) Entity { return Entity{Kind: KindFile, Name: path} }

// Allocator maps entities to unique short IDs and back.
type Allocator struct {
	ids     map[Entity]string
	reverse map[string]Entity
}

// New allocates IDs for the given entities in order.
func New(entities []Entity) *Allocator {
	a := &Allocator{
		ids:     make(map[Entity]string, len(entities)),
		reverse: make(map[string]Entity, len(entities)),
	}

	taken := make(map[string]bool, len(entities)+1)
	// zz is reserved for the unstaged entity even when it is absent.
	taken["zz"] = true
	usedFirst := make(map[byte]bool)

	for _, e := range entities {
		if _, ok := a.ids[e]; ok {
			continue
		}
		id := pick(candidates(e), e.Kind == KindUnstaged, taken, usedFirst)
		taken[id] = true
		if len(id) > 0 {
			usedFirst[id[0]] = true
		}
		a.ids[e] = id
		a.reverse[id] = e
	}

	return a
}

// pick selects the first free candidate, preferring one whose first character
// has not been used by any previously assigned ID. When every candidate is
// taken, numeric suffixes on the first candidate resolve the collision.
func pick(cands []string, isUnstaged bool, taken map[string]bool, usedFirst map[byte]bool) string {
	free := func(id string) bool {
		if isUnstaged {
			return id == "zz" || !taken[id]
		}
		return !taken[id]
	}

	for _, c := range cands {
		if free(c) && !usedFirst[c[0]] {
			return c
		}
	}
	for _, c := range cands {
		if free(c) {
			return c
		}
	}

	base := "id"
	if len(cands) > 0 {
		base = cands[0]
	}
	for n := 1; ; n++ {
		c := fmt.Sprintf("%s%d", base, n)
		if !taken[c] {
			return c
		}
	}
}

// ID returns the identifier assigned to an entity, or "" if unknown.
func (a *Allocator) ID(e Entity) string { return a.ids[e] }

// UnstagedID returns the identifier of the unstaged working tree.
func (a *Allocator) UnstagedID() string {
	if id, ok := a.ids[Unstaged()]; ok {
		return id
	}
	return "zz"
}

// BranchID returns the identifier for a branch name.
func (a *Allocator) BranchID(name string) string { return a.ids[Branch(name)] }

// CommitID returns the identifier for a commit.
func (a *Allocator) CommitID(hash plumbing.Hash) string { return a.ids[Commit(hash)] }

// FileID returns the identifier for a file path.
func (a *Allocator) FileID(path string) string { return a.ids[File(path)] }

// CommitFileID returns the display token for the index-th changed file of a
// commit: the commit's own ID with ":<index>" appended.
func (a *Allocator) CommitFileID(hash plumbing.Hash, index int) string {
	return fmt.Sprintf("%s:%d", a.CommitID(hash), index)
}

// Lookup resolves an identifier back to its entity.
func (a *Allocator) Lookup(id string) (Entity, bool) {
	e, ok := a.reverse[id]
	return e, ok
}

// ── Candidate generation ────────────────────────────────────────────────

// candidates enumerates id candidates for an entity, best first.
// The reserved "zz" is filtered out for everything except Unstaged.
func candidates(e Entity) []string {
	var cands []string
	switch e.Kind {
	case KindUnstaged:
		return []string{"zz"}
	case KindCommit:
		cands = hexPrefixes(e.Hash.String())
	case KindBranch:
		cands = nameCandidates(e.Name)
	case KindFile:
		cands = nameCandidates(fileStem(e.Name))
	}

	out := cands[:0]
	for _, c := range cands {
		if c != "zz" {
			out = append(out, c)
		}
	}
	return out
}

// hexPrefixes returns successive prefixes of a commit hash, length 2 and up.
func hexPrefixes(hash string) []string {
	var out []string
	for n := 2; n <= len(hash); n++ {
		out = append(out, hash[:n])
	}
	return out
}

// fileStem strips the directory and extension from a path.
func fileStem(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = base[:len(base)-len(ext)]
	}
	return base
}

// nameCandidates enumerates candidates for a branch or file name.
//
// The name is split into words on '-', '_' and '/'. Multi-word names yield
// every two-character pair taking one character from an earlier word and one
// from a later word; the very first candidate is the initials of the first
// two words, and alternative second-character choices are tried before the
// first character varies. Single-word names yield every in-order character
// pair. Once two-character candidates are exhausted, three-plus character
// prefixes of the round-robin interleave of the words follow.
func nameCandidates(name string) []string {
	words := splitWords(name)
	var out []string

	if len(words) > 1 {
		for i := 0; i < len(words); i++ {
			for j := i + 1; j < len(words); j++ {
				wi, wj := words[i], words[j]
				for a := 0; a < len(wi); a++ {
					for b := 0; b < len(wj); b++ {
						out = append(out, string(wi[a])+string(wj[b]))
					}
				}
			}
		}
	} else if len(words) == 1 {
		w := words[0]
		for i := 0; i < len(w); i++ {
			for j := i + 1; j < len(w); j++ {
				out = append(out, string(w[i])+string(w[j]))
			}
		}
	}

	inter := interleave(words)
	for n := 3; n <= len(inter); n++ {
		out = append(out, inter[:n])
	}

	return out
}

// splitWords lowercases the name, splits it on separators and drops any
// characters outside the short-ID alphabet.
func splitWords(name string) []string {
	name = strings.ToLower(name)
	raw := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == '/'
	})

	var words []string
	for _, w := range raw {
		var b strings.Builder
		for _, r := range w {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				b.WriteRune(r)
			}
		}
		if b.Len() > 0 {
			words = append(words, b.String())
		}
	}
	return words
}

// interleave builds a string by taking characters from each word round-robin.
func interleave(words []string) string {
	var b strings.Builder
	for i := 0; ; i++ {
		wrote := false
		for _, w := range words {
			if i < len(w) {
				b.WriteByte(w[i])
				wrote = true
			}
		}
		if !wrote {
			break
		}
	}
	return b.String()
}

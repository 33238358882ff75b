// Package interdiff aligns the commits of two versions of a branch and
// computes what changed between matching commits.
package interdiff

import (
	"fmt"

	"github.com/thiagokokada/interdiff-go/internal/git"
)

// DiffSource is the identity used to decide that two commits are the same
// logical change. When ChangeID is set the author fields are zero. Otherwise
// the author metadata, which survives rebases and amends, is used. Distinct
// commits by the same author within the same second collide; the first
// occurrence wins during alignment.
type DiffSource struct {
	ChangeID        string
	AuthorName      string
	AuthorEmail     string
	AuthorTimestamp int64
}

// SourceOf derives the alignment identity of a commit.
func SourceOf(c git.Commit) DiffSource {
	if c.ChangeID != "" {
		return DiffSource{ChangeID: c.ChangeID}
	}
	return DiffSource{
		AuthorName:      c.Author.Name,
		AuthorEmail:     c.Author.Email,
		AuthorTimestamp: c.Author.When.Unix(),
	}
}

func (s DiffSource) String() string {
	if s.ChangeID != "" {
		return s.ChangeID
	}
	return fmt.Sprintf("%s <%s> @%d", s.AuthorName, s.AuthorEmail, s.AuthorTimestamp)
}

// Pair is one aligned position. From and To index into the input sequences,
// -1 marks an absent side.
type Pair struct {
	From int
	To   int
}

// Align walks both sequences with two pointers. Equal sources are matched.
// When the current "to" source still appears later on the "from" side, the
// current "from" element was dropped. Otherwise the current "to" element is
// new. Once one side is drained the rest of the other is emitted in order.
func Align(from, to []DiffSource) []Pair {
	pairs := make([]Pair, 0, max(len(from), len(to)))
	i, j := 0, 0
	for i < len(from) || j < len(to) {
		switch {
		case i < len(from) && j < len(to):
			switch {
			case from[i] == to[j]:
				pairs = append(pairs, Pair{From: i, To: j})
				i++
				j++
			case contains(from[i:], to[j]):
				pairs = append(pairs, Pair{From: i, To: -1})
				i++
			default:
				pairs = append(pairs, Pair{From: -1, To: j})
				j++
			}
		case i < len(from):
			pairs = append(pairs, Pair{From: i, To: -1})
			i++
		default:
			pairs = append(pairs, Pair{From: -1, To: j})
			j++
		}
	}
	return pairs
}

func contains(sources []DiffSource, s DiffSource) bool {
	for _, x := range sources {
		if x == s {
			return true
		}
	}
	return false
}

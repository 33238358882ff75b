package git

import (
	"container/heap"
	"context"
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	flagInclude uint8 = 1 << iota
	flagExclude
)

// commitQueue is a max-heap of commits keyed by committer time.
type commitQueue []*object.Commit

func (q commitQueue) Len() int { return len(q) }
func (q commitQueue) Less(i, j int) bool {
	return q[i].Committer.When.After(q[j].Committer.When)
}
func (q commitQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *commitQueue) Push(x any)   { *q = append(*q, x.(*object.Commit)) }
func (q *commitQueue) Pop() any {
	old := *q
	n := len(old)
	c := old[n-1]
	*q = old[:n-1]
	return c
}

// uniqueAncestors paints commits reachable from include and from exclude,
// newest first, and stops once every pending commit is reachable from
// exclude. It returns the commits painted only by include. A nil exclude
// selects every ancestor of include.
func uniqueAncestors(ctx context.Context, include, exclude *object.Commit) ([]*object.Commit, error) {
	flags := make(map[plumbing.Hash]uint8)
	seen := make(map[plumbing.Hash]*object.Commit)
	queue := &commitQueue{}

	mark := func(c *object.Commit, f uint8) {
		if flags[c.Hash]&f == f {
			return
		}
		flags[c.Hash] |= f
		seen[c.Hash] = c
		heap.Push(queue, c)
	}
	mark(include, flagInclude)
	if exclude != nil {
		mark(exclude, flagExclude)
	}

	for queue.Len() > 0 && !allExcluded(*queue, flags) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c := heap.Pop(queue).(*object.Commit)
		f := flags[c.Hash]
		err := c.Parents().ForEach(func(p *object.Commit) error {
			mark(p, f)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%w: walk parents of %s: %w", ErrRepo, c.Hash, err)
		}
	}

	var out []*object.Commit
	for h, c := range seen {
		if flags[h] == flagInclude {
			out = append(out, c)
		}
	}
	return out, nil
}

func allExcluded(queue commitQueue, flags map[plumbing.Hash]uint8) bool {
	for _, c := range queue {
		if flags[c.Hash]&flagExclude == 0 {
			return false
		}
	}
	return true
}

// topoOldestFirst orders commits so that every parent comes before its
// children. Ties between independent commits go to the older committer time,
// then to the smaller hash.
func topoOldestFirst(commits []*object.Commit) []*object.Commit {
	inSet := make(map[plumbing.Hash]*object.Commit, len(commits))
	for _, c := range commits {
		inSet[c.Hash] = c
	}
	pending := make(map[plumbing.Hash]int, len(commits))
	children := make(map[plumbing.Hash][]*object.Commit)
	var ready []*object.Commit
	for _, c := range commits {
		n := 0
		for _, p := range c.ParentHashes {
			if _, ok := inSet[p]; ok {
				n++
				children[p] = append(children[p], c)
			}
		}
		pending[c.Hash] = n
		if n == 0 {
			ready = append(ready, c)
		}
	}

	out := make([]*object.Commit, 0, len(commits))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool {
			a, b := ready[i], ready[j]
			if !a.Committer.When.Equal(b.Committer.When) {
				return a.Committer.When.Before(b.Committer.When)
			}
			return a.Hash.String() < b.Hash.String()
		})
		c := ready[0]
		ready = ready[1:]
		out = append(out, c)
		for _, child := range children[c.Hash] {
			pending[child.Hash]--
			if pending[child.Hash] == 0 {
				ready = append(ready, child)
			}
		}
	}
	return out
}

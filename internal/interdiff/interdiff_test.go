package interdiff

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/thiagokokada/interdiff-go/internal/git"
)

type fakeStats struct {
	commitStats    func(c git.Commit) (git.DiffStats, error)
	interdiffStats func(from, to git.Commit) (git.DiffStats, error)
}

func (f fakeStats) CommitStats(_ context.Context, c git.Commit) (git.DiffStats, error) {
	if f.commitStats == nil {
		return git.DiffStats{Additions: 1, ChangedFiles: 1}, nil
	}
	return f.commitStats(c)
}

func (f fakeStats) InterdiffStats(_ context.Context, from, to git.Commit) (git.DiffStats, error) {
	if f.interdiffStats == nil {
		return git.DiffStats{Additions: 2, Removals: 1, ChangedFiles: 1}, nil
	}
	return f.interdiffStats(from, to)
}

func change(sha, changeID string) git.Commit {
	return git.Commit{Hash: sha, ChangeID: changeID, Message: "commit " + sha + "\n\nbody"}
}

func sources(prefix string, n int) []DiffSource {
	out := make([]DiffSource, n)
	for i := range out {
		out[i] = DiffSource{ChangeID: fmt.Sprintf("%s%d", prefix, i)}
	}
	return out
}

func TestSourceOfFallsBackToAuthor(t *testing.T) {
	t.Parallel()

	when := time.Unix(1700000000, 0)
	c := git.Commit{Author: git.Signature{Name: "Ann", Email: "ann@example.com", When: when}}
	require.Equal(t, DiffSource{AuthorName: "Ann", AuthorEmail: "ann@example.com", AuthorTimestamp: 1700000000}, SourceOf(c))

	c.ChangeID = "qpvuntsm"
	require.Equal(t, DiffSource{ChangeID: "qpvuntsm"}, SourceOf(c))
}

func TestAlignDisjointSequences(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(rt, "from")
		m := rapid.IntRange(0, 20).Draw(rt, "to")
		pairs := Align(sources("f", n), sources("t", m))

		require.Len(rt, pairs, n+m)
		// nothing in "to" ever appears in "from", so every "to" element is an
		// insertion emitted before the remaining "from" elements
		want := make([]Pair, 0, n+m)
		for j := range m {
			want = append(want, Pair{From: -1, To: j})
		}
		for i := range n {
			want = append(want, Pair{From: i, To: -1})
		}
		require.Equal(rt, want, pairs)
	})
}

func TestAlignIdenticalSequences(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 30).Draw(rt, "n")
		src := sources("c", n)
		pairs := Align(src, src)
		require.Len(rt, pairs, n)
		for i, p := range pairs {
			require.Equal(rt, Pair{From: i, To: i}, p)
		}
	})
}

func TestAlignVisitsEveryElementInOrder(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		gen := rapid.SliceOfN(rapid.IntRange(0, 8), 0, 15)
		from := toSources(gen.Draw(rt, "from"))
		to := toSources(gen.Draw(rt, "to"))

		pairs := Align(from, to)
		require.Equal(rt, pairs, Align(from, to))

		nextFrom, nextTo := 0, 0
		for _, p := range pairs {
			require.False(rt, p.From < 0 && p.To < 0)
			if p.From >= 0 {
				require.Equal(rt, nextFrom, p.From)
				nextFrom++
			}
			if p.To >= 0 {
				require.Equal(rt, nextTo, p.To)
				nextTo++
			}
			if p.From >= 0 && p.To >= 0 {
				require.Equal(rt, from[p.From], to[p.To])
			}
		}
		require.Equal(rt, len(from), nextFrom)
		require.Equal(rt, len(to), nextTo)
	})
}

// greedyAlign restates the alignment rule recursively over the remaining
// suffixes of both sides.
func greedyAlign(from, to []DiffSource, i, j int) []Pair {
	switch {
	case i == len(from) && j == len(to):
		return nil
	case j == len(to):
		return append([]Pair{{From: i, To: -1}}, greedyAlign(from, to, i+1, j)...)
	case i == len(from):
		return append([]Pair{{From: -1, To: j}}, greedyAlign(from, to, i, j+1)...)
	case from[i] == to[j]:
		return append([]Pair{{From: i, To: j}}, greedyAlign(from, to, i+1, j+1)...)
	case slices.Contains(from[i:], to[j]):
		return append([]Pair{{From: i, To: -1}}, greedyAlign(from, to, i+1, j)...)
	}
	return append([]Pair{{From: -1, To: j}}, greedyAlign(from, to, i, j+1)...)
}

func TestAlignMatchesGreedyRule(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		gen := rapid.SliceOfN(rapid.IntRange(0, 5), 0, 12)
		from := toSources(gen.Draw(rt, "from"))
		to := toSources(gen.Draw(rt, "to"))

		want := greedyAlign(from, to, 0, 0)
		if want == nil {
			want = []Pair{}
		}
		require.Equal(rt, want, Align(from, to))
	})
}

func TestAlignReorderedCommits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		from, to []int
		want     []Pair
	}{
		{"swap", []int{1, 2}, []int{2, 1}, []Pair{{0, -1}, {1, 0}, {-1, 1}}},
		{"moved to front", []int{1, 2, 3}, []int{3, 1, 2}, []Pair{{0, -1}, {1, -1}, {2, 0}, {-1, 1}, {-1, 2}}},
		{"moved to back", []int{1, 2, 3}, []int{2, 3, 1}, []Pair{{0, -1}, {1, 0}, {2, 1}, {-1, 2}}},
		{"insert and drop", []int{1, 2, 3}, []int{1, 4, 3}, []Pair{{0, 0}, {-1, 1}, {1, -1}, {2, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.want, Align(toSources(tt.from), toSources(tt.to)))
		})
	}
}

func toSources(ids []int) []DiffSource {
	out := make([]DiffSource, len(ids))
	for i, id := range ids {
		out[i] = DiffSource{ChangeID: fmt.Sprint(id)}
	}
	return out
}

func TestReconcileIdenticalHasNoChanges(t *testing.T) {
	t.Parallel()

	commits := []git.Commit{change("a1", "A"), change("b1", "B"), change("c1", "C")}
	var interdiffCalls int
	p := fakeStats{interdiffStats: func(_, _ git.Commit) (git.DiffStats, error) {
		interdiffCalls++
		return git.DiffStats{}, nil
	}}

	got, err := Reconcile(context.Background(), p, commits, commits)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, row := range got {
		require.Equal(t, commits[i].Hash, row.From.SHA)
		require.Equal(t, commits[i].Hash, row.To.SHA)
		require.False(t, row.HasChanges())
	}
	require.Zero(t, interdiffCalls)

	again, err := Reconcile(context.Background(), p, commits, commits)
	require.NoError(t, err)
	require.Equal(t, got, again)
}

func TestReconcileRewrittenCommit(t *testing.T) {
	t.Parallel()

	from := []git.Commit{change("a1", "A"), change("b1", "B")}
	to := []git.Commit{change("a1", "A"), change("b2", "B")}

	got, err := Reconcile(context.Background(), fakeStats{}, from, to)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "a1", got[0].From.SHA)
	require.Equal(t, "a1", got[0].To.SHA)
	require.False(t, got[0].HasChanges())
	require.Equal(t, "b1", got[1].From.SHA)
	require.Equal(t, "b2", got[1].To.SHA)
	require.True(t, got[1].HasChanges())
	require.Equal(t, git.DiffStats{Additions: 2, Removals: 1, ChangedFiles: 1}, got[1].Stats)
}

func TestReconcileRemovedCommit(t *testing.T) {
	t.Parallel()

	from := []git.Commit{change("a1", "A"), change("b1", "B")}
	to := []git.Commit{change("b1", "B")}

	got, err := Reconcile(context.Background(), fakeStats{}, from, to)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "a1", got[0].From.SHA)
	require.Nil(t, got[0].To)
	require.True(t, got[0].HasChanges())
	require.Equal(t, "b1", got[1].From.SHA)
	require.Equal(t, "b1", got[1].To.SHA)
	require.False(t, got[1].HasChanges())
}

func TestReconcileEmptyTo(t *testing.T) {
	t.Parallel()

	from := []git.Commit{change("a1", "A"), change("b1", "B"), change("c1", "C")}

	got, err := Reconcile(context.Background(), fakeStats{}, from, nil)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, row := range got {
		require.Equal(t, from[i].Hash, row.From.SHA)
		require.Nil(t, row.To)
		require.True(t, row.HasChanges())
	}

	empty, err := Reconcile(context.Background(), fakeStats{}, nil, nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestReconcileRootCommitHasZeroStats(t *testing.T) {
	t.Parallel()

	root := change("r1", "R")
	p := fakeStats{commitStats: func(c git.Commit) (git.DiffStats, error) {
		if len(c.ParentHashes) == 0 {
			return git.DiffStats{}, nil
		}
		return git.DiffStats{ChangedFiles: 1}, nil
	}}

	got, err := Reconcile(context.Background(), p, nil, []git.Commit{root})
	require.NoError(t, err)
	require.Equal(t, git.DiffStats{}, got[0].Stats)
	require.True(t, got[0].HasChanges())
}

func TestReconcilePropagatesStatsErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	p := fakeStats{commitStats: func(git.Commit) (git.DiffStats, error) { return git.DiffStats{}, boom }}

	_, err := Reconcile(context.Background(), p, []git.Commit{change("a", "A")}, nil)
	require.ErrorIs(t, err, boom)
}

func TestHasChanges(t *testing.T) {
	t.Parallel()

	a := &CommitMeta{SHA: "a"}
	b := &CommitMeta{SHA: "b"}
	changed := git.DiffStats{ChangedFiles: 1}

	require.True(t, CommitDiff{From: a}.HasChanges())
	require.True(t, CommitDiff{To: b}.HasChanges())
	require.False(t, CommitDiff{}.HasChanges())
	require.False(t, CommitDiff{From: a, To: b}.HasChanges())
	require.True(t, CommitDiff{From: a, To: b, Stats: changed}.HasChanges())
	require.False(t, CommitDiff{From: a, To: a, Stats: changed}.HasChanges())
}

func TestCommitMetaSubject(t *testing.T) {
	t.Parallel()

	require.Equal(t, "fix parser", CommitMeta{Message: "fix parser\n\nlong body"}.Subject())
}

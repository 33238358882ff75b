package interdiff

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/thiagokokada/interdiff-go/internal/git"
)

type CommitMeta struct {
	SHA     string
	Message string
}

// Subject returns the first line of the message.
func (m CommitMeta) Subject() string {
	return strings.SplitN(strings.TrimSpace(m.Message), "\n", 2)[0]
}

// CommitDiff is one row of an aligned comparison. At least one of From and
// To is set.
type CommitDiff struct {
	From  *CommitMeta
	To    *CommitMeta
	Stats git.DiffStats
}

// HasChanges reports whether the row differs between the two sides: a commit
// only present on one side always does, a matched pair does when its content
// changed and it was actually rewritten.
func (d CommitDiff) HasChanges() bool {
	switch {
	case d.From != nil && d.To != nil:
		return d.Stats.ChangedFiles > 0 && d.From.SHA != d.To.SHA
	case d.From != nil || d.To != nil:
		return true
	}
	return false
}

// BranchDiff is the aligned comparison, oldest first.
type BranchDiff []CommitDiff

// StatsProvider computes the statistics attached to each row.
type StatsProvider interface {
	// CommitStats diffs a commit against its first parent, zero for a root.
	CommitStats(ctx context.Context, c git.Commit) (git.DiffStats, error)
	// InterdiffStats diffs from, rebased onto the parent of to, against to.
	InterdiffStats(ctx context.Context, from, to git.Commit) (git.DiffStats, error)
}

// Provider is the repository surface needed to compute a BranchDiff from two
// revisions.
type Provider interface {
	StatsProvider
	Resolve(ctx context.Context, rev string) (git.Commit, error)
	Trunk(ctx context.Context) (string, error)
	ForkPoint(ctx context.Context, revs ...string) (git.Commit, error)
	Range(ctx context.Context, exclude, include string) ([]git.Commit, error)
}

var _ Provider = (*git.Service)(nil)

// Reconcile aligns two oldest-first commit sequences and attaches stats to
// every row.
func Reconcile(ctx context.Context, p StatsProvider, from, to []git.Commit) (BranchDiff, error) {
	fromSources := make([]DiffSource, len(from))
	for i, c := range from {
		fromSources[i] = SourceOf(c)
	}
	toSources := make([]DiffSource, len(to))
	for i, c := range to {
		toSources[i] = SourceOf(c)
	}

	pairs := Align(fromSources, toSources)
	out := make(BranchDiff, 0, len(pairs))
	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var f, t *git.Commit
		if pair.From >= 0 {
			f = &from[pair.From]
		}
		if pair.To >= 0 {
			t = &to[pair.To]
		}
		stats, err := rowStats(ctx, p, f, t)
		if err != nil {
			return nil, err
		}
		out = append(out, CommitDiff{From: meta(f), To: meta(t), Stats: stats})
	}
	return out, nil
}

func rowStats(ctx context.Context, p StatsProvider, from, to *git.Commit) (git.DiffStats, error) {
	switch {
	case from != nil && to != nil && from.Hash == to.Hash:
		return p.CommitStats(ctx, *to)
	case from != nil && to != nil:
		return p.InterdiffStats(ctx, *from, *to)
	case from != nil:
		return p.CommitStats(ctx, *from)
	case to != nil:
		return p.CommitStats(ctx, *to)
	}
	return git.DiffStats{}, nil
}

func meta(c *git.Commit) *CommitMeta {
	if c == nil {
		return nil
	}
	return &CommitMeta{SHA: c.Hash, Message: c.Message}
}

// Calculate compares the branch at fromRev with the branch at toRev. The
// "from" side is everything since the fork point of both revisions and
// trunk. The "to" side is everything on toRev not yet on trunk.
func Calculate(ctx context.Context, p Provider, fromRev, toRev string) (BranchDiff, error) {
	trunk, err := p.Trunk(ctx)
	if err != nil {
		return nil, err
	}
	fork, err := p.ForkPoint(ctx, fromRev, toRev, trunk)
	if err != nil {
		return nil, fmt.Errorf("fork point of %s and %s: %w", fromRev, toRev, err)
	}
	fromCommits, err := p.Range(ctx, fork.Hash, fromRev)
	if err != nil {
		return nil, err
	}
	toCommits, err := p.Range(ctx, trunk, toRev)
	if err != nil {
		return nil, err
	}
	slog.Debug("reconciling branches",
		slog.String("from", fromRev),
		slog.String("to", toRev),
		slog.String("trunk", trunk),
		slog.String("fork_point", fork.ShortHash()),
		slog.Int("from_commits", len(fromCommits)),
		slog.Int("to_commits", len(toCommits)),
	)
	return Reconcile(ctx, p, fromCommits, toCommits)
}

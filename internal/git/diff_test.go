package git

import (
	"context"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"
)

func resolveAll(t *testing.T, svc *Service, hs ...plumbing.Hash) []Commit {
	t.Helper()
	out := make([]Commit, 0, len(hs))
	for _, h := range hs {
		c, err := svc.Resolve(context.Background(), h.String())
		require.NoError(t, err)
		out = append(out, c)
	}
	return out
}

func TestCommitStats(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	root := f.commit(commitSpec{files: map[string]string{"a": "1\n2\n3\n"}})
	child := f.commit(commitSpec{parents: []plumbing.Hash{root}, files: map[string]string{
		"a": "1\ntwo\n3\n",
		"b": "new\nfile\n",
	}})
	svc := f.service(Options{})
	commits := resolveAll(t, svc, root, child)

	stats, err := svc.CommitStats(context.Background(), commits[0])
	require.NoError(t, err)
	require.Equal(t, DiffStats{}, stats)

	stats, err = svc.CommitStats(context.Background(), commits[1])
	require.NoError(t, err)
	require.Equal(t, DiffStats{Additions: 3, Removals: 1, ChangedFiles: 2}, stats)
}

func TestDiffStatsExcludedPaths(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	root := f.commit(commitSpec{files: map[string]string{"a": "1\n", "go.sum": "x\n"}})
	child := f.commit(commitSpec{parents: []plumbing.Hash{root}, files: map[string]string{"a": "2\n", "go.sum": "y\n"}})
	svc := f.service(Options{Exclude: []string{"**/*.sum"}})

	stats, err := svc.CommitStats(context.Background(), resolveAll(t, svc, child)[0])
	require.NoError(t, err)
	require.Equal(t, DiffStats{Additions: 1, Removals: 1, ChangedFiles: 1}, stats)
}

func TestBinaryFilesCountWithoutLines(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	root := f.commit(commitSpec{files: map[string]string{"img": "\x00\x01"}})
	child := f.commit(commitSpec{parents: []plumbing.Hash{root}, files: map[string]string{"img": "\x00\x02"}})
	svc := f.service(Options{})

	stats, err := svc.CommitStats(context.Background(), resolveAll(t, svc, child)[0])
	require.NoError(t, err)
	require.Equal(t, DiffStats{ChangedFiles: 1}, stats)
}

func TestInterdiffStatsIgnoresUpstreamChanges(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p0 := f.commit(commitSpec{files: map[string]string{"f": "1\n2\n3\n", "g": "x\n"}})
	p1 := f.commit(commitSpec{parents: []plumbing.Hash{p0}, files: map[string]string{"f": "1\n2\nthree\n", "g": "y\n"}})
	from := f.commit(commitSpec{parents: []plumbing.Hash{p0}, files: map[string]string{"f": "one\n2\n3\n", "g": "x\n"}})
	to := f.commit(commitSpec{parents: []plumbing.Hash{p1}, files: map[string]string{"f": "one\n2\nthree\n", "g": "y\n"}})
	svc := f.service(Options{})
	commits := resolveAll(t, svc, from, to)

	stats, err := svc.InterdiffStats(context.Background(), commits[0], commits[1])
	require.NoError(t, err)
	require.Equal(t, DiffStats{}, stats)
}

func TestInterdiffStatsReportsAmendedContent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p0 := f.commit(commitSpec{files: map[string]string{"f": "1\n"}})
	from := f.commit(commitSpec{parents: []plumbing.Hash{p0}, files: map[string]string{"f": "1\n2\n"}})
	to := f.commit(commitSpec{parents: []plumbing.Hash{p0}, files: map[string]string{"f": "1\n2\n3\n"}})
	svc := f.service(Options{})
	commits := resolveAll(t, svc, from, to)

	stats, err := svc.InterdiffStats(context.Background(), commits[0], commits[1])
	require.NoError(t, err)
	require.Equal(t, DiffStats{Additions: 1, ChangedFiles: 1}, stats)
}

func TestRenderInterdiffTitles(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	root := f.commit(commitSpec{files: map[string]string{"f": "1\n"}})
	child := f.commit(commitSpec{parents: []plumbing.Hash{root}, files: map[string]string{"f": "1\n", "g": "added\n"}})
	svc := f.service(Options{})
	c := resolveAll(t, svc, child)[0]
	ctx := context.Background()

	title, text, err := svc.RenderInterdiff(ctx, nil, &c, 80)
	require.NoError(t, err)
	require.Equal(t, child.String()+" (new)", title)
	require.Contains(t, text, "diff --git a/g b/g")
	require.Contains(t, text, "+added")
	require.Contains(t, text, "1 files changed, 1 insertions(+), 0 deletions(-)")

	title, text, err = svc.RenderInterdiff(ctx, &c, nil, 80)
	require.NoError(t, err)
	require.Equal(t, child.String()+" (removed)", title)
	require.Contains(t, text, "-added")

	title, text, err = svc.RenderInterdiff(ctx, &c, &c, 80)
	require.NoError(t, err)
	require.Equal(t, child.String()+" -> "+child.String(), title)
	require.Equal(t, "No file level changes.\n", text)

	_, _, err = svc.RenderInterdiff(ctx, nil, nil, 80)
	require.ErrorIs(t, err, ErrCommit)
}

func TestSplitLines(t *testing.T) {
	t.Parallel()

	require.Empty(t, splitLines(""))
	require.Equal(t, []string{"a\n", "b\n"}, splitLines("a\nb\n"))
	require.Equal(t, []string{"a\n", "b\n"}, splitLines("a\nb"))
}

func TestStatSummaryScalesToWidth(t *testing.T) {
	t.Parallel()

	diffs := []fileDiff{
		{path: "big", added: 200, removed: 100},
		{path: "small", added: 1},
	}
	var b strings.Builder
	writeStatSummary(&b, diffs, 40)
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines[:2] {
		require.LessOrEqual(t, len(line), 40)
	}
	require.Contains(t, lines[1], "1 +")
	require.Contains(t, lines[2], "2 files changed, 201 insertions(+), 100 deletions(-)")
}

package git

import (
	"context"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"
)

func TestResolveReadsChangeID(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	root := f.commit(commitSpec{files: map[string]string{"a.txt": "a\n"}, message: "root\n\nbody", changeID: "kkmpptxz"})
	f.branch("main", root)
	svc := f.service(Options{})

	c, err := svc.Resolve(context.Background(), "main")
	require.NoError(t, err)
	require.Equal(t, root.String(), c.Hash)
	require.Equal(t, "kkmpptxz", c.ChangeID)
	require.Equal(t, "root", c.Subject())
	require.Empty(t, c.ParentHashes)
	require.Equal(t, "Alice", c.Author.Name)
}

func TestResolveUnknownRevision(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.branch("main", f.commit(commitSpec{files: map[string]string{"a": "a\n"}}))
	svc := f.service(Options{})

	_, err := svc.Resolve(context.Background(), "does-not-exist")
	require.Error(t, err)
	_, err = svc.Resolve(context.Background(), "  ")
	require.ErrorIs(t, err, ErrExpr)
}

func TestTrunkDetection(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	root := f.commit(commitSpec{files: map[string]string{"a": "a\n"}})
	f.branch("feature", root)

	trunk, err := f.service(Options{}).Trunk(context.Background())
	require.NoError(t, err)
	require.Empty(t, trunk)

	f.branch("master", root)
	trunk, err = f.service(Options{}).Trunk(context.Background())
	require.NoError(t, err)
	require.Equal(t, "master", trunk)

	trunk, err = f.service(Options{Trunk: "feature"}).Trunk(context.Background())
	require.NoError(t, err)
	require.Equal(t, "feature", trunk)
}

func TestRangeAndForkPoint(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	root := f.commit(commitSpec{files: map[string]string{"a": "1\n"}, message: "root"})
	t1 := f.commit(commitSpec{parents: []plumbing.Hash{root}, files: map[string]string{"a": "2\n"}, message: "t1"})
	a := f.commit(commitSpec{parents: []plumbing.Hash{t1}, files: map[string]string{"a": "2\n", "b": "b\n"}, message: "a"})
	t2 := f.commit(commitSpec{parents: []plumbing.Hash{t1}, files: map[string]string{"a": "3\n"}, message: "t2"})
	b := f.commit(commitSpec{parents: []plumbing.Hash{a}, files: map[string]string{"a": "2\n", "b": "bb\n"}, message: "b"})
	f.branch("main", t2)
	f.branch("feature", b)
	svc := f.service(Options{})
	ctx := context.Background()

	got, err := svc.Range(ctx, "main", "feature")
	require.NoError(t, err)
	require.Equal(t, []string{a.String(), b.String()}, hashes(got))

	fork, err := svc.ForkPoint(ctx, "feature", "", "main")
	require.NoError(t, err)
	require.Equal(t, t1.String(), fork.Hash)

	all, err := svc.Range(ctx, "", "feature")
	require.NoError(t, err)
	require.Equal(t, []string{root.String(), t1.String(), a.String(), b.String()}, hashes(all))

	none, err := svc.Range(ctx, "feature", "feature")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestRangeOrdersMergesParentsFirst(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	root := f.commit(commitSpec{files: map[string]string{"a": "1\n"}})
	left := f.commit(commitSpec{parents: []plumbing.Hash{root}, files: map[string]string{"a": "1\n", "l": "l\n"}})
	right := f.commit(commitSpec{parents: []plumbing.Hash{root}, files: map[string]string{"a": "1\n", "r": "r\n"}})
	merge := f.commit(commitSpec{parents: []plumbing.Hash{right, left}, files: map[string]string{"a": "1\n", "l": "l\n", "r": "r\n"}})
	f.branch("main", root)
	f.branch("feature", merge)

	got, err := f.service(Options{}).Range(context.Background(), "main", "feature")
	require.NoError(t, err)
	require.Equal(t, []string{left.String(), right.String(), merge.String()}, hashes(got))
}

func TestForkPointUnrelatedHistories(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.branch("one", f.commit(commitSpec{files: map[string]string{"a": "1\n"}}))
	f.branch("two", f.commit(commitSpec{files: map[string]string{"b": "1\n"}}))

	fork, err := f.service(Options{}).ForkPoint(context.Background(), "one", "two")
	require.NoError(t, err)
	require.Empty(t, fork.Hash)
}

func TestMissingIgnoresAbbreviations(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	root := f.commit(commitSpec{files: map[string]string{"a": "1\n"}})
	svc := f.service(Options{})
	unknown := "0123456789abcdef0123456789abcdef01234567"

	got := svc.Missing([]string{root.String(), unknown, "0123abc"})
	require.Equal(t, []string{unknown}, got)

	same, err := svc.EnsurePresent(context.Background(), []string{root.String()})
	require.NoError(t, err)
	require.Same(t, svc, same)
}

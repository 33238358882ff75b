package git

import (
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"
)

var fixtureEpoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// fixture builds commits directly in an in-memory object store so tests can
// pick arbitrary parents, timestamps and change-id headers.
type fixture struct {
	t    *testing.T
	repo *gitlib.Repository
	tick int
}

type commitSpec struct {
	parents  []plumbing.Hash
	files    map[string]string
	message  string
	author   string
	changeID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, err := gitlib.Init(memory.NewStorage(), memfs.New())
	require.NoError(t, err)
	return &fixture{t: t, repo: repo}
}

func (f *fixture) service(opts Options) *Service {
	return newService(f.repo, "", opts)
}

func (f *fixture) blob(content string) plumbing.Hash {
	f.t.Helper()
	obj := f.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	w, err := obj.Writer()
	require.NoError(f.t, err)
	_, err = w.Write([]byte(content))
	require.NoError(f.t, err)
	require.NoError(f.t, w.Close())
	h, err := f.repo.Storer.SetEncodedObject(obj)
	require.NoError(f.t, err)
	return h
}

func (f *fixture) tree(files map[string]string) plumbing.Hash {
	f.t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	tree := &object.Tree{}
	for _, name := range names {
		tree.Entries = append(tree.Entries, object.TreeEntry{
			Name: name,
			Mode: filemode.Regular,
			Hash: f.blob(files[name]),
		})
	}
	obj := f.repo.Storer.NewEncodedObject()
	require.NoError(f.t, tree.Encode(obj))
	h, err := f.repo.Storer.SetEncodedObject(obj)
	require.NoError(f.t, err)
	return h
}

// commit writes a raw commit object, one second after the previous one.
func (f *fixture) commit(spec commitSpec) plumbing.Hash {
	f.t.Helper()
	f.tick++
	when := fixtureEpoch.Add(time.Duration(f.tick) * time.Second)
	author := spec.author
	if author == "" {
		author = "Alice"
	}
	sig := fmt.Sprintf("%s <%s@example.com> %d +0000", author, strings.ToLower(author), when.Unix())

	var b strings.Builder
	fmt.Fprintf(&b, "tree %s\n", f.tree(spec.files))
	for _, p := range spec.parents {
		fmt.Fprintf(&b, "parent %s\n", p)
	}
	fmt.Fprintf(&b, "author %s\ncommitter %s\n", sig, sig)
	if spec.changeID != "" {
		fmt.Fprintf(&b, "change-id %s\n", spec.changeID)
	}
	fmt.Fprintf(&b, "\n%s\n", spec.message)

	obj := f.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.CommitObject)
	w, err := obj.Writer()
	require.NoError(f.t, err)
	_, err = w.Write([]byte(b.String()))
	require.NoError(f.t, err)
	require.NoError(f.t, w.Close())
	h, err := f.repo.Storer.SetEncodedObject(obj)
	require.NoError(f.t, err)
	return h
}

func (f *fixture) branch(name string, h plumbing.Hash) {
	f.t.Helper()
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), h)
	require.NoError(f.t, f.repo.Storer.SetReference(ref))
}

func hashes(commits []Commit) []string {
	out := make([]string, 0, len(commits))
	for _, c := range commits {
		out = append(out, c.Hash)
	}
	return out
}

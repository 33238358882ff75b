package git

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5/plumbing/object"
)

// Tree is a commit tree plus optional per-path overrides. Overrides hold the
// synthesized content produced when a commit is replayed onto another parent.
type Tree struct {
	base *object.Tree
	// overrides maps a path to its replacement. A nil blob deletes the path.
	overrides map[string]*blob
}

type blob struct {
	file *object.File
	text string
}

func (b *blob) contents() (string, error) {
	if b.file == nil {
		return b.text, nil
	}
	return b.file.Contents()
}

func (b *blob) isBinary() (bool, error) {
	if b.file != nil {
		return b.file.IsBinary()
	}
	return bytes.IndexByte([]byte(b.text), 0) >= 0, nil
}

func sameBlob(a, b *blob) (bool, error) {
	if a == nil || b == nil {
		return a == nil && b == nil, nil
	}
	if a.file != nil && b.file != nil {
		return a.file.Hash == b.file.Hash && a.file.Mode == b.file.Mode, nil
	}
	ac, err := a.contents()
	if err != nil {
		return false, err
	}
	bc, err := b.contents()
	if err != nil {
		return false, err
	}
	return ac == bc, nil
}

func newTree(t *object.Tree) *Tree {
	return &Tree{base: t}
}

// lookup returns the blob stored at path or nil when the path is absent.
func (t *Tree) lookup(path string) (*blob, error) {
	if b, ok := t.overrides[path]; ok {
		return b, nil
	}
	if t.base == nil {
		return nil, nil
	}
	f, err := t.base.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) || errors.Is(err, object.ErrDirectoryNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read %s: %w", ErrRepo, path, err)
	}
	return &blob{file: f}, nil
}

func (t *Tree) set(path string, b *blob) {
	if t.overrides == nil {
		t.overrides = make(map[string]*blob)
	}
	t.overrides[path] = b
}

// changedPaths lists the paths whose content differs between two trees,
// sorted.
func changedPaths(from, to *Tree) ([]string, error) {
	candidates := make(map[string]struct{})
	changes, err := object.DiffTree(from.base, to.base)
	if err != nil {
		return nil, fmt.Errorf("%w: diff trees: %w", ErrRepo, err)
	}
	for _, ch := range changes {
		if ch.From.Name != "" {
			candidates[ch.From.Name] = struct{}{}
		}
		if ch.To.Name != "" {
			candidates[ch.To.Name] = struct{}{}
		}
	}
	for p := range from.overrides {
		candidates[p] = struct{}{}
	}
	for p := range to.overrides {
		candidates[p] = struct{}{}
	}

	paths := make([]string, 0, len(candidates))
	for p := range candidates {
		a, err := from.lookup(p)
		if err != nil {
			return nil, err
		}
		b, err := to.lookup(p)
		if err != nil {
			return nil, err
		}
		same, err := sameBlob(a, b)
		if err != nil {
			return nil, fmt.Errorf("%w: compare %s: %w", ErrRepo, p, err)
		}
		if !same {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

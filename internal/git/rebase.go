package git

import (
	"context"
	"log/slog"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// RebaseOntoParent returns the tree "from" would have if its own changes were
// replayed on top of the first parent of "to". Paths changed by from are
// merged three-way against the destination parent. Conflicting hunks keep the
// content of from.
func (s *Service) RebaseOntoParent(ctx context.Context, from, to Commit) (*Tree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebaseOntoParentLocked(ctx, from, to)
}

func (s *Service) rebaseOntoParentLocked(ctx context.Context, from, to Commit) (*Tree, error) {
	side, err := s.treeOfLocked(from.Hash)
	if err != nil {
		return nil, err
	}
	if firstParent(from) == firstParent(to) {
		return side, nil
	}
	base, err := s.parentTreeLocked(from)
	if err != nil {
		return nil, err
	}
	dest, err := s.parentTreeLocked(to)
	if err != nil {
		return nil, err
	}
	paths, err := changedPaths(base, side)
	if err != nil {
		return nil, err
	}

	result := &Tree{base: dest.base}
	dmp := diffmatchpatch.New()
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		merged, err := mergePath(dmp, path, base, side, dest)
		if err != nil {
			return nil, err
		}
		result.set(path, merged)
	}
	return result, nil
}

func mergePath(dmp *diffmatchpatch.DiffMatchPatch, path string, base, side, dest *Tree) (*blob, error) {
	b, err := base.lookup(path)
	if err != nil {
		return nil, err
	}
	sd, err := side.lookup(path)
	if err != nil {
		return nil, err
	}
	d, err := dest.lookup(path)
	if err != nil {
		return nil, err
	}
	if same, err := sameBlob(d, b); err != nil || same {
		return sd, err
	}
	if same, err := sameBlob(d, sd); err != nil || same {
		return d, err
	}
	if b == nil || sd == nil || d == nil {
		return sd, nil
	}
	for _, x := range []*blob{b, sd, d} {
		if bin, err := x.isBinary(); err != nil || bin {
			return sd, err
		}
	}
	baseText, err := b.contents()
	if err != nil {
		return nil, err
	}
	sideText, err := sd.contents()
	if err != nil {
		return nil, err
	}
	destText, err := d.contents()
	if err != nil {
		return nil, err
	}
	patches := dmp.PatchMake(baseText, sideText)
	merged, applied := dmp.PatchApply(patches, destText)
	for _, ok := range applied {
		if !ok {
			slog.Debug("rebase conflict, keeping replayed content", slog.String("path", path))
			return sd, nil
		}
	}
	return &blob{text: merged}, nil
}

func firstParent(c Commit) string {
	if len(c.ParentHashes) == 0 {
		return ""
	}
	return c.ParentHashes[0]
}

package git

import (
	"context"
	"fmt"
)

// DiffTitle names the comparison shown for a pair of optional commits.
func DiffTitle(from, to *Commit) string {
	switch {
	case from != nil && to != nil:
		return fmt.Sprintf("%s -> %s", from.Hash, to.Hash)
	case to != nil:
		return fmt.Sprintf("%s (new)", to.Hash)
	case from != nil:
		return fmt.Sprintf("%s (removed)", from.Hash)
	}
	return ""
}

// RenderInterdiff renders the diff for one reconciled row. When both sides
// are present, from is rebased onto the parent of to first. A commit only
// present on the "to" side is shown against its parent, and a commit only
// present on the "from" side is shown as reverted.
func (s *Service) RenderInterdiff(ctx context.Context, from, to *Commit, width int) (string, string, error) {
	if from == nil && to == nil {
		return "", "", fmt.Errorf("%w: nothing to render", ErrCommit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		a, b *Tree
		err  error
	)
	switch {
	case from != nil && to != nil:
		if a, err = s.rebaseOntoParentLocked(ctx, *from, *to); err != nil {
			return "", "", err
		}
		b, err = s.treeOfLocked(to.Hash)
	case to != nil:
		if a, err = s.parentTreeLocked(*to); err != nil {
			return "", "", err
		}
		b, err = s.treeOfLocked(to.Hash)
	default:
		if a, err = s.treeOfLocked(from.Hash); err != nil {
			return "", "", err
		}
		b, err = s.parentTreeLocked(*from)
	}
	if err != nil {
		return "", "", err
	}
	text, err := s.renderDiffLocked(ctx, a, b, width)
	if err != nil {
		return "", "", err
	}
	return DiffTitle(from, to), text, nil
}

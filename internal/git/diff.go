package git

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/pmezard/go-difflib/difflib"
)

type fileDiff struct {
	path     string
	from, to *blob
	binary   bool
	added    int
	removed  int
	fromText []string
	toText   []string
}

func (s *Service) excluded(path string) bool {
	for _, pattern := range s.opts.Exclude {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

func (s *Service) fileDiffs(ctx context.Context, from, to *Tree) ([]fileDiff, error) {
	paths, err := changedPaths(from, to)
	if err != nil {
		return nil, err
	}
	diffs := make([]fileDiff, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.excluded(path) {
			slog.Debug("path excluded from diff", slog.String("path", path))
			continue
		}
		d, err := diffFile(path, from, to)
		if err != nil {
			return nil, err
		}
		diffs = append(diffs, d)
	}
	return diffs, nil
}

func diffFile(path string, from, to *Tree) (fileDiff, error) {
	d := fileDiff{path: path}
	var err error
	if d.from, err = from.lookup(path); err != nil {
		return d, err
	}
	if d.to, err = to.lookup(path); err != nil {
		return d, err
	}
	for _, b := range []*blob{d.from, d.to} {
		if b == nil {
			continue
		}
		bin, err := b.isBinary()
		if err != nil {
			return d, fmt.Errorf("%w: inspect %s: %w", ErrRepo, path, err)
		}
		if bin {
			d.binary = true
			return d, nil
		}
	}
	if d.fromText, err = blobLines(d.from); err != nil {
		return d, fmt.Errorf("%w: read %s: %w", ErrRepo, path, err)
	}
	if d.toText, err = blobLines(d.to); err != nil {
		return d, fmt.Errorf("%w: read %s: %w", ErrRepo, path, err)
	}
	m := difflib.NewMatcher(d.fromText, d.toText)
	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'r':
			d.removed += op.I2 - op.I1
			d.added += op.J2 - op.J1
		case 'd':
			d.removed += op.I2 - op.I1
		case 'i':
			d.added += op.J2 - op.J1
		}
	}
	return d, nil
}

func blobLines(b *blob) ([]string, error) {
	if b == nil {
		return []string{}, nil
	}
	content, err := b.contents()
	if err != nil {
		return nil, err
	}
	return splitLines(content), nil
}

// splitLines splits content after each newline. Unlike difflib.SplitLines it
// does not produce a trailing empty line for newline terminated content.
func splitLines(content string) []string {
	if content == "" {
		return []string{}
	}
	lines := strings.SplitAfter(content, "\n")
	if lines[len(lines)-1] == "" {
		return lines[:len(lines)-1]
	}
	lines[len(lines)-1] += "\n"
	return lines
}

// DiffStats counts added and removed lines and changed files between two
// trees. Binary files count as changed without contributing lines.
func (s *Service) DiffStats(ctx context.Context, from, to *Tree) (DiffStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.diffStatsLocked(ctx, from, to)
}

func (s *Service) diffStatsLocked(ctx context.Context, from, to *Tree) (DiffStats, error) {
	diffs, err := s.fileDiffs(ctx, from, to)
	if err != nil {
		return DiffStats{}, err
	}
	var stats DiffStats
	for _, d := range diffs {
		stats.ChangedFiles++
		stats.Additions += d.added
		stats.Removals += d.removed
	}
	return stats, nil
}

// CommitStats diffs a commit against its first parent. A root commit has
// zero stats.
func (s *Service) CommitStats(ctx context.Context, c Commit) (DiffStats, error) {
	if len(c.ParentHashes) == 0 {
		return DiffStats{}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	parent, err := s.treeOfLocked(c.ParentHashes[0])
	if err != nil {
		return DiffStats{}, err
	}
	tree, err := s.treeOfLocked(c.Hash)
	if err != nil {
		return DiffStats{}, err
	}
	return s.diffStatsLocked(ctx, parent, tree)
}

// InterdiffStats compares from, replayed onto the parent of to, with to.
func (s *Service) InterdiffStats(ctx context.Context, from, to Commit) (DiffStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rebased, err := s.rebaseOntoParentLocked(ctx, from, to)
	if err != nil {
		return DiffStats{}, err
	}
	tree, err := s.treeOfLocked(to.Hash)
	if err != nil {
		return DiffStats{}, err
	}
	return s.diffStatsLocked(ctx, rebased, tree)
}

// RenderDiff renders the difference between two trees as a stat summary
// scaled to width followed by a unified diff per file.
func (s *Service) RenderDiff(ctx context.Context, from, to *Tree, width int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderDiffLocked(ctx, from, to, width)
}

func (s *Service) renderDiffLocked(ctx context.Context, from, to *Tree, width int) (string, error) {
	diffs, err := s.fileDiffs(ctx, from, to)
	if err != nil {
		return "", err
	}
	if len(diffs) == 0 {
		return "No file level changes.\n", nil
	}
	var b strings.Builder
	writeStatSummary(&b, diffs, width)
	b.WriteByte('\n')
	for _, d := range diffs {
		fmt.Fprintf(&b, "diff --git a/%s b/%s\n", d.path, d.path)
		switch {
		case d.from == nil:
			fmt.Fprintf(&b, "new file\n")
		case d.to == nil:
			fmt.Fprintf(&b, "deleted file\n")
		}
		if d.binary {
			b.WriteString("(binary files differ)\n")
			continue
		}
		ud := difflib.UnifiedDiff{
			A:        d.fromText,
			B:        d.toText,
			FromFile: "a/" + d.path,
			ToFile:   "b/" + d.path,
			Context:  s.opts.ContextLines,
		}
		if d.from == nil {
			ud.FromFile = "/dev/null"
		}
		if d.to == nil {
			ud.ToFile = "/dev/null"
		}
		text, err := difflib.GetUnifiedDiffString(ud)
		if err != nil {
			return "", fmt.Errorf("%w: render %s: %w", ErrRepo, d.path, err)
		}
		if text == "" {
			b.WriteString("(no textual changes)\n")
			continue
		}
		b.WriteString(text)
	}
	return b.String(), nil
}

// writeStatSummary writes one "path | N +++--" line per file, with the
// histogram bars scaled so that the widest line fits in width columns.
func writeStatSummary(b *strings.Builder, diffs []fileDiff, width int) {
	nameWidth, maxChanges, added, removed := 0, 0, 0, 0
	for _, d := range diffs {
		nameWidth = max(nameWidth, len(d.path))
		maxChanges = max(maxChanges, d.added+d.removed)
		added += d.added
		removed += d.removed
	}
	countWidth := len(fmt.Sprint(maxChanges))
	barWidth := width - nameWidth - countWidth - 5
	if barWidth < 10 {
		barWidth = 10
	}
	for _, d := range diffs {
		fmt.Fprintf(b, " %-*s | ", nameWidth, d.path)
		if d.binary {
			b.WriteString("Bin\n")
			continue
		}
		total := d.added + d.removed
		plus, minus := d.added, d.removed
		if maxChanges > barWidth {
			plus = scaleBar(d.added, maxChanges, barWidth)
			minus = scaleBar(d.removed, maxChanges, barWidth)
		}
		fmt.Fprintf(b, "%*d %s%s\n", countWidth, total, strings.Repeat("+", plus), strings.Repeat("-", minus))
	}
	fmt.Fprintf(b, " %d files changed, %d insertions(+), %d deletions(-)\n", len(diffs), added, removed)
}

func scaleBar(n, total, width int) int {
	if n == 0 {
		return 0
	}
	return max(1, n*width/total)
}

func (s *Service) treeOfLocked(hash string) (*Tree, error) {
	c, err := s.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return nil, fmt.Errorf("%w: read commit %s: %w", ErrCommit, hash, err)
	}
	t, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("%w: read tree of %s: %w", ErrRepo, hash, err)
	}
	return newTree(t), nil
}

func (s *Service) parentTreeLocked(c Commit) (*Tree, error) {
	if len(c.ParentHashes) == 0 {
		return newTree(nil), nil
	}
	return s.treeOfLocked(c.ParentHashes[0])
}

package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	DefaultRemote       = "origin"
	DefaultContextLines = 3
)

// trunkCandidates are tried in order when no trunk revision is configured.
var trunkCandidates = []string{
	"refs/remotes/origin/HEAD",
	"main",
	"master",
	"trunk",
	"origin/main",
	"origin/master",
}

type FetchBackend string

const (
	FetchNative FetchBackend = "native"
	FetchCLI    FetchBackend = "cli"
)

// Options tunes how the Service resolves and renders history.
type Options struct {
	// Trunk is the baseline revision bounding the "to" side. Empty means
	// auto detection through trunkCandidates.
	Trunk        string
	Remote       string
	Fetch        FetchBackend
	ContextLines int
	// Exclude holds doublestar patterns for paths dropped from stats and
	// rendered diffs.
	Exclude []string
}

type Service struct {
	// mu serializes access to the go-git repository, which is not safe for
	// concurrent object lookups through the same storer cache.
	mu sync.Mutex

	repo *gitlib.Repository
	path string
	opts Options

	trunk     string
	trunkOnce sync.Once
}

func Open(repoPath string, opts Options) (*Service, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	repo, err := gitlib.PlainOpenWithOptions(abs, &gitlib.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: open repository: %w", ErrRepo, err)
	}
	root := abs
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	return newService(repo, root, opts), nil
}

func newService(repo *gitlib.Repository, path string, opts Options) *Service {
	if opts.Remote == "" {
		opts.Remote = DefaultRemote
	}
	if opts.Fetch == "" {
		opts.Fetch = FetchNative
	}
	if opts.ContextLines <= 0 {
		opts.ContextLines = DefaultContextLines
	}
	return &Service{repo: repo, path: path, opts: opts}
}

func (s *Service) RepoPath() string {
	return s.path
}

// Resolve evaluates a single revision (hash, abbreviated hash, ref name or
// any go-git revision syntax such as "main~2") to exactly one commit.
func (s *Service) Resolve(ctx context.Context, rev string) (Commit, error) {
	if err := ctx.Err(); err != nil {
		return Commit{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.commitObjectLocked(rev)
	if err != nil {
		return Commit{}, err
	}
	return s.newCommitLocked(c), nil
}

// Trunk returns the configured trunk revision or the first auto detected
// candidate. An empty result means the repository has no trunk, in which
// case every ancestor counts as unique history.
func (s *Service) Trunk(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.trunkOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.opts.Trunk != "" {
			s.trunk = s.opts.Trunk
			return
		}
		for _, candidate := range trunkCandidates {
			if _, err := s.repo.ResolveRevision(plumbing.Revision(candidate)); err == nil {
				s.trunk = candidate
				break
			}
		}
		slog.Debug("trunk detected", slog.String("trunk", s.trunk))
	})
	return s.trunk, nil
}

// ForkPoint returns the newest common ancestor of all revisions. Empty
// revisions are ignored. A zero Commit is returned when the histories are
// unrelated.
func (s *Service) ForkPoint(ctx context.Context, revs ...string) (Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var base *object.Commit
	for _, rev := range revs {
		if strings.TrimSpace(rev) == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return Commit{}, err
		}
		c, err := s.commitObjectLocked(rev)
		if err != nil {
			return Commit{}, err
		}
		if base == nil {
			base = c
			continue
		}
		bases, err := base.MergeBase(c)
		if err != nil {
			return Commit{}, fmt.Errorf("%w: merge base of %s and %s: %w", ErrRepo, base.Hash, c.Hash, err)
		}
		if len(bases) == 0 {
			return Commit{}, nil
		}
		base = newestCommit(bases)
	}
	if base == nil {
		return Commit{}, fmt.Errorf("%w: fork point needs at least one revision", ErrExpr)
	}
	return s.newCommitLocked(base), nil
}

// Range returns the commits reachable from include but not from exclude,
// oldest first, parents always before their children. An empty exclude
// selects every ancestor of include.
func (s *Service) Range(ctx context.Context, exclude, include string) ([]Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	head, err := s.commitObjectLocked(include)
	if err != nil {
		return nil, err
	}
	var hidden *object.Commit
	if strings.TrimSpace(exclude) != "" {
		hidden, err = s.commitObjectLocked(exclude)
		if err != nil {
			return nil, err
		}
	}
	commits, err := uniqueAncestors(ctx, head, hidden)
	if err != nil {
		return nil, err
	}
	ordered := topoOldestFirst(commits)
	out := make([]Commit, 0, len(ordered))
	for _, c := range ordered {
		out = append(out, s.newCommitLocked(c))
	}
	slog.Debug("revision range resolved",
		slog.String("exclude", exclude),
		slog.String("include", include),
		slog.Int("count", len(out)),
	)
	return out, nil
}

func (s *Service) commitObjectLocked(rev string) (*object.Commit, error) {
	rev = strings.TrimSpace(rev)
	if rev == "" {
		return nil, fmt.Errorf("%w: empty revision", ErrExpr)
	}
	hash, err := s.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, fmt.Errorf("%w: expression didn't resolve to a commit: %s", ErrCommit, rev)
		}
		return nil, fmt.Errorf("%w: resolve %q: %w", ErrExpr, rev, err)
	}
	c, err := s.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("%w: read commit %s: %w", ErrRepo, hash, err)
	}
	return c, nil
}

func (s *Service) newCommitLocked(c *object.Commit) Commit {
	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	changeID, err := readChangeID(s.repo.Storer, c.Hash)
	if err != nil {
		slog.Debug("read change-id", slog.String("commit", c.Hash.String()), slog.Any("error", err))
	}
	return Commit{
		Hash:         c.Hash.String(),
		ParentHashes: parents,
		Author:       Signature{Name: c.Author.Name, Email: c.Author.Email, When: c.Author.When},
		Committer:    Signature{Name: c.Committer.Name, Email: c.Committer.Email, When: c.Committer.When},
		Message:      c.Message,
		ChangeID:     changeID,
	}
}

func newestCommit(commits []*object.Commit) *object.Commit {
	var newest *object.Commit
	for _, c := range commits {
		if newest == nil || c.Committer.When.After(newest.Committer.When) {
			newest = c
		}
	}
	return newest
}

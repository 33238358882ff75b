package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

// Missing returns the full object ids from ids that are not in the local
// object store. Identifiers that are not full hashes are ignored.
func (s *Service) Missing(ids []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var missing []string
	for _, id := range ids {
		if !plumbing.IsHash(id) {
			continue
		}
		if err := s.repo.Storer.HasEncodedObject(plumbing.NewHash(id)); err != nil {
			missing = append(missing, id)
		}
	}
	return missing
}

// EnsurePresent fetches commits that are not available locally from the
// configured remote and returns the handle to use afterwards. The receiver
// must not be used once a different handle is returned.
func (s *Service) EnsurePresent(ctx context.Context, ids []string) (*Service, error) {
	missing := s.Missing(ids)
	if len(missing) == 0 {
		return s, nil
	}
	slog.Debug("fetching missing commits",
		slog.String("remote", s.opts.Remote),
		slog.String("backend", string(s.opts.Fetch)),
		slog.Int("count", len(missing)),
	)
	refspecs := make([]string, 0, len(missing))
	for _, id := range missing {
		refspecs = append(refspecs, fmt.Sprintf("%s:refs/remotes/%s/%s", id, s.opts.Remote, id))
	}

	switch s.opts.Fetch {
	case FetchCLI:
		if err := ensureMinGitVersion(); err != nil {
			return nil, err
		}
		args := append([]string{"fetch", "--no-tags", "--quiet", s.opts.Remote}, refspecs...)
		if _, err := s.runGitCommand(ctx, args, "git fetch"); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRepo, err)
		}
		// objects were written behind go-git's back, reopen to drop its caches
		return Open(s.path, s.opts)
	default:
		if err := s.fetchNative(ctx, refspecs); err != nil {
			return nil, err
		}
		return newService(s.repo, s.path, s.opts), nil
	}
}

func (s *Service) fetchNative(ctx context.Context, refspecs []string) error {
	specs := make([]config.RefSpec, 0, len(refspecs))
	for _, r := range refspecs {
		spec := config.RefSpec(r)
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("%w: refspec %q: %w", ErrRepo, r, err)
		}
		specs = append(specs, spec)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.repo.FetchContext(ctx, &gitlib.FetchOptions{
		RemoteName: s.opts.Remote,
		RefSpecs:   specs,
		Tags:       gitlib.NoTags,
	})
	if err != nil && !errors.Is(err, gitlib.NoErrAlreadyUpToDate) {
		return fmt.Errorf("%w: fetch from %s: %w", ErrRepo, s.opts.Remote, err)
	}
	return nil
}

// Package worker services the requests of the interactive view against the
// repository and the history fetcher. It runs on the single pipeline worker
// goroutine and is the only owner of the repository handle.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/thiagokokada/interdiff-go/internal/git"
	"github.com/thiagokokada/interdiff-go/internal/history"
	"github.com/thiagokokada/interdiff-go/internal/interdiff"
)

const (
	cacheTTL     = 10 * time.Minute
	cacheCleanup = 15 * time.Minute
)

// Request is one unit of work for the worker.
type Request interface{ isRequest() }

// LoadHistory fetches one page of revisions and makes sure they exist
// locally.
type LoadHistory struct {
	Token history.Token
}

// Reconcile aligns the branches at two directory positions.
type Reconcile struct {
	FromIndex int
	ToIndex   int
	From      string
	To        string
}

// Render renders the interdiff of one row. Nil sides are absent.
type Render struct {
	From  *string
	To    *string
	Width int
}

func (LoadHistory) isRequest() {}
func (Reconcile) isRequest()   {}
func (Render) isRequest()      {}

type Response interface{ isResponse() }

type HistoryLoaded struct {
	Page history.Page
}

type Reconciled struct {
	Diff      interdiff.BranchDiff
	FromIndex int
	ToIndex   int
}

type Rendered struct {
	Title string
	Text  string
	Width int
	From  *string
	To    *string
}

func (HistoryLoaded) isResponse() {}
func (Reconciled) isResponse()    {}
func (Rendered) isResponse()      {}

// Repository is the repository surface the worker needs. EnsurePresent may
// return a new handle that replaces the old one.
type Repository interface {
	interdiff.Provider
	RenderInterdiff(ctx context.Context, from, to *git.Commit, width int) (string, string, error)
	EnsurePresent(ctx context.Context, ids []string) (Repository, error)
}

type serviceRepository struct {
	*git.Service
}

// FromService adapts a git.Service to Repository.
func FromService(s *git.Service) Repository {
	return serviceRepository{Service: s}
}

func (r serviceRepository) EnsurePresent(ctx context.Context, ids []string) (Repository, error) {
	s, err := r.Service.EnsurePresent(ctx, ids)
	if err != nil {
		return nil, err
	}
	return serviceRepository{Service: s}, nil
}

type Worker struct {
	repo    Repository
	fetcher history.Fetcher
	diffs   *cache.Cache
}

func New(repo Repository, fetcher history.Fetcher) *Worker {
	return &Worker{
		repo:    repo,
		fetcher: fetcher,
		diffs:   cache.New(cacheTTL, cacheCleanup),
	}
}

// Handle is the pipeline handler. It must only be called from one goroutine.
func (w *Worker) Handle(ctx context.Context, req Request) (Response, error) {
	switch r := req.(type) {
	case LoadHistory:
		return w.loadHistory(ctx, r)
	case Reconcile:
		return w.reconcile(ctx, r)
	case Render:
		return w.render(ctx, r)
	}
	return nil, fmt.Errorf("unknown request %T", req)
}

func (w *Worker) loadHistory(ctx context.Context, r LoadHistory) (Response, error) {
	page, err := w.fetcher.FetchHistory(ctx, r.Token)
	if err != nil {
		return nil, err
	}
	repo, err := w.repo.EnsurePresent(ctx, page.Items)
	if err != nil {
		return nil, err
	}
	w.repo = repo
	return HistoryLoaded{Page: page}, nil
}

func (w *Worker) reconcile(ctx context.Context, r Reconcile) (Response, error) {
	from, err := w.repo.Resolve(ctx, r.From)
	if err != nil {
		return nil, err
	}
	to, err := w.repo.Resolve(ctx, r.To)
	if err != nil {
		return nil, err
	}
	key, err := w.cacheKey(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if cached, ok := w.diffs.Get(key); ok {
		slog.Debug("branch diff cache hit", slog.String("key", key))
		return Reconciled{Diff: cached.(interdiff.BranchDiff), FromIndex: r.FromIndex, ToIndex: r.ToIndex}, nil
	}
	diff, err := interdiff.Calculate(ctx, w.repo, from.Hash, to.Hash)
	if err != nil {
		return nil, err
	}
	w.diffs.Set(key, diff, cache.DefaultExpiration)
	return Reconciled{Diff: diff, FromIndex: r.FromIndex, ToIndex: r.ToIndex}, nil
}

// cacheKey pins the inputs of a reconciliation to object ids, trunk
// included, so moving refs never serve a stale result.
func (w *Worker) cacheKey(ctx context.Context, from, to git.Commit) (string, error) {
	trunk, err := w.repo.Trunk(ctx)
	if err != nil {
		return "", err
	}
	trunkHash := ""
	if trunk != "" {
		t, err := w.repo.Resolve(ctx, trunk)
		if err != nil {
			return "", err
		}
		trunkHash = t.Hash
	}
	return strings.Join([]string{from.Hash, to.Hash, trunkHash}, ":"), nil
}

func (w *Worker) render(ctx context.Context, r Render) (Response, error) {
	from, err := w.resolveOptional(ctx, r.From)
	if err != nil {
		return nil, err
	}
	to, err := w.resolveOptional(ctx, r.To)
	if err != nil {
		return nil, err
	}
	title, text, err := w.repo.RenderInterdiff(ctx, from, to, r.Width)
	if err != nil {
		return nil, err
	}
	return Rendered{Title: title, Text: text, Width: r.Width, From: r.From, To: r.To}, nil
}

func (w *Worker) resolveOptional(ctx context.Context, rev *string) (*git.Commit, error) {
	if rev == nil {
		return nil, nil
	}
	c, err := w.repo.Resolve(ctx, *rev)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

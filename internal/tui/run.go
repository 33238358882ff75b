// Package tui is the terminal front end: it decodes keys into controller
// events, draws the current screen and bridges worker results into the
// bubbletea update loop.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"

	"github.com/thiagokokada/interdiff-go/internal/history"
	"github.com/thiagokokada/interdiff-go/internal/jobs"
	"github.com/thiagokokada/interdiff-go/internal/worker"
)

const defaultShutdownGrace = 2 * time.Second

// copyToClipboard uses OSC52, so it also works over SSH.
var copyToClipboard = termenv.Copy

type RunConfig struct {
	// RepoPath is watched for ref changes when Watch is set.
	RepoPath        string
	Repository      worker.Repository
	Fetcher         history.Fetcher
	Theme           ThemePreference
	SyntaxHighlight bool
	Watch           bool
	// ShutdownGrace bounds how long quitting waits for a running job.
	ShutdownGrace time.Duration
}

func Run(ctx context.Context, cfg RunConfig) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := worker.New(cfg.Repository, cfg.Fetcher)
	p := jobs.Start(ctx, w.Handle)
	m := newModel(ctx, p, paletteForPreference(cfg.Theme), cfg.SyntaxHighlight)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	m.send = program.Send

	if cfg.Watch {
		watcher, err := watchRepository(cfg.RepoPath, func() { program.Send(repoChangedMsg{}) })
		if err != nil {
			slog.Error("repository watch disabled", slog.Any("error", err))
		} else {
			defer func() {
				if err := watcher.Close(); err != nil {
					slog.Error("watcher close", slog.Any("error", err))
				}
			}()
		}
	}

	_, runErr := program.Run()
	m.stop()

	p.Close()
	grace := cfg.ShutdownGrace
	if grace <= 0 {
		grace = defaultShutdownGrace
	}
	select {
	case <-p.Done():
	case <-time.After(grace):
		slog.Warn("worker still busy at exit, abandoning it", slog.Duration("grace", grace))
	}

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		runErr = fmt.Errorf("running program: %w", runErr)
	} else {
		runErr = nil
	}
	return errors.Join(runErr, m.Err())
}

// Package app is the controller of the interactive view. It turns user
// events and worker results into the next screen and the jobs to submit. It
// does no I/O and is driven from a single goroutine.
package app

import (
	"log/slog"

	"github.com/thiagokokada/interdiff-go/internal/history"
	"github.com/thiagokokada/interdiff-go/internal/jobs"
	"github.com/thiagokokada/interdiff-go/internal/worker"
)

const (
	loadingHistory  = "Loading history..."
	notEnoughToDiff = "not enough history to compare"
)

// Job is a unit of work the caller has to submit to the worker pipeline.
type Job = jobs.Job[worker.Request]

// Result is a worker result fed back through HandleResult.
type Result = jobs.Result[worker.Response]

// State is the whole controller state. Methods never modify the receiver;
// they return the next State instead.
type State struct {
	screen Screen
	width  int
	height int

	directory       history.Directory
	next            history.Token
	baseIndex       int
	comparisonIndex int

	selected      int
	showUnchanged bool

	tracker jobs.Tracker
	// pending is the request of the current job.
	pending worker.Request
}

// New returns the state before Start, sized to the viewport.
func New(width, height int) State {
	return State{screen: Loading{Message: loadingHistory}, width: width, height: height}
}

// Start requests the first page of history.
func (s State) Start() (State, []Job) {
	s.screen = Loading{Message: loadingHistory}
	return s.dispatch(worker.LoadHistory{})
}

func (s State) Screen() Screen {
	return s.screen
}

// Done reports whether the Exit screen was reached.
func (s State) Done() bool {
	_, ok := s.screen.(Exit)
	return ok
}

// Busy reports whether a job whose result is still wanted is running.
func (s State) Busy() bool {
	return s.tracker.Pending()
}

func (s State) Size() (width, height int) {
	return s.width, s.height
}

func (s State) Directory() history.Directory {
	return s.directory
}

// Indices returns the directory positions of the compared revisions.
func (s State) Indices() (base, comparison int) {
	return s.baseIndex, s.comparisonIndex
}

func (s State) dispatch(req worker.Request) (State, []Job) {
	id := s.tracker.Begin()
	s.pending = req
	return s, []Job{{ID: id, Request: req}}
}

// reconcile dispatches a reconciliation of the revisions at base and
// comparison, unless one of them is out of range.
func (s State) reconcile(base, comparison int) (State, []Job) {
	from, to := s.directory.At(base), s.directory.At(comparison)
	if from == "" || to == "" {
		return s, nil
	}
	return s.dispatch(worker.Reconcile{FromIndex: base, ToIndex: comparison, From: from, To: to})
}

// HandleResult applies a worker result. Results of superseded jobs are
// dropped without looking at them.
func (s State) HandleResult(res Result) (State, []Job) {
	if !s.tracker.IsCurrent(res.ID) || s.Done() {
		slog.Debug("discarding stale result", slog.Uint64("job_id", uint64(res.ID)))
		return s, nil
	}
	s.tracker.Finish(res.ID)
	pending := s.pending
	s.pending = nil

	if res.Err != nil {
		return s.fail(pending, res.Err), nil
	}
	switch resp := res.Response.(type) {
	case worker.HistoryLoaded:
		return s.historyLoaded(resp.Page)
	case worker.Reconciled:
		return s.reconciled(resp)
	case worker.Rendered:
		return s.rendered(resp), nil
	}
	return s, nil
}

func (s State) fail(pending worker.Request, err error) State {
	slog.Debug("job failed", slog.String("request", requestKind(pending)), slog.Any("error", err))
	if view, ok := s.screen.(ListView); ok {
		if _, rendering := pending.(worker.Render); rendering {
			view.Notice = err.Error()
			s.screen = view
			return s
		}
	}
	s.screen = ErrorScreen{Message: err.Error()}
	return s
}

func (s State) historyLoaded(page history.Page) (State, []Job) {
	directory, prepended := s.directory.Merge(page)
	s.directory = directory
	s.baseIndex += prepended
	s.comparisonIndex += prepended
	s.next = page.Next
	slog.Debug("history page loaded",
		slog.Int("items", len(page.Items)),
		slog.String("direction", page.Direction.String()),
		slog.Int("total", directory.Len()),
		slog.Bool("more", page.Next != nil),
	)

	switch view := s.screen.(type) {
	case Loading:
		n := directory.Len()
		if n < 2 {
			if s.next != nil {
				return s.dispatch(worker.LoadHistory{Token: s.next})
			}
			s.screen = ErrorScreen{Message: notEnoughToDiff}
			return s, nil
		}
		if page.Direction == history.Forward {
			return s.reconcile(0, 1)
		}
		return s.reconcile(n-2, n-1)
	case ListView:
		view.BaseIndex = s.baseIndex
		view.ComparisonIndex = s.comparisonIndex
		view.Total = directory.Len()
		s.screen = view
		// A page that added nothing leaves the view against the same edge.
		return s.continuePaging()
	}
	return s, nil
}

func (s State) reconciled(resp worker.Reconciled) (State, []Job) {
	s.baseIndex = resp.FromIndex
	s.comparisonIndex = resp.ToIndex
	view := ListView{
		Diff:            resp.Diff,
		ShowUnchanged:   s.showUnchanged,
		BaseIndex:       s.baseIndex,
		ComparisonIndex: s.comparisonIndex,
		BaseName:        s.directory.At(s.baseIndex),
		ComparisonName:  s.directory.At(s.comparisonIndex),
		Total:           s.directory.Len(),
	}
	s.selected = clamp(s.selected, len(view.Visible()))
	view.Selected = s.selected
	s.screen = view
	return s.continuePaging()
}

// continuePaging requests the next page when the view sits against the edge
// that page would extend.
func (s State) continuePaging() (State, []Job) {
	if s.next == nil {
		return s, nil
	}
	switch s.next.Direction() {
	case history.Backward:
		if s.baseIndex == 0 {
			return s.dispatch(worker.LoadHistory{Token: s.next})
		}
	case history.Forward:
		if s.comparisonIndex >= s.directory.Len()-1 {
			return s.dispatch(worker.LoadHistory{Token: s.next})
		}
	}
	return s, nil
}

func (s State) rendered(resp worker.Rendered) State {
	view := DiffView{
		Title: resp.Title,
		Text:  resp.Text,
		Width: resp.Width,
		From:  resp.From,
		To:    resp.To,
	}
	// A re-render of the open diff keeps the reading position.
	if prev, ok := s.screen.(DiffView); ok && sameSide(prev.From, view.From) && sameSide(prev.To, view.To) {
		view.Scroll = clamp(prev.Scroll, view.Lines())
	}
	s.screen = view
	return s
}

// HandleEvent applies a user event.
func (s State) HandleEvent(ev Event) (State, []Job) {
	if s.Done() {
		return s, nil
	}
	switch ev := ev.(type) {
	case Quit:
		s.screen = Exit{}
		return s, nil
	case Resize:
		s.width, s.height = ev.Width, ev.Height
		return s, nil
	case Scroll:
		return s.scroll(ev), nil
	}

	switch view := s.screen.(type) {
	case ListView:
		return s.handleListEvent(view, ev)
	case DiffView:
		return s.handleDiffEvent(view, ev)
	}
	return s, nil
}

func (s State) handleListEvent(view ListView, ev Event) (State, []Job) {
	switch ev := ev.(type) {
	case ShiftPatchset:
		base := s.baseIndex + ev.Base
		comparison := s.comparisonIndex + ev.Comparison
		if (ev.Base == 0 && ev.Comparison == 0) || base < 0 || base > comparison || comparison >= s.directory.Len() {
			return s, nil
		}
		return s.reconcile(base, comparison)
	case EnterDiff:
		row, ok := view.SelectedRow()
		if !ok {
			return s, nil
		}
		req := worker.Render{Width: s.width}
		if row.From != nil {
			req.From = &row.From.SHA
		}
		if row.To != nil {
			req.To = &row.To.SHA
		}
		view.Notice = ""
		s.screen = view
		return s.dispatch(req)
	case ToggleUnchanged:
		s.showUnchanged = !s.showUnchanged
		s.selected = 0
		view.ShowUnchanged = s.showUnchanged
		view.Selected = 0
		s.screen = view
	case RepoChanged:
		// The pending job would be superseded and its result dropped.
		if s.tracker.Pending() {
			return s, nil
		}
		return s.reconcile(s.baseIndex, s.comparisonIndex)
	}
	return s, nil
}

func (s State) handleDiffEvent(view DiffView, ev Event) (State, []Job) {
	switch ev.(type) {
	case BackToList:
		return s.reconcile(s.baseIndex, s.comparisonIndex)
	case Rerender:
		if view.Width == s.width {
			return s, nil
		}
		return s.dispatch(worker.Render{From: view.From, To: view.To, Width: s.width})
	}
	return s, nil
}

func (s State) scroll(ev Scroll) State {
	switch view := s.screen.(type) {
	case ListView:
		s.selected = ev.move(view.Selected, len(view.Visible()), s.height)
		view.Selected = s.selected
		s.screen = view
	case DiffView:
		view.Scroll = ev.move(view.Scroll, view.Lines(), s.height)
		s.screen = view
	}
	return s
}

// clamp bounds i to [0, n), or returns 0 when n is 0.
func clamp(i, n int) int {
	return max(min(i, n-1), 0)
}

func sameSide(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func requestKind(req worker.Request) string {
	switch req.(type) {
	case worker.LoadHistory:
		return "load_history"
	case worker.Reconcile:
		return "reconcile"
	case worker.Render:
		return "render"
	}
	return "none"
}

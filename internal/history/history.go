// Package history pages through the list of revisions being compared, either
// the force-push history of a pull request or a fixed pair of revisions.
package history

import (
	"context"
	"errors"
)

var (
	// ErrRequest reports a failed or malformed exchange with a remote API.
	ErrRequest = errors.New("request error")
	// ErrURL reports a pull request URL that no fetcher understands.
	ErrURL = errors.New("url error")
)

// Direction tells on which end of the loaded history a page belongs.
type Direction int

const (
	// Backward pages hold older revisions and are prepended.
	Backward Direction = iota
	// Forward pages hold newer revisions and are appended.
	Forward
)

func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "backward"
}

// Token is the continuation state needed to request the next page. A nil
// Token requests the first page.
type Token interface {
	Direction() Direction
}

// OffsetToken pages by position. Offset pagination only ever walks
// backward in time.
type OffsetToken struct {
	Offset int
	// Limit is the page size, nil for the server default.
	Limit *int
}

func (OffsetToken) Direction() Direction { return Backward }

// CursorToken pages with an opaque server cursor in either direction.
type CursorToken struct {
	Cursor *string
	Limit  int
	Dir    Direction
}

func (t CursorToken) Direction() Direction { return t.Dir }

// Page is one slice of history, oldest first.
type Page struct {
	Items     []string
	Direction Direction
	// Next is nil when there is nothing more to load.
	Next Token
}

type Fetcher interface {
	FetchHistory(ctx context.Context, token Token) (Page, error)
}

// Pair is the fetcher used when two revisions are given directly.
type Pair struct {
	From string
	To   string
}

func NewPair(from, to string) Pair {
	return Pair{From: from, To: to}
}

func (p Pair) FetchHistory(ctx context.Context, _ Token) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	return Page{Items: []string{p.From, p.To}, Direction: Backward}, nil
}

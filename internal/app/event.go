package app

// Event is a user input, already decoded from keys by the front end.
type Event interface{ isEvent() }

// ScrollBy is the distance of a Scroll event.
type ScrollBy int

const (
	ScrollLine ScrollBy = iota
	ScrollHalfPage
	ScrollPage
	ScrollTop
	ScrollBottom
)

type (
	Quit struct{}

	// Scroll moves the list selection or the diff view offset. Up is ignored
	// for ScrollTop and ScrollBottom.
	Scroll struct {
		By ScrollBy
		Up bool
	}

	// Resize records the viewport size. A width change does not re-render a
	// diff by itself; the front end sends Rerender once resizing settled.
	Resize struct {
		Width  int
		Height int
	}

	// ShiftPatchset moves the base and comparison indices by the given
	// deltas. Shifts that would leave 0 <= base <= comparison < total are
	// ignored.
	ShiftPatchset struct {
		Base       int
		Comparison int
	}

	// EnterDiff opens the selected row.
	EnterDiff struct{}

	BackToList struct{}

	ToggleUnchanged struct{}

	// Rerender renders the open diff again when its width is stale.
	Rerender struct{}

	// CopyToClipboard asks the front end to copy the open diff. The
	// controller itself ignores it.
	CopyToClipboard struct{}

	// RepoChanged reports that the local repository was modified.
	RepoChanged struct{}
)

func (Quit) isEvent()            {}
func (Scroll) isEvent()          {}
func (Resize) isEvent()          {}
func (ShiftPatchset) isEvent()   {}
func (EnterDiff) isEvent()       {}
func (BackToList) isEvent()      {}
func (ToggleUnchanged) isEvent() {}
func (Rerender) isEvent()        {}
func (CopyToClipboard) isEvent() {}
func (RepoChanged) isEvent()     {}

// move returns the index reached from current, clamped to [0, length).
func (s Scroll) move(current, length, height int) int {
	if length <= 0 {
		return 0
	}
	last := length - 1
	var amount int
	switch s.By {
	case ScrollTop:
		return 0
	case ScrollBottom:
		return last
	case ScrollHalfPage:
		amount = max(height/2, 1)
	case ScrollPage:
		amount = max(height, 1)
	default:
		amount = 1
	}
	if s.Up {
		return max(current-amount, 0)
	}
	return min(current+amount, last)
}

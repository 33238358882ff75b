package app

import (
	"github.com/thiagokokada/interdiff-go/internal/interdiff"
)

// Screen is what the front end draws. Every transition builds a new value;
// screens handed out are never modified afterwards.
type Screen interface{ isScreen() }

type Loading struct {
	Message string
}

// ListView is the aligned comparison between the revisions at BaseIndex and
// ComparisonIndex of the loaded history.
type ListView struct {
	Diff          interdiff.BranchDiff
	Selected      int
	ShowUnchanged bool

	BaseIndex       int
	ComparisonIndex int
	BaseName        string
	ComparisonName  string
	// Total is the number of revisions loaded so far.
	Total int

	// Notice is a transient message, set when opening a row failed.
	Notice string
}

// DiffView shows the rendered interdiff of a single row.
type DiffView struct {
	Title  string
	Text   string
	Scroll int
	Width  int
	From   *string
	To     *string
}

type ErrorScreen struct {
	Message string
}

// Exit is terminal.
type Exit struct{}

func (Loading) isScreen()     {}
func (ListView) isScreen()    {}
func (DiffView) isScreen()    {}
func (ErrorScreen) isScreen() {}
func (Exit) isScreen()        {}

// Visible returns the rows shown with the current filter.
func (v ListView) Visible() []interdiff.CommitDiff {
	if v.ShowUnchanged {
		return v.Diff
	}
	rows := make([]interdiff.CommitDiff, 0, len(v.Diff))
	for _, row := range v.Diff {
		if row.HasChanges() {
			rows = append(rows, row)
		}
	}
	return rows
}

// SelectedRow returns the highlighted row, if any.
func (v ListView) SelectedRow() (interdiff.CommitDiff, bool) {
	rows := v.Visible()
	if v.Selected < 0 || v.Selected >= len(rows) {
		return interdiff.CommitDiff{}, false
	}
	return rows[v.Selected], true
}

// Lines returns the number of lines of the rendered diff.
func (v DiffView) Lines() int {
	if v.Text == "" {
		return 0
	}
	n := 0
	for i := 0; i < len(v.Text); i++ {
		if v.Text[i] == '\n' {
			n++
		}
	}
	if v.Text[len(v.Text)-1] != '\n' {
		n++
	}
	return n
}

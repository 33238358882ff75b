package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/thiagokokada/interdiff-go/internal/app"
	"github.com/thiagokokada/interdiff-go/internal/interdiff"
)

const (
	appName = "interdiff-go"
	// chromeHeight is the number of lines around the body: header, body
	// title and footer.
	chromeHeight = 3
	shortSHALen  = 8
)

type viewStyles struct {
	header   lipgloss.Style
	title    lipgloss.Style
	footer   lipgloss.Style
	muted    lipgloss.Style
	errorMsg lipgloss.Style
	selected lipgloss.Style
	added    lipgloss.Style
	removed  lipgloss.Style
	reworded lipgloss.Style
	modified lipgloss.Style
}

func newViewStyles(p colorPalette) viewStyles {
	return viewStyles{
		header:   lipgloss.NewStyle().Foreground(p.Header).Bold(true),
		title:    lipgloss.NewStyle().Bold(true),
		footer:   lipgloss.NewStyle().Foreground(p.Muted),
		muted:    lipgloss.NewStyle().Foreground(p.Muted),
		errorMsg: lipgloss.NewStyle().Foreground(p.Error),
		selected: lipgloss.NewStyle().Reverse(true).Bold(true),
		added:    lipgloss.NewStyle().Foreground(p.Added),
		removed:  lipgloss.NewStyle().Foreground(p.Removed),
		reworded: lipgloss.NewStyle().Foreground(p.Reworded),
		modified: lipgloss.NewStyle().Foreground(p.Modified),
	}
}

func headerText(screen app.Screen) string {
	switch s := screen.(type) {
	case app.Loading:
		return appName + " - Loading..."
	case app.ErrorScreen:
		return appName + " - Error"
	case app.ListView:
		return fmt.Sprintf("%s - Patchset [%d/%d] %s → [%d/%d] %s",
			appName,
			s.BaseIndex+1, s.Total, shortRev(s.BaseName),
			s.ComparisonIndex+1, s.Total, shortRev(s.ComparisonName),
		)
	case app.DiffView:
		return appName + " - Interdiff View"
	}
	return appName + " - Exiting..."
}

func footerText(screen app.Screen) string {
	switch s := screen.(type) {
	case app.ListView:
		toggle := "show"
		if s.ShowUnchanged {
			toggle = "hide"
		}
		return fmt.Sprintf("q: Quit | ↑↓/jk: Navigate | Enter: View | h: %s unchanged | []: Base | {}: Comp | <>: Both", toggle)
	case app.DiffView:
		return "q: Back | ↑↓: Scroll | y: Copy diff to clipboard"
	case app.Loading, app.ErrorScreen:
		return "q: Quit"
	}
	return ""
}

func listTitle(v app.ListView) string {
	filter := ", changed only"
	if v.ShowUnchanged {
		filter = ""
	}
	return fmt.Sprintf("Commit Comparison: %s → %s (%d/%d commits%s)",
		shortRev(v.BaseName), shortRev(v.ComparisonName), len(v.Visible()), len(v.Diff), filter)
}

// listWindow returns the first visible row so that selected stays on screen.
func listWindow(selected, rows, height int) int {
	if height <= 0 || rows <= height {
		return 0
	}
	start := max(selected-height+1, 0)
	return min(start, rows-height)
}

func (s viewStyles) row(row interdiff.CommitDiff) string {
	icon, style := s.rowKind(row)
	text := style.Render(icon + fmt.Sprintf("%-16s ", shaInfo(row)) + subject(row))
	return text + s.muted.Render(statsText(row))
}

func plainRow(row interdiff.CommitDiff) string {
	icon, _ := viewStyles{}.rowKind(row)
	return icon + fmt.Sprintf("%-16s ", shaInfo(row)) + subject(row) + statsText(row)
}

// rowKind picks the marker and color of a row: added, removed, reworded,
// modified, or unchanged.
func (s viewStyles) rowKind(row interdiff.CommitDiff) (string, lipgloss.Style) {
	if !row.HasChanges() {
		return "  ", s.muted
	}
	switch {
	case row.From == nil:
		return "+ ", s.added
	case row.To == nil:
		return "- ", s.removed
	case row.From.Message != row.To.Message:
		return "✎ ", s.reworded
	}
	return "~ ", s.modified
}

func statsText(row interdiff.CommitDiff) string {
	if row.Stats.ChangedFiles == 0 {
		return ""
	}
	return fmt.Sprintf(" [±%d files, +%d, -%d]", row.Stats.ChangedFiles, row.Stats.Additions, row.Stats.Removals)
}

func shaInfo(row interdiff.CommitDiff) string {
	switch {
	case row.From != nil && row.To != nil && row.From.SHA != row.To.SHA:
		return shortSHA(row.From.SHA) + " → " + shortSHA(row.To.SHA)
	case row.From != nil && row.To == nil:
		return shortSHA(row.From.SHA) + " (removed)"
	case row.From == nil && row.To != nil:
		return shortSHA(row.To.SHA) + " (new)"
	case row.From != nil:
		return shortSHA(row.From.SHA)
	}
	return strings.Repeat("?", shortSHALen)
}

func subject(row interdiff.CommitDiff) string {
	meta := row.To
	if meta == nil {
		meta = row.From
	}
	if meta == nil || meta.Subject() == "" {
		return "<no message>"
	}
	return meta.Subject()
}

func shortSHA(sha string) string {
	if len(sha) <= shortSHALen {
		return sha
	}
	return sha[:shortSHALen]
}

// shortRev abbreviates full object ids and leaves symbolic names alone.
func shortRev(rev string) string {
	if len(rev) != 40 && len(rev) != 64 {
		return rev
	}
	for _, c := range rev {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return rev
		}
	}
	return shortSHA(rev)
}

// clip cuts every line of s to width cells.
func clip(s string, width int) string {
	if width <= 0 {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}

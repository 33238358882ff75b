package tui

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// diffDocument is a rendered interdiff split into lines, with the lexer of
// the file each line belongs to.
type diffDocument struct {
	lines  []string
	lexers []chroma.Lexer
}

func newDiffDocument(text string) diffDocument {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return diffDocument{}
	}
	doc := diffDocument{lines: strings.Split(text, "\n")}
	doc.lexers = make([]chroma.Lexer, len(doc.lines))
	var current chroma.Lexer
	for i, line := range doc.lines {
		if path, ok := diffPathFromLine(line); ok {
			current = lexerForPath(path)
			continue
		}
		doc.lexers[i] = current
	}
	return doc
}

// diffStyles renders diff lines for one palette.
type diffStyles struct {
	added      lipgloss.Style
	removed    lipgloss.Style
	hunk       lipgloss.Style
	fileHeader lipgloss.Style
	syntax     *chroma.Style
}

func newDiffStyles(p colorPalette, syntax bool) diffStyles {
	s := diffStyles{
		added:      lipgloss.NewStyle().Foreground(p.Added),
		removed:    lipgloss.NewStyle().Foreground(p.Removed),
		hunk:       lipgloss.NewStyle().Foreground(p.Hunk),
		fileHeader: lipgloss.NewStyle().Foreground(p.FileHeader).Bold(true),
	}
	if syntax {
		s.syntax = styleForPalette(p)
	}
	return s
}

func (s diffStyles) line(doc diffDocument, i int) string {
	line := doc.lines[i]
	switch {
	case strings.HasPrefix(line, "diff --git"), strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		return s.fileHeader.Render(line)
	case strings.HasPrefix(line, "@@"):
		return s.hunk.Render(line)
	}
	code, _, ok := diffLineCode(line)
	if !ok {
		return line
	}
	var prefix lipgloss.Style
	switch line[0] {
	case '+':
		prefix = s.added
	case '-':
		prefix = s.removed
	default:
		prefix = lipgloss.NewStyle()
	}
	lexer := doc.lexers[i]
	if s.syntax == nil || lexer == nil || line[0] == ' ' {
		return prefix.Render(line)
	}
	return prefix.Render(line[:1]) + s.highlightCode(lexer, code, prefix)
}

func (s diffStyles) highlightCode(lexer chroma.Lexer, code string, fallback lipgloss.Style) string {
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return fallback.Render(code)
	}
	var b strings.Builder
	for _, token := range iterator.Tokens() {
		if token.Value == "" {
			continue
		}
		entry := s.syntax.Get(token.Type)
		if !entry.Colour.IsSet() {
			b.WriteString(fallback.Render(token.Value))
			continue
		}
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(entry.Colour.String())).Render(token.Value))
	}
	return b.String()
}

func styleForPalette(p colorPalette) *chroma.Style {
	if p.isDark() {
		if st := styles.Get("github-dark"); st != nil {
			return st
		}
	} else {
		if st := styles.Get("github"); st != nil {
			return st
		}
	}
	return styles.Fallback
}

func lexerForPath(path string) chroma.Lexer {
	if path == "" {
		return nil
	}
	lexer := lexers.Match(path)
	if lexer == nil {
		return nil
	}
	return chroma.Coalesce(lexer)
}

// diffPathFromLine returns the new-side path of a "diff --git" line.
func diffPathFromLine(line string) (string, bool) {
	const prefix = "diff --git "
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	rest := line[len(prefix):]
	if i := strings.LastIndex(rest, " b/"); i >= 0 {
		return rest[i+len(" b/"):], true
	}
	return "", true
}

// diffLineCode strips the marker column of an added, removed or context line.
func diffLineCode(line string) (string, int, bool) {
	if line == "" {
		return "", 0, false
	}
	switch line[0] {
	case '+', '-', ' ':
		if strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---") {
			return "", 0, false
		}
		return line[1:], 1, true
	}
	return "", 0, false
}

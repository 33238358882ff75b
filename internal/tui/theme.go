package tui

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	darkmode "github.com/thiagokokada/dark-mode-go"
)

type ThemePreference int

const (
	ThemeAuto ThemePreference = iota
	ThemeLight
	ThemeDark
)

func (p ThemePreference) String() string {
	switch p {
	case ThemeLight:
		return "light"
	case ThemeDark:
		return "dark"
	default:
		return "auto"
	}
}

func ThemePreferenceFromString(raw string) ThemePreference {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case ThemeDark.String():
		return ThemeDark
	case ThemeLight.String():
		return ThemeLight
	default:
		return ThemeAuto
	}
}

type colorPalette struct {
	Name       string
	Header     lipgloss.Color
	Muted      lipgloss.Color
	Added      lipgloss.Color
	Removed    lipgloss.Color
	Reworded   lipgloss.Color
	Modified   lipgloss.Color
	Hunk       lipgloss.Color
	FileHeader lipgloss.Color
	Error      lipgloss.Color
}

var (
	lightPalette = colorPalette{
		Name:       "light",
		Header:     lipgloss.Color("#005f87"),
		Muted:      lipgloss.Color("#8a8a8a"),
		Added:      lipgloss.Color("#2f7d32"),
		Removed:    lipgloss.Color("#c62828"),
		Reworded:   lipgloss.Color("#00838f"),
		Modified:   lipgloss.Color("#a66d00"),
		Hunk:       lipgloss.Color("#00838f"),
		FileHeader: lipgloss.Color("#a66d00"),
		Error:      lipgloss.Color("#c62828"),
	}
	darkPalette = colorPalette{
		Name:       "dark",
		Header:     lipgloss.Color("#5fd7ff"),
		Muted:      lipgloss.Color("#6c6c6c"),
		Added:      lipgloss.Color("#87d787"),
		Removed:    lipgloss.Color("#ff8787"),
		Reworded:   lipgloss.Color("#5fd7d7"),
		Modified:   lipgloss.Color("#ffd75f"),
		Hunk:       lipgloss.Color("#5fd7d7"),
		FileHeader: lipgloss.Color("#ffd75f"),
		Error:      lipgloss.Color("#ff5f5f"),
	}
	detectDarkMode    = darkmode.IsDarkMode
	terminalIsDarkish = lipgloss.HasDarkBackground
)

// paletteForPreference resolves auto by asking the desktop first and the
// terminal background second.
func paletteForPreference(pref ThemePreference) colorPalette {
	switch pref {
	case ThemeDark:
		return darkPalette
	case ThemeLight:
		return lightPalette
	}
	if detectDarkMode != nil {
		dark, err := detectDarkMode()
		if err == nil {
			if dark {
				return darkPalette
			}
			return lightPalette
		}
		slog.Debug("detect dark-mode", slog.Any("error", err))
	}
	if terminalIsDarkish != nil && terminalIsDarkish() {
		return darkPalette
	}
	return lightPalette
}

func (p colorPalette) isDark() bool {
	return p.Name == darkPalette.Name
}

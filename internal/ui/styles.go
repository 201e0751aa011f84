package ui

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Theme is a named color palette
type Theme struct {
	Name       string
	Primary    string
	Secondary  string
	Subtle     string
	Background string
	Foreground string
	Error      string
	Success    string
}

// Themes are the palettes the review screen can cycle through
var Themes = map[string]Theme{
	"default": {
		Name:       "default",
		Primary:    "#7D56F4",
		Secondary:  "#04B575",
		Subtle:     "#737373",
		Background: "#1A1A1A",
		Foreground: "#FAFAFA",
		Error:      "#FF5F5F",
		Success:    "#04B575",
	},
	"catppuccin": {
		Name:       "catppuccin",
		Primary:    "#CBA6F7",
		Secondary:  "#94E2D5",
		Subtle:     "#6C7086",
		Background: "#1E1E2E",
		Foreground: "#CDD6F4",
		Error:      "#F38BA8",
		Success:    "#A6E3A1",
	},
	"dracula": {
		Name:       "dracula",
		Primary:    "#BD93F9",
		Secondary:  "#8BE9FD",
		Subtle:     "#6272A4",
		Background: "#282A36",
		Foreground: "#F8F8F2",
		Error:      "#FF5555",
		Success:    "#50FA7B",
	},
	"nord": {
		Name:       "nord",
		Primary:    "#88C0D0",
		Secondary:  "#A3BE8C",
		Subtle:     "#4C566A",
		Background: "#2E3440",
		Foreground: "#ECEFF4",
		Error:      "#BF616A",
		Success:    "#A3BE8C",
	},
	"gruvbox": {
		Name:       "gruvbox",
		Primary:    "#FABD2F",
		Secondary:  "#8EC07C",
		Subtle:     "#928374",
		Background: "#282828",
		Foreground: "#EBDBB2",
		Error:      "#FB4934",
		Success:    "#B8BB26",
	},
}

// GetThemeNames returns theme names with "default" first and the rest
// sorted
func GetThemeNames() []string {
	names := make([]string, 0, len(Themes))
	for name := range Themes {
		if name != "default" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return append([]string{"default"}, names...)
}

// Styles holds all the UI styles
type Styles struct {
	theme Theme

	Title     lipgloss.Style
	Normal    lipgloss.Style
	Help      lipgloss.Style
	Highlight lipgloss.Style
	Selected  lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style

	HelpKey   lipgloss.Style
	HelpDesc  lipgloss.Style
	HelpSep   lipgloss.Style
	HeaderBar lipgloss.Style
	FooterBar lipgloss.Style
	Border    lipgloss.Style
	Card      lipgloss.Style

	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
}

// NewStyles derives the style set from a theme
func NewStyles(t Theme) Styles {
	return Styles{
		theme: t,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Primary)).
			PaddingBottom(1),

		Normal: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Foreground)),

		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Subtle)).
			Italic(true),

		Highlight: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Secondary)),

		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Primary)).
			Foreground(lipgloss.Color(t.Background)),

		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Error)),

		Success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Success)),

		HelpKey: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Primary)),

		HelpDesc: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Subtle)),

		HelpSep: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Subtle)),

		HeaderBar: lipgloss.NewStyle().
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color(t.Subtle)),

		FooterBar: lipgloss.NewStyle().
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(lipgloss.Color(t.Subtle)),

		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Primary)).
			Padding(1, 3),

		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Subtle)).
			Padding(0, 2),

		Tab: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Subtle)).
			Padding(0, 1),

		ActiveTab: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Background)).
			Background(lipgloss.Color(t.Primary)).
			Padding(0, 1),
	}
}

// DefaultStyles returns the default style set
func DefaultStyles() Styles {
	return NewStyles(Themes["default"])
}

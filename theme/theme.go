package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Theme bundles the palette and the styles the practice screen renders
// with.
type Theme struct {
	Palette *Palette

	Title     lipgloss.Style
	Challenge lipgloss.Style
	StatsLine lipgloss.Style
	Help      lipgloss.Style

	// Feedback styles by severity
	Info    lipgloss.Style
	Success lipgloss.Style
	Partial lipgloss.Style
	Failure lipgloss.Style

	// Keyboard key styles
	WhiteKey  lipgloss.Style
	BlackKey  lipgloss.Style
	Highlight lipgloss.Style
	Played    lipgloss.Style
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0
	RoleSurface = 0.1
	RoleMuted   = 0.2
	RoleDim     = 0.3
	RoleFG      = 0.4
	RoleAccent  = 0.5
	RolePink    = 0.6
	RoleWarning = 0.7
	RoleDanger  = 0.8
	RoleGood    = 0.9
	RoleBright  = 1.0
)

// New builds a theme from a palette.
func New(p *Palette) *Theme {
	color := func(norm float64) lipgloss.Color {
		return rgbToLipgloss(p.Lookup(norm))
	}

	return &Theme{
		Palette: p,

		Title:     lipgloss.NewStyle().Bold(true).Foreground(color(RoleAccent)),
		Challenge: lipgloss.NewStyle().Bold(true).Foreground(color(RoleFG)),
		StatsLine: lipgloss.NewStyle().Foreground(color(RoleDim)),
		Help:      lipgloss.NewStyle().Foreground(color(RoleMuted)),

		Info:    lipgloss.NewStyle().Foreground(color(RoleFG)),
		Success: lipgloss.NewStyle().Bold(true).Foreground(color(RoleGood)),
		Partial: lipgloss.NewStyle().Bold(true).Foreground(color(RoleWarning)),
		Failure: lipgloss.NewStyle().Bold(true).Foreground(color(RoleDanger)),

		WhiteKey:  lipgloss.NewStyle().Foreground(color(RoleFG)),
		BlackKey:  lipgloss.NewStyle().Foreground(color(RoleMuted)),
		Highlight: lipgloss.NewStyle().Bold(true).Foreground(color(RoleBright)),
		Played:    lipgloss.NewStyle().Bold(true).Foreground(color(RoleAccent)),
	}
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}

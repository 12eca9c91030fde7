package views

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title       lipgloss.Style
	Dim         lipgloss.Style
	Status      lipgloss.Style
	StatusError lipgloss.Style
	Highlight   lipgloss.Style
	SelectionBg lipgloss.Style
	Rank        lipgloss.Style
	Count       lipgloss.Style
	PanelTitle  lipgloss.Style
	Help        lipgloss.Style
	MapBorder   lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")),
		Dim:         lipgloss.NewStyle().Faint(true),
		Status:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		StatusError: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Highlight:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		SelectionBg: lipgloss.NewStyle().Background(lipgloss.Color("237")).Bold(true),
		Rank:        lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		Count:       lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
		PanelTitle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Help:        lipgloss.NewStyle().Faint(true),
		MapBorder: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("241")),
	}
}

package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"benchmap/internal/domain"
)

// Layout constants the model shares for mouse hit-testing.
const (
	// HeaderRows is the number of rows above the results list: the
	// title line and the search line.
	HeaderRows = 2
	// LeftWidth is the fixed width of the search/list column; the map
	// pane takes the rest.
	LeftWidth = 42
)

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width  int
	Height int

	Loading   bool
	HasData   bool
	LoadErr   string
	CreatedAt string

	InputView      string
	SearchFocused  bool
	ResultsOpen    bool
	Filtered       []domain.ParkRecord
	HighlightIndex int
	ListOffset     int
	ListHeight     int

	TopParks []domain.ParkRecord
	Selected *domain.ParkRecord

	MapContent    string
	StatusMessage string
	ShowHelp      bool
}

// Renderer handles all view rendering
type Renderer struct {
	styles *Styles
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{styles: NewStyles()}
}

// Render produces the complete view
func (r *Renderer) Render(state ViewState) string {
	if state.ShowHelp {
		return r.renderHelp(state)
	}

	left := &strings.Builder{}
	left.WriteString(r.renderTitle(state))
	left.WriteByte('\n')
	left.WriteString(r.renderSearch(state))
	left.WriteByte('\n')

	if state.ResultsOpen {
		left.WriteString(r.renderResults(state))
	} else {
		left.WriteString(r.renderIdleBody(state))
	}
	left.WriteByte('\n')
	left.WriteString(r.renderTopParks(state))

	leftCol := lipgloss.NewStyle().Width(LeftWidth).Render(left.String())
	mapPane := r.renderMapPane(state)

	content := lipgloss.JoinHorizontal(lipgloss.Top, leftCol, mapPane)

	out := &strings.Builder{}
	out.WriteString(content)
	out.WriteByte('\n')
	out.WriteString(r.renderStatusBar(state))
	return out.String()
}

func (r *Renderer) renderTitle(state ViewState) string {
	title := r.styles.Title.Render("benchmap")
	if state.Loading {
		spinner := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		frame := int(time.Now().UnixMilli()/80) % len(spinner)
		return fmt.Sprintf("%s  %s", title, r.styles.Dim.Render(spinner[frame]+" Loading data"))
	}
	if state.CreatedAt != "" {
		return fmt.Sprintf("%s  %s", title, r.styles.Dim.Render("OSM data from "+state.CreatedAt))
	}
	return title
}

func (r *Renderer) renderSearch(state ViewState) string {
	return "Search: " + state.InputView
}

// renderResults draws the virtualized window of the filtered list.
func (r *Renderer) renderResults(state ViewState) string {
	b := &strings.Builder{}

	if !state.HasData {
		if state.Loading {
			b.WriteString(r.styles.Dim.Render("Loading…"))
		} else {
			b.WriteString(r.styles.Dim.Render("No metadata available"))
		}
		return b.String()
	}

	if len(state.Filtered) == 0 {
		b.WriteString(r.styles.Dim.Render("No parks match"))
		return b.String()
	}

	start := state.ListOffset
	end := start + state.ListHeight
	if end > len(state.Filtered) {
		end = len(state.Filtered)
	}
	if start > end {
		start = end
	}

	for i := start; i < end; i++ {
		park := state.Filtered[i]
		label := truncate(park.Label(), LeftWidth-9)
		var row string
		if i == state.HighlightIndex {
			row = r.styles.SelectionBg.Render(fmt.Sprintf("> %4d %s", park.Count, label))
		} else {
			row = fmt.Sprintf("  %s %s", r.styles.Count.Render(fmt.Sprintf("%4d", park.Count)), label)
		}
		b.WriteString(row)
		b.WriteByte('\n')
	}

	b.WriteString(r.styles.Dim.Render(fmt.Sprintf("%d of %d parks", end-start, len(state.Filtered))))
	return b.String()
}

// renderIdleBody fills the list area when the results panel is closed.
func (r *Renderer) renderIdleBody(state ViewState) string {
	if state.Loading {
		return r.styles.Dim.Render("Loading…")
	}
	if !state.HasData {
		return r.styles.Dim.Render("No metadata available")
	}
	if state.Selected != nil {
		return fmt.Sprintf("Selected: %s %s",
			r.styles.Highlight.Render(state.Selected.Name),
			r.styles.Dim.Render(fmt.Sprintf("(%d benches)", state.Selected.Count)))
	}
	return r.styles.Dim.Render("Press / to search parks")
}

func (r *Renderer) renderTopParks(state ViewState) string {
	if len(state.TopParks) == 0 {
		return ""
	}

	b := &strings.Builder{}
	b.WriteString(r.styles.PanelTitle.Render("Most benches"))
	b.WriteByte('\n')
	for i, park := range state.TopParks {
		line := fmt.Sprintf("%s %s %s",
			r.styles.Rank.Render(fmt.Sprintf("%2d.", i+1)),
			truncate(park.Name, LeftWidth-12),
			r.styles.Count.Render(fmt.Sprintf("(%d)", park.Count)))
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func (r *Renderer) renderMapPane(state ViewState) string {
	if state.MapContent == "" {
		return ""
	}
	return r.styles.MapBorder.Render(state.MapContent)
}

func (r *Renderer) renderStatusBar(state ViewState) string {
	if state.StatusMessage != "" {
		return r.styles.Status.Render(state.StatusMessage)
	}
	if state.LoadErr != "" {
		return r.styles.StatusError.Render(state.LoadErr + " (press r to retry)")
	}
	help := "/ search • ↑/↓ move • enter select • i details • ? help • q quit"
	return r.styles.Help.Render(help)
}

func (r *Renderer) renderHelp(state ViewState) string {
	b := &strings.Builder{}
	b.WriteString(r.styles.Title.Render("benchmap help"))
	b.WriteString("\n\n")

	section := func(name string, rows [][2]string) {
		b.WriteString(r.styles.PanelTitle.Render(name))
		b.WriteByte('\n')
		for _, row := range rows {
			b.WriteString(fmt.Sprintf("  %-12s %s\n", r.styles.Highlight.Render(row[0]), row[1]))
		}
		b.WriteByte('\n')
	}

	section("Search", [][2]string{
		{"/", "focus the search input"},
		{"esc", "close the results panel"},
		{"enter", "select the highlighted park"},
	})
	section("Navigation", [][2]string{
		{"↑/↓", "move the highlight"},
		{"click", "select a result row"},
	})
	section("Other", [][2]string{
		{"i", "open park details in the pager"},
		{"?", "toggle this help"},
		{"q", "quit"},
	})

	b.WriteString(r.styles.Dim.Render("press any key to close"))
	return b.String()
}

// truncate cuts s to width cells, rune-safe.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}

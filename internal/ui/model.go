package ui

import (
	"log"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"benchmap/internal/config"
	"benchmap/internal/domain"
	"benchmap/internal/eventbus"
	"benchmap/internal/mapview"
	"benchmap/internal/ranking"
	"benchmap/internal/tiles"
	"benchmap/internal/ui/state"
	"benchmap/internal/ui/views"
)

const (
	// blurCloseDelay is how long the results panel stays open after the
	// search input loses focus. Refocusing within the window keeps it open.
	blurCloseDelay = 200 * time.Millisecond

	statusTTL     = 4 * time.Second
	spinnerPeriod = 80 * time.Millisecond
)

// SourceOpener opens the tile source named by the dataset metadata.
type SourceOpener func(meta domain.Metadata) (tiles.Source, error)

// Model represents the UI state
type Model struct {
	bus    eventbus.EventBus
	config *config.Config
	state  *state.AppState

	input    textinput.Model
	keys     keyMap
	mapView  *mapview.Map
	renderer *views.Renderer
	ranking  *ranking.Service
	pager    *PagerOps

	openSource SourceOpener
	reload     func() error

	// Debounce generations; a stale tick is ignored.
	blurGen   int
	statusGen int

	// Map pane size in cells, derived from the window size.
	mapCols int
	mapRows int
}

// NewModel creates a new UI model
func NewModel(bus eventbus.EventBus, cfg *config.Config, rank *ranking.Service, openSource SourceOpener, reload func() error) *Model {
	input := textinput.New()
	input.Placeholder = "park name"
	input.Prompt = ""
	input.CharLimit = 64
	input.Width = views.LeftWidth - 10

	m := &Model{
		bus:        bus,
		config:     cfg,
		state:      state.NewAppState(cfg.UISettings.ResultLimit),
		input:      input,
		keys:       defaultKeyMap(),
		mapView:    mapview.New(cfg.UISettings.LabelZoom),
		renderer:   views.NewRenderer(),
		ranking:    rank,
		pager:      NewPagerOps(),
		openSource: openSource,
		reload:     reload,
	}

	// The map highlights and refits on its own when a park is selected.
	m.mapView.Subscribe(bus)

	return m
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.pager.SetProgram(p)
}

// State exposes the application state for tests.
func (m *Model) State() *state.AppState {
	return m.state
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	return spinnerTick()
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tickMsg:
		// Only spins while either fetch is outstanding.
		if m.state.Loading() {
			return m, spinnerTick()
		}
		return m, nil

	case blurTickMsg:
		if msg.gen == m.blurGen && !m.input.Focused() {
			m.state.ResultsOpen = false
		}
		return m, nil

	case clearStatusMsg:
		if msg.gen == m.statusGen {
			m.state.StatusMessage = ""
		}
		return m, nil

	case EventMsg:
		return m.handleEvent(msg.Event)

	case sourceReadyMsg:
		if msg.err != nil {
			log.Printf("tile source unavailable: %v", msg.err)
			return m, m.setStatus("map tiles unavailable")
		}
		m.mapView.AttachSource(msg.source)
		return m, nil

	case pagerDoneMsg:
		if msg.err != nil {
			log.Printf("pager failed: %v", msg.err)
			return m, m.setStatus("pager failed")
		}
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleEvent processes domain events forwarded from the bus.
func (m *Model) handleEvent(event eventbus.DomainEvent) (tea.Model, tea.Cmd) {
	switch e := event.(type) {
	case domain.MetadataLoadedEvent:
		meta := e.Metadata
		m.state.Metadata = &meta
		m.state.MetadataResolved = true
		m.mapView.SetHome(meta.Bound())
		if m.openSource != nil {
			open := m.openSource
			return m, func() tea.Msg {
				src, err := open(meta)
				return sourceReadyMsg{source: src, err: err}
			}
		}

	case domain.DatasetLoadedEvent:
		m.state.SetDataset(e.Parks)

	case domain.LoadFailedEvent:
		// The other fetch may still land; only the failed stage resolves.
		switch e.Stage {
		case domain.StageMetadata:
			m.state.MetadataResolved = true
		case domain.StageParkStats:
			m.state.DatasetResolved = true
		}
		m.state.LoadErr = e.Err
		log.Printf("load failed (%s): %v", e.Stage, e.Err)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.state.ShowHelp {
		m.state.ShowHelp = false
		return m, nil
	}

	if m.input.Focused() {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.state.ShowHelp = true
	case key.Matches(msg, m.keys.Search):
		return m, m.focusSearch()
	case key.Matches(msg, m.keys.Up):
		m.state.MoveHighlight(-1)
	case key.Matches(msg, m.keys.Down):
		m.state.MoveHighlight(1)
	case key.Matches(msg, m.keys.Commit):
		if m.state.ResultsOpen {
			m.commit()
		}
	case key.Matches(msg, m.keys.Close):
		// Escape closes even mid blur-debounce, and invalidates the
		// pending tick.
		if m.state.ResultsOpen {
			m.blurGen++
			m.state.ResultsOpen = false
		}
	case key.Matches(msg, m.keys.Details):
		return m, m.openDetailPager()
	case key.Matches(msg, m.keys.Reload):
		if m.state.LoadErr != nil && m.reload != nil {
			return m, m.startReload()
		}
	}

	return m, nil
}

// handleSearchKey runs while the search input has focus.
func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		// Escape closes immediately, no debounce.
		m.input.Blur()
		m.blurGen++
		m.state.ResultsOpen = false
		return m, nil
	case "enter":
		m.commit()
		return m, nil
	case "up":
		m.state.MoveHighlight(-1)
		return m, nil
	case "down":
		m.state.MoveHighlight(1)
		return m, nil
	case "tab":
		m.input.Blur()
		return m, m.scheduleBlurClose()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.state.SetQuery(m.input.Value())
	return m, cmd
}

func (m *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}

	// Clicking outside the list blurs the search input; the panel closes
	// after the debounce window, like focus loss in a form.
	if msg.X >= views.LeftWidth {
		if m.input.Focused() {
			m.input.Blur()
			return m, m.scheduleBlurClose()
		}
		return m, nil
	}

	if !m.state.ResultsOpen || msg.Y < views.HeaderRows {
		return m, nil
	}

	idx := m.state.ListViewport.Offset + (msg.Y - views.HeaderRows)
	if idx < 0 || idx >= len(m.state.Filtered) {
		return m, nil
	}

	m.state.HighlightIndex = idx
	m.commit()
	return m, nil
}

// focusSearch opens the results panel and cancels any pending close.
func (m *Model) focusSearch() tea.Cmd {
	m.blurGen++
	m.state.ResultsOpen = true
	return m.input.Focus()
}

// scheduleBlurClose arms the debounced close of the results panel.
func (m *Model) scheduleBlurClose() tea.Cmd {
	m.blurGen++
	gen := m.blurGen
	return tea.Tick(blurCloseDelay, func(time.Time) tea.Msg {
		return blurTickMsg{gen: gen}
	})
}

// commit selects the highlighted park: it records the selection,
// publishes exactly one ParkSelectedEvent and closes the panel.
func (m *Model) commit() {
	park, ok := m.state.HighlightedPark()
	if !ok {
		return
	}

	selected := park
	m.state.Selected = &selected
	m.state.ResultsOpen = false
	m.input.Blur()
	m.blurGen++

	m.bus.Publish(domain.ParkSelectedEvent{
		OSMID:    park.OSMID,
		Name:     park.Name,
		Count:    park.Count,
		Envelope: park.Envelope,
	})
}

func (m *Model) openDetailPager() tea.Cmd {
	// The highlighted row wins while the results panel is open.
	var park *domain.ParkRecord
	if m.state.ResultsOpen {
		if p, ok := m.state.HighlightedPark(); ok {
			park = &p
		}
	}
	if park == nil {
		park = m.state.Selected
	}
	if park == nil {
		return m.setStatus("no park selected")
	}

	content := renderParkDetail(*park, m.state.Metadata)
	pager := m.pager
	return func() tea.Msg {
		return pagerDoneMsg{err: pager.Show(content)}
	}
}

func (m *Model) startReload() tea.Cmd {
	m.state.LoadErr = nil
	m.state.MetadataResolved = false
	m.state.DatasetResolved = false
	if err := m.reload(); err != nil {
		log.Printf("reload rejected: %v", err)
	}
	return spinnerTick()
}

func (m *Model) setStatus(text string) tea.Cmd {
	m.state.StatusMessage = text
	m.statusGen++
	gen := m.statusGen
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return clearStatusMsg{gen: gen}
	})
}

func (m *Model) resize(width, height int) {
	m.state.Width = width
	m.state.Height = height

	// Title + search + results + top-10 panel + status bar.
	listHeight := height - views.HeaderRows - ranking.TopCount - 6
	if listHeight < 3 {
		listHeight = 3
	}
	m.state.ListViewport.Height = listHeight

	m.mapCols = width - views.LeftWidth - 2 // border
	m.mapRows = height - 3
}

// View renders the UI
func (m *Model) View() string {
	if m.state.Width == 0 {
		return "Loading..."
	}

	vs := views.ViewState{
		Width:          m.state.Width,
		Height:         m.state.Height,
		Loading:        m.state.Loading(),
		HasData:        m.state.HasData(),
		InputView:      m.input.View(),
		SearchFocused:  m.input.Focused(),
		ResultsOpen:    m.state.ResultsOpen,
		Filtered:       m.state.Filtered,
		HighlightIndex: m.state.HighlightIndex,
		ListOffset:     m.state.ListViewport.Offset,
		ListHeight:     m.state.ListViewport.Height,
		TopParks:       m.ranking.Top(),
		Selected:       m.state.Selected,
		StatusMessage:  m.state.StatusMessage,
		ShowHelp:       m.state.ShowHelp,
	}

	if m.state.Metadata != nil {
		vs.CreatedAt = m.state.Metadata.CreatedAt.Format()
	}
	if m.state.LoadErr != nil {
		vs.LoadErr = m.state.LoadErr.Error()
	}
	if m.mapCols >= 4 && m.mapRows >= 2 {
		vs.MapContent = m.mapView.Render(m.mapCols, m.mapRows)
	}

	return m.renderer.Render(vs)
}

func spinnerTick() tea.Cmd {
	return tea.Tick(spinnerPeriod, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

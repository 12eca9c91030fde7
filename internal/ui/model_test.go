package ui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"benchmap/internal/config"
	"benchmap/internal/domain"
	"benchmap/internal/eventbus"
	"benchmap/internal/ranking"
	"benchmap/internal/tiles"
)

func testParks() []domain.ParkRecord {
	return []domain.ParkRecord{
		{OSMID: 1, Name: "Central Park", City: "New York", State: "NY", Count: 200,
			Envelope: orb.Bound{Min: orb.Point{-73.98, 40.76}, Max: orb.Point{-73.95, 40.80}}},
		{OSMID: 2, Name: "Prospect Park", City: "Brooklyn", State: "NY", Count: 120,
			Envelope: orb.Bound{Min: orb.Point{-73.98, 40.65}, Max: orb.Point{-73.96, 40.67}}},
		{OSMID: 3, Name: "Golden Gate Park", City: "San Francisco", State: "CA", Count: 90,
			Envelope: orb.Bound{Min: orb.Point{-122.51, 37.76}, Max: orb.Point{-122.45, 37.77}}},
	}
}

func newTestModel(t *testing.T) (*Model, eventbus.EventBus) {
	t.Helper()
	bus := eventbus.New()
	cfg := config.DefaultConfig()
	return NewModel(bus, cfg, ranking.NewService(bus), nil, nil), bus
}

func loadedModel(t *testing.T) (*Model, eventbus.EventBus) {
	t.Helper()
	m, bus := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m.Update(EventMsg{Event: domain.MetadataLoadedEvent{Metadata: domain.Metadata{}}})
	m.Update(EventMsg{Event: domain.DatasetLoadedEvent{Parks: testParks()}})
	return m, bus
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func collectSelections(bus eventbus.EventBus) *[]domain.ParkSelectedEvent {
	got := &[]domain.ParkSelectedEvent{}
	bus.Subscribe(eventbus.EventParkSelected, func(e eventbus.DomainEvent) {
		*got = append(*got, e.(domain.ParkSelectedEvent))
	})
	return got
}

func TestSlashOpensResultsPanel(t *testing.T) {
	m, _ := loadedModel(t)

	require.False(t, m.State().ResultsOpen)
	m.Update(keyRune('/'))

	require.True(t, m.State().ResultsOpen)
	require.True(t, m.input.Focused())
}

func TestTypingFiltersList(t *testing.T) {
	m, _ := loadedModel(t)
	m.Update(keyRune('/'))

	for _, r := range "pro" {
		m.Update(keyRune(r))
	}

	require.Equal(t, "pro", m.State().Query)
	require.Len(t, m.State().Filtered, 1)
	require.Equal(t, "Prospect Park", m.State().Filtered[0].Name)
	require.Equal(t, 0, m.State().HighlightIndex)
}

func TestEnterCommitsExactlyOneSelection(t *testing.T) {
	m, bus := loadedModel(t)
	got := collectSelections(bus)

	m.Update(keyRune('/'))
	for _, r := range "golden" {
		m.Update(keyRune(r))
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.Len(t, *got, 1)
	require.Equal(t, int64(3), (*got)[0].OSMID)
	require.Equal(t, "Golden Gate Park", (*got)[0].Name)

	require.False(t, m.State().ResultsOpen)
	require.False(t, m.input.Focused())
	require.NotNil(t, m.State().Selected)
	require.Equal(t, int64(3), m.State().Selected.OSMID)
}

func TestArrowKeysMoveHighlight(t *testing.T) {
	m, _ := loadedModel(t)
	m.Update(keyRune('/'))

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, 2, m.State().HighlightIndex)

	// Clamped at the end of the filtered list.
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, 2, m.State().HighlightIndex)

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	require.Equal(t, 1, m.State().HighlightIndex)
}

func TestEscapeClosesImmediately(t *testing.T) {
	m, bus := loadedModel(t)
	got := collectSelections(bus)

	m.Update(keyRune('/'))
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.False(t, m.State().ResultsOpen)
	require.False(t, m.input.Focused())
	require.Empty(t, *got)
}

func TestBlurClosesAfterDebounce(t *testing.T) {
	m, _ := loadedModel(t)
	m.Update(keyRune('/'))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.NotNil(t, cmd)
	require.True(t, m.State().ResultsOpen, "panel stays open until the tick fires")

	m.Update(blurTickMsg{gen: m.blurGen})
	require.False(t, m.State().ResultsOpen)
}

func TestEscapeClosesDuringBlurWindow(t *testing.T) {
	m, _ := loadedModel(t)
	m.Update(keyRune('/'))

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	stale := m.blurGen
	require.True(t, m.State().ResultsOpen, "panel stays open until the tick fires")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.False(t, m.State().ResultsOpen)

	// The stale tick has nothing left to do.
	m.Update(blurTickMsg{gen: stale})
	require.False(t, m.State().ResultsOpen)
}

func TestRefocusCancelsPendingClose(t *testing.T) {
	m, _ := loadedModel(t)
	m.Update(keyRune('/'))

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	stale := m.blurGen

	// Refocus before the pending tick fires.
	m.Update(keyRune('/'))
	m.Update(blurTickMsg{gen: stale})

	require.True(t, m.State().ResultsOpen)
}

func TestMouseClickSelectsRow(t *testing.T) {
	m, bus := loadedModel(t)
	got := collectSelections(bus)

	m.Update(keyRune('/'))
	m.Update(tea.MouseMsg{
		X:      4,
		Y:      2 + 1, // second visible row
		Action: tea.MouseActionPress,
		Button: tea.MouseButtonLeft,
	})

	require.Len(t, *got, 1)
	require.Equal(t, int64(2), (*got)[0].OSMID)
	require.False(t, m.State().ResultsOpen)
}

func TestMouseClickOutsideListBlurs(t *testing.T) {
	m, _ := loadedModel(t)
	m.Update(keyRune('/'))

	_, cmd := m.Update(tea.MouseMsg{
		X:      80,
		Y:      5,
		Action: tea.MouseActionPress,
		Button: tea.MouseButtonLeft,
	})

	require.NotNil(t, cmd)
	require.False(t, m.input.Focused())
	require.True(t, m.State().ResultsOpen, "close is debounced, not immediate")
}

func TestCommitWithEmptyFilterIsInert(t *testing.T) {
	m, bus := loadedModel(t)
	got := collectSelections(bus)

	m.Update(keyRune('/'))
	for _, r := range "zzz" {
		m.Update(keyRune(r))
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.Empty(t, *got)
	require.Nil(t, m.State().Selected)
}

func TestLoadFailureResolvesStageAndSurfacesError(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	m.Update(EventMsg{Event: domain.LoadFailedEvent{
		Stage: domain.StageParkStats,
		Err:   errors.New("park_stats: fetch failed"),
	}})

	require.True(t, m.State().DatasetResolved)
	require.False(t, m.State().MetadataResolved, "metadata fetch is still outstanding")
	require.Error(t, m.State().LoadErr)

	m.Update(EventMsg{Event: domain.LoadFailedEvent{
		Stage: domain.StageMetadata,
		Err:   errors.New("metadata: fetch failed"),
	}})
	require.False(t, m.State().Loading())
	require.Contains(t, m.View(), "press r to retry")
}

func TestNoDataViewIsInert(t *testing.T) {
	m, bus := newTestModel(t)
	got := collectSelections(bus)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	m.Update(EventMsg{Event: domain.LoadFailedEvent{Stage: domain.StageMetadata, Err: errors.New("down")}})
	m.Update(EventMsg{Event: domain.LoadFailedEvent{Stage: domain.StageParkStats, Err: errors.New("down")}})

	m.Update(keyRune('/'))
	require.Contains(t, m.View(), "No metadata available")

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Empty(t, *got)
}

func TestMetadataEventOpensTileSource(t *testing.T) {
	bus := eventbus.New()
	cfg := config.DefaultConfig()
	opened := 0
	m := NewModel(bus, cfg, ranking.NewService(bus), func(meta domain.Metadata) (tiles.Source, error) {
		opened++
		return nil, errors.New("no archive")
	}, nil)

	_, cmd := m.Update(EventMsg{Event: domain.MetadataLoadedEvent{Metadata: domain.Metadata{}}})
	require.NotNil(t, cmd)

	msg := cmd()
	require.IsType(t, sourceReadyMsg{}, msg)
	require.Equal(t, 1, opened)
	require.Error(t, msg.(sourceReadyMsg).err)
}

func TestReloadClearsErrorState(t *testing.T) {
	reloads := 0
	bus := eventbus.New()
	cfg := config.DefaultConfig()
	m := NewModel(bus, cfg, ranking.NewService(bus), nil, func() error {
		reloads++
		return nil
	})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	m.Update(EventMsg{Event: domain.LoadFailedEvent{Stage: domain.StageMetadata, Err: errors.New("down")}})
	m.Update(EventMsg{Event: domain.LoadFailedEvent{Stage: domain.StageParkStats, Err: errors.New("down")}})

	m.Update(keyRune('r'))

	require.Equal(t, 1, reloads)
	require.NoError(t, m.State().LoadErr)
	require.True(t, m.State().Loading())
}

func TestHelpToggles(t *testing.T) {
	m, _ := loadedModel(t)

	m.Update(keyRune('?'))
	require.True(t, m.State().ShowHelp)
	require.Contains(t, m.View(), "benchmap help")

	m.Update(keyRune('x'))
	require.False(t, m.State().ShowHelp)
}

func TestQueryResetsHighlightAndScroll(t *testing.T) {
	m, _ := loadedModel(t)
	m.Update(keyRune('/'))

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, 1, m.State().HighlightIndex)

	m.Update(keyRune('p'))
	require.Equal(t, 0, m.State().HighlightIndex)
	require.Equal(t, 0, m.State().ListViewport.Offset)
}

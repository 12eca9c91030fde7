package state

import (
	"benchmap/internal/domain"
	"benchmap/internal/ui/logic"
)

// AppState contains all the application state
type AppState struct {
	// Dataset
	Metadata *domain.Metadata
	Parks    []domain.ParkRecord // nil until loaded, and stays nil on failure

	// Load tracking: the two fetches race, the loading flag only clears
	// once both have resolved (either way).
	MetadataResolved bool
	DatasetResolved  bool
	LoadErr          error // last load failure, for the status bar

	// Search state, owned by the list component
	Query          string
	Filtered       []domain.ParkRecord
	HighlightIndex int
	ResultsOpen    bool
	ResultLimit    int
	Selected       *domain.ParkRecord

	// List viewport
	ListViewport logic.ListViewport

	// UI state
	Width         int
	Height        int
	StatusMessage string
	ShowHelp      bool
}

// NewAppState creates a new application state
func NewAppState(resultLimit int) *AppState {
	return &AppState{
		ResultLimit:  resultLimit,
		ListViewport: logic.ListViewport{Height: 10},
	}
}

// Loading reports whether either fetch is still outstanding.
func (s *AppState) Loading() bool {
	return !s.MetadataResolved || !s.DatasetResolved
}

// HasData reports whether a non-empty dataset is in memory.
func (s *AppState) HasData() bool {
	return len(s.Parks) > 0
}

// SetDataset installs the loaded records and re-derives the filtered
// view. Highlight resets on dataset change.
func (s *AppState) SetDataset(parks []domain.ParkRecord) {
	s.Parks = parks
	s.DatasetResolved = true
	s.refilter()
}

// SetQuery updates the query and re-derives the filtered view.
// Highlight resets on query change.
func (s *AppState) SetQuery(query string) {
	if query == s.Query {
		return
	}
	s.Query = query
	s.refilter()
}

func (s *AppState) refilter() {
	s.Filtered = logic.Filter(s.Parks, s.Query, s.ResultLimit)
	s.HighlightIndex = 0
	s.ListViewport.Offset = 0
}

// MoveHighlight shifts the highlight by delta, clamped to the filtered
// list, and scrolls it into view.
func (s *AppState) MoveHighlight(delta int) {
	if len(s.Filtered) == 0 {
		return
	}
	s.HighlightIndex = logic.ClampIndex(s.HighlightIndex+delta, len(s.Filtered))
	s.ListViewport.EnsureVisible(s.HighlightIndex)
}

// HighlightedPark returns the record under the highlight, or false when
// the filtered list is empty.
func (s *AppState) HighlightedPark() (domain.ParkRecord, bool) {
	if len(s.Filtered) == 0 {
		return domain.ParkRecord{}, false
	}
	idx := logic.ClampIndex(s.HighlightIndex, len(s.Filtered))
	return s.Filtered[idx], true
}

// Package mapview is the map component: it owns the viewport and the
// feature highlight state, renders bench and park layers from a tile
// source into a character grid, and reacts to selection events from the
// bus. It publishes nothing.
package mapview

import (
	"log"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/planar"

	"benchmap/internal/domain"
	"benchmap/internal/eventbus"
	"benchmap/internal/tiles"
)

type cellKind uint8

const (
	cellEmpty cellKind = iota
	cellPark
	cellParkHighlight
	cellBench
	cellLabel
	cellSelectionBox
)

// Styles for the map glyphs.
type styles struct {
	Park      lipgloss.Style
	Highlight lipgloss.Style
	Bench     lipgloss.Style
	Label     lipgloss.Style
	Box       lipgloss.Style
}

func newStyles() styles {
	return styles{
		Park:      lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
		Highlight: lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true),
		Bench:     lipgloss.NewStyle().Foreground(lipgloss.Color("130")),
		Label:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Box:       lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
	}
}

// Map renders the two source layers and keeps selection state.
type Map struct {
	source tiles.Source
	styles styles

	labelZoom maptile.Zoom
	fit       orb.Bound // extent the viewport is fitted to
	hasFit    bool

	// featureState mirrors the map-engine highlight mechanism: a set of
	// feature ids with the highlight flag on. At most one entry.
	featureState map[int64]bool
	selectedName string
}

// New creates a map with no tile source attached yet; labels render
// from labelZoom upward.
func New(labelZoom int) *Map {
	return &Map{
		styles:       newStyles(),
		labelZoom:    maptile.Zoom(labelZoom),
		featureState: make(map[int64]bool),
	}
}

// AttachSource gives the map its tile source once the archive location
// is known (it comes from metadata).
func (m *Map) AttachSource(src tiles.Source) {
	m.source = src
	if !m.hasFit {
		m.fit = src.Bounds()
		m.hasFit = true
	}
}

// SetHome fits the viewport to the dataset extent.
func (m *Map) SetHome(b orb.Bound) {
	m.fit = b
	m.hasFit = true
}

// Subscribe wires the map to selection events. Returns the unsubscribe
// function.
func (m *Map) Subscribe(bus eventbus.EventBus) func() {
	return bus.Subscribe(eventbus.EventParkSelected, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.ParkSelectedEvent); ok {
			m.Select(event)
		}
	})
}

// Select replaces the highlighted feature and refits the viewport to
// the park's envelope. Exactly one feature is highlighted afterwards.
func (m *Map) Select(e domain.ParkSelectedEvent) {
	for id := range m.featureState {
		delete(m.featureState, id)
	}
	m.featureState[e.OSMID] = true
	m.selectedName = e.Name

	if e.Envelope.IsZero() || e.Envelope.IsEmpty() {
		// Degenerate envelope: center on its corner instead of fitting.
		m.fit = orb.Bound{Min: e.Envelope.Min, Max: e.Envelope.Min}
	} else {
		m.fit = e.Envelope
	}
	m.hasFit = true
	log.Printf("mapview: highlighted park %d (%s)", e.OSMID, e.Name)
}

// Highlighted returns the ids with highlight state on; the invariant is
// that this never holds more than one entry.
func (m *Map) Highlighted() []int64 {
	out := make([]int64, 0, len(m.featureState))
	for id := range m.featureState {
		out = append(out, id)
	}
	return out
}

// SelectedName returns the display name of the selected park.
func (m *Map) SelectedName() string { return m.selectedName }

// Viewport computes the current viewport for a window size.
func (m *Map) Viewport(cols, rows int) Viewport {
	maxZoom := maptile.Zoom(17)
	if m.source != nil {
		maxZoom = m.source.MaxZoom()
	}
	fit := m.fit
	if !m.hasFit {
		fit = orb.Bound{Min: orb.Point{-180, -60}, Max: orb.Point{180, 75}}
	}
	return FitBounds(fit, cols, rows, maxZoom)
}

// Render draws the map window. With no source attached it still draws
// the selection box so a selected park is visible.
func (m *Map) Render(cols, rows int) string {
	if cols < 1 || rows < 1 {
		return ""
	}

	v := m.Viewport(cols, rows)
	grid := newGrid(cols, rows)

	if m.source != nil {
		m.drawLayers(grid, v)
	}
	m.drawSelectionBox(grid, v)

	return grid.String(m.styles)
}

func (m *Map) drawLayers(g *grid, v Viewport) {
	window := v.Bound(g.cols, g.rows)
	parks, benches := m.collectFeatures(v, window)

	for _, f := range parks {
		m.drawPark(g, v, f)
	}
	for _, f := range benches {
		if p, ok := f.Geometry.(orb.Point); ok {
			if col, row, ok := v.PointToCell(p, g.cols, g.rows); ok {
				g.set(col, row, '•', cellBench)
			}
		}
	}
	if v.Zoom >= m.labelZoom {
		for _, f := range parks {
			m.drawLabel(g, v, f)
		}
	}
}

// collectFeatures gathers the deduplicated features of both layers from
// every tile covering the window.
func (m *Map) collectFeatures(v Viewport, window orb.Bound) (parks, benches []*geojson.Feature) {
	seenParks := make(map[int64]bool)
	seenBenches := make(map[int64]bool)

	minTile := maptile.At(orb.Point{window.Min[0], window.Max[1]}, v.Zoom) // northwest
	maxTile := maptile.At(orb.Point{window.Max[0], window.Min[1]}, v.Zoom) // southeast

	for x := minTile.X; x <= maxTile.X; x++ {
		for y := minTile.Y; y <= maxTile.Y; y++ {
			tile := maptile.New(x, y, v.Zoom)

			pf, err := m.source.Features(tile, tiles.LayerParks)
			if err != nil {
				log.Printf("mapview: tile %d/%d/%d parks: %v", tile.Z, tile.X, tile.Y, err)
				continue
			}
			for _, f := range pf {
				id := tiles.FeatureOSMID(f)
				if !seenParks[id] {
					seenParks[id] = true
					parks = append(parks, f)
				}
			}

			bf, err := m.source.Features(tile, tiles.LayerBenches)
			if err != nil {
				log.Printf("mapview: tile %d/%d/%d benches: %v", tile.Z, tile.X, tile.Y, err)
				continue
			}
			for _, f := range bf {
				id := tiles.FeatureOSMID(f)
				if !seenBenches[id] {
					seenBenches[id] = true
					benches = append(benches, f)
				}
			}
		}
	}
	return parks, benches
}

// drawPark fills the cells whose centers fall inside the polygon.
func (m *Map) drawPark(g *grid, v Viewport, f *geojson.Feature) {
	kind := cellPark
	glyph := '▒'
	if m.featureState[tiles.FeatureOSMID(f)] {
		kind = cellParkHighlight
		glyph = '█'
	}

	bound := f.Geometry.Bound()
	minCol, minRow := g.clampCell(v, orb.Point{bound.Min[0], bound.Max[1]})
	maxCol, maxRow := g.clampCell(v, orb.Point{bound.Max[0], bound.Min[1]})

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			p := v.CellToPoint(col, row, g.cols, g.rows)
			if geometryContains(f.Geometry, p) {
				g.set(col, row, glyph, kind)
			}
		}
	}
}

func geometryContains(geom orb.Geometry, p orb.Point) bool {
	switch g := geom.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, p)
	default:
		return false
	}
}

// drawLabel writes the park name starting at the envelope center.
func (m *Map) drawLabel(g *grid, v Viewport, f *geojson.Feature) {
	name := f.Properties.MustString("name", "")
	if name == "" {
		return
	}
	center := f.Geometry.Bound().Center()
	col, row, ok := v.PointToCell(center, g.cols, g.rows)
	if !ok {
		return
	}
	for i, r := range name {
		if col+i >= g.cols {
			break
		}
		g.set(col+i, row, r, cellLabel)
	}
}

// drawSelectionBox outlines the fitted envelope when a park is selected.
func (m *Map) drawSelectionBox(g *grid, v Viewport) {
	if len(m.featureState) == 0 {
		return
	}
	minCol, minRow := g.clampCell(v, orb.Point{m.fit.Min[0], m.fit.Max[1]})
	maxCol, maxRow := g.clampCell(v, orb.Point{m.fit.Max[0], m.fit.Min[1]})

	for col := minCol; col <= maxCol; col++ {
		g.mark(col, minRow, '─', cellSelectionBox)
		g.mark(col, maxRow, '─', cellSelectionBox)
	}
	for row := minRow; row <= maxRow; row++ {
		g.mark(minCol, row, '│', cellSelectionBox)
		g.mark(maxCol, row, '│', cellSelectionBox)
	}
	g.mark(minCol, minRow, '┌', cellSelectionBox)
	g.mark(maxCol, minRow, '┐', cellSelectionBox)
	g.mark(minCol, maxRow, '└', cellSelectionBox)
	g.mark(maxCol, maxRow, '┘', cellSelectionBox)
}

// grid is the cell buffer a frame renders into.
type grid struct {
	cols, rows int
	runes      []rune
	kinds      []cellKind
}

func newGrid(cols, rows int) *grid {
	g := &grid{
		cols:  cols,
		rows:  rows,
		runes: make([]rune, cols*rows),
		kinds: make([]cellKind, cols*rows),
	}
	for i := range g.runes {
		g.runes[i] = ' '
	}
	return g
}

func (g *grid) set(col, row int, r rune, kind cellKind) {
	if col < 0 || col >= g.cols || row < 0 || row >= g.rows {
		return
	}
	i := row*g.cols + col
	// Labels stay on top of fills; benches on top of parks.
	if g.kinds[i] == cellLabel && kind != cellLabel {
		return
	}
	g.runes[i] = r
	g.kinds[i] = kind
}

// mark sets a cell only when it is empty or park fill, so box edges do
// not clobber benches or labels.
func (g *grid) mark(col, row int, r rune, kind cellKind) {
	if col < 0 || col >= g.cols || row < 0 || row >= g.rows {
		return
	}
	i := row*g.cols + col
	if g.kinds[i] == cellEmpty || g.kinds[i] == cellPark {
		g.runes[i] = r
		g.kinds[i] = kind
	}
}

// clampCell maps a point to the nearest in-window cell.
func (g *grid) clampCell(v Viewport, p orb.Point) (int, int) {
	col, row, ok := v.PointToCell(p, g.cols, g.rows)
	if ok {
		return col, row
	}
	// Recompute unclamped and clamp to the window edge.
	world := worldPixels(v.Zoom)
	cx := mercX(v.Center[0]) * world
	cy := mercY(v.Center[1]) * world
	fcol := mercX(p[0])*world - cx + float64(g.cols)/2
	frow := (mercY(p[1])*world-cy)/cellAspect + float64(g.rows)/2
	return clamp(int(fcol), 0, g.cols-1), clamp(int(frow), 0, g.rows-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// String renders the grid with styles applied per run of equal kind.
func (g *grid) String(st styles) string {
	var b strings.Builder
	for row := 0; row < g.rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		start := row * g.cols
		col := 0
		for col < g.cols {
			kind := g.kinds[start+col]
			end := col
			for end < g.cols && g.kinds[start+end] == kind {
				end++
			}
			run := string(g.runes[start+col : start+end])
			switch kind {
			case cellPark:
				run = st.Park.Render(run)
			case cellParkHighlight:
				run = st.Highlight.Render(run)
			case cellBench:
				run = st.Bench.Render(run)
			case cellLabel:
				run = st.Label.Render(run)
			case cellSelectionBox:
				run = st.Box.Render(run)
			}
			b.WriteString(run)
			col = end
		}
	}
	return b.String()
}

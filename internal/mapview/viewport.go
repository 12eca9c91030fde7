package mapview

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// tileSize is the pixel size of one map tile.
const tileSize = 256

// cellAspect is how many map pixels one terminal row covers. Character
// cells are roughly twice as tall as they are wide.
const cellAspect = 2

// Viewport is the visible map window: a center point and an integer
// zoom, the way slippy maps address the world.
type Viewport struct {
	Center orb.Point
	Zoom   maptile.Zoom
}

// mercX maps longitude to the [0,1) horizontal Web Mercator fraction.
func mercX(lon float64) float64 {
	return (lon + 180) / 360
}

// mercY maps latitude to the [0,1) vertical fraction; north is smaller.
func mercY(lat float64) float64 {
	rad := lat * math.Pi / 180
	return (1 - math.Log(math.Tan(rad)+1/math.Cos(rad))/math.Pi) / 2
}

func invMercX(x float64) float64 {
	return x*360 - 180
}

func invMercY(y float64) float64 {
	return math.Atan(math.Sinh(math.Pi*(1-2*y))) * 180 / math.Pi
}

// worldPixels is the edge length of the world in pixels at a zoom.
func worldPixels(z maptile.Zoom) float64 {
	return tileSize * math.Exp2(float64(z))
}

// FitBounds picks the viewport that shows all of b inside a cols×rows
// cell window at the highest zoom that still fits, clamped to maxZoom.
func FitBounds(b orb.Bound, cols, rows int, maxZoom maptile.Zoom) Viewport {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	dx := mercX(b.Max[0]) - mercX(b.Min[0])
	dy := mercY(b.Min[1]) - mercY(b.Max[1]) // north edge has the smaller y

	zoom := float64(maxZoom)
	if dx > 0 {
		zoom = math.Min(zoom, math.Log2(float64(cols)/(tileSize*dx)))
	}
	if dy > 0 {
		zoom = math.Min(zoom, math.Log2(float64(rows*cellAspect)/(tileSize*dy)))
	}
	if zoom < 0 {
		zoom = 0
	}

	z := maptile.Zoom(math.Floor(zoom))
	if z > maxZoom {
		z = maxZoom
	}

	return Viewport{Center: boundCenter(b), Zoom: z}
}

// boundCenter is the mercator midpoint of a bound, so a tall bound does
// not drift toward the pole.
func boundCenter(b orb.Bound) orb.Point {
	cx := (mercX(b.Min[0]) + mercX(b.Max[0])) / 2
	cy := (mercY(b.Min[1]) + mercY(b.Max[1])) / 2
	return orb.Point{invMercX(cx), invMercY(cy)}
}

// Bound returns the geographic extent a viewport covers in a cols×rows
// window.
func (v Viewport) Bound(cols, rows int) orb.Bound {
	world := worldPixels(v.Zoom)
	cx := mercX(v.Center[0]) * world
	cy := mercY(v.Center[1]) * world

	halfW := float64(cols) / 2
	halfH := float64(rows*cellAspect) / 2

	return orb.Bound{
		Min: orb.Point{invMercX((cx - halfW) / world), invMercY((cy + halfH) / world)},
		Max: orb.Point{invMercX((cx + halfW) / world), invMercY((cy - halfH) / world)},
	}
}

// CellToPoint maps a cell coordinate to the lon/lat at its center.
func (v Viewport) CellToPoint(col, row, cols, rows int) orb.Point {
	world := worldPixels(v.Zoom)
	cx := mercX(v.Center[0]) * world
	cy := mercY(v.Center[1]) * world

	px := cx + (float64(col) - float64(cols)/2 + 0.5)
	py := cy + (float64(row)-float64(rows)/2+0.5)*cellAspect

	return orb.Point{invMercX(px / world), invMercY(py / world)}
}

// PointToCell maps a lon/lat to the cell containing it. The boolean is
// false when the point is outside the window.
func (v Viewport) PointToCell(p orb.Point, cols, rows int) (int, int, bool) {
	world := worldPixels(v.Zoom)
	cx := mercX(v.Center[0]) * world
	cy := mercY(v.Center[1]) * world

	col := int(math.Floor(mercX(p[0])*world - cx + float64(cols)/2))
	row := int(math.Floor((mercY(p[1])*world - cy) / cellAspect + float64(rows)/2))

	if col < 0 || col >= cols || row < 0 || row >= rows {
		return 0, 0, false
	}
	return col, row, true
}

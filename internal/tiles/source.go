// Package tiles provides the vector feature sources backing the map
// pane. Two variants exist: a PMTiles archive (the deployed form) and a
// pair of plain GeoJSON documents (the development form). Both expose
// the same two source layers.
package tiles

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
)

// Source layer names, fixed by the data generator.
const (
	LayerParks   = "parks"
	LayerBenches = "benches"
)

// Source provides vector features by tile coordinate and source layer.
// Feature geometry is WGS84 lon/lat regardless of variant.
type Source interface {
	// Features returns the features of the named layer intersecting tile.
	Features(tile maptile.Tile, layer string) ([]*geojson.Feature, error)
	// Bounds is the geographic extent of the data.
	Bounds() orb.Bound
	// MinZoom and MaxZoom bound the zoom levels tiles exist at.
	MinZoom() maptile.Zoom
	MaxZoom() maptile.Zoom
	Close() error
}

// FeatureOSMID extracts the OSM id of a feature. The generator writes
// it both as the feature id and as an osm_id property; tile encoding
// turns numbers into float64.
func FeatureOSMID(f *geojson.Feature) int64 {
	if id := numericID(f.ID); id != 0 {
		return id
	}
	return numericID(f.Properties["osm_id"])
}

func numericID(v interface{}) int64 {
	switch id := v.(type) {
	case float64:
		return int64(id)
	case int64:
		return id
	case int:
		return int64(id)
	case uint64:
		return int64(id)
	default:
		return 0
	}
}

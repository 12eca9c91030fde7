package tiles

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
)

// DocumentSource serves features from two in-memory GeoJSON
// FeatureCollections, the parks.json/benches.json variant of the data
// pipeline. Tile coordinates are honored by bound intersection only.
type DocumentSource struct {
	layers map[string]*geojson.FeatureCollection
	bounds orb.Bound
}

// NewDocumentSource decodes the two FeatureCollections. The documents
// carry an extra importdate member, which the decoder tolerates.
func NewDocumentSource(parksData, benchesData []byte) (*DocumentSource, error) {
	parks, err := geojson.UnmarshalFeatureCollection(parksData)
	if err != nil {
		return nil, fmt.Errorf("parks geojson: %w", err)
	}
	benches, err := geojson.UnmarshalFeatureCollection(benchesData)
	if err != nil {
		return nil, fmt.Errorf("benches geojson: %w", err)
	}

	ds := &DocumentSource{
		layers: map[string]*geojson.FeatureCollection{
			LayerParks:   parks,
			LayerBenches: benches,
		},
	}
	ds.bounds = ds.computeBounds()
	return ds, nil
}

func (ds *DocumentSource) computeBounds() orb.Bound {
	var bound orb.Bound
	first := true
	for _, fc := range ds.layers {
		for _, f := range fc.Features {
			if f.Geometry == nil {
				continue
			}
			if first {
				bound = f.Geometry.Bound()
				first = false
				continue
			}
			bound = bound.Union(f.Geometry.Bound())
		}
	}
	return bound
}

// Features returns the named layer's features intersecting the tile.
func (ds *DocumentSource) Features(tile maptile.Tile, layer string) ([]*geojson.Feature, error) {
	fc, ok := ds.layers[layer]
	if !ok {
		return nil, fmt.Errorf("unknown source layer %q", layer)
	}

	tileBound := tile.Bound()
	var out []*geojson.Feature
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		if f.Geometry.Bound().Intersects(tileBound) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (ds *DocumentSource) Bounds() orb.Bound { return ds.bounds }

func (ds *DocumentSource) MinZoom() maptile.Zoom { return 0 }

func (ds *DocumentSource) MaxZoom() maptile.Zoom { return 22 }

func (ds *DocumentSource) Close() error { return nil }

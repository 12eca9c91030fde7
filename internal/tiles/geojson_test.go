package tiles

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/require"
)

// Documents in the style of the data pipeline: FeatureCollections with
// an extra importdate member, feature id = osm_id.
const parksJSON = `{
	"type": "FeatureCollection",
	"importdate": "2024-05-01T12:00:00",
	"features": [
		{
			"type": "Feature",
			"id": 101,
			"geometry": {"type": "Polygon", "coordinates": [[[-73.981,40.764],[-73.949,40.764],[-73.949,40.800],[-73.981,40.800],[-73.981,40.764]]]},
			"properties": {"osm_id": 101, "name": "Central Park", "count": 120}
		},
		{
			"type": "Feature",
			"id": 102,
			"geometry": {"type": "Polygon", "coordinates": [[[-73.980,40.655],[-73.962,40.655],[-73.962,40.672],[-73.980,40.672],[-73.980,40.655]]]},
			"properties": {"osm_id": 102, "name": "Prospect Park", "count": 80}
		}
	]
}`

const benchesJSON = `{
	"type": "FeatureCollection",
	"importdate": "2024-05-01T12:00:00",
	"features": [
		{
			"type": "Feature",
			"id": 901,
			"geometry": {"type": "Point", "coordinates": [-73.968, 40.785]},
			"properties": {}
		}
	]
}`

func newTestSource(t *testing.T) *DocumentSource {
	t.Helper()
	src, err := NewDocumentSource([]byte(parksJSON), []byte(benchesJSON))
	require.NoError(t, err)
	return src
}

func TestDocumentSourceLayers(t *testing.T) {
	t.Parallel()
	src := newTestSource(t)

	// A tile over Central Park sees the park and the bench, not Prospect.
	tile := maptile.At(orb.Point{-73.968, 40.785}, 14)

	parks, err := src.Features(tile, LayerParks)
	require.NoError(t, err)
	require.Len(t, parks, 1)
	require.Equal(t, int64(101), FeatureOSMID(parks[0]))
	require.Equal(t, "Central Park", parks[0].Properties.MustString("name"))

	benches, err := src.Features(tile, LayerBenches)
	require.NoError(t, err)
	require.Len(t, benches, 1)
}

func TestDocumentSourceUnknownLayer(t *testing.T) {
	t.Parallel()
	src := newTestSource(t)

	_, err := src.Features(maptile.New(0, 0, 0), "roads")
	require.Error(t, err)
}

func TestDocumentSourceBounds(t *testing.T) {
	t.Parallel()
	src := newTestSource(t)

	b := src.Bounds()
	require.True(t, b.Contains(orb.Point{-73.968, 40.785}))
	require.True(t, b.Contains(orb.Point{-73.970, 40.660}))
}

func TestDocumentSourceBadPayload(t *testing.T) {
	t.Parallel()

	_, err := NewDocumentSource([]byte("{"), []byte(benchesJSON))
	require.Error(t, err)
}

func TestFeatureOSMIDFallsBackToProperty(t *testing.T) {
	t.Parallel()

	f := geojson.NewFeature(orb.Point{0, 0})
	f.Properties["osm_id"] = float64(4242)
	require.Equal(t, int64(4242), FeatureOSMID(f))
}

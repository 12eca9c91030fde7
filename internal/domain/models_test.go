package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetadataDecodeNaiveTimestamp(t *testing.T) {
	t.Parallel()

	// The generator writes datetime.now().isoformat(): no zone suffix.
	raw := `{
		"created_at": "2024-05-01T12:34:56.789012",
		"files": {"pmtiles": "data.pmtiles", "park_stats": "park_stats.parquet"},
		"bbox": [-74.085445, 40.634929, -73.738346, 40.807053]
	}`

	var meta Metadata
	require.NoError(t, json.Unmarshal([]byte(raw), &meta))
	require.Equal(t, "data.pmtiles", meta.Files.PMTiles)
	require.Equal(t, "park_stats.parquet", meta.Files.ParkStats)
	require.Equal(t, 2024, meta.CreatedAt.Year())
	require.Equal(t, "May 1, 2024 12:34", meta.CreatedAt.Format())

	b := meta.Bound()
	require.InDelta(t, -74.085445, b.Min[0], 1e-9)
	require.InDelta(t, 40.807053, b.Max[1], 1e-9)
}

func TestMetadataDecodeRFC3339(t *testing.T) {
	t.Parallel()

	raw := `{"created_at": "2024-05-01T12:34:56Z", "files": {}, "bbox": [0,0,0,0]}`
	var meta Metadata
	require.NoError(t, json.Unmarshal([]byte(raw), &meta))
	require.Equal(t, 12, meta.CreatedAt.Hour())
}

func TestMetadataDecodeBadTimestamp(t *testing.T) {
	t.Parallel()

	raw := `{"created_at": "yesterday", "files": {}, "bbox": [0,0,0,0]}`
	var meta Metadata
	require.Error(t, json.Unmarshal([]byte(raw), &meta))
}

func TestParkRecordLabels(t *testing.T) {
	t.Parallel()

	p := ParkRecord{Name: "Prospect Park", City: "Brooklyn", State: "NY"}
	require.Equal(t, "Brooklyn, NY", p.Place())
	require.Equal(t, "Prospect Park (Brooklyn, NY)", p.Label())
	require.Equal(t, "prospect park brooklyn ny", p.SearchText())

	bare := ParkRecord{Name: "Central Park"}
	require.Equal(t, "Central Park", bare.Label())
}

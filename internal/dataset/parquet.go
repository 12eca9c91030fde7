package dataset

import (
	"bytes"
	"fmt"
	"log"

	"github.com/parquet-go/parquet-go"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/project"

	"benchmap/internal/domain"
)

// statsRow is the fixed column projection read from the park statistics
// file. Any extra columns in the file are ignored.
type statsRow struct {
	OSMID    int64   `parquet:"osm_id"`
	Name     string  `parquet:"name,optional"`
	Count    int64   `parquet:"count"`
	Capacity int64   `parquet:"capacity,optional"`
	Envelope []byte  `parquet:"envelope"` // WKB, GeoParquet geometry column
	Area     float64 `parquet:"st_area,optional"`
	City     string  `parquet:"city,optional"`
	State    string  `parquet:"state,optional"`
}

// decodeParkStats decodes the columnar statistics payload into park
// records. Rows with malformed envelope geometry are skipped; the decode
// only fails as a whole when nothing survives.
func decodeParkStats(data []byte) ([]domain.ParkRecord, error) {
	rows, err := parquet.Read[statsRow](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &LoadError{Kind: DecodeFailure, Stage: domain.StageParkStats, Err: err}
	}
	if len(rows) == 0 {
		return nil, &LoadError{Kind: EmptyResult, Stage: domain.StageParkStats}
	}

	records := make([]domain.ParkRecord, 0, len(rows))
	var badGeometry int
	for _, row := range rows {
		bound, err := decodeEnvelope(row.Envelope)
		if err != nil {
			badGeometry++
			log.Printf("dataset: skipping park %d: %v", row.OSMID, err)
			continue
		}
		records = append(records, domain.ParkRecord{
			OSMID:    row.OSMID,
			Name:     row.Name,
			Count:    row.Count,
			Capacity: row.Capacity,
			Envelope: bound,
			Area:     row.Area,
			City:     row.City,
			State:    row.State,
		})
	}

	if len(records) == 0 {
		return nil, &LoadError{
			Kind:  DecodeFailure,
			Stage: domain.StageParkStats,
			Err:   fmt.Errorf("all %d rows had malformed envelopes", badGeometry),
		}
	}
	return records, nil
}

// decodeEnvelope decodes a WKB geometry into a WGS84 bounding box. The
// generator writes envelopes in EPSG:3857, so out-of-range coordinates
// are unprojected.
func decodeEnvelope(data []byte) (orb.Bound, error) {
	geom, err := wkb.Unmarshal(data)
	if err != nil {
		return orb.Bound{}, fmt.Errorf("envelope wkb: %w", err)
	}
	bound := geom.Bound()
	if isMercator(bound) {
		bound = project.Bound(bound, project.Mercator.ToWGS84)
	}
	return bound, nil
}

// isMercator reports whether a bound's coordinates fall outside valid
// lon/lat ranges and therefore must be Web Mercator meters.
func isMercator(b orb.Bound) bool {
	return b.Min[0] < -180 || b.Max[0] > 180 || b.Min[1] < -90 || b.Max[1] > 90
}

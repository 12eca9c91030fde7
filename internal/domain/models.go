package domain

import (
	"strings"
	"time"

	"github.com/paulmach/orb"
)

// ParkRecord is one row of the park statistics table. Records are
// immutable once loaded; the full set is loaded once per run.
type ParkRecord struct {
	OSMID    int64
	Name     string
	Count    int64 // number of benches inside the park
	Capacity int64 // summed bench capacity
	Envelope orb.Bound
	Area     float64
	City     string // optional
	State    string // optional
}

// Label returns the display name for list rows, with the optional
// city/state suffix when present.
func (p ParkRecord) Label() string {
	place := p.Place()
	if place == "" {
		return p.Name
	}
	return p.Name + " (" + place + ")"
}

// Place returns "City, State" with missing parts omitted.
func (p ParkRecord) Place() string {
	switch {
	case p.City != "" && p.State != "":
		return p.City + ", " + p.State
	case p.City != "":
		return p.City
	default:
		return p.State
	}
}

// SearchText is the haystack for substring filtering: name, city and
// state concatenated, lowercased.
func (p ParkRecord) SearchText() string {
	return strings.ToLower(p.Name + " " + p.City + " " + p.State)
}

// Metadata describes the generated data files.
type Metadata struct {
	CreatedAt Timestamp     `json:"created_at"`
	Files     MetadataFiles `json:"files"`
	BBox      [4]float64    `json:"bbox"` // minLon, minLat, maxLon, maxLat
}

// MetadataFiles holds the file names, relative to the metadata location.
type MetadataFiles struct {
	PMTiles   string `json:"pmtiles"`
	ParkStats string `json:"park_stats"`
}

// Bound returns the metadata bounding box as an orb.Bound.
func (m Metadata) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{m.BBox[0], m.BBox[1]},
		Max: orb.Point{m.BBox[2], m.BBox[3]},
	}
}

// Timestamp parses the metadata creation time. The generator writes a
// naive ISO timestamp (no zone suffix), so RFC 3339 alone is not enough.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// UnmarshalJSON accepts RFC 3339 timestamps as well as zone-less ones.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	var err error
	for _, layout := range timestampLayouts {
		var parsed time.Time
		parsed, err = time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	return err
}

// Format returns the human-readable creation date shown in the UI.
func (t Timestamp) Format() string {
	if t.IsZero() {
		return ""
	}
	return t.Time.Format("Jan 2, 2006 15:04")
}

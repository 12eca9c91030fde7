package domain

import "github.com/paulmach/orb"

// EventType represents the type of domain event
type EventType string

// Event types. This is the closed set of bus messages; consumers
// type-switch over the concrete event structs below.
const (
	EventMetadataLoaded EventType = "MetadataLoaded"
	EventDatasetLoaded  EventType = "DatasetLoaded"
	EventLoadFailed     EventType = "LoadFailed"
	EventParkSelected   EventType = "ParkSelected"
)

// Load stages reported by LoadFailedEvent.
const (
	StageMetadata  = "metadata"
	StageParkStats = "park_stats"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// MetadataLoadedEvent is emitted when the metadata descriptor has been
// fetched and decoded.
type MetadataLoadedEvent struct {
	Metadata Metadata
}

func (e MetadataLoadedEvent) Type() EventType { return EventMetadataLoaded }

// DatasetLoadedEvent is emitted when the park statistics file has been
// decoded into records.
type DatasetLoadedEvent struct {
	Parks []ParkRecord
}

func (e DatasetLoadedEvent) Type() EventType { return EventDatasetLoaded }

// LoadFailedEvent is emitted when either fetch fails. Stage names which
// piece failed; Err carries a dataset.LoadError.
type LoadFailedEvent struct {
	Stage string
	Err   error
}

func (e LoadFailedEvent) Type() EventType { return EventLoadFailed }

// ParkSelectedEvent is emitted exactly once per committed selection.
// It is transient and never persisted.
type ParkSelectedEvent struct {
	OSMID    int64
	Name     string
	Count    int64
	Envelope orb.Bound
}

func (e ParkSelectedEvent) Type() EventType { return EventParkSelected }

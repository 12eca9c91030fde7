package dataset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"benchmap/internal/domain"
	"benchmap/internal/eventbus"
)

// eventCollector records bus events; the loader publishes from two
// goroutines so access is guarded.
type eventCollector struct {
	mu     sync.Mutex
	events []eventbus.DomainEvent
}

func newEventCollector(bus eventbus.EventBus) *eventCollector {
	c := &eventCollector{}
	record := func(e eventbus.DomainEvent) {
		c.mu.Lock()
		c.events = append(c.events, e)
		c.mu.Unlock()
	}
	bus.Subscribe(eventbus.EventMetadataLoaded, record)
	bus.Subscribe(eventbus.EventDatasetLoaded, record)
	bus.Subscribe(eventbus.EventLoadFailed, record)
	return c
}

func (c *eventCollector) byType(et eventbus.EventType) []eventbus.DomainEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []eventbus.DomainEvent
	for _, e := range c.events {
		if e.Type() == et {
			out = append(out, e)
		}
	}
	return out
}

const metadataJSON = `{
	"created_at": "2024-05-01T12:00:00.000000",
	"files": {"pmtiles": "data.pmtiles", "park_stats": "park_stats.parquet"},
	"bbox": [-74.085445, 40.634929, -73.738346, 40.807053]
}`

func runLoad(t *testing.T, locations Locations) *eventCollector {
	t.Helper()
	bus := eventbus.New()
	collector := newEventCollector(bus)

	loader := NewLoaderService(bus, locations)
	require.NoError(t, loader.StartLoad(context.Background()))
	loader.Wait()
	return collector
}

func TestLoadFromHTTP(t *testing.T) {
	t.Parallel()

	stats := encodeRows(t, []statsRow{
		{OSMID: 9, Name: "Fort Greene Park", Count: 42, Envelope: mercatorEnvelope(t, wgs84Bound(-73.978, 40.689, -73.973, 40.694))},
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/metadata.json":
			w.Write([]byte(metadataJSON))
		case "/park_stats.parquet":
			w.Write(stats)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	collector := runLoad(t, Locations{
		Metadata:  srv.URL + "/metadata.json",
		ParkStats: srv.URL + "/park_stats.parquet",
	})

	metaEvents := collector.byType(eventbus.EventMetadataLoaded)
	require.Len(t, metaEvents, 1)
	meta := metaEvents[0].(eventbus.MetadataLoadedEvent).Metadata
	require.Equal(t, "data.pmtiles", meta.Files.PMTiles)

	dataEvents := collector.byType(eventbus.EventDatasetLoaded)
	require.Len(t, dataEvents, 1)
	parks := dataEvents[0].(eventbus.DatasetLoadedEvent).Parks
	require.Len(t, parks, 1)
	require.Equal(t, "Fort Greene Park", parks[0].Name)

	require.Empty(t, collector.byType(eventbus.EventLoadFailed))
}

func TestLoadFromLocalFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.json"), []byte(metadataJSON), 0644))

	stats := encodeRows(t, []statsRow{
		{OSMID: 1, Name: "Central Park", Count: 120, Envelope: mercatorEnvelope(t, wgs84Bound(-73.981, 40.764, -73.949, 40.800))},
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "park_stats.parquet"), stats, 0644))

	collector := runLoad(t, Locations{
		Metadata:  filepath.Join(dir, "metadata.json"),
		ParkStats: filepath.Join(dir, "park_stats.parquet"),
	})

	require.Len(t, collector.byType(eventbus.EventMetadataLoaded), 1)
	require.Len(t, collector.byType(eventbus.EventDatasetLoaded), 1)
}

func TestLoadNetworkFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	collector := runLoad(t, Locations{
		Metadata:  srv.URL + "/metadata.json",
		ParkStats: srv.URL + "/park_stats.parquet",
	})

	failures := collector.byType(eventbus.EventLoadFailed)
	require.Len(t, failures, 2)
	for _, e := range failures {
		require.Equal(t, NetworkFailure, KindOf(e.(eventbus.LoadFailedEvent).Err))
	}
}

func TestLoadDecodeFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/metadata.json":
			w.Write([]byte(`{"created_at": 42`)) // truncated JSON
		default:
			w.Write([]byte("definitely not parquet"))
		}
	}))
	defer srv.Close()

	collector := runLoad(t, Locations{
		Metadata:  srv.URL + "/metadata.json",
		ParkStats: srv.URL + "/park_stats.parquet",
	})

	failures := collector.byType(eventbus.EventLoadFailed)
	require.Len(t, failures, 2)

	stages := map[string]ErrorKind{}
	for _, e := range failures {
		fe := e.(eventbus.LoadFailedEvent)
		stages[fe.Stage] = KindOf(fe.Err)
	}
	require.Equal(t, DecodeFailure, stages[domain.StageMetadata])
	require.Equal(t, DecodeFailure, stages[domain.StageParkStats])
}

func TestLoadEmptyResult(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.json"), []byte(metadataJSON), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "park_stats.parquet"), encodeRows(t, []statsRow{}), 0644))

	collector := runLoad(t, Locations{
		Metadata:  filepath.Join(dir, "metadata.json"),
		ParkStats: filepath.Join(dir, "park_stats.parquet"),
	})

	failures := collector.byType(eventbus.EventLoadFailed)
	require.Len(t, failures, 1)
	fe := failures[0].(eventbus.LoadFailedEvent)
	require.Equal(t, domain.StageParkStats, fe.Stage)
	require.Equal(t, EmptyResult, KindOf(fe.Err))
}

func TestStartLoadGuardsReentry(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(metadataJSON))
	}))
	defer srv.Close()

	bus := eventbus.New()
	loader := NewLoaderService(bus, Locations{Metadata: srv.URL, ParkStats: srv.URL})
	require.NoError(t, loader.StartLoad(context.Background()))
	// A second StartLoad while in flight is rejected, not queued.
	err := loader.StartLoad(context.Background())
	if err == nil {
		// The first load may already have finished on a fast machine;
		// only a third concurrent start can race here, so just wait.
		loader.Wait()
	}
	loader.Wait()
}

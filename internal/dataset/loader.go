package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"benchmap/internal/domain"
	"benchmap/internal/eventbus"
)

// LoaderService fetches the metadata descriptor and the park statistics
// file and publishes the results on the event bus.
type LoaderService interface {
	StartLoad(ctx context.Context) error
	Wait()
}

// Locations names the two fetch targets. Each may be an HTTP(S) URL or
// a local filesystem path.
type Locations struct {
	Metadata  string
	ParkStats string
}

// loaderService is the concrete implementation
type loaderService struct {
	bus       eventbus.EventBus
	client    *http.Client
	locations Locations
	mu        sync.Mutex
	isLoading bool
	wg        sync.WaitGroup
}

// NewLoaderService creates a new loader service
func NewLoaderService(bus eventbus.EventBus, locations Locations) LoaderService {
	return &loaderService{
		bus:       bus,
		client:    &http.Client{Timeout: 30 * time.Second},
		locations: locations,
	}
}

// StartLoad issues the two fetches concurrently. They may race; the UI
// keeps its loading flag up until both have resolved. Results and
// failures are published as bus events; StartLoad itself returns once
// the fetches are underway.
func (ls *loaderService) StartLoad(ctx context.Context) error {
	ls.mu.Lock()
	if ls.isLoading {
		ls.mu.Unlock()
		return fmt.Errorf("load already in progress")
	}
	ls.isLoading = true
	ls.mu.Unlock()

	ls.wg.Add(2)
	go func() {
		defer ls.wg.Done()
		ls.loadMetadata(ctx)
	}()
	go func() {
		defer ls.wg.Done()
		ls.loadParkStats(ctx)
	}()

	go func() {
		ls.wg.Wait()
		ls.mu.Lock()
		ls.isLoading = false
		ls.mu.Unlock()
	}()

	return nil
}

// Wait blocks until any in-flight load has resolved. Used by tests.
func (ls *loaderService) Wait() {
	ls.wg.Wait()
}

func (ls *loaderService) loadMetadata(ctx context.Context) {
	data, err := ls.fetch(ctx, ls.locations.Metadata)
	if err != nil {
		ls.fail(domain.StageMetadata, err)
		return
	}

	var meta domain.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		ls.fail(domain.StageMetadata, &LoadError{Kind: DecodeFailure, Stage: domain.StageMetadata, Err: err})
		return
	}

	log.Printf("dataset: metadata loaded, created %s", meta.CreatedAt.Format())
	ls.bus.Publish(eventbus.MetadataLoadedEvent{Metadata: meta})
}

func (ls *loaderService) loadParkStats(ctx context.Context) {
	data, err := ls.fetch(ctx, ls.locations.ParkStats)
	if err != nil {
		ls.fail(domain.StageParkStats, err)
		return
	}

	parks, err := decodeParkStats(data)
	if err != nil {
		ls.fail(domain.StageParkStats, err)
		return
	}

	log.Printf("dataset: loaded %d park records", len(parks))
	ls.bus.Publish(eventbus.DatasetLoadedEvent{Parks: parks})
}

func (ls *loaderService) fail(stage string, err error) {
	if KindOf(err) == 0 {
		err = &LoadError{Kind: NetworkFailure, Stage: stage, Err: err}
	}
	log.Printf("dataset: %v", err)
	ls.bus.Publish(eventbus.LoadFailedEvent{Stage: stage, Err: err})
}

// fetch reads location as a URL or a local file.
func (ls *loaderService) fetch(ctx context.Context, location string) ([]byte, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
		if err != nil {
			return nil, err
		}
		resp, err := ls.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("GET %s: %s", location, resp.Status)
		}
		return io.ReadAll(resp.Body)
	}
	return os.ReadFile(location)
}

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"benchmap/internal/config"
	"benchmap/internal/dataset"
	"benchmap/internal/domain"
	"benchmap/internal/eventbus"
	"benchmap/internal/ranking"
	"benchmap/internal/tiles"
	"benchmap/internal/ui"
)

func main() {
	// Set up logging
	logFile, err := os.OpenFile("benchmap.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Could not open log file: %v", err)
	} else {
		defer logFile.Close()
		log.SetOutput(logFile)
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Load configuration
	configSvc := config.NewConfigService()
	cfg, err := configSvc.Load()
	if err != nil {
		log.Printf("Error loading config: %v", err)
		// Use default config
		cfg = config.DefaultConfig()
	}
	config.ApplyEnv(cfg)

	// Create event bus
	bus := eventbus.New()

	// Initialize services
	loader := dataset.NewLoaderService(bus, dataset.Locations{
		Metadata:  cfg.ResolveMetadataURL(),
		ParkStats: cfg.ResolveDataURL("park_stats.parquet"),
	})
	rank := ranking.NewService(bus) // keeps the top-10 list current

	// Create UI model
	uiModel := ui.NewModel(bus, cfg, rank,
		func(meta domain.Metadata) (tiles.Source, error) {
			return openTileSource(cfg, meta)
		},
		func() error {
			return loader.StartLoad(ctx)
		})

	// Create Bubble Tea program
	p := tea.NewProgram(uiModel, tea.WithAltScreen(), tea.WithMouseCellMotion())
	uiModel.SetProgram(p)

	// Set up event forwarding to UI
	eventChan := make(chan eventbus.DomainEvent, 100)
	forward := func(e eventbus.DomainEvent) {
		select {
		case eventChan <- e:
		default:
			// Channel full, drop event
			log.Println("Event channel full, dropping event")
		}
	}
	bus.Subscribe(eventbus.EventMetadataLoaded, forward)
	bus.Subscribe(eventbus.EventDatasetLoaded, forward)
	bus.Subscribe(eventbus.EventLoadFailed, forward)

	// Start forwarding events to UI in background
	go func() {
		for event := range eventChan {
			p.Send(ui.EventMsg{Event: event})
		}
	}()

	// Kick off the two data fetches
	if err := loader.StartLoad(ctx); err != nil {
		log.Printf("Error starting load: %v", err)
	}

	// Run the UI
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}

	// Cleanup
	close(eventChan)
	cancel()
}

// openTileSource opens the tile archive named by the metadata, falling
// back to plain GeoJSON documents when no archive is available.
func openTileSource(cfg *config.Config, meta domain.Metadata) (tiles.Source, error) {
	if meta.Files.PMTiles != "" {
		location := cfg.ResolveDataURL(meta.Files.PMTiles)
		if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
			data, err := fetchArchive(location)
			if err != nil {
				return nil, err
			}
			return tiles.NewArchiveSource(bytes.NewReader(data))
		}
		return tiles.OpenArchive(location)
	}

	parks, err := os.ReadFile(filepath.Join(cfg.DataDir, "parks.json"))
	if err != nil {
		return nil, fmt.Errorf("no tile archive and no geojson fallback: %w", err)
	}
	benches, err := os.ReadFile(filepath.Join(cfg.DataDir, "benches.json"))
	if err != nil {
		return nil, fmt.Errorf("reading benches geojson: %w", err)
	}
	return tiles.NewDocumentSource(parks, benches)
}

func fetchArchive(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetching %s: %s", url, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/noborus/ov/oviewer"

	"benchmap/internal/domain"
)

// renderParkDetail builds the pager content for the selected park.
func renderParkDetail(park domain.ParkRecord, meta *domain.Metadata) string {
	b := &strings.Builder{}

	fmt.Fprintf(b, "%s\n", park.Name)
	fmt.Fprintf(b, "%s\n\n", strings.Repeat("=", len(park.Name)))

	if place := park.Place(); place != "" {
		fmt.Fprintf(b, "Location:  %s\n", place)
	}
	fmt.Fprintf(b, "Benches:   %d\n", park.Count)
	if park.Capacity > 0 {
		fmt.Fprintf(b, "Capacity:  %d seats\n", park.Capacity)
	}
	if park.Area > 0 {
		fmt.Fprintf(b, "Area:      %.0f m²\n", park.Area)
	}

	env := park.Envelope
	fmt.Fprintf(b, "Extent:    %.5f,%.5f to %.5f,%.5f\n",
		env.Min.Lon(), env.Min.Lat(), env.Max.Lon(), env.Max.Lat())
	fmt.Fprintf(b, "OSM:       https://www.openstreetmap.org/search?query=%d\n", park.OSMID)

	if meta != nil {
		fmt.Fprintf(b, "\nData from %s\n", meta.CreatedAt.Format())
	}

	return b.String()
}

// PagerOps shows content in the ov pager, releasing and restoring the
// terminal around it.
type PagerOps struct {
	program *tea.Program
}

// NewPagerOps creates a new pager operations instance
func NewPagerOps() *PagerOps {
	return &PagerOps{}
}

// SetProgram sets the program reference for terminal management
func (p *PagerOps) SetProgram(program *tea.Program) {
	p.program = program
}

// Show runs the ov pager over content, blocking until it exits.
func (p *PagerOps) Show(content string) error {
	if p.program == nil {
		return fmt.Errorf("program not set")
	}

	if err := p.program.ReleaseTerminal(); err != nil {
		return err
	}
	defer func() {
		// Small delay so ov has fully exited before restoring
		time.Sleep(100 * time.Millisecond)
		_ = p.program.RestoreTerminal()
	}()

	root, err := oviewer.NewRoot(strings.NewReader(content))
	if err != nil {
		return err
	}

	// Don't write pager content to the screen on exit
	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	root.SetConfig(config)

	return root.Run()
}

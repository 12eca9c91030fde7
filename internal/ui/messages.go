package ui

import (
	"time"

	"benchmap/internal/eventbus"
	"benchmap/internal/tiles"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// tickMsg is sent on a timer for the loading spinner
type tickMsg time.Time

// blurTickMsg closes the results panel after the search input loses
// focus. The generation counter cancels a pending close when the input
// is refocused before the tick fires.
type blurTickMsg struct {
	gen int
}

// sourceReadyMsg contains the result of opening the tile source
type sourceReadyMsg struct {
	source tiles.Source
	err    error
}

// pagerDoneMsg contains the result of the park detail pager
type pagerDoneMsg struct {
	err error
}

// clearStatusMsg expires a transient status bar message
type clearStatusMsg struct {
	gen int
}

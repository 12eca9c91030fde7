package dataset

import (
	"errors"
	"fmt"
)

// ErrorKind classifies load failures. All kinds degrade to the same
// empty UI state; the kind is surfaced in the status bar only.
type ErrorKind int

const (
	// NetworkFailure: fetch failed outright or returned a non-2xx status.
	NetworkFailure ErrorKind = iota + 1
	// DecodeFailure: payload arrived but could not be decoded.
	DecodeFailure
	// EmptyResult: payload decoded fine but held zero records.
	EmptyResult
)

func (k ErrorKind) String() string {
	switch k {
	case NetworkFailure:
		return "network failure"
	case DecodeFailure:
		return "decode failure"
	case EmptyResult:
		return "empty result"
	default:
		return "unknown"
	}
}

// LoadError wraps a failure with its kind and the stage it occurred in.
type LoadError struct {
	Kind  ErrorKind
	Stage string // domain.StageMetadata or domain.StageParkStats
	Err   error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// KindOf extracts the ErrorKind from err, or 0 when err is not a LoadError.
func KindOf(err error) ErrorKind {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Kind
	}
	return 0
}

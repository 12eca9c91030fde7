package logic

import (
	"strings"

	"benchmap/internal/domain"
)

// MaxResults caps the filtered list to bound rendering cost.
const MaxResults = 2000

// Filter returns the parks matching query, preserving dataset order and
// capped at limit. Matching is a case-insensitive substring test over
// name, city and state. An empty query matches everything.
func Filter(parks []domain.ParkRecord, query string, limit int) []domain.ParkRecord {
	if limit <= 0 {
		limit = MaxResults
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	out := make([]domain.ParkRecord, 0, min(len(parks), limit))
	for _, p := range parks {
		if needle != "" && !strings.Contains(p.SearchText(), needle) {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out
}

// ClampIndex clamps a highlight index to [0, length-1]; an empty list
// yields 0, which callers must ignore.
func ClampIndex(index, length int) int {
	if length <= 0 || index < 0 {
		return 0
	}
	if index >= length {
		return length - 1
	}
	return index
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

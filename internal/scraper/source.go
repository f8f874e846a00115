// Package scraper collects job postings from external boards and runs the
// digest cycle over them.
package scraper

import (
	"context"
	"time"

	"jobmate/digest-service/internal/model"
)

// Query is one (search term, location) pair.
type Query struct {
	Keywords   string
	Location   string
	MaxResults int
}

// Searcher is a job board that answers keyword searches. Implementations
// return records in the order the board listed them.
type Searcher interface {
	Name() string
	Search(ctx context.Context, q Query) ([]model.RawRecord, error)
}

// Clock returns the current time. The worker takes one so runs can be
// replayed in tests.
type Clock func() time.Time

// Package resolve defines the media resolver collaborator boundary.
// The scheduler consumes this interface; concrete implementations live
// under internal/infra.
package resolve

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
)

// Metadata describes one resolved media item.
type Metadata struct {
	SourceURL       string
	Title           string
	DurationSeconds int // 0 if unknown or live
}

// Result is the outcome of resolving a query. A single video yields one
// entry; a playlist URL yields several and must be expanded by the
// caller via a bulk import rather than treated as one item.
type Result struct {
	Title   string // Playlist title, empty for single items
	Entries []Metadata
}

// IsPlaylist reports whether the result expanded to multiple items.
func (r *Result) IsPlaylist() bool {
	return len(r.Entries) > 1
}

// Resolver turns a URL or search string into playable metadata,
// optionally downloading the media up front.
type Resolver interface {
	Resolve(ctx context.Context, query string, wantDownload bool) (*Result, error)
}

// ExtractionError reports that the resolver could not extract playable
// media for a query.
type ExtractionError struct {
	Query string
	Cause error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("could not extract media for %q: %v", e.Query, e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// NewExtractionError wraps a resolver failure for the given query.
func NewExtractionError(query string, cause error) error {
	return &ExtractionError{Query: query, Cause: cause}
}

// IsExtraction reports whether the error is an extraction failure.
func IsExtraction(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee)
}

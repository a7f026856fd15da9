package core

import (
	"context"
	"errors"
	"fmt"
)

// Page size bounds accepted by FetchAllPages.
const (
	MinPageSize = 1
	MaxPageSize = 100
)

var (
	// ErrInvalidPageSize is returned before any request when the page size is out of range.
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
	// ErrMalformedPage is returned when a page envelope lacks items or pagination metadata.
	ErrMalformedPage = errors.New("malformed page envelope")
)

// Page is one response unit of a paginated API. A nil Items slice or a nil
// TotalPages means the envelope was missing that part.
type Page[T any] struct {
	Items      []T
	TotalPages *int
}

// PageFunc fetches one page. Page numbers start at 1.
type PageFunc[T any] func(ctx context.Context, pageSize, pageNumber int) (Page[T], error)

// FetchAllPages requests pages 1, 2, ... in order until the total page count
// reported by the source is reached, and returns every item in page order.
// Any failure discards everything accumulated so far.
func FetchAllPages[T any](ctx context.Context, pageSize int, fetch PageFunc[T]) ([]T, error) {
	if pageSize < MinPageSize || pageSize > MaxPageSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPageSize, pageSize)
	}

	var all []T
	for page, total := 1, 1; page <= total; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		env, err := fetch(ctx, pageSize, page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		if env.Items == nil {
			return nil, fmt.Errorf("%w: page %d has no items list", ErrMalformedPage, page)
		}
		if env.TotalPages == nil {
			return nil, fmt.Errorf("%w: page %d has no total page count", ErrMalformedPage, page)
		}
		total = *env.TotalPages
		all = append(all, env.Items...)
	}
	if all == nil {
		all = []T{}
	}
	return all, nil
}

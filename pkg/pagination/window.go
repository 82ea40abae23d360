package pagination

import (
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultPageNumber is used when a request does not name a page.
	DefaultPageNumber = 1

	// DefaultPageSize is used when a request does not name a page size.
	DefaultPageSize = 50
)

// ErrInvalidPage is returned for non-positive page numbers or sizes, and for
// pages whose end offset does not fit in an int.
var ErrInvalidPage = errors.New("invalid page")

// Window is a half-open range [Start, End) over an ordered result set.
type Window struct {
	Start int
	End   int
}

// NewWindow resolves a 1-based page number and a page size into a window.
func NewWindow(pageNumber, pageSize int) (Window, error) {
	if pageNumber < 1 {
		return Window{}, fmt.Errorf("%w: page number %d must be >= 1", ErrInvalidPage, pageNumber)
	}
	if pageSize < 1 {
		return Window{}, fmt.Errorf("%w: page size %d must be >= 1", ErrInvalidPage, pageSize)
	}

	if pageNumber-1 > (math.MaxInt-pageSize)/pageSize {
		return Window{}, fmt.Errorf("%w: page %d of size %d is out of range", ErrInvalidPage, pageNumber, pageSize)
	}

	start := (pageNumber - 1) * pageSize
	return Window{Start: start, End: start + pageSize}, nil
}

// Size returns the number of positions the window covers.
func (w Window) Size() int {
	return w.End - w.Start
}

// String renders the window as [start,end).
func (w Window) String() string {
	return fmt.Sprintf("[%d,%d)", w.Start, w.End)
}

// Slice returns the part of items covered by w.
func Slice[T any](items []T, w Window) []T {
	if w.Start >= len(items) || w.Size() <= 0 {
		return []T{}
	}

	end := w.End
	if end > len(items) {
		end = len(items)
	}
	return items[w.Start:end]
}

// Package pagination converts 1-based page requests into result windows.
//
// A page request (pageNumber, pageSize) resolves to the half-open window
// [start, start+pageSize) where start = (pageNumber-1) * pageSize:
//
//	w, err := pagination.NewWindow(3, 2)
//	// w.Start == 4, w.End == 6, w.Size() == 2
//
// The window is what the search index receives as "from"/"size" and what
// becomes part of a search cache key, so two requests for the same page of
// the same query always resolve to the same window.
//
// Slice applies a window to an in-memory result set. A window that starts at
// or beyond the end of the set yields an empty slice, never an error.
package pagination

// Package query builds index-query descriptors for catalog searches.
//
// A Descriptor is the resolved, executable form of a search request: free
// text, an optional filter predicate, an optional sort directive and a
// pagination window. Descriptors are deterministic; Canonical renders the
// exact string used in search cache keys and Source renders the request body
// sent to the search index.
package query

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Sternrassler/catalog-search/pkg/pagination"
)

// Predicate is a resolved filter: document field Field must equal Value.
// When Path is set the field lives inside the nested objects under Path.
type Predicate struct {
	// Name is the caller-facing filter name (e.g. "genre").
	Name  string
	Path  string
	Field string
	Value string
}

// Sort is a resolved sort directive.
type Sort struct {
	// Name is the caller-facing field name as requested.
	Name string

	// Field is the index field sorted on.
	Field string

	Desc bool
}

// Directive renders the sort back in request syntax ("-name" for descending).
func (s Sort) Directive() string {
	if s.Desc {
		return "-" + s.Name
	}
	return s.Name
}

// Descriptor is a fully resolved search request.
type Descriptor struct {
	// Text is the whitespace-normalised free-text term. Empty matches all.
	Text string

	// Fields are the boosted match fields ("title^4").
	Fields []string

	Filter *Predicate
	Sort   *Sort

	From int
	Size int
}

// WithWindow returns a copy of d restricted to the window w.
func (d Descriptor) WithWindow(w pagination.Window) Descriptor {
	d.From = w.Start
	d.Size = w.Size()
	return d
}

// Window returns the pagination window of d.
func (d Descriptor) Window() pagination.Window {
	return pagination.Window{Start: d.From, End: d.From + d.Size}
}

// Canonical renders d with a fixed key order:
//
//	{from:0,size:50,query:"star trek",filter:genre="<id>",sort:-imdb_rating}
//
// Absent parts are omitted. Text and filter values are quoted so user input
// cannot produce another descriptor's rendering.
func (d Descriptor) Canonical() string {
	parts := []string{
		fmt.Sprintf("from:%d", d.From),
		fmt.Sprintf("size:%d", d.Size),
	}

	if d.Text != "" {
		parts = append(parts, "query:"+strconv.Quote(d.Text))
	}
	if d.Filter != nil {
		parts = append(parts, fmt.Sprintf("filter:%s=%s", d.Filter.Name, strconv.Quote(d.Filter.Value)))
	}
	if d.Sort != nil {
		parts = append(parts, "sort:"+d.Sort.Directive())
	}

	return "{" + strings.Join(parts, ",") + "}"
}

// String implements fmt.Stringer.
func (d Descriptor) String() string {
	return d.Canonical()
}

// Source returns the search request body as a JSON-ready value.
func (d Descriptor) Source() map[string]any {
	var match any = map[string]any{"match_all": map[string]any{}}
	if d.Text != "" {
		fields := make([]string, len(d.Fields))
		copy(fields, d.Fields)
		match = map[string]any{
			"multi_match": map[string]any{
				"query":  d.Text,
				"fields": fields,
				"type":   "best_fields",
			},
		}
	}

	q := match
	if d.Filter != nil {
		var term any = map[string]any{
			"term": map[string]any{d.Filter.Field: d.Filter.Value},
		}
		if d.Filter.Path != "" {
			term = map[string]any{
				"nested": map[string]any{
					"path":  d.Filter.Path,
					"query": map[string]any{"bool": map[string]any{"filter": term}},
				},
			}
		}
		q = map[string]any{
			"bool": map[string]any{
				"must":   []any{match},
				"filter": []any{term},
			},
		}
	}

	src := map[string]any{
		"from":  d.From,
		"size":  d.Size,
		"query": q,
	}

	if d.Sort != nil {
		order := "asc"
		if d.Sort.Desc {
			order = "desc"
		}
		src["sort"] = []any{
			map[string]any{d.Sort.Field: map[string]any{"order": order}},
		}
	}

	return src
}

// Body returns Source encoded as JSON. Map keys are emitted sorted, so equal
// descriptors always produce identical bytes.
func (d Descriptor) Body() ([]byte, error) {
	body, err := json.Marshal(d.Source())
	if err != nil {
		return nil, fmt.Errorf("encode query body: %w", err)
	}
	return body, nil
}

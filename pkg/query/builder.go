package query

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Sternrassler/catalog-search/pkg/pagination"
	"github.com/google/uuid"
)

// ErrInvalidInput indicates caller-supplied query syntax the builder refuses.
var ErrInvalidInput = errors.New("invalid input")

var sortPattern = regexp.MustCompile(`^-?[A-Za-z_]+$`)

// Filter is a caller-supplied filter such as filter[genre]=<id>.
type Filter struct {
	Name  string
	Value string
}

// Builder turns a search request into a Descriptor.
type Builder interface {
	Build(text string, filter *Filter, sort string) (Descriptor, error)
}

// FilterSpec describes how a named filter maps onto index fields.
type FilterSpec struct {
	Path  string
	Field string
}

// Spec configures a Builder for one entity type.
type Spec struct {
	// Fields are the boosted multi-match fields.
	Fields []string

	// Sortable maps caller-facing sort names to index fields.
	Sortable map[string]string

	// Filters maps caller-facing filter names to index predicates.
	Filters map[string]FilterSpec
}

// SpecBuilder is the Builder for a fixed Spec.
type SpecBuilder struct {
	spec Spec
}

// NewBuilder creates a Builder for spec.
func NewBuilder(spec Spec) *SpecBuilder {
	return &SpecBuilder{spec: spec}
}

// Build resolves text, filter and sort into a descriptor covering the
// default first page. Callers narrow the window with Descriptor.WithWindow.
//
// A sort name outside Spec.Sortable is passed to the index
// unchanged; the index reports it when the query executes.
func (b *SpecBuilder) Build(text string, filter *Filter, sort string) (Descriptor, error) {
	d := Descriptor{
		Text: strings.Join(strings.Fields(text), " "),
		From: 0,
		Size: pagination.DefaultPageSize,
	}
	if d.Text != "" {
		d.Fields = b.spec.Fields
	}

	if filter != nil && filter.Value != "" {
		p, err := b.predicate(*filter)
		if err != nil {
			return Descriptor{}, err
		}
		d.Filter = p
	}

	if sort != "" {
		s, err := b.sort(sort)
		if err != nil {
			return Descriptor{}, err
		}
		d.Sort = s
	}

	return d, nil
}

func (b *SpecBuilder) predicate(f Filter) (*Predicate, error) {
	fs, ok := b.spec.Filters[f.Name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown filter %q", ErrInvalidInput, f.Name)
	}
	if err := uuid.Validate(f.Value); err != nil {
		return nil, fmt.Errorf("%w: filter %s value %q: %v", ErrInvalidInput, f.Name, f.Value, err)
	}

	return &Predicate{
		Name:  f.Name,
		Path:  fs.Path,
		Field: fs.Field,
		Value: f.Value,
	}, nil
}

func (b *SpecBuilder) sort(directive string) (*Sort, error) {
	if !sortPattern.MatchString(directive) {
		return nil, fmt.Errorf("%w: sort %q", ErrInvalidInput, directive)
	}

	name := strings.TrimPrefix(directive, "-")
	field, ok := b.spec.Sortable[name]
	if !ok {
		field = name
	}

	return &Sort{
		Name:  name,
		Field: field,
		Desc:  strings.HasPrefix(directive, "-"),
	}, nil
}

// FilmSpec is the search configuration for films.
func FilmSpec() Spec {
	return Spec{
		Fields: []string{
			"title^4",
			"description^3",
			"genres_names^2",
			"actors_names^4",
			"writers_names",
			"directors_names^3",
		},
		Sortable: map[string]string{
			"imdb_rating": "imdb_rating",
			"title":       "title.raw",
		},
		Filters: map[string]FilterSpec{
			"genre": {Path: "genres", Field: "genres.id"},
		},
	}
}

// GenreSpec is the search configuration for genres.
func GenreSpec() Spec {
	return Spec{
		Fields: []string{"name^3", "description"},
		Sortable: map[string]string{
			"name": "name.raw",
		},
	}
}

// PersonSpec is the search configuration for persons.
func PersonSpec() Spec {
	return Spec{
		Fields: []string{"full_name^3"},
		Sortable: map[string]string{
			"full_name": "full_name.raw",
		},
		Filters: map[string]FilterSpec{
			"film": {Field: "film_ids"},
		},
	}
}

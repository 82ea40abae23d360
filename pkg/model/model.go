// Package model defines the catalog records served by the search API.
//
// Records are plain values: they carry no behaviour beyond reporting their
// identifier, and nested summaries never point back at their parent.
package model

// Entity is the constraint every cacheable, indexable record satisfies.
type Entity interface {
	// EntityID returns the record's unique identifier within its type.
	EntityID() string
}

// PersonSummary is a person reference embedded in a film.
type PersonSummary struct {
	ID   string `json:"id" msgpack:"id"`
	Name string `json:"name" msgpack:"name"`
}

// GenreSummary is a genre reference embedded in a film.
type GenreSummary struct {
	ID   string `json:"id" msgpack:"id"`
	Name string `json:"name" msgpack:"name"`
}

// FilmSummary is a film reference embedded in a genre.
type FilmSummary struct {
	ID         string  `json:"id" msgpack:"id"`
	Title      string  `json:"title" msgpack:"title"`
	IMDBRating float64 `json:"imdb_rating" msgpack:"imdb_rating"`
}

// Film is a work indexed in the "movies" index.
type Film struct {
	ID             string          `json:"id" msgpack:"id"`
	Title          string          `json:"title" msgpack:"title"`
	IMDBRating     float64         `json:"imdb_rating" msgpack:"imdb_rating"`
	Description    string          `json:"description" msgpack:"description"`
	Genres         []GenreSummary  `json:"genres" msgpack:"genres"`
	Actors         []PersonSummary `json:"actors" msgpack:"actors"`
	Writers        []PersonSummary `json:"writers" msgpack:"writers"`
	Directors      []PersonSummary `json:"directors" msgpack:"directors"`
	GenresNames    []string        `json:"genres_names" msgpack:"genres_names"`
	ActorsNames    []string        `json:"actors_names" msgpack:"actors_names"`
	WritersNames   []string        `json:"writers_names" msgpack:"writers_names"`
	DirectorsNames []string        `json:"directors_names" msgpack:"directors_names"`
}

// EntityID implements Entity.
func (f Film) EntityID() string { return f.ID }

// Genre is a category indexed in the "genres" index.
type Genre struct {
	ID          string        `json:"id" msgpack:"id"`
	Name        string        `json:"name" msgpack:"name"`
	Description string        `json:"description" msgpack:"description"`
	Filmworks   []FilmSummary `json:"filmworks" msgpack:"filmworks"`
}

// EntityID implements Entity.
func (g Genre) EntityID() string { return g.ID }

// Person is a contributor indexed in the "persons" index.
type Person struct {
	ID       string   `json:"id" msgpack:"id"`
	FullName string   `json:"full_name" msgpack:"full_name"`
	Roles    []string `json:"roles" msgpack:"roles"`
	FilmIDs  []string `json:"film_ids" msgpack:"film_ids"`
}

// EntityID implements Entity.
func (p Person) EntityID() string { return p.ID }

// Entity type names used in cache keys.
const (
	FilmType   = "Film"
	GenreType  = "Genre"
	PersonType = "Person"
)

// Index names in the search cluster.
const (
	FilmIndex   = "movies"
	GenreIndex  = "genres"
	PersonIndex = "persons"
)

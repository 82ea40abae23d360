package api

import "github.com/Sternrassler/catalog-search/pkg/model"

const (
	filmNotFound   = "film not found"
	genreNotFound  = "genre not found"
	personNotFound = "person not found"
)

// errorResponse is the body of every error answer.
type errorResponse struct {
	Detail string `json:"detail"`
}

// filmShort is a film in search results.
type filmShort struct {
	UUID       string  `json:"uuid"`
	Title      string  `json:"title"`
	IMDBRating float64 `json:"imdb_rating"`
}

// filmDetail is a single film.
type filmDetail struct {
	UUID        string      `json:"uuid"`
	Title       string      `json:"title"`
	IMDBRating  float64     `json:"imdb_rating"`
	Description string      `json:"description"`
	Genres      []namedRef  `json:"genre"`
	Actors      []personRef `json:"actors"`
	Writers     []personRef `json:"writers"`
	Directors   []personRef `json:"directors"`
}

// namedRef is a genre embedded in a film.
type namedRef struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// personRef is a person embedded in a film.
type personRef struct {
	UUID     string `json:"uuid"`
	FullName string `json:"full_name"`
}

// genreShort is a genre in search results.
type genreShort struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// genreDetail is a single genre.
type genreDetail struct {
	UUID        string      `json:"uuid"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Films       []filmShort `json:"films"`
}

// personShort is a person in search results and details.
type personShort struct {
	UUID     string   `json:"uuid"`
	FullName string   `json:"full_name"`
	Roles    []string `json:"role"`
	FilmIDs  []string `json:"film_ids"`
}

func newFilmShort(f model.Film) filmShort {
	return filmShort{UUID: f.ID, Title: f.Title, IMDBRating: f.IMDBRating}
}

func newFilmDetail(f model.Film) filmDetail {
	genres := make([]namedRef, 0, len(f.Genres))
	for _, g := range f.Genres {
		genres = append(genres, namedRef{UUID: g.ID, Name: g.Name})
	}
	return filmDetail{
		UUID:        f.ID,
		Title:       f.Title,
		IMDBRating:  f.IMDBRating,
		Description: f.Description,
		Genres:      genres,
		Actors:      newPersonRefs(f.Actors),
		Writers:     newPersonRefs(f.Writers),
		Directors:   newPersonRefs(f.Directors),
	}
}

func newPersonRefs(persons []model.PersonSummary) []personRef {
	refs := make([]personRef, 0, len(persons))
	for _, p := range persons {
		refs = append(refs, personRef{UUID: p.ID, FullName: p.Name})
	}
	return refs
}

func newGenreShort(g model.Genre) genreShort {
	return genreShort{UUID: g.ID, Name: g.Name}
}

func newGenreDetail(g model.Genre) genreDetail {
	films := make([]filmShort, 0, len(g.Filmworks))
	for _, f := range g.Filmworks {
		films = append(films, filmShort{UUID: f.ID, Title: f.Title, IMDBRating: f.IMDBRating})
	}
	return genreDetail{UUID: g.ID, Name: g.Name, Description: g.Description, Films: films}
}

func newPersonShort(p model.Person) personShort {
	roles := p.Roles
	if roles == nil {
		roles = []string{}
	}
	filmIDs := p.FilmIDs
	if filmIDs == nil {
		filmIDs = []string{}
	}
	return personShort{UUID: p.ID, FullName: p.FullName, Roles: roles, FilmIDs: filmIDs}
}

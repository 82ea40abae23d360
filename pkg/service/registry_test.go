package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Sternrassler/catalog-search/internal/testutil"
	"github.com/Sternrassler/catalog-search/pkg/cache"
	"github.com/Sternrassler/catalog-search/pkg/model"
	"github.com/Sternrassler/catalog-search/pkg/query"
	"github.com/Sternrassler/catalog-search/pkg/service"
	"github.com/Sternrassler/catalog-search/pkg/storage"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	genreActionID      = "5017d3c9-3cb5-4cd1-a329-3c99a253bcf3"
	genreDocumentaryID = "59e89fb7-639c-41fa-b829-a9261bad1114"
	genreHorrorID      = "6d141ad2-d407-4252-bda4-95590aaf062a"
	filmID             = "93d538fe-1328-4b4c-a327-f61a80f25a3c"
	personID           = "0040371d-f875-4d42-ab17-ffaf3cacfb91"
)

type fixture struct {
	registry *service.Registry
	index    *testutil.MemoryIndex
	redis    *miniredis.Miniredis
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	index := testutil.NewMemoryIndex()
	docs := []struct {
		index string
		id    string
		doc   any
	}{
		{model.GenreIndex, genreActionID, model.Genre{ID: genreActionID, Name: "Action"}},
		{model.GenreIndex, genreDocumentaryID, model.Genre{ID: genreDocumentaryID, Name: "Documentary"}},
		{model.GenreIndex, genreHorrorID, model.Genre{ID: genreHorrorID, Name: "Horror"}},
		{model.FilmIndex, filmID, model.Film{
			ID: filmID, Title: "The Star", IMDBRating: 8.5,
			Genres:      []model.GenreSummary{{ID: genreActionID, Name: "Action"}},
			GenresNames: []string{"Action"},
			Actors:      []model.PersonSummary{{ID: personID, Name: "Chris Cooper"}},
		}},
		{model.PersonIndex, personID, model.Person{ID: personID, FullName: "Chris Cooper", Roles: []string{"actor"}, FilmIDs: []string{filmID}}},
	}
	for _, d := range docs {
		require.NoError(t, index.Put(d.index, d.id, d.doc))
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })

	registry := service.NewRegistry(index, cache.NewRedisStore(client), service.RegistryConfig{
		TTL:    5 * time.Minute,
		Codec:  cache.JSONCodec{},
		Logger: zerolog.Nop(),
	})

	return fixture{registry: registry, index: index, redis: mr}
}

func TestRegistry_GenreSearchScenario(t *testing.T) {
	f := newFixture(t)

	got, err := f.registry.Genres.Search(context.Background(), service.SearchParams{
		Sort:       "-name",
		PageNumber: 1,
		PageSize:   50,
	})
	require.NoError(t, err)

	names := make([]string, 0, len(got))
	for _, g := range got {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{"Horror", "Documentary", "Action"}, names)

	key := "Genre:query:{from:0,size:50,sort:-name}"
	raw, err := f.redis.Get(key)
	require.NoError(t, err, "expected key %s, have %v", key, f.redis.Keys())

	var cached []model.Genre
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	assert.Equal(t, got, cached)
	assert.Equal(t, 5*time.Minute, f.redis.TTL(key))
}

func TestRegistry_GetByIDReadThrough(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	film, ok, err := f.registry.Films.GetByID(ctx, filmID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "The Star", film.Title)
	assert.Equal(t, 1, f.index.GetCalls())
	assert.True(t, f.redis.Exists("Film:id:"+filmID))

	_, ok, err = f.registry.Films.GetByID(ctx, filmID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, f.index.GetCalls(), "second lookup should not reach the index")
}

func TestRegistry_CacheOutage(t *testing.T) {
	f := newFixture(t)
	f.redis.Close()

	genre, ok, err := f.registry.Genres.GetByID(context.Background(), genreHorrorID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Horror", genre.Name)
}

func TestRegistry_PersonFilms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	person, ok, err := f.registry.Persons.GetByID(ctx, personID)
	require.NoError(t, err)
	require.True(t, ok)

	films, err := f.registry.Films.BulkGetByIDs(ctx, append(person.FilmIDs, "d3a8c7a2-0000-4000-8000-000000000000"))
	require.NoError(t, err)
	require.Len(t, films, 1)
	assert.Equal(t, filmID, films[0].ID)

	f.index.ResetCalls()
	films, err = f.registry.Films.BulkGetByIDs(ctx, person.FilmIDs)
	require.NoError(t, err)
	require.Len(t, films, 1)
	assert.Zero(t, f.index.MGetCalls(), "cached films need no index call")
}

func TestRegistry_FilmGenreFilter(t *testing.T) {
	f := newFixture(t)

	films, err := f.registry.Films.Search(context.Background(), service.SearchParams{
		Filter: &query.Filter{Name: "genre", Value: genreActionID},
		Sort:   "-imdb_rating",
	})
	require.NoError(t, err)
	require.Len(t, films, 1)

	assert.True(t, f.redis.Exists(`Film:query:{from:0,size:50,filter:genre="`+genreActionID+`",sort:-imdb_rating}`),
		"keys: %v", f.redis.Keys())

	films, err = f.registry.Films.Search(context.Background(), service.SearchParams{
		Filter: &query.Filter{Name: "genre", Value: genreHorrorID},
	})
	require.NoError(t, err)
	assert.Empty(t, films)
}

func TestRegistry_UnknownSort(t *testing.T) {
	f := newFixture(t)

	_, err := f.registry.Persons.Search(context.Background(), service.SearchParams{Sort: "incorrect_sort"})
	assert.ErrorIs(t, err, storage.ErrMalformedQuery)
}

// Package api exposes the catalog read-through services over HTTP.
//
// Routes:
//
//	GET /api/v1/films                search films (query, filter[genre], sort, page[number], page[size])
//	GET /api/v1/films/:id            film details
//	GET /api/v1/genres               search genres (query, sort, page[number], page[size])
//	GET /api/v1/genres/:id           genre details
//	GET /api/v1/persons              search persons (query, filter[film], sort, page[number], page[size])
//	GET /api/v1/persons/:id          person details
//	GET /api/v1/persons/:id/films    films of a person
//	GET /health                      liveness
//	GET /ready                       readiness (index and cache reachable)
//	GET /metrics                     Prometheus metrics
//
// An empty search result or an unknown id answers 404. Errors carry a JSON
// body of the form {"detail": "..."}.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/Sternrassler/catalog-search/pkg/metrics"
	"github.com/Sternrassler/catalog-search/pkg/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

// Options configures a Server.
type Options struct {
	// RequestTimeout bounds each request. Zero disables the limit.
	RequestTimeout time.Duration

	// Checks are run by /ready, keyed by dependency name.
	Checks map[string]Check

	Logger zerolog.Logger
}

// Server is the HTTP front-end of the catalog services.
type Server struct {
	router   *gin.Engine
	registry *service.Registry
	checks   map[string]Check
	logger   zerolog.Logger
}

// NewServer creates the router and registers every route.
func NewServer(registry *service.Registry, opts Options) *Server {
	if registry == nil {
		panic("service registry cannot be nil")
	}

	router := gin.New()
	router.Use(Recovery(opts.Logger))
	router.Use(RequestLogger(opts.Logger))
	if opts.RequestTimeout > 0 {
		router.Use(Timeout(opts.RequestTimeout))
	}

	s := &Server{
		router:   router,
		registry: registry,
		checks:   opts.Checks,
		logger:   opts.Logger,
	}
	s.setupRoutes()

	return s
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api/v1")
	{
		films := api.Group("/films")
		{
			films.GET("", handleSearch(s.registry.Films, "genre", filmNotFound, newFilmShort))
			films.GET("/:id", handleDetail(s.registry.Films, filmNotFound, newFilmDetail))
		}

		genres := api.Group("/genres")
		{
			genres.GET("", handleSearch(s.registry.Genres, "", genreNotFound, newGenreShort))
			genres.GET("/:id", handleDetail(s.registry.Genres, genreNotFound, newGenreDetail))
		}

		persons := api.Group("/persons")
		{
			persons.GET("", handleSearch(s.registry.Persons, "film", personNotFound, newPersonShort))
			persons.GET("/:id", handleDetail(s.registry.Persons, personNotFound, newPersonShort))
			persons.GET("/:id/films", s.handlePersonFilms())
		}
	}

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/ready", s.handleReady())
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))
}

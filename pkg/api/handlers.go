package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/Sternrassler/catalog-search/pkg/model"
	"github.com/Sternrassler/catalog-search/pkg/pagination"
	"github.com/Sternrassler/catalog-search/pkg/query"
	"github.com/Sternrassler/catalog-search/pkg/service"
	"github.com/Sternrassler/catalog-search/pkg/storage"
	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var sortSyntax = regexp.MustCompile(`^-?[a-zA-Z_]+$`)

// handleSearch serves a search over one entity type. filterName is the
// accepted filter[...] parameter, or empty when the type has none.
func handleSearch[T model.Entity, R any](svc *service.ReadThrough[T], filterName, notFound string, render func(T) R) gin.HandlerFunc {
	return func(c *gin.Context) {
		params, err := parseSearchParams(c, filterName)
		if err != nil {
			respondError(c, err)
			return
		}

		entities, err := svc.Search(c.Request.Context(), params)
		if err != nil {
			respondError(c, err)
			return
		}
		if len(entities) == 0 {
			c.JSON(http.StatusNotFound, errorResponse{Detail: notFound})
			return
		}

		out := make([]R, 0, len(entities))
		for _, e := range entities {
			out = append(out, render(e))
		}
		c.JSON(http.StatusOK, out)
	}
}

// handleDetail serves a single entity by id. Ids that are not UUIDs cannot
// exist and answer 404.
func handleDetail[T model.Entity, R any](svc *service.ReadThrough[T], notFound string, render func(T) R) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			c.JSON(http.StatusNotFound, errorResponse{Detail: notFound})
			return
		}

		entity, found, err := svc.GetByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, errorResponse{Detail: notFound})
			return
		}
		c.JSON(http.StatusOK, render(entity))
	}
}

// handlePersonFilms resolves the films a person took part in.
func (s *Server) handlePersonFilms() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			c.JSON(http.StatusNotFound, errorResponse{Detail: personNotFound})
			return
		}

		ctx := c.Request.Context()
		person, found, err := s.registry.Persons.GetByID(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, errorResponse{Detail: personNotFound})
			return
		}

		films, err := s.registry.Films.BulkGetByIDs(ctx, person.FilmIDs)
		if err != nil {
			respondError(c, err)
			return
		}
		if len(films) == 0 {
			c.JSON(http.StatusNotFound, errorResponse{Detail: filmNotFound})
			return
		}

		out := make([]filmShort, 0, len(films))
		for _, f := range films {
			out = append(out, newFilmShort(f))
		}
		c.JSON(http.StatusOK, out)
	}
}

// handleReady runs every dependency check.
func (s *Server) handleReady() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(s.checks))
		for name, check := range s.checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}

		c.JSON(status, results)
	}
}

func parseID(c *gin.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// parseSearchParams reads and validates the search query parameters.
func parseSearchParams(c *gin.Context, filterName string) (service.SearchParams, error) {
	pageNumber, numberErr := strconv.Atoi(c.DefaultQuery("page[number]", strconv.Itoa(pagination.DefaultPageNumber)))
	pageSize, sizeErr := strconv.Atoi(c.DefaultQuery("page[size]", strconv.Itoa(pagination.DefaultPageSize)))
	sort := c.Query("sort")

	var filter *query.Filter
	var filterErr error
	if filterName != "" {
		if value := c.Query("filter[" + filterName + "]"); value != "" {
			filter = &query.Filter{Name: filterName, Value: value}
			filterErr = validation.Validate(value, validation.By(isUUID))
		}
	}

	errs := validation.Errors{
		"page[number]": firstErr(numberErr, validation.Validate(pageNumber, validation.Min(1))),
		"page[size]":   firstErr(sizeErr, validation.Validate(pageSize, validation.Min(1))),
		"sort":         validation.Validate(sort, validation.Match(sortSyntax)),
	}
	if filterName != "" {
		errs["filter["+filterName+"]"] = filterErr
	}
	if err := errs.Filter(); err != nil {
		return service.SearchParams{}, fmt.Errorf("%w: %v", query.ErrInvalidInput, err)
	}

	return service.SearchParams{
		Query:      c.Query("query"),
		Filter:     filter,
		Sort:       sort,
		PageNumber: pageNumber,
		PageSize:   pageSize,
	}, nil
}

func isUUID(value any) error {
	s, _ := value.(string)
	if err := uuid.Validate(s); err != nil {
		return errors.New("must be a valid UUID")
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return errors.New("must be a positive integer")
		}
	}
	return nil
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, query.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, storage.ErrMalformedQuery):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrStorageUnavailable), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	logger := zerolog.Ctx(c.Request.Context())

	detail := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status_code", status).Msg("Request failed")
		detail = http.StatusText(status)
	} else {
		logger.Debug().Err(err).Int("status_code", status).Msg("Request rejected")
	}

	c.JSON(status, errorResponse{Detail: detail})
}

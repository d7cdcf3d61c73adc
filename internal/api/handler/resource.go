package handler

import (
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/haulscale/weighbridge/internal/api/middleware"
	"github.com/haulscale/weighbridge/internal/core/domain"
	"github.com/haulscale/weighbridge/internal/core/ports"
)

// Request is implemented by pointers to request bodies that fill a row.
// Apply copies the request onto rec; on create rec is a zero row.
type Request[T any, R any] interface {
	*R
	Apply(rec *T)
}

// FilterKind selects how a list query parameter is parsed.
type FilterKind int

const (
	FilterString FilterKind = iota
	FilterBool
)

// Filters maps list query parameters to stored fields of the same name.
type Filters map[string]FilterKind

type pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type listResponse[T any] struct {
	Data       []*T       `json:"data"`
	Pagination pagination `json:"pagination"`
}

// Resource serves the CRUD routes of one tenant-owned entity. Tenant
// scoping happens in the service; the handler only binds and renders.
type Resource[T any, R any, PR Request[T, R]] struct {
	svc     ports.ResourceService[T]
	filters Filters
}

func NewResource[T any, R any, PR Request[T, R]](svc ports.ResourceService[T], filters Filters) *Resource[T, R, PR] {
	return &Resource[T, R, PR]{svc: svc, filters: filters}
}

func (h *Resource[T, R, PR]) List(c echo.Context) error {
	id, err := middleware.RequireIdentity(c)
	if err != nil {
		return err
	}
	q, err := listQuery(c, h.filters)
	if err != nil {
		return err
	}
	page, err := h.svc.List(c.Request().Context(), id, q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newListResponse(page))
}

func (h *Resource[T, R, PR]) Get(c echo.Context) error {
	id, err := middleware.RequireIdentity(c)
	if err != nil {
		return err
	}
	rec, err := h.svc.Get(c.Request().Context(), id, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Resource[T, R, PR]) Create(c echo.Context) error {
	id, err := middleware.RequireIdentity(c)
	if err != nil {
		return err
	}
	req, err := bindRequest[R](c)
	if err != nil {
		return err
	}
	rec := new(T)
	PR(req).Apply(rec)

	created, err := h.svc.Create(c.Request().Context(), id, rec)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Resource[T, R, PR]) Update(c echo.Context) error {
	id, err := middleware.RequireIdentity(c)
	if err != nil {
		return err
	}
	req, err := bindRequest[R](c)
	if err != nil {
		return err
	}
	updated, err := h.svc.Update(c.Request().Context(), id, c.Param("id"), func(rec *T) error {
		PR(req).Apply(rec)
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Resource[T, R, PR]) Delete(c echo.Context) error {
	id, err := middleware.RequireIdentity(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// bindRequest decodes and validates the request body.
func bindRequest[R any](c echo.Context) (*R, error) {
	req := new(R)
	if err := c.Bind(req); err != nil {
		return nil, err
	}
	if err := c.Validate(req); err != nil {
		return nil, err
	}
	return req, nil
}

// listQuery reads page, limit and the allow-listed equality filters.
func listQuery(c echo.Context, filters Filters) (ports.ListQuery, error) {
	var q ports.ListQuery
	err := echo.QueryParamsBinder(c).
		Int("page", &q.Page).
		Int("limit", &q.Limit).
		BindError()
	if err != nil {
		return q, fmt.Errorf("%w: page and limit must be integers", domain.ErrInvalidInput)
	}

	for _, name := range slices.Sorted(maps.Keys(filters)) {
		kind := filters[name]
		raw := c.QueryParam(name)
		if raw == "" {
			continue
		}
		switch kind {
		case FilterBool:
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return q, fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, name)
			}
			q.Filters = append(q.Filters, ports.Filter{Field: name, Value: v})
		default:
			q.Filters = append(q.Filters, ports.Filter{Field: name, Value: raw})
		}
	}
	return q, nil
}

func newListResponse[T any](page *ports.Page[T]) listResponse[T] {
	return listResponse[T]{
		Data: page.Items,
		Pagination: pagination{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      page.Total,
			TotalPages: page.TotalPages,
		},
	}
}

package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/render"
)

// ListResponse is the paginated envelope for list endpoints.
type ListResponse struct {
	Items      any `json:"items"`
	TotalCount int `json:"totalCount"`
}

// PageParams holds the optional page query. Present == false means the
// caller asked for the whole list (bare array response).
type PageParams struct {
	Present  bool
	Page     int
	PageSize int
}

func ParsePage(r *http.Request) PageParams {
	p := PageParams{Page: 1, PageSize: 10}

	raw := r.URL.Query().Get("page")
	if raw == "" {
		return p
	}
	p.Present = true

	if val, err := strconv.Atoi(raw); err == nil && val > 0 {
		p.Page = val
	}
	if raw := r.URL.Query().Get("pageSize"); raw != "" {
		if val, err := strconv.Atoi(raw); err == nil && val > 0 {
			p.PageSize = val
		}
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	return p
}

func respondJSON(w http.ResponseWriter, r *http.Request, v any) {
	render.JSON(w, r, v)
}

func respondCreated(w http.ResponseWriter, r *http.Request, v any) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, v)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": msg})
}

func badRequest(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, r, http.StatusBadRequest, err.Error())
}

func notFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusNotFound, "resource not found")
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusUnauthorized, "unauthorized")
}

func forbidden(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusForbidden, "forbidden")
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, r, http.StatusInternalServerError, err.Error())
}

package api

import (
	"encoding/json/v2"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/querydeckapp/querydeck-server/internal/http/response"
	"github.com/querydeckapp/querydeck-server/internal/service"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// parsePagination reads ?page= and ?limit= with defaults.
// Values are passed through to the service, which rejects page < 1; only
// the upper bound on limit is clamped here.
func parsePagination(r *http.Request) (pageSize, pageNumber int) {
	pageNumber = 1
	if p := r.URL.Query().Get("page"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			pageNumber = n
		}
	}

	pageSize = defaultPageSize
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			pageSize = min(n, maxPageSize)
		}
	}

	return pageSize, pageNumber
}

// handleListQueries serves the public catalog browse endpoint.
// ?search= takes precedence; otherwise ?type=stars|forks selects the
// ordering, and the default is store order.
func (s *Server) handleListQueries(w http.ResponseWriter, r *http.Request) {
	pageSize, pageNumber := parsePagination(r)

	var (
		queries []service.QueryWithUsername
		err     error
	)

	switch {
	case r.URL.Query().Get("search") != "":
		queries, err = s.catalog.Search(r.Context(), r.URL.Query().Get("search"), pageSize, pageNumber)
	case r.URL.Query().Get("type") == "stars":
		queries, err = s.catalog.ListByStars(r.Context(), pageSize, pageNumber)
	case r.URL.Query().Get("type") == "forks":
		queries, err = s.catalog.ListByForks(r.Context(), pageSize, pageNumber)
	default:
		queries, err = s.catalog.ListPublic(r.Context(), pageSize, pageNumber)
	}

	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, queries, s.logger)
}

// handleCreateQuery publishes a new query. The body's creator must match the
// authenticated user.
func (s *Server) handleCreateQuery(w http.ResponseWriter, r *http.Request) {
	var req service.CreateQueryRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if req.Creator != getUserID(r.Context()) {
		response.Unauthorized(w, "Creator does not match authenticated user", s.logger)
		return
	}

	query, err := s.catalog.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, query, s.logger)
}

// handleUpdateQuery modifies a query's mutable fields. Only the creator may
// update their query.
func (s *Server) handleUpdateQuery(w http.ResponseWriter, r *http.Request) {
	queryID := chi.URLParam(r, "id")

	existing, err := s.catalog.Get(r.Context(), queryID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	if existing.Creator != getUserID(r.Context()) {
		response.Forbidden(w, "Only the creator can update this query", s.logger)
		return
	}

	var req service.UpdateQueryRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	query, err := s.catalog.Update(r.Context(), queryID, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, query, s.logger)
}

// handleDeleteQuery removes a query. Only the creator may delete their query.
func (s *Server) handleDeleteQuery(w http.ResponseWriter, r *http.Request) {
	queryID := chi.URLParam(r, "id")

	existing, err := s.catalog.Get(r.Context(), queryID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	if existing.Creator != getUserID(r.Context()) {
		response.Forbidden(w, "Only the creator can delete this query", s.logger)
		return
	}

	if err := s.catalog.Delete(r.Context(), queryID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

// handleGetRevisions serves a query's revision log, oldest first.
func (s *Server) handleGetRevisions(w http.ResponseWriter, r *http.Request) {
	revisions, err := s.catalog.GetRevisions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, revisions, s.logger)
}

// handleStarQuery stars a query on behalf of the authenticated user.
func (s *Server) handleStarQuery(w http.ResponseWriter, r *http.Request) {
	query, err := s.catalog.Star(r.Context(), chi.URLParam(r, "id"), getUserID(r.Context()))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, query, s.logger)
}

// handleUnstarQuery removes the authenticated user's star.
func (s *Server) handleUnstarQuery(w http.ResponseWriter, r *http.Request) {
	query, err := s.catalog.UnStar(r.Context(), chi.URLParam(r, "id"), getUserID(r.Context()))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, query, s.logger)
}

// handleForkQuery clones a query for the authenticated user.
func (s *Server) handleForkQuery(w http.ResponseWriter, r *http.Request) {
	query, err := s.catalog.Fork(r.Context(), chi.URLParam(r, "id"), getUserID(r.Context()))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, query, s.logger)
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/querydeckapp/querydeck-server/internal/domain"
	"github.com/querydeckapp/querydeck-server/internal/errors"
	"github.com/querydeckapp/querydeck-server/internal/http/response"
	"github.com/querydeckapp/querydeck-server/internal/service"
)

// UserQueriesResponse bundles a user's profile with their visible queries.
type UserQueriesResponse struct {
	User    *domain.User                `json:"user"`
	Queries []service.QueryWithUsername `json:"queries"`
}

// handleGetUserQueries serves a user's profile together with their
// non-private queries. A user with no visible queries still gets their
// profile back with an empty list.
func (s *Server) handleGetUserQueries(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "uid")

	user, err := s.catalog.UserProfile(r.Context(), userID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	queries, err := s.catalog.ListForUser(r.Context(), userID)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			response.HandleError(w, err, s.logger)
			return
		}
		queries = []service.QueryWithUsername{}
	}

	response.Success(w, UserQueriesResponse{User: user, Queries: queries}, s.logger)
}

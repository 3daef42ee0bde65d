package api

import (
	"net/http"

	"github.com/querydeckapp/querydeck-server/internal/http/response"
)

// DeleteAllResponse reports the outcome of a bulk catalog delete.
type DeleteAllResponse struct {
	Deleted int `json:"deleted"`
}

// handleDeleteAllQueries wipes the whole catalog. Root-gated; individual
// failures are logged by the service and skipped.
func (s *Server) handleDeleteAllQueries(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.catalog.DeleteAll(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	s.logger.Info("Admin bulk delete", "deleted", deleted, "user_id", getUserID(r.Context()))
	response.Success(w, DeleteAllResponse{Deleted: deleted}, s.logger)
}

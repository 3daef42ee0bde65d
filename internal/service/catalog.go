// Package service implements the query catalog business logic on top of the
// store layer. Services return domain errors with machine-readable codes;
// the handler layer translates them into the response envelope.
package service

import (
	"context"
	"log/slog"
	"slices"

	"github.com/querydeckapp/querydeck-server/internal/domain"
	"github.com/querydeckapp/querydeck-server/internal/errors"
	"github.com/querydeckapp/querydeck-server/internal/id"
	"github.com/querydeckapp/querydeck-server/internal/store"
)

// QueryWithUsername is a query enriched with its creator's username for
// listing responses. Enrichment is best-effort: a failed user lookup leaves
// the username empty rather than failing the whole listing.
type QueryWithUsername struct {
	domain.Query
	Username string `json:"username"`
}

// CreateQueryRequest carries the fields a user supplies when publishing a
// new query to the catalog.
type CreateQueryRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=200"`
	Description string   `json:"description" validate:"max=2000"`
	Creator     string   `json:"creator" validate:"required"`
	Private     bool     `json:"private"`
	Text        string   `json:"query" validate:"required,min=1"`
	Tags        []string `json:"tags" validate:"max=20,dive,min=1,max=50"`
}

// UpdateQueryRequest carries the mutable fields of an existing query.
// Nil pointers mean "leave unchanged".
type UpdateQueryRequest struct {
	Title       *string  `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	Private     *bool    `json:"private,omitempty"`
	Text        *string  `json:"query,omitempty" validate:"omitempty,min=1"`
	Tags        []string `json:"tags,omitempty" validate:"omitempty,max=20,dive,min=1,max=50"`
}

// CatalogService coordinates queries, users, and the revision log.
type CatalogService struct {
	catalog store.Catalog
	users   store.Directory
	logger  *slog.Logger
}

// NewCatalogService creates a catalog service backed by the given store
// surfaces.
func NewCatalogService(catalog store.Catalog, users store.Directory, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		catalog: catalog,
		users:   users,
		logger:  logger,
	}
}

// withUsername resolves the creator's username for a single query.
func (s *CatalogService) withUsername(q *domain.Query) QueryWithUsername {
	enriched := QueryWithUsername{Query: *q}
	user, err := s.users.GetUser(q.Creator)
	if err != nil {
		s.logger.Warn("Failed to resolve creator username", "query_id", q.ID, "creator", q.Creator, "error", err)
		return enriched
	}
	enriched.Username = user.Username
	return enriched
}

func (s *CatalogService) enrich(queries []*domain.Query) []QueryWithUsername {
	out := make([]QueryWithUsername, 0, len(queries))
	for _, q := range queries {
		out = append(out, s.withUsername(q))
	}
	return out
}

// listVisible returns all non-private queries, optionally re-ordered by less.
func (s *CatalogService) listVisible(less func(a, b *domain.Query) int) ([]*domain.Query, error) {
	queries, err := s.catalog.ListQueries(func(q *domain.Query) bool {
		return !q.Private
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDBQuery, "failed to list queries")
	}
	if less != nil {
		slices.SortStableFunc(queries, less)
	}
	return queries, nil
}

// page applies pagination and the empty-page policy shared by all listings.
func (s *CatalogService) page(queries []*domain.Query, pageSize, pageNumber int) ([]QueryWithUsername, error) {
	paged, err := store.Paginate(queries, pageSize, pageNumber)
	if err != nil {
		return nil, errors.Validation(err.Error())
	}
	if len(paged) == 0 {
		return nil, errors.NotFound("no queries found")
	}
	return s.enrich(paged), nil
}

// ListPublic returns a page of non-private queries in store order.
func (s *CatalogService) ListPublic(_ context.Context, pageSize, pageNumber int) ([]QueryWithUsername, error) {
	queries, err := s.listVisible(nil)
	if err != nil {
		return nil, err
	}
	return s.page(queries, pageSize, pageNumber)
}

// ListByStars returns a page of non-private queries ordered by star count,
// most starred first.
func (s *CatalogService) ListByStars(_ context.Context, pageSize, pageNumber int) ([]QueryWithUsername, error) {
	queries, err := s.listVisible(func(a, b *domain.Query) int {
		return b.Stars - a.Stars
	})
	if err != nil {
		return nil, err
	}
	return s.page(queries, pageSize, pageNumber)
}

// ListByForks returns a page of non-private queries ordered by fork count,
// most forked first.
func (s *CatalogService) ListByForks(_ context.Context, pageSize, pageNumber int) ([]QueryWithUsername, error) {
	queries, err := s.listVisible(func(a, b *domain.Query) int {
		return b.Forks - a.Forks
	})
	if err != nil {
		return nil, err
	}
	return s.page(queries, pageSize, pageNumber)
}

// Search returns a page of non-private queries whose title, text, or tags
// contain the term (case-insensitive substring).
func (s *CatalogService) Search(_ context.Context, term string, pageSize, pageNumber int) ([]QueryWithUsername, error) {
	queries, err := s.catalog.ListQueries(func(q *domain.Query) bool {
		return !q.Private && q.MatchesTerm(term)
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDBQuery, "failed to search queries")
	}
	return s.page(queries, pageSize, pageNumber)
}

// ListForUser returns all of a user's non-private queries.
// Note: the owner's private queries are not surfaced here either.
func (s *CatalogService) ListForUser(_ context.Context, userID string) ([]QueryWithUsername, error) {
	queries, err := s.catalog.ListQueries(func(q *domain.Query) bool {
		return !q.Private && q.Creator == userID
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDBQuery, "failed to list user queries")
	}
	if len(queries) == 0 {
		return nil, errors.NotFound("no queries found for user")
	}
	return s.enrich(queries), nil
}

// Get returns a single query by ID, including private ones; visibility
// enforcement for private queries belongs to the handler layer.
func (s *CatalogService) Get(_ context.Context, queryID string) (*QueryWithUsername, error) {
	q, err := s.catalog.GetQuery(queryID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.NotFound("query not found")
		}
		return nil, errors.Wrap(err, errors.CodeDBFetch, "failed to fetch query")
	}
	enriched := s.withUsername(q)
	return &enriched, nil
}

// Create publishes a new query with zeroed counters and empty membership
// sets, and appends the first revision.
func (s *CatalogService) Create(_ context.Context, req CreateQueryRequest) (*QueryWithUsername, error) {
	return s.publish(&domain.Query{
		Title:       req.Title,
		Description: req.Description,
		Creator:     req.Creator,
		Private:     req.Private,
		Text:        req.Text,
		Tags:        domain.NormalizeTags(req.Tags),
	})
}

// publish persists a new query record and its first revision. Fork goes
// through here too, with the lineage fields already set, so a fork is born
// with its lineage in the same insert.
func (s *CatalogService) publish(q *domain.Query) (*QueryWithUsername, error) {
	queryID, err := id.Generate("qry")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to generate query id")
	}

	q.ID = queryID
	q.Stars = 0
	q.Forks = 0
	q.StaredBy = []string{}
	q.ForkedBy = []string{}
	q.InitTimestamps()

	if err := s.catalog.CreateQuery(q); err != nil {
		return nil, errors.Wrap(err, errors.CodeDBInsert, "failed to insert query")
	}

	if _, err := s.catalog.AppendRevision(q.ID, q.Text); err != nil {
		return nil, errors.Wrap(err, errors.CodeDBInsert, "failed to append initial revision")
	}

	created, err := s.catalog.GetQuery(q.ID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDBRetrieval, "failed to retrieve created query")
	}

	s.logger.Info("Query created", "query_id", q.ID, "creator", q.Creator)
	enriched := s.withUsername(created)
	return &enriched, nil
}

// Update overwrites the mutable fields of a query and appends a revision
// recording the text as of this update. Every update grows the log, even a
// metadata-only one, so the log length counts updates, not distinct texts.
func (s *CatalogService) Update(_ context.Context, queryID string, req UpdateQueryRequest) (*QueryWithUsername, error) {
	q, err := s.catalog.GetQuery(queryID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.NotFound("query not found")
		}
		return nil, errors.Wrap(err, errors.CodeDBFetch, "failed to fetch query")
	}

	if req.Title != nil {
		q.Title = *req.Title
	}
	if req.Description != nil {
		q.Description = *req.Description
	}
	if req.Private != nil {
		q.Private = *req.Private
	}
	if req.Text != nil {
		q.Text = *req.Text
	}
	if req.Tags != nil {
		q.Tags = domain.NormalizeTags(req.Tags)
	}
	q.Touch()

	if err := s.catalog.UpdateQuery(q); err != nil {
		return nil, errors.Wrap(err, errors.CodeDBUpdate, "failed to update query")
	}

	if _, err := s.catalog.AppendRevision(q.ID, q.Text); err != nil {
		return nil, errors.Wrap(err, errors.CodeDBInsert, "failed to append revision")
	}

	s.logger.Info("Query updated", "query_id", q.ID)
	enriched := s.withUsername(q)
	return &enriched, nil
}

// Star records that userID starred the query. The membership set, the query
// counter, and the user counter are three independent atomic steps; a crash
// between them can leave a partially-applied state.
func (s *CatalogService) Star(_ context.Context, queryID, userID string) (*QueryWithUsername, error) {
	if _, err := s.users.GetUser(userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.NotFound("user not found")
		}
		return nil, errors.Wrap(err, errors.CodeDBFetch, "failed to fetch user")
	}

	q, err := s.catalog.GetQuery(queryID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.NotFound("query not found")
		}
		return nil, errors.Wrap(err, errors.CodeDBFetch, "failed to fetch query")
	}
	if q.IsStaredBy(userID) {
		return nil, errors.Conflict("query already starred by user")
	}

	added, err := s.catalog.AddStaredBy(queryID, userID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDBUpdate, "failed to star query")
	}
	if added {
		if err := s.catalog.IncrementQueryStars(queryID, 1); err != nil {
			return nil, errors.Wrap(err, errors.CodeDBUpdate, "failed to increment query stars")
		}
		if err := s.users.IncrementUserStars(userID, 1); err != nil {
			return nil, errors.Wrap(err, errors.CodeDBUpdate, "failed to increment user stars")
		}
	}

	starred, err := s.catalog.GetQuery(queryID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDBRetrieval, "failed to retrieve starred query")
	}

	s.logger.Info("Query starred", "query_id", queryID, "user_id", userID)
	enriched := s.withUsername(starred)
	return &enriched, nil
}

// UnStar removes userID's star. Counters clamp at zero on decrement.
func (s *CatalogService) UnStar(_ context.Context, queryID, userID string) (*QueryWithUsername, error) {
	if _, err := s.users.GetUser(userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.NotFound("user not found")
		}
		return nil, errors.Wrap(err, errors.CodeDBFetch, "failed to fetch user")
	}

	q, err := s.catalog.GetQuery(queryID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.NotFound("query not found")
		}
		return nil, errors.Wrap(err, errors.CodeDBFetch, "failed to fetch query")
	}
	if !q.IsStaredBy(userID) {
		return nil, errors.Conflict("query not starred by user")
	}

	removed, err := s.catalog.RemoveStaredBy(queryID, userID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDBUpdate, "failed to unstar query")
	}
	if removed {
		if err := s.catalog.IncrementQueryStars(queryID, -1); err != nil {
			return nil, errors.Wrap(err, errors.CodeDBUpdate, "failed to decrement query stars")
		}
		if err := s.users.IncrementUserStars(userID, -1); err != nil {
			return nil, errors.Wrap(err, errors.CodeDBUpdate, "failed to decrement user stars")
		}
	}

	unstarred, err := s.catalog.GetQuery(queryID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDBRetrieval, "failed to retrieve unstarred query")
	}

	s.logger.Info("Query unstarred", "query_id", queryID, "user_id", userID)
	enriched := s.withUsername(unstarred)
	return &enriched, nil
}

// Fork clones a query for userID. Forking your own query is rejected, as is
// forking the same query twice or forking a query that is itself a fork
// (the fork chain is single-level).
func (s *CatalogService) Fork(_ context.Context, queryID, userID string) (*QueryWithUsername, error) {
	if _, err := s.users.GetUser(userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.NotFound("user not found")
		}
		return nil, errors.Wrap(err, errors.CodeDBFetch, "failed to fetch user")
	}

	src, err := s.catalog.GetQuery(queryID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.NotFound("query not found")
		}
		return nil, errors.Wrap(err, errors.CodeDBFetch, "failed to fetch query")
	}

	switch {
	case src.Creator == userID:
		return nil, errors.Conflict("cannot fork your own query")
	case src.IsForkedBy(userID):
		return nil, errors.Conflict("query already forked by user")
	case src.Forked:
		return nil, errors.Conflict("cannot fork a forked query")
	}

	added, err := s.catalog.AddForkedBy(queryID, userID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDBUpdate, "failed to record fork")
	}
	if added {
		if err := s.catalog.IncrementQueryForks(queryID, 1); err != nil {
			return nil, errors.Wrap(err, errors.CodeDBUpdate, "failed to increment query forks")
		}
		if err := s.users.IncrementUserForks(userID, 1); err != nil {
			return nil, errors.Wrap(err, errors.CodeDBUpdate, "failed to increment user forks")
		}
	}

	clone, err := s.publish(&domain.Query{
		Title:       src.Title,
		Description: src.Description,
		Creator:     userID,
		Private:     src.Private,
		Text:        src.Text,
		Tags:        slices.Clone(src.Tags),
		ForkedFrom:  src.ID,
		Forked:      true,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Query forked", "source_id", src.ID, "fork_id", clone.ID, "user_id", userID)
	return clone, nil
}

// GetRevisions returns the query's revision log, oldest first.
func (s *CatalogService) GetRevisions(_ context.Context, queryID string) ([]*domain.Revision, error) {
	if _, err := s.catalog.GetQuery(queryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.NotFound("query not found")
		}
		return nil, errors.Wrap(err, errors.CodeDBFetch, "failed to fetch query")
	}

	revisions, err := s.catalog.ListRevisions(queryID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDBFetch, "failed to fetch revisions")
	}
	if revisions == nil {
		revisions = []*domain.Revision{}
	}
	return revisions, nil
}

// Delete removes a query and cascades its revision sub-log. The cascade is
// best-effort: orphaned revisions are unreachable through the API.
func (s *CatalogService) Delete(_ context.Context, queryID string) error {
	if err := s.catalog.DeleteQuery(queryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errors.NotFound("query not found")
		}
		return errors.Wrap(err, errors.CodeDBDelete, "failed to delete query")
	}

	if err := s.catalog.DeleteRevisions(queryID); err != nil {
		s.logger.Warn("Failed to cascade revision delete", "query_id", queryID, "error", err)
	}

	s.logger.Info("Query deleted", "query_id", queryID)
	return nil
}

// DeleteAll removes every query in the catalog. Individual failures are
// logged and skipped rather than aborting the sweep.
func (s *CatalogService) DeleteAll(ctx context.Context) (int, error) {
	queries, err := s.catalog.ListQueries(nil)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeDBQuery, "failed to list queries")
	}

	deleted := 0
	for _, q := range queries {
		if err := s.Delete(ctx, q.ID); err != nil {
			s.logger.Error("Failed to delete query during bulk delete", "query_id", q.ID, "error", err)
			continue
		}
		deleted++
	}

	s.logger.Info("Bulk delete completed", "deleted", deleted, "total", len(queries))
	return deleted, nil
}

// UserProfile returns a user's public profile.
func (s *CatalogService) UserProfile(_ context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetUser(userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.NotFound("user not found")
		}
		return nil, errors.Wrap(err, errors.CodeDBFetch, "failed to fetch user")
	}
	return user, nil
}

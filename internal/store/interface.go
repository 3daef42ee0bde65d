package store

import "github.com/querydeckapp/querydeck-server/internal/domain"

// Catalog is the query-side persistence surface consumed by the service
// layer. *Store satisfies it; tests may substitute their own implementation.
type Catalog interface {
	CreateQuery(q *domain.Query) error
	GetQuery(id string) (*domain.Query, error)
	UpdateQuery(q *domain.Query) error
	DeleteQuery(id string) error
	ListQueries(filter func(*domain.Query) bool) ([]*domain.Query, error)

	AddStaredBy(queryID, userID string) (bool, error)
	RemoveStaredBy(queryID, userID string) (bool, error)
	AddForkedBy(queryID, userID string) (bool, error)
	IncrementQueryStars(queryID string, delta int) error
	IncrementQueryForks(queryID string, delta int) error

	AppendRevision(queryID, text string) (*domain.Revision, error)
	ListRevisions(queryID string) ([]*domain.Revision, error)
	DeleteRevisions(queryID string) error
}

// Directory is the user-side persistence surface.
type Directory interface {
	CreateUser(u *domain.User) error
	GetUser(id string) (*domain.User, error)
	UpdateUser(u *domain.User) error
	IncrementUserStars(userID string, delta int) error
	IncrementUserForks(userID string, delta int) error
}

var (
	_ Catalog   = (*Store)(nil)
	_ Directory = (*Store)(nil)
)

package store

import (
	"encoding/json/v2"
	"errors"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/querydeckapp/querydeck-server/internal/domain"
)

// Query operations.

// CreateQuery stores a new query record. Fails if the ID is already taken.
func (s *Store) CreateQuery(q *domain.Query) error {
	key := queryKey(q.ID)

	exists, err := s.exists(key)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyExists
	}

	return s.set(key, q)
}

// GetQuery retrieves a query by ID.
func (s *Store) GetQuery(id string) (*domain.Query, error) {
	var q domain.Query
	err := s.get(queryKey(id), &q)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// UpdateQuery replaces an existing query record.
func (s *Store) UpdateQuery(q *domain.Query) error {
	key := queryKey(q.ID)

	exists, err := s.exists(key)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	return s.set(key, q)
}

// DeleteQuery removes a query record. Revisions are a separate sub-log and
// must be removed by the caller (see DeleteRevisions).
func (s *Store) DeleteQuery(id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		key := queryKey(id)
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}

// ListQueries returns all queries matching the filter, in key order.
// A nil filter matches everything.
func (s *Store) ListQueries(filter func(*domain.Query) bool) ([]*domain.Query, error) {
	var queries []*domain.Query

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(queryPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var q domain.Query
				if err := json.Unmarshal(val, &q); err != nil {
					return err
				}
				if filter == nil || filter(&q) {
					queries = append(queries, &q)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return queries, nil
}

// mutateQuery applies fn to a query inside a single read-modify-write
// transaction. Concurrent mutations of the same record serialize through
// badger's conflict detection via ErrConflict retries.
func (s *Store) mutateQuery(id string, fn func(*domain.Query) error) error {
	for {
		err := s.db.Update(func(txn *badger.Txn) error {
			key := queryKey(id)
			item, err := txn.Get(key)
			if err != nil {
				return err
			}

			var q domain.Query
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &q)
			}); err != nil {
				return err
			}

			if err := fn(&q); err != nil {
				return err
			}

			data, err := json.Marshal(&q)
			if err != nil {
				return err
			}
			return txn.Set(key, data)
		})

		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		return err
	}
}

// errUnchanged aborts a mutateQuery transaction without an error surfacing
// to the caller; used when a membership set already holds the user.
var errUnchanged = errors.New("store: record unchanged")

// AddStaredBy adds userID to the query's star membership set.
// Returns false if the user had already starred the query.
func (s *Store) AddStaredBy(queryID, userID string) (bool, error) {
	err := s.mutateQuery(queryID, func(q *domain.Query) error {
		if slices.Contains(q.StaredBy, userID) {
			return errUnchanged
		}
		q.StaredBy = append(q.StaredBy, userID)
		q.Touch()
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RemoveStaredBy removes userID from the query's star membership set.
// Returns false if the user had not starred the query.
func (s *Store) RemoveStaredBy(queryID, userID string) (bool, error) {
	err := s.mutateQuery(queryID, func(q *domain.Query) error {
		i := slices.Index(q.StaredBy, userID)
		if i < 0 {
			return errUnchanged
		}
		q.StaredBy = slices.Delete(q.StaredBy, i, i+1)
		q.Touch()
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AddForkedBy adds userID to the query's fork membership set.
// Returns false if the user had already forked the query.
func (s *Store) AddForkedBy(queryID, userID string) (bool, error) {
	err := s.mutateQuery(queryID, func(q *domain.Query) error {
		if slices.Contains(q.ForkedBy, userID) {
			return errUnchanged
		}
		q.ForkedBy = append(q.ForkedBy, userID)
		q.Touch()
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IncrementQueryStars adjusts the query's star counter by delta,
// clamped at zero.
func (s *Store) IncrementQueryStars(queryID string, delta int) error {
	return s.mutateQuery(queryID, func(q *domain.Query) error {
		q.Stars = max(q.Stars+delta, 0)
		q.Touch()
		return nil
	})
}

// IncrementQueryForks adjusts the query's fork counter by delta,
// clamped at zero.
func (s *Store) IncrementQueryForks(queryID string, delta int) error {
	return s.mutateQuery(queryID, func(q *domain.Query) error {
		q.Forks = max(q.Forks+delta, 0)
		q.Touch()
		return nil
	})
}

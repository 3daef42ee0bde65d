package store

import (
	"encoding/json/v2"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/querydeckapp/querydeck-server/internal/domain"
)

// User directory operations.

// CreateUser stores a new user record. Fails if the ID is already taken.
func (s *Store) CreateUser(u *domain.User) error {
	key := userKey(u.ID)

	exists, err := s.exists(key)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyExists
	}

	return s.set(key, u)
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(id string) (*domain.User, error) {
	var u domain.User
	err := s.get(userKey(id), &u)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser replaces an existing user record.
func (s *Store) UpdateUser(u *domain.User) error {
	key := userKey(u.ID)

	exists, err := s.exists(key)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	return s.set(key, u)
}

// mutateUser applies fn to a user inside a single read-modify-write
// transaction, retrying on write conflicts.
func (s *Store) mutateUser(id string, fn func(*domain.User)) error {
	for {
		err := s.db.Update(func(txn *badger.Txn) error {
			key := userKey(id)
			item, err := txn.Get(key)
			if err != nil {
				return err
			}

			var u domain.User
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &u)
			}); err != nil {
				return err
			}

			fn(&u)

			data, err := json.Marshal(&u)
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

// IncrementUserStars adjusts the user's given-stars counter by delta,
// clamped at zero.
func (s *Store) IncrementUserStars(userID string, delta int) error {
	return s.mutateUser(userID, func(u *domain.User) {
		u.Stars = max(u.Stars+delta, 0)
		u.UpdatedAt = time.Now()
	})
}

// IncrementUserForks adjusts the user's fork counter by delta,
// clamped at zero.
func (s *Store) IncrementUserForks(userID string, delta int) error {
	return s.mutateUser(userID, func(u *domain.User) {
		u.Forks = max(u.Forks+delta, 0)
		u.UpdatedAt = time.Now()
	})
}

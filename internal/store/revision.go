package store

import (
	"encoding/json/v2"
	"errors"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/querydeckapp/querydeck-server/internal/domain"
)

// Revision sub-log operations.
//
// Each query owns an append-only log of its query-text revisions. The log
// key embeds a zero-padded sequence number so iteration order is insertion
// order; the sequence counter lives in its own key and is bumped inside the
// same transaction as the append.

// AppendRevision records a new revision of the query text and returns it.
// The caller is responsible for ensuring the query exists.
func (s *Store) AppendRevision(queryID, text string) (*domain.Revision, error) {
	var rev domain.Revision

	for {
		err := s.db.Update(func(txn *badger.Txn) error {
			seq, err := nextRevSeq(txn, queryID)
			if err != nil {
				return err
			}

			rev = domain.Revision{
				QueryID:   queryID,
				Seq:       seq,
				Text:      text,
				CreatedAt: time.Now(),
			}

			data, err := json.Marshal(&rev)
			if err != nil {
				return err
			}
			return txn.Set(revisionKey(queryID, seq), data)
		})

		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &rev, nil
	}
}

// nextRevSeq reads, increments, and writes back the per-query sequence
// counter within txn. Sequence numbers start at 1.
func nextRevSeq(txn *badger.Txn, queryID string) (int64, error) {
	key := revSeqKey(queryID)

	var seq int64
	item, err := txn.Get(key)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		seq = 0
	case err != nil:
		return 0, err
	default:
		if err := item.Value(func(val []byte) error {
			n, err := strconv.ParseInt(string(val), 10, 64)
			if err != nil {
				return err
			}
			seq = n
			return nil
		}); err != nil {
			return 0, err
		}
	}

	seq++
	if err := txn.Set(key, strconv.AppendInt(nil, seq, 10)); err != nil {
		return 0, err
	}
	return seq, nil
}

// ListRevisions returns all revisions of a query in insertion order,
// oldest first.
func (s *Store) ListRevisions(queryID string) ([]*domain.Revision, error) {
	var revisions []*domain.Revision

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = revisionKeyPrefix(queryID)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rev domain.Revision
				if err := json.Unmarshal(val, &rev); err != nil {
					return err
				}
				revisions = append(revisions, &rev)
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

	return revisions, nil
}

// DeleteRevisions removes the entire revision sub-log for a query,
// including its sequence counter. Used when the query itself is deleted.
func (s *Store) DeleteRevisions(queryID string) error {
	// Collect keys first; deleting during iteration invalidates the iterator.
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = revisionKeyPrefix(queryID)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return err
		}
	}
	if err := wb.Delete(revSeqKey(queryID)); err != nil {
		return err
	}
	return wb.Flush()
}

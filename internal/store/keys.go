package store

import "fmt"

// Key layout. Every record type gets its own prefix so prefix scans stay
// cheap and never cross entity boundaries.
//
//	query:<queryID>                  Query record
//	user:<userID>                    User record
//	revision:<queryID>:<seq>         Revision sub-log entry (seq zero-padded)
//	revseq:<queryID>                 next sequence number for the sub-log
const (
	queryPrefix    = "query:"
	userPrefix     = "user:"
	revisionPrefix = "revision:"
	revSeqPrefix   = "revseq:"
)

func queryKey(id string) []byte {
	return []byte(queryPrefix + id)
}

func userKey(id string) []byte {
	return []byte(userPrefix + id)
}

// revisionKeyPrefix returns the scan prefix for a query's revision sub-log.
// The trailing colon keeps "qry-1" from matching "qry-10".
func revisionKeyPrefix(queryID string) []byte {
	return []byte(revisionPrefix + queryID + ":")
}

// revisionKey builds the key for a single revision. Sequence numbers are
// zero-padded so lexicographic key order equals insertion order.
func revisionKey(queryID string, seq int64) []byte {
	return fmt.Appendf(nil, "%s%s:%012d", revisionPrefix, queryID, seq)
}

func revSeqKey(queryID string) []byte {
	return []byte(revSeqPrefix + queryID)
}

package domain

import "time"

// Revision is an immutable snapshot of a query's text.
// One revision is appended when the query is created and one per update;
// revisions are never modified or removed individually.
type Revision struct {
	QueryID   string    `json:"query_id"`
	Seq       int64     `json:"seq"` // per-query sequence number, starts at 1
	Text      string    `json:"query"`
	CreatedAt time.Time `json:"created_at"`
}

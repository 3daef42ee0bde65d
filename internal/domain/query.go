package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/querydeckapp/querydeck-server/internal/util"
)

// Query is a saved, shareable query definition published to the catalog.
// Visibility is controlled by Private; Stars/Forks are denormalized counters
// kept alongside the StaredBy/ForkedBy membership sets.
type Query struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Creator     string    `json:"creator"` // user ID, logical reference into the user directory
	Private     bool      `json:"private"`
	Text        string    `json:"query"`
	Tags        []string  `json:"tags"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
	StaredBy    []string  `json:"stared_by"`
	ForkedBy    []string  `json:"forked_by"`
	ForkedFrom  string    `json:"forked_from"` // source query ID, empty for originals
	Forked      bool      `json:"forked"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp to the current time.
func (q *Query) Touch() {
	q.UpdatedAt = time.Now()
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
// Call this when creating a new query.
func (q *Query) InitTimestamps() {
	now := time.Now()
	q.CreatedAt = now
	q.UpdatedAt = now
}

// IsStaredBy reports whether the given user has starred this query.
func (q *Query) IsStaredBy(userID string) bool {
	return slices.Contains(q.StaredBy, userID)
}

// IsForkedBy reports whether the given user has forked this query.
func (q *Query) IsForkedBy(userID string) bool {
	return slices.Contains(q.ForkedBy, userID)
}

// MatchesTerm reports whether the query matches a search term.
// Matching is a case-insensitive literal substring test against the
// title, the query text, and each tag.
func (q *Query) MatchesTerm(term string) bool {
	needle := strings.ToLower(term)
	if strings.Contains(strings.ToLower(q.Title), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(q.Text), needle) {
		return true
	}
	for _, tag := range q.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// NormalizeTags canonicalizes tags to slugs and removes duplicates and empty
// entries, preserving first-seen order. Tag order is not significant in the
// catalog, but a stable order keeps listings deterministic.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = util.NormalizeTagSlug(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

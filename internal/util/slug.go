// Package util provides common utility functions.
package util

import (
	"regexp"
	"strings"
)

var (
	// Matches spaces, underscores, and slashes (for replacement with dashes).
	wordSeparatorRe = regexp.MustCompile(`[\s_/]+`)
	// Matches non-alphanumeric characters (except dashes).
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9-]`)
	// Matches multiple consecutive dashes.
	multipleDashRe = regexp.MustCompile(`-+`)
)

// NormalizeTagSlug converts user input to a canonical tag slug.
// The slug is the source of truth for tag identity, so "Slow Queries" and
// "slow_queries" land on the same tag.
//
// Normalization rules:
//  1. Trim whitespace and lowercase
//  2. Replace spaces, underscores, and slashes with dashes
//  3. Remove non-alphanumeric characters (except dashes)
//  4. Collapse multiple dashes
//  5. Trim leading/trailing dashes
//
// Examples:
//
//	"Slow Queries"   → "slow-queries"
//	"ops/latency"    → "ops-latency"
//	"  Growth!  "    → "growth"
//
// Returns an empty string if nothing survives normalization.
func NormalizeTagSlug(input string) string {
	slug := strings.ToLower(strings.TrimSpace(input))
	slug = wordSeparatorRe.ReplaceAllString(slug, "-")
	slug = nonAlphanumericRe.ReplaceAllString(slug, "")
	slug = multipleDashRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

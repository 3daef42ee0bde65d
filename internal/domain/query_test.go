package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryMatchesTerm(t *testing.T) {
	q := &Query{
		Title: "Top ERC-20 Transfers",
		Text:  "SELECT sender, amount FROM transfers ORDER BY amount DESC",
		Tags:  []string{"ethereum", "tokens"},
	}

	tests := []struct {
		name string
		term string
		want bool
	}{
		{"title substring", "transfers", true},
		{"title case insensitive", "TOP erc", true},
		{"text substring", "order by", true},
		{"tag substring", "ether", true},
		{"tag case insensitive", "TOKENS", true},
		{"no match", "uniswap", false},
		{"empty term matches everything", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, q.MatchesTerm(tt.term))
		})
	}
}

func TestQueryMembership(t *testing.T) {
	q := &Query{
		StaredBy: []string{"usr-a", "usr-b"},
		ForkedBy: []string{"usr-c"},
	}

	assert.True(t, q.IsStaredBy("usr-a"))
	assert.False(t, q.IsStaredBy("usr-c"))
	assert.True(t, q.IsForkedBy("usr-c"))
	assert.False(t, q.IsForkedBy("usr-a"))
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"dedupes", []string{"sql", "sql", "eth"}, []string{"sql", "eth"}},
		{"drops empties", []string{"", "  ", "sql"}, []string{"sql"}},
		{"trims whitespace", []string{" sql "}, []string{"sql"}},
		{"slugifies", []string{"Slow Queries", "ops/latency"}, []string{"slow-queries", "ops-latency"}},
		{"dedupes after slugging", []string{"Growth", "growth!"}, []string{"growth"}},
		{"nil input", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTags(tt.in))
		})
	}
}

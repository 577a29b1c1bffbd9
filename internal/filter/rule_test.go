package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRule(t *testing.T) {
	tests := []struct {
		name     string
		include  string
		exclude  string
		input    string
		expected bool
	}{
		{"empty rule", "", "", "PUBLIC.BOOKS", true},
		{"include match", `PUBLIC\..*`, "", "PUBLIC.BOOKS", true},
		{"include is anchored", `BOOKS`, "", "PUBLIC.BOOKS", false},
		{"exclude wins", `.*`, `.*\.TEMP_.*`, "PUBLIC.TEMP_X", false},
		{"exclude no match", `.*`, `.*\.TEMP_.*`, "PUBLIC.X", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRule(tt.include, tt.exclude)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, r.Matches(tt.input))
		})
	}
}

func TestRule_InvalidPattern(t *testing.T) {
	_, err := NewRule("(", "")
	assert.Error(t, err)
}

func TestRule_Constants(t *testing.T) {
	var nilRule *Rule
	assert.True(t, nilRule.Matches("x"))
	assert.True(t, IncludeAll.Matches("x"))
	assert.False(t, IncludeNone.Matches("x"))
	assert.True(t, MustRule("A|B", "").MatchesAny("C", "B"))
}

func TestRule_MatchesObject(t *testing.T) {
	r := MustRule("BOOKS|AUTHORS", "")
	assert.True(t, r.MatchesObject("PUBLIC.BOOKS", "BOOKS"))
	assert.False(t, r.MatchesObject("PUBLIC.PUBLISHERS", "PUBLISHERS"))

	r = MustRule("", "TEMP_.*")
	assert.False(t, r.MatchesObject("PUBLIC.TEMP_X", "TEMP_X"))
	assert.True(t, r.MatchesObject("PUBLIC.X", "X"))

	var nilRule *Rule
	assert.True(t, nilRule.MatchesObject("PUBLIC.X", "X"))
}

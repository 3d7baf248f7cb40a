package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaminalder/tictactoe-atlas/internal/domain"
	"github.com/jaminalder/tictactoe-atlas/internal/generator"
	"github.com/jaminalder/tictactoe-atlas/internal/solver"
)

func buildCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Build(generator.New())
	require.NoError(t, err)
	return c
}

func TestBuild(t *testing.T) {
	c := buildCatalog(t)
	require.Equal(t, 765, c.Len())

	rarity := 0
	for _, r := range c.Rows() {
		require.Equal(t, r.CanonicalID, r.ID, "rows describe the canonical configuration")
		require.True(t, r.IsValidFirstPlayerX)
		sum := r.XWinProbability + r.DrawProbability + r.OWinProbability
		require.InDelta(t, 100, sum, 1e-9, r.ID)
		rarity += r.Rarity
	}
	// every reachable configuration belongs to exactly one row
	assert.Equal(t, 5478, rarity)
}

func TestRowFields(t *testing.T) {
	c := buildCatalog(t)

	empty, ok := c.Row("000000000")
	require.True(t, ok)
	assert.Equal(t, 1, empty.Rarity)
	assert.Equal(t, 0, empty.Progress)
	assert.Equal(t, 100.0, empty.DrawProbability)

	// top-row win, canonicalized
	won, ok := c.Row(domain.MustParseState("111220000").Canonical())
	require.True(t, ok)
	assert.True(t, won.IsTerminal)
	assert.Equal(t, []int{1}, won.Winners)
	assert.Equal(t, 56, won.Progress)
	assert.Equal(t, 100.0, won.XWinProbability)
	assert.Equal(t, 8, won.Rarity)

	_, ok = c.Row("111000000")
	assert.False(t, ok)
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 0, Progress(domain.Start()))
	assert.Equal(t, 11, Progress(domain.MustParseState("100000000")))
	assert.Equal(t, 56, Progress(domain.MustParseState("111220000")))
	assert.Equal(t, 100, Progress(domain.MustParseState("121121212")))
}

func TestNewRowRejectsUnreachable(t *testing.T) {
	_, err := NewRow(domain.MustParseState("200000000"), 4, solver.New())
	require.ErrorIs(t, err, solver.ErrUnsolvable)
}

func TestFromRowsDropsDuplicates(t *testing.T) {
	sv := solver.New()
	a, err := NewRow(domain.Start(), 1, sv)
	require.NoError(t, err)
	b := a
	b.Rarity = 99
	c := FromRows([]Row{a, b})
	assert.Equal(t, 1, c.Len())
	got, _ := c.Row("000000000")
	assert.Equal(t, 1, got.Rarity)
}

func TestSelect(t *testing.T) {
	c := buildCatalog(t)
	terminal := c.Select(func(r Row) bool { return r.IsTerminal })
	assert.Len(t, terminal, 138)
	openings := c.Select(func(r Row) bool { return r.TurnCount == 1 })
	assert.Len(t, openings, 3)
}

func TestRowJSONFlattensRecord(t *testing.T) {
	r, err := NewRow(domain.Start(), 1, solver.New())
	require.NoError(t, err)
	b, err := json.Marshal(r)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	for _, key := range []string{
		"canonical_id", "decimal_id", "board", "is_valid", "is_valid_first_player_x",
		"is_terminal", "winners", "winning_lines", "turn_count", "count_x", "count_o",
		"rarity", "progress", "x_win_probability", "draw_probability", "o_win_probability",
	} {
		assert.Contains(t, m, key)
	}
	assert.NotContains(t, m, "Record")
}

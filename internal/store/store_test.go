package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaminalder/tictactoe-atlas/internal/catalog"
	"github.com/jaminalder/tictactoe-atlas/internal/domain"
	"github.com/jaminalder/tictactoe-atlas/internal/solver"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "atlas.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func rowsFor(t *testing.T, ids ...string) []catalog.Row {
	t.Helper()
	sv := solver.New()
	var rows []catalog.Row
	for _, id := range ids {
		r, err := catalog.NewRow(domain.MustParseState(id), 1, sv)
		require.NoError(t, err)
		rows = append(rows, r)
	}
	return rows
}

func TestSeedAndLoadStates(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	n, err := s.SeedStates(ctx, rowsFor(t, "000000000", "000000001", "000022111"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	count, err := s.CountStates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	r, ok, err := s.StateRow(ctx, "000022111")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, r.IsTerminal)
	assert.Equal(t, 100.0, r.XWinProbability)
	assert.Equal(t, []int{1}, r.Winners)

	_, ok, err = s.StateRow(ctx, "111000000")
	require.NoError(t, err)
	assert.False(t, ok)

	all, err := s.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// ordered by decimal id
	assert.Equal(t, "000000000", all[0].CanonicalID)
	assert.Equal(t, "000000001", all[1].CanonicalID)
	assert.Equal(t, "000022111", all[2].CanonicalID)
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	rows := rowsFor(t, "000000000")
	_, err := s.SeedStates(ctx, rows)
	require.NoError(t, err)

	rows[0].Rarity = 7
	_, err = s.SeedStates(ctx, rows)
	require.NoError(t, err)

	count, err := s.CountStates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	r, _, err := s.StateRow(ctx, "000000000")
	require.NoError(t, err)
	assert.Equal(t, 7, r.Rarity)
}

func TestClaims(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, ok, err := s.GetClaim(ctx, "000000001")
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	first := catalog.Claim{ID: "c1", StateID: "000000001", Owner: "alice", ClaimedAt: at}
	require.NoError(t, s.PutClaim(ctx, first))

	got, ok, err := s.GetClaim(ctx, "000000001")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "c1", got.ID)
	assert.Equal(t, "alice", got.Owner)
	assert.True(t, at.Equal(got.ClaimedAt), "claimed_at %v", got.ClaimedAt)

	err = s.PutClaim(ctx, catalog.Claim{ID: "c2", StateID: "000000001", Owner: "bob", ClaimedAt: at})
	require.ErrorIs(t, err, catalog.ErrAlreadyClaimed)

	require.NoError(t, s.PutClaim(ctx, catalog.Claim{ID: "c3", StateID: "000000010", Owner: "bob", ClaimedAt: at.Add(time.Minute)}))

	claims, err := s.ListClaims(ctx)
	require.NoError(t, err)
	require.Len(t, claims, 2)
	assert.Equal(t, "000000001", claims[0].StateID)
	assert.Equal(t, "000000010", claims[1].StateID)
	assert.Equal(t, "bob", claims[1].Owner)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "atlas.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.SeedStates(ctx, rowsFor(t, "000000000"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	count, err := s.CountStates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

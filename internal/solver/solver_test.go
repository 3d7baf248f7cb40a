package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaminalder/tictactoe-atlas/internal/domain"
)

func TestEmptyBoardIsADraw(t *testing.T) {
	s := New()
	score, err := s.Score(domain.Start())
	require.NoError(t, err)
	assert.Equal(t, Draw, score)
	// solving the root visits every reachable state once
	assert.Equal(t, 5478, s.Len())
}

func TestScores(t *testing.T) {
	cases := []struct {
		id   string
		want int
	}{
		// X to move completes the top row
		{"110220000", XWins},
		// O to move cannot stop the fork
		{"110200000", XWins},
		// O answered a corner on the adjacent edge
		{"120000000", XWins},
		{"102000000", XWins},
		{"100020000", Draw},
		{"012000000", Draw},
		// O to move takes the top row before X completes either threat
		{"220110100", OWins},
		// finished games score themselves
		{"111220000", XWins},
		{"222110100", OWins},
		{"121121212", Draw},
	}
	s := New()
	for _, tc := range cases {
		got, err := s.Score(domain.MustParseState(tc.id))
		require.NoError(t, err, tc.id)
		assert.Equal(t, tc.want, got, tc.id)
	}
}

func TestUnreachableStatesAreRejected(t *testing.T) {
	s := New()
	for _, id := range []string{"111000000", "200000000", "111222000"} {
		_, err := s.Score(domain.MustParseState(id))
		require.ErrorIs(t, err, ErrUnsolvable, id)
	}
	assert.Zero(t, s.Len())
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, Outcome{XWin: 100}, OutcomeOf(XWins))
	assert.Equal(t, Outcome{Draw: 100}, OutcomeOf(Draw))
	assert.Equal(t, Outcome{OWin: 100}, OutcomeOf(OWins))

	s := New()
	got, err := s.Outcome(domain.MustParseState("222110100"))
	require.NoError(t, err)
	assert.Equal(t, Outcome{OWin: 100}, got)

	_, err = s.Outcome(domain.MustParseState("111000000"))
	require.ErrorIs(t, err, ErrUnsolvable)
}

func TestBestMoves(t *testing.T) {
	s := New()
	cases := []struct {
		id   string
		want []int
	}{
		// every opening keeps the draw
		{"000000000", []int{0, 1, 2, 3, 4, 5, 6, 7, 8}},
		{"110220000", []int{2}},
		// against a corner only the centre holds
		{"100000000", []int{4}},
		{"010000000", []int{0, 2, 4, 7}},
	}
	for _, tc := range cases {
		got, err := s.BestMoves(domain.MustParseState(tc.id))
		require.NoError(t, err, tc.id)
		assert.Equal(t, tc.want, got, tc.id)
	}

	got, err := s.BestMoves(domain.MustParseState("111220000"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

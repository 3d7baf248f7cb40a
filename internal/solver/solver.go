// Package solver computes the outcome of a position under perfect play by
// both sides with a full-depth minimax search.
package solver

import (
	"errors"
	"fmt"

	"github.com/jaminalder/tictactoe-atlas/internal/domain"
)

// ErrUnsolvable is returned for states that X-moves-first play cannot reach.
var ErrUnsolvable = errors.New("state is not reachable with X moving first")

// Scores from X's point of view.
const (
	OWins = -1
	Draw  = 0
	XWins = 1
)

// Outcome is the result of perfect play as percentages. Play is fully
// determined, so exactly one field is 100.
type Outcome struct {
	XWin float64 `json:"x_win"`
	Draw float64 `json:"draw"`
	OWin float64 `json:"o_win"`
}

// OutcomeOf maps a minimax score to its Outcome.
func OutcomeOf(score int) Outcome {
	switch {
	case score > 0:
		return Outcome{XWin: 100}
	case score < 0:
		return Outcome{OWin: 100}
	default:
		return Outcome{Draw: 100}
	}
}

// Solver memoizes scores by state id. The memo lives as long as the
// Solver, so one Solver should be scoped to one batch of queries.
// A Solver is not safe for concurrent use.
type Solver struct {
	memo map[string]int
}

// New returns a solver with an empty memo.
func New() *Solver {
	return &Solver{memo: make(map[string]int)}
}

// Len is the number of memoized states.
func (s *Solver) Len() int { return len(s.memo) }

// Score returns XWins, Draw or OWins for st with X maximizing.
func (s *Solver) Score(st domain.State) (int, error) {
	if !st.IsValidFirstPlayerX() {
		return 0, fmt.Errorf("%w: %s", ErrUnsolvable, st.ID())
	}
	return s.minimax(st), nil
}

// Outcome is Score mapped to percentages.
func (s *Solver) Outcome(st domain.State) (Outcome, error) {
	score, err := s.Score(st)
	if err != nil {
		return Outcome{}, err
	}
	return OutcomeOf(score), nil
}

// BestMoves returns every move that keeps the minimax value of st.
// Terminal states have none.
func (s *Solver) BestMoves(st domain.State) ([]int, error) {
	want, err := s.Score(st)
	if err != nil {
		return nil, err
	}
	var best []int
	for _, pos := range st.PossibleMoves() {
		child, err := st.MakeMove(pos)
		if err != nil {
			return nil, err
		}
		if s.minimax(child) == want {
			best = append(best, pos)
		}
	}
	return best, nil
}

func (s *Solver) minimax(st domain.State) int {
	turn, _ := st.NextPlayerFirstPlayerX().Resolve(domain.X)
	return s.search(st, turn)
}

// search scores st with turn to move; children are searched with the
// opponent to move.
func (s *Solver) search(st domain.State, turn domain.Cell) int {
	if v, ok := s.memo[st.ID()]; ok {
		return v
	}
	var v int
	switch {
	case st.Winner() == domain.X:
		v = XWins
	case st.Winner() == domain.O:
		v = OWins
	case st.IsTerminal():
		v = Draw
	default:
		maximize := turn == domain.X
		v = XWins + 1
		if maximize {
			v = OWins - 1
		}
		for _, pos := range st.PossibleMoves() {
			child, err := st.MakeMove(pos)
			if err != nil {
				continue
			}
			c := s.search(child, turn.Opponent())
			if (maximize && c > v) || (!maximize && c < v) {
				v = c
			}
		}
	}
	s.memo[st.ID()] = v
	return v
}

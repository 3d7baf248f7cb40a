package domain

import "math/rand"

// Game is a match played from the empty board with X moving first.
// It keeps every state it passed through so a finished game can be
// replayed step by step.
type Game struct {
	history []State
	moves   []int
}

// New returns a new game with X to move.
func New() Game {
	return Game{history: []State{Start()}}
}

// State returns the current position.
func (g *Game) State() State {
	if len(g.history) == 0 {
		return Start()
	}
	return g.history[len(g.history)-1]
}

// Play attempts to play the current turn at row r, column c (0..2).
func (g *Game) Play(r, c int) error {
	cur := g.State()
	if cur.IsTerminal() {
		return ErrGameOver
	}
	if r < 0 || r > 2 || c < 0 || c > 2 {
		return ErrOutOfBounds
	}
	idx := r*3 + c
	next, err := cur.MakeMove(idx)
	if err != nil {
		return err
	}
	if len(g.history) == 0 {
		g.history = append(g.history, cur)
	}
	g.history = append(g.history, next)
	g.moves = append(g.moves, idx)
	return nil
}

// Board is the current configuration.
func (g *Game) Board() Board { return g.State().Board() }

// Turn is the player to move, or Empty once the game is over.
func (g *Game) Turn() Cell {
	cur := g.State()
	if cur.IsTerminal() {
		return Empty
	}
	p, _ := cur.NextPlayerFirstPlayerX().Resolve(Empty)
	return p
}

// Over reports whether the game has been won or drawn.
func (g *Game) Over() bool { return g.State().IsTerminal() }

// Winner is the winning player, or Empty while running or on a draw.
func (g *Game) Winner() Cell { return g.State().Winner() }

// Moves returns the cell indices played, in order.
func (g *Game) Moves() []int { return append([]int(nil), g.moves...) }

// History returns every state from the empty board to the current one.
func (g *Game) History() []State {
	if len(g.history) == 0 {
		return []State{Start()}
	}
	return append([]State(nil), g.history...)
}

// RandomGame plays uniformly random legal moves until the game is over.
func RandomGame(rng *rand.Rand) Game {
	g := New()
	for !g.Over() {
		moves := g.State().PossibleMoves()
		pos := moves[rng.Intn(len(moves))]
		// pos comes from PossibleMoves, Play cannot fail
		_ = g.Play(pos/3, pos%3)
	}
	return g
}

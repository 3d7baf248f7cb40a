package domain

import (
	"errors"
	"fmt"

	"github.com/jaminalder/tictactoe-atlas/internal/symmetry"
)

// StateCount is the number of raw 9-cell configurations (3^9).
const StateCount = 19683

// Errors returned by domain operations.
var (
	ErrInvalidInput = errors.New("invalid board input")
	ErrIllegalMove  = errors.New("illegal move")

	ErrInvalidState = fmt.Errorf("%w: state is not valid", ErrIllegalMove)
	ErrGameOver     = fmt.Errorf("%w: game over", ErrIllegalMove)
	ErrOutOfBounds  = fmt.Errorf("%w: out of bounds", ErrIllegalMove)
	ErrOccupied     = fmt.Errorf("%w: cell occupied", ErrIllegalMove)
)

// TurnKind tags the result of a next-player query.
type TurnKind uint8

const (
	// TurnInvalid: the state cannot be reached, nobody moves.
	TurnInvalid TurnKind = iota
	// TurnAmbiguous: equal piece counts under the lax rule, either player
	// could have started.
	TurnAmbiguous
	// TurnPlayer: Player moves next.
	TurnPlayer
)

// Turn is the answer to "who moves next".
type Turn struct {
	Kind   TurnKind
	Player Cell
}

// Resolve returns the player to move, using fallback for an ambiguous turn.
// ok is false when the state is invalid.
func (t Turn) Resolve(fallback Cell) (Cell, bool) {
	switch t.Kind {
	case TurnPlayer:
		return t.Player, true
	case TurnAmbiguous:
		return fallback, true
	default:
		return Empty, false
	}
}

func (t Turn) String() string {
	switch t.Kind {
	case TurnPlayer:
		return t.Player.String()
	case TurnAmbiguous:
		return "ambiguous"
	default:
		return "invalid"
	}
}

// State is one board configuration together with its classification.
// All derived fields are computed once at construction; a State is never
// mutated afterwards. Build one with NewState, FromBoard or ParseState.
type State struct {
	board     Board
	id        string
	decimal   int
	empty     int
	xs        int
	os        int
	winners   []Cell
	lines     []Line
	valid     bool
	validX    bool
	next      Turn
	nextX     Turn
	terminal  bool
	canonical string
}

// NewState builds a State from exactly nine cell values.
func NewState(cells []Cell) (State, error) {
	if len(cells) != 9 {
		return State{}, fmt.Errorf("%w: want 9 cells, got %d", ErrInvalidInput, len(cells))
	}
	var b Board
	copy(b[:], cells)
	return FromBoard(b)
}

// FromBoard builds a State from a board, rejecting out-of-domain cells.
func FromBoard(b Board) (State, error) {
	for i, c := range b {
		if c > O {
			return State{}, fmt.Errorf("%w: cell %d has value %d", ErrInvalidInput, i, uint8(c))
		}
	}
	return analyze(b), nil
}

// ParseState builds a State from its base-3 id, e.g. "120000000".
func ParseState(id string) (State, error) {
	if len(id) != 9 {
		return State{}, fmt.Errorf("%w: id %q must have 9 digits", ErrInvalidInput, id)
	}
	var b Board
	for i := 0; i < 9; i++ {
		d := id[i]
		if d < '0' || d > '2' {
			return State{}, fmt.Errorf("%w: id %q has digit %q at %d", ErrInvalidInput, id, d, i)
		}
		b[i] = Cell(d - '0')
	}
	return analyze(b), nil
}

// MustParseState is ParseState for fixed, known-good ids.
func MustParseState(id string) State {
	s, err := ParseState(id)
	if err != nil {
		panic(err)
	}
	return s
}

// Start returns the empty board.
func Start() State { return analyze(Board{}) }

func analyze(b Board) State {
	s := State{board: b}
	for _, c := range b {
		switch c {
		case X:
			s.xs++
		case O:
			s.os++
		default:
			s.empty++
		}
		s.decimal = s.decimal*3 + int(c)
	}
	s.id = symmetry.Encode(b)

	var xWins, oWins bool
	for _, ln := range Lines {
		if !b.complete(ln) {
			continue
		}
		s.lines = append(s.lines, ln)
		if b[ln[0]] == X {
			xWins = true
		} else {
			oWins = true
		}
	}
	if xWins {
		s.winners = append(s.winners, X)
	}
	if oWins {
		s.winners = append(s.winners, O)
	}

	diff := s.xs - s.os
	s.valid = s.empty+s.xs+s.os == 9 && diff >= -1 && diff <= 1
	s.validX = validFirstPlayerX(s.xs, s.os, xWins, oWins)

	switch {
	case !s.valid:
		s.next = Turn{Kind: TurnInvalid}
	case diff == 0:
		s.next = Turn{Kind: TurnAmbiguous}
	case diff > 0:
		s.next = Turn{Kind: TurnPlayer, Player: O}
	default:
		s.next = Turn{Kind: TurnPlayer, Player: X}
	}

	switch {
	case !s.validX:
		s.nextX = Turn{Kind: TurnInvalid}
	case diff == 0:
		s.nextX = Turn{Kind: TurnPlayer, Player: X}
	default:
		s.nextX = Turn{Kind: TurnPlayer, Player: O}
	}

	s.terminal = s.valid && (len(s.winners) > 0 || s.empty == 0)
	s.canonical = symmetry.Canonical(b)
	return s
}

// validFirstPlayerX is reachability with X always moving first.
func validFirstPlayerX(xs, os int, xWins, oWins bool) bool {
	switch {
	case xs != os && xs != os+1:
		return false
	case xWins && oWins:
		return false
	case xWins && xs <= os:
		// X's winning move leaves X a piece ahead
		return false
	case oWins && xs != os:
		// O's winning move equalizes the counts
		return false
	}
	return true
}

// Board returns a copy of the configuration.
func (s State) Board() Board { return s.board }

// ID is the base-3 encoding, one digit per cell in index order.
func (s State) ID() string { return s.id }

// DecimalID is ID read as a base-3 number; also the enumeration index.
func (s State) DecimalID() int { return s.decimal }

func (s State) CountEmpty() int { return s.empty }
func (s State) CountX() int     { return s.xs }
func (s State) CountO() int     { return s.os }
func (s State) TurnCount() int  { return s.xs + s.os }

// Winners lists every player holding a complete line, X before O.
func (s State) Winners() []Cell { return append([]Cell(nil), s.winners...) }

func (s State) HasWinner() bool       { return len(s.winners) > 0 }
func (s State) HasUniqueWinner() bool { return len(s.winners) == 1 }

// Winner returns the unique winner, or Empty.
func (s State) Winner() Cell {
	if len(s.winners) == 1 {
		return s.winners[0]
	}
	return Empty
}

// WinningLines lists the complete lines in Lines order.
func (s State) WinningLines() []Line { return append([]Line(nil), s.lines...) }

// IsValid is the lax rule: reachable by strict alternation from either
// starting player.
func (s State) IsValid() bool { return s.valid }

// IsValidFirstPlayerX is the strict rule: reachable with X moving first.
func (s State) IsValidFirstPlayerX() bool { return s.validX }

// NextPlayer is the lax next player; equal counts are ambiguous.
func (s State) NextPlayer() Turn { return s.next }

// NextPlayerFirstPlayerX is X on equal counts, otherwise O.
func (s State) NextPlayerFirstPlayerX() Turn { return s.nextX }

// IsTerminal reports a valid state that is won or full.
func (s State) IsTerminal() bool { return s.terminal }

// Canonical is the id of the symmetry class representative.
func (s State) Canonical() string { return s.canonical }

// PossibleMoves returns the empty cell indices, or nothing when the state
// is invalid or terminal.
func (s State) PossibleMoves() []int {
	if !s.valid || s.terminal {
		return nil
	}
	moves := make([]int, 0, s.empty)
	for i, c := range s.board {
		if c == Empty {
			moves = append(moves, i)
		}
	}
	return moves
}

// MakeMove places the next player's mark at pos and returns the new state.
// An ambiguous next player (equal counts) is resolved to X.
func (s State) MakeMove(pos int) (State, error) {
	if !s.valid {
		return State{}, ErrInvalidState
	}
	if s.terminal {
		return State{}, ErrGameOver
	}
	if pos < 0 || pos > 8 {
		return State{}, ErrOutOfBounds
	}
	if s.board[pos] != Empty {
		return State{}, ErrOccupied
	}
	player, _ := s.next.Resolve(X)
	b := s.board
	b[pos] = player
	return analyze(b), nil
}

// Equal compares states by id.
func (s State) Equal(other State) bool { return s.id == other.id }

// String returns the id.
func (s State) String() string { return s.id }

// ASCII renders the board grid.
func (s State) ASCII() string { return s.board.ASCII() }

// Record is the serialized form of a State.
type Record struct {
	ID                  string   `json:"id"`
	CanonicalID         string   `json:"canonical_id"`
	DecimalID           int      `json:"decimal_id"`
	Board               []int    `json:"board"`
	IsValid             bool     `json:"is_valid"`
	IsValidFirstPlayerX bool     `json:"is_valid_first_player_x"`
	IsTerminal          bool     `json:"is_terminal"`
	HasWinner           bool     `json:"has_winner"`
	HasUniqueWinner     bool     `json:"has_unique_winner"`
	Winners             []int    `json:"winners"`
	WinningLines        [][3]int `json:"winning_lines"`
	TurnCount           int      `json:"turn_count"`
	CountX              int      `json:"count_x"`
	CountO              int      `json:"count_o"`
	CountEmpty          int      `json:"count_empty"`
}

// Record serializes the state.
func (s State) Record() Record {
	r := Record{
		ID:                  s.id,
		CanonicalID:         s.canonical,
		DecimalID:           s.decimal,
		Board:               make([]int, 9),
		IsValid:             s.valid,
		IsValidFirstPlayerX: s.validX,
		IsTerminal:          s.terminal,
		HasWinner:           s.HasWinner(),
		HasUniqueWinner:     s.HasUniqueWinner(),
		Winners:             make([]int, 0, len(s.winners)),
		WinningLines:        make([][3]int, 0, len(s.lines)),
		TurnCount:           s.TurnCount(),
		CountX:              s.xs,
		CountO:              s.os,
		CountEmpty:          s.empty,
	}
	for i, c := range s.board {
		r.Board[i] = int(c)
	}
	for _, w := range s.winners {
		r.Winners = append(r.Winners, int(w))
	}
	for _, ln := range s.lines {
		r.WinningLines = append(r.WinningLines, [3]int(ln))
	}
	return r
}

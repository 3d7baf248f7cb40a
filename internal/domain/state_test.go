package domain

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestEmptyBoardState(t *testing.T) {
	s := MustParseState("000000000")
	if !s.IsValid() || !s.IsValidFirstPlayerX() {
		t.Fatalf("empty board should be valid under both rules")
	}
	if s.IsTerminal() {
		t.Fatalf("empty board is not terminal")
	}
	if s.TurnCount() != 0 || s.CountEmpty() != 9 {
		t.Fatalf("unexpected counts: turn=%d empty=%d", s.TurnCount(), s.CountEmpty())
	}
	if got := s.NextPlayerFirstPlayerX(); got.Kind != TurnPlayer || got.Player != X {
		t.Fatalf("expected X to move first, got %v", got)
	}
	if got := s.NextPlayer(); got.Kind != TurnAmbiguous {
		t.Fatalf("expected ambiguous lax next player, got %v", got)
	}
	if got := s.PossibleMoves(); !reflect.DeepEqual(got, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Fatalf("expected all nine moves, got %v", got)
	}
	if !s.Equal(Start()) {
		t.Fatalf("Start should equal the parsed empty board")
	}
}

func TestTopRowWithoutReplies(t *testing.T) {
	// X holds the top row but O never moved: a line, yet not reachable.
	s := MustParseState("111000000")
	if got := s.Winners(); !reflect.DeepEqual(got, []Cell{X}) {
		t.Fatalf("expected winners [X], got %v", got)
	}
	if !s.HasUniqueWinner() || s.Winner() != X {
		t.Fatalf("expected X as unique winner")
	}
	if got := s.WinningLines(); !reflect.DeepEqual(got, []Line{{0, 1, 2}}) {
		t.Fatalf("expected top row line, got %v", got)
	}
	if s.IsValid() || s.IsValidFirstPlayerX() {
		t.Fatalf("3 X against 0 O breaks alternation under both rules")
	}
	if s.IsTerminal() {
		t.Fatalf("an invalid state is never terminal")
	}
	if s.PossibleMoves() != nil {
		t.Fatalf("invalid state should have no moves")
	}
}

func TestTopRowWin(t *testing.T) {
	s := MustParseState("111220000")
	if !s.IsValidFirstPlayerX() || !s.IsTerminal() {
		t.Fatalf("expected reachable terminal X win, valid=%v terminal=%v", s.IsValidFirstPlayerX(), s.IsTerminal())
	}
	if s.Winner() != X {
		t.Fatalf("expected X to win, got %v", s.Winner())
	}
	if len(s.PossibleMoves()) != 0 {
		t.Fatalf("terminal state should have no moves")
	}
}

func TestMixedBoardInProgress(t *testing.T) {
	s := MustParseState("121000000")
	if s.HasWinner() {
		t.Fatalf("expected no winner")
	}
	if s.TurnCount() != 3 || !s.IsValid() || s.IsTerminal() {
		t.Fatalf("unexpected classification: turn=%d valid=%v terminal=%v", s.TurnCount(), s.IsValid(), s.IsTerminal())
	}
	if got := len(s.PossibleMoves()); got != 6 {
		t.Fatalf("expected 6 moves, got %d", got)
	}
	if got := s.NextPlayer(); got.Kind != TurnPlayer || got.Player != O {
		t.Fatalf("expected O to move, got %v", got)
	}
}

func TestStrictValidity(t *testing.T) {
	cases := []struct {
		id     string
		lax    bool
		strict bool
	}{
		{"000000000", true, true},
		{"100000000", true, true},
		// O first: fine for the lax rule only
		{"200000000", true, false},
		{"110000000", false, false},
		// both players hold a line
		{"111222000", true, false},
		// X won but O has as many pieces
		{"111220200", true, false},
		// O won but X is a piece ahead
		{"222110110", true, false},
		// O won on the last move
		{"222110100", true, true},
		// X holds two lines but is three pieces ahead
		{"111010212", false, false},
		// X completes the anti-diagonal with the ninth move
		{"121212112", true, true},
	}
	for _, tc := range cases {
		s := MustParseState(tc.id)
		if s.IsValid() != tc.lax || s.IsValidFirstPlayerX() != tc.strict {
			t.Fatalf("%s: lax=%v strict=%v, want lax=%v strict=%v", tc.id, s.IsValid(), s.IsValidFirstPlayerX(), tc.lax, tc.strict)
		}
	}
}

func TestBothPlayersWinning(t *testing.T) {
	s := MustParseState("111222000")
	if got := s.Winners(); !reflect.DeepEqual(got, []Cell{X, O}) {
		t.Fatalf("expected winners [X O], got %v", got)
	}
	if s.HasUniqueWinner() || s.Winner() != Empty {
		t.Fatalf("two winners are not a unique winner")
	}
	if !s.IsValid() || s.IsValidFirstPlayerX() {
		t.Fatalf("expected lax valid and strict invalid")
	}
	if len(s.WinningLines()) != 2 {
		t.Fatalf("expected two lines, got %v", s.WinningLines())
	}
}

func TestNextPlayerTagging(t *testing.T) {
	cases := []struct {
		id     string
		lax    Turn
		strict Turn
	}{
		{"100000000", Turn{TurnPlayer, O}, Turn{TurnPlayer, O}},
		{"120000000", Turn{Kind: TurnAmbiguous}, Turn{TurnPlayer, X}},
		{"200000000", Turn{TurnPlayer, X}, Turn{Kind: TurnInvalid}},
		{"110000000", Turn{Kind: TurnInvalid}, Turn{Kind: TurnInvalid}},
	}
	for _, tc := range cases {
		s := MustParseState(tc.id)
		if s.NextPlayer() != tc.lax {
			t.Fatalf("%s: lax next = %v, want %v", tc.id, s.NextPlayer(), tc.lax)
		}
		if s.NextPlayerFirstPlayerX() != tc.strict {
			t.Fatalf("%s: strict next = %v, want %v", tc.id, s.NextPlayerFirstPlayerX(), tc.strict)
		}
	}
}

func TestMakeMoveFromEmpty(t *testing.T) {
	s := Start()
	next, err := s.MakeMove(4)
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if next.ID() != "000010000" {
		t.Fatalf("expected 000010000, got %s", next.ID())
	}
	if s.ID() != "000000000" {
		t.Fatalf("source state must not change, got %s", s.ID())
	}
}

// Equal counts leave the lax next player ambiguous; MakeMove resolves it
// to X rather than rejecting the move.
func TestMakeMoveResolvesAmbiguousTurnToX(t *testing.T) {
	s := MustParseState("120000000")
	if s.NextPlayer().Kind != TurnAmbiguous {
		t.Fatalf("expected ambiguous turn")
	}
	next, err := s.MakeMove(8)
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if next.Board()[8] != X {
		t.Fatalf("expected X at 8, got %v", next.Board()[8])
	}
	// O moved first here; the fallback still plays X
	s = MustParseState("210000000")
	next, _ = s.MakeMove(2)
	if next.Board()[2] != X {
		t.Fatalf("expected X fallback, got %v", next.Board()[2])
	}
}

func TestMakeMoveErrors(t *testing.T) {
	cases := []struct {
		id   string
		pos  int
		want error
	}{
		{"110000000", 4, ErrInvalidState},
		{"111220000", 8, ErrGameOver},
		{"100000000", 0, ErrOccupied},
		{"100000000", 9, ErrOutOfBounds},
		{"100000000", -1, ErrOutOfBounds},
	}
	for _, tc := range cases {
		_, err := MustParseState(tc.id).MakeMove(tc.pos)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s@%d: expected %v, got %v", tc.id, tc.pos, tc.want, err)
		}
		if !errors.Is(err, ErrIllegalMove) {
			t.Fatalf("%s@%d: expected an illegal-move error, got %v", tc.id, tc.pos, err)
		}
	}
}

func TestInvalidInput(t *testing.T) {
	if _, err := NewState(make([]Cell, 8)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for 8 cells, got %v", err)
	}
	if _, err := NewState(make([]Cell, 10)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for 10 cells, got %v", err)
	}
	if _, err := NewState([]Cell{0, 0, 0, 0, 3, 0, 0, 0, 0}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for value 3, got %v", err)
	}
	for _, id := range []string{"", "12000000", "1200000000", "12a000000", "300000000"} {
		if _, err := ParseState(id); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %q, got %v", id, err)
		}
	}
	s, err := NewState([]Cell{X, O, Empty, Empty, X, Empty, Empty, Empty, Empty})
	if err != nil || s.ID() != "120010000" {
		t.Fatalf("unexpected result %q, %v", s.ID(), err)
	}
}

func TestEveryConfigurationRoundTrips(t *testing.T) {
	for n := 0; n < StateCount; n++ {
		var b Board
		v := n
		for i := 8; i >= 0; i-- {
			b[i] = Cell(v % 3)
			v /= 3
		}
		s, err := FromBoard(b)
		if err != nil {
			t.Fatalf("board %d: %v", n, err)
		}
		if s.DecimalID() != n {
			t.Fatalf("board %d: decimal id %d", n, s.DecimalID())
		}
		back, err := ParseState(s.ID())
		if err != nil || back.Board() != b {
			t.Fatalf("board %d: id %s does not round-trip", n, s.ID())
		}
		if s.CountEmpty()+s.CountX()+s.CountO() != 9 {
			t.Fatalf("board %d: counts do not add up", n)
		}
		diff := s.CountX() - s.CountO()
		if s.IsValid() != (diff >= -1 && diff <= 1) {
			t.Fatalf("board %d: lax validity %v with diff %d", n, s.IsValid(), diff)
		}
		if s.IsTerminal() && !s.IsValid() {
			t.Fatalf("board %d: terminal but invalid", n)
		}
	}
}

func TestASCII(t *testing.T) {
	got := MustParseState("120010002").ASCII()
	want := strings.Join([]string{
		" X | O |   ",
		"---+---+---",
		"   | X |   ",
		"---+---+---",
		"   |   | O ",
	}, "\n")
	if got != want {
		t.Fatalf("unexpected grid:\n%s\nwant:\n%s", got, want)
	}
}

func TestRecordJSON(t *testing.T) {
	b, err := json.Marshal(MustParseState("121000000").Record())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(b)
	for _, want := range []string{
		`"id":"121000000"`,
		`"canonical_id":"000000121"`,
		`"decimal_id":11664`,
		`"board":[1,2,1,0,0,0,0,0,0]`,
		`"winners":[]`,
		`"winning_lines":[]`,
		`"turn_count":3`,
		`"count_x":2`,
		`"count_o":1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("record %s missing %s", body, want)
		}
	}
	r := MustParseState("111220000").Record()
	if !reflect.DeepEqual(r.Winners, []int{1}) || !reflect.DeepEqual(r.WinningLines, [][3]int{{0, 1, 2}}) {
		t.Fatalf("unexpected winner fields %v %v", r.Winners, r.WinningLines)
	}
}

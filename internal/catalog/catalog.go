// Package catalog holds the claimable gallery: one row per canonical
// state reachable with X moving first, in the shape the persistence layer
// stores.
package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/jaminalder/tictactoe-atlas/internal/domain"
	"github.com/jaminalder/tictactoe-atlas/internal/generator"
	"github.com/jaminalder/tictactoe-atlas/internal/solver"
)

// ErrAlreadyClaimed is returned when a state already has an owner.
var ErrAlreadyClaimed = errors.New("state already claimed")

// Row is a canonical state plus its gallery fields.
type Row struct {
	domain.Record
	// Rarity is the number of raw configurations in the symmetry class.
	Rarity int `json:"rarity"`
	// Progress is how full the board is, in percent.
	Progress        int     `json:"progress"`
	XWinProbability float64 `json:"x_win_probability"`
	DrawProbability float64 `json:"draw_probability"`
	OWinProbability float64 `json:"o_win_probability"`
}

// Claim records who owns a canonical state.
type Claim struct {
	ID        string    `json:"id"`
	StateID   string    `json:"state_id"`
	Owner     string    `json:"owner"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// Catalog is an ordered, read-only set of rows indexed by canonical id.
type Catalog struct {
	rows  []Row
	index map[string]int
}

// Progress rounds the share of filled cells to a whole percent.
func Progress(s domain.State) int {
	return (s.TurnCount()*100 + 4) / 9
}

// NewRow builds the row for one canonical state, scoring it with sv.
func NewRow(s domain.State, rarity int, sv *solver.Solver) (Row, error) {
	out, err := sv.Outcome(s)
	if err != nil {
		return Row{}, err
	}
	return Row{
		Record:          s.Record(),
		Rarity:          rarity,
		Progress:        Progress(s),
		XWinProbability: out.XWin,
		DrawProbability: out.Draw,
		OWinProbability: out.OWin,
	}, nil
}

// Build creates one row per class that X-moves-first play can reach. The
// row describes the canonical configuration itself. All rows share one
// solver run.
func Build(gen *generator.Generator) (*Catalog, error) {
	sv := solver.New()
	reps := gen.CanonicalValidFirstPlayerX()
	rows := make([]Row, 0, len(reps))
	for _, rep := range reps {
		s, err := domain.ParseState(rep.Canonical())
		if err != nil {
			return nil, fmt.Errorf("parse canonical %s: %w", rep.Canonical(), err)
		}
		row, err := NewRow(s, gen.ClassSize(rep.Canonical()), sv)
		if err != nil {
			return nil, fmt.Errorf("score %s: %w", s.ID(), err)
		}
		rows = append(rows, row)
	}
	return FromRows(rows), nil
}

// FromRows indexes rows loaded elsewhere, e.g. from the store. Later
// duplicates of a canonical id are dropped.
func FromRows(rows []Row) *Catalog {
	c := &Catalog{index: make(map[string]int, len(rows))}
	for _, r := range rows {
		if _, dup := c.index[r.CanonicalID]; dup {
			continue
		}
		c.index[r.CanonicalID] = len(c.rows)
		c.rows = append(c.rows, r)
	}
	return c
}

// Len is the number of rows.
func (c *Catalog) Len() int { return len(c.rows) }

// Rows returns every row in catalog order.
func (c *Catalog) Rows() []Row { return append([]Row(nil), c.rows...) }

// Row looks up a row by canonical id.
func (c *Catalog) Row(canonical string) (Row, bool) {
	i, ok := c.index[canonical]
	if !ok {
		return Row{}, false
	}
	return c.rows[i], true
}

// Select returns the rows matching keep, in catalog order.
func (c *Catalog) Select(keep func(Row) bool) []Row {
	var out []Row
	for _, r := range c.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

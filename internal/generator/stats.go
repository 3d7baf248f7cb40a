package generator

import "github.com/jaminalder/tictactoe-atlas/internal/domain"

// Breakdown counts states under one validity interpretation.
type Breakdown struct {
	Valid     int `json:"valid" yaml:"valid"`
	Terminal  int `json:"terminal" yaml:"terminal"`
	XWins     int `json:"x_wins" yaml:"x_wins"`
	OWins     int `json:"o_wins" yaml:"o_wins"`
	Draws     int `json:"draws" yaml:"draws"`
	Canonical int `json:"canonical" yaml:"canonical"`
}

// Statistics aggregates the configuration space.
type Statistics struct {
	Total             int       `json:"total" yaml:"total"`
	Canonical         int       `json:"canonical" yaml:"canonical"`
	CanonicalCoverage float64   `json:"canonical_coverage" yaml:"canonical_coverage"`
	Lax               Breakdown `json:"lax" yaml:"lax"`
	FirstPlayerX      Breakdown `json:"first_player_x" yaml:"first_player_x"`
}

// Statistics counts valid, terminal, won and drawn states under both the
// lax and the X-moves-first rules. Coverage is the share of raw
// configurations that are canonical representatives, in percent.
func (g *Generator) Statistics() Statistics {
	st := Statistics{
		Total:     len(g.states),
		Canonical: len(g.order),
	}
	if st.Total > 0 {
		st.CanonicalCoverage = float64(st.Canonical) * 100 / float64(st.Total)
	}
	for _, s := range g.states {
		if s.IsValid() {
			tally(&st.Lax, s)
		}
		if s.IsValidFirstPlayerX() {
			tally(&st.FirstPlayerX, s)
		}
	}
	for _, c := range g.classes {
		if c.hasValid {
			st.Lax.Canonical++
		}
		if c.hasX {
			st.FirstPlayerX.Canonical++
		}
	}
	return st
}

// tally counts an already-valid state.
func tally(b *Breakdown, s domain.State) {
	b.Valid++
	full := s.CountEmpty() == 0
	if s.HasWinner() || full {
		b.Terminal++
	}
	switch {
	case s.HasUniqueWinner() && s.Winner() == domain.X:
		b.XWins++
	case s.HasUniqueWinner() && s.Winner() == domain.O:
		b.OWins++
	case !s.HasWinner() && full:
		b.Draws++
	}
}

// Package generator enumerates all 3^9 tic-tac-toe configurations and
// indexes them by symmetry class.
//
// A Generator is built once by New and is read-only afterwards, so it can
// be shared between goroutines without locking.
package generator

import (
	"strconv"
	"strings"

	"github.com/jaminalder/tictactoe-atlas/internal/domain"
)

// class is one canonical equivalence class.
type class struct {
	rep      int // enumeration index of the first member seen
	size     int
	hasValid bool
	hasX     bool
}

// Generator holds every configuration in base-3 counting order together
// with the canonical index.
type Generator struct {
	states  []domain.State
	classes map[string]*class
	order   []string
}

// New enumerates the full configuration space.
func New() *Generator {
	g := &Generator{
		states:  make([]domain.State, 0, domain.StateCount),
		classes: make(map[string]*class),
	}
	for i := 0; i < domain.StateCount; i++ {
		s := domain.MustParseState(encode(i))
		g.states = append(g.states, s)

		c, ok := g.classes[s.Canonical()]
		if !ok {
			// first seen wins
			c = &class{rep: i}
			g.classes[s.Canonical()] = c
			g.order = append(g.order, s.Canonical())
		}
		c.size++
		c.hasValid = c.hasValid || s.IsValid()
		c.hasX = c.hasX || s.IsValidFirstPlayerX()
	}
	return g
}

// encode renders i as a 9-digit base-3 string, left-padded with empties.
func encode(i int) string {
	s := strconv.FormatInt(int64(i), 3)
	return strings.Repeat("0", 9-len(s)) + s
}

// All returns every configuration ordered by decimal id.
func (g *Generator) All() []domain.State {
	return append([]domain.State(nil), g.states...)
}

// Len is the number of configurations (always 3^9).
func (g *Generator) Len() int { return len(g.states) }

// StateByID looks up a configuration by its base-3 id.
func (g *Generator) StateByID(id string) (domain.State, bool) {
	if len(id) != 9 || strings.Trim(id, "012") != "" {
		return domain.State{}, false
	}
	n, err := strconv.ParseInt(id, 3, 64)
	if err != nil || int(n) >= len(g.states) {
		return domain.State{}, false
	}
	return g.states[n], true
}

// Filter returns the configurations matching keep, in enumeration order.
func (g *Generator) Filter(keep func(domain.State) bool) []domain.State {
	var out []domain.State
	for _, s := range g.states {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

// Valid returns the states valid under the lax rule.
func (g *Generator) Valid() []domain.State {
	return g.Filter(domain.State.IsValid)
}

// ValidFirstPlayerX returns the states reachable with X moving first.
func (g *Generator) ValidFirstPlayerX() []domain.State {
	return g.Filter(domain.State.IsValidFirstPlayerX)
}

// Winning returns lax-valid states with exactly one winner.
func (g *Generator) Winning() []domain.State {
	return g.Filter(func(s domain.State) bool { return s.IsValid() && s.HasUniqueWinner() })
}

// Terminal returns the terminal states.
func (g *Generator) Terminal() []domain.State {
	return g.Filter(domain.State.IsTerminal)
}

// WithTurnCount returns the states with n pieces on the board.
func (g *Generator) WithTurnCount(n int) []domain.State {
	return g.Filter(func(s domain.State) bool { return s.TurnCount() == n })
}

// Canonical returns one representative per symmetry class, in the order
// the classes were first seen.
func (g *Generator) Canonical() []domain.State {
	out := make([]domain.State, 0, len(g.order))
	for _, key := range g.order {
		out = append(out, g.states[g.classes[key].rep])
	}
	return out
}

// CanonicalCount is the number of symmetry classes.
func (g *Generator) CanonicalCount() int { return len(g.order) }

// Representative returns the first-seen member of a canonical class.
func (g *Generator) Representative(canonical string) (domain.State, bool) {
	c, ok := g.classes[canonical]
	if !ok {
		return domain.State{}, false
	}
	return g.states[c.rep], true
}

// ClassSize is the number of configurations in a canonical class (its
// rarity count); 0 for an unknown key.
func (g *Generator) ClassSize(canonical string) int {
	if c, ok := g.classes[canonical]; ok {
		return c.size
	}
	return 0
}

// CanonicalValidFirstPlayerX returns the representatives of the classes
// that contain a state reachable with X moving first.
func (g *Generator) CanonicalValidFirstPlayerX() []domain.State {
	var out []domain.State
	for _, key := range g.order {
		if c := g.classes[key]; c.hasX {
			out = append(out, g.states[c.rep])
		}
	}
	return out
}

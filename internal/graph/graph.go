// Package graph builds the game tree of legal move sequences starting from
// a board state.
//
// # Keys
//
// Nodes are keyed by a KeyFunc: ByID keeps every concrete configuration,
// ByCanonical collapses symmetric positions into one node. A graph is
// built with exactly one key function.
//
// # Thread Safety
//
// Build returns a finished graph that is never modified again; accessors
// return copies, so a Graph may be read from many goroutines.
package graph

import (
	"errors"
	"fmt"

	"github.com/jaminalder/tictactoe-atlas/internal/domain"
)

// ErrStateNotFound is returned when a key was never inserted.
var ErrStateNotFound = errors.New("state not found in graph")

// KeyFunc maps a state to its node key.
type KeyFunc func(domain.State) string

// ByID keys nodes by raw configuration.
func ByID(s domain.State) string { return s.ID() }

// ByCanonical keys nodes by symmetry class.
func ByCanonical(s domain.State) string { return s.Canonical() }

// Node is one position in the tree. Parent is empty for the root.
// Children holds one key per legal move, so a key repeats when several
// moves reach the same canonical class.
type Node struct {
	State    domain.State
	Parent   string
	Children []string
	Depth    int
}

// Graph is the breadth-first game tree.
type Graph struct {
	nodes map[string]*Node
	order []string
}

// Build walks every legal move sequence from root breadth first.
// Terminal states get no children; a key seen before is linked again but
// not expanded again.
func Build(root domain.State, key KeyFunc) *Graph {
	rk := key(root)
	g := &Graph{
		nodes: map[string]*Node{rk: {State: root}},
		order: []string{rk},
	}
	queue := []string{rk}
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		n := g.nodes[k]
		if n.State.IsTerminal() {
			continue
		}
		for _, pos := range n.State.PossibleMoves() {
			child, err := n.State.MakeMove(pos)
			if err != nil {
				continue
			}
			ck := key(child)
			if _, seen := g.nodes[ck]; !seen {
				g.nodes[ck] = &Node{State: child, Parent: k, Depth: n.Depth + 1}
				g.order = append(g.order, ck)
				queue = append(queue, ck)
			}
			n.Children = append(n.Children, ck)
		}
	}
	return g
}

// BuildTree builds the tree from the empty board, keyed by canonical form
// when useCanonical is set and by raw id otherwise.
func BuildTree(useCanonical bool) *Graph {
	if useCanonical {
		return Build(domain.Start(), ByCanonical)
	}
	return Build(domain.Start(), ByID)
}

// Root returns the key of the starting node.
func (g *Graph) Root() string { return g.order[0] }

// Len is the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// Keys returns every key in breadth-first insertion order.
func (g *Graph) Keys() []string { return append([]string(nil), g.order...) }

// Has reports whether key is a node.
func (g *Graph) Has(key string) bool {
	_, ok := g.nodes[key]
	return ok
}

// Node returns a copy of the node stored under key.
func (g *Graph) Node(key string) (Node, bool) {
	n, ok := g.nodes[key]
	if !ok {
		return Node{}, false
	}
	cp := *n
	cp.Children = append([]string(nil), n.Children...)
	return cp, true
}

// Children returns the child keys of key, one per legal move.
func (g *Graph) Children(key string) []string {
	if n, ok := g.nodes[key]; ok {
		return append([]string(nil), n.Children...)
	}
	return nil
}

// UniqueChildren is Children without repeats, in first-occurrence order.
func (g *Graph) UniqueChildren(key string) []string {
	n, ok := g.nodes[key]
	if !ok {
		return nil
	}
	seen := make(map[string]bool, len(n.Children))
	var out []string
	for _, c := range n.Children {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// PathTo returns the keys from the root down to key.
func (g *Graph) PathTo(key string) ([]string, error) {
	n, ok := g.nodes[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStateNotFound, key)
	}
	path := make([]string, 0, n.Depth+1)
	for k := key; ; {
		path = append(path, k)
		p := g.nodes[k].Parent
		if p == "" {
			break
		}
		k = p
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// Depth returns the depth of key, or -1 when it is absent.
func (g *Graph) Depth(key string) int {
	if n, ok := g.nodes[key]; ok {
		return n.Depth
	}
	return -1
}

// AverageBranching is the mean number of children of non-terminal nodes,
// or 0 when every node is terminal.
func (g *Graph) AverageBranching() float64 {
	var nodes, children int
	for _, n := range g.nodes {
		if n.State.IsTerminal() {
			continue
		}
		nodes++
		children += len(n.Children)
	}
	if nodes == 0 {
		return 0
	}
	return float64(children) / float64(nodes)
}

// Leaves returns the keys of terminal nodes in breadth-first order.
func (g *Graph) Leaves() []string {
	var out []string
	for _, k := range g.order {
		if g.nodes[k].State.IsTerminal() {
			out = append(out, k)
		}
	}
	return out
}

// CountByDepth returns the number of nodes at each depth.
func (g *Graph) CountByDepth() []int {
	var out []int
	for _, k := range g.order {
		d := g.nodes[k].Depth
		for len(out) <= d {
			out = append(out, 0)
		}
		out[d]++
	}
	return out
}

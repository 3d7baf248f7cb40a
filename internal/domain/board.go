package domain

import (
	"fmt"
	"strings"
)

// Cell represents a board cell state.
type Cell uint8

const (
	Empty Cell = iota
	X
	O
)

// String renders the cell as a board symbol.
func (c Cell) String() string {
	switch c {
	case X:
		return "X"
	case O:
		return "O"
	case Empty:
		return " "
	default:
		return fmt.Sprintf("Cell(%d)", uint8(c))
	}
}

// Opponent returns the other player; Empty stays Empty.
func (c Cell) Opponent() Cell {
	switch c {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// Board is a fixed 3x3 board stored row-major.
type Board [9]Cell

// Line is one of the eight three-in-a-row index triples.
type Line [3]int

// Lines are checked in this order: rows, columns, diagonals.
var Lines = [8]Line{
	// rows
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	// cols
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	// diags
	{0, 4, 8}, {2, 4, 6},
}

func (b Board) complete(ln Line) bool {
	v := b[ln[0]]
	return v != Empty && b[ln[1]] == v && b[ln[2]] == v
}

// ASCII renders the board as a 3x3 grid with row separators, e.g.
//
//	 X | O | X
//	---+---+---
//	   | X |
//	---+---+---
//	 O |   | O
func (b Board) ASCII() string {
	var sb strings.Builder
	for r := 0; r < 3; r++ {
		if r > 0 {
			sb.WriteString("\n---+---+---\n")
		}
		for c := 0; c < 3; c++ {
			if c > 0 {
				sb.WriteByte('|')
			}
			sb.WriteByte(' ')
			sb.WriteString(b[r*3+c].String())
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

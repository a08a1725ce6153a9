package board

import (
	"errors"
	"fmt"
)

const (
	DefaultRows = 6
	DefaultCols = 7
	// DefaultTurnCap forces a draw one ply before a 6x7 board is full.
	DefaultTurnCap = 41
	// WinLength is the run length that ends a game.
	WinLength = 4
)

var (
	ErrColumnFull       = errors.New("column is full")
	ErrColumnOutOfRange = errors.New("column out of range")
	ErrColumnEmpty      = errors.New("column is empty")
	ErrDimensions       = errors.New("invalid board dimensions")
)

// Cell is the content of one board position.
type Cell int8

const (
	Empty Cell = iota
	PlayerA
	PlayerB
)

func (c Cell) String() string {
	switch c {
	case Empty:
		return "empty"
	case PlayerA:
		return "A"
	case PlayerB:
		return "B"
	default:
		return fmt.Sprintf("cell(%d)", int8(c))
	}
}

// Opponent returns the other player marker. Empty maps to Empty.
func (c Cell) Opponent() Cell {
	switch c {
	case PlayerA:
		return PlayerB
	case PlayerB:
		return PlayerA
	default:
		return Empty
	}
}

// Board is a rows x cols grid, row 0 at the top. Pieces fall to the highest
// row index that is still empty.
type Board struct {
	rows  int
	cols  int
	cells []Cell
}

func New(rows, cols int) (*Board, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensions, rows, cols)
	}
	return &Board{
		rows:  rows,
		cols:  cols,
		cells: make([]Cell, rows*cols),
	}, nil
}

// NewDefault returns an empty 6x7 board.
func NewDefault() *Board {
	b, _ := New(DefaultRows, DefaultCols)
	return b
}

func (b *Board) Rows() int     { return b.rows }
func (b *Board) Cols() int     { return b.cols }
func (b *Board) Capacity() int { return b.rows * b.cols }

func (b *Board) At(row, col int) Cell {
	return b.cells[row*b.cols+col]
}

func (b *Board) set(row, col int, c Cell) {
	b.cells[row*b.cols+col] = c
}

func (b *Board) inBounds(row, col int) bool {
	return row >= 0 && row < b.rows && col >= 0 && col < b.cols
}

// Drop places player's marker in the lowest empty row of column and returns
// that row. A full column is rejected without touching the board.
func (b *Board) Drop(col int, player Cell) (int, error) {
	if col < 0 || col >= b.cols {
		return -1, fmt.Errorf("%w: %d not in [0,%d)", ErrColumnOutOfRange, col, b.cols)
	}
	if player != PlayerA && player != PlayerB {
		return -1, fmt.Errorf("invalid player marker: %s", player)
	}
	for row := b.rows - 1; row >= 0; row-- {
		if b.At(row, col) == Empty {
			b.set(row, col, player)
			return row, nil
		}
	}
	return -1, fmt.Errorf("%w: %d", ErrColumnFull, col)
}

// Lift removes the top piece of column and returns the row it occupied.
func (b *Board) Lift(col int) (int, error) {
	if col < 0 || col >= b.cols {
		return -1, fmt.Errorf("%w: %d not in [0,%d)", ErrColumnOutOfRange, col, b.cols)
	}
	for row := 0; row < b.rows; row++ {
		if b.At(row, col) != Empty {
			b.set(row, col, Empty)
			return row, nil
		}
	}
	return -1, fmt.Errorf("%w: %d", ErrColumnEmpty, col)
}

var axes = [4][2]int{
	{0, 1},  // horizontal
	{1, 0},  // vertical
	{1, 1},  // diagonal down-right
	{1, -1}, // diagonal down-left
}

// CheckWin reports whether the piece at (row, col) completes a run of at
// least WinLength for player. Only the rays through that cell are inspected.
func (b *Board) CheckWin(row, col int, player Cell) bool {
	if !b.inBounds(row, col) || b.At(row, col) != player || player == Empty {
		return false
	}
	for _, axis := range axes {
		run := 1 + b.ray(row, col, axis[0], axis[1], player) + b.ray(row, col, -axis[0], -axis[1], player)
		if run >= WinLength {
			return true
		}
	}
	return false
}

func (b *Board) ray(row, col, dr, dc int, player Cell) int {
	n := 0
	for r, c := row+dr, col+dc; b.inBounds(r, c) && b.At(r, c) == player; r, c = r+dr, c+dc {
		n++
	}
	return n
}

// IsFull reports whether every column is full. Only the top row needs a look.
func (b *Board) IsFull() bool {
	for col := 0; col < b.cols; col++ {
		if b.At(0, col) == Empty {
			return false
		}
	}
	return true
}

func (b *Board) ColumnFull(col int) bool {
	return b.At(0, col) != Empty
}

// Pieces returns the number of occupied cells.
func (b *Board) Pieces() int {
	n := 0
	for _, c := range b.cells {
		if c != Empty {
			n++
		}
	}
	return n
}

func (b *Board) Clone() *Board {
	return &Board{
		rows:  b.rows,
		cols:  b.cols,
		cells: append([]Cell(nil), b.cells...),
	}
}

// Snapshot returns a read-only copy for agents and renderers.
func (b *Board) Snapshot() Snapshot {
	return Snapshot{board: b.Clone()}
}

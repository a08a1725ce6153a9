package board

// Network input values for each cell state.
const (
	EncodedEmpty   = -1.0
	EncodedPlayerA = 0.0
	EncodedPlayerB = 1.0
)

// Snapshot is an immutable view of a board at one point of a game.
type Snapshot struct {
	board *Board
}

func (s Snapshot) Rows() int               { return s.board.rows }
func (s Snapshot) Cols() int               { return s.board.cols }
func (s Snapshot) At(row, col int) Cell    { return s.board.At(row, col) }
func (s Snapshot) ColumnFull(col int) bool { return s.board.ColumnFull(col) }
func (s Snapshot) IsFull() bool            { return s.board.IsFull() }
func (s Snapshot) Pieces() int             { return s.board.Pieces() }
func (s Snapshot) CheckWin(row, col int, player Cell) bool {
	return s.board.CheckWin(row, col, player)
}

// Board returns a mutable copy of the snapshot.
func (s Snapshot) Board() *Board {
	return s.board.Clone()
}

// Encode flattens the grid row-major into network inputs.
func (s Snapshot) Encode() []float64 {
	out := make([]float64, len(s.board.cells))
	for i, c := range s.board.cells {
		switch c {
		case PlayerA:
			out[i] = EncodedPlayerA
		case PlayerB:
			out[i] = EncodedPlayerB
		default:
			out[i] = EncodedEmpty
		}
	}
	return out
}

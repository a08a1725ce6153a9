package board

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestNewRejectsInvalidDimensions(t *testing.T) {
	_, err := New(0, 7)
	require.ErrorIs(t, err, ErrDimensions)
	_, err = New(6, -1)
	require.ErrorIs(t, err, ErrDimensions)
}

func TestDropStacksFromBottom(t *testing.T) {
	b := NewDefault()

	row, err := b.Drop(3, PlayerA)
	require.NoError(t, err)
	require.Equal(t, 5, row, "first piece should land on the bottom row")

	row, err = b.Drop(3, PlayerB)
	require.NoError(t, err)
	require.Equal(t, 4, row)
	require.Equal(t, PlayerA, b.At(5, 3))
	require.Equal(t, PlayerB, b.At(4, 3))
	require.Equal(t, 2, b.Pieces())
}

func TestDropFullColumnIsRejectedWithoutMutation(t *testing.T) {
	b := NewDefault()
	for i := 0; i < b.Rows(); i++ {
		_, err := b.Drop(0, PlayerA)
		require.NoError(t, err)
	}
	before := b.Clone()

	row, err := b.Drop(0, PlayerB)
	require.ErrorIs(t, err, ErrColumnFull)
	require.Equal(t, -1, row)
	require.Equal(t, before.cells, b.cells, "rejected drop must not touch the board")
}

func TestDropOutOfRange(t *testing.T) {
	b := NewDefault()
	for _, col := range []int{-1, 7, 100} {
		_, err := b.Drop(col, PlayerA)
		require.ErrorIs(t, err, ErrColumnOutOfRange, "column %d", col)
	}
	require.Zero(t, b.Pieces())
}

func TestDropRejectsEmptyMarker(t *testing.T) {
	b := NewDefault()
	_, err := b.Drop(0, Empty)
	require.Error(t, err)
	require.Zero(t, b.Pieces())
}

func TestLiftRemovesTopPiece(t *testing.T) {
	b := NewDefault()
	_, _ = b.Drop(2, PlayerA)
	_, _ = b.Drop(2, PlayerB)

	row, err := b.Lift(2)
	require.NoError(t, err)
	require.Equal(t, 4, row)
	require.Equal(t, Empty, b.At(4, 2))
	require.Equal(t, PlayerA, b.At(5, 2))

	_, err = b.Lift(2)
	require.NoError(t, err)
	_, err = b.Lift(2)
	require.ErrorIs(t, err, ErrColumnEmpty)
}

func TestGravityInvariantHoldsForRandomDrops(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for game := 0; game < 200; game++ {
		b := NewDefault()
		player := PlayerA
		for move := 0; move < 60; move++ {
			col := rng.Intn(b.Cols())
			if _, err := b.Drop(col, player); err != nil {
				require.True(t, errors.Is(err, ErrColumnFull))
			}
			player = player.Opponent()
			requireGravity(t, b)
		}
	}
}

func requireGravity(t *testing.T, b *Board) {
	t.Helper()
	for col := 0; col < b.Cols(); col++ {
		for row := 1; row < b.Rows(); row++ {
			if b.At(row, col) == Empty {
				require.Equal(t, Empty, b.At(row-1, col), "floating piece at row=%d col=%d", row-1, col)
			}
		}
	}
}

func TestCheckWinAxes(t *testing.T) {
	cases := []struct {
		name  string
		setup func(b *Board) (int, int)
	}{
		{
			name: "vertical",
			setup: func(b *Board) (int, int) {
				var row int
				for i := 0; i < 4; i++ {
					row, _ = b.Drop(3, PlayerA)
				}
				return row, 3
			},
		},
		{
			name: "horizontal completed in the middle",
			setup: func(b *Board) (int, int) {
				_, _ = b.Drop(0, PlayerA)
				_, _ = b.Drop(1, PlayerA)
				_, _ = b.Drop(3, PlayerA)
				row, _ := b.Drop(2, PlayerA)
				return row, 2
			},
		},
		{
			name: "rising diagonal",
			setup: func(b *Board) (int, int) {
				for col := 1; col < 4; col++ {
					for i := 0; i < col; i++ {
						_, _ = b.Drop(col, PlayerB)
					}
				}
				_, _ = b.Drop(0, PlayerA)
				_, _ = b.Drop(1, PlayerA)
				_, _ = b.Drop(2, PlayerA)
				row, _ := b.Drop(3, PlayerA)
				return row, 3
			},
		},
		{
			name: "falling diagonal",
			setup: func(b *Board) (int, int) {
				for col := 3; col < 6; col++ {
					for i := 0; i < 6-col; i++ {
						_, _ = b.Drop(col, PlayerB)
					}
				}
				_, _ = b.Drop(6, PlayerA)
				_, _ = b.Drop(5, PlayerA)
				_, _ = b.Drop(4, PlayerA)
				row, _ := b.Drop(3, PlayerA)
				return row, 3
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewDefault()
			row, col := tc.setup(b)
			require.True(t, b.CheckWin(row, col, PlayerA))
			require.False(t, b.CheckWin(row, col, PlayerB))
		})
	}
}

func TestCheckWinThreeIsNotEnough(t *testing.T) {
	b := NewDefault()
	var row int
	for i := 0; i < 3; i++ {
		row, _ = b.Drop(6, PlayerB)
	}
	require.False(t, b.CheckWin(row, 6, PlayerB))
}

// bruteForceWinThrough scans every window of the board and reports whether a
// run of four for player covers (row, col).
func bruteForceWinThrough(b *Board, row, col int, player Cell) bool {
	for r := 0; r < b.Rows(); r++ {
		for c := 0; c < b.Cols(); c++ {
			for _, axis := range axes {
				covers := false
				ok := true
				for k := 0; k < WinLength; k++ {
					rr, cc := r+k*axis[0], c+k*axis[1]
					if !b.inBounds(rr, cc) || b.At(rr, cc) != player {
						ok = false
						break
					}
					if rr == row && cc == col {
						covers = true
					}
				}
				if ok && covers {
					return true
				}
			}
		}
	}
	return false
}

func TestCheckWinMatchesBruteForceOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	checked := 0
	for game := 0; game < 500; game++ {
		b := NewDefault()
		player := PlayerA
		for b.Pieces() < b.Capacity() {
			col := rng.Intn(b.Cols())
			if b.ColumnFull(col) {
				continue
			}
			row, err := b.Drop(col, player)
			require.NoError(t, err)

			want := bruteForceWinThrough(b, row, col, player)
			got := b.CheckWin(row, col, player)
			require.Equal(t, want, got, "game=%d row=%d col=%d", game, row, col)
			checked++
			if got {
				break
			}
			player = player.Opponent()
		}
	}
	require.Greater(t, checked, 1000)
}

func TestIsFull(t *testing.T) {
	b, err := New(2, 2)
	require.NoError(t, err)
	require.False(t, b.IsFull())
	for col := 0; col < 2; col++ {
		_, _ = b.Drop(col, PlayerA)
		_, _ = b.Drop(col, PlayerB)
	}
	require.True(t, b.IsFull())
	require.Equal(t, 4, b.Capacity())
}

func TestSnapshotIsIsolatedAndEncodes(t *testing.T) {
	b, err := New(2, 3)
	require.NoError(t, err)
	_, _ = b.Drop(0, PlayerA)
	_, _ = b.Drop(1, PlayerB)

	snap := b.Snapshot()
	_, _ = b.Drop(2, PlayerA)
	require.Equal(t, Empty, snap.At(1, 2), "snapshot must not observe later drops")

	require.Equal(t, []float64{
		EncodedEmpty, EncodedEmpty, EncodedEmpty,
		EncodedPlayerA, EncodedPlayerB, EncodedEmpty,
	}, snap.Encode())

	copyBoard := snap.Board()
	_, _ = copyBoard.Drop(2, PlayerB)
	require.Equal(t, Empty, snap.At(1, 2), "board copy must not alias the snapshot")
}

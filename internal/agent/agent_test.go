package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"connect4evo/internal/board"
	"connect4evo/internal/game"
	"connect4evo/internal/nn"
)

type queueReader struct{ cols []int }

func (q *queueReader) ReadColumn(context.Context, board.Snapshot) (int, error) {
	col := q.cols[0]
	q.cols = q.cols[1:]
	return col, nil
}

func TestScriptedBuiltins(t *testing.T) {
	ctx := context.Background()
	b := board.NewDefault()
	_, _ = b.Drop(0, board.PlayerA)
	_, _ = b.Drop(0, board.PlayerB)
	_, _ = b.Drop(5, board.PlayerA)
	snap := b.Snapshot()

	move, err := AlwaysPass().Choose(ctx, snap)
	require.NoError(t, err)
	require.True(t, move.Pass)

	move, err = ConstantColumn(6).Choose(ctx, snap)
	require.NoError(t, err)
	require.Equal(t, game.ColumnMove(6), move)

	move, err = Cycle(5).Choose(ctx, snap)
	require.NoError(t, err)
	require.Equal(t, game.ColumnMove((5+3)%7), move)

	move, err = FirstOpen().Choose(ctx, snap)
	require.NoError(t, err)
	require.Equal(t, game.ColumnMove(0), move)
}

func TestFirstOpenSkipsFullColumns(t *testing.T) {
	b, err := board.New(1, 3)
	require.NoError(t, err)
	_, _ = b.Drop(0, board.PlayerA)
	_, _ = b.Drop(1, board.PlayerB)

	move, err := FirstOpen().Choose(context.Background(), b.Snapshot())
	require.NoError(t, err)
	require.Equal(t, 2, move.Column)

	_, _ = b.Drop(2, board.PlayerA)
	_, err = FirstOpen().Choose(context.Background(), b.Snapshot())
	require.ErrorIs(t, err, ErrNoOpenColumn)
}

func TestBuiltinByName(t *testing.T) {
	for _, name := range []string{"pass", "first-open", "cycle", "column-3"} {
		s, err := Builtin(name)
		require.NoError(t, err, name)
		require.Equal(t, game.KindScripted, s.Kind())
	}
	s, err := Builtin("column-3")
	require.NoError(t, err)
	require.Equal(t, "column-3", s.Name())

	_, err = Builtin("minimax")
	require.Error(t, err)
}

func TestNeuralAgentPlaysArgmax(t *testing.T) {
	net, err := nn.NewZero("zero", []int{42, 32, 22, 7})
	require.NoError(t, err)
	a, err := NewNeural(net, 6, 7)
	require.NoError(t, err)
	require.Equal(t, game.KindNeural, a.Kind())
	require.Equal(t, "zero", a.Name())

	move, err := a.Choose(context.Background(), board.NewDefault().Snapshot())
	require.NoError(t, err)
	require.Equal(t, game.ColumnMove(0), move)
}

func TestNeuralAgentIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	net, err := nn.NewRandom("r", []int{42, 16, 7}, 1, rng)
	require.NoError(t, err)
	a, err := NewNeural(net, 6, 7)
	require.NoError(t, err)

	b := board.NewDefault()
	_, _ = b.Drop(3, board.PlayerA)
	snap := b.Snapshot()
	first, err := a.Choose(context.Background(), snap)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := a.Choose(context.Background(), snap)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestNewNeuralRejectsShapeMismatch(t *testing.T) {
	net, err := nn.NewZero("small", []int{20, 5})
	require.NoError(t, err)
	_, err = NewNeural(net, 6, 7)
	require.ErrorIs(t, err, nn.ErrTopology)
	_, err = NewNeural(net, 4, 5)
	require.NoError(t, err)
}

func TestInteractiveMapsPassColumn(t *testing.T) {
	human := NewInteractive("human", &queueReader{cols: []int{4, PassColumn}})
	require.Equal(t, game.KindInteractive, human.Kind())

	snap := board.NewDefault().Snapshot()
	move, err := human.Choose(context.Background(), snap)
	require.NoError(t, err)
	require.Equal(t, game.ColumnMove(4), move)

	move, err = human.Choose(context.Background(), snap)
	require.NoError(t, err)
	require.True(t, move.Pass)
}

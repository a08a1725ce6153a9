package agent

import (
	"context"

	"connect4evo/internal/board"
	"connect4evo/internal/game"
)

// Sentinels a ColumnReader returns instead of a column.
const (
	PassColumn = -1
	UndoColumn = -2
)

// ColumnReader blocks until the human picks a zero-based column, passes or
// asks to undo.
type ColumnReader interface {
	ReadColumn(ctx context.Context, snap board.Snapshot) (int, error)
}

type Interactive struct {
	name   string
	reader ColumnReader
}

func NewInteractive(name string, reader ColumnReader) *Interactive {
	return &Interactive{name: name, reader: reader}
}

func (i *Interactive) Name() string         { return i.name }
func (i *Interactive) Kind() game.AgentKind { return game.KindInteractive }

func (i *Interactive) Choose(ctx context.Context, snap board.Snapshot) (game.Move, error) {
	col, err := i.reader.ReadColumn(ctx, snap)
	if err != nil {
		return game.Move{}, err
	}
	switch col {
	case PassColumn:
		return game.PassMove(), nil
	case UndoColumn:
		return game.UndoMove(), nil
	default:
		return game.ColumnMove(col), nil
	}
}

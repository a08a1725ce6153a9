package agent

import (
	"context"
	"errors"
	"fmt"

	"connect4evo/internal/board"
	"connect4evo/internal/game"
)

var ErrNoOpenColumn = errors.New("no open column")

// ScriptFunc is a pure function of the board.
type ScriptFunc func(snap board.Snapshot) (game.Move, error)

type Scripted struct {
	name string
	fn   ScriptFunc
}

func NewScripted(name string, fn ScriptFunc) *Scripted {
	return &Scripted{name: name, fn: fn}
}

func (s *Scripted) Name() string         { return s.name }
func (s *Scripted) Kind() game.AgentKind { return game.KindScripted }

func (s *Scripted) Choose(ctx context.Context, snap board.Snapshot) (game.Move, error) {
	if err := ctx.Err(); err != nil {
		return game.Move{}, err
	}
	return s.fn(snap)
}

func AlwaysPass() *Scripted {
	return NewScripted("pass", func(board.Snapshot) (game.Move, error) {
		return game.PassMove(), nil
	})
}

// ConstantColumn always drops into col, full or not.
func ConstantColumn(col int) *Scripted {
	return NewScripted(fmt.Sprintf("column-%d", col), func(board.Snapshot) (game.Move, error) {
		return game.ColumnMove(col), nil
	})
}

// Cycle derives its column from the number of pieces on the board, so two
// cycling agents sweep the columns left to right.
func Cycle(start int) *Scripted {
	return NewScripted(fmt.Sprintf("cycle-%d", start), func(snap board.Snapshot) (game.Move, error) {
		return game.ColumnMove((start + snap.Pieces()) % snap.Cols()), nil
	})
}

// FirstOpen drops into the leftmost column with space.
func FirstOpen() *Scripted {
	return NewScripted("first-open", func(snap board.Snapshot) (game.Move, error) {
		for col := 0; col < snap.Cols(); col++ {
			if !snap.ColumnFull(col) {
				return game.ColumnMove(col), nil
			}
		}
		return game.Move{}, ErrNoOpenColumn
	})
}

// Builtin resolves a scripted agent by name: pass, first-open, cycle or
// column-<n>.
func Builtin(name string) (*Scripted, error) {
	switch name {
	case "pass":
		return AlwaysPass(), nil
	case "first-open":
		return FirstOpen(), nil
	case "cycle":
		return Cycle(0), nil
	}
	var col int
	if _, err := fmt.Sscanf(name, "column-%d", &col); err == nil {
		return ConstantColumn(col), nil
	}
	return nil, fmt.Errorf("unknown scripted agent: %s", name)
}

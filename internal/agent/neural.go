package agent

import (
	"context"
	"fmt"

	"connect4evo/internal/board"
	"connect4evo/internal/game"
	"connect4evo/internal/nn"
)

// Neural plays the argmax column of its network. It never passes.
type Neural struct {
	net *nn.Network
}

// NewNeural binds net to an agent for rows x cols boards.
func NewNeural(net *nn.Network, rows, cols int) (*Neural, error) {
	if net == nil {
		return nil, fmt.Errorf("network is required")
	}
	if err := net.CheckShape(rows*cols, cols); err != nil {
		return nil, err
	}
	return &Neural{net: net}, nil
}

func (n *Neural) Name() string         { return n.net.ID }
func (n *Neural) Kind() game.AgentKind { return game.KindNeural }
func (n *Neural) Network() *nn.Network { return n.net }

func (n *Neural) Choose(ctx context.Context, snap board.Snapshot) (game.Move, error) {
	if err := ctx.Err(); err != nil {
		return game.Move{}, err
	}
	col, err := n.net.Choose(snap.Encode())
	if err != nil {
		return game.Move{}, err
	}
	return game.ColumnMove(col), nil
}

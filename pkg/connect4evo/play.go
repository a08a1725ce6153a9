package connect4evo

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"connect4evo/internal/agent"
	"connect4evo/internal/board"
	"connect4evo/internal/console"
	"connect4evo/internal/game"
	"connect4evo/internal/nn"
)

// PlayRequest sets up an exhibition game. The opponent is a scripted agent
// when Opponent is set, otherwise the genome at GenomePath, otherwise the
// best survivor of the referenced run. The other seat is the scripted
// Challenger when set and a human reading from In otherwise.
type PlayRequest struct {
	RunID       string
	Latest      bool
	GenomePath  string
	Opponent    string
	Challenger  string
	HumanSecond bool
	TurnCap     int
	In          io.Reader
	Out         io.Writer
}

type PlaySummary struct {
	PlayerA string
	PlayerB string
	Outcome game.Outcome
	Winner  string
	Turns   int
	Moves   []game.Move
	Err     error
}

func (c *Client) Play(ctx context.Context, req PlayRequest) (PlaySummary, error) {
	if req.Out == nil {
		req.Out = io.Discard
	}
	opponent, rows, cols, err := c.playOpponent(ctx, req)
	if err != nil {
		return PlaySummary{}, err
	}

	var challenger game.Agent
	if req.Challenger != "" {
		scripted, err := agent.Builtin(req.Challenger)
		if err != nil {
			return PlaySummary{}, err
		}
		challenger = scripted
	} else {
		if req.In == nil {
			return PlaySummary{}, errors.New("play needs an input reader or a scripted challenger")
		}
		challenger = agent.NewInteractive("human", console.NewReader(req.In, req.Out))
	}

	a, b := challenger, opponent
	if req.HumanSecond {
		a, b = opponent, challenger
	}
	g, err := game.New(a, b, game.Options{
		Rows:     rows,
		Cols:     cols,
		TurnCap:  req.TurnCap,
		Renderer: console.NewRenderer(req.Out),
	})
	if err != nil {
		return PlaySummary{}, err
	}

	log.Debug().Str("player_a", a.Name()).Str("player_b", b.Name()).Msg("exhibition game started")
	res := g.Run(ctx)
	summary := PlaySummary{
		PlayerA: a.Name(),
		PlayerB: b.Name(),
		Outcome: res.Outcome,
		Turns:   res.Turns,
		Moves:   res.Moves,
		Err:     res.Err,
	}
	switch res.Winner {
	case board.PlayerA:
		summary.Winner = a.Name()
	case board.PlayerB:
		summary.Winner = b.Name()
	}
	if res.Err != nil && !errors.Is(res.Err, console.ErrQuit) {
		log.Warn().Err(res.Err).Msg("exhibition game aborted")
	}
	return summary, nil
}

func (c *Client) playOpponent(ctx context.Context, req PlayRequest) (game.Agent, int, int, error) {
	if req.Opponent != "" {
		scripted, err := agent.Builtin(req.Opponent)
		if err != nil {
			return nil, 0, 0, err
		}
		return scripted, board.DefaultRows, board.DefaultCols, nil
	}

	var net *nn.Network
	if req.GenomePath != "" {
		loaded, err := LoadGenome(req.GenomePath)
		if err != nil {
			return nil, 0, 0, err
		}
		net = loaded
	} else {
		top, err := c.TopGenomes(ctx, RunRef{RunID: req.RunID, Latest: req.Latest, Limit: 1})
		if err != nil {
			return nil, 0, 0, err
		}
		if len(top) == 0 {
			return nil, 0, 0, errors.New("run has no ranked genomes")
		}
		loaded, err := nn.FromGenome(top[0].Genome)
		if err != nil {
			return nil, 0, 0, err
		}
		net = loaded
	}

	cols := net.OutputSize()
	if net.InputSize()%cols != 0 {
		return nil, 0, 0, fmt.Errorf("%w: genome %s input %d is not a whole number of %d-column rows", nn.ErrTopology, net.ID, net.InputSize(), cols)
	}
	rows := net.InputSize() / cols
	neural, err := agent.NewNeural(net, rows, cols)
	if err != nil {
		return nil, 0, 0, err
	}
	return neural, rows, cols, nil
}

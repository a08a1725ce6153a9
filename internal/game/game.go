package game

import (
	"context"
	"errors"
	"fmt"

	"connect4evo/internal/board"
)

var (
	ErrGameOver            = errors.New("game is over")
	ErrNothingToUndo       = errors.New("no turn to undo")
	ErrInteractiveHeadless = errors.New("interactive agent in headless game")
	ErrInvalidPlay         = errors.New("invalid play")
	ErrMissingAgent        = errors.New("agent is required")
	ErrUndoNotAllowed      = errors.New("undo requested by non-interactive agent")
)

// Outcome is the state of a game as seen by its caller.
type Outcome int

const (
	InProgress Outcome = iota
	Draw
	WinnerA
	WinnerB
	// Aborted ends a game after an invalid play or agent failure. It scores
	// like a draw.
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case InProgress:
		return "in_progress"
	case Draw:
		return "draw"
	case WinnerA:
		return "winner_a"
	case WinnerB:
		return "winner_b"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

func (o Outcome) Terminal() bool { return o != InProgress }

// Move is one turn: a column index or a pass. Undo is a request, not a
// turn: it takes back the mover's previous move and the reply to it. Only
// interactive agents may ask for it.
type Move struct {
	Column int  `json:"column"`
	Pass   bool `json:"pass,omitempty"`
	Undo   bool `json:"-"`
}

func PassMove() Move          { return Move{Column: -1, Pass: true} }
func ColumnMove(col int) Move { return Move{Column: col} }
func UndoMove() Move          { return Move{Column: -1, Undo: true} }

func (m Move) String() string {
	switch {
	case m.Undo:
		return "undo"
	case m.Pass:
		return "pass"
	default:
		return fmt.Sprintf("col %d", m.Column)
	}
}

type AgentKind int

const (
	KindInteractive AgentKind = iota
	KindScripted
	KindNeural
)

func (k AgentKind) String() string {
	switch k {
	case KindInteractive:
		return "interactive"
	case KindScripted:
		return "scripted"
	case KindNeural:
		return "neural"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Agent picks a move from a read-only view of the board. The engine never
// calls an agent again before its previous Choose has returned.
type Agent interface {
	Name() string
	Kind() AgentKind
	Choose(ctx context.Context, snap board.Snapshot) (Move, error)
}

// Renderer observes the board once at start and after every turn.
type Renderer interface {
	Render(snap board.Snapshot)
}

// Options configures a game. Zero Rows, Cols and TurnCap take the 6x7 board
// and the 41-turn cap; there is no way to ask for a cap of 0.
type Options struct {
	Rows     int
	Cols     int
	TurnCap  int
	Headless bool
	Renderer Renderer
}

func (o Options) withDefaults() Options {
	if o.Rows == 0 {
		o.Rows = board.DefaultRows
	}
	if o.Cols == 0 {
		o.Cols = board.DefaultCols
	}
	if o.TurnCap == 0 {
		o.TurnCap = board.DefaultTurnCap
	}
	return o
}

type Result struct {
	Outcome Outcome
	Winner  board.Cell
	Turns   int
	Moves   []Move
	Err     error
}

// Game owns its board, turn state and renderer. No state is shared between
// games.
type Game struct {
	board    *board.Board
	agents   [2]Agent
	renderer Renderer
	turnCap  int

	current board.Cell
	turns   int
	moves   []Move
	outcome Outcome
	err     error
	started bool
}

func New(a, b Agent, opts Options) (*Game, error) {
	if a == nil || b == nil {
		return nil, ErrMissingAgent
	}
	opts = opts.withDefaults()
	if opts.TurnCap < 0 {
		return nil, fmt.Errorf("turn cap must be non-negative, got=%d", opts.TurnCap)
	}
	if opts.Headless {
		for _, ag := range []Agent{a, b} {
			if ag.Kind() == KindInteractive {
				return nil, fmt.Errorf("%w: %s", ErrInteractiveHeadless, ag.Name())
			}
		}
	}
	bd, err := board.New(opts.Rows, opts.Cols)
	if err != nil {
		return nil, err
	}
	return &Game{
		board:    bd,
		agents:   [2]Agent{a, b},
		renderer: opts.Renderer,
		turnCap:  opts.TurnCap,
		current:  board.PlayerA,
	}, nil
}

func (g *Game) Outcome() Outcome         { return g.outcome }
func (g *Game) Turns() int               { return g.turns }
func (g *Game) Current() board.Cell      { return g.current }
func (g *Game) Snapshot() board.Snapshot { return g.board.Snapshot() }

func (g *Game) Moves() []Move {
	return append([]Move(nil), g.moves...)
}

func (g *Game) agentFor(player board.Cell) Agent {
	if player == board.PlayerA {
		return g.agents[0]
	}
	return g.agents[1]
}

func (g *Game) render() {
	if g.renderer != nil {
		g.renderer.Render(g.board.Snapshot())
	}
}

// Step performs one transition. It returns ErrGameOver once the game is
// terminal; invalid plays are reported through Result().Err.
func (g *Game) Step(ctx context.Context) (Outcome, error) {
	if g.outcome.Terminal() {
		return g.outcome, ErrGameOver
	}
	if !g.started {
		g.started = true
		g.render()
	}
	if g.turns >= g.turnCap || g.board.IsFull() {
		g.outcome = Draw
		return g.outcome, nil
	}
	if err := ctx.Err(); err != nil {
		g.abort(err)
		return g.outcome, nil
	}

	ag := g.agentFor(g.current)
	move, err := ag.Choose(ctx, g.board.Snapshot())
	if err != nil {
		g.abort(fmt.Errorf("%w: %s agent %s: %w", ErrInvalidPlay, g.current, ag.Name(), err))
		return g.outcome, nil
	}

	if move.Undo {
		if ag.Kind() != KindInteractive {
			g.abort(fmt.Errorf("%w: %s agent %s: %w", ErrInvalidPlay, g.current, ag.Name(), ErrUndoNotAllowed))
			return g.outcome, nil
		}
		// Fewer than two recorded turns leaves nothing of the mover's to
		// take back; the human is simply asked again.
		if len(g.moves) >= 2 {
			_ = g.Undo()
			_ = g.Undo()
		}
		return g.outcome, nil
	}
	if move.Pass {
		g.moves = append(g.moves, PassMove())
		g.advance()
		g.render()
		return g.outcome, nil
	}

	row, err := g.board.Drop(move.Column, g.current)
	if err != nil {
		g.abort(fmt.Errorf("%w: %s agent %s: %w", ErrInvalidPlay, g.current, ag.Name(), err))
		return g.outcome, nil
	}
	g.moves = append(g.moves, ColumnMove(move.Column))
	if g.board.CheckWin(row, move.Column, g.current) {
		g.turns++
		if g.current == board.PlayerA {
			g.outcome = WinnerA
		} else {
			g.outcome = WinnerB
		}
	} else {
		g.advance()
	}
	g.render()
	return g.outcome, nil
}

func (g *Game) advance() {
	g.turns++
	g.current = g.current.Opponent()
}

func (g *Game) abort(err error) {
	g.outcome = Aborted
	g.err = err
}

// Run steps the game until it is terminal.
func (g *Game) Run(ctx context.Context) Result {
	for !g.outcome.Terminal() {
		if _, err := g.Step(ctx); err != nil {
			break
		}
	}
	return g.Result()
}

func (g *Game) Result() Result {
	res := Result{
		Outcome: g.outcome,
		Winner:  board.Empty,
		Turns:   g.turns,
		Moves:   g.Moves(),
		Err:     g.err,
	}
	switch g.outcome {
	case WinnerA:
		res.Winner = board.PlayerA
	case WinnerB:
		res.Winner = board.PlayerB
	}
	return res
}

// Undo reverts the most recent turn of a game still in progress and hands
// the move back to the player who made it.
func (g *Game) Undo() error {
	if g.outcome.Terminal() {
		return ErrGameOver
	}
	if len(g.moves) == 0 {
		return ErrNothingToUndo
	}
	last := g.moves[len(g.moves)-1]
	if !last.Pass {
		if _, err := g.board.Lift(last.Column); err != nil {
			return fmt.Errorf("undo %s: %w", last, err)
		}
	}
	g.moves = g.moves[:len(g.moves)-1]
	g.turns--
	g.current = g.current.Opponent()
	g.render()
	return nil
}

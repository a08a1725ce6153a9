// Package console is the text collaborator for exhibition games: a board
// printer and a line-based column reader.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"connect4evo/internal/agent"
	"connect4evo/internal/board"
)

var ErrQuit = errors.New("player quit")

var symbols = map[board.Cell]byte{
	board.Empty:   '_',
	board.PlayerA: 'X',
	board.PlayerB: 'O',
}

type Renderer struct {
	w io.Writer
}

func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

// Render prints the grid top row first with one-based column numbers below.
func (r *Renderer) Render(snap board.Snapshot) {
	var sb strings.Builder
	for row := 0; row < snap.Rows(); row++ {
		for col := 0; col < snap.Cols(); col++ {
			if col > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteByte(symbols[snap.At(row, col)])
		}
		sb.WriteByte('\n')
	}
	for col := 0; col < snap.Cols(); col++ {
		if col > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa((col + 1) % 10))
	}
	sb.WriteString("\n\n")
	_, _ = io.WriteString(r.w, sb.String())
}

// Reader turns lines into columns. A number picks a one-based column, a
// blank line passes, "u" undoes and "q" quits. Anything else re-prompts.
type Reader struct {
	in     *bufio.Scanner
	prompt io.Writer
}

func NewReader(in io.Reader, prompt io.Writer) *Reader {
	return &Reader{in: bufio.NewScanner(in), prompt: prompt}
}

func (r *Reader) ReadColumn(ctx context.Context, snap board.Snapshot) (int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		fmt.Fprintf(r.prompt, "column [1-%d], enter to pass, u to undo, q to quit: ", snap.Cols())
		if !r.in.Scan() {
			if err := r.in.Err(); err != nil {
				return 0, err
			}
			return 0, ErrQuit
		}
		line := strings.TrimSpace(r.in.Text())
		switch strings.ToLower(line) {
		case "":
			return agent.PassColumn, nil
		case "u":
			return agent.UndoColumn, nil
		case "q":
			return 0, ErrQuit
		}
		col, err := strconv.Atoi(line)
		if err != nil || col < 1 || col > snap.Cols() {
			fmt.Fprintf(r.prompt, "not a column: %q\n", line)
			continue
		}
		if snap.ColumnFull(col - 1) {
			fmt.Fprintf(r.prompt, "column %d is full\n", col)
			continue
		}
		return col - 1, nil
	}
}

// Package checkers is the 8×8 checkers board model with forced captures and jump chains.
package checkers

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/gameroom-server/internal/apperror"
	"github.com/rocketscienceinc/gameroom-server/internal/game"
)

const Size = 8

type Piece uint8

const (
	Empty Piece = iota
	RedMan
	RedKing
	BlackMan
	BlackKing
)

// Seat 0 plays red from the bottom rows and moves first.
func (that Piece) owner() int {
	switch that {
	case RedMan, RedKing:
		return 0
	case BlackMan, BlackKing:
		return 1
	default:
		return game.NoSeat
	}
}

func (that Piece) king() bool {
	return that == RedKing || that == BlackKing
}

func (that Piece) forward() int {
	if that.owner() == 0 {
		return -1
	}

	return 1
}

func (that Piece) crowned() Piece {
	switch that {
	case RedMan:
		return RedKing
	case BlackMan:
		return BlackKing
	default:
		return that
	}
}

// canGo reports whether the piece may travel in row direction dr.
func (that Piece) canGo(dr int) bool {
	return that.king() || dr == that.forward()
}

type Board struct {
	cells  [Size][Size]Piece
	toMove int
	chain  *Square
	result *game.Result
}

func New() *Board {
	b := &Board{}

	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if !dark(Square{Row: row, Col: col}) {
				continue
			}
			switch {
			case row < 3:
				b.cells[row][col] = BlackMan
			case row >= Size-3:
				b.cells[row][col] = RedMan
			}
		}
	}

	return b
}

// FromCells builds a position directly. Used by tests and restores.
func FromCells(cells [Size][Size]Piece, toMove int) *Board {
	return &Board{cells: cells, toMove: toMove}
}

func dark(sq Square) bool {
	return (sq.Row+sq.Col)%2 == 1
}

func (that *Board) Type() game.Type {
	return game.TypeCheckers
}

func (that *Board) At(sq Square) Piece {
	return that.cells[sq.Row][sq.Col]
}

// Chain returns the piece that must keep jumping, if any.
func (that *Board) Chain() (Square, bool) {
	if that.chain == nil {
		return Square{}, false
	}

	return *that.chain, true
}

func (that *Board) ToMove() int {
	if that.result != nil {
		return game.NoSeat
	}

	return that.toMove
}

func (that *Board) Phase() game.Phase {
	return game.PhasePlay
}

func (that *Board) Ready(int) bool {
	return true
}

func (that *Board) Terminal() (game.Result, bool) {
	if that.result == nil {
		return game.Result{}, false
	}

	return *that.result, true
}

func (that *Board) ApplyMove(seat int, move game.Move) (game.Outcome, error) {
	if that.result != nil {
		return game.Outcome{}, apperror.ErrGameAlreadyOver
	}

	m, ok := move.(Move)
	if !ok {
		return game.Outcome{}, fmt.Errorf("%w: expected a checkers move, got %T", apperror.ErrInvalidMoveFormat, move)
	}

	if seat != that.toMove {
		return game.Outcome{}, apperror.ErrOutOfTurn
	}

	if len(m.Path) < 2 {
		return game.Outcome{}, fmt.Errorf("%w: a move needs at least two squares", apperror.ErrInvalidMoveFormat)
	}

	scratch := *that
	for i := 1; i < len(m.Path); i++ {
		if i > 1 && scratch.chain == nil {
			return game.Outcome{}, fmt.Errorf("%w: the turn ended at %s", apperror.ErrIllegalMove, m.Path[i-1])
		}
		if err := scratch.hop(seat, m.Path[i-1], m.Path[i]); err != nil {
			return game.Outcome{}, err
		}
	}

	if scratch.chain == nil {
		scratch.toMove = game.Other(seat)
		if !scratch.hasMove(scratch.toMove) {
			scratch.result = game.Win(seat, "no legal moves")
		}
	}

	*that = scratch

	return game.Outcome{Continue: that.chain != nil, Result: that.result}, nil
}

// hop moves one step or one jump, leaving chain set when the same piece must jump again.
func (that *Board) hop(seat int, from, to Square) error {
	if !from.valid() || !to.valid() {
		return fmt.Errorf("%w: %s to %s leaves the board", apperror.ErrIllegalMove, from, to)
	}

	piece := that.At(from)
	if piece.owner() != seat {
		return fmt.Errorf("%w: no piece of yours on %s", apperror.ErrIllegalMove, from)
	}

	if that.chain != nil && from != *that.chain {
		return fmt.Errorf("%w: keep jumping with %s", apperror.ErrForcedMoveAvailable, *that.chain)
	}

	if that.At(to) != Empty {
		return fmt.Errorf("%w: %s is occupied", apperror.ErrIllegalMove, to)
	}

	dr, dc := to.Row-from.Row, to.Col-from.Col

	switch {
	case abs(dr) == 1 && abs(dc) == 1:
		if that.chain != nil {
			return fmt.Errorf("%w: keep jumping with %s", apperror.ErrForcedMoveAvailable, *that.chain)
		}
		if that.hasJump(seat) {
			return apperror.ErrForcedMoveAvailable
		}
		if !piece.canGo(dr) {
			return fmt.Errorf("%w: men only move forward", apperror.ErrIllegalMove)
		}

		that.relocate(from, to)
		that.chain = nil

		return nil
	case abs(dr) == 2 && abs(dc) == 2:
		over := Square{Row: from.Row + dr/2, Col: from.Col + dc/2}
		victim := that.At(over)
		if victim == Empty || victim.owner() == seat {
			return fmt.Errorf("%w: nothing to capture on %s", apperror.ErrIllegalMove, over)
		}
		if !piece.canGo(dr / 2) {
			return fmt.Errorf("%w: men only capture forward", apperror.ErrIllegalMove)
		}

		that.cells[over.Row][over.Col] = Empty
		crowned := that.relocate(from, to)

		that.chain = nil
		if !crowned && len(that.jumpsFrom(to)) > 0 {
			landing := to
			that.chain = &landing
		}

		return nil
	default:
		return fmt.Errorf("%w: %s to %s is not a diagonal step or jump", apperror.ErrIllegalMove, from, to)
	}
}

// relocate moves a piece and crowns it on the far rank. It reports whether a crowning happened.
func (that *Board) relocate(from, to Square) bool {
	piece := that.At(from)
	that.cells[from.Row][from.Col] = Empty

	farRank := 0
	if piece.owner() == 1 {
		farRank = Size - 1
	}

	crowned := !piece.king() && to.Row == farRank
	if crowned {
		piece = piece.crowned()
	}
	that.cells[to.Row][to.Col] = piece

	return crowned
}

var diagonals = [4][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}

func (that *Board) jumpsFrom(from Square) []Square {
	piece := that.At(from)
	var out []Square

	for _, d := range diagonals {
		if !piece.canGo(d[0]) {
			continue
		}
		over := Square{Row: from.Row + d[0], Col: from.Col + d[1]}
		to := Square{Row: from.Row + 2*d[0], Col: from.Col + 2*d[1]}
		if !to.valid() || that.At(to) != Empty {
			continue
		}
		if victim := that.At(over); victim != Empty && victim.owner() != piece.owner() {
			out = append(out, to)
		}
	}

	return out
}

func (that *Board) stepsFrom(from Square) []Square {
	piece := that.At(from)
	var out []Square

	for _, d := range diagonals {
		if !piece.canGo(d[0]) {
			continue
		}
		to := Square{Row: from.Row + d[0], Col: from.Col + d[1]}
		if to.valid() && that.At(to) == Empty {
			out = append(out, to)
		}
	}

	return out
}

func (that *Board) pieces(seat int) []Square {
	var out []Square

	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if that.cells[row][col].owner() == seat {
				out = append(out, Square{Row: row, Col: col})
			}
		}
	}

	return out
}

func (that *Board) hasJump(seat int) bool {
	for _, sq := range that.pieces(seat) {
		if len(that.jumpsFrom(sq)) > 0 {
			return true
		}
	}

	return false
}

func (that *Board) hasMove(seat int) bool {
	for _, sq := range that.pieces(seat) {
		if len(that.jumpsFrom(sq)) > 0 || len(that.stepsFrom(sq)) > 0 {
			return true
		}
	}

	return false
}

// LegalMoves lists complete moves for the side to move: whole jump chains when a capture exists,
// single steps otherwise.
func (that *Board) LegalMoves() []Move {
	if that.result != nil {
		return nil
	}

	starts := that.pieces(that.toMove)
	if that.chain != nil {
		starts = []Square{*that.chain}
	}

	var jumps []Move
	for _, from := range starts {
		jumps = append(jumps, that.jumpChains([]Square{from})...)
	}
	if len(jumps) > 0 || that.chain != nil {
		return jumps
	}

	var steps []Move
	for _, from := range starts {
		for _, to := range that.stepsFrom(from) {
			steps = append(steps, NewMove(from, to))
		}
	}

	return steps
}

func (that *Board) jumpChains(path []Square) []Move {
	from := path[len(path)-1]
	var out []Move

	for _, to := range that.jumpsFrom(from) {
		next := *that
		next.chain = nil
		if err := next.hop(that.At(from).owner(), from, to); err != nil {
			continue
		}

		extended := append(append([]Square(nil), path...), to)
		if next.chain == nil {
			out = append(out, Move{Path: extended})
			continue
		}
		out = append(out, next.jumpChains(extended)...)
	}

	return out
}

func (that *Board) Clone() game.Board {
	clone := *that
	if that.chain != nil {
		chain := *that.chain
		clone.chain = &chain
	}

	return &clone
}

type View struct {
	Game       game.Type         `json:"game"`
	Board      [Size][Size]Piece `json:"board"`
	Turn       int               `json:"turn"`
	You        int               `json:"you"`
	YourColor  string            `json:"your_color,omitempty"`
	Chain      *Square           `json:"chain,omitempty"`
	LegalMoves []string          `json:"legal_moves,omitempty"`
	Result     *game.Result      `json:"result,omitempty"`
}

func (that *Board) EncodeFor(viewer game.Viewer) any {
	view := View{
		Game:   game.TypeCheckers,
		Board:  that.cells,
		Turn:   that.ToMove(),
		You:    viewer.Seat,
		Chain:  that.chain,
		Result: that.result,
	}

	if !viewer.IsSpectator() {
		view.YourColor = "red"
		if viewer.Seat == 1 {
			view.YourColor = "black"
		}

		if viewer.Seat == that.ToMove() {
			for _, m := range that.LegalMoves() {
				view.LegalMoves = append(view.LegalMoves, m.String())
			}
		}
	}

	return view
}

type snapshot struct {
	Cells  [Size][Size]Piece `json:"cells"`
	ToMove int               `json:"to_move"`
	Chain  *Square           `json:"chain,omitempty"`
	Result *game.Result      `json:"result,omitempty"`
}

func (that *Board) Snapshot() ([]byte, error) {
	data, err := json.Marshal(snapshot{
		Cells:  that.cells,
		ToMove: that.toMove,
		Chain:  that.chain,
		Result: that.result,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checkers board: %w", err)
	}

	return data, nil
}

func Restore(data []byte) (*Board, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkers board: %w", err)
	}

	return &Board{
		cells:  snap.Cells,
		toMove: snap.ToMove,
		chain:  snap.Chain,
		result: snap.Result,
	}, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}

	return n
}

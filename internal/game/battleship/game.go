package battleship

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/gameroom-server/internal/apperror"
	"github.com/rocketscienceinc/gameroom-server/internal/game"
)

// Placement positions one ship.
type Placement struct {
	Ship        int         `json:"ship"`
	X           int         `json:"x"`
	Y           int         `json:"y"`
	Orientation Orientation `json:"orientation"`
}

// PlaceShips places a batch of ships; the whole batch is rejected if any placement fails.
type PlaceShips struct {
	Placements []Placement `json:"placements"`
}

func (that PlaceShips) String() string {
	return fmt.Sprintf("place %d ships", len(that.Placements))
}

// Fire shoots at a cell of the opponent's board.
type Fire struct {
	Cell
}

func (that Fire) String() string {
	return "fire " + that.Cell.String()
}

type wireMove struct {
	Fire       *Cell       `json:"fire"`
	Placements []Placement `json:"place"`
}

// DecodeMove reads {"fire":{"x":1,"y":2}} or {"place":[{"ship":0,"x":0,"y":0,"orientation":"horizontal"}]}.
func DecodeMove(raw json.RawMessage) (game.Move, error) {
	var wm wireMove
	if err := json.Unmarshal(raw, &wm); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrInvalidMoveFormat, err)
	}

	switch {
	case wm.Fire != nil && wm.Placements == nil:
		return Fire{Cell: *wm.Fire}, nil
	case wm.Fire == nil && len(wm.Placements) > 0:
		return PlaceShips{Placements: wm.Placements}, nil
	default:
		return nil, fmt.Errorf("%w: expected exactly one of fire or place", apperror.ErrInvalidMoveFormat)
	}
}

// Game is a two player battleship match: each seat owns a board and fires at the other.
type Game struct {
	boards [game.SeatCount]*Board
	toMove int
	result *game.Result
}

func New(size int, shipSizes []int) *Game {
	return &Game{
		boards: [game.SeatCount]*Board{NewBoard(size, shipSizes), NewBoard(size, shipSizes)},
	}
}

func (that *Game) Type() game.Type {
	return game.TypeBattleship
}

// BoardOf exposes the board owned by seat.
func (that *Game) BoardOf(seat int) *Board {
	return that.boards[seat]
}

func (that *Game) Phase() game.Phase {
	if that.boards[0].Ready() && that.boards[1].Ready() {
		return game.PhasePlay
	}

	return game.PhaseSetup
}

func (that *Game) Ready(seat int) bool {
	return that.boards[seat].Ready()
}

func (that *Game) ToMove() int {
	if that.result != nil || that.Phase() == game.PhaseSetup {
		return game.NoSeat
	}

	return that.toMove
}

func (that *Game) ApplyMove(seat int, move game.Move) (game.Outcome, error) {
	if that.result != nil {
		return game.Outcome{}, apperror.ErrGameAlreadyOver
	}

	if seat < 0 || seat >= game.SeatCount {
		return game.Outcome{}, apperror.ErrOutOfTurn
	}

	switch m := move.(type) {
	case PlaceShips:
		return game.Outcome{}, that.place(seat, m)
	case Fire:
		return that.fire(seat, m.Cell)
	default:
		return game.Outcome{}, fmt.Errorf("%w: expected a battleship move, got %T", apperror.ErrInvalidMoveFormat, move)
	}
}

func (that *Game) place(seat int, m PlaceShips) error {
	if that.boards[seat].Ready() {
		return fmt.Errorf("%w: all ships are placed", apperror.ErrShipAlreadyPlaced)
	}

	scratch := that.boards[seat].clone()
	for _, p := range m.Placements {
		if err := scratch.PlaceShip(p.Ship, Cell{X: p.X, Y: p.Y}, p.Orientation); err != nil {
			return err
		}
	}

	that.boards[seat] = scratch

	return nil
}

func (that *Game) fire(seat int, target Cell) (game.Outcome, error) {
	if that.Phase() == game.PhaseSetup {
		return game.Outcome{}, fmt.Errorf("%w: ships are still being placed", apperror.ErrGameIsNotStarted)
	}

	if seat != that.toMove {
		return game.Outcome{}, apperror.ErrOutOfTurn
	}

	enemy := that.boards[game.Other(seat)]

	shot, err := enemy.Fire(target)
	if err != nil {
		return game.Outcome{}, err
	}

	if enemy.AllSunk() {
		that.result = game.Win(seat, "all ships sunk")
	} else {
		that.toMove = game.Other(seat)
	}

	return game.Outcome{Detail: shot, Result: that.result}, nil
}

func (that *Game) Terminal() (game.Result, bool) {
	if that.result == nil {
		return game.Result{}, false
	}

	return *that.result, true
}

func (that *Game) Clone() game.Board {
	return &Game{
		boards: [game.SeatCount]*Board{that.boards[0].clone(), that.boards[1].clone()},
		toMove: that.toMove,
		result: that.result,
	}
}

type shipSnapshot struct {
	Ship
	Hits uint32 `json:"hits"`
}

type boardSnapshot struct {
	Size  int            `json:"size"`
	Shots [][]Mark       `json:"shots"`
	Ships []shipSnapshot `json:"ships"`
}

type snapshot struct {
	Boards [game.SeatCount]boardSnapshot `json:"boards"`
	ToMove int                           `json:"to_move"`
	Result *game.Result                  `json:"result,omitempty"`
}

func (that *Game) Snapshot() ([]byte, error) {
	snap := snapshot{ToMove: that.toMove, Result: that.result}

	for seat, b := range that.boards {
		bs := boardSnapshot{Size: b.size, Shots: b.shots}
		for _, ship := range b.ships {
			bs.Ships = append(bs.Ships, shipSnapshot{Ship: *ship, Hits: ship.hits})
		}
		snap.Boards[seat] = bs
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal battleship game: %w", err)
	}

	return data, nil
}

var errCorruptSnapshot = errors.New("corrupt battleship snapshot")

// Restore rebuilds a game, re-placing ships through PlaceShip so occupancy is derived rather than trusted.
func Restore(data []byte) (*Game, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal battleship game: %w", err)
	}

	g := &Game{toMove: snap.ToMove, result: snap.Result}

	for seat, bs := range snap.Boards {
		if len(bs.Shots) != bs.Size {
			return nil, fmt.Errorf("%w: shot grid does not match size", errCorruptSnapshot)
		}

		sizes := make([]int, len(bs.Ships))
		for i, ship := range bs.Ships {
			sizes[i] = ship.Size
		}

		b := NewBoard(bs.Size, sizes)
		for y, row := range bs.Shots {
			if len(row) != bs.Size {
				return nil, fmt.Errorf("%w: shot grid does not match size", errCorruptSnapshot)
			}
			copy(b.shots[y], row)
		}

		for _, ship := range bs.Ships {
			if !ship.Placed {
				continue
			}
			if err := b.PlaceShip(ship.ID, ship.Origin, ship.Orientation); err != nil {
				return nil, fmt.Errorf("%w: %w", errCorruptSnapshot, err)
			}
			b.ships[ship.ID].hits = ship.Hits
		}

		g.boards[seat] = b
	}

	return g, nil
}

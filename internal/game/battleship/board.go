// Package battleship is the battleship board model and its targeting heuristic.
package battleship

import (
	"fmt"

	"github.com/rocketscienceinc/gameroom-server/internal/apperror"
)

type Mark uint8

const (
	Unfired Mark = iota
	Hit
	Miss
)

type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (that Cell) String() string {
	return fmt.Sprintf("%d,%d", that.X, that.Y)
}

type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

func (that Orientation) step() Cell {
	if that == Vertical {
		return Cell{Y: 1}
	}

	return Cell{X: 1}
}

func (that Orientation) valid() bool {
	return that == Horizontal || that == Vertical
}

type HitResult string

const (
	ResultHit          HitResult = "hit"
	ResultMiss         HitResult = "miss"
	ResultAlreadyFired HitResult = "already_fired"
)

// Shot reports where a shot landed. SunkShip is -1 unless the shot sank a ship.
type Shot struct {
	Cell     Cell      `json:"cell"`
	Result   HitResult `json:"result"`
	SunkShip int       `json:"sunk_ship"`
}

// Board is one player's N×N waters: the ships and the shots fired at them.
type Board struct {
	size  int
	shots [][]Mark
	// occupant holds ship id + 1 per cell, 0 when the cell is open water.
	occupant [][]int
	ships    []*Ship
}

func NewBoard(size int, shipSizes []int) *Board {
	b := &Board{
		size:     size,
		shots:    grid[Mark](size),
		occupant: grid[int](size),
		ships:    make([]*Ship, len(shipSizes)),
	}

	for id, shipSize := range shipSizes {
		b.ships[id] = &Ship{ID: id, Size: shipSize}
	}

	return b
}

func grid[T any](size int) [][]T {
	rows := make([][]T, size)
	for y := range rows {
		rows[y] = make([]T, size)
	}

	return rows
}

func (that *Board) Size() int {
	return that.size
}

func (that *Board) Ships() []Ship {
	ships := make([]Ship, len(that.ships))
	for i, ship := range that.ships {
		ships[i] = *ship
	}

	return ships
}

func (that *Board) InBounds(c Cell) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < that.size && c.Y < that.size
}

func (that *Board) MarkAt(c Cell) Mark {
	return that.shots[c.Y][c.X]
}

// PlaceShip puts ship id at origin. Every segment must be on the board and on open water.
func (that *Board) PlaceShip(id int, origin Cell, orientation Orientation) error {
	if id < 0 || id >= len(that.ships) {
		return fmt.Errorf("%w: %d", apperror.ErrUnknownShip, id)
	}

	ship := that.ships[id]
	if ship.Placed {
		return fmt.Errorf("%w: %d", apperror.ErrShipAlreadyPlaced, id)
	}

	if !orientation.valid() {
		return fmt.Errorf("%w: orientation %q", apperror.ErrInvalidPlacement, orientation)
	}

	footprint := cells(origin, orientation, ship.Size)
	for _, c := range footprint {
		if !that.InBounds(c) {
			return fmt.Errorf("%w: cell %s", apperror.ErrPlacementOutOfBounds, c)
		}
	}

	for _, c := range footprint {
		if occupant := that.occupant[c.Y][c.X]; occupant != 0 {
			return fmt.Errorf("%w: ship %d at %s", apperror.ErrPlacementOverlap, occupant-1, c)
		}
	}

	for _, c := range footprint {
		that.occupant[c.Y][c.X] = id + 1
	}
	ship.Placed = true
	ship.Origin = origin
	ship.Orientation = orientation

	return nil
}

// Ready reports whether every ship is placed.
func (that *Board) Ready() bool {
	for _, ship := range that.ships {
		if !ship.Placed {
			return false
		}
	}

	return true
}

// Fire marks c. A cell that was already fired at is rejected and nothing changes.
func (that *Board) Fire(c Cell) (Shot, error) {
	if !that.InBounds(c) {
		return Shot{}, fmt.Errorf("%w: cell %s is off the board", apperror.ErrIllegalMove, c)
	}

	if that.shots[c.Y][c.X] != Unfired {
		return Shot{Cell: c, Result: ResultAlreadyFired, SunkShip: -1}, fmt.Errorf("%w: %s", apperror.ErrAlreadyFired, c)
	}

	occupant := that.occupant[c.Y][c.X]
	if occupant == 0 {
		that.shots[c.Y][c.X] = Miss
		return Shot{Cell: c, Result: ResultMiss, SunkShip: -1}, nil
	}

	that.shots[c.Y][c.X] = Hit
	ship := that.ships[occupant-1]
	ship.hit(c)

	shot := Shot{Cell: c, Result: ResultHit, SunkShip: -1}
	if ship.Sunk() {
		shot.SunkShip = ship.ID
	}

	return shot, nil
}

func (that *Board) AllSunk() bool {
	for _, ship := range that.ships {
		if !ship.Sunk() {
			return false
		}
	}

	return len(that.ships) > 0
}

// Unfired lists the cells nobody has shot at yet, row by row.
func (that *Board) Unfired() []Cell {
	var open []Cell

	for y := range that.shots {
		for x, mark := range that.shots[y] {
			if mark == Unfired {
				open = append(open, Cell{X: x, Y: y})
			}
		}
	}

	return open
}

func (that *Board) clone() *Board {
	c := &Board{
		size:     that.size,
		shots:    grid[Mark](that.size),
		occupant: grid[int](that.size),
		ships:    make([]*Ship, len(that.ships)),
	}

	for y := range that.shots {
		copy(c.shots[y], that.shots[y])
		copy(c.occupant[y], that.occupant[y])
	}

	for i, ship := range that.ships {
		s := *ship
		c.ships[i] = &s
	}

	return c
}

func cells(origin Cell, orientation Orientation, size int) []Cell {
	step := orientation.step()
	out := make([]Cell, size)

	for i := range out {
		out[i] = Cell{X: origin.X + step.X*i, Y: origin.Y + step.Y*i}
	}

	return out
}

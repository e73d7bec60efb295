package battleship

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/rocketscienceinc/gameroom-server/internal/apperror"
)

type TargetState int

const (
	StateRandom TargetState = iota
	StateHomingUndirected
	StateHomingDirected
	StateBacktracking
)

func (that TargetState) String() string {
	switch that {
	case StateHomingUndirected:
		return "homing-undirected"
	case StateHomingDirected:
		return "homing-directed"
	case StateBacktracking:
		return "backtracking"
	default:
		return "random"
	}
}

type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

var directions = []Direction{Up, Down, Left, Right}

func (that Direction) delta() Cell {
	switch that {
	case Up:
		return Cell{Y: -1}
	case Down:
		return Cell{Y: 1}
	case Left:
		return Cell{X: -1}
	default:
		return Cell{X: 1}
	}
}

func (that Direction) opposite() Direction {
	switch that {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	default:
		return Left
	}
}

func (that Cell) step(d Direction) Cell {
	delta := d.delta()
	return Cell{X: that.X + delta.X, Y: that.Y + delta.Y}
}

// Targeter picks shots against a fogged board. It learns how its previous shot landed by
// reading the fog view it is handed next, so it needs no callback from the game.
type Targeter struct {
	rng *rand.Rand

	state        TargetState
	origin       Cell
	cursor       Cell
	dir          Direction
	tried        map[Direction]bool
	backtracking bool

	last     *Cell
	sunkSeen int
}

func NewTargeter(rng *rand.Rand) *Targeter {
	return &Targeter{rng: rng}
}

func (that *Targeter) State() TargetState {
	if that.state == StateHomingDirected && that.backtracking {
		return StateBacktracking
	}

	return that.state
}

func (that *Targeter) reset() {
	that.state = StateRandom
	that.backtracking = false
	that.tried = nil
}

// Forget clears what the targeter remembers about its last shot, e.g. when a shot was rejected.
func (that *Targeter) Forget() {
	that.last = nil
}

// NextShot observes the result of the previous shot on enemy and chooses the next cell.
func (that *Targeter) NextShot(enemy BoardView) (Cell, error) {
	that.observe(enemy)

	for iter := 0; iter < 8; iter++ {
		switch that.state {
		case StateRandom:
			return that.shoot(that.randomCell(enemy))
		case StateHomingUndirected:
			if c, ok := that.tryNeighbour(enemy); ok {
				return that.shoot(c, nil)
			}
			that.reset()
		case StateHomingDirected:
			if c, ok := that.follow(enemy); ok {
				return that.shoot(c, nil)
			}
			that.miss()
		default:
			that.reset()
		}
	}

	return that.shoot(that.randomCell(enemy))
}

func (that *Targeter) shoot(c Cell, err error) (Cell, error) {
	if err != nil {
		return Cell{}, err
	}

	that.last = &c

	return c, nil
}

func (that *Targeter) observe(enemy BoardView) {
	sunk := 0
	for _, ship := range enemy.Ships {
		if ship.Sunk {
			sunk++
		}
	}

	last := that.last
	that.last = nil

	if sunk > that.sunkSeen {
		that.sunkSeen = sunk
		that.reset()
		return
	}

	if last == nil || !inView(enemy, *last) {
		return
	}

	hit := enemy.Shots[last.Y][last.X] == Hit

	switch that.state {
	case StateRandom:
		if hit {
			that.state = StateHomingUndirected
			that.origin = *last
			that.tried = map[Direction]bool{}
		}
	case StateHomingUndirected:
		if hit {
			that.state = StateHomingDirected
			that.cursor = *last
		}
	case StateHomingDirected:
		if hit {
			that.cursor = *last
		} else {
			that.miss()
		}
	}
}

// miss reverses once from the origin, then gives up.
func (that *Targeter) miss() {
	if that.backtracking {
		that.reset()
		return
	}

	that.backtracking = true
	that.dir = that.dir.opposite()
	that.cursor = that.origin
}

// tryNeighbour tries an untested neighbour of the origin.
func (that *Targeter) tryNeighbour(enemy BoardView) (Cell, bool) {
	var open []Direction

	for _, d := range directions {
		c := that.origin.step(d)
		if !that.tried[d] && inView(enemy, c) && enemy.Shots[c.Y][c.X] == Unfired {
			open = append(open, d)
		}
	}

	if len(open) == 0 {
		return Cell{}, false
	}

	d := open[that.rng.Intn(len(open))]
	that.tried[d] = true
	that.dir = d

	return that.origin.step(d), true
}

// follow walks the firing line past cells that are already hits.
func (that *Targeter) follow(enemy BoardView) (Cell, bool) {
	c := that.cursor.step(that.dir)
	for inView(enemy, c) && enemy.Shots[c.Y][c.X] == Hit {
		c = c.step(that.dir)
	}

	if !inView(enemy, c) || enemy.Shots[c.Y][c.X] != Unfired {
		return Cell{}, false
	}

	return c, true
}

func (that *Targeter) randomCell(enemy BoardView) (Cell, error) {
	var open []Cell

	for y, row := range enemy.Shots {
		for x, mark := range row {
			if mark == Unfired {
				open = append(open, Cell{X: x, Y: y})
			}
		}
	}

	if len(open) == 0 {
		return Cell{}, apperror.ErrNoAvailableMoves
	}

	return open[that.rng.Intn(len(open))], nil
}

func inView(view BoardView, c Cell) bool {
	return c.X >= 0 && c.Y >= 0 && c.Y < len(view.Shots) && c.X < len(view.Shots[c.Y])
}

const maxPlacementAttempts = 10000

var ErrFleetDoesNotFit = errors.New("could not fit the fleet on the board")

// PlaceRandomly samples origins and orientations for every unplaced ship until each one fits.
func PlaceRandomly(b *Board, rng *rand.Rand) error {
	orientations := []Orientation{Horizontal, Vertical}

	for _, ship := range b.ships {
		if ship.Placed {
			continue
		}

		placed := false
		for attempt := 0; attempt < maxPlacementAttempts && !placed; attempt++ {
			origin := Cell{X: rng.Intn(b.size), Y: rng.Intn(b.size)}
			placed = b.PlaceShip(ship.ID, origin, orientations[rng.Intn(2)]) == nil
		}

		if !placed {
			return fmt.Errorf("%w: ship %d of size %d", ErrFleetDoesNotFit, ship.ID, ship.Size)
		}
	}

	return nil
}

// RandomPlacements proposes a full fleet layout as a move, leaving b untouched.
func RandomPlacements(b *Board, rng *rand.Rand) (PlaceShips, error) {
	scratch := b.clone()
	if err := PlaceRandomly(scratch, rng); err != nil {
		return PlaceShips{}, err
	}

	var m PlaceShips
	for i, ship := range scratch.ships {
		if b.ships[i].Placed {
			continue
		}
		m.Placements = append(m.Placements, Placement{
			Ship:        ship.ID,
			X:           ship.Origin.X,
			Y:           ship.Origin.Y,
			Orientation: ship.Orientation,
		})
	}

	return m, nil
}

package battleship

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gameroom-server/internal/apperror"
	"github.com/rocketscienceinc/gameroom-server/internal/game"
)

func TestBoard_PlaceShip(t *testing.T) {
	t.Run("Accepts a ship touching the far edge", func(t *testing.T) {
		b := NewBoard(10, []int{5})

		err := b.PlaceShip(0, Cell{X: 5, Y: 9}, Horizontal)

		require.NoError(t, err)
		assert.True(t, b.Ready())
	})

	t.Run("Rejects a ship hanging over the edge", func(t *testing.T) {
		b := NewBoard(10, []int{5})

		err := b.PlaceShip(0, Cell{X: 6, Y: 0}, Horizontal)
		require.ErrorIs(t, err, apperror.ErrPlacementOutOfBounds)
		require.ErrorIs(t, err, apperror.ErrInvalidPlacement)

		err = b.PlaceShip(0, Cell{X: 0, Y: -1}, Vertical)
		require.ErrorIs(t, err, apperror.ErrPlacementOutOfBounds)
		assert.False(t, b.Ready())
	})

	t.Run("Rejects overlapping ships cell by cell", func(t *testing.T) {
		// Given: a destroyer along the top edge
		b := NewBoard(10, []int{2, 3})
		require.NoError(t, b.PlaceShip(0, Cell{X: 0, Y: 0}, Horizontal))

		// When: a cruiser is laid across its second cell
		err := b.PlaceShip(1, Cell{X: 1, Y: 0}, Vertical)

		// Then: the placement is refused and the cruiser stays unplaced
		require.ErrorIs(t, err, apperror.ErrPlacementOverlap)
		assert.False(t, b.Ships()[1].Placed)

		require.NoError(t, b.PlaceShip(1, Cell{X: 2, Y: 0}, Vertical))
	})

	t.Run("Rejects duplicates and unknown ships", func(t *testing.T) {
		b := NewBoard(10, []int{2})
		require.NoError(t, b.PlaceShip(0, Cell{}, Horizontal))

		require.ErrorIs(t, b.PlaceShip(0, Cell{X: 5, Y: 5}, Horizontal), apperror.ErrShipAlreadyPlaced)
		require.ErrorIs(t, b.PlaceShip(7, Cell{X: 5, Y: 5}, Horizontal), apperror.ErrUnknownShip)
		require.ErrorIs(t, NewBoard(10, []int{2}).PlaceShip(0, Cell{}, "diagonal"), apperror.ErrInvalidPlacement)
	})
}

func TestBoard_Fire(t *testing.T) {
	t.Run("Hits, misses and sinks", func(t *testing.T) {
		// Given: a single destroyer
		b := NewBoard(10, []int{2})
		require.NoError(t, b.PlaceShip(0, Cell{X: 3, Y: 3}, Vertical))

		// When: the water and both segments are shot
		miss, err := b.Fire(Cell{X: 0, Y: 0})
		require.NoError(t, err)
		first, err := b.Fire(Cell{X: 3, Y: 3})
		require.NoError(t, err)
		second, err := b.Fire(Cell{X: 3, Y: 4})
		require.NoError(t, err)

		// Then: the second hit sinks it
		assert.Equal(t, ResultMiss, miss.Result)
		assert.Equal(t, ResultHit, first.Result)
		assert.Equal(t, -1, first.SunkShip)
		assert.Equal(t, 0, second.SunkShip)
		assert.True(t, b.AllSunk())
	})

	t.Run("Firing twice is rejected without changes", func(t *testing.T) {
		// Given: a board with one hit recorded
		b := NewBoard(10, []int{3})
		require.NoError(t, b.PlaceShip(0, Cell{X: 0, Y: 0}, Horizontal))
		_, err := b.Fire(Cell{X: 1, Y: 0})
		require.NoError(t, err)
		before := b.Encode(0, false)

		// When: the same cell is fired at again
		shot, err := b.Fire(Cell{X: 1, Y: 0})

		// Then: the shot is refused and the board is identical
		require.ErrorIs(t, err, apperror.ErrAlreadyFired)
		assert.Equal(t, ResultAlreadyFired, shot.Result)
		assert.Equal(t, before, b.Encode(0, false))
	})

	t.Run("Off board shots are illegal", func(t *testing.T) {
		_, err := NewBoard(10, []int{2}).Fire(Cell{X: 10, Y: 0})

		require.ErrorIs(t, err, apperror.ErrIllegalMove)
	})
}

func readyGame(t *testing.T) *Game {
	t.Helper()

	g := New(10, []int{2, 3})
	for seat := 0; seat < game.SeatCount; seat++ {
		_, err := g.ApplyMove(seat, PlaceShips{Placements: []Placement{
			{Ship: 0, X: 0, Y: 0, Orientation: Horizontal},
			{Ship: 1, X: 0, Y: 2, Orientation: Vertical},
		}})
		require.NoError(t, err)
	}

	return g
}

func TestGame(t *testing.T) {
	t.Run("Setup ends when both fleets are placed", func(t *testing.T) {
		g := New(10, []int{2})
		assert.Equal(t, game.PhaseSetup, g.Phase())
		assert.Equal(t, game.NoSeat, g.ToMove())

		_, err := g.ApplyMove(0, Fire{Cell: Cell{}})
		require.ErrorIs(t, err, apperror.ErrGameIsNotStarted)

		_, err = g.ApplyMove(1, PlaceShips{Placements: []Placement{{Ship: 0, Orientation: Horizontal}}})
		require.NoError(t, err)
		_, err = g.ApplyMove(0, PlaceShips{Placements: []Placement{{Ship: 0, Orientation: Vertical}}})
		require.NoError(t, err)

		assert.Equal(t, game.PhasePlay, g.Phase())
		assert.Equal(t, 0, g.ToMove())
	})

	t.Run("A bad placement in a batch rejects the whole batch", func(t *testing.T) {
		g := New(10, []int{2, 3})

		_, err := g.ApplyMove(0, PlaceShips{Placements: []Placement{
			{Ship: 0, X: 0, Y: 0, Orientation: Horizontal},
			{Ship: 1, X: 9, Y: 9, Orientation: Horizontal},
		}})

		require.ErrorIs(t, err, apperror.ErrPlacementOutOfBounds)
		assert.False(t, g.BoardOf(0).Ships()[0].Placed)
	})

	t.Run("Turns alternate and sinking the fleet wins", func(t *testing.T) {
		// Given: two ready fleets
		g := readyGame(t)

		// When: seat 1 shoots out of turn
		_, err := g.ApplyMove(1, Fire{Cell: Cell{X: 0, Y: 0}})

		// Then: it is refused
		require.ErrorIs(t, err, apperror.ErrOutOfTurn)

		// When: seat 0 sinks everything while seat 1 keeps missing
		targets := []Cell{{0, 0}, {1, 0}, {0, 2}, {0, 3}, {0, 4}}
		var outcome game.Outcome
		for i, c := range targets {
			outcome, err = g.ApplyMove(0, Fire{Cell: c})
			require.NoError(t, err)
			if i < len(targets)-1 {
				_, err = g.ApplyMove(1, Fire{Cell: Cell{X: 9, Y: i}})
				require.NoError(t, err)
			}
		}

		// Then: seat 0 wins
		require.NotNil(t, outcome.Result)
		assert.Equal(t, 0, outcome.Result.Winner)
		_, err = g.ApplyMove(1, Fire{Cell: Cell{X: 8, Y: 8}})
		require.ErrorIs(t, err, apperror.ErrGameAlreadyOver)
	})

	t.Run("Opponent ships are fogged", func(t *testing.T) {
		g := readyGame(t)

		view, ok := g.EncodeFor(game.Viewer{Seat: 0}).(View)
		require.True(t, ok)

		assert.False(t, view.Boards[0].Fogged)
		assert.NotNil(t, view.Boards[0].Ships[0].Origin)
		assert.True(t, view.Boards[1].Fogged)
		for _, ship := range view.Boards[1].Ships {
			assert.Nil(t, ship.Origin)
			assert.Empty(t, ship.Hits)
		}

		spectator, ok := g.EncodeFor(game.Spectator(true)).(View)
		require.True(t, ok)
		assert.True(t, spectator.Boards[0].Fogged)
		assert.True(t, spectator.Boards[1].Fogged)

		open, ok := g.EncodeFor(game.Spectator(false)).(View)
		require.True(t, ok)
		assert.False(t, open.Boards[1].Fogged)
	})

	t.Run("Snapshot round trip", func(t *testing.T) {
		// Given: a game with some damage done
		g := readyGame(t)
		_, err := g.ApplyMove(0, Fire{Cell: Cell{X: 0, Y: 0}})
		require.NoError(t, err)
		_, err = g.ApplyMove(1, Fire{Cell: Cell{X: 5, Y: 5}})
		require.NoError(t, err)

		// When: it is saved and restored
		data, err := g.Snapshot()
		require.NoError(t, err)
		restored, err := Restore(data)
		require.NoError(t, err)

		// Then: both players see the same thing as before
		for seat := 0; seat < game.SeatCount; seat++ {
			assert.Equal(t, g.EncodeFor(game.Viewer{Seat: seat}), restored.EncodeFor(game.Viewer{Seat: seat}))
		}
		assert.Equal(t, g.ToMove(), restored.ToMove())
	})
}

func TestDecodeMove(t *testing.T) {
	m, err := DecodeMove(json.RawMessage(`{"fire":{"x":3,"y":4}}`))
	require.NoError(t, err)
	assert.Equal(t, Fire{Cell: Cell{X: 3, Y: 4}}, m)

	m, err = DecodeMove(json.RawMessage(`{"place":[{"ship":1,"x":2,"y":3,"orientation":"vertical"}]}`))
	require.NoError(t, err)
	assert.Equal(t, PlaceShips{Placements: []Placement{{Ship: 1, X: 2, Y: 3, Orientation: Vertical}}}, m)

	_, err = DecodeMove(json.RawMessage(`{}`))
	require.ErrorIs(t, err, apperror.ErrInvalidMoveFormat)

	_, err = DecodeMove(json.RawMessage(`"e2e4"`))
	require.ErrorIs(t, err, apperror.ErrInvalidMoveFormat)
}

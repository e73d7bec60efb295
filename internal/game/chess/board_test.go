package chess

import (
	"strings"
	"testing"
	"time"

	nchess "github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gameroom-server/internal/apperror"
	"github.com/rocketscienceinc/gameroom-server/internal/game"
)

func newBoard(t *testing.T, conf Config, opts ...Option) *Board {
	t.Helper()

	b, err := New(conf, opts...)
	require.NoError(t, err)

	return b
}

func play(t *testing.T, b *Board, moves ...string) {
	t.Helper()

	for _, uci := range moves {
		m, err := ParseMove(uci)
		require.NoError(t, err)

		_, err = b.ApplyMove(b.ToMove(), m)
		require.NoError(t, err, uci)
	}
}

type fakeClock struct {
	now time.Time
}

func (that *fakeClock) Now() time.Time {
	return that.now
}

func (that *fakeClock) Advance(d time.Duration) {
	that.now = that.now.Add(d)
}

func TestBoard_Terminal(t *testing.T) {
	t.Run("Fool's mate is a win for black", func(t *testing.T) {
		// Given: a standard board
		b := newBoard(t, Config{Variant: Standard})

		// When: white walks into the fastest mate
		play(t, b, "f2f3", "e7e5", "g2g4", "d8h4")

		// Then: black wins by checkmate
		result, over := b.Terminal()
		require.True(t, over)
		assert.Equal(t, 1, result.Winner)
		assert.Equal(t, "checkmate", result.Reason)
		assert.Equal(t, game.NoSeat, b.ToMove())
	})

	t.Run("Stalemate is a draw", func(t *testing.T) {
		// Given: a queen about to smother a lone king
		b := newBoard(t, Config{FEN: "k7/8/1Q6/8/8/8/8/7K w - - 0 1"})

		// When: the queen takes the last flight squares without checking
		play(t, b, "b6c7")

		// Then: the game is drawn by stalemate
		result, over := b.Terminal()
		require.True(t, over)
		assert.True(t, result.IsDraw())
		assert.Equal(t, "stalemate", result.Reason)
	})

	t.Run("Bare kings are drawn by insufficient material", func(t *testing.T) {
		// Given: white king next to the last black piece
		b := newBoard(t, Config{FEN: "7k/8/8/8/8/8/8/6rK w - - 0 1"})

		// When: the king takes the rook
		play(t, b, "h1g1")

		// Then: nothing is left to mate with
		result, over := b.Terminal()
		require.True(t, over)
		assert.True(t, result.IsDraw())
		assert.Equal(t, "insufficient material", result.Reason)
	})

	t.Run("Check alone does not end the game", func(t *testing.T) {
		// Given: a standard board
		b := newBoard(t, Config{})

		// When: white gives check
		play(t, b, "e2e4", "f7f6", "d1h5")

		// Then: the check is flagged but the game goes on
		_, over := b.Terminal()
		assert.False(t, over)

		view, ok := b.EncodeFor(game.Viewer{Seat: 1}).(View)
		require.True(t, ok)
		assert.True(t, view.InCheck)
		assert.NotEmpty(t, view.LegalMoves)
	})
}

func TestBoard_ApplyMove(t *testing.T) {
	t.Run("Rejects malformed moves", func(t *testing.T) {
		_, err := ParseMove("e9e4")
		assert.ErrorIs(t, err, apperror.ErrInvalidMoveFormat)

		_, err = ParseMove("e7e8k")
		assert.ErrorIs(t, err, apperror.ErrInvalidMoveFormat)
	})

	t.Run("Rejects illegal moves without touching the position", func(t *testing.T) {
		// Given: a standard board
		b := newBoard(t, Config{})
		before := b.FEN()

		// When: white tries to push a pawn three squares
		_, err := b.ApplyMove(0, Move{UCI: "e2e5"})

		// Then: the move is illegal and nothing changed
		require.ErrorIs(t, err, apperror.ErrIllegalMove)
		assert.Equal(t, before, b.FEN())
		assert.Empty(t, b.History())
	})

	t.Run("Rejects the wrong seat", func(t *testing.T) {
		b := newBoard(t, Config{})

		_, err := b.ApplyMove(1, Move{UCI: "e7e5"})

		require.ErrorIs(t, err, apperror.ErrOutOfTurn)
	})

	t.Run("Records en passant captures", func(t *testing.T) {
		// Given: a standard board
		b := newBoard(t, Config{})

		// When: white captures en passant on d6
		play(t, b, "e2e4", "a7a6", "e4e5", "d7d5", "e5d6")

		// Then: the black pawn from d5 is in white's capture list
		view, ok := b.EncodeFor(game.Spectator(false)).(View)
		require.True(t, ok)
		assert.Equal(t, []string{"p"}, view.Captured.White)
		assert.Empty(t, view.Board[3][3], "d5 must be empty")
		assert.Equal(t, "e5d6", view.LastMove)
	})
}

func TestBoard_Clock(t *testing.T) {
	t.Run("Charges the mover and credits the increment", func(t *testing.T) {
		// Given: a timed board with a controllable clock
		clock := &fakeClock{now: time.Unix(1000, 0)}
		b := newBoard(t, Config{
			TimersEnabled: true,
			WhiteTime:     10 * time.Second,
			BlackTime:     10 * time.Second,
			Increment:     2 * time.Second,
		}, WithNow(clock.Now))

		// When: white moves at once and black thinks for three seconds
		play(t, b, "e2e4")
		clock.Advance(3 * time.Second)
		play(t, b, "e7e5")

		// Then: white got the increment for free and black paid for the thinking
		view := b.Clocks(clock.Now())
		assert.Equal(t, 12, view.White)
		assert.Equal(t, 9, view.Black)
		assert.True(t, view.Running)
	})

	t.Run("Running out of time loses", func(t *testing.T) {
		// Given: a timed game where white is to move
		clock := &fakeClock{now: time.Unix(1000, 0)}
		b := newBoard(t, Config{
			TimersEnabled: true,
			WhiteTime:     5 * time.Second,
			BlackTime:     5 * time.Second,
		}, WithNow(clock.Now))
		play(t, b, "e2e4", "e7e5")

		// When: white lets the clock run down
		clock.Advance(6 * time.Second)
		result, over := b.Tick(clock.Now())

		// Then: black wins on time
		require.True(t, over)
		assert.Equal(t, 1, result.Winner)
		assert.Equal(t, "timeout", result.Reason)
		assert.Equal(t, 0, b.Clocks(clock.Now()).White)
	})

	t.Run("Clocks do not run before the first move", func(t *testing.T) {
		clock := &fakeClock{now: time.Unix(1000, 0)}
		b := newBoard(t, Config{TimersEnabled: true, WhiteTime: time.Second, BlackTime: time.Second}, WithNow(clock.Now))

		clock.Advance(time.Hour)
		_, over := b.Tick(clock.Now())

		assert.False(t, over)
	})
}

func TestBoard_SnapshotRestore(t *testing.T) {
	// Given: a timed game a few moves in
	clock := &fakeClock{now: time.Unix(1000, 0)}
	b := newBoard(t, Config{
		TimersEnabled: true,
		WhiteTime:     60 * time.Second,
		BlackTime:     60 * time.Second,
		Increment:     5 * time.Second,
	}, WithNow(clock.Now))
	play(t, b, "e2e4", "e7e5", "g1f3")
	clock.Advance(4 * time.Second)

	// When: the board is saved and restored
	data, err := b.Snapshot()
	require.NoError(t, err)

	restored, err := Restore(data, WithNow(clock.Now))
	require.NoError(t, err)

	// Then: position, mover and clocks survive to the second
	assert.Equal(t, b.FEN(), restored.FEN())
	assert.Equal(t, b.ToMove(), restored.ToMove())
	assert.Equal(t, b.History(), restored.History())
	assert.Equal(t, b.Clocks(clock.Now()), restored.Clocks(clock.Now()))
}

func TestBoard_Clone(t *testing.T) {
	// Given: a board with some history
	b := newBoard(t, Config{})
	play(t, b, "d2d4", "d7d5")

	// When: the clone plays on
	clone, ok := b.Clone().(*Board)
	require.True(t, ok)
	play(t, clone, "c2c4")

	// Then: the original is untouched
	assert.Len(t, b.History(), 2)
	assert.Len(t, clone.History(), 3)
}

func TestVariants(t *testing.T) {
	t.Run("ParseVariant", func(t *testing.T) {
		v, err := ParseVariant("King-Of-The-Hill")
		require.NoError(t, err)
		assert.Equal(t, KingOfTheHill, v)

		v, err = ParseVariant("")
		require.NoError(t, err)
		assert.Equal(t, Standard, v)

		v, err = ParseVariant("Racing Kings")
		require.NoError(t, err)
		assert.Equal(t, RacingKings, v)

		for _, name := range []string{"Crazyhouse", "atomic", "suicide", "antichess", "horde"} {
			_, err = ParseVariant(name)
			require.ErrorIs(t, err, apperror.ErrUnsupportedVariant, name)
		}

		_, err = ParseVariant("fischer-random-deluxe")
		require.ErrorIs(t, err, apperror.ErrInvalidSettings)
	})

	t.Run("Chess960 index 518 is the standard setup", func(t *testing.T) {
		assert.Equal(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w - - 0 1", Chess960FEN(518))
	})

	t.Run("Chess960 back ranks are well formed", func(t *testing.T) {
		for index := 0; index < 960; index++ {
			rank := strings.SplitN(Chess960FEN(index), "/", 2)[0]

			bishops := []int{strings.Index(rank, "b"), strings.LastIndex(rank, "b")}
			assert.NotEqual(t, bishops[0]%2, bishops[1]%2, "bishops share a colour in %s", rank)

			king := strings.Index(rank, "k")
			assert.Less(t, strings.Index(rank, "r"), king, rank)
			assert.Greater(t, strings.LastIndex(rank, "r"), king, rank)
		}
	})

	t.Run("King of the hill wins in the centre", func(t *testing.T) {
		// Given: a white king one step from e4
		b := newBoard(t, Config{Variant: KingOfTheHill, FEN: "k7/p7/8/8/8/4K3/8/7R w - - 0 1"})

		// When: the king steps onto the hill
		play(t, b, "e3e4")

		// Then: white wins
		result, over := b.Terminal()
		require.True(t, over)
		assert.Equal(t, 0, result.Winner)
		assert.Equal(t, "king of the hill", result.Reason)
	})

	t.Run("Third check wins", func(t *testing.T) {
		// Given: a three check game where white shuffles a rook with checks
		b := newBoard(t, Config{Variant: ThreeCheck, FEN: "4k3/8/8/8/8/8/8/R3K3 w - - 0 1"})

		// When: white checks three times
		play(t, b, "a1a8", "e8e7", "a8a7", "e7e6", "a7a6")

		// Then: white wins
		result, over := b.Terminal()
		require.True(t, over)
		assert.Equal(t, 0, result.Winner)
		assert.Equal(t, "three checks", result.Reason)
	})
}

func TestRacingKings(t *testing.T) {
	t.Run("Starts from the racing setup and forbids checks", func(t *testing.T) {
		// Given: a new racing kings game
		b := newBoard(t, Config{Variant: RacingKings})
		require.Equal(t, RacingKingsFEN, b.FEN())

		// When: white's knight jumps to a square attacking the black king
		m, err := ParseMove("e2c3")
		require.NoError(t, err)
		_, err = b.ApplyMove(0, m)

		// Then: the move is illegal and never offered
		require.ErrorIs(t, err, apperror.ErrIllegalMove)
		view, ok := b.EncodeFor(game.Viewer{Seat: 0}).(View)
		require.True(t, ok)
		assert.NotEmpty(t, view.LegalMoves)
		assert.NotContains(t, view.LegalMoves, "e2c3")

		for _, legal := range LegalMoves(RacingKings, b.Position()) {
			assert.False(t, legal.HasTag(nchess.Check), UCI(legal))
		}
	})

	t.Run("A king on the eighth rank wins", func(t *testing.T) {
		// Given: white's king one step from home and black's far behind
		b := newBoard(t, Config{Variant: RacingKings, FEN: "8/6K1/8/8/8/8/k7/8 w - - 0 1"})

		// When: white steps onto the eighth rank
		play(t, b, "g7g8")

		// Then: white wins even though only kings are left
		result, over := b.Terminal()
		require.True(t, over)
		assert.Equal(t, 0, result.Winner)
		assert.Equal(t, "race won", result.Reason)
	})

	t.Run("Black gets one move to follow white home", func(t *testing.T) {
		// Given: both kings on the seventh rank with white to move
		b := newBoard(t, Config{Variant: RacingKings, FEN: "8/1k4K1/8/8/8/8/8/8 w - - 0 1"})

		// When: white reaches home first
		play(t, b, "g7g8")

		// Then: black still moves
		_, over := b.Terminal()
		require.False(t, over)
		assert.Equal(t, 1, b.ToMove())

		// When: black follows
		play(t, b, "b7b8")

		// Then: the race is drawn
		result, over := b.Terminal()
		require.True(t, over)
		assert.True(t, result.IsDraw())
		assert.Equal(t, "both kings home", result.Reason)
	})

	t.Run("Black reaching home first wins", func(t *testing.T) {
		b := newBoard(t, Config{Variant: RacingKings, FEN: "8/1k6/8/8/8/8/6K1/8 b - - 0 1"})

		play(t, b, "b7b8")

		result, over := b.Terminal()
		require.True(t, over)
		assert.Equal(t, 1, result.Winner)
	})

	t.Run("Restores through the racing move list", func(t *testing.T) {
		b := newBoard(t, Config{Variant: RacingKings})
		play(t, b, "h2h3", "a2a3")

		data, err := b.Snapshot()
		require.NoError(t, err)
		restored, err := Restore(data)
		require.NoError(t, err)

		assert.Equal(t, b.FEN(), restored.FEN())
		assert.Equal(t, RacingKings, restored.Variant())
	})
}

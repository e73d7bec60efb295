package ai

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	nchess "github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gameroom-server/internal/apperror"
	"github.com/rocketscienceinc/gameroom-server/internal/config"
	"github.com/rocketscienceinc/gameroom-server/internal/game"
	"github.com/rocketscienceinc/gameroom-server/internal/game/battleship"
	"github.com/rocketscienceinc/gameroom-server/internal/game/checkers"
	"github.com/rocketscienceinc/gameroom-server/internal/game/chess"
	"github.com/rocketscienceinc/gameroom-server/internal/search"
)

func seeded(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func chessBoard(t *testing.T, fen string) *chess.Board {
	t.Helper()

	b, err := chess.New(chess.Config{Variant: chess.Standard, FEN: fen}, chess.WithRand(seeded(1)))
	require.NoError(t, err)

	return b
}

// randomPosition plays up to plies random legal moves from the start.
func randomPosition(rng *rand.Rand, plies int) *nchess.Position {
	pos := nchess.StartingPosition()
	for iter := 0; iter < plies; iter++ {
		moves := pos.ValidMoves()
		if len(moves) == 0 {
			break
		}
		pos = pos.Update(moves[rng.Intn(len(moves))])
	}

	return pos
}

func TestChessSearch_AlphaBetaAgreesWithMinimax(t *testing.T) {
	rng := seeded(11)

	for i := 0; i < 8; i++ {
		pos := randomPosition(rng, 6+rng.Intn(20))
		rules := chessRules{color: pos.Turn()}
		root := chessNode{pos: pos}

		maxDepth := 2
		if i == 0 {
			maxDepth = 3
		}

		for depth := 1; depth <= maxDepth; depth++ {
			nodes := 0
			pruned := search.AlphaBeta(rules, root, depth, -search.Infinity, search.Infinity, true, &nodes)

			assert.Equal(t, search.Minimax(rules, root, depth, true), pruned, "position %s at depth %d", pos, depth)
		}
	}
}

func TestChessRules_Evaluate(t *testing.T) {
	t.Run("The start position is balanced", func(t *testing.T) {
		rules := chessRules{color: nchess.White}

		assert.Equal(t, 0, rules.Evaluate(chessNode{pos: nchess.StartingPosition()}))
	})

	t.Run("Material counts for the AI's colour", func(t *testing.T) {
		// Given: white is a queen up
		b := chessBoard(t, "4k3/8/8/8/8/8/8/3QK3 w - - 0 1")

		// Then: white sees a large plus and black a large minus
		white := chessRules{color: nchess.White}.Evaluate(chessNode{pos: b.Position()})
		black := chessRules{color: nchess.Black}.Evaluate(chessNode{pos: b.Position()})
		assert.Greater(t, white, 800)
		assert.Equal(t, -white, black)
	})

	t.Run("Being mated is the worst outcome", func(t *testing.T) {
		// Given: fool's mate, white to move and mated
		b := chessBoard(t, "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")

		assert.Equal(t, -Mate, chessRules{color: nchess.White}.Evaluate(chessNode{pos: b.Position()}))
		assert.Equal(t, Mate, chessRules{color: nchess.Black}.Evaluate(chessNode{pos: b.Position()}))
	})

	t.Run("Giving check earns a bonus", func(t *testing.T) {
		// Given: white to move, so black is the side that just gave check
		pos := nchess.StartingPosition()
		rules := chessRules{color: nchess.Black}

		assert.Equal(t, checkBonus, rules.Evaluate(chessNode{pos: pos, check: true})-rules.Evaluate(chessNode{pos: pos}))
	})
}

func TestChessAgent_NextMove(t *testing.T) {
	t.Run("Finds mate in one", func(t *testing.T) {
		// Given: a back rank mate for white
		b := chessBoard(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
		agent := NewChessAgent(1, 0, seeded(3))

		// When: the agent moves for white
		m, stats, err := agent.NextMove(context.Background(), b, 0, false)

		// Then: it plays the mate
		require.NoError(t, err)
		assert.Equal(t, "a1a8", m.String())
		assert.Equal(t, Mate, stats.BestScore)
		assert.Positive(t, stats.Nodes)
	})

	t.Run("The move applies to the board", func(t *testing.T) {
		b := chessBoard(t, "")
		agent := NewChessAgent(1, time.Second, seeded(4))

		m, _, err := agent.NextMove(context.Background(), b, 0, false)
		require.NoError(t, err)

		_, err = b.ApplyMove(0, m)
		require.NoError(t, err)
	})

	t.Run("Recent moves are avoided until nothing else is left", func(t *testing.T) {
		// Given: white's king has a single legal move
		b := chessBoard(t, "k7/8/8/8/8/8/5r2/7K w - - 0 1")
		agent := NewChessAgent(1, 0, seeded(5))
		agent.remember("h1g1")

		// When: the only move was played recently
		m, stats, err := agent.NextMove(context.Background(), b, 0, false)

		// Then: the filter is dropped instead of failing
		require.NoError(t, err)
		assert.Equal(t, "h1g1", m.String())
		assert.True(t, stats.Relaxed)
	})

	t.Run("Only the last four moves are remembered", func(t *testing.T) {
		agent := NewChessAgent(1, 0, seeded(6))
		for _, uci := range []string{"a2a3", "b2b3", "c2c3", "d2d3", "e2e3"} {
			agent.remember(uci)
		}

		assert.Equal(t, []string{"b2b3", "c2c3", "d2d3", "e2e3"}, agent.recent)
	})

	t.Run("Refuses to move for the wrong seat", func(t *testing.T) {
		agent := NewChessAgent(1, 0, seeded(7))

		_, _, err := agent.NextMove(context.Background(), chessBoard(t, ""), 1, false)

		require.ErrorIs(t, err, apperror.ErrOutOfTurn)
	})

	t.Run("Races home in racing kings", func(t *testing.T) {
		// Given: white one step from home and black two steps away
		b, err := chess.New(chess.Config{Variant: chess.RacingKings, FEN: "8/6K1/k7/8/8/8/8/8 w - - 0 1"}, chess.WithRand(seeded(5)))
		require.NoError(t, err)
		agent := NewChessAgent(1, 0, seeded(5))

		// When: the agent moves for white
		m, stats, err := agent.NextMove(context.Background(), b, 0, false)

		// Then: it steps home and sees the win
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(m.String(), "8"), m.String())
		assert.Equal(t, Mate, stats.BestScore)

		_, err = b.ApplyMove(0, m)
		require.NoError(t, err)
		result, over := b.Terminal()
		require.True(t, over)
		assert.Equal(t, 0, result.Winner)
	})

	t.Run("Never gives check in racing kings", func(t *testing.T) {
		b, err := chess.New(chess.Config{Variant: chess.RacingKings}, chess.WithRand(seeded(6)))
		require.NoError(t, err)

		rules := chessRules{color: nchess.White, variant: chess.RacingKings}
		for _, m := range rules.Moves(chessNode{pos: b.Position()}) {
			assert.False(t, m.HasTag(nchess.Check), chess.UCI(m))
		}
		assert.Less(t, len(rules.Moves(chessNode{pos: b.Position()})), len(b.Position().ValidMoves()))
	})
}

func TestCheckersAgent_NextMove(t *testing.T) {
	t.Run("Takes the free piece", func(t *testing.T) {
		// Given: black can capture an undefended red man
		var cells [checkers.Size][checkers.Size]checkers.Piece
		cells[2][1] = checkers.BlackMan
		cells[3][2] = checkers.RedMan
		cells[7][0] = checkers.RedMan
		cells[0][7] = checkers.BlackMan
		b := checkers.FromCells(cells, 1)

		// When: the agent plays black
		m, _, err := NewCheckersAgent(3, seeded(1)).NextMove(context.Background(), b, 1, false)

		// Then: it jumps, which is also the only legal move
		require.NoError(t, err)
		assert.Equal(t, "2 1 4 3", m.String())
	})

	t.Run("Plays a legal opening move", func(t *testing.T) {
		b := checkers.New()

		m, stats, err := NewCheckersAgent(2, seeded(2)).NextMove(context.Background(), b, 0, false)

		require.NoError(t, err)
		assert.Equal(t, 7, stats.RootMoves)
		_, err = b.ApplyMove(0, m)
		require.NoError(t, err)
	})
}

func TestBattleshipAgent_NextMove(t *testing.T) {
	agent := NewBattleshipAgent(0, seeded(9))
	g := battleship.New(10, game.DefaultShipSizes)

	// Given: the human has placed their fleet
	human, err := battleship.RandomPlacements(g.BoardOf(0), seeded(10))
	require.NoError(t, err)
	_, err = g.ApplyMove(0, human)
	require.NoError(t, err)

	// When: the agent is asked to move during setup
	m, _, err := agent.NextMove(context.Background(), g, 1, false)

	// Then: it places a legal fleet
	require.NoError(t, err)
	_, err = g.ApplyMove(1, m)
	require.NoError(t, err)
	assert.Equal(t, game.PhasePlay, g.Phase())

	// And: once play starts it only fires at unfired cells
	for iter := 0; iter < 30; iter++ {
		if _, over := g.Terminal(); over {
			break
		}

		if g.ToMove() == 0 {
			shot, err := battleship.NewTargeter(seeded(12)).NextShot(g.BoardOf(1).Encode(1, true))
			require.NoError(t, err)
			_, err = g.ApplyMove(0, battleship.Fire{Cell: shot})
			require.NoError(t, err)
			continue
		}

		m, _, err := agent.NextMove(context.Background(), g, 1, false)
		require.NoError(t, err)
		fire, ok := m.(battleship.Fire)
		require.True(t, ok)
		assert.Equal(t, battleship.Unfired, g.BoardOf(0).MarkAt(fire.Cell))

		_, err = g.ApplyMove(1, m)
		require.NoError(t, err)
	}
}

func TestBattleshipAgent_WaitsForOpponentFleet(t *testing.T) {
	agent := NewBattleshipAgent(0, seeded(1))
	g := battleship.New(10, game.DefaultShipSizes)

	m, _, err := agent.NextMove(context.Background(), g, 1, false)
	require.NoError(t, err)
	_, err = g.ApplyMove(1, m)
	require.NoError(t, err)

	_, _, err = agent.NextMove(context.Background(), g, 1, false)
	require.ErrorIs(t, err, ErrNothingToDo)
}

func TestNew(t *testing.T) {
	conf := config.AI{ChessDepth: 1, CheckersDepth: 2}

	for _, gameType := range game.Types {
		agent, err := New(gameType, conf, nil)
		require.NoError(t, err)
		assert.NotNil(t, agent)
	}

	_, err := New(game.Type("go"), conf, nil)
	require.ErrorIs(t, err, apperror.ErrUnknownGameType)
}

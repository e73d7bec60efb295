package search

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gameroom-server/internal/apperror"
)

type node struct {
	score    int
	children []*node
}

// tree plays moves as child indexes.
type tree struct {
	delay time.Duration
}

func (that tree) Moves(p *node) []int {
	moves := make([]int, len(p.children))
	for i := range moves {
		moves[i] = i
	}

	return moves
}

func (that tree) Play(p *node, m int) *node {
	if that.delay > 0 {
		time.Sleep(that.delay)
	}

	return p.children[m]
}

func (that tree) Evaluate(p *node) int {
	return p.score
}

func (that tree) Terminal(p *node) bool {
	return len(p.children) == 0
}

func leaf(score int) *node {
	return &node{score: score}
}

func branch(children ...*node) *node {
	return &node{children: children}
}

func randomTree(rng *rand.Rand, depth int) *node {
	if depth == 0 || rng.Intn(8) == 0 {
		return leaf(rng.Intn(200) - 100)
	}

	n := &node{score: rng.Intn(200) - 100}
	for iter, iterN := 0, 1+rng.Intn(4); iter < iterN; iter++ {
		n.children = append(n.children, randomTree(rng, depth-1))
	}

	return n
}

func TestAlphaBeta_AgreesWithMinimax(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 200; iter++ {
		root := randomTree(rng, 5)

		for depth := 1; depth <= 4; depth++ {
			nodes := 0
			got := AlphaBeta(tree{}, root, depth, -Infinity, Infinity, true, &nodes)

			assert.Equal(t, Minimax(tree{}, root, depth, true), got)
		}
	}
}

func TestBest(t *testing.T) {
	t.Run("Picks the move with the best worst case", func(t *testing.T) {
		// Given: the first move has a tempting leaf but a bad reply
		root := branch(
			branch(leaf(50), leaf(-30)),
			branch(leaf(10), leaf(5)),
			branch(leaf(-1), leaf(90)),
		)

		// When: searching one ply below each root move
		m, stats, err := Best(tree{}, root, Options[int]{Depth: 1})

		// Then: the safe move wins
		require.NoError(t, err)
		assert.Equal(t, 1, m)
		assert.Equal(t, 5, stats.BestScore)
		assert.Equal(t, 3, stats.RootMoves)
		assert.Equal(t, 3, stats.Searched)
		assert.Positive(t, stats.Nodes)
	})

	t.Run("Breaks ties at random", func(t *testing.T) {
		root := branch(leaf(7), leaf(7), leaf(3), leaf(7))
		seen := map[int]bool{}

		for seed := int64(0); seed < 50; seed++ {
			m, stats, err := Best(tree{}, root, Options[int]{Depth: 1, Rand: rand.New(rand.NewSource(seed))})
			require.NoError(t, err)
			assert.Equal(t, 3, stats.Tied)
			assert.NotEqual(t, 2, m)
			seen[m] = true
		}

		assert.Len(t, seen, 3)
	})

	t.Run("Excluded moves are skipped", func(t *testing.T) {
		root := branch(leaf(9), leaf(1), leaf(4))

		m, stats, err := Best(tree{}, root, Options[int]{Exclude: func(m int) bool { return m == 0 }})

		require.NoError(t, err)
		assert.Equal(t, 2, m)
		assert.False(t, stats.Relaxed)
	})

	t.Run("Excluding every move searches them all", func(t *testing.T) {
		root := branch(leaf(9), leaf(1))

		m, stats, err := Best(tree{}, root, Options[int]{Exclude: func(int) bool { return true }})

		require.NoError(t, err)
		assert.Equal(t, 0, m)
		assert.True(t, stats.Relaxed)
	})

	t.Run("Small roots are searched one ply deeper", func(t *testing.T) {
		root := branch(leaf(1), leaf(2))

		_, stats, err := Best(tree{}, root, Options[int]{Depth: 2, DeepenBelow: 10})

		require.NoError(t, err)
		assert.Equal(t, 3, stats.Depth)
	})

	t.Run("The time limit keeps the best move so far", func(t *testing.T) {
		root := branch(leaf(1), leaf(2), leaf(3), leaf(4))

		m, stats, err := Best(tree{delay: 20 * time.Millisecond}, root, Options[int]{TimeLimit: time.Millisecond})

		require.NoError(t, err)
		assert.True(t, stats.OutOfTime)
		assert.Less(t, stats.Searched, 4)
		assert.Equal(t, stats.Searched-1, m)
	})

	t.Run("No moves is an error", func(t *testing.T) {
		_, _, err := Best(tree{}, leaf(0), Options[int]{Depth: 3})

		require.ErrorIs(t, err, apperror.ErrNoAvailableMoves)
	})
}

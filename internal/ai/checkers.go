package ai

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/rocketscienceinc/gameroom-server/internal/game"
	"github.com/rocketscienceinc/gameroom-server/internal/game/checkers"
	"github.com/rocketscienceinc/gameroom-server/internal/search"
)

const (
	manValue  = 100
	kingValue = 175
)

type checkersRules struct {
	seat int
}

func (that checkersRules) Moves(b *checkers.Board) []checkers.Move {
	return b.LegalMoves()
}

func (that checkersRules) Play(b *checkers.Board, m checkers.Move) *checkers.Board {
	next, _ := b.Clone().(*checkers.Board)
	// moves come from LegalMoves, so they always apply
	_, _ = next.ApplyMove(b.ToMove(), m)

	return next
}

func (that checkersRules) Terminal(b *checkers.Board) bool {
	_, over := b.Terminal()
	return over
}

func (that checkersRules) Evaluate(b *checkers.Board) int {
	if result, over := b.Terminal(); over {
		switch {
		case result.IsDraw():
			return 0
		case result.Winner == that.seat:
			return Mate
		default:
			return -Mate
		}
	}

	score := 0
	for row := 0; row < checkers.Size; row++ {
		for col := 0; col < checkers.Size; col++ {
			var value int
			switch b.At(checkers.Square{Row: row, Col: col}) {
			case checkers.RedMan:
				value = manValue
			case checkers.RedKing:
				value = kingValue
			case checkers.BlackMan:
				value = -manValue
			case checkers.BlackKing:
				value = -kingValue
			}
			score += value
		}
	}

	// red is seat 0
	if that.seat == 1 {
		score = -score
	}

	return score
}

type CheckersAgent struct {
	depth int

	mu  sync.Mutex
	rng *rand.Rand
}

func NewCheckersAgent(depth int, rng *rand.Rand) *CheckersAgent {
	return &CheckersAgent{depth: depth, rng: rng}
}

func (that *CheckersAgent) NextMove(ctx context.Context, board game.Board, seat int, _ bool) (game.Move, search.Stats, error) {
	b, ok := board.(*checkers.Board)
	if !ok {
		return nil, search.Stats{}, fmt.Errorf("checkers agent got a %s board", board.Type())
	}

	if err := checkTurn(board, seat); err != nil {
		return nil, search.Stats{}, err
	}

	if err := ctx.Err(); err != nil {
		return nil, search.Stats{}, fmt.Errorf("checkers search cancelled: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	best, stats, err := search.Best(checkersRules{seat: seat}, b, search.Options[checkers.Move]{
		Depth:       that.depth,
		DeepenBelow: deepenBelow,
		Rand:        that.rng,
	})
	if err != nil {
		return nil, stats, fmt.Errorf("failed to search checkers move: %w", err)
	}

	return best, stats, nil
}

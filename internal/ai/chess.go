package ai

import (
	"context"
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"time"

	nchess "github.com/notnil/chess"

	"github.com/rocketscienceinc/gameroom-server/internal/game"
	"github.com/rocketscienceinc/gameroom-server/internal/game/chess"
	"github.com/rocketscienceinc/gameroom-server/internal/search"
)

const (
	// recentWindow is how many of its own moves the chess agent refuses to repeat.
	recentWindow = 4
	deepenBelow  = 10
	checkBonus   = 99

	// raceStep rewards each rank a racing king has climbed.
	raceStep = 150
)

var pieceValues = map[nchess.PieceType]int{
	nchess.Pawn:   100,
	nchess.Knight: 320,
	nchess.Bishop: 330,
	nchess.Rook:   500,
	nchess.Queen:  900,
	nchess.King:   20000,
}

// Tables are written from white's side with rank 1 first.
var pieceSquare = map[nchess.PieceType][8][8]int{
	nchess.Pawn: {
		{0, 0, 0, 0, 0, 0, 0, 0},
		{5, 10, 10, -20, -20, 10, 10, 5},
		{5, -5, -10, 0, 0, -10, -5, 5},
		{0, 0, 0, 20, 20, 0, 0, 0},
		{5, 5, 10, 25, 25, 10, 5, 5},
		{10, 10, 20, 30, 30, 20, 10, 10},
		{50, 50, 50, 50, 50, 50, 50, 50},
		{100, 100, 100, 100, 100, 100, 100, 100},
	},
	nchess.Knight: {
		{-50, -40, -30, -30, -30, -30, -40, -50},
		{-40, -20, 0, 5, 5, 0, -20, -40},
		{-30, 5, 10, 15, 15, 10, 5, -30},
		{-30, 0, 15, 20, 20, 15, 0, -30},
		{-30, 5, 15, 20, 20, 15, 0, -30},
		{-30, 0, 10, 15, 15, 10, 0, -30},
		{-40, -20, 0, 0, 0, 0, -20, -40},
		{-50, -40, -30, -30, -30, -30, -40, -50},
	},
	nchess.Bishop: {
		{-20, -10, -10, -10, -10, -10, -10, -20},
		{-10, 5, 0, 0, 0, 0, 5, -10},
		{-10, 10, 10, 10, 10, 10, 10, -10},
		{-10, 0, 10, 10, 10, 10, 0, -10},
		{-10, 5, 5, 10, 10, 5, 5, -10},
		{-10, 0, 5, 10, 10, 5, 0, -10},
		{-10, 0, 0, 0, 0, 0, 0, -10},
		{-20, -10, -10, -10, -10, -10, -10, -20},
	},
	nchess.Rook: {
		{-10, -5, 0, 5, 5, 0, -5, -10},
		{-5, 0, 0, 0, 0, 0, 0, -5},
		{-5, 0, 0, 0, 0, 0, 0, -5},
		{-5, 0, 0, 0, 0, 0, 0, -5},
		{-5, 0, 0, 0, 0, 0, 0, -5},
		{-5, 0, 0, 0, 0, 0, 0, -5},
		{5, 10, 10, 10, 10, 10, 10, 5},
		{0, 0, 0, 0, 0, 0, 0, 0},
	},
	nchess.Queen: {
		{-20, -10, -10, -5, -5, -10, -10, -20},
		{-10, 0, 5, 0, 0, 0, 0, -10},
		{-10, 5, 5, 5, 5, 5, 0, -10},
		{0, 0, 5, 5, 5, 5, 0, -5},
		{-5, 0, 5, 5, 5, 5, 0, -5},
		{-10, 0, 5, 5, 5, 5, 0, -10},
		{-10, 0, 0, 0, 0, 0, 0, -10},
		{-20, -10, -10, -5, -5, -10, -10, -20},
	},
	nchess.King: {
		{20, 30, 10, 0, 0, 10, 30, 20},
		{20, 20, 0, 0, 0, 0, 20, 20},
		{-10, -20, -20, -20, -20, -20, -20, -10},
		{-20, -30, -30, -40, -40, -30, -30, -20},
		{-30, -40, -40, -50, -50, -40, -40, -30},
		{-30, -40, -40, -50, -50, -40, -40, -30},
		{-30, -40, -40, -50, -50, -40, -40, -30},
		{-30, -40, -40, -50, -50, -40, -40, -30},
	},
}

// chessNode remembers whether the move that reached pos gave check.
type chessNode struct {
	pos   *nchess.Position
	check bool
}

// chessRules scores positions for the AI's color.
type chessRules struct {
	color   nchess.Color
	variant chess.Variant
}

func (that chessRules) Moves(n chessNode) []*nchess.Move {
	return chess.LegalMoves(that.variant, n.pos)
}

func (that chessRules) Play(n chessNode, m *nchess.Move) chessNode {
	return chessNode{pos: n.pos.Update(m), check: m.HasTag(nchess.Check)}
}

func (that chessRules) Terminal(n chessNode) bool {
	if that.variant == chess.RacingKings {
		return chess.RaceResult(n.pos) != nil
	}

	return n.pos.Status() != nchess.NoMethod
}

func (that chessRules) Evaluate(n chessNode) int {
	if that.variant == chess.RacingKings {
		return that.evaluateRace(n.pos)
	}

	switch n.pos.Status() {
	case nchess.Checkmate:
		if n.pos.Turn() == that.color {
			return -Mate
		}
		return Mate
	case nchess.Stalemate:
		return 0
	}

	score := 0
	for sq, piece := range n.pos.Board().SquareMap() {
		value := pieceValues[piece.Type()] + squareBonus(piece, sq)
		if piece.Color() == that.color {
			score += value
		} else {
			score -= value
		}
	}

	if n.check && n.pos.Turn() != that.color {
		score += checkBonus
	}

	return score
}

// evaluateRace scores material plus how far each king has climbed.
func (that chessRules) evaluateRace(pos *nchess.Position) int {
	if res := chess.RaceResult(pos); res != nil {
		switch {
		case res.IsDraw():
			return 0
		case chess.ColorOf(res.Winner) == that.color:
			return Mate
		default:
			return -Mate
		}
	}

	score := raceStep * (chess.KingRank(pos, that.color) - chess.KingRank(pos, that.color.Other()))
	for _, piece := range pos.Board().SquareMap() {
		if piece.Type() == nchess.King {
			continue
		}
		if piece.Color() == that.color {
			score += pieceValues[piece.Type()]
		} else {
			score -= pieceValues[piece.Type()]
		}
	}

	return score
}

func squareBonus(piece nchess.Piece, sq nchess.Square) int {
	table, ok := pieceSquare[piece.Type()]
	if !ok {
		return 0
	}

	rank, file := int(sq.Rank()), int(sq.File())
	if piece.Color() == nchess.Black {
		rank = 7 - rank
	}

	return table[rank][file]
}

// ChessAgent searches with alpha-beta and avoids replaying its last few moves.
type ChessAgent struct {
	depth     int
	timeLimit time.Duration

	mu     sync.Mutex
	rng    *rand.Rand
	recent []string
}

func NewChessAgent(depth int, timeLimit time.Duration, rng *rand.Rand) *ChessAgent {
	return &ChessAgent{depth: depth, timeLimit: timeLimit, rng: rng}
}

func (that *ChessAgent) NextMove(ctx context.Context, board game.Board, seat int, relaxed bool) (game.Move, search.Stats, error) {
	b, ok := board.(*chess.Board)
	if !ok {
		return nil, search.Stats{}, fmt.Errorf("chess agent got a %s board", board.Type())
	}

	if err := checkTurn(board, seat); err != nil {
		return nil, search.Stats{}, err
	}

	if err := ctx.Err(); err != nil {
		return nil, search.Stats{}, fmt.Errorf("chess search cancelled: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	opts := search.Options[*nchess.Move]{
		Depth:       that.depth,
		DeepenBelow: deepenBelow,
		TimeLimit:   that.timeLimit,
		Rand:        that.rng,
	}
	if !relaxed {
		recent := slices.Clone(that.recent)
		opts.Exclude = func(m *nchess.Move) bool {
			return slices.Contains(recent, chess.UCI(m))
		}
	}

	rules := chessRules{color: chess.ColorOf(seat), variant: b.Variant()}

	best, stats, err := search.Best(rules, chessNode{pos: b.Position()}, opts)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to search chess move: %w", err)
	}

	uci := chess.UCI(best)
	that.remember(uci)

	return chess.Move{UCI: uci}, stats, nil
}

func (that *ChessAgent) remember(uci string) {
	that.recent = append(that.recent, uci)
	if len(that.recent) > recentWindow {
		that.recent = that.recent[len(that.recent)-recentWindow:]
	}
}

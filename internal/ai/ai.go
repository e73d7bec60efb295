// Package ai holds the agents that fill an empty seat in a room.
package ai

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rocketscienceinc/gameroom-server/internal/apperror"
	"github.com/rocketscienceinc/gameroom-server/internal/config"
	"github.com/rocketscienceinc/gameroom-server/internal/game"
	"github.com/rocketscienceinc/gameroom-server/internal/search"
)

// Mate scores a won position. It stays below search.Infinity so bounds never collide with it.
const Mate = search.Infinity - 1

// ErrNothingToDo means the agent is waiting on the other seat, not failing.
var ErrNothingToDo = errors.New("agent has nothing to play yet")

type Agent interface {
	// NextMove returns the move for seat on board. Relaxed drops the agent's own move filters.
	NextMove(ctx context.Context, board game.Board, seat int, relaxed bool) (game.Move, search.Stats, error)
}

// New returns the agent playing gameType. Each room seat gets its own agent.
func New(gameType game.Type, conf config.AI, rng *rand.Rand) (Agent, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint: gosec // game randomness
	}

	switch gameType {
	case game.TypeChess:
		return NewChessAgent(conf.ChessDepth, conf.ChessTimeLimit, rng), nil
	case game.TypeCheckers:
		return NewCheckersAgent(conf.CheckersDepth, rng), nil
	case game.TypeBattleship:
		return NewBattleshipAgent(conf.ThinkDelay, rng), nil
	default:
		return nil, fmt.Errorf("%w: %q", apperror.ErrUnknownGameType, gameType)
	}
}

func checkTurn(board game.Board, seat int) error {
	if _, over := board.Terminal(); over {
		return apperror.ErrGameAlreadyOver
	}

	if toMove := board.ToMove(); toMove != seat && toMove != game.NoSeat {
		return apperror.ErrOutOfTurn
	}

	return nil
}

package ai

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rocketscienceinc/gameroom-server/internal/game"
	"github.com/rocketscienceinc/gameroom-server/internal/game/battleship"
	"github.com/rocketscienceinc/gameroom-server/internal/search"
)

// BattleshipAgent places its fleet at random and hunts with a Targeter.
type BattleshipAgent struct {
	thinkDelay time.Duration

	mu       sync.Mutex
	rng      *rand.Rand
	targeter *battleship.Targeter
}

func NewBattleshipAgent(thinkDelay time.Duration, rng *rand.Rand) *BattleshipAgent {
	return &BattleshipAgent{
		thinkDelay: thinkDelay,
		rng:        rng,
		targeter:   battleship.NewTargeter(rng),
	}
}

func (that *BattleshipAgent) NextMove(ctx context.Context, board game.Board, seat int, relaxed bool) (game.Move, search.Stats, error) {
	g, ok := board.(*battleship.Game)
	if !ok {
		return nil, search.Stats{}, fmt.Errorf("battleship agent got a %s board", board.Type())
	}

	if err := checkTurn(board, seat); err != nil {
		return nil, search.Stats{}, err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if !g.Ready(seat) {
		placements, err := battleship.RandomPlacements(g.BoardOf(seat), that.rng)
		if err != nil {
			return nil, search.Stats{}, fmt.Errorf("failed to place fleet: %w", err)
		}

		return placements, search.Stats{}, nil
	}

	if g.Phase() == game.PhaseSetup {
		return nil, search.Stats{}, fmt.Errorf("waiting for the opponent's fleet: %w", ErrNothingToDo)
	}

	if err := that.think(ctx); err != nil {
		return nil, search.Stats{}, err
	}

	if relaxed {
		that.targeter.Forget()
	}

	enemy := g.BoardOf(game.Other(seat)).Encode(game.Other(seat), true)

	target, err := that.targeter.NextShot(enemy)
	if err != nil {
		return nil, search.Stats{}, fmt.Errorf("failed to pick a target: %w", err)
	}

	return battleship.Fire{Cell: target}, search.Stats{RootMoves: countUnfired(enemy), Searched: 1}, nil
}

func (that *BattleshipAgent) think(ctx context.Context) error {
	if that.thinkDelay <= 0 {
		return nil
	}

	timer := time.NewTimer(that.thinkDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("battleship agent cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func countUnfired(view battleship.BoardView) int {
	n := 0
	for _, row := range view.Shots {
		for _, mark := range row {
			if mark == battleship.Unfired {
				n++
			}
		}
	}

	return n
}

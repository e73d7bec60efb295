package room

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/gameroom-server/internal/apperror"
	"github.com/rocketscienceinc/gameroom-server/internal/game"
	"github.com/rocketscienceinc/gameroom-server/internal/game/battleship"
	"github.com/rocketscienceinc/gameroom-server/internal/game/checkers"
	"github.com/rocketscienceinc/gameroom-server/internal/game/chess"
)

// Validate checks settings for gameType, including the chess variant.
func Validate(gameType game.Type, settings game.Settings) error {
	if err := settings.Validate(gameType); err != nil {
		return err
	}

	if gameType == game.TypeChess {
		if _, err := chess.ParseVariant(settings.ChessVariant); err != nil {
			return err
		}
	}

	return nil
}

// NewBoard validates settings and builds a fresh board for gameType.
func NewBoard(gameType game.Type, settings game.Settings) (game.Board, error) {
	if err := Validate(gameType, settings); err != nil {
		return nil, err
	}

	switch gameType {
	case game.TypeChess:
		variant, err := chess.ParseVariant(settings.ChessVariant)
		if err != nil {
			return nil, err
		}

		board, err := chess.New(chess.Config{
			Variant:       variant,
			TimersEnabled: settings.TimersEnabled,
			WhiteTime:     settings.WhiteDuration(),
			BlackTime:     settings.BlackDuration(),
			Increment:     settings.IncrementDuration(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create chess board: %w", err)
		}

		return board, nil
	case game.TypeBattleship:
		return battleship.New(settings.BoardSize, game.ShipSizes(settings.ShipCount)), nil
	case game.TypeCheckers:
		return checkers.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", apperror.ErrUnknownGameType, gameType)
	}
}

// DecodeMove parses a posted move in the wire format of gameType.
func DecodeMove(gameType game.Type, raw json.RawMessage) (game.Move, error) {
	switch gameType {
	case game.TypeChess:
		return chess.DecodeMove(raw)
	case game.TypeBattleship:
		return battleship.DecodeMove(raw)
	case game.TypeCheckers:
		return checkers.DecodeMove(raw)
	default:
		return nil, fmt.Errorf("%w: %q", apperror.ErrUnknownGameType, gameType)
	}
}

// RestoreBoard rebuilds a board from its Snapshot.
func RestoreBoard(gameType game.Type, data []byte) (game.Board, error) {
	var (
		board game.Board
		err   error
	)

	switch gameType {
	case game.TypeChess:
		board, err = chess.Restore(data)
	case game.TypeBattleship:
		board, err = battleship.Restore(data)
	case game.TypeCheckers:
		board, err = checkers.Restore(data)
	default:
		return nil, fmt.Errorf("%w: %q", apperror.ErrUnknownGameType, gameType)
	}

	if err != nil {
		return nil, err
	}

	return board, nil
}

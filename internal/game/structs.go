package game

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/gameroom-server/internal/apperror"
)

const (
	MinBoardSize = 5
	MaxBoardSize = 26
	MaxShipCount = 10
)

// DefaultShipSizes is the standard fleet; larger fleets repeat it.
var DefaultShipSizes = []int{2, 3, 3, 4, 5}

func ShipSizes(count int) []int {
	sizes := make([]int, count)
	for i := range sizes {
		sizes[i] = DefaultShipSizes[i%len(DefaultShipSizes)]
	}

	return sizes
}

// Settings is the per room configuration chosen at creation.
type Settings struct {
	BoardSize         int    `json:"board_size"`
	ShipCount         int    `json:"ship_count"`
	AIEnable          bool   `json:"ai_enable"`
	ChessVariant      string `json:"chess_variant"`
	TimersEnabled     bool   `json:"timers_enabled"`
	WhiteTime         int    `json:"white_time"`
	BlackTime         int    `json:"black_time"`
	Increment         int    `json:"increment"`
	SpectatorFogOfWar bool   `json:"spectator_fog_of_war"`
}

func (that Settings) WhiteDuration() time.Duration {
	return time.Duration(that.WhiteTime) * time.Second
}

func (that Settings) BlackDuration() time.Duration {
	return time.Duration(that.BlackTime) * time.Second
}

func (that Settings) IncrementDuration() time.Duration {
	return time.Duration(that.Increment) * time.Second
}

func (that Settings) Validate(t Type) error {
	switch t {
	case TypeBattleship:
		if that.BoardSize < MinBoardSize || that.BoardSize > MaxBoardSize {
			return fmt.Errorf("%w: board size must be between %d and %d", apperror.ErrInvalidSettings, MinBoardSize, MaxBoardSize)
		}
		if that.ShipCount < 1 || that.ShipCount > MaxShipCount {
			return fmt.Errorf("%w: ship count must be between 1 and %d", apperror.ErrInvalidSettings, MaxShipCount)
		}

		cells := 0
		for _, size := range ShipSizes(that.ShipCount) {
			cells += size
		}
		if cells*2 > that.BoardSize*that.BoardSize {
			return fmt.Errorf("%w: %d ships do not fit on a %dx%d board", apperror.ErrInvalidSettings, that.ShipCount, that.BoardSize, that.BoardSize)
		}
	case TypeChess:
		if that.TimersEnabled && (that.WhiteTime <= 0 || that.BlackTime <= 0 || that.Increment < 0) {
			return fmt.Errorf("%w: clock times must be positive", apperror.ErrInvalidSettings)
		}
	case TypeCheckers:
	default:
		return fmt.Errorf("%w: %q", apperror.ErrUnknownGameType, t)
	}

	return nil
}

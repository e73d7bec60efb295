package room

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/gameroom-server/internal/entity"
	"github.com/rocketscienceinc/gameroom-server/internal/game"
)

// SavedSeat records who held a seat. AI seats carry no user.
type SavedSeat struct {
	UserID string `json:"user_id,omitempty"`
	AI     bool   `json:"ai,omitempty"`
}

// Blob is everything needed to bring a room back. Spectators are not saved.
type Blob struct {
	RoomID        string                     `json:"room_id"`
	Name          string                     `json:"name"`
	Password      string                     `json:"password,omitempty"`
	Game          game.Type                  `json:"game"`
	Settings      game.Settings              `json:"settings"`
	Seats         [game.SeatCount]*SavedSeat `json:"seats"`
	State         State                      `json:"state"`
	CurrentPlayer int                        `json:"current_player"`
	Result        *game.Result               `json:"result,omitempty"`
	LastMove      string                     `json:"last_move,omitempty"`
	AIOffline     bool                       `json:"ai_offline,omitempty"`
	Board         json.RawMessage            `json:"board"`
	SavedAt       time.Time                  `json:"saved_at"`
}

// SaveInfo is what the load menu lists.
type SaveInfo struct {
	RoomID        string                     `json:"room_id"`
	Name          string                     `json:"name"`
	Game          game.Type                  `json:"game"`
	HasPassword   bool                       `json:"password_protected"`
	State         State                      `json:"state"`
	CurrentPlayer int                        `json:"current_player"`
	Seats         [game.SeatCount]*SavedSeat `json:"seats"`
	SavedAt       time.Time                  `json:"saved_at"`
}

func (that Blob) Info() SaveInfo {
	return SaveInfo{
		RoomID:        that.RoomID,
		Name:          that.Name,
		Game:          that.Game,
		HasPassword:   that.Password != "",
		State:         that.State,
		CurrentPlayer: that.CurrentPlayer,
		Seats:         that.Seats,
		SavedAt:       that.SavedAt,
	}
}

// UserResolver finds users by id when a save is loaded.
type UserResolver interface {
	Resolve(ctx context.Context, userID string) (*entity.User, error)
}

func (that *Room) save() (Blob, error) {
	board, err := that.board.Snapshot()
	if err != nil {
		return Blob{}, fmt.Errorf("failed to snapshot board: %w", err)
	}

	blob := Blob{
		RoomID:        that.spec.ID,
		Name:          that.spec.Name,
		Password:      that.spec.Password,
		Game:          that.spec.Game,
		Settings:      that.spec.Settings,
		State:         that.state,
		CurrentPlayer: that.currentPlayer(),
		Result:        that.result,
		LastMove:      that.lastMove,
		AIOffline:     that.aiOffline,
		Board:         board,
		SavedAt:       that.now(),
	}

	for i, s := range that.seats {
		switch {
		case s == nil:
		case s.isAI():
			blob.Seats[i] = &SavedSeat{AI: true}
		default:
			blob.Seats[i] = &SavedSeat{UserID: s.user.GetID()}
		}
	}

	return blob, nil
}

// Load rebuilds a room from blob and starts its loop. Seated users are resolved but keep their
// current room until they join again.
func Load(ctx context.Context, logger *slog.Logger, conf Config, blob Blob, users UserResolver, opts ...Option) (*Room, error) {
	board, err := RestoreBoard(blob.Game, blob.Board)
	if err != nil {
		return nil, fmt.Errorf("failed to restore %s board: %w", blob.Game, err)
	}

	r := newRoom(ctx, logger, conf, Spec{
		ID:       blob.RoomID,
		Name:     blob.Name,
		Password: blob.Password,
		Game:     blob.Game,
		Settings: blob.Settings,
	}, board, opts...)

	for i, saved := range blob.Seats {
		switch {
		case saved == nil:
		case saved.AI:
			agent, err := r.newAgent(blob.Game)
			if err != nil {
				r.cancel()
				return nil, fmt.Errorf("failed to create ai player: %w", err)
			}
			r.seats[i] = &seat{agent: agent}
		default:
			user, err := users.Resolve(ctx, saved.UserID)
			if err != nil {
				r.cancel()
				return nil, fmt.Errorf("failed to resolve seat %d: %w", i, err)
			}
			r.seats[i] = &seat{user: user}
		}
	}

	r.lastMove = blob.LastMove
	r.aiOffline = blob.AIOffline
	if blob.Result != nil {
		res := *blob.Result
		r.result = &res
	} else if res, over := board.Terminal(); over {
		r.result = &res
	}
	r.refreshState()

	go r.loop()

	return r, nil
}

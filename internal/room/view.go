package room

import (
	"time"

	"github.com/rocketscienceinc/gameroom-server/internal/apperror"
	"github.com/rocketscienceinc/gameroom-server/internal/entity"
	"github.com/rocketscienceinc/gameroom-server/internal/game"
	"github.com/rocketscienceinc/gameroom-server/internal/search"
)

type PlayerInfo struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	Online   bool   `json:"online"`
	AI       bool   `json:"ai,omitempty"`
}

// PlayerView is the board state for one viewer.
type PlayerView struct {
	RoomID        string          `json:"room_id"`
	Name          string          `json:"name"`
	Game          game.Type       `json:"game"`
	State         State           `json:"state"`
	You           int             `json:"you"`
	Spectating    bool            `json:"spectating"`
	CurrentPlayer int             `json:"current_player"`
	Players       []PlayerInfo    `json:"players"`
	LastMove      string          `json:"last_move,omitempty"`
	Board         any             `json:"board"`
	Clocks        *game.ClockView `json:"clocks,omitempty"`
	Result        *game.Result    `json:"result,omitempty"`
	AIOffline     bool            `json:"ai_offline,omitempty"`
	Settings      game.Settings   `json:"settings"`
}

// Poll is the small summary clients fetch every second.
type Poll struct {
	State         State           `json:"state"`
	CurrentPlayer int             `json:"current_player"`
	Players       []PlayerInfo    `json:"players"`
	Spectators    []PlayerInfo    `json:"spectators"`
	Clocks        *game.ClockView `json:"clocks,omitempty"`
	LastMove      string          `json:"last_move,omitempty"`
	Result        *game.Result    `json:"result,omitempty"`
	AI            *search.Stats   `json:"ai,omitempty"`
}

// Info is the lobby listing entry.
type Info struct {
	ID          string       `json:"room_id"`
	Name        string       `json:"name"`
	Game        game.Type    `json:"game"`
	State       State        `json:"state"`
	Players     []PlayerInfo `json:"players"`
	Spectators  int          `json:"spectators"`
	MaxPlayers  int          `json:"max_players"`
	HasPassword bool         `json:"password_protected"`
	Joinable    bool         `json:"joinable"`
	CreatedAt   time.Time    `json:"created_at"`
}

func userInfo(u *entity.User) PlayerInfo {
	return PlayerInfo{ID: u.GetID(), Username: u.GetUsername(), Online: u.IsOnline()}
}

func (that *Room) players() []PlayerInfo {
	players := make([]PlayerInfo, 0, game.SeatCount)

	for _, s := range that.seats {
		switch {
		case s == nil:
			continue
		case s.isAI():
			players = append(players, PlayerInfo{Username: "AI", Online: !that.aiOffline, AI: true})
		default:
			players = append(players, userInfo(s.user))
		}
	}

	return players
}

func (that *Room) clocks() *game.ClockView {
	clocked, ok := that.board.(game.Clocked)
	if !ok {
		return nil
	}

	view := clocked.Clocks(that.now())
	if !view.Enabled {
		return nil
	}

	return &view
}

func (that *Room) view(user *entity.User) (PlayerView, error) {
	viewer := game.Viewer{Seat: that.seatOf(user)}
	if viewer.IsSpectator() {
		if that.spectatorIndex(user) < 0 {
			return PlayerView{}, apperror.ErrNotInRoom
		}
		viewer = game.Spectator(that.spec.Settings.SpectatorFogOfWar)
	}

	return PlayerView{
		RoomID:        that.spec.ID,
		Name:          that.spec.Name,
		Game:          that.spec.Game,
		State:         that.state,
		You:           viewer.Seat,
		Spectating:    viewer.IsSpectator(),
		CurrentPlayer: that.currentPlayer(),
		Players:       that.players(),
		LastMove:      that.lastMove,
		Board:         that.board.EncodeFor(viewer),
		Clocks:        that.clocks(),
		Result:        that.result,
		AIOffline:     that.aiOffline,
		Settings:      that.spec.Settings,
	}, nil
}

func (that *Room) currentPlayer() int {
	if that.result != nil {
		return game.NoSeat
	}

	toMove := that.board.ToMove()
	if toMove != game.NoSeat && that.seats[toMove] == nil {
		return game.NoSeat
	}

	return toMove
}

func (that *Room) poll() Poll {
	spectators := make([]PlayerInfo, 0, len(that.spectators))
	for _, u := range that.spectators {
		spectators = append(spectators, userInfo(u))
	}

	var stats *search.Stats
	if that.aiStats != nil {
		copied := *that.aiStats
		stats = &copied
	}

	return Poll{
		State:         that.state,
		CurrentPlayer: that.currentPlayer(),
		Players:       that.players(),
		Spectators:    spectators,
		Clocks:        that.clocks(),
		LastMove:      that.lastMove,
		Result:        that.result,
		AI:            stats,
	}
}

func (that *Room) info() Info {
	return Info{
		ID:          that.spec.ID,
		Name:        that.spec.Name,
		Game:        that.spec.Game,
		State:       that.state,
		Players:     that.players(),
		Spectators:  len(that.spectators),
		MaxPlayers:  game.SeatCount,
		HasPassword: that.spec.Password != "",
		Joinable:    that.conf.MaxSpectators <= 0 || len(that.spectators) < that.conf.MaxSpectators,
		CreatedAt:   that.created,
	}
}

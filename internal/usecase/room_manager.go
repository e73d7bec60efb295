package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/gameroom-server/internal/apperror"
	"github.com/rocketscienceinc/gameroom-server/internal/config"
	"github.com/rocketscienceinc/gameroom-server/internal/entity"
	"github.com/rocketscienceinc/gameroom-server/internal/game"
	"github.com/rocketscienceinc/gameroom-server/internal/room"
)

const maxRoomNameLength = 64

type saveRepo interface {
	Put(ctx context.Context, blob room.Blob) error
	Get(ctx context.Context, roomID string) (room.Blob, error)
	List(ctx context.Context) ([]room.SaveInfo, error)
	Delete(ctx context.Context, roomID string) error
}

// CreateRequest describes a new room. Zero settings fields are not replaced; callers start from
// DefaultSettings.
type CreateRequest struct {
	Game     game.Type
	Name     string
	Password string
	Settings game.Settings
}

// RoomManager owns every live room. Room loops run under the manager's base context, not the
// context of the request that created them.
type RoomManager struct {
	baseCtx         context.Context
	logger          *slog.Logger
	roomConf        room.Config
	defaults        game.Settings
	cleanupInterval time.Duration
	saves           saveRepo
	users           room.UserResolver
	opts            []room.Option

	mu    sync.RWMutex
	rooms map[string]*room.Room
}

func NewRoomManager(
	baseCtx context.Context,
	logger *slog.Logger,
	conf *config.Config,
	saves saveRepo,
	users room.UserResolver,
	opts ...room.Option,
) *RoomManager {
	return &RoomManager{
		baseCtx: baseCtx,
		logger:  logger.With("component", "room_manager"),
		roomConf: room.Config{
			MaxSpectators: conf.Rooms.MaxSpectators,
			TickInterval:  conf.Rooms.TickInterval,
			AI:            conf.AI,
		},
		defaults:        DefaultSettings(conf.Defaults),
		cleanupInterval: conf.Rooms.CleanupInterval,
		saves:           saves,
		users:           users,
		opts:            opts,
		rooms:           make(map[string]*room.Room),
	}
}

// DefaultSettings converts the configured room defaults.
func DefaultSettings(d config.Room) game.Settings {
	return game.Settings{
		BoardSize:         d.BoardSize,
		ShipCount:         d.ShipCount,
		AIEnable:          d.AIEnable,
		ChessVariant:      d.ChessVariant,
		TimersEnabled:     d.TimersEnabled,
		WhiteTime:         int(d.WhiteTime / time.Second),
		BlackTime:         int(d.BlackTime / time.Second),
		Increment:         int(d.Increment / time.Second),
		SpectatorFogOfWar: d.SpectatorFogOfWar,
	}
}

func (that *RoomManager) DefaultSettings() game.Settings {
	return that.defaults
}

func (that *RoomManager) Games() []game.Type {
	return game.Types
}

// Create opens a room with host in the first seat. The host leaves their previous room first.
func (that *RoomManager) Create(ctx context.Context, req CreateRequest, host *entity.User) (*room.Room, error) {
	log := that.logger.With("method", "Create", "user_id", host.GetID())

	gameType, err := game.ParseType(string(req.Game))
	if err != nil {
		return nil, err
	}
	req.Game = gameType

	if err = room.Validate(gameType, req.Settings); err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = fmt.Sprintf("%s's %s", host.GetUsername(), req.Game)
	}
	if len(name) > maxRoomNameLength {
		return nil, fmt.Errorf("%w: room name is too long", apperror.ErrInvalidSettings)
	}

	if err = that.leaveCurrent(ctx, host, ""); err != nil {
		return nil, err
	}

	r, err := room.New(that.baseCtx, that.logger, that.roomConf, room.Spec{
		ID:       uuid.NewString(),
		Name:     name,
		Password: req.Password,
		Game:     req.Game,
		Settings: req.Settings,
	}, host, that.opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	that.mu.Lock()
	that.rooms[r.ID()] = r
	that.mu.Unlock()

	log.Info("room created", "room_id", r.ID(), "game", string(req.Game))

	return r, nil
}

// List returns lobby entries, oldest room first.
func (that *RoomManager) List(ctx context.Context) []room.Info {
	rooms := that.snapshot()

	infos := make([]room.Info, 0, len(rooms))
	for _, r := range rooms {
		info, err := r.Info(ctx)
		if err != nil {
			continue
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})

	return infos
}

func (that *RoomManager) Get(roomID string) (*room.Room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	r, ok := that.rooms[roomID]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	return r, nil
}

// Current returns the room user is in. A pointer to a room that has since been swept is cleared.
func (that *RoomManager) Current(user *entity.User) (*room.Room, error) {
	roomID := user.RoomID()
	if roomID == "" {
		return nil, apperror.ErrNotInRoom
	}

	r, err := that.Get(roomID)
	if err != nil {
		user.ClearRoom(roomID)
		return nil, apperror.ErrNotInRoom
	}

	return r, nil
}

// Join puts user into roomID as a player or spectator and returns the seat (game.NoSeat for spectators).
func (that *RoomManager) Join(ctx context.Context, roomID, password string, user *entity.User) (int, error) {
	r, err := that.Get(roomID)
	if err != nil {
		return game.NoSeat, err
	}

	if !r.CheckPassword(password) {
		return game.NoSeat, apperror.ErrWrongPassword
	}

	if err = that.leaveCurrent(ctx, user, roomID); err != nil {
		return game.NoSeat, err
	}

	seat, err := r.Join(ctx, user)
	if err != nil {
		return game.NoSeat, fmt.Errorf("failed to join room: %w", err)
	}

	return seat, nil
}

func (that *RoomManager) Leave(ctx context.Context, user *entity.User) error {
	r, err := that.Current(user)
	if err != nil {
		return err
	}

	err = r.Leave(ctx, user)
	if err != nil && !errors.Is(err, apperror.ErrRoomClosed) && !errors.Is(err, apperror.ErrNotInRoom) {
		return fmt.Errorf("failed to leave room: %w", err)
	}
	user.ClearRoom(r.ID())

	return nil
}

// leaveCurrent leaves the user's room unless it is keep.
func (that *RoomManager) leaveCurrent(ctx context.Context, user *entity.User, keep string) error {
	current := user.RoomID()
	if current == "" || current == keep {
		return nil
	}

	if err := that.Leave(ctx, user); err != nil && !errors.Is(err, apperror.ErrNotInRoom) {
		return err
	}

	return nil
}

// Save persists the room user is in.
func (that *RoomManager) Save(ctx context.Context, user *entity.User) (room.SaveInfo, error) {
	r, err := that.Current(user)
	if err != nil {
		return room.SaveInfo{}, err
	}

	blob, err := r.Save(ctx)
	if err != nil {
		return room.SaveInfo{}, fmt.Errorf("failed to save room: %w", err)
	}

	if err = that.saves.Put(ctx, blob); err != nil {
		return room.SaveInfo{}, fmt.Errorf("failed to store save: %w", err)
	}

	that.logger.Info("room saved", "room_id", blob.RoomID, "user_id", user.GetID())

	return blob.Info(), nil
}

func (that *RoomManager) ListSaves(ctx context.Context) ([]room.SaveInfo, error) {
	saves, err := that.saves.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}

	return saves, nil
}

// DeleteSave removes a save. A password protected save needs its password.
func (that *RoomManager) DeleteSave(ctx context.Context, roomID, password string, user *entity.User) error {
	blob, err := that.saves.Get(ctx, roomID)
	if err != nil {
		return err
	}

	if blob.Password != "" && blob.Password != password {
		return apperror.ErrWrongPassword
	}

	if err = that.saves.Delete(ctx, roomID); err != nil {
		return fmt.Errorf("failed to delete save: %w", err)
	}

	that.logger.Info("save deleted", "room_id", roomID, "user_id", user.GetID())

	return nil
}

// LoadSave brings a saved room back to life and joins user to it. A room with the same id must
// not be live.
func (that *RoomManager) LoadSave(ctx context.Context, roomID, password string, user *entity.User) (*room.Room, int, error) {
	log := that.logger.With("method", "LoadSave", "room_id", roomID)

	if _, err := that.Get(roomID); err == nil {
		return nil, game.NoSeat, apperror.ErrRoomAlreadyExists
	}

	blob, err := that.saves.Get(ctx, roomID)
	if err != nil {
		return nil, game.NoSeat, err
	}

	if blob.Password != "" && blob.Password != password {
		return nil, game.NoSeat, apperror.ErrWrongPassword
	}

	r, err := room.Load(that.baseCtx, that.logger, that.roomConf, blob, that.users, that.opts...)
	if err != nil {
		return nil, game.NoSeat, fmt.Errorf("failed to load room: %w", err)
	}

	that.mu.Lock()
	if _, exists := that.rooms[roomID]; exists {
		that.mu.Unlock()
		r.Close()
		return nil, game.NoSeat, apperror.ErrRoomAlreadyExists
	}
	that.rooms[roomID] = r
	that.mu.Unlock()

	log.Info("room loaded", "user_id", user.GetID())

	seat, err := that.Join(ctx, roomID, password, user)
	if err != nil {
		return nil, game.NoSeat, err
	}

	return r, seat, nil
}

// HasChanged reports whether user's room changed since the last call.
func (that *RoomManager) HasChanged(user *entity.User) bool {
	return user.TakeRoomChanged()
}

// Sweep closes and forgets every room with nobody online. It returns how many rooms were removed.
func (that *RoomManager) Sweep(ctx context.Context) int {
	removed := 0

	for _, r := range that.snapshot() {
		if !r.IsEmpty(ctx) {
			continue
		}

		that.mu.Lock()
		if that.rooms[r.ID()] == r {
			delete(that.rooms, r.ID())
		}
		that.mu.Unlock()

		r.Close()
		removed++
		that.logger.Info("room removed", "room_id", r.ID())
	}

	return removed
}

// RunCleanup sweeps on every cleanup interval until ctx is done, then closes all rooms.
func (that *RoomManager) RunCleanup(ctx context.Context) error {
	log := that.logger.With("method", "RunCleanup")

	interval := that.cleanupInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			that.CloseAll()
			log.Info("cleanup stopped")
			return nil
		case <-ticker.C:
			if removed := that.Sweep(ctx); removed > 0 {
				log.Debug("cleanup sweep", "removed", removed, "rooms", that.Count())
			}
		}
	}
}

func (that *RoomManager) CloseAll() {
	that.mu.Lock()
	rooms := that.rooms
	that.rooms = make(map[string]*room.Room)
	that.mu.Unlock()

	for _, r := range rooms {
		r.Close()
	}
}

func (that *RoomManager) Count() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms)
}

func (that *RoomManager) snapshot() []*room.Room {
	that.mu.RLock()
	defer that.mu.RUnlock()

	rooms := make([]*room.Room, 0, len(that.rooms))
	for _, r := range that.rooms {
		rooms = append(rooms, r)
	}

	return rooms
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/gameroom-server/internal/apperror"
	"github.com/rocketscienceinc/gameroom-server/internal/entity"
)

const maxUsernameLength = 32

// UserStore is the registry of users known to this process. Identity is persisted, presence
// (last activity, current room, dirty flag) lives only in memory.
type UserStore interface {
	Create(ctx context.Context, username string) (*entity.User, error)
	Login(ctx context.Context, id string) (*entity.User, error)
	Resolve(ctx context.Context, id string) (*entity.User, error)
	Online() []*entity.User
}

type userRepo interface {
	Save(ctx context.Context, user *entity.User) error
	Find(ctx context.Context, id string) (*entity.User, error)
}

type userStore struct {
	logger       *slog.Logger
	repo         userRepo
	onlineWindow time.Duration

	mu    sync.Mutex
	users map[string]*entity.User
}

func NewUserStore(logger *slog.Logger, repo userRepo, onlineWindow time.Duration) UserStore {
	return &userStore{
		logger:       logger.With("component", "user_store"),
		repo:         repo,
		onlineWindow: onlineWindow,
		users:        make(map[string]*entity.User),
	}
}

// Create registers a new user under a fresh uuid.
func (that *userStore) Create(ctx context.Context, username string) (*entity.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || utf8.RuneCountInString(username) > maxUsernameLength {
		return nil, apperror.ErrInvalidName
	}

	user := entity.NewUser(uuid.NewString(), username, that.onlineWindow)
	if err := that.repo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("could not save user: %w", err)
	}

	that.mu.Lock()
	that.users[user.GetID()] = user
	that.mu.Unlock()

	that.logger.Info("user created", "user_id", user.GetID(), "username", username)

	return user, nil
}

// Login resolves the user and records activity.
func (that *userStore) Login(ctx context.Context, id string) (*entity.User, error) {
	user, err := that.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Touch()

	return user, nil
}

// Resolve returns the single in-memory instance for id, loading it from the repository the
// first time. It does not count as activity.
func (that *userStore) Resolve(ctx context.Context, id string) (*entity.User, error) {
	if err := uuid.Validate(id); err != nil {
		return nil, apperror.ErrInvalidUserID
	}

	that.mu.Lock()
	user, ok := that.users[id]
	that.mu.Unlock()
	if ok {
		return user, nil
	}

	stored, err := that.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, fmt.Errorf("could not find user: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	// another request may have loaded it meanwhile
	if user, ok = that.users[id]; ok {
		return user, nil
	}

	user = entity.RestoreUser(stored.GetID(), stored.GetUsername(), that.onlineWindow)
	that.users[id] = user

	return user, nil
}

func (that *userStore) Online() []*entity.User {
	that.mu.Lock()
	defer that.mu.Unlock()

	var online []*entity.User
	for _, user := range that.users {
		if user.IsOnline() {
			online = append(online, user)
		}
	}

	return online
}

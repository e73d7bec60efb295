package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/gameroom-server/internal/apperror"
	"github.com/rocketscienceinc/gameroom-server/internal/entity"
)

type UserRepository interface {
	Save(ctx context.Context, user *entity.User) error
	Find(ctx context.Context, id string) (*entity.User, error)
}

type userRepository struct {
	conn *sql.DB
}

func NewUserRepository(conn *sql.DB) UserRepository {
	return &userRepository{
		conn: conn,
	}
}

func (that *userRepository) Save(ctx context.Context, user *entity.User) error {
	query := `INSERT INTO users (id, username, created_at) VALUES (?, ?, ?)`

	_, err := that.conn.ExecContext(ctx, query, user.GetID(), user.GetUsername(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("can't save user: %w", err)
	}

	return nil
}

// Find returns the stored identity. Presence is not persisted, so the user comes back offline.
func (that *userRepository) Find(ctx context.Context, id string) (*entity.User, error) {
	query := `SELECT id, username FROM users WHERE id = ?`

	var username string

	err := that.conn.QueryRowContext(ctx, query, id).Scan(&id, &username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't find user: %w", err)
	}

	return entity.RestoreUser(id, username, 0), nil
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/gameroom-server/internal/apperror"
	"github.com/rocketscienceinc/gameroom-server/internal/room"
)

// SaveRepository stores room save blobs keyed by room id. Saving an id again overwrites it.
type SaveRepository interface {
	Put(ctx context.Context, blob room.Blob) error
	Get(ctx context.Context, roomID string) (room.Blob, error)
	List(ctx context.Context) ([]room.SaveInfo, error)
	Delete(ctx context.Context, roomID string) error
}

type sqliteSaves struct {
	conn *sql.DB
}

func NewSQLiteSaveRepository(conn *sql.DB) SaveRepository {
	return &sqliteSaves{
		conn: conn,
	}
}

func (that *sqliteSaves) Put(ctx context.Context, blob room.Blob) error {
	data, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("could not marshal save: %w", err)
	}

	query := `INSERT INTO room_saves (room_id, game, name, data, saved_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(room_id) DO UPDATE SET game = excluded.game, name = excluded.name,
		data = excluded.data, saved_at = excluded.saved_at`

	_, err = that.conn.ExecContext(ctx, query, blob.RoomID, string(blob.Game), blob.Name, string(data), blob.SavedAt.Unix())
	if err != nil {
		return fmt.Errorf("can't save room: %w", err)
	}

	return nil
}

func (that *sqliteSaves) Get(ctx context.Context, roomID string) (room.Blob, error) {
	query := `SELECT data FROM room_saves WHERE room_id = ?`

	var data string

	err := that.conn.QueryRowContext(ctx, query, roomID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return room.Blob{}, apperror.ErrSaveNotFound
	}
	if err != nil {
		return room.Blob{}, fmt.Errorf("can't find save: %w", err)
	}

	return decodeBlob([]byte(data))
}

func (that *sqliteSaves) List(ctx context.Context) ([]room.SaveInfo, error) {
	query := `SELECT data FROM room_saves ORDER BY saved_at DESC`

	rows, err := that.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("can't list saves: %w", err)
	}
	defer rows.Close()

	var saves []room.SaveInfo
	for rows.Next() {
		var data string
		if err = rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("can't scan save: %w", err)
		}

		blob, err := decodeBlob([]byte(data))
		if err != nil {
			return nil, err
		}
		saves = append(saves, blob.Info())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't list saves: %w", err)
	}

	return saves, nil
}

func (that *sqliteSaves) Delete(ctx context.Context, roomID string) error {
	query := `DELETE FROM room_saves WHERE room_id = ?`

	if _, err := that.conn.ExecContext(ctx, query, roomID); err != nil {
		return fmt.Errorf("can't delete save: %w", err)
	}

	return nil
}

func decodeBlob(data []byte) (room.Blob, error) {
	var blob room.Blob
	if err := json.Unmarshal(data, &blob); err != nil {
		return room.Blob{}, fmt.Errorf("failed to unmarshal save: %w", err)
	}

	return blob, nil
}

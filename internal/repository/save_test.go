package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gameroom-server/internal/apperror"
	"github.com/rocketscienceinc/gameroom-server/internal/game"
	"github.com/rocketscienceinc/gameroom-server/internal/room"
	"github.com/rocketscienceinc/gameroom-server/testing/suite"
)

func newBlob(id string, savedAt time.Time) room.Blob {
	return room.Blob{
		RoomID:        id,
		Name:          "room " + id,
		Password:      "secret",
		Game:          game.TypeCheckers,
		Settings:      game.Settings{AIEnable: true},
		Seats:         [game.SeatCount]*room.SavedSeat{{UserID: "u-1"}, {AI: true}},
		State:         room.StateInProgress,
		CurrentPlayer: 1,
		Board:         json.RawMessage(`{"cells":[]}`),
		SavedAt:       savedAt.UTC().Truncate(time.Second),
	}
}

func TestSQLiteSaveRepository(t *testing.T) {
	ctx, conn := suite.NewSQLite(t)

	testSaveRepository(ctx, t, NewSQLiteSaveRepository(conn))
}

func TestRedisSaveRepository(t *testing.T) {
	ctx, st := suite.New(t)

	testSaveRepository(ctx, t, NewRedisSaveRepository(st.Storage))
}

func testSaveRepository(ctx context.Context, t *testing.T, repo SaveRepository) {
	t.Helper()

	now := time.Now()

	t.Run("Get missing save", func(t *testing.T) {
		_, err := repo.Get(ctx, "nope")

		require.ErrorIs(t, err, apperror.ErrSaveNotFound)
	})

	t.Run("Put then Get", func(t *testing.T) {
		// Given: a saved room
		blob := newBlob("r-1", now)
		require.NoError(t, repo.Put(ctx, blob))

		// When: it is read back
		got, err := repo.Get(ctx, "r-1")

		// Then: the blob is unchanged
		require.NoError(t, err)
		assert.Equal(t, blob.RoomID, got.RoomID)
		assert.Equal(t, blob.Password, got.Password)
		assert.Equal(t, blob.Game, got.Game)
		assert.Equal(t, blob.Settings, got.Settings)
		assert.Equal(t, blob.Seats, got.Seats)
		assert.Equal(t, blob.CurrentPlayer, got.CurrentPlayer)
		assert.JSONEq(t, string(blob.Board), string(got.Board))
		assert.True(t, blob.SavedAt.Equal(got.SavedAt))
	})

	t.Run("Put overwrites", func(t *testing.T) {
		blob := newBlob("r-1", now)
		blob.CurrentPlayer = 0
		blob.Name = "renamed"
		require.NoError(t, repo.Put(ctx, blob))

		got, err := repo.Get(ctx, "r-1")

		require.NoError(t, err)
		assert.Equal(t, "renamed", got.Name)
		assert.Equal(t, 0, got.CurrentPlayer)
	})

	t.Run("List newest first", func(t *testing.T) {
		require.NoError(t, repo.Put(ctx, newBlob("r-2", now.Add(time.Minute))))

		saves, err := repo.List(ctx)

		require.NoError(t, err)
		require.Len(t, saves, 2)
		assert.Equal(t, "r-2", saves[0].RoomID)
		assert.Equal(t, "r-1", saves[1].RoomID)
		assert.True(t, saves[0].HasPassword)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "r-2"))

		_, err := repo.Get(ctx, "r-2")
		require.ErrorIs(t, err, apperror.ErrSaveNotFound)

		saves, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, saves, 1)
	})

	t.Run("Delete missing is not an error", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "never-saved"))
	})
}

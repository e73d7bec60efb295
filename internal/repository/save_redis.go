package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/gameroom-server/internal/apperror"
	"github.com/rocketscienceinc/gameroom-server/internal/room"
)

const savesKey = "saves"

type redisSaves struct {
	client *redis.Client
}

func NewRedisSaveRepository(client *redis.Client) SaveRepository {
	return &redisSaves{
		client: client,
	}
}

func saveKey(roomID string) string {
	return "save:" + roomID
}

func (that *redisSaves) Put(ctx context.Context, blob room.Blob) error {
	data, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("could not marshal save: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, saveKey(blob.RoomID), data, 0)
		pipe.SAdd(ctx, savesKey, blob.RoomID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set save: %w", err)
	}

	return nil
}

func (that *redisSaves) Get(ctx context.Context, roomID string) (room.Blob, error) {
	response, err := that.client.Get(ctx, saveKey(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return room.Blob{}, apperror.ErrSaveNotFound
	}
	if err != nil {
		return room.Blob{}, fmt.Errorf("failed to get save: %w", err)
	}

	return decodeBlob(response)
}

func (that *redisSaves) List(ctx context.Context) ([]room.SaveInfo, error) {
	ids, err := that.client.SMembers(ctx, savesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}

	saves := make([]room.SaveInfo, 0, len(ids))
	for _, id := range ids {
		blob, err := that.Get(ctx, id)
		if errors.Is(err, apperror.ErrSaveNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		saves = append(saves, blob.Info())
	}

	sort.Slice(saves, func(i, j int) bool {
		return saves[i].SavedAt.After(saves[j].SavedAt)
	})

	return saves, nil
}

func (that *redisSaves) Delete(ctx context.Context, roomID string) error {
	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, saveKey(roomID))
		pipe.SRem(ctx, savesKey, roomID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete save: %w", err)
	}

	return nil
}

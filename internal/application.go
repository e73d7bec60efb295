package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/gameroom-server/internal/config"
	"github.com/rocketscienceinc/gameroom-server/internal/repository"
	"github.com/rocketscienceinc/gameroom-server/internal/repository/storage"
	"github.com/rocketscienceinc/gameroom-server/internal/service"
	"github.com/rocketscienceinc/gameroom-server/internal/usecase"
	"github.com/rocketscienceinc/gameroom-server/transport/rest"
)

var ErrUnknownStorage = errors.New("unknown storage driver")

// RunApp - runs the application until SIGINT or SIGTERM.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sqliteStorage, err := storage.NewSQLiteStorage(conf.Storage.SQLitePath)
	if err != nil {
		return fmt.Errorf("could not open sqlite storage: %w", err)
	}

	defer func() {
		if err = sqliteStorage.Close(); err != nil {
			log.Error("could not close sqlite storage", "error", err)
		}
	}()

	if err = sqliteStorage.Init(ctx); err != nil {
		return fmt.Errorf("could not init sqlite storage: %w", err)
	}

	saves, closeSaves, err := newSaveRepository(ctx, conf, sqliteStorage)
	if err != nil {
		return err
	}
	defer closeSaves()

	users := service.NewUserStore(logger, repository.NewUserRepository(sqliteStorage.Connection), conf.Rooms.OnlineWindow)
	rooms := usecase.NewRoomManager(ctx, logger, conf, saves, users)
	server := rest.NewServer(logger, users, rooms)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Start(gCtx, conf.HTTPPort)
	})

	g.Go(func() error {
		log.Info("starting room cleanup", "interval", conf.Rooms.CleanupInterval)
		return rooms.RunCleanup(gCtx)
	})

	if err = g.Wait(); err != nil {
		return fmt.Errorf("application stopped: %w", err)
	}

	log.Info("application stopped")

	return nil
}

// newSaveRepository picks the save backend. Users always stay in sqlite.
func newSaveRepository(ctx context.Context, conf *config.Config, sqliteStorage *storage.Storage) (repository.SaveRepository, func(), error) {
	switch conf.Storage.Driver {
	case config.StorageRedis:
		redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		return repository.NewRedisSaveRepository(redisStorage.Connection), func() {
			_ = redisStorage.Close()
		}, nil
	case config.StorageSQLite, "":
		return repository.NewSQLiteSaveRepository(sqliteStorage.Connection), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownStorage, conf.Storage.Driver)
	}
}

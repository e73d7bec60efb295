package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rocketscienceinc/gameroom-server/internal/entity"
	"github.com/rocketscienceinc/gameroom-server/internal/game"
	"github.com/rocketscienceinc/gameroom-server/internal/room"
	"github.com/rocketscienceinc/gameroom-server/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

type userStore interface {
	Create(ctx context.Context, username string) (*entity.User, error)
	Login(ctx context.Context, id string) (*entity.User, error)
	Online() []*entity.User
}

type roomManager interface {
	Games() []game.Type
	DefaultSettings() game.Settings
	Create(ctx context.Context, req usecase.CreateRequest, host *entity.User) (*room.Room, error)
	List(ctx context.Context) []room.Info
	Join(ctx context.Context, roomID, password string, user *entity.User) (int, error)
	Leave(ctx context.Context, user *entity.User) error
	Current(user *entity.User) (*room.Room, error)
	Save(ctx context.Context, user *entity.User) (room.SaveInfo, error)
	ListSaves(ctx context.Context) ([]room.SaveInfo, error)
	LoadSave(ctx context.Context, roomID, password string, user *entity.User) (*room.Room, int, error)
	DeleteSave(ctx context.Context, roomID, password string, user *entity.User) error
	HasChanged(user *entity.User) bool
}

type Server struct {
	logger *slog.Logger
	users  userStore
	rooms  roomManager
}

func NewServer(logger *slog.Logger, users userStore, rooms roomManager) *Server {
	return &Server{
		logger: logger.With("component", "rest"),
		users:  users,
		rooms:  rooms,
	}
}

func (that *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/ping", that.ping)
	r.Get("/games", that.listGames)
	r.Post("/users", that.createUser)
	r.Post("/login", that.login)

	r.Group(func(r chi.Router) {
		r.Use(that.authenticate)

		r.Get("/users/online", that.onlineUsers)

		r.Get("/rooms", that.listRooms)
		r.Post("/rooms", that.createRoom)
		r.Post("/rooms/{roomID}/join", that.joinRoom)

		r.Post("/room/leave", that.leaveRoom)
		r.Get("/room/state", that.roomState)
		r.Get("/room/changed", that.roomChanged)
		r.Get("/room/poll", that.roomPoll)
		r.Post("/room/move", that.postMove)
		r.Post("/room/save", that.saveRoom)

		r.Get("/saves", that.listSaves)
		r.Post("/saves/{roomID}/load", that.loadSave)
		r.Delete("/saves/{roomID}", that.deleteSave)
	})

	return r
}

// Start serves on port until ctx is cancelled, then shuts down gracefully.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down HTTP server", "error", err)
		}
	}()

	that.logger.Info("starting HTTP server", "port", port)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

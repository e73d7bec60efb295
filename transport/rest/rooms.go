package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/gameroom-server/internal/game"
	"github.com/rocketscienceinc/gameroom-server/internal/room"
	"github.com/rocketscienceinc/gameroom-server/internal/usecase"
)

type joinResponse struct {
	RoomID     string `json:"room_id"`
	Seat       int    `json:"seat"`
	Spectating bool   `json:"spectating"`
}

func newJoinResponse(roomID string, seat int) joinResponse {
	return joinResponse{RoomID: roomID, Seat: seat, Spectating: seat == game.NoSeat}
}

type passwordRequest struct {
	Password string `json:"password"`
}

func (that *Server) listGames(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, map[string]any{
		"games":    that.rooms.Games(),
		"defaults": that.rooms.DefaultSettings(),
	})
}

func (that *Server) listRooms(w http.ResponseWriter, r *http.Request) {
	that.writeJSON(w, http.StatusOK, that.rooms.List(r.Context()))
}

// createRoom applies the posted settings on top of the configured defaults.
func (that *Server) createRoom(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Game     game.Type     `json:"game"`
		Name     string        `json:"name"`
		Password string        `json:"password"`
		Settings game.Settings `json:"settings"`
	}{
		Settings: that.rooms.DefaultSettings(),
	}
	if err := decodeBody(w, r, &req); err != nil {
		that.writeError(w, r, err)
		return
	}

	user := currentUser(r)

	created, err := that.rooms.Create(r.Context(), usecase.CreateRequest{
		Game:     req.Game,
		Name:     req.Name,
		Password: req.Password,
		Settings: req.Settings,
	}, user)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusCreated, newJoinResponse(created.ID(), 0))
}

func (that *Server) joinRoom(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			that.writeError(w, r, err)
			return
		}
	}

	roomID := chi.URLParam(r, "roomID")

	seat, err := that.rooms.Join(r.Context(), roomID, req.Password, currentUser(r))
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, newJoinResponse(roomID, seat))
}

func (that *Server) leaveRoom(w http.ResponseWriter, r *http.Request) {
	if err := that.rooms.Leave(r.Context(), currentUser(r)); err != nil {
		that.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (that *Server) currentRoom(w http.ResponseWriter, r *http.Request) (*room.Room, bool) {
	current, err := that.rooms.Current(currentUser(r))
	if err != nil {
		that.writeError(w, r, err)
		return nil, false
	}

	return current, true
}

func (that *Server) roomState(w http.ResponseWriter, r *http.Request) {
	current, ok := that.currentRoom(w, r)
	if !ok {
		return
	}

	view, err := current.BoardState(r.Context(), currentUser(r))
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, view)
}

func (that *Server) roomChanged(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	that.writeJSON(w, http.StatusOK, map[string]any{
		"room_id": user.RoomID(),
		"changed": that.rooms.HasChanged(user),
	})
}

func (that *Server) roomPoll(w http.ResponseWriter, r *http.Request) {
	current, ok := that.currentRoom(w, r)
	if !ok {
		return
	}

	poll, err := current.FrequentUpdate(r.Context())
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, poll)
}

func (that *Server) postMove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Move json.RawMessage `json:"move"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		that.writeError(w, r, err)
		return
	}

	current, ok := that.currentRoom(w, r)
	if !ok {
		return
	}

	move, err := room.DecodeMove(current.Type(), req.Move)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	outcome, err := current.PostMove(r.Context(), currentUser(r), move)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, outcome)
}

func (that *Server) saveRoom(w http.ResponseWriter, r *http.Request) {
	info, err := that.rooms.Save(r.Context(), currentUser(r))
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, info)
}

func (that *Server) listSaves(w http.ResponseWriter, r *http.Request) {
	saves, err := that.rooms.ListSaves(r.Context())
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, saves)
}

func (that *Server) loadSave(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			that.writeError(w, r, err)
			return
		}
	}

	loaded, seat, err := that.rooms.LoadSave(r.Context(), chi.URLParam(r, "roomID"), req.Password, currentUser(r))
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, newJoinResponse(loaded.ID(), seat))
}

func (that *Server) deleteSave(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			that.writeError(w, r, err)
			return
		}
	}

	if err := that.rooms.DeleteSave(r.Context(), chi.URLParam(r, "roomID"), req.Password, currentUser(r)); err != nil {
		that.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

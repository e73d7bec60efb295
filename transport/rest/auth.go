package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/rocketscienceinc/gameroom-server/internal/apperror"
	"github.com/rocketscienceinc/gameroom-server/internal/entity"
)

const (
	userCookie    = "user_id"
	cookieMaxAge  = 365 * 24 * time.Hour
	maxBodyLength = 1 << 16
)

var errBadRequest = errors.New("bad request")

type ctxKey struct{}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	RoomID   string `json:"room_id,omitempty"`
}

func newUserResponse(user *entity.User) userResponse {
	return userResponse{ID: user.GetID(), Username: user.GetUsername(), RoomID: user.RoomID()}
}

type onlineUserResponse struct {
	Username string    `json:"username"`
	RoomID   string    `json:"room_id,omitempty"`
	LastSeen time.Time `json:"last_seen"`
}

// authenticate resolves the user_id cookie and records activity for the online check.
func (that *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(userCookie)
		if err != nil {
			that.writeError(w, r, apperror.ErrInvalidUserID)
			return
		}

		user, err := that.users.Login(r.Context(), cookie.Value)
		if err != nil {
			that.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, user)))
	})
}

func currentUser(r *http.Request) *entity.User {
	user, _ := r.Context().Value(ctxKey{}).(*entity.User)
	return user
}

func setUserCookie(w http.ResponseWriter, user *entity.User) {
	http.SetCookie(w, &http.Cookie{
		Name:     userCookie,
		Value:    user.GetID(),
		Path:     "/",
		Expires:  time.Now().Add(cookieMaxAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyLength)).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}

	return nil
}

func (that *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		that.writeError(w, r, err)
		return
	}

	user, err := that.users.Create(r.Context(), req.Username)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	setUserCookie(w, user)
	that.writeJSON(w, http.StatusCreated, newUserResponse(user))
}

// login accepts the user id in the body, or falls back to the cookie.
func (that *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			that.writeError(w, r, err)
			return
		}
	}

	if req.ID == "" {
		if cookie, err := r.Cookie(userCookie); err == nil {
			req.ID = cookie.Value
		}
	}

	user, err := that.users.Login(r.Context(), req.ID)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	setUserCookie(w, user)
	that.writeJSON(w, http.StatusOK, newUserResponse(user))
}

// onlineUsers lists users active within the online window, most recent first. Ids are left out
// because they double as credentials.
func (that *Server) onlineUsers(w http.ResponseWriter, _ *http.Request) {
	online := that.users.Online()

	users := make([]onlineUserResponse, 0, len(online))
	for _, user := range online {
		users = append(users, onlineUserResponse{
			Username: user.GetUsername(),
			RoomID:   user.RoomID(),
			LastSeen: user.LastSeen(),
		})
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].LastSeen.After(users[j].LastSeen)
	})

	that.writeJSON(w, http.StatusOK, users)
}

package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rocketscienceinc/gameroom-server/internal/apperror"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}

// writeError answers with the status matching err. Unknown errors are logged and hidden.
func (that *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	message := err.Error()

	if status == http.StatusInternalServerError {
		that.logger.Error("request failed", "path", r.URL.Path, "error", err)
		message = "internal server error"
	}

	that.writeJSON(w, status, errorResponse{Error: message})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, apperror.ErrInvalidUserID),
		errors.Is(err, apperror.ErrUserNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrWrongPassword):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrRoomNotFound),
		errors.Is(err, apperror.ErrSaveNotFound),
		errors.Is(err, apperror.ErrNotInRoom),
		errors.Is(err, apperror.ErrRoomClosed):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrOutOfTurn),
		errors.Is(err, apperror.ErrRoomFull),
		errors.Is(err, apperror.ErrRoomAlreadyExists),
		errors.Is(err, apperror.ErrGameAlreadyOver),
		errors.Is(err, apperror.ErrGameIsNotStarted):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrIllegalMove),
		errors.Is(err, apperror.ErrForcedMoveAvailable),
		errors.Is(err, apperror.ErrInvalidPlacement),
		errors.Is(err, apperror.ErrAlreadyFired):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperror.ErrInvalidMoveFormat),
		errors.Is(err, apperror.ErrInvalidName),
		errors.Is(err, apperror.ErrInvalidSettings),
		errors.Is(err, apperror.ErrUnknownGameType),
		errors.Is(err, apperror.ErrUnsupportedVariant),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

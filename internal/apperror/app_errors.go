package apperror

import (
	"errors"
	"fmt"
)

// move rejections, surfaced verbatim to the caller.
var (
	ErrOutOfTurn           = errors.New("it's not your turn")
	ErrIllegalMove         = errors.New("illegal move")
	ErrInvalidMoveFormat   = errors.New("invalid move format")
	ErrForcedMoveAvailable = errors.New("a capture is available and must be taken")
	ErrInvalidPlacement    = errors.New("invalid ship placement")
	ErrAlreadyFired        = errors.New("cell was already fired at")
	ErrGameAlreadyOver     = errors.New("game is already over")
	ErrGameIsNotStarted    = errors.New("game is not started")
)

var (
	ErrPlacementOutOfBounds = fmt.Errorf("%w: ship does not fit on the board", ErrInvalidPlacement)
	ErrPlacementOverlap     = fmt.Errorf("%w: ship overlaps another ship", ErrInvalidPlacement)
	ErrShipAlreadyPlaced    = fmt.Errorf("%w: ship is already placed", ErrInvalidPlacement)
	ErrUnknownShip          = fmt.Errorf("%w: unknown ship", ErrInvalidPlacement)
)

// room and registry errors.
var (
	ErrRoomFull           = errors.New("room is full")
	ErrRoomNotFound       = errors.New("room not found")
	ErrNotInRoom          = errors.New("user is not in a room")
	ErrWrongPassword      = errors.New("wrong room password")
	ErrRoomAlreadyExists  = errors.New("room already exists")
	ErrRoomClosed         = errors.New("room is closed")
	ErrUnknownGameType    = errors.New("unknown game type")
	ErrUnsupportedVariant = errors.New("chess variant is not supported")
	ErrInvalidSettings    = errors.New("invalid room settings")
	ErrNoAvailableMoves   = errors.New("no available moves")
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrSaveNotFound  = errors.New("save not found")
	ErrInvalidUserID = errors.New("invalid user id")
	ErrInvalidName   = errors.New("username must be 1 to 32 characters")
)

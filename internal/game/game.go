// Package game holds the contract every board model satisfies and the values rooms exchange with them.
package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/rocketscienceinc/gameroom-server/internal/apperror"
)

type Type string

const (
	TypeChess      Type = "chess"
	TypeBattleship Type = "battleship"
	TypeCheckers   Type = "checkers"
)

// Types lists every game a room can host.
var Types = []Type{TypeChess, TypeBattleship, TypeCheckers}

func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Types {
		if t == known {
			return t, nil
		}
	}

	return "", fmt.Errorf("%w: %q", apperror.ErrUnknownGameType, s)
}

const (
	// SeatCount is the number of player seats in every game.
	SeatCount = 2
	// NoSeat marks a spectator viewer, a draw winner, or "nobody to move".
	NoSeat = -1
)

// Other returns the opposing seat.
func Other(seat int) int {
	return 1 - seat
}

type Phase int

const (
	PhaseSetup Phase = iota
	PhasePlay
)

// Move is a game specific move. Boards reject foreign move types with ErrInvalidMoveFormat.
type Move interface {
	String() string
}

type Result struct {
	Winner int    `json:"winner"`
	Reason string `json:"reason"`
}

func Win(seat int, reason string) *Result {
	return &Result{Winner: seat, Reason: reason}
}

func Draw(reason string) *Result {
	return &Result{Winner: NoSeat, Reason: reason}
}

func (that Result) IsDraw() bool {
	return that.Winner == NoSeat
}

// Outcome describes an applied move.
type Outcome struct {
	// Continue keeps the same seat to move (checkers jump chains).
	Continue bool `json:"continue,omitempty"`
	// Detail carries game specific information, e.g. the battleship shot result.
	Detail any     `json:"detail,omitempty"`
	Result *Result `json:"result,omitempty"`
}

// Viewer identifies who a board is encoded for.
type Viewer struct {
	Seat int
	// Fog hides private information from spectators.
	Fog bool
}

func Spectator(fog bool) Viewer {
	return Viewer{Seat: NoSeat, Fog: fog}
}

func (that Viewer) IsSpectator() bool {
	return that.Seat == NoSeat
}

// Board is the capability set a room needs from a game.
type Board interface {
	Type() Type
	// ApplyMove validates move for seat and commits it. The board is unchanged when an error is returned.
	ApplyMove(seat int, move Move) (Outcome, error)
	Terminal() (Result, bool)
	EncodeFor(viewer Viewer) any
	// ToMove returns the seat to move, or NoSeat while moves are not turn based.
	ToMove() int
	Phase() Phase
	// Ready reports whether seat has finished setup.
	Ready(seat int) bool
	Clone() Board
	Snapshot() ([]byte, error)
}

// Clocked boards run out of time on the wall clock.
type Clocked interface {
	Tick(now time.Time) (Result, bool)
	Clocks(now time.Time) ClockView
}

type ClockView struct {
	Enabled   bool `json:"enabled"`
	Running   bool `json:"running"`
	White     int  `json:"white"`
	Black     int  `json:"black"`
	Increment int  `json:"increment"`
}

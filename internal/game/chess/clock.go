package chess

import (
	"time"

	"github.com/rocketscienceinc/gameroom-server/internal/game"
)

// Clock is a two sided countdown with a per move increment. It starts running after the first move.
type Clock struct {
	Enabled   bool
	Remaining [game.SeatCount]time.Duration
	Increment time.Duration

	started  bool
	lastMove time.Time
}

func NewClock(enabled bool, white, black, increment time.Duration) Clock {
	return Clock{
		Enabled:   enabled,
		Remaining: [game.SeatCount]time.Duration{white, black},
		Increment: increment,
	}
}

// left reports the time seat has at now without committing it.
func (that *Clock) left(seat int, toMove int, now time.Time) time.Duration {
	remaining := that.Remaining[seat]
	if that.started && seat == toMove {
		remaining -= now.Sub(that.lastMove)
	}

	return max(remaining, 0)
}

// expired reports whether the side to move has run out of time at now.
func (that *Clock) expired(toMove int, now time.Time) bool {
	return that.Enabled && that.started && that.left(toMove, toMove, now) <= 0
}

// punch charges the mover for the time since the previous move and credits the increment.
func (that *Clock) punch(seat int, now time.Time) {
	if !that.Enabled {
		return
	}

	if that.started {
		that.Remaining[seat] -= now.Sub(that.lastMove)
	}
	that.Remaining[seat] += that.Increment

	that.started = true
	that.lastMove = now
}

func (that *Clock) flag(seat int) {
	that.Remaining[seat] = 0
}

// resume restarts a restored clock at now so time spent offline is not charged.
func (that *Clock) resume(started bool, now time.Time) {
	that.started = started
	that.lastMove = now
}

func (that *Clock) view(toMove int, now time.Time) game.ClockView {
	return game.ClockView{
		Enabled:   that.Enabled,
		Running:   that.Enabled && that.started,
		White:     int(that.left(0, toMove, now).Seconds()),
		Black:     int(that.left(1, toMove, now).Seconds()),
		Increment: int(that.Increment.Seconds()),
	}
}

package room

import (
	"github.com/rocketscienceinc/gameroom-server/internal/entity"
	"github.com/rocketscienceinc/gameroom-server/internal/game"
	"github.com/rocketscienceinc/gameroom-server/internal/search"
)

// message is anything the room loop accepts on its inbox.
type message interface{ isRoomMessage() }

type result[T any] struct {
	value T
	err   error
}

type joinMsg struct {
	user  *entity.User
	reply chan result[int]
}

func (joinMsg) isRoomMessage() {}

type leaveMsg struct {
	user  *entity.User
	reply chan result[struct{}]
}

func (leaveMsg) isRoomMessage() {}

type moveMsg struct {
	user  *entity.User
	move  game.Move
	reply chan result[game.Outcome]
}

func (moveMsg) isRoomMessage() {}

type viewMsg struct {
	user  *entity.User
	reply chan result[PlayerView]
}

func (viewMsg) isRoomMessage() {}

type pollMsg struct {
	reply chan Poll
}

func (pollMsg) isRoomMessage() {}

type infoMsg struct {
	reply chan Info
}

func (infoMsg) isRoomMessage() {}

type emptyMsg struct {
	reply chan bool
}

func (emptyMsg) isRoomMessage() {}

type saveMsg struct {
	reply chan result[Blob]
}

func (saveMsg) isRoomMessage() {}

// aiMoveMsg carries a finished AI search back into the loop.
type aiMoveMsg struct {
	seat  int
	move  game.Move
	stats search.Stats
	err   error
}

func (aiMoveMsg) isRoomMessage() {}

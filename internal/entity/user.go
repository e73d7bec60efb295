package entity

import (
	"sync"
	"time"
)

const DefaultOnlineWindow = 30 * time.Second

// User is a registered player. Identity fields are immutable, presence fields are guarded by mu
// because HTTP handlers and room loops touch them concurrently.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`

	mu           sync.Mutex
	roomID       string
	lastSeen     time.Time
	roomChanged  bool
	onlineWindow time.Duration
}

// NewUser returns a user that has just been active.
func NewUser(id, username string, onlineWindow time.Duration) *User {
	user := RestoreUser(id, username, onlineWindow)
	user.lastSeen = time.Now()

	return user
}

// RestoreUser rebuilds a stored user. It stays offline until Touch is called.
func RestoreUser(id, username string, onlineWindow time.Duration) *User {
	if onlineWindow <= 0 {
		onlineWindow = DefaultOnlineWindow
	}

	return &User{
		ID:           id,
		Username:     username,
		onlineWindow: onlineWindow,
	}
}

func (that *User) GetID() string {
	return that.ID
}

func (that *User) GetUsername() string {
	return that.Username
}

// Touch records network activity.
func (that *User) Touch() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.lastSeen = time.Now()
}

func (that *User) LastSeen() time.Time {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.lastSeen
}

func (that *User) IsOnline() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return time.Since(that.lastSeen) < that.onlineWindow
}

func (that *User) RoomID() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.roomID
}

// SetRoom points the user at a room; an empty id means no room. Joining a room always
// marks it changed so the first poll fetches the board.
func (that *User) SetRoom(roomID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.roomID = roomID
	that.roomChanged = roomID != ""
}

// ClearRoom detaches the user only if they still point at roomID.
func (that *User) ClearRoom(roomID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.roomID == roomID {
		that.roomID = ""
		that.roomChanged = false
	}
}

func (that *User) MarkRoomChanged() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.roomChanged = true
}

// TakeRoomChanged reports the dirty flag and resets it.
func (that *User) TakeRoomChanged() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	changed := that.roomChanged
	that.roomChanged = false

	return changed
}

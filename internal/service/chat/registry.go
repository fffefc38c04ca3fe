package chat

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/divyamcodes2/Chat-and-Chai/internal/model/chat"
)

var (
	ErrDuplicateConnection = errors.New("connection already registered")
	ErrSessionNotFound     = errors.New("session not found")
)

// Sender delivers one encoded event to a single connection. Implementations
// must not block; Send reports false when the payload could not be enqueued.
type Sender interface {
	Send(payload []byte) bool
}

type entry struct {
	session chat.Session
	sender  Sender
}

// Registry owns every live session. It is the only shared mutable state in
// the chat core: all reads and writes go through one RWMutex so a membership
// snapshot never observes a half-applied register or unregister. Room
// membership is kept as a reverse index alongside the sessions so broadcast
// audiences resolve without scanning.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	rooms   map[string]map[string]struct{}
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		rooms:   make(map[string]map[string]struct{}),
	}
}

// Register inserts a session for connID with no room membership.
func (r *Registry) Register(connID, username string, sender Sender) (chat.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[connID]; ok {
		return chat.Session{}, fmt.Errorf("%w: %s", ErrDuplicateConnection, connID)
	}

	session := chat.Session{
		ConnectionID: connID,
		Username:     username,
		ConnectedAt:  time.Now().UTC(),
	}
	r.entries[connID] = &entry{session: session, sender: sender}
	return session, nil
}

// Unregister removes connID and returns its last-known session. The second
// return is false when the connection was not registered.
func (r *Registry) Unregister(connID string) (chat.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[connID]
	if !ok {
		return chat.Session{}, false
	}
	delete(r.entries, connID)
	r.removeFromRoom(e.session.Room, connID)
	return e.session, true
}

// SetRoom moves connID into room and returns the updated session along with
// the room it previously occupied (empty when it had none).
func (r *Registry) SetRoom(connID, room string) (chat.Session, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[connID]
	if !ok {
		return chat.Session{}, "", fmt.Errorf("%w: %s", ErrSessionNotFound, connID)
	}

	prior := e.session.Room
	r.removeFromRoom(prior, connID)
	e.session.Room = room
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[room] = members
	}
	members[connID] = struct{}{}
	return e.session, prior, nil
}

// ClearRoom removes connID from whatever room it occupies and returns the
// updated session along with that prior room.
func (r *Registry) ClearRoom(connID string) (chat.Session, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[connID]
	if !ok {
		return chat.Session{}, "", fmt.Errorf("%w: %s", ErrSessionNotFound, connID)
	}

	prior := e.session.Room
	r.removeFromRoom(prior, connID)
	e.session.Room = ""
	return e.session, prior, nil
}

// SessionOf returns a snapshot of the session for connID.
func (r *Registry) SessionOf(connID string) (chat.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[connID]
	if !ok {
		return chat.Session{}, false
	}
	return e.session, true
}

// ListUsernames returns the usernames of all live sessions. Order is not
// contractual.
func (r *Registry) ListUsernames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		users = append(users, e.session.Username)
	}
	return users
}

// MembersOf returns the connection ids currently in room.
func (r *Registry) MembersOf(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[room]
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	return ids
}

// Audience returns the senders for every connection in room. The snapshot is
// taken under the registry lock; callers deliver after it is released.
func (r *Registry) Audience(room string) []Sender {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[room]
	senders := make([]Sender, 0, len(members))
	for id := range members {
		if e, ok := r.entries[id]; ok {
			senders = append(senders, e.sender)
		}
	}
	return senders
}

// Roster returns the usernames and senders of every live connection in one
// atomic snapshot, for the global presence broadcast.
func (r *Registry) Roster() ([]string, []Sender) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.entries))
	senders := make([]Sender, 0, len(r.entries))
	for _, e := range r.entries {
		users = append(users, e.session.Username)
		senders = append(senders, e.sender)
	}
	return users, senders
}

// FindByUsername returns the sender of the first session whose username
// matches name. Usernames are not unique; with duplicates the match is
// whichever the registry yields first.
func (r *Registry) FindByUsername(name string) (Sender, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.session.Username == name {
			return e.sender, true
		}
	}
	return nil, false
}

// removeFromRoom drops connID from the reverse index slot for room. Callers
// must hold the write lock.
func (r *Registry) removeFromRoom(room, connID string) {
	if room == "" {
		return
	}
	members, ok := r.rooms[room]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
}

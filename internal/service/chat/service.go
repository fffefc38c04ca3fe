package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/divyamcodes2/Chat-and-Chai/internal/model/chat"
)

var (
	ErrInvalidRoom   = errors.New("room is not in the directory")
	ErrEmptyMessage  = errors.New("message is empty")
	ErrMissingTarget = errors.New("private message has no target")
)

// Service orchestrates the chat core: connection lifecycle, room membership,
// message routing, and presence. All delivery is best-effort fire-and-forget;
// a recipient that cannot accept a payload is skipped, never retried, and
// never blocks delivery to the others.
type Service struct {
	registry *Registry
	rooms    *Directory
}

// NewService wires the chat core around the given room directory.
func NewService(rooms *Directory) *Service {
	return &Service{
		registry: NewRegistry(),
		rooms:    rooms,
	}
}

// Registry exposes the session registry for read-through access.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Connect registers a new session and pushes the updated roster to every
// connection.
func (s *Service) Connect(_ context.Context, connID, username string, sender Sender) error {
	session, err := s.registry.Register(connID, username, sender)
	if err != nil {
		return err
	}

	s.broadcastRoster()
	log.Printf("[chat] user connected: %s", session.Username)
	return nil
}

// Disconnect tears down the session for connID: a leave announcement to its
// room if it had one, then removal, then a roster broadcast. Unknown ids are
// a no-op, so a repeated disconnect emits nothing.
func (s *Service) Disconnect(_ context.Context, connID string) {
	session, ok := s.registry.Unregister(connID)
	if !ok {
		log.Printf("[chat] disconnect for unknown connection %s", connID)
		return
	}

	if session.Room != "" {
		s.announceStatus(session.Room, session.Username, chat.StatusLeave)
	}
	s.broadcastRoster()
	log.Printf("[chat] user disconnected: %s", session.Username)
}

// Join moves connID into room and announces the join to the room's members,
// the joiner included. A connection occupies at most one room: joining while
// in another room leaves the old room first, with a leave announcement to its
// remaining members.
func (s *Service) Join(_ context.Context, connID, room string) error {
	if !s.rooms.IsValid(room) {
		return fmt.Errorf("%w: %q", ErrInvalidRoom, room)
	}

	session, prior, err := s.registry.SetRoom(connID, room)
	if err != nil {
		return err
	}

	if prior != "" && prior != room {
		s.announceStatus(prior, session.Username, chat.StatusLeave)
	}
	s.announceStatus(room, session.Username, chat.StatusJoin)
	log.Printf("[chat] %s joined room %q", session.Username, room)
	return nil
}

// Leave clears connID's room membership and announces the leave to the
// members of the caller-supplied room. The announcement is not guarded
// against a room the connection never joined; membership cleanup always uses
// the session's actual room.
func (s *Service) Leave(_ context.Context, connID, room string) error {
	session, _, err := s.registry.ClearRoom(connID)
	if err != nil {
		return err
	}

	s.announceStatus(room, session.Username, chat.StatusLeave)
	log.Printf("[chat] %s left room %q", session.Username, room)
	return nil
}

// HandleMessage routes one inbound chat message: private messages go to the
// first connection matching the target username, everything else broadcasts
// to the members of a valid room, sender included. Timestamps are assigned
// here, never trusted from the client.
func (s *Service) HandleMessage(_ context.Context, connID string, in chat.InboundMessage) error {
	session, ok := s.registry.SessionOf(connID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, connID)
	}

	msg := strings.TrimSpace(in.Msg)
	if msg == "" {
		return ErrEmptyMessage
	}

	now := time.Now().UTC()

	if in.Type == chat.MessageTypePrivate {
		if in.Target == "" {
			return ErrMissingTarget
		}
		target, ok := s.registry.FindByUsername(in.Target)
		if !ok {
			return fmt.Errorf("private message target %q not connected", in.Target)
		}
		s.deliver([]Sender{target}, chat.EventPrivateMessage, chat.PrivateMessageEvent{
			Msg:       msg,
			From:      session.Username,
			To:        in.Target,
			Timestamp: now,
		})
		log.Printf("[chat] private message sent: %s -> %s", session.Username, in.Target)
		return nil
	}

	if !s.rooms.IsValid(in.Room) {
		return fmt.Errorf("%w: %q", ErrInvalidRoom, in.Room)
	}
	s.deliver(s.registry.Audience(in.Room), chat.EventMessage, chat.RoomMessageEvent{
		Msg:       msg,
		Username:  session.Username,
		Room:      in.Room,
		Timestamp: now,
	})
	log.Printf("[chat] message sent in %q by %s", in.Room, session.Username)
	return nil
}

// broadcastRoster pushes the full username list to every connection.
func (s *Service) broadcastRoster() {
	users, senders := s.registry.Roster()
	s.deliver(senders, chat.EventActiveUsers, chat.RosterEvent{Users: users})
}

// announceStatus broadcasts a join or leave notice to a room's current
// members.
func (s *Service) announceStatus(room, username, statusType string) {
	verb := "joined"
	if statusType == chat.StatusLeave {
		verb = "left"
	}
	s.deliver(s.registry.Audience(room), chat.EventStatus, chat.StatusEvent{
		Msg:       fmt.Sprintf("%s has %s the room.", username, verb),
		Type:      statusType,
		Timestamp: time.Now().UTC(),
	})
}

// deliver encodes one event and fans it out. The audience snapshot was taken
// under the registry lock; the sends here happen after it was released.
func (s *Service) deliver(targets []Sender, event string, data any) {
	payload, err := encodeEvent(event, data)
	if err != nil {
		log.Printf("[chat] failed to encode %s event: %v", event, err)
		return
	}
	for _, target := range targets {
		if !target.Send(payload) {
			log.Printf("[chat] dropped %s event: recipient not accepting writes", event)
		}
	}
}

func encodeEvent(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(chat.Envelope{Event: event, Data: raw})
}

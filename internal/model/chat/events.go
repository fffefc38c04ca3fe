package chat

import (
	"encoding/json"
	"time"
)

// Inbound event names accepted from clients.
const (
	EventJoin    = "join"
	EventLeave   = "leave"
	EventMessage = "message"
)

// Outbound event names pushed to clients.
const (
	EventActiveUsers    = "active_users"
	EventStatus         = "status"
	EventPrivateMessage = "private_message"
)

// MessageTypePrivate marks an inbound chat message as a direct message to a
// single user instead of a room broadcast.
const MessageTypePrivate = "private"

// Status types carried by EventStatus payloads.
const (
	StatusJoin  = "join"
	StatusLeave = "leave"
)

// Envelope frames every event on the websocket wire.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// RoomRef is the payload of inbound join and leave events.
type RoomRef struct {
	Room string `json:"room"`
}

// InboundMessage is the payload of an inbound message event. Room is ignored
// for private messages; Target is ignored for room broadcasts.
type InboundMessage struct {
	Room   string `json:"room,omitempty"`
	Type   string `json:"type,omitempty"`
	Msg    string `json:"msg"`
	Target string `json:"target,omitempty"`
}

// RosterEvent carries the global list of connected usernames.
type RosterEvent struct {
	Users []string `json:"users"`
}

// StatusEvent announces a join or leave to a room's members.
type StatusEvent struct {
	Msg       string    `json:"msg"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// RoomMessageEvent is a chat message broadcast to a room.
type RoomMessageEvent struct {
	Msg       string    `json:"msg"`
	Username  string    `json:"username"`
	Room      string    `json:"room"`
	Timestamp time.Time `json:"timestamp"`
}

// PrivateMessageEvent is a direct message delivered to a single connection.
type PrivateMessageEvent struct {
	Msg       string    `json:"msg"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Timestamp time.Time `json:"timestamp"`
}

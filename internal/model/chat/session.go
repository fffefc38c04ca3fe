package chat

import "time"

// Session is the server-side record of one live connection: its identity and
// current room membership. Room is empty while the connection is not in any
// room.
type Session struct {
	ConnectionID string    `json:"connectionId"`
	Username     string    `json:"username"`
	ConnectedAt  time.Time `json:"connectedAt"`
	Room         string    `json:"room,omitempty"`
}

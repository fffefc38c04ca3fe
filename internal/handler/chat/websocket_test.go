package chat

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/divyamcodes2/Chat-and-Chai/internal/middleware"
	"github.com/divyamcodes2/Chat-and-Chai/internal/model/chat"
	chatservice "github.com/divyamcodes2/Chat-and-Chai/internal/service/chat"
)

func setupWebSocketServer(t *testing.T) (*httptest.Server, *chatservice.Service) {
	t.Helper()
	rooms := chatservice.NewDirectory([]string{"404 Not Found", "Byte Me"})
	svc := chatservice.NewService(rooms)
	handler := NewWebSocketHandler(svc, middleware.NewOriginPolicy([]string{"*"}))

	r := chi.NewRouter()
	handler.RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, svc
}

func dialWebSocket(t *testing.T, srv *httptest.Server, username string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?username=" + username
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial err: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readEvent reads frames until one matching the wanted event arrives.
func readEvent(t *testing.T, conn *websocket.Conn, want string) json.RawMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read err waiting for %s: %v", want, err)
		}
		var env chat.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		if env.Event == want {
			return env.Data
		}
	}
}

func sendEvent(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := conn.WriteJSON(chat.Envelope{Event: event, Data: raw}); err != nil {
		t.Fatalf("write %s: %v", event, err)
	}
}

func TestWebSocketRosterOnConnect(t *testing.T) {
	srv, _ := setupWebSocketServer(t)
	conn := dialWebSocket(t, srv, "Alice")

	var roster chat.RosterEvent
	if err := json.Unmarshal(readEvent(t, conn, chat.EventActiveUsers), &roster); err != nil {
		t.Fatalf("decode roster: %v", err)
	}
	if len(roster.Users) != 1 || roster.Users[0] != "Alice" {
		t.Fatalf("unexpected roster: %v", roster.Users)
	}
}

func TestWebSocketJoinAndMessageRoundTrip(t *testing.T) {
	srv, _ := setupWebSocketServer(t)
	conn := dialWebSocket(t, srv, "Alice")

	sendEvent(t, conn, chat.EventJoin, chat.RoomRef{Room: "Byte Me"})

	var status chat.StatusEvent
	if err := json.Unmarshal(readEvent(t, conn, chat.EventStatus), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Type != chat.StatusJoin || status.Msg != "Alice has joined the room." {
		t.Fatalf("unexpected status: %+v", status)
	}

	sendEvent(t, conn, chat.EventMessage, chat.InboundMessage{Room: "Byte Me", Msg: "hello"})

	var msg chat.RoomMessageEvent
	if err := json.Unmarshal(readEvent(t, conn, chat.EventMessage), &msg); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if msg.Username != "Alice" || msg.Room != "Byte Me" || msg.Msg != "hello" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestWebSocketDisconnectUpdatesRoster(t *testing.T) {
	srv, _ := setupWebSocketServer(t)
	alice := dialWebSocket(t, srv, "Alice")
	bob := dialWebSocket(t, srv, "Bob")

	// Wait for the roster that includes both users.
	for {
		var roster chat.RosterEvent
		if err := json.Unmarshal(readEvent(t, alice, chat.EventActiveUsers), &roster); err != nil {
			t.Fatalf("decode roster: %v", err)
		}
		if len(roster.Users) == 2 {
			break
		}
	}

	bob.Close()

	for {
		var roster chat.RosterEvent
		if err := json.Unmarshal(readEvent(t, alice, chat.EventActiveUsers), &roster); err != nil {
			t.Fatalf("decode roster: %v", err)
		}
		if len(roster.Users) == 1 && roster.Users[0] == "Alice" {
			return
		}
	}
}

type discardSender struct{}

func (discardSender) Send([]byte) bool { return true }

func TestDispatchRejectsBadFrames(t *testing.T) {
	rooms := chatservice.NewDirectory([]string{"Byte Me"})
	svc := chatservice.NewService(rooms)
	handler := NewWebSocketHandler(svc, middleware.NewOriginPolicy([]string{"*"}))
	ctx := context.Background()

	if err := svc.Connect(ctx, "c1", "Alice", discardSender{}); err != nil {
		t.Fatalf("Connect err: %v", err)
	}

	if err := handler.dispatch(ctx, "c1", []byte("{not json")); err == nil {
		t.Fatal("expected error for malformed frame")
	}
	if err := handler.dispatch(ctx, "c1", []byte(`{"event":"shrug","data":{}}`)); err == nil {
		t.Fatal("expected error for unknown event")
	}
	if err := handler.dispatch(ctx, "c1", []byte(`{"event":"join","data":{"room":"Byte Me"}}`)); err != nil {
		t.Fatalf("dispatch join err: %v", err)
	}

	session, ok := svc.Registry().SessionOf("c1")
	if !ok || session.Room != "Byte Me" {
		t.Fatalf("join not applied, session: %+v", session)
	}
}

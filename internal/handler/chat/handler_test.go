package chat

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/go-chi/chi/v5"

	chatservice "github.com/divyamcodes2/Chat-and-Chai/internal/service/chat"
)

func setupRouter() *chi.Mux {
	rooms := chatservice.NewDirectory([]string{"404 Not Found", "Byte Me"})
	handler := New(rooms)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func TestListRooms(t *testing.T) {
	r := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var payload struct {
		Rooms []string `json:"rooms"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(payload.Rooms) != 2 || payload.Rooms[0] != "404 Not Found" {
		t.Fatalf("unexpected rooms: %v", payload.Rooms)
	}
}

func TestCreateSessionWithUsername(t *testing.T) {
	r := setupRouter()
	payload, _ := json.Marshal(map[string]string{"username": "Alice"})

	req := httptest.NewRequest(http.MethodPost, "/session", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if body["username"] != "Alice" {
		t.Fatalf("expected Alice, got %q", body["username"])
	}
}

func TestCreateSessionGeneratesGuestName(t *testing.T) {
	r := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/session", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if !regexp.MustCompile(`^Guest\d{8}$`).MatchString(body["username"]) {
		t.Fatalf("unexpected guest name: %q", body["username"])
	}
}

func TestGuestUsernameFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^Guest\d{4}\d{4}$`)
	for i := 0; i < 20; i++ {
		if name := guestUsername(); !pattern.MatchString(name) {
			t.Fatalf("unexpected guest name: %q", name)
		}
	}
}

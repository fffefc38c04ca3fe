package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// defaultChatRooms is the built-in room set used when CHAT_ROOMS is not
// configured.
var defaultChatRooms = []string{
	"ASCII Me Anything",
	"404 Not Found",
	"No Typo Zone",
	"Byte Me",
}

// Config aggregates the service configuration.
type Config struct {
	Server ServerConfig
	Chat   ChatConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Chat: chat}, nil
}

// ServerConfig describes the HTTP server.
type ServerConfig struct {
	Addr  string
	Debug bool
}

// loadServerConfig resolves the listen address and debug toggle.
func loadServerConfig() (ServerConfig, error) {
	debug, err := parseBoolEnv("DEBUG", false)
	if err != nil {
		return ServerConfig{}, err
	}

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" and "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port, Debug: debug}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, Debug: debug}, nil
}

// ChatConfig describes the chat room set and browser access policy.
type ChatConfig struct {
	Rooms          []string
	AllowedOrigins []string
}

// loadChatConfig resolves the room list and CORS origins.
func loadChatConfig() (ChatConfig, error) {
	return ChatConfig{
		Rooms:          parseListEnv("CHAT_ROOMS", defaultChatRooms),
		AllowedOrigins: parseListEnv("CORS_ORIGINS", []string{"*"}),
	}, nil
}

// parseListEnv splits a comma-separated env var, trimming each item.
func parseListEnv(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return append([]string(nil), defaultValue...)
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return append([]string(nil), defaultValue...)
	}
	return values
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

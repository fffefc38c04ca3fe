package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/divyamcodes2/Chat-and-Chai/internal/config"
	"github.com/divyamcodes2/Chat-and-Chai/internal/handler/chat"
	"github.com/divyamcodes2/Chat-and-Chai/internal/middleware"
	chatservice "github.com/divyamcodes2/Chat-and-Chai/internal/service/chat"
)

// NewRouter wires HTTP routes to the chat core.
func NewRouter(cfg *config.Config, chatSvc *chatservice.Service, rooms *chatservice.Directory) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if cfg.Server.Debug {
		r.Use(chimiddleware.Logger)
	}
	r.Use(chimiddleware.Recoverer)

	policy := middleware.NewOriginPolicy(cfg.Chat.AllowedOrigins)
	r.Use(middleware.CORS(policy))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	chatHandler := chat.New(rooms)
	wsHandler := chat.NewWebSocketHandler(chatSvc, policy)

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	return r
}

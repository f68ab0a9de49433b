package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/saarthi/companion/backend/internal/handler/chat"
	"github.com/saarthi/companion/backend/internal/handler/persona"
	"github.com/saarthi/companion/backend/internal/handler/stream"
	middlewarePkg "github.com/saarthi/companion/backend/internal/middleware"
	personaModel "github.com/saarthi/companion/backend/internal/model/persona"
	chatService "github.com/saarthi/companion/backend/internal/service/chat"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(personas personaModel.Store, chatSvc *chatService.Service, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(corsOrigins))

	personaHandler := persona.New(personas)
	chatHandler := chat.New(chatSvc)
	streamHandler := stream.New(chatSvc)
	wsHandler := chat.NewWebSocketHandler(chatSvc, middlewarePkg.OriginChecker(corsOrigins))

	r.Route("/api", func(api chi.Router) {
		personaHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	return r
}

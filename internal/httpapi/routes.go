package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lfbianchini/talksoup/internal/lobby"
	"github.com/lfbianchini/talksoup/internal/ws"
)

func SetupRoutes(gateway *ws.Gateway, lobbies *lobby.Manager) http.Handler {
	r := chi.NewRouter()

	// Public routes
	r.Get("/health", Health)
	r.Get("/lobbies", ListLobbies(lobbies))
	r.Get("/ws", gateway.Handler())
	return r
}

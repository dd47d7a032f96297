package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/lfbianchini/talksoup/internal/lobby"
)

// Health is the liveness endpoint; it reports healthy as long as the process
// is serving.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Status string `json:"status"`
	}{Status: "ok"})
}

// ListLobbies is a read-only projection of store state for the lobby list
// page.
func ListLobbies(lobbies *lobby.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := lobbies.List(r.Context())
		if err != nil {
			http.Error(w, "failed to list lobbies", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

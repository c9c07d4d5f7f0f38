package realtime

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
)

// Handler upgrades GET /api/ws?household_id=... to a websocket subscription.
// Cross-origin upgrades are refused unless the Origin host matches one of
// originPatterns (path.Match syntax, e.g. "app.example.com" or "*.example.com").
func Handler(hub *Hub, originPatterns ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		householdID := r.URL.Query().Get("household_id")
		if householdID == "" {
			http.Error(w, "household_id is required", http.StatusBadRequest)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			slog.Warn("Failed to accept websocket", "origin", r.Header.Get("Origin"), "error", err)
			return
		}
		defer conn.CloseNow()

		slog.Debug("Websocket connected", "household_id", householdID)
		NewClient(hub, conn, householdID).Run(r.Context())
	}
}

package websocket

import (
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/sutradhaar/internal/auth"
)

// HandleWebSocket upgrades the request and streams change notifications for
// the caller's identity. It must sit behind the identity middleware.
func HandleWebSocket(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := auth.Owner(r.Context())
		if owner == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // clients authenticate with a token, not an origin
		})
		if err != nil {
			hub.logger.Warn("websocket accept", "error", err)
			return
		}
		defer conn.CloseNow()

		client := NewClient(hub, conn, owner)
		client.Run(r.Context())
	}
}

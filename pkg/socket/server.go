package socket

import (
	"net/http"

	"github.com/gorilla/websocket"

	"chatline/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  16 * 1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Registry is the presence surface the channel needs: register a live
// connection under an identity, drop it again, and enumerate who is online.
type Registry interface {
	Connect(userID string, c *Conn)
	Disconnect(userID string, c *Conn)
	Online() []string
	Snapshot() []*Conn
}

// VerifyIdentity checks the connect-time identity parameters. It is
// satisfied by the auth package's signature check.
type VerifyIdentity func(userID, signature string) bool

// Handler upgrades GET /ws requests, registers the connection in the
// presence registry, and holds the read loop until the peer goes away. The
// channel is receive-mostly on the client; inbound payloads are drained and
// ignored.
func Handler(reg Registry, verify VerifyIdentity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		sig := r.URL.Query().Get("signature")
		if userID == "" || !verify(userID, sig) {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("ws_upgrade_failed", "user", userID, "error", err)
			return
		}
		c := NewConn(userID, ws)
		reg.Connect(userID, c)
		logger.Info("ws_connected", "user", userID)
		BroadcastOnline(reg)

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		reg.Disconnect(userID, c)
		_ = ws.Close()
		logger.Info("ws_disconnected", "user", userID)
		BroadcastOnline(reg)
	})
}

// BroadcastOnline pushes the current online user list to every connection.
// Failed writes are logged and skipped; presence fan-out is best-effort.
func BroadcastOnline(reg Registry) {
	frame := OnlineUsersFrame(reg.Online())
	for _, c := range reg.Snapshot() {
		if err := c.Send(frame); err != nil {
			logger.Warn("online_broadcast_failed", "user", c.UserID, "error", err)
		}
	}
}

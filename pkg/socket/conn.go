package socket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ConnLike is the subset of *websocket.Conn the channel needs. Tests swap
// in fakes.
type ConnLike interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(int, []byte) error
	Close() error
}

// Conn is a single live channel bound to an authenticated user identity.
type Conn struct {
	UserID      string
	ConnectedAt time.Time

	ws      ConnLike
	writeMu sync.Mutex
}

// NewConn wraps an accepted websocket connection.
func NewConn(userID string, ws ConnLike) *Conn {
	return &Conn{UserID: userID, ConnectedAt: time.Now(), ws: ws}
}

// Send writes a frame to the connection (thread-safe).
func (c *Conn) Send(frame Frame) error {
	b, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

// Close tears the underlying connection down.
func (c *Conn) Close() error {
	return c.ws.Close()
}

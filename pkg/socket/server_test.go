package socket

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"chatline/pkg/models"
)

// memRegistry is a minimal in-memory presence implementation for channel
// tests (the real one lives in its own package).
type memRegistry struct {
	mu    sync.Mutex
	conns map[string]*Conn
}

func newMemRegistry() *memRegistry { return &memRegistry{conns: map[string]*Conn{}} }

func (m *memRegistry) Connect(userID string, c *Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[userID] = c
}

func (m *memRegistry) Disconnect(userID string, c *Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conns[userID] == c {
		delete(m.conns, userID)
	}
}

func (m *memRegistry) Online() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.conns))
	for id := range m.conns {
		out = append(out, id)
	}
	return out
}

func (m *memRegistry) Snapshot() []*Conn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Conn, 0, len(m.conns))
	for _, c := range m.conns {
		out = append(out, c)
	}
	return out
}

func allowAll(string, string) bool  { return true }
func allowNone(string, string) bool { return false }

func TestHandlerRejectsUnverifiedIdentity(t *testing.T) {
	srv := httptest.NewServer(Handler(newMemRegistry(), allowNone))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "?user_id=alice&signature=bad")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401; got %d", resp.StatusCode)
	}

	// missing user_id is rejected even when verification would pass
	resp, err = http.Get(srv.URL + "?signature=ok")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing user_id; got %d", resp.StatusCode)
	}
}

func TestHandlerLifecycle(t *testing.T) {
	reg := newMemRegistry()
	srv := httptest.NewServer(Handler(reg, allowAll))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "?user_id=alice&signature=s"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	// connect is announced with the online-user list
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f struct {
		Event string   `json:"event"`
		Data  []string `json:"data"`
	}
	if err := ws.ReadJSON(&f); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if f.Event != EventOnlineUsers {
		t.Fatalf("expected %s; got %s", EventOnlineUsers, f.Event)
	}
	if len(f.Data) != 1 || f.Data[0] != "alice" {
		t.Fatalf("expected [alice]; got %v", f.Data)
	}

	// closing the socket ends the read loop and drops presence
	_ = ws.Close()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(reg.Online()) == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("connection never deregistered; online=%v", reg.Online())
}

type captureWS struct {
	mu      sync.Mutex
	wrote   [][]byte
	sendErr error
}

func (c *captureWS) ReadMessage() (int, []byte, error) { return 0, nil, errors.New("closed") }

func (c *captureWS) WriteMessage(_ int, b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.wrote = append(c.wrote, append([]byte(nil), b...))
	return nil
}

func (c *captureWS) Close() error { return nil }

func TestConnSendMarshalsFrame(t *testing.T) {
	ws := &captureWS{}
	c := NewConn("bob", ws)

	msg := models.Message{ID: "m1", SenderID: "alice", ReceiverID: "bob", Text: "hi"}
	if err := c.Send(NewMessageFrame(msg)); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(ws.wrote) != 1 {
		t.Fatalf("expected one write; got %d", len(ws.wrote))
	}
	var f struct {
		Event string         `json:"event"`
		Data  models.Message `json:"data"`
	}
	if err := json.Unmarshal(ws.wrote[0], &f); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	if f.Event != EventNewMessage || f.Data.ID != "m1" {
		t.Fatalf("unexpected frame: %+v", f)
	}
}

func TestConnSendConcurrent(t *testing.T) {
	ws := &captureWS{}
	c := NewConn("bob", ws)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Send(MessageDeletedFrame("x"))
		}()
	}
	wg.Wait()
	if len(ws.wrote) != 20 {
		t.Fatalf("expected 20 writes; got %d", len(ws.wrote))
	}
}

func TestBroadcastSkipsFailedWrites(t *testing.T) {
	reg := newMemRegistry()
	good := &captureWS{}
	bad := &captureWS{sendErr: errors.New("gone")}
	reg.Connect("alice", NewConn("alice", good))
	reg.Connect("bob", NewConn("bob", bad))

	BroadcastOnline(reg)

	if len(good.wrote) != 1 {
		t.Fatalf("healthy connection should receive the broadcast; got %d writes", len(good.wrote))
	}
}

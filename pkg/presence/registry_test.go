package presence

import (
	"fmt"
	"reflect"
	"sync"
	"testing"

	"chatline/pkg/socket"
)

type nopWS struct{}

func (nopWS) ReadMessage() (int, []byte, error) { return 0, nil, nil }
func (nopWS) WriteMessage(int, []byte) error    { return nil }
func (nopWS) Close() error                      { return nil }

func TestConnectReplacesPrevious(t *testing.T) {
	r := NewRegistry()
	first := socket.NewConn("alice", nopWS{})
	second := socket.NewConn("alice", nopWS{})

	r.Connect("alice", first)
	r.Connect("alice", second)

	if got := r.Get("alice"); got != second {
		t.Fatalf("expected the replacement connection to win")
	}
	if ids := r.Online(); len(ids) != 1 {
		t.Fatalf("expected one online entry; got %v", ids)
	}
}

// TestStaleDisconnectKeepsReplacement covers the reconnect race: the read
// loop of an orphaned connection ends after the replacement registered, and
// its disconnect must not take the replacement offline.
func TestStaleDisconnectKeepsReplacement(t *testing.T) {
	r := NewRegistry()
	old := socket.NewConn("alice", nopWS{})
	replacement := socket.NewConn("alice", nopWS{})

	r.Connect("alice", old)
	r.Connect("alice", replacement)
	r.Disconnect("alice", old)

	if got := r.Get("alice"); got != replacement {
		t.Fatalf("stale disconnect evicted the replacement")
	}

	r.Disconnect("alice", replacement)
	if got := r.Get("alice"); got != nil {
		t.Fatalf("expected offline after real disconnect")
	}
}

func TestOnlineSorted(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"carol", "alice", "bob"} {
		r.Connect(id, socket.NewConn(id, nopWS{}))
	}
	want := []string{"alice", "bob", "carol"}
	if got := r.Online(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v; got %v", want, got)
	}
	if conns := r.Snapshot(); len(conns) != 3 {
		t.Fatalf("expected 3 snapshot entries; got %d", len(conns))
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("user-%d", i%10)
			c := socket.NewConn(id, nopWS{})
			r.Connect(id, c)
			_ = r.Get(id)
			_ = r.Online()
			r.Disconnect(id, c)
		}(i)
	}
	wg.Wait()
}

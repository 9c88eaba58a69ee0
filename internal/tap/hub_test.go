package tap

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/torvik/cloudlink/internal/protocol"
)

func dialHub(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	waitFor(t, "client registration", func() bool { return h.ClientCount() == 1 })
	return conn
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func testEvent(summary string) Event {
	return Event{
		ReceivedAt: time.Now().UTC(),
		Remote:     "test",
		FrameType:  "FrameError",
		Summary:    summary,
		Fields:     []protocol.Field{{Name: "error", Value: "erroneous checksum"}},
	}
}

func TestHubConcurrentBroadcast(t *testing.T) {
	// Broadcast is called from one goroutine per bridge connection, so
	// several bridges publish to the same client at once. All writes to the
	// client connection must go through its single writer.
	h := NewHub()
	conn := dialHub(t, h)

	received := make(chan struct{}, 1024)
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			received <- struct{}{}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				h.Broadcast(testEvent("FrameError{error=erroneous checksum}"))
			}
		}()
	}
	wg.Wait()

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered to the diagnostic client")
	}
}

func TestHubBroadcastDropsSlowClientWithoutBlocking(t *testing.T) {
	// A client that never reads must not stall Broadcast: once its send
	// buffer fills, the client is dropped and the broadcaster moves on.
	h := NewHub()
	dialHub(t, h)

	// Large events so the kernel socket buffers cannot absorb the backlog.
	evt := testEvent(strings.Repeat("x", 64<<10))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < sendBuffer*4; i++ {
			h.Broadcast(evt)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Broadcast blocked on a slow client")
	}

	waitFor(t, "slow client drop", func() bool { return h.ClientCount() == 0 })
}

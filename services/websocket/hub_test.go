package websocket

import (
	"sync"
	"testing"
	"time"
)

func waitForClientCount(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.GetClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("client count = %d, want %d", h.GetClientCount(), want)
}

func TestBroadcastToUserDelivers(t *testing.T) {
	h := NewHub()
	go h.Run()

	client := &Client{hub: h, send: make(chan []byte, 1), userID: 7}
	h.register <- client
	waitForClientCount(t, h, 1)

	h.BroadcastToUser(7, Message{Type: "substitution_update"})

	select {
	case msg := <-client.send:
		if len(msg) == 0 {
			t.Fatal("empty message delivered")
		}
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
	if got := h.GetClientCount(); got != 1 {
		t.Fatalf("client count = %d, want 1", got)
	}
}

func TestBroadcastToUserSkipsOtherUsers(t *testing.T) {
	h := NewHub()
	go h.Run()

	other := &Client{hub: h, send: make(chan []byte, 1), userID: 8}
	h.register <- other
	waitForClientCount(t, h, 1)

	h.BroadcastToUser(7, Message{Type: "substitution_update"})

	select {
	case <-other.send:
		t.Fatal("message delivered to a different user")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestConcurrentBroadcastsToStalledClient(t *testing.T) {
	h := NewHub()
	go h.Run()

	// No reader and no buffer, so every send takes the eviction branch.
	stalled := &Client{hub: h, send: make(chan []byte), userID: 1}
	h.register <- stalled
	waitForClientCount(t, h, 1)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.BroadcastToUser(1, Message{Type: "substitution_update"})
		}()
	}
	wg.Wait()

	if got := h.GetClientCount(); got != 0 {
		t.Fatalf("client count after eviction = %d, want 0", got)
	}
	if _, open := <-stalled.send; open {
		t.Fatal("send channel still open after eviction")
	}
}

func TestBroadcastEvictsOnlyStalledClients(t *testing.T) {
	h := NewHub()
	go h.Run()

	healthy := &Client{hub: h, send: make(chan []byte, 1), userID: 2}
	stalled := &Client{hub: h, send: make(chan []byte), userID: 3}
	h.register <- healthy
	h.register <- stalled
	waitForClientCount(t, h, 2)

	h.broadcast <- []byte(`{"type":"attendance_marked"}`)
	waitForClientCount(t, h, 1)

	select {
	case <-healthy.send:
	case <-time.After(time.Second):
		t.Fatal("healthy client did not receive the broadcast")
	}
}

package commands

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/snapsense/snapsense/pkg/gesture"
)

func TestEventHubBroadcast(t *testing.T) {
	hub := newEventHub()
	defer hub.Close()

	server := httptest.NewServer(hub)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	// Registration races the dial returning; give the server a beat.
	deadline := time.Now().Add(2 * time.Second)
	for {
		hub.mu.Lock()
		n := len(hub.conns)
		hub.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	want := gesture.Event{ID: "ev1", Class: "snap", Score: 0.93, Time: time.Now().UTC()}
	hub.Broadcast(want)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got gesture.Event
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatal(err)
	}
	if got.ID != want.ID || got.Class != want.Class || got.Score != want.Score {
		t.Errorf("received %+v, want %+v", got, want)
	}
}

func TestEventHubDropsDeadSubscribers(t *testing.T) {
	hub := newEventHub()
	defer hub.Close()

	server := httptest.NewServer(hub)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	conn.Close()

	// Broadcasting to a closed peer must not error or wedge; the
	// subscriber is dropped on first write failure at the latest.
	for i := 0; i < 3; i++ {
		hub.Broadcast(gesture.Event{ID: "x", Class: "snap"})
		time.Sleep(10 * time.Millisecond)
	}
	hub.mu.Lock()
	n := len(hub.conns)
	hub.mu.Unlock()
	if n != 0 {
		t.Errorf("%d subscribers still registered after close", n)
	}
}

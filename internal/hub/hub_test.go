package hub

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// wsServer hands out real websocket pairs backed by an httptest server.
type wsServer struct {
	srv   *httptest.Server
	conns chan *websocket.Conn
}

func newWSServer(t *testing.T) *wsServer {
	t.Helper()
	s := &wsServer{conns: make(chan *websocket.Conn, 16)}
	upgrader := websocket.Upgrader{}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.conns <- ws
	}))
	t.Cleanup(s.srv.Close)
	return s
}

// pair dials the server and returns the server-side socket (for the hub) and
// the client-side socket (for assertions).
func (s *wsServer) pair(t *testing.T) (server, client *websocket.Conn) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = client.Close() })
	select {
	case server = <-s.conns:
	case <-time.After(time.Second):
		t.Fatal("server side of the socket never arrived")
	}
	return server, client
}

// attach creates and attaches a hub connection for userID, returning it with
// the client-side socket.
func attach(t *testing.T, h *Hub, s *wsServer, userID string) (*Connection, *websocket.Conn) {
	t.Helper()
	server, client := s.pair(t)
	conn := NewConnection(userID, server, 0)
	h.Attach(conn)
	return conn, client
}

func readEventName(t *testing.T, client *websocket.Conn) string {
	t.Helper()
	_ = client.SetReadDeadline(time.Now().Add(time.Second))
	_, raw, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var evt Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		t.Fatalf("unmarshal %q: %v", raw, err)
	}
	return evt.Name
}

func expectSilence(t *testing.T, client *websocket.Conn) {
	t.Helper()
	// Peek on the underlying net.Conn: a timed-out websocket.ReadMessage
	// permanently fails the gorilla connection, which would break later reads.
	raw := client.UnderlyingConn()
	_ = raw.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	buf := make([]byte, 1)
	if n, err := raw.Read(buf); err == nil && n > 0 {
		t.Fatalf("unexpected frame")
	}
	_ = raw.SetReadDeadline(time.Time{})
}

func TestPublishReachesOnlyRoomMembers(t *testing.T) {
	s := newWSServer(t)
	h := New(zap.NewNop())
	defer h.Close()

	c1, client1 := attach(t, h, s, "u1")
	c2, client2 := attach(t, h, s, "u2")
	_, client3 := attach(t, h, s, "u3")

	h.JoinRoom("r1", c1.ID)
	h.JoinRoom("r1", c2.ID)

	h.Publish("r1", Event{Name: EventChatMessage})

	for _, client := range []*websocket.Conn{client1, client2} {
		if name := readEventName(t, client); name != EventChatMessage {
			t.Errorf("event = %q, want %q", name, EventChatMessage)
		}
	}
	expectSilence(t, client3)
}

func TestPublishExceptSkipsSender(t *testing.T) {
	s := newWSServer(t)
	h := New(zap.NewNop())
	defer h.Close()

	c1, client1 := attach(t, h, s, "u1")
	c2, client2 := attach(t, h, s, "u2")
	h.JoinRoom("r1", c1.ID)
	h.JoinRoom("r1", c2.ID)

	h.PublishExcept("r1", c1.ID, Event{Name: EventHeartbeat})

	if name := readEventName(t, client2); name != EventHeartbeat {
		t.Errorf("event = %q, want %q", name, EventHeartbeat)
	}
	expectSilence(t, client1)
}

func TestSendTargetsSingleConnection(t *testing.T) {
	s := newWSServer(t)
	h := New(zap.NewNop())
	defer h.Close()

	c1, client1 := attach(t, h, s, "u1")
	_, client2 := attach(t, h, s, "u2")

	h.Send(c1.ID, Event{Name: EventForceSync})
	h.Send("no-such-connection", Event{Name: EventForceSync})

	if name := readEventName(t, client1); name != EventForceSync {
		t.Errorf("event = %q, want %q", name, EventForceSync)
	}
	expectSilence(t, client2)
}

func TestAttachReplacesPreviousUserConnection(t *testing.T) {
	s := newWSServer(t)
	h := New(zap.NewNop())
	defer h.Close()

	c1, client1 := attach(t, h, s, "u1")
	c2, client2 := attach(t, h, s, "u1")

	// The replaced socket gets the close frame.
	_ = client1.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := client1.ReadMessage(); !websocket.IsCloseError(err, 4001) {
		t.Errorf("old socket read err = %v, want close 4001", err)
	}

	// Deliveries to the old id are dropped; the new id still works.
	h.Send(c1.ID, Event{Name: EventChatMessage})
	h.Send(c2.ID, Event{Name: EventChatMessage})
	if name := readEventName(t, client2); name != EventChatMessage {
		t.Errorf("event = %q, want %q", name, EventChatMessage)
	}
	expectSilence(t, client2)
}

func TestJoinRoomMovesConnectionBetweenRooms(t *testing.T) {
	s := newWSServer(t)
	h := New(zap.NewNop())
	defer h.Close()

	c1, client1 := attach(t, h, s, "u1")
	h.JoinRoom("r1", c1.ID)
	h.JoinRoom("r2", c1.ID)

	h.Publish("r1", Event{Name: EventChatMessage})
	expectSilence(t, client1)

	h.Publish("r2", Event{Name: EventChatMessage})
	if name := readEventName(t, client1); name != EventChatMessage {
		t.Errorf("event = %q, want %q", name, EventChatMessage)
	}
}

func TestCloseRoomUnsubscribesWithoutDetaching(t *testing.T) {
	s := newWSServer(t)
	h := New(zap.NewNop())
	defer h.Close()

	c1, client1 := attach(t, h, s, "u1")
	c2, client2 := attach(t, h, s, "u2")
	h.JoinRoom("r1", c1.ID)
	h.JoinRoom("r1", c2.ID)

	h.CloseRoom("r1")

	h.Publish("r1", Event{Name: EventChatMessage})
	expectSilence(t, client1)
	expectSilence(t, client2)

	// Connections stay attached for direct sends.
	h.Send(c1.ID, Event{Name: EventRoomClosed})
	if name := readEventName(t, client1); name != EventRoomClosed {
		t.Errorf("event = %q, want %q", name, EventRoomClosed)
	}
}

func TestDetachRemovesRoomMembership(t *testing.T) {
	s := newWSServer(t)
	h := New(zap.NewNop())
	defer h.Close()

	c1, client1 := attach(t, h, s, "u1")
	c2, client2 := attach(t, h, s, "u2")
	h.JoinRoom("r1", c1.ID)
	h.JoinRoom("r1", c2.ID)

	h.Detach(c1.ID)

	h.Publish("r1", Event{Name: EventChatMessage})
	if name := readEventName(t, client2); name != EventChatMessage {
		t.Errorf("event = %q, want %q", name, EventChatMessage)
	}
	expectSilence(t, client1)
}

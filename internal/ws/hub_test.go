package ws

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeConn struct {
	mu      sync.Mutex
	written [][]byte
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn { return &fakeConn{closed: make(chan struct{})} }

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errors.New("closed")
}

func (f *fakeConn) WriteMessage(mt int, data []byte) error {
	if mt != websocket.TextMessage {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, append([]byte(nil), data...))
	return nil
}

func (f *fakeConn) SetReadLimit(int64)                 {}
func (f *fakeConn) SetReadDeadline(time.Time) error    { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error   { return nil }
func (f *fakeConn) SetPongHandler(func(string) error)  {}
func (f *fakeConn) Close() error                       { f.once.Do(func() { close(f.closed) }); return nil }

func (f *fakeConn) messages() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.written...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestHub_SendToDeliversOnlyToAccount(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zap.NewNop())
	done := make(chan struct{})
	go func() { hub.Run(ctx); close(done) }()

	alice, bob := uuid.New(), uuid.New()
	aConn, bConn := newFakeConn(), newFakeConn()
	a := NewClient(hub, aConn, alice)
	b := NewClient(hub, bConn, bob)
	for _, c := range []*Client{a, b} {
		hub.Register(c)
		go c.WritePump()
		go c.ReadPump()
	}
	waitFor(t, func() bool { return hub.ClientCount() == 2 })

	if !hub.SendTo(alice, []byte(`{"type":"contract.formed"}`)) {
		t.Fatalf("send rejected")
	}
	waitFor(t, func() bool { return len(aConn.messages()) == 1 })
	if len(bConn.messages()) != 0 {
		t.Fatalf("bob received alice's message")
	}

	_ = aConn.Close()
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	cancel()
	<-done
	_ = bConn.Close()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

func TestHub_NilIsSafe(t *testing.T) {
	var h *Hub
	if h.SendTo(uuid.New(), []byte("x")) {
		t.Fatalf("nil hub must not accept messages")
	}
	if h.ClientCount() != 0 {
		t.Fatalf("nil hub count")
	}
}

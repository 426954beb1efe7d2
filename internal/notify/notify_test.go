package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"vahire/internal/ws"

	"github.com/google/uuid"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakePublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, routingKey string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return p.err
}

type capturePusher struct {
	got []Message
}

func (c *capturePusher) SendTo(accountID uuid.UUID, payload []byte) bool {
	var m Message
	if err := json.Unmarshal(payload, &m); err != nil || m.AccountID != accountID {
		return false
	}
	c.got = append(c.got, m)
	return true
}

func TestDispatcher_FansOut(t *testing.T) {
	pusher := &capturePusher{}
	pub := &fakePublisher{}
	d := NewDispatcher(pusher, pub, zap.NewNop())

	acct := uuid.New()
	d.Notify(context.Background(), acct, NewEvent(EventJobCompleted, map[string]any{"job_id": "j1"}))

	if len(pusher.got) != 1 || pusher.got[0].Type != EventJobCompleted {
		t.Fatalf("pushed = %+v", pusher.got)
	}
	if len(pub.keys) != 1 || pub.keys[0] != EventJobCompleted {
		t.Fatalf("published = %v", pub.keys)
	}
}

func TestDispatcher_PublishFailureIsLoggedNotReturned(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := NewDispatcher(nil, &fakePublisher{err: errors.New("broker down")}, zap.New(core))

	d.Notify(context.Background(), uuid.New(), NewEvent(EventPaymentSettled, nil))

	if logs.FilterMessage("notification publish failed").Len() != 1 {
		t.Fatalf("expected one publish warning, got %d entries", logs.Len())
	}
}

func TestDispatcher_WithHubDoesNotLeak(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := ws.NewHub(zap.NewNop())
	done := make(chan struct{})
	go func() { hub.Run(ctx); close(done) }()

	d := NewDispatcher(hub, nil, zap.NewNop())
	d.Notify(context.Background(), uuid.New(), NewEvent(EventContractFormed, nil))

	time.Sleep(10 * time.Millisecond)
	cancel()
	<-done
}

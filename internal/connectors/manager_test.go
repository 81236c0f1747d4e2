package connectors

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nextlevelbuilder/slashbot/internal/bus"
)

type fakeConnector struct {
	id   string
	sent []string
	mu   sync.Mutex
}

func (f *fakeConnector) ID() string                         { return f.id }
func (f *fakeConnector) Start(ctx context.Context) error     { return nil }
func (f *fakeConnector) Stop(ctx context.Context) error      { return nil }
func (f *fakeConnector) IsAuthorized(targetID string) bool   { return targetID != "blocked" }
func (f *fakeConnector) Snapshot() Snapshot                  { return Snapshot{ID: f.id, Running: true} }
func (f *fakeConnector) Send(ctx context.Context, targetID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func TestManager_HandleInbound_RoutesAndSends(t *testing.T) {
	c := &fakeConnector{id: "telegram"}
	chat := func(ctx context.Context, sessionID SessionID, text string) (string, error) {
		return "reply:" + text, nil
	}
	m := NewManager(chat, nil)
	m.Register(c)

	msg := bus.InboundMessage{ConnectorID: "telegram", TargetID: "room1", Content: "hi"}
	if err := m.HandleInbound(context.Background(), msg); err != nil {
		t.Fatal(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) != 1 || c.sent[0] != "reply:hi" {
		t.Fatalf("expected one reply sent, got %+v", c.sent)
	}
}

func TestManager_HandleInbound_RejectsUnauthorizedTarget(t *testing.T) {
	c := &fakeConnector{id: "telegram"}
	called := false
	chat := func(ctx context.Context, sessionID SessionID, text string) (string, error) {
		called = true
		return "reply", nil
	}
	m := NewManager(chat, nil)
	m.Register(c)

	msg := bus.InboundMessage{ConnectorID: "telegram", TargetID: "blocked", Content: "hi"}
	if err := m.HandleInbound(context.Background(), msg); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Fatal("expected chat() not to be invoked for an unauthorized target")
	}
}

func TestManager_HandleInbound_UnknownConnectorErrors(t *testing.T) {
	m := NewManager(func(ctx context.Context, sessionID SessionID, text string) (string, error) {
		return "", nil
	}, nil)

	err := m.HandleInbound(context.Background(), bus.InboundMessage{ConnectorID: "ghost", TargetID: "x"})
	if err == nil {
		t.Fatal("expected an error for an unregistered connector")
	}
}

// TestManager_SameSessionSerialisesTurns verifies that two inbound messages
// for the same session never run chat() concurrently: the second call only
// starts once the first has returned.
func TestManager_SameSessionSerialisesTurns(t *testing.T) {
	c := &fakeConnector{id: "telegram"}

	var mu sync.Mutex
	active := 0
	maxActive := 0
	chat := func(ctx context.Context, sessionID SessionID, text string) (string, error) {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		return "ok", nil
	}
	m := NewManager(chat, nil)
	m.Register(c)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.HandleInbound(context.Background(), bus.InboundMessage{
				ConnectorID: "telegram", TargetID: "room1", Content: "msg",
			})
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if maxActive != 1 {
		t.Fatalf("expected at most 1 concurrent turn for the same session, saw %d", maxActive)
	}
}

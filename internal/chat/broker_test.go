package chat

import (
	"context"
	"testing"
	"time"

	"github.com/nettrack/backend/internal/models"
)

func waitForSnapshot(t *testing.T, sub *Subscription) []models.ChatMessage {
	t.Helper()
	select {
	case snapshot, ok := <-sub.Snapshots:
		if !ok {
			t.Fatal("subscription closed before snapshot arrived")
		}
		return snapshot
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return nil
}

func TestBrokerDeliversInitialSnapshot(t *testing.T) {
	store := &inMemoryMessageStore{}
	svc := newTestService(store, newInMemoryGroupStore())
	if _, err := svc.SendGlobal(context.Background(), "alice", "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}

	broker := NewBroker(store, time.Hour, nil)
	defer broker.Shutdown(context.Background())

	sub, err := broker.Subscribe(context.Background(), GlobalKey)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	snapshot := waitForSnapshot(t, sub)
	if len(snapshot) != 1 || snapshot[0].Text != "hello" {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
}

func TestBrokerNotifyWakesSubscription(t *testing.T) {
	store := &inMemoryMessageStore{}
	broker := NewBroker(store, time.Hour, nil)
	defer broker.Shutdown(context.Background())

	svc := newTestService(store, newInMemoryGroupStore())

	sub, err := broker.Subscribe(context.Background(), GlobalKey)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	// Drain the initial empty snapshot before writing.
	waitForSnapshot(t, sub)

	if _, err := svc.SendGlobal(context.Background(), "alice", "first"); err != nil {
		t.Fatalf("send: %v", err)
	}
	broker.Notify(GlobalKey)

	snapshot := waitForSnapshot(t, sub)
	if len(snapshot) != 1 || snapshot[0].Text != "first" {
		t.Fatalf("expected the new message got %+v", snapshot)
	}
}

func TestBrokerCloseEndsSubscription(t *testing.T) {
	broker := NewBroker(&inMemoryMessageStore{}, time.Hour, nil)
	defer broker.Shutdown(context.Background())

	sub, err := broker.Subscribe(context.Background(), GlobalKey)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	waitForSnapshot(t, sub)
	sub.Close()

	select {
	case _, ok := <-sub.Snapshots:
		if ok {
			t.Fatal("expected channel to close without another snapshot")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for subscription teardown")
	}
}

func TestBrokerShutdownRejectsNewSubscriptions(t *testing.T) {
	broker := NewBroker(&inMemoryMessageStore{}, time.Hour, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := broker.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if _, err := broker.Subscribe(context.Background(), GlobalKey); err == nil {
		t.Fatal("expected subscribe after shutdown to fail")
	}
}

package match

import (
	"context"
	"testing"
	"time"
)

func TestLocalLockerSerialisesTenant(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "acme")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	// another tenant is never blocked
	other, err := l.Lock(ctx, "globex")
	if err != nil {
		t.Fatalf("lock other tenant: %v", err)
	}
	other()

	acquired := make(chan func())
	go func() {
		u, err := l.Lock(ctx, "acme")
		if err != nil {
			t.Errorf("second lock: %v", err)
			close(acquired)
			return
		}
		acquired <- u
	}()

	select {
	case <-acquired:
		t.Fatalf("second holder entered while the first still held the lock")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	unlock() // idempotent

	select {
	case u := <-acquired:
		if u != nil {
			u()
		}
	case <-time.After(time.Second):
		t.Fatalf("second holder never acquired the lock")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.tenants) != 0 {
		t.Fatalf("expected lock table to be empty, got %d entries", len(l.tenants))
	}
}

func TestLocalLockerHonoursContext(t *testing.T) {
	l := NewLocalLocker()
	unlock, err := l.Lock(context.Background(), "acme")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "acme"); err == nil {
		t.Fatalf("expected timeout while tenant is held")
	}
}

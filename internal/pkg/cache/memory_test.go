package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryGetSet(t *testing.T) {
	m := NewMemory(time.Minute)
	defer m.Close()
	ctx := context.Background()

	if err := m.Set(ctx, "loan:1", map[string]int{"amount": 42}, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	var got map[string]int
	ok, err := m.Get(ctx, "loan:1", &got)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !ok || got["amount"] != 42 {
		t.Fatalf("unexpected cached value: ok=%v val=%v", ok, got)
	}
}

func TestMemoryMissOnUnknownKey(t *testing.T) {
	m := NewMemory(time.Minute)
	defer m.Close()

	var dest string
	ok, err := m.Get(context.Background(), "absent", &dest)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if ok {
		t.Fatal("expected miss")
	}
}

func TestMemoryPassiveExpiry(t *testing.T) {
	m := NewMemory(time.Hour) // sweep far away, expiry must work on read
	defer m.Close()
	ctx := context.Background()

	if err := m.Set(ctx, "stale", "v", 10*time.Millisecond); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	var dest string
	ok, _ := m.Get(ctx, "stale", &dest)
	if ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestMemorySweepEvicts(t *testing.T) {
	m := NewMemory(20 * time.Millisecond)
	defer m.Close()
	ctx := context.Background()

	_ = m.Set(ctx, "a", 1, 5*time.Millisecond)
	time.Sleep(80 * time.Millisecond)

	m.mu.RLock()
	_, present := m.entries["a"]
	m.mu.RUnlock()
	if present {
		t.Fatal("sweep should have evicted expired entry")
	}
}

func TestMemoryDelete(t *testing.T) {
	m := NewMemory(time.Minute)
	defer m.Close()
	ctx := context.Background()

	_ = m.Set(ctx, "k", "v", time.Minute)
	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	var dest string
	if ok, _ := m.Get(ctx, "k", &dest); ok {
		t.Fatal("expected deleted key to miss")
	}
}

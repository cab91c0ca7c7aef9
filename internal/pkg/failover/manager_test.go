package failover

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/finovel/loanledger/internal/pkg/callqueue"
)

func newTestManager(t *testing.T, providers []string, cooldown time.Duration) *Manager {
	t.Helper()
	m, err := New(providers, cooldown, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("failed to build manager: %v", err)
	}
	m.Start(context.Background())
	t.Cleanup(m.Stop)
	return m
}

func TestNewRequiresProviders(t *testing.T) {
	if _, err := New(nil, time.Minute, slog.New(slog.NewJSONHandler(io.Discard, nil))); !errors.Is(err, ErrNoProviders) {
		t.Fatalf("expected ErrNoProviders, got %v", err)
	}
}

func TestFallbackRotatesToFirstHealthyProvider(t *testing.T) {
	providers := []string{"https://rpc-one.example/key1", "https://rpc-two.example/key2", "https://rpc-three.example/key3"}
	m := newTestManager(t, providers, time.Minute)

	var called []string
	err := m.ExecuteWithFallback(context.Background(), func(_ context.Context, provider string) error {
		called = append(called, provider)
		if provider == providers[2] {
			return nil
		}
		return callqueue.RateLimitError{RetryAfter: time.Second}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(called) != 3 {
		t.Fatalf("expected 3 attempts, got %v", called)
	}
	if m.CurrentIndex() != 2 {
		t.Fatalf("expected rotation to point at third provider, got index %d", m.CurrentIndex())
	}
	if m.Current() != providers[2] {
		t.Fatalf("Current() = %s", m.Current())
	}
}

func TestNonNetworkErrorDoesNotRotate(t *testing.T) {
	m := newTestManager(t, []string{"https://a.example", "https://b.example"}, time.Minute)

	reverted := errors.New("execution reverted: insufficient liquidity")
	attempts := 0
	err := m.ExecuteWithFallback(context.Background(), func(context.Context, string) error {
		attempts++
		return reverted
	})
	if !errors.Is(err, reverted) {
		t.Fatalf("expected revert error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("ledger rejections must not fail over, got %d attempts", attempts)
	}
	if m.CurrentIndex() != 0 {
		t.Fatalf("rotation moved on a non-failoverable error")
	}
}

func TestAllProvidersFailedResetsRotation(t *testing.T) {
	m := newTestManager(t, []string{"https://a.example", "https://b.example"}, time.Minute)

	err := m.ExecuteWithFallback(context.Background(), func(context.Context, string) error {
		return errors.New("dial tcp: connection refused")
	})
	if err == nil {
		t.Fatal("expected aggregated failure")
	}
	// Failed set cleared, cycle restarts from the primary.
	if m.CurrentIndex() != 0 {
		t.Fatalf("expected reset to primary, got index %d", m.CurrentIndex())
	}
}

func TestCooldownClearsFailedSet(t *testing.T) {
	m := newTestManager(t, []string{"https://a.example", "https://b.example", "https://c.example"}, 30*time.Millisecond)

	m.markFailed("https://a.example")
	if m.CurrentIndex() != 1 {
		t.Fatalf("expected advance past failed primary, got %d", m.CurrentIndex())
	}

	time.Sleep(60 * time.Millisecond)

	// After cooldown the primary is eligible again: failing the second
	// provider must rotate to the first non-failed, which wraps to c then a.
	m.markFailed("https://b.example")
	if idx := m.CurrentIndex(); idx != 2 {
		t.Fatalf("expected index 2 after cooldown reset, got %d", idx)
	}
}

func TestRedactMasksProviderSecrets(t *testing.T) {
	url := "https://eth-mainnet.example.com/v2/super-secret-api-key"
	got := Redact(url)
	if strings.Contains(got, "super-secret-api-key") {
		t.Fatalf("redacted url leaks key: %s", got)
	}
	if !strings.HasPrefix(got, "https://") || !strings.HasSuffix(got, "****") {
		t.Fatalf("unexpected redaction shape: %s", got)
	}
	if short := Redact("http://ab"); !strings.HasSuffix(short, "****") {
		t.Fatalf("short urls must still be masked: %s", short)
	}
}

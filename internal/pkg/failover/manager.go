package failover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/finovel/loanledger/internal/pkg/callqueue"
)

// ErrNoProviders is returned when a manager is built without endpoints.
var ErrNoProviders = errors.New("no rpc providers configured")

const defaultCooldown = 5 * time.Minute

// Manager rotates among an ordered list of RPC endpoint URLs, primary first.
// The mutable rotation state (current index, failed set) is owned by a single
// goroutine; every reader and writer communicates over the ops channel.
type Manager struct {
	providers []string
	cooldown  time.Duration
	logger    *slog.Logger

	ops chan func(*rotation)

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type rotation struct {
	index  int
	failed map[string]bool
}

// New validates the provider list and constructs a stopped manager.
func New(providers []string, cooldown time.Duration, logger *slog.Logger) (*Manager, error) {
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	return &Manager{
		providers: providers,
		cooldown:  cooldown,
		logger:    logger,
		ops:       make(chan func(*rotation)),
	}, nil
}

// Start launches the state owner goroutine and the cooldown timer.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.wg.Add(1)
	go m.run(runCtx)
}

// Stop terminates the state owner.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.mu.Unlock()

	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	st := &rotation{failed: make(map[string]bool)}
	ticker := time.NewTicker(m.cooldown)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case op := <-m.ops:
			op(st)
		case <-ticker.C:
			if len(st.failed) > 0 {
				m.logger.Info("provider failure list cleared after cooldown")
				st.failed = make(map[string]bool)
			}
		}
	}
}

func (m *Manager) do(op func(*rotation)) {
	done := make(chan struct{})
	m.ops <- func(st *rotation) {
		op(st)
		close(done)
	}
	<-done
}

// Current returns the URL the manager currently points at.
func (m *Manager) Current() string {
	var url string
	m.do(func(st *rotation) {
		url = m.providers[st.index]
	})
	return url
}

// CurrentIndex reports the rotation position, for diagnostics.
func (m *Manager) CurrentIndex() int {
	var idx int
	m.do(func(st *rotation) {
		idx = st.index
	})
	return idx
}

// Redacted lists all configured providers with credentials masked, in
// rotation order.
func (m *Manager) Redacted() []string {
	out := make([]string, len(m.providers))
	for i, url := range m.providers {
		out[i] = Redact(url)
	}
	return out
}

// markFailed records a failure for url and advances to the next non-failed
// provider, wrapping around. When every provider has failed, the failed set
// is cleared and rotation restarts from the primary.
func (m *Manager) markFailed(url string) {
	m.do(func(st *rotation) {
		st.failed[url] = true
		if len(st.failed) >= len(m.providers) {
			m.logger.Warn("all rpc providers failed, resetting rotation")
			st.failed = make(map[string]bool)
			st.index = 0
			return
		}
		for i := 1; i <= len(m.providers); i++ {
			next := (st.index + i) % len(m.providers)
			if !st.failed[m.providers[next]] {
				st.index = next
				break
			}
		}
		m.logger.Warn("rpc provider marked failed",
			slog.String("provider", Redact(url)),
			slog.String("next", Redact(m.providers[st.index])),
		)
	})
}

// ExecuteWithFallback runs fn against the current provider and, on rate-limit
// or network-class failures, rotates and retries up to one attempt per
// configured provider. Other errors propagate immediately.
func (m *Manager) ExecuteWithFallback(ctx context.Context, fn func(ctx context.Context, provider string) error) error {
	var lastErr error
	for attempt := 0; attempt < len(m.providers); attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		provider := m.Current()
		err := fn(ctx, provider)
		if err == nil {
			return nil
		}
		if !isFailoverable(err) {
			return err
		}
		m.markFailed(provider)
		lastErr = err
	}
	return fmt.Errorf("all %d providers failed: %w", len(m.providers), lastErr)
}

// isFailoverable mirrors the queue's rate-limit classification and adds
// generic network and timeout failures.
func isFailoverable(err error) bool {
	if callqueue.IsRateLimited(err) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range []string{"connection refused", "connection reset", "no such host", "timeout", "timed out", "eof"} {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// Redact masks a provider URL for external-facing diagnostics. Provider URLs
// often embed API keys, so only the scheme and a short host prefix survive.
func Redact(url string) string {
	rest := url
	scheme := ""
	if i := strings.Index(url, "://"); i >= 0 {
		scheme = url[:i+3]
		rest = url[i+3:]
	}
	const keep = 12
	if len(rest) <= keep {
		return scheme + rest[:len(rest)/2] + "****"
	}
	return scheme + rest[:keep] + "****"
}

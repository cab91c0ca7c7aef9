package callqueue

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Call is a zero-argument ledger operation executed through the queue.
type Call func(ctx context.Context) (any, error)

// Options tune queue pacing and the retry budget.
type Options struct {
	MinInterval time.Duration
	MaxRetries  int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

const (
	defaultMinInterval = 500 * time.Millisecond
	defaultMaxRetries  = 3
	defaultBaseDelay   = 2 * time.Second
	defaultMaxDelay    = time.Minute
)

// Queue serializes outbound ledger calls: a single worker drains a FIFO,
// spacing calls by MinInterval measured from the end of the previous call.
// Rate-limited failures are re-queued at the front with exponential backoff,
// so retried calls may overtake later arrivals. All queue state is owned by
// the worker goroutine; callers communicate over channels only.
type Queue struct {
	opts   Options
	logger *slog.Logger

	submissions chan *job
	done        chan struct{}
	length      atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type job struct {
	ctx       context.Context
	call      Call
	attempt   int
	notBefore time.Time
	result    chan outcome
}

type outcome struct {
	value any
	err   error
}

// New constructs a stopped queue; Start launches the worker.
func New(opts Options, logger *slog.Logger) *Queue {
	if opts.MinInterval <= 0 {
		opts.MinInterval = defaultMinInterval
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = defaultBaseDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = defaultMaxDelay
	}
	return &Queue{
		opts:        opts,
		logger:      logger,
		submissions: make(chan *job),
		done:        make(chan struct{}),
	}
}

// Start launches the single worker goroutine.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel

	q.wg.Add(1)
	go q.run(runCtx)
}

// Stop terminates the worker and fails pending calls with ErrClosed.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
	q.mu.Unlock()

	q.wg.Wait()
}

// Len reports the number of calls submitted but not yet completed.
func (q *Queue) Len() int {
	return int(q.length.Load())
}

// Execute submits a call and blocks until it completes, is rejected, or the
// caller's context expires. Errors other than rate limits propagate unchanged.
func (q *Queue) Execute(ctx context.Context, call Call) (any, error) {
	j := &job{ctx: ctx, call: call, result: make(chan outcome, 1)}
	q.length.Add(1)

	select {
	case q.submissions <- j:
	case <-q.done:
		q.length.Add(-1)
		return nil, ErrClosed
	case <-ctx.Done():
		q.length.Add(-1)
		return nil, ctx.Err()
	}

	select {
	case out := <-j.result:
		return out.value, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *Queue) run(ctx context.Context) {
	defer q.wg.Done()
	defer close(q.done)

	var (
		pending  []*job
		lastDone time.Time
	)

	fail := func(j *job, err error) {
		j.result <- outcome{err: err}
		q.length.Add(-1)
	}

	for {
		select {
		case <-ctx.Done():
			for _, j := range pending {
				fail(j, ErrClosed)
			}
			return
		default:
		}

		if len(pending) == 0 {
			select {
			case <-ctx.Done():
				return
			case j := <-q.submissions:
				pending = append(pending, j)
			}
		}

		next := pending[0]
		if wait := q.waitFor(next, lastDone); wait > 0 {
			timer := time.NewTimer(wait)
		waiting:
			for {
				select {
				case <-ctx.Done():
					timer.Stop()
					for _, j := range pending {
						fail(j, ErrClosed)
					}
					return
				case j := <-q.submissions:
					pending = append(pending, j)
				case <-timer.C:
					break waiting
				}
			}
		}

		pending = pending[1:]
		if err := next.ctx.Err(); err != nil {
			fail(next, err)
			continue
		}

		value, err := next.call(next.ctx)
		lastDone = time.Now()

		if err != nil && IsRateLimited(err) {
			if next.attempt < q.opts.MaxRetries {
				next.attempt++
				delay := q.backoff(next.attempt)
				next.notBefore = lastDone.Add(delay)
				q.logger.Warn("ledger call rate limited, re-queued",
					slog.Int("attempt", next.attempt),
					slog.Duration("backoff", delay),
				)
				pending = append([]*job{next}, pending...)
				continue
			}
			err = ExhaustedError{Attempts: next.attempt + 1, Err: err}
		}

		next.result <- outcome{value: value, err: err}
		q.length.Add(-1)
	}
}

func (q *Queue) waitFor(j *job, lastDone time.Time) time.Duration {
	now := time.Now()
	ready := lastDone.Add(q.opts.MinInterval)
	if j.notBefore.After(ready) {
		ready = j.notBefore
	}
	return ready.Sub(now)
}

// backoff grows as base*2^attempt, capped at MaxDelay.
func (q *Queue) backoff(attempt int) time.Duration {
	delay := q.opts.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= q.opts.MaxDelay {
			return q.opts.MaxDelay
		}
	}
	if delay > q.opts.MaxDelay {
		return q.opts.MaxDelay
	}
	return delay
}

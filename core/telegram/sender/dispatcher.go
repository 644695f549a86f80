// Package sender runs outbound Telegram calls on a small worker pool,
// retrying transient failures with linear backoff.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/buttonbot/core/logger"
	"github.com/m3rciful/buttonbot/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")

	tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
)

const component = "tg.sender"

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
	// ShouldRetry overrides netutil.ShouldRetry.
	ShouldRetry func(error) bool
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// Dispatcher executes outbound Telegram calls asynchronously with retries.
// Each worker owns its queue, so jobs sharing a key run in enqueue order.
type Dispatcher struct {
	opts   Options
	queues []chan job
	next   atomic.Uint64

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	failures atomic.Uint64
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	o.MaxRetries = max(o.MaxRetries, 0)
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	if o.ShouldRetry == nil {
		o.ShouldRetry = netutil.ShouldRetry
	}
	return o
}

// NewDispatcher starts opts.Workers goroutines, each draining its own queue
// of QueueSize/Workers slots (at least one).
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{opts: opts, queues: make([]chan job, opts.Workers)}
	perWorker := max(opts.QueueSize/opts.Workers, 1)
	d.wg.Add(opts.Workers)
	for i := range d.queues {
		d.queues[i] = make(chan job, perWorker)
		go d.worker(d.queues[i])
	}
	return d
}

// Enqueue schedules run on the next worker in turn. run must be safe to repeat.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	slot := d.next.Add(1) % uint64(len(d.queues))
	return d.push(slot, job{ctx: ctx, action: action, endpoint: endpoint, run: run})
}

// EnqueueKeyed schedules run on the worker owning key. Jobs with the same
// key, such as replies to one chat, are executed in the order enqueued.
func (d *Dispatcher) EnqueueKeyed(ctx context.Context, key int64, action, endpoint string, run func() error) error {
	slot := uint64(key) % uint64(len(d.queues))
	return d.push(slot, job{ctx: ctx, action: action, endpoint: endpoint, run: run})
}

func (d *Dispatcher) push(slot uint64, j job) error {
	if j.run == nil {
		return errors.New("telegram sender: nil run function")
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.queues[slot] <- j:
		return nil
	default:
		return ErrQueueFull
	}
}

// Failures returns the number of jobs that ultimately failed.
func (d *Dispatcher) Failures() uint64 {
	return d.failures.Load()
}

// Close stops accepting jobs and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, q := range d.queues {
		close(q)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) worker(queue <-chan job) {
	defer d.wg.Done()
	for j := range queue {
		d.handle(j)
	}
}

func (d *Dispatcher) handle(j job) {
	ctx := j.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	budget, cancel := context.WithTimeout(ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	err := j.run()
	tries := 1
	for ; err != nil && tries <= d.opts.MaxRetries && d.opts.ShouldRetry(err); tries++ {
		delay := d.retryDelay(err, tries)
		logger.Debug(ctx, component, "send.retry", append(attrs(j),
			slog.Int("attempts", tries),
			slog.Duration("backoff", delay),
		)...)
		if werr := wait(budget, delay); werr != nil {
			err = errors.Join(err, werr)
			break
		}
		err = j.run()
	}

	if err == nil {
		logger.Debug(ctx, component, "send.success", append(attrs(j),
			slog.Int("attempts", tries),
			slog.Duration("duration", time.Since(start)),
		)...)
		return
	}
	d.failures.Add(1)
	logger.Error(ctx, component, "send.fail", append(attrs(j),
		slog.String("status", "fail"),
		slog.String("err", redact(err)),
		slog.Duration("duration", time.Since(start)),
	)...)
}

// retryDelay honours Telegram's retry_after on flood errors and otherwise
// grows linearly with the attempt number.
func (d *Dispatcher) retryDelay(err error, attempt int) time.Duration {
	var flood tele.FloodError
	if errors.As(err, &flood) && flood.RetryAfter > 0 {
		return time.Duration(flood.RetryAfter) * time.Second
	}
	return d.opts.RetryBackoff * time.Duration(attempt)
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func attrs(j job) []slog.Attr {
	out := []slog.Attr{slog.String("action", j.action)}
	if j.endpoint != "" {
		out = append(out, slog.String("endpoint", j.endpoint))
	}
	return out
}

// redact hides bot tokens that net/http embeds in request URLs.
func redact(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}

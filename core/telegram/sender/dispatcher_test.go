package sender

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func retryTransient(err error) bool { return errors.Is(err, errTransient) }

func TestDispatcherRetriesTransientFailures(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond, ShouldRetry: retryTransient})

	var calls atomic.Int32
	done := make(chan struct{})
	err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		if calls.Add(1) < 3 {
			return errTransient
		}
		close(done)
		return nil
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not succeed")
	}
	d.Close()
	assert.Equal(t, int32(3), calls.Load())
	assert.Zero(t, d.Failures())
}

func TestDispatcherCountsPermanentFailures(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond, ShouldRetry: retryTransient})

	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "send.text", "", func() error {
		calls.Add(1)
		return errors.New("Bad Request: chat not found")
	}))
	d.Close()

	assert.Equal(t, int32(1), calls.Load(), "permanent errors are not retried")
	assert.Equal(t, uint64(1), d.Failures())
}

func TestDispatcherRejectsWhenFullOrClosed(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, d.Enqueue(context.Background(), "block", "", func() error {
		close(started)
		<-release
		return nil
	}))
	<-started
	require.NoError(t, d.Enqueue(context.Background(), "queued", "", func() error { return nil }))
	assert.ErrorIs(t, d.Enqueue(context.Background(), "overflow", "", func() error { return nil }), ErrQueueFull)

	close(release)
	d.Close()
	assert.ErrorIs(t, d.Enqueue(context.Background(), "late", "", func() error { return nil }), ErrQueueClosed)
	d.Close()
}

func TestRedactHidesToken(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:AA-bb_cc/sendMessage": timeout`)
	assert.Equal(t, `Post "https://api.telegram.org/bot<redacted>/sendMessage": timeout`, redact(err))
}

func TestDispatcherKeepsOrderPerKey(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4, QueueSize: 128})

	const chatID int64 = -100123
	var (
		mu  sync.Mutex
		got []int
	)
	for i := range 20 {
		require.NoError(t, d.EnqueueKeyed(context.Background(), chatID, "send.text", "", func() error {
			// later jobs finish faster, so any parallelism would reorder them
			time.Sleep(time.Duration(20-i) * 100 * time.Microsecond)
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}))
	}
	d.Close()

	want := make([]int, 20)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, got)
}

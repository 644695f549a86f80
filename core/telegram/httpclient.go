package telegram

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/buttonbot/core/logger"
	"github.com/m3rciful/buttonbot/core/telegram/netutil"
)

const (
	defaultDialTimeout       = 5 * time.Second
	defaultTLSHandshake      = 5 * time.Second
	defaultIdleConnTimeout   = 30 * time.Second
	defaultKeepAliveInterval = 30 * time.Second
	defaultRetryAttempts     = 3
	defaultRetryBackoff      = 2 * time.Second
	// headroom on top of the long-poll window before a getUpdates call is cut.
	pollHeadroom = 20 * time.Second
)

// BuildHTTPClient returns the client used for Bot API calls. Its deadlines
// leave room for a getUpdates long poll of pollWindow.
func BuildHTTPClient(pollWindow time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAliveInterval}
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshake,
		ResponseHeaderTimeout: pollWindow + pollHeadroom/2,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout:   pollWindow + pollHeadroom,
		Transport: &retryTransport{base: base, maxRetries: defaultRetryAttempts, backoff: defaultRetryBackoff},
	}
}

// retryTransport repeats requests that failed with a transient network error,
// waiting backoff*n before retry n. Requests whose body cannot be replayed
// get a single attempt.
type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	retries := t.maxRetries
	if req.Body != nil && req.GetBody == nil {
		retries = 0
	}

	resp, err := base.RoundTrip(req)
	for n := 1; err != nil && n <= retries && netutil.ShouldRetry(err); n++ {
		delay := t.backoff * time.Duration(n)
		logger.TG.LogAttrs(req.Context(), slog.LevelDebug, "http.retry",
			slog.String("status", "fail"),
			slog.Int("attempts", n),
			slog.Duration("backoff", delay),
			slog.String("err", err.Error()),
		)
		if werr := sleepCtx(req.Context(), delay); werr != nil {
			return nil, werr
		}
		next, rerr := replay(req)
		if rerr != nil {
			return nil, rerr
		}
		resp, err = base.RoundTrip(next)
	}
	return resp, err
}

// replay clones req with a fresh copy of its body.
func replay(req *http.Request) (*http.Request, error) {
	next := req.Clone(req.Context())
	if req.GetBody == nil {
		return next, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	next.Body = body
	return next, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

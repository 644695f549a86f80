package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type stubContext struct {
	tele.Context
	user   *tele.User
	update tele.Update
	store  map[string]interface{}
	sent   int
}

func newStub(userID int64) *stubContext {
	return &stubContext{
		user:   &tele.User{ID: userID},
		update: tele.Update{ID: 7, Message: &tele.Message{Text: "hi"}},
		store:  make(map[string]interface{}),
	}
}

func (s *stubContext) Sender() *tele.User              { return s.user }
func (s *stubContext) Chat() *tele.Chat                { return &tele.Chat{ID: s.user.ID} }
func (s *stubContext) Update() tele.Update             { return s.update }
func (s *stubContext) Text() string                    { return "hi" }
func (s *stubContext) Callback() *tele.Callback        { return s.update.Callback }
func (s *stubContext) Get(key string) interface{}      { return s.store[key] }
func (s *stubContext) Set(key string, val interface{}) { s.store[key] = val }
func (s *stubContext) Send(interface{}, ...interface{}) error {
	s.sent++
	return nil
}

func TestAdminOnlyMiddleware(t *testing.T) {
	var reached, rejected int
	h := AdminOnlyMiddleware(AdminOptions{
		AdminID:  1,
		OnReject: func(tele.Context) error { rejected++; return nil },
	})(func(tele.Context) error { reached++; return nil })

	require.NoError(t, h(newStub(1)))
	require.NoError(t, h(newStub(2)))
	assert.Equal(t, 1, reached)
	assert.Equal(t, 1, rejected)
}

func TestRateLimitMiddleware(t *testing.T) {
	var reached, limited int
	h := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Hour,
		OnLimited: func(tele.Context) error { limited++; return nil },
	})(func(tele.Context) error { reached++; return nil })

	require.NoError(t, h(newStub(1)))
	require.NoError(t, h(newStub(1)))
	require.NoError(t, h(newStub(2)))
	assert.Equal(t, 2, reached)
	assert.Equal(t, 1, limited)
}

func TestRateLimitMiddlewareHonoursExclusions(t *testing.T) {
	var reached int
	h := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Hour,
		Exclude:  map[string]struct{}{"message": {}},
	})(func(tele.Context) error { reached++; return nil })

	for range 3 {
		require.NoError(t, h(newStub(1)))
	}
	assert.Equal(t, 3, reached)
}

func TestMessageMetricsMiddlewareCountsSends(t *testing.T) {
	c := newStub(1)
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		if err := c.Send("plain"); err != nil {
			return err
		}
		return c.Send("menu", &tele.SendOptions{ReplyMarkup: &tele.ReplyMarkup{}})
	})

	require.NoError(t, h(c))
	msgs, kb := GetCounters(c)
	assert.Equal(t, 2, msgs)
	assert.True(t, kb)
	assert.Equal(t, 2, c.sent)
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	err := h(newStub(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	want := errors.New("plain")
	assert.Equal(t, want, RecoverMiddleware(func(tele.Context) error { return want })(newStub(1)))
}

func TestLoggerMiddlewareStoresRID(t *testing.T) {
	c := newStub(5)
	var rid string
	h := LoggerMiddleware(func(c tele.Context) error {
		rid, _ = c.Get("rid").(string)
		return nil
	})

	require.NoError(t, h(c))
	assert.Equal(t, "7:5:5", rid)
}

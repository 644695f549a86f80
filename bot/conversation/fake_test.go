package conversation

import (
	"context"
	"sync"

	"github.com/m3rciful/buttonbot/bot/audit"

	tele "gopkg.in/telebot.v4"
)

// sent is one outbound message captured by fakeContext.
type sent struct {
	Text   string
	Markup *tele.ReplyMarkup
}

// fakeContext implements the parts of tele.Context the dispatcher touches.
// Calling anything else panics on the nil embedded interface.
type fakeContext struct {
	tele.Context

	user     *tele.User
	chat     *tele.Chat
	text     string
	callback *tele.Callback

	mu    sync.Mutex
	store map[string]interface{}
	out   []sent
}

func newText(userID int64, text string) *fakeContext {
	return &fakeContext{
		user:  &tele.User{ID: userID},
		chat:  &tele.Chat{ID: userID, Type: tele.ChatPrivate},
		text:  text,
		store: make(map[string]interface{}),
	}
}

func newCallback(userID int64, data string) *fakeContext {
	c := newText(userID, "")
	c.callback = &tele.Callback{ID: "cb", Data: data, Sender: c.user}
	return c
}

func (f *fakeContext) Sender() *tele.User                      { return f.user }
func (f *fakeContext) Chat() *tele.Chat                        { return f.chat }
func (f *fakeContext) Text() string                            { return f.text }
func (f *fakeContext) Callback() *tele.Callback                { return f.callback }
func (f *fakeContext) Update() tele.Update                     { return tele.Update{ID: 1, Callback: f.callback} }
func (f *fakeContext) Respond(...*tele.CallbackResponse) error { return nil }

func (f *fakeContext) Get(key string) interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store[key]
}

func (f *fakeContext) Set(key string, val interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store[key] = val
}

func (f *fakeContext) Send(what interface{}, opts ...interface{}) error {
	text, _ := what.(string)
	msg := sent{Text: text}
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				msg.Markup = v.ReplyMarkup
			}
		case *tele.ReplyMarkup:
			msg.Markup = v
		}
	}
	f.mu.Lock()
	f.out = append(f.out, msg)
	f.mu.Unlock()
	return nil
}

func (f *fakeContext) messages() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.out...)
}

func (f *fakeContext) last() sent {
	out := f.messages()
	if len(out) == 0 {
		return sent{}
	}
	return out[len(out)-1]
}

// memRecorder keeps audit events in memory.
type memRecorder struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (m *memRecorder) Record(_ context.Context, ev audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return m.err
}

func (m *memRecorder) all() []audit.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]audit.Event(nil), m.events...)
}

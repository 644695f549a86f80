// Package conversation implements the bot's command, text and callback
// handling, including the admin's two-step custom button flow.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/buttonbot/bot/audit"
	coreconfig "github.com/m3rciful/buttonbot/core/config"
	"github.com/m3rciful/buttonbot/core/logger"
	"github.com/m3rciful/buttonbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/buttonbot/core/telegram/helpers"
	"github.com/m3rciful/buttonbot/core/telegram/keyboard"
	"github.com/m3rciful/buttonbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

const (
	component    = "conversation"
	auditTimeout = 3 * time.Second
)

// Options configures a Dispatcher.
type Options struct {
	AdminID      int64
	Greeting     string
	ContactLabel string
	ContactURL   string

	// Sessions defaults to a store with the default TTL.
	Sessions *state.Store
	// Audit defaults to audit.Nop.
	Audit audit.Recorder
	// Commands feeds /help; nil yields an empty listing.
	Commands func() []tele.Command
}

// Dispatcher routes updates according to the sender's session.
type Dispatcher struct {
	opts     Options
	sessions *state.Store
	audit    audit.Recorder
}

// New validates opts and builds a Dispatcher.
func New(opts Options) (*Dispatcher, error) {
	if opts.AdminID == 0 {
		return nil, coreconfig.ErrNoAdmin
	}
	if opts.Greeting == "" {
		opts.Greeting = coreconfig.DefaultGreeting
	}
	if opts.ContactLabel == "" {
		opts.ContactLabel = coreconfig.DefaultContactLabel
	}
	if opts.ContactURL == "" {
		opts.ContactURL = coreconfig.DefaultContactURL
	}
	if opts.Sessions == nil {
		opts.Sessions = state.NewStore(coreconfig.DefaultSessionTTL * time.Minute)
	}
	if opts.Audit == nil {
		opts.Audit = audit.Nop{}
	}
	return &Dispatcher{opts: opts, sessions: opts.Sessions, audit: opts.Audit}, nil
}

// Sessions exposes the session store, e.g. for health reporting.
func (d *Dispatcher) Sessions() *state.Store {
	return d.sessions
}

func (d *Dispatcher) isAdmin(c tele.Context) bool {
	return tghelpers.SenderID(c) == d.opts.AdminID
}

// Start greets the user with a contact link button.
func (d *Dispatcher) Start(c tele.Context) error {
	return tghelpers.SendText(c, d.opts.Greeting, keyboard.LinkButton(d.opts.ContactLabel, d.opts.ContactURL))
}

// Request asks for a request and offers Yes/No confirmation buttons.
// The typed request itself is not captured.
func (d *Dispatcher) Request(c tele.Context) error {
	return tghelpers.SendText(c, msgEnterRequest, keyboard.InlineRow(
		keyboard.InlineBtn{Text: labelYes, Data: TagRequestYes},
		keyboard.InlineBtn{Text: labelNo, Data: TagRequestNo},
	))
}

// ConfirmRequest answers a confirmation press. Only TagRequestYes confirms.
func (d *Dispatcher) ConfirmRequest(c tele.Context, tag string) error {
	kind, text := audit.RequestCanceled, msgRequestCanceled
	if tag == TagRequestYes {
		kind, text = audit.RequestConfirmed, msgRequestReceived
	}
	d.record(c, audit.Event{Kind: kind})
	return tghelpers.SendText(c, text, nil)
}

// SelectCustomButton echoes the option behind a custom button press.
// An empty option is echoed as is.
func (d *Dispatcher) SelectCustomButton(c tele.Context, tag string) error {
	option := strings.TrimPrefix(tag, CustomButtonPrefix)
	return tghelpers.SendText(c, fmt.Sprintf(msgYouSelected, option), nil)
}

// AddButton opens the button creation flow for the admin.
func (d *Dispatcher) AddButton(c tele.Context) error {
	if !d.isAdmin(c) {
		return d.Deny(c)
	}
	uid := tghelpers.SenderID(c)
	unlock := d.sessions.Lock(uid)
	defer unlock()

	d.transition(c, uid, state.Session{Step: state.StepAwaitingButtonName})
	return tghelpers.SendText(c, msgAskButtonName, nil)
}

// Cancel abandons an open button creation flow.
func (d *Dispatcher) Cancel(c tele.Context) error {
	if !d.isAdmin(c) {
		return d.Deny(c)
	}
	uid := tghelpers.SenderID(c)
	unlock := d.sessions.Lock(uid)
	defer unlock()

	if d.sessions.Get(uid).Idle() {
		return tghelpers.SendText(c, msgNothingToCancel, nil)
	}
	d.transition(c, uid, state.Session{Step: state.StepIdle})
	return tghelpers.SendText(c, msgCreationCanceled, nil)
}

// Help lists the visible commands.
func (d *Dispatcher) Help(c tele.Context) error {
	var cmds []tele.Command
	if d.opts.Commands != nil {
		cmds = d.opts.Commands()
	}
	if len(cmds) == 0 {
		return tghelpers.SendText(c, msgNoCommands, nil)
	}
	var b strings.Builder
	b.WriteString(msgHelpHeader)
	for _, cmd := range cmds {
		fmt.Fprintf(&b, "\n/%s - %s", strings.TrimPrefix(cmd.Text, "/"), cmd.Description)
	}
	return tghelpers.SendText(c, b.String(), nil)
}

// Deny tells the caller they may not perform the action.
func (d *Dispatcher) Deny(c tele.Context) error {
	return tghelpers.SendText(c, msgNotAuthorized, nil)
}

// OnText advances the sender's open flow, or replies that the text was not understood.
// Command-formatted text is left alone.
func (d *Dispatcher) OnText(c tele.Context) error {
	text := c.Text()
	if strings.HasPrefix(text, "/") {
		logger.Debug(tghelpers.BuildContext(c), component, "text.ignored",
			slog.String("outcome", "ignored"),
		)
		return nil
	}

	uid := tghelpers.SenderID(c)
	unlock := d.sessions.Lock(uid)
	defer unlock()

	sess := d.sessions.Get(uid)
	if sess.Idle() {
		return tghelpers.SendText(c, msgNotUnderstood, nil)
	}
	if !d.isAdmin(c) {
		// only the admin flow opens sessions; anyone else's is stale
		logger.Info(tghelpers.BuildContext(c), component, "session.dropped",
			slog.String("status", "denied"),
			slog.String("step", string(sess.Step)),
		)
		d.sessions.Clear(uid)
		return tghelpers.SendText(c, msgNotUnderstood, nil)
	}
	switch sess.Step {
	case state.StepAwaitingButtonName:
		return d.buttonNameReply(c, uid, text)
	case state.StepAwaitingReplyOptions:
		return d.replyOptionsReply(c, uid, sess, text)
	}
	return tghelpers.SendText(c, msgNotUnderstood, nil)
}

// buttonNameReply runs with the user lock held.
func (d *Dispatcher) buttonNameReply(c tele.Context, uid int64, name string) error {
	d.transition(c, uid, state.Session{Step: state.StepAwaitingReplyOptions, PendingButtonName: name})
	return tghelpers.SendText(c, msgAskReplyOptions, nil)
}

// replyOptionsReply runs with the user lock held. A caller that is not the
// admin is denied and its session dropped.
func (d *Dispatcher) replyOptionsReply(c tele.Context, uid int64, sess state.Session, text string) error {
	if !d.isAdmin(c) {
		logger.Info(tghelpers.BuildContext(c), component, "auth.denied",
			slog.String("status", "denied"),
			slog.String("step", string(sess.Step)),
		)
		d.sessions.Clear(uid)
		return d.Deny(c)
	}

	options := ParseOptions(text)
	if long := OversizedOptions(options); len(long) > 0 {
		// Telegram would reject the whole menu; keep the step so the admin can retry.
		logger.Info(tghelpers.BuildContext(c), component, "options.rejected",
			slog.String("status", "fail"),
			slog.String("cause", "callback_data_too_long"),
			slog.Int("count", len(long)),
		)
		return tghelpers.SendText(c, fmt.Sprintf(msgOptionTooLong, MaxOptionBytes), nil)
	}
	buttons := make([]keyboard.InlineBtn, 0, len(options))
	for _, opt := range options {
		buttons = append(buttons, keyboard.InlineBtn{Text: opt, Data: CustomButtonTag(opt)})
	}
	var markup *tele.ReplyMarkup
	if len(buttons) > 0 {
		markup = keyboard.InlineButtons(buttons)
	}

	d.transition(c, uid, state.Session{Step: state.StepIdle})
	d.record(c, audit.Event{Kind: audit.ButtonCreated, Subject: sess.PendingButtonName, Options: options})
	logger.Info(tghelpers.BuildContext(c), component, "button.created",
		slog.String("status", "ok"),
		slog.String("button", logger.SanitizeLimit(sess.PendingButtonName, 64)),
		slog.Any("options", options),
	)
	return tghelpers.SendText(c, fmt.Sprintf(msgButtonAdded, sess.PendingButtonName), markup)
}

// OnCallback parses the pressed button's tag and routes it by intent.
// Unknown tags are ignored.
func (d *Dispatcher) OnCallback(c tele.Context) error {
	intent := ParseIntent(callbacks.Data(c))
	ctx := tghelpers.BuildContext(c)
	switch intent.Kind {
	case IntentRequestConfirm:
		return d.ConfirmRequest(c, intent.Tag)
	case IntentCustomButton:
		return d.SelectCustomButton(c, intent.Tag)
	}
	logger.Debug(ctx, component, "callback.ignored",
		slog.String("outcome", "ignored"),
		slog.String("intent", intent.Kind.String()),
	)
	return nil
}

// transition stores next and logs the step change. The caller holds the user lock.
func (d *Dispatcher) transition(c tele.Context, uid int64, next state.Session) {
	from := d.sessions.Get(uid).Step
	d.sessions.Set(uid, next)
	to := next.Step
	if to == "" {
		to = state.StepIdle
	}
	logger.Debug(tghelpers.BuildContext(c), component, "flow.step",
		slog.String("from_step", string(from)),
		slog.String("to_step", string(to)),
	)
}

// record writes ev to the audit trail. Failures are logged and never reach the user.
func (d *Dispatcher) record(c tele.Context, ev audit.Event) {
	ev.UserID = tghelpers.SenderID(c)
	if chat := c.Chat(); chat != nil {
		ev.ChatID = chat.ID
	}
	ctx, cancel := context.WithTimeout(tghelpers.BuildContext(c), auditTimeout)
	defer cancel()
	if err := d.audit.Record(ctx, ev); err != nil {
		status := "fail"
		if errors.Is(err, context.DeadlineExceeded) {
			status = "timeout"
		}
		logger.Warn(ctx, "audit", "audit.record",
			slog.String("status", status),
			slog.String("kind", string(ev.Kind)),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}

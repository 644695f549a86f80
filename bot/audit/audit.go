// Package audit records admin actions and request answers.
// The trail is write-only for the bot: nothing reads it back to drive replies.
package audit

import "context"

// Kind names an audited event.
type Kind string

const (
	ButtonCreated    Kind = "button_created"
	RequestConfirmed Kind = "request_confirmed"
	RequestCanceled  Kind = "request_canceled"
)

// Event is one audit row.
type Event struct {
	Kind    Kind
	UserID  int64
	ChatID  int64
	Subject string
	Options []string
}

// Recorder persists audit events.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// Nop discards every event. It is used when no database is configured.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Event) error { return nil }

package state

// Step identifies where a user is in a multi-message flow.
type Step string

const (
	// StepIdle means no flow is open. It is never stored.
	StepIdle Step = "idle"
	// StepAwaitingButtonName waits for the label of a new custom button.
	StepAwaitingButtonName Step = "awaiting_button_name"
	// StepAwaitingReplyOptions waits for the comma-separated reply options.
	StepAwaitingReplyOptions Step = "awaiting_reply_options"
)

// Session is the conversation record of one user.
// PendingButtonName is only meaningful while Step is StepAwaitingReplyOptions.
type Session struct {
	Step              Step
	PendingButtonName string
}

// Idle reports whether the session has no open flow.
func (s Session) Idle() bool {
	return s.Step == "" || s.Step == StepIdle
}

func (s Session) normalized() Session {
	if s.Step == "" {
		s.Step = StepIdle
	}
	if s.Step != StepAwaitingReplyOptions {
		s.PendingButtonName = ""
	}
	return s
}

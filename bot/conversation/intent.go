package conversation

import "strings"

// Callback tags carried by the bot's inline buttons.
const (
	TagRequestYes = "request_confirm_yes"
	TagRequestNo  = "request_confirm_no"

	requestConfirmPrefix = "request_confirm_"
	CustomButtonPrefix   = "custom_button_"
)

// IntentKind classifies a callback tag.
type IntentKind int

const (
	IntentUnknown IntentKind = iota
	IntentRequestConfirm
	IntentCustomButton
)

func (k IntentKind) String() string {
	switch k {
	case IntentRequestConfirm:
		return "request_confirm"
	case IntentCustomButton:
		return "custom_button"
	}
	return "unknown"
}

// Intent is a callback tag parsed once at dispatch time.
// Payload is the tag suffix after the recognised prefix.
type Intent struct {
	Kind    IntentKind
	Tag     string
	Payload string
}

// ParseIntent classifies tag by prefix.
func ParseIntent(tag string) Intent {
	if rest, ok := strings.CutPrefix(tag, requestConfirmPrefix); ok {
		return Intent{Kind: IntentRequestConfirm, Tag: tag, Payload: rest}
	}
	if rest, ok := strings.CutPrefix(tag, CustomButtonPrefix); ok {
		return Intent{Kind: IntentCustomButton, Tag: tag, Payload: rest}
	}
	return Intent{Kind: IntentUnknown, Tag: tag}
}

// MaxCallbackData is Telegram's limit on inline button callback data, in bytes.
const MaxCallbackData = 64

// MaxOptionBytes is the longest option whose custom button tag still fits.
const MaxOptionBytes = MaxCallbackData - len(CustomButtonPrefix)

// OversizedOptions returns the options whose tag would exceed MaxCallbackData.
func OversizedOptions(options []string) []string {
	var out []string
	for _, opt := range options {
		if len(CustomButtonTag(opt)) > MaxCallbackData {
			out = append(out, opt)
		}
	}
	return out
}

// CustomButtonTag builds the callback tag of a custom button option.
func CustomButtonTag(option string) string {
	return CustomButtonPrefix + option
}

// ParseOptions splits a comma-separated reply into trimmed option labels.
// Blank entries are dropped since Telegram rejects buttons without text.
func ParseOptions(text string) []string {
	parts := strings.Split(text, ",")
	options := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			options = append(options, p)
		}
	}
	return options
}

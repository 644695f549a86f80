package conversation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIntent(t *testing.T) {
	tests := []struct {
		tag     string
		kind    IntentKind
		payload string
	}{
		{TagRequestYes, IntentRequestConfirm, "yes"},
		{TagRequestNo, IntentRequestConfirm, "no"},
		{"request_confirm_maybe", IntentRequestConfirm, "maybe"},
		{"custom_button_Yes", IntentCustomButton, "Yes"},
		{"custom_button_", IntentCustomButton, ""},
		{"custom_button_a_b", IntentCustomButton, "a_b"},
		{"something_else", IntentUnknown, ""},
		{"", IntentUnknown, ""},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got := ParseIntent(tt.tag)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.payload, got.Payload)
			assert.Equal(t, tt.tag, got.Tag)
		})
	}
}

func TestParseOptionsTrimsAndDropsBlanks(t *testing.T) {
	assert.Equal(t, []string{"A", "B", "C"}, ParseOptions("A, B, C"))
	assert.Equal(t, []string{"one"}, ParseOptions("  one  "))
	assert.Equal(t, []string{"x", "y"}, ParseOptions("x,, ,y"))
	assert.Empty(t, ParseOptions(" , "))
}

func TestCustomButtonTagRoundTrip(t *testing.T) {
	tag := CustomButtonTag("Red wine")
	assert.Equal(t, "custom_button_Red wine", tag)
	assert.Equal(t, "Red wine", ParseIntent(tag).Payload)
}

func TestOversizedOptionsCountsBytes(t *testing.T) {
	assert.Equal(t, 50, MaxOptionBytes)

	fits := strings.Repeat("a", MaxOptionBytes)
	// 26 two-byte runes: 26 characters but 52 bytes
	wide := strings.Repeat("ж", 26)
	assert.Empty(t, OversizedOptions([]string{fits, "ok"}))
	assert.Equal(t, []string{wide}, OversizedOptions([]string{fits, wide}))
}

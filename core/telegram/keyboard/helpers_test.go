package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineButtonsOnePerRow(t *testing.T) {
	m := InlineButtons([]InlineBtn{
		{Text: "A", Data: "custom_button_A"},
		{Text: "B", Data: "custom_button_B"},
	})
	require.Len(t, m.InlineKeyboard, 2)
	assert.Len(t, m.InlineKeyboard[0], 1)
	assert.Equal(t, []string{"custom_button_A", "custom_button_B"}, Tags(m))
}

func TestInlineRowKeepsButtonsTogether(t *testing.T) {
	m := InlineRow(InlineBtn{Text: "Yes", Data: "y"}, InlineBtn{Text: "No", Data: "n"})
	require.Len(t, m.InlineKeyboard, 1)
	assert.Equal(t, "Yes", m.InlineKeyboard[0][0].Text)
	assert.Equal(t, "n", m.InlineKeyboard[0][1].Data)
}

func TestLinkButton(t *testing.T) {
	m := LinkButton("Contact Admin", "https://t.me/nkmods")
	require.Len(t, m.InlineKeyboard, 1)
	assert.Equal(t, "https://t.me/nkmods", m.InlineKeyboard[0][0].URL)
	assert.Empty(t, Tags(m))
}

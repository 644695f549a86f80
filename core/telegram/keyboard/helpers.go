// Package keyboard builds inline menus with raw callback tags.
package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn describes one inline button. Data is sent as-is as the callback tag.
type InlineBtn struct {
	Text string
	Data string
}

// LinkButton returns a markup with a single URL button.
func LinkButton(text, url string) *tele.ReplyMarkup {
	return &tele.ReplyMarkup{
		InlineKeyboard: [][]tele.InlineButton{{{Text: text, URL: url}}},
	}
}

// InlineButtons builds an inline keyboard where each provided button is placed on its own row.
func InlineButtons(buttons []InlineBtn) *tele.ReplyMarkup {
	rows := make([][]InlineBtn, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, []InlineBtn{b})
	}
	return InlineButtonsRows(rows...)
}

// InlineRow builds an inline keyboard with all buttons on one row.
func InlineRow(buttons ...InlineBtn) *tele.ReplyMarkup {
	return InlineButtonsRows(buttons)
}

// InlineButtonsRows builds an inline keyboard from rows of InlineBtn.
// No telebot unique prefix is applied, so the tag reaches the callback untouched.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	inline := make([][]tele.InlineButton, len(rows))
	for i, row := range rows {
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			r[j] = tele.InlineButton{Text: btn.Text, Data: btn.Data}
		}
		inline[i] = r
	}
	return &tele.ReplyMarkup{InlineKeyboard: inline}
}

// Tags returns the callback tags of every inline button in row order.
func Tags(markup *tele.ReplyMarkup) []string {
	if markup == nil {
		return nil
	}
	var tags []string
	for _, row := range markup.InlineKeyboard {
		for _, b := range row {
			if b.Data != "" {
				tags = append(tags, b.Data)
			}
		}
	}
	return tags
}

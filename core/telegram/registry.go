package telegram

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/m3rciful/buttonbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
}

// Registry holds the bot commands keyed by their slash-prefixed name.
type Registry struct {
	commands map[string]Command
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// RegisterCommand adds a new command. Invalid or duplicate entries are logged and skipped.
func (r *Registry) RegisterCommand(name string, cmd Command) bool {
	skip := func(event, reason string) bool {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, event,
			slog.String("name", name),
			slog.String("cause", reason),
		)
		return false
	}
	switch {
	case r == nil || name == "" || cmd.Handler == nil || cmd.Description == "":
		return skip("register.command.skip", "invalid")
	case !strings.HasPrefix(name, "/"):
		return skip("register.command.skip", "no_slash_prefix")
	}
	if _, exists := r.commands[name]; exists {
		return skip("register.command.duplicate", "duplicate")
	}
	r.commands[name] = cmd
	return true
}

// ListCommands returns a slice of tele.Command, optionally filtering out hidden and admin-only commands.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	list := make([]tele.Command, 0, len(r.commands))
	for name, meta := range r.commands {
		if visibleOnly && (meta.Hidden || meta.AdminOnly) {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(name, "/"), Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// Commands returns all registered commands.
func (r *Registry) Commands() map[string]Command {
	return r.commands
}

// InitBotCommands sets the Telegram bot commands shown in the command menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	cmds := reg.ListCommands(true)
	if err := bot.SetCommands(cmds); err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelError, "register.commands.set_failed",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.TWire.LogAttrs(context.Background(), slog.LevelInfo, "register.commands.set",
		slog.String("status", "ok"),
		slog.Int("commands", len(cmds)),
	)
}

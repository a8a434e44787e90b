// Copyright 2024-2026 Aiku AI

package helpbot

import (
	"context"
	"strings"

	"maunium.net/go/mautrix/event"
)

const helpCommand = "!help"

// matchesHelpCommand reports whether the message body invokes the help
// command: the literal token, case-sensitive, either alone or followed by
// whitespace. Trailing arguments are accepted and ignored.
func matchesHelpCommand(body string) bool {
	if !strings.HasPrefix(body, helpCommand) {
		return false
	}
	rest := body[len(helpCommand):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\n'
}

func (r *Router) dispatchCommand(ctx context.Context, evt *event.Event, msg *event.MessageEventContent) {
	if !matchesHelpCommand(msg.Body) {
		return
	}
	r.log.Info().
		Stringer("room_id", evt.RoomID).
		Stringer("sender", evt.Sender).
		Msg("Received help request")

	content := Render(r.helpText, r.cfg.Help.Format)
	if err := r.sender.sendMessage(ctx, evt.RoomID, &content); err != nil {
		sendFailures.Inc()
		r.log.Error().Err(err).
			Stringer("room_id", evt.RoomID).
			Msg("Failed to send help message")
		return
	}
	helpReplies.Inc()
}

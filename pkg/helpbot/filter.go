// Copyright 2024-2026 Aiku AI

package helpbot

import (
	"strings"

	"maunium.net/go/mautrix/id"
)

// shouldProcess reports whether a message from the given sender passes the
// configured filter rules. Any single rule match rejects the sender.
func shouldProcess(sender, ownUserID id.UserID, rules FilterConfig) bool {
	if rules.IgnoreSelf && sender == ownUserID {
		return false
	}
	for _, ignored := range rules.IgnoredUsers {
		if sender == ignored {
			return false
		}
	}
	// The substring check is a heuristic, but it matches what most
	// automated accounts actually call themselves. Note that it can match
	// the bot's own ID even with ignore_self disabled.
	if rules.IgnoreBots && strings.Contains(strings.ToLower(string(sender)), "bot") {
		return false
	}
	return true
}

// Copyright 2024-2026 Aiku AI

package helpbot

import (
	"testing"

	"maunium.net/go/mautrix/id"
)

func TestShouldProcess(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		sender id.UserID
		rules  FilterConfig
		want   bool
	}{
		{"plain user passes", testSender, FilterConfig{IgnoreSelf: true}, true},
		{"own message with ignore_self", testBotUser, FilterConfig{IgnoreSelf: true}, false},
		{"own message without ignore_self", testBotUser, FilterConfig{}, true},
		{"bot name with ignore_bots", "@weatherbot:example.com", FilterConfig{IgnoreBots: true}, false},
		{"bot name mixed case", "@WeatherBOT:example.com", FilterConfig{IgnoreBots: true}, false},
		{"bot substring mid-ID", "@robotics-fan:example.com", FilterConfig{IgnoreBots: true}, false},
		{"bot name without ignore_bots", "@weatherbot:example.com", FilterConfig{}, true},
		// The substring heuristic catches the bot's own ID even when
		// ignore_self is off.
		{"own bot-named ID with ignore_bots only", testBotUser, FilterConfig{IgnoreBots: true}, false},
		{"listed user", testSender, FilterConfig{IgnoreSelf: true, IgnoredUsers: []id.UserID{testSender}}, false},
		{"unlisted user", testSender, FilterConfig{IgnoreSelf: true, IgnoredUsers: []id.UserID{"@other:example.com"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := shouldProcess(tt.sender, testBotUser, tt.rules)
			if got != tt.want {
				t.Errorf("shouldProcess(%q, %+v): got %v, want %v", tt.sender, tt.rules, got, tt.want)
			}
		})
	}
}

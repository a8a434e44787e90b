// Copyright 2024-2026 Aiku AI

package helpbot

import (
	"context"
	"fmt"
	"time"

	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// classifyJoin decides whether a join event is live (the user just entered)
// or stale (backlog replayed by the homeserver after downtime or a full
// resync). Stale joins are dropped with no side effect beyond being marked
// seen. The returned reason is for logging only.
func (r *Router) classifyJoin(evt *event.Event, target id.UserID) (live bool, reason string) {
	jm := &r.cfg.JoinMonitor
	switch {
	case !jm.Enabled:
		return false, "join monitoring disabled"
	case !jm.RoomMonitored(evt.RoomID):
		return false, "room not monitored"
	case target == r.cfg.UserID:
		return false, "own join"
	case prevMembership(evt) == event.MembershipJoin:
		// Profile updates (displayname, avatar) arrive as join->join
		// transitions and are not new joins.
		return false, "membership update for existing member"
	case r.now().Sub(time.UnixMilli(evt.Timestamp)) > jm.StalenessWindow():
		return false, "join outside staleness window"
	default:
		return true, ""
	}
}

// prevMembership extracts the membership state the target had before this
// event, or "" if there was none.
func prevMembership(evt *event.Event) event.Membership {
	prev := evt.Unsigned.PrevContent
	if prev == nil {
		return ""
	}
	_ = prev.ParseRaw(event.StateMember)
	if member, ok := prev.Parsed.(*event.MemberEventContent); ok {
		return member.Membership
	}
	return ""
}

func (r *Router) handleJoin(ctx context.Context, evt *event.Event, target id.UserID) {
	live, reason := r.classifyJoin(evt, target)
	if !live {
		staleJoins.Inc()
		r.log.Debug().
			Stringer("room_id", evt.RoomID).
			Stringer("user_id", target).
			Str("reason", reason).
			Msg("Ignoring join")
		return
	}

	key := joinKey{Room: evt.RoomID, User: target}
	if _, welcomed := r.episodes[key]; welcomed {
		r.log.Debug().
			Stringer("room_id", evt.RoomID).
			Stringer("user_id", target).
			Msg("Already welcomed this membership")
		return
	}
	// The episode is recorded before the send attempt so a failing welcome
	// is reported once and never retried on redelivery.
	r.episodes[key] = struct{}{}

	r.log.Info().
		Stringer("room_id", evt.RoomID).
		Stringer("user_id", target).
		Msg("User joined room")

	if !r.cfg.JoinMonitor.SendWelcome {
		return
	}
	r.sendWelcome(ctx, evt.RoomID, target)
}

func (r *Router) sendWelcome(ctx context.Context, roomID id.RoomID, target id.UserID) {
	jm := &r.cfg.JoinMonitor
	source := ContentSource{Inline: jm.WelcomeMessage, File: jm.WelcomeFile}
	text, err := source.Load()
	if err != nil {
		r.log.Error().Err(err).
			Stringer("room_id", roomID).
			Stringer("user_id", target).
			Msg("Failed to load welcome content")
		return
	}

	// Address the welcome to the joining user.
	content := Render(fmt.Sprintf("%s: %s", target, text), jm.WelcomeFormat)
	if err := r.sender.sendMessage(ctx, roomID, &content); err != nil {
		sendFailures.Inc()
		r.log.Error().Err(err).
			Stringer("room_id", roomID).
			Stringer("user_id", target).
			Msg("Failed to send welcome message")
		return
	}
	welcomesSent.Inc()
	r.log.Info().
		Stringer("room_id", roomID).
		Stringer("user_id", target).
		Msg("Sent welcome message")
}

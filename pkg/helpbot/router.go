// Copyright 2024-2026 Aiku AI

package helpbot

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// messageSender is the outbound surface the router needs. It allows tests
// to inject a recorder instead of a real Matrix client.
type messageSender interface {
	sendMessage(ctx context.Context, roomID id.RoomID, content *event.MessageEventContent) error
}

// joinKey identifies one membership episode: a user's continuous presence
// in a room from join until the next leave.
type joinKey struct {
	Room id.RoomID
	User id.UserID
}

// Router consumes sync batches and decides, per event, whether and how to
// act. It owns all mutable processing state (the seen-event set and the
// join episode map); batches must be routed from a single goroutine.
type Router struct {
	cfg      *Config
	sender   messageSender
	helpText string
	seen     *seenEvents
	episodes map[joinKey]struct{}
	now      func() time.Time
	log      zerolog.Logger
}

// NewRouter creates a router. helpText is the preloaded help content; the
// caller is responsible for validating it at startup.
func NewRouter(cfg *Config, helpText string, sender messageSender, log zerolog.Logger) *Router {
	// Retention must outlive the staleness window, otherwise a forgotten
	// event ID could be redelivered while its join still counts as live.
	retention := 2 * cfg.JoinMonitor.StalenessWindow()
	if retention < time.Hour {
		retention = time.Hour
	}
	return &Router{
		cfg:      cfg,
		sender:   sender,
		helpText: helpText,
		seen:     newSeenEvents(8192, retention),
		episodes: make(map[joinKey]struct{}),
		now:      time.Now,
		log:      log.With().Str("component", "router").Logger(),
	}
}

// Route processes one sync batch in delivery order. It never returns an
// error: a bad event is logged and skipped, outbound send failures are
// logged and counted, and the batch always runs to completion.
func (r *Router) Route(ctx context.Context, batch []*event.Event) {
	for _, evt := range batch {
		r.routeEvent(ctx, evt)
	}
}

func (r *Router) routeEvent(ctx context.Context, evt *event.Event) {
	if evt == nil || evt.ID == "" {
		malformedEvents.Inc()
		r.log.Warn().Msg("Dropping event without an event ID")
		return
	}
	if r.seen.Seen(evt.ID) {
		duplicateEvents.Inc()
		r.log.Debug().Stringer("event_id", evt.ID).Msg("Skipping already-handled event")
		return
	}
	r.seen.Mark(evt.ID)

	switch evt.Type {
	case event.EventMessage:
		eventsProcessed.WithLabelValues("message").Inc()
		r.handleMessage(ctx, evt)
	case event.StateMember:
		eventsProcessed.WithLabelValues("member").Inc()
		r.handleMember(ctx, evt)
	default:
		eventsProcessed.WithLabelValues("other").Inc()
	}
}

func (r *Router) handleMessage(ctx context.Context, evt *event.Event) {
	msg, ok := evt.Content.Parsed.(*event.MessageEventContent)
	if !ok {
		malformedEvents.Inc()
		r.log.Warn().
			Stringer("event_id", evt.ID).
			Stringer("room_id", evt.RoomID).
			Msg("Dropping message event with unparseable content")
		return
	}
	if msg.MsgType != event.MsgText {
		return
	}
	if !shouldProcess(evt.Sender, r.cfg.UserID, r.cfg.Filtering) {
		r.log.Debug().
			Stringer("sender", evt.Sender).
			Msg("Ignoring message from filtered sender")
		return
	}
	r.dispatchCommand(ctx, evt, msg)
}

func (r *Router) handleMember(ctx context.Context, evt *event.Event) {
	member, ok := evt.Content.Parsed.(*event.MemberEventContent)
	if !ok || evt.StateKey == nil {
		malformedEvents.Inc()
		r.log.Warn().
			Stringer("event_id", evt.ID).
			Stringer("room_id", evt.RoomID).
			Msg("Dropping malformed member event")
		return
	}
	target := id.UserID(*evt.StateKey)

	switch member.Membership {
	case event.MembershipJoin:
		r.handleJoin(ctx, evt, target)
	case event.MembershipLeave, event.MembershipBan:
		// Ending the episode makes a later rejoin welcomeable again.
		delete(r.episodes, joinKey{Room: evt.RoomID, User: target})
	}
}

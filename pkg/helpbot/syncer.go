// Copyright 2024-2026 Aiku AI

package helpbot

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// batchSyncer implements mautrix.Syncer. It flattens every sync response
// into per-room ordered batches and hands them to the router one at a
// time, so batch processing never overlaps.
type batchSyncer struct {
	router    *Router
	api       matrixAPI
	joinDelay time.Duration // initial autojoin retry delay
	log       zerolog.Logger
}

var _ mautrix.Syncer = (*batchSyncer)(nil)

func newBatchSyncer(router *Router, api matrixAPI, log zerolog.Logger) *batchSyncer {
	return &batchSyncer{
		router:    router,
		api:       api,
		joinDelay: 2 * time.Second,
		log:       log.With().Str("component", "syncer").Logger(),
	}
}

func (s *batchSyncer) ProcessResponse(ctx context.Context, resp *mautrix.RespSync, since string) error {
	s.handleInvites(ctx, resp)

	// The initial sync only marks the stream position. Whatever history it
	// carries is backlog and must never be routed; the staleness window is
	// the second line of defense for later resyncs.
	if since == "" {
		s.log.Info().
			Int("joined_rooms", len(resp.Rooms.Join)).
			Msg("Initial sync completed, skipping backlog")
		return nil
	}

	for roomID, room := range resp.Rooms.Join {
		batch := make([]*event.Event, 0, len(room.State.Events)+len(room.Timeline.Events))
		for _, evt := range room.State.Events {
			batch = append(batch, s.prepareEvent(roomID, evt))
		}
		for _, evt := range room.Timeline.Events {
			batch = append(batch, s.prepareEvent(roomID, evt))
		}
		s.router.Route(ctx, batch)
	}
	return nil
}

// prepareEvent fills in the fields the sync response leaves implicit and
// parses the raw content, mirroring what the default syncer does before
// dispatching to handlers.
func (s *batchSyncer) prepareEvent(roomID id.RoomID, evt *event.Event) *event.Event {
	evt.RoomID = roomID
	if evt.StateKey != nil {
		evt.Type.Class = event.StateEventType
	} else {
		evt.Type.Class = event.MessageEventType
	}
	if err := evt.Content.ParseRaw(evt.Type); err != nil && !errors.Is(err, event.ErrContentAlreadyParsed) {
		s.log.Debug().Err(err).
			Stringer("event_id", evt.ID).
			Str("event_type", evt.Type.Type).
			Msg("Failed to parse event content")
	}
	return evt
}

// handleInvites autojoins rooms the bot has been invited to, retrying with
// capped exponential backoff in the background.
func (s *batchSyncer) handleInvites(ctx context.Context, resp *mautrix.RespSync) {
	for roomID := range resp.Rooms.Invite {
		s.log.Info().Stringer("room_id", roomID).Msg("Received invitation")
		go s.joinWithRetry(ctx, roomID)
	}
}

const maxJoinRetryDelay = time.Hour

// joinWithRetry keeps trying until the join succeeds or the context is
// cancelled, doubling the delay up to maxJoinRetryDelay.
func (s *batchSyncer) joinWithRetry(ctx context.Context, roomID id.RoomID) {
	delay := s.joinDelay
	for {
		err := s.api.joinRoom(ctx, roomID)
		if err == nil {
			s.log.Info().Stringer("room_id", roomID).Msg("Joined room")
			return
		}
		s.log.Warn().Err(err).
			Stringer("room_id", roomID).
			Dur("retry_in", delay).
			Msg("Failed to join room, retrying")
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxJoinRetryDelay {
			delay = maxJoinRetryDelay
		}
	}
}

func (s *batchSyncer) OnFailedSync(_ *mautrix.RespSync, err error) (time.Duration, error) {
	s.log.Warn().Err(err).Msg("Sync failed, retrying in 10 seconds")
	return 10 * time.Second, nil
}

// GetFilterJSON limits the sync timeline to the two event types the router
// acts on.
func (s *batchSyncer) GetFilterJSON(_ id.UserID) *mautrix.Filter {
	return &mautrix.Filter{
		Room: &mautrix.RoomFilter{
			Timeline: &mautrix.FilterPart{
				Types: []event.Type{event.EventMessage, event.StateMember},
				Limit: 50,
			},
		},
	}
}

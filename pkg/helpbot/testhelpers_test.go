// Copyright 2024-2026 Aiku AI

package helpbot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mau.fi/util/ptr"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

const (
	testBotUser  = id.UserID("@helpbot:example.com")
	testRoom     = id.RoomID("!room:example.com")
	testSender   = id.UserID("@user:example.com")
	testHelpText = "This is the help text."
)

var errJoinRejected = errors.New("join rejected")

// fakeMatrix records outbound calls instead of talking to a homeserver.
// The mutex is only needed because invite autojoin runs in a goroutine.
type fakeMatrix struct {
	mu           sync.Mutex
	sent         []sentMessage
	sendErr      error
	joined       []id.RoomID
	joinErr      error
	joinFailures int // reject this many join attempts before accepting
	joinAttempts int
}

type sentMessage struct {
	Room    id.RoomID
	Content event.MessageEventContent
}

func (f *fakeMatrix) sendMessage(_ context.Context, roomID id.RoomID, content *event.MessageEventContent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMessage{Room: roomID, Content: *content})
	return nil
}

func (f *fakeMatrix) joinRoom(_ context.Context, roomID id.RoomID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joinAttempts++
	if f.joinFailures > 0 {
		f.joinFailures--
		return errJoinRejected
	}
	if f.joinErr != nil {
		return f.joinErr
	}
	f.joined = append(f.joined, roomID)
	return nil
}

func (f *fakeMatrix) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeMatrix) joinedRooms() []id.RoomID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]id.RoomID(nil), f.joined...)
}

func (f *fakeMatrix) joinAttemptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.joinAttempts
}

func testConfig() *Config {
	cfg := defaultConfig()
	cfg.Homeserver = "https://matrix.example.com"
	cfg.UserID = testBotUser
	cfg.AccessToken = "secret"
	cfg.Help.File = "help.md"
	cfg.JoinMonitor.SendWelcome = true
	return &cfg
}

// newTestRouter builds a router with a recording sender and a frozen clock.
func newTestRouter(cfg *Config) (*Router, *fakeMatrix, time.Time) {
	fake := &fakeMatrix{}
	router := NewRouter(cfg, testHelpText, fake, zerolog.Nop())
	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	router.now = func() time.Time { return now }
	router.seen.now = router.now
	return router, fake, now
}

func messageEvent(eventID id.EventID, roomID id.RoomID, sender id.UserID, body string) *event.Event {
	return &event.Event{
		ID:     eventID,
		Type:   event.EventMessage,
		RoomID: roomID,
		Sender: sender,
		Content: event.Content{
			Parsed: &event.MessageEventContent{
				MsgType: event.MsgText,
				Body:    body,
			},
		},
	}
}

func joinEvent(eventID id.EventID, roomID id.RoomID, target id.UserID, ts time.Time) *event.Event {
	return memberEvent(eventID, roomID, target, event.MembershipJoin, ts)
}

func memberEvent(eventID id.EventID, roomID id.RoomID, target id.UserID, membership event.Membership, ts time.Time) *event.Event {
	return &event.Event{
		ID:        eventID,
		Type:      event.StateMember,
		RoomID:    roomID,
		Sender:    target,
		StateKey:  ptr.Ptr(string(target)),
		Timestamp: ts.UnixMilli(),
		Content: event.Content{
			Parsed: &event.MemberEventContent{
				Membership: membership,
			},
		},
	}
}

func withPrevMembership(evt *event.Event, membership event.Membership) *event.Event {
	evt.Unsigned.PrevContent = &event.Content{
		Parsed: &event.MemberEventContent{
			Membership: membership,
		},
	}
	return evt
}

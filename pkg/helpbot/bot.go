// Copyright 2024-2026 Aiku AI

package helpbot

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// matrixAPI is the narrow surface of the Matrix client the bot core uses.
// Tests inject a fake; production wires the real client.
type matrixAPI interface {
	messageSender
	joinRoom(ctx context.Context, roomID id.RoomID) error
}

// clientAPI adapts *mautrix.Client to matrixAPI.
type clientAPI struct {
	client *mautrix.Client
}

func (c *clientAPI) sendMessage(ctx context.Context, roomID id.RoomID, content *event.MessageEventContent) error {
	_, err := c.client.SendMessageEvent(ctx, roomID, event.EventMessage, content)
	return err
}

func (c *clientAPI) joinRoom(ctx context.Context, roomID id.RoomID) error {
	_, err := c.client.JoinRoomByID(ctx, roomID)
	return err
}

// Bot ties the Matrix client, the sync loop and the event router together.
type Bot struct {
	cfg    *Config
	client *mautrix.Client
	router *Router
	log    zerolog.Logger
}

// NewBot creates a bot from a validated config. The help file is loaded
// here: an unreadable help file is a startup-fatal configuration error.
func NewBot(cfg *Config, log zerolog.Logger) (*Bot, error) {
	helpText, err := (ContentSource{File: cfg.Help.File}).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load help content: %w", err)
	}

	client, err := mautrix.NewClient(cfg.Homeserver, cfg.UserID, cfg.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create matrix client: %w", err)
	}
	client.Log = log.With().Str("component", "mautrix").Logger()

	api := &clientAPI{client: client}
	router := NewRouter(cfg, helpText, api, log)
	client.Syncer = newBatchSyncer(router, api, log)

	return &Bot{
		cfg:    cfg,
		client: client,
		router: router,
		log:    log,
	}, nil
}

// Run verifies the session and syncs until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	whoami, err := b.client.Whoami(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify access token: %w", err)
	}
	if whoami.UserID != b.cfg.UserID {
		return fmt.Errorf("access token belongs to %s, config says %s", whoami.UserID, b.cfg.UserID)
	}
	b.log.Info().Stringer("user_id", whoami.UserID).Msg("Logged in, starting sync")

	if b.cfg.JoinMonitor.WelcomeFile != "" && b.cfg.JoinMonitor.WelcomeMessage != "" &&
		b.cfg.JoinMonitor.WelcomeMessage != defaultWelcomeMessage {
		b.log.Warn().
			Str("welcome_file", b.cfg.JoinMonitor.WelcomeFile).
			Msg("Both welcome_file and welcome_message are set, the file takes precedence")
	}

	err = b.client.SyncWithContext(ctx)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("sync loop failed: %w", err)
	}
	return nil
}

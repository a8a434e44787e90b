// Copyright 2024-2026 Aiku AI

// Package helpbot implements a Matrix room assistant that answers !help
// commands with preformatted content and welcomes users joining monitored
// rooms.
//
// # Core Types
//
// [Router] is the decision engine. It consumes sync batches sequentially,
// deduplicates events by ID, filters message senders, dispatches the help
// command, classifies join events as live or stale, and schedules at most
// one welcome per membership episode. It owns all mutable processing state.
//
// [Bot] wires a mautrix client to the router: token session verification,
// the sync loop, the sync filter, and invite autojoin.
//
// [Config] is the YAML configuration with an embedded example
// (example-config.yaml).
//
// # Join Staleness
//
// Matrix sync replays membership history after downtime or a full resync.
// To avoid welcome floods, a join only counts as live when its origin
// timestamp is within the configured staleness window, the room is
// monitored, the joiner is not the bot, and the member was not already
// joined. Welcomes are additionally deduplicated per membership episode:
// one per (room, user) pair until the user leaves.
//
// # Sub-packages
//
//   - msgfmt converts markdown help and welcome content to Matrix HTML.
package helpbot

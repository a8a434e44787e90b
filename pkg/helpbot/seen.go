// Copyright 2024-2026 Aiku AI

package helpbot

import (
	"container/list"
	"time"

	"maunium.net/go/mautrix/id"
)

// seenEvents is a TTL-bound LRU of event IDs the router has already
// handled. The retention TTL must exceed the join staleness window so a
// redelivered event can never be reprocessed while it would still classify
// as live. The capacity bound wins over the TTL: when more IDs than cap
// arrive within the retention window, the oldest are evicted before they
// expire and could be reprocessed on redelivery. The set is owned
// exclusively by the router's processing loop and is not safe for
// concurrent use.
type seenEvents struct {
	cap   int
	ttl   time.Duration
	order *list.List // most recently seen at front
	items map[id.EventID]*list.Element
	now   func() time.Time
}

type seenEntry struct {
	id  id.EventID
	exp time.Time
}

func newSeenEvents(maxEntries int, ttl time.Duration) *seenEvents {
	if maxEntries <= 0 {
		maxEntries = 8192
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &seenEvents{
		cap:   maxEntries,
		ttl:   ttl,
		order: list.New(),
		items: make(map[id.EventID]*list.Element, maxEntries),
		now:   time.Now,
	}
}

// Seen reports whether the event ID is present and unexpired, refreshing
// its LRU position. Expired entries are dropped on access.
func (s *seenEvents) Seen(eventID id.EventID) bool {
	el, ok := s.items[eventID]
	if !ok {
		return false
	}
	entry := el.Value.(seenEntry)
	if s.now().Before(entry.exp) {
		s.order.MoveToFront(el)
		return true
	}
	s.order.Remove(el)
	delete(s.items, eventID)
	return false
}

// Mark records the event ID. Eviction of over-capacity and expired tail
// entries is amortized into each insert, which bounds the set without a
// separate sweep pass.
func (s *seenEvents) Mark(eventID id.EventID) {
	if el, ok := s.items[eventID]; ok {
		entry := el.Value.(seenEntry)
		entry.exp = s.now().Add(s.ttl)
		el.Value = entry
		s.order.MoveToFront(el)
		return
	}
	el := s.order.PushFront(seenEntry{id: eventID, exp: s.now().Add(s.ttl)})
	s.items[eventID] = el

	for s.order.Len() > s.cap {
		tail := s.order.Back()
		if tail == nil {
			break
		}
		old := tail.Value.(seenEntry)
		s.order.Remove(tail)
		delete(s.items, old.id)
	}
	for {
		tail := s.order.Back()
		if tail == nil || s.now().Before(tail.Value.(seenEntry).exp) {
			break
		}
		delete(s.items, tail.Value.(seenEntry).id)
		s.order.Remove(tail)
	}
}

// Len returns the number of tracked event IDs.
func (s *seenEvents) Len() int {
	return s.order.Len()
}

package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/printhq/cloudprint/internal/cloud"
	"github.com/printhq/cloudprint/internal/store/recent"
	"github.com/printhq/cloudprint/internal/util"
	"github.com/printhq/cloudprint/pkg/cdd"
	"github.com/printhq/cloudprint/pkg/destination"
)

// DestinationStore caches destinations keyed by (id, origin, account),
// fed by search and printer events. Selecting a destination records it in
// the persistent recent cache when one is attached.
type DestinationStore struct {
	mu sync.Mutex

	destinations map[string]*destination.Destination
	recent       recent.Store

	changed []func()
}

// NewDestinationStore subscribes to the event registry. recentStore may be
// nil, in which case selections are not persisted.
func NewDestinationStore(events *cloud.Events, recentStore recent.Store) *DestinationStore {
	s := &DestinationStore{
		destinations: map[string]*destination.Destination{},
		recent:       recentStore,
	}

	events.OnSearchDone(s.onSearchDone)
	events.OnPrinterDone(s.onPrinterDone)
	events.OnProcessInviteDone(s.onProcessInviteDone)

	return s
}

// Destinations returns the cached destinations in stable key order.
func (s *DestinationStore) Destinations() []*destination.Destination {
	s.mu.Lock()
	defer s.mu.Unlock()

	return util.OrderedRange(s.destinations)
}

// Destination returns the cached destination for the key, or nil.
func (s *DestinationStore) Destination(key string) *destination.Destination {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.destinations[key]
}

// AttachCapabilities sets a late-arriving capability document on the
// cached destination.
func (s *DestinationStore) AttachCapabilities(key string, capabilities *cdd.CloudDeviceDescription) {
	s.mu.Lock()

	dest, ok := s.destinations[key]
	if ok {
		dest.Capabilities = capabilities
	}

	s.mu.Unlock()

	if ok {
		s.announce()
	}
}

// SelectDestination marks the destination as used now and persists it to
// the recent cache.
func (s *DestinationStore) SelectDestination(ctx context.Context, dest *destination.Destination) {
	s.mu.Lock()
	dest.LastAccessed = time.Now().UnixMilli()
	s.destinations[dest.Key()] = dest
	s.mu.Unlock()

	if s.recent != nil {
		if err := s.recent.Save(ctx, dest); err != nil {
			slog.Warn("failed to persist recent destination", "dest", dest, "err", err)
		}
	}

	s.announce()
}

// Recent returns the most recently selected destinations, newest first.
func (s *DestinationStore) Recent(ctx context.Context, limit int) ([]*destination.Destination, error) {
	if s.recent == nil {
		return nil, nil
	}
	return s.recent.List(ctx, limit)
}

// OnChanged registers a callback fired whenever the cache content changes.
func (s *DestinationStore) OnChanged(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changed = append(s.changed, f)
}

func (s *DestinationStore) onSearchDone(event *cloud.SearchDone) {
	s.mu.Lock()
	for _, printer := range event.Printers {
		s.insert(printer)
	}
	s.mu.Unlock()

	s.announce()
}

func (s *DestinationStore) onPrinterDone(event *cloud.PrinterDone) {
	s.mu.Lock()
	s.insert(event.Printer)
	s.mu.Unlock()

	s.announce()
}

func (s *DestinationStore) onProcessInviteDone(event *cloud.ProcessInviteDone) {
	if event.Printer == nil {
		return
	}

	s.mu.Lock()
	s.insert(event.Printer)
	s.mu.Unlock()

	s.announce()
}

// insert adds or refreshes a destination, keeping previously attached
// capabilities when the new entry has none. Caller holds the lock.
func (s *DestinationStore) insert(dest *destination.Destination) {
	if existing, ok := s.destinations[dest.Key()]; ok && dest.Capabilities == nil {
		dest.Capabilities = existing.Capabilities
	}
	s.destinations[dest.Key()] = dest
}

func (s *DestinationStore) announce() {
	s.mu.Lock()
	changed := make([]func(), len(s.changed))
	copy(changed, s.changed)
	s.mu.Unlock()

	for _, f := range changed {
		f()
	}
}

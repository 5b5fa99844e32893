package realtime

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/domain/inventory"
)

// SessionState tracks where a client sits in the subscribe handshake
type SessionState int

const (
	StateDisconnected SessionState = iota
	StateSubscribing
	StateSynced
)

// SnapshotSource provides the full item projection used to seed sessions
type SnapshotSource interface {
	ListItems(ctx context.Context, organizationID uuid.UUID) ([]inventory.ItemSnapshot, error)
}

// Session reconciles one client's item projection against the change
// feed. Events that arrive while the initial snapshot loads are buffered
// and replayed afterwards; each apply is guarded by the item's version,
// so replaying an event that the snapshot already covers is a no-op and
// out-of-order deliveries never roll the projection backwards.
type Session struct {
	organizationID uuid.UUID
	source         SnapshotSource
	logger         *zap.Logger

	mu         sync.Mutex
	state      SessionState
	projection map[uuid.UUID]inventory.ItemSnapshot
	buffer     []*inventory.ItemChangedEvent
}

// NewSession creates a session for one organization
func NewSession(organizationID uuid.UUID, source SnapshotSource, logger *zap.Logger) *Session {
	return &Session{
		organizationID: organizationID,
		source:         source,
		logger:         logger,
		state:          StateDisconnected,
		projection:     make(map[uuid.UUID]inventory.ItemSnapshot),
	}
}

// State returns the current session state
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start loads the snapshot and replays any events buffered while it was
// in flight. Safe to call again after Stop; the projection is rebuilt
// from scratch each time.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateSubscribing
	s.projection = make(map[uuid.UUID]inventory.ItemSnapshot)
	s.buffer = nil
	s.mu.Unlock()

	snaps, err := s.source.ListItems(ctx, s.organizationID)
	if err != nil {
		s.mu.Lock()
		s.state = StateDisconnected
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snap := range snaps {
		s.projection[snap.ID] = snap
	}
	for _, change := range s.buffer {
		s.applyLocked(change)
	}
	s.buffer = nil
	s.state = StateSynced
	return nil
}

// Stop disconnects the session and drops its projection. A later Start
// re-snapshots rather than trusting possibly stale state.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateDisconnected
	s.projection = make(map[uuid.UUID]inventory.ItemSnapshot)
	s.buffer = nil
}

// Apply feeds one change event into the session. Returns true when the
// projection changed.
func (s *Session) Apply(change *inventory.ItemChangedEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateDisconnected:
		return false
	case StateSubscribing:
		s.buffer = append(s.buffer, change)
		return false
	default:
		return s.applyLocked(change)
	}
}

func (s *Session) applyLocked(change *inventory.ItemChangedEvent) bool {
	if change.Kind == inventory.ChangeDelete {
		id := change.AggregateID()
		if change.Previous != nil {
			id = change.Previous.ID
		}
		if _, ok := s.projection[id]; !ok {
			return false
		}
		delete(s.projection, id)
		return true
	}

	if change.Current == nil {
		return false
	}
	cur := *change.Current
	if existing, ok := s.projection[cur.ID]; ok && existing.Version >= cur.Version {
		s.logger.Debug("dropping stale item change",
			zap.String("item_id", cur.ID.String()),
			zap.Int("held_version", existing.Version),
			zap.Int("event_version", cur.Version))
		return false
	}
	s.projection[cur.ID] = cur
	return true
}

// Item returns the session's copy of one item
func (s *Session) Item(id uuid.UUID) (inventory.ItemSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.projection[id]
	return snap, ok
}

// Items returns the session's full projection ordered by SKU
func (s *Session) Items() []inventory.ItemSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]inventory.ItemSnapshot, 0, len(s.projection))
	for _, snap := range s.projection {
		items = append(items, snap)
	}
	sort.Slice(items, func(a, b int) bool { return items[a].SKU < items[b].SKU })
	return items
}

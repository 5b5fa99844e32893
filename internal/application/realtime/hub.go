package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/domain/inventory"
	"github.com/wms/backend/internal/domain/shared"
)

const clientBufferSize = 64

// Client is one connected change-feed consumer. Events arrive on Events
// as marshalled frames; a client that cannot keep up has frames dropped
// rather than blocking the fan-out, and heals itself from the full
// snapshots carried by later events.
type Client struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Session        *Session
	Events         chan []byte
}

// Hub fans item change events out to connected clients. It subscribes to
// the event bus once and multiplexes onto per-client channels, keeping
// each client's reconciliation session in step with what was sent.
type Hub struct {
	source  SnapshotSource
	logger  *zap.Logger
	clients sync.Map // uuid.UUID -> *Client
}

// NewHub creates a hub
func NewHub(source SnapshotSource, logger *zap.Logger) *Hub {
	return &Hub{source: source, logger: logger}
}

// EventTypes implements shared.EventHandler
func (h *Hub) EventTypes() []string {
	return []string{inventory.EventTypeItemChanged}
}

// Handle implements shared.EventHandler
func (h *Hub) Handle(_ context.Context, event shared.DomainEvent) error {
	change, ok := event.(*inventory.ItemChangedEvent)
	if !ok {
		return nil
	}

	var frame []byte
	h.clients.Range(func(_, value any) bool {
		client := value.(*Client)
		if client.OrganizationID != change.OrganizationID() {
			return true
		}
		if !client.Session.Apply(change) && change.Kind != inventory.ChangeDelete {
			return true
		}
		if frame == nil {
			var err error
			frame, err = json.Marshal(change)
			if err != nil {
				h.logger.Error("failed to marshal item change", zap.Error(err))
				return false
			}
		}
		select {
		case client.Events <- frame:
		default:
			h.logger.Warn("dropping frame for slow client",
				zap.String("client_id", client.ID.String()))
		}
		return true
	})
	return nil
}

// Register connects a client, loads its snapshot and returns it synced
func (h *Hub) Register(ctx context.Context, organizationID uuid.UUID) (*Client, error) {
	client := &Client{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		Session:        NewSession(organizationID, h.source, h.logger),
		Events:         make(chan []byte, clientBufferSize),
	}
	// Register before the snapshot loads so events raised meanwhile are
	// buffered by the session instead of lost.
	h.clients.Store(client.ID, client)

	if err := client.Session.Start(ctx); err != nil {
		h.clients.Delete(client.ID)
		return nil, err
	}
	h.logger.Info("realtime client connected",
		zap.String("client_id", client.ID.String()),
		zap.String("organization_id", organizationID.String()))
	return client, nil
}

// Unregister disconnects a client and discards its session state
func (h *Hub) Unregister(clientID uuid.UUID) {
	value, ok := h.clients.LoadAndDelete(clientID)
	if !ok {
		return
	}
	client := value.(*Client)
	client.Session.Stop()
	// The events channel is left open; a concurrent fan-out may still be
	// sending and readers exit through their own context.
	h.logger.Info("realtime client disconnected",
		zap.String("client_id", clientID.String()))
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	count := 0
	h.clients.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

package notification

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Kind classifies operator notifications
type Kind string

const (
	KindLowStock             Kind = "low_stock"
	KindOutOfStock           Kind = "out_of_stock"
	KindReplenishmentCreated Kind = "replenishment_created"
	KindReplenishmentFailed  Kind = "replenishment_failed"
)

// Notification is a message surfaced to warehouse operators
type Notification struct {
	OrganizationID uuid.UUID
	ItemID         uuid.UUID
	Kind           Kind
	Message        string
}

// Notifier delivers operator notifications
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LoggingNotifier writes notifications to the structured log. Production
// deployments swap in a channel-backed implementation behind the same
// interface.
type LoggingNotifier struct {
	logger *zap.Logger
}

// NewLoggingNotifier creates a log-backed notifier
func NewLoggingNotifier(logger *zap.Logger) *LoggingNotifier {
	return &LoggingNotifier{logger: logger}
}

// Notify implements Notifier
func (n *LoggingNotifier) Notify(_ context.Context, notif Notification) error {
	n.logger.Info("operator notification",
		zap.String("kind", string(notif.Kind)),
		zap.String("organization_id", notif.OrganizationID.String()),
		zap.String("item_id", notif.ItemID.String()),
		zap.String("message", notif.Message),
	)
	return nil
}

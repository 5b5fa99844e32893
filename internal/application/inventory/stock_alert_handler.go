package inventory

import (
	"context"

	"go.uber.org/zap"

	"github.com/wms/backend/internal/application/notification"
	"github.com/wms/backend/internal/domain/inventory"
	"github.com/wms/backend/internal/domain/shared"
)

// StockAlertHandler turns threshold events into operator notifications
type StockAlertHandler struct {
	notifier notification.Notifier
	logger   *zap.Logger
}

// NewStockAlertHandler creates a stock alert handler
func NewStockAlertHandler(notifier notification.Notifier, logger *zap.Logger) *StockAlertHandler {
	return &StockAlertHandler{notifier: notifier, logger: logger}
}

// EventTypes implements shared.EventHandler
func (h *StockAlertHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockBelowReorder}
}

// Handle implements shared.EventHandler
func (h *StockAlertHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	alert, ok := event.(*inventory.StockBelowReorderEvent)
	if !ok {
		return nil
	}

	kind := notification.KindLowStock
	message := "Item " + alert.SKU + " (" + alert.Name + ") fell to its reorder level"
	if alert.Status == inventory.StatusOutOfStock {
		kind = notification.KindOutOfStock
		message = "Item " + alert.SKU + " (" + alert.Name + ") is out of stock"
	}

	err := h.notifier.Notify(ctx, notification.Notification{
		OrganizationID: alert.OrganizationID(),
		ItemID:         alert.AggregateID(),
		Kind:           kind,
		Message:        message,
	})
	if err != nil {
		h.logger.Error("failed to deliver stock alert",
			zap.String("sku", alert.SKU),
			zap.Error(err))
	}
	return err
}

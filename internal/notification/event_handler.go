package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dokterku/clinic-finance/internal/core/events"
)

// EventHandler turns validation events into notifications for the
// submitting staff member.
type EventHandler struct {
	notifier Notifier
	logger   *slog.Logger
}

func NewEventHandler(notifier Notifier, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		notifier: notifier,
		logger:   logger,
	}
}

func (h *EventHandler) HandleTransactionValidated(ctx context.Context, event events.Event) error {
	validated, ok := event.(*events.TransactionValidatedEvent)
	if !ok {
		h.logger.Error("invalid event type for validation handler", "event_type", event.EventType())
		return fmt.Errorf("expected TransactionValidatedEvent, got %T", event)
	}

	var message string
	level := LevelInfo
	switch validated.EventType() {
	case events.EventTypeTransactionApproved:
		message = fmt.Sprintf("Transaksi %d (Rp %d) telah disetujui", validated.TransactionID, validated.Amount)
	case events.EventTypeTransactionRejected:
		message = fmt.Sprintf("Transaksi %d (Rp %d) ditolak", validated.TransactionID, validated.Amount)
		level = LevelWarning
	case events.EventTypeTransactionReverted:
		message = fmt.Sprintf("Transaksi %d dikembalikan ke status pending", validated.TransactionID)
		level = LevelWarning
	default:
		return fmt.Errorf("unexpected event type %s", validated.EventType())
	}

	h.notifier.Notify(validated.SubmittedBy, message, level)

	h.logger.Info("validation notification sent",
		"transaction_id", validated.TransactionID,
		"submitted_by", validated.SubmittedBy,
		"event_type", validated.EventType())
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeTransactionApproved, h.HandleTransactionValidated)
	eventBus.Subscribe(events.EventTypeTransactionRejected, h.HandleTransactionValidated)
	eventBus.Subscribe(events.EventTypeTransactionReverted, h.HandleTransactionValidated)

	h.logger.Info("notification event handlers registered",
		"handlers", []string{
			events.EventTypeTransactionApproved,
			events.EventTypeTransactionRejected,
			events.EventTypeTransactionReverted,
		})
}

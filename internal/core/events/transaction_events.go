package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeTransactionApproved = "transaction.approved"
	EventTypeTransactionRejected = "transaction.rejected"
	EventTypeTransactionReverted = "transaction.reverted"
)

// TransactionValidatedEvent is emitted whenever a validation decision
// changes a transaction's status.
type TransactionValidatedEvent struct {
	BaseEvent
	TransactionID int64  `json:"transaction_id"`
	Amount        int64  `json:"amount"`
	ActorID       int64  `json:"actor_id"`
	SubmittedBy   int64  `json:"submitted_by"`
	Kind          string `json:"kind"`
}

func NewTransactionValidatedEvent(eventType string, transactionID, amount, actorID, submittedBy int64, kind string) *TransactionValidatedEvent {
	return &TransactionValidatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"transaction_id": transactionID,
				"amount":         amount,
				"actor_id":       actorID,
				"submitted_by":   submittedBy,
				"kind":           kind,
			},
		},
		TransactionID: transactionID,
		Amount:        amount,
		ActorID:       actorID,
		SubmittedBy:   submittedBy,
		Kind:          kind,
	}
}

package audit

import (
	"log/slog"

	auditDatamodel "github.com/dokterku/clinic-finance/internal/core/datamodel/audit"
	"github.com/dokterku/clinic-finance/internal/transaction"
	"gorm.io/gorm"
)

// Recorder persists validation audit entries. Errors are logged but
// never propagate, so a failed audit write cannot disturb the workflow
// mutation that produced it.
type Recorder struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRecorder(db *gorm.DB, logger *slog.Logger) *Recorder {
	return &Recorder{db: db, logger: logger}
}

func (r *Recorder) Record(txID, actorID int64, action string, fromStatus, toStatus transaction.Status, note string) {
	// A zero txID marks a batch-run summary, stored with a NULL
	// transaction reference.
	var txRef *int64
	if txID != 0 {
		txRef = &txID
	}

	entry := &auditDatamodel.ValidationLog{
		TransactionID: txRef,
		ActorID:       actorID,
		Action:        action,
		FromStatus:    string(fromStatus),
		ToStatus:      string(toStatus),
		Note:          note,
	}

	if err := r.db.Create(entry).Error; err != nil {
		r.logger.Error("failed to write validation log",
			"error", err,
			"transaction_id", txID,
			"actor_id", actorID,
			"action", action)
	}
}

// ForTransaction returns the audit trail for one record, oldest first.
func (r *Recorder) ForTransaction(txID int64) ([]*auditDatamodel.ValidationLog, error) {
	var entries []*auditDatamodel.ValidationLog
	err := r.db.Where("transaction_id = ?", txID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

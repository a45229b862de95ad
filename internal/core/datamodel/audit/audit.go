package audit

import "time"

// ValidationLog is one audit trail row. TransactionID is NULL for
// entries that describe a batch run rather than a single record.
type ValidationLog struct {
	ID            int64     `gorm:"primaryKey"`
	TransactionID *int64    `gorm:"column:transaction_id;index"`
	ActorID       int64     `gorm:"column:actor_id;not null;index"`
	Action        string    `gorm:"column:action;not null"`
	FromStatus    string    `gorm:"column:from_status"`
	ToStatus      string    `gorm:"column:to_status"`
	Note          string    `gorm:"column:note;type:text"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime;index"`
}

func (ValidationLog) TableName() string {
	return "validation_logs"
}

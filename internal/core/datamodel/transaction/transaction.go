package transaction

import "time"

type Transaction struct {
	ID               int64      `gorm:"primaryKey"`
	Kind             string     `gorm:"column:kind;not null;index"`
	AmountIDR        int64      `gorm:"column:amount_idr;not null"`
	Description      string     `gorm:"column:description;not null"`
	Category         string     `gorm:"column:category;not null;index"`
	OccurredOn       time.Time  `gorm:"column:occurred_on;type:date;index"`
	SubmittedBy      int64      `gorm:"column:submitted_by;not null;index"`
	ValidationStatus string     `gorm:"column:validation_status;default:pending;index"`
	ValidatedBy      *int64     `gorm:"column:validated_by"`
	ValidatedAt      *time.Time `gorm:"column:validated_at"`
	ValidationNote   string     `gorm:"column:validation_note;type:text"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Transaction) TableName() string {
	return "transactions"
}

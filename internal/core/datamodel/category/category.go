package category

import "time"

type TransactionCategory struct {
	ID           int64     `gorm:"primaryKey"`
	Name         string    `gorm:"column:name;uniqueIndex;not null"`
	Description  string    `gorm:"column:description"`
	IsRoutine    bool      `gorm:"column:is_routine;default:false"`
	IsHighRisk   bool      `gorm:"column:is_high_risk;default:false"`
	MonthlyLimit *int64    `gorm:"column:monthly_limit"`
	IsActive     bool      `gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (TransactionCategory) TableName() string {
	return "transaction_categories"
}

package category

import (
	"time"

	categoryDatamodel "github.com/dokterku/clinic-finance/internal/core/datamodel/category"
)

type Category struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	IsRoutine    bool      `json:"is_routine"`
	IsHighRisk   bool      `json:"is_high_risk"`
	MonthlyLimit *int64    `json:"monthly_limit,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (c *Category) IsActiveCategory() bool {
	return c.IsActive
}

func (c *Category) ToResponse() CategoryResponse {
	return CategoryResponse{
		Name:         c.Name,
		Description:  c.Description,
		IsRoutine:    c.IsRoutine,
		IsHighRisk:   c.IsHighRisk,
		MonthlyLimit: c.MonthlyLimit,
	}
}

func (c *Category) Activate() {
	c.IsActive = true
	c.UpdatedAt = time.Now()
}

func (c *Category) Deactivate() {
	c.IsActive = false
	c.UpdatedAt = time.Now()
}

func NewCategory(name, description string) *Category {
	now := time.Now()
	return &Category{
		Name:        name,
		Description: description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func ToDataModel(c *Category) *categoryDatamodel.TransactionCategory {
	return &categoryDatamodel.TransactionCategory{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		IsRoutine:    c.IsRoutine,
		IsHighRisk:   c.IsHighRisk,
		MonthlyLimit: c.MonthlyLimit,
		IsActive:     c.IsActive,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func FromDataModel(c *categoryDatamodel.TransactionCategory) *Category {
	return &Category{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		IsRoutine:    c.IsRoutine,
		IsHighRisk:   c.IsHighRisk,
		MonthlyLimit: c.MonthlyLimit,
		IsActive:     c.IsActive,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

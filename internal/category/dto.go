package category

type CategoryResponse struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	IsRoutine    bool   `json:"is_routine"`
	IsHighRisk   bool   `json:"is_high_risk"`
	MonthlyLimit *int64 `json:"monthly_limit,omitempty"`
}

type CategoriesResponse struct {
	Categories []CategoryResponse `json:"categories"`
}

package budget

// VerdictStatus is the outcome of an advisory budget check.
type VerdictStatus string

const (
	StatusValid   VerdictStatus = "valid"
	StatusWarning VerdictStatus = "valid_with_warning"
	StatusInvalid VerdictStatus = "invalid"
)

// Verdict reports how a candidate amount sits against the category's
// monthly limit. It is data, not an error: the caller decides whether
// an invalid verdict blocks the save.
type Verdict struct {
	Status       VerdictStatus `json:"status"`
	Category     string        `json:"category"`
	Limit        int64         `json:"limit"`
	CurrentSpent int64         `json:"current_spent"`
	Projected    int64         `json:"projected"`
	Utilization  float64       `json:"utilization"`
	Overage      int64         `json:"overage,omitempty"`
	Message      string        `json:"message,omitempty"`
}

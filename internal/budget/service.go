package budget

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dokterku/clinic-finance/internal"
)

// SpendingSource sums committed spend for a category in a calendar
// month. Rejected records do not count; pending and revision records do,
// since they represent likely-committed spend.
type SpendingSource interface {
	SpentForCategoryMonth(category string, month time.Time, excludeID *int64) (int64, error)
}

// LimitSource optionally resolves a per-category limit from the category
// registry; a nil return falls through to the configured limits.
type LimitSource interface {
	MonthlyLimitFor(category string) (*int64, error)
}

// Service computes advisory budget verdicts. It never mutates state.
type Service struct {
	spending SpendingSource
	limits   LimitSource
	cfg      internal.BudgetConfig
	logger   *slog.Logger
}

func NewService(spending SpendingSource, limits LimitSource, cfg internal.BudgetConfig, logger *slog.Logger) *Service {
	cfg.ApplyDefaults()
	return &Service{
		spending: spending,
		limits:   limits,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *Service) limitFor(category string) int64 {
	if s.limits != nil {
		limit, err := s.limits.MonthlyLimitFor(category)
		if err != nil {
			s.logger.Warn("category limit lookup failed, using configured limit",
				"category", category,
				"error", err)
		} else if limit != nil {
			// A non-positive registry limit would divide utilization by
			// zero; treat it as unset and use the configured limit.
			if *limit > 0 {
				return *limit
			}
			s.logger.Warn("category registry limit is not positive, using configured limit",
				"category", category,
				"registry_limit", *limit)
		}
	}
	return s.cfg.LimitFor(category)
}

// Check produces the verdict for adding amountIDR of spend to the
// category in the given month. excludeID omits the record being edited
// from the current-spend sum.
func (s *Service) Check(category string, amountIDR int64, month time.Time, excludeID *int64) (*Verdict, error) {
	spent, err := s.spending.SpentForCategoryMonth(category, month, excludeID)
	if err != nil {
		s.logger.Error("failed to sum category spend", "error", err, "category", category)
		return nil, err
	}

	limit := s.limitFor(category)
	projected := spent + amountIDR
	utilization := float64(projected) / float64(limit) * 100

	verdict := &Verdict{
		Category:     category,
		Limit:        limit,
		CurrentSpent: spent,
		Projected:    projected,
		Utilization:  utilization,
	}

	switch {
	case utilization > 100:
		verdict.Status = StatusInvalid
		verdict.Overage = projected - limit
		verdict.Message = fmt.Sprintf(
			"anggaran kategori %s terlampaui: limit %d, proyeksi %d (lebih %d)",
			category, limit, projected, verdict.Overage)
	case utilization > s.cfg.WarningUtilization:
		verdict.Status = StatusWarning
		verdict.Message = fmt.Sprintf(
			"anggaran kategori %s mendekati limit: %.1f%% terpakai",
			category, utilization)
	default:
		verdict.Status = StatusValid
	}

	s.logger.Debug("budget check",
		"category", category,
		"limit", limit,
		"spent", spent,
		"projected", projected,
		"utilization", utilization,
		"status", verdict.Status)

	return verdict, nil
}

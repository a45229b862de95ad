package transaction

import (
	"sort"
	"time"
)

// RiskAssessment is the additive risk score plus its bucket label.
type RiskAssessment struct {
	Score  int    `json:"score"`
	Bucket string `json:"bucket"`
}

const (
	RiskBucketHigh   = "High Risk"
	RiskBucketMedium = "Medium Risk"
	RiskBucketLow    = "Low Risk"
)

// Insights bundles the read-only analytics for a single transaction as
// served by the insights endpoint.
type Insights struct {
	TransactionID     int64          `json:"transaction_id"`
	AmountPercentile  float64        `json:"amount_percentile"`
	IsOutlier         bool           `json:"is_outlier"`
	Risk              RiskAssessment `json:"risk"`
	RequiresAttention bool           `json:"requires_attention"`
	AmountTier        string         `json:"amount_tier"`
}

// AmountPercentile ranks the transaction's amount among all records of
// the same kind. Returns the share of peers with a strictly smaller
// amount, as a percentage.
func (s *Service) AmountPercentile(tx *Transaction) (float64, error) {
	amounts, err := s.repo.AmountsForKind(tx.Kind)
	if err != nil {
		s.logger.Error("failed to load amounts for percentile", "error", err, "kind", tx.Kind)
		return 0, err
	}
	if len(amounts) == 0 {
		return 0, nil
	}

	sort.Slice(amounts, func(i, j int) bool { return amounts[i] < amounts[j] })
	below := sort.Search(len(amounts), func(i int) bool { return amounts[i] >= tx.AmountIDR })

	return float64(below) / float64(len(amounts)) * 100, nil
}

// ComputeRiskScore assigns an additive integer score: amount tiers,
// high-risk category, and a burst of same-category submissions by the
// same submitter in the trailing week.
func (s *Service) ComputeRiskScore(tx *Transaction) (*RiskAssessment, error) {
	score := 0

	switch {
	case tx.AmountIDR > 10_000_000:
		score += 3
	case tx.AmountIDR > 5_000_000:
		score += 2
	case tx.AmountIDR > 1_000_000:
		score++
	}

	if s.workflow.IsHighRiskCategory(tx.Category) {
		score++
	}

	since := time.Now().AddDate(0, 0, -7)
	recent, err := s.repo.CountRecentBySubmitter(tx.SubmittedBy, tx.Category, since)
	if err != nil {
		s.logger.Error("failed to count recent submissions", "error", err, "submitter", tx.SubmittedBy)
		return nil, err
	}
	if recent > 5 {
		score++
	}

	bucket := RiskBucketLow
	switch {
	case score >= 4:
		bucket = RiskBucketHigh
	case score >= 2:
		bucket = RiskBucketMedium
	}

	return &RiskAssessment{Score: score, Bucket: bucket}, nil
}

// RequiresAttention flags transactions a reviewer should not rubber
// stamp: very large amounts, suspicious kind/category pairings, and
// weekend-dated records.
func (s *Service) RequiresAttention(tx *Transaction) bool {
	if tx.AmountIDR > 10_000_000 {
		return true
	}
	if tx.Kind == KindIncome && tx.Category == "lainnya" && tx.AmountIDR > 1_000_000 {
		return true
	}
	if tx.Kind == KindExpense && tx.Category == "infrastruktur" && tx.AmountIDR > 5_000_000 {
		return true
	}
	return tx.IsWeekend()
}

// TransactionInsights assembles the full analytics view for one record.
func (s *Service) TransactionInsights(id, userID int64, userPermissions []string) (*Insights, error) {
	tx, err := s.GetTransactionByID(id, userID, userPermissions)
	if err != nil {
		return nil, err
	}

	percentile, err := s.AmountPercentile(tx)
	if err != nil {
		return nil, err
	}

	risk, err := s.ComputeRiskScore(tx)
	if err != nil {
		return nil, err
	}

	return &Insights{
		TransactionID:     tx.ID,
		AmountPercentile:  percentile,
		IsOutlier:         percentile > 95 || percentile < 5,
		Risk:              *risk,
		RequiresAttention: s.RequiresAttention(tx),
		AmountTier:        s.AmountTier(tx.AmountIDR),
	}, nil
}

package transaction_test

import (
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dokterku/clinic-finance/internal"
	"github.com/dokterku/clinic-finance/internal/transaction"
)

var _ = Describe("TransactionAnalytics", func() {
	var (
		svc      *transaction.Service
		mockRepo *mockTransactionRepository
		logger   *slog.Logger
	)

	// 2025-01-04 is a Saturday, 2025-01-06 a Monday.
	saturday := time.Date(2025, 1, 4, 10, 0, 0, 0, time.UTC)
	monday := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

	BeforeEach(func() {
		mockRepo = newMockTransactionRepository()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		svc = transaction.NewService(mockRepo, &mockBudgetChecker{}, &mockAuditRecorder{}, nil, internal.WorkflowConfig{}, logger)
	})

	seed := func(kind transaction.Kind, amount int64, category string, on time.Time) *transaction.Transaction {
		tx := &transaction.Transaction{
			Kind:             kind,
			AmountIDR:        amount,
			Description:      "seeded",
			Category:         category,
			OccurredOn:       on,
			SubmittedBy:      7,
			ValidationStatus: transaction.StatusPending,
		}
		Expect(mockRepo.Create(tx)).To(Succeed())
		return tx
	}

	Describe("AmountPercentile", func() {
		It("should return the share of same-kind peers strictly below", func() {
			seed(transaction.KindIncome, 100_000, "konsultasi", monday)
			seed(transaction.KindIncome, 200_000, "konsultasi", monday)
			tx := seed(transaction.KindIncome, 300_000, "konsultasi", monday)
			seed(transaction.KindIncome, 400_000, "konsultasi", monday)

			percentile, err := svc.AmountPercentile(tx)

			Expect(err).ToNot(HaveOccurred())
			Expect(percentile).To(Equal(50.0))
		})

		It("should ignore records of the other kind", func() {
			seed(transaction.KindExpense, 1_000_000, "operasional", monday)
			tx := seed(transaction.KindIncome, 300_000, "konsultasi", monday)

			percentile, err := svc.AmountPercentile(tx)

			Expect(err).ToNot(HaveOccurred())
			Expect(percentile).To(Equal(0.0), "only income peers count and none are smaller")
		})

		It("should return zero when there are no peers", func() {
			tx := &transaction.Transaction{Kind: transaction.KindIncome, AmountIDR: 300_000}

			percentile, err := svc.AmountPercentile(tx)

			Expect(err).ToNot(HaveOccurred())
			Expect(percentile).To(Equal(0.0))
		})

		It("should not count ties as below", func() {
			seed(transaction.KindIncome, 300_000, "konsultasi", monday)
			tx := seed(transaction.KindIncome, 300_000, "konsultasi", monday)

			percentile, err := svc.AmountPercentile(tx)

			Expect(err).ToNot(HaveOccurred())
			Expect(percentile).To(Equal(0.0))
		})
	})

	Describe("ComputeRiskScore", func() {
		It("should stack amount, category and burst signals", func() {
			tx := seed(transaction.KindExpense, 12_000_000, "infrastruktur", monday)
			mockRepo.countRecent = 6

			risk, err := svc.ComputeRiskScore(tx)

			Expect(err).ToNot(HaveOccurred())
			Expect(risk.Score).To(Equal(5))
			Expect(risk.Bucket).To(Equal(transaction.RiskBucketHigh))
		})

		It("should score a mid-size amount without risky category as medium", func() {
			tx := seed(transaction.KindExpense, 6_000_000, "operasional", monday)

			risk, err := svc.ComputeRiskScore(tx)

			Expect(err).ToNot(HaveOccurred())
			Expect(risk.Score).To(Equal(2))
			Expect(risk.Bucket).To(Equal(transaction.RiskBucketMedium))
		})

		It("should score a small routine record as low", func() {
			tx := seed(transaction.KindIncome, 500_000, "konsultasi", monday)

			risk, err := svc.ComputeRiskScore(tx)

			Expect(err).ToNot(HaveOccurred())
			Expect(risk.Score).To(Equal(0))
			Expect(risk.Bucket).To(Equal(transaction.RiskBucketLow))
		})

		It("should not add the burst point at exactly five recent submissions", func() {
			tx := seed(transaction.KindExpense, 500_000, "operasional", monday)
			mockRepo.countRecent = 5

			risk, err := svc.ComputeRiskScore(tx)

			Expect(err).ToNot(HaveOccurred())
			Expect(risk.Score).To(Equal(0))
		})
	})

	Describe("RequiresAttention", func() {
		It("should flag very large amounts", func() {
			tx := seed(transaction.KindIncome, 12_000_000, "konsultasi", monday)

			Expect(svc.RequiresAttention(tx)).To(BeTrue())
		})

		It("should flag large uncategorized income", func() {
			tx := seed(transaction.KindIncome, 2_000_000, "lainnya", monday)

			Expect(svc.RequiresAttention(tx)).To(BeTrue())
		})

		It("should flag large infrastructure expenses", func() {
			tx := seed(transaction.KindExpense, 6_000_000, "infrastruktur", monday)

			Expect(svc.RequiresAttention(tx)).To(BeTrue())
		})

		It("should flag weekend-dated records", func() {
			tx := seed(transaction.KindIncome, 100_000, "konsultasi", saturday)

			Expect(svc.RequiresAttention(tx)).To(BeTrue())
		})

		It("should pass an ordinary weekday record", func() {
			tx := seed(transaction.KindIncome, 100_000, "konsultasi", monday)

			Expect(svc.RequiresAttention(tx)).To(BeFalse())
		})
	})

	Describe("TransactionInsights", func() {
		It("should assemble the full view for a validator", func() {
			for i := int64(1); i <= 20; i++ {
				seed(transaction.KindExpense, i*100_000, "operasional", monday)
			}
			tx := seed(transaction.KindExpense, 12_000_000, "infrastruktur", monday)

			insights, err := svc.TransactionInsights(tx.ID, 2, bendaharaPerms)

			Expect(err).ToNot(HaveOccurred())
			Expect(insights.TransactionID).To(Equal(tx.ID))
			Expect(insights.AmountPercentile).To(BeNumerically(">", 95))
			Expect(insights.IsOutlier).To(BeTrue())
			Expect(insights.Risk.Bucket).To(Equal(transaction.RiskBucketHigh))
			Expect(insights.RequiresAttention).To(BeTrue())
			Expect(insights.AmountTier).To(Equal("Ultra High Value"))
		})

		It("should deny a petugas reading another user's insights", func() {
			tx := seed(transaction.KindExpense, 100_000, "operasional", monday)

			_, err := svc.TransactionInsights(tx.ID, 99, petugasPerms)

			Expect(err).To(Equal(internal.ErrInsufficientPermission))
		})
	})
})

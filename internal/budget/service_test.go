package budget_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dokterku/clinic-finance/internal"
	"github.com/dokterku/clinic-finance/internal/budget"
)

func TestBudgetService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Budget Service Suite")
}

// Mock spending source for testing
type mockSpendingSource struct {
	spent      map[string]int64
	spentError error
	excludeID  *int64
}

func newMockSpendingSource() *mockSpendingSource {
	return &mockSpendingSource{spent: make(map[string]int64)}
}

func (m *mockSpendingSource) SpentForCategoryMonth(category string, month time.Time, excludeID *int64) (int64, error) {
	if m.spentError != nil {
		return 0, m.spentError
	}
	m.excludeID = excludeID
	return m.spent[category], nil
}

// Mock limit source for testing
type mockLimitSource struct {
	limits     map[string]int64
	limitError error
}

func newMockLimitSource() *mockLimitSource {
	return &mockLimitSource{limits: make(map[string]int64)}
}

func (m *mockLimitSource) MonthlyLimitFor(category string) (*int64, error) {
	if m.limitError != nil {
		return nil, m.limitError
	}
	if limit, ok := m.limits[category]; ok {
		return &limit, nil
	}
	return nil, nil
}

var _ = Describe("BudgetService", func() {
	var (
		svc          *budget.Service
		mockSpending *mockSpendingSource
		mockLimits   *mockLimitSource
		logger       *slog.Logger
		month        time.Time
	)

	BeforeEach(func() {
		mockSpending = newMockSpendingSource()
		mockLimits = newMockLimitSource()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		svc = budget.NewService(mockSpending, mockLimits, internal.BudgetConfig{}, logger)
		month = time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	})

	Describe("Check", func() {
		Context("when the projection stays within the limit", func() {
			It("should return a valid verdict", func() {
				mockSpending.spent["operasional"] = 3_000_000

				verdict, err := svc.Check("operasional", 2_000_000, month, nil)

				Expect(err).ToNot(HaveOccurred())
				Expect(verdict.Status).To(Equal(budget.StatusValid))
				Expect(verdict.Limit).To(Equal(int64(10_000_000)))
				Expect(verdict.CurrentSpent).To(Equal(int64(3_000_000)))
				Expect(verdict.Projected).To(Equal(int64(5_000_000)))
				Expect(verdict.Utilization).To(Equal(50.0))
				Expect(verdict.Overage).To(Equal(int64(0)))
				Expect(verdict.Message).To(BeEmpty())
			})

			It("should stay valid at exactly the warning utilization", func() {
				mockSpending.spent["operasional"] = 5_000_000

				verdict, err := svc.Check("operasional", 3_000_000, month, nil)

				Expect(err).ToNot(HaveOccurred())
				Expect(verdict.Utilization).To(Equal(80.0))
				Expect(verdict.Status).To(Equal(budget.StatusValid), "warning triggers strictly above the mark")
			})
		})

		Context("when the projection passes the warning mark", func() {
			It("should warn without blocking", func() {
				mockSpending.spent["operasional"] = 5_000_000

				verdict, err := svc.Check("operasional", 3_100_000, month, nil)

				Expect(err).ToNot(HaveOccurred())
				Expect(verdict.Status).To(Equal(budget.StatusWarning))
				Expect(verdict.Message).To(ContainSubstring("mendekati limit"))
			})

			It("should stay a warning at exactly the limit", func() {
				mockSpending.spent["operasional"] = 9_000_000

				verdict, err := svc.Check("operasional", 1_000_000, month, nil)

				Expect(err).ToNot(HaveOccurred())
				Expect(verdict.Utilization).To(Equal(100.0))
				Expect(verdict.Status).To(Equal(budget.StatusWarning))
				Expect(verdict.Overage).To(Equal(int64(0)))
			})
		})

		Context("when the projection exceeds the limit", func() {
			It("should return an invalid verdict with the overage", func() {
				mockSpending.spent["operasional"] = 9_000_000

				verdict, err := svc.Check("operasional", 2_000_000, month, nil)

				Expect(err).ToNot(HaveOccurred())
				Expect(verdict.Status).To(Equal(budget.StatusInvalid))
				Expect(verdict.Overage).To(Equal(int64(1_000_000)))
				Expect(verdict.Message).To(ContainSubstring("terlampaui"))
			})
		})

		Context("limit resolution", func() {
			It("should prefer the registry limit over the configured one", func() {
				mockLimits.limits["obat"] = 2_000_000
				mockSpending.spent["obat"] = 1_500_000

				verdict, err := svc.Check("obat", 1_000_000, month, nil)

				Expect(err).ToNot(HaveOccurred())
				Expect(verdict.Limit).To(Equal(int64(2_000_000)))
				Expect(verdict.Status).To(Equal(budget.StatusInvalid))
			})

			It("should use the configured per-category limit when set", func() {
				svc = budget.NewService(mockSpending, mockLimits, internal.BudgetConfig{
					CategoryLimits: map[string]int64{"infrastruktur": 20_000_000},
				}, logger)

				verdict, err := svc.Check("infrastruktur", 1_000_000, month, nil)

				Expect(err).ToNot(HaveOccurred())
				Expect(verdict.Limit).To(Equal(int64(20_000_000)))
			})

			It("should ignore a zero registry limit instead of dividing by it", func() {
				mockLimits.limits["obat"] = 0
				mockSpending.spent["obat"] = 1_000_000

				verdict, err := svc.Check("obat", 1_000_000, month, nil)

				Expect(err).ToNot(HaveOccurred())
				Expect(verdict.Limit).To(Equal(int64(10_000_000)))
				Expect(verdict.Status).To(Equal(budget.StatusValid))
				Expect(verdict.Utilization).To(BeNumerically("~", 20.0, 0.01))
			})

			It("should fall back to the configured limit when the registry lookup fails", func() {
				mockLimits.limitError = errors.New("registry unavailable")
				mockSpending.spent["operasional"] = 1_000_000

				verdict, err := svc.Check("operasional", 1_000_000, month, nil)

				Expect(err).ToNot(HaveOccurred())
				Expect(verdict.Limit).To(Equal(int64(10_000_000)))
				Expect(verdict.Status).To(Equal(budget.StatusValid))
			})
		})

		Context("when the spend sum fails", func() {
			It("should surface the error", func() {
				mockSpending.spentError = errors.New("db down")

				_, err := svc.Check("operasional", 1_000_000, month, nil)

				Expect(err).To(HaveOccurred())
			})
		})

		It("should pass the exclude id through to the spending source", func() {
			excludeID := int64(42)

			_, err := svc.Check("operasional", 1_000_000, month, &excludeID)

			Expect(err).ToNot(HaveOccurred())
			Expect(mockSpending.excludeID).ToNot(BeNil())
			Expect(*mockSpending.excludeID).To(Equal(int64(42)))
		})
	})
})

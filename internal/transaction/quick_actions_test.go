package transaction_test

import (
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dokterku/clinic-finance/internal"
	"github.com/dokterku/clinic-finance/internal/transaction"
)

var errUpdateBroken = errors.New("update failed")

var _ = Describe("QuickActions", func() {
	var (
		svc       *transaction.Service
		mockRepo  *mockTransactionRepository
		mockAudit *mockAuditRecorder
		logger    *slog.Logger
	)

	newService := func(workflow internal.WorkflowConfig) *transaction.Service {
		return transaction.NewService(mockRepo, &mockBudgetChecker{}, mockAudit, nil, workflow, logger)
	}

	BeforeEach(func() {
		mockRepo = newMockTransactionRepository()
		mockAudit = &mockAuditRecorder{}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		svc = newService(internal.WorkflowConfig{})
	})

	seed := func(kind transaction.Kind, amount int64, category string) *transaction.Transaction {
		tx := &transaction.Transaction{
			Kind:             kind,
			AmountIDR:        amount,
			Description:      "seeded",
			Category:         category,
			OccurredOn:       time.Now().AddDate(0, 0, -1),
			SubmittedBy:      7,
			ValidationStatus: transaction.StatusPending,
		}
		Expect(mockRepo.Create(tx)).To(Succeed())
		return tx
	}

	Describe("RunQuickAction", func() {
		Context("with an unknown rule", func() {
			It("should fail fast", func() {
				_, err := svc.RunQuickAction("approve_everything", transaction.ScopeBoth, 2, bendaharaPerms)

				Expect(err).To(Equal(internal.ErrUnknownQuickAction))
			})
		})

		Context("with an invalid scope", func() {
			It("should fail validation", func() {
				_, err := svc.RunQuickAction(transaction.QuickActionApproveLowValue, transaction.Scope("everything"), 2, bendaharaPerms)

				Expect(err).To(HaveOccurred())
			})
		})

		Context("without a validation role", func() {
			It("should deny the run before touching any record", func() {
				seed(transaction.KindExpense, 100_000, "operasional")

				_, err := svc.RunQuickAction(transaction.QuickActionApproveLowValue, transaction.ScopeBoth, 7, petugasPerms)

				Expect(err).To(Equal(internal.ErrInsufficientPermission))
				for _, tx := range mockRepo.transactions {
					Expect(tx.ValidationStatus).To(Equal(transaction.StatusPending))
				}
			})
		})
	})

	Describe("approve_low_value", func() {
		It("should approve only records below the low value threshold", func() {
			small := seed(transaction.KindIncome, 200_000, "konsultasi")
			exact := seed(transaction.KindIncome, 500_000, "konsultasi")
			big := seed(transaction.KindExpense, 2_000_000, "operasional")

			result, err := svc.RunQuickAction(transaction.QuickActionApproveLowValue, transaction.ScopeBoth, 2, bendaharaPerms)

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Affected).To(Equal(1))
			Expect(result.Skipped).To(Equal(0))
			Expect(mockRepo.transactions[small.ID].ValidationStatus).To(Equal(transaction.StatusApproved))
			Expect(mockRepo.transactions[exact.ID].ValidationStatus).To(Equal(transaction.StatusPending), "threshold is exclusive")
			Expect(mockRepo.transactions[big.ID].ValidationStatus).To(Equal(transaction.StatusPending))
		})

		It("should respect the scope", func() {
			income := seed(transaction.KindIncome, 200_000, "konsultasi")
			expense := seed(transaction.KindExpense, 200_000, "operasional")

			result, err := svc.RunQuickAction(transaction.QuickActionApproveLowValue, transaction.ScopeExpense, 2, bendaharaPerms)

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Affected).To(Equal(1))
			Expect(mockRepo.transactions[income.ID].ValidationStatus).To(Equal(transaction.StatusPending))
			Expect(mockRepo.transactions[expense.ID].ValidationStatus).To(Equal(transaction.StatusApproved))
		})

		It("should affect nothing on a second run", func() {
			seed(transaction.KindIncome, 200_000, "konsultasi")

			first, err := svc.RunQuickAction(transaction.QuickActionApproveLowValue, transaction.ScopeBoth, 2, bendaharaPerms)
			Expect(err).ToNot(HaveOccurred())
			Expect(first.Affected).To(Equal(1))

			second, err := svc.RunQuickAction(transaction.QuickActionApproveLowValue, transaction.ScopeBoth, 2, bendaharaPerms)
			Expect(err).ToNot(HaveOccurred())
			Expect(second.Affected).To(Equal(0))
		})

		It("should write a per-record audit entry and a run summary", func() {
			tx := seed(transaction.KindIncome, 200_000, "konsultasi")

			_, err := svc.RunQuickAction(transaction.QuickActionApproveLowValue, transaction.ScopeBoth, 2, bendaharaPerms)

			Expect(err).ToNot(HaveOccurred())
			Expect(mockAudit.records).To(HaveLen(2))
			Expect(mockAudit.records[0].txID).To(Equal(tx.ID))
			Expect(mockAudit.records[0].note).To(ContainSubstring("quick_action:approve_low_value"))
			Expect(mockAudit.records[1].txID).To(Equal(int64(0)))
			Expect(mockAudit.records[1].action).To(Equal("quick_action:approve_low_value"))
		})
	})

	Describe("approve_routine", func() {
		It("should approve routine categories under the routine cap", func() {
			routine := seed(transaction.KindExpense, 600_000, "operasional")
			tooBig := seed(transaction.KindExpense, 1_200_000, "operasional")
			offCategory := seed(transaction.KindExpense, 600_000, "infrastruktur")

			result, err := svc.RunQuickAction(transaction.QuickActionApproveRoutine, transaction.ScopeBoth, 2, bendaharaPerms)

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Affected).To(Equal(1))
			Expect(result.Skipped).To(Equal(0))
			Expect(mockRepo.transactions[routine.ID].ValidationStatus).To(Equal(transaction.StatusApproved))
			Expect(mockRepo.transactions[routine.ID].ValidationNote).To(ContainSubstring("routine"))
			Expect(mockRepo.transactions[tooBig.ID].ValidationStatus).To(Equal(transaction.StatusPending))
			Expect(mockRepo.transactions[offCategory.ID].ValidationStatus).To(Equal(transaction.StatusPending))
		})

		It("should honor configured routine categories", func() {
			svc = newService(internal.WorkflowConfig{RoutineCategories: []string{"obat"}})
			obat := seed(transaction.KindExpense, 600_000, "obat")
			operasional := seed(transaction.KindExpense, 600_000, "operasional")

			result, err := svc.RunQuickAction(transaction.QuickActionApproveRoutine, transaction.ScopeBoth, 2, bendaharaPerms)

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Affected).To(Equal(1))
			Expect(mockRepo.transactions[obat.ID].ValidationStatus).To(Equal(transaction.StatusApproved))
			Expect(mockRepo.transactions[operasional.ID].ValidationStatus).To(Equal(transaction.StatusPending))
		})
	})

	Describe("flag_high_value", func() {
		It("should flag records above the high value threshold without changing status", func() {
			big := seed(transaction.KindExpense, 6_000_000, "infrastruktur")
			small := seed(transaction.KindExpense, 300_000, "operasional")

			result, err := svc.RunQuickAction(transaction.QuickActionFlagHighValue, transaction.ScopeBoth, 2, bendaharaPerms)

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Affected).To(Equal(1))
			Expect(mockRepo.transactions[big.ID].ValidationStatus).To(Equal(transaction.StatusPending))
			Expect(mockRepo.transactions[big.ID].ValidationNote).To(ContainSubstring("FLAG: high value"))
			Expect(mockRepo.transactions[small.ID].ValidationNote).To(BeEmpty())
		})

		It("should not require the manager amount gate", func() {
			big := seed(transaction.KindExpense, 8_000_000, "infrastruktur")

			result, err := svc.RunQuickAction(transaction.QuickActionFlagHighValue, transaction.ScopeBoth, 2, bendaharaPerms)

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Affected).To(Equal(1))
			Expect(mockRepo.transactions[big.ID].ValidationNote).ToNot(BeEmpty())
		})

		It("should append a second flag on re-run", func() {
			big := seed(transaction.KindExpense, 6_000_000, "infrastruktur")

			_, err := svc.RunQuickAction(transaction.QuickActionFlagHighValue, transaction.ScopeBoth, 2, bendaharaPerms)
			Expect(err).ToNot(HaveOccurred())
			_, err = svc.RunQuickAction(transaction.QuickActionFlagHighValue, transaction.ScopeBoth, 2, bendaharaPerms)
			Expect(err).ToNot(HaveOccurred())

			Expect(mockRepo.transactions[big.ID].NoteLines()).To(HaveLen(2))
		})
	})

	Describe("categorize_by_amount", func() {
		It("should label every pending record with its tier", func() {
			ultra := seed(transaction.KindExpense, 12_000_000, "infrastruktur")
			high := seed(transaction.KindExpense, 6_000_000, "infrastruktur")
			medium := seed(transaction.KindExpense, 2_000_000, "operasional")
			standard := seed(transaction.KindIncome, 200_000, "konsultasi")

			result, err := svc.RunQuickAction(transaction.QuickActionCategorizeByValue, transaction.ScopeBoth, 2, bendaharaPerms)

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Affected).To(Equal(4))
			Expect(mockRepo.transactions[ultra.ID].ValidationNote).To(Equal("Tier: Ultra High Value"))
			Expect(mockRepo.transactions[high.ID].ValidationNote).To(Equal("Tier: High Value"))
			Expect(mockRepo.transactions[medium.ID].ValidationNote).To(Equal("Tier: Medium Value"))
			Expect(mockRepo.transactions[standard.ID].ValidationNote).To(Equal("Tier: Standard Value"))
		})
	})

	Describe("batch modes", func() {
		Context("in best effort mode", func() {
			It("should count update failures as skipped and keep going", func() {
				seed(transaction.KindIncome, 200_000, "konsultasi")
				seed(transaction.KindIncome, 300_000, "konsultasi")
				mockRepo.updateError = errUpdateBroken

				result, err := svc.RunQuickAction(transaction.QuickActionApproveLowValue, transaction.ScopeBoth, 2, bendaharaPerms)

				Expect(err).ToNot(HaveOccurred())
				Expect(result.Affected).To(Equal(0))
				Expect(result.Skipped).To(Equal(2))
			})
		})

		Context("in atomic mode", func() {
			It("should fail the whole run on the first error", func() {
				svc = newService(internal.WorkflowConfig{BatchMode: internal.BatchModeAtomic})
				seed(transaction.KindIncome, 200_000, "konsultasi")
				mockRepo.updateError = errUpdateBroken

				_, err := svc.RunQuickAction(transaction.QuickActionApproveLowValue, transaction.ScopeBoth, 2, bendaharaPerms)

				Expect(err).To(HaveOccurred())
			})

			It("should write no audit entries when the run rolls back", func() {
				svc = newService(internal.WorkflowConfig{BatchMode: internal.BatchModeAtomic})
				seed(transaction.KindIncome, 200_000, "konsultasi")
				seed(transaction.KindIncome, 300_000, "konsultasi")
				mockRepo.updateError = errUpdateBroken

				_, err := svc.RunQuickAction(transaction.QuickActionApproveLowValue, transaction.ScopeBoth, 2, bendaharaPerms)

				Expect(err).To(HaveOccurred())
				Expect(mockAudit.records).To(BeEmpty())
			})

			It("should record per-record entries after the run commits", func() {
				svc = newService(internal.WorkflowConfig{BatchMode: internal.BatchModeAtomic})
				tx := seed(transaction.KindIncome, 200_000, "konsultasi")

				result, err := svc.RunQuickAction(transaction.QuickActionApproveLowValue, transaction.ScopeBoth, 2, bendaharaPerms)

				Expect(err).ToNot(HaveOccurred())
				Expect(result.Affected).To(Equal(1))
				Expect(mockAudit.records).To(HaveLen(2))
				Expect(mockAudit.records[0].txID).To(Equal(tx.ID))
				Expect(mockAudit.records[0].action).To(Equal("approve"))
				Expect(mockAudit.records[1].txID).To(Equal(int64(0)))
				Expect(mockAudit.records[1].action).To(Equal("quick_action:approve_low_value"))
			})
		})
	})

	Describe("AmountTier", func() {
		It("should bucket amounts against the configured thresholds", func() {
			Expect(svc.AmountTier(15_000_000)).To(Equal("Ultra High Value"))
			Expect(svc.AmountTier(10_000_000)).To(Equal("High Value"))
			Expect(svc.AmountTier(5_000_000)).To(Equal("Medium Value"))
			Expect(svc.AmountTier(1_000_000)).To(Equal("Standard Value"))
			Expect(svc.AmountTier(0)).To(Equal("Standard Value"))
		})
	})
})

package transaction

import (
	"github.com/dokterku/clinic-finance/internal"
)

// Scope restricts a quick action to one transaction kind or both.
type Scope string

const (
	ScopeIncome  Scope = "income"
	ScopeExpense Scope = "expense"
	ScopeBoth    Scope = "both"
)

func (s Scope) Valid() bool {
	return s == ScopeIncome || s == ScopeExpense || s == ScopeBoth
}

func (s Scope) Includes(kind Kind) bool {
	switch s {
	case ScopeBoth:
		return true
	case ScopeIncome:
		return kind == KindIncome
	case ScopeExpense:
		return kind == KindExpense
	}
	return false
}

// Quick action rule names.
const (
	QuickActionApproveLowValue   = "approve_low_value"
	QuickActionApproveRoutine    = "approve_routine"
	QuickActionFlagHighValue     = "flag_high_value"
	QuickActionCategorizeByValue = "categorize_by_amount"
)

// QuickActionResult reports how a batch run went. With best-effort
// semantics Skipped counts the records whose update failed.
type QuickActionResult struct {
	Rule     string `json:"rule"`
	Affected int    `json:"affected"`
	Skipped  int    `json:"skipped"`
}

// Tier notes appended by categorize_by_amount.
const (
	tierUltraHighValue = "Ultra High Value"
	tierHighValue      = "High Value"
	tierMediumValue    = "Medium Value"
	tierStandardValue  = "Standard Value"
)

// AmountTier buckets an amount the way the categorize quick action does.
func (s *Service) AmountTier(amountIDR int64) string {
	switch {
	case amountIDR > 10_000_000:
		return tierUltraHighValue
	case amountIDR > s.workflow.HighValueThreshold:
		return tierHighValue
	case amountIDR > s.workflow.RoutineMaxAmount:
		return tierMediumValue
	default:
		return tierStandardValue
	}
}

// auditEntry is a deferred audit write. Entries are buffered during a
// batch run and recorded only after it succeeds, so an atomic rollback
// leaves no audit rows behind.
type auditEntry struct {
	txID     int64
	action   string
	from, to Status
	note     string
}

// RunQuickAction applies one deterministic batch rule over the pending
// set. Only validators may run quick actions; the amount-tier gate is
// applied per record, so a bendahara-level run simply skips high-value
// records instead of failing the batch.
func (s *Service) RunQuickAction(rule string, scope Scope, actorID int64, userPermissions []string) (*QuickActionResult, error) {
	if !hasAnyPermission(userPermissions, validatorPerms) {
		s.logger.Warn("quick action denied: no validation role",
			"rule", rule,
			"actor_id", actorID)
		return nil, internal.ErrInsufficientPermission
	}
	if !scope.Valid() {
		return nil, internal.NewValidationError("scope must be 'income', 'expense' or 'both'", internal.ErrCodeValidationFailed)
	}

	var apply func(repo Repository, tx *Transaction) (bool, *auditEntry, error)
	switch rule {
	case QuickActionApproveLowValue:
		apply = s.applyApproveLowValue(actorID, userPermissions)
	case QuickActionApproveRoutine:
		apply = s.applyApproveRoutine(actorID, userPermissions)
	case QuickActionFlagHighValue:
		apply = s.applyFlagHighValue
	case QuickActionCategorizeByValue:
		apply = s.applyCategorizeByAmount
	default:
		return nil, internal.ErrUnknownQuickAction
	}

	result := &QuickActionResult{Rule: rule}
	var entries []*auditEntry

	run := func(repo Repository) error {
		pending, err := repo.ListPending(scope)
		if err != nil {
			return err
		}
		for _, tx := range pending {
			touched, entry, err := apply(repo, tx)
			if err != nil {
				if s.workflow.BatchMode == internal.BatchModeAtomic {
					return err
				}
				s.logger.Warn("quick action skipped record",
					"rule", rule,
					"transaction_id", tx.ID,
					"error", err)
				result.Skipped++
				continue
			}
			if touched {
				result.Affected++
			}
			if entry != nil {
				entries = append(entries, entry)
			}
		}
		return nil
	}

	var err error
	if s.workflow.BatchMode == internal.BatchModeAtomic {
		err = s.repo.InTransaction(run)
	} else {
		err = run(s.repo)
	}
	if err != nil {
		s.logger.Error("quick action failed", "rule", rule, "error", err)
		return nil, err
	}

	for _, e := range entries {
		s.audit.Record(e.txID, actorID, e.action, e.from, e.to, e.note)
	}
	s.audit.Record(0, actorID, "quick_action:"+rule, "", "", "")
	s.logger.Info("quick action completed",
		"rule", rule,
		"scope", scope,
		"affected", result.Affected,
		"skipped", result.Skipped)

	return result, nil
}

// applyApproveLowValue auto-approves pending records below the low-value
// threshold. Safe to re-run: already-approved records are no longer in
// the pending set.
func (s *Service) applyApproveLowValue(actorID int64, userPermissions []string) func(Repository, *Transaction) (bool, *auditEntry, error) {
	return func(repo Repository, tx *Transaction) (bool, *auditEntry, error) {
		if tx.AmountIDR >= s.workflow.LowValueThreshold {
			return false, nil, nil
		}
		if err := s.validationGate(actorID, userPermissions, tx.AmountIDR); err != nil {
			return false, nil, err
		}
		tx.Approve(actorID, "Auto-approved: low value")
		if err := repo.Update(tx); err != nil {
			return false, nil, err
		}
		entry := &auditEntry{txID: tx.ID, action: "approve", from: StatusPending, to: StatusApproved, note: "quick_action:" + QuickActionApproveLowValue}
		return true, entry, nil
	}
}

// applyApproveRoutine auto-approves pending records in a routine
// category below the routine amount cap.
func (s *Service) applyApproveRoutine(actorID int64, userPermissions []string) func(Repository, *Transaction) (bool, *auditEntry, error) {
	return func(repo Repository, tx *Transaction) (bool, *auditEntry, error) {
		if !s.workflow.IsRoutineCategory(tx.Category) || tx.AmountIDR >= s.workflow.RoutineMaxAmount {
			return false, nil, nil
		}
		if err := s.validationGate(actorID, userPermissions, tx.AmountIDR); err != nil {
			return false, nil, err
		}
		tx.Approve(actorID, "Auto-approved: routine category")
		if err := repo.Update(tx); err != nil {
			return false, nil, err
		}
		entry := &auditEntry{txID: tx.ID, action: "approve", from: StatusPending, to: StatusApproved, note: "quick_action:" + QuickActionApproveRoutine}
		return true, entry, nil
	}
}

// applyFlagHighValue appends a flag note to pending high-value records
// without changing status. Re-runs append another flag; the note log is
// an audit trail, not a set.
func (s *Service) applyFlagHighValue(repo Repository, tx *Transaction) (bool, *auditEntry, error) {
	if tx.AmountIDR <= s.workflow.HighValueThreshold {
		return false, nil, nil
	}
	tx.AppendNote("FLAG: high value transaction, needs manager review")
	if err := repo.Update(tx); err != nil {
		return false, nil, err
	}
	return true, nil, nil
}

// applyCategorizeByAmount appends a tier label note to every pending
// record; status is never touched.
func (s *Service) applyCategorizeByAmount(repo Repository, tx *Transaction) (bool, *auditEntry, error) {
	tx.AppendNote("Tier: " + s.AmountTier(tx.AmountIDR))
	if err := repo.Update(tx); err != nil {
		return false, nil, err
	}
	return true, nil, nil
}

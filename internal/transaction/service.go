package transaction

import (
	"context"
	"log/slog"
	"time"

	"github.com/dokterku/clinic-finance/internal"
	"github.com/dokterku/clinic-finance/internal/budget"
	"github.com/dokterku/clinic-finance/internal/core/events"
)

// Repository defines the data access methods for transactions.
type Repository interface {
	Create(tx *Transaction) error
	GetByID(id int64) (*Transaction, error)
	List(filter ListFilter) ([]*Transaction, error)
	ListPending(scope Scope) ([]*Transaction, error)
	Update(tx *Transaction) error
	AmountsForKind(kind Kind) ([]int64, error)
	CountRecentBySubmitter(submitterID int64, category string, since time.Time) (int64, error)
	InTransaction(fn func(Repository) error) error
}

// AuditRecorder records every workflow mutation. Implementations swallow
// their own errors; a failed audit write must not roll back the mutation.
type AuditRecorder interface {
	Record(txID, actorID int64, action string, fromStatus, toStatus Status, note string)
}

// BudgetChecker produces the advisory budget verdict consulted before an
// expense is created.
type BudgetChecker interface {
	Check(category string, amountIDR int64, month time.Time, excludeID *int64) (*budget.Verdict, error)
}

// Service is the validation workflow engine: it enforces the lifecycle
// of a transaction record and the role and amount gates around it.
type Service struct {
	repo     Repository
	budgets  BudgetChecker
	audit    AuditRecorder
	bus      *events.EventBus
	workflow internal.WorkflowConfig
	logger   *slog.Logger
}

func NewService(repo Repository, budgets BudgetChecker, audit AuditRecorder, bus *events.EventBus, workflow internal.WorkflowConfig, logger *slog.Logger) *Service {
	workflow.ApplyDefaults()
	return &Service{
		repo:     repo,
		budgets:  budgets,
		audit:    audit,
		bus:      bus,
		workflow: workflow,
		logger:   logger,
	}
}

// Validator permission sets. Bendahara-level users carry
// validate_transactions; manajer-level users additionally carry
// approve_high_value (or the blanket manager/admin permissions).
var (
	validatorPerms = []string{"validate_transactions", "manager", "admin"}
	managerPerms   = []string{"approve_high_value", "manager", "admin"}
)

func hasAnyPermission(userPermissions, required []string) bool {
	for _, userPerm := range userPermissions {
		for _, requiredPerm := range required {
			if userPerm == requiredPerm {
				return true
			}
		}
	}
	return false
}

// validationGate applies the role gate and the amount-tier gate in that
// order, so a caller with no validation role never sees the tier error.
func (s *Service) validationGate(actorID int64, userPermissions []string, amountIDR int64) error {
	if !hasAnyPermission(userPermissions, validatorPerms) {
		s.logger.Warn("validation denied: no validation role",
			"actor_id", actorID,
			"permissions", userPermissions)
		return internal.ErrInsufficientPermission
	}
	if amountIDR > s.workflow.HighValueThreshold && !hasAnyPermission(userPermissions, managerPerms) {
		s.logger.Warn("validation denied: amount requires manager approval",
			"actor_id", actorID,
			"amount", amountIDR,
			"threshold", s.workflow.HighValueThreshold)
		return internal.ErrNeedsManagerApproval
	}
	return nil
}

// CreateTransaction submits a new income or expense record. Expenses get
// an advisory budget verdict; an invalid verdict blocks the save unless
// the caller set Force.
func (s *Service) CreateTransaction(userID int64, dto CreateTransactionDTO) (*Transaction, *budget.Verdict, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("transaction validation failed", "error", err, "user_id", userID)
		return nil, nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	var verdict *budget.Verdict
	if dto.Kind == KindExpense && s.budgets != nil {
		v, err := s.budgets.Check(dto.Category, dto.AmountIDR, dto.OccurredOn, nil)
		if err != nil {
			s.logger.Error("budget check failed", "error", err, "category", dto.Category)
			return nil, nil, err
		}
		verdict = v
		if v.Status == budget.StatusInvalid && !dto.Force {
			s.logger.Warn("expense blocked by budget verdict",
				"category", dto.Category,
				"amount", dto.AmountIDR,
				"overage", v.Overage)
			return nil, verdict, internal.NewValidationError(v.Message, internal.ErrCodeInvalidAmount).WithDetails(v)
		}
	}

	now := time.Now()
	tx := &Transaction{
		Kind:             dto.Kind,
		AmountIDR:        dto.AmountIDR,
		Description:      dto.Description,
		Category:         dto.Category,
		OccurredOn:       dto.OccurredOn,
		SubmittedBy:      userID,
		ValidationStatus: StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Create(tx); err != nil {
		s.logger.Error("failed to create transaction", "error", err, "user_id", userID)
		return nil, verdict, err
	}

	s.logger.Info("transaction created",
		"transaction_id", tx.ID,
		"kind", tx.Kind,
		"user_id", userID,
		"amount", tx.AmountIDR)

	return tx, verdict, nil
}

// GetTransactionByID retrieves a transaction with access control: the
// submitter always sees their own record, validators see everything.
func (s *Service) GetTransactionByID(id, userID int64, userPermissions []string) (*Transaction, error) {
	tx, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get transaction", "error", err, "transaction_id", id)
		return nil, internal.ErrTransactionNotFound
	}

	if tx.SubmittedBy != userID && !hasAnyPermission(userPermissions, validatorPerms) {
		s.logger.Warn("unauthorized access to transaction",
			"transaction_id", id,
			"user_id", userID,
			"submitted_by", tx.SubmittedBy)
		return nil, internal.ErrInsufficientPermission
	}

	return tx, nil
}

// ListTransactions lists records for the review screens. Non-validators
// are scoped down to their own submissions regardless of the filter.
func (s *Service) ListTransactions(filter ListFilter, userID int64, userPermissions []string) ([]*Transaction, error) {
	filter.Defaults()

	if !hasAnyPermission(userPermissions, validatorPerms) {
		own := filter
		own.SubmittedBy = &userID
		filter = own
	}

	txs, err := s.repo.List(filter)
	if err != nil {
		s.logger.Error("failed to list transactions", "error", err)
		return nil, err
	}
	return txs, nil
}

// Approve moves a pending transaction to approved.
func (s *Service) Approve(txID, actorID int64, note string, userPermissions []string) (*Transaction, error) {
	tx, err := s.repo.GetByID(txID)
	if err != nil {
		s.logger.Error("transaction not found for approval", "error", err, "transaction_id", txID)
		return nil, internal.ErrTransactionNotFound
	}

	if err := s.validationGate(actorID, userPermissions, tx.AmountIDR); err != nil {
		return nil, err
	}

	if !tx.CanBeValidated() {
		s.logger.Warn("cannot approve transaction in current status",
			"transaction_id", txID,
			"current_status", tx.ValidationStatus)
		return nil, internal.ErrInvalidStateTransition
	}

	tx.Approve(actorID, note)
	if err := s.repo.Update(tx); err != nil {
		s.logger.Error("failed to persist approval", "error", err, "transaction_id", txID)
		return nil, err
	}

	s.audit.Record(txID, actorID, "approve", StatusPending, StatusApproved, note)
	s.publish(events.NewTransactionValidatedEvent(events.EventTypeTransactionApproved, txID, tx.AmountIDR, actorID, tx.SubmittedBy, string(tx.Kind)))

	s.logger.Info("transaction approved",
		"transaction_id", txID,
		"actor_id", actorID,
		"amount", tx.AmountIDR)

	return tx, nil
}

// Reject moves a pending transaction to rejected; a reason is mandatory.
func (s *Service) Reject(txID, actorID int64, reason string, userPermissions []string) (*Transaction, error) {
	if reason == "" {
		return nil, internal.ErrReasonRequired
	}

	tx, err := s.repo.GetByID(txID)
	if err != nil {
		s.logger.Error("transaction not found for rejection", "error", err, "transaction_id", txID)
		return nil, internal.ErrTransactionNotFound
	}

	if err := s.validationGate(actorID, userPermissions, tx.AmountIDR); err != nil {
		return nil, err
	}

	if !tx.CanBeValidated() {
		s.logger.Warn("cannot reject transaction in current status",
			"transaction_id", txID,
			"current_status", tx.ValidationStatus)
		return nil, internal.ErrInvalidStateTransition
	}

	tx.Reject(actorID, reason)
	if err := s.repo.Update(tx); err != nil {
		s.logger.Error("failed to persist rejection", "error", err, "transaction_id", txID)
		return nil, err
	}

	s.audit.Record(txID, actorID, "reject", StatusPending, StatusRejected, reason)
	s.publish(events.NewTransactionValidatedEvent(events.EventTypeTransactionRejected, txID, tx.AmountIDR, actorID, tx.SubmittedBy, string(tx.Kind)))

	s.logger.Info("transaction rejected",
		"transaction_id", txID,
		"actor_id", actorID,
		"reason", reason)

	return tx, nil
}

// RequestRevision moves a pending transaction to needs_revision; notes
// are mandatory.
func (s *Service) RequestRevision(txID, actorID int64, notes string, userPermissions []string) (*Transaction, error) {
	if notes == "" {
		return nil, internal.ErrReasonRequired
	}

	tx, err := s.repo.GetByID(txID)
	if err != nil {
		s.logger.Error("transaction not found for revision request", "error", err, "transaction_id", txID)
		return nil, internal.ErrTransactionNotFound
	}

	if err := s.validationGate(actorID, userPermissions, tx.AmountIDR); err != nil {
		return nil, err
	}

	if !tx.CanBeValidated() {
		s.logger.Warn("cannot request revision in current status",
			"transaction_id", txID,
			"current_status", tx.ValidationStatus)
		return nil, internal.ErrInvalidStateTransition
	}

	tx.RequestRevision(actorID, notes)
	if err := s.repo.Update(tx); err != nil {
		s.logger.Error("failed to persist revision request", "error", err, "transaction_id", txID)
		return nil, err
	}

	s.audit.Record(txID, actorID, "request_revision", StatusPending, StatusNeedsRevision, notes)

	s.logger.Info("transaction revision requested",
		"transaction_id", txID,
		"actor_id", actorID)

	return tx, nil
}

// RevertToPending reopens a validated transaction; a reason is
// mandatory and the revert is recorded in the note log.
func (s *Service) RevertToPending(txID, actorID int64, reason string, userPermissions []string) (*Transaction, error) {
	if reason == "" {
		return nil, internal.ErrReasonRequired
	}

	tx, err := s.repo.GetByID(txID)
	if err != nil {
		s.logger.Error("transaction not found for revert", "error", err, "transaction_id", txID)
		return nil, internal.ErrTransactionNotFound
	}

	if err := s.validationGate(actorID, userPermissions, tx.AmountIDR); err != nil {
		return nil, err
	}

	if tx.IsPending() {
		s.logger.Warn("cannot revert a pending transaction", "transaction_id", txID)
		return nil, internal.ErrInvalidStateTransition
	}

	fromStatus := tx.ValidationStatus
	tx.RevertToPending(actorID, reason)
	if err := s.repo.Update(tx); err != nil {
		s.logger.Error("failed to persist revert", "error", err, "transaction_id", txID)
		return nil, err
	}

	s.audit.Record(txID, actorID, "revert_to_pending", fromStatus, StatusPending, reason)
	s.publish(events.NewTransactionValidatedEvent(events.EventTypeTransactionReverted, txID, tx.AmountIDR, actorID, tx.SubmittedBy, string(tx.Kind)))

	s.logger.Info("transaction reverted to pending",
		"transaction_id", txID,
		"actor_id", actorID,
		"from_status", fromStatus)

	return tx, nil
}

// AddNote appends a timestamped annotation without touching the status.
// Any authenticated user with access to the record may annotate it.
func (s *Service) AddNote(txID, actorID int64, text string, userPermissions []string) (*Transaction, error) {
	if text == "" {
		return nil, internal.ErrReasonRequired
	}

	tx, err := s.repo.GetByID(txID)
	if err != nil {
		s.logger.Error("transaction not found for note", "error", err, "transaction_id", txID)
		return nil, internal.ErrTransactionNotFound
	}

	if tx.SubmittedBy != actorID && !hasAnyPermission(userPermissions, validatorPerms) {
		return nil, internal.ErrInsufficientPermission
	}

	tx.AppendNote(time.Now().Format("2006-01-02 15:04") + " - " + text)
	if err := s.repo.Update(tx); err != nil {
		s.logger.Error("failed to persist note", "error", err, "transaction_id", txID)
		return nil, err
	}

	s.audit.Record(txID, actorID, "add_note", tx.ValidationStatus, tx.ValidationStatus, text)

	return tx, nil
}

func (s *Service) publish(event events.Event) {
	if s.bus == nil {
		return
	}
	// handlers are fire-and-forget; a failed notification never rolls
	// back the mutation that triggered it
	if err := s.bus.Publish(context.Background(), event); err != nil {
		s.logger.Error("failed to publish event", "error", err, "event_type", event.EventType())
	}
}

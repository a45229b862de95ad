package transaction

import (
	"errors"
	"time"

	"github.com/dokterku/clinic-finance/internal/core/common/validation"
)

// CreateTransactionDTO represents the request payload for submitting an
// income or expense record.
type CreateTransactionDTO struct {
	Kind        Kind      `json:"kind"`
	AmountIDR   int64     `json:"amount_idr"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	OccurredOn  time.Time `json:"occurred_on"`
	// Force skips the advisory budget check (caller accepted the
	// over-budget warning).
	Force bool `json:"force,omitempty"`
}

func (dto CreateTransactionDTO) Validate() error {
	if !dto.Kind.Valid() {
		return errors.New("kind must be either 'income' or 'expense'")
	}
	if dto.Category == "" {
		return errors.New("category is required")
	}
	if dto.OccurredOn.IsZero() {
		return errors.New("occurred_on date is required")
	}
	if err := validation.ValidateTransactionAmount(dto.AmountIDR); err != nil {
		return err
	}
	if err := validation.ValidateTransactionDescription(dto.Description); err != nil {
		return err
	}
	if err := validation.ValidateTransactionDate(dto.OccurredOn); err != nil {
		return err
	}
	return nil
}

// ApproveDTO carries the optional approval note.
type ApproveDTO struct {
	Note string `json:"note,omitempty"`
}

// RejectDTO carries the mandatory rejection reason.
type RejectDTO struct {
	Reason string `json:"reason"`
}

func (dto RejectDTO) Validate() error {
	if dto.Reason == "" {
		return errors.New("reason is required when rejecting a transaction")
	}
	return nil
}

// RevisionDTO carries the mandatory revision notes.
type RevisionDTO struct {
	Notes string `json:"notes"`
}

func (dto RevisionDTO) Validate() error {
	if dto.Notes == "" {
		return errors.New("notes are required when requesting revision")
	}
	return nil
}

// RevertDTO carries the mandatory revert reason.
type RevertDTO struct {
	Reason string `json:"reason"`
}

func (dto RevertDTO) Validate() error {
	if dto.Reason == "" {
		return errors.New("reason is required when reverting to pending")
	}
	return nil
}

// NoteDTO carries a free-text annotation.
type NoteDTO struct {
	Text string `json:"text"`
}

func (dto NoteDTO) Validate() error {
	if dto.Text == "" {
		return errors.New("note text is required")
	}
	return nil
}

// ListFilter narrows transaction listings for the review screens.
type ListFilter struct {
	Kind        *Kind
	Status      *Status
	Category    string
	SubmittedBy *int64
	Limit       int
	Offset      int
}

func (f *ListFilter) Defaults() {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// QuickActionDTO selects a batch rule and the kinds it operates on.
type QuickActionDTO struct {
	Rule  string `json:"rule"`
	Scope Scope  `json:"scope"`
}

func (dto QuickActionDTO) Validate() error {
	if dto.Rule == "" {
		return errors.New("rule is required")
	}
	if dto.Scope == "" {
		return errors.New("scope is required")
	}
	if !dto.Scope.Valid() {
		return errors.New("scope must be 'income', 'expense' or 'both'")
	}
	return nil
}

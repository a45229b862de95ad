package transaction

import (
	"fmt"
	"strings"
	"time"

	txDatamodel "github.com/dokterku/clinic-finance/internal/core/datamodel/transaction"
)

// Kind distinguishes income (pendapatan) from expense (pengeluaran)
// records. Both share the same validation lifecycle.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Status is the validation lifecycle state. It is a closed set: anything
// read from storage that is not one of these constants is rejected at
// the conversion boundary instead of falling through a default branch.
type Status string

const (
	StatusPending       Status = "pending"
	StatusApproved      Status = "approved"
	StatusRejected      Status = "rejected"
	StatusNeedsRevision Status = "needs_revision"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected, StatusNeedsRevision:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown validation status %q", s)
}

func (s Status) Valid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

type Transaction struct {
	ID               int64      `json:"id"`
	Kind             Kind       `json:"kind"`
	AmountIDR        int64      `json:"amount_idr"`
	Description      string     `json:"description"`
	Category         string     `json:"category"`
	OccurredOn       time.Time  `json:"occurred_on"`
	SubmittedBy      int64      `json:"submitted_by"`
	ValidationStatus Status     `json:"validation_status"`
	ValidatedBy      *int64     `json:"validated_by,omitempty"`
	ValidatedAt      *time.Time `json:"validated_at,omitempty"`
	ValidationNote   string     `json:"validation_note,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (t *Transaction) IsPending() bool {
	return t.ValidationStatus == StatusPending
}

func (t *Transaction) CanBeValidated() bool {
	return t.IsPending()
}

// AppendNote concatenates a note onto the existing log with a newline
// separator; existing notes are never overwritten.
func (t *Transaction) AppendNote(text string) {
	if t.ValidationNote == "" {
		t.ValidationNote = text
		return
	}
	t.ValidationNote = t.ValidationNote + "\n" + text
}

func (t *Transaction) markValidated(actorID int64, status Status) {
	now := time.Now()
	t.ValidationStatus = status
	t.ValidatedBy = &actorID
	t.ValidatedAt = &now
	t.UpdatedAt = now
}

func (t *Transaction) Approve(actorID int64, note string) {
	t.markValidated(actorID, StatusApproved)
	if note == "" {
		note = "Disetujui"
	}
	t.AppendNote(note)
}

func (t *Transaction) Reject(actorID int64, reason string) {
	t.markValidated(actorID, StatusRejected)
	t.AppendNote("Ditolak: " + reason)
}

func (t *Transaction) RequestRevision(actorID int64, notes string) {
	t.markValidated(actorID, StatusNeedsRevision)
	t.AppendNote("Perlu revisi: " + notes)
}

// RevertToPending clears the validator pairing and records who reverted
// and why. Legal from any validated state.
func (t *Transaction) RevertToPending(actorID int64, reason string) {
	now := time.Now()
	t.ValidationStatus = StatusPending
	t.ValidatedBy = nil
	t.ValidatedAt = nil
	t.UpdatedAt = now
	t.AppendNote(fmt.Sprintf("[%s] dikembalikan ke pending oleh user %d: %s",
		now.Format("2006-01-02 15:04"), actorID, reason))
}

func (t *Transaction) IsWeekend() bool {
	wd := t.OccurredOn.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// NoteLines splits the append-only note log into individual entries.
func (t *Transaction) NoteLines() []string {
	if t.ValidationNote == "" {
		return nil
	}
	return strings.Split(t.ValidationNote, "\n")
}

func ToDataModel(t *Transaction) *txDatamodel.Transaction {
	return &txDatamodel.Transaction{
		ID:               t.ID,
		Kind:             string(t.Kind),
		AmountIDR:        t.AmountIDR,
		Description:      t.Description,
		Category:         t.Category,
		OccurredOn:       t.OccurredOn,
		SubmittedBy:      t.SubmittedBy,
		ValidationStatus: string(t.ValidationStatus),
		ValidatedBy:      t.ValidatedBy,
		ValidatedAt:      t.ValidatedAt,
		ValidationNote:   t.ValidationNote,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func FromDataModel(dm *txDatamodel.Transaction) (*Transaction, error) {
	status, err := ParseStatus(dm.ValidationStatus)
	if err != nil {
		return nil, fmt.Errorf("transaction %d: %w", dm.ID, err)
	}
	kind := Kind(dm.Kind)
	if !kind.Valid() {
		return nil, fmt.Errorf("transaction %d: unknown kind %q", dm.ID, dm.Kind)
	}
	return &Transaction{
		ID:               dm.ID,
		Kind:             kind,
		AmountIDR:        dm.AmountIDR,
		Description:      dm.Description,
		Category:         dm.Category,
		OccurredOn:       dm.OccurredOn,
		SubmittedBy:      dm.SubmittedBy,
		ValidationStatus: status,
		ValidatedBy:      dm.ValidatedBy,
		ValidatedAt:      dm.ValidatedAt,
		ValidationNote:   dm.ValidationNote,
		CreatedAt:        dm.CreatedAt,
		UpdatedAt:        dm.UpdatedAt,
	}, nil
}

func FromDataModelSlice(dms []*txDatamodel.Transaction) ([]*Transaction, error) {
	result := make([]*Transaction, 0, len(dms))
	for _, dm := range dms {
		t, err := FromDataModel(dm)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, nil
}

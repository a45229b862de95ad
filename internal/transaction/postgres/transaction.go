package postgres

import (
	"errors"
	"time"

	"github.com/dokterku/clinic-finance/internal"
	txDatamodel "github.com/dokterku/clinic-finance/internal/core/datamodel/transaction"
	"github.com/dokterku/clinic-finance/internal/transaction"
	"gorm.io/gorm"
)

// TransactionRepository implements transaction.Repository using GORM. It
// also serves as the budget package's SpendingSource.
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(tx *transaction.Transaction) error {
	dm := transaction.ToDataModel(tx)
	if err := r.db.Create(dm).Error; err != nil {
		return err
	}
	tx.ID = dm.ID
	tx.CreatedAt = dm.CreatedAt
	tx.UpdatedAt = dm.UpdatedAt
	return nil
}

func (r *TransactionRepository) GetByID(id int64) (*transaction.Transaction, error) {
	var dm txDatamodel.Transaction
	err := r.db.Where("id = ?", id).First(&dm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrTransactionNotFound
		}
		return nil, err
	}
	return transaction.FromDataModel(&dm)
}

func (r *TransactionRepository) List(filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	filter.Defaults()

	q := r.db.Model(&txDatamodel.Transaction{})
	if filter.Kind != nil {
		q = q.Where("kind = ?", string(*filter.Kind))
	}
	if filter.Status != nil {
		q = q.Where("validation_status = ?", string(*filter.Status))
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.SubmittedBy != nil {
		q = q.Where("submitted_by = ?", *filter.SubmittedBy)
	}

	var dms []*txDatamodel.Transaction
	err := q.Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&dms).Error
	if err != nil {
		return nil, err
	}
	return transaction.FromDataModelSlice(dms)
}

func (r *TransactionRepository) ListPending(scope transaction.Scope) ([]*transaction.Transaction, error) {
	q := r.db.Model(&txDatamodel.Transaction{}).
		Where("validation_status = ?", string(transaction.StatusPending))

	switch scope {
	case transaction.ScopeIncome:
		q = q.Where("kind = ?", string(transaction.KindIncome))
	case transaction.ScopeExpense:
		q = q.Where("kind = ?", string(transaction.KindExpense))
	}

	var dms []*txDatamodel.Transaction
	// FIFO for the validation queue
	if err := q.Order("created_at ASC").Find(&dms).Error; err != nil {
		return nil, err
	}
	return transaction.FromDataModelSlice(dms)
}

func (r *TransactionRepository) Update(tx *transaction.Transaction) error {
	tx.UpdatedAt = time.Now()
	dm := transaction.ToDataModel(tx)
	return r.db.Save(dm).Error
}

func (r *TransactionRepository) AmountsForKind(kind transaction.Kind) ([]int64, error) {
	var amounts []int64
	err := r.db.Model(&txDatamodel.Transaction{}).
		Where("kind = ?", string(kind)).
		Pluck("amount_idr", &amounts).Error
	return amounts, err
}

func (r *TransactionRepository) CountRecentBySubmitter(submitterID int64, category string, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&txDatamodel.Transaction{}).
		Where("submitted_by = ? AND category = ? AND created_at >= ?", submitterID, category, since).
		Count(&count).Error
	return count, err
}

func (r *TransactionRepository) InTransaction(fn func(transaction.Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&TransactionRepository{db: tx})
	})
}

// SpentForCategoryMonth sums expense spend for the category in the
// calendar month of the given date. Rejected records are excluded;
// pending and revision records count as committed spend.
func (r *TransactionRepository) SpentForCategoryMonth(category string, month time.Time, excludeID *int64) (int64, error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	end := start.AddDate(0, 1, 0)

	q := r.db.Model(&txDatamodel.Transaction{}).
		Select("COALESCE(SUM(amount_idr), 0)").
		Where("kind = ?", string(transaction.KindExpense)).
		Where("category = ?", category).
		Where("occurred_on >= ? AND occurred_on < ?", start, end).
		Where("validation_status <> ?", string(transaction.StatusRejected))
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}

	var spent int64
	err := q.Scan(&spent).Error
	return spent, err
}

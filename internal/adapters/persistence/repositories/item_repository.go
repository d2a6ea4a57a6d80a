package repositories

import (
	"context"

	"lendstock/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// onLoanStatuses are the item statuses that mean "held by some loan".
var onLoanStatuses = []string{models.ItemStatusBorrowed, models.ItemStatusOverdue}

// GormItemRepository handles item data access
type GormItemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// Create creates a new item
func (r *GormItemRepository) Create(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// GetByID gets an item by ID with its category
func (r *GormItemRepository) GetByID(ctx context.Context, id uint) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).Preload("Category").First(&item, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetByIDForUpdate gets an item by ID under SELECT ... FOR UPDATE
func (r *GormItemRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Update updates an item
func (r *GormItemRepository) Update(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// UpdateStatus persists a status change immediately
func (r *GormItemRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// List lists items with pagination and optional status filter
func (r *GormItemRepository) List(ctx context.Context, offset, limit int, status string) ([]*models.Item, int64, error) {
	var items []*models.Item
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Item{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.
		Preload("Category").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error

	return items, total, err
}

// LowercaseStatuses forces every item status to lowercase (case-normalize sweep)
func (r *GormItemRepository) LowercaseStatuses(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("BINARY status <> LOWER(status)").
		Update("status", gorm.Expr("LOWER(status)"))
	return res.RowsAffected, res.Error
}

// ReleaseAllOnLoan resets every borrowed/overdue item to available (forward-sync reset)
func (r *GormItemRepository) ReleaseAllOnLoan(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("status IN ?", onLoanStatuses).
		Update("status", models.ItemStatusAvailable)
	return res.RowsAffected, res.Error
}

// activeLineItemIDs is the subquery for items holding a loaned line on a
// non-deleted loan in active/pending/overdue state.
func (r *GormItemRepository) activeLineItemIDs() *gorm.DB {
	return r.db.
		Model(&models.LoanLine{}).
		Select("loan_lines.item_id").
		Joins("JOIN loans ON loans.id = loan_lines.loan_id").
		Where("loan_lines.status = ?", models.LineStatusLoaned).
		Where("loans.status IN ?", models.ActiveLoanStatuses).
		Where("loans.deleted_at IS NULL")
}

// MarkBorrowedForActiveLoans marks as borrowed every item attached to an
// active-set loan that is not already marked on loan. One statement, so the
// sweep only counts rows it actually changed.
func (r *GormItemRepository) MarkBorrowedForActiveLoans(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("status NOT IN ?", onLoanStatuses).
		Where("id IN (?)", r.activeLineItemIDs()).
		Update("status", models.ItemStatusBorrowed)
	return res.RowsAffected, res.Error
}

// ReleaseOrphanedOnLoan frees items marked on loan that no active-set loan
// references (backward-fix sweep).
func (r *GormItemRepository) ReleaseOrphanedOnLoan(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("status IN ?", onLoanStatuses).
		Where("id NOT IN (?)", r.activeLineItemIDs()).
		Update("status", models.ItemStatusAvailable)
	return res.RowsAffected, res.Error
}

// MarkOverdueForOverdueLoans flips borrowed items of overdue loans to overdue
func (r *GormItemRepository) MarkOverdueForOverdueLoans(ctx context.Context) (int64, error) {
	sub := r.db.
		Model(&models.LoanLine{}).
		Select("loan_lines.item_id").
		Joins("JOIN loans ON loans.id = loan_lines.loan_id").
		Where("loan_lines.status = ?", models.LineStatusLoaned).
		Where("loans.status = ?", models.LoanStatusOverdue).
		Where("loans.deleted_at IS NULL")

	res := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("status = ?", models.ItemStatusBorrowed).
		Where("id IN (?)", sub).
		Update("status", models.ItemStatusOverdue)
	return res.RowsAffected, res.Error
}

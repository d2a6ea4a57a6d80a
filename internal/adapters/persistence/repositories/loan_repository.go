package repositories

import (
	"context"
	"time"

	"lendstock/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLoanRepository handles loan data access
type GormLoanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) *GormLoanRepository {
	return &GormLoanRepository{db: db}
}

// Create creates a new loan
func (r *GormLoanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

// GetByID gets a loan by ID with its lines and their items
func (r *GormLoanRepository) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Lines.Item").
		First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// GetByIDForUpdate gets a loan by ID under a row lock
func (r *GormLoanRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// GetDeletedByID gets a soft-deleted loan by ID
func (r *GormLoanRepository) GetDeletedByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Unscoped().
		Where("deleted_at IS NOT NULL").
		First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// GetByLoanNumber gets a loan by its human-readable number
func (r *GormLoanRepository) GetByLoanNumber(ctx context.Context, loanNumber string) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Lines.Item").
		Where("loan_number = ?", loanNumber).
		First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// Update updates a loan
func (r *GormLoanRepository) Update(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Save(loan).Error
}

// UpdateFields updates selected loan columns
func (r *GormLoanRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// SoftDelete soft deletes a loan
func (r *GormLoanRepository) SoftDelete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Loan{}, id).Error
}

// Restore clears the soft-delete marker on a loan
func (r *GormLoanRepository) Restore(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Unscoped().
		Model(&models.Loan{}).
		Where("id = ?", id).
		Update("deleted_at", nil).Error
}

// List lists loans with pagination and optional status filter
func (r *GormLoanRepository) List(ctx context.Context, offset, limit int, status string) ([]*models.Loan, int64, error) {
	var loans []*models.Loan
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Loan{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.
		Preload("Lines").
		Preload("Lines.Item").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&loans).Error

	return loans, total, err
}

// MarkOverdue flips active loans past their due date to overdue
func (r *GormLoanRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("status = ?", models.LoanStatusActive).
		Where("due_date < ?", now).
		Update("status", models.LoanStatusOverdue)
	return res.RowsAffected, res.Error
}

// GormLoanLineRepository handles loan line data access
type GormLoanLineRepository struct {
	db *gorm.DB
}

// NewLoanLineRepository creates a new loan line repository
func NewLoanLineRepository(db *gorm.DB) *GormLoanLineRepository {
	return &GormLoanLineRepository{db: db}
}

// Create creates a new loan line
func (r *GormLoanLineRepository) Create(ctx context.Context, line *models.LoanLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

// Update updates a loan line
func (r *GormLoanLineRepository) Update(ctx context.Context, line *models.LoanLine) error {
	return r.db.WithContext(ctx).Save(line).Error
}

// ListByLoan lists all lines of a loan
func (r *GormLoanLineRepository) ListByLoan(ctx context.Context, loanID uint) ([]*models.LoanLine, error) {
	var lines []*models.LoanLine
	err := r.db.WithContext(ctx).
		Preload("Item").
		Where("loan_id = ?", loanID).
		Order("id").
		Find(&lines).Error
	return lines, err
}

// GetLoanedByLoanAndItem gets the loaned line for an item in a loan, if any
func (r *GormLoanLineRepository) GetLoanedByLoanAndItem(ctx context.Context, loanID, itemID uint) (*models.LoanLine, error) {
	var line models.LoanLine
	err := r.db.WithContext(ctx).
		Where("loan_id = ? AND item_id = ? AND status = ?", loanID, itemID, models.LineStatusLoaned).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// DeleteByLoan removes all lines of a loan (pivot rows, hard delete)
func (r *GormLoanLineRepository) DeleteByLoan(ctx context.Context, loanID uint) error {
	return r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Delete(&models.LoanLine{}).Error
}

// CountOpenByLoan counts lines still outside {returned, lost}
func (r *GormLoanLineRepository) CountOpenByLoan(ctx context.Context, loanID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.LoanLine{}).
		Where("loan_id = ?", loanID).
		Where("status NOT IN ?", []string{models.LineStatusReturned, models.LineStatusLost}).
		Count(&n).Error
	return n, err
}

// ExistsLoanedElsewhere reports whether the item is held by another active loan
func (r *GormLoanLineRepository) ExistsLoanedElsewhere(ctx context.Context, itemID, excludeLoanID uint) (bool, error) {
	var n int64
	q := r.db.WithContext(ctx).
		Model(&models.LoanLine{}).
		Joins("JOIN loans ON loans.id = loan_lines.loan_id").
		Where("loan_lines.item_id = ?", itemID).
		Where("loan_lines.status = ?", models.LineStatusLoaned).
		Where("loans.status IN ?", models.ActiveLoanStatuses).
		Where("loans.deleted_at IS NULL")
	if excludeLoanID != 0 {
		q = q.Where("loan_lines.loan_id <> ?", excludeLoanID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

package repositories

import (
	"context"
	"time"

	"lendstock/internal/adapters/persistence/models"
)

// ItemRepository defines item data access.
// The statement-level bulk updates back the reconciler sweeps; they must be
// single UPDATEs so sweeps stay safe to run concurrently with live traffic.
type ItemRepository interface {
	Create(ctx context.Context, item *models.Item) error
	GetByID(ctx context.Context, id uint) (*models.Item, error)
	// GetByIDForUpdate loads the item under a row lock, serializing the
	// availability-check-then-attach decision across transactions.
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Item, error)
	Update(ctx context.Context, item *models.Item) error
	UpdateStatus(ctx context.Context, id uint, status string) error
	List(ctx context.Context, offset, limit int, status string) ([]*models.Item, int64, error)

	LowercaseStatuses(ctx context.Context) (int64, error)
	ReleaseAllOnLoan(ctx context.Context) (int64, error)
	MarkBorrowedForActiveLoans(ctx context.Context) (int64, error)
	ReleaseOrphanedOnLoan(ctx context.Context) (int64, error)
	MarkOverdueForOverdueLoans(ctx context.Context) (int64, error)
}

// LoanRepository defines loan data access
type LoanRepository interface {
	Create(ctx context.Context, loan *models.Loan) error
	GetByID(ctx context.Context, id uint) (*models.Loan, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Loan, error)
	GetDeletedByID(ctx context.Context, id uint) (*models.Loan, error)
	GetByLoanNumber(ctx context.Context, loanNumber string) (*models.Loan, error)
	Update(ctx context.Context, loan *models.Loan) error
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	SoftDelete(ctx context.Context, id uint) error
	Restore(ctx context.Context, id uint) error
	List(ctx context.Context, offset, limit int, status string) ([]*models.Loan, int64, error)
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// LoanLineRepository defines loan line (loan-item pivot) data access
type LoanLineRepository interface {
	Create(ctx context.Context, line *models.LoanLine) error
	Update(ctx context.Context, line *models.LoanLine) error
	ListByLoan(ctx context.Context, loanID uint) ([]*models.LoanLine, error)
	GetLoanedByLoanAndItem(ctx context.Context, loanID, itemID uint) (*models.LoanLine, error)
	DeleteByLoan(ctx context.Context, loanID uint) error
	CountOpenByLoan(ctx context.Context, loanID uint) (int64, error)
	// ExistsLoanedElsewhere reports whether the item has a loaned line on a
	// non-deleted loan in active/pending/overdue state, excluding the given
	// loan (pass 0 to exclude none).
	ExistsLoanedElsewhere(ctx context.Context, itemID, excludeLoanID uint) (bool, error)
}

// GuestBorrowerRepository defines guest borrower data access
type GuestBorrowerRepository interface {
	Create(ctx context.Context, guest *models.GuestBorrower) error
	GetByID(ctx context.Context, id uint) (*models.GuestBorrower, error)
	Update(ctx context.Context, guest *models.GuestBorrower) error
}

// UserRepository defines user data access (borrower resolution only)
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	Exists(ctx context.Context, id uint) (bool, error)
}

// Repos bundles the repositories a unit of work operates on.
type Repos struct {
	Items  ItemRepository
	Loans  LoanRepository
	Lines  LoanLineRepository
	Guests GuestBorrowerRepository
	Users  UserRepository
}

// UnitOfWork runs fn inside one atomic transaction. fn receives repositories
// bound to that transaction; any error rolls everything back before it
// propagates.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(r Repos) error) error
}

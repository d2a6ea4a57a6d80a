package repositories

import (
	"context"

	"gorm.io/gorm"
)

// NewRepos builds the repository bundle over a database handle. Pass a
// transaction handle to get transaction-bound repositories.
func NewRepos(db *gorm.DB) Repos {
	return Repos{
		Items:  NewItemRepository(db),
		Loans:  NewLoanRepository(db),
		Lines:  NewLoanLineRepository(db),
		Guests: NewGuestBorrowerRepository(db),
		Users:  NewUserRepository(db),
	}
}

// GormUnitOfWork runs units of work as GORM transactions.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork creates a new unit of work over the database
func NewUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Do runs fn inside one transaction. Returning an error rolls back every
// write fn made; nil commits.
func (u *GormUnitOfWork) Do(ctx context.Context, fn func(r Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepos(tx))
	})
}

package services

import (
	"context"
	"errors"
	"time"

	"lendstock/internal/adapters/persistence/models"
	"lendstock/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// Status propagation: the one place where a loan status change fans out to
// its lines and items. Invoked synchronously after every status write
// instead of hiding the rules in storage hooks.
//
//   old ∉ {active,pending,overdue} → new ∈ {active,pending,overdue}:
//       every loaned item is forced to borrowed, whatever its current value.
//   new ∈ {returned,canceled} (and soft delete):
//       open lines close, and each item is re-evaluated with the
//       still-loaned-elsewhere check — never released unconditionally,
//       because the same item may legitimately sit on another active loan.
func (s *LoanService) applyStatusTransition(ctx context.Context, r repositories.Repos, loan *models.Loan, oldStatus string) error {
	newStatus := loan.Status
	if newStatus == oldStatus {
		return nil
	}

	if models.IsActiveLoanStatus(newStatus) && !models.IsActiveLoanStatus(oldStatus) {
		if loan.ReturnDate != nil {
			loan.ReturnDate = nil
			if err := r.Loans.Update(ctx, loan); err != nil {
				return err
			}
		}
		return s.borrowItems(ctx, r, loan.ID)
	}

	if newStatus == models.LoanStatusReturned || newStatus == models.LoanStatusCanceled {
		now := time.Now()
		if newStatus == models.LoanStatusReturned && loan.ReturnDate == nil {
			loan.ReturnDate = &now
			if err := r.Loans.Update(ctx, loan); err != nil {
				return err
			}
		}

		lines, err := r.Lines.ListByLoan(ctx, loan.ID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			if line.Status == models.LineStatusLoaned {
				line.Status = models.LineStatusReturned
				line.ReturnedAt = &now
				if err := r.Lines.Update(ctx, line); err != nil {
					return err
				}
			}
			if err := s.releaseItemIfFree(ctx, r, line.ItemID, loan.ID, ""); err != nil {
				return err
			}
		}
	}

	return nil
}

// borrowItems forces every loaned item of the loan to borrowed.
func (s *LoanService) borrowItems(ctx context.Context, r repositories.Repos, loanID uint) error {
	lines, err := r.Lines.ListByLoan(ctx, loanID)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if line.Status != models.LineStatusLoaned {
			continue
		}
		item, err := r.Items.GetByID(ctx, line.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return err
		}
		if err := s.inventory.SetStatus(ctx, r, item, models.ItemStatusBorrowed); err != nil {
			return err
		}
	}
	return nil
}

// releaseItemIfFree releases the item to available unless another
// active/pending/overdue loan still holds it with a loaned line.
// A non-empty terminalStatus (under_repair, lost) replaces available: the
// one path by which an item leaves the loan cycle into a non-available
// state.
func (s *LoanService) releaseItemIfFree(ctx context.Context, r repositories.Repos, itemID, excludeLoanID uint, terminalStatus string) error {
	held, err := r.Lines.ExistsLoanedElsewhere(ctx, itemID, excludeLoanID)
	if err != nil {
		return err
	}
	if held {
		return nil
	}

	item, err := r.Items.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if terminalStatus != "" {
		return s.inventory.SetStatus(ctx, r, item, terminalStatus)
	}
	if s.inventory.IsOnLoan(item) {
		return s.inventory.SetStatus(ctx, r, item, models.ItemStatusAvailable)
	}
	return nil
}

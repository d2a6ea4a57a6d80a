package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"lendstock/internal/adapters/persistence/models"
	"lendstock/internal/adapters/persistence/repositories"
	"lendstock/internal/core/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoanService is the loan lifecycle engine. Every mutating operation runs as
// one atomic unit of work: either everything commits or everything rolls
// back. Voucher generation happens after commit and never undoes a loan.
type LoanService struct {
	uow       repositories.UnitOfWork
	repos     repositories.Repos
	inventory *InventoryService
	borrowers *BorrowerService
	vouchers  VoucherGenerator
}

// NewLoanService creates a new loan service
func NewLoanService(
	uow repositories.UnitOfWork,
	repos repositories.Repos,
	inventory *InventoryService,
	borrowers *BorrowerService,
	vouchers VoucherGenerator,
) *LoanService {
	return &LoanService{
		uow:       uow,
		repos:     repos,
		inventory: inventory,
		borrowers: borrowers,
		vouchers:  vouchers,
	}
}

// LoanItemInput is one requested loan line. Quantity and DeprecatedQuantity
// are accepted for legacy payloads; one item row is one physical unit, so
// anything above 1 fails the availability check.
type LoanItemInput struct {
	ItemID             uint     `json:"item_id"`
	Quantity           *int     `json:"quantity,omitempty"`
	DeprecatedQuantity *int     `json:"deprecated_quantity,omitempty"`
	SerialNumbers      []string `json:"serial_numbers,omitempty"`
	ConditionBefore    string   `json:"condition_before,omitempty"`
}

// CreateLoanInput for creating a loan
type CreateLoanInput struct {
	Borrower      BorrowerInput   `json:"borrower"`
	LoanDate      *time.Time      `json:"loan_date,omitempty"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	Status        string          `json:"status,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	ConditionTags string          `json:"condition_tags,omitempty"`
	Items         []LoanItemInput `json:"items"`
}

// UpdateLoanInput for updating a loan. A non-nil Items slice (even empty)
// replaces the loan's whole item set.
type UpdateLoanInput struct {
	Borrower      *BorrowerInput   `json:"borrower,omitempty"`
	LoanDate      *time.Time       `json:"loan_date,omitempty"`
	DueDate       *time.Time       `json:"due_date,omitempty"`
	Status        *string          `json:"status,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
	ConditionTags *string          `json:"condition_tags,omitempty"`
	Items         *[]LoanItemInput `json:"items,omitempty"`
}

// ItemReturnInput is the per-item outcome of a whole-loan return.
// Outcome damaged/lost is terminal: the item leaves the loan cycle into
// under_repair/lost instead of available.
type ItemReturnInput struct {
	Outcome        string `json:"outcome,omitempty"`
	ConditionAfter string `json:"condition_after,omitempty"`
}

// ReturnLoanInput for returning a whole loan
type ReturnLoanInput struct {
	ReturnDate    *time.Time               `json:"return_date,omitempty"`
	ReturnNotes   string                   `json:"return_notes,omitempty"`
	ConditionTags string                   `json:"condition_tags,omitempty"`
	ReturnedBy    string                   `json:"returned_by,omitempty"`
	Items         map[uint]ItemReturnInput `json:"items,omitempty"`
}

// ReturnItemInput for returning a single line
type ReturnItemInput struct {
	ConditionTags  string `json:"condition_tags,omitempty"`
	ReturnNotes    string `json:"return_notes,omitempty"`
	ReturnedBy     string `json:"returned_by,omitempty"`
	ConditionAfter string `json:"condition_after,omitempty"`
}

// newLoanNumber builds a human-readable unique loan number, dated by the
// loan date so backdated loans number consistently.
func newLoanNumber(loanDate time.Time) string {
	return fmt.Sprintf("LN-%s-%s", loanDate.Format("20060102"), strings.ToUpper(uuid.NewString()[:8]))
}

// Create creates a loan with its lines, flipping attached items to borrowed
// when the loan starts in active/pending/overdue. Items are attached in the
// supplied order; the first failing item aborts the whole batch.
func (s *LoanService) Create(ctx context.Context, input *CreateLoanInput) (*models.Loan, error) {
	// Fail fast before any write
	if err := s.borrowers.Validate(&input.Borrower); err != nil {
		return nil, err
	}

	status := strings.ToLower(strings.TrimSpace(input.Status))
	if status == "" {
		status = models.LoanStatusActive
	}
	if !models.ValidLoanStatus(status) {
		return nil, domain.ErrInvalidLoanStatus
	}

	var loan *models.Loan
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		borrowerType, borrowerID, err := s.borrowers.Resolve(ctx, r, &input.Borrower)
		if err != nil {
			return err
		}

		loanDate := time.Now()
		if input.LoanDate != nil {
			loanDate = *input.LoanDate
		}
		dueDate := loanDate.AddDate(0, 1, 0)
		if input.DueDate != nil {
			dueDate = *input.DueDate
		}

		l := &models.Loan{
			LoanNumber:    newLoanNumber(loanDate),
			BorrowerType:  borrowerType,
			BorrowerID:    borrowerID,
			LoanDate:      loanDate,
			DueDate:       dueDate,
			Status:        status,
			Notes:         input.Notes,
			ConditionTags: input.ConditionTags,
		}
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}

		for i := range input.Items {
			if err := s.attachItem(ctx, r, l, &input.Items[i]); err != nil {
				return err
			}
		}

		loan = l
		return nil
	})
	if err != nil {
		log.Printf("loan create failed: borrower_type=%s items=%d err=%v",
			input.Borrower.Kind(), len(input.Items), err)
		return nil, domain.WrapLoanError(err)
	}

	// Reload with lines so the voucher snapshot carries the items
	full, err := s.repos.Loans.GetByID(ctx, loan.ID)
	if err != nil {
		return nil, err
	}
	if verr := s.generateVoucher(ctx, full); verr != nil {
		return full, verr
	}
	return full, nil
}

// attachItem validates one requested line against the one-unit inventory
// model and attaches it. Caller holds the transaction.
func (s *LoanService) attachItem(ctx context.Context, r repositories.Repos, loan *models.Loan, in *LoanItemInput) error {
	item, err := r.Items.GetByIDForUpdate(ctx, in.ItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewInvalidItems(in.ItemID)
		}
		return err
	}

	held, err := r.Lines.ExistsLoanedElsewhere(ctx, item.ID, loan.ID)
	if err != nil {
		return err
	}
	if held {
		return domain.NewItemAlreadyBorrowed(item.Name)
	}

	requested := requestedQuantity(in)
	available := 0
	if s.inventory.IsAvailable(item) {
		available = 1
	}
	if requested > available {
		return domain.NewInsufficientQuantity(item.Name, requested, available)
	}

	if err := validateSerialNumbers(item, in.SerialNumbers); err != nil {
		return err
	}

	if models.IsActiveLoanStatus(loan.Status) {
		if err := s.inventory.SetStatus(ctx, r, item, models.ItemStatusBorrowed); err != nil {
			return err
		}
	}

	line := &models.LoanLine{
		LoanID:          loan.ID,
		ItemID:          item.ID,
		Status:          models.LineStatusLoaned,
		Quantity:        1,
		ConditionBefore: in.ConditionBefore,
		SerialNumbers:   models.EncodeSerialNumbers(in.SerialNumbers),
	}
	return r.Lines.Create(ctx, line)
}

// requestedQuantity honors the legacy quantity keys, defaulting to 1.
func requestedQuantity(in *LoanItemInput) int {
	q := 1
	if in.Quantity != nil {
		q = *in.Quantity
	} else if in.DeprecatedQuantity != nil {
		q = *in.DeprecatedQuantity
	}
	if q < 1 {
		q = 1
	}
	return q
}

// validateSerialNumbers applies the minimal serial policy: no blanks, no
// duplicates within one line. Stricter ownership checks are an open
// extension point.
func validateSerialNumbers(item *models.Item, serials []string) error {
	seen := make(map[string]bool, len(serials))
	for _, sn := range serials {
		sn = strings.TrimSpace(sn)
		if sn == "" {
			return domain.NewInvalidSerialNumbers(item.Name, "blank serial number")
		}
		if seen[sn] {
			return domain.NewInvalidSerialNumbers(item.Name, "duplicate serial number "+sn)
		}
		seen[sn] = true
	}
	return nil
}

// Update edits a loan: borrower transitions, date/note fields, status (with
// propagation), and a full item re-attach when Items is present. Regenerates
// the voucher after commit when voucher-affecting fields changed.
func (s *LoanService) Update(ctx context.Context, id uint, input *UpdateLoanInput) (*models.Loan, error) {
	if input.Borrower != nil {
		if err := s.borrowers.Validate(input.Borrower); err != nil {
			return nil, err
		}
	}
	if input.Status != nil && !models.ValidLoanStatus(strings.ToLower(strings.TrimSpace(*input.Status))) {
		return nil, domain.ErrInvalidLoanStatus
	}

	voucherDirty := false
	var loan *models.Loan
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		l, err := r.Loans.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrLoanNotFound
			}
			return err
		}
		oldStatus := l.Status

		if input.Borrower != nil {
			borrowerType, borrowerID, err := s.borrowers.ResolveForUpdate(ctx, r, l, input.Borrower)
			if err != nil {
				return err
			}
			l.BorrowerType = borrowerType
			l.BorrowerID = borrowerID
			voucherDirty = true
		}
		if input.LoanDate != nil {
			l.LoanDate = *input.LoanDate
			voucherDirty = true
		}
		if input.DueDate != nil {
			l.DueDate = *input.DueDate
			voucherDirty = true
		}
		if input.Notes != nil {
			l.Notes = *input.Notes
		}
		if input.ConditionTags != nil {
			l.ConditionTags = *input.ConditionTags
		}
		if input.Status != nil {
			l.Status = strings.ToLower(strings.TrimSpace(*input.Status))
		}

		if err := r.Loans.Update(ctx, l); err != nil {
			return err
		}

		if input.Items != nil {
			voucherDirty = true
			if err := s.replaceItems(ctx, r, l, *input.Items); err != nil {
				return err
			}
		}

		if l.Status != oldStatus {
			if err := s.applyStatusTransition(ctx, r, l, oldStatus); err != nil {
				return err
			}
		}

		loan = l
		return nil
	})
	if err != nil {
		log.Printf("loan update failed: loan_id=%d err=%v", id, err)
		return nil, domain.WrapLoanError(err)
	}

	// Reload with lines so the voucher snapshot carries the items
	full, err := s.repos.Loans.GetByID(ctx, loan.ID)
	if err != nil {
		return nil, err
	}
	if voucherDirty {
		if verr := s.generateVoucher(ctx, full); verr != nil {
			return full, verr
		}
	}
	return full, nil
}

// replaceItems detaches every existing line, releases items that are no
// longer held, and re-runs the create attach path for the new set. Items
// kept across the edit are released and immediately re-borrowed inside the
// same transaction, so their visible state does not change.
func (s *LoanService) replaceItems(ctx context.Context, r repositories.Repos, loan *models.Loan, items []LoanItemInput) error {
	prev, err := r.Lines.ListByLoan(ctx, loan.ID)
	if err != nil {
		return err
	}
	if err := r.Lines.DeleteByLoan(ctx, loan.ID); err != nil {
		return err
	}

	for _, line := range prev {
		if err := s.releaseItemIfFree(ctx, r, line.ItemID, loan.ID, ""); err != nil {
			return err
		}
	}

	for i := range items {
		if err := s.attachItem(ctx, r, loan, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

// Return closes the whole loan. Already-returned and canceled loans are
// invalid transitions and nothing is written.
func (s *LoanService) Return(ctx context.Context, id uint, input *ReturnLoanInput) (*models.Loan, error) {
	if input == nil {
		input = &ReturnLoanInput{}
	}

	var loan *models.Loan
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		l, err := r.Loans.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrLoanNotFound
			}
			return err
		}
		if l.Status == models.LoanStatusReturned {
			return domain.ErrLoanAlreadyReturned
		}
		if l.Status == models.LoanStatusCanceled {
			return domain.ErrLoanCanceled
		}

		now := time.Now()
		returnDate := now
		if input.ReturnDate != nil {
			returnDate = *input.ReturnDate
		}
		l.ReturnDate = &returnDate
		l.Status = models.LoanStatusReturned
		if input.ReturnNotes != "" {
			l.ReturnNotes = input.ReturnNotes
			l.Notes = appendNote(l.Notes, input.ReturnNotes)
		}
		if input.ConditionTags != "" {
			l.ConditionTags = input.ConditionTags
		}
		if err := r.Loans.Update(ctx, l); err != nil {
			return err
		}

		lines, err := r.Lines.ListByLoan(ctx, l.ID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			if line.Status != models.LineStatusLoaned {
				continue
			}
			outcome := input.Items[line.ItemID]
			line.Status = lineStatusForOutcome(outcome.Outcome)
			line.ReturnedAt = &now
			if input.ReturnedBy != "" {
				line.ReturnedBy = input.ReturnedBy
			}
			if input.ReturnNotes != "" {
				line.ReturnNotes = input.ReturnNotes
			}
			if outcome.ConditionAfter != "" {
				line.ConditionAfter = outcome.ConditionAfter
				line.ConditionAssessedAt = &now
			}
			if err := r.Lines.Update(ctx, line); err != nil {
				return err
			}

			if err := s.releaseItemIfFree(ctx, r, line.ItemID, l.ID, itemStatusForOutcome(outcome.Outcome)); err != nil {
				return err
			}
		}

		loan = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repos.Loans.GetByID(ctx, loan.ID)
}

// lineStatusForOutcome maps a per-item return outcome to the line status.
func lineStatusForOutcome(outcome string) string {
	switch strings.ToLower(strings.TrimSpace(outcome)) {
	case models.LineStatusDamaged:
		return models.LineStatusDamaged
	case models.LineStatusLost:
		return models.LineStatusLost
	}
	return models.LineStatusReturned
}

// itemStatusForOutcome maps a terminal return outcome to the item status the
// item takes instead of available. Empty means plain release.
func itemStatusForOutcome(outcome string) string {
	switch strings.ToLower(strings.TrimSpace(outcome)) {
	case models.LineStatusDamaged:
		return models.ItemStatusUnderRepair
	case models.LineStatusLost:
		return models.ItemStatusLost
	}
	return ""
}

// ReturnItem returns a single line independently of the whole-loan return.
// Reports false (not an error) when the item has no loaned line in the loan,
// which also makes repeat calls no-ops. Promotes the loan to returned once
// no line remains outside {returned, lost}.
func (s *LoanService) ReturnItem(ctx context.Context, loanID, itemID uint, input *ReturnItemInput) (bool, error) {
	if input == nil {
		input = &ReturnItemInput{}
	}

	var returned bool
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		loan, err := r.Loans.GetByIDForUpdate(ctx, loanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrLoanNotFound
			}
			return err
		}

		line, err := r.Lines.GetLoanedByLoanAndItem(ctx, loanID, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		now := time.Now()
		line.Status = models.LineStatusReturned
		line.ReturnedAt = &now
		line.ConditionTags = input.ConditionTags
		line.ReturnNotes = input.ReturnNotes
		line.ReturnedBy = input.ReturnedBy
		if input.ConditionAfter != "" {
			line.ConditionAfter = input.ConditionAfter
			line.ConditionAssessedAt = &now
		}
		if err := r.Lines.Update(ctx, line); err != nil {
			return err
		}

		if err := s.releaseItemIfFree(ctx, r, itemID, loan.ID, ""); err != nil {
			return err
		}

		open, err := r.Lines.CountOpenByLoan(ctx, loanID)
		if err != nil {
			return err
		}
		if open == 0 && loan.Status != models.LoanStatusReturned && loan.Status != models.LoanStatusCanceled {
			loan.Status = models.LoanStatusReturned
			loan.ReturnDate = &now
			if err := r.Loans.Update(ctx, loan); err != nil {
				return err
			}
		}

		returned = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return returned, nil
}

// Cancel cancels a loan. Canceled is terminal: open lines close and items
// are re-evaluated for release.
func (s *LoanService) Cancel(ctx context.Context, id uint) (*models.Loan, error) {
	var loan *models.Loan
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		l, err := r.Loans.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrLoanNotFound
			}
			return err
		}
		if l.Status == models.LoanStatusReturned {
			return domain.ErrLoanAlreadyReturned
		}
		if l.Status == models.LoanStatusCanceled {
			loan = l
			return nil
		}

		oldStatus := l.Status
		l.Status = models.LoanStatusCanceled
		if err := r.Loans.Update(ctx, l); err != nil {
			return err
		}
		if err := s.applyStatusTransition(ctx, r, l, oldStatus); err != nil {
			return err
		}

		loan = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repos.Loans.GetByID(ctx, loan.ID)
}

// Delete soft-deletes a loan and runs the same release reconciliation as a
// return: items stay borrowed only while some other active loan holds them.
func (s *LoanService) Delete(ctx context.Context, id uint) error {
	return s.uow.Do(ctx, func(r repositories.Repos) error {
		loan, err := r.Loans.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrLoanNotFound
			}
			return err
		}

		lines, err := r.Lines.ListByLoan(ctx, loan.ID)
		if err != nil {
			return err
		}

		if err := r.Loans.SoftDelete(ctx, loan.ID); err != nil {
			return err
		}

		for _, line := range lines {
			if err := s.releaseItemIfFree(ctx, r, line.ItemID, loan.ID, ""); err != nil {
				return err
			}
		}
		return nil
	})
}

// Restore undeletes a loan; when its status is still active/pending/overdue
// it re-borrows its items.
func (s *LoanService) Restore(ctx context.Context, id uint) (*models.Loan, error) {
	var loan *models.Loan
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		l, err := r.Loans.GetDeletedByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrLoanNotFound
			}
			return err
		}
		if err := r.Loans.Restore(ctx, l.ID); err != nil {
			return err
		}

		if models.IsActiveLoanStatus(l.Status) {
			if err := s.borrowItems(ctx, r, l.ID); err != nil {
				return err
			}
		}

		loan = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repos.Loans.GetByID(ctx, loan.ID)
}

// GetByID gets a loan with its lines
func (s *LoanService) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	loan, err := s.repos.Loans.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

// List lists loans with pagination and optional status filter
func (s *LoanService) List(ctx context.Context, offset, limit int, status string) ([]*models.Loan, int64, error) {
	return s.repos.Loans.List(ctx, offset, limit, strings.ToLower(strings.TrimSpace(status)))
}

// generateVoucher runs the voucher capability after commit. Failure surfaces
// as VoucherGenerationFailed but leaves the committed loan intact.
func (s *LoanService) generateVoucher(ctx context.Context, loan *models.Loan) error {
	if s.vouchers == nil {
		return nil
	}
	path, err := s.vouchers.Generate(ctx, loan)
	if err != nil {
		log.Printf("voucher generation failed: loan=%s err=%v", loan.LoanNumber, err)
		return domain.NewVoucherGenerationFailed(err)
	}
	if err := s.repos.Loans.UpdateFields(ctx, loan.ID, map[string]interface{}{"voucher_path": path}); err != nil {
		log.Printf("voucher path save failed: loan=%s err=%v", loan.LoanNumber, err)
		return domain.NewVoucherGenerationFailed(err)
	}
	loan.VoucherPath = &path
	return nil
}

// appendNote appends a note paragraph to existing loan notes.
func appendNote(notes, addition string) string {
	if notes == "" {
		return addition
	}
	return notes + "\n" + addition
}

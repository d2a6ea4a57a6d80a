package services_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"lendstock/internal/adapters/persistence/models"
	"lendstock/internal/adapters/persistence/repositories"
	"lendstock/internal/core/services"

	"gorm.io/gorm"
)

// memStore is the shared in-memory backing for the fake repositories.
type memStore struct {
	items  map[uint]*models.Item
	loans  map[uint]*models.Loan
	lines  map[uint]*models.LoanLine
	guests map[uint]*models.GuestBorrower
	users  map[uint]*models.User
	lastID uint
}

func newMemStore() *memStore {
	return &memStore{
		items:  make(map[uint]*models.Item),
		loans:  make(map[uint]*models.Loan),
		lines:  make(map[uint]*models.LoanLine),
		guests: make(map[uint]*models.GuestBorrower),
		users:  make(map[uint]*models.User),
	}
}

func (s *memStore) nextID() uint {
	s.lastID++
	return s.lastID
}

func cloneItem(i *models.Item) *models.Item {
	c := *i
	c.Category = nil
	return &c
}

func cloneLoan(l *models.Loan) *models.Loan {
	c := *l
	c.Lines = nil
	return &c
}

func cloneLine(ln *models.LoanLine) *models.LoanLine {
	c := *ln
	c.Loan = nil
	c.Item = nil
	return &c
}

func cloneGuest(g *models.GuestBorrower) *models.GuestBorrower {
	c := *g
	return &c
}

func cloneUser(u *models.User) *models.User {
	c := *u
	return &c
}

// snapshot deep-copies the store so a failed unit of work can roll back.
func (s *memStore) snapshot() *memStore {
	snap := newMemStore()
	snap.lastID = s.lastID
	for id, v := range s.items {
		snap.items[id] = cloneItem(v)
	}
	for id, v := range s.loans {
		snap.loans[id] = cloneLoan(v)
	}
	for id, v := range s.lines {
		snap.lines[id] = cloneLine(v)
	}
	for id, v := range s.guests {
		snap.guests[id] = cloneGuest(v)
	}
	for id, v := range s.users {
		snap.users[id] = cloneUser(v)
	}
	return snap
}

func (s *memStore) restore(snap *memStore) {
	s.items = snap.items
	s.loans = snap.loans
	s.lines = snap.lines
	s.guests = snap.guests
	s.users = snap.users
	s.lastID = snap.lastID
}

// activeLineItemIDs mirrors the reconciler subquery: items with a loaned line
// on a non-deleted loan in active/pending/overdue state.
func (s *memStore) activeLineItemIDs() map[uint]bool {
	ids := make(map[uint]bool)
	for _, ln := range s.lines {
		if ln.Status != models.LineStatusLoaned {
			continue
		}
		loan, ok := s.loans[ln.LoanID]
		if !ok || loan.DeletedAt.Valid {
			continue
		}
		if models.IsActiveLoanStatus(loan.Status) {
			ids[ln.ItemID] = true
		}
	}
	return ids
}

func itemOnLoan(status string) bool {
	return status == models.ItemStatusBorrowed || status == models.ItemStatusOverdue
}

// ============================================================
// Fake repositories
// ============================================================

type fakeItemRepo struct{ s *memStore }

func (r *fakeItemRepo) Create(_ context.Context, item *models.Item) error {
	item.ID = r.s.nextID()
	r.s.items[item.ID] = cloneItem(item)
	return nil
}

func (r *fakeItemRepo) GetByID(_ context.Context, id uint) (*models.Item, error) {
	item, ok := r.s.items[id]
	if !ok || item.DeletedAt.Valid {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneItem(item), nil
}

func (r *fakeItemRepo) GetByIDForUpdate(ctx context.Context, id uint) (*models.Item, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeItemRepo) Update(_ context.Context, item *models.Item) error {
	r.s.items[item.ID] = cloneItem(item)
	return nil
}

func (r *fakeItemRepo) UpdateStatus(_ context.Context, id uint, status string) error {
	item, ok := r.s.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.Status = status
	return nil
}

func (r *fakeItemRepo) List(_ context.Context, offset, limit int, status string) ([]*models.Item, int64, error) {
	var all []*models.Item
	for _, item := range r.s.items {
		if item.DeletedAt.Valid {
			continue
		}
		if status != "" && item.Status != status {
			continue
		}
		all = append(all, cloneItem(item))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (r *fakeItemRepo) LowercaseStatuses(_ context.Context) (int64, error) {
	var n int64
	for _, item := range r.s.items {
		lower := strings.ToLower(item.Status)
		if item.Status != lower {
			item.Status = lower
			n++
		}
	}
	return n, nil
}

func (r *fakeItemRepo) ReleaseAllOnLoan(_ context.Context) (int64, error) {
	var n int64
	for _, item := range r.s.items {
		if itemOnLoan(item.Status) {
			item.Status = models.ItemStatusAvailable
			n++
		}
	}
	return n, nil
}

func (r *fakeItemRepo) MarkBorrowedForActiveLoans(_ context.Context) (int64, error) {
	active := r.s.activeLineItemIDs()
	var n int64
	for id, item := range r.s.items {
		if !itemOnLoan(item.Status) && active[id] {
			item.Status = models.ItemStatusBorrowed
			n++
		}
	}
	return n, nil
}

func (r *fakeItemRepo) ReleaseOrphanedOnLoan(_ context.Context) (int64, error) {
	active := r.s.activeLineItemIDs()
	var n int64
	for id, item := range r.s.items {
		if itemOnLoan(item.Status) && !active[id] {
			item.Status = models.ItemStatusAvailable
			n++
		}
	}
	return n, nil
}

func (r *fakeItemRepo) MarkOverdueForOverdueLoans(_ context.Context) (int64, error) {
	overdue := make(map[uint]bool)
	for _, ln := range r.s.lines {
		if ln.Status != models.LineStatusLoaned {
			continue
		}
		loan, ok := r.s.loans[ln.LoanID]
		if ok && !loan.DeletedAt.Valid && loan.Status == models.LoanStatusOverdue {
			overdue[ln.ItemID] = true
		}
	}
	var n int64
	for id, item := range r.s.items {
		if item.Status == models.ItemStatusBorrowed && overdue[id] {
			item.Status = models.ItemStatusOverdue
			n++
		}
	}
	return n, nil
}

type fakeLoanRepo struct{ s *memStore }

func (r *fakeLoanRepo) Create(_ context.Context, loan *models.Loan) error {
	loan.ID = r.s.nextID()
	if loan.CreatedAt.IsZero() {
		loan.CreatedAt = time.Now()
	}
	r.s.loans[loan.ID] = cloneLoan(loan)
	return nil
}

func (r *fakeLoanRepo) loadLines(loan *models.Loan) {
	var lines []models.LoanLine
	for _, ln := range r.s.lines {
		if ln.LoanID != loan.ID {
			continue
		}
		c := cloneLine(ln)
		if item, ok := r.s.items[ln.ItemID]; ok {
			c.Item = cloneItem(item)
		}
		lines = append(lines, *c)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })
	loan.Lines = lines
}

func (r *fakeLoanRepo) GetByID(_ context.Context, id uint) (*models.Loan, error) {
	loan, ok := r.s.loans[id]
	if !ok || loan.DeletedAt.Valid {
		return nil, gorm.ErrRecordNotFound
	}
	c := cloneLoan(loan)
	r.loadLines(c)
	return c, nil
}

func (r *fakeLoanRepo) GetByIDForUpdate(_ context.Context, id uint) (*models.Loan, error) {
	loan, ok := r.s.loans[id]
	if !ok || loan.DeletedAt.Valid {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneLoan(loan), nil
}

func (r *fakeLoanRepo) GetDeletedByID(_ context.Context, id uint) (*models.Loan, error) {
	loan, ok := r.s.loans[id]
	if !ok || !loan.DeletedAt.Valid {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneLoan(loan), nil
}

func (r *fakeLoanRepo) GetByLoanNumber(_ context.Context, loanNumber string) (*models.Loan, error) {
	for _, loan := range r.s.loans {
		if loan.LoanNumber == loanNumber && !loan.DeletedAt.Valid {
			c := cloneLoan(loan)
			r.loadLines(c)
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeLoanRepo) Update(_ context.Context, loan *models.Loan) error {
	stored, ok := r.s.loans[loan.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c := cloneLoan(loan)
	c.DeletedAt = stored.DeletedAt
	r.s.loans[loan.ID] = c
	return nil
}

func (r *fakeLoanRepo) UpdateFields(_ context.Context, id uint, fields map[string]interface{}) error {
	loan, ok := r.s.loans[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "voucher_path":
			path := v.(string)
			loan.VoucherPath = &path
		case "status":
			loan.Status = v.(string)
		}
	}
	return nil
}

func (r *fakeLoanRepo) SoftDelete(_ context.Context, id uint) error {
	loan, ok := r.s.loans[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	loan.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	return nil
}

func (r *fakeLoanRepo) Restore(_ context.Context, id uint) error {
	loan, ok := r.s.loans[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	loan.DeletedAt = gorm.DeletedAt{}
	return nil
}

func (r *fakeLoanRepo) List(_ context.Context, offset, limit int, status string) ([]*models.Loan, int64, error) {
	var all []*models.Loan
	for _, loan := range r.s.loans {
		if loan.DeletedAt.Valid {
			continue
		}
		if status != "" && loan.Status != status {
			continue
		}
		c := cloneLoan(loan)
		r.loadLines(c)
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (r *fakeLoanRepo) MarkOverdue(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, loan := range r.s.loans {
		if loan.DeletedAt.Valid || loan.Status != models.LoanStatusActive {
			continue
		}
		if loan.DueDate.Before(now) {
			loan.Status = models.LoanStatusOverdue
			n++
		}
	}
	return n, nil
}

type fakeLineRepo struct{ s *memStore }

func (r *fakeLineRepo) Create(_ context.Context, line *models.LoanLine) error {
	for _, ln := range r.s.lines {
		if ln.LoanID == line.LoanID && ln.ItemID == line.ItemID {
			return errors.New("duplicate loan line")
		}
	}
	line.ID = r.s.nextID()
	r.s.lines[line.ID] = cloneLine(line)
	return nil
}

func (r *fakeLineRepo) Update(_ context.Context, line *models.LoanLine) error {
	if _, ok := r.s.lines[line.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.s.lines[line.ID] = cloneLine(line)
	return nil
}

func (r *fakeLineRepo) ListByLoan(_ context.Context, loanID uint) ([]*models.LoanLine, error) {
	var lines []*models.LoanLine
	for _, ln := range r.s.lines {
		if ln.LoanID == loanID {
			lines = append(lines, cloneLine(ln))
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })
	return lines, nil
}

func (r *fakeLineRepo) GetLoanedByLoanAndItem(_ context.Context, loanID, itemID uint) (*models.LoanLine, error) {
	for _, ln := range r.s.lines {
		if ln.LoanID == loanID && ln.ItemID == itemID && ln.Status == models.LineStatusLoaned {
			return cloneLine(ln), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeLineRepo) DeleteByLoan(_ context.Context, loanID uint) error {
	for id, ln := range r.s.lines {
		if ln.LoanID == loanID {
			delete(r.s.lines, id)
		}
	}
	return nil
}

func (r *fakeLineRepo) CountOpenByLoan(_ context.Context, loanID uint) (int64, error) {
	var n int64
	for _, ln := range r.s.lines {
		if ln.LoanID == loanID && ln.IsOpen() {
			n++
		}
	}
	return n, nil
}

func (r *fakeLineRepo) ExistsLoanedElsewhere(_ context.Context, itemID, excludeLoanID uint) (bool, error) {
	for _, ln := range r.s.lines {
		if ln.ItemID != itemID || ln.LoanID == excludeLoanID || ln.Status != models.LineStatusLoaned {
			continue
		}
		loan, ok := r.s.loans[ln.LoanID]
		if ok && !loan.DeletedAt.Valid && models.IsActiveLoanStatus(loan.Status) {
			return true, nil
		}
	}
	return false, nil
}

type fakeGuestRepo struct{ s *memStore }

func (r *fakeGuestRepo) Create(_ context.Context, guest *models.GuestBorrower) error {
	guest.ID = r.s.nextID()
	r.s.guests[guest.ID] = cloneGuest(guest)
	return nil
}

func (r *fakeGuestRepo) GetByID(_ context.Context, id uint) (*models.GuestBorrower, error) {
	guest, ok := r.s.guests[id]
	if !ok || guest.DeletedAt.Valid {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneGuest(guest), nil
}

func (r *fakeGuestRepo) Update(_ context.Context, guest *models.GuestBorrower) error {
	if _, ok := r.s.guests[guest.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.s.guests[guest.ID] = cloneGuest(guest)
	return nil
}

type fakeUserRepo struct{ s *memStore }

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	user.ID = r.s.nextID()
	r.s.users[user.ID] = cloneUser(user)
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	user, ok := r.s.users[id]
	if !ok || user.DeletedAt.Valid {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneUser(user), nil
}

func (r *fakeUserRepo) Exists(_ context.Context, id uint) (bool, error) {
	user, ok := r.s.users[id]
	return ok && !user.DeletedAt.Valid, nil
}

func newFakeRepos(s *memStore) repositories.Repos {
	return repositories.Repos{
		Items:  &fakeItemRepo{s: s},
		Loans:  &fakeLoanRepo{s: s},
		Lines:  &fakeLineRepo{s: s},
		Guests: &fakeGuestRepo{s: s},
		Users:  &fakeUserRepo{s: s},
	}
}

// fakeUnitOfWork snapshots the store and restores it when fn fails, matching
// the rollback guarantee of the real transaction.
type fakeUnitOfWork struct{ s *memStore }

func (u *fakeUnitOfWork) Do(_ context.Context, fn func(r repositories.Repos) error) error {
	snap := u.s.snapshot()
	if err := fn(newFakeRepos(u.s)); err != nil {
		u.s.restore(snap)
		return err
	}
	return nil
}

// fakeVoucherGen records calls and the line count of the loan it was handed;
// fails when err is set.
type fakeVoucherGen struct {
	err       error
	calls     int
	lastLines int
}

func (g *fakeVoucherGen) Generate(_ context.Context, loan *models.Loan) (string, error) {
	g.calls++
	g.lastLines = len(loan.Lines)
	if g.err != nil {
		return "", g.err
	}
	return "vouchers/" + loan.LoanNumber + ".html", nil
}

// ============================================================
// Test environment
// ============================================================

type testEnv struct {
	store    *memStore
	repos    repositories.Repos
	vouchers *fakeVoucherGen
	loans    *services.LoanService
}

func newTestEnv() *testEnv {
	store := newMemStore()
	repos := newFakeRepos(store)
	vouchers := &fakeVoucherGen{}
	loans := services.NewLoanService(
		&fakeUnitOfWork{s: store},
		repos,
		services.NewInventoryService(),
		services.NewBorrowerService(),
		vouchers,
	)
	return &testEnv{
		store:    store,
		repos:    repos,
		vouchers: vouchers,
		loans:    loans,
	}
}

func (e *testEnv) seedItem(name, status string) *models.Item {
	item := &models.Item{Name: name, Status: status}
	_ = (&fakeItemRepo{s: e.store}).Create(context.Background(), item)
	return item
}

func (e *testEnv) seedUser(name string) *models.User {
	user := &models.User{Name: name, Username: strings.ToLower(name), Email: strings.ToLower(name) + "@example.com", IsActive: true}
	_ = (&fakeUserRepo{s: e.store}).Create(context.Background(), user)
	return user
}

func (e *testEnv) itemStatus(id uint) string {
	return e.store.items[id].Status
}

func guestInput(name string) services.BorrowerInput {
	return services.BorrowerInput{
		Type:       models.BorrowerTypeGuest,
		GuestName:  name,
		GuestEmail: strings.ToLower(name) + "@example.com",
	}
}

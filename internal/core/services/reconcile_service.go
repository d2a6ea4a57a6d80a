package services

import (
	"context"
	"log"
	"time"

	"lendstock/internal/adapters/persistence/repositories"
)

// ReconcileService is the consistency reconciler: idempotent corrective
// sweeps that realign Item.status with the true set of active loan
// attachments. All sweeps are statement-level updates, safe to run
// repeatedly, in any order, and concurrently with live traffic.
type ReconcileService struct {
	repos repositories.Repos
}

// NewReconcileService creates a new reconcile service
func NewReconcileService(repos repositories.Repos) *ReconcileService {
	return &ReconcileService{repos: repos}
}

// NormalizeCase forces every item status to lowercase.
func (s *ReconcileService) NormalizeCase(ctx context.Context) (int64, error) {
	n, err := s.repos.Items.LowercaseStatuses(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("reconcile: normalized case on %d item statuses", n)
	}
	return n, nil
}

// SyncStatus is the forward-sync: a full rebuild of item statuses from the
// loan table. Every on-loan item is reset to available, then exactly the
// items attached to active/pending/overdue loans are re-marked borrowed.
// Authoritative and destructive — whatever the loan table says wins. Use
// after suspected large-scale corruption.
func (s *ReconcileService) SyncStatus(ctx context.Context) (int64, error) {
	released, err := s.repos.Items.ReleaseAllOnLoan(ctx)
	if err != nil {
		return 0, err
	}
	marked, err := s.repos.Items.MarkBorrowedForActiveLoans(ctx)
	if err != nil {
		return released, err
	}
	log.Printf("reconcile: sync reset %d items, re-marked %d borrowed", released, marked)
	return released + marked, nil
}

// FixStatus is the backward-fix: a minimal-diff correction that only touches
// items found inconsistent. Items on active loans that are not marked on
// loan become borrowed; on-loan items no active loan references become
// available. Safe to run frequently without flapping unrelated items.
func (s *ReconcileService) FixStatus(ctx context.Context) (int64, error) {
	borrowed, err := s.repos.Items.MarkBorrowedForActiveLoans(ctx)
	if err != nil {
		return 0, err
	}
	freed, err := s.repos.Items.ReleaseOrphanedOnLoan(ctx)
	if err != nil {
		return borrowed, err
	}
	if borrowed+freed > 0 {
		log.Printf("reconcile: fix marked %d borrowed, freed %d orphaned", borrowed, freed)
	}
	return borrowed + freed, nil
}

// MarkOverdue flips active loans past their due date to overdue and their
// borrowed items with them.
func (s *ReconcileService) MarkOverdue(ctx context.Context) (int64, error) {
	loans, err := s.repos.Loans.MarkOverdue(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	items, err := s.repos.Items.MarkOverdueForOverdueLoans(ctx)
	if err != nil {
		return loans, err
	}
	if loans > 0 {
		log.Printf("reconcile: marked %d loans overdue (%d items)", loans, items)
	}
	return loans, nil
}

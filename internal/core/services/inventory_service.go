package services

import (
	"context"
	"strings"

	"lendstock/internal/adapters/persistence/models"
	"lendstock/internal/adapters/persistence/repositories"
	"lendstock/internal/core/domain"
)

// InventoryService is the inventory ledger: it answers availability queries
// and is the only sanctioned mutator of an item's cached status. All status
// writes route through SetStatus so normalization and enum checks stay in
// one place.
type InventoryService struct{}

// NewInventoryService creates a new inventory service
func NewInventoryService() *InventoryService {
	return &InventoryService{}
}

// IsAvailable reports whether the item is free to attach to a loan.
func (s *InventoryService) IsAvailable(item *models.Item) bool {
	return item.Status == models.ItemStatusAvailable
}

// IsOnLoan reports whether the cached status marks the item as held by a loan.
func (s *InventoryService) IsOnLoan(item *models.Item) bool {
	return item.Status == models.ItemStatusBorrowed || item.Status == models.ItemStatusOverdue
}

// IsCurrentlyLoaned answers from the loan tables, not the cached status:
// true iff the item has a loaned line on a loan in active/pending/overdue.
func (s *InventoryService) IsCurrentlyLoaned(ctx context.Context, r repositories.Repos, itemID uint) (bool, error) {
	return r.Lines.ExistsLoanedElsewhere(ctx, itemID, 0)
}

// SetStatus normalizes, validates and persists an item status change
// immediately, so queries in the same transaction see it synchronously.
func (s *InventoryService) SetStatus(ctx context.Context, r repositories.Repos, item *models.Item, status string) error {
	status = strings.ToLower(strings.TrimSpace(status))
	if !models.ValidItemStatus(status) {
		return domain.ErrInvalidItemStatus
	}
	if item.Status == status {
		return nil
	}
	if err := r.Items.UpdateStatus(ctx, item.ID, status); err != nil {
		return err
	}
	item.Status = status
	return nil
}

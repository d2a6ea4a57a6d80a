package handlers

import (
	"lendstock/internal/core/services"
	"lendstock/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler exposes the reconciliation sweeps as manual triggers. They
// also run on the cron schedule; these endpoints exist for operators.
type AdminHandler struct {
	reconcile *services.ReconcileService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(reconcile *services.ReconcileService) *AdminHandler {
	return &AdminHandler{reconcile: reconcile}
}

// NormalizeCase lowercases every item status
func (h *AdminHandler) NormalizeCase(c *fiber.Ctx) error {
	n, err := h.reconcile.NormalizeCase(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Normalize case sweep failed")
	}
	return response.Success(c, "Item statuses normalized", fiber.Map{"updated": n})
}

// SyncStatus rebuilds all item statuses from the loan table
func (h *AdminHandler) SyncStatus(c *fiber.Ctx) error {
	n, err := h.reconcile.SyncStatus(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Status sync sweep failed")
	}
	return response.Success(c, "Item statuses synced from loans", fiber.Map{"updated": n})
}

// FixStatus corrects only inconsistent items
func (h *AdminHandler) FixStatus(c *fiber.Ctx) error {
	n, err := h.reconcile.FixStatus(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Status fix sweep failed")
	}
	return response.Success(c, "Inconsistent item statuses fixed", fiber.Map{"updated": n})
}

// MarkOverdue flips due loans (and their items) to overdue
func (h *AdminHandler) MarkOverdue(c *fiber.Ctx) error {
	n, err := h.reconcile.MarkOverdue(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Overdue sweep failed")
	}
	return response.Success(c, "Overdue loans marked", fiber.Map{"loans": n})
}

package handlers

import (
	"strconv"

	"lendstock/internal/core/services"
	"lendstock/internal/pkg/pagination"
	"lendstock/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LoanHandler handles loan lifecycle endpoints
type LoanHandler struct {
	loanService *services.LoanService
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// parseID parses the :id route param
func parseID(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fiber.ErrBadRequest
	}
	return uint(id), nil
}

// Create creates a new loan with its items
func (h *LoanHandler) Create(c *fiber.Ctx) error {
	var input services.CreateLoanInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if len(input.Items) == 0 {
		return response.BadRequest(c, "At least one item is required")
	}

	loan, err := h.loanService.Create(c.Context(), &input)
	if err != nil {
		// Voucher failure still carries the committed loan
		if loan != nil {
			return c.Status(fiber.StatusCreated).JSON(response.Response{
				Success: true,
				Message: "Loan created, voucher generation failed",
				Data:    fiber.Map{"loan": loan},
				Error:   err.Error(),
			})
		}
		return response.DomainError(c, err)
	}

	return response.Created(c, "Loan created successfully", fiber.Map{"loan": loan})
}

// List lists loans with pagination and optional status filter
func (h *LoanHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	status := c.Query("status")

	loans, total, err := h.loanService.List(c.Context(), params.Offset, params.Limit, status)
	if err != nil {
		return response.InternalServerError(c, "Failed to list loans")
	}

	return response.Success(c, "Loans retrieved", pagination.NewResponse(loans, params, total))
}

// GetByID gets a loan with its lines
func (h *LoanHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid loan id")
	}

	loan, err := h.loanService.GetByID(c.Context(), id)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Loan retrieved", fiber.Map{"loan": loan})
}

// Update edits a loan's borrower, dates, notes, status or item set
func (h *LoanHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid loan id")
	}

	var input services.UpdateLoanInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	loan, err := h.loanService.Update(c.Context(), id, &input)
	if err != nil {
		if loan != nil {
			return response.Success(c, "Loan updated, voucher generation failed", fiber.Map{"loan": loan})
		}
		return response.DomainError(c, err)
	}

	return response.Success(c, "Loan updated successfully", fiber.Map{"loan": loan})
}

// Return closes a whole loan with per-item outcomes
func (h *LoanHandler) Return(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid loan id")
	}

	var input services.ReturnLoanInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	loan, err := h.loanService.Return(c.Context(), id, &input)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Loan returned successfully", fiber.Map{"loan": loan})
}

// ReturnItem returns a single item line of a loan
func (h *LoanHandler) ReturnItem(c *fiber.Ctx) error {
	loanID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid loan id")
	}
	itemID, err := parseID(c, "item_id")
	if err != nil {
		return response.BadRequest(c, "Invalid item id")
	}

	var input services.ReturnItemInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	returned, err := h.loanService.ReturnItem(c.Context(), loanID, itemID, &input)
	if err != nil {
		return response.DomainError(c, err)
	}
	if !returned {
		return response.Success(c, "Item has no open line on this loan", fiber.Map{"returned": false})
	}

	return response.Success(c, "Item returned successfully", fiber.Map{"returned": true})
}

// Cancel cancels a loan
func (h *LoanHandler) Cancel(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid loan id")
	}

	loan, err := h.loanService.Cancel(c.Context(), id)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Loan canceled", fiber.Map{"loan": loan})
}

// Delete soft-deletes a loan
func (h *LoanHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid loan id")
	}

	if err := h.loanService.Delete(c.Context(), id); err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Loan deleted", nil)
}

// Restore undeletes a loan
func (h *LoanHandler) Restore(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid loan id")
	}

	loan, err := h.loanService.Restore(c.Context(), id)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Loan restored", fiber.Map{"loan": loan})
}

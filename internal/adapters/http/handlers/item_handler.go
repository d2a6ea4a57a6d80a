package handlers

import (
	"errors"
	"strings"

	"lendstock/internal/adapters/persistence/models"
	"lendstock/internal/adapters/persistence/repositories"
	"lendstock/internal/core/services"
	"lendstock/internal/pkg/pagination"
	"lendstock/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ItemHandler handles inventory item endpoints
type ItemHandler struct {
	repos     repositories.Repos
	inventory *services.InventoryService
}

// NewItemHandler creates a new item handler
func NewItemHandler(repos repositories.Repos, inventory *services.InventoryService) *ItemHandler {
	return &ItemHandler{repos: repos, inventory: inventory}
}

// CreateItemRequest represents create item request
type CreateItemRequest struct {
	Name         string `json:"name"`
	Notes        string `json:"notes,omitempty"`
	CategoryID   *uint  `json:"category_id,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	AssetTag     string `json:"asset_tag,omitempty"`
}

// Create creates a new inventory item
func (h *ItemHandler) Create(c *fiber.Ctx) error {
	var req CreateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Name) == "" {
		return response.BadRequest(c, "Item name is required")
	}

	item := &models.Item{
		Name:         req.Name,
		Notes:        req.Notes,
		CategoryID:   req.CategoryID,
		SerialNumber: req.SerialNumber,
		AssetTag:     req.AssetTag,
		Status:       models.ItemStatusAvailable,
	}
	if err := h.repos.Items.Create(c.Context(), item); err != nil {
		return response.InternalServerError(c, "Failed to create item")
	}

	return response.Created(c, "Item created successfully", fiber.Map{"item": item})
}

// List lists items with pagination and optional status filter
func (h *ItemHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	status := strings.ToLower(strings.TrimSpace(c.Query("status")))

	items, total, err := h.repos.Items.List(c.Context(), params.Offset, params.Limit, status)
	if err != nil {
		return response.InternalServerError(c, "Failed to list items")
	}

	return response.Success(c, "Items retrieved", pagination.NewResponse(items, params, total))
}

// GetByID gets one item
func (h *ItemHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid item id")
	}

	item, err := h.repos.Items.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Item not found")
		}
		return response.InternalServerError(c, "Failed to get item")
	}

	return response.Success(c, "Item retrieved", fiber.Map{"item": item})
}

// UpdateStatusRequest represents a manual status override
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus sets an item's status directly (repair intake, loss writeoff)
func (h *ItemHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid item id")
	}

	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	item, err := h.repos.Items.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Item not found")
		}
		return response.InternalServerError(c, "Failed to get item")
	}

	if err := h.inventory.SetStatus(c.Context(), h.repos, item, req.Status); err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Item status updated", fiber.Map{"item": item})
}

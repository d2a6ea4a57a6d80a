package response

import (
	"errors"

	"lendstock/internal/core/domain"

	"github.com/gofiber/fiber/v2"
)

// Response represents a standard API response. Code carries the stable
// loan-domain error code when the error is a domain error.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    int         `json:"code,omitempty"`
}

// Success sends a success response
func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Created sends a 201 created response
func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error sends an error response
func Error(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(Response{
		Success: false,
		Error:   message,
	})
}

// BadRequest sends a 400 bad request response
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

// NotFound sends a 404 not found response
func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, message)
}

// Conflict sends a 409 conflict response
func Conflict(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusConflict, message)
}

// UnprocessableEntity sends a 422 response
func UnprocessableEntity(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnprocessableEntity, message)
}

// InternalServerError sends a 500 internal server error response
func InternalServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}

// DomainError maps a loan-domain error to an HTTP response carrying its
// stable numeric code.
func DomainError(c *fiber.Ctx, err error) error {
	var le *domain.LoanError
	if errors.As(err, &le) {
		status := fiber.StatusUnprocessableEntity
		switch le.Code {
		case domain.CodeInvalidItems:
			status = fiber.StatusNotFound
		case domain.CodeItemAlreadyBorrowed, domain.CodeInsufficientQuantity:
			status = fiber.StatusConflict
		case domain.CodeLoanCreationFailed, domain.CodeVoucherGenerationFailed:
			status = fiber.StatusInternalServerError
		}
		return c.Status(status).JSON(Response{
			Success: false,
			Error:   le.Message,
			Code:    le.Code,
		})
	}

	switch {
	case errors.Is(err, domain.ErrLoanNotFound), errors.Is(err, domain.ErrItemNotFound):
		return NotFound(c, err.Error())
	case errors.Is(err, domain.ErrLoanAlreadyReturned),
		errors.Is(err, domain.ErrLoanCanceled),
		errors.Is(err, domain.ErrInvalidLoanStatus),
		errors.Is(err, domain.ErrInvalidItemStatus):
		return BadRequest(c, err.Error())
	}
	return InternalServerError(c, "internal server error")
}

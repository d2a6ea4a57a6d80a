package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"lendstock/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoanErrorMatchesByCode(t *testing.T) {
	err := domain.NewInsufficientQuantity("Laptop", 2, 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientQuantity)
	assert.NotErrorIs(t, err, domain.ErrItemAlreadyBorrowed)
	assert.Contains(t, err.Error(), "Laptop")
	assert.Contains(t, err.Error(), "requested 2")

	// Matching survives wrapping
	wrapped := fmt.Errorf("creating loan: %w", err)
	assert.ErrorIs(t, wrapped, domain.ErrInsufficientQuantity)
}

func TestWrapLoanError(t *testing.T) {
	assert.NoError(t, domain.WrapLoanError(nil))

	// Domain errors pass through untouched
	already := domain.NewInvalidBorrower("no id")
	assert.Equal(t, already, domain.WrapLoanError(already))
	assert.ErrorIs(t, domain.WrapLoanError(already), domain.ErrInvalidBorrower)

	// Infrastructure errors become LoanCreationFailed and keep their cause
	cause := errors.New("connection reset")
	wrapped := domain.WrapLoanError(cause)
	assert.ErrorIs(t, wrapped, domain.ErrLoanCreationFailed)
	assert.ErrorIs(t, wrapped, cause)
}

func TestVoucherGenerationFailedKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := domain.NewVoucherGenerationFailed(cause)
	assert.ErrorIs(t, err, domain.ErrVoucherGenerationFailed)
	assert.ErrorIs(t, err, cause)

	var le *domain.LoanError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, domain.CodeVoucherGenerationFailed, le.Code)
}

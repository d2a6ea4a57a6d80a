package services_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"lendstock/internal/adapters/persistence/models"
	"lendstock/internal/core/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileVoucherGenerator(t *testing.T) {
	dir := t.TempDir()
	gen := services.NewFileVoucherGenerator(dir)

	loan := &models.Loan{
		LoanNumber:   "LN-20260310-ABCD1234",
		BorrowerType: models.BorrowerTypeGuest,
		BorrowerID:   1,
		LoanDate:     time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		DueDate:      time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		Status:       models.LoanStatusActive,
		Lines: []models.LoanLine{
			{
				ItemID:        3,
				Status:        models.LineStatusLoaned,
				Item:          &models.Item{ID: 3, Name: "ThinkPad X1"},
				SerialNumbers: models.EncodeSerialNumbers([]string{"TP-0001"}),
			},
		},
	}

	path, err := gen.Generate(context.Background(), loan)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, dir))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(content)
	assert.Contains(t, html, "LN-20260310-ABCD1234")
	assert.Contains(t, html, "ThinkPad X1")
	assert.Contains(t, html, "TP-0001")
	assert.Contains(t, html, "2026-04-10")
}

func TestFileVoucherGenerator_UniquePaths(t *testing.T) {
	dir := t.TempDir()
	gen := services.NewFileVoucherGenerator(dir)
	loan := &models.Loan{LoanNumber: "LN-20260310-ABCD1234", Status: models.LoanStatusActive}

	first, err := gen.Generate(context.Background(), loan)
	require.NoError(t, err)
	second, err := gen.Generate(context.Background(), loan)
	require.NoError(t, err)

	// Regeneration never overwrites an earlier voucher
	assert.NotEqual(t, first, second)
}

package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lendstock/internal/adapters/persistence/models"

	"github.com/google/uuid"
)

// VoucherGenerator produces a durable document snapshot of a loan and
// returns its storage path. Invoked outside the write transaction.
type VoucherGenerator interface {
	Generate(ctx context.Context, loan *models.Loan) (string, error)
}

// FileVoucherGenerator renders loan vouchers as HTML files on local disk.
type FileVoucherGenerator struct {
	dir string
}

// NewFileVoucherGenerator creates a voucher generator writing into dir
func NewFileVoucherGenerator(dir string) *FileVoucherGenerator {
	return &FileVoucherGenerator{dir: dir}
}

// Generate writes the voucher snapshot and returns its path
func (g *FileVoucherGenerator) Generate(_ context.Context, loan *models.Loan) (string, error) {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create voucher dir: %w", err)
	}

	name := fmt.Sprintf("voucher-%s-%s.html", loan.LoanNumber, strings.ToLower(uuid.NewString()[:8]))
	path := filepath.Join(g.dir, name)

	if err := os.WriteFile(path, []byte(renderVoucher(loan)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write voucher: %w", err)
	}
	return path, nil
}

func renderVoucher(loan *models.Loan) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head><title>Loan Voucher ")
	b.WriteString(loan.LoanNumber)
	b.WriteString("</title></head>\n<body>\n")
	fmt.Fprintf(&b, "<h1>Loan Voucher %s</h1>\n", loan.LoanNumber)
	fmt.Fprintf(&b, "<p>Borrower: %s #%d</p>\n", loan.BorrowerType, loan.BorrowerID)
	fmt.Fprintf(&b, "<p>Loan date: %s</p>\n", loan.LoanDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "<p>Due date: %s</p>\n", loan.DueDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "<p>Status: %s</p>\n", loan.Status)

	b.WriteString("<table border=\"1\">\n<tr><th>Item</th><th>Status</th><th>Condition</th><th>Serials</th></tr>\n")
	for _, line := range loan.Lines {
		itemName := fmt.Sprintf("#%d", line.ItemID)
		if line.Item != nil {
			itemName = line.Item.Name
		}
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			itemName, line.Status, line.ConditionBefore,
			strings.Join(models.DecodeSerialNumbers(line.SerialNumbers), ", "))
	}
	b.WriteString("</table>\n")

	fmt.Fprintf(&b, "<p>Generated at %s</p>\n", time.Now().Format(time.RFC3339))
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

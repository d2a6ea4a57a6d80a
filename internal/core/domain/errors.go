package domain

import (
	"errors"
	"fmt"
)

// Stable numeric codes for loan-domain errors. Callers match with errors.Is
// against the sentinel values below; codes stay stable for API consumers.
const (
	CodeLoanCreationFailed      = 1000
	CodeInvalidBorrower         = 1001
	CodeInvalidItems            = 1002
	CodeInsufficientQuantity    = 1003
	CodeInvalidSerialNumbers    = 1004
	CodeItemAlreadyBorrowed     = 1005
	CodeMissingRequiredData     = 1006
	CodeVoucherGenerationFailed = 1007
)

// LoanError is a loan-domain error carrying a stable numeric code.
type LoanError struct {
	Code    int
	Message string
	cause   error
}

func (e *LoanError) Error() string {
	return e.Message
}

// Is matches any LoanError with the same code, so sentinel values work as
// errors.Is targets for dynamically built instances.
func (e *LoanError) Is(target error) bool {
	var t *LoanError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func (e *LoanError) Unwrap() error {
	return e.cause
}

// Sentinel instances for errors.Is matching
var (
	ErrLoanCreationFailed      = &LoanError{Code: CodeLoanCreationFailed, Message: "loan creation failed"}
	ErrInvalidBorrower         = &LoanError{Code: CodeInvalidBorrower, Message: "invalid borrower"}
	ErrInvalidItems            = &LoanError{Code: CodeInvalidItems, Message: "invalid items"}
	ErrInsufficientQuantity    = &LoanError{Code: CodeInsufficientQuantity, Message: "insufficient quantity"}
	ErrInvalidSerialNumbers    = &LoanError{Code: CodeInvalidSerialNumbers, Message: "invalid serial numbers"}
	ErrItemAlreadyBorrowed     = &LoanError{Code: CodeItemAlreadyBorrowed, Message: "item already borrowed"}
	ErrMissingRequiredData     = &LoanError{Code: CodeMissingRequiredData, Message: "missing required data"}
	ErrVoucherGenerationFailed = &LoanError{Code: CodeVoucherGenerationFailed, Message: "voucher generation failed"}
)

// NewInvalidBorrower builds an InvalidBorrower error with detail.
func NewInvalidBorrower(detail string) *LoanError {
	return &LoanError{Code: CodeInvalidBorrower, Message: fmt.Sprintf("invalid borrower: %s", detail)}
}

// NewInvalidItems builds an InvalidItems error naming the offending item id.
func NewInvalidItems(itemID uint) *LoanError {
	return &LoanError{Code: CodeInvalidItems, Message: fmt.Sprintf("item %d not found", itemID)}
}

// NewInsufficientQuantity builds an InsufficientQuantity error for an item.
func NewInsufficientQuantity(itemName string, requested, available int) *LoanError {
	return &LoanError{
		Code:    CodeInsufficientQuantity,
		Message: fmt.Sprintf("insufficient quantity for %q: requested %d, available %d", itemName, requested, available),
	}
}

// NewInvalidSerialNumbers builds an InvalidSerialNumbers error for an item.
func NewInvalidSerialNumbers(itemName, detail string) *LoanError {
	return &LoanError{
		Code:    CodeInvalidSerialNumbers,
		Message: fmt.Sprintf("invalid serial numbers for %q: %s", itemName, detail),
	}
}

// NewItemAlreadyBorrowed builds an ItemAlreadyBorrowed error by item name.
func NewItemAlreadyBorrowed(itemName string) *LoanError {
	return &LoanError{Code: CodeItemAlreadyBorrowed, Message: fmt.Sprintf("item %q is already borrowed on another active loan", itemName)}
}

// NewMissingRequiredData builds a MissingRequiredData error with detail.
func NewMissingRequiredData(detail string) *LoanError {
	return &LoanError{Code: CodeMissingRequiredData, Message: fmt.Sprintf("missing required data: %s", detail)}
}

// NewVoucherGenerationFailed wraps a voucher generator failure.
func NewVoucherGenerationFailed(cause error) *LoanError {
	return &LoanError{
		Code:    CodeVoucherGenerationFailed,
		Message: fmt.Sprintf("voucher generation failed: %v", cause),
		cause:   cause,
	}
}

// WrapLoanError re-wraps unexpected mid-transaction errors as a
// LoanCreationFailed-coded error. Errors that already carry a domain code
// pass through untouched.
func WrapLoanError(err error) error {
	if err == nil {
		return nil
	}
	var le *LoanError
	if errors.As(err, &le) {
		return err
	}
	return &LoanError{
		Code:    CodeLoanCreationFailed,
		Message: fmt.Sprintf("loan operation failed: %v", err),
		cause:   err,
	}
}

// Transition-guard errors: invalid loan state transitions, raised as plain
// invalid-argument failures rather than coded loan errors.
var (
	ErrLoanNotFound        = errors.New("loan not found")
	ErrLoanAlreadyReturned = errors.New("loan already returned")
	ErrLoanCanceled        = errors.New("canceled loans cannot be returned")
	ErrItemNotFound        = errors.New("item not found")
	ErrInvalidLoanStatus   = errors.New("invalid loan status")
	ErrInvalidItemStatus   = errors.New("invalid item status")
)

package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Inventory
// ============================================================

// Item statuses. Status is the cached view of whether the item sits on a
// currently-active loan; the reconciler realigns it when it drifts.
const (
	ItemStatusAvailable   = "available"
	ItemStatusBorrowed    = "borrowed"
	ItemStatusOverdue     = "overdue"
	ItemStatusUnderRepair = "under_repair"
	ItemStatusLost        = "lost"
)

// ValidItemStatus reports whether s is one of the item status enums.
func ValidItemStatus(s string) bool {
	switch s {
	case ItemStatusAvailable, ItemStatusBorrowed, ItemStatusOverdue,
		ItemStatusUnderRepair, ItemStatusLost:
		return true
	}
	return false
}

// Category groups items
type Category struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Category) TableName() string {
	return "categories"
}

// Item represents one physical inventory unit (quantity is always 1)
type Item struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:200;not null" json:"name"`
	CategoryID   *uint          `gorm:"index" json:"category_id"`
	SerialNumber string         `gorm:"size:100;index" json:"serial_number"`
	AssetTag     string         `gorm:"size:100;index" json:"asset_tag"`
	Status       string         `gorm:"size:20;not null;default:'available';index" json:"status"`
	Notes        string         `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (Item) TableName() string {
	return "items"
}

// ============================================================
// Borrowers
// ============================================================

// Borrower kinds for the polymorphic loan borrower
const (
	BorrowerTypeUser  = "user"
	BorrowerTypeGuest = "guest"
)

// User is a registered borrower. Authentication lives outside this service;
// only the fields needed to resolve a loan counterparty are kept.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:150;not null" json:"name"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// GuestBorrower is an ad-hoc borrower tracked only via contact fields,
// created lazily the first time a loan names a guest.
type GuestBorrower struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:150;not null" json:"name"`
	Email        string         `gorm:"size:100;not null;index" json:"email"`
	Phone        string         `gorm:"size:30" json:"phone"`
	IDNumber     string         `gorm:"size:50" json:"id_number"`
	Organization string         `gorm:"size:150" json:"organization"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (GuestBorrower) TableName() string {
	return "guest_borrowers"
}

// ============================================================
// Loans
// ============================================================

// Loan statuses
const (
	LoanStatusPending  = "pending"
	LoanStatusActive   = "active"
	LoanStatusOverdue  = "overdue"
	LoanStatusReturned = "returned"
	LoanStatusCanceled = "canceled"
)

// ActiveLoanStatuses are the statuses in which a loan holds its items.
var ActiveLoanStatuses = []string{LoanStatusActive, LoanStatusPending, LoanStatusOverdue}

// IsActiveLoanStatus reports whether a loan in status s holds its items.
func IsActiveLoanStatus(s string) bool {
	return s == LoanStatusActive || s == LoanStatusPending || s == LoanStatusOverdue
}

// ValidLoanStatus reports whether s is one of the loan status enums.
func ValidLoanStatus(s string) bool {
	switch s {
	case LoanStatusPending, LoanStatusActive, LoanStatusOverdue,
		LoanStatusReturned, LoanStatusCanceled:
		return true
	}
	return false
}

// Loan covers one borrowing transaction: one borrower, one or more items.
type Loan struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	LoanNumber    string         `gorm:"size:40;uniqueIndex;not null" json:"loan_number"`
	BorrowerType  string         `gorm:"size:10;not null;index:idx_loans_borrower" json:"borrower_type"`
	BorrowerID    uint           `gorm:"not null;index:idx_loans_borrower" json:"borrower_id"`
	LoanDate      time.Time      `gorm:"not null" json:"loan_date"`
	DueDate       time.Time      `gorm:"not null" json:"due_date"`
	ReturnDate    *time.Time     `json:"return_date"`
	Status        string         `gorm:"size:20;not null;default:'active';index" json:"status"`
	Notes         string         `gorm:"type:text" json:"notes"`
	ConditionTags string         `gorm:"size:255" json:"condition_tags"`
	ReturnNotes   string         `gorm:"type:text" json:"return_notes"`
	VoucherPath   *string        `gorm:"size:255" json:"voucher_path"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Lines []LoanLine `gorm:"foreignKey:LoanID" json:"lines,omitempty"`
}

func (Loan) TableName() string {
	return "loans"
}

// IsReturned reports whether the loan is closed by return.
// Invariant: ReturnDate is non-nil iff Status == returned.
func (l *Loan) IsReturned() bool {
	return l.Status == LoanStatusReturned
}

// LoanLine statuses
const (
	LineStatusLoaned   = "loaned"
	LineStatusReturned = "returned"
	LineStatusDamaged  = "damaged"
	LineStatusLost     = "lost"
)

// LoanLine joins a Loan to one Item with its own return/condition sub-state.
// Quantity is a legacy column; one row is one physical unit, always 1.
type LoanLine struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	LoanID              uint       `gorm:"not null;uniqueIndex:idx_lines_loan_item" json:"loan_id"`
	ItemID              uint       `gorm:"not null;uniqueIndex:idx_lines_loan_item;index" json:"item_id"`
	Status              string     `gorm:"size:20;not null;default:'loaned';index" json:"status"`
	Quantity            int        `gorm:"not null;default:1" json:"quantity"`
	ConditionBefore     string     `gorm:"size:255" json:"condition_before"`
	ConditionAfter      string     `gorm:"size:255" json:"condition_after"`
	ConditionTags       string     `gorm:"size:255" json:"condition_tags"`
	ReturnNotes         string     `gorm:"type:text" json:"return_notes"`
	ReturnedBy          string     `gorm:"size:150" json:"returned_by"`
	ReturnedAt          *time.Time `json:"returned_at"`
	ConditionAssessedAt *time.Time `json:"condition_assessed_at"`
	SerialNumbers       string     `gorm:"type:text" json:"serial_numbers"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Loan *Loan `gorm:"foreignKey:LoanID" json:"-"`
	Item *Item `gorm:"foreignKey:ItemID" json:"item,omitempty"`
}

func (LoanLine) TableName() string {
	return "loan_lines"
}

// IsOpen reports whether the line still counts toward the loan staying open.
func (ll *LoanLine) IsOpen() bool {
	return ll.Status != LineStatusReturned && ll.Status != LineStatusLost
}

// EncodeSerialNumbers stores the serial snapshot as a JSON list.
func EncodeSerialNumbers(serials []string) string {
	if len(serials) == 0 {
		return ""
	}
	b, err := json.Marshal(serials)
	if err != nil {
		return ""
	}
	return string(b)
}

// DecodeSerialNumbers reads the serial snapshot back out of a line.
func DecodeSerialNumbers(encoded string) []string {
	if encoded == "" {
		return nil
	}
	var serials []string
	if err := json.Unmarshal([]byte(encoded), &serials); err != nil {
		return nil
	}
	return serials
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Category{},
		&Item{},
		&GuestBorrower{},
		&Loan{},
		&LoanLine{},
	)
}

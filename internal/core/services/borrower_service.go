package services

import (
	"context"
	"errors"
	"strings"

	"lendstock/internal/adapters/persistence/models"
	"lendstock/internal/adapters/persistence/repositories"
	"lendstock/internal/core/domain"

	"gorm.io/gorm"
)

// BorrowerInput declares a loan's counterparty: a registered user by id, or
// a guest by contact fields.
type BorrowerInput struct {
	Type              string `json:"borrower_type"`
	UserID            *uint  `json:"borrower_id,omitempty"`
	GuestName         string `json:"guest_name,omitempty"`
	GuestEmail        string `json:"guest_email,omitempty"`
	GuestPhone        string `json:"guest_phone,omitempty"`
	GuestIDNumber     string `json:"guest_id_number,omitempty"`
	GuestOrganization string `json:"guest_organization,omitempty"`
}

// Kind returns the normalized borrower kind.
func (in *BorrowerInput) Kind() string {
	return strings.ToLower(strings.TrimSpace(in.Type))
}

// BorrowerService resolves a loan's counterparty to a normalized
// (borrower_type, borrower_id) pair, creating guest borrower records on
// demand.
type BorrowerService struct{}

// NewBorrowerService creates a new borrower service
func NewBorrowerService() *BorrowerService {
	return &BorrowerService{}
}

// Validate fail-fast checks the borrower payload without touching storage.
func (s *BorrowerService) Validate(in *BorrowerInput) error {
	switch in.Kind() {
	case models.BorrowerTypeUser:
		if in.UserID == nil || *in.UserID == 0 {
			return domain.NewInvalidBorrower("borrower_id is required for user borrowers")
		}
	case models.BorrowerTypeGuest:
		if strings.TrimSpace(in.GuestName) == "" {
			return domain.NewMissingRequiredData("guest_name is required for guest borrowers")
		}
		if strings.TrimSpace(in.GuestEmail) == "" {
			return domain.NewMissingRequiredData("guest_email is required for guest borrowers")
		}
	default:
		return domain.NewInvalidBorrower("borrower_type must be user or guest")
	}
	return nil
}

// Resolve resolves the borrower for a new loan, creating the guest record
// when the payload names a guest.
func (s *BorrowerService) Resolve(ctx context.Context, r repositories.Repos, in *BorrowerInput) (string, uint, error) {
	if err := s.Validate(in); err != nil {
		return "", 0, err
	}

	if in.Kind() == models.BorrowerTypeUser {
		return s.resolveUser(ctx, r, *in.UserID)
	}

	guest := &models.GuestBorrower{
		Name:         strings.TrimSpace(in.GuestName),
		Email:        strings.TrimSpace(in.GuestEmail),
		Phone:        in.GuestPhone,
		IDNumber:     in.GuestIDNumber,
		Organization: in.GuestOrganization,
	}
	if err := r.Guests.Create(ctx, guest); err != nil {
		return "", 0, err
	}
	return models.BorrowerTypeGuest, guest.ID, nil
}

// ResolveForUpdate resolves the borrower for a loan edit. guest→guest updates
// the existing guest record in place (borrower_id stays stable); user→guest
// creates a fresh guest; any→user requires the new user id.
func (s *BorrowerService) ResolveForUpdate(ctx context.Context, r repositories.Repos, loan *models.Loan, in *BorrowerInput) (string, uint, error) {
	if err := s.Validate(in); err != nil {
		return "", 0, err
	}

	if in.Kind() == models.BorrowerTypeUser {
		return s.resolveUser(ctx, r, *in.UserID)
	}

	if loan.BorrowerType == models.BorrowerTypeGuest {
		guest, err := r.Guests.GetByID(ctx, loan.BorrowerID)
		if err == nil {
			guest.Name = strings.TrimSpace(in.GuestName)
			guest.Email = strings.TrimSpace(in.GuestEmail)
			guest.Phone = in.GuestPhone
			guest.IDNumber = in.GuestIDNumber
			guest.Organization = in.GuestOrganization
			if err := r.Guests.Update(ctx, guest); err != nil {
				return "", 0, err
			}
			return models.BorrowerTypeGuest, guest.ID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", 0, err
		}
		// guest row gone: fall through and recreate
	}

	return s.Resolve(ctx, r, in)
}

func (s *BorrowerService) resolveUser(ctx context.Context, r repositories.Repos, userID uint) (string, uint, error) {
	exists, err := r.Users.Exists(ctx, userID)
	if err != nil {
		return "", 0, err
	}
	if !exists {
		return "", 0, domain.NewInvalidBorrower("user not found")
	}
	return models.BorrowerTypeUser, userID, nil
}

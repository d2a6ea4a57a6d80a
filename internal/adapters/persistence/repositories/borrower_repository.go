package repositories

import (
	"context"
	"errors"

	"lendstock/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// GormGuestBorrowerRepository handles guest borrower data access
type GormGuestBorrowerRepository struct {
	db *gorm.DB
}

// NewGuestBorrowerRepository creates a new guest borrower repository
func NewGuestBorrowerRepository(db *gorm.DB) *GormGuestBorrowerRepository {
	return &GormGuestBorrowerRepository{db: db}
}

// Create creates a new guest borrower
func (r *GormGuestBorrowerRepository) Create(ctx context.Context, guest *models.GuestBorrower) error {
	return r.db.WithContext(ctx).Create(guest).Error
}

// GetByID gets a guest borrower by ID
func (r *GormGuestBorrowerRepository) GetByID(ctx context.Context, id uint) (*models.GuestBorrower, error) {
	var guest models.GuestBorrower
	err := r.db.WithContext(ctx).First(&guest, id).Error
	if err != nil {
		return nil, err
	}
	return &guest, nil
}

// Update updates a guest borrower
func (r *GormGuestBorrowerRepository) Update(ctx context.Context, guest *models.GuestBorrower) error {
	return r.db.WithContext(ctx).Save(guest).Error
}

// GormUserRepository handles user data access for borrower resolution
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID gets a user by ID
func (r *GormUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Exists reports whether a user with the given ID exists
func (r *GormUserRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var user models.User
	err := r.db.WithContext(ctx).Select("id").First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

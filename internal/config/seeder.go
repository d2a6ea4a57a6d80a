package config

import (
	"errors"
	"log"

	"lendstock/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// SeedData seeds development data: a few categories, items and users so the
// loan flows can be exercised right after boot. Production data comes from
// the admin import, never from here.
func SeedData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	categories := []models.Category{
		{Name: "Laptops", Description: "Portable computers"},
		{Name: "Cameras", Description: "Photo and video equipment"},
		{Name: "Tools", Description: "Workshop tools"},
	}
	if err := db.Create(&categories).Error; err != nil {
		return err
	}

	items := []models.Item{
		{Name: "ThinkPad X1", CategoryID: &categories[0].ID, SerialNumber: "TP-0001", AssetTag: "A-1001", Status: models.ItemStatusAvailable},
		{Name: "ThinkPad X1", CategoryID: &categories[0].ID, SerialNumber: "TP-0002", AssetTag: "A-1002", Status: models.ItemStatusAvailable},
		{Name: "Canon EOS R6", CategoryID: &categories[1].ID, SerialNumber: "CN-0001", AssetTag: "A-2001", Status: models.ItemStatusAvailable},
		{Name: "Cordless Drill", CategoryID: &categories[2].ID, SerialNumber: "DR-0001", AssetTag: "A-3001", Status: models.ItemStatusAvailable},
	}
	if err := db.Create(&items).Error; err != nil {
		return err
	}

	users := []models.User{
		{Name: "Alex Demo", Username: "alex", Email: "alex@example.com", IsActive: true},
		{Name: "Sam Demo", Username: "sam", Email: "sam@example.com", IsActive: true},
	}
	if err := db.Create(&users).Error; err != nil {
		// Users may exist from an earlier partial seed
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}

	log.Printf("Seeded %d categories, %d items, %d users", len(categories), len(items), len(users))
	return nil
}

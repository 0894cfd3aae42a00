package database

import (
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mixbooth/internal/models"
)

// SeedAdminUser creates the default admin account if no users exist yet.
// Change the password immediately through the API.
func SeedAdminUser(db *gorm.DB) {
	var count int64
	db.Model(&models.Users{}).Count(&count)
	if count > 0 {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("mixbooth-admin"), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("⚠️ Could not hash default admin password: %v", err)
		return
	}

	admin := models.Users{
		Username:     "admin",
		PasswordHash: string(hash),
		Role:         "admin",
	}

	// UPSERT based on 'Username' to prevent duplicates on restart
	db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoNothing: true,
	}).Create(&admin)

	log.Println("🌱 Seeded default admin user (admin / mixbooth-admin)")
}

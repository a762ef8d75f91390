package seeders

import (
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/questlab-edu/questlab_api/model"
	"github.com/questlab-edu/questlab_api/shared"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserSeeder handles seeding demo accounts for local development
type UserSeeder struct {
	db *gorm.DB
}

// NewUserSeeder creates a new user seeder
func NewUserSeeder(db *gorm.DB) *UserSeeder {
	return &UserSeeder{db: db}
}

// SeedUsers creates the demo student account if it does not exist.
// The password comes from SEED_USER_PASSWORD so real deployments never
// ship a known credential.
func (s *UserSeeder) SeedUsers() error {
	password := os.Getenv("SEED_USER_PASSWORD")
	if password == "" {
		log.Println("SEED_USER_PASSWORD not set, skipping demo user seeding")
		return nil
	}

	email := "demo@questlab.local"

	var existing model.User
	if err := s.db.Where("email = ?", email).First(&existing).Error; err == nil {
		log.Printf("Demo user %s already exists, skipping", email)
		return nil
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return err
	}

	now := time.Now()
	user := model.User{
		ID:        id.String(),
		Email:     email,
		Username:  "demo_student",
		Password:  string(hashed),
		Role:      shared.RoleStudent,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.db.Create(&user).Error; err != nil {
		return err
	}

	log.Printf("Created demo user: %s", email)
	return nil
}

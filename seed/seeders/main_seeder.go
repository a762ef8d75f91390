package seeders

import (
	"log"

	"gorm.io/gorm"
)

// MainSeeder coordinates all seeding operations
type MainSeeder struct {
	db *gorm.DB
}

// NewMainSeeder creates a new main seeder
func NewMainSeeder(db *gorm.DB) *MainSeeder {
	return &MainSeeder{db: db}
}

// SeedAll runs all seeders in the correct order
func (s *MainSeeder) SeedAll() error {
	log.Println("Starting database seeding...")

	moduleSeeder := NewModuleSeeder(s.db)
	if err := moduleSeeder.SeedModules(); err != nil {
		log.Printf("Module seeding failed: %v", err)
		return err
	}

	userSeeder := NewUserSeeder(s.db)
	if err := userSeeder.SeedUsers(); err != nil {
		log.Printf("User seeding failed: %v", err)
		return err
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

// SeedModulesOnly seeds only the learning module catalog
func (s *MainSeeder) SeedModulesOnly() error {
	moduleSeeder := NewModuleSeeder(s.db)
	return moduleSeeder.SeedModules()
}

// SeedUsersOnly seeds only the demo accounts
func (s *MainSeeder) SeedUsersOnly() error {
	userSeeder := NewUserSeeder(s.db)
	return userSeeder.SeedUsers()
}

package seeders

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/questlab-edu/questlab_api/model"
	"github.com/questlab-edu/questlab_api/shared"
	"gorm.io/gorm"
)

// ModuleSeeder handles seeding the learning module catalog
type ModuleSeeder struct {
	db *gorm.DB
}

// NewModuleSeeder creates a new module seeder
func NewModuleSeeder(db *gorm.DB) *ModuleSeeder {
	return &ModuleSeeder{db: db}
}

// SeedModules seeds the database with the starter module catalog.
// Existing slugs are left untouched so the seeder is safe to re-run.
func (s *ModuleSeeder) SeedModules() error {
	modules := s.getStarterModules()

	for _, module := range modules {
		var existing model.LearningModule
		if err := s.db.Where("slug = ?", module.Slug).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := s.db.Create(&module).Error; err != nil {
					log.Printf("Error creating module %s: %v", module.Slug, err)
					return err
				}
				log.Printf("Created module: %s", module.Slug)
			} else {
				log.Printf("Error checking module %s: %v", module.Slug, err)
				return err
			}
		} else {
			log.Printf("Module %s already exists, skipping", module.Slug)
		}
	}

	log.Println("Module seeding completed successfully")
	return nil
}

func (s *ModuleSeeder) getStarterModules() []model.LearningModule {
	now := time.Now()

	newModule := func(slug, title, subject, difficulty string, position int) model.LearningModule {
		id, _ := uuid.NewV7()
		return model.LearningModule{
			ID:         id.String(),
			Slug:       slug,
			Title:      title,
			Subject:    subject,
			Difficulty: difficulty,
			Position:   position,
			IsActive:   true,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}

	return []model.LearningModule{
		newModule("fractions-1", "Fractions I: Halves and Quarters", "math", shared.DifficultyBeginner, 1),
		newModule("fractions-2", "Fractions II: Comparing and Ordering", "math", shared.DifficultyIntermediate, 2),
		newModule("decimals-1", "Decimals I: Place Value", "math", shared.DifficultyBeginner, 3),
		newModule("word-roots-1", "Word Roots I: Latin Basics", "language", shared.DifficultyBeginner, 4),
		newModule("word-roots-2", "Word Roots II: Greek Origins", "language", shared.DifficultyIntermediate, 5),
		newModule("spelling-bee-1", "Spelling Bee Warmup", "language", shared.DifficultyBeginner, 6),
		newModule("geometry-1", "Geometry I: Shapes and Angles", "math", shared.DifficultyAdvanced, 7),
	}
}

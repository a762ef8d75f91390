package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/questlab-edu/questlab_api/model"
	"github.com/questlab-edu/questlab_api/seed/seeders"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var (
		seedType = flag.String("type", "all", "Type of seeding: all, modules, users")
		dbPath   = flag.String("db", "", "SQLite database path (used when DATABASE_URL is not set)")
		help     = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	db, err := openDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.GuestSession{},
		&model.LearningModule{},
		&model.Progress{},
		&model.GameResult{},
	); err != nil {
		log.Fatalf("Failed to migrate schema: %v", err)
	}

	mainSeeder := seeders.NewMainSeeder(db)

	switch *seedType {
	case "all":
		log.Println("Running complete database seeding...")
		if err := mainSeeder.SeedAll(); err != nil {
			log.Fatalf("Failed to seed database: %v", err)
		}
	case "modules":
		log.Println("Seeding learning modules only...")
		if err := mainSeeder.SeedModulesOnly(); err != nil {
			log.Fatalf("Failed to seed modules: %v", err)
		}
	case "users":
		log.Println("Seeding demo users only...")
		if err := mainSeeder.SeedUsersOnly(); err != nil {
			log.Fatalf("Failed to seed users: %v", err)
		}
	default:
		log.Fatalf("Unknown seed type: %s. Use 'all', 'modules', or 'users'", *seedType)
	}

	log.Println("Seeding operation completed successfully!")
}

func openDatabase(dbPath string) (*gorm.DB, error) {
	config := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		log.Println("Connecting to PostgreSQL via DATABASE_URL")
		return gorm.Open(postgres.Open(dsn), config)
	}

	if dbPath == "" {
		dbPath = os.Getenv("DB_NAME")
		if dbPath == "" {
			dbPath = "questlab.db"
		}
	}

	log.Printf("Connecting to SQLite database: %s", dbPath)
	return gorm.Open(sqlite.Open(dbPath), config)
}

func showHelp() {
	log.Println(`
Database Seeding Tool for QuestLab

Usage: go run seed/main.go [flags]

Flags:
  -type string
        Type of seeding to perform (default "all")
        Options: all, modules, users
  -db string
        SQLite database path (used when DATABASE_URL is not set)
  -help
        Show this help message

Examples:
  # Seed everything
  go run seed/main.go

  # Seed only the module catalog
  go run seed/main.go -type=modules

  # Seed against a custom SQLite file
  go run seed/main.go -db=./dev.db

Environment Variables:
  DATABASE_URL - PostgreSQL DSN (takes precedence over -db)
  DB_NAME      - Default SQLite path (default: questlab.db)`)
}

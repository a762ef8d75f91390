package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/questlab-edu/questlab_api/model"
)

// newTestStore opens an isolated in-memory database and runs the full
// migration against it. The connection pool is pinned to a single
// connection so every query sees the same in-memory database.
func newTestStore(t *testing.T) *PostgresService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	store := &PostgresService{db: db}
	require.NoError(t, store.Migrate())

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return store
}

func newTestTokenService() *TokenService {
	return &TokenService{jwtSecretKey: "test-signing-secret"}
}

func seedTestModule(t *testing.T, store *PostgresService, slug string) *model.LearningModule {
	t.Helper()

	module, err := store.CreateModule(&model.LearningModule{
		Slug:     slug,
		Title:    "Module " + slug,
		Subject:  "math",
		Position: 1,
		IsActive: true,
	})
	require.NoError(t, err)
	return module
}

func seedTestUser(t *testing.T, store *PostgresService, email, username string) *model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("SecurePass123!"), bcrypt.MinCost)
	require.NoError(t, err)

	user, err := store.CreateUser(&model.User{
		Email:    email,
		Username: username,
		Password: string(hash),
		Role:     "student",
		IsActive: true,
	})
	require.NoError(t, err)
	return user
}

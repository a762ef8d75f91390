package services

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/questlab-edu/questlab_api/dto"
	"github.com/questlab-edu/questlab_api/model"
	"github.com/questlab-edu/questlab_api/shared"
)

type PostgresService struct {
	context.DefaultService
	db *gorm.DB

	database string
}

const POSTGRES_SVC = "postgres_svc"

func (ds PostgresService) Id() string {
	return POSTGRES_SVC
}

func (ds PostgresService) Db() *gorm.DB {
	return ds.db
}

func (ds *PostgresService) Configure(ctx *context.Context) error {
	ds.database = os.Getenv("DATABASE_URL")
	if ds.database == "" {
		// Fallback to individual environment variables
		host := os.Getenv("DB_HOST")
		if host == "" {
			host = "localhost"
		}
		port := os.Getenv("DB_PORT")
		if port == "" {
			port = "5432"
		}
		user := os.Getenv("DB_USER")
		if user == "" {
			user = "postgres"
		}
		password := os.Getenv("DB_PASSWORD")
		if password == "" {
			password = "postgres"
		}
		dbname := os.Getenv("DB_NAME")
		if dbname == "" {
			dbname = "questlab_api"
		}
		sslmode := os.Getenv("DB_SSLMODE")
		if sslmode == "" {
			sslmode = "disable"
		}
		timezone := os.Getenv("DB_TIMEZONE")
		if timezone == "" {
			timezone = "UTC"
		}

		ds.database = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
			host, user, password, dbname, port, sslmode, timezone)
	}

	return ds.DefaultService.Configure(ctx)
}

func (ds *PostgresService) Start() (err error) {
	// Retry connection with exponential backoff
	maxRetries := 10
	retryDelay := time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.Printf("Attempting to connect to database (attempt %d/%d)...", attempt, maxRetries)

		ds.db, err = gorm.Open(postgres.Open(ds.database), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Error),
		})

		if err == nil {
			sqlDB, dbErr := ds.db.DB()
			if dbErr == nil {
				pingErr := sqlDB.Ping()
				if pingErr == nil {
					log.Println("Successfully connected to database")
					break
				}
				err = pingErr
			} else {
				err = dbErr
			}
		}

		if attempt == maxRetries {
			log.Printf("Failed to connect to database after %d attempts: %v", maxRetries, err)
			return err
		}

		log.Printf("Database connection failed: %v. Retrying in %v...", err, retryDelay)
		time.Sleep(retryDelay)

		retryDelay *= 2
		if retryDelay > 10*time.Second {
			retryDelay = 10 * time.Second
		}
	}

	if err := ds.Migrate(); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		return err
	}

	log.Println("Database connected and migrated successfully")
	return nil
}

func (ds *PostgresService) Migrate() error {
	return ds.db.AutoMigrate(
		&model.User{},
		&model.GuestSession{},
		&model.LearningModule{},
		&model.Progress{},
		&model.GameResult{},
		&model.RateLimit{},
		&model.RateLimitConfig{},
	)
}

func (ds *PostgresService) Shutdown() {
	sqlDB, err := ds.db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

func (ds *PostgresService) HandleError(err error) error {
	if err == nil {
		return nil
	}

	var statusCode int
	var errorType string

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		statusCode = http.StatusNotFound // 404
		errorType = "NOT_FOUND"
	case errors.Is(err, gorm.ErrDuplicatedKey):
		statusCode = http.StatusConflict // 409
		errorType = "CONFLICT"
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		statusCode = http.StatusBadRequest // 400
		errorType = "FOREIGN_KEY_VIOLATION"
	case errors.Is(err, gorm.ErrInvalidTransaction):
		statusCode = http.StatusInternalServerError // 500
		errorType = "TRANSACTION_ERROR"
	default:
		// Check for PostgreSQL-specific errors
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") ||
			strings.Contains(err.Error(), "UNIQUE constraint failed") {
			statusCode = http.StatusConflict // 409
			errorType = "UNIQUE_CONSTRAINT"
		} else if strings.Contains(err.Error(), "relation") && strings.Contains(err.Error(), "does not exist") {
			statusCode = http.StatusInternalServerError // 500
			errorType = "SCHEMA_ERROR"
		} else if strings.Contains(err.Error(), "connection refused") {
			statusCode = http.StatusServiceUnavailable // 503
			errorType = "DATABASE_CONNECTION_ERROR"
		} else {
			statusCode = http.StatusInternalServerError // 500
			errorType = "INTERNAL_ERROR"
		}
	}

	logEntry := log.WithFields(log.Fields{
		"status_code": statusCode,
		"error_type":  errorType,
		"error":       err.Error(),
	})

	if statusCode >= 500 {
		logEntry.Error("Database error occurred")
	} else {
		logEntry.Warn("Database operation failed")
	}

	return shared.NewAppError(statusCode, fmt.Errorf("%s: %w", errorType, err), http.StatusText(statusCode))
}

// ==================== USER METHODS ====================

func (ds *PostgresService) CreateUser(user *model.User) (*model.User, error) {
	id, _ := uuid.NewV7()
	user.ID = id.String()
	if err := ds.db.Create(user).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return user, nil
}

func (ds *PostgresService) GetUser(userID string) (*model.User, error) {
	var user model.User
	if err := ds.db.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return &user, nil
}

func (ds *PostgresService) GetUserByEmail(email string) (*model.User, error) {
	var user model.User
	if err := ds.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return &user, nil
}

func (ds *PostgresService) GetUserByUsername(username string) (*model.User, error) {
	var user model.User
	if err := ds.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return &user, nil
}

func (ds *PostgresService) UpdateUserLastLogin(userID string, lastLogin time.Time) error {
	err := ds.db.Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"last_login": lastLogin,
		"updated_at": time.Now(),
	}).Error
	if err != nil {
		return ds.HandleError(err)
	}
	return nil
}

// ==================== GUEST SESSION METHODS ====================

func (ds *PostgresService) CreateGuestSession(session *model.GuestSession) (*model.GuestSession, error) {
	id, _ := uuid.NewV7()
	session.ID = id.String()
	if err := ds.db.Create(session).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return session, nil
}

func (ds *PostgresService) GetGuestSession(guestID string) (*model.GuestSession, error) {
	var session model.GuestSession
	if err := ds.db.Where("id = ?", guestID).First(&session).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return &session, nil
}

func (ds *PostgresService) DeactivateGuestSession(guestID string) error {
	result := ds.db.Model(&model.GuestSession{}).Where("id = ?", guestID).Updates(map[string]interface{}{
		"is_active":  false,
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return ds.HandleError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ds.HandleError(gorm.ErrRecordNotFound)
	}
	return nil
}

// ==================== MODULE METHODS ====================

func (ds *PostgresService) CreateModule(module *model.LearningModule) (*model.LearningModule, error) {
	if module.ID == "" {
		id, _ := uuid.NewV7()
		module.ID = id.String()
	}
	if err := ds.db.Create(module).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return module, nil
}

func (ds *PostgresService) GetModule(moduleID string) (*model.LearningModule, error) {
	var module model.LearningModule
	if err := ds.db.Where("id = ? AND is_active = ?", moduleID, true).First(&module).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return &module, nil
}

func (ds *PostgresService) GetActiveModules() ([]model.LearningModule, error) {
	var modules []model.LearningModule
	if err := ds.db.Where("is_active = ?", true).Order("position ASC").Find(&modules).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return modules, nil
}

func (ds *PostgresService) CountModules() (int64, error) {
	var count int64
	if err := ds.db.Model(&model.LearningModule{}).Count(&count).Error; err != nil {
		return 0, ds.HandleError(err)
	}
	return count, nil
}

// ==================== PROGRESS METHODS ====================

func (ds *PostgresService) GetProgress(userID, moduleID string) (*model.Progress, error) {
	var progress model.Progress
	if err := ds.db.Where("user_id = ? AND module_id = ?", userID, moduleID).First(&progress).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return &progress, nil
}

// UpsertProgress is a single atomic INSERT ... ON CONFLICT (user_id,
// module_id) DO UPDATE. Concurrent calls for the same pair serialize on
// the unique index instead of racing a check-then-act.
func (ds *PostgresService) UpsertProgress(progress *model.Progress) (*model.Progress, error) {
	if progress.ID == "" {
		id, _ := uuid.NewV7()
		progress.ID = id.String()
	}

	err := ds.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "module_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"completion_pct", "time_spent", "score", "completed", "last_accessed", "updated_at",
		}),
	}).Create(progress).Error
	if err != nil {
		return nil, ds.HandleError(err)
	}

	// Re-read: on conflict the surviving row keeps its original id.
	return ds.GetProgress(progress.UserID, progress.ModuleID)
}

// CreateProgressIfAbsent inserts the row only when the (user, module)
// pair has none yet; a concurrent writer's values are never touched.
// Always returns the surviving row.
func (ds *PostgresService) CreateProgressIfAbsent(progress *model.Progress) (*model.Progress, error) {
	if progress.ID == "" {
		id, _ := uuid.NewV7()
		progress.ID = id.String()
	}

	err := ds.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "module_id"}},
		DoNothing: true,
	}).Create(progress).Error
	if err != nil {
		return nil, ds.HandleError(err)
	}

	return ds.GetProgress(progress.UserID, progress.ModuleID)
}

func (ds *PostgresService) TouchProgress(progressID string, lastAccessed time.Time) error {
	err := ds.db.Model(&model.Progress{}).Where("id = ?", progressID).Updates(map[string]interface{}{
		"last_accessed": lastAccessed,
		"updated_at":    time.Now(),
	}).Error
	if err != nil {
		return ds.HandleError(err)
	}
	return nil
}

func (ds *PostgresService) CountProgressRows(userID string) (int64, error) {
	var count int64
	if err := ds.db.Model(&model.Progress{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, ds.HandleError(err)
	}
	return count, nil
}

// ==================== GAME RESULT METHODS ====================

// RankedGameResult is one leaderboard row with the display names of
// whichever principal produced it.
type RankedGameResult struct {
	ID            string    `json:"id"`
	Score         int       `json:"score"`
	LevelReached  int       `json:"level_reached"`
	TimePlayed    int       `json:"time_played"`
	PlayedAt      time.Time `json:"played_at"`
	Username      string    `json:"username"`
	GuestUsername string    `json:"guest_username"`
}

// PlayerGameAggregate summarizes one player's results for a game type.
type PlayerGameAggregate struct {
	PlayCount    int64        `json:"play_count"`
	BestScore    int          `json:"best_score"`
	BestLevel    int          `json:"best_level"`
	FastestTime  int          `json:"fastest_time"`
	AverageScore float64      `json:"average_score"`
	LastPlayedAt sql.NullTime `json:"last_played_at"`
}

func (ds *PostgresService) CreateGameResult(result *model.GameResult) (*model.GameResult, error) {
	id, _ := uuid.NewV7()
	result.ID = id.String()
	if err := ds.db.Create(result).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return result, nil
}

func (ds *PostgresService) GetTopGameResults(gameType string, limit int) ([]RankedGameResult, error) {
	var rows []RankedGameResult

	err := ds.db.Model(&model.GameResult{}).
		Select("game_results.id, game_results.score, game_results.level_reached, game_results.time_played, game_results.played_at, "+
			"COALESCE(users.username, '') AS username, COALESCE(guest_sessions.username, '') AS guest_username").
		Joins("LEFT JOIN users ON users.id = game_results.user_id").
		Joins("LEFT JOIN guest_sessions ON guest_sessions.id = game_results.guest_session_id").
		Where("game_results.game_type = ?", gameType).
		Order("game_results.score DESC, game_results.level_reached DESC, game_results.time_played ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, ds.HandleError(err)
	}

	return rows, nil
}

func (ds *PostgresService) playerResults(db *gorm.DB, playerID string, isGuest bool) *gorm.DB {
	if isGuest {
		return db.Where("guest_session_id = ?", playerID)
	}
	return db.Where("user_id = ?", playerID)
}

func (ds *PostgresService) GetPlayerGameAggregate(playerID string, isGuest bool, gameType string) (*PlayerGameAggregate, error) {
	var agg PlayerGameAggregate

	query := ds.db.Model(&model.GameResult{}).
		Select("COUNT(*) AS play_count, " +
			"COALESCE(MAX(score), 0) AS best_score, " +
			"COALESCE(MAX(level_reached), 0) AS best_level, " +
			"COALESCE(MIN(time_played), 0) AS fastest_time, " +
			"COALESCE(AVG(score), 0) AS average_score, " +
			"MAX(played_at) AS last_played_at").
		Where("game_type = ?", gameType)

	if err := ds.playerResults(query, playerID, isGuest).Scan(&agg).Error; err != nil {
		return nil, ds.HandleError(err)
	}

	return &agg, nil
}

// GetBestGameResult returns the player's single best row using the
// same ordering as the leaderboard.
func (ds *PostgresService) GetBestGameResult(playerID string, isGuest bool, gameType string) (*model.GameResult, error) {
	var result model.GameResult

	query := ds.db.Where("game_type = ?", gameType).
		Order("score DESC, level_reached DESC, time_played ASC")

	if err := ds.playerResults(query, playerID, isGuest).First(&result).Error; err != nil {
		return nil, ds.HandleError(err)
	}

	return &result, nil
}

func (ds *PostgresService) GetGameSystemStats() (*dto.GameSystemStatsResponse, error) {
	stats := &dto.GameSystemStatsResponse{ResultsByType: map[string]int64{}}

	if err := ds.db.Model(&model.GameResult{}).Count(&stats.TotalResults).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	if err := ds.db.Model(&model.GameResult{}).Where("user_id IS NOT NULL").
		Distinct("user_id").Count(&stats.RegisteredPlayers).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	if err := ds.db.Model(&model.GameResult{}).Where("guest_session_id IS NOT NULL").
		Distinct("guest_session_id").Count(&stats.GuestPlayers).Error; err != nil {
		return nil, ds.HandleError(err)
	}

	type typeCount struct {
		GameType string `json:"game_type"`
		Count    int64  `json:"count"`
	}
	var counts []typeCount
	err := ds.db.Model(&model.GameResult{}).
		Select("game_type, COUNT(*) AS count").
		Group("game_type").
		Scan(&counts).Error
	if err != nil {
		return nil, ds.HandleError(err)
	}

	stats.GameTypes = int64(len(counts))
	for _, c := range counts {
		stats.ResultsByType[c.GameType] = c.Count
	}

	return stats, nil
}

func (ds *PostgresService) GetPlayerGameTypeStats(playerID string, isGuest bool) ([]dto.GameTypeStat, error) {
	var stats []dto.GameTypeStat

	query := ds.db.Model(&model.GameResult{}).
		Select("game_type, COUNT(*) AS play_count, " +
			"COALESCE(MAX(score), 0) AS best_score, " +
			"COALESCE(AVG(score), 0) AS average_score").
		Group("game_type").
		Order("game_type ASC")

	if err := ds.playerResults(query, playerID, isGuest).Scan(&stats).Error; err != nil {
		return nil, ds.HandleError(err)
	}

	return stats, nil
}

// ==================== RATE LIMIT METHODS ====================

func (ds *PostgresService) GetRateLimit(identifier, endpointType string) (*model.RateLimit, error) {
	var rateLimit model.RateLimit

	err := ds.db.Where("identifier = ? AND endpoint_type = ?", identifier, endpointType).First(&rateLimit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &rateLimit, nil
}

func (ds *PostgresService) SaveRateLimit(rateLimit *model.RateLimit) error {
	if rateLimit.ID == "" {
		id, _ := uuid.NewV7()
		rateLimit.ID = id.String()
	}

	now := time.Now()
	if rateLimit.CreatedAt.IsZero() {
		rateLimit.CreatedAt = now
	}
	rateLimit.UpdatedAt = now

	if err := ds.db.Save(rateLimit).Error; err != nil {
		return err
	}
	return nil
}

func (ds *PostgresService) UpdateRateLimit(rateLimit *model.RateLimit) error {
	err := ds.db.Model(rateLimit).Where("id = ?", rateLimit.ID).Updates(map[string]interface{}{
		"request_count": rateLimit.RequestCount,
		"blocked_until": rateLimit.BlockedUntil,
		"updated_at":    rateLimit.UpdatedAt,
	}).Error

	return err
}

// CleanupOldRecords removes rate limit rows older than 7 days that are
// not currently blocked.
func (ds *PostgresService) CleanupOldRecords() error {
	cutoff := time.Now().Add(-7 * 24 * time.Hour)
	now := time.Now()

	err := ds.db.Where("created_at < ? AND (blocked_until IS NULL OR blocked_until < ?)", cutoff, now).
		Delete(&model.RateLimit{}).Error

	return err
}

package services

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/questlab-edu/questlab_api/dto"
	"github.com/questlab-edu/questlab_api/model"
	"github.com/questlab-edu/questlab_api/shared"
)

// ProgressService maintains one completion record per (user, module).
// Guests never touch the store: their reads return ephemeral zero
// values and their writes are absorbed into a no-op success path.
type ProgressService struct {
	context.DefaultService

	sqlSvc    *PostgresService
	moduleSvc *ModuleService

	// strict rejects completion percentage regressions instead of
	// silently accepting them. Off by default.
	strict bool
}

const PROGRESS_SVC = "progress_svc"

func (svc ProgressService) Id() string {
	return PROGRESS_SVC
}

func (svc *ProgressService) Configure(ctx *context.Context) error {
	svc.strict = os.Getenv("PROGRESS_STRICT") == "true"
	return svc.DefaultService.Configure(ctx)
}

func (svc *ProgressService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.moduleSvc = svc.Service(MODULE_SVC).(*ModuleService)
	return nil
}

// GetOrCreateProgress is a lookup with a create side effect: the first
// read for a (user, module) pair inserts the zeroed row it returns.
// The name is deliberate so no caller mistakes it for a pure read.
func (svc *ProgressService) GetOrCreateProgress(identity shared.Identity, moduleID string) (*dto.ProgressResponse, error) {
	if identity.IsGuest() {
		return ephemeralProgress(moduleID), nil
	}

	if err := svc.requireModule(moduleID); err != nil {
		return nil, err
	}

	now := time.Now()
	progress, err := svc.sqlSvc.GetProgress(identity.ID, moduleID)
	if err != nil {
		if appErr, ok := shared.GetAppError(err); !ok || appErr.StatusCode != 404 {
			return nil, err
		}

		// A writer may land between the miss above and this create;
		// its row must survive untouched.
		progress, err = svc.sqlSvc.CreateProgressIfAbsent(&model.Progress{
			UserID:       identity.ID,
			ModuleID:     moduleID,
			LastAccessed: now,
		})
		if err != nil {
			return nil, err
		}

		return progressResponse(progress), nil
	}

	progress.LastAccessed = now
	if err := svc.sqlSvc.TouchProgress(progress.ID, now); err != nil {
		return nil, err
	}

	return progressResponse(progress), nil
}

func (svc *ProgressService) UpsertProgress(identity shared.Identity, moduleID string, req dto.UpsertProgressRequest) (*dto.ProgressResponse, error) {
	if identity.IsGuest() {
		resp := ephemeralProgress(moduleID)
		resp.CompletionPct = req.CompletionPct
		resp.TimeSpent = req.TimeSpent
		resp.Score = req.Score
		resp.Completed = req.CompletionPct >= 100
		return resp, nil
	}

	if req.CompletionPct < 0 || req.CompletionPct > 100 {
		return nil, shared.NewBadRequestError(errors.New("completion percentage out of range"), "Completion percentage must be between 0 and 100")
	}
	if req.TimeSpent < 0 {
		return nil, shared.NewBadRequestError(errors.New("negative time spent"), "Time spent must not be negative")
	}
	if req.Score < 0 {
		return nil, shared.NewBadRequestError(errors.New("negative score"), "Score must not be negative")
	}

	if err := svc.requireModule(moduleID); err != nil {
		return nil, err
	}

	if svc.strict {
		existing, err := svc.sqlSvc.GetProgress(identity.ID, moduleID)
		if err == nil && req.CompletionPct < existing.CompletionPct {
			return nil, shared.NewBadRequestError(
				fmt.Errorf("completion percentage regression: %.1f -> %.1f", existing.CompletionPct, req.CompletionPct),
				"Completion percentage cannot decrease")
		}
	}

	// Single atomic insert-or-update keyed on (user_id, module_id);
	// two racing upserts cannot create two rows.
	progress, err := svc.sqlSvc.UpsertProgress(&model.Progress{
		UserID:        identity.ID,
		ModuleID:      moduleID,
		CompletionPct: req.CompletionPct,
		TimeSpent:     req.TimeSpent,
		Score:         req.Score,
		Completed:     req.CompletionPct >= 100,
		LastAccessed:  time.Now(),
	})
	if err != nil {
		return nil, err
	}

	progressUpsertsTotal.Inc()

	log.WithFields(log.Fields{
		"user_id":        identity.ID,
		"module_id":      moduleID,
		"completion_pct": req.CompletionPct,
	}).Debug("Progress upserted")

	return progressResponse(progress), nil
}

// CompleteModule forces completion to 100 percent via the same upsert
// path, so the strict policy and the completed flag stay consistent.
func (svc *ProgressService) CompleteModule(identity shared.Identity, moduleID string, score int) (*dto.ProgressResponse, error) {
	var timeSpent int
	if !identity.IsGuest() {
		if existing, err := svc.sqlSvc.GetProgress(identity.ID, moduleID); err == nil {
			timeSpent = existing.TimeSpent
			if score == 0 {
				score = existing.Score
			}
		}
	}

	return svc.UpsertProgress(identity, moduleID, dto.UpsertProgressRequest{
		CompletionPct: 100,
		TimeSpent:     timeSpent,
		Score:         score,
	})
}

func (svc *ProgressService) requireModule(moduleID string) error {
	exists, err := svc.moduleSvc.ModuleExists(moduleID)
	if err != nil {
		return err
	}
	if !exists {
		return shared.NewNotFoundError(fmt.Errorf("module %s not found", moduleID), "Module not found")
	}
	return nil
}

func ephemeralProgress(moduleID string) *dto.ProgressResponse {
	return &dto.ProgressResponse{
		ModuleID:  moduleID,
		Persisted: false,
	}
}

func progressResponse(progress *model.Progress) *dto.ProgressResponse {
	lastAccessed := progress.LastAccessed
	return &dto.ProgressResponse{
		ModuleID:      progress.ModuleID,
		CompletionPct: progress.CompletionPct,
		TimeSpent:     progress.TimeSpent,
		Score:         progress.Score,
		Completed:     progress.Completed,
		Persisted:     true,
		LastAccessed:  &lastAccessed,
	}
}

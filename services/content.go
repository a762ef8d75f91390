package services

import (
	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/questlab-edu/questlab_api/dto"
	"github.com/questlab-edu/questlab_api/model"
	"github.com/questlab-edu/questlab_api/shared"
)

// ModuleService serves the read-only module catalog. Progress and game
// services only ever ask it whether a module exists; content delivery
// stays out of this backend.
type ModuleService struct {
	context.DefaultService

	sqlSvc *PostgresService
}

const MODULE_SVC = "module_svc"

func (svc ModuleService) Id() string {
	return MODULE_SVC
}

func (svc *ModuleService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *ModuleService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)

	if err := svc.ensureDefaultModules(); err != nil {
		return err
	}

	return nil
}

func (svc *ModuleService) ModuleExists(moduleID string) (bool, error) {
	_, err := svc.sqlSvc.GetModule(moduleID)
	if err != nil {
		if appErr, ok := shared.GetAppError(err); ok && appErr.StatusCode == 404 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (svc *ModuleService) GetModule(moduleID string) (*dto.ModuleResponse, error) {
	module, err := svc.sqlSvc.GetModule(moduleID)
	if err != nil {
		return nil, err
	}

	resp := moduleResponse(module)
	return &resp, nil
}

func (svc *ModuleService) ListModules() (*dto.ModuleListResponse, error) {
	modules, err := svc.sqlSvc.GetActiveModules()
	if err != nil {
		return nil, err
	}

	resp := &dto.ModuleListResponse{Modules: make([]dto.ModuleResponse, len(modules))}
	for i := range modules {
		resp.Modules[i] = moduleResponse(&modules[i])
	}

	return resp, nil
}

// ensureDefaultModules seeds a small starter catalog when the table is
// empty, so fresh environments work without running the seed CLI.
func (svc *ModuleService) ensureDefaultModules() error {
	count, err := svc.sqlSvc.CountModules()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []model.LearningModule{
		{Slug: "fractions-1", Title: "Introduction to Fractions", Subject: "math", Difficulty: shared.DifficultyBeginner, Position: 1, IsActive: true},
		{Slug: "fractions-2", Title: "Comparing Fractions", Subject: "math", Difficulty: shared.DifficultyIntermediate, Position: 2, IsActive: true},
		{Slug: "word-roots-1", Title: "Common Word Roots", Subject: "language", Difficulty: shared.DifficultyBeginner, Position: 3, IsActive: true},
	}

	for i := range defaults {
		if _, err := svc.sqlSvc.CreateModule(&defaults[i]); err != nil {
			return err
		}
	}

	log.Printf("Seeded %d default learning modules", len(defaults))
	return nil
}

func moduleResponse(module *model.LearningModule) dto.ModuleResponse {
	return dto.ModuleResponse{
		ID:         module.ID,
		Slug:       module.Slug,
		Title:      module.Title,
		Subject:    module.Subject,
		Difficulty: module.Difficulty,
		Position:   module.Position,
		CreatedAt:  module.CreatedAt,
	}
}

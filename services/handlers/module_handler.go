package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/questlab-edu/questlab_api/shared"
)

type ModuleHandler struct {
	moduleSvc ModuleServiceInterface
}

func NewModuleHandler(moduleSvc ModuleServiceInterface) *ModuleHandler {
	return &ModuleHandler{
		moduleSvc: moduleSvc,
	}
}

// @Summary List Modules
// @Description Lists the active module catalog ordered by position
// @Tags modules
// @Produce json
// @Success 200 {object} shared.Response{data=dto.ModuleListResponse}
// @Router /api/v1/modules [get]
func (h *ModuleHandler) ListModules(c *fiber.Ctx) error {
	resp, err := h.moduleSvc.ListModules()
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Get Module
// @Description Returns one catalog entry
// @Tags modules
// @Produce json
// @Param moduleId path string true "Module ID"
// @Success 200 {object} shared.Response{data=dto.ModuleResponse}
// @Router /api/v1/modules/{moduleId} [get]
func (h *ModuleHandler) GetModule(c *fiber.Ctx) error {
	resp, err := h.moduleSvc.GetModule(c.Params("moduleId"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

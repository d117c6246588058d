package handlers

import (
	"fmt"

	"scm-chat/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ScriptHandler struct {
	catalog *service.ScriptCatalog
	logger  *zap.Logger
}

func NewScriptHandler(catalog *service.ScriptCatalog, logger *zap.Logger) *ScriptHandler {
	return &ScriptHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// Download godoc
// @Summary Download an automation script
// @Description Serve a script as KEY.robot (Robot Framework) or KEY.txt (shell)
// @Tags scripts
// @Produce plain
// @Param file path string true "Script file name, e.g. IB02_WIT.robot"
// @Success 200 {string} string
// @Failure 404 {object} dto.ErrorResponse
// @Router /documents/scripts/{file} [get]
// @Router /api/v1/scripts/{file} [get]
func (h *ScriptHandler) Download(c *fiber.Ctx) error {
	name := c.Params("file")

	tmpl, ok := h.catalog.ByFileName(name)
	if !ok {
		h.logger.Debug("Script not found", zap.String("file", name))
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Script not found",
		})
	}

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, tmpl.FileName()))
	return c.SendString(tmpl.Body)
}

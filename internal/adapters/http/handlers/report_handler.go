package handlers

import (
	"github.com/gofiber/fiber/v2"

	"nyumbakumi/internal/adapters/http/middleware"
	"nyumbakumi/internal/core/services"
	"nyumbakumi/internal/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler serves spreadsheet exports
type ReportHandler struct {
	reportService *services.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// HouseholdRatings downloads household ratings as an xlsx workbook
// @Summary Household ratings report
// @Description Admins get every household, leaders the households of their zones
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file
// @Failure 403 {object} response.Response
// @Router /reports/households.xlsx [get]
func (h *ReportHandler) HouseholdRatings(c *fiber.Ctx) error {
	data, err := h.reportService.HouseholdRatings(c.UserContext(), middleware.ActorFrom(c))
	if err != nil {
		return response.FromError(c, err)
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Attachment("households.xlsx")
	return c.Send(data)
}

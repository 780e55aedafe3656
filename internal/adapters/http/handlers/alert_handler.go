package handlers

import (
	"github.com/gofiber/fiber/v2"

	"nyumbakumi/internal/adapters/http/middleware"
	"nyumbakumi/internal/adapters/persistence/models"
	"nyumbakumi/internal/core/services"
	"nyumbakumi/internal/pkg/pagination"
	"nyumbakumi/internal/pkg/response"
	"nyumbakumi/internal/pkg/validate"
)

// AlertHandler handles alert endpoints
type AlertHandler struct {
	alertService *services.AlertService
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alertService *services.AlertService) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

// List lists alerts visible to the caller
// @Summary List alerts
// @Description Active alerts unless a status is given. Household users see zone-wide alerts and those targeting their household.
// @Tags Alerts
// @Produce json
// @Security BearerAuth
// @Param priority query string false "low, medium, high or urgent"
// @Param status query string false "active, archived or deleted (admin)"
// @Param zone query string false "Zone ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param sort query string false "createdAt, priority, status, expiresAt or title"
// @Success 200 {object} response.Response{data=[]models.AlertResponse}
// @Router /alerts [get]
func (h *AlertHandler) List(c *fiber.Ctx) error {
	params, opts := listParams(c)
	q := services.AlertQuery{
		Priority: c.Query("priority"),
		Status:   c.Query("status"),
		ZoneID:   c.Query("zone"),
	}

	alerts, total, err := h.alertService.List(c.UserContext(), middleware.ActorFrom(c), q, opts)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.List(c, mapSlice(alerts, (*models.Alert).ToResponse), len(alerts), pagination.GetMeta(params, total))
}

// Get returns an alert
// @Summary Get alert
// @Tags Alerts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Alert ID"
// @Success 200 {object} response.Response{data=models.AlertResponse}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /alerts/{id} [get]
func (h *AlertHandler) Get(c *fiber.Ctx) error {
	alert, err := h.alertService.Get(c.UserContext(), middleware.ActorFrom(c), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "", alert.ToResponse())
}

// Create broadcasts an alert to a zone
// @Summary Create alert
// @Tags Alerts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateAlertInput true "Alert data"
// @Success 201 {object} response.Response{data=models.AlertResponse}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /alerts [post]
func (h *AlertHandler) Create(c *fiber.Ctx) error {
	var req services.CreateAlertInput
	if err := validate.Body(c, &req); err != nil {
		return response.FromError(c, err)
	}

	alert, err := h.alertService.Create(c.UserContext(), middleware.ActorFrom(c), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Alert created successfully", alert.ToResponse())
}

// Update updates an alert
// @Summary Update alert
// @Tags Alerts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Alert ID"
// @Param body body services.UpdateAlertInput true "Alert fields"
// @Success 200 {object} response.Response{data=models.AlertResponse}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /alerts/{id} [put]
func (h *AlertHandler) Update(c *fiber.Ctx) error {
	var req services.UpdateAlertInput
	if err := validate.Body(c, &req); err != nil {
		return response.FromError(c, err)
	}

	alert, err := h.alertService.Update(c.UserContext(), middleware.ActorFrom(c), c.Params("id"), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Alert updated successfully", alert.ToResponse())
}

// Delete marks an alert deleted
// @Summary Delete alert
// @Tags Alerts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Alert ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /alerts/{id} [delete]
func (h *AlertHandler) Delete(c *fiber.Ctx) error {
	if err := h.alertService.Delete(c.UserContext(), middleware.ActorFrom(c), c.Params("id")); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Alert deleted successfully", nil)
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"nyumbakumi/internal/adapters/http/middleware"
	"nyumbakumi/internal/core/services"
	"nyumbakumi/internal/pkg/pagination"
	"nyumbakumi/internal/pkg/response"
	"nyumbakumi/internal/pkg/validate"
)

// ZoneHandler handles zone endpoints
type ZoneHandler struct {
	zoneService *services.ZoneService
}

// NewZoneHandler creates a new zone handler
func NewZoneHandler(zoneService *services.ZoneService) *ZoneHandler {
	return &ZoneHandler{zoneService: zoneService}
}

// ListPublic lists all zones without authentication
// @Summary List zones (public)
// @Description Used by the registration form to pick a zone
// @Tags Zones
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param sort query string false "name, location or createdAt; prefix with - for descending"
// @Success 200 {object} response.Response{data=[]models.ZoneResponse}
// @Router /zones/public [get]
func (h *ZoneHandler) ListPublic(c *fiber.Ctx) error {
	params, opts := listParams(c)
	zones, total, err := h.zoneService.ListPublic(c.UserContext(), opts)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.List(c, zones, len(zones), pagination.GetMeta(params, total))
}

// List lists the zones visible to the caller
// @Summary List zones
// @Tags Zones
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param sort query string false "name, location or createdAt; prefix with - for descending"
// @Success 200 {object} response.Response{data=[]models.ZoneResponse}
// @Router /zones [get]
func (h *ZoneHandler) List(c *fiber.Ctx) error {
	params, opts := listParams(c)
	zones, total, err := h.zoneService.List(c.UserContext(), middleware.ActorFrom(c), opts)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.List(c, zones, len(zones), pagination.GetMeta(params, total))
}

// Get returns a zone
// @Summary Get zone
// @Tags Zones
// @Produce json
// @Security BearerAuth
// @Param id path string true "Zone ID"
// @Success 200 {object} response.Response{data=models.ZoneResponse}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /zones/{id} [get]
func (h *ZoneHandler) Get(c *fiber.Ctx) error {
	zone, err := h.zoneService.Get(c.UserContext(), middleware.ActorFrom(c), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "", zone)
}

// Create creates a zone
// @Summary Create zone
// @Tags Zones
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateZoneInput true "Zone data"
// @Success 201 {object} response.Response{data=models.ZoneResponse}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /zones [post]
func (h *ZoneHandler) Create(c *fiber.Ctx) error {
	var req services.CreateZoneInput
	if err := validate.Body(c, &req); err != nil {
		return response.FromError(c, err)
	}

	zone, err := h.zoneService.Create(c.UserContext(), middleware.ActorFrom(c), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Zone created successfully", zone)
}

// Update updates a zone
// @Summary Update zone
// @Description Only admins may change the leader
// @Tags Zones
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Zone ID"
// @Param body body services.UpdateZoneInput true "Zone fields"
// @Success 200 {object} response.Response{data=models.ZoneResponse}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /zones/{id} [put]
func (h *ZoneHandler) Update(c *fiber.Ctx) error {
	var req services.UpdateZoneInput
	if err := validate.Body(c, &req); err != nil {
		return response.FromError(c, err)
	}

	zone, err := h.zoneService.Update(c.UserContext(), middleware.ActorFrom(c), c.Params("id"), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Zone updated successfully", zone)
}

// Delete deletes an empty zone
// @Summary Delete zone
// @Tags Zones
// @Produce json
// @Security BearerAuth
// @Param id path string true "Zone ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /zones/{id} [delete]
func (h *ZoneHandler) Delete(c *fiber.Ctx) error {
	if err := h.zoneService.Delete(c.UserContext(), middleware.ActorFrom(c), c.Params("id")); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Zone deleted successfully", nil)
}

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

// LeaderHandler handles zone leader endpoints
type LeaderHandler struct {
	leaderService *services.LeaderService
}

// NewLeaderHandler creates a new leader handler
func NewLeaderHandler(leaderService *services.LeaderService) *LeaderHandler {
	return &LeaderHandler{leaderService: leaderService}
}

// List lists zone leaders
// @Summary List leaders
// @Tags Leaders
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param sort query string false "Sort field, prefix with - for descending"
// @Success 200 {object} response.Response{data=[]models.UserResponse}
// @Router /leaders [get]
func (h *LeaderHandler) List(c *fiber.Ctx) error {
	params, opts := listParams(c)
	leaders, total, err := h.leaderService.List(c.UserContext(), opts)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.List(c, mapSlice(leaders, (*models.User).ToResponse), len(leaders), pagination.GetMeta(params, total))
}

// Get returns a leader
// @Summary Get leader
// @Tags Leaders
// @Produce json
// @Param id path string true "Leader ID"
// @Success 200 {object} response.Response{data=models.UserResponse}
// @Failure 404 {object} response.Response
// @Router /leaders/{id} [get]
func (h *LeaderHandler) Get(c *fiber.Ctx) error {
	leader, err := h.leaderService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "", leader.ToResponse())
}

// Zones lists the zones a leader manages
// @Summary List a leader's zones
// @Tags Leaders
// @Produce json
// @Param id path string true "Leader ID"
// @Success 200 {object} response.Response{data=[]models.ZoneResponse}
// @Failure 404 {object} response.Response
// @Router /leaders/{id}/zones [get]
func (h *LeaderHandler) Zones(c *fiber.Ctx) error {
	params, opts := listParams(c)
	zones, total, err := h.leaderService.Zones(c.UserContext(), c.Params("id"), opts)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.List(c, zones, len(zones), pagination.GetMeta(params, total))
}

// CreateZone creates a zone for a leader
// @Summary Create zone for leader
// @Tags Leaders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Leader ID"
// @Param body body services.LeaderZoneInput true "Zone data"
// @Success 201 {object} response.Response{data=models.ZoneResponse}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /leaders/{id}/zones [post]
func (h *LeaderHandler) CreateZone(c *fiber.Ctx) error {
	var req services.LeaderZoneInput
	if err := validate.Body(c, &req); err != nil {
		return response.FromError(c, err)
	}

	zone, err := h.leaderService.CreateZone(c.UserContext(), middleware.ActorFrom(c), c.Params("id"), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Zone created successfully", zone)
}

// Update updates a leader's profile
// @Summary Update leader
// @Description The leader themself or an admin; role and password cannot be changed here
// @Tags Leaders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Leader ID"
// @Param body body services.UpdateLeaderInput true "Profile fields"
// @Success 200 {object} response.Response{data=models.UserResponse}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /leaders/{id} [put]
func (h *LeaderHandler) Update(c *fiber.Ctx) error {
	var req services.UpdateLeaderInput
	if err := validate.Body(c, &req); err != nil {
		return response.FromError(c, err)
	}

	leader, err := h.leaderService.Update(c.UserContext(), middleware.ActorFrom(c), c.Params("id"), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Leader updated successfully", leader.ToResponse())
}

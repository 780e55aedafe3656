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

// HouseholdHandler handles household endpoints
type HouseholdHandler struct {
	householdService *services.HouseholdService
}

// NewHouseholdHandler creates a new household handler
func NewHouseholdHandler(householdService *services.HouseholdService) *HouseholdHandler {
	return &HouseholdHandler{householdService: householdService}
}

func zoneQuery(c *fiber.Ctx) string {
	return c.Query("zoneId", c.Query("zone"))
}

// ListPublic lists households without authentication
// @Summary List households (public)
// @Description Used by the registration form to pick a household in a zone
// @Tags Households
// @Produce json
// @Param zoneId query string false "Zone ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response{data=[]models.HouseholdResponse}
// @Router /households/public [get]
func (h *HouseholdHandler) ListPublic(c *fiber.Ctx) error {
	params, opts := listParams(c)
	households, total, err := h.householdService.ListPublic(c.UserContext(), zoneQuery(c), opts)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.List(c, mapSlice(households, (*models.Household).ToResponse), len(households), pagination.GetMeta(params, total))
}

// List lists the households visible to the caller
// @Summary List households
// @Tags Households
// @Produce json
// @Security BearerAuth
// @Param zoneId query string false "Zone ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param sort query string false "houseNumber, averageRating, numOfResidents or createdAt"
// @Success 200 {object} response.Response{data=[]models.HouseholdResponse}
// @Router /households [get]
func (h *HouseholdHandler) List(c *fiber.Ctx) error {
	params, opts := listParams(c)
	households, total, err := h.householdService.List(c.UserContext(), middleware.ActorFrom(c), zoneQuery(c), opts)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.List(c, mapSlice(households, (*models.Household).ToResponse), len(households), pagination.GetMeta(params, total))
}

// Mine returns the caller's own household
// @Summary Get my household
// @Tags Households
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.HouseholdResponse}
// @Failure 404 {object} response.Response
// @Router /households/mine [get]
func (h *HouseholdHandler) Mine(c *fiber.Ctx) error {
	household, err := h.householdService.Mine(c.UserContext(), middleware.ActorFrom(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "", household.ToResponse())
}

// Get returns a household
// @Summary Get household
// @Tags Households
// @Produce json
// @Security BearerAuth
// @Param id path string true "Household ID"
// @Success 200 {object} response.Response{data=models.HouseholdResponse}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /households/{id} [get]
func (h *HouseholdHandler) Get(c *fiber.Ctx) error {
	household, err := h.householdService.Get(c.UserContext(), middleware.ActorFrom(c), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "", household.ToResponse())
}

// Create registers a household in a zone
// @Summary Create household
// @Tags Households
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateHouseholdInput true "Household data"
// @Success 201 {object} response.Response{data=models.HouseholdResponse}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /households [post]
func (h *HouseholdHandler) Create(c *fiber.Ctx) error {
	var req services.CreateHouseholdInput
	if err := validate.Body(c, &req); err != nil {
		return response.FromError(c, err)
	}

	household, err := h.householdService.Create(c.UserContext(), middleware.ActorFrom(c), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Household created successfully", household.ToResponse())
}

// Update updates a household
// @Summary Update household
// @Tags Households
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Household ID"
// @Param body body services.UpdateHouseholdInput true "Household fields"
// @Success 200 {object} response.Response{data=models.HouseholdResponse}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /households/{id} [put]
func (h *HouseholdHandler) Update(c *fiber.Ctx) error {
	var req services.UpdateHouseholdInput
	if err := validate.Body(c, &req); err != nil {
		return response.FromError(c, err)
	}

	household, err := h.householdService.Update(c.UserContext(), middleware.ActorFrom(c), c.Params("id"), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Household updated successfully", household.ToResponse())
}

// Delete deletes a household with its members and ratings
// @Summary Delete household
// @Tags Households
// @Produce json
// @Security BearerAuth
// @Param id path string true "Household ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /households/{id} [delete]
func (h *HouseholdHandler) Delete(c *fiber.Ctx) error {
	if err := h.householdService.Delete(c.UserContext(), middleware.ActorFrom(c), c.Params("id")); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Household deleted successfully", nil)
}

// AddMember adds a user to a household
// @Summary Add household member
// @Tags Households
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Household ID"
// @Param body body services.MemberInput true "Member"
// @Success 200 {object} response.Response{data=models.HouseholdResponse}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /households/{id}/members [post]
func (h *HouseholdHandler) AddMember(c *fiber.Ctx) error {
	var req services.MemberInput
	if err := validate.Body(c, &req); err != nil {
		return response.FromError(c, err)
	}

	household, err := h.householdService.AddMember(c.UserContext(), middleware.ActorFrom(c), c.Params("id"), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Member added successfully", household.ToResponse())
}

// RemoveMember removes a user from a household
// @Summary Remove household member
// @Tags Households
// @Produce json
// @Security BearerAuth
// @Param id path string true "Household ID"
// @Param userId path string true "User ID"
// @Success 200 {object} response.Response{data=models.HouseholdResponse}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /households/{id}/members/{userId} [delete]
func (h *HouseholdHandler) RemoveMember(c *fiber.Ctx) error {
	household, err := h.householdService.RemoveMember(c.UserContext(), middleware.ActorFrom(c), c.Params("id"), c.Params("userId"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Member removed successfully", household.ToResponse())
}

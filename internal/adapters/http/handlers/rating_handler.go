package handlers

import (
	"github.com/gofiber/fiber/v2"

	"nyumbakumi/internal/adapters/http/middleware"
	"nyumbakumi/internal/core/services"
	"nyumbakumi/internal/pkg/pagination"
	"nyumbakumi/internal/pkg/response"
	"nyumbakumi/internal/pkg/validate"
)

// RatingHandler handles household rating endpoints
type RatingHandler struct {
	ratingService *services.RatingService
}

// NewRatingHandler creates a new rating handler
func NewRatingHandler(ratingService *services.RatingService) *RatingHandler {
	return &RatingHandler{ratingService: ratingService}
}

// List lists ratings visible to the caller
// @Summary List ratings
// @Tags Ratings
// @Produce json
// @Security BearerAuth
// @Param household query string false "Household ID"
// @Param category query string false "Rating category"
// @Param rating query int false "Exact rating value"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param sort query string false "createdAt, updatedAt, rating or category"
// @Success 200 {object} response.Response{data=[]models.Rating}
// @Failure 400 {object} response.Response
// @Router /ratings [get]
func (h *RatingHandler) List(c *fiber.Ctx) error {
	value, err := queryInt(c, "rating")
	if err != nil {
		return response.FromError(c, err)
	}

	params, opts := listParams(c)
	q := services.RatingQuery{
		HouseholdID: c.Query("household"),
		Category:    c.Query("category"),
		Rating:      value,
	}

	ratings, total, err := h.ratingService.List(c.UserContext(), middleware.ActorFrom(c), q, opts)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.List(c, ratings, len(ratings), pagination.GetMeta(params, total))
}

// Get returns a rating
// @Summary Get rating
// @Tags Ratings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Rating ID"
// @Success 200 {object} response.Response{data=models.Rating}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /ratings/{id} [get]
func (h *RatingHandler) Get(c *fiber.Ctx) error {
	rating, err := h.ratingService.Get(c.UserContext(), middleware.ActorFrom(c), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "", rating)
}

// Create rates a household
// @Summary Create rating
// @Description One rating per household, rater and category. Recomputes the household average.
// @Tags Ratings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateRatingInput true "Rating data"
// @Success 201 {object} response.Response{data=models.Rating}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /ratings [post]
func (h *RatingHandler) Create(c *fiber.Ctx) error {
	var req services.CreateRatingInput
	if err := validate.Body(c, &req); err != nil {
		return response.FromError(c, err)
	}

	rating, err := h.ratingService.Create(c.UserContext(), middleware.ActorFrom(c), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Rating created successfully", rating)
}

// Update updates a rating
// @Summary Update rating
// @Tags Ratings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Rating ID"
// @Param body body services.UpdateRatingInput true "Rating fields"
// @Success 200 {object} response.Response{data=models.Rating}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /ratings/{id} [put]
func (h *RatingHandler) Update(c *fiber.Ctx) error {
	var req services.UpdateRatingInput
	if err := validate.Body(c, &req); err != nil {
		return response.FromError(c, err)
	}

	rating, err := h.ratingService.Update(c.UserContext(), middleware.ActorFrom(c), c.Params("id"), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Rating updated successfully", rating)
}

// Delete deletes a rating
// @Summary Delete rating
// @Tags Ratings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Rating ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /ratings/{id} [delete]
func (h *RatingHandler) Delete(c *fiber.Ctx) error {
	if err := h.ratingService.Delete(c.UserContext(), middleware.ActorFrom(c), c.Params("id")); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Rating deleted successfully", nil)
}

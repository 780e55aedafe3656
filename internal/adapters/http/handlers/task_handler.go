package handlers

import (
	"github.com/gofiber/fiber/v2"

	"nyumbakumi/internal/adapters/http/middleware"
	"nyumbakumi/internal/core/services"
	"nyumbakumi/internal/pkg/pagination"
	"nyumbakumi/internal/pkg/response"
	"nyumbakumi/internal/pkg/validate"
)

// TaskHandler handles task endpoints
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// List lists tasks visible to the caller
// @Summary List tasks
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, in_progress, completed or overdue"
// @Param priority query string false "low, medium or high"
// @Param category query string false "Task category"
// @Param household query string false "Assigned household ID"
// @Param assignedBy query string false "Author user ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param sort query string false "createdAt, dueDate, priority, status or title"
// @Success 200 {object} response.Response{data=[]models.Task}
// @Router /tasks [get]
func (h *TaskHandler) List(c *fiber.Ctx) error {
	params, opts := listParams(c)
	q := services.TaskQuery{
		Status:      c.Query("status"),
		Priority:    c.Query("priority"),
		Category:    c.Query("category"),
		HouseholdID: c.Query("household"),
		AssignedBy:  c.Query("assignedBy"),
	}

	tasks, total, err := h.taskService.List(c.UserContext(), middleware.ActorFrom(c), q, opts)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.List(c, tasks, len(tasks), pagination.GetMeta(params, total))
}

// Get returns a task
// @Summary Get task
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} response.Response{data=models.Task}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /tasks/{id} [get]
func (h *TaskHandler) Get(c *fiber.Ctx) error {
	task, err := h.taskService.Get(c.UserContext(), middleware.ActorFrom(c), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "", task)
}

// Create assigns a task to a household
// @Summary Create task
// @Tags Tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateTaskInput true "Task data"
// @Success 201 {object} response.Response{data=models.Task}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /tasks [post]
func (h *TaskHandler) Create(c *fiber.Ctx) error {
	var req services.CreateTaskInput
	if err := validate.Body(c, &req); err != nil {
		return response.FromError(c, err)
	}

	task, err := h.taskService.Create(c.UserContext(), middleware.ActorFrom(c), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Task created successfully", task)
}

// Update edits a task or moves its status
// @Summary Update task
// @Description Authors and admins edit any field; household members only move the status
// @Tags Tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param body body services.UpdateTaskInput true "Task fields"
// @Success 200 {object} response.Response{data=models.Task}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(c *fiber.Ctx) error {
	var req services.UpdateTaskInput
	if err := validate.Body(c, &req); err != nil {
		return response.FromError(c, err)
	}

	task, err := h.taskService.Update(c.UserContext(), middleware.ActorFrom(c), c.Params("id"), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Task updated successfully", task)
}

// Rate rates a completed task
// @Summary Rate task
// @Description Only completed tasks can be rated. With rateHousehold the rating also counts towards the household average.
// @Tags Tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param body body services.RateTaskInput true "Rating and feedback"
// @Success 200 {object} response.Response{data=services.RateTaskResult}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /tasks/{id}/rate [put]
func (h *TaskHandler) Rate(c *fiber.Ctx) error {
	var req services.RateTaskInput
	if err := validate.Body(c, &req); err != nil {
		return response.FromError(c, err)
	}

	result, err := h.taskService.Rate(c.UserContext(), middleware.ActorFrom(c), c.Params("id"), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Task rated successfully", result)
}

// RatingHistory lists earlier ratings of a task
// @Summary Task rating history
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} response.Response{data=[]models.TaskRatingAudit}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /tasks/{id}/ratings [get]
func (h *TaskHandler) RatingHistory(c *fiber.Ctx) error {
	audits, err := h.taskService.RatingHistory(c.UserContext(), middleware.ActorFrom(c), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.List(c, audits, len(audits), nil)
}

// Delete deletes a task
// @Summary Delete task
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	if err := h.taskService.Delete(c.UserContext(), middleware.ActorFrom(c), c.Params("id")); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Task deleted successfully", nil)
}

package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"nyumbakumi/internal/adapters/persistence/models"
	"nyumbakumi/internal/adapters/persistence/repositories"
	"nyumbakumi/internal/core/domain"
	"nyumbakumi/internal/core/policy"
)

var (
	taskStatuses = []string{
		domain.TaskStatusPending,
		domain.TaskStatusInProgress,
		domain.TaskStatusCompleted,
		domain.TaskStatusOverdue,
	}
	taskPriorities = []string{
		domain.TaskPriorityLow,
		domain.TaskPriorityMedium,
		domain.TaskPriorityHigh,
	}
	taskCategories = []string{
		domain.TaskCategoryCleanliness,
		domain.TaskCategorySecurity,
		domain.TaskCategoryCommunityParticipation,
		domain.TaskCategoryMaintenance,
		domain.TaskCategoryOther,
	}
)

const maxFeedbackLength = 300

// TaskService manages the task lifecycle: assignment, status changes,
// completion and rating.
type TaskService struct {
	tasks      repositories.TaskRepository
	households repositories.HouseholdRepository
	scoper
	ratings *RatingService
	now     func() time.Time
	log     *zap.Logger
}

// NewTaskService creates a new task service
func NewTaskService(store *repositories.Store, ratings *RatingService, log *zap.Logger) *TaskService {
	return &TaskService{
		tasks:      store.Tasks,
		households: store.Households,
		scoper:     scoper{zones: store.Zones},
		ratings:    ratings,
		now:        time.Now,
		log:        log,
	}
}

// CreateTaskInput represents task creation input
type CreateTaskInput struct {
	Title       string    `json:"title" validate:"required,max=100"`
	Description string    `json:"description" validate:"required,max=500"`
	AssignedTo  string    `json:"assignedTo" validate:"required"`
	DueDate     time.Time `json:"dueDate" validate:"required"`
	Priority    string    `json:"priority" validate:"omitempty,oneof=low medium high"`
	Category    string    `json:"category" validate:"omitempty,oneof=cleanliness security community_participation maintenance other"`
}

// UpdateTaskInput represents task update input; nil fields are left alone.
// Members of the assigned household may only change Status.
type UpdateTaskInput struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=100"`
	Description *string    `json:"description" validate:"omitempty,min=1,max=500"`
	AssignedTo  *string    `json:"assignedTo" validate:"omitempty,min=1"`
	DueDate     *time.Time `json:"dueDate"`
	Status      *string    `json:"status" validate:"omitempty,oneof=pending in_progress completed overdue"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=low medium high"`
	Category    *string    `json:"category" validate:"omitempty,oneof=cleanliness security community_participation maintenance other"`
}

// RateTaskInput represents the rate action. RateHousehold also records a
// rating on the assigned household in the task's category, correcting the
// rater's earlier rating there if one exists.
type RateTaskInput struct {
	Rating        *float64 `json:"rating" validate:"required,min=0,max=5"`
	Feedback      string   `json:"feedback" validate:"required,max=300"`
	RateHousehold bool     `json:"rateHousehold"`
}

// RateTaskResult is the rated task and, when requested, the household rating
type RateTaskResult struct {
	Task            *models.Task   `json:"task"`
	HouseholdRating *models.Rating `json:"householdRating,omitempty"`
}

// TaskQuery filters task listings
type TaskQuery struct {
	Status      string
	Priority    string
	Category    string
	HouseholdID string
	AssignedBy  string
}

func (s *TaskService) load(ctx context.Context, id string) (*models.Task, *models.Household, *models.Zone, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, nil, nil, orNotFound(err, domain.ErrTaskNotFound)
	}
	h, err := s.households.GetByID(ctx, task.AssignedTo)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, nil, nil, err
		}
		// household is gone; only the author and admins still see the task
		h = &models.Household{ID: task.AssignedTo}
	}
	zone, err := s.zoneOf(ctx, h.ZoneID)
	if err != nil {
		return nil, nil, nil, err
	}
	return task, h, zone, nil
}

// assignee loads the household a task is assigned to and checks actor may assign to it
func (s *TaskService) assignee(ctx context.Context, actor domain.Actor, householdID string) (*models.Household, error) {
	h, err := s.households.GetByID(ctx, householdID)
	if err != nil {
		return nil, orNotFound(err, domain.ErrHouseholdNotFound)
	}
	zone, err := s.zoneOf(ctx, h.ZoneID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanCreateTask(actor, h, zone).Err(domain.ErrHouseholdNotFound); err != nil {
		return nil, err
	}
	return h, nil
}

// List lists tasks visible to actor
func (s *TaskService) List(ctx context.Context, actor domain.Actor, q TaskQuery, opts repositories.ListOptions) ([]*models.Task, int64, error) {
	if q.Status != "" && !oneOf(q.Status, taskStatuses...) {
		return nil, 0, domain.Validationf("invalid task status %q", q.Status)
	}
	if q.Priority != "" && !oneOf(q.Priority, taskPriorities...) {
		return nil, 0, domain.Validationf("invalid task priority %q", q.Priority)
	}
	if q.Category != "" && !oneOf(q.Category, taskCategories...) {
		return nil, 0, domain.Validationf("invalid task category %q", q.Category)
	}

	scope, err := s.scopeFor(ctx, actor)
	if err != nil {
		return nil, 0, err
	}
	return s.tasks.List(ctx, repositories.TaskFilter{
		Scope:      scope,
		Status:     q.Status,
		Priority:   q.Priority,
		Category:   q.Category,
		AssignedTo: q.HouseholdID,
		AssignedBy: q.AssignedBy,
	}, opts)
}

// Get returns a task visible to actor
func (s *TaskService) Get(ctx context.Context, actor domain.Actor, id string) (*models.Task, error) {
	task, h, zone, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanReadTask(actor, task, h, zone).Err(domain.ErrTaskNotFound); err != nil {
		return nil, err
	}
	return task, nil
}

// Create assigns a new task to a household
func (s *TaskService) Create(ctx context.Context, actor domain.Actor, input *CreateTaskInput) (*models.Task, error) {
	h, err := s.assignee(ctx, actor, input.AssignedTo)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, domain.Validationf("title and description are required")
	}
	if input.DueDate.IsZero() {
		return nil, domain.Validationf("dueDate is required")
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TaskPriorityMedium
	}
	if !oneOf(priority, taskPriorities...) {
		return nil, domain.Validationf("invalid task priority %q", priority)
	}
	category := input.Category
	if category == "" {
		category = domain.TaskCategoryOther
	}
	if !oneOf(category, taskCategories...) {
		return nil, domain.Validationf("invalid task category %q", category)
	}

	task := &models.Task{
		Title:       title,
		Description: description,
		AssignedBy:  actor.ID,
		AssignedTo:  h.ID,
		DueDate:     input.DueDate,
		Status:      domain.TaskStatusPending,
		Priority:    priority,
		Category:    category,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	s.log.Info("task created",
		zap.String("task_id", task.ID),
		zap.String("assigned_to", task.AssignedTo),
		zap.String("assigned_by", task.AssignedBy),
	)
	return task, nil
}

// Update applies input to a task. Authors and admins may change any field;
// members of the assigned household only the status.
func (s *TaskService) Update(ctx context.Context, actor domain.Actor, id string, input *UpdateTaskInput) (*models.Task, error) {
	task, h, _, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	full := policy.CanEditTask(actor, task, h) == policy.Allow
	if !full {
		if err := policy.CanUpdateTaskStatus(actor, task, h).Err(domain.ErrTaskNotFound); err != nil {
			return nil, err
		}
	}

	changed := false
	if full {
		if changed, err = s.applyEdit(ctx, actor, task, input); err != nil {
			return nil, err
		}
	}

	if input.Status != nil {
		if !oneOf(*input.Status, taskStatuses...) {
			return nil, domain.Validationf("invalid task status %q", *input.Status)
		}
		if task.Status != *input.Status {
			changed = true
			task.Status = *input.Status
		}
	}
	if !changed {
		return nil, domain.ErrNothingToUpdate
	}

	if task.Status == domain.TaskStatusCompleted && task.CompletedAt == nil {
		completed := s.now()
		task.CompletedAt = &completed
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, orNotFound(err, domain.ErrTaskNotFound)
	}
	return task, nil
}

// applyEdit applies the fields only authors and admins may change
func (s *TaskService) applyEdit(ctx context.Context, actor domain.Actor, task *models.Task, input *UpdateTaskInput) (bool, error) {
	changed := false
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return false, domain.Validationf("title cannot be empty")
		}
		changed = changed || task.Title != title
		task.Title = title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return false, domain.Validationf("description cannot be empty")
		}
		changed = changed || task.Description != description
		task.Description = description
	}
	if input.DueDate != nil {
		if input.DueDate.IsZero() {
			return false, domain.Validationf("dueDate cannot be empty")
		}
		changed = changed || !task.DueDate.Equal(*input.DueDate)
		task.DueDate = *input.DueDate
	}
	if input.Priority != nil {
		if !oneOf(*input.Priority, taskPriorities...) {
			return false, domain.Validationf("invalid task priority %q", *input.Priority)
		}
		changed = changed || task.Priority != *input.Priority
		task.Priority = *input.Priority
	}
	if input.Category != nil {
		if !oneOf(*input.Category, taskCategories...) {
			return false, domain.Validationf("invalid task category %q", *input.Category)
		}
		changed = changed || task.Category != *input.Category
		task.Category = *input.Category
	}
	if input.AssignedTo != nil && *input.AssignedTo != task.AssignedTo {
		h, err := s.assignee(ctx, actor, *input.AssignedTo)
		if err != nil {
			return false, err
		}
		changed = true
		task.AssignedTo = h.ID
	}
	return changed, nil
}

// Rate records the author's rating and feedback on a completed task.
// Each call appends an audit row with the values it replaced.
func (s *TaskService) Rate(ctx context.Context, actor domain.Actor, id string, input *RateTaskInput) (*RateTaskResult, error) {
	task, h, zone, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanReadTask(actor, task, h, zone).Err(domain.ErrTaskNotFound); err != nil {
		return nil, err
	}
	if task.Status != domain.TaskStatusCompleted {
		return nil, domain.ErrTaskNotCompleted
	}
	if err := policy.CanRateTask(actor, task, h).Err(domain.ErrTaskNotFound); err != nil {
		return nil, err
	}

	if input.Rating == nil {
		return nil, domain.Validationf("rating is required")
	}
	rating := *input.Rating
	if math.IsNaN(rating) || rating < domain.MinTaskRating || rating > domain.MaxTaskRating {
		return nil, domain.Validationf("rating must be between %d and %d", domain.MinTaskRating, domain.MaxTaskRating)
	}
	feedback := strings.TrimSpace(input.Feedback)
	if feedback == "" {
		return nil, domain.Validationf("feedback is required")
	}
	if len([]rune(feedback)) > maxFeedbackLength {
		return nil, domain.Validationf("feedback must be at most %d characters", maxFeedbackLength)
	}

	result := &RateTaskResult{Task: task}
	undoRating := func() error { return nil }
	if input.RateHousehold {
		if rating != math.Trunc(rating) || rating < domain.MinRating {
			return nil, domain.Validationf("a household rating needs a whole number between %d and %d", domain.MinRating, domain.MaxRating)
		}
		recorded, undo, err := s.ratings.record(ctx, actor, &CreateRatingInput{
			HouseholdID: task.AssignedTo,
			Rating:      int(rating),
			Comment:     feedback,
			Category:    domain.RatingCategoryForTask(task.Category),
		})
		if err != nil {
			return nil, err
		}
		result.HouseholdRating = recorded
		undoRating = undo
	}
	rollbackRating := func() {
		if err := undoRating(); err != nil {
			s.log.Error("failed to roll back household rating",
				zap.String("task_id", task.ID),
				zap.Error(err),
			)
		}
	}

	audit := &models.TaskRatingAudit{
		TaskID:           task.ID,
		RatedBy:          actor.ID,
		PreviousRating:   task.Rating,
		PreviousFeedback: task.Feedback,
		NewRating:        rating,
		NewFeedback:      feedback,
	}

	task.Rating = &rating
	task.Feedback = feedback
	if err := s.tasks.Update(ctx, task); err != nil {
		rollbackRating()
		return nil, orNotFound(err, domain.ErrTaskNotFound)
	}

	if err := s.tasks.CreateRatingAudit(ctx, audit); err != nil {
		s.log.Error("failed to record task rating audit", zap.String("task_id", task.ID), zap.Error(err))
		task.Rating = audit.PreviousRating
		task.Feedback = audit.PreviousFeedback
		if uerr := s.tasks.Update(ctx, task); uerr != nil {
			s.log.Error("failed to roll back task rating", zap.String("task_id", task.ID), zap.Error(uerr))
		}
		rollbackRating()
		return nil, err
	}

	s.log.Info("task rated",
		zap.String("task_id", task.ID),
		zap.Float64("rating", rating),
		zap.Bool("household_rated", result.HouseholdRating != nil),
	)
	return result, nil
}

// RatingHistory lists the rate actions recorded for a task, newest first
func (s *TaskService) RatingHistory(ctx context.Context, actor domain.Actor, id string) ([]*models.TaskRatingAudit, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.tasks.ListRatingAudits(ctx, id)
}

// Delete removes a task and its rating history
func (s *TaskService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	task, h, _, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.CanEditTask(actor, task, h).Err(domain.ErrTaskNotFound); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		return orNotFound(err, domain.ErrTaskNotFound)
	}
	s.log.Info("task deleted", zap.String("task_id", task.ID), zap.String("by", actor.ID))
	return nil
}

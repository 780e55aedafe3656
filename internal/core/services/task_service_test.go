package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nyumbakumi/internal/adapters/persistence/models"
	"nyumbakumi/internal/adapters/persistence/repositories"
	"nyumbakumi/internal/core/domain"
)

func ptr[T any](v T) *T { return &v }

type taskSetup struct {
	*fixture
	leader   domain.Actor
	resident domain.Actor
	zone     *models.Zone
	home     *models.Household
	task     *models.Task
}

func newTaskSetup(t *testing.T, category string) *taskSetup {
	f := newFixture(t)
	s := &taskSetup{fixture: f}
	s.leader = f.user(domain.RoleLeader, "leader")
	s.zone = f.zone("Kilimani", s.leader)
	s.home = f.household(s.zone, "A1")
	s.resident = f.resident(s.home, "resident")

	task, err := f.tasks.Create(f.ctx, s.leader, &CreateTaskInput{
		Title:       "Clear the drainage",
		Description: "Unblock the drain behind block A",
		AssignedTo:  s.home.ID,
		DueDate:     time.Now().Add(48 * time.Hour),
		Category:    category,
	})
	require.NoError(t, err)
	s.task = task
	return s
}

func TestTaskService_CreateDefaults(t *testing.T) {
	s := newTaskSetup(t, "")

	assert.Equal(t, domain.TaskStatusPending, s.task.Status)
	assert.Equal(t, domain.TaskPriorityMedium, s.task.Priority)
	assert.Equal(t, domain.TaskCategoryOther, s.task.Category)
	assert.Equal(t, s.leader.ID, s.task.AssignedBy)
	assert.Nil(t, s.task.CompletedAt)
}

func TestTaskService_CreateOutsideZone(t *testing.T) {
	s := newTaskSetup(t, "")
	other := s.user(domain.RoleLeader, "other")

	_, err := s.tasks.Create(s.ctx, other, &CreateTaskInput{
		Title:       "t",
		Description: "d",
		AssignedTo:  s.home.ID,
		DueDate:     time.Now(),
	})
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	_, err = s.tasks.Create(s.ctx, s.leader, &CreateTaskInput{
		Title:       "t",
		Description: "d",
		AssignedTo:  "missing",
		DueDate:     time.Now(),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTaskService_CompletedAtIsSetOnce(t *testing.T) {
	s := newTaskSetup(t, "")
	first := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s.tasks.now = func() time.Time { return first }

	task, err := s.tasks.Update(s.ctx, s.resident, s.task.ID, &UpdateTaskInput{Status: ptr(domain.TaskStatusCompleted)})
	require.NoError(t, err)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, first, *task.CompletedAt)

	s.tasks.now = func() time.Time { return first.Add(time.Hour) }

	_, err = s.tasks.Update(s.ctx, s.resident, s.task.ID, &UpdateTaskInput{Status: ptr(domain.TaskStatusCompleted)})
	assert.ErrorIs(t, err, domain.ErrNoOp)

	// reopening and completing again keeps the first completion time
	_, err = s.tasks.Update(s.ctx, s.leader, s.task.ID, &UpdateTaskInput{Status: ptr(domain.TaskStatusInProgress)})
	require.NoError(t, err)
	task, err = s.tasks.Update(s.ctx, s.leader, s.task.ID, &UpdateTaskInput{Status: ptr(domain.TaskStatusCompleted)})
	require.NoError(t, err)
	assert.Equal(t, first, *task.CompletedAt)
}

func TestTaskService_MemberChangesStatusOnly(t *testing.T) {
	s := newTaskSetup(t, "")

	task, err := s.tasks.Update(s.ctx, s.resident, s.task.ID, &UpdateTaskInput{
		Title:  ptr("Renamed"),
		Status: ptr(domain.TaskStatusInProgress),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusInProgress, task.Status)
	assert.Equal(t, "Clear the drainage", task.Title)

	_, err = s.tasks.Update(s.ctx, s.resident, s.task.ID, &UpdateTaskInput{Title: ptr("Renamed")})
	assert.ErrorIs(t, err, domain.ErrNoOp)

	err = s.tasks.Delete(s.ctx, s.resident, s.task.ID)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestTaskService_AuthorEditsEverything(t *testing.T) {
	s := newTaskSetup(t, "")
	due := time.Now().Add(72 * time.Hour).Truncate(time.Second)

	task, err := s.tasks.Update(s.ctx, s.leader, s.task.ID, &UpdateTaskInput{
		Title:    ptr("Fix the gate"),
		DueDate:  &due,
		Priority: ptr(domain.TaskPriorityHigh),
		Category: ptr(domain.TaskCategorySecurity),
		Status:   ptr(domain.TaskStatusOverdue),
	})
	require.NoError(t, err)
	assert.Equal(t, "Fix the gate", task.Title)
	assert.True(t, due.Equal(task.DueDate))
	assert.Equal(t, domain.TaskPriorityHigh, task.Priority)
	assert.Equal(t, domain.TaskCategorySecurity, task.Category)
	assert.Equal(t, domain.TaskStatusOverdue, task.Status)

	_, err = s.tasks.Update(s.ctx, s.leader, s.task.ID, &UpdateTaskInput{})
	assert.ErrorIs(t, err, domain.ErrNoOp)

	_, err = s.tasks.Update(s.ctx, s.leader, s.task.ID, &UpdateTaskInput{Status: ptr("done")})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTaskService_Visibility(t *testing.T) {
	s := newTaskSetup(t, "")
	otherLeader := s.user(domain.RoleLeader, "other")
	elsewhere := s.fixture.resident(s.fixture.household(s.fixture.zone("Lavington", otherLeader), "B1"), "elsewhere")

	_, err := s.tasks.Get(s.ctx, s.resident, s.task.ID)
	require.NoError(t, err)

	_, err = s.tasks.Get(s.ctx, elsewhere, s.task.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.tasks.Get(s.ctx, otherLeader, s.task.ID)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	_, err = s.tasks.Update(s.ctx, elsewhere, s.task.ID, &UpdateTaskInput{Status: ptr(domain.TaskStatusCompleted)})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, total, err := s.tasks.List(s.ctx, s.resident, TaskQuery{}, repositories.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)

	_, total, err = s.tasks.List(s.ctx, elsewhere, TaskQuery{}, repositories.ListOptions{})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, _, err = s.tasks.List(s.ctx, s.leader, TaskQuery{Status: "later"}, repositories.ListOptions{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTaskService_RateRequiresCompleted(t *testing.T) {
	s := newTaskSetup(t, "")
	admin := s.user(domain.RoleAdmin, "admin")

	for _, status := range []string{domain.TaskStatusPending, domain.TaskStatusInProgress} {
		if status != s.task.Status {
			_, err := s.tasks.Update(s.ctx, s.leader, s.task.ID, &UpdateTaskInput{Status: ptr(status)})
			require.NoError(t, err)
		}
		for _, actor := range []domain.Actor{s.leader, admin, s.resident} {
			_, err := s.tasks.Rate(s.ctx, actor, s.task.ID, &RateTaskInput{Rating: ptr(4.0), Feedback: "good job"})
			assert.ErrorIs(t, err, domain.ErrPreconditionFailed, "status %s role %s", status, actor.Role)
		}
	}
}

func TestTaskService_RateValidation(t *testing.T) {
	s := newTaskSetup(t, "")
	_, err := s.tasks.Update(s.ctx, s.resident, s.task.ID, &UpdateTaskInput{Status: ptr(domain.TaskStatusCompleted)})
	require.NoError(t, err)

	_, err = s.tasks.Rate(s.ctx, s.leader, s.task.ID, &RateTaskInput{Rating: ptr(4.0), Feedback: "  "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.tasks.Rate(s.ctx, s.leader, s.task.ID, &RateTaskInput{Rating: ptr(5.5), Feedback: "ok"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.tasks.Rate(s.ctx, s.leader, s.task.ID, &RateTaskInput{Feedback: "ok"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// a household rating needs a whole number of stars
	_, err = s.tasks.Rate(s.ctx, s.leader, s.task.ID, &RateTaskInput{Rating: ptr(3.5), Feedback: "ok", RateHousehold: true})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.tasks.Rate(s.ctx, s.resident, s.task.ID, &RateTaskInput{Rating: ptr(5.0), Feedback: "self"})
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	task, err := s.tasks.Rate(s.ctx, s.leader, s.task.ID, &RateTaskInput{Rating: ptr(0.0), Feedback: "not done properly"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, *task.Task.Rating)
}

func TestTaskService_RateWithHouseholdRating(t *testing.T) {
	s := newTaskSetup(t, domain.TaskCategorySecurity)

	task, err := s.tasks.Update(s.ctx, s.resident, s.task.ID, &UpdateTaskInput{Status: ptr(domain.TaskStatusCompleted)})
	require.NoError(t, err)
	require.NotNil(t, task.CompletedAt)

	result, err := s.tasks.Rate(s.ctx, s.leader, s.task.ID, &RateTaskInput{
		Rating:        ptr(4.0),
		Feedback:      "good job",
		RateHousehold: true,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Task.Rating)
	assert.Equal(t, 4.0, *result.Task.Rating)
	assert.Equal(t, "good job", result.Task.Feedback)

	require.NotNil(t, result.HouseholdRating)
	assert.Equal(t, s.home.ID, result.HouseholdRating.HouseholdID)
	assert.Equal(t, domain.RatingCategorySecurity, result.HouseholdRating.Category)
	assert.Equal(t, 4, result.HouseholdRating.Rating)
	assert.Equal(t, 4.0, s.average(s.home.ID))

	stored, err := s.store.Tasks.GetByID(s.ctx, s.task.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, *stored.Rating)
}

func TestTaskService_RateHouseholdCategoryMapping(t *testing.T) {
	s := newTaskSetup(t, domain.TaskCategoryMaintenance)
	_, err := s.tasks.Update(s.ctx, s.resident, s.task.ID, &UpdateTaskInput{Status: ptr(domain.TaskStatusCompleted)})
	require.NoError(t, err)

	result, err := s.tasks.Rate(s.ctx, s.leader, s.task.ID, &RateTaskInput{Rating: ptr(2.0), Feedback: "late", RateHousehold: true})
	require.NoError(t, err)
	assert.Equal(t, domain.RatingCategoryGeneral, result.HouseholdRating.Category)

	first := result.HouseholdRating

	// re-rating corrects the leader's general rating instead of adding one
	result, err = s.tasks.Rate(s.ctx, s.leader, s.task.ID, &RateTaskInput{Rating: ptr(3.0), Feedback: "again", RateHousehold: true})
	require.NoError(t, err)
	assert.Equal(t, first.ID, result.HouseholdRating.ID)
	assert.Equal(t, 3, result.HouseholdRating.Rating)
	assert.Equal(t, "again", result.HouseholdRating.Comment)
	assert.Equal(t, 3.0, s.average(s.home.ID))

	_, total, err := s.store.Ratings.List(s.ctx, repositories.RatingFilter{HouseholdID: s.home.ID}, repositories.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	stored, err := s.store.Tasks.GetByID(s.ctx, s.task.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.0, *stored.Rating)
}

func TestTaskService_ReRatingKeepsAudit(t *testing.T) {
	s := newTaskSetup(t, "")
	_, err := s.tasks.Update(s.ctx, s.resident, s.task.ID, &UpdateTaskInput{Status: ptr(domain.TaskStatusCompleted)})
	require.NoError(t, err)

	_, err = s.tasks.Rate(s.ctx, s.leader, s.task.ID, &RateTaskInput{Rating: ptr(2.0), Feedback: "slow"})
	require.NoError(t, err)
	result, err := s.tasks.Rate(s.ctx, s.leader, s.task.ID, &RateTaskInput{Rating: ptr(5.0), Feedback: "fixed it"})
	require.NoError(t, err)
	assert.Equal(t, 5.0, *result.Task.Rating)
	assert.Equal(t, "fixed it", result.Task.Feedback)

	history, err := s.tasks.RatingHistory(s.ctx, s.resident, s.task.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	latest := history[0]
	require.NotNil(t, latest.PreviousRating)
	assert.Equal(t, 2.0, *latest.PreviousRating)
	assert.Equal(t, "slow", latest.PreviousFeedback)
	assert.Equal(t, 5.0, latest.NewRating)
	assert.Equal(t, s.leader.ID, latest.RatedBy)

	assert.Nil(t, history[1].PreviousRating)
}

type failingTaskRepo struct {
	repositories.TaskRepository
}

func (failingTaskRepo) Update(context.Context, *models.Task) error {
	return domain.ErrTransientStore
}

func TestTaskService_RateRollsBackHouseholdRating(t *testing.T) {
	s := newTaskSetup(t, domain.TaskCategoryCleanliness)
	_, err := s.tasks.Update(s.ctx, s.resident, s.task.ID, &UpdateTaskInput{Status: ptr(domain.TaskStatusCompleted)})
	require.NoError(t, err)

	s.tasks.tasks = failingTaskRepo{TaskRepository: s.store.Tasks}
	_, err = s.tasks.Rate(s.ctx, s.leader, s.task.ID, &RateTaskInput{Rating: ptr(4.0), Feedback: "good", RateHousehold: true})
	assert.ErrorIs(t, err, domain.ErrTransientStore)

	_, total, err := s.store.Ratings.List(s.ctx, repositories.RatingFilter{HouseholdID: s.home.ID}, repositories.ListOptions{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Zero(t, s.average(s.home.ID))
}

type failingAuditRepo struct {
	repositories.TaskRepository
}

func (failingAuditRepo) CreateRatingAudit(context.Context, *models.TaskRatingAudit) error {
	return domain.ErrTransientStore
}

func TestTaskService_RateRollsBackWhenAuditFails(t *testing.T) {
	s := newTaskSetup(t, domain.TaskCategorySecurity)
	_, err := s.tasks.Update(s.ctx, s.resident, s.task.ID, &UpdateTaskInput{Status: ptr(domain.TaskStatusCompleted)})
	require.NoError(t, err)

	_, err = s.tasks.Rate(s.ctx, s.leader, s.task.ID, &RateTaskInput{Rating: ptr(2.0), Feedback: "slow", RateHousehold: true})
	require.NoError(t, err)

	s.tasks.tasks = failingAuditRepo{TaskRepository: s.store.Tasks}
	_, err = s.tasks.Rate(s.ctx, s.leader, s.task.ID, &RateTaskInput{Rating: ptr(5.0), Feedback: "fixed it", RateHousehold: true})
	assert.ErrorIs(t, err, domain.ErrTransientStore)

	stored, err := s.store.Tasks.GetByID(s.ctx, s.task.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Rating)
	assert.Equal(t, 2.0, *stored.Rating)
	assert.Equal(t, "slow", stored.Feedback)

	ratings, _, err := s.store.Ratings.List(s.ctx, repositories.RatingFilter{HouseholdID: s.home.ID}, repositories.ListOptions{})
	require.NoError(t, err)
	require.Len(t, ratings, 1)
	assert.Equal(t, 2, ratings[0].Rating)
	assert.Equal(t, "slow", ratings[0].Comment)
	assert.Equal(t, 2.0, s.average(s.home.ID))

	history, err := s.store.Tasks.ListRatingAudits(s.ctx, s.task.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestTaskService_DeleteByAuthor(t *testing.T) {
	s := newTaskSetup(t, "")

	require.NoError(t, s.tasks.Delete(s.ctx, s.leader, s.task.ID))
	_, err := s.tasks.Get(s.ctx, s.leader, s.task.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

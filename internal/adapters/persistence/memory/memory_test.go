package memory

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

func TestRatings_UniqueTriple(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	first := &models.Rating{HouseholdID: "hh-1", RaterID: "leader-1", Category: "security", Rating: 4}
	require.NoError(t, store.Ratings.Create(ctx, first))
	assert.NotEmpty(t, first.ID)

	dup := &models.Rating{HouseholdID: "hh-1", RaterID: "leader-1", Category: "security", Rating: 2}
	assert.ErrorIs(t, store.Ratings.Create(ctx, dup), domain.ErrUniqueViolation)

	other := &models.Rating{HouseholdID: "hh-1", RaterID: "leader-1", Category: "cleanliness", Rating: 2}
	require.NoError(t, store.Ratings.Create(ctx, other))

	sum, count, err := store.Ratings.Aggregate(ctx, "hh-1")
	require.NoError(t, err)
	assert.Equal(t, int64(6), sum)
	assert.Equal(t, int64(2), count)
}

func TestRecordsAreCopied(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	h := &models.Household{ZoneID: "zone-1", UserID: "user-1"}
	require.NoError(t, store.Households.Create(ctx, h))
	h.AverageRating = 5

	got, err := store.Households.GetByID(ctx, h.ID)
	require.NoError(t, err)
	assert.Zero(t, got.AverageRating)
}

func TestHouseholds_ScopeAndMembers(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	a := &models.Household{ZoneID: "zone-1", UserID: "user-1"}
	b := &models.Household{ZoneID: "zone-2", UserID: "user-2"}
	require.NoError(t, store.Households.Create(ctx, a))
	require.NoError(t, store.Households.Create(ctx, b))

	list, total, err := store.Households.List(ctx,
		repositories.HouseholdFilter{Scope: repositories.Scope{Restricted: true, ZoneIDs: []string{"zone-1"}}},
		repositories.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, a.ID, list[0].ID)

	list, _, err = store.Households.List(ctx,
		repositories.HouseholdFilter{Scope: repositories.Scope{Restricted: true}}, repositories.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, store.Households.AddMember(ctx, b.ID, "user-3"))
	assert.ErrorIs(t, store.Households.AddMember(ctx, b.ID, "user-3"), domain.ErrUniqueViolation)

	mine, err := store.Households.GetByMember(ctx, "user-3")
	require.NoError(t, err)
	assert.Equal(t, b.ID, mine.ID)

	require.NoError(t, store.Households.RemoveMember(ctx, b.ID, "user-3"))
	assert.ErrorIs(t, store.Households.RemoveMember(ctx, b.ID, "user-3"), domain.ErrNotFound)
}

func TestHouseholds_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	h := &models.Household{ZoneID: "zone-1", UserID: "user-1"}
	require.NoError(t, store.Households.Create(ctx, h))
	require.NoError(t, store.Ratings.Create(ctx, &models.Rating{HouseholdID: h.ID, RaterID: "leader-1", Rating: 3}))

	require.NoError(t, store.Households.Delete(ctx, h.ID))
	_, count, err := store.Ratings.Aggregate(ctx, h.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.ErrorIs(t, store.Households.Delete(ctx, h.ID), domain.ErrNotFound)
}

func TestTasks_SortAndPage(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"b", "c", "a"} {
		require.NoError(t, store.Tasks.Create(ctx, &models.Task{
			Title:     title,
			DueDate:   base.AddDate(0, 0, i),
			Status:    domain.TaskStatusPending,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	tasks, total, err := store.Tasks.List(ctx, repositories.TaskFilter{},
		repositories.ListOptions{SortBy: "title", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, tasks, 2)
	assert.Equal(t, "a", tasks[0].Title)
	assert.Equal(t, "b", tasks[1].Title)

	tasks, _, err = store.Tasks.List(ctx, repositories.TaskFilter{}, repositories.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, "a", tasks[0].Title, "newest first by default")

	_, _, err = store.Tasks.List(ctx, repositories.TaskFilter{}, repositories.ListOptions{SortBy: "assignedBy"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTasks_MarkOverdue(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	now := time.Now()

	past := &models.Task{DueDate: now.Add(-time.Hour), Status: domain.TaskStatusInProgress}
	done := &models.Task{DueDate: now.Add(-time.Hour), Status: domain.TaskStatusCompleted}
	future := &models.Task{DueDate: now.Add(time.Hour), Status: domain.TaskStatusPending}
	for _, task := range []*models.Task{past, done, future} {
		require.NoError(t, store.Tasks.Create(ctx, task))
	}

	n, err := store.Tasks.MarkOverdue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, _ := store.Tasks.GetByID(ctx, past.ID)
	assert.Equal(t, domain.TaskStatusOverdue, got.Status)
	got, _ = store.Tasks.GetByID(ctx, done.ID)
	assert.Equal(t, domain.TaskStatusCompleted, got.Status)
}

func TestAlerts_Audience(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	zoneWide := &models.Alert{Title: "zone", ZoneID: "zone-1", Status: domain.AlertStatusActive}
	targeted := &models.Alert{Title: "targeted", ZoneID: "zone-1", Status: domain.AlertStatusActive}
	targeted.SetTargets([]string{"hh-2"})
	require.NoError(t, store.Alerts.Create(ctx, zoneWide))
	require.NoError(t, store.Alerts.Create(ctx, targeted))

	hh1, hh2, none := "hh-1", "hh-2", ""
	alerts, _, err := store.Alerts.List(ctx, repositories.AlertFilter{Audience: &hh1}, repositories.ListOptions{})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "zone", alerts[0].Title)

	alerts, _, err = store.Alerts.List(ctx, repositories.AlertFilter{Audience: &hh2}, repositories.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, alerts, 2)

	alerts, _, err = store.Alerts.List(ctx, repositories.AlertFilter{Audience: &none}, repositories.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}

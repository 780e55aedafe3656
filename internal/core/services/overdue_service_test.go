package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nyumbakumi/internal/adapters/persistence/models"
	"nyumbakumi/internal/core/domain"
)

func TestOverdueService_Sweep(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tasks := map[string]*models.Task{
		"late pending":     {Status: domain.TaskStatusPending, DueDate: now.Add(-time.Hour)},
		"late in progress": {Status: domain.TaskStatusInProgress, DueDate: now.Add(-time.Minute)},
		"late completed":   {Status: domain.TaskStatusCompleted, DueDate: now.Add(-time.Hour)},
		"future pending":   {Status: domain.TaskStatusPending, DueDate: now.Add(time.Hour)},
	}
	for title, task := range tasks {
		task.Title = title
		task.AssignedTo = "hh-1"
		task.AssignedBy = "leader-1"
		require.NoError(t, f.store.Tasks.Create(f.ctx, task))
	}

	sweep := NewOverdueService(f.store.Tasks, zap.NewNop())
	sweep.now = func() time.Time { return now }

	n, err := sweep.Sweep(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	want := map[string]string{
		"late pending":     domain.TaskStatusOverdue,
		"late in progress": domain.TaskStatusOverdue,
		"late completed":   domain.TaskStatusCompleted,
		"future pending":   domain.TaskStatusPending,
	}
	for title, task := range tasks {
		got, err := f.store.Tasks.GetByID(f.ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, want[title], got.Status, title)
	}

	n, err = sweep.Sweep(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOverdueService_Schedule(t *testing.T) {
	f := newFixture(t)
	sweep := NewOverdueService(f.store.Tasks, zap.NewNop())

	require.NoError(t, sweep.Start(""))
	sweep.Stop()

	assert.Error(t, sweep.Start("every now and then"))

	require.NoError(t, sweep.Start("@every 1h"))
	sweep.Stop()
}

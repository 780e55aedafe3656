package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"nyumbakumi/internal/adapters/persistence/repositories"
)

// OverdueService periodically moves pending and in-progress tasks whose due
// date has passed to overdue. It does nothing unless started with a schedule.
type OverdueService struct {
	tasks   repositories.TaskRepository
	cron    *cron.Cron
	timeout time.Duration
	now     func() time.Time
	log     *zap.Logger
}

// NewOverdueService creates a new overdue sweep
func NewOverdueService(tasks repositories.TaskRepository, log *zap.Logger) *OverdueService {
	return &OverdueService{
		tasks:   tasks,
		timeout: 30 * time.Second,
		now:     time.Now,
		log:     log,
	}
}

// Start schedules the sweep with a cron spec such as "@every 1h" or "0 * * * *".
// An empty schedule leaves the sweep disabled.
func (s *OverdueService) Start(schedule string) error {
	if schedule == "" {
		s.log.Info("task overdue sweep disabled")
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			s.log.Error("task overdue sweep failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("invalid overdue schedule %q: %w", schedule, err)
	}
	c.Start()
	s.cron = c

	s.log.Info("task overdue sweep started", zap.String("schedule", schedule))
	return nil
}

// Stop stops the schedule and waits for a running sweep
func (s *OverdueService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.log.Info("task overdue sweep stopped")
}

// Sweep marks past-due tasks overdue once and returns how many changed
func (s *OverdueService) Sweep(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.tasks.MarkOverdue(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("tasks marked overdue", zap.Int64("count", n))
	}
	return n, nil
}

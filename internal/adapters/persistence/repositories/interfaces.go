package repositories

import (
	"context"
	"time"

	"nyumbakumi/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user *models.User) error
	ListByRole(ctx context.Context, role string, opts ListOptions) ([]*models.User, int64, error)
}

// ZoneRepository defines zone repository interface
type ZoneRepository interface {
	Create(ctx context.Context, zone *models.Zone) error
	GetByID(ctx context.Context, id string) (*models.Zone, error)
	Update(ctx context.Context, zone *models.Zone) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ZoneFilter, opts ListOptions) ([]*models.Zone, int64, error)
	IDsByLeader(ctx context.Context, leaderID string) ([]string, error)
}

// HouseholdRepository defines household repository interface.
// Reads always load the member list.
type HouseholdRepository interface {
	Create(ctx context.Context, household *models.Household) error
	GetByID(ctx context.Context, id string) (*models.Household, error)
	GetByMember(ctx context.Context, userID string) (*models.Household, error)
	Update(ctx context.Context, household *models.Household) error
	// Delete removes the household with its members, alert targets and ratings
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter HouseholdFilter, opts ListOptions) ([]*models.Household, int64, error)
	IDsByZone(ctx context.Context, zoneID string) ([]string, error)
	CountByZone(ctx context.Context, zoneID string) (int64, error)
	AddMember(ctx context.Context, householdID, userID string) error
	RemoveMember(ctx context.Context, householdID, userID string) error
	SetAverageRating(ctx context.Context, householdID string, average float64) error
}

// AlertRepository defines alert repository interface
type AlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
	GetByID(ctx context.Context, id string) (*models.Alert, error)
	// Update saves the alert and replaces its targets
	Update(ctx context.Context, alert *models.Alert) error
	List(ctx context.Context, filter AlertFilter, opts ListOptions) ([]*models.Alert, int64, error)
}

// RatingRepository defines rating repository interface
type RatingRepository interface {
	Create(ctx context.Context, rating *models.Rating) error
	GetByID(ctx context.Context, id string) (*models.Rating, error)
	Update(ctx context.Context, rating *models.Rating) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter RatingFilter, opts ListOptions) ([]*models.Rating, int64, error)
	// Aggregate returns the sum and count of all ratings of a household
	Aggregate(ctx context.Context, householdID string) (sum int64, count int64, err error)
	CountByHousehold(ctx context.Context, householdIDs []string) (map[string]int64, error)
}

// TaskRepository defines task repository interface
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id string) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter TaskFilter, opts ListOptions) ([]*models.Task, int64, error)
	// MarkOverdue moves pending and in-progress tasks due before now to overdue
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
	CreateRatingAudit(ctx context.Context, audit *models.TaskRatingAudit) error
	ListRatingAudits(ctx context.Context, taskID string) ([]*models.TaskRatingAudit, error)
}

// Store bundles the repositories handed to services
type Store struct {
	Users      UserRepository
	Zones      ZoneRepository
	Households HouseholdRepository
	Alerts     AlertRepository
	Ratings    RatingRepository
	Tasks      TaskRepository
}

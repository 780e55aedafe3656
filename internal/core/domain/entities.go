package domain

// Role represents user role in the system
type Role string

const (
	RoleHousehold Role = "household"
	RoleLeader    Role = "leader"
	RoleAdmin     Role = "admin"
)

// ParseRole returns the role for s, or false if s is not a known role
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleHousehold, RoleLeader, RoleAdmin:
		return r, true
	}
	return "", false
}

// Actor is the authenticated caller of an operation.
// The zero value is the anonymous actor.
type Actor struct {
	ID          string
	Role        Role
	ZoneID      string
	HouseholdID string
}

// Anonymous returns the unauthenticated actor
func Anonymous() Actor {
	return Actor{}
}

func (a Actor) IsAnonymous() bool { return a.ID == "" }
func (a Actor) IsAdmin() bool     { return a.ID != "" && a.Role == RoleAdmin }
func (a Actor) IsLeader() bool    { return a.ID != "" && a.Role == RoleLeader }
func (a Actor) IsHousehold() bool { return a.ID != "" && a.Role == RoleHousehold }

// Alert priorities
const (
	AlertPriorityLow    = "low"
	AlertPriorityMedium = "medium"
	AlertPriorityHigh   = "high"
	AlertPriorityUrgent = "urgent"
)

// Alert statuses
const (
	AlertStatusActive   = "active"
	AlertStatusArchived = "archived"
	AlertStatusDeleted  = "deleted"
)

// Rating categories
const (
	RatingCategoryCleanliness            = "cleanliness"
	RatingCategorySecurity               = "security"
	RatingCategoryCommunityParticipation = "community_participation"
	RatingCategoryNoiseLevel             = "noise_level"
	RatingCategoryGeneral                = "general"
)

// Rating bounds
const (
	MinRating = 1
	MaxRating = 5
)

// Task statuses
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusOverdue    = "overdue"
)

// Task priorities
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

// Task categories
const (
	TaskCategoryCleanliness            = "cleanliness"
	TaskCategorySecurity               = "security"
	TaskCategoryCommunityParticipation = "community_participation"
	TaskCategoryMaintenance            = "maintenance"
	TaskCategoryOther                  = "other"
)

// Task rating bounds
const (
	MinTaskRating = 0
	MaxTaskRating = 5
)

// RatingCategoryForTask maps a task category onto the household rating category
// used when a task rating is also recorded against the household.
func RatingCategoryForTask(taskCategory string) string {
	switch taskCategory {
	case TaskCategoryCleanliness:
		return RatingCategoryCleanliness
	case TaskCategorySecurity:
		return RatingCategorySecurity
	case TaskCategoryCommunityParticipation:
		return RatingCategoryCommunityParticipation
	default:
		return RatingCategoryGeneral
	}
}

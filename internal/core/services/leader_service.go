package services

import (
	"context"

	"go.uber.org/zap"

	"nyumbakumi/internal/adapters/persistence/models"
	"nyumbakumi/internal/adapters/persistence/repositories"
	"nyumbakumi/internal/core/domain"
	"nyumbakumi/internal/core/policy"
)

// LeaderService exposes leader profiles and the zones they manage
type LeaderService struct {
	users repositories.UserRepository
	zones *ZoneService
	log   *zap.Logger
}

// NewLeaderService creates a new leader service
func NewLeaderService(users repositories.UserRepository, zones *ZoneService, log *zap.Logger) *LeaderService {
	return &LeaderService{users: users, zones: zones, log: log}
}

// UpdateLeaderInput represents leader profile update input
type UpdateLeaderInput struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email       *string `json:"email" validate:"omitempty,email"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,max=30"`
}

// LeaderZoneInput represents zone creation under a leader
type LeaderZoneInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
	Location    string `json:"location" validate:"required,max=200"`
}

// List lists leaders
func (s *LeaderService) List(ctx context.Context, opts repositories.ListOptions) ([]*models.User, int64, error) {
	return s.users.ListByRole(ctx, string(domain.RoleLeader), opts)
}

// Get returns a leader
func (s *LeaderService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, domain.ErrLeaderNotFound)
	}
	if user.Role != string(domain.RoleLeader) {
		return nil, domain.ErrLeaderNotFound
	}
	return user, nil
}

// Zones lists the zones a leader manages
func (s *LeaderService) Zones(ctx context.Context, id string, opts repositories.ListOptions) ([]*models.ZoneResponse, int64, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, 0, err
	}
	return s.zones.ListByLeader(ctx, id, opts)
}

// CreateZone creates a zone led by the given leader
func (s *LeaderService) CreateZone(ctx context.Context, actor domain.Actor, id string, input *LeaderZoneInput) (*models.ZoneResponse, error) {
	return s.zones.Create(ctx, actor, &CreateZoneInput{
		Name:        input.Name,
		LeaderID:    id,
		Description: input.Description,
		Location:    input.Location,
	})
}

// Update updates a leader's profile. Role and password are not editable here.
func (s *LeaderService) Update(ctx context.Context, actor domain.Actor, id string, input *UpdateLeaderInput) (*models.User, error) {
	if err := policy.CanUpdateLeaderProfile(actor, id).Err(domain.ErrLeaderNotFound); err != nil {
		return nil, err
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := applyProfile(user, input.Name, input.Email, input.PhoneNumber); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, orConflict(err, domain.ErrEmailTaken)
	}

	s.log.Info("leader profile updated", zap.String("leader_id", user.ID), zap.String("by", actor.ID))
	return user, nil
}

package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"nyumbakumi/internal/adapters/persistence/models"
	"nyumbakumi/internal/adapters/persistence/repositories"
	"nyumbakumi/internal/core/domain"
	"nyumbakumi/internal/core/policy"
)

// ZoneService handles zones
type ZoneService struct {
	zones      repositories.ZoneRepository
	households repositories.HouseholdRepository
	users      repositories.UserRepository
	log        *zap.Logger
}

// NewZoneService creates a new zone service
func NewZoneService(store *repositories.Store, log *zap.Logger) *ZoneService {
	return &ZoneService{
		zones:      store.Zones,
		households: store.Households,
		users:      store.Users,
		log:        log,
	}
}

// CreateZoneInput represents zone creation input
type CreateZoneInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	LeaderID    string `json:"leader" validate:"required"`
	Description string `json:"description" validate:"max=1000"`
	Location    string `json:"location" validate:"required,max=200"`
}

// UpdateZoneInput represents zone update input; nil fields are left alone
type UpdateZoneInput struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	LeaderID    *string `json:"leader" validate:"omitempty,min=1"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Location    *string `json:"location" validate:"omitempty,min=1,max=200"`
}

// view resolves the derived household list
func (s *ZoneService) view(ctx context.Context, zone *models.Zone) (*models.ZoneResponse, error) {
	ids, err := s.households.IDsByZone(ctx, zone.ID)
	if err != nil {
		return nil, err
	}
	return zone.ToResponse(ids), nil
}

func (s *ZoneService) views(ctx context.Context, zones []*models.Zone) ([]*models.ZoneResponse, error) {
	out := make([]*models.ZoneResponse, 0, len(zones))
	for _, z := range zones {
		v, err := s.view(ctx, z)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// requireLeader checks that id names a user with the leader role
func (s *ZoneService) requireLeader(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, domain.ErrLeaderNotFound)
	}
	if user.Role != string(domain.RoleLeader) {
		return nil, domain.ErrLeaderNotFound
	}
	return user, nil
}

// ListPublic lists every zone without authentication
func (s *ZoneService) ListPublic(ctx context.Context, opts repositories.ListOptions) ([]*models.ZoneResponse, int64, error) {
	zones, total, err := s.zones.List(ctx, repositories.ZoneFilter{}, opts)
	if err != nil {
		return nil, 0, err
	}
	out, err := s.views(ctx, zones)
	return out, total, err
}

// ListByLeader lists the zones a leader manages
func (s *ZoneService) ListByLeader(ctx context.Context, leaderID string, opts repositories.ListOptions) ([]*models.ZoneResponse, int64, error) {
	zones, total, err := s.zones.List(ctx, repositories.ZoneFilter{LeaderID: leaderID}, opts)
	if err != nil {
		return nil, 0, err
	}
	out, err := s.views(ctx, zones)
	return out, total, err
}

// List lists the zones visible to actor
func (s *ZoneService) List(ctx context.Context, actor domain.Actor, opts repositories.ListOptions) ([]*models.ZoneResponse, int64, error) {
	var scope repositories.Scope
	switch {
	case actor.IsAdmin():
	case actor.IsLeader():
		scope = repositories.Scope{Restricted: true, OwnerID: actor.ID}
	case actor.IsHousehold() && actor.ZoneID != "":
		scope = repositories.Scope{Restricted: true, ZoneIDs: []string{actor.ZoneID}}
	default:
		scope = repositories.Scope{Restricted: true}
	}

	zones, total, err := s.zones.List(ctx, repositories.ZoneFilter{Scope: scope}, opts)
	if err != nil {
		return nil, 0, err
	}
	out, err := s.views(ctx, zones)
	return out, total, err
}

// Get returns a zone with its leader
func (s *ZoneService) Get(ctx context.Context, actor domain.Actor, id string) (*models.ZoneResponse, error) {
	zone, err := s.zones.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, domain.ErrZoneNotFound)
	}
	if err := policy.CanReadZone(actor, zone).Err(domain.ErrZoneNotFound); err != nil {
		return nil, err
	}

	view, err := s.view(ctx, zone)
	if err != nil {
		return nil, err
	}
	if leader, err := s.users.GetByID(ctx, zone.LeaderID); err == nil {
		view.Leader = leader.ToResponse()
	}
	return view, nil
}

// Create creates a zone
func (s *ZoneService) Create(ctx context.Context, actor domain.Actor, input *CreateZoneInput) (*models.ZoneResponse, error) {
	if err := policy.CanManageZones(actor).Err(nil); err != nil {
		return nil, err
	}
	if _, err := s.requireLeader(ctx, input.LeaderID); err != nil {
		return nil, err
	}

	zone := &models.Zone{
		Name:        strings.TrimSpace(input.Name),
		LeaderID:    input.LeaderID,
		Description: strings.TrimSpace(input.Description),
		Location:    strings.TrimSpace(input.Location),
	}
	if zone.Name == "" || zone.Location == "" {
		return nil, domain.Validationf("name and location are required")
	}
	if err := s.zones.Create(ctx, zone); err != nil {
		return nil, orConflict(err, domain.ErrZoneNameTaken)
	}

	s.log.Info("zone created", zap.String("zone_id", zone.ID), zap.String("leader_id", zone.LeaderID))
	return zone.ToResponse(nil), nil
}

// Update updates a zone. Only admins may hand a zone to another leader.
func (s *ZoneService) Update(ctx context.Context, actor domain.Actor, id string, input *UpdateZoneInput) (*models.ZoneResponse, error) {
	zone, err := s.zones.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, domain.ErrZoneNotFound)
	}
	if err := policy.CanUpdateZone(actor, zone).Err(domain.ErrZoneNotFound); err != nil {
		return nil, err
	}

	changed := false
	if input.Name != nil {
		v := strings.TrimSpace(*input.Name)
		changed = changed || v != zone.Name
		zone.Name = v
	}
	if input.Description != nil {
		v := strings.TrimSpace(*input.Description)
		changed = changed || v != zone.Description
		zone.Description = v
	}
	if input.Location != nil {
		v := strings.TrimSpace(*input.Location)
		changed = changed || v != zone.Location
		zone.Location = v
	}
	if input.LeaderID != nil && *input.LeaderID != zone.LeaderID {
		if err := policy.CanManageZones(actor).Err(nil); err != nil {
			return nil, err
		}
		if _, err := s.requireLeader(ctx, *input.LeaderID); err != nil {
			return nil, err
		}
		zone.LeaderID = *input.LeaderID
		changed = true
	}
	if !changed {
		return nil, domain.ErrNothingToUpdate
	}
	if zone.Name == "" || zone.Location == "" {
		return nil, domain.Validationf("name and location cannot be empty")
	}

	if err := s.zones.Update(ctx, zone); err != nil {
		return nil, orConflict(err, domain.ErrZoneNameTaken)
	}
	return s.view(ctx, zone)
}

// Delete deletes a zone that has no households
func (s *ZoneService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if err := policy.CanManageZones(actor).Err(nil); err != nil {
		return err
	}
	zone, err := s.zones.GetByID(ctx, id)
	if err != nil {
		return orNotFound(err, domain.ErrZoneNotFound)
	}

	count, err := s.households.CountByZone(ctx, zone.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrZoneHasHouseholds
	}

	if err := s.zones.Delete(ctx, zone.ID); err != nil {
		return orNotFound(err, domain.ErrZoneNotFound)
	}
	s.log.Info("zone deleted", zap.String("zone_id", zone.ID))
	return nil
}

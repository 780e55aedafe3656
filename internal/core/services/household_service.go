package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"nyumbakumi/internal/adapters/persistence/models"
	"nyumbakumi/internal/adapters/persistence/repositories"
	"nyumbakumi/internal/core/domain"
	"nyumbakumi/internal/core/policy"
)

// HouseholdService handles households and their members
type HouseholdService struct {
	households repositories.HouseholdRepository
	users      repositories.UserRepository
	scoper
	log *zap.Logger
}

// NewHouseholdService creates a new household service
func NewHouseholdService(store *repositories.Store, log *zap.Logger) *HouseholdService {
	return &HouseholdService{
		households: store.Households,
		users:      store.Users,
		scoper:     scoper{zones: store.Zones},
		log:        log,
	}
}

// LocationInput is a GeoJSON point: coordinates are [longitude, latitude]
type LocationInput struct {
	Type        string    `json:"type" validate:"omitempty,eq=Point"`
	Coordinates []float64 `json:"coordinates" validate:"required,len=2"`
}

func (l *LocationInput) lngLat() (float64, float64, error) {
	if l == nil || len(l.Coordinates) != 2 {
		return 0, 0, domain.Validationf("location must be a point with [longitude, latitude] coordinates")
	}
	lng, lat := l.Coordinates[0], l.Coordinates[1]
	if lng < -180 || lng > 180 || lat < -90 || lat > 90 {
		return 0, 0, domain.Validationf("location coordinates are out of range")
	}
	return lng, lat, nil
}

// CreateHouseholdInput represents household creation input.
// UserID defaults to the creating user.
type CreateHouseholdInput struct {
	UserID         string         `json:"userId"`
	Address        string         `json:"address" validate:"required,max=255"`
	HouseNumber    string         `json:"houseNumber" validate:"required,max=50"`
	NumOfResidents int            `json:"numOfResidents" validate:"required,min=1"`
	Location       *LocationInput `json:"location" validate:"required"`
	ZoneID         string         `json:"zone" validate:"required"`
}

// UpdateHouseholdInput represents household update input; nil fields are left alone
type UpdateHouseholdInput struct {
	Address        *string        `json:"address" validate:"omitempty,min=1,max=255"`
	HouseNumber    *string        `json:"houseNumber" validate:"omitempty,min=1,max=50"`
	NumOfResidents *int           `json:"numOfResidents" validate:"omitempty,min=1"`
	Location       *LocationInput `json:"location"`
	ZoneID         *string        `json:"zone" validate:"omitempty,min=1"`
}

// MemberInput names the user to add to a household
type MemberInput struct {
	UserID string `json:"userId" validate:"required"`
}

func (s *HouseholdService) load(ctx context.Context, id string) (*models.Household, *models.Zone, error) {
	h, err := s.households.GetByID(ctx, id)
	if err != nil {
		return nil, nil, orNotFound(err, domain.ErrHouseholdNotFound)
	}
	zone, err := s.zoneOf(ctx, h.ZoneID)
	if err != nil {
		return nil, nil, err
	}
	return h, zone, nil
}

// ListPublic lists households without authentication, optionally by zone
func (s *HouseholdService) ListPublic(ctx context.Context, zoneID string, opts repositories.ListOptions) ([]*models.Household, int64, error) {
	return s.households.List(ctx, repositories.HouseholdFilter{ZoneID: zoneID}, opts)
}

// List lists households visible to actor
func (s *HouseholdService) List(ctx context.Context, actor domain.Actor, zoneID string, opts repositories.ListOptions) ([]*models.Household, int64, error) {
	scope, err := s.scopeFor(ctx, actor)
	if err != nil {
		return nil, 0, err
	}
	return s.households.List(ctx, repositories.HouseholdFilter{Scope: scope, ZoneID: zoneID}, opts)
}

// Mine returns the household the actor owns or belongs to
func (s *HouseholdService) Mine(ctx context.Context, actor domain.Actor) (*models.Household, error) {
	if actor.HouseholdID != "" {
		h, err := s.households.GetByID(ctx, actor.HouseholdID)
		if err == nil {
			return h, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	h, err := s.households.GetByMember(ctx, actor.ID)
	if err != nil {
		return nil, orNotFound(err, domain.ErrNoHousehold)
	}
	return h, nil
}

// Get returns a household visible to actor
func (s *HouseholdService) Get(ctx context.Context, actor domain.Actor, id string) (*models.Household, error) {
	h, zone, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanReadHousehold(actor, h, zone).Err(domain.ErrHouseholdNotFound); err != nil {
		return nil, err
	}
	return h, nil
}

// Create creates a household in a zone the actor manages
func (s *HouseholdService) Create(ctx context.Context, actor domain.Actor, input *CreateHouseholdInput) (*models.Household, error) {
	zone, err := s.zones.GetByID(ctx, input.ZoneID)
	if err != nil {
		return nil, orNotFound(err, domain.ErrZoneNotFound)
	}
	if err := policy.CanActInZone(actor, zone).Err(domain.ErrZoneNotFound); err != nil {
		return nil, err
	}

	lng, lat, err := input.Location.lngLat()
	if err != nil {
		return nil, err
	}
	if input.NumOfResidents < 1 {
		return nil, domain.Validationf("numOfResidents must be at least 1")
	}

	ownerID := input.UserID
	if ownerID == "" {
		ownerID = actor.ID
	}
	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		return nil, orNotFound(err, domain.ErrUserNotFound)
	}

	h := &models.Household{
		UserID:         owner.ID,
		Address:        strings.TrimSpace(input.Address),
		HouseNumber:    strings.TrimSpace(input.HouseNumber),
		NumOfResidents: input.NumOfResidents,
		Longitude:      lng,
		Latitude:       lat,
		ZoneID:         zone.ID,
	}
	if err := s.households.Create(ctx, h); err != nil {
		return nil, err
	}

	if owner.Role == string(domain.RoleHousehold) && owner.HouseholdID == "" {
		if err := s.attach(ctx, owner, h); err != nil {
			return nil, err
		}
	}

	s.log.Info("household created", zap.String("household_id", h.ID), zap.String("zone_id", h.ZoneID))
	return h, nil
}

// Update updates a household. Moving it requires managing the target zone.
func (s *HouseholdService) Update(ctx context.Context, actor domain.Actor, id string, input *UpdateHouseholdInput) (*models.Household, error) {
	h, zone, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanWriteHousehold(actor, h, zone).Err(domain.ErrHouseholdNotFound); err != nil {
		return nil, err
	}

	changed := false
	if input.Address != nil {
		v := strings.TrimSpace(*input.Address)
		changed = changed || v != h.Address
		h.Address = v
	}
	if input.HouseNumber != nil {
		v := strings.TrimSpace(*input.HouseNumber)
		changed = changed || v != h.HouseNumber
		h.HouseNumber = v
	}
	if input.NumOfResidents != nil {
		changed = changed || *input.NumOfResidents != h.NumOfResidents
		h.NumOfResidents = *input.NumOfResidents
	}
	if input.Location != nil {
		lng, lat, err := input.Location.lngLat()
		if err != nil {
			return nil, err
		}
		changed = changed || lng != h.Longitude || lat != h.Latitude
		h.Longitude, h.Latitude = lng, lat
	}
	if input.ZoneID != nil && *input.ZoneID != h.ZoneID {
		target, err := s.zones.GetByID(ctx, *input.ZoneID)
		if err != nil {
			return nil, orNotFound(err, domain.ErrZoneNotFound)
		}
		if err := policy.CanActInZone(actor, target).Err(domain.ErrZoneNotFound); err != nil {
			return nil, err
		}
		h.ZoneID = target.ID
		changed = true
	}
	if !changed {
		return nil, domain.ErrNothingToUpdate
	}
	if h.Address == "" || h.HouseNumber == "" || h.NumOfResidents < 1 {
		return nil, domain.Validationf("address, houseNumber and numOfResidents are required")
	}

	if err := s.households.Update(ctx, h); err != nil {
		return nil, orNotFound(err, domain.ErrHouseholdNotFound)
	}
	return h, nil
}

// Delete deletes a household together with its members and ratings
func (s *HouseholdService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	h, zone, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.CanWriteHousehold(actor, h, zone).Err(domain.ErrHouseholdNotFound); err != nil {
		return err
	}

	if err := s.households.Delete(ctx, h.ID); err != nil {
		return orNotFound(err, domain.ErrHouseholdNotFound)
	}
	s.log.Info("household deleted", zap.String("household_id", h.ID), zap.String("by", actor.ID))
	return nil
}

// AddMember adds a user to a household
func (s *HouseholdService) AddMember(ctx context.Context, actor domain.Actor, id string, input *MemberInput) (*models.Household, error) {
	h, zone, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanManageMembers(actor, h, zone).Err(domain.ErrHouseholdNotFound); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, orNotFound(err, domain.ErrUserNotFound)
	}
	if h.HasMember(user.ID) {
		return nil, domain.ErrAlreadyMember
	}
	if err := s.households.AddMember(ctx, h.ID, user.ID); err != nil {
		return nil, orConflict(err, domain.ErrAlreadyMember)
	}
	if user.Role == string(domain.RoleHousehold) {
		if err := s.attach(ctx, user, h); err != nil {
			return nil, err
		}
	}

	return s.households.GetByID(ctx, h.ID)
}

// RemoveMember removes a user from a household
func (s *HouseholdService) RemoveMember(ctx context.Context, actor domain.Actor, id, userID string) (*models.Household, error) {
	h, zone, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanManageMembers(actor, h, zone).Err(domain.ErrHouseholdNotFound); err != nil {
		return nil, err
	}

	if err := s.households.RemoveMember(ctx, h.ID, userID); err != nil {
		return nil, orNotFound(err, domain.ErrNotMember)
	}
	if user, err := s.users.GetByID(ctx, userID); err == nil && user.HouseholdID == h.ID {
		user.HouseholdID = ""
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	return s.households.GetByID(ctx, h.ID)
}

// attach points a household user at the household and its zone
func (s *HouseholdService) attach(ctx context.Context, user *models.User, h *models.Household) error {
	user.HouseholdID = h.ID
	user.ZoneID = h.ZoneID
	return s.users.Update(ctx, user)
}

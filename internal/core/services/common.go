package services

import (
	"context"
	"errors"

	"nyumbakumi/internal/adapters/persistence/models"
	"nyumbakumi/internal/adapters/persistence/repositories"
	"nyumbakumi/internal/core/domain"
)

// orNotFound replaces a bare not-found from the store with a specific error
func orNotFound(err, specific error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return specific
	}
	return err
}

// orConflict replaces a unique violation from the store with a specific error
func orConflict(err, specific error) error {
	if errors.Is(err, domain.ErrUniqueViolation) {
		return specific
	}
	return err
}

// scoper resolves what an actor may list
type scoper struct {
	zones repositories.ZoneRepository
}

// scopeFor: admins see everything; leaders see their zones and what they
// authored; household users see their own household.
func (s scoper) scopeFor(ctx context.Context, a domain.Actor) (repositories.Scope, error) {
	switch {
	case a.IsAdmin():
		return repositories.Scope{}, nil
	case a.IsLeader():
		ids, err := s.zones.IDsByLeader(ctx, a.ID)
		if err != nil {
			return repositories.Scope{}, err
		}
		return repositories.Scope{Restricted: true, ZoneIDs: ids, OwnerID: a.ID}, nil
	case a.IsHousehold():
		scope := repositories.Scope{Restricted: true, OwnerID: a.ID}
		if a.HouseholdID != "" {
			scope.HouseholdIDs = []string{a.HouseholdID}
		}
		return scope, nil
	}
	return repositories.Scope{Restricted: true}, nil
}

// zoneOf loads a zone that may have been deleted; a missing zone is nil
func (s scoper) zoneOf(ctx context.Context, zoneID string) (*models.Zone, error) {
	if zoneID == "" {
		return nil, nil
	}
	zone, err := s.zones.GetByID(ctx, zoneID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return zone, err
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

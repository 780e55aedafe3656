package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nyumbakumi/internal/adapters/persistence/memory"
	"nyumbakumi/internal/adapters/persistence/models"
	"nyumbakumi/internal/adapters/persistence/repositories"
	"nyumbakumi/internal/core/domain"
)

// fixture wires every service over one in-memory store
type fixture struct {
	t   *testing.T
	ctx context.Context

	store      *repositories.Store
	locker     *KeyedMutex
	zones      *ZoneService
	households *HouseholdService
	alerts     *AlertService
	ratings    *RatingService
	tasks      *TaskService
	reports    *ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zap.NewNop()
	store := memory.NewStore()
	locker := NewKeyedMutex()
	ratings := NewRatingService(store, NewRatingAggregator(store.Households, store.Ratings, locker, log), log)

	return &fixture{
		t:          t,
		ctx:        context.Background(),
		store:      store,
		locker:     locker,
		zones:      NewZoneService(store, log),
		households: NewHouseholdService(store, log),
		alerts:     NewAlertService(store, nil, log),
		ratings:    ratings,
		tasks:      NewTaskService(store, ratings, log),
		reports:    NewReportService(store, log),
	}
}

func (f *fixture) user(role domain.Role, name string) domain.Actor {
	f.t.Helper()
	u := &models.User{Name: name, Email: name + "@example.com", Password: "x", Role: string(role)}
	require.NoError(f.t, f.store.Users.Create(f.ctx, u))
	return ActorFor(u)
}

func (f *fixture) zone(name string, leader domain.Actor) *models.Zone {
	f.t.Helper()
	z := &models.Zone{Name: name, LeaderID: leader.ID, Location: name + " estate"}
	require.NoError(f.t, f.store.Zones.Create(f.ctx, z))
	return z
}

func (f *fixture) household(zone *models.Zone, houseNumber string) *models.Household {
	f.t.Helper()
	h := &models.Household{
		UserID:         models.NewID(),
		Address:        "1 Moi Avenue",
		HouseNumber:    houseNumber,
		NumOfResidents: 3,
		ZoneID:         zone.ID,
	}
	require.NoError(f.t, f.store.Households.Create(f.ctx, h))
	return h
}

// resident creates a household-role user who is a member of h
func (f *fixture) resident(h *models.Household, name string) domain.Actor {
	f.t.Helper()
	u := &models.User{
		Name:        name,
		Email:       name + "@example.com",
		Password:    "x",
		Role:        string(domain.RoleHousehold),
		ZoneID:      h.ZoneID,
		HouseholdID: h.ID,
	}
	require.NoError(f.t, f.store.Users.Create(f.ctx, u))
	require.NoError(f.t, f.store.Households.AddMember(f.ctx, h.ID, u.ID))
	return ActorFor(u)
}

func (f *fixture) average(householdID string) float64 {
	f.t.Helper()
	h, err := f.store.Households.GetByID(f.ctx, householdID)
	require.NoError(f.t, err)
	return h.AverageRating
}

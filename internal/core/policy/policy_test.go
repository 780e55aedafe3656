package policy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"nyumbakumi/internal/adapters/persistence/models"
	"nyumbakumi/internal/core/domain"
)

var (
	admin     = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
	leader    = domain.Actor{ID: "leader-1", Role: domain.RoleLeader}
	outsider  = domain.Actor{ID: "leader-2", Role: domain.RoleLeader}
	resident  = domain.Actor{ID: "user-1", Role: domain.RoleHousehold, ZoneID: "zone-1", HouseholdID: "hh-1"}
	neighbour = domain.Actor{ID: "user-2", Role: domain.RoleHousehold, ZoneID: "zone-1", HouseholdID: "hh-2"}
	anon      = domain.Anonymous()

	zone      = &models.Zone{ID: "zone-1", LeaderID: "leader-1"}
	household = &models.Household{ID: "hh-1", UserID: "user-1", ZoneID: "zone-1"}
)

func TestDecision_Err(t *testing.T) {
	assert.NoError(t, Allow.Err(nil))
	assert.True(t, errors.Is(Deny.Err(nil), domain.ErrNotAuthorized))
	assert.True(t, errors.Is(NotFound.Err(nil), domain.ErrNotFound))
	assert.Equal(t, domain.ErrZoneNotFound, NotFound.Err(domain.ErrZoneNotFound))
}

func TestZonePredicates(t *testing.T) {
	assert.Equal(t, Allow, CanReadZone(admin, zone))
	assert.Equal(t, Allow, CanReadZone(leader, zone))
	assert.Equal(t, Deny, CanReadZone(outsider, zone))
	assert.Equal(t, Allow, CanReadZone(resident, zone))
	assert.Equal(t, Deny, CanReadZone(anon, zone))

	assert.Equal(t, Allow, CanUpdateZone(leader, zone))
	assert.Equal(t, Deny, CanUpdateZone(outsider, zone))
	assert.Equal(t, Deny, CanUpdateZone(resident, zone))

	assert.Equal(t, Allow, CanManageZones(admin))
	assert.Equal(t, Deny, CanManageZones(leader))
}

func TestHouseholdPredicates(t *testing.T) {
	assert.Equal(t, Allow, CanReadHousehold(admin, household, zone))
	assert.Equal(t, Allow, CanReadHousehold(leader, household, zone))
	assert.Equal(t, Deny, CanReadHousehold(outsider, household, zone))
	assert.Equal(t, Allow, CanReadHousehold(resident, household, zone))
	assert.Equal(t, NotFound, CanReadHousehold(neighbour, household, zone))
	assert.Equal(t, Deny, CanReadHousehold(anon, household, zone))

	member := domain.Actor{ID: "user-9", Role: domain.RoleHousehold}
	withMember := &models.Household{ID: "hh-1", UserID: "user-1", ZoneID: "zone-1",
		Members: []models.HouseholdMember{{HouseholdID: "hh-1", UserID: "user-9"}}}
	assert.Equal(t, Allow, CanReadHousehold(member, withMember, zone))

	assert.Equal(t, Allow, CanWriteHousehold(leader, household, zone))
	assert.Equal(t, Deny, CanWriteHousehold(resident, household, zone))
	assert.Equal(t, NotFound, CanWriteHousehold(neighbour, household, zone))
	assert.Equal(t, Deny, CanManageMembers(outsider, household, zone))
}

func TestAlertPredicates(t *testing.T) {
	zoneWide := &models.Alert{ID: "a-1", ZoneID: "zone-1", SenderID: "leader-1", Status: domain.AlertStatusActive}
	targeted := &models.Alert{ID: "a-2", ZoneID: "zone-1", SenderID: "leader-1", Status: domain.AlertStatusActive,
		Targets: []models.AlertTarget{{AlertID: "a-2", HouseholdID: "hh-2"}}}
	otherZone := &models.Alert{ID: "a-3", ZoneID: "zone-9", SenderID: "leader-2", Status: domain.AlertStatusActive}

	assert.Equal(t, Allow, CanReadAlert(resident, zoneWide, zone))
	assert.Equal(t, NotFound, CanReadAlert(resident, targeted, zone))
	assert.Equal(t, Allow, CanReadAlert(neighbour, targeted, zone))
	assert.Equal(t, NotFound, CanReadAlert(resident, otherZone, nil))
	assert.Equal(t, Deny, CanReadAlert(leader, otherZone, nil))
	assert.Equal(t, Allow, CanReadAlert(outsider, otherZone, nil))
	assert.Equal(t, Deny, CanReadAlert(anon, zoneWide, zone))

	assert.Equal(t, Allow, CanWriteAlert(leader, zoneWide, zone))
	assert.Equal(t, Deny, CanWriteAlert(resident, zoneWide, zone))
}

func TestRatingPredicates(t *testing.T) {
	r := &models.Rating{ID: "r-1", HouseholdID: "hh-1", RaterID: "leader-1"}

	assert.Equal(t, Allow, CanCreateRating(leader, household, zone))
	assert.Equal(t, Deny, CanCreateRating(outsider, household, zone))
	assert.Equal(t, Deny, CanCreateRating(resident, household, zone))
	assert.Equal(t, NotFound, CanCreateRating(neighbour, household, zone))

	assert.Equal(t, Allow, CanReadRating(resident, r, household, zone))
	assert.Equal(t, NotFound, CanReadRating(neighbour, r, household, zone))
	assert.Equal(t, Deny, CanReadRating(outsider, r, household, zone))

	assert.Equal(t, Allow, CanWriteRating(leader, r, household, zone))
	assert.Equal(t, Allow, CanWriteRating(admin, r, household, zone))
	assert.Equal(t, Deny, CanWriteRating(outsider, r, household, zone))
}

func TestTaskPredicates(t *testing.T) {
	task := &models.Task{ID: "t-1", AssignedBy: "leader-1", AssignedTo: "hh-1"}

	assert.Equal(t, Allow, CanReadTask(resident, task, household, zone))
	assert.Equal(t, NotFound, CanReadTask(neighbour, task, household, zone))
	assert.Equal(t, Deny, CanReadTask(outsider, task, household, zone))

	assert.Equal(t, Allow, CanCreateTask(leader, household, zone))
	assert.Equal(t, Deny, CanCreateTask(outsider, household, zone))

	assert.Equal(t, Allow, CanEditTask(leader, task, household))
	assert.Equal(t, Deny, CanEditTask(outsider, task, household))
	assert.Equal(t, Deny, CanEditTask(resident, task, household))
	assert.Equal(t, NotFound, CanEditTask(neighbour, task, household))

	assert.Equal(t, Allow, CanUpdateTaskStatus(resident, task, household))
	assert.Equal(t, NotFound, CanUpdateTaskStatus(neighbour, task, household))
	assert.Equal(t, Allow, CanUpdateTaskStatus(leader, task, household))

	assert.Equal(t, Allow, CanRateTask(admin, task, household))
	assert.Equal(t, Deny, CanRateTask(resident, task, household))
}

func TestCanUpdateLeaderProfile(t *testing.T) {
	assert.Equal(t, Allow, CanUpdateLeaderProfile(leader, "leader-1"))
	assert.Equal(t, Deny, CanUpdateLeaderProfile(outsider, "leader-1"))
	assert.Equal(t, Allow, CanUpdateLeaderProfile(admin, "leader-1"))
	assert.Equal(t, Deny, CanUpdateLeaderProfile(anon, "leader-1"))
}

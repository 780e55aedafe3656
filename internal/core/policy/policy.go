// Package policy holds the role-scoped access predicates. Predicates are pure:
// they reason only about the actor and records the caller already loaded.
package policy

import (
	"nyumbakumi/internal/adapters/persistence/models"
	"nyumbakumi/internal/core/domain"
)

// Decision is the outcome of an access check
type Decision int

const (
	Allow Decision = iota
	Deny
	NotFound
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	}
	return "not_found"
}

// Err converts a decision into an error. notFound is returned for NotFound
// so callers keep their entity-specific message.
func (d Decision) Err(notFound error) error {
	switch d {
	case Allow:
		return nil
	case Deny:
		return domain.NewError(domain.ErrNotAuthorized, "not authorized to access this resource")
	}
	if notFound == nil {
		return domain.ErrNotFound
	}
	return notFound
}

func allowIf(ok bool, otherwise Decision) Decision {
	if ok {
		return Allow
	}
	return otherwise
}

// leads reports whether a is the leader of zone
func leads(a domain.Actor, zone *models.Zone) bool {
	return zone != nil && a.IsLeader() && zone.LeaderID == a.ID
}

// belongsTo reports whether a household user is part of h
func belongsTo(a domain.Actor, h *models.Household) bool {
	if h == nil || a.IsAnonymous() {
		return false
	}
	return a.HouseholdID == h.ID || h.UserID == a.ID || h.HasMember(a.ID)
}

// ============================================================
// Zones
// ============================================================

func CanReadZone(a domain.Actor, zone *models.Zone) Decision {
	switch {
	case a.IsAdmin():
		return Allow
	case a.IsLeader():
		return allowIf(leads(a, zone), Deny)
	case a.IsHousehold():
		return allowIf(zone != nil && zone.ID == a.ZoneID, Deny)
	}
	return Deny
}

// CanActInZone covers writes scoped to a zone: creating households,
// alerts and tasks in it.
func CanActInZone(a domain.Actor, zone *models.Zone) Decision {
	if a.IsAdmin() {
		return Allow
	}
	return allowIf(leads(a, zone), Deny)
}

func CanUpdateZone(a domain.Actor, zone *models.Zone) Decision {
	return CanActInZone(a, zone)
}

// CanManageZones covers zone creation and deletion
func CanManageZones(a domain.Actor) Decision {
	return allowIf(a.IsAdmin(), Deny)
}

// ============================================================
// Households
// ============================================================

func CanReadHousehold(a domain.Actor, h *models.Household, zone *models.Zone) Decision {
	switch {
	case a.IsAdmin():
		return Allow
	case a.IsLeader():
		return allowIf(leads(a, zone), Deny)
	case a.IsHousehold():
		return allowIf(belongsTo(a, h), NotFound)
	}
	return Deny
}

func CanWriteHousehold(a domain.Actor, h *models.Household, zone *models.Zone) Decision {
	switch {
	case a.IsAdmin():
		return Allow
	case a.IsLeader():
		return allowIf(leads(a, zone), Deny)
	case a.IsHousehold():
		if belongsTo(a, h) {
			return Deny
		}
		return NotFound
	}
	return Deny
}

func CanManageMembers(a domain.Actor, h *models.Household, zone *models.Zone) Decision {
	return CanWriteHousehold(a, h, zone)
}

// ============================================================
// Alerts
// ============================================================

// CanReadAlert: household users see alerts of their zone that are zone-wide
// or target their household.
func CanReadAlert(a domain.Actor, alert *models.Alert, zone *models.Zone) Decision {
	switch {
	case a.IsAdmin():
		return Allow
	case a.IsLeader():
		return allowIf(leads(a, zone) || alert.SenderID == a.ID, Deny)
	case a.IsHousehold():
		if alert.ZoneID != a.ZoneID || alert.Status == domain.AlertStatusDeleted {
			return NotFound
		}
		return allowIf(len(alert.Targets) == 0 || alert.TargetsHousehold(a.HouseholdID), NotFound)
	}
	return Deny
}

func CanWriteAlert(a domain.Actor, alert *models.Alert, zone *models.Zone) Decision {
	switch {
	case a.IsAdmin():
		return Allow
	case a.IsLeader():
		return allowIf(leads(a, zone) || alert.SenderID == a.ID, Deny)
	}
	return Deny
}

// ============================================================
// Ratings
// ============================================================

func CanReadRating(a domain.Actor, r *models.Rating, h *models.Household, zone *models.Zone) Decision {
	switch {
	case a.IsAdmin():
		return Allow
	case a.IsLeader():
		return allowIf(r.RaterID == a.ID || leads(a, zone), Deny)
	case a.IsHousehold():
		return allowIf(belongsTo(a, h), NotFound)
	}
	return Deny
}

// CanCreateRating: only leaders of the household's zone and admins rate.
func CanCreateRating(a domain.Actor, h *models.Household, zone *models.Zone) Decision {
	switch {
	case a.IsAdmin():
		return Allow
	case a.IsLeader():
		return allowIf(leads(a, zone), Deny)
	case a.IsHousehold():
		return notFoundUnlessOwn(a, h)
	}
	return Deny
}

// CanWriteRating covers update and delete: the rater or an admin.
func CanWriteRating(a domain.Actor, r *models.Rating, h *models.Household, zone *models.Zone) Decision {
	switch {
	case a.IsAdmin():
		return Allow
	case a.IsLeader():
		return allowIf(r.RaterID == a.ID, Deny)
	case a.IsHousehold():
		return notFoundUnlessOwn(a, h)
	}
	return Deny
}

func notFoundUnlessOwn(a domain.Actor, h *models.Household) Decision {
	if belongsTo(a, h) {
		return Deny
	}
	return NotFound
}

// ============================================================
// Tasks
// ============================================================

func CanReadTask(a domain.Actor, t *models.Task, h *models.Household, zone *models.Zone) Decision {
	switch {
	case a.IsAdmin():
		return Allow
	case a.IsLeader():
		return allowIf(t.AssignedBy == a.ID || leads(a, zone), Deny)
	case a.IsHousehold():
		return allowIf(t.AssignedTo == a.HouseholdID || belongsTo(a, h), NotFound)
	}
	return Deny
}

func CanCreateTask(a domain.Actor, h *models.Household, zone *models.Zone) Decision {
	switch {
	case a.IsAdmin():
		return Allow
	case a.IsLeader():
		return allowIf(leads(a, zone), Deny)
	case a.IsHousehold():
		return notFoundUnlessOwn(a, h)
	}
	return Deny
}

// CanEditTask covers full edits and deletion: the author or an admin.
func CanEditTask(a domain.Actor, t *models.Task, h *models.Household) Decision {
	switch {
	case a.IsAdmin():
		return Allow
	case a.IsLeader():
		return allowIf(t.AssignedBy == a.ID, Deny)
	case a.IsHousehold():
		if t.AssignedTo == a.HouseholdID || belongsTo(a, h) {
			return Deny
		}
		return NotFound
	}
	return Deny
}

// CanUpdateTaskStatus: members of the assigned household may move the status.
func CanUpdateTaskStatus(a domain.Actor, t *models.Task, h *models.Household) Decision {
	if a.IsHousehold() {
		return allowIf(t.AssignedTo == a.HouseholdID || belongsTo(a, h), NotFound)
	}
	return CanEditTask(a, t, h)
}

func CanRateTask(a domain.Actor, t *models.Task, h *models.Household) Decision {
	return CanEditTask(a, t, h)
}

// ============================================================
// Leaders
// ============================================================

func CanUpdateLeaderProfile(a domain.Actor, leaderID string) Decision {
	if a.IsAdmin() {
		return Allow
	}
	return allowIf(a.IsLeader() && a.ID == leaderID, Deny)
}

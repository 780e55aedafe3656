// Package memory is an in-process implementation of the repositories, used by
// tests and by DB_DRIVER=memory. Records are copied on the way in and out.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"nyumbakumi/internal/adapters/persistence/models"
	"nyumbakumi/internal/adapters/persistence/repositories"
	"nyumbakumi/internal/core/domain"
)

type db struct {
	mu         sync.RWMutex
	users      []*models.User
	zones      []*models.Zone
	households []*models.Household
	alerts     []*models.Alert
	ratings    []*models.Rating
	tasks      []*models.Task
	audits     []*models.TaskRatingAudit
}

// NewStore returns repositories backed by a fresh in-memory database
func NewStore() *repositories.Store {
	d := &db{}
	return &repositories.Store{
		Users:      &userRepo{d},
		Zones:      &zoneRepo{d},
		Households: &householdRepo{d},
		Alerts:     &alertRepo{d},
		Ratings:    &ratingRepo{d},
		Tasks:      &taskRepo{d},
	}
}

func stamp(createdAt *time.Time) {
	if createdAt.IsZero() {
		*createdAt = time.Now()
	}
}

func find[T any](items []*T, match func(*T) bool) (int, *T) {
	for i, it := range items {
		if match(it) {
			return i, it
		}
	}
	return -1, nil
}

func remove[T any](items []*T, i int) []*T {
	return append(items[:i], items[i+1:]...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// householdZone resolves the zone of a household; caller holds the lock
func (d *db) householdZone(householdID string) string {
	_, h := find(d.households, func(h *models.Household) bool { return h.ID == householdID })
	if h == nil {
		return ""
	}
	return h.ZoneID
}

// inScope mirrors the SQL scope: any of zone, household or owner matches
func inScope(s repositories.Scope, zoneID, householdID, ownerID string) bool {
	if !s.Restricted {
		return true
	}
	if zoneID != "" && contains(s.ZoneIDs, zoneID) {
		return true
	}
	if householdID != "" && contains(s.HouseholdIDs, householdID) {
		return true
	}
	return ownerID != "" && s.OwnerID == ownerID
}

// compare orders two field values of the same type
func compare(a, b interface{}) int {
	switch x := a.(type) {
	case string:
		return strings.Compare(x, b.(string))
	case int:
		y := b.(int)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	case float64:
		y := b.(float64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	case time.Time:
		return x.Compare(b.(time.Time))
	case *time.Time:
		y := b.(*time.Time)
		switch {
		case x == nil && y == nil:
			return 0
		case x == nil:
			return -1
		case y == nil:
			return 1
		}
		return x.Compare(*y)
	}
	return 0
}

// paginate sorts items by the whitelisted field and slices out one page
func paginate[T any](items []*T, fields map[string]string, opts repositories.ListOptions,
	field func(*T, string) interface{}) ([]*T, int64, error) {
	if err := repositories.CheckSort(fields, opts.SortBy); err != nil {
		return nil, 0, err
	}

	column, desc := "created_at", true
	if opts.SortBy != "" {
		column, desc = fields[opts.SortBy], opts.SortDesc
	}
	sort.SliceStable(items, func(i, j int) bool {
		c := compare(field(items[i], column), field(items[j], column))
		if desc {
			return c > 0
		}
		return c < 0
	})

	total := int64(len(items))
	if opts.Limit > 0 {
		if opts.Offset >= len(items) {
			return []*T{}, total, nil
		}
		end := opts.Offset + opts.Limit
		if end > len(items) {
			end = len(items)
		}
		items = items[opts.Offset:end]
	}
	return items, total, nil
}

var errNotFound = domain.ErrNotFound

func uniqueViolation(what string) error {
	return domain.NewError(domain.ErrUniqueViolation, "duplicate "+what)
}

package repositories

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"gorm.io/gorm"

	"nyumbakumi/internal/core/domain"
)

// DefaultQueryTimeout bounds every repository call when no timeout is configured
const DefaultQueryTimeout = 5 * time.Second

// ListOptions carries paging and ordering for list queries.
// SortBy is an API field name; each entity whitelists what it accepts.
type ListOptions struct {
	Offset   int
	Limit    int
	SortBy   string
	SortDesc bool
}

// Scope restricts a listing to what an actor may see. The zero value is
// unrestricted. A restricted scope matches records in any of ZoneIDs, about
// any of HouseholdIDs, or authored by OwnerID.
type Scope struct {
	Restricted   bool
	ZoneIDs      []string
	HouseholdIDs []string
	OwnerID      string
}

// ZoneFilter filters zone listings
type ZoneFilter struct {
	Scope    Scope
	LeaderID string
}

// HouseholdFilter filters household listings
type HouseholdFilter struct {
	Scope  Scope
	ZoneID string
}

// AlertFilter filters alert listings. A non-nil Audience limits results to
// alerts that are zone-wide or target that household; an empty household
// keeps only zone-wide alerts.
type AlertFilter struct {
	Scope    Scope
	Priority string
	Status   string
	ZoneID   string
	Audience *string
}

// RatingFilter filters rating listings
type RatingFilter struct {
	Scope       Scope
	HouseholdID string
	Category    string
	Rating      int
	RaterID     string
}

// TaskFilter filters task listings
type TaskFilter struct {
	Scope      Scope
	Status     string
	Priority   string
	Category   string
	AssignedTo string
	AssignedBy string
}

// Sortable fields per entity, API name to column
var (
	UserSortFields = map[string]string{
		"createdAt": "created_at",
		"name":      "name",
		"email":     "email",
	}
	ZoneSortFields = map[string]string{
		"createdAt": "created_at",
		"name":      "name",
		"location":  "location",
	}
	HouseholdSortFields = map[string]string{
		"createdAt":      "created_at",
		"houseNumber":    "house_number",
		"averageRating":  "average_rating",
		"numOfResidents": "num_of_residents",
	}
	AlertSortFields = map[string]string{
		"createdAt": "created_at",
		"priority":  "priority",
		"status":    "status",
		"expiresAt": "expires_at",
		"title":     "title",
	}
	RatingSortFields = map[string]string{
		"createdAt": "created_at",
		"updatedAt": "updated_at",
		"rating":    "rating",
		"category":  "category",
	}
	TaskSortFields = map[string]string{
		"createdAt": "created_at",
		"dueDate":   "due_date",
		"priority":  "priority",
		"status":    "status",
		"title":     "title",
	}
)

// CheckSort validates a sort field against a whitelist
func CheckSort(fields map[string]string, sortBy string) error {
	if sortBy == "" {
		return nil
	}
	if _, ok := fields[sortBy]; !ok {
		return domain.Validationf("cannot sort by %q", sortBy)
	}
	return nil
}

// orderClause defaults to newest first
func orderClause(fields map[string]string, opts ListOptions) (string, error) {
	if err := CheckSort(fields, opts.SortBy); err != nil {
		return "", err
	}
	if opts.SortBy == "" {
		return "created_at DESC", nil
	}
	dir := "ASC"
	if opts.SortDesc {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s", fields[opts.SortBy], dir), nil
}

// page applies ordering, offset and limit
func page(db *gorm.DB, fields map[string]string, opts ListOptions) (*gorm.DB, error) {
	order, err := orderClause(fields, opts)
	if err != nil {
		return nil, err
	}
	db = db.Order(order)
	if opts.Limit > 0 {
		db = db.Offset(opts.Offset).Limit(opts.Limit)
	}
	return db, nil
}

// scopeColumns names how a scope applies to a table. Empty entries do not apply.
type scopeColumns struct {
	zone            string // column holding a zone id
	household       string // column holding a household id
	owner           string // column holding the author id
	zoneOfHousehold bool   // zone is resolved through the household column
}

func applyScope(db *gorm.DB, s Scope, cols scopeColumns) *gorm.DB {
	if !s.Restricted {
		return db
	}

	var conds []string
	var args []interface{}
	if len(s.ZoneIDs) > 0 {
		switch {
		case cols.zone != "":
			conds = append(conds, cols.zone+" IN ?")
			args = append(args, s.ZoneIDs)
		case cols.zoneOfHousehold:
			conds = append(conds, cols.household+" IN (SELECT id FROM households WHERE zone_id IN ?)")
			args = append(args, s.ZoneIDs)
		}
	}
	if len(s.HouseholdIDs) > 0 && cols.household != "" {
		conds = append(conds, cols.household+" IN ?")
		args = append(args, s.HouseholdIDs)
	}
	if s.OwnerID != "" && cols.owner != "" {
		conds = append(conds, cols.owner+" = ?")
		args = append(args, s.OwnerID)
	}

	if len(conds) == 0 {
		return db.Where("1 = 0")
	}
	return db.Where("("+strings.Join(conds, " OR ")+")", args...)
}

// base gives every repository a bounded context
type base struct {
	db      *gorm.DB
	timeout time.Duration
}

func newBase(db *gorm.DB, timeout time.Duration) base {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return base{db: db, timeout: timeout}
}

func (b base) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	return b.db.WithContext(ctx), cancel
}

// translate maps store errors onto the domain taxonomy
func translate(err error) error {
	var netErr net.Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", domain.ErrUniqueViolation, err)
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, driver.ErrBadConn),
		errors.As(err, &netErr):
		return fmt.Errorf("%w: %v", domain.ErrTransientStore, err)
	}
	return err
}

// NewStore builds the gorm-backed repositories
func NewStore(db *gorm.DB, timeout time.Duration) *Store {
	return &Store{
		Users:      NewUserRepository(db, timeout),
		Zones:      NewZoneRepository(db, timeout),
		Households: NewHouseholdRepository(db, timeout),
		Alerts:     NewAlertRepository(db, timeout),
		Ratings:    NewRatingRepository(db, timeout),
		Tasks:      NewTaskRepository(db, timeout),
	}
}

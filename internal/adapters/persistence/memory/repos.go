package memory

import (
	"context"
	"time"

	"nyumbakumi/internal/adapters/persistence/models"
	"nyumbakumi/internal/adapters/persistence/repositories"
	"nyumbakumi/internal/core/domain"
)

// ============================================================
// Users
// ============================================================

type userRepo struct{ d *db }

func cloneUser(u *models.User) *models.User {
	c := *u
	return &c
}

func (r *userRepo) Create(_ context.Context, user *models.User) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if _, u := find(r.d.users, func(u *models.User) bool { return u.Email == user.Email }); u != nil {
		return uniqueViolation("email")
	}
	if user.ID == "" {
		user.ID = models.NewID()
	}
	stamp(&user.CreatedAt)
	user.UpdatedAt = user.CreatedAt
	r.d.users = append(r.d.users, cloneUser(user))
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	if _, u := find(r.d.users, func(u *models.User) bool { return u.ID == id }); u != nil {
		return cloneUser(u), nil
	}
	return nil, errNotFound
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	if _, u := find(r.d.users, func(u *models.User) bool { return u.Email == email }); u != nil {
		return cloneUser(u), nil
	}
	return nil, errNotFound
}

func (r *userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r *userRepo) Update(_ context.Context, user *models.User) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if _, u := find(r.d.users, func(u *models.User) bool { return u.Email == user.Email && u.ID != user.ID }); u != nil {
		return uniqueViolation("email")
	}
	i, _ := find(r.d.users, func(u *models.User) bool { return u.ID == user.ID })
	if i < 0 {
		return errNotFound
	}
	user.UpdatedAt = time.Now()
	r.d.users[i] = cloneUser(user)
	return nil
}

func (r *userRepo) ListByRole(_ context.Context, role string, opts repositories.ListOptions) ([]*models.User, int64, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	var out []*models.User
	for _, u := range r.d.users {
		if u.Role == role {
			out = append(out, cloneUser(u))
		}
	}
	return paginate(out, repositories.UserSortFields, opts, func(u *models.User, col string) interface{} {
		switch col {
		case "name":
			return u.Name
		case "email":
			return u.Email
		}
		return u.CreatedAt
	})
}

// ============================================================
// Zones
// ============================================================

type zoneRepo struct{ d *db }

func cloneZone(z *models.Zone) *models.Zone {
	c := *z
	return &c
}

func (r *zoneRepo) Create(_ context.Context, zone *models.Zone) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if _, z := find(r.d.zones, func(z *models.Zone) bool { return z.Name == zone.Name }); z != nil {
		return uniqueViolation("zone name")
	}
	if zone.ID == "" {
		zone.ID = models.NewID()
	}
	stamp(&zone.CreatedAt)
	r.d.zones = append(r.d.zones, cloneZone(zone))
	return nil
}

func (r *zoneRepo) GetByID(_ context.Context, id string) (*models.Zone, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	if _, z := find(r.d.zones, func(z *models.Zone) bool { return z.ID == id }); z != nil {
		return cloneZone(z), nil
	}
	return nil, errNotFound
}

func (r *zoneRepo) Update(_ context.Context, zone *models.Zone) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if _, z := find(r.d.zones, func(z *models.Zone) bool { return z.Name == zone.Name && z.ID != zone.ID }); z != nil {
		return uniqueViolation("zone name")
	}
	i, _ := find(r.d.zones, func(z *models.Zone) bool { return z.ID == zone.ID })
	if i < 0 {
		return errNotFound
	}
	r.d.zones[i] = cloneZone(zone)
	return nil
}

func (r *zoneRepo) Delete(_ context.Context, id string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	i, _ := find(r.d.zones, func(z *models.Zone) bool { return z.ID == id })
	if i < 0 {
		return errNotFound
	}
	r.d.zones = remove(r.d.zones, i)
	return nil
}

func (r *zoneRepo) List(_ context.Context, filter repositories.ZoneFilter, opts repositories.ListOptions) ([]*models.Zone, int64, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	var out []*models.Zone
	for _, z := range r.d.zones {
		if !inScope(filter.Scope, z.ID, "", z.LeaderID) {
			continue
		}
		if filter.LeaderID != "" && z.LeaderID != filter.LeaderID {
			continue
		}
		out = append(out, cloneZone(z))
	}
	return paginate(out, repositories.ZoneSortFields, opts, func(z *models.Zone, col string) interface{} {
		switch col {
		case "name":
			return z.Name
		case "location":
			return z.Location
		}
		return z.CreatedAt
	})
}

func (r *zoneRepo) IDsByLeader(_ context.Context, leaderID string) ([]string, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	var ids []string
	for _, z := range r.d.zones {
		if z.LeaderID == leaderID {
			ids = append(ids, z.ID)
		}
	}
	return ids, nil
}

// ============================================================
// Households
// ============================================================

type householdRepo struct{ d *db }

func cloneHousehold(h *models.Household) *models.Household {
	c := *h
	c.Members = append([]models.HouseholdMember(nil), h.Members...)
	return &c
}

func (r *householdRepo) Create(_ context.Context, household *models.Household) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if household.ID == "" {
		household.ID = models.NewID()
	}
	stamp(&household.CreatedAt)
	for i := range household.Members {
		household.Members[i].HouseholdID = household.ID
		stamp(&household.Members[i].CreatedAt)
	}
	r.d.households = append(r.d.households, cloneHousehold(household))
	return nil
}

func (r *householdRepo) GetByID(_ context.Context, id string) (*models.Household, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	if _, h := find(r.d.households, func(h *models.Household) bool { return h.ID == id }); h != nil {
		return cloneHousehold(h), nil
	}
	return nil, errNotFound
}

func (r *householdRepo) GetByMember(_ context.Context, userID string) (*models.Household, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	if _, h := find(r.d.households, func(h *models.Household) bool { return h.UserID == userID || h.HasMember(userID) }); h != nil {
		return cloneHousehold(h), nil
	}
	return nil, errNotFound
}

func (r *householdRepo) Update(_ context.Context, household *models.Household) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	i, current := find(r.d.households, func(h *models.Household) bool { return h.ID == household.ID })
	if i < 0 {
		return errNotFound
	}
	updated := cloneHousehold(household)
	updated.Members = current.Members
	r.d.households[i] = updated
	return nil
}

func (r *householdRepo) Delete(_ context.Context, id string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	i, _ := find(r.d.households, func(h *models.Household) bool { return h.ID == id })
	if i < 0 {
		return errNotFound
	}
	r.d.households = remove(r.d.households, i)

	kept := r.d.ratings[:0]
	for _, rt := range r.d.ratings {
		if rt.HouseholdID != id {
			kept = append(kept, rt)
		}
	}
	r.d.ratings = kept

	for _, a := range r.d.alerts {
		targets := a.Targets[:0]
		for _, t := range a.Targets {
			if t.HouseholdID != id {
				targets = append(targets, t)
			}
		}
		a.Targets = targets
	}
	return nil
}

func (r *householdRepo) List(_ context.Context, filter repositories.HouseholdFilter, opts repositories.ListOptions) ([]*models.Household, int64, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	var out []*models.Household
	for _, h := range r.d.households {
		if !inScope(filter.Scope, h.ZoneID, h.ID, h.UserID) {
			continue
		}
		if filter.ZoneID != "" && h.ZoneID != filter.ZoneID {
			continue
		}
		out = append(out, cloneHousehold(h))
	}
	return paginate(out, repositories.HouseholdSortFields, opts, func(h *models.Household, col string) interface{} {
		switch col {
		case "house_number":
			return h.HouseNumber
		case "average_rating":
			return h.AverageRating
		case "num_of_residents":
			return h.NumOfResidents
		}
		return h.CreatedAt
	})
}

func (r *householdRepo) IDsByZone(_ context.Context, zoneID string) ([]string, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	var ids []string
	for _, h := range r.d.households {
		if h.ZoneID == zoneID {
			ids = append(ids, h.ID)
		}
	}
	return ids, nil
}

func (r *householdRepo) CountByZone(ctx context.Context, zoneID string) (int64, error) {
	ids, err := r.IDsByZone(ctx, zoneID)
	return int64(len(ids)), err
}

func (r *householdRepo) AddMember(_ context.Context, householdID, userID string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	_, h := find(r.d.households, func(h *models.Household) bool { return h.ID == householdID })
	if h == nil {
		return errNotFound
	}
	if h.HasMember(userID) {
		return uniqueViolation("household member")
	}
	h.Members = append(h.Members, models.HouseholdMember{HouseholdID: householdID, UserID: userID, CreatedAt: time.Now()})
	return nil
}

func (r *householdRepo) RemoveMember(_ context.Context, householdID, userID string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	_, h := find(r.d.households, func(h *models.Household) bool { return h.ID == householdID })
	if h == nil {
		return errNotFound
	}
	for i, m := range h.Members {
		if m.UserID == userID {
			h.Members = append(h.Members[:i], h.Members[i+1:]...)
			return nil
		}
	}
	return errNotFound
}

func (r *householdRepo) SetAverageRating(_ context.Context, householdID string, average float64) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	_, h := find(r.d.households, func(h *models.Household) bool { return h.ID == householdID })
	if h == nil {
		return errNotFound
	}
	h.AverageRating = average
	return nil
}

// ============================================================
// Alerts
// ============================================================

type alertRepo struct{ d *db }

func cloneAlert(a *models.Alert) *models.Alert {
	c := *a
	c.Targets = append([]models.AlertTarget(nil), a.Targets...)
	if a.ExpiresAt != nil {
		t := *a.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

func (r *alertRepo) Create(_ context.Context, alert *models.Alert) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if alert.ID == "" {
		alert.ID = models.NewID()
	}
	stamp(&alert.CreatedAt)
	for i := range alert.Targets {
		alert.Targets[i].AlertID = alert.ID
	}
	r.d.alerts = append(r.d.alerts, cloneAlert(alert))
	return nil
}

func (r *alertRepo) GetByID(_ context.Context, id string) (*models.Alert, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	if _, a := find(r.d.alerts, func(a *models.Alert) bool { return a.ID == id }); a != nil {
		return cloneAlert(a), nil
	}
	return nil, errNotFound
}

func (r *alertRepo) Update(_ context.Context, alert *models.Alert) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	i, _ := find(r.d.alerts, func(a *models.Alert) bool { return a.ID == alert.ID })
	if i < 0 {
		return errNotFound
	}
	for j := range alert.Targets {
		alert.Targets[j].AlertID = alert.ID
	}
	r.d.alerts[i] = cloneAlert(alert)
	return nil
}

func (r *alertRepo) List(_ context.Context, filter repositories.AlertFilter, opts repositories.ListOptions) ([]*models.Alert, int64, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	var out []*models.Alert
	for _, a := range r.d.alerts {
		if !inScope(filter.Scope, a.ZoneID, "", a.SenderID) {
			continue
		}
		if filter.Priority != "" && a.Priority != filter.Priority {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.ZoneID != "" && a.ZoneID != filter.ZoneID {
			continue
		}
		if filter.Audience != nil && len(a.Targets) > 0 && !a.TargetsHousehold(*filter.Audience) {
			continue
		}
		out = append(out, cloneAlert(a))
	}
	return paginate(out, repositories.AlertSortFields, opts, func(a *models.Alert, col string) interface{} {
		switch col {
		case "priority":
			return a.Priority
		case "status":
			return a.Status
		case "title":
			return a.Title
		case "expires_at":
			return a.ExpiresAt
		}
		return a.CreatedAt
	})
}

// ============================================================
// Ratings
// ============================================================

type ratingRepo struct{ d *db }

func cloneRating(rt *models.Rating) *models.Rating {
	c := *rt
	return &c
}

func sameKey(a, b *models.Rating) bool {
	return a.HouseholdID == b.HouseholdID && a.RaterID == b.RaterID && a.Category == b.Category
}

func (r *ratingRepo) Create(_ context.Context, rating *models.Rating) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if _, rt := find(r.d.ratings, func(rt *models.Rating) bool { return sameKey(rt, rating) }); rt != nil {
		return uniqueViolation("rating")
	}
	if rating.ID == "" {
		rating.ID = models.NewID()
	}
	if rating.Category == "" {
		rating.Category = domain.RatingCategoryGeneral
	}
	stamp(&rating.CreatedAt)
	rating.UpdatedAt = rating.CreatedAt
	r.d.ratings = append(r.d.ratings, cloneRating(rating))
	return nil
}

func (r *ratingRepo) GetByID(_ context.Context, id string) (*models.Rating, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	if _, rt := find(r.d.ratings, func(rt *models.Rating) bool { return rt.ID == id }); rt != nil {
		return cloneRating(rt), nil
	}
	return nil, errNotFound
}

func (r *ratingRepo) Update(_ context.Context, rating *models.Rating) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if _, rt := find(r.d.ratings, func(rt *models.Rating) bool { return sameKey(rt, rating) && rt.ID != rating.ID }); rt != nil {
		return uniqueViolation("rating")
	}
	i, _ := find(r.d.ratings, func(rt *models.Rating) bool { return rt.ID == rating.ID })
	if i < 0 {
		return errNotFound
	}
	rating.UpdatedAt = time.Now()
	r.d.ratings[i] = cloneRating(rating)
	return nil
}

func (r *ratingRepo) Delete(_ context.Context, id string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	i, _ := find(r.d.ratings, func(rt *models.Rating) bool { return rt.ID == id })
	if i < 0 {
		return errNotFound
	}
	r.d.ratings = remove(r.d.ratings, i)
	return nil
}

func (r *ratingRepo) List(_ context.Context, filter repositories.RatingFilter, opts repositories.ListOptions) ([]*models.Rating, int64, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	var out []*models.Rating
	for _, rt := range r.d.ratings {
		if !inScope(filter.Scope, r.d.householdZone(rt.HouseholdID), rt.HouseholdID, rt.RaterID) {
			continue
		}
		if filter.HouseholdID != "" && rt.HouseholdID != filter.HouseholdID {
			continue
		}
		if filter.Category != "" && rt.Category != filter.Category {
			continue
		}
		if filter.Rating > 0 && rt.Rating != filter.Rating {
			continue
		}
		if filter.RaterID != "" && rt.RaterID != filter.RaterID {
			continue
		}
		out = append(out, cloneRating(rt))
	}
	return paginate(out, repositories.RatingSortFields, opts, func(rt *models.Rating, col string) interface{} {
		switch col {
		case "updated_at":
			return rt.UpdatedAt
		case "rating":
			return rt.Rating
		case "category":
			return rt.Category
		}
		return rt.CreatedAt
	})
}

func (r *ratingRepo) Aggregate(_ context.Context, householdID string) (int64, int64, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	var sum, count int64
	for _, rt := range r.d.ratings {
		if rt.HouseholdID == householdID {
			sum += int64(rt.Rating)
			count++
		}
	}
	return sum, count, nil
}

func (r *ratingRepo) CountByHousehold(_ context.Context, householdIDs []string) (map[string]int64, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	counts := make(map[string]int64, len(householdIDs))
	for _, rt := range r.d.ratings {
		if contains(householdIDs, rt.HouseholdID) {
			counts[rt.HouseholdID]++
		}
	}
	return counts, nil
}

// ============================================================
// Tasks
// ============================================================

type taskRepo struct{ d *db }

func cloneTask(t *models.Task) *models.Task {
	c := *t
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		c.CompletedAt = &v
	}
	if t.Rating != nil {
		v := *t.Rating
		c.Rating = &v
	}
	return &c
}

func (r *taskRepo) Create(_ context.Context, task *models.Task) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if task.ID == "" {
		task.ID = models.NewID()
	}
	stamp(&task.CreatedAt)
	task.UpdatedAt = task.CreatedAt
	r.d.tasks = append(r.d.tasks, cloneTask(task))
	return nil
}

func (r *taskRepo) GetByID(_ context.Context, id string) (*models.Task, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	if _, t := find(r.d.tasks, func(t *models.Task) bool { return t.ID == id }); t != nil {
		return cloneTask(t), nil
	}
	return nil, errNotFound
}

func (r *taskRepo) Update(_ context.Context, task *models.Task) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	i, _ := find(r.d.tasks, func(t *models.Task) bool { return t.ID == task.ID })
	if i < 0 {
		return errNotFound
	}
	task.UpdatedAt = time.Now()
	r.d.tasks[i] = cloneTask(task)
	return nil
}

func (r *taskRepo) Delete(_ context.Context, id string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	i, _ := find(r.d.tasks, func(t *models.Task) bool { return t.ID == id })
	if i < 0 {
		return errNotFound
	}
	r.d.tasks = remove(r.d.tasks, i)

	kept := r.d.audits[:0]
	for _, a := range r.d.audits {
		if a.TaskID != id {
			kept = append(kept, a)
		}
	}
	r.d.audits = kept
	return nil
}

func (r *taskRepo) List(_ context.Context, filter repositories.TaskFilter, opts repositories.ListOptions) ([]*models.Task, int64, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	var out []*models.Task
	for _, t := range r.d.tasks {
		if !inScope(filter.Scope, r.d.householdZone(t.AssignedTo), t.AssignedTo, t.AssignedBy) {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && t.Priority != filter.Priority {
			continue
		}
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		if filter.AssignedTo != "" && t.AssignedTo != filter.AssignedTo {
			continue
		}
		if filter.AssignedBy != "" && t.AssignedBy != filter.AssignedBy {
			continue
		}
		out = append(out, cloneTask(t))
	}
	return paginate(out, repositories.TaskSortFields, opts, func(t *models.Task, col string) interface{} {
		switch col {
		case "due_date":
			return t.DueDate
		case "priority":
			return t.Priority
		case "status":
			return t.Status
		case "title":
			return t.Title
		}
		return t.CreatedAt
	})
}

func (r *taskRepo) MarkOverdue(_ context.Context, now time.Time) (int64, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	var n int64
	for _, t := range r.d.tasks {
		if (t.Status == domain.TaskStatusPending || t.Status == domain.TaskStatusInProgress) && t.DueDate.Before(now) {
			t.Status = domain.TaskStatusOverdue
			t.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (r *taskRepo) CreateRatingAudit(_ context.Context, audit *models.TaskRatingAudit) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if audit.ID == "" {
		audit.ID = models.NewID()
	}
	stamp(&audit.CreatedAt)
	c := *audit
	r.d.audits = append(r.d.audits, &c)
	return nil
}

func (r *taskRepo) ListRatingAudits(_ context.Context, taskID string) ([]*models.TaskRatingAudit, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()

	var out []*models.TaskRatingAudit
	for i := len(r.d.audits) - 1; i >= 0; i-- {
		if a := r.d.audits[i]; a.TaskID == taskID {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"nyumbakumi/internal/adapters/persistence/models"
	"nyumbakumi/internal/adapters/persistence/repositories"
	"nyumbakumi/internal/core/domain"
	"nyumbakumi/internal/core/policy"
)

var (
	alertPriorities = []string{
		domain.AlertPriorityLow,
		domain.AlertPriorityMedium,
		domain.AlertPriorityHigh,
		domain.AlertPriorityUrgent,
	}
	alertStatuses = []string{
		domain.AlertStatusActive,
		domain.AlertStatusArchived,
		domain.AlertStatusDeleted,
	}
)

// AlertService handles zone alerts
type AlertService struct {
	alerts     repositories.AlertRepository
	households repositories.HouseholdRepository
	scoper
	notifier *AlertNotifier
	log      *zap.Logger
}

// NewAlertService creates a new alert service. notifier may be nil.
func NewAlertService(store *repositories.Store, notifier *AlertNotifier, log *zap.Logger) *AlertService {
	return &AlertService{
		alerts:     store.Alerts,
		households: store.Households,
		scoper:     scoper{zones: store.Zones},
		notifier:   notifier,
		log:        log,
	}
}

// CreateAlertInput represents alert creation input.
// An empty TargetHouseholds makes the alert zone-wide.
type CreateAlertInput struct {
	Title            string     `json:"title" validate:"required,max=200"`
	Message          string     `json:"message" validate:"required"`
	Priority         string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	ZoneID           string     `json:"zone"`
	TargetHouseholds []string   `json:"targetHouseholds"`
	ExpiresAt        *time.Time `json:"expiresAt"`
}

// UpdateAlertInput represents alert update input; nil fields are left alone
type UpdateAlertInput struct {
	Title            *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Message          *string    `json:"message" validate:"omitempty,min=1"`
	Priority         *string    `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Status           *string    `json:"status" validate:"omitempty,oneof=active archived"`
	TargetHouseholds *[]string  `json:"targetHouseholds"`
	ExpiresAt        *time.Time `json:"expiresAt"`
}

// AlertQuery filters alert listings. An empty Status means active.
type AlertQuery struct {
	Priority string
	Status   string
	ZoneID   string
}

func (s *AlertService) load(ctx context.Context, actor domain.Actor, id string) (*models.Alert, *models.Zone, error) {
	alert, err := s.alerts.GetByID(ctx, id)
	if err != nil {
		return nil, nil, orNotFound(err, domain.ErrAlertNotFound)
	}
	if alert.Status == domain.AlertStatusDeleted && !actor.IsAdmin() {
		return nil, nil, domain.ErrAlertNotFound
	}
	zone, err := s.zoneOf(ctx, alert.ZoneID)
	if err != nil {
		return nil, nil, err
	}
	return alert, zone, nil
}

// checkTargets verifies every target is a household of zoneID and drops duplicates
func (s *AlertService) checkTargets(ctx context.Context, zoneID string, ids []string) ([]string, error) {
	seen := make(map[string]bool, len(ids))
	targets := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		h, err := s.households.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.Validationf("target household %s does not exist", id)
			}
			return nil, err
		}
		if h.ZoneID != zoneID {
			return nil, domain.Validationf("target household %s is not in the alert's zone", id)
		}
		targets = append(targets, id)
	}
	return targets, nil
}

// List lists alerts visible to actor
func (s *AlertService) List(ctx context.Context, actor domain.Actor, q AlertQuery, opts repositories.ListOptions) ([]*models.Alert, int64, error) {
	if q.Priority != "" && !oneOf(q.Priority, alertPriorities...) {
		return nil, 0, domain.Validationf("invalid alert priority %q", q.Priority)
	}
	if q.Status == "" {
		q.Status = domain.AlertStatusActive
	}
	if !oneOf(q.Status, alertStatuses...) {
		return nil, 0, domain.Validationf("invalid alert status %q", q.Status)
	}
	if q.Status == domain.AlertStatusDeleted && !actor.IsAdmin() {
		return nil, 0, domain.NewError(domain.ErrNotAuthorized, "only admins can list deleted alerts")
	}

	filter := repositories.AlertFilter{Priority: q.Priority, Status: q.Status, ZoneID: q.ZoneID}
	if actor.IsHousehold() {
		filter.Scope = repositories.Scope{Restricted: true}
		if actor.ZoneID != "" {
			filter.Scope.ZoneIDs = []string{actor.ZoneID}
		}
		audience := actor.HouseholdID
		filter.Audience = &audience
	} else {
		scope, err := s.scopeFor(ctx, actor)
		if err != nil {
			return nil, 0, err
		}
		filter.Scope = scope
	}
	return s.alerts.List(ctx, filter, opts)
}

// Get returns an alert visible to actor
func (s *AlertService) Get(ctx context.Context, actor domain.Actor, id string) (*models.Alert, error) {
	alert, zone, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanReadAlert(actor, alert, zone).Err(domain.ErrAlertNotFound); err != nil {
		return nil, err
	}
	return alert, nil
}

// Create sends an alert to a zone, or to selected households of it
func (s *AlertService) Create(ctx context.Context, actor domain.Actor, input *CreateAlertInput) (*models.Alert, error) {
	zoneID := strings.TrimSpace(input.ZoneID)
	if zoneID == "" && actor.IsLeader() {
		zoneID = actor.ZoneID
	}
	if zoneID == "" {
		return nil, domain.Validationf("zone is required")
	}
	zone, err := s.zones.GetByID(ctx, zoneID)
	if err != nil {
		return nil, orNotFound(err, domain.ErrZoneNotFound)
	}
	if err := policy.CanActInZone(actor, zone).Err(domain.ErrZoneNotFound); err != nil {
		return nil, err
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.AlertPriorityMedium
	}
	if !oneOf(priority, alertPriorities...) {
		return nil, domain.Validationf("invalid alert priority %q", priority)
	}
	title := strings.TrimSpace(input.Title)
	message := strings.TrimSpace(input.Message)
	if title == "" || message == "" {
		return nil, domain.Validationf("title and message are required")
	}
	targets, err := s.checkTargets(ctx, zone.ID, input.TargetHouseholds)
	if err != nil {
		return nil, err
	}

	alert := &models.Alert{
		ID:        models.NewID(),
		Title:     title,
		Message:   message,
		Priority:  priority,
		SenderID:  actor.ID,
		ZoneID:    zone.ID,
		ExpiresAt: input.ExpiresAt,
		Status:    domain.AlertStatusActive,
	}
	alert.SetTargets(targets)
	if err := s.alerts.Create(ctx, alert); err != nil {
		return nil, err
	}

	s.log.Info("alert created",
		zap.String("alert_id", alert.ID),
		zap.String("zone_id", alert.ZoneID),
		zap.String("priority", alert.Priority),
		zap.Int("targets", len(targets)),
	)
	s.notifier.Notify(alert)
	return alert, nil
}

// Update updates an alert; a non-nil TargetHouseholds replaces the targets
func (s *AlertService) Update(ctx context.Context, actor domain.Actor, id string, input *UpdateAlertInput) (*models.Alert, error) {
	alert, zone, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanWriteAlert(actor, alert, zone).Err(domain.ErrAlertNotFound); err != nil {
		return nil, err
	}

	changed := false
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, domain.Validationf("title cannot be empty")
		}
		changed = changed || alert.Title != title
		alert.Title = title
	}
	if input.Message != nil {
		message := strings.TrimSpace(*input.Message)
		if message == "" {
			return nil, domain.Validationf("message cannot be empty")
		}
		changed = changed || alert.Message != message
		alert.Message = message
	}
	if input.Priority != nil {
		if !oneOf(*input.Priority, alertPriorities...) {
			return nil, domain.Validationf("invalid alert priority %q", *input.Priority)
		}
		changed = changed || alert.Priority != *input.Priority
		alert.Priority = *input.Priority
	}
	if input.Status != nil {
		if !oneOf(*input.Status, domain.AlertStatusActive, domain.AlertStatusArchived) {
			return nil, domain.Validationf("invalid alert status %q", *input.Status)
		}
		changed = changed || alert.Status != *input.Status
		alert.Status = *input.Status
	}
	if input.ExpiresAt != nil {
		changed = changed || alert.ExpiresAt == nil || !alert.ExpiresAt.Equal(*input.ExpiresAt)
		expires := *input.ExpiresAt
		alert.ExpiresAt = &expires
	}
	if input.TargetHouseholds != nil {
		targets, err := s.checkTargets(ctx, alert.ZoneID, *input.TargetHouseholds)
		if err != nil {
			return nil, err
		}
		if !sameSet(alert.TargetIDs(), targets) {
			changed = true
			alert.SetTargets(targets)
		}
	}
	if !changed {
		return nil, domain.ErrNothingToUpdate
	}

	if err := s.alerts.Update(ctx, alert); err != nil {
		return nil, orNotFound(err, domain.ErrAlertNotFound)
	}
	return alert, nil
}

// Delete soft-deletes an alert
func (s *AlertService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	alert, zone, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := policy.CanWriteAlert(actor, alert, zone).Err(domain.ErrAlertNotFound); err != nil {
		return err
	}
	if alert.Status == domain.AlertStatusDeleted {
		return domain.ErrAlertNotFound
	}

	alert.Status = domain.AlertStatusDeleted
	if err := s.alerts.Update(ctx, alert); err != nil {
		return orNotFound(err, domain.ErrAlertNotFound)
	}
	s.log.Info("alert deleted", zap.String("alert_id", alert.ID), zap.String("by", actor.ID))
	return nil
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		if !set[v] {
			return false
		}
	}
	return true
}

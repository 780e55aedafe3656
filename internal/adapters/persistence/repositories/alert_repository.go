package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nyumbakumi/internal/adapters/persistence/models"
)

// alertRepository implements AlertRepository interface
type alertRepository struct {
	base
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *gorm.DB, timeout time.Duration) AlertRepository {
	return &alertRepository{base: newBase(db, timeout)}
}

// Create inserts the alert together with its targets
func (r *alertRepository) Create(ctx context.Context, alert *models.Alert) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return translate(db.Create(alert).Error)
}

func (r *alertRepository) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var alert models.Alert
	if err := db.Preload("Targets").Where("id = ?", id).First(&alert).Error; err != nil {
		return nil, translate(err)
	}
	return &alert, nil
}

func (r *alertRepository) Update(ctx context.Context, alert *models.Alert) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(alert).Error; err != nil {
			return err
		}
		if err := tx.Where("alert_id = ?", alert.ID).Delete(&models.AlertTarget{}).Error; err != nil {
			return err
		}
		if len(alert.Targets) == 0 {
			return nil
		}
		for i := range alert.Targets {
			alert.Targets[i].AlertID = alert.ID
		}
		return tx.Create(&alert.Targets).Error
	})
	return translate(err)
}

func (r *alertRepository) List(ctx context.Context, filter AlertFilter, opts ListOptions) ([]*models.Alert, int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	query := func() *gorm.DB {
		q := applyScope(db.Model(&models.Alert{}), filter.Scope, scopeColumns{zone: "zone_id", owner: "sender_id"})
		if filter.Priority != "" {
			q = q.Where("priority = ?", filter.Priority)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.ZoneID != "" {
			q = q.Where("zone_id = ?", filter.ZoneID)
		}
		if filter.Audience != nil {
			q = q.Where("(NOT EXISTS (SELECT 1 FROM alert_targets t WHERE t.alert_id = alerts.id)"+
				" OR EXISTS (SELECT 1 FROM alert_targets t WHERE t.alert_id = alerts.id AND t.household_id = ?))",
				*filter.Audience)
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	q, err := page(query(), AlertSortFields, opts)
	if err != nil {
		return nil, 0, err
	}
	var alerts []*models.Alert
	if err := q.Preload("Targets").Find(&alerts).Error; err != nil {
		return nil, 0, translate(err)
	}
	return alerts, total, nil
}

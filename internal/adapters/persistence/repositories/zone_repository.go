package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"nyumbakumi/internal/adapters/persistence/models"
	"nyumbakumi/internal/core/domain"
)

// zoneRepository implements ZoneRepository interface
type zoneRepository struct {
	base
}

// NewZoneRepository creates a new zone repository
func NewZoneRepository(db *gorm.DB, timeout time.Duration) ZoneRepository {
	return &zoneRepository{base: newBase(db, timeout)}
}

func (r *zoneRepository) Create(ctx context.Context, zone *models.Zone) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return translate(db.Create(zone).Error)
}

func (r *zoneRepository) GetByID(ctx context.Context, id string) (*models.Zone, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var zone models.Zone
	if err := db.Where("id = ?", id).First(&zone).Error; err != nil {
		return nil, translate(err)
	}
	return &zone, nil
}

func (r *zoneRepository) Update(ctx context.Context, zone *models.Zone) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return translate(db.Save(zone).Error)
}

func (r *zoneRepository) Delete(ctx context.Context, id string) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Where("id = ?", id).Delete(&models.Zone{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *zoneRepository) List(ctx context.Context, filter ZoneFilter, opts ListOptions) ([]*models.Zone, int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	query := func() *gorm.DB {
		q := applyScope(db.Model(&models.Zone{}), filter.Scope, scopeColumns{zone: "id", owner: "leader_id"})
		if filter.LeaderID != "" {
			q = q.Where("leader_id = ?", filter.LeaderID)
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	q, err := page(query(), ZoneSortFields, opts)
	if err != nil {
		return nil, 0, err
	}
	var zones []*models.Zone
	if err := q.Find(&zones).Error; err != nil {
		return nil, 0, translate(err)
	}
	return zones, total, nil
}

func (r *zoneRepository) IDsByLeader(ctx context.Context, leaderID string) ([]string, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var ids []string
	err := db.Model(&models.Zone{}).Where("leader_id = ?", leaderID).Pluck("id", &ids).Error
	return ids, translate(err)
}

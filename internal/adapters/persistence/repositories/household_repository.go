package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nyumbakumi/internal/adapters/persistence/models"
	"nyumbakumi/internal/core/domain"
)

// householdRepository implements HouseholdRepository interface
type householdRepository struct {
	base
}

// NewHouseholdRepository creates a new household repository
func NewHouseholdRepository(db *gorm.DB, timeout time.Duration) HouseholdRepository {
	return &householdRepository{base: newBase(db, timeout)}
}

func (r *householdRepository) Create(ctx context.Context, household *models.Household) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return translate(db.Create(household).Error)
}

func (r *householdRepository) GetByID(ctx context.Context, id string) (*models.Household, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var household models.Household
	if err := db.Preload("Members").Where("id = ?", id).First(&household).Error; err != nil {
		return nil, translate(err)
	}
	return &household, nil
}

// GetByMember finds the household a user owns or is a member of
func (r *householdRepository) GetByMember(ctx context.Context, userID string) (*models.Household, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var household models.Household
	err := db.Preload("Members").
		Where("user_id = ? OR id IN (SELECT household_id FROM household_members WHERE user_id = ?)", userID, userID).
		First(&household).Error
	if err != nil {
		return nil, translate(err)
	}
	return &household, nil
}

// Update saves household fields; members are managed through AddMember/RemoveMember
func (r *householdRepository) Update(ctx context.Context, household *models.Household) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return translate(db.Omit(clause.Associations).Save(household).Error)
}

func (r *householdRepository) Delete(ctx context.Context, id string) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("household_id = ?", id).Delete(&models.HouseholdMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("household_id = ?", id).Delete(&models.AlertTarget{}).Error; err != nil {
			return err
		}
		if err := tx.Where("household_id = ?", id).Delete(&models.Rating{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Household{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translate(err)
}

func (r *householdRepository) List(ctx context.Context, filter HouseholdFilter, opts ListOptions) ([]*models.Household, int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	query := func() *gorm.DB {
		q := applyScope(db.Model(&models.Household{}), filter.Scope,
			scopeColumns{zone: "zone_id", household: "id", owner: "user_id"})
		if filter.ZoneID != "" {
			q = q.Where("zone_id = ?", filter.ZoneID)
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	q, err := page(query(), HouseholdSortFields, opts)
	if err != nil {
		return nil, 0, err
	}
	var households []*models.Household
	if err := q.Preload("Members").Find(&households).Error; err != nil {
		return nil, 0, translate(err)
	}
	return households, total, nil
}

func (r *householdRepository) IDsByZone(ctx context.Context, zoneID string) ([]string, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var ids []string
	err := db.Model(&models.Household{}).Where("zone_id = ?", zoneID).Order("created_at").Pluck("id", &ids).Error
	return ids, translate(err)
}

func (r *householdRepository) CountByZone(ctx context.Context, zoneID string) (int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var count int64
	err := db.Model(&models.Household{}).Where("zone_id = ?", zoneID).Count(&count).Error
	return count, translate(err)
}

func (r *householdRepository) AddMember(ctx context.Context, householdID, userID string) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return translate(db.Create(&models.HouseholdMember{HouseholdID: householdID, UserID: userID}).Error)
}

func (r *householdRepository) RemoveMember(ctx context.Context, householdID, userID string) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Where("household_id = ? AND user_id = ?", householdID, userID).Delete(&models.HouseholdMember{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *householdRepository) SetAverageRating(ctx context.Context, householdID string, average float64) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	err := db.Model(&models.Household{}).Where("id = ?", householdID).Update("average_rating", average).Error
	return translate(err)
}

package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"nyumbakumi/internal/adapters/persistence/models"
	"nyumbakumi/internal/core/domain"
)

// ratingRepository implements RatingRepository interface
type ratingRepository struct {
	base
}

// NewRatingRepository creates a new rating repository
func NewRatingRepository(db *gorm.DB, timeout time.Duration) RatingRepository {
	return &ratingRepository{base: newBase(db, timeout)}
}

func (r *ratingRepository) Create(ctx context.Context, rating *models.Rating) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return translate(db.Create(rating).Error)
}

func (r *ratingRepository) GetByID(ctx context.Context, id string) (*models.Rating, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var rating models.Rating
	if err := db.Where("id = ?", id).First(&rating).Error; err != nil {
		return nil, translate(err)
	}
	return &rating, nil
}

func (r *ratingRepository) Update(ctx context.Context, rating *models.Rating) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return translate(db.Save(rating).Error)
}

func (r *ratingRepository) Delete(ctx context.Context, id string) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Where("id = ?", id).Delete(&models.Rating{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ratingRepository) List(ctx context.Context, filter RatingFilter, opts ListOptions) ([]*models.Rating, int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	query := func() *gorm.DB {
		q := applyScope(db.Model(&models.Rating{}), filter.Scope,
			scopeColumns{household: "household_id", owner: "rater_id", zoneOfHousehold: true})
		if filter.HouseholdID != "" {
			q = q.Where("household_id = ?", filter.HouseholdID)
		}
		if filter.Category != "" {
			q = q.Where("category = ?", filter.Category)
		}
		if filter.Rating > 0 {
			q = q.Where("rating = ?", filter.Rating)
		}
		if filter.RaterID != "" {
			q = q.Where("rater_id = ?", filter.RaterID)
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	q, err := page(query(), RatingSortFields, opts)
	if err != nil {
		return nil, 0, err
	}
	var ratings []*models.Rating
	if err := q.Find(&ratings).Error; err != nil {
		return nil, 0, translate(err)
	}
	return ratings, total, nil
}

type ratingTotals struct {
	Total int64
	N     int64
}

func (r *ratingRepository) Aggregate(ctx context.Context, householdID string) (int64, int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var row ratingTotals
	err := db.Model(&models.Rating{}).
		Select("COALESCE(SUM(rating), 0) AS total, COUNT(*) AS n").
		Where("household_id = ?", householdID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, translate(err)
	}
	return row.Total, row.N, nil
}

type householdCount struct {
	HouseholdID string
	N           int64
}

func (r *ratingRepository) CountByHousehold(ctx context.Context, householdIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(householdIDs))
	if len(householdIDs) == 0 {
		return counts, nil
	}

	db, cancel := r.conn(ctx)
	defer cancel()

	var rows []householdCount
	err := db.Model(&models.Rating{}).
		Select("household_id, COUNT(*) AS n").
		Where("household_id IN ?", householdIDs).
		Group("household_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	for _, row := range rows {
		counts[row.HouseholdID] = row.N
	}
	return counts, nil
}

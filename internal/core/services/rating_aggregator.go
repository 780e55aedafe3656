package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"nyumbakumi/internal/adapters/persistence/repositories"
	"nyumbakumi/internal/core/domain"
)

// RatingAggregator keeps Household.averageRating equal to the mean of the
// household's ratings, or 0 when it has none. Every call recomputes from
// scratch while holding the household's lock.
type RatingAggregator struct {
	households repositories.HouseholdRepository
	ratings    repositories.RatingRepository
	locker     KeyedLocker
	log        *zap.Logger
}

// NewRatingAggregator creates a new rating aggregator
func NewRatingAggregator(
	households repositories.HouseholdRepository,
	ratings repositories.RatingRepository,
	locker KeyedLocker,
	log *zap.Logger,
) *RatingAggregator {
	return &RatingAggregator{
		households: households,
		ratings:    ratings,
		locker:     locker,
		log:        log,
	}
}

// OnRatingWritten runs after a rating is created or updated
func (a *RatingAggregator) OnRatingWritten(ctx context.Context, householdID string) error {
	return a.recompute(ctx, householdID)
}

// OnRatingDeleted runs after a rating is deleted
func (a *RatingAggregator) OnRatingDeleted(ctx context.Context, householdID string) error {
	return a.recompute(ctx, householdID)
}

func (a *RatingAggregator) recompute(ctx context.Context, householdID string) error {
	unlock, err := a.locker.Lock(ctx, "household-rating:"+householdID)
	if err != nil {
		return fmt.Errorf("%w: rating lock: %v", domain.ErrTransientStore, err)
	}
	defer unlock()

	sum, count, err := a.ratings.Aggregate(ctx, householdID)
	if err != nil {
		return err
	}

	average := 0.0
	if count > 0 {
		average = float64(sum) / float64(count)
	}

	if err := a.households.SetAverageRating(ctx, householdID, average); err != nil {
		return err
	}

	a.log.Debug("household average recomputed",
		zap.String("household_id", householdID),
		zap.Int64("ratings", count),
		zap.Float64("average", average),
	)
	return nil
}

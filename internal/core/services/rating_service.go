package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"nyumbakumi/internal/adapters/persistence/models"
	"nyumbakumi/internal/adapters/persistence/repositories"
	"nyumbakumi/internal/core/domain"
	"nyumbakumi/internal/core/policy"
)

var ratingCategories = []string{
	domain.RatingCategoryCleanliness,
	domain.RatingCategorySecurity,
	domain.RatingCategoryCommunityParticipation,
	domain.RatingCategoryNoiseLevel,
	domain.RatingCategoryGeneral,
}

// RatingService handles household ratings
type RatingService struct {
	ratings    repositories.RatingRepository
	households repositories.HouseholdRepository
	scoper
	aggregator *RatingAggregator
	log        *zap.Logger
}

// NewRatingService creates a new rating service
func NewRatingService(store *repositories.Store, aggregator *RatingAggregator, log *zap.Logger) *RatingService {
	return &RatingService{
		ratings:    store.Ratings,
		households: store.Households,
		scoper:     scoper{zones: store.Zones},
		aggregator: aggregator,
		log:        log,
	}
}

// CreateRatingInput represents rating creation input
type CreateRatingInput struct {
	HouseholdID string `json:"household" validate:"required"`
	Rating      int    `json:"rating" validate:"required,min=1,max=5"`
	Comment     string `json:"comment" validate:"max=500"`
	Category    string `json:"category" validate:"omitempty,oneof=cleanliness security community_participation noise_level general"`
}

// UpdateRatingInput represents rating update input; nil fields are left alone
type UpdateRatingInput struct {
	Rating   *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment  *string `json:"comment" validate:"omitempty,max=500"`
	Category *string `json:"category" validate:"omitempty,oneof=cleanliness security community_participation noise_level general"`
}

// RatingQuery filters rating listings
type RatingQuery struct {
	HouseholdID string
	Category    string
	Rating      int
}

func checkRating(v int) error {
	if v < domain.MinRating || v > domain.MaxRating {
		return domain.Validationf("rating must be between %d and %d", domain.MinRating, domain.MaxRating)
	}
	return nil
}

// loadHousehold fetches a household with its zone
func (s *RatingService) loadHousehold(ctx context.Context, id string) (*models.Household, *models.Zone, error) {
	h, err := s.households.GetByID(ctx, id)
	if err != nil {
		return nil, nil, orNotFound(err, domain.ErrHouseholdNotFound)
	}
	zone, err := s.zoneOf(ctx, h.ZoneID)
	if err != nil {
		return nil, nil, err
	}
	return h, zone, nil
}

// Create creates a rating and recomputes the household average
func (s *RatingService) Create(ctx context.Context, actor domain.Actor, input *CreateRatingInput) (*models.Rating, error) {
	if err := checkRating(input.Rating); err != nil {
		return nil, err
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = domain.RatingCategoryGeneral
	}
	if !oneOf(category, ratingCategories...) {
		return nil, domain.Validationf("invalid rating category %q", category)
	}

	h, zone, err := s.loadHousehold(ctx, input.HouseholdID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanCreateRating(actor, h, zone).Err(domain.ErrHouseholdNotFound); err != nil {
		return nil, err
	}

	rating := &models.Rating{
		HouseholdID: h.ID,
		RaterID:     actor.ID,
		Rating:      input.Rating,
		Comment:     strings.TrimSpace(input.Comment),
		Category:    category,
	}
	if err := s.ratings.Create(ctx, rating); err != nil {
		return nil, orConflict(err, domain.ErrRatingExists)
	}

	err = s.aggregate(ctx, s.aggregator.OnRatingWritten, h.ID, func() error {
		return s.ratings.Delete(ctx, rating.ID)
	})
	if err != nil {
		return nil, err
	}
	return rating, nil
}

// Get returns a rating visible to actor
func (s *RatingService) Get(ctx context.Context, actor domain.Actor, id string) (*models.Rating, error) {
	rating, err := s.ratings.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, domain.ErrRatingNotFound)
	}
	h, zone, err := s.loadHousehold(ctx, rating.HouseholdID)
	if err != nil {
		return nil, orNotFound(err, domain.ErrRatingNotFound)
	}
	if err := policy.CanReadRating(actor, rating, h, zone).Err(domain.ErrRatingNotFound); err != nil {
		return nil, err
	}
	return rating, nil
}

// List lists ratings visible to actor
func (s *RatingService) List(ctx context.Context, actor domain.Actor, q RatingQuery, opts repositories.ListOptions) ([]*models.Rating, int64, error) {
	if q.Category != "" && !oneOf(q.Category, ratingCategories...) {
		return nil, 0, domain.Validationf("invalid rating category %q", q.Category)
	}
	if q.Rating != 0 {
		if err := checkRating(q.Rating); err != nil {
			return nil, 0, err
		}
	}

	scope, err := s.scopeFor(ctx, actor)
	if err != nil {
		return nil, 0, err
	}
	return s.ratings.List(ctx, repositories.RatingFilter{
		Scope:       scope,
		HouseholdID: q.HouseholdID,
		Category:    q.Category,
		Rating:      q.Rating,
	}, opts)
}

// Update updates a rating and recomputes the household average
func (s *RatingService) Update(ctx context.Context, actor domain.Actor, id string, input *UpdateRatingInput) (*models.Rating, error) {
	rating, err := s.ratings.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, domain.ErrRatingNotFound)
	}
	h, zone, err := s.loadHousehold(ctx, rating.HouseholdID)
	if err != nil {
		return nil, orNotFound(err, domain.ErrRatingNotFound)
	}
	if err := policy.CanWriteRating(actor, rating, h, zone).Err(domain.ErrRatingNotFound); err != nil {
		return nil, err
	}
	previous := *rating

	changed := false
	if input.Rating != nil {
		if err := checkRating(*input.Rating); err != nil {
			return nil, err
		}
		changed = changed || rating.Rating != *input.Rating
		rating.Rating = *input.Rating
	}
	if input.Comment != nil {
		comment := strings.TrimSpace(*input.Comment)
		changed = changed || rating.Comment != comment
		rating.Comment = comment
	}
	if input.Category != nil {
		if !oneOf(*input.Category, ratingCategories...) {
			return nil, domain.Validationf("invalid rating category %q", *input.Category)
		}
		changed = changed || rating.Category != *input.Category
		rating.Category = *input.Category
	}
	if !changed {
		return nil, domain.ErrNothingToUpdate
	}

	if err := s.ratings.Update(ctx, rating); err != nil {
		return nil, orConflict(err, domain.ErrRatingExists)
	}
	err = s.aggregate(ctx, s.aggregator.OnRatingWritten, rating.HouseholdID, func() error {
		return s.ratings.Update(ctx, &previous)
	})
	if err != nil {
		return nil, err
	}
	return rating, nil
}

// Delete deletes a rating and recomputes the household average
func (s *RatingService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	rating, err := s.ratings.GetByID(ctx, id)
	if err != nil {
		return orNotFound(err, domain.ErrRatingNotFound)
	}
	h, zone, err := s.loadHousehold(ctx, rating.HouseholdID)
	if err != nil {
		return orNotFound(err, domain.ErrRatingNotFound)
	}
	if err := policy.CanWriteRating(actor, rating, h, zone).Err(domain.ErrRatingNotFound); err != nil {
		return err
	}

	return s.remove(ctx, rating)
}

// remove deletes without an access check; callers have authorized already
func (s *RatingService) remove(ctx context.Context, rating *models.Rating) error {
	if err := s.ratings.Delete(ctx, rating.ID); err != nil {
		return orNotFound(err, domain.ErrRatingNotFound)
	}
	return s.aggregate(ctx, s.aggregator.OnRatingDeleted, rating.HouseholdID, func() error {
		restored := *rating
		return s.ratings.Create(ctx, &restored)
	})
}

// restore writes back an earlier version of a rating
func (s *RatingService) restore(ctx context.Context, previous, current *models.Rating) error {
	if err := s.ratings.Update(ctx, previous); err != nil {
		return orNotFound(err, domain.ErrRatingNotFound)
	}
	return s.aggregate(ctx, s.aggregator.OnRatingWritten, previous.HouseholdID, func() error {
		return s.ratings.Update(ctx, current)
	})
}

// aggregate runs the aggregation hook after a rating write. When that fails
// the write is reverted with undo, so the stored ratings and the average
// never disagree.
func (s *RatingService) aggregate(ctx context.Context, hook func(context.Context, string) error, householdID string, undo func() error) error {
	err := hook(ctx, householdID)
	if err == nil {
		return nil
	}
	s.log.Error("rating aggregation failed", zap.String("household_id", householdID), zap.Error(err))
	if uerr := undo(); uerr != nil {
		s.log.Error("failed to revert rating write",
			zap.String("household_id", householdID),
			zap.Error(uerr),
		)
	}
	return err
}

// record stores actor's rating of a household in a category. An existing
// rating with the same household, rater and category is corrected instead.
// The returned undo reverses whichever write happened.
func (s *RatingService) record(ctx context.Context, actor domain.Actor, input *CreateRatingInput) (*models.Rating, func() error, error) {
	existing, _, err := s.ratings.List(ctx, repositories.RatingFilter{
		HouseholdID: input.HouseholdID,
		RaterID:     actor.ID,
		Category:    input.Category,
	}, repositories.ListOptions{Limit: 1})
	if err != nil {
		return nil, nil, err
	}

	if len(existing) == 0 {
		created, err := s.Create(ctx, actor, input)
		if err != nil {
			return nil, nil, err
		}
		return created, func() error { return s.remove(ctx, created) }, nil
	}

	previous := existing[0]
	rating, comment := input.Rating, input.Comment
	updated, err := s.Update(ctx, actor, previous.ID, &UpdateRatingInput{Rating: &rating, Comment: &comment})
	if errors.Is(err, domain.ErrNoOp) {
		return previous, func() error { return nil }, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return updated, func() error { return s.restore(ctx, previous, updated) }, nil
}

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nyumbakumi/internal/adapters/persistence/repositories"
	"nyumbakumi/internal/core/domain"
)

func TestRatingService_AverageFollowsWrites(t *testing.T) {
	f := newFixture(t)
	leader := f.user(domain.RoleLeader, "leader")
	zone := f.zone("Kilimani", leader)
	h := f.household(zone, "A1")
	assert.Zero(t, f.average(h.ID))

	first, err := f.ratings.Create(f.ctx, leader, &CreateRatingInput{HouseholdID: h.ID, Rating: 4, Category: "security"})
	require.NoError(t, err)
	assert.Equal(t, 4.0, f.average(h.ID))

	_, err = f.ratings.Create(f.ctx, leader, &CreateRatingInput{HouseholdID: h.ID, Rating: 2, Category: "cleanliness"})
	require.NoError(t, err)
	assert.Equal(t, 3.0, f.average(h.ID))

	require.NoError(t, f.ratings.Delete(f.ctx, leader, first.ID))
	assert.Equal(t, 2.0, f.average(h.ID))
}

func TestRatingService_UpdateRecomputes(t *testing.T) {
	f := newFixture(t)
	leader := f.user(domain.RoleLeader, "leader")
	zone := f.zone("Kilimani", leader)
	h := f.household(zone, "A1")

	r, err := f.ratings.Create(f.ctx, leader, &CreateRatingInput{HouseholdID: h.ID, Rating: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.RatingCategoryGeneral, r.Category)

	five := 5
	_, err = f.ratings.Update(f.ctx, leader, r.ID, &UpdateRatingInput{Rating: &five})
	require.NoError(t, err)
	assert.Equal(t, 5.0, f.average(h.ID))

	_, err = f.ratings.Update(f.ctx, leader, r.ID, &UpdateRatingInput{Rating: &five})
	assert.ErrorIs(t, err, domain.ErrNoOp)
}

func TestRatingService_DeleteLastRatingResetsAverage(t *testing.T) {
	f := newFixture(t)
	admin := f.user(domain.RoleAdmin, "admin")
	leader := f.user(domain.RoleLeader, "leader")
	h := f.household(f.zone("Kilimani", leader), "A1")

	r, err := f.ratings.Create(f.ctx, admin, &CreateRatingInput{HouseholdID: h.ID, Rating: 3})
	require.NoError(t, err)
	require.NoError(t, f.ratings.Delete(f.ctx, admin, r.ID))
	assert.Zero(t, f.average(h.ID))
}

func TestRatingService_DuplicateIsUniqueViolation(t *testing.T) {
	f := newFixture(t)
	leader := f.user(domain.RoleLeader, "leader")
	h := f.household(f.zone("Kilimani", leader), "A1")

	input := &CreateRatingInput{HouseholdID: h.ID, Rating: 4, Category: "security"}
	_, err := f.ratings.Create(f.ctx, leader, input)
	require.NoError(t, err)

	_, err = f.ratings.Create(f.ctx, leader, input)
	assert.ErrorIs(t, err, domain.ErrUniqueViolation)
	assert.Equal(t, domain.ErrRatingExists, err)
	assert.Equal(t, 4.0, f.average(h.ID))
}

func TestRatingService_Access(t *testing.T) {
	f := newFixture(t)
	leader := f.user(domain.RoleLeader, "leader")
	other := f.user(domain.RoleLeader, "other")
	h := f.household(f.zone("Kilimani", leader), "A1")
	f.zone("Lavington", other)
	resident := f.resident(h, "resident")

	_, err := f.ratings.Create(f.ctx, other, &CreateRatingInput{HouseholdID: h.ID, Rating: 3})
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	_, err = f.ratings.Create(f.ctx, resident, &CreateRatingInput{HouseholdID: h.ID, Rating: 3})
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	r, err := f.ratings.Create(f.ctx, leader, &CreateRatingInput{HouseholdID: h.ID, Rating: 3})
	require.NoError(t, err)

	// residents read ratings of their own household only
	got, err := f.ratings.Get(f.ctx, resident, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)

	outsider := f.resident(f.household(f.zone("Parklands", other), "B1"), "outsider")
	_, err = f.ratings.Get(f.ctx, outsider, r.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, total, err := f.ratings.List(f.ctx, outsider, RatingQuery{}, repositories.ListOptions{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)

	err = f.ratings.Delete(f.ctx, other, r.ID)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestRatingService_Validation(t *testing.T) {
	f := newFixture(t)
	leader := f.user(domain.RoleLeader, "leader")
	h := f.household(f.zone("Kilimani", leader), "A1")

	_, err := f.ratings.Create(f.ctx, leader, &CreateRatingInput{HouseholdID: h.ID, Rating: 6})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.ratings.Create(f.ctx, leader, &CreateRatingInput{HouseholdID: h.ID, Rating: 3, Category: "parking"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.ratings.Create(f.ctx, leader, &CreateRatingInput{HouseholdID: "missing", Rating: 3})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRatingService_ConcurrentWritesConverge(t *testing.T) {
	f := newFixture(t)
	admin := f.user(domain.RoleAdmin, "admin")
	leader := f.user(domain.RoleLeader, "leader")
	h := f.household(f.zone("Kilimani", leader), "A1")

	categories := []string{"cleanliness", "security", "community_participation", "noise_level", "general"}
	var wg sync.WaitGroup
	for i, c := range categories {
		wg.Add(1)
		go func(rating int, category string) {
			defer wg.Done()
			_, err := f.ratings.Create(f.ctx, admin, &CreateRatingInput{HouseholdID: h.ID, Rating: rating, Category: category})
			assert.NoError(t, err)
		}(i+1, c)
	}
	wg.Wait()

	assert.Equal(t, 3.0, f.average(h.ID))
	assert.Zero(t, f.locker.Len())
}

type failingLocker struct{}

func (failingLocker) Lock(context.Context, string) (func(), error) {
	return nil, errors.New("redis down")
}

func TestRatingAggregator_LockFailureIsTransient(t *testing.T) {
	f := newFixture(t)
	leader := f.user(domain.RoleLeader, "leader")
	h := f.household(f.zone("Kilimani", leader), "A1")

	agg := NewRatingAggregator(f.store.Households, f.store.Ratings, failingLocker{}, zap.NewNop())
	err := agg.OnRatingWritten(f.ctx, h.ID)
	assert.ErrorIs(t, err, domain.ErrTransientStore)
}

func TestRatingService_AggregationFailureRevertsWrite(t *testing.T) {
	f := newFixture(t)
	leader := f.user(domain.RoleLeader, "leader")
	h := f.household(f.zone("Kilimani", leader), "A1")
	unlocked := NewRatingService(f.store, NewRatingAggregator(f.store.Households, f.store.Ratings, failingLocker{}, zap.NewNop()), zap.NewNop())

	input := &CreateRatingInput{HouseholdID: h.ID, Rating: 4, Category: "security"}
	_, err := unlocked.Create(f.ctx, leader, input)
	assert.ErrorIs(t, err, domain.ErrTransientStore)

	_, total, err := f.store.Ratings.List(f.ctx, repositories.RatingFilter{HouseholdID: h.ID}, repositories.ListOptions{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Zero(t, f.average(h.ID))

	// retrying once the lock is reachable again succeeds
	r, err := f.ratings.Create(f.ctx, leader, input)
	require.NoError(t, err)
	assert.Equal(t, 4.0, f.average(h.ID))

	five := 5
	_, err = unlocked.Update(f.ctx, leader, r.ID, &UpdateRatingInput{Rating: &five})
	assert.ErrorIs(t, err, domain.ErrTransientStore)
	stored, err := f.store.Ratings.GetByID(f.ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Rating)

	err = unlocked.Delete(f.ctx, leader, r.ID)
	assert.ErrorIs(t, err, domain.ErrTransientStore)
	stored, err = f.store.Ratings.GetByID(f.ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Rating)
	assert.Equal(t, 4.0, f.average(h.ID))
}

func TestKeyedMutex(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

	unlock, err := m.Lock(ctx, "a")
	require.NoError(t, err)

	// other keys are independent
	unlockB, err := m.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	_, err = m.Lock(waitCtx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()
	assert.Zero(t, m.Len())

	unlock, err = m.Lock(ctx, "a")
	require.NoError(t, err)
	unlock()
}

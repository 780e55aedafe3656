package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nyumbakumi/internal/adapters/persistence/models"
	"nyumbakumi/internal/core/domain"
)

func setupMockDB(t *testing.T) (*Store, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewStore(db, time.Second), mock
}

func TestUserRepository_CreateAssignsID(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectExec("INSERT INTO `users`").WillReturnResult(sqlmock.NewResult(0, 1))

	user := &models.User{Name: "Amina", Email: "amina@example.com", Role: string(domain.RoleLeader)}
	require.NoError(t, store.Users.Create(context.Background(), user))
	assert.NotEmpty(t, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT \\* FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := store.Users.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_CreateDuplicate(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectExec("INSERT INTO `ratings`").
		WillReturnError(&mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := store.Ratings.Create(context.Background(), &models.Rating{HouseholdID: "hh-1", RaterID: "leader-1", Rating: 4})
	assert.ErrorIs(t, err, domain.ErrUniqueViolation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_Aggregate(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(rating\\), 0\\) AS total, COUNT\\(\\*\\) AS n FROM `ratings`").
		WithArgs("hh-1").
		WillReturnRows(sqlmock.NewRows([]string{"total", "n"}).AddRow(6, 2))

	sum, count, err := store.Ratings.Aggregate(context.Background(), "hh-1")
	require.NoError(t, err)
	assert.Equal(t, int64(6), sum)
	assert.Equal(t, int64(2), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_Timeout(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectQuery("FROM `ratings`").WillReturnError(context.DeadlineExceeded)

	_, _, err := store.Ratings.Aggregate(context.Background(), "hh-1")
	assert.ErrorIs(t, err, domain.ErrTransientStore)
}

func TestHouseholdRepository_SetAverageRating(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectExec("UPDATE `households` SET `average_rating`=\\?").
		WithArgs(3.5, "hh-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Households.SetAverageRating(context.Background(), "hh-1", 3.5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_MarkOverdue(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectExec("UPDATE `tasks` SET `status`=\\?").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.Tasks.MarkOverdue(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestZoneRepository_List_EmptyScopeMatchesNothing(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `zones` WHERE 1 = 0").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT \\* FROM `zones` WHERE 1 = 0 ORDER BY created_at DESC").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	zones, total, err := store.Zones.List(context.Background(),
		ZoneFilter{Scope: Scope{Restricted: true}}, ListOptions{Limit: 20})
	require.NoError(t, err)
	assert.Empty(t, zones)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_List_UnknownSort(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `tasks`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, _, err := store.Tasks.List(context.Background(), TaskFilter{}, ListOptions{SortBy: "password"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestCheckSort(t *testing.T) {
	assert.NoError(t, CheckSort(AlertSortFields, ""))
	assert.NoError(t, CheckSort(AlertSortFields, "priority"))
	assert.ErrorIs(t, CheckSort(AlertSortFields, "sender_id"), domain.ErrValidation)
}

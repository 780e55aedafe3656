package services

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"nyumbakumi/internal/core/domain"
)

func TestReportService_HouseholdRatings(t *testing.T) {
	f := newFixture(t)
	admin := f.user(domain.RoleAdmin, "admin")
	leader := f.user(domain.RoleLeader, "leader")
	other := f.user(domain.RoleLeader, "other")
	zone := f.zone("Kilimani", leader)
	a1 := f.household(zone, "A1")
	f.household(zone, "A2")
	f.household(f.zone("Lavington", other), "B1")

	_, err := f.ratings.Create(f.ctx, leader, &CreateRatingInput{HouseholdID: a1.ID, Rating: 4, Category: "security"})
	require.NoError(t, err)
	_, err = f.ratings.Create(f.ctx, leader, &CreateRatingInput{HouseholdID: a1.ID, Rating: 3, Category: "cleanliness"})
	require.NoError(t, err)

	rows, err := f.reports.HouseholdRatingRows(f.ctx, leader)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Kilimani", rows[0].Zone)
	assert.Equal(t, "A1", rows[0].HouseNumber)
	assert.Equal(t, 3.5, rows[0].AverageRating)
	assert.Equal(t, int64(2), rows[0].RatingCount)
	assert.Zero(t, rows[1].RatingCount)

	data, err := f.reports.HouseholdRatings(f.ctx, admin)
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	sheet, err := book.GetRows(householdReportSheet)
	require.NoError(t, err)
	require.Len(t, sheet, 4)
	assert.Equal(t, householdReportHeaders, sheet[0])
	assert.Equal(t, "Kilimani", sheet[1][0])
	assert.Equal(t, "Lavington", sheet[3][0])

	resident := f.resident(a1, "resident")
	_, err = f.reports.HouseholdRatings(f.ctx, resident)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

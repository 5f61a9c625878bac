package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aulora-api/internal/models"
)

func TestEnrollmentCreateIfAbsent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	insert := regexp.QuoteMeta("ON CONFLICT (user_id, course_id) DO NOTHING RETURNING id")
	mock.ExpectQuery(insert).
		WithArgs(sqlmock.AnyArg(), "u-1", "c-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("enr-1"))
	mock.ExpectQuery(insert).
		WithArgs(sqlmock.AnyArg(), "u-1", "c-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	ctx := context.Background()
	created, err := repo.CreateIfAbsent(ctx, &models.Enrollment{UserID: "u-1", CourseID: "c-1"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateIfAbsent(ctx, &models.Enrollment{UserID: "u-1", CourseID: "c-1"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentExists(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE user_id = $1 AND course_id = $2")).
		WithArgs("u-1", "c-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), "u-1", "c-1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinItineraryIsIdempotent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	insert := regexp.QuoteMeta("INSERT INTO itinerary_enrollments")
	mock.ExpectQuery(insert).
		WithArgs("it-1", "u-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"itinerary_id"}).AddRow("it-1"))
	mock.ExpectQuery(insert).
		WithArgs("it-1", "u-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"itinerary_id"}))

	ctx := context.Background()
	joined, err := repo.JoinItinerary(ctx, &models.ItineraryEnrollment{ItineraryID: "it-1", UserID: "u-1"})
	require.NoError(t, err)
	assert.True(t, joined)

	joined, err = repo.JoinItinerary(ctx, &models.ItineraryEnrollment{ItineraryID: "it-1", UserID: "u-1"})
	require.NoError(t, err)
	assert.False(t, joined)
	assert.NoError(t, mock.ExpectationsWereMet())
}

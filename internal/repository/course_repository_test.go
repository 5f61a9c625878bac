package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aulora-api/internal/models"
)

var courseRowColumns = []string{"id", "title", "description", "category_id", "price", "created_by", "created_at", "category_name", "module_count"}

func TestCourseListAppliesPolicyFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(cat.name) = LOWER($1) ORDER BY c.price DESC, c.id LIMIT 20 OFFSET 0")).
		WithArgs("Math").
		WillReturnRows(sqlmock.NewRows(courseRowColumns).
			AddRow("c-1", "Algebra", "Basics", "cat-1", 30, nil, now, "Math", 4))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses c JOIN categories cat ON cat.id = c.category_id WHERE LOWER(cat.name) = LOWER($1)")).
		WithArgs("Math").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	courses, total, err := repo.List(context.Background(), models.CourseFilter{CategoryNameEquals: "Math", Ordering: models.OrderPriceDesc})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Math", courses[0].CategoryName)
	assert.Equal(t, 4, courses[0].ModuleCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseListExcludesEnrolled(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	pattern := regexp.QuoteMeta("WHERE (LOWER(c.title) LIKE $1 OR LOWER(c.description) LIKE $1) AND NOT EXISTS (SELECT 1 FROM enrollments e WHERE e.course_id = c.id AND e.user_id = $2)")
	mock.ExpectQuery(pattern + ".*LIMIT 10 OFFSET 10").
		WithArgs("%go%", "u-1").
		WillReturnRows(sqlmock.NewRows(courseRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("%go%", "u-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	courses, total, err := repo.List(context.Background(), models.CourseFilter{Search: "Go", ExcludeEnrolledBy: "u-1", Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, courses)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCoursePrice(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT price FROM courses WHERE id = $1")).
		WithArgs("c-1").
		WillReturnRows(sqlmock.NewRows([]string{"price"}).AddRow(45))

	price, err := repo.Price(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, 45, price)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModuleCreateAppendsPosition(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewModuleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("(SELECT COALESCE(MAX(position), 0) + 1 FROM modules WHERE course_id = $2)")).
		WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(3))

	module := &models.Module{CourseID: "c-1", Title: "Intro", Content: "Welcome"}
	require.NoError(t, repo.Create(context.Background(), module))
	assert.Equal(t, 3, module.Position)
	assert.NotEmpty(t, module.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItineraryCreateAttachesCoursesInOrder(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewItineraryRepository(db)

	mock.ExpectExec("INSERT INTO itineraries").WillReturnResult(sqlmock.NewResult(1, 1))
	attach := regexp.QuoteMeta("INSERT INTO itinerary_courses")
	mock.ExpectExec(attach).WithArgs(sqlmock.AnyArg(), "c-2", 1, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(attach).WithArgs(sqlmock.AnyArg(), "c-1", 2, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 1))

	itinerary := &models.Itinerary{Title: "Backend", Description: "Path", Price: 90}
	require.NoError(t, repo.Create(context.Background(), itinerary, []string{"c-2", "c-1"}))
	assert.NotEmpty(t, itinerary.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryFindByNameIgnoresCase(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCategoryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(name) = LOWER($1)")).
		WithArgs("math").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("cat-1", "Math"))

	category, err := repo.FindByName(context.Background(), "math")
	require.NoError(t, err)
	assert.Equal(t, "cat-1", category.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupsTreatMalformedIDAsMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	malformed := &pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT price FROM courses WHERE id = $1")).WithArgs("abc").WillReturnError(malformed)
	mock.ExpectQuery(regexp.QuoteMeta("FROM courses c JOIN categories cat ON cat.id = c.category_id WHERE c.id = $1")).WithArgs("abc").WillReturnError(malformed)
	mock.ExpectQuery(regexp.QuoteMeta("FROM modules WHERE id = $1")).WithArgs("abc").WillReturnError(malformed)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT price FROM itineraries WHERE id = $1")).WithArgs("abc").WillReturnError(malformed)
	mock.ExpectQuery(regexp.QuoteMeta("FROM itineraries i WHERE i.id = $1")).WithArgs("abc").WillReturnError(malformed)

	_, err := NewCourseRepository(db).Price(ctx, "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = NewCourseRepository(db).FindByID(ctx, "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = NewModuleRepository(db).FindByID(ctx, "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = NewItineraryRepository(db).Price(ctx, "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = NewItineraryRepository(db).FindByID(ctx, "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseLookupKeepsOtherFailures(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT price FROM courses WHERE id = $1")).
		WithArgs("c-1").
		WillReturnError(&pq.Error{Code: "08006"})

	_, err := NewCourseRepository(db).Price(context.Background(), "c-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, sql.ErrNoRows)
}

func TestCourseListComparesCategoryAsText(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.category_id::text = $1")).
		WithArgs("not-a-uuid").
		WillReturnRows(sqlmock.NewRows(courseRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("not-a-uuid").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	courses, total, err := NewCourseRepository(db).List(context.Background(), models.CourseFilter{CategoryID: "not-a-uuid"})
	require.NoError(t, err)
	assert.Empty(t, courses)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/aulora-api/internal/models"
	"github.com/noah-isme/aulora-api/pkg/database"
)

const courseDetailColumns = `c.id, c.title, c.description, c.category_id, c.price, c.created_by, c.created_at,
        cat.name AS category_name,
        (SELECT COUNT(*) FROM modules m WHERE m.course_id = c.id) AS module_count`

var courseOrderings = map[models.CourseOrdering]string{
	models.OrderTitleAsc:  "c.title ASC",
	models.OrderTitleDesc: "c.title DESC",
	models.OrderPriceAsc:  "c.price ASC",
	models.OrderPriceDesc: "c.price DESC",
}

// CourseRepository handles persistence of courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses matching the filter with the total count.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	base := `FROM courses c JOIN categories cat ON cat.id = c.category_id`
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(c.title) LIKE $%d OR LOWER(c.description) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.CategoryID != "" {
		conditions = append(conditions, fmt.Sprintf("c.category_id::text = $%d", len(args)+1))
		args = append(args, filter.CategoryID)
	}
	if filter.CategoryNameEquals != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(cat.name) = LOWER($%d)", len(args)+1))
		args = append(args, filter.CategoryNameEquals)
	}
	if filter.ExcludeEnrolledBy != "" {
		conditions = append(conditions, fmt.Sprintf("NOT EXISTS (SELECT 1 FROM enrollments e WHERE e.course_id = c.id AND e.user_id = $%d)", len(args)+1))
		args = append(args, filter.ExcludeEnrolledBy)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	orderBy, ok := courseOrderings[filter.Ordering]
	if !ok {
		orderBy = "c.created_at DESC"
	}
	_, size, offset := normalizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s %s ORDER BY %s, c.id LIMIT %d OFFSET %d`, courseDetailColumns, base+clause, orderBy, size, offset)
	var courses []models.CourseDetail
	if err := conn(ctx, r.db).SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := conn(ctx, r.db).GetContext(ctx, &total, "SELECT COUNT(*) "+base+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID returns a course with its category name and module count.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	query := `SELECT ` + courseDetailColumns + ` FROM courses c JOIN categories cat ON cat.id = c.category_id WHERE c.id = $1`
	var course models.CourseDetail
	if err := conn(ctx, r.db).GetContext(ctx, &course, query, id); err != nil {
		if database.IsNotFound(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// Create persists a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO courses (id, title, description, category_id, price, created_by, created_at)
        VALUES (:id, :title, :description, :category_id, :price, :created_by, :created_at)`
	if _, err := conn(ctx, r.db).NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// ListEnrolledByUser returns the courses the user is enrolled in, most recent first.
func (r *CourseRepository) ListEnrolledByUser(ctx context.Context, userID string) ([]models.CourseDetail, error) {
	query := `SELECT ` + courseDetailColumns + ` FROM courses c
        JOIN categories cat ON cat.id = c.category_id
        JOIN enrollments e ON e.course_id = c.id
        WHERE e.user_id = $1 ORDER BY e.enrolled_at DESC`
	var courses []models.CourseDetail
	if err := conn(ctx, r.db).SelectContext(ctx, &courses, query, userID); err != nil {
		return nil, fmt.Errorf("list enrolled courses: %w", err)
	}
	return courses, nil
}

// Price returns only the course price.
func (r *CourseRepository) Price(ctx context.Context, id string) (int, error) {
	var price int
	if err := conn(ctx, r.db).GetContext(ctx, &price, `SELECT price FROM courses WHERE id = $1`, id); err != nil {
		if database.IsNotFound(err) {
			return 0, sql.ErrNoRows
		}
		return 0, fmt.Errorf("course price: %w", err)
	}
	return price, nil
}

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

const itineraryColumns = `i.id, i.title, i.description, i.price, i.created_at`

var itineraryOrderings = map[models.CourseOrdering]string{
	models.OrderTitleAsc:  "i.title ASC",
	models.OrderTitleDesc: "i.title DESC",
	models.OrderPriceAsc:  "i.price ASC",
	models.OrderPriceDesc: "i.price DESC",
}

// ItineraryRepository handles persistence of itineraries and their course lists.
type ItineraryRepository struct {
	db *sqlx.DB
}

// NewItineraryRepository constructs the repository.
func NewItineraryRepository(db *sqlx.DB) *ItineraryRepository {
	return &ItineraryRepository{db: db}
}

// List returns itineraries matching the filter with the total count.
func (r *ItineraryRepository) List(ctx context.Context, filter models.ItineraryFilter) ([]models.Itinerary, int, error) {
	base := `FROM itineraries i`
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(i.title) LIKE $%d OR LOWER(i.description) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.CourseCategoryNameEquals != "" {
		conditions = append(conditions, fmt.Sprintf(`EXISTS (SELECT 1 FROM itinerary_courses ic
            JOIN courses c ON c.id = ic.course_id
            JOIN categories cat ON cat.id = c.category_id
            WHERE ic.itinerary_id = i.id AND LOWER(cat.name) = LOWER($%d))`, len(args)+1))
		args = append(args, filter.CourseCategoryNameEquals)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}
	orderBy, ok := itineraryOrderings[filter.Ordering]
	if !ok {
		orderBy = "i.created_at DESC"
	}
	_, size, offset := normalizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s %s ORDER BY %s, i.id LIMIT %d OFFSET %d`, itineraryColumns, base+clause, orderBy, size, offset)
	var itineraries []models.Itinerary
	if err := conn(ctx, r.db).SelectContext(ctx, &itineraries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list itineraries: %w", err)
	}

	var total int
	if err := conn(ctx, r.db).GetContext(ctx, &total, "SELECT COUNT(*) "+base+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count itineraries: %w", err)
	}
	return itineraries, total, nil
}

// FindByID returns an itinerary by identifier.
func (r *ItineraryRepository) FindByID(ctx context.Context, id string) (*models.Itinerary, error) {
	query := `SELECT ` + itineraryColumns + ` FROM itineraries i WHERE i.id = $1`
	var itinerary models.Itinerary
	if err := conn(ctx, r.db).GetContext(ctx, &itinerary, query, id); err != nil {
		if database.IsNotFound(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find itinerary: %w", err)
	}
	return &itinerary, nil
}

// ListCourses returns the itinerary courses in itinerary order.
func (r *ItineraryRepository) ListCourses(ctx context.Context, itineraryID string) ([]models.ItineraryCourse, error) {
	query := `SELECT ` + courseDetailColumns + `, ic.position, ic.added_at
        FROM itinerary_courses ic
        JOIN courses c ON c.id = ic.course_id
        JOIN categories cat ON cat.id = c.category_id
        WHERE ic.itinerary_id = $1 ORDER BY ic.position, ic.added_at`
	var courses []models.ItineraryCourse
	if err := conn(ctx, r.db).SelectContext(ctx, &courses, query, itineraryID); err != nil {
		return nil, fmt.Errorf("list itinerary courses: %w", err)
	}
	return courses, nil
}

// ListCourseIDs returns only the identifiers of the itinerary courses.
func (r *ItineraryRepository) ListCourseIDs(ctx context.Context, itineraryID string) ([]string, error) {
	const query = `SELECT course_id FROM itinerary_courses WHERE itinerary_id = $1 ORDER BY position, added_at`
	var ids []string
	if err := conn(ctx, r.db).SelectContext(ctx, &ids, query, itineraryID); err != nil {
		return nil, fmt.Errorf("list itinerary course ids: %w", err)
	}
	return ids, nil
}

// Create persists an itinerary and attaches courses in the given order.
// Callers wanting atomicity run it inside a transaction.
func (r *ItineraryRepository) Create(ctx context.Context, itinerary *models.Itinerary, courseIDs []string) error {
	if itinerary.ID == "" {
		itinerary.ID = uuid.NewString()
	}
	if itinerary.CreatedAt.IsZero() {
		itinerary.CreatedAt = time.Now().UTC()
	}
	db := conn(ctx, r.db)
	const insert = `INSERT INTO itineraries (id, title, description, price, created_at)
        VALUES (:id, :title, :description, :price, :created_at)`
	if _, err := db.NamedExecContext(ctx, insert, itinerary); err != nil {
		return fmt.Errorf("create itinerary: %w", err)
	}
	const attach = `INSERT INTO itinerary_courses (itinerary_id, course_id, position, added_at)
        VALUES ($1, $2, $3, $4) ON CONFLICT (itinerary_id, course_id) DO NOTHING`
	for i, courseID := range courseIDs {
		if _, err := db.ExecContext(ctx, attach, itinerary.ID, courseID, i+1, itinerary.CreatedAt); err != nil {
			return fmt.Errorf("attach course %s: %w", courseID, err)
		}
	}
	return nil
}

// ListEnrolledByUser returns the itineraries the user is a member of with their stored progress.
func (r *ItineraryRepository) ListEnrolledByUser(ctx context.Context, userID string) ([]models.EnrolledItinerary, error) {
	query := `SELECT ` + itineraryColumns + `, COALESCE(ip.percentage, 0) AS progress FROM itineraries i
        JOIN itinerary_enrollments ie ON ie.itinerary_id = i.id
        LEFT JOIN itinerary_progress ip ON ip.itinerary_id = i.id AND ip.user_id = ie.user_id
        WHERE ie.user_id = $1 ORDER BY ie.enrolled_at DESC`
	var itineraries []models.EnrolledItinerary
	if err := conn(ctx, r.db).SelectContext(ctx, &itineraries, query, userID); err != nil {
		return nil, fmt.Errorf("list enrolled itineraries: %w", err)
	}
	return itineraries, nil
}

// Price returns only the itinerary price.
func (r *ItineraryRepository) Price(ctx context.Context, id string) (int, error) {
	var price int
	if err := conn(ctx, r.db).GetContext(ctx, &price, `SELECT price FROM itineraries WHERE id = $1`, id); err != nil {
		if database.IsNotFound(err) {
			return 0, sql.ErrNoRows
		}
		return 0, fmt.Errorf("itinerary price: %w", err)
	}
	return price, nil
}

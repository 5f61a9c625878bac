package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/aulora-api/internal/models"
	"github.com/noah-isme/aulora-api/pkg/database"
)

// EnrollmentRepository is the enrollment ledger: course enrollments and itinerary memberships.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// CreateIfAbsent inserts the enrollment unless (user, course) is already enrolled.
// It reports whether a row was created.
func (r *EnrollmentRepository) CreateIfAbsent(ctx context.Context, enrollment *models.Enrollment) (bool, error) {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrollments (id, user_id, course_id, enrolled_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id, course_id) DO NOTHING RETURNING id`
	var id string
	err := conn(ctx, r.db).QueryRowxContext(ctx, query, enrollment.ID, enrollment.UserID, enrollment.CourseID, enrollment.EnrolledAt).Scan(&id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows), database.IsUniqueViolation(err):
		return false, nil
	default:
		return false, fmt.Errorf("create enrollment: %w", err)
	}
}

// Exists reports whether the user is enrolled in the course.
func (r *EnrollmentRepository) Exists(ctx context.Context, userID, courseID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE user_id = $1 AND course_id = $2 LIMIT 1`
	var exists int
	if err := conn(ctx, r.db).GetContext(ctx, &exists, query, userID, courseID); err != nil {
		if database.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// JoinItinerary adds the itinerary membership unless it already exists.
// It reports whether a row was created.
func (r *EnrollmentRepository) JoinItinerary(ctx context.Context, membership *models.ItineraryEnrollment) (bool, error) {
	if membership.EnrolledAt.IsZero() {
		membership.EnrolledAt = time.Now().UTC()
	}
	const query = `INSERT INTO itinerary_enrollments (itinerary_id, user_id, enrolled_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (itinerary_id, user_id) DO NOTHING RETURNING itinerary_id`
	var id string
	err := conn(ctx, r.db).QueryRowxContext(ctx, query, membership.ItineraryID, membership.UserID, membership.EnrolledAt).Scan(&id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows), database.IsUniqueViolation(err):
		return false, nil
	default:
		return false, fmt.Errorf("join itinerary: %w", err)
	}
}

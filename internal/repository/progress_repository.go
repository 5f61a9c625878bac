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

// ProgressRepository stores module completions and the derived course and itinerary progress.
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository constructs the repository.
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// RecordModuleCompletion marks the module complete for the user. Repeats report false.
func (r *ProgressRepository) RecordModuleCompletion(ctx context.Context, userID, moduleID string, at time.Time) (bool, error) {
	const query = `INSERT INTO module_completions (id, user_id, module_id, completed_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id, module_id) DO NOTHING RETURNING id`
	var id string
	err := conn(ctx, r.db).QueryRowxContext(ctx, query, uuid.NewString(), userID, moduleID, at).Scan(&id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows), database.IsUniqueViolation(err):
		return false, nil
	default:
		return false, fmt.Errorf("record module completion: %w", err)
	}
}

// CountModules returns the number of modules in the course.
func (r *ProgressRepository) CountModules(ctx context.Context, courseID string) (int, error) {
	var total int
	if err := conn(ctx, r.db).GetContext(ctx, &total, `SELECT COUNT(*) FROM modules WHERE course_id = $1`, courseID); err != nil {
		return 0, fmt.Errorf("count course modules: %w", err)
	}
	return total, nil
}

// CountCompletedModules returns how many of the course's modules the user completed.
func (r *ProgressRepository) CountCompletedModules(ctx context.Context, userID, courseID string) (int, error) {
	const query = `SELECT COUNT(*) FROM module_completions mc
        JOIN modules m ON m.id = mc.module_id
        WHERE mc.user_id = $1 AND m.course_id = $2`
	var completed int
	if err := conn(ctx, r.db).GetContext(ctx, &completed, query, userID, courseID); err != nil {
		return 0, fmt.Errorf("count completed modules: %w", err)
	}
	return completed, nil
}

// EnsureCourseProgress creates a zero progress row unless one exists. Existing progress is never reset.
func (r *ProgressRepository) EnsureCourseProgress(ctx context.Context, userID, courseID string, at time.Time) (bool, error) {
	const query = `INSERT INTO course_progress (id, user_id, course_id, percentage, updated_at)
        VALUES ($1, $2, $3, 0, $4)
        ON CONFLICT (user_id, course_id) DO NOTHING`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, uuid.NewString(), userID, courseID, at)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("ensure course progress: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ensure course progress: %w", err)
	}
	return affected > 0, nil
}

// UpsertCourseProgress stores the percentage and stamps completed_at the first time it reaches 100.
// It reports whether this call performed that first completion.
func (r *ProgressRepository) UpsertCourseProgress(ctx context.Context, userID, courseID string, percentage int, at time.Time) (bool, error) {
	const query = `INSERT INTO course_progress (id, user_id, course_id, percentage, updated_at, completed_at)
        VALUES ($1, $2, $3, $4, $5, CASE WHEN $4 = 100 THEN $5::timestamptz END)
        ON CONFLICT (user_id, course_id) DO UPDATE SET
            percentage = EXCLUDED.percentage,
            updated_at = EXCLUDED.updated_at,
            completed_at = COALESCE(course_progress.completed_at, EXCLUDED.completed_at)
        RETURNING (completed_at IS NOT NULL AND completed_at = $5::timestamptz) AS first_completion`
	var first bool
	if err := conn(ctx, r.db).QueryRowxContext(ctx, query, uuid.NewString(), userID, courseID, percentage, at).Scan(&first); err != nil {
		return false, fmt.Errorf("upsert course progress: %w", err)
	}
	return first, nil
}

// LockCourseProgress loads the user's progress row for a course and locks it until the
// surrounding transaction ends, serialising concurrent completions in the same course.
func (r *ProgressRepository) LockCourseProgress(ctx context.Context, userID, courseID string) (*models.CourseProgress, error) {
	const query = `SELECT id, user_id, course_id, percentage, updated_at, completed_at
        FROM course_progress WHERE user_id = $1 AND course_id = $2 FOR UPDATE`
	var progress models.CourseProgress
	if err := conn(ctx, r.db).GetContext(ctx, &progress, query, userID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("lock course progress: %w", err)
	}
	return &progress, nil
}

// ListCourseProgressByUser returns every course progress row of the user with course titles.
func (r *ProgressRepository) ListCourseProgressByUser(ctx context.Context, userID string) ([]models.CourseProgressDetail, error) {
	const query = `SELECT cp.id, cp.user_id, cp.course_id, cp.percentage, cp.updated_at, cp.completed_at, c.title AS course_title
        FROM course_progress cp JOIN courses c ON c.id = cp.course_id
        WHERE cp.user_id = $1 ORDER BY c.title`
	var rows []models.CourseProgressDetail
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list course progress: %w", err)
	}
	return rows, nil
}

// CountCompletedCourses derives the user's completed-course count from first completions.
func (r *ProgressRepository) CountCompletedCourses(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM course_progress WHERE user_id = $1 AND completed_at IS NOT NULL`
	var count int
	if err := conn(ctx, r.db).GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("count completed courses: %w", err)
	}
	return count, nil
}

// ListEnrolledItineraryIDs returns the itineraries containing the course in which the user is enrolled.
func (r *ProgressRepository) ListEnrolledItineraryIDs(ctx context.Context, userID, courseID string) ([]string, error) {
	const query = `SELECT ic.itinerary_id FROM itinerary_courses ic
        JOIN itinerary_enrollments ie ON ie.itinerary_id = ic.itinerary_id AND ie.user_id = $1
        WHERE ic.course_id = $2 ORDER BY ic.itinerary_id`
	var ids []string
	if err := conn(ctx, r.db).SelectContext(ctx, &ids, query, userID, courseID); err != nil {
		return nil, fmt.Errorf("list enrolled itineraries for course: %w", err)
	}
	return ids, nil
}

// CountItineraryCourses returns the number of courses in the itinerary.
func (r *ProgressRepository) CountItineraryCourses(ctx context.Context, itineraryID string) (int, error) {
	var total int
	if err := conn(ctx, r.db).GetContext(ctx, &total, `SELECT COUNT(*) FROM itinerary_courses WHERE itinerary_id = $1`, itineraryID); err != nil {
		return 0, fmt.Errorf("count itinerary courses: %w", err)
	}
	return total, nil
}

// CountCompletedItineraryCourses counts itinerary courses where the user's progress is exactly 100.
func (r *ProgressRepository) CountCompletedItineraryCourses(ctx context.Context, userID, itineraryID string) (int, error) {
	const query = `SELECT COUNT(*) FROM itinerary_courses ic
        JOIN course_progress cp ON cp.course_id = ic.course_id AND cp.user_id = $1
        WHERE ic.itinerary_id = $2 AND cp.percentage = 100`
	var completed int
	if err := conn(ctx, r.db).GetContext(ctx, &completed, query, userID, itineraryID); err != nil {
		return 0, fmt.Errorf("count completed itinerary courses: %w", err)
	}
	return completed, nil
}

// UpsertItineraryProgress stores the user's percentage for the itinerary.
func (r *ProgressRepository) UpsertItineraryProgress(ctx context.Context, progress *models.ItineraryProgress) error {
	if progress.UpdatedAt.IsZero() {
		progress.UpdatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO itinerary_progress (user_id, itinerary_id, percentage, updated_at)
        VALUES (:user_id, :itinerary_id, :percentage, :updated_at)
        ON CONFLICT (user_id, itinerary_id) DO UPDATE SET percentage = EXCLUDED.percentage, updated_at = EXCLUDED.updated_at`
	if _, err := conn(ctx, r.db).NamedExecContext(ctx, query, progress); err != nil {
		return fmt.Errorf("upsert itinerary progress: %w", err)
	}
	return nil
}

// FindItineraryProgress returns the stored percentage of a member in an itinerary.
func (r *ProgressRepository) FindItineraryProgress(ctx context.Context, userID, itineraryID string) (*models.ItineraryProgress, error) {
	const query = `SELECT user_id, itinerary_id, percentage, updated_at
        FROM itinerary_progress WHERE user_id = $1 AND itinerary_id = $2`
	var progress models.ItineraryProgress
	if err := conn(ctx, r.db).GetContext(ctx, &progress, query, userID, itineraryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find itinerary progress: %w", err)
	}
	return &progress, nil
}

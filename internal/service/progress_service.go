package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/aulora-api/internal/models"
	appErrors "github.com/noah-isme/aulora-api/pkg/errors"
)

type txRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type progressStore interface {
	RecordModuleCompletion(ctx context.Context, userID, moduleID string, at time.Time) (bool, error)
	CountModules(ctx context.Context, courseID string) (int, error)
	CountCompletedModules(ctx context.Context, userID, courseID string) (int, error)
	EnsureCourseProgress(ctx context.Context, userID, courseID string, at time.Time) (bool, error)
	LockCourseProgress(ctx context.Context, userID, courseID string) (*models.CourseProgress, error)
	UpsertCourseProgress(ctx context.Context, userID, courseID string, percentage int, at time.Time) (bool, error)
	ListCourseProgressByUser(ctx context.Context, userID string) ([]models.CourseProgressDetail, error)
	CountCompletedCourses(ctx context.Context, userID string) (int, error)
	ListEnrolledItineraryIDs(ctx context.Context, userID, courseID string) ([]string, error)
	CountItineraryCourses(ctx context.Context, itineraryID string) (int, error)
	CountCompletedItineraryCourses(ctx context.Context, userID, itineraryID string) (int, error)
	UpsertItineraryProgress(ctx context.Context, progress *models.ItineraryProgress) error
	FindItineraryProgress(ctx context.Context, userID, itineraryID string) (*models.ItineraryProgress, error)
}

type progressModuleReader interface {
	FindByID(ctx context.Context, id string) (*models.Module, error)
}

type progressCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.CourseDetail, error)
}

type progressItineraryReader interface {
	FindByID(ctx context.Context, id string) (*models.Itinerary, error)
}

type progressUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// ComputeCoursePercentage rounds 100*completed/total half up. A course without modules is at 0.
func ComputeCoursePercentage(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return (200*completed + total) / (2 * total)
}

// ComputeItineraryPercentage floors 100*completed/total. An itinerary without courses is at 0.
func ComputeItineraryPercentage(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return 100 * completed / total
}

// StateForPercentage maps a course percentage onto the progress state machine.
func StateForPercentage(percentage int) models.ProgressState {
	switch {
	case percentage >= 100:
		return models.ProgressComplete
	case percentage > 0:
		return models.ProgressInProgress
	default:
		return models.ProgressNotStarted
	}
}

// ProgressService rolls module completions up into course and itinerary progress.
type ProgressService struct {
	tx          txRunner
	store       progressStore
	modules     progressModuleReader
	courses     progressCourseReader
	itineraries progressItineraryReader
	users       progressUserReader
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time
}

// NewProgressService constructs the progress engine.
func NewProgressService(tx txRunner, store progressStore, modules progressModuleReader, courses progressCourseReader, itineraries progressItineraryReader, users progressUserReader, metrics *MetricsService, logger *zap.Logger) *ProgressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{
		tx:          tx,
		store:       store,
		modules:     modules,
		courses:     courses,
		itineraries: itineraries,
		users:       users,
		metrics:     metrics,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CompleteModule records the completion and recomputes the user's course and itinerary progress.
// Repeating the call leaves every percentage unchanged.
func (s *ProgressService) CompleteModule(ctx context.Context, userID, moduleID string) (*models.ProgressUpdateResult, error) {
	module, err := s.modules.FindByID(ctx, moduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "module not found")
		}
		return nil, appErrors.Internal(err, "failed to load module")
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}

	now := s.now()
	result := &models.ProgressUpdateResult{CourseID: module.CourseID, ModuleID: module.ID, Itineraries: []models.ItineraryProgressSummary{}}
	var newCompletion bool

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		created, err := s.store.RecordModuleCompletion(ctx, userID, module.ID, now)
		if err != nil {
			return appErrors.Internal(err, "failed to record module completion")
		}
		newCompletion = created

		// Counting under the row lock sees completions committed by concurrent calls.
		if _, err := s.store.EnsureCourseProgress(ctx, userID, module.CourseID, now); err != nil {
			return appErrors.Internal(err, "failed to initialise course progress")
		}
		if _, err := s.store.LockCourseProgress(ctx, userID, module.CourseID); err != nil {
			return appErrors.Internal(err, "failed to lock course progress")
		}

		total, err := s.store.CountModules(ctx, module.CourseID)
		if err != nil {
			return appErrors.Internal(err, "failed to count course modules")
		}
		completed, err := s.store.CountCompletedModules(ctx, userID, module.CourseID)
		if err != nil {
			return appErrors.Internal(err, "failed to count completed modules")
		}

		result.CourseProgress = ComputeCoursePercentage(completed, total)
		result.State = StateForPercentage(result.CourseProgress)
		first, err := s.store.UpsertCourseProgress(ctx, userID, module.CourseID, result.CourseProgress, now)
		if err != nil {
			return appErrors.Internal(err, "failed to store course progress")
		}
		result.FirstCompletion = first

		itineraryIDs, err := s.store.ListEnrolledItineraryIDs(ctx, userID, module.CourseID)
		if err != nil {
			return appErrors.Internal(err, "failed to list enrolled itineraries")
		}
		for _, itineraryID := range itineraryIDs {
			pct, err := s.refreshItinerary(ctx, userID, itineraryID, now)
			if err != nil {
				return err
			}
			result.Itineraries = append(result.Itineraries, models.ItineraryProgressSummary{ItineraryID: itineraryID, Progress: pct})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if newCompletion {
		s.metrics.RecordModuleCompletion()
	}
	if result.FirstCompletion {
		s.metrics.RecordCourseCompletion()
		s.logger.Info("course completed",
			zap.String("user_id", userID),
			zap.String("course_id", module.CourseID),
		)
	}
	return result, nil
}

// RefreshItineraryProgress recomputes and stores the user's percentage for one itinerary.
func (s *ProgressService) RefreshItineraryProgress(ctx context.Context, userID, itineraryID string) (int, error) {
	return s.refreshItinerary(ctx, userID, itineraryID, s.now())
}

func (s *ProgressService) refreshItinerary(ctx context.Context, userID, itineraryID string, now time.Time) (int, error) {
	total, err := s.store.CountItineraryCourses(ctx, itineraryID)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to count itinerary courses")
	}
	completed, err := s.store.CountCompletedItineraryCourses(ctx, userID, itineraryID)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to count completed itinerary courses")
	}
	pct := ComputeItineraryPercentage(completed, total)
	if err := s.store.UpsertItineraryProgress(ctx, &models.ItineraryProgress{
		UserID:      userID,
		ItineraryID: itineraryID,
		Percentage:  pct,
		UpdatedAt:   now,
	}); err != nil {
		return 0, appErrors.Internal(err, "failed to store itinerary progress")
	}
	return pct, nil
}

// InitCourseProgress creates the zero progress row for a fresh enrollment. Existing progress is kept.
func (s *ProgressService) InitCourseProgress(ctx context.Context, userID, courseID string) error {
	if _, err := s.store.EnsureCourseProgress(ctx, userID, courseID, s.now()); err != nil {
		return appErrors.Internal(err, "failed to initialise course progress")
	}
	return nil
}

// CourseProgress returns the user's progress in a course computed from the completion ledger.
func (s *ProgressService) CourseProgress(ctx context.Context, userID, courseID string) (*models.CourseProgressView, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}
	total, err := s.store.CountModules(ctx, courseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count course modules")
	}
	completed, err := s.store.CountCompletedModules(ctx, userID, courseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count completed modules")
	}
	pct := ComputeCoursePercentage(completed, total)
	return &models.CourseProgressView{
		CourseID:         courseID,
		Percentage:       pct,
		State:            StateForPercentage(pct),
		CompletedModules: completed,
		TotalModules:     total,
	}, nil
}

// ItineraryProgress returns the user's own progress in an itinerary. Members get the percentage
// stored by the last rollup; anyone else gets it computed from their course progress.
func (s *ProgressService) ItineraryProgress(ctx context.Context, userID, itineraryID string) (*models.ItineraryProgressView, error) {
	if _, err := s.itineraries.FindByID(ctx, itineraryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "itinerary not found")
		}
		return nil, appErrors.Internal(err, "failed to load itinerary")
	}
	total, err := s.store.CountItineraryCourses(ctx, itineraryID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count itinerary courses")
	}
	completed, err := s.store.CountCompletedItineraryCourses(ctx, userID, itineraryID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count completed itinerary courses")
	}
	view := &models.ItineraryProgressView{
		ItineraryID:      itineraryID,
		Percentage:       ComputeItineraryPercentage(completed, total),
		CompletedCourses: completed,
		TotalCourses:     total,
	}

	stored, err := s.store.FindItineraryProgress(ctx, userID, itineraryID)
	switch {
	case err == nil:
		view.Percentage = stored.Percentage
		view.Enrolled = true
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Internal(err, "failed to load itinerary progress")
	}
	return view, nil
}

// CompletedCourseCount is the number of courses the user has ever finished.
func (s *ProgressService) CompletedCourseCount(ctx context.Context, userID string) (int, error) {
	count, err := s.store.CountCompletedCourses(ctx, userID)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to count completed courses")
	}
	return count, nil
}

// CourseProgressReport lists every course progress row of the user.
func (s *ProgressService) CourseProgressReport(ctx context.Context, userID string) ([]models.CourseProgressDetail, error) {
	rows, err := s.store.ListCourseProgressByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load course progress")
	}
	return rows, nil
}

package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/aulora-api/internal/models"
	appErrors "github.com/noah-isme/aulora-api/pkg/errors"
)

type enrollmentLedger interface {
	CreateIfAbsent(ctx context.Context, enrollment *models.Enrollment) (bool, error)
	JoinItinerary(ctx context.Context, membership *models.ItineraryEnrollment) (bool, error)
}

type enrollmentCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.CourseDetail, error)
	ListEnrolledByUser(ctx context.Context, userID string) ([]models.CourseDetail, error)
}

type enrollmentItineraryReader interface {
	FindByID(ctx context.Context, id string) (*models.Itinerary, error)
	ListCourseIDs(ctx context.Context, itineraryID string) ([]string, error)
	ListEnrolledByUser(ctx context.Context, userID string) ([]models.EnrolledItinerary, error)
}

type paymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	ListByUser(ctx context.Context, userID string) ([]models.Payment, error)
}

type progressInitializer interface {
	InitCourseProgress(ctx context.Context, userID, courseID string) error
	RefreshItineraryProgress(ctx context.Context, userID, itineraryID string) (int, error)
}

// EnrollmentService maintains the enrollment ledger for courses and itineraries.
type EnrollmentService struct {
	tx          txRunner
	ledger      enrollmentLedger
	courses     enrollmentCourseReader
	itineraries enrollmentItineraryReader
	payments    paymentStore
	progress    progressInitializer
	validator   *validator.Validate
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewEnrollmentService constructs the service.
func NewEnrollmentService(tx txRunner, ledger enrollmentLedger, courses enrollmentCourseReader, itineraries enrollmentItineraryReader, payments paymentStore, progress progressInitializer, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EnrollmentService{
		tx:          tx,
		ledger:      ledger,
		courses:     courses,
		itineraries: itineraries,
		payments:    payments,
		progress:    progress,
		validator:   validate,
		metrics:     metrics,
		logger:      logger,
	}
}

// EnrollInCourse enrolls the user and creates their zero progress row.
func (s *EnrollmentService) EnrollInCourse(ctx context.Context, userID, courseID string) (*models.EnrollmentResult, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}

	enrollment := &models.Enrollment{UserID: userID, CourseID: courseID}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		created, err := s.ledger.CreateIfAbsent(ctx, enrollment)
		if err != nil {
			return appErrors.Internal(err, "failed to create enrollment")
		}
		if !created {
			return appErrors.Clone(appErrors.ErrAlreadyEnrolled, "already enrolled in this course")
		}
		return s.progress.InitCourseProgress(ctx, userID, courseID)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordEnrollments(EnrollmentKindCourse, 1)
	s.logger.Info("course enrollment", zap.String("user_id", userID), zap.String("course_id", courseID))
	return &models.EnrollmentResult{
		Message:    "enrolled in course",
		CourseID:   courseID,
		EnrolledAt: enrollment.EnrolledAt,
	}, nil
}

// EnrollInItinerary adds the membership only. Course enrollments are left untouched.
func (s *EnrollmentService) EnrollInItinerary(ctx context.Context, userID, itineraryID string) (*models.EnrollmentResult, error) {
	if _, err := s.itineraries.FindByID(ctx, itineraryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "itinerary not found")
		}
		return nil, appErrors.Internal(err, "failed to load itinerary")
	}

	membership := &models.ItineraryEnrollment{ItineraryID: itineraryID, UserID: userID}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		joined, err := s.ledger.JoinItinerary(ctx, membership)
		if err != nil {
			return appErrors.Internal(err, "failed to join itinerary")
		}
		if !joined {
			return appErrors.Clone(appErrors.ErrAlreadyEnrolled, "already enrolled in this itinerary")
		}
		_, err = s.progress.RefreshItineraryProgress(ctx, userID, itineraryID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordEnrollments(EnrollmentKindItinerary, 1)
	s.logger.Info("itinerary enrollment", zap.String("user_id", userID), zap.String("itinerary_id", itineraryID))
	return &models.EnrollmentResult{
		Message:     "enrolled in itinerary",
		ItineraryID: itineraryID,
		EnrolledAt:  membership.EnrolledAt,
	}, nil
}

// PurchaseItinerary buys the itinerary and cascades an enrollment into each of its courses.
func (s *EnrollmentService) PurchaseItinerary(ctx context.Context, userID, itineraryID string, req models.PurchaseItineraryRequest) (*models.PurchaseResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment method")
	}
	method := req.Method
	if method == "" {
		method = models.PaymentCard
	}

	itinerary, err := s.itineraries.FindByID(ctx, itineraryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "itinerary not found")
		}
		return nil, appErrors.Internal(err, "failed to load itinerary")
	}

	result := &models.PurchaseResult{Message: "itinerary purchased", ItineraryID: itinerary.ID, Amount: itinerary.Price, CourseIDs: []string{}}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		joined, err := s.ledger.JoinItinerary(ctx, &models.ItineraryEnrollment{ItineraryID: itinerary.ID, UserID: userID})
		if err != nil {
			return appErrors.Internal(err, "failed to join itinerary")
		}
		if !joined {
			return appErrors.Clone(appErrors.ErrAlreadyEnrolled, "already enrolled in this itinerary")
		}

		courseIDs, err := s.itineraries.ListCourseIDs(ctx, itinerary.ID)
		if err != nil {
			return appErrors.Internal(err, "failed to list itinerary courses")
		}
		for _, courseID := range courseIDs {
			created, err := s.ledger.CreateIfAbsent(ctx, &models.Enrollment{UserID: userID, CourseID: courseID})
			if err != nil {
				return appErrors.Internal(err, "failed to enroll in itinerary course")
			}
			if created {
				result.CoursesEnrolled++
			}
			if err := s.progress.InitCourseProgress(ctx, userID, courseID); err != nil {
				return err
			}
		}
		result.CoursesTotal = len(courseIDs)
		result.CourseIDs = courseIDs

		payment := &models.Payment{UserID: userID, ItineraryID: &itinerary.ID, Amount: itinerary.Price, Method: method}
		if err := s.payments.Create(ctx, payment); err != nil {
			return appErrors.Internal(err, "failed to record payment")
		}
		result.PaymentID = payment.ID

		_, err = s.progress.RefreshItineraryProgress(ctx, userID, itinerary.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordEnrollments(EnrollmentKindPurchase, 1)
	s.metrics.RecordEnrollments(EnrollmentKindCourse, result.CoursesEnrolled)
	s.logger.Info("itinerary purchased",
		zap.String("user_id", userID),
		zap.String("itinerary_id", itinerary.ID),
		zap.Int("courses_enrolled", result.CoursesEnrolled),
		zap.String("method", string(method)),
	)
	return result, nil
}

// MyCourses lists the courses the user is enrolled in.
func (s *EnrollmentService) MyCourses(ctx context.Context, userID string) ([]models.CourseDetail, error) {
	courses, err := s.courses.ListEnrolledByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list enrolled courses")
	}
	return courses, nil
}

// MyItineraries lists the itineraries the user belongs to with the user's progress in each.
func (s *EnrollmentService) MyItineraries(ctx context.Context, userID string) ([]models.EnrolledItinerary, error) {
	itineraries, err := s.itineraries.ListEnrolledByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list enrolled itineraries")
	}
	return itineraries, nil
}

// MyPayments lists the user's purchases.
func (s *EnrollmentService) MyPayments(ctx context.Context, userID string) ([]models.Payment, error) {
	payments, err := s.payments.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list payments")
	}
	return payments, nil
}

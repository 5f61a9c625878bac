package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/aulora-api/internal/models"
	appErrors "github.com/noah-isme/aulora-api/pkg/errors"
)

type policyEnrollmentChecker interface {
	Exists(ctx context.Context, userID, courseID string) (bool, error)
}

type policyCategoryFinder interface {
	FindByID(ctx context.Context, id string) (*models.Category, error)
	FindByName(ctx context.Context, name string) (*models.Category, error)
}

// AccessPolicy decides what each role may see and change in the catalog.
type AccessPolicy struct {
	enrollments policyEnrollmentChecker
	categories  policyCategoryFinder
}

// NewAccessPolicy constructs the policy.
func NewAccessPolicy(enrollments policyEnrollmentChecker, categories policyCategoryFinder) *AccessPolicy {
	return &AccessPolicy{enrollments: enrollments, categories: categories}
}

func unknownRole(role models.Role) error {
	return appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("unknown role %q", role))
}

func sameSubject(subject, category string) bool {
	return subject != "" && strings.EqualFold(strings.TrimSpace(subject), strings.TrimSpace(category))
}

// ScopeCourseFilter narrows a course listing to what the principal may see.
// The boolean is false when nothing can be visible, e.g. a teacher without a subject.
func (p *AccessPolicy) ScopeCourseFilter(principal *models.JWTClaims, filter models.CourseFilter) (models.CourseFilter, bool, error) {
	switch principal.Role {
	case models.RoleAdmin:
		return filter, true, nil
	case models.RoleTeacher:
		subject := strings.TrimSpace(principal.TeacherSubject)
		if subject == "" {
			return filter, false, nil
		}
		filter.CategoryNameEquals = subject
		return filter, true, nil
	case models.RoleStudent:
		filter.ExcludeEnrolledBy = principal.UserID
		return filter, true, nil
	default:
		return filter, false, unknownRole(principal.Role)
	}
}

// ScopeItineraryFilter restricts teachers to itineraries holding at least one course of their subject.
func (p *AccessPolicy) ScopeItineraryFilter(principal *models.JWTClaims, filter models.ItineraryFilter) (models.ItineraryFilter, bool, error) {
	switch principal.Role {
	case models.RoleAdmin, models.RoleStudent:
		return filter, true, nil
	case models.RoleTeacher:
		subject := strings.TrimSpace(principal.TeacherSubject)
		if subject == "" {
			return filter, false, nil
		}
		filter.CourseCategoryNameEquals = subject
		return filter, true, nil
	default:
		return filter, false, unknownRole(principal.Role)
	}
}

// AuthorizeCourseDetail checks read access to a single course and its modules.
func (p *AccessPolicy) AuthorizeCourseDetail(ctx context.Context, principal *models.JWTClaims, course *models.CourseDetail) error {
	switch principal.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleTeacher:
		if !sameSubject(principal.TeacherSubject, course.CategoryName) {
			return appErrors.Clone(appErrors.ErrForbidden, "course is outside your subject")
		}
		return nil
	case models.RoleStudent:
		enrolled, err := p.enrollments.Exists(ctx, principal.UserID, course.ID)
		if err != nil {
			return appErrors.Internal(err, "failed to check enrollment")
		}
		if !enrolled {
			return appErrors.Clone(appErrors.ErrForbidden, "enroll in the course to view it")
		}
		return nil
	default:
		return unknownRole(principal.Role)
	}
}

// AuthorizeCourseEdit checks whether the principal may add content to the course.
func (p *AccessPolicy) AuthorizeCourseEdit(principal *models.JWTClaims, course *models.CourseDetail) error {
	switch principal.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleTeacher:
		if !sameSubject(principal.TeacherSubject, course.CategoryName) {
			return appErrors.Clone(appErrors.ErrForbidden, "course is outside your subject")
		}
		return nil
	case models.RoleStudent:
		return appErrors.Clone(appErrors.ErrForbidden, "only teachers or admins can edit courses")
	default:
		return unknownRole(principal.Role)
	}
}

// ResolveCourseCategory picks the category of a course being created.
// Teachers always get the category named after their subject; admins must name an existing one.
func (p *AccessPolicy) ResolveCourseCategory(ctx context.Context, principal *models.JWTClaims, requestedID string) (*models.Category, error) {
	switch principal.Role {
	case models.RoleTeacher:
		subject := strings.TrimSpace(principal.TeacherSubject)
		if subject == "" {
			return nil, appErrors.Clone(appErrors.ErrNoMatchingCategory, "teacher has no subject")
		}
		category, err := p.categories.FindByName(ctx, subject)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNoMatchingCategory, fmt.Sprintf("no category matches subject %q", subject))
			}
			return nil, appErrors.Internal(err, "failed to resolve category")
		}
		return category, nil
	case models.RoleAdmin:
		if requestedID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "category_id is required")
		}
		category, err := p.categories.FindByID(ctx, requestedID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
			}
			return nil, appErrors.Internal(err, "failed to load category")
		}
		return category, nil
	case models.RoleStudent:
		return nil, appErrors.Clone(appErrors.ErrValidation, "only teachers or admins can create courses")
	default:
		return nil, unknownRole(principal.Role)
	}
}

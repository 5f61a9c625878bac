package models

import "time"

// ProgressState is the per (user, course) completion state.
type ProgressState string

const (
	ProgressNotStarted ProgressState = "NOT_STARTED"
	ProgressInProgress ProgressState = "IN_PROGRESS"
	ProgressComplete   ProgressState = "COMPLETE"
)

// ModuleCompletion marks a module finished by a user. At most one per (user, module).
type ModuleCompletion struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	ModuleID    string    `db:"module_id" json:"module_id"`
	CompletedAt time.Time `db:"completed_at" json:"completed_at"`
}

// CourseProgress is the persisted completion percentage of a user in a course.
// CompletedAt is set the first time the percentage reaches 100 and never cleared.
type CourseProgress struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"user_id"`
	CourseID    string     `db:"course_id" json:"course_id"`
	Percentage  int        `db:"percentage" json:"percentage"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// CourseProgressDetail joins progress with the course title for reports.
type CourseProgressDetail struct {
	CourseProgress
	CourseTitle string `db:"course_title" json:"course_title"`
}

// ItineraryProgress is the completion percentage of one user in one itinerary.
type ItineraryProgress struct {
	UserID      string    `db:"user_id" json:"user_id"`
	ItineraryID string    `db:"itinerary_id" json:"itinerary_id"`
	Percentage  int       `db:"percentage" json:"percentage"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ItineraryProgressSummary is returned for each itinerary touched by a module completion.
type ItineraryProgressSummary struct {
	ItineraryID string `json:"itinerary_id"`
	Progress    int    `json:"progress"`
}

// ProgressUpdateResult is the outcome of completing a module.
type ProgressUpdateResult struct {
	CourseProgress  int                        `json:"progress_curso"`
	CourseID        string                     `json:"course_id"`
	ModuleID        string                     `json:"module_id"`
	State           ProgressState              `json:"state"`
	FirstCompletion bool                       `json:"first_completion"`
	Itineraries     []ItineraryProgressSummary `json:"itineraries"`
}

// CourseProgressView answers GET /cursos/:id/progreso.
type CourseProgressView struct {
	CourseID         string        `json:"course_id"`
	Percentage       int           `json:"percentage"`
	State            ProgressState `json:"state"`
	CompletedModules int           `json:"completed_modules"`
	TotalModules     int           `json:"total_modules"`
}

// ItineraryProgressView answers GET /itinerarios/:id/progreso.
type ItineraryProgressView struct {
	ItineraryID      string `json:"itinerary_id"`
	Percentage       int    `json:"percentage"`
	CompletedCourses int    `json:"completed_courses"`
	TotalCourses     int    `json:"total_courses"`
	Enrolled         bool   `json:"enrolled"`
}

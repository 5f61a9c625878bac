package models

import "time"

// Enrollment links a user to a course. At most one exists per (user, course).
type Enrollment struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolled_at"`
}

// ItineraryEnrollment is a user's membership in an itinerary.
type ItineraryEnrollment struct {
	ItineraryID string    `db:"itinerary_id" json:"itinerary_id"`
	UserID      string    `db:"user_id" json:"user_id"`
	EnrolledAt  time.Time `db:"enrolled_at" json:"enrolled_at"`
}

// EnrollmentResult confirms a course or itinerary enrollment.
type EnrollmentResult struct {
	Message     string    `json:"message"`
	CourseID    string    `json:"course_id,omitempty"`
	ItineraryID string    `json:"itinerary_id,omitempty"`
	EnrolledAt  time.Time `json:"enrolled_at"`
}

// PaymentMethod is how a purchase was paid.
type PaymentMethod string

const (
	PaymentCard   PaymentMethod = "card"
	PaymentPayPal PaymentMethod = "paypal"
)

// Payment records a purchase of a course or an itinerary.
type Payment struct {
	ID          string        `db:"id" json:"id"`
	UserID      string        `db:"user_id" json:"user_id"`
	CourseID    *string       `db:"course_id" json:"course_id,omitempty"`
	ItineraryID *string       `db:"itinerary_id" json:"itinerary_id,omitempty"`
	Amount      int           `db:"amount" json:"amount"`
	Method      PaymentMethod `db:"method" json:"method"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}

// PurchaseItineraryRequest is the optional body of POST /itinerarios/:id/pagar.
type PurchaseItineraryRequest struct {
	Method PaymentMethod `json:"method" validate:"omitempty,oneof=card paypal"`
}

// PurchaseResult confirms an itinerary purchase and its course cascade.
type PurchaseResult struct {
	Message         string   `json:"message"`
	ItineraryID     string   `json:"itinerary_id"`
	PaymentID       string   `json:"payment_id"`
	Amount          int      `json:"amount"`
	CoursesTotal    int      `json:"courses_total"`
	CoursesEnrolled int      `json:"courses_enrolled"`
	CourseIDs       []string `json:"course_ids"`
}

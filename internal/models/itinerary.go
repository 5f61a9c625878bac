package models

import "time"

// Itinerary is an ordered bundle of courses sold and enrolled as a unit.
type Itinerary struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Price       int       `db:"price" json:"price"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// EnrolledItinerary is an itinerary the user belongs to with their stored progress.
type EnrolledItinerary struct {
	Itinerary
	Progress int `db:"progress" json:"progress"`
}

// ItineraryCourse is a course inside an itinerary, in itinerary order.
type ItineraryCourse struct {
	CourseDetail
	Position int       `db:"position" json:"position"`
	AddedAt  time.Time `db:"added_at" json:"added_at"`
}

// ItineraryDetail is an itinerary with its ordered courses.
type ItineraryDetail struct {
	Itinerary
	Courses []ItineraryCourse `json:"courses"`
}

// ItineraryFilter drives itinerary listings.
type ItineraryFilter struct {
	Search   string
	Ordering CourseOrdering
	Page     int
	PageSize int

	CourseCategoryNameEquals string
}

// CreateItineraryRequest is the payload of POST /itinerarios; course order is preserved.
type CreateItineraryRequest struct {
	Title       string   `json:"title" validate:"required,max=50"`
	Description string   `json:"description" validate:"required,max=300"`
	Price       int      `json:"price" validate:"gte=0"`
	CourseIDs   []string `json:"course_ids" validate:"dive,uuid"`
}

package models

import "time"

// Category groups courses by subject; teachers are matched to it by name.
type Category struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Course is a sellable unit made of modules.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	CategoryID  string    `db:"category_id" json:"category_id"`
	Price       int       `db:"price" json:"price"`
	CreatedBy   *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// CourseDetail enriches Course with its category name and module count.
type CourseDetail struct {
	Course
	CategoryName string `db:"category_name" json:"category_name"`
	ModuleCount  int    `db:"module_count" json:"module_count"`
}

// AttachmentType classifies module attachments.
type AttachmentType string

const (
	AttachmentPhoto    AttachmentType = "photo"
	AttachmentVideo    AttachmentType = "video"
	AttachmentDocument AttachmentType = "document"
)

// Module is the unit of completion tracking inside a course.
type Module struct {
	ID             string          `db:"id" json:"id"`
	CourseID       string          `db:"course_id" json:"course_id"`
	Title          string          `db:"title" json:"title"`
	Content        string          `db:"content" json:"content"`
	AttachmentURL  *string         `db:"attachment_url" json:"attachment_url,omitempty"`
	AttachmentType *AttachmentType `db:"attachment_type" json:"attachment_type,omitempty"`
	Position       int             `db:"position" json:"position"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// CourseOrdering enumerates the supported list orderings.
type CourseOrdering string

const (
	OrderTitleAsc  CourseOrdering = "title"
	OrderTitleDesc CourseOrdering = "-title"
	OrderPriceAsc  CourseOrdering = "price"
	OrderPriceDesc CourseOrdering = "-price"
)

// CourseFilter drives course listings. Policy fields are filled by the access policy, never by clients.
type CourseFilter struct {
	Search     string
	CategoryID string
	Ordering   CourseOrdering
	Page       int
	PageSize   int

	CategoryNameEquals string
	ExcludeEnrolledBy  string
}

// CreateCourseRequest is the payload of POST /cursos. Teachers may omit the category.
type CreateCourseRequest struct {
	Title       string `json:"title" validate:"required,max=50"`
	Description string `json:"description" validate:"required,max=300"`
	CategoryID  string `json:"category_id" validate:"omitempty,uuid"`
	Price       int    `json:"price" validate:"gte=0"`
}

// CreateModuleRequest is the payload of POST /cursos/:id/modulos.
type CreateModuleRequest struct {
	Title          string          `json:"title" validate:"required,max=50"`
	Content        string          `json:"content" validate:"required,max=300"`
	AttachmentURL  *string         `json:"attachment_url" validate:"omitempty,url"`
	AttachmentType *AttachmentType `json:"attachment_type" validate:"omitempty,oneof=photo video document"`
}

// Price is the public price lookup response.
type Price struct {
	Price int `json:"precio"`
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/aulora-api/internal/models"
	"github.com/noah-isme/aulora-api/pkg/database"
)

const moduleColumns = `id, course_id, title, content, attachment_url, attachment_type, position, created_at`

// ModuleRepository handles persistence of course modules.
type ModuleRepository struct {
	db *sqlx.DB
}

// NewModuleRepository constructs the repository.
func NewModuleRepository(db *sqlx.DB) *ModuleRepository {
	return &ModuleRepository{db: db}
}

// FindByID returns a module by identifier.
func (r *ModuleRepository) FindByID(ctx context.Context, id string) (*models.Module, error) {
	query := `SELECT ` + moduleColumns + ` FROM modules WHERE id = $1`
	var module models.Module
	if err := conn(ctx, r.db).GetContext(ctx, &module, query, id); err != nil {
		if database.IsNotFound(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find module: %w", err)
	}
	return &module, nil
}

// ListByCourse returns the modules of a course in display order.
func (r *ModuleRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Module, error) {
	query := `SELECT ` + moduleColumns + ` FROM modules WHERE course_id = $1 ORDER BY position, created_at`
	var modules []models.Module
	if err := conn(ctx, r.db).SelectContext(ctx, &modules, query, courseID); err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	return modules, nil
}

// Create appends a module at the end of its course.
func (r *ModuleRepository) Create(ctx context.Context, module *models.Module) error {
	if module.ID == "" {
		module.ID = uuid.NewString()
	}
	if module.CreatedAt.IsZero() {
		module.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO modules (id, course_id, title, content, attachment_url, attachment_type, position, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, (SELECT COALESCE(MAX(position), 0) + 1 FROM modules WHERE course_id = $2), $7)
        RETURNING position`
	if err := conn(ctx, r.db).QueryRowxContext(ctx, query, module.ID, module.CourseID, module.Title, module.Content,
		module.AttachmentURL, module.AttachmentType, module.CreatedAt).Scan(&module.Position); err != nil {
		return fmt.Errorf("create module: %w", err)
	}
	return nil
}

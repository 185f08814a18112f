package outbound

import (
	"context"

	"github.com/google/uuid"
	"github.com/uniedit/reelgen/internal/model"
)

// ProjectDatabasePort defines project persistence.
type ProjectDatabasePort interface {
	// Create creates a new project.
	Create(ctx context.Context, project *model.Project) error

	// FindByID finds a project by ID. Returns nil, nil when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Project, error)

	// List lists projects, newest first.
	List(ctx context.Context, limit, offset int) ([]*model.Project, error)

	// Update updates a project.
	Update(ctx context.Context, project *model.Project) error
}

// MediaSetDatabasePort defines media pool persistence.
type MediaSetDatabasePort interface {
	// Create appends a set to a project's pool.
	Create(ctx context.Context, projectID uuid.UUID, set *model.MediaSet) error

	// FindByProject returns a project's sets in pool order.
	FindByProject(ctx context.Context, projectID uuid.UUID) ([]*model.MediaSet, error)

	// UpdateItems rewrites the items of a set.
	UpdateItems(ctx context.Context, set *model.MediaSet) error

	// Delete deletes a set.
	Delete(ctx context.Context, id uuid.UUID) error
}

// SelectionDatabasePort defines selection order persistence.
type SelectionDatabasePort interface {
	// Get returns a project's selected refs in order.
	Get(ctx context.Context, projectID uuid.UUID) ([]model.MediaRef, error)

	// Save replaces a project's selected refs.
	Save(ctx context.Context, projectID uuid.UUID, refs []model.MediaRef) error
}

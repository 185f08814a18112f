package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/uniedit/reelgen/internal/model"
	"github.com/uniedit/reelgen/internal/port/outbound"
)

// --- Project Database Adapter ---

// ProjectDBAdapter implements ProjectDatabasePort.
type ProjectDBAdapter struct {
	db *gorm.DB
}

// NewProjectDBAdapter creates a new project database adapter.
func NewProjectDBAdapter(db *gorm.DB) *ProjectDBAdapter {
	return &ProjectDBAdapter{db: db}
}

func (a *ProjectDBAdapter) Create(ctx context.Context, project *model.Project) error {
	if err := a.db.WithContext(ctx).Create(FromProject(project)).Error; err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (a *ProjectDBAdapter) FindByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var e ProjectEntity
	if err := a.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return e.ToModel(), nil
}

func (a *ProjectDBAdapter) List(ctx context.Context, limit, offset int) ([]*model.Project, error) {
	var entities []ProjectEntity
	if err := a.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entities).Error; err != nil {
		return nil, err
	}

	projects := make([]*model.Project, len(entities))
	for i := range entities {
		projects[i] = entities[i].ToModel()
	}
	return projects, nil
}

func (a *ProjectDBAdapter) Update(ctx context.Context, project *model.Project) error {
	if err := a.db.WithContext(ctx).Save(FromProject(project)).Error; err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}

var _ outbound.ProjectDatabasePort = (*ProjectDBAdapter)(nil)

// --- Media Set Database Adapter ---

// MediaSetDBAdapter implements MediaSetDatabasePort.
type MediaSetDBAdapter struct {
	db *gorm.DB
}

// NewMediaSetDBAdapter creates a new media set database adapter.
func NewMediaSetDBAdapter(db *gorm.DB) *MediaSetDBAdapter {
	return &MediaSetDBAdapter{db: db}
}

func (a *MediaSetDBAdapter) Create(ctx context.Context, projectID uuid.UUID, set *model.MediaSet) error {
	if err := a.db.WithContext(ctx).Omit("Seq").Create(FromMediaSet(projectID, set)).Error; err != nil {
		return fmt.Errorf("create media set: %w", err)
	}
	return nil
}

// FindByProject returns a project's sets in insertion order.
func (a *MediaSetDBAdapter) FindByProject(ctx context.Context, projectID uuid.UUID) ([]*model.MediaSet, error) {
	var entities []MediaSetEntity
	if err := a.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("seq ASC").
		Find(&entities).Error; err != nil {
		return nil, err
	}

	sets := make([]*model.MediaSet, len(entities))
	for i := range entities {
		sets[i] = entities[i].ToModel()
	}
	return sets, nil
}

func (a *MediaSetDBAdapter) UpdateItems(ctx context.Context, set *model.MediaSet) error {
	result := a.db.WithContext(ctx).
		Model(&MediaSetEntity{}).
		Where("id = ?", set.ID).
		Select("items").
		Updates(&MediaSetEntity{Items: set.Items})
	if result.Error != nil {
		return fmt.Errorf("update media set items: %w", result.Error)
	}
	return nil
}

func (a *MediaSetDBAdapter) Delete(ctx context.Context, id uuid.UUID) error {
	return a.db.WithContext(ctx).Delete(&MediaSetEntity{}, "id = ?", id).Error
}

var _ outbound.MediaSetDatabasePort = (*MediaSetDBAdapter)(nil)

// --- Selection Database Adapter ---

// SelectionDBAdapter implements SelectionDatabasePort.
type SelectionDBAdapter struct {
	db *gorm.DB
}

// NewSelectionDBAdapter creates a new selection database adapter.
func NewSelectionDBAdapter(db *gorm.DB) *SelectionDBAdapter {
	return &SelectionDBAdapter{db: db}
}

// Get returns the project's selection, empty when none was saved.
func (a *SelectionDBAdapter) Get(ctx context.Context, projectID uuid.UUID) ([]model.MediaRef, error) {
	var e SelectionEntity
	if err := a.db.WithContext(ctx).First(&e, "project_id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return e.ToModel(), nil
}

func (a *SelectionDBAdapter) Save(ctx context.Context, projectID uuid.UUID, refs []model.MediaRef) error {
	stored := make(pq.StringArray, len(refs))
	for i, r := range refs {
		stored[i] = r.String()
	}

	e := &SelectionEntity{
		ProjectID: projectID,
		Refs:      stored,
		UpdatedAt: time.Now(),
	}
	err := a.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"refs", "updated_at"}),
	}).Create(e).Error
	if err != nil {
		return fmt.Errorf("save selection: %w", err)
	}
	return nil
}

var _ outbound.SelectionDatabasePort = (*SelectionDBAdapter)(nil)

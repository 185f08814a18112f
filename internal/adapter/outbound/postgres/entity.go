package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/uniedit/reelgen/internal/model"
)

// ProjectEntity is the GORM entity for projects.
type ProjectEntity struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name          string    `gorm:"not null"`
	AudioURL      string    `gorm:"type:text"`
	AudioDuration *float64
	CreatedAt     time.Time `gorm:"not null;index"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName returns the database table name.
func (ProjectEntity) TableName() string {
	return "projects"
}

// ToModel converts the entity to a model.
func (e *ProjectEntity) ToModel() *model.Project {
	return &model.Project{
		ID:            e.ID,
		Name:          e.Name,
		AudioURL:      e.AudioURL,
		AudioDuration: e.AudioDuration,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// FromProject converts a project to an entity.
func FromProject(p *model.Project) *ProjectEntity {
	return &ProjectEntity{
		ID:            p.ID,
		Name:          p.Name,
		AudioURL:      p.AudioURL,
		AudioDuration: p.AudioDuration,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// MediaSetEntity is the GORM entity for media sets. Items are stored as
// one jsonb column so a set is always read and written whole.
type MediaSetEntity struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey"`
	ProjectID    uuid.UUID         `gorm:"type:uuid;not null;index:idx_media_sets_project_seq,priority:1"`
	Seq          int64             `gorm:"autoIncrement;index:idx_media_sets_project_seq,priority:2"`
	SourcePrompt string            `gorm:"type:text"`
	Provider     string            `gorm:"size:64"`
	Items        []model.MediaItem `gorm:"type:jsonb;serializer:json;not null"`
	GeneratedAt  time.Time         `gorm:"not null"`
}

// TableName returns the database table name.
func (MediaSetEntity) TableName() string {
	return "media_sets"
}

// ToModel converts the entity to a model.
func (e *MediaSetEntity) ToModel() *model.MediaSet {
	return &model.MediaSet{
		ID:           e.ID,
		SourcePrompt: e.SourcePrompt,
		Items:        e.Items,
		Provider:     e.Provider,
		GeneratedAt:  e.GeneratedAt,
	}
}

// FromMediaSet converts a media set to an entity.
func FromMediaSet(projectID uuid.UUID, s *model.MediaSet) *MediaSetEntity {
	return &MediaSetEntity{
		ID:           s.ID,
		ProjectID:    projectID,
		SourcePrompt: s.SourcePrompt,
		Provider:     s.Provider,
		Items:        s.Items,
		GeneratedAt:  s.GeneratedAt,
	}
}

// SelectionEntity is the GORM entity for a project's ordered selection.
type SelectionEntity struct {
	ProjectID uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Refs      pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	UpdatedAt time.Time      `gorm:"not null"`
}

// TableName returns the database table name.
func (SelectionEntity) TableName() string {
	return "selections"
}

// ToModel converts the stored refs to media refs.
func (e *SelectionEntity) ToModel() []model.MediaRef {
	refs := make([]model.MediaRef, 0, len(e.Refs))
	for _, r := range e.Refs {
		refs = append(refs, model.MediaRef(r))
	}
	return refs
}

// Entities lists every entity for auto migration.
func Entities() []any {
	return []any{
		&ProjectEntity{},
		&MediaSetEntity{},
		&SelectionEntity{},
	}
}

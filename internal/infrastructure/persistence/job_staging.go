package persistence

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	appjob "github.com/wms/backend/internal/application/job"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// stageInsertBatchSize bounds one staged-row INSERT statement
const stageInsertBatchSize = 500

// GormRowStager buffers import/export rows in the database between the
// reading and running phases
type GormRowStager struct {
	db *gorm.DB
}

// NewGormRowStager creates a new GormRowStager
func NewGormRowStager(db *gorm.DB) *GormRowStager {
	return &GormRowStager{db: db}
}

// Stage persists rows at positions offset..offset+len-1. Re-staging the
// same positions after a crash overwrites the earlier payloads, so a
// partially persisted chunk never duplicates rows.
func (s *GormRowStager) Stage(ctx context.Context, jobID uuid.UUID, offset int, rows []appjob.Row) error {
	if len(rows) == 0 {
		return nil
	}
	staged := make([]stagedRow, len(rows))
	for i, row := range rows {
		payload, err := json.Marshal(row)
		if err != nil {
			return err
		}
		staged[i] = stagedRow{
			JobID:    jobID,
			Position: offset + i,
			Payload:  payload,
		}
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "job_id"}, {Name: "position"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload"}),
		}).
		CreateInBatches(staged, stageInsertBatchSize).Error
}

// Fetch returns up to limit rows starting at position offset
func (s *GormRowStager) Fetch(ctx context.Context, jobID uuid.UUID, offset, limit int) ([]appjob.Row, error) {
	var staged []stagedRow
	if err := s.db.WithContext(ctx).
		Where("job_id = ? AND position >= ?", jobID, offset).
		Order("position").
		Limit(limit).
		Find(&staged).Error; err != nil {
		return nil, err
	}
	rows := make([]appjob.Row, len(staged))
	for i, sr := range staged {
		var row appjob.Row
		if err := json.Unmarshal(sr.Payload, &row); err != nil {
			return nil, err
		}
		rows[i] = row
	}
	return rows, nil
}

// Count returns the number of staged rows of a job
func (s *GormRowStager) Count(ctx context.Context, jobID uuid.UUID) (int, error) {
	var total int64
	if err := s.db.WithContext(ctx).
		Model(&stagedRow{}).
		Where("job_id = ?", jobID).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return int(total), nil
}

// Clear removes all staged rows of a job
func (s *GormRowStager) Clear(ctx context.Context, jobID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Delete(&stagedRow{}).Error
}

var _ appjob.RowStager = (*GormRowStager)(nil)

// GormDocumentStore resolves a job's attached document metadata
type GormDocumentStore struct {
	db *gorm.DB
}

// NewGormDocumentStore creates a new GormDocumentStore
func NewGormDocumentStore(db *gorm.DB) *GormDocumentStore {
	return &GormDocumentStore{db: db}
}

// FindByJob returns the job's attached document, or nil
func (s *GormDocumentStore) FindByJob(ctx context.Context, jobID uuid.UUID) (*appjob.Document, error) {
	var row jobDocumentRow
	err := s.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appjob.Document{Name: row.Name, MimeType: row.MimeType}, nil
}

// Attach stores the metadata of a file attached to a job
func (s *GormDocumentStore) Attach(ctx context.Context, jobID uuid.UUID, name, mimeType string) error {
	return s.db.WithContext(ctx).Create(&jobDocumentRow{
		ID:       uuid.New(),
		JobID:    jobID,
		Name:     name,
		MimeType: mimeType,
	}).Error
}

var _ appjob.DocumentStore = (*GormDocumentStore)(nil)

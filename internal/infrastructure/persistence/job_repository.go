package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/job"
	"github.com/wms/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormJobRepository implements JobRepository using GORM
type GormJobRepository struct {
	db *gorm.DB
}

// NewGormJobRepository creates a new GormJobRepository
func NewGormJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: db}
}

// Create inserts a new job
func (r *GormJobRepository) Create(ctx context.Context, j *job.ResumableJob) error {
	return r.db.WithContext(ctx).Create(j).Error
}

// FindByID returns a job, or nil when it does not exist
func (r *GormJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*job.ResumableJob, error) {
	var j job.ResumableJob
	err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &j, nil
}

// Update persists state, cursor, progress and errors. Uses optimistic
// locking on the aggregate version.
func (r *GormJobRepository) Update(ctx context.Context, j *job.ResumableJob) error {
	currentVersion := j.Version
	j.IncrementVersion()

	result := r.db.WithContext(ctx).
		Model(&job.ResumableJob{}).
		Where("id = ? AND version = ?", j.ID, currentVersion).
		Updates(map[string]interface{}{
			"state":                 j.State,
			"state_data":            j.StateData,
			"current_item":          j.CurrentItem,
			"total_number_of_items": j.TotalNumberOfItems,
			"errors":                j.Errors,
			"started_at":            j.StartedAt,
			"completed_at":          j.CompletedAt,
			"version":               j.Version,
			"updated_at":            gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		j.Version = currentVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		j.Version = currentVersion
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// List returns jobs matching the filter, paginated
func (r *GormJobRepository) List(ctx context.Context, filter shared.Filter) (shared.Paginated[*job.ResumableJob], error) {
	query := r.db.WithContext(ctx).Model(&job.ResumableJob{})
	for field, value := range filter.Filters {
		switch field {
		case "state", "type", "profile_technical_name":
			query = query.Where(field+" = ?", value)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return shared.Paginated[*job.ResumableJob]{}, err
	}

	var jobs []*job.ResumableJob
	if err := query.
		Order("created_at DESC").
		Limit(filter.PageSize).
		Offset((filter.Page - 1) * filter.PageSize).
		Find(&jobs).Error; err != nil {
		return shared.Paginated[*job.ResumableJob]{}, err
	}
	return shared.NewPaginated(jobs, total, filter.Page, filter.PageSize), nil
}

var _ job.JobRepository = (*GormJobRepository)(nil)

package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/domain/stocktaking"
	"gorm.io/gorm"
)

// GormCountingProcessRepository implements CountingProcessRepository
// using GORM
type GormCountingProcessRepository struct {
	db *gorm.DB
}

// NewGormCountingProcessRepository creates a new GormCountingProcessRepository
func NewGormCountingProcessRepository(db *gorm.DB) *GormCountingProcessRepository {
	return &GormCountingProcessRepository{db: db}
}

// Create inserts a new counting process
func (r *GormCountingProcessRepository) Create(ctx context.Context, p *stocktaking.CountingProcess) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// FindByID returns a counting process, or nil when it does not exist
func (r *GormCountingProcessRepository) FindByID(ctx context.Context, id uuid.UUID) (*stocktaking.CountingProcess, error) {
	var p stocktaking.CountingProcess
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// Update persists counts and the completion marker with optimistic
// locking on the aggregate version
func (r *GormCountingProcessRepository) Update(ctx context.Context, p *stocktaking.CountingProcess) error {
	currentVersion := p.Version
	p.IncrementVersion()

	result := r.db.WithContext(ctx).
		Model(&stocktaking.CountingProcess{}).
		Where("id = ? AND version = ?", p.ID, currentVersion).
		Updates(map[string]interface{}{
			"counts":        p.Counts,
			"import_job_id": p.ImportJobID,
			"version":       p.Version,
			"updated_at":    gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		p.Version = currentVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		p.Version = currentVersion
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// FindByWarehouse returns all counting processes of a warehouse
func (r *GormCountingProcessRepository) FindByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]*stocktaking.CountingProcess, error) {
	var processes []*stocktaking.CountingProcess
	if err := r.db.WithContext(ctx).
		Where("warehouse_id = ?", warehouseID).
		Order("created_at DESC").
		Find(&processes).Error; err != nil {
		return nil, err
	}
	return processes, nil
}

var _ stocktaking.CountingProcessRepository = (*GormCountingProcessRepository)(nil)
